// Package dtd reads Document Type Definitions into a DocumentType.
//
// Input is either an external subset (a file of markup declarations) or an
// XML document whose DOCTYPE carries an internal subset and optionally
// references an external one. Parameter entities are expanded textually,
// conditional sections are honoured, and external entities are located
// through a loader.Resolver.
package dtd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"

	dtderrors "github.com/jacoelho/dtdmodel/errors"
	"github.com/jacoelho/dtdmodel/internal/doctype"
	"github.com/jacoelho/dtdmodel/internal/loader"
)

// DefaultMaxExpansions bounds the number of parameter entity references
// expanded in one parse.
const DefaultMaxExpansions = 1 << 16

// Options configures Parse.
type Options struct {
	// Resolver locates the external subset and external parameter
	// entities. Without one, any external reference fails.
	Resolver loader.Resolver
	Logger   *slog.Logger
	// KeepParameterEntities emits parameter entity declarations into the
	// result, flagged as parameter entities.
	KeepParameterEntities bool
	// MaxExpansions overrides DefaultMaxExpansions when positive.
	MaxExpansions int
}

// Parse reads a DTD from r. systemID names the input for relative
// references and messages; it may be empty for stream input.
func Parse(r io.Reader, systemID string, opts Options) (*doctype.DocumentType, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, dtderrors.Parse(err, "read DTD").WithSource(systemID)
	}
	text, err := decode(data)
	if err != nil {
		return nil, dtderrors.Parse(err, "decode DTD").WithSource(systemID)
	}

	p := newParser(opts)
	if err := p.document(newScanner(text, systemID)); err != nil {
		return nil, classify(err, systemID)
	}
	p.logger.Debug("declarations parsed", "source", systemID, "count", len(p.decls), "expansions", p.expansions)
	return doctype.New(p.decls), nil
}

func classify(err error, systemID string) error {
	if _, ok := dtderrors.AsError(err); ok {
		return err
	}
	var syntax *syntaxError
	if errors.As(err, &syntax) {
		return dtderrors.Parse(err, "parse DTD").WithSource(syntax.source)
	}
	return dtderrors.Parse(err, "parse DTD").WithSource(systemID)
}

// load reads an external entity relative to base.
func (p *parser) load(base, location string) (text, systemID string, err error) {
	if p.opts.Resolver == nil {
		return "", "", dtderrors.SchemaProcessing(nil, "no resolver configured for %q", location).WithSource(base)
	}
	rc, systemID, err := p.opts.Resolver.Resolve(loader.ResolveRequest{
		BaseSystemID:   base,
		SchemaLocation: location,
		Kind:           loader.ResolveEntity,
	})
	if err != nil {
		return "", "", dtderrors.SchemaProcessing(err, "resolve external entity %q", location).WithSource(base)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			p.logger.Warn("close external entity", "source", systemID, "error", cerr)
		}
	}()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", "", dtderrors.SchemaProcessing(err, "read external entity %q", location).WithSource(systemID)
	}
	text, err = decode(data)
	if err != nil {
		return "", "", dtderrors.Parse(err, "decode external entity").WithSource(systemID)
	}
	p.logger.Debug("external entity loaded", "location", location, "source", systemID, "bytes", len(data))
	return text, systemID, nil
}

var encodingDecl = regexp.MustCompile(`encoding\s*=\s*["']([A-Za-z][A-Za-z0-9._-]*)["']`)

// decode returns data as UTF-8 text. A byte order mark selects UTF-8 or
// UTF-16; otherwise the encoding named by a leading XML or text
// declaration is used.
func decode(data []byte) (string, error) {
	var enc encoding.Encoding
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return string(data[3:]), nil
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}), bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		enc = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	default:
		name := declaredEncoding(data)
		if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "us-ascii") {
			return string(data), nil
		}
		e, err := ianaindex.IANA.Encoding(name)
		if err != nil {
			return "", fmt.Errorf("unsupported encoding %q: %w", name, err)
		}
		if e == nil {
			return "", fmt.Errorf("unsupported encoding %q", name)
		}
		enc = e
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func declaredEncoding(data []byte) string {
	if !bytes.HasPrefix(data, []byte("<?xml")) {
		return ""
	}
	end := bytes.Index(data, []byte("?>"))
	if end < 0 {
		return ""
	}
	m := encodingDecl.FindSubmatch(data[:end])
	if m == nil {
		return ""
	}
	return string(m[1])
}

// stripTextDecl removes a leading text declaration from an external
// parsed entity.
func stripTextDecl(text string) string {
	if !strings.HasPrefix(text, "<?xml") {
		return text
	}
	if rest := text[len("<?xml"):]; rest == "" || !isBlank(rest[0]) {
		return text
	}
	end := strings.Index(text, "?>")
	if end < 0 {
		return text
	}
	return text[end+2:]
}
