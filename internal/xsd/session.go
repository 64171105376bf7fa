package xsd

import (
	"io"
	"log/slog"

	dtderrors "github.com/jacoelho/dtdmodel/errors"
	"github.com/jacoelho/dtdmodel/internal/doctype"
	"github.com/jacoelho/dtdmodel/internal/loader"
	"github.com/jacoelho/dtdmodel/internal/treewalk"
	"github.com/jacoelho/dtdmodel/internal/types"
	"github.com/jacoelho/dtdmodel/internal/xmltree"
)

// Namespace is the XML Schema namespace.
const Namespace = types.XSDNamespace

// Options configures a Session.
type Options struct {
	// Resolver locates import and include targets. Without one, any
	// reference with a schemaLocation fails.
	Resolver loader.Resolver
	Logger   *slog.Logger
}

// Session holds the mutable state of one schema compilation: the type
// registry, the import/include ledger, and the declaration accumulator.
// A Session is single-use and not safe for concurrent use; independent
// compilations use independent sessions.
type Session struct {
	registry *types.Registry
	loader   *loader.Loader
	logger   *slog.Logger
	decls    []doctype.MarkupDecl
	used     bool
}

// NewSession returns a fresh compilation session.
func NewSession(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		registry: types.NewRegistry(),
		loader:   loader.New(loader.Config{Resolver: opts.Resolver, Logger: logger}),
		logger:   logger.With("system", "xsd"),
	}
}

// Registry returns the session type registry.
func (s *Session) Registry() *types.Registry { return s.registry }

// Ledger returns the session import/include ledger.
func (s *Session) Ledger() *loader.Ledger { return s.loader.Ledger() }

// Parse reads a schema document and compiles it. systemID names the document
// for relative references and messages; it may be empty for stream input.
func (s *Session) Parse(r io.Reader, systemID string) (*doctype.DocumentType, error) {
	doc, err := xmltree.Parse(r, systemID)
	if err != nil {
		return nil, dtderrors.Parse(err, "read schema").WithSource(systemID)
	}
	return s.Compile(doc)
}

// Compile runs the passes over an already parsed schema tree: references
// are spliced to a fixed point, types are declared, then elements and
// notations are extracted and assembled.
func (s *Session) Compile(doc *xmltree.Document) (*doctype.DocumentType, error) {
	if s.used {
		return nil, dtderrors.Input("session already used; create a new session per compilation")
	}
	s.used = true

	root := doc.Root()
	if !doc.Is(root, Namespace, "schema") {
		return nil, dtderrors.Parse(nil, "document element is {%s}%s, want {%s}schema",
			doc.NamespaceURI(root), doc.LocalName(root), Namespace).WithSource(doc.SystemID(root))
	}

	if err := s.loader.ResolveDirectives(doc); err != nil {
		return nil, err
	}

	declarations := newTypeDeclarations(s, doc)
	if err := treewalk.Walk(doc, declarations); err != nil {
		return nil, s.wrap(err, "declare types")
	}
	s.logger.Debug("types declared", "named", s.registry.Len(), "nodes", declarations.count)

	if err := treewalk.Walk(doc, elementExtraction{s}, notationExtraction{s}); err != nil {
		return nil, s.wrap(err, "extract declarations")
	}
	s.logger.Debug("declarations extracted", "count", len(s.decls))

	return doctype.New(s.decls), nil
}

func (s *Session) emit(decl doctype.MarkupDecl) {
	s.decls = append(s.decls, decl)
}

func (s *Session) wrap(err error, stage string) error {
	if _, ok := dtderrors.AsError(err); ok {
		return err
	}
	return dtderrors.SchemaProcessing(err, "%s", stage)
}
