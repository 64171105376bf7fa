package dtd

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jacoelho/dtdmodel/internal/doctype"
)

type paramEntity struct {
	name     string
	value    string
	id       doctype.ExternalID
	base     string
	systemID string
	external bool
	loaded   bool
}

type parser struct {
	opts       Options
	logger     *slog.Logger
	decls      []doctype.MarkupDecl
	pes        map[string]*paramEntity
	active     map[string]bool
	expansions int
	limit      int
}

func newParser(opts Options) *parser {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := opts.MaxExpansions
	if limit <= 0 {
		limit = DefaultMaxExpansions
	}
	return &parser{
		opts:   opts,
		logger: logger.With("system", "dtd"),
		pes:    make(map[string]*paramEntity),
		active: make(map[string]bool),
		limit:  limit,
	}
}

func (p *parser) emit(decl doctype.MarkupDecl) {
	p.decls = append(p.decls, decl)
}

// document parses either a DOCTYPE declaration, after an optional prolog,
// or a bare external subset.
func (p *parser) document(s *scanner) error {
	for {
		s.skipBlanks()
		switch {
		case s.hasPrefix("<?"):
			s.advance(2)
			if _, err := s.until("?>"); err != nil {
				return err
			}
		case s.hasPrefix("<!--"):
			s.advance(4)
			if _, err := s.until("-->"); err != nil {
				return err
			}
		case s.consume("<!DOCTYPE"):
			return p.doctypeDecl(s)
		default:
			return p.subset(s, "")
		}
	}
}

// doctypeDecl parses the remainder of a DOCTYPE declaration. The internal
// subset is read before the external one so that its declarations bind
// first. Content after the declaration is not examined.
func (p *parser) doctypeDecl(s *scanner) error {
	if err := s.requireBlanks("after '<!DOCTYPE'"); err != nil {
		return err
	}
	root, err := s.name()
	if err != nil {
		return err
	}
	s.skipBlanks()
	var external doctype.ExternalID
	if s.hasPrefix("SYSTEM") || s.hasPrefix("PUBLIC") {
		if external, err = externalID(s, false); err != nil {
			return err
		}
		s.skipBlanks()
	}
	if s.consume("[") {
		if err := p.subset(s, "]"); err != nil {
			return err
		}
		s.skipBlanks()
	}
	if err := s.expect(">"); err != nil {
		return err
	}
	p.logger.Debug("document type", "root", root, "system", external.System)

	if external.System == "" {
		return nil
	}
	text, systemID, err := p.load(s.source, external.System)
	if err != nil {
		return err
	}
	return p.subset(newScanner(text, systemID), "")
}

// subset parses markup declarations until end is consumed, or to the end
// of input when end is empty.
func (p *parser) subset(s *scanner, end string) error {
	for {
		s.skipBlanks()
		switch {
		case s.done():
			if end != "" {
				return s.errorf("unexpected end of input, expected %q", end)
			}
			return nil
		case end != "" && s.consume(end):
			return nil
		case s.consume("<!--"):
			if _, err := s.until("-->"); err != nil {
				return err
			}
		case s.consume("<?"):
			if _, err := s.until("?>"); err != nil {
				return err
			}
		case s.consume("<!["):
			if err := p.conditionalSection(s); err != nil {
				return err
			}
		case s.consume("<!"):
			if err := p.markupDecl(s); err != nil {
				return err
			}
		case s.peek() == '%':
			if err := p.subsetReference(s); err != nil {
				return err
			}
		default:
			return s.errorf("unexpected %q in declarations", s.peek())
		}
	}
}

// subsetReference parses a parameter entity reference between
// declarations and reads its replacement text as declarations.
func (p *parser) subsetReference(s *scanner) error {
	name, n, ok := peReferenceAt(s.rest())
	if !ok {
		return s.errorf("malformed parameter entity reference")
	}
	s.advance(n)
	return p.within(s, name, func(text, systemID string) error {
		return p.subset(newScanner(stripTextDecl(text), systemID), "")
	})
}

func (p *parser) conditionalSection(s *scanner) error {
	raw, err := s.until("[")
	if err != nil {
		return err
	}
	keyword, err := p.expand(s, raw)
	if err != nil {
		return err
	}
	switch strings.TrimSpace(keyword) {
	case "INCLUDE":
		return p.subset(s, "]]>")
	case "IGNORE":
		return skipIgnored(s)
	default:
		return s.errorf("conditional section keyword %q, want INCLUDE or IGNORE", strings.TrimSpace(keyword))
	}
}

// skipIgnored consumes an ignored section, including nested sections.
func skipIgnored(s *scanner) error {
	depth := 1
	for depth > 0 {
		open := strings.Index(s.rest(), "<![")
		closing := strings.Index(s.rest(), "]]>")
		switch {
		case closing < 0:
			return s.errorf("unterminated IGNORE section")
		case open >= 0 && open < closing:
			depth++
			s.advance(open + 3)
		default:
			depth--
			s.advance(closing + 3)
		}
	}
	return nil
}

func (p *parser) markupDecl(s *scanner) error {
	keyword, ok := s.keyword("ELEMENT", "ATTLIST", "ENTITY", "NOTATION")
	if !ok {
		return s.errorf("unknown markup declaration")
	}
	raw, err := declBody(s)
	if err != nil {
		return err
	}
	body, err := p.expand(s, raw)
	if err != nil {
		return err
	}
	d := newScanner(body, s.source)
	switch keyword {
	case "ELEMENT":
		return p.elementDecl(d)
	case "ATTLIST":
		return p.attlistDecl(d)
	case "ENTITY":
		return p.entityDecl(d)
	default:
		return p.notationDecl(d)
	}
}

// declBody consumes a declaration body up to its unquoted closing '>'.
func declBody(s *scanner) (string, error) {
	start := s.pos
	var quote byte
	for i := start; i < len(s.src); i++ {
		c := s.src[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			s.pos = i + 1
			return s.src[start:i], nil
		}
	}
	return "", s.errorf("unterminated markup declaration")
}

// within runs fn over the replacement text of the named parameter entity,
// rejecting recursion and runaway expansion.
func (p *parser) within(s *scanner, name string, fn func(text, systemID string) error) error {
	if p.active[name] {
		return s.errorf("recursive reference to parameter entity %%%s;", name)
	}
	p.expansions++
	if p.expansions > p.limit {
		return s.errorf("parameter entity expansion limit of %d exceeded", p.limit)
	}
	pe, ok := p.pes[name]
	if !ok {
		return s.errorf("undeclared parameter entity %%%s;", name)
	}
	if pe.external && !pe.loaded {
		text, systemID, err := p.load(pe.base, pe.id.System)
		if err != nil {
			return err
		}
		pe.value, pe.systemID, pe.loaded = stripTextDecl(text), systemID, true
	}
	p.active[name] = true
	defer delete(p.active, name)
	return fn(pe.value, pe.systemID)
}

// expand replaces parameter entity references outside quoted literals,
// padding each replacement with a space on either side.
func (p *parser) expand(s *scanner, text string) (string, error) {
	if !strings.Contains(text, "%") {
		return text, nil
	}
	var (
		b     strings.Builder
		quote byte
	)
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '%':
			if name, n, ok := peReferenceAt(text[i:]); ok {
				err := p.within(s, name, func(value, systemID string) error {
					expanded, err := p.expand(newScanner(value, systemID), value)
					if err != nil {
						return err
					}
					b.WriteByte(' ')
					b.WriteString(expanded)
					b.WriteByte(' ')
					return nil
				})
				if err != nil {
					return "", err
				}
				i += n
				continue
			}
		}
		b.WriteByte(c)
		i++
	}
	return b.String(), nil
}

// entityValue expands parameter entity and character references inside
// an entity value literal. General entity references are kept.
func (p *parser) entityValue(s *scanner, literal string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(literal); {
		switch literal[i] {
		case '%':
			name, n, ok := peReferenceAt(literal[i:])
			if !ok {
				return "", s.errorf("malformed parameter entity reference in entity value")
			}
			err := p.within(s, name, func(value, systemID string) error {
				expanded, err := p.entityValue(newScanner(value, systemID), value)
				b.WriteString(expanded)
				return err
			})
			if err != nil {
				return "", err
			}
			i += n
		case '&':
			r, n, err := charReferenceAt(literal[i:])
			if err != nil {
				return "", s.errorf("%v", err)
			}
			if n == 0 {
				b.WriteByte('&')
				i++
				continue
			}
			b.WriteRune(r)
			i += n
		default:
			b.WriteByte(literal[i])
			i++
		}
	}
	return b.String(), nil
}

// peReferenceAt reports the entity name and length of a parameter entity
// reference at the start of text.
func peReferenceAt(text string) (name string, n int, ok bool) {
	if len(text) < 3 || text[0] != '%' {
		return "", 0, false
	}
	i := 1
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if i == 1 && !isNameStartChar(r) || i > 1 && !isNameChar(r) {
			break
		}
		i += size
	}
	if i == 1 || i >= len(text) || text[i] != ';' {
		return "", 0, false
	}
	return text[1:i], i + 1, true
}

// charReferenceAt decodes a character reference at the start of text. A
// zero length means text does not start with one.
func charReferenceAt(text string) (r rune, n int, err error) {
	if !strings.HasPrefix(text, "&#") {
		return 0, 0, nil
	}
	end := strings.IndexByte(text, ';')
	if end < 0 {
		return 0, 0, fmt.Errorf("unterminated character reference")
	}
	digits, base := text[2:end], 10
	if strings.HasPrefix(digits, "x") {
		digits, base = digits[1:], 16
	}
	v, perr := strconv.ParseUint(digits, base, 32)
	if perr != nil || !utf8.ValidRune(rune(v)) || v == 0 {
		return 0, 0, fmt.Errorf("invalid character reference %q", text[:end+1])
	}
	return rune(v), end + 1, nil
}

// expandCharRefs replaces character references in an attribute default.
func expandCharRefs(s *scanner, value string) (string, error) {
	if !strings.Contains(value, "&#") {
		return value, nil
	}
	var b strings.Builder
	for i := 0; i < len(value); {
		r, n, err := charReferenceAt(value[i:])
		if err != nil {
			return "", s.errorf("%v", err)
		}
		if n == 0 {
			b.WriteByte(value[i])
			i++
			continue
		}
		b.WriteRune(r)
		i += n
	}
	return b.String(), nil
}
