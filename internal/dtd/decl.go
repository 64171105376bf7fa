package dtd

import (
	"strings"

	dtderrors "github.com/jacoelho/dtdmodel/errors"
	"github.com/jacoelho/dtdmodel/internal/contentmodel"
	"github.com/jacoelho/dtdmodel/internal/doctype"
)

// maxContentDepth bounds the nesting of parenthesized groups in a children
// content specification.
const maxContentDepth = 128

// elementDecl parses an element type declaration body:
//
//	S Name S contentspec S?
func (p *parser) elementDecl(s *scanner) error {
	if err := s.requireBlanks("after '<!ELEMENT'"); err != nil {
		return err
	}
	name, err := s.name()
	if err != nil {
		return err
	}
	if err := s.requireBlanks("after the element name"); err != nil {
		return err
	}

	var cm contentmodel.ContentModel
	if kw, ok := s.keyword("EMPTY", "ANY"); ok {
		if kw == "EMPTY" {
			cm = contentmodel.NewEmpty()
		} else {
			cm = contentmodel.NewAny()
		}
	} else if s.consume("(") {
		s.skipBlanks()
		if s.consume("#PCDATA") {
			cm, err = mixedContent(s)
		} else {
			cm, err = childrenContent(s)
		}
		if err != nil {
			return err
		}
	} else {
		return s.errorf("content specification expected for element %q", name)
	}

	s.skipBlanks()
	if !s.done() {
		return s.errorf("unexpected %q after the content specification of %q", s.peek(), name)
	}
	el, err := doctype.NewElement(name, cm)
	if err != nil {
		return dtderrors.ContentModelFormat("element %q: %v", name, err).WithSource(s.source)
	}
	p.emit(el)
	return nil
}

// mixedContent parses the rest of a mixed content specification after
// '(#PCDATA'. With names the group must end in ")*".
func mixedContent(s *scanner) (contentmodel.ContentModel, error) {
	var (
		refs []contentmodel.Node
		seen = make(map[string]bool)
	)
	for {
		s.skipBlanks()
		if s.consume(")") {
			if len(refs) > 0 && !s.consume("*") {
				return contentmodel.ContentModel{}, s.errorf("mixed content with element names must end in \")*\"")
			}
			if len(refs) == 0 {
				s.consume("*")
			}
			return contentmodel.NewMixedModel(contentmodel.NewMixed(refs...))
		}
		if !s.consume("|") {
			return contentmodel.ContentModel{}, s.errorf("'|' or ')' expected in mixed content")
		}
		s.skipBlanks()
		name, err := s.name()
		if err != nil {
			return contentmodel.ContentModel{}, err
		}
		if seen[name] {
			return contentmodel.ContentModel{}, dtderrors.ContentModelFormat("element %q repeated in mixed content", name).WithSource(s.source)
		}
		seen[name] = true
		refs = append(refs, contentmodel.NewElementRef(name))
	}
}

// childrenContent parses a children content specification after its
// opening parenthesis. The model root is always a sequence; a top-level
// choice is wrapped in one.
func childrenContent(s *scanner) (contentmodel.ContentModel, error) {
	group, err := contentGroup(s, 1)
	if err != nil {
		return contentmodel.ContentModel{}, err
	}
	seq, ok := group.(*contentmodel.Sequence)
	if !ok {
		seq = contentmodel.NewSequence(group)
	}
	return contentmodel.NewChildrenModel(seq)
}

// contentGroup parses particles up to the closing parenthesis, then the
// group's occurrence indicator. Separators may not be mixed.
func contentGroup(s *scanner, depth int) (contentmodel.Bounded, error) {
	if depth > maxContentDepth {
		return nil, s.errorf("content model nested deeper than %d", maxContentDepth)
	}
	var (
		items []contentmodel.Node
		sep   byte
	)
	for {
		s.skipBlanks()
		item, err := contentParticle(s, depth)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		s.skipBlanks()

		switch c := s.peek(); c {
		case ')':
			s.advance(1)
			var group contentmodel.Bounded
			if sep == '|' {
				group = contentmodel.NewAlternative(items...)
			} else {
				group = contentmodel.NewSequence(items...)
			}
			if err := occurrence(s, group); err != nil {
				return nil, err
			}
			return group, nil
		case ',', '|':
			if sep != 0 && byte(c) != sep {
				return nil, s.errorf("'%c' expected", sep)
			}
			sep = byte(c)
			s.advance(1)
		default:
			return nil, s.errorf("',', '|' or ')' expected in content model")
		}
	}
}

func contentParticle(s *scanner, depth int) (contentmodel.Node, error) {
	if s.consume("(") {
		return contentGroup(s, depth+1)
	}
	name, err := s.name()
	if err != nil {
		return nil, err
	}
	ref := contentmodel.NewElementRef(name)
	if err := occurrence(s, ref); err != nil {
		return nil, err
	}
	return ref, nil
}

// occurrence applies a trailing '?', '*' or '+' to n.
func occurrence(s *scanner, n contentmodel.Bounded) error {
	var minOccurs, maxOccurs contentmodel.Occurs
	switch s.peek() {
	case '?':
		minOccurs, maxOccurs = 0, 1
	case '*':
		minOccurs, maxOccurs = 0, contentmodel.Unbounded
	case '+':
		minOccurs, maxOccurs = 1, contentmodel.Unbounded
	default:
		return nil
	}
	s.advance(1)
	return n.SetMinMaxOccurs(minOccurs, maxOccurs)
}

// attlistDecl parses an attribute-list declaration body:
//
//	S Name (S Name S AttType S DefaultDecl)* S?
func (p *parser) attlistDecl(s *scanner) error {
	if err := s.requireBlanks("after '<!ATTLIST'"); err != nil {
		return err
	}
	element, err := s.name()
	if err != nil {
		return err
	}
	var attrs []doctype.Attribute
	for {
		blank := s.skipBlanks()
		if s.done() {
			break
		}
		if !blank {
			return s.errorf("white space required before attribute definition")
		}
		attr, err := attributeDef(s)
		if err != nil {
			return err
		}
		attrs = append(attrs, attr)
	}
	list, err := doctype.NewAttributeList(element, attrs...)
	if err != nil {
		return dtderrors.ContentModelFormat("attribute list %q: %v", element, err).WithSource(s.source)
	}
	p.emit(list)
	return nil
}

func attributeDef(s *scanner) (doctype.Attribute, error) {
	name, err := s.name()
	if err != nil {
		return doctype.Attribute{}, err
	}
	if err := s.requireBlanks("after the attribute name"); err != nil {
		return doctype.Attribute{}, err
	}
	typ, err := attributeType(s)
	if err != nil {
		return doctype.Attribute{}, err
	}
	if err := s.requireBlanks("after the attribute type"); err != nil {
		return doctype.Attribute{}, err
	}
	def, err := defaultDecl(s)
	if err != nil {
		return doctype.Attribute{}, err
	}
	attr, err := doctype.NewAttribute(name, typ, def)
	if err != nil {
		return doctype.Attribute{}, dtderrors.ContentModelFormat("%v", err).WithSource(s.source)
	}
	return attr, nil
}

func attributeType(s *scanner) (doctype.AttributeType, error) {
	if s.consume("(") {
		values, err := enumeration(s, s.nmtoken)
		if err != nil {
			return doctype.AttributeType{}, err
		}
		return doctype.EnumerationType(values...), nil
	}
	if _, ok := s.keyword("NOTATION"); ok {
		if err := s.requireBlanks("after NOTATION"); err != nil {
			return doctype.AttributeType{}, err
		}
		if err := s.expect("("); err != nil {
			return doctype.AttributeType{}, err
		}
		values, err := enumeration(s, s.name)
		if err != nil {
			return doctype.AttributeType{}, err
		}
		return doctype.NotationType(values...), nil
	}
	kw, ok := s.keyword("CDATA", "IDREFS", "IDREF", "ID", "ENTITIES", "ENTITY", "NMTOKENS", "NMTOKEN")
	if !ok {
		return doctype.AttributeType{}, s.errorf("attribute type expected")
	}
	kind, _ := doctype.ParseAttrKind(kw)
	return doctype.TypeOf(kind), nil
}

// enumeration parses '|'-separated tokens up to the closing parenthesis.
func enumeration(s *scanner, token func() (string, error)) ([]string, error) {
	var values []string
	for {
		s.skipBlanks()
		v, err := token()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		s.skipBlanks()
		if s.consume(")") {
			return values, nil
		}
		if !s.consume("|") {
			return nil, s.errorf("'|' or ')' expected in enumeration")
		}
	}
}

func defaultDecl(s *scanner) (doctype.Default, error) {
	switch kw, _ := s.keyword("#REQUIRED", "#IMPLIED", "#FIXED"); kw {
	case "#REQUIRED":
		return doctype.Required(), nil
	case "#IMPLIED":
		return doctype.Implied(), nil
	case "#FIXED":
		if err := s.requireBlanks("after #FIXED"); err != nil {
			return doctype.Default{}, err
		}
		value, err := attributeValue(s)
		if err != nil {
			return doctype.Default{}, err
		}
		return doctype.Fixed(value), nil
	}
	value, err := attributeValue(s)
	if err != nil {
		return doctype.Default{}, err
	}
	return doctype.AttValue(value), nil
}

func attributeValue(s *scanner) (string, error) {
	raw, err := s.quoted()
	if err != nil {
		return "", err
	}
	if strings.ContainsRune(raw, '<') {
		return "", s.errorf("'<' not allowed in attribute value")
	}
	return expandCharRefs(s, raw)
}

// entityDecl parses an entity declaration body:
//
//	S ['%' S] Name S (EntityValue | ExternalID [S NDATA S Name]) S?
func (p *parser) entityDecl(s *scanner) error {
	if err := s.requireBlanks("after '<!ENTITY'"); err != nil {
		return err
	}
	parameter := s.consume("%")
	if parameter {
		if err := s.requireBlanks("after '%'"); err != nil {
			return err
		}
	}
	name, err := s.name()
	if err != nil {
		return err
	}
	if err := s.requireBlanks("after the entity name"); err != nil {
		return err
	}

	var entity *doctype.Entity
	if q := s.peek(); q == '"' || q == '\'' {
		literal, err := s.quoted()
		if err != nil {
			return err
		}
		value, err := p.entityValue(s, literal)
		if err != nil {
			return err
		}
		if entity, err = doctype.NewInternalEntity(name, value); err != nil {
			return s.errorf("%v", err)
		}
	} else {
		id, err := externalID(s, false)
		if err != nil {
			return err
		}
		blank := s.skipBlanks()
		if _, ok := s.keyword("NDATA"); ok {
			if parameter {
				return s.errorf("parameter entity %q cannot be unparsed", name)
			}
			if !blank {
				return s.errorf("white space required before NDATA")
			}
			if err := s.requireBlanks("after NDATA"); err != nil {
				return err
			}
			notation, err := s.name()
			if err != nil {
				return err
			}
			entity, err = doctype.NewUnparsedEntity(name, id, notation)
			if err != nil {
				return s.errorf("%v", err)
			}
		} else if entity, err = doctype.NewExternalEntity(name, id); err != nil {
			return s.errorf("%v", err)
		}
	}
	s.skipBlanks()
	if !s.done() {
		return s.errorf("unexpected %q after entity %q", s.peek(), name)
	}

	if !parameter {
		p.emit(entity)
		return nil
	}
	p.declareParameterEntity(s, entity)
	if p.opts.KeepParameterEntities {
		p.emit(entity.AsParameter())
	}
	return nil
}

// declareParameterEntity binds a parameter entity. The first declaration
// of a name is binding.
func (p *parser) declareParameterEntity(s *scanner, entity *doctype.Entity) {
	name := entity.Name()
	if _, exists := p.pes[name]; exists {
		p.logger.Debug("parameter entity redeclared", "name", name, "source", s.source)
		return
	}
	pe := &paramEntity{name: name, base: s.source, systemID: s.source}
	if value, ok := entity.Value(); ok {
		pe.value = value
	} else {
		pe.id, _ = entity.ExternalID()
		pe.external = true
	}
	p.pes[name] = pe
}

// notationDecl parses a notation declaration body:
//
//	S Name S (ExternalID | PublicID) S?
func (p *parser) notationDecl(s *scanner) error {
	if err := s.requireBlanks("after '<!NOTATION'"); err != nil {
		return err
	}
	name, err := s.name()
	if err != nil {
		return err
	}
	if err := s.requireBlanks("after the notation name"); err != nil {
		return err
	}
	id, err := externalID(s, true)
	if err != nil {
		return err
	}
	s.skipBlanks()
	if !s.done() {
		return s.errorf("unexpected %q after notation %q", s.peek(), name)
	}
	notation, err := doctype.NewNotation(name, id)
	if err != nil {
		return s.errorf("%v", err)
	}
	p.emit(notation)
	return nil
}

// externalID parses SYSTEM and PUBLIC identifiers. publicOnly permits a
// PUBLIC identifier without a system literal, as in notations.
func externalID(s *scanner, publicOnly bool) (doctype.ExternalID, error) {
	kw, ok := s.keyword("SYSTEM", "PUBLIC")
	if !ok {
		return doctype.ExternalID{}, s.errorf("SYSTEM or PUBLIC expected")
	}
	if err := s.requireBlanks("after " + kw); err != nil {
		return doctype.ExternalID{}, err
	}
	var id doctype.ExternalID
	if kw == "PUBLIC" {
		public, err := s.quoted()
		if err != nil {
			return doctype.ExternalID{}, err
		}
		id.Public = strings.Join(strings.Fields(public), " ")
		blank := s.skipBlanks()
		if q := s.peek(); q != '"' && q != '\'' {
			if publicOnly {
				return id, nil
			}
			return doctype.ExternalID{}, s.errorf("system literal expected after public identifier")
		}
		if !blank {
			return doctype.ExternalID{}, s.errorf("white space required after the public identifier")
		}
	}
	system, err := s.quoted()
	if err != nil {
		return doctype.ExternalID{}, err
	}
	id.System = system
	return id, nil
}
