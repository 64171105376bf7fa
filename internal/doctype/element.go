package doctype

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jacoelho/dtdmodel/internal/contentmodel"
)

// AttrKind is the declared type of an attribute.
type AttrKind uint8

const (
	AttrCDATA AttrKind = iota + 1
	AttrID
	AttrIDREF
	AttrIDREFS
	AttrENTITY
	AttrENTITIES
	AttrNMTOKEN
	AttrNMTOKENS
	AttrNOTATION
	AttrEnumeration
)

var attrKindNames = map[AttrKind]string{
	AttrCDATA:       "CDATA",
	AttrID:          "ID",
	AttrIDREF:       "IDREF",
	AttrIDREFS:      "IDREFS",
	AttrENTITY:      "ENTITY",
	AttrENTITIES:    "ENTITIES",
	AttrNMTOKEN:     "NMTOKEN",
	AttrNMTOKENS:    "NMTOKENS",
	AttrNOTATION:    "NOTATION",
	AttrEnumeration: "ENUMERATION",
}

func (k AttrKind) String() string {
	if name, ok := attrKindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseAttrKind maps a DTD tokenized type keyword to its kind.
func ParseAttrKind(keyword string) (AttrKind, bool) {
	for kind, name := range attrKindNames {
		if kind != AttrNOTATION && kind != AttrEnumeration && name == keyword {
			return kind, true
		}
	}
	return 0, false
}

// AttributeType is an attribute kind plus, for NOTATION and ENUMERATION,
// the allowed values.
type AttributeType struct {
	values []string
	kind   AttrKind
}

// TypeOf returns a type without a value list. NOTATION and ENUMERATION
// must use NotationType and EnumerationType.
func TypeOf(kind AttrKind) AttributeType {
	return AttributeType{kind: kind}
}

// NotationType returns a NOTATION type over the given notation names.
func NotationType(values ...string) AttributeType {
	return AttributeType{kind: AttrNOTATION, values: slices.Clone(values)}
}

// EnumerationType returns an enumerated type over the given tokens.
func EnumerationType(values ...string) AttributeType {
	return AttributeType{kind: AttrEnumeration, values: slices.Clone(values)}
}

// Kind returns the attribute kind.
func (t AttributeType) Kind() AttrKind { return t.kind }

// Values returns a copy of the allowed values.
func (t AttributeType) Values() []string { return slices.Clone(t.values) }

// Compare orders by kind, then values.
func (t AttributeType) Compare(other AttributeType) int {
	if c := compareUint8(uint8(t.kind), uint8(other.kind)); c != 0 {
		return c
	}
	return slices.Compare(t.values, other.values)
}

func (t AttributeType) String() string {
	switch t.kind {
	case AttrNOTATION:
		return "NOTATION (" + strings.Join(t.values, "|") + ")"
	case AttrEnumeration:
		return "(" + strings.Join(t.values, "|") + ")"
	default:
		return t.kind.String()
	}
}

// DefaultKind is the default declaration of an attribute.
type DefaultKind uint8

const (
	DefaultRequired DefaultKind = iota + 1
	DefaultImplied
	DefaultFixed
	DefaultValue
)

func (k DefaultKind) String() string {
	switch k {
	case DefaultRequired:
		return "REQUIRED"
	case DefaultImplied:
		return "IMPLIED"
	case DefaultFixed:
		return "FIXED"
	case DefaultValue:
		return "ATTVALUE"
	default:
		return "UNKNOWN"
	}
}

// Default is an attribute default declaration.
type Default struct {
	value string
	kind  DefaultKind
}

// Required returns #REQUIRED.
func Required() Default { return Default{kind: DefaultRequired} }

// Implied returns #IMPLIED.
func Implied() Default { return Default{kind: DefaultImplied} }

// Fixed returns #FIXED value.
func Fixed(value string) Default { return Default{kind: DefaultFixed, value: value} }

// AttValue returns a plain default value.
func AttValue(value string) Default { return Default{kind: DefaultValue, value: value} }

// Kind returns the default kind.
func (d Default) Kind() DefaultKind { return d.kind }

// Value returns the default value for FIXED and ATTVALUE.
func (d Default) Value() (string, bool) {
	return d.value, d.kind == DefaultFixed || d.kind == DefaultValue
}

// Compare orders by kind, then value.
func (d Default) Compare(other Default) int {
	if c := compareUint8(uint8(d.kind), uint8(other.kind)); c != 0 {
		return c
	}
	return strings.Compare(d.value, other.value)
}

func (d Default) String() string {
	switch d.kind {
	case DefaultRequired:
		return "#REQUIRED"
	case DefaultImplied:
		return "#IMPLIED"
	case DefaultFixed:
		return fmt.Sprintf("#FIXED %q", d.value)
	case DefaultValue:
		return fmt.Sprintf("%q", d.value)
	default:
		return ""
	}
}

// Attribute is one attribute definition.
type Attribute struct {
	name string
	typ  AttributeType
	def  Default
}

// NewAttribute returns an attribute definition.
func NewAttribute(name string, typ AttributeType, def Default) (Attribute, error) {
	if name == "" {
		return Attribute{}, fmt.Errorf("attribute name is empty")
	}
	if typ.kind == 0 {
		return Attribute{}, fmt.Errorf("attribute %q has no type", name)
	}
	if (typ.kind == AttrNOTATION || typ.kind == AttrEnumeration) && len(typ.values) == 0 {
		return Attribute{}, fmt.Errorf("attribute %q: %s type requires values", name, typ.kind)
	}
	if def.kind == 0 {
		return Attribute{}, fmt.Errorf("attribute %q has no default declaration", name)
	}
	return Attribute{name: name, typ: typ, def: def}, nil
}

func (a Attribute) Name() string { return a.name }

// Type returns the declared type.
func (a Attribute) Type() AttributeType { return a.typ }

// Default returns the default declaration.
func (a Attribute) Default() Default { return a.def }

// Compare orders by name, type, then default.
func (a Attribute) Compare(other Attribute) int {
	if c := strings.Compare(a.name, other.name); c != 0 {
		return c
	}
	if c := a.typ.Compare(other.typ); c != 0 {
		return c
	}
	return a.def.Compare(other.def)
}

// Equal reports structural equality.
func (a Attribute) Equal(other Attribute) bool { return a.Compare(other) == 0 }

// Clone returns a deep copy.
func (a Attribute) Clone() Attribute {
	a.typ.values = slices.Clone(a.typ.values)
	return a
}

func (a Attribute) String() string {
	return fmt.Sprintf("%s %s %s", a.name, a.typ, a.def)
}

// AttributeList is the ordered attribute definitions of one element.
type AttributeList struct {
	name       string
	attributes []Attribute
}

// NewAttributeList returns an attribute list for the named element.
// Repeated attribute names keep the first definition.
func NewAttributeList(name string, attributes ...Attribute) (*AttributeList, error) {
	if name == "" {
		return nil, fmt.Errorf("attribute list name is empty")
	}
	l := &AttributeList{name: name}
	l.add(attributes)
	return l, nil
}

func emptyAttributeList(name string) *AttributeList {
	return &AttributeList{name: name}
}

func (l *AttributeList) add(attributes []Attribute) {
	for _, attr := range attributes {
		if _, exists := l.Attribute(attr.name); exists {
			continue
		}
		l.attributes = append(l.attributes, attr.Clone())
	}
}

func (l *AttributeList) Name() string { return l.name }

// Attributes returns a copy of the definitions in declaration order.
func (l *AttributeList) Attributes() []Attribute {
	out := make([]Attribute, len(l.attributes))
	for i, attr := range l.attributes {
		out[i] = attr.Clone()
	}
	return out
}

// Attribute returns the definition with the given name.
func (l *AttributeList) Attribute(name string) (Attribute, bool) {
	for _, attr := range l.attributes {
		if attr.name == name {
			return attr.Clone(), true
		}
	}
	return Attribute{}, false
}

// Len returns the number of definitions.
func (l *AttributeList) Len() int { return len(l.attributes) }

// Merge returns a new list with other's definitions appended; existing
// names keep their first definition.
func (l *AttributeList) Merge(other *AttributeList) *AttributeList {
	merged := l.Clone()
	if other != nil {
		merged.add(other.attributes)
	}
	return merged
}

// Equal reports structural equality.
func (l *AttributeList) Equal(other *AttributeList) bool { return l.Compare(other) == 0 }

// Compare orders by name, then definitions.
func (l *AttributeList) Compare(other *AttributeList) int {
	if other == nil {
		return 1
	}
	if c := strings.Compare(l.name, other.name); c != 0 {
		return c
	}
	return slices.CompareFunc(l.attributes, other.attributes, Attribute.Compare)
}

// Clone returns a deep copy.
func (l *AttributeList) Clone() *AttributeList {
	return &AttributeList{name: l.name, attributes: l.Attributes()}
}

func (l *AttributeList) String() string {
	var b strings.Builder
	b.WriteString("<!ATTLIST ")
	b.WriteString(l.name)
	for _, attr := range l.attributes {
		b.WriteString("\n  ")
		b.WriteString(attr.String())
	}
	b.WriteString(">")
	return b.String()
}

func (l *AttributeList) markupDecl() {}

// Element declares an element name, its content model, and its attributes.
type Element struct {
	attributes *AttributeList
	content    contentmodel.ContentModel
	name       string
}

// NewElement returns an element with an empty attribute list.
func NewElement(name string, content contentmodel.ContentModel) (*Element, error) {
	if name == "" {
		return nil, fmt.Errorf("element name is empty")
	}
	if content.IsZero() {
		return nil, fmt.Errorf("element %q has no content model", name)
	}
	return &Element{name: name, content: content, attributes: emptyAttributeList(name)}, nil
}

func (e *Element) Name() string { return e.name }

// Content returns the content model.
func (e *Element) Content() contentmodel.ContentModel { return e.content }

// AttributeList returns the linked attribute list, which is empty until
// the document type links a same-named list.
func (e *Element) AttributeList() *AttributeList { return e.attributes }

func (e *Element) withAttributeList(list *AttributeList) *Element {
	cp := e.Clone()
	cp.attributes = list
	return cp
}

// Equal reports structural equality.
func (e *Element) Equal(other *Element) bool { return e.Compare(other) == 0 }

// Compare orders by name, content model, then attribute list.
func (e *Element) Compare(other *Element) int {
	if other == nil {
		return 1
	}
	if c := strings.Compare(e.name, other.name); c != 0 {
		return c
	}
	if c := e.content.Compare(other.content); c != 0 {
		return c
	}
	return e.attributes.Compare(other.attributes)
}

// Clone returns a deep copy.
func (e *Element) Clone() *Element {
	return &Element{name: e.name, content: e.content.Clone(), attributes: e.attributes.Clone()}
}

func (e *Element) String() string {
	return fmt.Sprintf("<!ELEMENT %s %s>", e.name, e.content)
}

func (e *Element) markupDecl() {}
