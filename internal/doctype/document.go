package doctype

import (
	"maps"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// DocumentType is the assembled model: four name-keyed declaration maps,
// with attribute lists linked into their same-named elements.
type DocumentType struct {
	elements  map[string]*Element
	attlists  map[string]*AttributeList
	entities  map[string]*Entity
	notations map[string]*Notation
}

// New assembles a document type from an unordered slice of declarations.
// Nil entries are skipped and a nil slice yields an empty document type.
//
// The first declaration of an element, entity, or notation name wins.
// Attribute lists sharing a name are merged, keeping the first definition
// of each attribute. Attribute lists without a matching element are kept
// unlinked.
func New(decls []MarkupDecl) *DocumentType {
	d := &DocumentType{
		elements:  make(map[string]*Element),
		attlists:  make(map[string]*AttributeList),
		entities:  make(map[string]*Entity),
		notations: make(map[string]*Notation),
	}
	for _, decl := range decls {
		d.add(decl)
	}
	d.link()
	return d
}

func (d *DocumentType) add(decl MarkupDecl) {
	switch v := decl.(type) {
	case *Element:
		if v == nil {
			return
		}
		if _, exists := d.elements[v.name]; !exists {
			d.elements[v.name] = v.Clone()
		}
	case *AttributeList:
		if v == nil {
			return
		}
		if existing, exists := d.attlists[v.name]; exists {
			d.attlists[v.name] = existing.Merge(v)
			return
		}
		d.attlists[v.name] = v.Clone()
	case *Entity:
		if v == nil {
			return
		}
		if _, exists := d.entities[v.name]; !exists {
			d.entities[v.name] = v.Clone()
		}
	case *Notation:
		if v == nil {
			return
		}
		if _, exists := d.notations[v.name]; !exists {
			d.notations[v.name] = v.Clone()
		}
	case nil:
	}
}

func (d *DocumentType) link() {
	for name, list := range d.attlists {
		if el, ok := d.elements[name]; ok {
			d.elements[name] = el.withAttributeList(list)
		}
	}
}

// Elements returns a snapshot of the element declarations by name.
func (d *DocumentType) Elements() map[string]*Element {
	return maps.Clone(d.elements)
}

// AttributeLists returns a snapshot of the attribute lists by element name.
func (d *DocumentType) AttributeLists() map[string]*AttributeList {
	return maps.Clone(d.attlists)
}

// Entities returns a snapshot of the entity declarations by name.
func (d *DocumentType) Entities() map[string]*Entity {
	return maps.Clone(d.entities)
}

// Notations returns a snapshot of the notation declarations by name.
func (d *DocumentType) Notations() map[string]*Notation {
	return maps.Clone(d.notations)
}

// Element returns the named element declaration.
func (d *DocumentType) Element(name string) (*Element, bool) {
	el, ok := d.elements[name]
	return el, ok
}

// ElementNames returns the declared element names in sorted order.
func (d *DocumentType) ElementNames() []string {
	return sortedKeys(d.elements)
}

// UnlinkedAttributeLists returns, sorted, the names of attribute lists
// that have no element declaration.
func (d *DocumentType) UnlinkedAttributeLists() []string {
	names := lo.Filter(lo.Keys(d.attlists), func(name string, _ int) bool {
		_, ok := d.elements[name]
		return !ok
	})
	slices.Sort(names)
	return names
}

// Len returns the total number of declarations.
func (d *DocumentType) Len() int {
	return len(d.elements) + len(d.attlists) + len(d.entities) + len(d.notations)
}

// Equal reports structural equality over the four maps.
func (d *DocumentType) Equal(other *DocumentType) bool {
	return d.Compare(other) == 0
}

// Compare orders lexicographically by elements, attribute lists,
// entities, then notations.
func (d *DocumentType) Compare(other *DocumentType) int {
	if other == nil {
		return 1
	}
	if c := compareMaps(d.elements, other.elements, (*Element).Compare); c != 0 {
		return c
	}
	if c := compareMaps(d.attlists, other.attlists, (*AttributeList).Compare); c != 0 {
		return c
	}
	if c := compareMaps(d.entities, other.entities, (*Entity).Compare); c != 0 {
		return c
	}
	return compareMaps(d.notations, other.notations, (*Notation).Compare)
}

// Clone returns a deep copy.
func (d *DocumentType) Clone() *DocumentType {
	return &DocumentType{
		elements:  cloneMap(d.elements, (*Element).Clone),
		attlists:  cloneMap(d.attlists, (*AttributeList).Clone),
		entities:  cloneMap(d.entities, (*Entity).Clone),
		notations: cloneMap(d.notations, (*Notation).Clone),
	}
}

// Decls returns every declaration, elements first, each group sorted by name.
func (d *DocumentType) Decls() []MarkupDecl {
	out := make([]MarkupDecl, 0, d.Len())
	for _, name := range sortedKeys(d.elements) {
		out = append(out, d.elements[name])
	}
	for _, name := range sortedKeys(d.attlists) {
		out = append(out, d.attlists[name])
	}
	for _, name := range sortedKeys(d.entities) {
		out = append(out, d.entities[name])
	}
	for _, name := range sortedKeys(d.notations) {
		out = append(out, d.notations[name])
	}
	return out
}

// String renders the declarations in DTD syntax.
func (d *DocumentType) String() string {
	var b strings.Builder
	for _, decl := range d.Decls() {
		if s, ok := decl.(interface{ String() string }); ok {
			b.WriteString(s.String())
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

func compareMaps[V any](a, b map[string]V, cmp func(V, V) int) int {
	ak, bk := sortedKeys(a), sortedKeys(b)
	for i := 0; i < len(ak) && i < len(bk); i++ {
		if c := strings.Compare(ak[i], bk[i]); c != 0 {
			return c
		}
		if c := cmp(a[ak[i]], b[bk[i]]); c != 0 {
			return c
		}
	}
	return len(ak) - len(bk)
}

func cloneMap[V any](m map[string]V, clone func(V) V) map[string]V {
	return lo.MapValues(m, func(v V, _ string) V { return clone(v) })
}
