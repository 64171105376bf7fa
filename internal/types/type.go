package types

import (
	"fmt"
	"slices"
	"strings"
)

// Variety identifies a type variant.
type Variety uint8

const (
	VarietyAtomic Variety = iota + 1
	VarietyList
	VarietyUnion
)

func (v Variety) String() string {
	switch v {
	case VarietyAtomic:
		return "atomic"
	case VarietyList:
		return "list"
	case VarietyUnion:
		return "union"
	default:
		return "unknown"
	}
}

// Type is a node of the type lattice. The set of implementations is
// closed: *AtomicType, *ListType, *UnionType.
//
// Equality is structural. Referenced types (base, item, members) are
// compared by name, since the registry holds one definition per name.
type Type interface {
	Name() string
	Variety() Variety
	Final() Finality
	Facets() []Facet
	IsComplex() bool
	Equal(other Type) bool
	Compare(other Type) int
	Clone() Type
	String() string

	isType()
}

// AtomicType is a root type or a type derived by restriction.
type AtomicType struct {
	base    Type
	name    string
	facets  []Facet
	final   Finality
	complex bool
}

// NewRootType returns a type with no base.
func NewRootType(name string, complexType bool, final Finality) *AtomicType {
	return &AtomicType{name: name, complex: complexType, final: final.normalize()}
}

func (t *AtomicType) Name() string { return t.name }

func (t *AtomicType) Variety() Variety { return VarietyAtomic }

func (t *AtomicType) Final() Finality { return t.final }

func (t *AtomicType) Facets() []Facet { return cloneFacets(t.facets) }

func (t *AtomicType) IsComplex() bool { return t.complex }

// Base returns the type this one restricts, or nil for a root.
func (t *AtomicType) Base() Type { return t.base }

// Enumeration returns every enumerated value, across accumulated facets.
func (t *AtomicType) Enumeration() []string {
	var values []string
	for _, f := range t.facets {
		if enum, ok := f.(*EnumerationFacet); ok {
			values = append(values, enum.values...)
		}
	}
	return values
}

func (t *AtomicType) Equal(other Type) bool { return t.Compare(other) == 0 }

func (t *AtomicType) Compare(other Type) int {
	if c := compareHeader(t, other); c != 0 {
		return c
	}
	o := other.(*AtomicType)
	if t.complex != o.complex {
		if !t.complex {
			return -1
		}
		return 1
	}
	if c := strings.Compare(typeName(t.base), typeName(o.base)); c != 0 {
		return c
	}
	return compareFacets(t.facets, o.facets)
}

func (t *AtomicType) Clone() Type {
	cp := *t
	cp.facets = cloneFacets(t.facets)
	return &cp
}

func (t *AtomicType) String() string {
	kind := "simple"
	if t.complex {
		kind = "complex"
	}
	if t.base == nil {
		return fmt.Sprintf("%s %s final=%s", kind, t.name, t.final)
	}
	return fmt.Sprintf("%s %s restricts %s final=%s%s", kind, t.name, t.base.Name(), t.final, facetSuffix(t.facets))
}

func (t *AtomicType) isType() {}

// ListType is a whitespace-separated list of an item type.
type ListType struct {
	item  Type
	name  string
	final Finality
}

func (t *ListType) Name() string { return t.name }

func (t *ListType) Variety() Variety { return VarietyList }

func (t *ListType) Final() Finality { return t.final }

func (t *ListType) Facets() []Facet { return nil }

func (t *ListType) IsComplex() bool { return false }

// ItemType returns the list item type.
func (t *ListType) ItemType() Type { return t.item }

func (t *ListType) Equal(other Type) bool { return t.Compare(other) == 0 }

func (t *ListType) Compare(other Type) int {
	if c := compareHeader(t, other); c != 0 {
		return c
	}
	return strings.Compare(typeName(t.item), typeName(other.(*ListType).item))
}

func (t *ListType) Clone() Type {
	cp := *t
	return &cp
}

func (t *ListType) String() string {
	return fmt.Sprintf("list %s of %s final=%s", t.name, typeName(t.item), t.final)
}

func (t *ListType) isType() {}

// UnionType is the union of its member types.
type UnionType struct {
	name    string
	members []Type
	final   Finality
}

func (t *UnionType) Name() string { return t.name }

func (t *UnionType) Variety() Variety { return VarietyUnion }

func (t *UnionType) Final() Finality { return t.final }

func (t *UnionType) Facets() []Facet { return nil }

func (t *UnionType) IsComplex() bool { return false }

// MemberTypes returns a copy of the member list.
func (t *UnionType) MemberTypes() []Type { return slices.Clone(t.members) }

func (t *UnionType) Equal(other Type) bool { return t.Compare(other) == 0 }

func (t *UnionType) Compare(other Type) int {
	if c := compareHeader(t, other); c != 0 {
		return c
	}
	return slices.Compare(memberNames(t.members), memberNames(other.(*UnionType).members))
}

func (t *UnionType) Clone() Type {
	cp := *t
	cp.members = slices.Clone(t.members)
	return &cp
}

func (t *UnionType) String() string {
	return fmt.Sprintf("union %s of (%s) final=%s", t.name, strings.Join(memberNames(t.members), " "), t.final)
}

func (t *UnionType) isType() {}

func compareHeader(t, other Type) int {
	if other == nil {
		return 1
	}
	if c := strings.Compare(t.Name(), other.Name()); c != 0 {
		return c
	}
	if c := int(t.Variety()) - int(other.Variety()); c != 0 {
		return c
	}
	return int(t.Final().normalize()) - int(other.Final().normalize())
}

func typeName(t Type) string {
	if t == nil {
		return ""
	}
	return t.Name()
}

func memberNames(members []Type) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = typeName(m)
	}
	return names
}

func facetSuffix(facets []Facet) string {
	if len(facets) == 0 {
		return ""
	}
	parts := make([]string, len(facets))
	for i, f := range facets {
		parts[i] = f.String()
	}
	return " " + strings.Join(parts, " ")
}
