package types

import (
	"slices"
	"strings"
)

// Facet constrains the value space of a simple type. Only enumeration
// facets are built; other facets are recognized and dropped.
type Facet interface {
	Name() string
	Compare(other Facet) int
	Clone() Facet
	String() string
}

// EnumerationFacet restricts values to a fixed set.
type EnumerationFacet struct {
	values []string
}

// NewEnumerationFacet returns an enumeration over values, in order.
func NewEnumerationFacet(values ...string) *EnumerationFacet {
	return &EnumerationFacet{values: slices.Clone(values)}
}

func (e *EnumerationFacet) Name() string { return "enumeration" }

// Values returns a copy of the allowed values.
func (e *EnumerationFacet) Values() []string { return slices.Clone(e.values) }

// Contains reports whether value is enumerated.
func (e *EnumerationFacet) Contains(value string) bool {
	return slices.Contains(e.values, value)
}

func (e *EnumerationFacet) Compare(other Facet) int {
	if c := strings.Compare(e.Name(), other.Name()); c != 0 {
		return c
	}
	o, ok := other.(*EnumerationFacet)
	if !ok {
		return 1
	}
	return slices.Compare(e.values, o.values)
}

func (e *EnumerationFacet) Clone() Facet {
	return NewEnumerationFacet(e.values...)
}

func (e *EnumerationFacet) String() string {
	return "enumeration(" + strings.Join(e.values, "|") + ")"
}

var inertFacets = map[string]bool{
	"length":         true,
	"minLength":      true,
	"maxLength":      true,
	"pattern":        true,
	"whiteSpace":     true,
	"maxInclusive":   true,
	"maxExclusive":   true,
	"minInclusive":   true,
	"minExclusive":   true,
	"totalDigits":    true,
	"fractionDigits": true,
}

// IsInertFacet reports whether name is a facet that is recognized but not
// represented in the type model.
func IsInertFacet(name string) bool {
	return inertFacets[name]
}

func compareFacets(a, b []Facet) int {
	return slices.CompareFunc(a, b, func(x, y Facet) int { return x.Compare(y) })
}

func cloneFacets(facets []Facet) []Facet {
	if len(facets) == 0 {
		return nil
	}
	out := make([]Facet, len(facets))
	for i, f := range facets {
		out[i] = f.Clone()
	}
	return out
}
