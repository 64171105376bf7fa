package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dtderrors "github.com/jacoelho/dtdmodel/errors"
	"github.com/jacoelho/dtdmodel/internal/xmltree"
)

func TestBuiltinChain(t *testing.T) {
	r := NewRegistry()

	for _, name := range BuiltinNames() {
		typ, err := r.Lookup(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, typ.Name())
		assert.Equal(t, FinalNone, typ.Final(), name)
	}

	anyType, err := r.Lookup(TypeNameAnyType)
	require.NoError(t, err)
	assert.True(t, anyType.IsComplex())

	tests := []struct {
		name string
		base string
	}{
		{TypeNameString, TypeNameAnySimpleType},
		{TypeNameNormalizedString, TypeNameString},
		{TypeNameToken, TypeNameNormalizedString},
		{TypeNameLanguage, TypeNameToken},
		{TypeNameName, TypeNameToken},
		{TypeNameNMTOKEN, TypeNameToken},
		{TypeNameNCName, TypeNameName},
		{TypeNameID, TypeNameNCName},
		{TypeNameIDREF, TypeNameNCName},
		{TypeNameENTITY, TypeNameNCName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, err := r.Lookup(tt.name)
			require.NoError(t, err)
			atomic, ok := typ.(*AtomicType)
			require.True(t, ok)
			require.NotNil(t, atomic.Base())
			assert.Equal(t, tt.base, atomic.Base().Name())
			assert.False(t, atomic.IsComplex())
		})
	}

	for list, item := range builtinListItemTypes {
		typ, err := r.Lookup(list)
		require.NoError(t, err)
		lt, ok := typ.(*ListType)
		require.True(t, ok, list)
		assert.Equal(t, item, lt.ItemType().Name())
	}
}

func TestBuiltinsOrder(t *testing.T) {
	r := NewRegistry()
	got := make([]string, 0)
	for _, typ := range r.Builtins() {
		got = append(got, typ.Name())
	}
	assert.Equal(t, []string{
		"anyType", "anySimpleType", "string", "normalizedString", "token",
		"language", "Name", "NMTOKEN", "NCName", "ID", "IDREF", "ENTITY",
		"NMTOKENS", "IDREFS", "ENTITIES",
	}, got)
	assert.Equal(t, got, r.Names())
}

func TestBootstrapIdempotent(t *testing.T) {
	r := NewRegistry()
	first := r.Len()
	r.bootstrap()
	r.bootstrap()
	assert.Equal(t, first, r.Len())
	assert.Len(t, r.Names(), first)
}

func TestLookupMissing(t *testing.T) {
	r := NewRegistry()

	_, err := r.Lookup("nope")
	require.Error(t, err)
	assert.True(t, dtderrors.IsKind(err, dtderrors.KindType))
	assert.Contains(t, err.Error(), "no such type")

	_, err = r.LookupBySimpleTypeNode(3)
	assert.True(t, dtderrors.IsKind(err, dtderrors.KindType))
	_, err = r.LookupByComplexTypeNode(3)
	assert.True(t, dtderrors.IsKind(err, dtderrors.KindType))
	assert.False(t, r.Has("nope"))
}

func TestDeriveByRestriction(t *testing.T) {
	r := NewRegistry()
	str, err := r.Lookup(TypeNameString)
	require.NoError(t, err)

	color, err := r.DeriveByRestriction("color", str, FinalNone, NewEnumerationFacet("red", "green"))
	require.NoError(t, err)
	assert.Equal(t, "color", color.Name())
	assert.False(t, color.IsComplex())
	assert.Equal(t, []string{"red", "green"}, color.(*AtomicType).Enumeration())

	again, err := r.DeriveByRestriction("color", str, FinalNone, NewEnumerationFacet("red", "green"))
	require.NoError(t, err)
	assert.Same(t, color, again)

	_, err = r.DeriveByRestriction("color", str, FinalNone, NewEnumerationFacet("blue"))
	require.Error(t, err)
	assert.True(t, dtderrors.IsKind(err, dtderrors.KindType))
	assert.Contains(t, err.Error(), "redefined")

	primary, err := r.DeriveByRestriction("primary", color, FinalNone, NewEnumerationFacet("red"))
	require.NoError(t, err)
	assert.Len(t, primary.Facets(), 2, "facets accumulate")
}

func TestDeriveInheritsComplex(t *testing.T) {
	r := NewRegistry()
	anyType, err := r.Lookup(TypeNameAnyType)
	require.NoError(t, err)

	ct, err := r.DeriveByRestriction("address", anyType, FinalNone)
	require.NoError(t, err)
	assert.True(t, ct.IsComplex())
}

func TestDeriveFinality(t *testing.T) {
	tests := []struct {
		name   string
		final  Finality
		derive func(r *Registry, base Type) error
	}{
		{
			name:  "restriction",
			final: FinalRestriction,
			derive: func(r *Registry, base Type) error {
				_, err := r.DeriveByRestriction("derived", base, FinalNone)
				return err
			},
		},
		{
			name:  "restriction under all",
			final: FinalAll,
			derive: func(r *Registry, base Type) error {
				_, err := r.DeriveByRestriction("derived", base, FinalNone)
				return err
			},
		},
		{
			name:  "list",
			final: FinalList,
			derive: func(r *Registry, base Type) error {
				_, err := r.DeriveByList("derived", FinalNone, base)
				return err
			},
		},
		{
			name:  "union",
			final: NewFinality(FinalUnion, FinalList),
			derive: func(r *Registry, base Type) error {
				_, err := r.DeriveByUnion("derived", FinalNone, base)
				return err
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			str, err := r.Lookup(TypeNameString)
			require.NoError(t, err)
			base, err := r.DeriveByRestriction("sealed", str, tt.final)
			require.NoError(t, err)

			err = tt.derive(r, base)
			require.Error(t, err)
			assert.True(t, dtderrors.IsKind(err, dtderrors.KindType))
			assert.False(t, r.Has("derived"))
		})
	}
}

func TestDeriveAllowedMethods(t *testing.T) {
	r := NewRegistry()
	str, err := r.Lookup(TypeNameString)
	require.NoError(t, err)
	base, err := r.DeriveByRestriction("base", str, FinalRestriction)
	require.NoError(t, err)

	lt, err := r.DeriveByList("baseList", FinalNone, base)
	require.NoError(t, err)
	assert.Equal(t, VarietyList, lt.Variety())

	ut, err := r.DeriveByUnion("baseUnion", FinalNone, base, lt)
	require.NoError(t, err)
	assert.Equal(t, VarietyUnion, ut.Variety())
	members := ut.(*UnionType).MemberTypes()
	require.Len(t, members, 2)
	assert.Equal(t, "base", members[0].Name())
	assert.Equal(t, "baseList", members[1].Name())
}

func TestDeriveRequiresInputs(t *testing.T) {
	r := NewRegistry()
	_, err := r.DeriveByRestriction("x", nil, FinalNone)
	assert.True(t, dtderrors.IsKind(err, dtderrors.KindType))
	_, err = r.DeriveByList("x", FinalNone, nil)
	assert.True(t, dtderrors.IsKind(err, dtderrors.KindType))
	_, err = r.DeriveByUnion("x", FinalNone)
	assert.True(t, dtderrors.IsKind(err, dtderrors.KindType))
}

func TestDeriveAnonymousIsNotRegistered(t *testing.T) {
	r := NewRegistry()
	str, err := r.Lookup(TypeNameString)
	require.NoError(t, err)
	before := r.Len()

	anon, err := r.DeriveByRestriction("", str, FinalNone, NewEnumerationFacet("a"))
	require.NoError(t, err)
	assert.Equal(t, "", anon.Name())
	assert.Equal(t, before, r.Len())

	_, err = r.Register(anon)
	assert.Error(t, err)
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	root := NewRootType("root", false, FinalNone)

	got, err := r.Register(root)
	require.NoError(t, err)
	assert.Same(t, root, got)

	got, err = r.Register(NewRootType("root", false, FinalNone))
	require.NoError(t, err)
	assert.Same(t, root, got, "identical definition keeps the first instance")

	_, err = r.Register(NewRootType("root", true, FinalNone))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root")

	_, err = r.Register(nil)
	assert.Error(t, err)
}

func TestRegisterByNode(t *testing.T) {
	r := NewRegistry()
	a := NewRootType("a", false, FinalNone)
	b := NewRootType("b", false, FinalNone)
	node := xmltree.NodeID(7)

	_, err := r.RegisterSimpleTypeNode(node, a)
	require.NoError(t, err)
	_, err = r.RegisterSimpleTypeNode(node, NewRootType("a", false, FinalNone))
	require.NoError(t, err)
	_, err = r.RegisterSimpleTypeNode(node, b)
	require.Error(t, err)

	_, err = r.RegisterComplexTypeNode(node, b)
	require.NoError(t, err, "complex nodes are keyed separately")

	got, err := r.LookupBySimpleTypeNode(node)
	require.NoError(t, err)
	assert.Same(t, a, got)
	got, err = r.LookupByComplexTypeNode(node)
	require.NoError(t, err)
	assert.Same(t, b, got)

	_, err = r.RegisterSimpleTypeNode(xmltree.InvalidNode, a)
	assert.Error(t, err)
}

func TestRegistriesAreIndependent(t *testing.T) {
	first := NewRegistry()
	second := NewRegistry()
	str, err := first.Lookup(TypeNameString)
	require.NoError(t, err)
	_, err = first.DeriveByRestriction("local", str, FinalNone)
	require.NoError(t, err)

	assert.True(t, first.Has("local"))
	assert.False(t, second.Has("local"))
}

func TestTypeCloneRoundTrip(t *testing.T) {
	r := NewRegistry()
	str, err := r.Lookup(TypeNameString)
	require.NoError(t, err)
	atomic, err := r.DeriveByRestriction("size", str, FinalRestriction, NewEnumerationFacet("s", "m"))
	require.NoError(t, err)
	list, err := r.DeriveByList("sizes", FinalNone, atomic)
	require.NoError(t, err)
	union, err := r.DeriveByUnion("sizeOrList", FinalNone, str, atomic)
	require.NoError(t, err)

	for _, typ := range []Type{atomic, list, union} {
		cp := typ.Clone()
		assert.True(t, typ.Equal(cp), typ.Name())
		assert.Equal(t, 0, typ.Compare(cp))
		assert.NotSame(t, typ, cp)
	}

	facets := atomic.Facets()
	facets[0].(*EnumerationFacet).values[0] = "mutated"
	assert.Equal(t, []string{"s", "m"}, atomic.(*AtomicType).Enumeration())
}

func TestTypeCompare(t *testing.T) {
	a := NewRootType("a", false, FinalNone)
	b := NewRootType("b", false, FinalNone)
	assert.Negative(t, a.Compare(b))
	assert.Positive(t, b.Compare(a))
	assert.Positive(t, a.Compare(nil))

	r := NewRegistry()
	str, err := r.Lookup(TypeNameString)
	require.NoError(t, err)
	l, err := r.DeriveByList("a", FinalNone, str)
	require.NoError(t, err)
	assert.NotZero(t, a.Compare(l), "variety participates in ordering")
}
