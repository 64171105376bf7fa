package contentmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckBounds(t *testing.T) {
	tests := []struct {
		name      string
		minOccurs Occurs
		maxOccurs Occurs
		want      BoundsIssue
	}{
		{name: "once", minOccurs: 1, maxOccurs: 1, want: BoundsOK},
		{name: "optional", minOccurs: 0, maxOccurs: 1, want: BoundsOK},
		{name: "unbounded max", minOccurs: 3, maxOccurs: Unbounded, want: BoundsOK},
		{name: "max zero", minOccurs: 0, maxOccurs: 0, want: BoundsMaxZero},
		{name: "min unbounded", minOccurs: Unbounded, maxOccurs: Unbounded, want: BoundsMinUnbounded},
		{name: "min greater than max", minOccurs: 2, maxOccurs: 1, want: BoundsMinGreaterThanMax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckBounds(tt.minOccurs, tt.maxOccurs))
		})
	}
}

func TestSetMinMaxOccursRejectsWithoutMutation(t *testing.T) {
	nodes := []Bounded{
		NewSequence(NewElementRef("a")),
		NewAlternative(NewElementRef("a"), NewElementRef("b")),
		NewElementRef("a"),
	}
	invalid := [][2]Occurs{{2, 1}, {0, 0}, {Unbounded, Unbounded}}

	for _, n := range nodes {
		t.Run(n.Kind().String(), func(t *testing.T) {
			require.NoError(t, n.SetMinMaxOccurs(0, 5))
			for _, pair := range invalid {
				err := n.SetMinMaxOccurs(pair[0], pair[1])
				require.Error(t, err)
				assert.Equal(t, Occurs(0), n.MinOccurs())
				assert.Equal(t, Occurs(5), n.MaxOccurs())
			}
			require.NoError(t, n.SetMinMaxOccurs(1, Unbounded))
			assert.LessOrEqual(t, n.MinOccurs(), n.MaxOccurs())
			assert.Positive(t, n.MaxOccurs())
		})
	}
}

func TestParseOccurs(t *testing.T) {
	got, err := ParseOccurs("unbounded")
	require.NoError(t, err)
	assert.True(t, got.IsUnbounded())

	got, err = ParseOccurs("7")
	require.NoError(t, err)
	assert.Equal(t, Occurs(7), got)

	for _, bad := range []string{"", "-1", "x", "4294967295", "99999999999"} {
		_, err := ParseOccurs(bad)
		assert.Error(t, err, bad)
	}
}

func TestRenderDTDSyntax(t *testing.T) {
	choice := NewAlternative(NewElementRef("b"), NewElementRef("c"))
	require.NoError(t, choice.SetMinMaxOccurs(0, Unbounded))
	optional := NewElementRef("d")
	require.NoError(t, optional.SetMinMaxOccurs(0, 1))
	seq := NewSequence(NewElementRef("a"), choice, optional)
	require.NoError(t, seq.SetMinMaxOccurs(1, Unbounded))

	assert.Equal(t, "(a,(b|c)*,d?)+", seq.String())

	ranged := NewElementRef("e")
	require.NoError(t, ranged.SetMinMaxOccurs(2, 4))
	assert.Equal(t, "e{2,4}", ranged.String())

	assert.Equal(t, "(#PCDATA)", NewMixed().String())
	assert.Equal(t, "(#PCDATA|em|strong)*", NewMixed(NewElementRef("em"), NewElementRef("strong")).String())
}

func TestContentModelInvariants(t *testing.T) {
	_, err := NewChildrenModel(nil)
	require.Error(t, err)
	_, err = NewChildrenModel(NewSequence())
	require.Error(t, err)
	_, err = NewMixedModel(nil)
	require.Error(t, err)

	children, err := NewChildrenModel(NewSequence(NewElementRef("a")))
	require.NoError(t, err)
	assert.Equal(t, Children, children.Type())
	_, ok := children.Sequence()
	assert.True(t, ok)
	_, ok = children.Mixed()
	assert.False(t, ok)

	mixed, err := NewMixedModel(NewMixed(NewElementRef("a")))
	require.NoError(t, err)
	_, ok = mixed.Mixed()
	assert.True(t, ok)

	assert.Nil(t, NewEmpty().Node())
	assert.Nil(t, NewAny().Node())
	assert.Equal(t, "EMPTY", NewEmpty().String())
	assert.Equal(t, "ANY", NewAny().String())
	assert.True(t, ContentModel{}.IsZero())
}

func TestCloneIsDeepAndEqual(t *testing.T) {
	inner := NewAlternative(NewElementRef("x"), NewElementRef("y"))
	seq := NewSequence(NewElementRef("a"), inner)
	model, err := NewChildrenModel(seq)
	require.NoError(t, err)

	cp := model.Clone()
	assert.True(t, model.Equal(cp))
	assert.NotSame(t, model.Node(), cp.Node())
	assert.Equal(t, "(a,(x|y))", cp.String())
}

func TestModelDoesNotShareNodes(t *testing.T) {
	tests := []struct {
		name   string
		build  func() (ContentModel, Node)
		mutate func(t *testing.T, n Node)
		want   string
	}{
		{
			name: "children constructor argument",
			build: func() (ContentModel, Node) {
				seq := NewSequence(NewElementRef("a"), NewAlternative(NewElementRef("x"), NewElementRef("y")))
				m, err := NewChildrenModel(seq)
				require.NoError(t, err)
				return m, seq
			},
			mutate: func(t *testing.T, n Node) {
				seq := n.(*Sequence)
				require.NoError(t, seq.Children()[1].(*Alternative).SetMinMaxOccurs(0, 1))
				seq.Add(NewElementRef("z"))
			},
			want: "(a,(x|y))",
		},
		{
			name: "mixed constructor argument",
			build: func() (ContentModel, Node) {
				mixed := NewMixed(NewElementRef("em"))
				m, err := NewMixedModel(mixed)
				require.NoError(t, err)
				return m, mixed
			},
			mutate: func(t *testing.T, n Node) {
				require.NoError(t, n.(*Mixed).Children()[0].(*ElementRef).SetMinMaxOccurs(0, Unbounded))
			},
			want: "(#PCDATA|em)*",
		},
		{
			name: "node accessor",
			build: func() (ContentModel, Node) {
				m, err := NewChildrenModel(NewSequence(NewElementRef("a")))
				require.NoError(t, err)
				return m, m.Node()
			},
			mutate: func(t *testing.T, n Node) {
				n.(*Sequence).Add(NewElementRef("b"))
			},
			want: "(a)",
		},
		{
			name: "sequence accessor",
			build: func() (ContentModel, Node) {
				m, err := NewChildrenModel(NewSequence(NewElementRef("a")))
				require.NoError(t, err)
				seq, ok := m.Sequence()
				require.True(t, ok)
				return m, seq
			},
			mutate: func(t *testing.T, n Node) {
				require.NoError(t, n.(*Sequence).SetMinMaxOccurs(0, 1))
			},
			want: "(a)",
		},
		{
			name: "mixed accessor",
			build: func() (ContentModel, Node) {
				m, err := NewMixedModel(NewMixed(NewElementRef("em")))
				require.NoError(t, err)
				mixed, ok := m.Mixed()
				require.True(t, ok)
				return m, mixed
			},
			mutate: func(t *testing.T, n Node) {
				require.NoError(t, n.(*Mixed).Children()[0].(*ElementRef).SetMinMaxOccurs(1, 2))
			},
			want: "(#PCDATA|em)*",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, n := tt.build()
			before := model.Clone()
			tt.mutate(t, n)
			assert.Equal(t, tt.want, model.String())
			assert.True(t, model.Equal(before))
		})
	}
}

func TestCompareOrdersByKindThenContent(t *testing.T) {
	assert.Negative(t, NewEmpty().Compare(NewAny()))
	assert.Positive(t, NewAny().Compare(NewEmpty()))

	a := NewSequence(NewElementRef("a"))
	b := NewSequence(NewElementRef("b"))
	assert.Negative(t, a.Compare(b))
	assert.Positive(t, b.Compare(a))
	assert.Zero(t, a.Compare(a.Clone()))

	longer := NewSequence(NewElementRef("a"), NewElementRef("b"))
	assert.Negative(t, a.Compare(longer))
	assert.Negative(t, NewElementRef("z").Compare(a))
}

func TestElementNames(t *testing.T) {
	seq := NewSequence(
		NewElementRef("a"),
		NewAlternative(NewElementRef("b"), NewElementRef("a")),
		NewElementRef("c"),
	)
	assert.Equal(t, []string{"a", "b", "c"}, ElementNames(seq))
	assert.Nil(t, ElementNames(nil))
}
