package contentmodel

import (
	"strings"
)

// NodeKind identifies a content node variant.
type NodeKind uint8

const (
	KindElementRef NodeKind = iota + 1
	KindSequence
	KindAlternative
	KindMixed
)

func (k NodeKind) String() string {
	switch k {
	case KindElementRef:
		return "element"
	case KindSequence:
		return "sequence"
	case KindAlternative:
		return "alternative"
	case KindMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// Node is a content-model node. The set of implementations is closed:
// *ElementRef, *Sequence, *Alternative, and *Mixed.
type Node interface {
	Kind() NodeKind
	Equal(other Node) bool
	Compare(other Node) int
	Clone() Node
	String() string

	node()
}

// Bounded is a node carrying its own occurrence bounds.
type Bounded interface {
	Node
	MinOccurs() Occurs
	MaxOccurs() Occurs
	SetMinMaxOccurs(minOccurs, maxOccurs Occurs) error
}

// ElementRef references a child element by name.
type ElementRef struct {
	occurrence
	name string
}

// NewElementRef returns a reference occurring exactly once.
func NewElementRef(name string) *ElementRef {
	return &ElementRef{name: name, occurrence: occurrence{bounds: Once}}
}

// Name returns the referenced element name.
func (r *ElementRef) Name() string { return r.name }

func (r *ElementRef) Kind() NodeKind { return KindElementRef }

func (r *ElementRef) Equal(other Node) bool { return r.Compare(other) == 0 }

func (r *ElementRef) Compare(other Node) int {
	if c := compareKinds(r, other); c != 0 {
		return c
	}
	o := other.(*ElementRef)
	if c := strings.Compare(r.name, o.name); c != 0 {
		return c
	}
	return r.bounds.compare(o.bounds)
}

func (r *ElementRef) Clone() Node {
	cp := *r
	return &cp
}

func (r *ElementRef) String() string { return r.name + r.bounds.Suffix() }

func (r *ElementRef) node() {}

// group is the ordered container shared by Sequence and Alternative.
type group struct {
	occurrence
	children []Node
}

// Children returns a copy of the child list.
func (g *group) Children() []Node {
	out := make([]Node, len(g.children))
	copy(out, g.children)
	return out
}

// Len returns the number of children.
func (g *group) Len() int { return len(g.children) }

// Add appends children, skipping nils.
func (g *group) Add(children ...Node) {
	for _, child := range children {
		if child != nil {
			g.children = append(g.children, child)
		}
	}
}

func (g *group) compare(other *group) int {
	if c := g.bounds.compare(other.bounds); c != 0 {
		return c
	}
	return compareNodeLists(g.children, other.children)
}

func (g *group) clone() group {
	return group{occurrence: g.occurrence, children: cloneNodes(g.children)}
}

func (g *group) render(sep string) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, child := range g.children {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(child.String())
	}
	b.WriteByte(')')
	b.WriteString(g.bounds.Suffix())
	return b.String()
}

// Sequence is an ordered list of particles that must appear in order.
type Sequence struct {
	group
}

// NewSequence returns a sequence occurring exactly once.
func NewSequence(children ...Node) *Sequence {
	s := &Sequence{group: group{occurrence: occurrence{bounds: Once}}}
	s.Add(children...)
	return s
}

func (s *Sequence) Kind() NodeKind { return KindSequence }

func (s *Sequence) Equal(other Node) bool { return s.Compare(other) == 0 }

func (s *Sequence) Compare(other Node) int {
	if c := compareKinds(s, other); c != 0 {
		return c
	}
	return s.compare(&other.(*Sequence).group)
}

func (s *Sequence) Clone() Node {
	return &Sequence{group: s.clone()}
}

func (s *Sequence) String() string { return s.render(",") }

func (s *Sequence) node() {}

// Alternative is a choice between particles.
type Alternative struct {
	group
}

// NewAlternative returns a choice occurring exactly once.
func NewAlternative(children ...Node) *Alternative {
	a := &Alternative{group: group{occurrence: occurrence{bounds: Once}}}
	a.Add(children...)
	return a
}

func (a *Alternative) Kind() NodeKind { return KindAlternative }

func (a *Alternative) Equal(other Node) bool { return a.Compare(other) == 0 }

func (a *Alternative) Compare(other Node) int {
	if c := compareKinds(a, other); c != 0 {
		return c
	}
	return a.compare(&other.(*Alternative).group)
}

func (a *Alternative) Clone() Node {
	return &Alternative{group: a.clone()}
}

func (a *Alternative) String() string { return a.render("|") }

func (a *Alternative) node() {}

// Mixed is character data interspersed with the listed children, in any
// order and any number of times.
type Mixed struct {
	children []Node
}

// NewMixed returns mixed content allowing the given children.
func NewMixed(children ...Node) *Mixed {
	m := &Mixed{}
	for _, child := range children {
		if child != nil {
			m.children = append(m.children, child)
		}
	}
	return m
}

// Children returns a copy of the child list.
func (m *Mixed) Children() []Node {
	out := make([]Node, len(m.children))
	copy(out, m.children)
	return out
}

// Len returns the number of children.
func (m *Mixed) Len() int { return len(m.children) }

func (m *Mixed) Kind() NodeKind { return KindMixed }

func (m *Mixed) Equal(other Node) bool { return m.Compare(other) == 0 }

func (m *Mixed) Compare(other Node) int {
	if c := compareKinds(m, other); c != 0 {
		return c
	}
	return compareNodeLists(m.children, other.(*Mixed).children)
}

func (m *Mixed) Clone() Node {
	return &Mixed{children: cloneNodes(m.children)}
}

func (m *Mixed) String() string {
	if len(m.children) == 0 {
		return "(#PCDATA)"
	}
	var b strings.Builder
	b.WriteString("(#PCDATA")
	for _, child := range m.children {
		b.WriteByte('|')
		b.WriteString(child.String())
	}
	b.WriteString(")*")
	return b.String()
}

func (m *Mixed) node() {}

func compareKinds(n, other Node) int {
	if other == nil {
		return 1
	}
	return compareOccurs(Occurs(n.Kind()), Occurs(other.Kind()))
}

func compareNodeLists(a, b []Node) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := a[i].Compare(b[i]); c != 0 {
			return c
		}
	}
	return compareOccurs(Occurs(len(a)), Occurs(len(b)))
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// Walk calls fn for n and every descendant in document order.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case *Sequence:
		for _, child := range v.children {
			Walk(child, fn)
		}
	case *Alternative:
		for _, child := range v.children {
			Walk(child, fn)
		}
	case *Mixed:
		for _, child := range v.children {
			Walk(child, fn)
		}
	case *ElementRef:
	}
}

// ElementNames returns the distinct element names referenced under n, in
// first-occurrence order.
func ElementNames(n Node) []string {
	var names []string
	seen := make(map[string]bool)
	Walk(n, func(node Node) bool {
		if ref, ok := node.(*ElementRef); ok && !seen[ref.name] {
			seen[ref.name] = true
			names = append(names, ref.name)
		}
		return true
	})
	return names
}
