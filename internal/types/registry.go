package types

import (
	"slices"

	dtderrors "github.com/jacoelho/dtdmodel/errors"
	"github.com/jacoelho/dtdmodel/internal/xmltree"
)

// Registry is the type namespace of one compilation run. It is seeded with
// the built-in chain on first use and is not safe for concurrent use.
type Registry struct {
	byName    map[string]Type
	bySimple  map[xmltree.NodeID]Type
	byComplex map[xmltree.NodeID]Type
	order     []string
	seeded    bool
}

// NewRegistry returns an empty registry; built-ins are added lazily.
func NewRegistry() *Registry {
	return &Registry{
		byName:    make(map[string]Type),
		bySimple:  make(map[xmltree.NodeID]Type),
		byComplex: make(map[xmltree.NodeID]Type),
	}
}

// Register inserts t by name. Registering a structurally equal definition
// again is a no-op returning the existing instance.
func (r *Registry) Register(t Type) (Type, error) {
	r.bootstrap()
	return r.register(t)
}

func (r *Registry) register(t Type) (Type, error) {
	if t == nil {
		return nil, dtderrors.Type("cannot register nil type")
	}
	if t.Name() == "" {
		return nil, dtderrors.Type("cannot register anonymous type by name")
	}
	if existing, ok := r.byName[t.Name()]; ok {
		if existing.Equal(t) {
			return existing, nil
		}
		return nil, redefinition(t.Name(), existing, t)
	}
	r.byName[t.Name()] = t
	r.order = append(r.order, t.Name())
	return t, nil
}

// RegisterSimpleTypeNode binds t to the simpleType node it was declared by.
func (r *Registry) RegisterSimpleTypeNode(node xmltree.NodeID, t Type) (Type, error) {
	r.bootstrap()
	return registerByNode(r.bySimple, node, t)
}

// RegisterComplexTypeNode binds t to the complexType node it was declared by.
func (r *Registry) RegisterComplexTypeNode(node xmltree.NodeID, t Type) (Type, error) {
	r.bootstrap()
	return registerByNode(r.byComplex, node, t)
}

func registerByNode(m map[xmltree.NodeID]Type, node xmltree.NodeID, t Type) (Type, error) {
	if t == nil {
		return nil, dtderrors.Type("cannot register nil type")
	}
	if node == xmltree.InvalidNode {
		return nil, dtderrors.Type("cannot register type %q for an invalid node", t.Name())
	}
	if existing, ok := m[node]; ok {
		if existing.Equal(t) {
			return existing, nil
		}
		return nil, redefinition(t.Name(), existing, t)
	}
	m[node] = t
	return t, nil
}

// Lookup returns the named type.
func (r *Registry) Lookup(name string) (Type, error) {
	r.bootstrap()
	if t, ok := r.byName[name]; ok {
		return t, nil
	}
	return nil, dtderrors.Type("no such type %q", name)
}

// Has reports whether a type with name is registered.
func (r *Registry) Has(name string) bool {
	r.bootstrap()
	_, ok := r.byName[name]
	return ok
}

// LookupBySimpleTypeNode returns the type declared by a simpleType node.
func (r *Registry) LookupBySimpleTypeNode(node xmltree.NodeID) (Type, error) {
	r.bootstrap()
	if t, ok := r.bySimple[node]; ok {
		return t, nil
	}
	return nil, dtderrors.Type("no such type for simpleType node %d", node)
}

// LookupByComplexTypeNode returns the type declared by a complexType node.
func (r *Registry) LookupByComplexTypeNode(node xmltree.NodeID) (Type, error) {
	r.bootstrap()
	if t, ok := r.byComplex[node]; ok {
		return t, nil
	}
	return nil, dtderrors.Type("no such type for complexType node %d", node)
}

// Names returns registered type names in registration order.
func (r *Registry) Names() []string {
	r.bootstrap()
	return slices.Clone(r.order)
}

// Len returns the number of named types.
func (r *Registry) Len() int {
	r.bootstrap()
	return len(r.byName)
}

// DeriveByRestriction derives and registers an atomic type restricting
// base. The result copies base's facets and complex flag, then appends
// facets.
func (r *Registry) DeriveByRestriction(name string, base Type, final Finality, facets ...Facet) (Type, error) {
	r.bootstrap()
	t, err := restrict(name, base, final, facets)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return t, nil
	}
	return r.register(t)
}

// DeriveByList derives and registers a list of item.
func (r *Registry) DeriveByList(name string, final Finality, item Type) (Type, error) {
	r.bootstrap()
	t, err := list(name, final, item)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return t, nil
	}
	return r.register(t)
}

// DeriveByUnion derives and registers a union of members.
func (r *Registry) DeriveByUnion(name string, final Finality, members ...Type) (Type, error) {
	r.bootstrap()
	t, err := union(name, final, members)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return t, nil
	}
	return r.register(t)
}

func restrict(name string, base Type, final Finality, facets []Facet) (*AtomicType, error) {
	if base == nil {
		return nil, dtderrors.Type("type %q: restriction requires a base type", displayName(name))
	}
	if base.Final().Has(FinalRestriction) {
		return nil, dtderrors.Type("type %q: base %q is final for restriction %s", displayName(name), base.Name(), base.Final())
	}
	inherited := base.Facets()
	for _, f := range facets {
		if f != nil {
			inherited = append(inherited, f.Clone())
		}
	}
	return &AtomicType{
		name:    name,
		base:    base,
		final:   final.normalize(),
		facets:  inherited,
		complex: base.IsComplex(),
	}, nil
}

func list(name string, final Finality, item Type) (*ListType, error) {
	if item == nil {
		return nil, dtderrors.Type("type %q: list requires an item type", displayName(name))
	}
	if item.Final().Has(FinalList) {
		return nil, dtderrors.Type("type %q: item type %q is final for list %s", displayName(name), item.Name(), item.Final())
	}
	return &ListType{name: name, final: final.normalize(), item: item}, nil
}

func union(name string, final Finality, members []Type) (*UnionType, error) {
	if len(members) == 0 {
		return nil, dtderrors.Type("type %q: union requires member types", displayName(name))
	}
	for _, m := range members {
		if m == nil {
			return nil, dtderrors.Type("type %q: union member is nil", displayName(name))
		}
		if m.Final().Has(FinalUnion) {
			return nil, dtderrors.Type("type %q: member type %q is final for union %s", displayName(name), m.Name(), m.Final())
		}
	}
	return &UnionType{name: name, final: final.normalize(), members: slices.Clone(members)}, nil
}

func redefinition(name string, existing, candidate Type) error {
	return dtderrors.Type("type %q redefined: existing definition %s, new definition %s", name, existing, candidate)
}

func displayName(name string) string {
	if name == "" {
		return "(anonymous)"
	}
	return name
}
