package xsd

import (
	"strings"

	dtderrors "github.com/jacoelho/dtdmodel/errors"
	"github.com/jacoelho/dtdmodel/internal/types"
	"github.com/jacoelho/dtdmodel/internal/xmltree"
)

// typeDeclarations derives and registers a Type for every simpleType and
// complexType node. Named types referenced before their declaration are
// declared on demand.
type typeDeclarations struct {
	s          *Session
	named      map[string]xmltree.NodeID
	inProgress map[xmltree.NodeID]bool
	count      int
}

func newTypeDeclarations(s *Session, doc *xmltree.Document) *typeDeclarations {
	named := make(map[string]xmltree.NodeID)
	doc.Walk(doc.Root(), func(id xmltree.NodeID) bool {
		if !isTypeNode(doc, id) {
			return true
		}
		if name := doc.GetAttribute(id, "name"); name != "" {
			if _, seen := named[name]; !seen {
				named[name] = id
			}
		}
		return true
	})
	return &typeDeclarations{s: s, named: named, inProgress: make(map[xmltree.NodeID]bool)}
}

func isTypeNode(doc *xmltree.Document, id xmltree.NodeID) bool {
	return doc.Is(id, Namespace, "simpleType") || doc.Is(id, Namespace, "complexType")
}

func (d *typeDeclarations) Applies(doc *xmltree.Document, id xmltree.NodeID) bool {
	return isTypeNode(doc, id)
}

func (d *typeDeclarations) Apply(doc *xmltree.Document, id xmltree.NodeID) error {
	_, err := d.declare(doc, id)
	return err
}

func (d *typeDeclarations) declare(doc *xmltree.Document, id xmltree.NodeID) (types.Type, error) {
	simple := doc.LocalName(id) == "simpleType"
	if t, ok := d.registered(id, simple); ok {
		return t, nil
	}
	if d.inProgress[id] {
		return nil, dtderrors.Type("circular type definition involving %q", displayTypeName(doc.GetAttribute(id, "name"))).
			WithSource(doc.SystemID(id))
	}
	d.inProgress[id] = true
	defer delete(d.inProgress, id)

	var (
		t   types.Type
		err error
	)
	if simple {
		t, err = d.declareSimple(doc, id)
	} else {
		t, err = d.declareComplex(doc, id)
	}
	if err != nil {
		return nil, err
	}
	if simple {
		t, err = d.s.registry.RegisterSimpleTypeNode(id, t)
	} else {
		t, err = d.s.registry.RegisterComplexTypeNode(id, t)
	}
	if err != nil {
		return nil, withSource(err, doc.SystemID(id))
	}
	d.count++
	return t, nil
}

func (d *typeDeclarations) registered(id xmltree.NodeID, simple bool) (types.Type, bool) {
	var (
		t   types.Type
		err error
	)
	if simple {
		t, err = d.s.registry.LookupBySimpleTypeNode(id)
	} else {
		t, err = d.s.registry.LookupByComplexTypeNode(id)
	}
	return t, err == nil
}

func (d *typeDeclarations) declareSimple(doc *xmltree.Document, id xmltree.NodeID) (types.Type, error) {
	name := doc.GetAttribute(id, "name")
	source := doc.SystemID(id)

	if text := strings.TrimSpace(doc.DirectTextContent(id)); text != "" {
		return nil, dtderrors.ContentModelFormat("simpleType %q contains character data %q", displayTypeName(name), text).
			WithSource(source)
	}
	derivation := xmltree.InvalidNode
	for _, child := range doc.Children(id) {
		switch {
		case doc.Is(child, Namespace, "annotation"):
		case doc.Is(child, Namespace, "restriction"), doc.Is(child, Namespace, "list"), doc.Is(child, Namespace, "union"):
			if derivation != xmltree.InvalidNode {
				return nil, dtderrors.ContentModelFormat("simpleType %q has more than one of restriction, list, union", displayTypeName(name)).
					WithSource(source)
			}
			derivation = child
		default:
			return nil, dtderrors.ContentModelFormat("simpleType %q has unexpected child %q", displayTypeName(name), doc.LocalName(child)).
				WithSource(source)
		}
	}
	if derivation == xmltree.InvalidNode {
		return nil, dtderrors.ContentModelFormat("simpleType %q needs exactly one of restriction, list, union", displayTypeName(name)).
			WithSource(source)
	}

	final, err := d.finality(doc, id, name)
	if err != nil {
		return nil, err
	}

	var t types.Type
	switch doc.LocalName(derivation) {
	case "restriction":
		t, err = d.restriction(doc, derivation, name, final)
	case "list":
		t, err = d.list(doc, derivation, name, final)
	default:
		t, err = d.union(doc, derivation, name, final)
	}
	if err != nil {
		return nil, withSource(err, source)
	}
	return t, nil
}

func (d *typeDeclarations) restriction(doc *xmltree.Document, id xmltree.NodeID, name string, final types.Finality) (types.Type, error) {
	var (
		base   types.Type
		values []string
		err    error
	)
	if ref := doc.GetAttribute(id, "base"); ref != "" {
		if base, err = d.resolve(doc, ref); err != nil {
			return nil, err
		}
	}
	for _, child := range doc.Children(id) {
		if doc.NamespaceURI(child) != Namespace {
			continue
		}
		switch local := doc.LocalName(child); {
		case local == "simpleType":
			if base != nil {
				return nil, dtderrors.ContentModelFormat("restriction of %q has both a base and an inline simpleType", displayTypeName(name))
			}
			if base, err = d.declare(doc, child); err != nil {
				return nil, err
			}
		case local == "enumeration":
			values = append(values, doc.GetAttribute(child, "value"))
		case types.IsInertFacet(local):
			d.s.logger.Debug("ignoring facet", "facet", local, "type", displayTypeName(name))
		}
	}
	if base == nil {
		return nil, dtderrors.ContentModelFormat("restriction of %q has neither a base nor an inline simpleType", displayTypeName(name))
	}

	var facets []types.Facet
	if len(values) > 0 {
		facets = append(facets, types.NewEnumerationFacet(values...))
	}
	return d.s.registry.DeriveByRestriction(name, base, final, facets...)
}

func (d *typeDeclarations) list(doc *xmltree.Document, id xmltree.NodeID, name string, final types.Finality) (types.Type, error) {
	var (
		item types.Type
		err  error
	)
	if ref := doc.GetAttribute(id, "itemType"); ref != "" {
		if item, err = d.resolve(doc, ref); err != nil {
			return nil, err
		}
	}
	for _, child := range doc.Children(id) {
		if !doc.Is(child, Namespace, "simpleType") {
			continue
		}
		if item != nil {
			return nil, dtderrors.ContentModelFormat("list %q has both an itemType and an inline simpleType", displayTypeName(name))
		}
		if item, err = d.declare(doc, child); err != nil {
			return nil, err
		}
	}
	if item == nil {
		return nil, dtderrors.ContentModelFormat("list %q has no item type", displayTypeName(name))
	}
	return d.s.registry.DeriveByList(name, final, item)
}

func (d *typeDeclarations) union(doc *xmltree.Document, id xmltree.NodeID, name string, final types.Finality) (types.Type, error) {
	var members []types.Type
	for _, ref := range strings.Fields(doc.GetAttribute(id, "memberTypes")) {
		member, err := d.resolve(doc, ref)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	for _, child := range doc.Children(id) {
		if !doc.Is(child, Namespace, "simpleType") {
			continue
		}
		member, err := d.declare(doc, child)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	if len(members) == 0 {
		return nil, dtderrors.ContentModelFormat("union %q has no member types", displayTypeName(name))
	}
	return d.s.registry.DeriveByUnion(name, final, members...)
}

// declareComplex derives a complex type by restriction. Only a
// complexContent restriction names a base in the lattice; extension and
// simple content are not modelled and fall back to anyType.
func (d *typeDeclarations) declareComplex(doc *xmltree.Document, id xmltree.NodeID) (types.Type, error) {
	name := doc.GetAttribute(id, "name")
	final, err := d.finality(doc, id, name)
	if err != nil {
		return nil, err
	}

	base, err := d.s.registry.Lookup(types.TypeNameAnyType)
	if err != nil {
		return nil, err
	}
	var values []string
	for _, content := range doc.Children(id) {
		simpleContent := doc.Is(content, Namespace, "simpleContent")
		if !simpleContent && !doc.Is(content, Namespace, "complexContent") {
			continue
		}
		for _, derivation := range doc.Children(content) {
			if !doc.Is(derivation, Namespace, "restriction") {
				continue
			}
			if simpleContent {
				for _, facet := range doc.Children(derivation) {
					if doc.Is(facet, Namespace, "enumeration") {
						values = append(values, doc.GetAttribute(facet, "value"))
					}
				}
				continue
			}
			if ref := doc.GetAttribute(derivation, "base"); ref != "" {
				if base, err = d.resolve(doc, ref); err != nil {
					return nil, withSource(err, doc.SystemID(id))
				}
			}
		}
	}

	var facets []types.Facet
	if len(values) > 0 {
		facets = append(facets, types.NewEnumerationFacet(values...))
	}
	t, err := d.s.registry.DeriveByRestriction(name, base, final, facets...)
	if err != nil {
		return nil, withSource(err, doc.SystemID(id))
	}
	return t, nil
}

// resolve returns the type named by a QName reference. The prefix is
// dropped: the registry holds a single namespace.
func (d *typeDeclarations) resolve(doc *xmltree.Document, ref string) (types.Type, error) {
	local := ref
	if i := strings.IndexByte(ref, ':'); i >= 0 {
		local = ref[i+1:]
	}
	if d.s.registry.Has(local) {
		return d.s.registry.Lookup(local)
	}
	if node, ok := d.named[local]; ok {
		return d.declare(doc, node)
	}
	return d.s.registry.Lookup(local)
}

// finality reads the final attribute, falling back to the enclosing
// schema's finalDefault.
func (d *typeDeclarations) finality(doc *xmltree.Document, id xmltree.NodeID, name string) (types.Finality, error) {
	value, ok := doc.LookupAttribute(id, "final")
	if !ok {
		value = finalDefault(doc, id)
	}
	final, err := types.ParseFinality(value)
	if err != nil {
		return types.FinalNone, dtderrors.Type("type %q: %v", displayTypeName(name), err).WithSource(doc.SystemID(id))
	}
	return final, nil
}

func finalDefault(doc *xmltree.Document, id xmltree.NodeID) string {
	for cur := doc.Parent(id); cur != xmltree.InvalidNode; cur = doc.Parent(cur) {
		if doc.Is(cur, Namespace, "schema") {
			return doc.GetAttribute(cur, "finalDefault")
		}
	}
	return ""
}

func displayTypeName(name string) string {
	if name == "" {
		return "(anonymous)"
	}
	return name
}

func withSource(err error, source string) error {
	if e, ok := err.(*dtderrors.Error); ok && e.Source == "" && source != "" {
		return e.WithSource(source)
	}
	return err
}
