package doctype

import (
	json "github.com/goccy/go-json"
)

// View is a serializable rendering of a DocumentType.
type View struct {
	Elements       []ElementView  `json:"elements" yaml:"elements"`
	AttributeLists []AttListView  `json:"attributeLists,omitempty" yaml:"attributeLists,omitempty"`
	Entities       []EntityView   `json:"entities,omitempty" yaml:"entities,omitempty"`
	Notations      []NotationView `json:"notations,omitempty" yaml:"notations,omitempty"`
}

// ElementView renders one element.
type ElementView struct {
	Name       string          `json:"name" yaml:"name"`
	Content    string          `json:"contentType" yaml:"contentType"`
	Model      string          `json:"model,omitempty" yaml:"model,omitempty"`
	Attributes []AttributeView `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// AttListView renders one attribute list.
type AttListView struct {
	Name       string          `json:"name" yaml:"name"`
	Linked     bool            `json:"linked" yaml:"linked"`
	Attributes []AttributeView `json:"attributes" yaml:"attributes"`
}

// AttributeView renders one attribute definition.
type AttributeView struct {
	Name    string   `json:"name" yaml:"name"`
	Type    string   `json:"type" yaml:"type"`
	Values  []string `json:"values,omitempty" yaml:"values,omitempty"`
	Default string   `json:"default" yaml:"default"`
	Value   string   `json:"value,omitempty" yaml:"value,omitempty"`
}

// EntityView renders one entity.
type EntityView struct {
	Name      string `json:"name" yaml:"name"`
	Kind      string `json:"kind" yaml:"kind"`
	Parameter bool   `json:"parameter,omitempty" yaml:"parameter,omitempty"`
	Value     string `json:"value,omitempty" yaml:"value,omitempty"`
	PublicID  string `json:"publicId,omitempty" yaml:"publicId,omitempty"`
	SystemID  string `json:"systemId,omitempty" yaml:"systemId,omitempty"`
	Notation  string `json:"notation,omitempty" yaml:"notation,omitempty"`
}

// NotationView renders one notation.
type NotationView struct {
	Name     string `json:"name" yaml:"name"`
	PublicID string `json:"publicId,omitempty" yaml:"publicId,omitempty"`
	SystemID string `json:"systemId,omitempty" yaml:"systemId,omitempty"`
}

// View returns the serializable rendering, every group sorted by name.
func (d *DocumentType) View() View {
	v := View{Elements: []ElementView{}}
	for _, name := range sortedKeys(d.elements) {
		el := d.elements[name]
		ev := ElementView{
			Name:       name,
			Content:    el.content.Type().String(),
			Attributes: attributeViews(el.attributes),
		}
		if el.content.Node() != nil {
			ev.Model = el.content.String()
		}
		v.Elements = append(v.Elements, ev)
	}
	for _, name := range sortedKeys(d.attlists) {
		_, linked := d.elements[name]
		v.AttributeLists = append(v.AttributeLists, AttListView{
			Name:       name,
			Linked:     linked,
			Attributes: attributeViews(d.attlists[name]),
		})
	}
	for _, name := range sortedKeys(d.entities) {
		e := d.entities[name]
		ev := EntityView{Name: name, Kind: e.state.String(), Parameter: e.parameter}
		if value, ok := e.Value(); ok {
			ev.Value = value
		}
		if id, ok := e.ExternalID(); ok {
			ev.PublicID, ev.SystemID = id.Public, id.System
		}
		if notation, ok := e.Notation(); ok {
			ev.Notation = notation
		}
		v.Entities = append(v.Entities, ev)
	}
	for _, name := range sortedKeys(d.notations) {
		n := d.notations[name]
		v.Notations = append(v.Notations, NotationView{Name: name, PublicID: n.id.Public, SystemID: n.id.System})
	}
	return v
}

func attributeViews(list *AttributeList) []AttributeView {
	if list == nil || len(list.attributes) == 0 {
		return nil
	}
	out := make([]AttributeView, 0, len(list.attributes))
	for _, attr := range list.attributes {
		av := AttributeView{
			Name:    attr.name,
			Type:    attr.typ.kind.String(),
			Values:  attr.typ.Values(),
			Default: attr.def.kind.String(),
		}
		if value, ok := attr.def.Value(); ok {
			av.Value = value
		}
		out = append(out, av)
	}
	return out
}

// MarshalJSON encodes the View.
func (d *DocumentType) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.View())
}

// MarshalYAML encodes the View.
func (d *DocumentType) MarshalYAML() (any, error) {
	return d.View(), nil
}
