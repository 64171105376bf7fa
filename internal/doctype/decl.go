// Package doctype holds the normalized document-type model: element,
// attribute-list, entity, and notation declarations, and the DocumentType
// aggregate assembled from them.
package doctype

import (
	"fmt"
	"strings"
)

// MarkupDecl is one declaration produced by an input module. The set of
// implementations is closed: *Element, *AttributeList, *Entity, *Notation.
type MarkupDecl interface {
	Name() string
	markupDecl()
}

// ExternalID is a public and/or system identifier.
type ExternalID struct {
	Public string
	System string
}

// IsZero reports whether neither identifier is set.
func (id ExternalID) IsZero() bool {
	return id.Public == "" && id.System == ""
}

// Compare orders by public id, then system id.
func (id ExternalID) Compare(other ExternalID) int {
	if c := strings.Compare(id.Public, other.Public); c != 0 {
		return c
	}
	return strings.Compare(id.System, other.System)
}

// String renders the identifier in DTD syntax.
func (id ExternalID) String() string {
	switch {
	case id.Public != "" && id.System != "":
		return fmt.Sprintf("PUBLIC %q %q", id.Public, id.System)
	case id.Public != "":
		return fmt.Sprintf("PUBLIC %q", id.Public)
	case id.System != "":
		return fmt.Sprintf("SYSTEM %q", id.System)
	default:
		return ""
	}
}

// Notation declares a notation name bound to an external identifier.
type Notation struct {
	name string
	id   ExternalID
}

// NewNotation returns a notation declaration.
func NewNotation(name string, id ExternalID) (*Notation, error) {
	if name == "" {
		return nil, fmt.Errorf("notation name is empty")
	}
	return &Notation{name: name, id: id}, nil
}

func (n *Notation) Name() string { return n.name }

// ExternalID returns the notation identifier.
func (n *Notation) ExternalID() ExternalID { return n.id }

// Equal reports structural equality.
func (n *Notation) Equal(other *Notation) bool { return n.Compare(other) == 0 }

// Compare orders by name, then identifier.
func (n *Notation) Compare(other *Notation) int {
	if other == nil {
		return 1
	}
	if c := strings.Compare(n.name, other.name); c != 0 {
		return c
	}
	return n.id.Compare(other.id)
}

// Clone returns a copy.
func (n *Notation) Clone() *Notation {
	cp := *n
	return &cp
}

func (n *Notation) String() string {
	return fmt.Sprintf("<!NOTATION %s %s>", n.name, n.id)
}

func (n *Notation) markupDecl() {}

// EntityState identifies which of the entity variants is populated.
type EntityState uint8

const (
	EntityInternal EntityState = iota + 1
	EntityExternalParsed
	EntityExternalUnparsed
)

func (s EntityState) String() string {
	switch s {
	case EntityInternal:
		return "internal"
	case EntityExternalParsed:
		return "external-parsed"
	case EntityExternalUnparsed:
		return "external-unparsed"
	default:
		return "uninitialised"
	}
}

// Entity is an internal, external parsed, or external unparsed entity.
// The variant is fixed by the constructor.
type Entity struct {
	name      string
	value     string
	notation  string
	id        ExternalID
	state     EntityState
	parameter bool
}

// NewInternalEntity returns an entity with a literal replacement value.
func NewInternalEntity(name, value string) (*Entity, error) {
	if name == "" {
		return nil, fmt.Errorf("entity name is empty")
	}
	return &Entity{name: name, value: value, state: EntityInternal}, nil
}

// NewExternalEntity returns an external parsed entity.
func NewExternalEntity(name string, id ExternalID) (*Entity, error) {
	if name == "" {
		return nil, fmt.Errorf("entity name is empty")
	}
	if id.System == "" {
		return nil, fmt.Errorf("external entity %q requires a system identifier", name)
	}
	return &Entity{name: name, id: id, state: EntityExternalParsed}, nil
}

// NewUnparsedEntity returns an external unparsed entity bound to a notation.
func NewUnparsedEntity(name string, id ExternalID, notation string) (*Entity, error) {
	e, err := NewExternalEntity(name, id)
	if err != nil {
		return nil, err
	}
	if notation == "" {
		return nil, fmt.Errorf("unparsed entity %q requires a notation", name)
	}
	e.notation = notation
	e.state = EntityExternalUnparsed
	return e, nil
}

// AsParameter returns a copy marked as a parameter entity.
func (e *Entity) AsParameter() *Entity {
	cp := *e
	cp.parameter = true
	return &cp
}

func (e *Entity) Name() string { return e.name }

// State returns the populated variant.
func (e *Entity) State() EntityState { return e.state }

// Value returns the replacement text of an internal entity.
func (e *Entity) Value() (string, bool) {
	return e.value, e.state == EntityInternal
}

// ExternalID returns the identifier of an external entity.
func (e *Entity) ExternalID() (ExternalID, bool) {
	return e.id, e.state == EntityExternalParsed || e.state == EntityExternalUnparsed
}

// Notation returns the notation name of an unparsed entity.
func (e *Entity) Notation() (string, bool) {
	return e.notation, e.state == EntityExternalUnparsed
}

// IsParameter reports whether e is a parameter entity.
func (e *Entity) IsParameter() bool { return e.parameter }

// Equal reports structural equality.
func (e *Entity) Equal(other *Entity) bool { return e.Compare(other) == 0 }

// Compare orders by name, parameter flag, state, then payload.
func (e *Entity) Compare(other *Entity) int {
	if other == nil {
		return 1
	}
	if c := strings.Compare(e.name, other.name); c != 0 {
		return c
	}
	if e.parameter != other.parameter {
		if !e.parameter {
			return -1
		}
		return 1
	}
	if c := compareUint8(uint8(e.state), uint8(other.state)); c != 0 {
		return c
	}
	if c := strings.Compare(e.value, other.value); c != 0 {
		return c
	}
	if c := e.id.Compare(other.id); c != 0 {
		return c
	}
	return strings.Compare(e.notation, other.notation)
}

// Clone returns a copy.
func (e *Entity) Clone() *Entity {
	cp := *e
	return &cp
}

func (e *Entity) String() string {
	prefix := "<!ENTITY "
	if e.parameter {
		prefix += "% "
	}
	switch e.state {
	case EntityInternal:
		return fmt.Sprintf("%s%s %q>", prefix, e.name, e.value)
	case EntityExternalUnparsed:
		return fmt.Sprintf("%s%s %s NDATA %s>", prefix, e.name, e.id, e.notation)
	default:
		return fmt.Sprintf("%s%s %s>", prefix, e.name, e.id)
	}
}

func (e *Entity) markupDecl() {}

func compareUint8(a, b uint8) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
