package contentmodel

import (
	"fmt"
)

// ContentType tags the shape of an element's content.
type ContentType uint8

const (
	Empty ContentType = iota + 1
	Any
	MixedContent
	Children
)

func (t ContentType) String() string {
	switch t {
	case Empty:
		return "EMPTY"
	case Any:
		return "ANY"
	case MixedContent:
		return "MIXED"
	case Children:
		return "CHILDREN"
	default:
		return "UNKNOWN"
	}
}

// ContentModel is a content type tag with, for MIXED and CHILDREN, the node
// describing the allowed children. MIXED always holds a *Mixed and CHILDREN
// always holds a *Sequence. A ContentModel is immutable: constructors and
// accessors copy the node.
type ContentModel struct {
	node Node
	kind ContentType
}

// NewEmpty returns the EMPTY content model.
func NewEmpty() ContentModel {
	return ContentModel{kind: Empty}
}

// NewAny returns the ANY content model.
func NewAny() ContentModel {
	return ContentModel{kind: Any}
}

// NewMixedModel returns a MIXED content model.
func NewMixedModel(m *Mixed) (ContentModel, error) {
	if m == nil {
		return ContentModel{}, fmt.Errorf("mixed content model requires a mixed node")
	}
	return ContentModel{kind: MixedContent, node: m.Clone()}, nil
}

// NewChildrenModel returns a CHILDREN content model.
func NewChildrenModel(s *Sequence) (ContentModel, error) {
	if s == nil {
		return ContentModel{}, fmt.Errorf("children content model requires a sequence node")
	}
	if s.Len() == 0 {
		return ContentModel{}, fmt.Errorf("children content model requires at least one particle")
	}
	return ContentModel{kind: Children, node: s.Clone()}, nil
}

// Type returns the content type tag.
func (m ContentModel) Type() ContentType {
	return m.kind
}

// Node returns a copy of the content node, or nil for EMPTY and ANY.
func (m ContentModel) Node() Node {
	if m.node == nil {
		return nil
	}
	return m.node.Clone()
}

// Mixed returns a copy of the mixed node when the model is MIXED.
func (m ContentModel) Mixed() (*Mixed, bool) {
	mixed, ok := m.node.(*Mixed)
	if !ok || m.kind != MixedContent {
		return nil, false
	}
	return mixed.Clone().(*Mixed), true
}

// Sequence returns a copy of the top-level sequence when the model is
// CHILDREN.
func (m ContentModel) Sequence() (*Sequence, bool) {
	seq, ok := m.node.(*Sequence)
	if !ok || m.kind != Children {
		return nil, false
	}
	return seq.Clone().(*Sequence), true
}

// IsZero reports whether m was never initialized.
func (m ContentModel) IsZero() bool {
	return m.kind == 0
}

// Equal reports structural equality.
func (m ContentModel) Equal(other ContentModel) bool {
	return m.Compare(other) == 0
}

// Compare orders by content type, then by node.
func (m ContentModel) Compare(other ContentModel) int {
	if c := compareOccurs(Occurs(m.kind), Occurs(other.kind)); c != 0 {
		return c
	}
	switch {
	case m.node == nil && other.node == nil:
		return 0
	case m.node == nil:
		return -1
	case other.node == nil:
		return 1
	default:
		return m.node.Compare(other.node)
	}
}

// Clone returns a deep copy.
func (m ContentModel) Clone() ContentModel {
	if m.node == nil {
		return m
	}
	return ContentModel{kind: m.kind, node: m.node.Clone()}
}

// String renders the model in DTD syntax.
func (m ContentModel) String() string {
	switch m.kind {
	case Empty, Any:
		return m.kind.String()
	case MixedContent, Children:
		if m.node == nil {
			return m.kind.String()
		}
		return m.node.String()
	default:
		return ""
	}
}
