package xmltree

import (
	"slices"
	"strings"
)

// NodeID identifies a node in the document arena.
type NodeID int

// InvalidNode represents an invalid node reference.
const InvalidNode NodeID = -1

// Document is a mutable arena of element nodes. Nodes are never freed;
// detached nodes simply stop being reachable from the root.
type Document struct {
	nodes []node
	root  NodeID
}

type node struct {
	namespace string
	local     string
	text      string
	systemID  string
	tag       string
	attrs     []Attr
	children  []NodeID
	parent    NodeID
}

// Attr exposes attribute name, namespace, and value.
type Attr struct {
	namespace string
	local     string
	value     string
}

// NewAttr returns an attribute.
func NewAttr(namespace, local, value string) Attr {
	return Attr{namespace: namespace, local: local, value: value}
}

func (a Attr) NamespaceURI() string { return a.namespace }

func (a Attr) LocalName() string { return a.local }

func (a Attr) Value() string { return a.value }

// NewDocument returns an empty document with no root.
func NewDocument() *Document {
	return &Document{root: InvalidNode}
}

// Root returns the document element.
func (d *Document) Root() NodeID {
	if d == nil {
		return InvalidNode
	}
	return d.root
}

// Len returns the number of allocated nodes, reachable or not.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.nodes)
}

// Valid reports whether id addresses an allocated node.
func (d *Document) Valid(id NodeID) bool {
	return d != nil && id >= 0 && int(id) < len(d.nodes)
}

// CreateElement allocates a detached element.
func (d *Document) CreateElement(namespace, local string, attrs ...Attr) NodeID {
	id := NodeID(len(d.nodes))
	d.nodes = append(d.nodes, node{
		namespace: namespace,
		local:     local,
		attrs:     slices.Clone(attrs),
		parent:    InvalidNode,
	})
	return id
}

// SetRoot makes id the document element.
func (d *Document) SetRoot(id NodeID) {
	if !d.Valid(id) {
		return
	}
	d.root = id
	d.nodes[id].parent = InvalidNode
}

// AppendChild attaches child as the last child of parent.
func (d *Document) AppendChild(parent, child NodeID) {
	if !d.Valid(parent) || !d.Valid(child) {
		return
	}
	d.detach(child)
	d.nodes[child].parent = parent
	d.nodes[parent].children = append(d.nodes[parent].children, child)
}

// AppendText appends character data directly under id.
func (d *Document) AppendText(id NodeID, text string) {
	if !d.Valid(id) {
		return
	}
	d.nodes[id].text += text
}

// Parent returns the parent node of id, or InvalidNode for the root and
// detached nodes.
func (d *Document) Parent(id NodeID) NodeID {
	if !d.Valid(id) {
		return InvalidNode
	}
	return d.nodes[id].parent
}

// NamespaceURI returns the namespace URI for the given node.
func (d *Document) NamespaceURI(id NodeID) string {
	if !d.Valid(id) {
		return ""
	}
	return d.nodes[id].namespace
}

// LocalName returns the local name for the given node.
func (d *Document) LocalName(id NodeID) string {
	if !d.Valid(id) {
		return ""
	}
	return d.nodes[id].local
}

// Is reports whether id is the element {namespace}local.
func (d *Document) Is(id NodeID, namespace, local string) bool {
	return d.Valid(id) && d.nodes[id].namespace == namespace && d.nodes[id].local == local
}

// SystemID returns the system identifier of the document the node was read from.
func (d *Document) SystemID(id NodeID) string {
	if !d.Valid(id) {
		return ""
	}
	return d.nodes[id].systemID
}

// Tag returns the namespace the node was tagged with when it was spliced in
// by an import. Nodes that were never tagged return "".
func (d *Document) Tag(id NodeID) string {
	if !d.Valid(id) {
		return ""
	}
	return d.nodes[id].tag
}

// Attributes returns a copy of the element attributes.
func (d *Document) Attributes(id NodeID) []Attr {
	if !d.Valid(id) {
		return nil
	}
	return slices.Clone(d.nodes[id].attrs)
}

// Children returns a snapshot of the element children.
func (d *Document) Children(id NodeID) []NodeID {
	if !d.Valid(id) {
		return nil
	}
	return slices.Clone(d.nodes[id].children)
}

// ChildIndex returns the position of child in parent's child list, or -1.
func (d *Document) ChildIndex(parent, child NodeID) int {
	if !d.Valid(parent) {
		return -1
	}
	return slices.Index(d.nodes[parent].children, child)
}

// DirectTextContent returns only the text directly under the element.
func (d *Document) DirectTextContent(id NodeID) string {
	if !d.Valid(id) {
		return ""
	}
	return d.nodes[id].text
}

// TextContent returns the concatenated text of the element subtree.
func (d *Document) TextContent(id NodeID) string {
	if !d.Valid(id) {
		return ""
	}
	var sb strings.Builder
	d.collectText(id, &sb)
	return sb.String()
}

func (d *Document) collectText(id NodeID, sb *strings.Builder) {
	sb.WriteString(d.nodes[id].text)
	for _, child := range d.nodes[id].children {
		d.collectText(child, sb)
	}
}

func (d *Document) findAttribute(id NodeID, match func(Attr) bool) (Attr, bool) {
	if !d.Valid(id) {
		return Attr{}, false
	}
	for _, attr := range d.nodes[id].attrs {
		if match(attr) {
			return attr, true
		}
	}
	return Attr{}, false
}

// GetAttribute returns the value of an unqualified attribute name.
func (d *Document) GetAttribute(id NodeID, name string) string {
	if attr, ok := d.findAttribute(id, func(a Attr) bool { return a.namespace == "" && a.local == name }); ok {
		return attr.value
	}
	return ""
}

// GetAttributeNS returns the value of a namespaced attribute.
func (d *Document) GetAttributeNS(id NodeID, ns, local string) string {
	if attr, ok := d.findAttribute(id, func(a Attr) bool { return a.namespace == ns && a.local == local }); ok {
		return attr.value
	}
	return ""
}

// HasAttribute reports whether the element has an unqualified attribute name.
func (d *Document) HasAttribute(id NodeID, name string) bool {
	_, ok := d.findAttribute(id, func(a Attr) bool { return a.namespace == "" && a.local == name })
	return ok
}

// LookupAttribute returns the value of an unqualified attribute and whether
// it is present.
func (d *Document) LookupAttribute(id NodeID, name string) (string, bool) {
	attr, ok := d.findAttribute(id, func(a Attr) bool { return a.namespace == "" && a.local == name })
	return attr.value, ok
}
