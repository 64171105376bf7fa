package xmltree

import (
	"fmt"
	"slices"
)

// ReplaceChild replaces child index k of parent with the given nodes, in
// order. The replaced node is detached. Replacement nodes are detached from
// wherever they were first.
func (d *Document) ReplaceChild(parent NodeID, k int, with ...NodeID) error {
	if err := d.checkChildIndex(parent, k); err != nil {
		return err
	}
	for _, id := range with {
		if !d.Valid(id) {
			return fmt.Errorf("replace child %d of node %d: invalid replacement node %d", k, parent, id)
		}
		if d.isAncestorOrSelf(id, parent) {
			return fmt.Errorf("replace child %d of node %d: node %d is an ancestor", k, parent, id)
		}
	}

	old := d.nodes[parent].children[k]
	for _, id := range with {
		if d.nodes[id].parent != InvalidNode && d.nodes[id].parent != parent {
			d.detach(id)
		}
	}
	// Replacements already under parent would shift indices; drop them first.
	children := slices.DeleteFunc(slices.Clone(d.nodes[parent].children), func(id NodeID) bool {
		return id != old && slices.Contains(with, id)
	})
	k = slices.Index(children, old)
	children = slices.Replace(children, k, k+1, with...)
	d.nodes[parent].children = children
	if !slices.Contains(with, old) {
		d.nodes[old].parent = InvalidNode
	}
	for _, id := range with {
		d.nodes[id].parent = parent
	}
	return nil
}

// RemoveChild detaches child index k of parent.
func (d *Document) RemoveChild(parent NodeID, k int) error {
	if err := d.checkChildIndex(parent, k); err != nil {
		return err
	}
	old := d.nodes[parent].children[k]
	d.nodes[parent].children = slices.Delete(slices.Clone(d.nodes[parent].children), k, k+1)
	d.nodes[old].parent = InvalidNode
	return nil
}

// Graft deep-copies the subtree of src rooted at id into d and returns the
// detached copy. System IDs and tags travel with the nodes.
func (d *Document) Graft(src *Document, id NodeID) NodeID {
	if !src.Valid(id) {
		return InvalidNode
	}
	n := src.nodes[id]
	copied := d.CreateElement(n.namespace, n.local, n.attrs...)
	d.nodes[copied].text = n.text
	d.nodes[copied].systemID = n.systemID
	d.nodes[copied].tag = n.tag
	for _, child := range n.children {
		d.AppendChild(copied, d.Graft(src, child))
	}
	return copied
}

// SetSystemID records systemID on every node of the subtree rooted at id.
func (d *Document) SetSystemID(id NodeID, systemID string) {
	d.Walk(id, func(n NodeID) bool {
		d.nodes[n].systemID = systemID
		return true
	})
}

// TagSubtree records namespace on every node of the subtree rooted at id.
func (d *Document) TagSubtree(id NodeID, namespace string) {
	d.Walk(id, func(n NodeID) bool {
		d.nodes[n].tag = namespace
		return true
	})
}

// Walk visits the subtree rooted at id in document order. Returning false
// from fn skips the node's children. Children are snapshotted before they
// are visited, so fn may rewrite the tree below the current node.
func (d *Document) Walk(id NodeID, fn func(NodeID) bool) {
	if !d.Valid(id) {
		return
	}
	if !fn(id) {
		return
	}
	for _, child := range d.Children(id) {
		d.Walk(child, fn)
	}
}

// Any reports whether some node of the subtree rooted at id matches.
func (d *Document) Any(id NodeID, match func(NodeID) bool) bool {
	found := false
	d.Walk(id, func(n NodeID) bool {
		if found {
			return false
		}
		if match(n) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Count returns the number of nodes in the subtree rooted at id that match.
func (d *Document) Count(id NodeID, match func(NodeID) bool) int {
	count := 0
	d.Walk(id, func(n NodeID) bool {
		if match(n) {
			count++
		}
		return true
	})
	return count
}

func (d *Document) detach(id NodeID) {
	parent := d.nodes[id].parent
	if parent == InvalidNode {
		return
	}
	if k := slices.Index(d.nodes[parent].children, id); k >= 0 {
		d.nodes[parent].children = slices.Delete(slices.Clone(d.nodes[parent].children), k, k+1)
	}
	d.nodes[id].parent = InvalidNode
}

func (d *Document) isAncestorOrSelf(candidate, id NodeID) bool {
	for cur := id; cur != InvalidNode; cur = d.nodes[cur].parent {
		if cur == candidate {
			return true
		}
	}
	return false
}

func (d *Document) checkChildIndex(parent NodeID, k int) error {
	if !d.Valid(parent) {
		return fmt.Errorf("invalid parent node %d", parent)
	}
	if k < 0 || k >= len(d.nodes[parent].children) {
		return fmt.Errorf("child index %d out of range for node %d with %d children", k, parent, len(d.nodes[parent].children))
	}
	return nil
}
