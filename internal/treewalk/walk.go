package treewalk

import (
	"fmt"

	"github.com/jacoelho/dtdmodel/internal/xmltree"
)

// Operation is a rewrite or analysis rule applied to matching nodes.
type Operation interface {
	Applies(doc *xmltree.Document, id xmltree.NodeID) bool
	Apply(doc *xmltree.Document, id xmltree.NodeID) error
}

// Func adapts a pair of functions to Operation.
type Func struct {
	Match func(doc *xmltree.Document, id xmltree.NodeID) bool
	Do    func(doc *xmltree.Document, id xmltree.NodeID) error
}

func (f Func) Applies(doc *xmltree.Document, id xmltree.NodeID) bool {
	return f.Match != nil && f.Match(doc, id)
}

func (f Func) Apply(doc *xmltree.Document, id xmltree.NodeID) error {
	if f.Do == nil {
		return nil
	}
	return f.Do(doc, id)
}

// Element returns a predicate matching {namespace}local elements.
func Element(namespace, local string) func(*xmltree.Document, xmltree.NodeID) bool {
	return func(doc *xmltree.Document, id xmltree.NodeID) bool {
		return doc.Is(id, namespace, local)
	}
}

// Walk runs ops over every node reachable from the document root, once, in
// document order. For each node the operations run in the given order; an
// operation that detaches the node stops the remaining ones for that node.
// The first error aborts the walk.
func Walk(doc *xmltree.Document, ops ...Operation) error {
	_, err := walk(doc, ops)
	return err
}

// Run executes each pass as a separate Walk, in order.
func Run(doc *xmltree.Document, passes ...[]Operation) error {
	for i, pass := range passes {
		if err := Walk(doc, pass...); err != nil {
			return fmt.Errorf("pass %d: %w", i+1, err)
		}
	}
	return nil
}

// Fixpoint repeats rounds while pending reports outstanding work. A round
// runs each operation as its own walk over the whole tree, in the given
// order. A round that applies nothing while work is still pending is an
// error, so a rule set that cannot make progress fails instead of spinning.
func Fixpoint(doc *xmltree.Document, pending func(*xmltree.Document) bool, ops ...Operation) (int, error) {
	rounds := 0
	for pending(doc) {
		rounds++
		applied := 0
		for _, op := range ops {
			n, err := walk(doc, []Operation{op})
			if err != nil {
				return rounds, err
			}
			applied += n
		}
		if applied == 0 {
			return rounds, fmt.Errorf("fixpoint stalled after %d rounds", rounds)
		}
	}
	return rounds, nil
}

func walk(doc *xmltree.Document, ops []Operation) (int, error) {
	root := doc.Root()
	if root == xmltree.InvalidNode {
		return 0, nil
	}
	applied := 0
	var err error
	doc.Walk(root, func(id xmltree.NodeID) bool {
		if err != nil {
			return false
		}
		for _, op := range ops {
			if !attached(doc, id) {
				return false
			}
			if !op.Applies(doc, id) {
				continue
			}
			if err = op.Apply(doc, id); err != nil {
				return false
			}
			applied++
		}
		return attached(doc, id)
	})
	return applied, err
}

func attached(doc *xmltree.Document, id xmltree.NodeID) bool {
	root := doc.Root()
	for cur := id; cur != xmltree.InvalidNode; cur = doc.Parent(cur) {
		if cur == root {
			return true
		}
	}
	return false
}
