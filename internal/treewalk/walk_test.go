package treewalk

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacoelho/dtdmodel/internal/xmltree"
)

func parse(t *testing.T, src string) *xmltree.Document {
	t.Helper()
	doc, err := xmltree.Parse(strings.NewReader(src), "test.xml")
	require.NoError(t, err)
	return doc
}

func collect(names *[]string) Operation {
	return Func{
		Match: func(*xmltree.Document, xmltree.NodeID) bool { return true },
		Do: func(doc *xmltree.Document, id xmltree.NodeID) error {
			*names = append(*names, doc.LocalName(id))
			return nil
		},
	}
}

func TestWalkDocumentOrder(t *testing.T) {
	doc := parse(t, `<r><a><b/></a><c/></r>`)
	var names []string
	require.NoError(t, Walk(doc, collect(&names)))
	assert.Equal(t, []string{"r", "a", "b", "c"}, names)
}

func TestWalkStopsOnError(t *testing.T) {
	doc := parse(t, `<r><a/><b/></r>`)
	boom := errors.New("boom")
	var names []string
	fail := Func{
		Match: Element("", "a"),
		Do:    func(*xmltree.Document, xmltree.NodeID) error { return boom },
	}
	err := Walk(doc, fail, collect(&names))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"r"}, names)
}

func TestWalkSkipsDetachedNodes(t *testing.T) {
	doc := parse(t, `<r><drop><inner/></drop><keep/></r>`)
	var names []string
	remove := Func{
		Match: Element("", "drop"),
		Do: func(doc *xmltree.Document, id xmltree.NodeID) error {
			parent := doc.Parent(id)
			return doc.RemoveChild(parent, doc.ChildIndex(parent, id))
		},
	}
	require.NoError(t, Walk(doc, remove, collect(&names)))
	assert.Equal(t, []string{"r", "keep"}, names)
}

func TestRunPasses(t *testing.T) {
	doc := parse(t, `<r><a/></r>`)
	var first, second []string
	err := Run(doc, []Operation{collect(&first)}, []Operation{collect(&second)})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	fail := Func{
		Match: Element("", "a"),
		Do:    func(*xmltree.Document, xmltree.NodeID) error { return errors.New("bad") },
	}
	err = Run(doc, nil, []Operation{fail})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pass 2")
}

func TestFixpoint(t *testing.T) {
	doc := parse(t, `<r><x/><x><x/></x></r>`)
	isX := func(doc *xmltree.Document, id xmltree.NodeID) bool { return doc.LocalName(id) == "x" }
	pending := func(doc *xmltree.Document) bool {
		return doc.Any(doc.Root(), func(id xmltree.NodeID) bool { return isX(doc, id) })
	}
	// Replaces each x with its children, one level per round.
	unwrap := Func{
		Match: isX,
		Do: func(doc *xmltree.Document, id xmltree.NodeID) error {
			parent := doc.Parent(id)
			return doc.ReplaceChild(parent, doc.ChildIndex(parent, id), doc.Children(id)...)
		},
	}

	rounds, err := Fixpoint(doc, pending, unwrap)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rounds, 1)
	assert.Empty(t, doc.Children(doc.Root()))
}

func TestFixpointStalls(t *testing.T) {
	doc := parse(t, `<r><x/></r>`)
	pending := func(*xmltree.Document) bool { return true }
	noop := Func{Match: Element("", "missing")}

	_, err := Fixpoint(doc, pending, noop)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stalled")
}
