package xsd

import (
	dtderrors "github.com/jacoelho/dtdmodel/errors"
	"github.com/jacoelho/dtdmodel/internal/contentmodel"
	"github.com/jacoelho/dtdmodel/internal/doctype"
	"github.com/jacoelho/dtdmodel/internal/xmltree"
)

// elementExtraction emits an Element for every named element declaration.
// The content model is an ANY placeholder; element references (ref=) are
// not declarations and are skipped.
type elementExtraction struct{ s *Session }

func (e elementExtraction) Applies(doc *xmltree.Document, id xmltree.NodeID) bool {
	return doc.Is(id, Namespace, "element") && doc.GetAttribute(id, "name") != ""
}

func (e elementExtraction) Apply(doc *xmltree.Document, id xmltree.NodeID) error {
	name := doc.GetAttribute(id, "name")
	el, err := doctype.NewElement(name, contentmodel.NewAny())
	if err != nil {
		return dtderrors.SchemaProcessing(err, "extract element %q", name).WithSource(doc.SystemID(id))
	}
	e.s.emit(el)
	return nil
}

// notationExtraction emits a Notation for every notation declaration.
type notationExtraction struct{ s *Session }

func (n notationExtraction) Applies(doc *xmltree.Document, id xmltree.NodeID) bool {
	return doc.Is(id, Namespace, "notation")
}

func (n notationExtraction) Apply(doc *xmltree.Document, id xmltree.NodeID) error {
	name := doc.GetAttribute(id, "name")
	notation, err := doctype.NewNotation(name, doctype.ExternalID{
		Public: doc.GetAttribute(id, "public"),
		System: doc.GetAttribute(id, "system"),
	})
	if err != nil {
		return dtderrors.SchemaProcessing(err, "extract notation").WithSource(doc.SystemID(id))
	}
	n.s.emit(notation)
	return nil
}
