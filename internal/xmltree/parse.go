package xmltree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

const xmlnsNamespace = "xmlns"

// Parse reads an XML document into a new arena. Every node records
// systemID. Comments, processing instructions and the prolog are dropped;
// namespace declarations are resolved by the decoder and not kept as
// attributes.
func Parse(r io.Reader, systemID string) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	doc := NewDocument()
	var stack []NodeID
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", displaySystemID(systemID), err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 && doc.root != InvalidNode {
				return nil, fmt.Errorf("parse %s: multiple root elements", displaySystemID(systemID))
			}
			id := doc.CreateElement(t.Name.Space, t.Name.Local, convertAttrs(t.Attr)...)
			doc.nodes[id].systemID = systemID
			if len(stack) == 0 {
				doc.SetRoot(id)
			} else {
				doc.AppendChild(stack[len(stack)-1], id)
			}
			stack = append(stack, id)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				doc.AppendText(stack[len(stack)-1], string(t))
			} else if strings.TrimSpace(string(t)) != "" {
				return nil, fmt.Errorf("parse %s: character data outside the document element", displaySystemID(systemID))
			}
		}
	}
	if doc.root == InvalidNode {
		return nil, fmt.Errorf("parse %s: no document element", displaySystemID(systemID))
	}
	return doc, nil
}

func convertAttrs(attrs []xml.Attr) []Attr {
	out := make([]Attr, 0, len(attrs))
	for _, a := range attrs {
		if a.Name.Space == xmlnsNamespace || (a.Name.Space == "" && a.Name.Local == xmlnsNamespace) {
			continue
		}
		out = append(out, Attr{namespace: a.Name.Space, local: a.Name.Local, value: a.Value})
	}
	return out
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", label)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

func displaySystemID(systemID string) string {
	if systemID == "" {
		return "<input>"
	}
	return systemID
}
