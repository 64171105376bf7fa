package dtdmodel_test

import (
	"fmt"
	"strings"
	"testing/fstest"

	"github.com/jacoelho/dtdmodel"
)

func ExampleParseFS() {
	schemaXML := `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/simple">
  <xs:element name="message" type="xs:string"/>
  <xs:notation name="png" public="image/png"/>
</xs:schema>`

	fsys := fstest.MapFS{
		"simple.xsd": &fstest.MapFile{Data: []byte(schemaXML)},
	}

	dt, err := dtdmodel.ParseFS("xsd", fsys, "simple.xsd")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println(dt.ElementNames())
	fmt.Println(len(dt.Notations()))
	// Output:
	// [message]
	// 1
}

func ExampleParse() {
	dtdText := `<!ELEMENT note (to, from, body)>
<!ELEMENT to (#PCDATA)>
<!ELEMENT from (#PCDATA)>
<!ELEMENT body (#PCDATA|em)*>
<!ELEMENT em (#PCDATA)>
<!ATTLIST note priority (low|high) "low">`

	dt, err := dtdmodel.Parse("dtd", strings.NewReader(dtdText), "")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	note, _ := dt.Element("note")
	fmt.Println(note.Content())
	for _, attr := range note.AttributeList().Attributes() {
		fmt.Println(attr)
	}
	// Output:
	// (to,from,body)
	// priority (low|high) "low"
}
