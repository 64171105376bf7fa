package dtdmodel_test

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacoelho/dtdmodel"
	dtderrors "github.com/jacoelho/dtdmodel/errors"
)

const commonXSD = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:common">
  <xs:element name="shared" type="xs:string"/>
</xs:schema>`

const mainXSD = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:main">
  <xs:import namespace="urn:common" schemaLocation="common/common.xsd"/>
  <xs:element name="root" type="xs:string"/>
</xs:schema>`

func TestModules(t *testing.T) {
	modules := dtdmodel.Modules()
	assert.Subset(t, modules, []string{"dtd", "xsd"})
	assert.IsNonDecreasing(t, modules)

	_, err := dtdmodel.LookupModule("relaxng")
	require.Error(t, err)
	assert.True(t, dtderrors.IsKind(err, dtderrors.KindInput))
	assert.Contains(t, err.Error(), "available: [dtd")
}

type stubModule struct{}

func (m stubModule) Parse(r io.Reader, _ string) (*dtdmodel.DocumentType, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var decls strings.Builder
	for _, name := range strings.Fields(string(data)) {
		decls.WriteString("<!ELEMENT " + name + " EMPTY>")
	}
	return dtdmodel.Parse("dtd", strings.NewReader(decls.String()), "")
}

func TestRegisterModule(t *testing.T) {
	require.NoError(t, dtdmodel.RegisterModule("words", func(dtdmodel.Options) dtdmodel.Module {
		return stubModule{}
	}))
	assert.Contains(t, dtdmodel.Modules(), "words")

	dt, err := dtdmodel.Parse("words", strings.NewReader("a b"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, dt.ElementNames())

	fsys := fstest.MapFS{"words.txt": {Data: []byte("c")}}
	dt, err = dtdmodel.ParseFS("words", fsys, "words.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, dt.ElementNames())

	path := filepath.Join(writeTree(t, map[string]string{"words.txt": "d e"}), "words.txt")
	dt, err = dtdmodel.ParseFile("words", path)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "e"}, dt.ElementNames())

	tests := []struct {
		name    string
		module  string
		factory dtdmodel.ModuleFactory
	}{
		{"duplicate", "xsd", func(dtdmodel.Options) dtdmodel.Module { return stubModule{} }},
		{"empty name", "", func(dtdmodel.Options) dtdmodel.Module { return stubModule{} }},
		{"nil factory", "nothing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := dtdmodel.RegisterModule(tt.module, tt.factory)
			require.Error(t, err)
			assert.True(t, dtderrors.IsKind(err, dtderrors.KindInput))
		})
	}
}

func TestParseFSResolvesRelativeImports(t *testing.T) {
	fsys := fstest.MapFS{
		"schemas/main.xsd":          {Data: []byte(mainXSD)},
		"schemas/common/common.xsd": {Data: []byte(commonXSD)},
	}
	for _, cacheSize := range []int{0, 4} {
		dt, err := dtdmodel.ParseFSWithOptions("xsd", fsys, "schemas/main.xsd", dtdmodel.Options{CacheSize: cacheSize})
		require.NoError(t, err)
		assert.Equal(t, []string{"root", "shared"}, dt.ElementNames())
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "common"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.xsd"), []byte(mainXSD), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "common", "common.xsd"), []byte(commonXSD), 0o644))

	dt, err := dtdmodel.ParseFile("xsd", filepath.Join(dir, "main.xsd"))
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "shared"}, dt.ElementNames())

	_, err = dtdmodel.ParseFile("xsd", filepath.Join(dir, "missing.xsd"))
	require.Error(t, err)
	assert.True(t, dtderrors.IsKind(err, dtderrors.KindParse))
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(data), 0o644))
	}
	return dir
}

func TestParseFileReferencesAboveItsDirectory(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main/a.xsd": `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:include schemaLocation="../common/b.xsd"/>
  <xs:element name="a" type="xs:string"/>
</xs:schema>`,
		"common/b.xsd": `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="b" type="xs:string"/>
</xs:schema>`,
		"main/doc.dtd": `<!ENTITY % inline SYSTEM "../common/inline.ent">
%inline;
<!ELEMENT p (#PCDATA|em)*>`,
		"common/inline.ent": `<!ELEMENT em (#PCDATA)>`,
	})

	tests := []struct {
		name   string
		module string
		file   string
		want   []string
	}{
		{"xsd include", "xsd", "main/a.xsd", []string{"a", "b"}},
		{"dtd external entity", "dtd", "main/doc.dtd", []string{"em", "p"}},
	}
	for _, tt := range tests {
		for _, cacheSize := range []int{0, 4} {
			t.Run(tt.name, func(t *testing.T) {
				path := filepath.Join(dir, filepath.FromSlash(tt.file))
				dt, err := dtdmodel.ParseFileWithOptions(tt.module, path, dtdmodel.Options{CacheSize: cacheSize})
				require.NoError(t, err)
				assert.Equal(t, tt.want, dt.ElementNames())
			})
		}
	}

	t.Run("stream with base dir", func(t *testing.T) {
		text := `<!ENTITY % inline SYSTEM "../common/inline.ent">%inline;`
		dt, err := dtdmodel.Parse("dtd", strings.NewReader(text), filepath.Join(dir, "main"))
		require.NoError(t, err)
		assert.Equal(t, []string{"em"}, dt.ElementNames())
	})

	t.Run("fs stays inside its root", func(t *testing.T) {
		_, err := dtdmodel.ParseFS("xsd", os.DirFS(filepath.Join(dir, "main")), "a.xsd")
		require.Error(t, err)
		assert.True(t, dtderrors.IsKind(err, dtderrors.KindSchemaProcessing))
		assert.Contains(t, err.Error(), "outside the filesystem root")
	})
}

func TestParseStreamWithBaseDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inline.ent"), []byte(`<!ELEMENT em (#PCDATA)>`), 0o644))

	text := `<!ENTITY % inline SYSTEM "inline.ent">
%inline;
<!ELEMENT p (#PCDATA|em)*>`

	dt, err := dtdmodel.Parse("dtd", strings.NewReader(text), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"em", "p"}, dt.ElementNames())

	_, err = dtdmodel.Parse("dtd", strings.NewReader(text), "")
	require.Error(t, err)
	assert.True(t, dtderrors.IsKind(err, dtderrors.KindSchemaProcessing))
}

func TestParseInputErrors(t *testing.T) {
	_, err := dtdmodel.Parse("xsd", nil, "")
	assert.True(t, dtderrors.IsKind(err, dtderrors.KindInput))

	_, err = dtdmodel.ParseFS("dtd", nil, "a.dtd")
	assert.True(t, dtderrors.IsKind(err, dtderrors.KindInput))

	_, err = dtdmodel.Parse("unknown", strings.NewReader(""), "")
	assert.True(t, dtderrors.IsKind(err, dtderrors.KindInput))

	_, err = dtdmodel.Parse("xsd", strings.NewReader("<notxml"), "")
	assert.True(t, dtderrors.IsKind(err, dtderrors.KindParse))
}

func TestParseWithCustomResolver(t *testing.T) {
	resolver := dtdmodel.NewFSResolver(fstest.MapFS{
		"common/common.xsd": {Data: []byte(commonXSD)},
	})
	dt, err := dtdmodel.ParseWithOptions("xsd", strings.NewReader(mainXSD), "", dtdmodel.Options{Resolver: resolver})
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "shared"}, dt.ElementNames())
}
