package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jacoelho/dtdmodel/internal/doctype"
)

const noteDTD = `<!ELEMENT note (to, from, body)>
<!ELEMENT to (#PCDATA)>
<!ELEMENT from (#PCDATA)>
<!ELEMENT body (#PCDATA|em)*>
<!ELEMENT em (#PCDATA)>
<!ATTLIST note priority (low|high) "low">
<!ATTLIST memo id ID #REQUIRED>
<!ENTITY % inline "em">
<!ENTITY copy "&#169; ACME">
<!NOTATION png PUBLIC "image/png">`

const listXSD = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="list" type="xs:string"/>
</xs:schema>`

type result struct {
	stdout string
	stderr string
	err    error
}

// execute runs the root command inside a fresh working directory holding files.
func execute(t *testing.T, env map[string]string, stdin string, files map[string]string, args ...string) result {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	wd, wdErr := os.Getwd()
	require.NoError(t, wdErr)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return executeHere(t, env, stdin, args...)
}

func executeHere(t *testing.T, env map[string]string, stdin string, args ...string) result {
	t.Helper()
	cmd := NewRootCmd(func(key string) string { return env[key] })
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestModulesCmd(t *testing.T) {
	res := execute(t, nil, "", nil, "modules")
	require.NoError(t, res.err)
	assert.Equal(t, "dtd\nxsd\n", res.stdout)
}

func TestParseTree(t *testing.T) {
	res := execute(t, nil, "", map[string]string{"note.dtd": noteDTD}, "parse", "note.dtd")
	require.NoError(t, res.err)

	for _, want := range []string{
		"note.dtd",
		"elements",
		"note (to,from,body)",
		"CHILDREN",
		`priority ENUMERATION (low|high) ATTVALUE "low"`,
		"unlinked attribute lists",
		"memo",
		`copy "© ACME"`,
		"notations",
		`png PUBLIC "image/png"`,
	} {
		assert.Contains(t, res.stdout, want)
	}
	assert.NotContains(t, res.stdout, "%inline")
}

func TestParseJSON(t *testing.T) {
	res := execute(t, nil, "", map[string]string{"note.dtd": noteDTD}, "parse", "--format", "json", "note.dtd")
	require.NoError(t, res.err)

	var view doctype.View
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &view))
	require.Len(t, view.Elements, 5)
	assert.Equal(t, "body", view.Elements[0].Name)
	assert.Equal(t, "MIXED", view.Elements[0].Content)
	require.Len(t, view.Notations, 1)
	assert.Equal(t, "image/png", view.Notations[0].PublicID)
}

func TestParseYAMLKeepsArgumentOrder(t *testing.T) {
	files := map[string]string{"note.dtd": noteDTD, "schemas/list.xsd": listXSD}
	res := execute(t, nil, "", files, "parse", "-f", "yaml", "schemas/list.xsd", "note.dtd")
	require.NoError(t, res.err)

	dec := yaml.NewDecoder(strings.NewReader(res.stdout))
	var first, second doctype.View
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))
	assert.ErrorIs(t, dec.Decode(&doctype.View{}), io.EOF)

	require.Len(t, first.Elements, 1)
	assert.Equal(t, "list", first.Elements[0].Name)
	assert.Len(t, second.Elements, 5)
}

func TestParseStdin(t *testing.T) {
	res := execute(t, nil, noteDTD, nil, "parse", "--module", "dtd", "-")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "note (to,from,body)")
}

func TestParseKeepParameterEntitiesFromConfig(t *testing.T) {
	files := map[string]string{
		"note.dtd":    noteDTD,
		"dtdgen.yaml": "version: 1\nkeepParameterEntities: true\n",
	}
	res := execute(t, nil, "", files, "parse", "note.dtd")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `%inline "em"`)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no files", []string{"parse"}, "requires at least 1 arg"},
		{"unknown format", []string{"parse", "-f", "xml", "note.dtd"}, "unknown format"},
		{"stdin twice", []string{"parse", "-m", "dtd", "-", "-"}, "standard input given 2 times"},
		{"no module", []string{"parse", "notes.txt"}, "cannot infer module"},
		{"unknown module", []string{"parse", "-m", "relaxng", "note.dtd"}, "unknown module"},
		{"missing file", []string{"parse", "missing.dtd"}, "missing.dtd"},
		{"bad declaration", []string{"parse", "bad.dtd"}, "bad.dtd"},
		{"bad log level", []string{"--log-level", "trace", "modules"}, "unknown log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := map[string]string{
				"note.dtd":  noteDTD,
				"notes.txt": noteDTD,
				"bad.dtd":   "<!ELEMENT broken>",
			}
			res := execute(t, nil, "", files, tt.args...)
			require.Error(t, res.err)
			assert.Contains(t, res.err.Error(), tt.wantErr)
		})
	}
}

func TestLoggingFromEnvironment(t *testing.T) {
	env := map[string]string{"DTDGEN_LOG_LEVEL": "debug", "DTDGEN_LOG_FORMAT": "json"}
	res := execute(t, env, "", map[string]string{"note.dtd": noteDTD}, "parse", "note.dtd")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, `"level":"DEBUG"`)
	assert.Contains(t, res.stderr, `"source":"note.dtd"`)

	res = executeHere(t, env, "", "--log-level", "error", "parse", "note.dtd")
	require.NoError(t, res.err)
	assert.Empty(t, res.stderr)
}

func TestGenerate(t *testing.T) {
	res := execute(t, nil, "", map[string]string{"note.dtd": noteDTD},
		"generate", "note.dtd", "--package", "notes", "--output", "out")
	require.NoError(t, res.err)

	assert.Contains(t, res.stdout, filepath.Join("out", "doc.go"))
	assert.Contains(t, res.stdout, filepath.Join("out", "note_element.go"))

	data, err := os.ReadFile(filepath.Join("out", "note_element.go"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "package notes")
	assert.Contains(t, string(data), "type Note struct")
}

func TestGenerateUsesConfigDefaults(t *testing.T) {
	files := map[string]string{
		"list.xsd": listXSD,
		"gen.yaml": "version: 1\ngenerate:\n  package: lists\n  output: generated\n",
	}
	res := execute(t, nil, "", files, "--config", "gen.yaml", "generate", "list.xsd")
	require.NoError(t, res.err)

	data, err := os.ReadFile(filepath.Join("generated", "list_element.go"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "package lists")

	res = executeHere(t, nil, "", "--config", "gen.yaml", "generate", "list.xsd", "-p", "1bad")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "invalid package name")
}

func TestInit(t *testing.T) {
	res := execute(t, nil, "", nil, "init")
	require.NoError(t, res.err)
	assert.Equal(t, "Created dtdgen.yaml\n", res.stdout)
	assert.FileExists(t, "dtdgen.yaml")

	res = executeHere(t, nil, "", "init")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "already exists")

	res = executeHere(t, nil, "", "init", "--force")
	require.NoError(t, res.err)

	res = executeHere(t, map[string]string{"DTDGEN_CONFIG": "custom.yaml"}, "", "init")
	require.NoError(t, res.err)
	assert.FileExists(t, "custom.yaml")
}

func TestProfiles(t *testing.T) {
	res := execute(t, nil, "", map[string]string{"note.dtd": noteDTD},
		"--cpuprofile", "cpu.out", "--memprofile", "mem.out", "parse", "note.dtd")
	require.NoError(t, res.err)
	assert.FileExists(t, "cpu.out")
	assert.FileExists(t, "mem.out")
}
