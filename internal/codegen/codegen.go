// Package codegen emits Go decoding code for a DocumentType: one source
// unit per element plus doc.go and handler.go support units.
package codegen

import (
	"embed"
	"fmt"
	"go/format"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/flosch/pongo2/v6"
	"github.com/samber/lo"

	"github.com/jacoelho/dtdmodel/internal/contentmodel"
	"github.com/jacoelho/dtdmodel/internal/doctype"
)

//go:embed templates/*.tpl
var templateFS embed.FS

// File is one generated source unit.
type File struct {
	Name    string
	Content []byte
}

// Config configures a Generator.
type Config struct {
	// Package is the Go package name of the generated code.
	Package string
	Logger  *slog.Logger
}

// Generator renders templates over a DocumentType.
type Generator struct {
	doc     *pongo2.Template
	element *pongo2.Template
	handler *pongo2.Template
	logger  *slog.Logger
	pkg     string
}

// New compiles the templates for the configured package.
func New(cfg Config) (*Generator, error) {
	if !token.IsIdentifier(cfg.Package) || cfg.Package == "_" {
		return nil, fmt.Errorf("invalid package name %q", cfg.Package)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{pkg: cfg.Package, logger: logger.With("system", "codegen")}
	for name, dst := range map[string]**pongo2.Template{
		"doc.go.tpl":     &g.doc,
		"element.go.tpl": &g.element,
		"handler.go.tpl": &g.handler,
	} {
		tpl, err := loadTemplate(name)
		if err != nil {
			return nil, err
		}
		*dst = tpl
	}
	return g, nil
}

func loadTemplate(name string) (*pongo2.Template, error) {
	data, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", name, err)
	}
	tpl, err := pongo2.FromString(string(data))
	if err != nil {
		return nil, fmt.Errorf("compile template %s: %w", name, err)
	}
	return tpl, nil
}

// Generate returns the support units followed by one unit per element in
// name order. Every unit is gofmt-formatted.
func (g *Generator) Generate(dt *doctype.DocumentType) ([]File, error) {
	if dt == nil {
		return nil, fmt.Errorf("generate: nil document type")
	}
	views := newNamer().elements(dt)

	ctx := pongo2.Context{
		"pkg":      g.pkg,
		"elements": views,
		"entities": entityViews(dt),
	}
	var files []File
	for _, unit := range []struct {
		name string
		tpl  *pongo2.Template
	}{
		{"doc.go", g.doc},
		{"handler.go", g.handler},
	} {
		f, err := g.render(unit.name, unit.tpl, ctx)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	for _, view := range views {
		f, err := g.render(view.File, g.element, pongo2.Context{"pkg": g.pkg, "e": view})
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	g.logger.Debug("generated", "package", g.pkg, "files", len(files))
	return files, nil
}

func (g *Generator) render(name string, tpl *pongo2.Template, ctx pongo2.Context) (File, error) {
	out, err := tpl.Execute(ctx)
	if err != nil {
		return File{}, fmt.Errorf("render %s: %w", name, err)
	}
	src, err := format.Source([]byte(out))
	if err != nil {
		return File{}, fmt.Errorf("format %s: %w", name, err)
	}
	return File{Name: name, Content: src}, nil
}

// WriteFiles writes files into dir, creating it when missing.
func WriteFiles(dir string, files []File) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.Name), f.Content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	return nil
}

type elementView struct {
	Name       string
	Type       string
	Receiver   string
	Content    string
	File       string
	Attributes []attributeView
	Children   []childView
	Mixed      bool
	Any        bool
}

type attributeView struct {
	Name       string
	Field      string
	Decl       string
	Default    string
	Optional   bool
	HasDefault bool
}

type childView struct {
	Name   string
	Field  string
	GoType string
}

type entityView struct {
	Name  string
	Value string
}

func entityViews(dt *doctype.DocumentType) []entityView {
	var views []entityView
	for _, name := range sortedKeys(dt.Entities()) {
		entity := dt.Entities()[name]
		value, ok := entity.Value()
		if !ok || entity.IsParameter() {
			continue
		}
		views = append(views, entityView{Name: name, Value: strconv.Quote(value)})
	}
	return views
}

// reserved are identifiers declared by the support units.
var reserved = map[string]bool{
	"Raw": true, "Handler": true, "Decode": true, "Elements": true, "Entities": true,
}

// namer assigns distinct Go identifiers and file names.
type namer struct {
	types map[string]string
	used  map[string]bool
	files map[string]bool
}

func newNamer() *namer {
	return &namer{types: make(map[string]string), used: make(map[string]bool), files: make(map[string]bool)}
}

func (n *namer) elements(dt *doctype.DocumentType) []elementView {
	names := dt.ElementNames()
	for _, name := range names {
		typ := unique(identifier(name), func(s string) bool { return n.used[s] || reserved[s] })
		n.used[typ] = true
		n.types[name] = typ
	}
	return lo.Map(names, func(name string, _ int) elementView {
		el, _ := dt.Element(name)
		return n.element(el)
	})
}

func (n *namer) element(el *doctype.Element) elementView {
	typ := n.types[el.Name()]
	file := unique(strings.ToLower(typ), func(s string) bool { return n.files[s] })
	n.files[file] = true

	view := elementView{
		Name:     el.Name(),
		Type:     typ,
		Receiver: string(unicode.ToLower([]rune(typ)[0])),
		Content:  el.Content().String(),
		File:     file + "_element.go",
	}
	fields := map[string]bool{"XMLName": true, "ElementName": true}

	switch el.Content().Type() {
	case contentmodel.MixedContent:
		view.Mixed = true
		fields["Text"] = true
	case contentmodel.Any:
		view.Any = true
		fields["Inner"] = true
	}
	if root := el.Content().Node(); root != nil {
		repeated := repetitions(root)
		for _, child := range contentmodel.ElementNames(root) {
			goType, declared := n.types[child]
			if !declared {
				goType = "Raw"
			}
			goType = "*" + goType
			if repeated[child] {
				goType = "[]" + goType
			}
			field := unique(identifier(child), func(s string) bool { return fields[s] })
			fields[field] = true
			view.Children = append(view.Children, childView{Name: child, Field: field, GoType: goType})
		}
	}
	for _, attr := range el.AttributeList().Attributes() {
		field := unique(identifier(attr.Name()), func(s string) bool {
			return fields[s] || fields[s+"OrDefault"]
		})
		fields[field] = true
		def := attr.Default()
		value, hasValue := def.Value()
		if hasValue {
			fields[field+"OrDefault"] = true
		}
		view.Attributes = append(view.Attributes, attributeView{
			Name:       attr.Name(),
			Field:      field,
			Decl:       attr.String(),
			Default:    strconv.Quote(value),
			Optional:   def.Kind() != doctype.DefaultRequired,
			HasDefault: hasValue,
		})
	}
	return view
}

// repetitions reports the element names that may occur more than once
// under root.
func repetitions(root contentmodel.Node) map[string]bool {
	counts := make(map[string]int)
	repeated := make(map[string]bool)
	var visit func(n contentmodel.Node, many bool)
	visit = func(n contentmodel.Node, many bool) {
		if b, ok := n.(contentmodel.Bounded); ok && b.MaxOccurs() > 1 {
			many = true
		}
		switch v := n.(type) {
		case *contentmodel.ElementRef:
			counts[v.Name()]++
			if many || counts[v.Name()] > 1 {
				repeated[v.Name()] = true
			}
		case *contentmodel.Sequence:
			for _, child := range v.Children() {
				visit(child, many)
			}
		case *contentmodel.Alternative:
			for _, child := range v.Children() {
				visit(child, many)
			}
		case *contentmodel.Mixed:
			for _, child := range v.Children() {
				visit(child, true)
			}
		}
	}
	visit(root, false)
	return repeated
}

// identifier converts an XML name into an exported Go identifier.
func identifier(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	id := b.String()
	if id == "" || !unicode.IsUpper([]rune(id)[0]) {
		id = "X" + id
	}
	return id
}

func unique(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for i := 2; ; i++ {
		if candidate := base + strconv.Itoa(i); !taken(candidate) {
			return candidate
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}
