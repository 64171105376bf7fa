// Package dtdmodel converts XML vocabularies, written as XML Schema or as a
// DTD, into one normalized document-type model: elements with their
// content models, attribute lists, entities, and notations.
//
// A run is selected by module name ("xsd" or "dtd") and holds all of its
// state, so unrelated inputs may be converted concurrently.
package dtdmodel

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	dtderrors "github.com/jacoelho/dtdmodel/errors"
	"github.com/jacoelho/dtdmodel/internal/doctype"
)

// DocumentType is the assembled model.
type DocumentType = doctype.DocumentType

// Element, AttributeList, Entity, and Notation are the declarations held
// by a DocumentType.
type (
	Element       = doctype.Element
	AttributeList = doctype.AttributeList
	Entity        = doctype.Entity
	Notation      = doctype.Notation
)

// Parse converts the document read from r with the named module.
func Parse(module string, r io.Reader, baseDir string) (*DocumentType, error) {
	return ParseWithOptions(module, r, baseDir, Options{})
}

// ParseWithOptions converts the document read from r with explicit options.
func ParseWithOptions(module string, r io.Reader, baseDir string, opts Options) (*DocumentType, error) {
	m, err := New(module, opts)
	if err != nil {
		return nil, err
	}
	return m.Parse(r, baseDir)
}

// ParseFS converts the document at location in fsys.
func ParseFS(module string, fsys fs.FS, location string) (*DocumentType, error) {
	return ParseFSWithOptions(module, fsys, location, Options{})
}

// ParseFSWithOptions converts the document at location in fsys with
// explicit options. Modules that cannot read from a filesystem are given
// the opened document and no base directory.
func ParseFSWithOptions(module string, fsys fs.FS, location string, opts Options) (*DocumentType, error) {
	m, err := New(module, opts)
	if err != nil {
		return nil, err
	}
	if fm, ok := m.(FSModule); ok {
		return fm.ParseFS(fsys, location)
	}
	if fsys == nil {
		return nil, dtderrors.Input("nil filesystem")
	}
	f, err := fsys.Open(location)
	if err != nil {
		return nil, dtderrors.Parse(err, "open").WithSource(location)
	}
	defer f.Close()
	return m.Parse(f, "")
}

// ParseFile converts the document at path. References resolve relative to
// the file's directory and may reach outside it.
func ParseFile(module, path string) (*DocumentType, error) {
	return ParseFileWithOptions(module, path, Options{})
}

// ParseFileWithOptions converts the document at path with explicit options.
func ParseFileWithOptions(module, path string, opts Options) (*DocumentType, error) {
	m, err := New(module, opts)
	if err != nil {
		return nil, err
	}
	if fm, ok := m.(FileModule); ok {
		return fm.ParseFile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, openError(err, path)
	}
	defer f.Close()
	return m.Parse(f, filepath.Dir(path))
}
