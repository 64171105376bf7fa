package dtdmodel

import (
	"io/fs"

	dtderrors "github.com/jacoelho/dtdmodel/errors"
	"github.com/jacoelho/dtdmodel/internal/loader"
)

// ResolveKind identifies the kind of resolution request.
type ResolveKind = loader.ResolveKind

const (
	ResolveInclude ResolveKind = loader.ResolveInclude
	ResolveImport  ResolveKind = loader.ResolveImport
	ResolveEntity  ResolveKind = loader.ResolveEntity
)

// ResolveRequest describes a resolution request.
type ResolveRequest = loader.ResolveRequest

// Resolver resolves referenced documents into readers and canonical
// system IDs.
type Resolver = loader.Resolver

// NewFSResolver returns a Resolver reading from fsys. Locations are
// relative to the referencing document and cannot leave the root of fsys.
func NewFSResolver(fsys fs.FS) Resolver {
	return loader.NewFSResolver(fsys)
}

// NewOSResolver returns a Resolver reading files from disk. Locations are
// relative to the referencing document, or to dir for documents without a
// system ID, and may climb above either.
func NewOSResolver(dir string) (Resolver, error) {
	r, err := loader.NewOSResolver(dir)
	if err != nil {
		return nil, dtderrors.Input("%v", err)
	}
	return r, nil
}
