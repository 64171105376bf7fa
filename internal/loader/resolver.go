package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ResolveKind tells a Resolver why a document is wanted.
type ResolveKind uint8

const (
	ResolveInclude ResolveKind = iota
	ResolveImport
	// ResolveEntity locates an external DTD subset or parameter entity.
	ResolveEntity
)

var kindNames = [...]string{
	ResolveInclude: "include",
	ResolveImport:  "import",
	ResolveEntity:  "entity",
}

func (k ResolveKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ResolveRequest names a referenced document by its location, as written,
// and the system ID of the document holding the reference.
type ResolveRequest struct {
	BaseSystemID   string
	SchemaLocation string
	Namespace      string
	Kind           ResolveKind
}

// Resolver opens referenced documents. The returned system ID is the
// canonical name of the document and becomes the base for references
// made from it.
type Resolver interface {
	Resolve(req ResolveRequest) (doc io.ReadCloser, systemID string, err error)
}

// Locator is implemented by resolvers that can name the document a request
// refers to without opening it.
type Locator interface {
	Locate(req ResolveRequest) (string, error)
}

// Locate returns the system ID req refers to under r. Resolvers that are
// not Locators get JoinLocation.
func Locate(r Resolver, req ResolveRequest) (string, error) {
	if l, ok := r.(Locator); ok {
		return l.Locate(req)
	}
	return JoinLocation(req.BaseSystemID, req.SchemaLocation)
}

var errEmptyLocation = errors.New("schema location is empty")

// checkLocation rejects locations no resolver can serve.
func checkLocation(location string) error {
	switch {
	case location == "":
		return errEmptyLocation
	case strings.Contains(location, `\`):
		return fmt.Errorf("schema location contains backslash: %q", location)
	case hasScheme(location):
		return fmt.Errorf("schema location %q: only file paths are supported", location)
	}
	return nil
}

func hasScheme(location string) bool {
	i := strings.Index(location, "://")
	return i > 0 && !strings.ContainsAny(location[:i], "/.")
}

// JoinLocation resolves location against the directory of base using
// slash-separated paths. Parent segments may climb above the base.
func JoinLocation(base, location string) (string, error) {
	if err := checkLocation(location); err != nil {
		return "", err
	}
	joined := location
	if !path.IsAbs(location) {
		dir, _ := path.Split(base)
		joined = dir + location
	}
	joined = path.Clean(joined)
	if joined == "." || joined == "/" {
		return "", errEmptyLocation
	}
	return joined, nil
}

// FSResolver reads documents from an fs.FS. System IDs are fs paths, so a
// location that leaves the filesystem root cannot be served.
type FSResolver struct {
	fsys fs.FS
}

// NewFSResolver returns a resolver reading from fsys.
func NewFSResolver(fsys fs.FS) *FSResolver {
	return &FSResolver{fsys: fsys}
}

// Locate implements Locator.
func (r *FSResolver) Locate(req ResolveRequest) (string, error) {
	if path.IsAbs(req.SchemaLocation) {
		return "", fmt.Errorf("schema location must be relative: %q", req.SchemaLocation)
	}
	name, err := JoinLocation(req.BaseSystemID, req.SchemaLocation)
	if err != nil {
		return "", err
	}
	if !fs.ValidPath(name) {
		return "", fmt.Errorf("schema location %q resolves outside the filesystem root", req.SchemaLocation)
	}
	return name, nil
}

// Resolve implements Resolver.
func (r *FSResolver) Resolve(req ResolveRequest) (io.ReadCloser, string, error) {
	if r == nil || r.fsys == nil {
		return nil, "", errors.New("no filesystem configured")
	}
	if req.SchemaLocation == "" {
		return nil, "", fs.ErrNotExist
	}
	name, err := r.Locate(req)
	if err != nil {
		return nil, "", err
	}
	f, err := r.fsys.Open(name)
	if err != nil {
		return nil, "", err
	}
	return f, name, nil
}

// OSResolver reads documents from the operating system's filesystem.
// Locations resolve against the directory of the referencing document, or
// against the resolver's directory when the reference has no system ID.
// System IDs are absolute, slash-separated paths.
type OSResolver struct {
	dir string
}

// NewOSResolver returns a resolver whose relative bases start at dir.
func NewOSResolver(dir string) (*OSResolver, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolver directory %q: %w", dir, err)
	}
	return &OSResolver{dir: abs}, nil
}

// Locate implements Locator.
func (r *OSResolver) Locate(req ResolveRequest) (string, error) {
	if err := checkLocation(req.SchemaLocation); err != nil {
		return "", err
	}
	name := filepath.FromSlash(req.SchemaLocation)
	if !filepath.IsAbs(name) {
		name = filepath.Join(r.baseDir(req.BaseSystemID), name)
	}
	return filepath.ToSlash(filepath.Clean(name)), nil
}

func (r *OSResolver) baseDir(base string) string {
	if base == "" {
		return r.dir
	}
	base = filepath.FromSlash(base)
	if !filepath.IsAbs(base) {
		base = filepath.Join(r.dir, base)
	}
	return filepath.Dir(base)
}

// Resolve implements Resolver.
func (r *OSResolver) Resolve(req ResolveRequest) (io.ReadCloser, string, error) {
	if req.SchemaLocation == "" {
		return nil, "", fs.ErrNotExist
	}
	name, err := r.Locate(req)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(filepath.FromSlash(name))
	if err != nil {
		return nil, "", err
	}
	return f, name, nil
}
