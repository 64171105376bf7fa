package dtdmodel

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/samber/lo"

	dtderrors "github.com/jacoelho/dtdmodel/errors"
	"github.com/jacoelho/dtdmodel/internal/dtd"
	"github.com/jacoelho/dtdmodel/internal/loader"
	"github.com/jacoelho/dtdmodel/internal/xsd"
)

// Module turns one vocabulary format into a DocumentType. baseDir is the
// directory relative references are resolved against; empty disables
// resolution unless Options.Resolver is set.
type Module interface {
	Parse(r io.Reader, baseDir string) (*DocumentType, error)
}

// FSModule is a Module that can read its root document from a filesystem,
// keeping its location as the base for relative references.
type FSModule interface {
	Module
	ParseFS(fsys fs.FS, location string) (*DocumentType, error)
}

// FileModule is a Module that can read its root document from a file path.
// Relative references resolve against the file's directory and may climb
// above it.
type FileModule interface {
	Module
	ParseFile(path string) (*DocumentType, error)
}

// ModuleFactory builds a Module for one run.
type ModuleFactory func(opts Options) Module

var registry = struct {
	factories map[string]ModuleFactory
	mu        sync.RWMutex
}{
	factories: map[string]ModuleFactory{
		"dtd": newDTDModule,
		"xsd": newXSDModule,
	},
}

// RegisterModule adds a module under name. Names are unique.
func RegisterModule(name string, factory ModuleFactory) error {
	if name == "" {
		return dtderrors.Input("module name is empty")
	}
	if factory == nil {
		return dtderrors.Input("module %q: nil factory", name)
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, exists := registry.factories[name]; exists {
		return dtderrors.Input("module %q already registered", name)
	}
	registry.factories[name] = factory
	return nil
}

// LookupModule returns the factory registered under name.
func LookupModule(name string) (ModuleFactory, error) {
	registry.mu.RLock()
	factory, ok := registry.factories[name]
	registry.mu.RUnlock()
	if !ok {
		return nil, dtderrors.Input("unknown module %q, available: %v", name, Modules())
	}
	return factory, nil
}

// Modules returns the registered module names in order.
func Modules() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	names := lo.Keys(registry.factories)
	slices.Sort(names)
	return names
}

// New returns a module instance configured with opts.
func New(name string, opts Options) (Module, error) {
	factory, err := LookupModule(name)
	if err != nil {
		return nil, err
	}
	return factory(opts), nil
}

type parseFunc func(r io.Reader, systemID string, resolver loader.Resolver, opts Options) (*DocumentType, error)

// module adapts a parse function to Module, FSModule and FileModule.
type module struct {
	parse parseFunc
	opts  Options
}

func newXSDModule(opts Options) Module {
	return &module{opts: opts, parse: parseXSD}
}

func newDTDModule(opts Options) Module {
	return &module{opts: opts, parse: parseDTD}
}

func parseXSD(r io.Reader, systemID string, resolver loader.Resolver, opts Options) (*DocumentType, error) {
	session := xsd.NewSession(xsd.Options{Resolver: resolver, Logger: opts.logger()})
	return session.Parse(r, systemID)
}

func parseDTD(r io.Reader, systemID string, resolver loader.Resolver, opts Options) (*DocumentType, error) {
	return dtd.Parse(r, systemID, dtd.Options{
		Resolver:              resolver,
		Logger:                opts.logger(),
		KeepParameterEntities: opts.KeepParameterEntities,
	})
}

func (m *module) Parse(r io.Reader, baseDir string) (*DocumentType, error) {
	if r == nil {
		return nil, dtderrors.Input("nil reader")
	}
	var base loader.Resolver
	if baseDir != "" {
		osResolver, err := loader.NewOSResolver(baseDir)
		if err != nil {
			return nil, dtderrors.Input("%v", err)
		}
		base = osResolver
	}
	resolver, err := m.opts.resolverFor(base)
	if err != nil {
		return nil, err
	}
	return m.parse(r, "", resolver, m.opts)
}

func (m *module) ParseFile(path string) (*DocumentType, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, dtderrors.Input("%v", err)
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, openError(err, path)
	}
	defer m.closeInput(f, path)

	osResolver, err := loader.NewOSResolver(filepath.Dir(abs))
	if err != nil {
		return nil, dtderrors.Input("%v", err)
	}
	resolver, err := m.opts.resolverFor(osResolver)
	if err != nil {
		return nil, err
	}
	return m.parse(f, filepath.ToSlash(abs), resolver, m.opts)
}

func (m *module) ParseFS(fsys fs.FS, location string) (*DocumentType, error) {
	if fsys == nil {
		return nil, dtderrors.Input("nil filesystem")
	}
	f, err := fsys.Open(location)
	if err != nil {
		return nil, openError(err, location)
	}
	defer m.closeInput(f, location)

	resolver, err := m.opts.resolverFor(loader.NewFSResolver(fsys))
	if err != nil {
		return nil, err
	}
	return m.parse(f, location, resolver, m.opts)
}

func (m *module) closeInput(f io.Closer, source string) {
	if err := f.Close(); err != nil {
		m.opts.logger().Warn("close input", "source", source, "error", err)
	}
}

func openError(err error, source string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return dtderrors.Parse(err, "no such file").WithSource(source)
	}
	return dtderrors.Parse(err, "open").WithSource(source)
}

// Options configures a module run.
type Options struct {
	Logger *slog.Logger
	// Resolver replaces the filesystem resolver.
	Resolver Resolver
	// CacheSize, when positive, caches resolved documents for the run.
	CacheSize int
	// KeepParameterEntities emits DTD parameter entity declarations.
	KeepParameterEntities bool
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// resolverFor picks the configured resolver over base and applies the
// cache.
func (o Options) resolverFor(base loader.Resolver) (loader.Resolver, error) {
	resolver := o.Resolver
	if resolver == nil {
		resolver = base
	}
	if resolver == nil || o.CacheSize <= 0 {
		return resolver, nil
	}
	cached, err := loader.NewCachingResolver(resolver, o.CacheSize)
	if err != nil {
		return nil, dtderrors.Input("%v", err)
	}
	return cached, nil
}
