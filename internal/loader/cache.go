package loader

import (
	"bytes"
	"fmt"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of documents a CachingResolver keeps.
const DefaultCacheSize = 128

type cachedDocument struct {
	systemID string
	data     []byte
}

// CachingResolver keeps the bytes of recently resolved documents, keyed by
// canonical system ID, so a document referenced from several places is read
// once. It is safe for concurrent use.
type CachingResolver struct {
	next  Resolver
	cache *lru.Cache[string, cachedDocument]
}

// NewCachingResolver wraps next with an LRU of the given size.
func NewCachingResolver(next Resolver, size int) (*CachingResolver, error) {
	if next == nil {
		return nil, fmt.Errorf("caching resolver: nil resolver")
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, cachedDocument](size)
	if err != nil {
		return nil, fmt.Errorf("caching resolver: %w", err)
	}
	return &CachingResolver{next: next, cache: cache}, nil
}

// Locate implements Locator by asking the wrapped resolver.
func (r *CachingResolver) Locate(req ResolveRequest) (string, error) {
	return Locate(r.next, req)
}

// Resolve implements Resolver.
func (r *CachingResolver) Resolve(req ResolveRequest) (io.ReadCloser, string, error) {
	key, err := r.Locate(req)
	if err != nil {
		return r.next.Resolve(req)
	}
	if doc, ok := r.cache.Get(key); ok {
		return io.NopCloser(bytes.NewReader(doc.data)), doc.systemID, nil
	}

	rc, systemID, err := r.next.Resolve(req)
	if err != nil {
		return nil, "", err
	}
	data, err := readAndClose(rc, systemID)
	if err != nil {
		return nil, "", err
	}
	r.cache.Add(key, cachedDocument{systemID: systemID, data: data})
	return io.NopCloser(bytes.NewReader(data)), systemID, nil
}

// Len returns the number of cached documents.
func (r *CachingResolver) Len() int {
	return r.cache.Len()
}

// Purge drops every cached document.
func (r *CachingResolver) Purge() {
	r.cache.Purge()
}

func readAndClose(rc io.ReadCloser, systemID string) ([]byte, error) {
	defer func() { _ = closeDocument(rc, systemID) }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", systemID, err)
	}
	return data, nil
}

func closeDocument(doc io.Closer, systemID string) error {
	if err := doc.Close(); err != nil {
		return fmt.Errorf("close %s: %w", systemID, err)
	}
	return nil
}
