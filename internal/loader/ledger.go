package loader

import (
	"cmp"
	"slices"
)

// LedgerKey is the canonical identity of a resolved reference.
type LedgerKey struct {
	SystemID  string
	Namespace string
}

func (k LedgerKey) compare(o LedgerKey) int {
	if c := cmp.Compare(k.SystemID, o.SystemID); c != 0 {
		return c
	}
	return cmp.Compare(k.Namespace, o.Namespace)
}

// Ledger records which import and include references a run has already
// spliced. It belongs to a single run and is not safe for concurrent use.
type Ledger struct {
	imports  map[LedgerKey]struct{}
	includes map[LedgerKey]struct{}
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		imports:  make(map[LedgerKey]struct{}),
		includes: make(map[LedgerKey]struct{}),
	}
}

func (l *Ledger) set(kind ResolveKind) map[LedgerKey]struct{} {
	if kind == ResolveImport {
		return l.imports
	}
	return l.includes
}

// Processed reports whether key was already resolved for kind.
func (l *Ledger) Processed(kind ResolveKind, key LedgerKey) bool {
	_, ok := l.set(kind)[key]
	return ok
}

// Mark records key as resolved for kind.
func (l *Ledger) Mark(kind ResolveKind, key LedgerKey) {
	l.set(kind)[key] = struct{}{}
}

// Keys returns the resolved keys for kind, sorted.
func (l *Ledger) Keys(kind ResolveKind) []LedgerKey {
	set := l.set(kind)
	keys := make([]LedgerKey, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, LedgerKey.compare)
	return keys
}

// Len returns the total number of resolved references.
func (l *Ledger) Len() int {
	return len(l.imports) + len(l.includes)
}

// Reset forgets every resolved reference.
func (l *Ledger) Reset() {
	clear(l.imports)
	clear(l.includes)
}
