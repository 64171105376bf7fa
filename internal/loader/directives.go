package loader

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	dtderrors "github.com/jacoelho/dtdmodel/errors"
	"github.com/jacoelho/dtdmodel/internal/treewalk"
	"github.com/jacoelho/dtdmodel/internal/xmltree"
)

// SchemaNamespace is the namespace of import and include elements.
const SchemaNamespace = "http://www.w3.org/2001/XMLSchema"

const (
	attrSchemaLocation = "schemaLocation"
	attrNamespace      = "namespace"
)

var errMissingLocation = errors.New("missing schemaLocation attribute")

// ParseFunc reads a referenced document into a tree.
type ParseFunc func(r io.Reader, systemID string) (*xmltree.Document, error)

// Config configures a Loader. Zero fields take defaults.
type Config struct {
	Resolver  Resolver
	Ledger    *Ledger
	Parse     ParseFunc
	Logger    *slog.Logger
	Namespace string
}

// Loader splices import and include references into a schema tree until
// none remain.
type Loader struct {
	resolver  Resolver
	ledger    *Ledger
	parse     ParseFunc
	logger    *slog.Logger
	namespace string
}

// New returns a Loader for one run.
func New(cfg Config) *Loader {
	l := &Loader{
		resolver:  cfg.Resolver,
		ledger:    cfg.Ledger,
		parse:     cfg.Parse,
		logger:    cfg.Logger,
		namespace: cfg.Namespace,
	}
	if l.ledger == nil {
		l.ledger = NewLedger()
	}
	if l.parse == nil {
		l.parse = xmltree.Parse
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	l.logger = l.logger.With("system", "loader")
	if l.namespace == "" {
		l.namespace = SchemaNamespace
	}
	return l
}

// Ledger returns the run ledger.
func (l *Loader) Ledger() *Ledger {
	return l.ledger
}

// ResolveDirectives alternates an import walk and an include walk over doc
// until no import or include element is left.
func (l *Loader) ResolveDirectives(doc *xmltree.Document) error {
	rounds, err := treewalk.Fixpoint(doc, l.Pending, l.ImportOperation(), l.IncludeOperation())
	if err != nil {
		if _, ok := dtderrors.AsError(err); ok {
			return err
		}
		return dtderrors.SchemaProcessing(err, "resolve import/include")
	}
	l.logger.Debug("references resolved", "rounds", rounds, "imports", len(l.ledger.Keys(ResolveImport)), "includes", len(l.ledger.Keys(ResolveInclude)))
	return nil
}

// Pending reports whether doc still holds an import or include element.
func (l *Loader) Pending(doc *xmltree.Document) bool {
	return doc.Any(doc.Root(), func(id xmltree.NodeID) bool {
		return doc.Is(id, l.namespace, "import") || doc.Is(id, l.namespace, "include")
	})
}

// ImportOperation returns the operation splicing import elements.
func (l *Loader) ImportOperation() treewalk.Operation {
	return directive{loader: l, kind: ResolveImport, local: "import"}
}

// IncludeOperation returns the operation splicing include elements.
func (l *Loader) IncludeOperation() treewalk.Operation {
	return directive{loader: l, kind: ResolveInclude, local: "include"}
}

type directive struct {
	loader *Loader
	local  string
	kind   ResolveKind
}

func (d directive) Applies(doc *xmltree.Document, id xmltree.NodeID) bool {
	return doc.Is(id, d.loader.namespace, d.local)
}

func (d directive) Apply(doc *xmltree.Document, id xmltree.NodeID) error {
	return d.loader.splice(doc, id, d.kind)
}

func (l *Loader) splice(doc *xmltree.Document, id xmltree.NodeID, kind ResolveKind) error {
	base := doc.SystemID(id)
	parent := doc.Parent(id)
	if parent == xmltree.InvalidNode {
		return dtderrors.SchemaProcessing(fmt.Errorf("%s is the document element", kind), "resolve %s in %s", kind, displayID(base))
	}
	k := doc.ChildIndex(parent, id)

	location := doc.GetAttribute(id, attrSchemaLocation)
	namespace := ""
	if kind == ResolveImport {
		namespace = doc.GetAttribute(id, attrNamespace)
	}
	if location == "" {
		if kind == ResolveImport {
			l.logger.Debug("dropping import without location", "namespace", namespace, "in", displayID(base))
			return doc.RemoveChild(parent, k)
		}
		return dtderrors.SchemaProcessing(errMissingLocation, "resolve include in %s", displayID(base))
	}

	systemID, err := Locate(l.resolver, ResolveRequest{BaseSystemID: base, SchemaLocation: location, Namespace: namespace, Kind: kind})
	if err != nil {
		return dtderrors.SchemaProcessing(err, "resolve %s %q in %s", kind, location, displayID(base))
	}
	key := LedgerKey{SystemID: systemID, Namespace: namespace}
	if l.ledger.Processed(kind, key) {
		l.logger.Debug("dropping resolved reference", "kind", kind.String(), "systemID", systemID, "in", displayID(base))
		return doc.RemoveChild(parent, k)
	}

	if l.resolver == nil {
		return dtderrors.SchemaProcessing(fmt.Errorf("no resolver configured"), "resolve %s %q", kind, location)
	}
	rc, resolvedID, err := l.resolver.Resolve(ResolveRequest{
		BaseSystemID:   base,
		SchemaLocation: location,
		Namespace:      namespace,
		Kind:           kind,
	})
	if err != nil {
		return dtderrors.SchemaProcessing(err, "resolve %s %q in %s", kind, location, displayID(base))
	}
	sub, err := l.parseDocument(rc, resolvedID)
	if err != nil {
		return dtderrors.SchemaProcessing(err, "load %s %q in %s", kind, location, displayID(base))
	}

	grafted := doc.Graft(sub, sub.Root())
	if doc.SystemID(grafted) == "" {
		doc.SetSystemID(grafted, resolvedID)
	}
	// Includes take the namespace tag of the document that included them.
	tag := namespace
	if tag == "" {
		tag = doc.Tag(id)
	}
	if tag != "" {
		doc.TagSubtree(grafted, tag)
	}
	if err := doc.ReplaceChild(parent, k, grafted); err != nil {
		return dtderrors.SchemaProcessing(err, "splice %s %q", kind, location)
	}
	l.ledger.Mark(kind, key)
	l.logger.Debug("spliced reference", "kind", kind.String(), "location", location, "systemID", resolvedID, "namespace", namespace)
	return nil
}

func (l *Loader) parseDocument(rc io.ReadCloser, systemID string) (*xmltree.Document, error) {
	if rc == nil {
		return nil, fmt.Errorf("nil schema reader for %s", systemID)
	}
	defer func() {
		if err := closeDocument(rc, systemID); err != nil {
			l.logger.Warn("ignoring close failure", "err", err)
		}
	}()
	return l.parse(rc, systemID)
}

func displayID(systemID string) string {
	if systemID == "" {
		return "<input>"
	}
	return systemID
}
