package commands

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/jacoelho/dtdmodel"
)

const stdinName = "-"

func newParseCmd(s *session) *cobra.Command {
	var module, format string
	cmd := &cobra.Command{
		Use:   "parse [files...]",
		Short: "Print the document type of one or more vocabularies",
		Long: `Parse DTD or XSD files and print the resulting document type.
Files are parsed concurrently and printed in argument order. Use - to read
from standard input; relative references then resolve against the working
directory.`,
		Example: `  # Print a DTD as a tree
  dtdgen parse book.dtd

  # Print two schemas as JSON
  dtdgen parse --format json a.xsd b.xsd

  # Read from standard input
  cat note.dtd | dtdgen parse --module dtd -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.Context(), cmd, s, args, module, format)
		},
	}
	cmd.Flags().StringVarP(&module, "module", "m", "", "vocabulary module (default inferred from the file extension)")
	cmd.Flags().StringVarP(&format, "format", "f", "tree", "output format: tree, json or yaml")
	return cmd
}

func runParse(ctx context.Context, cmd *cobra.Command, s *session, paths []string, module, format string) error {
	p, err := newPrinter(format, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	stdinUses := 0
	for _, path := range paths {
		if path == stdinName {
			stdinUses++
		}
	}
	if stdinUses > 1 {
		return fmt.Errorf("standard input given %d times", stdinUses)
	}

	docs, err := parseAll(ctx, cmd.InOrStdin(), s, paths, module)
	if err != nil {
		return err
	}
	for i, dt := range docs {
		if err := p.print(paths[i], dt); err != nil {
			return err
		}
	}
	return p.flush()
}

// parseAll parses paths concurrently. The first failure cancels the
// remaining work.
func parseAll(ctx context.Context, stdin io.Reader, s *session, paths []string, module string) ([]*dtdmodel.DocumentType, error) {
	docs := make([]*dtdmodel.DocumentType, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dt, err := s.parse(stdin, path, module)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			docs[i] = dt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *session) parse(stdin io.Reader, path, flag string) (*dtdmodel.DocumentType, error) {
	name, err := s.moduleFor(flag, path)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("parsing", "source", path, "module", name)
	if path == stdinName {
		return dtdmodel.ParseWithOptions(name, stdin, ".", s.options())
	}
	return dtdmodel.ParseFileWithOptions(name, path, s.options())
}

// printer writes document types in one output format.
type printer struct {
	print func(source string, dt *dtdmodel.DocumentType) error
	flush func() error
}

func newPrinter(format string, w io.Writer) (printer, error) {
	nop := func() error { return nil }
	switch strings.ToLower(format) {
	case "tree":
		return printer{
			print: func(source string, dt *dtdmodel.DocumentType) error { return writeTree(w, source, dt) },
			flush: nop,
		}, nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return printer{
			print: func(_ string, dt *dtdmodel.DocumentType) error { return enc.Encode(dt.View()) },
			flush: nop,
		}, nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		return printer{
			print: func(_ string, dt *dtdmodel.DocumentType) error { return enc.Encode(dt.View()) },
			flush: enc.Close,
		}, nil
	}
	return printer{}, fmt.Errorf("unknown format %q, want tree, json or yaml", format)
}

func writeTree(w io.Writer, source string, dt *dtdmodel.DocumentType) error {
	view := dt.View()
	tree := treeprint.NewWithRoot(source)

	elements := tree.AddBranch("elements")
	for _, el := range view.Elements {
		label := el.Name
		if el.Model != "" {
			label += " " + el.Model
		}
		branch := elements.AddMetaBranch(el.Content, label)
		for _, attr := range el.Attributes {
			branch.AddMetaNode("attribute", attributeLabel(attr.Name, attr.Type, attr.Values, attr.Default, attr.Value))
		}
	}
	var orphans treeprint.Tree
	for _, list := range view.AttributeLists {
		if list.Linked {
			continue
		}
		if orphans == nil {
			orphans = tree.AddBranch("unlinked attribute lists")
		}
		branch := orphans.AddBranch(list.Name)
		for _, attr := range list.Attributes {
			branch.AddMetaNode("attribute", attributeLabel(attr.Name, attr.Type, attr.Values, attr.Default, attr.Value))
		}
	}
	if len(view.Entities) > 0 {
		entities := tree.AddBranch("entities")
		for _, e := range view.Entities {
			name := e.Name
			if e.Parameter {
				name = "%" + name
			}
			entities.AddMetaNode(e.Kind, entityLabel(name, e.Value, e.PublicID, e.SystemID, e.Notation))
		}
	}
	if len(view.Notations) > 0 {
		notations := tree.AddBranch("notations")
		for _, n := range view.Notations {
			notations.AddNode(entityLabel(n.Name, "", n.PublicID, n.SystemID, ""))
		}
	}
	_, err := io.WriteString(w, tree.String())
	return err
}

func attributeLabel(name, typ string, values []string, def, value string) string {
	label := name + " " + typ
	if len(values) > 0 {
		label += " (" + strings.Join(values, "|") + ")"
	}
	label += " " + def
	if value != "" {
		label += fmt.Sprintf(" %q", value)
	}
	return label
}

func entityLabel(name, value, publicID, systemID, notation string) string {
	label := name
	if value != "" {
		label += fmt.Sprintf(" %q", value)
	}
	if publicID != "" {
		label += fmt.Sprintf(" PUBLIC %q", publicID)
	}
	if systemID != "" {
		label += fmt.Sprintf(" SYSTEM %q", systemID)
	}
	if notation != "" {
		label += " NDATA " + notation
	}
	return label
}
