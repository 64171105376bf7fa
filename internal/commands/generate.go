package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jacoelho/dtdmodel/internal/codegen"
)

func newGenerateCmd(s *session) *cobra.Command {
	var module, pkg, output string
	cmd := &cobra.Command{
		Use:   "generate <file>",
		Short: "Generate Go decoding code from a vocabulary",
		Long: `Generate one Go source file per element declared by a DTD or XSD,
plus doc.go and handler.go support files. Package and output directory
default to the generate section of the config file.`,
		Example: `  # Generate package notes into ./notes
  dtdgen generate note.dtd --package notes --output notes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("package") {
				pkg = s.cfg.Generate.Package
			}
			if !cmd.Flags().Changed("output") {
				output = s.cfg.Generate.Output
			}
			return runGenerate(cmd, s, args[0], module, pkg, output)
		},
	}
	cmd.Flags().StringVarP(&module, "module", "m", "", "vocabulary module (default inferred from the file extension)")
	cmd.Flags().StringVarP(&pkg, "package", "p", "", "Go package name of the generated code")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory")
	return cmd
}

func runGenerate(cmd *cobra.Command, s *session, path, module, pkg, output string) error {
	gen, err := codegen.New(codegen.Config{Package: pkg, Logger: s.logger})
	if err != nil {
		return err
	}
	dt, err := s.parse(cmd.InOrStdin(), path, module)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	files, err := gen.Generate(dt)
	if err != nil {
		return err
	}
	if err := codegen.WriteFiles(output, files); err != nil {
		return err
	}
	s.logger.Info("generated", "source", path, "package", pkg, "output", output, "files", len(files))
	for _, f := range files {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(output, f.Name)); err != nil {
			return err
		}
	}
	return nil
}
