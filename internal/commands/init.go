package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacoelho/dtdmodel/internal/config"
)

func newInitCmd(s *session) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a dtdgen.yaml with default values to the working directory,
or to the path given by --config.`,
		Example: `  # Create dtdgen.yaml
  dtdgen init

  # Overwrite an existing file
  dtdgen init --force`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationConfig: configOptional},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := firstNonEmpty(s.configPath, s.env("DTDGEN_CONFIG"), config.DefaultFileName)
			return runInit(cmd, s, path, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func runInit(cmd *cobra.Command, s *session, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := config.Default().Save(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	s.logger.Debug("config written", "path", path)
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return err
}
