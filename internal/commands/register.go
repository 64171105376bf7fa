// Package commands contains all CLI command definitions.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates and returns the root command for the CLI. getenv
// supplies the DTDGEN_* environment defaults.
func NewRootCmd(getenv func(string) string) *cobra.Command {
	s := &session{getenv: getenv}
	rootCmd := &cobra.Command{
		Use:   "dtdgen",
		Short: "Convert DTD and XSD vocabularies into document type models",
		Long: `dtdgen reads DTD and XML Schema documents, resolves their includes, imports
and external entities, and prints the normalized document type or generates
Go decoding code from it.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  s.load,
		PersistentPostRunE: s.finish,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&s.configPath, "config", "", "config file (default ./dtdgen.yaml when present)")
	flags.StringVar(&s.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&s.logFormat, "log-format", "", "log format: text or json")
	flags.StringVar(&s.cpuProfile, "cpuprofile", "", "write CPU profile to file")
	flags.StringVar(&s.memProfile, "memprofile", "", "write memory profile to file")

	registerInitCmd(rootCmd, s)
	registerModulesCmd(rootCmd)
	registerParseCmd(rootCmd, s)
	registerGenerateCmd(rootCmd, s)

	return rootCmd
}

func registerModulesCmd(parent *cobra.Command) {
	parent.AddCommand(newModulesCmd())
}

func registerInitCmd(parent *cobra.Command, s *session) {
	parent.AddCommand(newInitCmd(s))
}

func registerParseCmd(parent *cobra.Command, s *session) {
	parent.AddCommand(newParseCmd(s))
}

func registerGenerateCmd(parent *cobra.Command, s *session) {
	parent.AddCommand(newGenerateCmd(s))
}
