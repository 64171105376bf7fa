package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacoelho/dtdmodel"
	"github.com/jacoelho/dtdmodel/internal/config"
)

const (
	annotationConfig = "config"
	configOptional   = "optional"
)

// session holds the state shared by every command of one invocation.
type session struct {
	getenv     func(string) string
	configPath string
	logLevel   string
	logFormat  string
	cpuProfile string
	memProfile string

	cfg         *config.Config
	logger      *slog.Logger
	stopProfile func() error
}

func (s *session) env(key string) string {
	if s.getenv == nil {
		return ""
	}
	return s.getenv(key)
}

// load resolves the configuration file and builds the logger. Flags take
// precedence over the environment, which takes precedence over the file.
func (s *session) load(cmd *cobra.Command, _ []string) error {
	path := firstNonEmpty(s.configPath, s.env("DTDGEN_CONFIG"))
	cfg, err := config.LoadOrDefault(path)
	if errors.Is(err, fs.ErrNotExist) && cmd.Annotations[annotationConfig] == configOptional {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Log.Level = firstNonEmpty(s.logLevel, s.env("DTDGEN_LOG_LEVEL"), cfg.Log.Level)
	cfg.Log.Format = firstNonEmpty(s.logFormat, s.env("DTDGEN_LOG_FORMAT"), cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return err
	}
	s.cfg = cfg
	s.logger = logger.With("system", "dtdgen")

	stop, err := startProfiles(s.cpuProfile, s.memProfile)
	if err != nil {
		return err
	}
	s.stopProfile = stop
	return nil
}

// finish stops profiling started by load.
func (s *session) finish(_ *cobra.Command, _ []string) error {
	if s.stopProfile == nil {
		return nil
	}
	return s.stopProfile()
}

func (s *session) options() dtdmodel.Options {
	return dtdmodel.Options{
		Logger:                s.logger,
		CacheSize:             s.cfg.CacheSize,
		KeepParameterEntities: s.cfg.KeepParameterEntities,
	}
}

// moduleFor picks the module for path: the flag, then the file extension,
// then the configured default.
func (s *session) moduleFor(flag, path string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dtd", ".ent", ".mod":
		return "dtd", nil
	case ".xsd":
		return "xsd", nil
	}
	if s.cfg.Module != "" {
		return s.cfg.Module, nil
	}
	return "", fmt.Errorf("cannot infer module for %q, use --module", path)
}

func newLogger(w io.Writer, cfg config.Log) (*slog.Logger, error) {
	var hopts slog.HandlerOptions
	switch strings.ToLower(cfg.Level) {
	case "debug":
		hopts.Level = slog.LevelDebug
	case "", "info":
		hopts.Level = slog.LevelInfo
	case "warn":
		hopts.Level = slog.LevelWarn
	case "error":
		hopts.Level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level: %q", cfg.Level)
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		handler = slog.NewTextHandler(w, &hopts)
	case "json":
		handler = slog.NewJSONHandler(w, &hopts)
	default:
		return nil, fmt.Errorf("unknown log format: %q", cfg.Format)
	}
	return slog.New(handler), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
