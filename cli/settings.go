package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petal-labs/cwlforge/config"
	"github.com/petal-labs/cwlforge/store"
)

// AddPersistentFlags registers the flags shared by every subcommand on root.
func AddPersistentFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.String("config", "", "Path to config file (default: ~/.cwlforge/config.toml)")
	flags.Bool("verbose", false, "Enable verbose/debug logging")
	flags.Bool("quiet", false, "Suppress all output except errors")
	flags.String("store", "", "Descriptor store: file | sqlite")
	flags.String("store-path", "", "Path to the descriptor store (default: under ~/.cwlforge)")
	flags.String("otlp-endpoint", "", "OTLP/HTTP endpoint for build traces")
}

// settings is the config file merged with command-line overrides.
type settings struct {
	cfg    config.Config
	logger *slog.Logger
}

func resolveSettings(cmd *cobra.Command) (*settings, error) {
	path, _ := cmd.Flags().GetString("config")
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, exitError(exitInputParse, "%s", err)
		}
		path = p
	} else if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, exitError(exitFileNotFound, "config file not found: %s", path)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, exitError(exitInputParse, "%s", err)
	}

	if cmd.Flags().Changed("store") {
		cfg.Store, _ = cmd.Flags().GetString("store")
	}
	if cmd.Flags().Changed("store-path") {
		cfg.StorePath, _ = cmd.Flags().GetString("store-path")
	}
	if cmd.Flags().Changed("otlp-endpoint") {
		cfg.OTLPEndpoint, _ = cmd.Flags().GetString("otlp-endpoint")
	}
	if err := cfg.Validate(); err != nil {
		return nil, exitError(exitValidation, "%s", err)
	}

	return &settings{
		cfg:    cfg,
		logger: newLogger(cmd),
	}, nil
}

// newLogger writes text logs to the command's stderr at a level chosen by
// --verbose and --quiet.
func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")

	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func (s *settings) openStore() (store.Store, func() error, error) {
	st, closeFn, err := store.Open(store.Kind(s.cfg.Store), s.cfg.StorePath)
	if err != nil {
		return nil, nil, exitError(exitStore, "opening store: %v", err)
	}
	return st, closeFn, nil
}

// notice prints a status line to w unless --quiet is set.
func notice(cmd *cobra.Command, w io.Writer, format string, args ...any) {
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		return
	}
	fmt.Fprintf(w, format+"\n", args...)
}
