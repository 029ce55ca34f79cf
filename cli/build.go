package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/petal-labs/cwlforge/build"
	"github.com/petal-labs/cwlforge/encode"
	"github.com/petal-labs/cwlforge/otel"
	"github.com/petal-labs/cwlforge/store"
)

// NewBuildCmd creates the "build" subcommand.
func NewBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <recipe>",
		Short: "Build a tool descriptor from a recipe",
		Args:  cobra.ExactArgs(1),
		RunE:  runBuild,
	}

	cmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().String("format", "", "Output format: json | yaml (default from config)")
	cmd.Flags().Bool("compact", false, "Emit compact JSON")
	cmd.Flags().Bool("save", false, "Save the built document to the descriptor store")
	cmd.Flags().Bool("no-lint", false, "Skip expression lint")

	return cmd
}

// runBuild implements the build pipeline:
//
//	load recipe → replay builder calls → lint expressions → prune and encode
//	→ write output → (if --save: upsert into the store)
func runBuild(cmd *cobra.Command, args []string) error {
	recipePath := args[0]
	stderr := cmd.ErrOrStderr()

	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	formatName := s.cfg.Format
	if cmd.Flags().Changed("format") {
		formatName, _ = cmd.Flags().GetString("format")
	}
	format, err := encode.ParseFormat(formatName)
	if err != nil {
		return exitError(exitValidation, "%s", err)
	}
	compact, _ := cmd.Flags().GetBool("compact")
	noLint, _ := cmd.Flags().GetBool("no-lint")
	save, _ := cmd.Flags().GetBool("save")
	outputPath, _ := cmd.Flags().GetString("output")

	ctx := cmd.Context()
	emit := func(e build.Event) {
		s.logger.Debug("build event",
			"kind", e.Kind,
			"stage", e.Stage,
			"run_id", e.RunID,
			"trace_id", e.TraceID,
			"elapsed", e.Elapsed,
		)
	}
	if s.cfg.OTLPEndpoint != "" {
		tel, err := otel.Setup(ctx, otel.SetupConfig{Endpoint: s.cfg.OTLPEndpoint})
		if err != nil {
			return exitError(exitValidation, "%s", err)
		}
		defer func() {
			if err := tel.Shutdown(ctx); err != nil {
				s.logger.Warn("telemetry shutdown failed", "error", err)
			}
		}()
		emit = tel.Emitter(emit)
	}

	res, err := build.Run(ctx, recipePath, build.Config{
		Logger:  s.logger,
		Emit:    emit,
		Options: s.cfg.DescriptorOptions(),
		Lint:    !noLint,
		Encode:  encode.Options{Format: format, Compact: compact},
	})
	if res != nil && len(res.Diagnostics) > 0 {
		if err != nil {
			printDiagnosticsText(stderr, res.Diagnostics)
		} else if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			printDiagnosticsText(stderr, res.Diagnostics)
		}
	}
	if err != nil {
		return buildExitError(recipePath, err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, res.Output, 0o600); err != nil {
			return fmt.Errorf("writing output file: %w", err)
		}
		notice(cmd, stderr, "Wrote %s to %s", res.Descriptor.ID(), outputPath)
	} else if _, err := cmd.OutOrStdout().Write(res.Output); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if save {
		rec, err := saveDocument(cmd, s, res)
		if err != nil {
			return err
		}
		notice(cmd, stderr, "Saved %s (revision %s)", rec.ID, rec.Revision)
	}
	return nil
}

func saveDocument(cmd *cobra.Command, s *settings, res *build.Result) (store.Record, error) {
	doc, err := encode.JSON(res.Document, false)
	if err != nil {
		return store.Record{}, exitError(exitValidation, "%s", err)
	}

	st, closeStore, err := s.openStore()
	if err != nil {
		return store.Record{}, err
	}
	defer func() { _ = closeStore() }()

	rec, err := st.Upsert(cmd.Context(), store.Record{
		ID:       res.Descriptor.ID(),
		Label:    res.Descriptor.Label(),
		Document: doc,
	})
	if err != nil {
		return store.Record{}, exitError(exitStore, "saving descriptor: %v", err)
	}
	return rec, nil
}

// buildExitError maps a failed build stage to a process exit code.
func buildExitError(recipePath string, err error) error {
	var stageErr *build.StageError
	if errors.As(err, &stageErr) && stageErr.Stage == build.StageLoad {
		if errors.Is(err, os.ErrNotExist) {
			return exitError(exitFileNotFound, "file not found: %s", recipePath)
		}
		return exitError(exitInputParse, "%s", err)
	}
	return exitError(exitValidation, "%s", err)
}
