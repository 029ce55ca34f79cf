package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/petal-labs/cwlforge/lint"
)

// NewEvalCmd creates the "eval" subcommand.
func NewEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <recipe>",
		Short: "Evaluate every expression of a recipe against a job order",
		Args:  cobra.ExactArgs(1),
		RunE:  runEval,
	}

	cmd.Flags().String("job", "", "Path to a job order (JSON or YAML)")
	cmd.Flags().String("format", "text", "Output format: text | json")
	_ = cmd.MarkFlagRequired("job")

	return cmd
}

func runEval(cmd *cobra.Command, args []string) error {
	recipePath := args[0]
	jobPath, _ := cmd.Flags().GetString("job")
	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()

	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	d, err := loadDescriptor(recipePath, s.cfg.DescriptorOptions())
	if err != nil {
		return err
	}
	job, err := readJob(jobPath)
	if err != nil {
		return err
	}

	results, err := lint.EvaluateAll(cmd.Context(), d, job)
	if err != nil {
		return exitError(exitValidation, "evaluating expressions: %v", err)
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}

	if format == "json" {
		if results == nil {
			results = []lint.Result{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(results)
	} else {
		for _, r := range results {
			if r.Error != "" {
				fmt.Fprintf(out, "%s: ERROR %s\n", r.Path, r.Error)
				continue
			}
			value, err := json.Marshal(r.Value)
			if err != nil {
				value = []byte(fmt.Sprint(r.Value))
			}
			fmt.Fprintf(out, "%s: %s\n", r.Path, value)
		}
	}

	if failed > 0 {
		return exitError(exitValidation, "%d of %d %s failed", failed, len(results), pluralize("expression", len(results)))
	}
	return nil
}

// readJob decodes a job order. JSON is read through the YAML decoder.
func readJob(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path from user CLI arg
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, exitError(exitFileNotFound, "job file not found: %s", path)
		}
		return nil, exitError(exitFileNotFound, "reading job file: %s", err)
	}

	var job map[string]any
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, exitError(exitInputParse, "parsing job file: %s", err)
	}
	if job == nil {
		job = map[string]any{}
	}
	return job, nil
}
