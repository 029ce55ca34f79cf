package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/petal-labs/cwlforge/cwl"
	"github.com/petal-labs/cwlforge/lint"
	"github.com/petal-labs/cwlforge/loader"
)

// NewLintCmd creates the "lint" subcommand.
func NewLintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint <recipe>",
		Short: "Check a recipe and its expressions without writing output",
		Args:  cobra.ExactArgs(1),
		RunE:  runLint,
	}

	cmd.Flags().String("format", "text", "Output format: text | json")
	cmd.Flags().Bool("strict", false, "Treat warnings as errors")

	return cmd
}

func runLint(cmd *cobra.Command, args []string) error {
	recipePath := args[0]
	format, _ := cmd.Flags().GetString("format")
	strict, _ := cmd.Flags().GetBool("strict")

	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	recipe, err := loadRecipe(recipePath)
	if err != nil {
		return err
	}

	var diags []lint.Diagnostic
	d, err := loader.Build(recipe, s.cfg.DescriptorOptions()...)
	if err != nil {
		diags = []lint.Diagnostic{{
			Code:     "RC-001",
			Severity: lint.SeverityError,
			Message:  fmt.Sprintf("Recipe rejected by builder: %v", err),
		}}
	} else {
		diags = lint.Lint(d)
	}

	printDiagnostics(cmd.OutOrStdout(), diags, format)

	hasErrs := lint.HasErrors(diags)
	hasWarns := len(lint.Warnings(diags)) > 0
	if hasErrs || (strict && hasWarns) {
		return exitError(exitValidation, "lint failed")
	}
	return nil
}

func loadRecipe(path string) (*loader.Recipe, error) {
	recipe, err := loader.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, exitError(exitFileNotFound, "file not found: %s", path)
		}
		return nil, exitError(exitInputParse, "%s", err)
	}
	return recipe, nil
}

func loadDescriptor(path string, opts []cwl.Option) (*cwl.Descriptor, error) {
	recipe, err := loadRecipe(path)
	if err != nil {
		return nil, err
	}
	d, err := loader.Build(recipe, opts...)
	if err != nil {
		return nil, exitError(exitValidation, "%s: %s", path, err)
	}
	return d, nil
}
