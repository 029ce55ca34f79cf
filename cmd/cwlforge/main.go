package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/petal-labs/cwlforge/cli"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cwlforge",
	Short: "Build CWL CommandLineTool descriptors",
	Long:  "cwlforge builds CWL draft-2 CommandLineTool descriptors from YAML, TOML or JSON recipes.",
	// SilenceUsage prevents printing usage on every error
	SilenceUsage: true,
}

func init() {
	cli.AddPersistentFlags(rootCmd)

	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("cwlforge version %s\n", version))

	rootCmd.AddCommand(cli.NewBuildCmd())
	rootCmd.AddCommand(cli.NewLintCmd())
	rootCmd.AddCommand(cli.NewEvalCmd())
	rootCmd.AddCommand(cli.NewListCmd())
	rootCmd.AddCommand(cli.NewShowCmd())
	rootCmd.AddCommand(cli.NewDeleteCmd())
}
