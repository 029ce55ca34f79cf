package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/petal-labs/cwlforge/encode"
)

// NewListCmd creates the "list" subcommand.
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved descriptors",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	st, closeStore, err := s.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	recs, err := st.List(cmd.Context())
	if err != nil {
		return exitError(exitStore, "listing descriptors: %v", err)
	}
	if len(recs) == 0 {
		notice(cmd, cmd.ErrOrStderr(), "No saved descriptors")
		return nil
	}

	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tLABEL\tREVISION\tSAVED")
	for _, rec := range recs {
		label := rec.Label
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", rec.ID, label, rec.Revision, rec.SavedAt.Format(time.RFC3339))
	}
	return writer.Flush()
}

// NewShowCmd creates the "show" subcommand.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved descriptor document",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
	cmd.Flags().String("format", "", "Output format: json | yaml (default from config)")
	cmd.Flags().Bool("compact", false, "Emit compact JSON")
	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	id := args[0]
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

	st, closeStore, err := s.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	rec, ok, err := st.Get(cmd.Context(), id)
	if err != nil {
		return exitError(exitStore, "loading descriptor: %v", err)
	}
	if !ok {
		return exitError(exitFileNotFound, "descriptor not found: %s", id)
	}

	out, err := encode.Raw(rec.Document, encode.Options{Format: format, Compact: compact})
	if err != nil {
		return exitError(exitStore, "descriptor %s: %v", id, err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

// NewDeleteCmd creates the "delete" subcommand.
func NewDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a saved descriptor",
		Args:  cobra.ExactArgs(1),
		RunE:  runDelete,
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	st, closeStore, err := s.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	_, ok, err := st.Get(cmd.Context(), id)
	if err != nil {
		return exitError(exitStore, "loading descriptor: %v", err)
	}
	if !ok {
		return exitError(exitFileNotFound, "descriptor not found: %s", id)
	}
	if err := st.Delete(cmd.Context(), id); err != nil {
		return exitError(exitStore, "deleting descriptor: %v", err)
	}
	notice(cmd, cmd.OutOrStdout(), "Deleted %s", id)
	return nil
}
