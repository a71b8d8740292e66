package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abhisek/medquiz/internal/ui/theme"
	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect the correct and incorrect archives",
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived question ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		a, err := d.engine.Archives(ctx)
		if err != nil {
			return err
		}
		counters, err := d.engine.Counters(ctx)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, theme.Correct.Render(fmt.Sprintf("Correct (%d)", len(a.Correct))))
		fmt.Fprintln(w, formatIDs(a.Correct))
		fmt.Fprintln(w)
		fmt.Fprintln(w, theme.Incorrect.Render(fmt.Sprintf("Incorrect (%d)", len(a.Incorrect))))
		for _, id := range a.Incorrect {
			text := ""
			if q, ok := d.bank.Get(id); ok {
				text = truncate(q.Question, 60)
			}
			fmt.Fprintf(w, "%6d  %s  %s\n", id, theme.Pad(theme.Strength(counters[id]), 12), text)
		}
		return nil
	},
}

var archiveVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the archive invariants",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		rep, err := d.engine.Verify(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "in both archives:    %s\n", formatIDs(rep.InBoth))
		fmt.Fprintf(w, "dangling ledger:     %s\n", formatIDs(rep.Dangling))
		fmt.Fprintf(w, "orphaned (tolerated): %s\n", formatIDs(rep.Orphaned))
		if !rep.OK() {
			return errors.New("archive invariants violated")
		}
		fmt.Fprintln(w, theme.Correct.Render("archive OK"))
		return nil
	},
}

var archiveExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the persisted state as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		state, err := d.engine.Export(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	},
}

func formatIDs(ids []int) string {
	if len(ids) == 0 {
		return theme.Hint.Render("none")
	}
	return fmt.Sprint(ids)
}

func init() {
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveVerifyCmd)
	archiveCmd.AddCommand(archiveExportCmd)
}
