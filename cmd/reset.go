package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset main and category test progress",
	Long: `Zero the main test tally, forget main test answers and rewind every
category test. The archives and the study queue are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("this resets test progress; rerun with --yes")
		}
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.engine.ResetMainTests(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Test progress reset.")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm the reset")
}
