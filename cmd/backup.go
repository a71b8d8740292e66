package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/abhisek/medquiz/internal/store"
	"github.com/abhisek/medquiz/internal/ui/theme"
	"github.com/spf13/cobra"
)

// snapshotKeep is how many snapshots survive pruning.
const snapshotKeep = 20

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Save and restore archive snapshots",
}

var backupSaveCmd = &cobra.Command{
	Use:   "save [label]",
	Short: "Snapshot the archive state",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		snap, err := saveSnapshot(cmd.Context(), d, optionalArg(args, 0))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved snapshot %d (%d keys).\n", snap.ID, len(snap.Data.Values))
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		snaps, err := d.store.SnapshotRepo().List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(snaps) == 0 {
			fmt.Fprintln(w, "No snapshots saved.")
			return nil
		}
		fmt.Fprintf(w, "%-5s  %-19s  %-8s  %s\n", "ID", "Timestamp", "Sequence", "Label")
		fmt.Fprintln(w, theme.Separator(60))
		for _, s := range snaps {
			fmt.Fprintf(w, "%-5d  %-19s  %-8d  %s\n",
				s.ID, s.Timestamp.Local().Format("2006-01-02 15:04:05"), s.Sequence, s.Label)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore [id]",
	Short: "Replace the archive state with a snapshot (latest by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("this overwrites the current archive; rerun with --yes")
		}

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		repo := d.store.SnapshotRepo()
		var snap *store.Snapshot
		if len(args) == 1 {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid snapshot id %q", args[0])
			}
			snap, err = repo.Get(ctx, id)
			if err != nil {
				return err
			}
		} else {
			snap, err = repo.Latest(ctx)
			if err != nil {
				return err
			}
		}
		if snap == nil {
			return errors.New("snapshot not found")
		}

		if err := d.engine.Restore(ctx, snap.Data); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored snapshot %d from %s.\n",
			snap.ID, snap.Timestamp.Local().Format("2006-01-02 15:04:05"))
		return nil
	},
}

// saveSnapshot stores the current archive state and prunes old snapshots.
func saveSnapshot(ctx context.Context, d *deps, label string) (*store.Snapshot, error) {
	data, err := d.engine.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	seq, err := d.store.EventRepo().LatestSequence(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest sequence: %w", err)
	}
	if label == "" {
		label = "manual"
	}
	snap := &store.Snapshot{
		Sequence:  seq,
		Timestamp: time.Now(),
		Label:     label,
		Data:      data,
	}
	repo := d.store.SnapshotRepo()
	if err := repo.Save(ctx, snap); err != nil {
		return nil, err
	}
	if err := repo.Prune(ctx, snapshotKeep); err != nil {
		log.Warn().Err(err).Msg("prune snapshots")
	}
	return snap, nil
}

func init() {
	backupListCmd.Flags().IntP("limit", "n", 20, "Number of snapshots to show")
	backupRestoreCmd.Flags().Bool("yes", false, "Confirm overwriting the archive")

	backupCmd.AddCommand(backupSaveCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
}
