package cmd

import (
	"fmt"

	"github.com/abhisek/medquiz/internal/ui/theme"
	"github.com/spf13/cobra"
)

var favoriteCmd = &cobra.Command{
	Use:     "favorite",
	Aliases: []string{"fav"},
	Short:   "Manage favorite questions",
}

var favoriteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorite questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		ids, err := d.engine.Favorites(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(w, "No favorites yet.")
			return nil
		}
		for _, id := range ids {
			text := theme.Hint.Render("(not in bank)")
			if q, ok := d.bank.Get(id); ok {
				text = truncate(q.Question, 70)
			}
			fmt.Fprintf(w, "%s %6d  %s\n", theme.Favorite.Render("★"), id, text)
		}
		return nil
	},
}

var favoriteToggleCmd = &cobra.Command{
	Use:   "toggle <question-id>",
	Short: "Add or remove a favorite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		on, err := d.engine.ToggleFavorite(cmd.Context(), id)
		if err != nil {
			return err
		}
		if on {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d added to favorites\n", theme.Favorite.Render("★"), id)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%d removed from favorites\n", id)
		}
		return nil
	},
}

func init() {
	favoriteCmd.AddCommand(favoriteListCmd)
	favoriteCmd.AddCommand(favoriteToggleCmd)
}
