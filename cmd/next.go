package cmd

import (
	"fmt"

	"github.com/abhisek/medquiz/internal/quiz"
	"github.com/abhisek/medquiz/internal/ui/theme"
	"github.com/spf13/cobra"
)

var nextCmd = &cobra.Command{
	Use:   "next [category]",
	Short: "Show where the main test or a category test continues",
	Long: `Show the question a test continues with. Without a category this is the
main test. --from takes the 1-based position printed by a previous call.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetInt("from")
		back, _ := cmd.Flags().GetBool("back")

		cur := quiz.Cursor{Category: optionalArg(args, 0)}
		switch {
		case back:
			cur.Direction, cur.From = quiz.Backward, from-1
		case from > 0:
			cur.Direction, cur.From = quiz.Forward, from-1
		}

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		pos, err := d.quiz.Next(cmd.Context(), cur)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		label := "main test"
		if cur.Category != "" {
			label = cur.Category
		}
		fmt.Fprintf(w, "%s %d/%d\n", theme.Subtitle.Render(label), pos.Index+1, pos.Total)
		if pos.Done {
			fmt.Fprintln(w, theme.Hint.Render("no unanswered questions that way"))
		}
		printQuestion(w, pos.Question)
		if pos.Answered {
			fmt.Fprintln(w, theme.Hint.Render("already answered"))
		}
		return nil
	},
}

func init() {
	nextCmd.Flags().Int("from", 0, "Move on from this 1-based position")
	nextCmd.Flags().Bool("back", false, "Move back instead of forward")
}
