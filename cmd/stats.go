package cmd

import (
	"fmt"

	"github.com/abhisek/medquiz/internal/store"
	"github.com/abhisek/medquiz/internal/ui/theme"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show quiz and study statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		w := cmd.OutOrStdout()

		tl, err := d.engine.Tally(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, theme.Title.Render("Main test"))
		fmt.Fprintf(w, "  %s %d   %s %d   %s %d   total %d\n",
			theme.Correct.Render("correct"), tl.Correct,
			theme.Incorrect.Render("incorrect"), tl.Incorrect,
			theme.Unknown.Render("don't know"), tl.Unknown,
			tl.Total())

		fmt.Fprintln(w)
		fmt.Fprintln(w, theme.Title.Render("Categories"))
		for _, c := range d.engine.Categories() {
			p, err := d.engine.Progress(ctx, c)
			if err != nil {
				return err
			}
			size := len(d.bank.ByCategory(c))
			fmt.Fprintf(w, "  %-16s  answered %3d/%-3d  resume at %d\n", c, p.Answered, size, p.Index)
		}

		st, err := d.engine.StudyStats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, theme.Title.Render("Study queue"))
		fmt.Fprintf(w, "  %d to study (%d don't know, %d wrong)\n", st.Total, st.Unknown, st.Incorrect)

		events := d.store.EventRepo()
		counts, err := events.AnswerCountsByMode(ctx)
		if err != nil {
			return fmt.Errorf("query answer counts: %w", err)
		}
		if len(counts) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, theme.Title.Render("Answer history"))
			fmt.Fprintf(w, "  %-22s  %7s  %7s  %9s\n", "Mode", "Answers", "Correct", "Questions")
			for _, c := range counts {
				fmt.Fprintf(w, "  %-22s  %7d  %7d  %9d\n", c.Mode, c.Answers, c.Correct, c.Questions)
			}
		}

		sessions, err := events.QuerySessionSummaries(ctx, store.QueryOpts{Limit: 5})
		if err != nil {
			return fmt.Errorf("query sessions: %w", err)
		}
		if len(sessions) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, theme.Title.Render("Recent study sessions"))
			for _, s := range sessions {
				fmt.Fprintf(w, "  %s  %d/%d correct, %d learned, %ds\n",
					s.Timestamp.Local().Format("2006-01-02 15:04"),
					s.CorrectAnswers, s.QuestionsServed, s.Promoted, s.DurationSecs)
			}
		}
		return nil
	},
}
