package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/medquiz/internal/archive"
	"github.com/abhisek/medquiz/internal/quiz"
	"github.com/abhisek/medquiz/internal/session"
	"github.com/abhisek/medquiz/internal/ui/theme"
	"github.com/spf13/cobra"
)

var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Drill questions from the study queue",
}

var studyQueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show the study queue in serving order",
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		var ids []int
		if count > 0 {
			ids, err = d.engine.BuildQueue(ctx, count)
		} else {
			ids, err = d.engine.StudyQuestions(ctx)
		}
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to study.")
			return nil
		}
		counters, err := d.engine.Counters(ctx)
		if err != nil {
			return err
		}
		combined, err := d.engine.CombinedView(ctx)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%6s  %-12s  %-10s  %s\n", "ID", "Strength", "Last", "Question")
		fmt.Fprintln(w, theme.Separator(90))
		for _, id := range ids {
			last := theme.Incorrect.Render("wrong")
			if combined.Unknown(id) {
				last = theme.Unknown.Render("unknown")
			}
			text := ""
			if q, ok := d.bank.Get(id); ok {
				text = truncate(q.Question, 56)
			}
			fmt.Fprintf(w, "%6d  %s  %s  %s\n", id, theme.Pad(theme.Strength(counters[id]), 12), theme.Pad(last, 10), text)
		}
		return nil
	},
}

var studyAnswerCmd = &cobra.Command{
	Use:   "answer <question-id> [option]",
	Short: "Answer one study question",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		choice, err := parseChoice(optionalArg(args, 1))
		if err != nil {
			return err
		}

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		q, ok := d.bank.Get(id)
		if !ok {
			return fmt.Errorf("question %d not found", id)
		}
		res, err := d.quiz.Submit(cmd.Context(), quiz.Submission{
			TestType:   string(archive.ModeStudy),
			QuestionID: id,
			Choice:     choice,
		})
		if err != nil {
			return err
		}
		printResult(cmd.OutOrStdout(), q, res)
		return nil
	},
}

var studyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the study queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		st, err := d.engine.StudyStats(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s %d\n", theme.Label.Render("to study:"), st.Total)
		fmt.Fprintf(w, "%s %d\n", theme.Label.Render("don't know:"), st.Unknown)
		fmt.Fprintf(w, "%s %d\n", theme.Label.Render("wrong:"), st.Incorrect)
		return nil
	},
}

var studyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every queued question from the incorrect archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("this empties the study queue; rerun with --yes")
		}
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		n, err := d.engine.ClearStudyArchive(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d questions.\n", n)
		return nil
	},
}

var studyRemoveCmd = &cobra.Command{
	Use:   "remove <question-id>",
	Short: "Take one question out of the study queue",
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

		if err := d.engine.RemoveFromStudy(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d from the study queue.\n", id)
		return nil
	},
}

var studyRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive study session",
	Long: `Serve the study queue one question at a time. Type the option number,
- or ? for "don't know", or q to stop.`,
	RunE: runStudy,
}

func runStudy(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")

	d, err := openDeps(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	st, err := d.sessions.Start(ctx, count)
	if errors.Is(err, session.ErrEmptyQueue) {
		fmt.Fprintln(w, "Nothing to study. Answer some questions first.")
		return nil
	}
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	fmt.Fprintln(w, theme.Title.Render(fmt.Sprintf("Study session: %d questions", len(st.Queue))))

	next, ok := st.Current()
loop:
	for ok {
		q, found := d.bank.Get(next)
		if !found {
			return fmt.Errorf("question %d missing from the bank", next)
		}
		fmt.Fprintln(w)
		printQuestion(w, q)

		var choice *int
		for {
			fmt.Fprint(w, "\nYour answer: ")
			if !scanner.Scan() {
				fmt.Fprintln(w, "\n(input closed)")
				break loop
			}
			input := strings.TrimSpace(scanner.Text())
			if strings.EqualFold(input, "q") {
				break loop
			}
			choice, err = parseChoice(input)
			if err == nil && choice != nil && *choice >= len(q.Answers) {
				err = fmt.Errorf("pick 1 to %d", len(q.Answers))
			}
			if err == nil {
				break
			}
			fmt.Fprintln(w, theme.Hint.Render(err.Error()))
		}

		res, err := d.sessions.Answer(ctx, st.ID, choice)
		if err != nil {
			return err
		}
		printResult(w, q, res.Result)
		if res.Next == nil {
			break
		}
		next = *res.Next
	}

	sum, err := d.sessions.End(ctx, st.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, theme.Separator(40))
	fmt.Fprintf(w, "%d/%d correct (%.0f%%), %d learned, %s\n",
		sum.Correct, sum.Served, sum.Accuracy*100, len(sum.Promoted), sum.Duration.Round(time.Second))
	return nil
}

func init() {
	studyQueueCmd.Flags().IntP("count", "n", 0, "Maximum number of questions (0 = all)")
	studyRunCmd.Flags().IntP("count", "n", session.DefaultQuestionCount, "Questions in the session")
	studyClearCmd.Flags().Bool("yes", false, "Confirm clearing the study queue")

	studyCmd.AddCommand(studyQueueCmd)
	studyCmd.AddCommand(studyAnswerCmd)
	studyCmd.AddCommand(studyStatsCmd)
	studyCmd.AddCommand(studyClearCmd)
	studyCmd.AddCommand(studyRemoveCmd)
	studyCmd.AddCommand(studyRunCmd)
}
