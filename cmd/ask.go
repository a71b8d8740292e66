package cmd

import (
	"fmt"
	"strings"

	"github.com/abhisek/medquiz/internal/tutor"
	"github.com/abhisek/medquiz/internal/ui/theme"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Ask the AI tutor a question",
	Long: `Send one message to the AI tutor. With --question the tutor sees that
question and, with --option, the answer you gave.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		qArg, _ := cmd.Flags().GetString("question")
		optArg, _ := cmd.Flags().GetString("option")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		t, err := d.newTutor(ctx)
		if err != nil {
			return err
		}

		req := tutor.ChatRequest{Message: strings.Join(args, " ")}
		if qArg != "" {
			id, err := parseID(qArg)
			if err != nil {
				return err
			}
			q, ok := d.bank.Get(id)
			if !ok {
				return fmt.Errorf("question %d not found", id)
			}
			qc := &tutor.QuestionContext{Question: q.Question}
			if optArg != "" {
				choice, err := parseChoice(optArg)
				if err != nil {
					return err
				}
				correct := d.bank.IsCorrect(id, choice)
				qc.UserAnswer = choice
				qc.IsCorrect = &correct
			}
			req.Context.CurrentQuestion = qc
		}

		reply, err := t.Chat(ctx, req)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, reply.Text)
		fmt.Fprintln(w, theme.Hint.Render(fmt.Sprintf("%s · %d tokens", reply.Model, reply.Usage.TotalTokens)))
		return nil
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain <question-id> [option]",
	Short: "Explain the answer to a question",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		asHTML, _ := cmd.Flags().GetBool("html")

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
		if choice != nil && *choice >= len(q.Answers) {
			return fmt.Errorf("option must be 1 to %d", len(q.Answers))
		}

		ctx := cmd.Context()
		t, err := d.newTutor(ctx)
		if err != nil {
			return err
		}
		exp, err := t.Explain(ctx, *q, choice)
		if err != nil {
			return err
		}

		md := exp.Markdown()
		if asHTML {
			html, err := tutor.RenderHTML(md)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), html)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	askCmd.Flags().String("question", "", "Question id to discuss")
	askCmd.Flags().String("option", "", "Your 1-based answer to that question, - for don't know")
	explainCmd.Flags().Bool("html", false, "Print HTML instead of Markdown")
}
