package cmd

import (
	"fmt"

	"github.com/abhisek/medquiz/internal/bank"
	"github.com/abhisek/medquiz/internal/ui/theme"
	"github.com/spf13/cobra"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Browse the question bank",
}

var bankListCmd = &cobra.Command{
	Use:   "list",
	Short: "List questions (optionally one category)",
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")

		b, err := loadBank()
		if err != nil {
			return err
		}
		qs := b.Questions()
		if category != "" {
			qs = b.ByCategory(category)
			if len(qs) == 0 {
				return fmt.Errorf("no questions in category %q (have %v)", category, b.Categories())
			}
		}
		printQuestionTable(cmd, qs)
		return nil
	},
}

var bankShowCmd = &cobra.Command{
	Use:   "show <question-id>",
	Short: "Show one question with its answer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		b, err := loadBank()
		if err != nil {
			return err
		}
		q, ok := b.Get(id)
		if !ok {
			return fmt.Errorf("question %d not found", id)
		}
		w := cmd.OutOrStdout()
		printQuestion(w, q)
		if ci := q.CorrectIndex(); ci >= 0 {
			fmt.Fprintf(w, "\nAnswer: %s\n", theme.Option(ci, q.Answers[ci].Text, "correct"))
		}
		return nil
	},
}

var bankSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search question text and ids",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := loadBank()
		if err != nil {
			return err
		}
		qs := b.Search(args[0])
		if len(qs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
			return nil
		}
		printQuestionTable(cmd, qs)
		return nil
	},
}

var bankValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a question bank file against the bank schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := bank.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d questions in %d categories\n",
			theme.Correct.Render("valid:"), b.Len(), len(b.Categories()))
		return nil
	},
}

func printQuestionTable(cmd *cobra.Command, qs []bank.Question) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%6s  %-14s  %s\n", "ID", "Category", "Question")
	fmt.Fprintln(w, theme.Separator(100))
	for _, q := range qs {
		fmt.Fprintf(w, "%6d  %-14s  %s\n", q.QuestionID(), q.Category, truncate(q.Question, 76))
	}
	fmt.Fprintf(w, "\n%d questions\n", len(qs))
}

func init() {
	bankListCmd.Flags().String("category", "", "Only list this category")

	bankCmd.AddCommand(bankListCmd)
	bankCmd.AddCommand(bankShowCmd)
	bankCmd.AddCommand(bankSearchCmd)
	bankCmd.AddCommand(bankValidateCmd)
}
