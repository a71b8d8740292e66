package cmd

import (
	"fmt"

	"github.com/abhisek/medquiz/internal/quiz"
	"github.com/spf13/cobra"
)

var answerCmd = &cobra.Command{
	Use:   "answer <test-type> <question-id> [option]",
	Short: "Grade one answer and update the archives",
	Long: `Grade one answer. test-type is main, fast, study or category_<name>.
option is the 1-based answer number; omit it or pass - for "don't know".`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		choice, err := parseChoice(optionalArg(args, 2))
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
			TestType:   args[0],
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
