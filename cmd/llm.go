package cmd

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/medquiz/internal/llm"
	"github.com/abhisek/medquiz/internal/store"
	"github.com/abhisek/medquiz/internal/tutor"
	"github.com/abhisek/medquiz/internal/ui/theme"
	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect tutor requests and check the configured provider",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent tutor requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		events, err := st.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if purpose != "" {
			events = slices.DeleteFunc(events, func(e store.LLMEventRecord) bool { return e.Purpose != purpose })
		}

		w := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(w, theme.Hint.Render("No tutor requests recorded."))
			return nil
		}
		fmt.Fprintf(w, "%-5s  %-19s  %-8s  %-28s  %6s  %6s  %7s\n", "ID", "Time", "Purpose", "Model", "In", "Out", "Ms")
		fmt.Fprintln(w, theme.Separator(92))
		for _, e := range events {
			fmt.Fprintf(w, "%-5d  %-19s  %-8s  %-28s  %6d  %6d  %7d  %s\n",
				e.ID, e.Timestamp.Local().Format(timeLayout), e.Purpose, truncate(e.Model, 28),
				e.InputTokens, e.OutputTokens, e.LatencyMs, successMark(e.Success))
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full prompt and reply of one request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		e, err := st.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		w := cmd.OutOrStdout()
		for _, row := range [][2]string{
			{"Time", e.Timestamp.Local().Format(timeLayout)},
			{"Provider", e.Provider},
			{"Model", e.Model},
			{"Purpose", e.Purpose},
			{"Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens)},
			{"Latency", fmt.Sprintf("%dms", e.LatencyMs)},
			{"Result", successMark(e.Success) + " " + e.ErrorMessage},
		} {
			fmt.Fprintf(w, "%s %s\n", theme.Label.Render(fmt.Sprintf("%-9s", row[0]+":")), row[1])
		}
		printBody(w, "Prompt", e.RequestBody)
		printBody(w, "Reply", e.ResponseBody)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		byPurpose, err := st.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		w := cmd.OutOrStdout()
		if len(byPurpose) == 0 {
			fmt.Fprintln(w, theme.Hint.Render("No tutor usage recorded."))
			return nil
		}

		fmt.Fprintln(w, theme.Title.Render("Usage by purpose"))
		fmt.Fprintf(w, "%-10s  %6s  %10s  %10s  %8s\n", "Purpose", "Calls", "Input", "Output", "Avg ms")
		fmt.Fprintln(w, theme.Separator(52))
		for _, u := range byPurpose {
			fmt.Fprintf(w, "%-10s  %6d  %10d  %10d  %8d\n", u.Purpose, u.Calls, u.InputTokens, u.OutputTokens, u.AvgLatencyMs)
		}

		byModel, err := st.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, theme.Title.Render("Estimated cost (USD)"))
		var total float64
		var unpriced []string
		for _, u := range byModel {
			cost := "?"
			if price := llm.LookupCost(u.Model); price != nil {
				c := price.Cost(u.InputTokens, u.OutputTokens)
				total += c
				cost = formatCost(c)
			} else {
				unpriced = append(unpriced, u.Model)
			}
			fmt.Fprintf(w, "%-32s  %6d calls  %10s\n", truncate(u.Model, 32), u.Calls, cost)
		}
		fmt.Fprintln(w, theme.Separator(52))
		fmt.Fprintf(w, "%-32s  %17s\n", "total", formatCost(total))
		if len(unpriced) > 0 {
			fmt.Fprintln(w, theme.Hint.Render("no pricing for: "+strings.Join(unpriced, ", ")))
		}
		return nil
	},
}

var llmCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Send a short prompt to the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		start := time.Now()
		reply, err := t.Chat(ctx, tutor.ChatRequest{Message: "Reply with the single word: ready"})
		if err != nil {
			return fmt.Errorf("%s check failed: %w", cfg.LLM.Provider, err)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s %s/%s replied %q in %dms\n", theme.Correct.Render("✓"),
			cfg.LLM.Provider, t.ModelID(), strings.TrimSpace(reply.Text), time.Since(start).Milliseconds())
		if price := llm.LookupCost(reply.Model); price != nil {
			fmt.Fprintln(w, theme.Hint.Render("cost "+formatCost(price.Cost(reply.Usage.PromptTokens, reply.Usage.CompletionTokens))))
		}
		return nil
	},
}

// openStore opens the SQLite store without the bank or archive.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	path, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

func successMark(ok bool) string {
	if ok {
		return theme.Correct.Render("✓")
	}
	return theme.Incorrect.Render("✗")
}

func printBody(w io.Writer, title, body string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, theme.Subtitle.Render(title))
	fmt.Fprintln(w, theme.Separator(60))
	if body == "" {
		body = theme.Hint.Render("(not captured)")
	}
	fmt.Fprintln(w, body)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show chat or explain requests")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd, llmCheckCmd)
}
