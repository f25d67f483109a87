package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/spo/internal/core/domain"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded sessions",
}

var historyListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List sessions, newest first",
	Args:    cobra.NoArgs,
	RunE:    runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show a session and every round it recorded",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyListCmd.Flags().Bool("json", false, "print sessions as JSON")
	historyShowCmd.Flags().Bool("json", false, "print the session and rounds as JSON")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	if err := requireHistory(); err != nil {
		return err
	}

	sessions, err := optimizer.Sessions(cmd.Context())
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		if sessions == nil {
			sessions = []domain.Session{}
		}
		return writeJSON(cmd.OutOrStdout(), sessions)
	}

	if len(sessions) == 0 {
		cmd.Println("No sessions recorded.")
		return nil
	}

	cmd.Printf("%-36s  %-9s  %-4s  %-16s  %s\n", "ID", "STATUS", "BEST", "CREATED", "NAME")
	for _, s := range sessions {
		cmd.Printf("%-36s  %-9s  %-4d  %-16s  %s\n",
			s.ID, s.Status, s.BestRound, s.CreatedAt.Local().Format("2006-01-02 15:04"), s.Name)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if err := requireHistory(); err != nil {
		return err
	}

	id := args[0]
	session, err := optimizer.Session(cmd.Context(), id)
	if err != nil {
		return err
	}
	rounds, err := optimizer.Rounds(cmd.Context(), id)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), struct {
			Session *domain.Session `json:"session"`
			Rounds  []domain.Round  `json:"rounds"`
		}{session, rounds})
	}

	cmd.Printf("Session %s", session.ID)
	if session.Name != "" {
		cmd.Printf(" (%s)", session.Name)
	}
	cmd.Println()
	cmd.Printf("  Status: %s\n", session.Status)
	if session.Error != "" {
		cmd.Printf("  Error: %s\n", session.Error)
	}
	cmd.Printf("  Rounds: %d of %d\n", len(rounds), session.Task.MaxRounds)
	cmd.Printf("  Exemplars: %d\n", len(session.Task.Exemplars))
	cmd.Printf("  Best round: %d\n", session.BestRound)
	cmd.Println()

	for _, r := range rounds {
		cmd.Printf("#%d %s score=%d", r.Index, r.Status(), r.Score)
		if r.Judgment != "" {
			cmd.Printf(" judgment=%s", r.Judgment)
		}
		if n := r.Execution.FailedCount(); n > 0 {
			cmd.Printf(" failed_exemplars=%d", n)
		}
		cmd.Println()
		if r.Failed() {
			cmd.Printf("    %s\n", r.Failure)
			continue
		}
		cmd.Println(indent(r.Candidate.Instruction, "    "))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
