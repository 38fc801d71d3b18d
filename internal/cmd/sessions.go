package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/avandyck/rostrum/internal/config"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List debate sessions",
	Long: `Sessions lists every debate in the data directory, newest first:
id, status, recorded rounds, winner, age, and topic.`,
	Args: cobra.NoArgs,
	RunE: runSessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(config.Get())
	if err != nil {
		return err
	}
	defer rt.Close()

	summaries, err := rt.store.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No sessions found.")
		fmt.Fprintln(out, "Run 'rostrum run' or 'rostrum new' to create one.")
		return nil
	}

	fmt.Fprintf(out, "%s\n", headerStyle.Render(fmt.Sprintf("%-36s  %-12s %6s  %-6s %8s  %s",
		"ID", "STATUS", "ROUNDS", "WINNER", "AGE", "TOPIC")))
	for _, s := range summaries {
		winner := "-"
		if s.Winner != nil {
			winner = string(*s.Winner)
		}
		rounds := fmt.Sprintf("%d/%d", s.Rounds, s.MaxRounds)
		topic := s.Topic
		if len(topic) > 48 {
			topic = topic[:45] + "..."
		}
		fmt.Fprintf(out, "%-36s  %s %6s  %-6s %8s  %s\n",
			s.ID,
			statusStyle(s.Status).Render(fmt.Sprintf("%-12s", s.Status)),
			rounds,
			winner,
			age(s.UpdatedAt),
			topic)
	}
	return nil
}

// age renders a duration since t in the largest sensible unit.
func age(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
