package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/avandyck/rostrum/internal/config"
	"github.com/avandyck/rostrum/internal/debate"
	"github.com/avandyck/rostrum/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show a debate's transcript and verdict",
	Long: `Status renders a session's snapshot: metadata, the transcript so far,
and the verdict once the panel has scored it. The snapshot is read directly
from disk, so it works while another process owns the debate.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

var statusShort bool

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusShort, "short", false, "omit the transcript")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	snapshot, err := readSnapshot(cfg.Store.ResolveDataDir(), args[0])
	if err != nil {
		return err
	}

	printStatus(cmd.OutOrStdout(), snapshot, !statusShort)
	return nil
}

// readSnapshot loads a session snapshot from the sessions directory, falling
// back to the archive for sessions that have been archived.
func readSnapshot(dataDir, id string) (*debate.Session, error) {
	paths := []string{
		store.SessionPath(dataDir, id),
		filepath.Join(dataDir, "archive", id+".json"),
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		snapshot, err := store.DecodeSnapshot(data)
		if err != nil {
			return nil, fmt.Errorf("snapshot for %s is not readable: %w", id, err)
		}
		return snapshot, nil
	}
	return nil, fmt.Errorf("session not found: %s", id)
}

func printStatus(out io.Writer, s *debate.Session, withTranscript bool) {
	width := termWidth()

	fmt.Fprintf(out, "%s\n", titleStyle.Render(s.Topic))
	if s.Background != "" {
		fmt.Fprintf(out, "%s\n", mutedStyle.Render(s.Background))
	}
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "  %-10s %s\n", "session", s.ID)
	fmt.Fprintf(out, "  %-10s %s\n", "status", statusStyle(s.Status).Render(string(s.Status)))
	fmt.Fprintf(out, "  %-10s %d of %d\n", "rounds", s.CurrentRound(), s.Config.MaxRounds)
	fmt.Fprintf(out, "  %-10s %s\n", "created", s.CreatedAt.Local().Format(time.RFC822))
	fmt.Fprintf(out, "  %-10s %s\n", "updated", s.UpdatedAt.Local().Format(time.RFC822))
	if s.ErrorMessage != "" {
		fmt.Fprintf(out, "  %-10s %s\n", "error", errorStyle.Render(s.ErrorMessage))
	}

	if withTranscript && len(s.Messages) > 0 {
		body := lipgloss.NewStyle().Width(width - 2).PaddingLeft(2)
		for i, turn := range s.Messages {
			label := fmt.Sprintf("─ Round %d · %s ", debate.RoundOfIndex(i), strings.ToUpper(string(turn.Side)))
			rest := width - len(label)
			if rest < 0 {
				rest = 0
			}
			fmt.Fprintf(out, "\n%s%s\n", sideStyle(turn.Side).Render(label), mutedStyle.Render(strings.Repeat("─", rest)))
			fmt.Fprintf(out, "%s\n", body.Render(turn.Text))
		}
	}

	if len(s.JudgeResults) > 0 && s.Status == debate.StatusCompleted {
		fmt.Fprintf(out, "\n%s\n", titleStyle.Render("Panel"))
		fmt.Fprintf(out, "  %s\n", headerStyle.Render(fmt.Sprintf("%-16s %8s %8s   %s", "judge", "pro", "con", "leaning")))
		for _, result := range s.JudgeResults {
			leaning := "-"
			if result.RecommendedWinner.Valid() {
				leaning = string(result.RecommendedWinner)
			}
			fmt.Fprintf(out, "  %-16s %8.1f %8.1f   %s\n", result.JudgeName, result.Pro.Total, result.Con.Total, leaning)
		}
	}

	printVerdict(out, s)
}
