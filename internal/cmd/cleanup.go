package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/avandyck/rostrum/internal/config"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Archive settled debates",
	Long: `Cleanup moves completed and failed sessions out of the sessions
directory into the archive. Archived snapshots stay readable through
'rostrum status' but no longer appear in listings or hold a session id.

Sessions still pending, debating, or judging are never touched.

Use --match to archive only sessions whose id or topic matches a glob,
and --dry-run to preview without making changes.`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

var (
	cleanupMatch  string
	cleanupDryRun bool
	cleanupForce  bool
)

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().StringVar(&cleanupMatch, "match", "*", "glob matched against session id and topic")
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "Show what would be archived without making changes")
	cleanupCmd.Flags().BoolVarP(&cleanupForce, "force", "f", false, "Skip confirmation prompt")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	matcher, err := glob.Compile(cleanupMatch)
	if err != nil {
		return fmt.Errorf("bad --match pattern: %w", err)
	}

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
	var targets []string
	for _, s := range summaries {
		if !s.Status.Terminal() {
			continue
		}
		if !matcher.Match(s.ID) && !matcher.Match(s.Topic) {
			continue
		}
		targets = append(targets, s.ID)
		fmt.Fprintf(out, "  %s  %s  %s\n", s.ID, statusStyle(s.Status).Render(fmt.Sprintf("%-9s", s.Status)), s.Topic)
	}

	if len(targets) == 0 {
		fmt.Fprintln(out, "No settled sessions to archive.")
		return nil
	}

	if cleanupDryRun {
		fmt.Fprintf(out, "\nDry run - %d session(s) would be archived.\n", len(targets))
		return nil
	}

	if !cleanupForce {
		fmt.Fprintf(out, "\nArchive %d session(s)? [y/N] ", len(targets))
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(out, "Cleanup cancelled.")
			return nil
		}
	}

	archived := 0
	for _, id := range targets {
		if err := rt.store.Archive(context.Background(), id); err != nil {
			fmt.Fprintf(out, "  %s\n", errorStyle.Render(fmt.Sprintf("failed to archive %s: %v", id, err)))
			continue
		}
		archived++
	}
	fmt.Fprintf(out, "Archived %d session(s).\n", archived)
	return nil
}
