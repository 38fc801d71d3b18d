package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/avandyck/rostrum/internal/config"
	"github.com/avandyck/rostrum/internal/debate"
	rerrors "github.com/avandyck/rostrum/internal/errors"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <session-id>",
	Short: "Continue an interrupted debate in this process",
	Long: `Resume picks a session up from its snapshot and drives it to a verdict:
pending sessions start their first round, interrupted sessions generate the
turns they are missing, and sessions that crashed mid-judging re-run the
whole panel. Completed and failed sessions are left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	rt, err := openRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := cmd.OutOrStdout()
	id := args[0]

	// Subscribe before Get: restoring an interrupted session resumes its
	// loop immediately, and the first events arrive during Get itself.
	done := followDebate(rt.bus, id, out)
	defer done.detach()

	manager, err := rt.store.Get(context.Background(), id)
	if err != nil {
		return err
	}

	snapshot := manager.Snapshot()
	if snapshot.Status.Terminal() {
		fmt.Fprintf(out, "session %s already settled (%s)\n", id, snapshot.Status)
		printVerdict(out, snapshot)
		return nil
	}

	fmt.Fprintf(out, "%s\n", titleStyle.Render(snapshot.Topic))
	fmt.Fprintf(out, "%s\n", mutedStyle.Render(fmt.Sprintf("resuming session %s from %s, round %d of %d",
		id, snapshot.Status, snapshot.CurrentRound(), snapshot.Config.MaxRounds)))

	// Pending sessions have nothing to resume yet; they start from the top.
	// Anything already running was picked up by the restore above.
	switch snapshot.Status {
	case debate.StatusPending:
		err = manager.Start(context.Background())
	default:
		err = manager.Resume(context.Background())
	}
	if err != nil && !rerrors.Is(err, rerrors.ErrAlreadyRunning) {
		return fmt.Errorf("failed to resume: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-done.ch:
	case <-sigCh:
		rt.Close()
		return fmt.Errorf("interrupted; continue with: rostrum resume %s", id)
	}

	final := manager.Snapshot()
	printVerdict(out, final)
	if final.Status == debate.StatusError {
		return fmt.Errorf("debate failed: %s", final.ErrorMessage)
	}
	return nil
}
