package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/avandyck/rostrum/internal/config"
	"github.com/avandyck/rostrum/internal/debate"
	"github.com/avandyck/rostrum/internal/event"
	"github.com/avandyck/rostrum/internal/logging"
	"github.com/avandyck/rostrum/internal/provider"
	"github.com/avandyck/rostrum/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a debate to completion in this process",
	Long: `Run creates a debate and drives it to a verdict, streaming each turn
to the terminal as it is generated. The debate is described either by flags
or by a YAML manifest.

Credentials come from the manifest (api_key / api_key_env per participant)
or, in flag mode, from the ANTHROPIC_API_KEY environment variable shared by
every participant. A .env file in the working directory is loaded
automatically.

Examples:
  # Run a three-round debate with one shared key
  rostrum run --topic "Remote work should be the default"

  # Run a debate described by a manifest
  rostrum run --file debate.yaml

  # Override the round count
  rostrum run --file debate.yaml --rounds 5`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runFile       string
	runTopic      string
	runBackground string
	runRounds     int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "YAML debate manifest")
	runCmd.Flags().StringVar(&runTopic, "topic", "", "Motion under debate")
	runCmd.Flags().StringVar(&runBackground, "background", "", "Context shared with every participant")
	runCmd.Flags().IntVar(&runRounds, "rounds", 0, "Number of rounds (default from config)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	req, err := buildRequest(cfg)
	if err != nil {
		return err
	}

	rt, err := openRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := cmd.OutOrStdout()
	manager, err := rt.store.Create(context.Background(), req)
	if err != nil {
		return fmt.Errorf("failed to create debate: %w", err)
	}

	fmt.Fprintf(out, "%s\n", titleStyle.Render(req.Topic))
	fmt.Fprintf(out, "%s\n", mutedStyle.Render(fmt.Sprintf("session %s · %d round(s) · %d judges",
		manager.ID(), req.MaxRounds, len(req.Judges))))

	done := followDebate(rt.bus, manager.ID(), out)
	defer done.detach()

	// The debate context is never canceled mid-run: interruption is process
	// death, and the persisted snapshot is the recovery point.
	if err := manager.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start debate: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-done.ch:
	case <-sigCh:
		// Close drains the pending snapshot write before we exit.
		rt.Close()
		return fmt.Errorf("interrupted; continue with: rostrum resume %s", manager.ID())
	}

	snapshot := manager.Snapshot()
	printVerdict(out, snapshot)
	if snapshot.Status == debate.StatusError {
		return fmt.Errorf("debate failed: %s", snapshot.ErrorMessage)
	}
	return nil
}

// buildRequest assembles the session request from the manifest when --file
// is given, otherwise from flags plus the shared ANTHROPIC_API_KEY.
func buildRequest(cfg *config.Config) (debate.NewSessionRequest, error) {
	if runFile != "" {
		manifest, err := LoadManifest(runFile)
		if err != nil {
			return debate.NewSessionRequest{}, err
		}
		if runRounds > 0 {
			manifest.Rounds = runRounds
		}
		if runTopic != "" {
			manifest.Topic = runTopic
		}
		return manifest.Request(cfg.Debate.DefaultRounds)
	}

	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return debate.NewSessionRequest{}, fmt.Errorf("ANTHROPIC_API_KEY is not set; export it or use --file with per-participant credentials")
	}

	rounds := runRounds
	if rounds == 0 {
		rounds = cfg.Debate.DefaultRounds
	}
	judges := make([]debate.JudgeConfig, debate.PanelSize)
	for i := range judges {
		judges[i] = debate.JudgeConfig{
			Name:       fmt.Sprintf("judge-%d", i+1),
			Credential: debate.Credential{APIKey: key},
		}
	}
	return debate.NewSessionRequest{
		Topic:      runTopic,
		Background: runBackground,
		Pro:        debate.Credential{APIKey: key},
		Con:        debate.Credential{APIKey: key},
		Judges:     judges,
		MaxRounds:  rounds,
	}, nil
}

// runtime bundles the store, bus, and logger a command needs to run debates
// in this process.
type runtime struct {
	cfg    *config.Config
	bus    *event.Bus
	store  *store.Store
	logger *logging.Logger
}

func openRuntime(cfg *config.Config) (*runtime, error) {
	dataDir := cfg.Store.ResolveDataDir()
	logger, err := logging.NewLoggerWithRotation(filepath.Join(dataDir, "logs"), cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	bus := event.NewBus()
	st, err := store.New(dataDir, provider.NewFactory(cfg.Provider), bus, logger)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}
	return &runtime{cfg: cfg, bus: bus, store: st, logger: logger}, nil
}

func (r *runtime) Close() {
	r.store.Close()
	r.logger.Close()
}

// follower prints a debate's progress as bus events arrive and closes ch on
// the terminal event.
type follower struct {
	ch    chan struct{}
	bus   *event.Bus
	subID string
}

func (f *follower) detach() {
	f.bus.Unsubscribe(f.subID)
}

// followDebate streams one session's events to out: a header per turn, raw
// text deltas as they are generated, per-judge score lines, and the failure
// reason if the debate halts. Bus delivery is synchronous, so the output
// order matches the debate order exactly.
func followDebate(bus *event.Bus, sessionID string, out io.Writer) *follower {
	f := &follower{ch: make(chan struct{}), bus: bus}
	width := termWidth()
	streamed := false

	f.subID = bus.SubscribeAll(func(e event.Event) {
		se, ok := e.(event.SessionEvent)
		if !ok || se.SessionID() != sessionID {
			return
		}

		switch ev := e.(type) {
		case event.TurnStartedEvent:
			streamed = false
			label := fmt.Sprintf("─ Round %d · %s ", ev.Round, strings.ToUpper(ev.Side))
			rest := width - len(label)
			if rest < 0 {
				rest = 0
			}
			fmt.Fprintf(out, "\n%s%s\n", sideStyle(debate.Side(ev.Side)).Render(label), mutedStyle.Render(strings.Repeat("─", rest)))
		case event.TurnDeltaEvent:
			streamed = true
			fmt.Fprint(out, ev.Delta)
		case event.TurnCompletedEvent:
			if !streamed {
				fmt.Fprint(out, ev.Text)
			}
			fmt.Fprintln(out)
		case event.JudgingStartedEvent:
			label := fmt.Sprintf("─ Judging · %d panelists ", ev.JudgeCount)
			rest := width - len(label)
			if rest < 0 {
				rest = 0
			}
			fmt.Fprintf(out, "\n%s%s\n", titleStyle.Render(label), mutedStyle.Render(strings.Repeat("─", rest)))
		case event.JudgeCompletedEvent:
			fmt.Fprintf(out, "  %-16s pro %5.1f · con %5.1f\n", ev.JudgeName, ev.ProTotal, ev.ConTotal)
		case event.StoreWriteFailedEvent:
			fmt.Fprintf(out, "%s\n", mutedStyle.Render("warning: snapshot write failed; progress is kept in memory"))
		case event.DebateFailedEvent:
			fmt.Fprintf(out, "\n%s\n", errorStyle.Render("debate failed: "+ev.Reason))
			close(f.ch)
		case event.DebateCompletedEvent:
			close(f.ch)
		}
	})
	return f
}

// printVerdict renders the aggregated scorecard and the winner.
func printVerdict(out io.Writer, s *debate.Session) {
	if s.FinalScores == nil {
		return
	}

	fmt.Fprintf(out, "\n%s\n", titleStyle.Render("Verdict"))
	fmt.Fprintf(out, "  %s\n", headerStyle.Render(fmt.Sprintf("%-12s %8s %8s", "category", "pro", "con")))
	rows := []struct {
		name     string
		pro, con float64
	}{
		{"logic", s.FinalScores.Pro.Logic, s.FinalScores.Con.Logic},
		{"evidence", s.FinalScores.Pro.Evidence, s.FinalScores.Con.Evidence},
		{"rebuttal", s.FinalScores.Pro.Rebuttal, s.FinalScores.Con.Rebuttal},
		{"expression", s.FinalScores.Pro.Expression, s.FinalScores.Con.Expression},
		{"total", s.FinalScores.Pro.Total, s.FinalScores.Con.Total},
	}
	for _, row := range rows {
		name := row.name
		if name == "total" {
			name = headerStyle.Render(fmt.Sprintf("%-12s", name))
		} else {
			name = fmt.Sprintf("%-12s", name)
		}
		fmt.Fprintf(out, "  %s %8.1f %8.1f\n", name, row.pro, row.con)
	}

	switch {
	case s.Winner == nil:
		fmt.Fprintf(out, "\n  %s\n", mutedStyle.Render(fmt.Sprintf("Tie at %.1f", s.FinalScores.Pro.Total)))
	default:
		fmt.Fprintf(out, "\n  %s\n", winnerStyle.Render(fmt.Sprintf("Winner: %s (%.1f to %.1f)",
			strings.ToUpper(string(*s.Winner)), winningTotal(s), losingTotal(s))))
	}
}

func winningTotal(s *debate.Session) float64 {
	if *s.Winner == debate.SidePro {
		return s.FinalScores.Pro.Total
	}
	return s.FinalScores.Con.Total
}

func losingTotal(s *debate.Session) float64 {
	if *s.Winner == debate.SidePro {
		return s.FinalScores.Con.Total
	}
	return s.FinalScores.Pro.Total
}

// termWidth returns the terminal width clamped to a readable range, with a
// fallback for non-terminal output.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 72
	}
	if width > 100 {
		width = 100
	}
	if width < 40 {
		width = 40
	}
	return width
}
