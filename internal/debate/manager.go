package debate

import (
	"context"
	"fmt"
	"sync"
	"time"

	rerrors "github.com/avandyck/rostrum/internal/errors"
	"github.com/avandyck/rostrum/internal/event"
	"github.com/avandyck/rostrum/internal/logging"
	"github.com/avandyck/rostrum/internal/provider"
)

// Manager drives one session through its lifecycle: the round loop, the
// judging phase, scoring, and progress publication. Mutations are applied
// under the lock and announced on the bus after it is released; consumers
// that need the full state pull a snapshot.
type Manager struct {
	mu       sync.RWMutex
	session  *Session
	progress Progress
	running  bool

	pro    *Debater
	con    *Debater
	judges []*Judge

	bus    *event.Bus
	logger *logging.Logger
}

// NewManager builds the debaters and judge panel for a session. The factory
// is invoked once per participant credential so each participant keeps its
// own request spacing. The bus may be nil for sessions nobody observes.
func NewManager(session *Session, factory provider.Factory, bus *event.Bus, logger *logging.Logger) (*Manager, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.WithSession(session.ID)

	proClient, err := factory(session.Config.Pro.APIKey, session.Config.Pro.Model)
	if err != nil {
		return nil, fmt.Errorf("build pro client: %w", err)
	}
	conClient, err := factory(session.Config.Con.APIKey, session.Config.Con.Model)
	if err != nil {
		return nil, fmt.Errorf("build con client: %w", err)
	}

	judges := make([]*Judge, 0, len(session.Config.Judges))
	for _, jc := range session.Config.Judges {
		client, err := factory(jc.Credential.APIKey, jc.Credential.Model)
		if err != nil {
			return nil, fmt.Errorf("build client for judge %q: %w", jc.Name, err)
		}
		judges = append(judges, NewJudge(jc.Name, session.Topic, session.Background, client, logger.WithJudge(jc.Name)))
	}

	return &Manager{
		session: session,
		progress: Progress{
			Round:       session.CurrentRound(),
			TotalRounds: session.Config.MaxRounds,
		},
		pro:    NewDebater(SidePro, session.Topic, session.Background, proClient, logger),
		con:    NewDebater(SideCon, session.Topic, session.Background, conClient, logger),
		judges: judges,
		bus:    bus,
		logger: logger,
	}, nil
}

// Restore rebuilds a Manager from a persisted snapshot. Transient progress
// starts idle and the loop is not relaunched; use ResumeIfRunnable for
// sessions that were interrupted mid-debate.
func Restore(snapshot *Session, factory provider.Factory, bus *event.Bus, logger *logging.Logger) (*Manager, error) {
	return NewManager(snapshot, factory, bus, logger)
}

// ID returns the session identifier.
func (m *Manager) ID() string {
	return m.session.ID
}

// Status returns the current lifecycle state.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Status
}

// Snapshot returns a deep copy of the session for persistence or display.
func (m *Manager) Snapshot() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Clone()
}

// Progress returns a copy of the live progress view.
func (m *Manager) Progress() Progress {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.progress.Clone()
}

// Start transitions a pending session into the round loop. It returns once
// the loop goroutine is launched; the loop's eventual failure surfaces
// through the error status, not through Start.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return rerrors.ErrAlreadyRunning
	}
	if m.session.Status != StatusPending {
		status := m.session.Status
		m.mu.Unlock()
		return rerrors.NewSessionError(
			fmt.Sprintf("cannot start session in %s status", status), rerrors.ErrNotResumable).
			WithSessionID(m.session.ID)
	}
	m.session.Status = StatusInProgress
	m.session.UpdatedAt = time.Now().UTC()
	m.running = true
	m.mu.Unlock()

	m.logger.Info("debate started", "topic", m.session.Topic, "rounds", m.session.Config.MaxRounds)
	m.publish(event.NewDebateStartedEvent(m.session.ID, m.session.Topic, m.session.Config.MaxRounds))

	go m.run(ctx)
	return nil
}

// ResumeIfRunnable relaunches the round loop for a restored in_progress
// session and reports whether it did. Sessions in any other status, with a
// recorded error, or already running stay as they are.
func (m *Manager) ResumeIfRunnable(ctx context.Context) bool {
	m.mu.Lock()
	if m.running || m.session.Status != StatusInProgress || m.session.ErrorMessage != "" {
		m.mu.Unlock()
		return false
	}
	m.running = true
	next := RoundOfIndex(len(m.session.Messages))
	m.mu.Unlock()

	m.logger.Info("resuming debate", "round", next)
	go m.run(ctx)
	return true
}

// Rejudge clears any partial judge results and re-runs the whole panel.
// Only a session sitting idle in judging status (typically restored after a
// crash mid-panel) can be rejudged; the duplicate judge calls this causes
// are accepted.
func (m *Manager) Rejudge(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return rerrors.ErrAlreadyRunning
	}
	if m.session.Status != StatusJudging {
		status := m.session.Status
		m.mu.Unlock()
		return rerrors.NewSessionError(
			fmt.Sprintf("cannot rejudge session in %s status", status), rerrors.ErrNotResumable).
			WithSessionID(m.session.ID)
	}
	m.running = true
	m.session.JudgeResults = nil
	m.session.UpdatedAt = time.Now().UTC()
	m.mu.Unlock()

	m.logger.Info("rejudging debate")
	go func() {
		defer m.stop()
		m.runJudging(ctx)
	}()
	return nil
}

/// Resume continues an interrupted session: in_progress sessions re-enter the
// round loop and judging sessions get a fresh panel run. Anything else is
// not resumable.
func (m *Manager) Resume(ctx context.Context) error {
	m.mu.RLock()
	status := m.session.Status
	running := m.running
	m.mu.RUnlock()

	if running {
		return rerrors.ErrAlreadyRunning
	}

	switch status {
	case StatusInProgress:
		if !m.ResumeIfRunnable(ctx) {
			return rerrors.NewSessionError("session is not resumable", rerrors.ErrNotResumable).
				WithSessionID(m.session.ID)
		}
		return nil
	case StatusJudging:
		return m.Rejudge(ctx)
	default:
		return rerrors.NewSessionError(
			fmt.Sprintf("cannot resume session in %s status", status), rerrors.ErrNotResumable).
			WithSessionID(m.session.ID)
	}
}

// run is the debate loop. It works off the message count rather than a round
// counter so a session restored mid-round generates only the missing half of
// that round, never replaying recorded turns.
func (m *Manager) run(ctx context.Context) {
	defer m.stop()

	total := m.session.Config.MaxRounds
	for {
		m.mu.RLock()
		count := len(m.session.Messages)
		m.mu.RUnlock()
		if count >= 2*total {
			break
		}

		round := RoundOfIndex(count)
		side := SideOfIndex(count)
		debater := m.pro
		if side == SideCon {
			debater = m.con
		}

		if err := m.runTurn(ctx, debater, round); err != nil {
			m.fail(err)
			return
		}

		if side == SideCon {
			m.publish(event.NewRoundCompletedEvent(m.session.ID, round, total))
		}
	}

	m.runJudging(ctx)
}

// runTurn generates one utterance, streams its deltas into the progress
// view, and appends the finished turn to the transcript.
func (m *Manager) runTurn(ctx context.Context, d *Debater, round int) error {
	side := d.Side()

	m.mu.Lock()
	transcript := cloneTurns(m.session.Messages)
	m.progress.Round = round
	m.setSideProgress(side, SideProgress{Thinking: true})
	m.mu.Unlock()

	m.publish(event.NewTurnStartedEvent(m.session.ID, string(side), round))

	onDelta := func(delta string) {
		m.mu.Lock()
		p := m.sideProgress(side)
		p.Thinking = false
		p.PartialText += delta
		m.mu.Unlock()
		m.publish(event.NewTurnDeltaEvent(m.session.ID, string(side), round, delta))
	}

	text, err := d.GenerateTurn(ctx, transcript, onDelta)
	if err != nil {
		return err
	}

	m.mu.Lock()
	index := len(m.session.Messages)
	m.session.Messages = append(m.session.Messages, Turn{
		Side:      side,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
	m.session.UpdatedAt = time.Now().UTC()
	m.setSideProgress(side, SideProgress{})
	m.mu.Unlock()

	m.publish(event.NewTurnCompletedEvent(m.session.ID, string(side), round, index, text))
	return nil
}

// runJudging scores the finished transcript with the full panel, then
// aggregates and completes the session. Judges run sequentially so progress
// is deterministic; every judge yields a usable result.
func (m *Manager) runJudging(ctx context.Context) {
	panel := len(m.judges)

	m.mu.Lock()
	m.session.Status = StatusJudging
	m.session.UpdatedAt = time.Now().UTC()
	transcript := cloneTurns(m.session.Messages)
	m.progress.Judging = &JudgingProgress{JudgeCount: panel}
	m.mu.Unlock()

	m.logger.Info("judging started", "judges", panel)
	m.publish(event.NewJudgingStartedEvent(m.session.ID, panel))

	for i, judge := range m.judges {
		m.mu.Lock()
		m.progress.Judging.JudgeIndex = i + 1
		m.progress.Judging.JudgeName = judge.Name()
		m.mu.Unlock()

		m.publish(event.NewJudgeStartedEvent(m.session.ID, i+1, panel, judge.Name()))

		result := judge.Evaluate(ctx, transcript)

		m.mu.Lock()
		m.session.JudgeResults = append(m.session.JudgeResults, result)
		m.session.UpdatedAt = time.Now().UTC()
		m.progress.Judging.Highlight = &JudgeHighlight{
			JudgeName: result.JudgeName,
			ProTotal:  result.Pro.Total,
			ConTotal:  result.Con.Total,
		}
		m.mu.Unlock()

		m.publish(event.NewJudgeCompletedEvent(m.session.ID, i+1, panel, result.JudgeName, result.Pro.Total, result.Con.Total))
	}

	m.mu.Lock()
	scores := Aggregate(m.session.JudgeResults)
	winner := DetermineWinner(scores)
	m.session.FinalScores = &scores
	m.session.Winner = winner
	m.session.Status = StatusCompleted
	m.session.UpdatedAt = time.Now().UTC()
	m.progress.Judging = nil
	m.mu.Unlock()

	name := ""
	if winner != nil {
		name = string(*winner)
	}
	m.logger.Info("debate completed", "winner", name, "pro_total", scores.Pro.Total, "con_total", scores.Con.Total)
	m.publish(event.NewDebateCompletedEvent(m.session.ID, name, scores.Pro.Total, scores.Con.Total))
}

// fail moves the session to the error state. The loop halts permanently;
// recreating the debate is the only recovery path.
func (m *Manager) fail(err error) {
	m.mu.Lock()
	m.session.Status = StatusError
	m.session.ErrorMessage = err.Error()
	m.session.UpdatedAt = time.Now().UTC()
	m.progress.Pro = SideProgress{}
	m.progress.Con = SideProgress{}
	m.progress.Judging = nil
	m.mu.Unlock()

	m.logger.Error("debate failed", "error", err)
	m.publish(event.NewDebateFailedEvent(m.session.ID, err.Error()))
}

func (m *Manager) stop() {
	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
}

func (m *Manager) sideProgress(side Side) *SideProgress {
	if side == SidePro {
		return &m.progress.Pro
	}
	return &m.progress.Con
}

func (m *Manager) setSideProgress(side Side, p SideProgress) {
	*m.sideProgress(side) = p
}

func (m *Manager) publish(e event.Event) {
	if m.bus != nil {
		m.bus.Publish(e)
	}
}
