package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/avandyck/rostrum/internal/config"
	"github.com/avandyck/rostrum/internal/debate"
	"github.com/avandyck/rostrum/internal/store"
)

var watchCmd = &cobra.Command{
	Use:   "watch <session-id>",
	Short: "Follow a running debate live",
	Long: `Watch tails a session's snapshot file and renders the debate as it
progresses: the transcript in a scrollable view, the current speaker or
judging progress in the header. It never takes ownership of the debate, so
it can follow a session run by 'rostrum serve' or another terminal.

The view closes on its own once the debate settles; press q to leave
earlier.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	dataDir := cfg.Store.ResolveDataDir()
	id := args[0]

	session, err := readSnapshot(dataDir, id)
	if err != nil {
		return err
	}

	updates := make(chan tea.Msg, 8)
	stop, err := tailSnapshot(store.SessionPath(dataDir, id), session.UpdatedAt, updates)
	if err != nil {
		return err
	}
	defer stop()

	model := newWatchModel(id, session, updates)
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("watch error: %w", err)
	}

	// The alt screen is gone; leave a durable record in the terminal.
	if m, ok := final.(watchModel); ok {
		if m.err != nil {
			return m.err
		}
		if m.session != nil && m.session.Status.Terminal() {
			printStatus(cmd.OutOrStdout(), m.session, false)
		}
	}
	return nil
}

// tailSnapshot pushes a freshly decoded session into updates whenever the
// snapshot file changes. The file is replaced by rename on every write, so
// the watch sits on the directory; a slow poll backstops missed events. The
// returned func stops the tail.
func tailSnapshot(path string, lastSeen time.Time, updates chan<- tea.Msg) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	done := make(chan struct{})
	go func() {
		// Debounce rapid write bursts into one re-read.
		debounce := time.NewTimer(time.Hour)
		defer debounce.Stop()
		poll := time.NewTicker(2 * time.Second)
		defer poll.Stop()

		push := func(msg tea.Msg) {
			select {
			case updates <- msg:
			default: // the view is behind; it will catch up on the next push
			}
		}
		reload := func() {
			data, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					push(watchGoneMsg{})
				}
				return
			}
			session, err := store.DecodeSnapshot(data)
			if err != nil {
				// Mid-rename reads can hand us a vanished or partial file;
				// the poll retries shortly.
				return
			}
			if session.UpdatedAt.After(lastSeen) || session.Status.Terminal() {
				lastSeen = session.UpdatedAt
				push(watchSnapshotMsg{session: session})
			}
		}

		for {
			select {
			case <-done:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != filepath.Base(path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				debounce.Reset(100 * time.Millisecond)
			case <-debounce.C:
				reload()
			case <-poll.C:
				reload()
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}

type (
	watchSnapshotMsg struct{ session *debate.Session }
	watchGoneMsg     struct{}
)

// relayUpdates hands the next tail message to the program.
func relayUpdates(updates <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-updates }
}

type watchModel struct {
	id       string
	updates  <-chan tea.Msg
	spinner  spinner.Model
	viewport viewport.Model
	session  *debate.Session
	err      error
	width    int
	height   int
	ready    bool
}

func newWatchModel(id string, session *debate.Session, updates <-chan tea.Msg) watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accentColor)

	return watchModel{
		id:       id,
		updates:  updates,
		spinner:  sp,
		viewport: viewport.New(0, 0),
		session:  session,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, relayUpdates(m.updates))
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - headerHeight - footerHeight
		if m.viewport.Height < 1 {
			m.viewport.Height = 1
		}
		m.ready = true
		m.setContent()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case watchSnapshotMsg:
		atBottom := m.viewport.AtBottom()
		m.session = msg.session
		m.setContent()
		if atBottom {
			m.viewport.GotoBottom()
		}
		if m.session.Status.Terminal() {
			return m, tea.Quit
		}
		return m, relayUpdates(m.updates)

	case watchGoneMsg:
		m.err = fmt.Errorf("session %s disappeared (archived or quarantined)", m.id)
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

const (
	headerHeight = 4
	footerHeight = 1
)

func (m watchModel) View() string {
	if !m.ready || m.session == nil {
		return m.spinner.View() + " loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(truncate(m.session.Topic, m.width)) + "\n")
	b.WriteString(mutedStyle.Render("session "+m.id) + "\n")
	b.WriteString(m.statusLine() + "\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", max(m.width, 1))) + "\n")
	b.WriteString(m.viewport.View() + "\n")
	b.WriteString(mutedStyle.Render("q quit · ↑/↓ scroll"))
	return b.String()
}

// statusLine summarizes what the debate is doing right now. Partial turn
// text never reaches the snapshot, so activity is inferred from the
// transcript length.
func (m watchModel) statusLine() string {
	s := m.session
	switch s.Status {
	case debate.StatusPending:
		return mutedStyle.Render("pending · waiting for the debate to start")
	case debate.StatusInProgress:
		next := debate.SideOfIndex(len(s.Messages))
		round := debate.RoundOfIndex(len(s.Messages))
		return fmt.Sprintf("%s %s round %d of %d · waiting on %s",
			m.spinner.View(),
			statusStyle(s.Status).Render("in progress"),
			round, s.Config.MaxRounds,
			sideStyle(next).Render(strings.ToUpper(string(next))))
	case debate.StatusJudging:
		return fmt.Sprintf("%s %s %d of %d scorecards in",
			m.spinner.View(),
			statusStyle(s.Status).Render("judging"),
			len(s.JudgeResults), len(s.Config.Judges))
	case debate.StatusError:
		return errorStyle.Render("failed: " + s.ErrorMessage)
	default:
		return statusStyle(s.Status).Render(string(s.Status))
	}
}

// setContent rebuilds the transcript view from the current snapshot.
func (m *watchModel) setContent() {
	if !m.ready || m.session == nil {
		return
	}

	width := m.viewport.Width
	if width <= 0 {
		width = 72
	}
	body := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for i, turn := range m.session.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		label := fmt.Sprintf("─ Round %d · %s ", debate.RoundOfIndex(i), strings.ToUpper(string(turn.Side)))
		rest := width - len(label)
		if rest < 0 {
			rest = 0
		}
		b.WriteString(sideStyle(turn.Side).Render(label) + mutedStyle.Render(strings.Repeat("─", rest)) + "\n")
		b.WriteString(body.Render(turn.Text) + "\n")
	}
	for _, result := range m.session.JudgeResults {
		b.WriteString(fmt.Sprintf("  %-16s pro %5.1f · con %5.1f\n", result.JudgeName, result.Pro.Total, result.Con.Total))
	}
	m.viewport.SetContent(b.String())
}

func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}
