package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/avandyck/rostrum/internal/debate"
	rerrors "github.com/avandyck/rostrum/internal/errors"
	"github.com/avandyck/rostrum/internal/event"
	"github.com/avandyck/rostrum/internal/logging"
	"github.com/avandyck/rostrum/internal/provider"
)

const (
	dirPerm      = 0700
	snapshotPerm = 0600

	writeAttempts  = 3
	writeRetryBase = 100 * time.Millisecond
)

// mutationEvents are the bus events that change the persisted form of a
// session and therefore signal its writer. Deltas and per-turn start events
// are progress-only and stay out of the set.
var mutationEvents = map[string]bool{
	"debate.created":         true,
	"debate.started":         true,
	"debate.turn_completed":  true,
	"debate.judging_started": true,
	"debate.judge_completed": true,
	"debate.completed":       true,
	"debate.failed":          true,
}

// Store owns the data directory and the registry of live sessions. All
// snapshot writes for one session go through that session's writer
// goroutine, so a snapshot on disk is always a complete document some
// mutation produced.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	closed  bool

	dataDir string
	factory provider.Factory
	bus     *event.Bus
	subID   string

	wg sync.WaitGroup

	base   *logging.Logger
	logger *logging.Logger
}

// entry pairs a live Manager with its persistence writer.
type entry struct {
	manager *debate.Manager
	writer  *writer
}

// Summary is the list view of a session, for the sessions table and the
// list endpoint.
type Summary struct {
	ID        string        `json:"id"`
	Topic     string        `json:"topic"`
	Status    debate.Status `json:"status"`
	Rounds    int           `json:"rounds"`
	MaxRounds int           `json:"max_rounds"`
	Winner    *debate.Side  `json:"winner"`
	Active    bool          `json:"active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// New opens a store rooted at dataDir, creating the directory layout if
// needed. The factory builds provider clients for restored and created
// sessions; the bus, when present, drives mutation-triggered persistence.
func New(dataDir string, factory provider.Factory, bus *event.Bus, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	s := &Store{
		entries: make(map[string]*entry),
		dataDir: dataDir,
		factory: factory,
		bus:     bus,
		base:    logger,
		logger:  logger.WithComponent("store"),
	}

	for _, dir := range []string{dataDir, s.sessionsDir(), s.quarantineDir(), s.archiveDir(), s.logsDir()} {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, rerrors.NewStoreError("create data directory", err).WithPath(dir)
		}
	}

	if bus != nil {
		s.subID = bus.SubscribeAll(s.onEvent)
	}
	return s, nil
}

// Create validates the request, registers a new Manager, and persists the
// initial snapshot synchronously. A session whose first write fails is not
// created.
func (s *Store) Create(ctx context.Context, req debate.NewSessionRequest) (*debate.Manager, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.isClosed() {
		return nil, rerrors.ErrStoreClosed
	}

	session := debate.NewSession(req)
	manager, err := debate.NewManager(session, s.factory, s.bus, s.base)
	if err != nil {
		return nil, err
	}

	snapshot := manager.Snapshot()
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return nil, rerrors.NewStoreError("encode snapshot", err)
	}
	path := s.sessionPath(session.ID)
	if err := atomicWriteFile(path, data, snapshotPerm); err != nil {
		return nil, rerrors.NewStoreError("persist new session", err).WithPath(path)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, rerrors.ErrStoreClosed
	}
	if _, exists := s.entries[session.ID]; exists {
		s.mu.Unlock()
		return nil, rerrors.NewSessionError("duplicate session id", rerrors.ErrSessionExists).
			WithSessionID(session.ID)
	}
	s.entries[session.ID] = s.startEntry(manager)
	s.mu.Unlock()

	s.logger.Info("session created", "session_id", session.ID, "topic", session.Topic, "rounds", session.Config.MaxRounds)
	s.publish(event.NewDebateCreatedEvent(session.ID, session.Topic))
	return manager, nil
}

// Get returns the Manager for a session, restoring it from disk when it is
// not in memory. Restored sessions that were interrupted mid-debate resume
// their round loop immediately.
func (s *Store) Get(ctx context.Context, id string) (*debate.Manager, error) {
	if !validID(id) {
		return nil, rerrors.NewNotFoundError("session", id)
	}

	s.mu.RLock()
	closed := s.closed
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if closed {
		return nil, rerrors.ErrStoreClosed
	}
	if ok {
		return e.manager, nil
	}
	return s.restoreFromDisk(ctx, id)
}

// List merges live sessions with on-disk snapshots, newest first. Snapshots
// that fail to decode are skipped with a warning; Get is the path that
// quarantines them.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, rerrors.ErrStoreClosed
	}
	managers := make(map[string]*debate.Manager, len(s.entries))
	for id, e := range s.entries {
		managers[id] = e.manager
	}
	s.mu.RUnlock()

	summaries := make(map[string]Summary, len(managers))
	for id, m := range managers {
		summaries[id] = summarize(m.Snapshot(), true)
	}

	dirEntries, err := os.ReadDir(s.sessionsDir())
	if err != nil && !os.IsNotExist(err) {
		return nil, rerrors.NewStoreError("list sessions", err).WithPath(s.sessionsDir())
	}
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		if _, ok := summaries[id]; ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.sessionsDir(), name))
		if err != nil {
			s.logger.Warn("skipping unreadable snapshot", "path", name, "error", err)
			continue
		}
		snapshot, err := DecodeSnapshot(data)
		if err != nil {
			s.logger.Warn("skipping undecodable snapshot", "path", name, "error", err)
			continue
		}
		summaries[id] = summarize(snapshot, false)
	}

	out := make([]Summary, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Archive moves a terminal session's snapshot to the archive directory and
// evicts it from the registry. The session's writer is drained first so the
// move never races a write.
func (s *Store) Archive(ctx context.Context, id string) error {
	if !validID(id) {
		return rerrors.NewNotFoundError("session", id)
	}

	s.mu.RLock()
	closed := s.closed
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if closed {
		return rerrors.ErrStoreClosed
	}

	if ok {
		status := e.manager.Status()
		if !status.Terminal() {
			return rerrors.NewSessionError(
				fmt.Sprintf("cannot archive session in %s status", status), rerrors.ErrSessionActive).
				WithSessionID(id)
		}
		e.writer.stop()

		if err := s.moveToArchive(id, e.manager.Snapshot()); err != nil {
			return err
		}

		s.mu.Lock()
		delete(s.entries, id)
		s.mu.Unlock()

		s.logger.Info("session archived", "session_id", id, "status", status)
		return nil
	}

	// Disk-only session.
	data, err := os.ReadFile(s.sessionPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return rerrors.NewNotFoundError("session", id)
		}
		return rerrors.NewStoreError("read snapshot", err).WithPath(s.sessionPath(id))
	}
	snapshot, err := DecodeSnapshot(data)
	if err != nil {
		s.quarantine(id, data, err)
		return rerrors.NewNotFoundError("session", id)
	}
	if !snapshot.Status.Terminal() {
		return rerrors.NewSessionError(
			fmt.Sprintf("cannot archive session in %s status", snapshot.Status), rerrors.ErrSessionActive).
			WithSessionID(id)
	}
	if err := s.moveToArchive(id, nil); err != nil {
		return err
	}
	s.logger.Info("session archived", "session_id", id, "status", snapshot.Status)
	return nil
}

// Close stops all persistence writers, draining any pending write, and
// detaches from the bus. Running debate loops are not interrupted; their
// later mutations are simply no longer persisted.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	writers := make([]*writer, 0, len(s.entries))
	for _, e := range s.entries {
		writers = append(writers, e.writer)
	}
	s.mu.Unlock()

	if s.bus != nil && s.subID != "" {
		s.bus.Unsubscribe(s.subID)
	}
	for _, w := range writers {
		w.stop()
	}
	s.wg.Wait()

	s.logger.Info("store closed", "sessions", len(writers))
	return nil
}

// restoreFromDisk loads, validates, and registers a snapshot. Invalid
// snapshots are quarantined with their reason and reported as not found.
func (s *Store) restoreFromDisk(ctx context.Context, id string) (*debate.Manager, error) {
	path := s.sessionPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, rerrors.NewNotFoundError("session", id)
		}
		return nil, rerrors.NewStoreError("read snapshot", err).WithPath(path)
	}

	snapshot, err := DecodeSnapshot(data)
	if err == nil {
		err = debate.ValidateSnapshot(snapshot)
	}
	if err == nil && snapshot.ID != id {
		err = fmt.Errorf("snapshot id %q does not match file name", snapshot.ID)
	}
	if err != nil {
		s.quarantine(id, data, err)
		return nil, rerrors.NewNotFoundError("session", id)
	}

	manager, err := debate.Restore(snapshot, s.factory, s.bus, s.base)
	if err != nil {
		return nil, rerrors.NewSessionError("restore session", err).WithSessionID(id)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, rerrors.ErrStoreClosed
	}
	if existing, ok := s.entries[id]; ok {
		// Another Get restored it first; keep that one.
		s.mu.Unlock()
		return existing.manager, nil
	}
	s.entries[id] = s.startEntry(manager)
	s.mu.Unlock()

	s.logger.Info("session restored", "session_id", id, "status", snapshot.Status)
	// The debate outlives the request that happened to trigger recovery.
	if manager.ResumeIfRunnable(context.WithoutCancel(ctx)) {
		s.logger.Info("restored session resumed", "session_id", id)
	}
	return manager, nil
}

// quarantine moves a bad snapshot out of sessions/ with a reason sidecar.
// The bytes are preserved, never deleted.
func (s *Store) quarantine(id string, data []byte, reason error) {
	name := fmt.Sprintf("%s.%d.json", id, time.Now().Unix())
	dest := filepath.Join(s.quarantineDir(), name)

	if err := os.Rename(s.sessionPath(id), dest); err != nil {
		// Fall back to copying the bytes we already read.
		if werr := atomicWriteFile(dest, data, snapshotPerm); werr != nil {
			s.logger.Error("quarantine failed", "session_id", id, "error", werr)
			return
		}
	}
	if err := os.WriteFile(dest+".reason", []byte(reason.Error()+"\n"), snapshotPerm); err != nil {
		s.logger.Warn("quarantine reason not written", "session_id", id, "error", err)
	}
	s.logger.Warn("snapshot quarantined", "session_id", id, "path", dest, "reason", reason)
}

// moveToArchive relocates the canonical snapshot. When the file is missing
// (every write failed) and a live snapshot is available, it is written to
// the archive directly.
func (s *Store) moveToArchive(id string, fallback *debate.Session) error {
	src := s.sessionPath(id)
	dst := filepath.Join(s.archiveDir(), id+".json")

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return rerrors.NewStoreError("archive snapshot", err).WithPath(src)
	}
	if fallback == nil {
		return rerrors.NewNotFoundError("session", id)
	}
	data, encErr := EncodeSnapshot(fallback)
	if encErr != nil {
		return rerrors.NewStoreError("encode snapshot", encErr)
	}
	if werr := atomicWriteFile(dst, data, snapshotPerm); werr != nil {
		return rerrors.NewStoreError("archive snapshot", werr).WithPath(dst)
	}
	return nil
}

// onEvent signals the owning session's writer for events that change the
// persisted form.
func (s *Store) onEvent(e event.Event) {
	if !mutationEvents[e.EventType()] {
		return
	}
	se, ok := e.(event.SessionEvent)
	if !ok {
		return
	}

	s.mu.RLock()
	entry, ok := s.entries[se.SessionID()]
	closed := s.closed
	s.mu.RUnlock()
	if !ok || closed {
		return
	}
	entry.writer.signal()
}

// persistSnapshot writes one snapshot with bounded retries. Exhaustion is
// surfaced on the bus and logged; the debate keeps running either way.
func (s *Store) persistSnapshot(snapshot *debate.Session) {
	path := s.sessionPath(snapshot.ID)
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		s.logger.Error("snapshot encode failed", "session_id", snapshot.ID, "error", err)
		s.publish(event.NewStoreWriteFailedEvent(snapshot.ID, path, err.Error()))
		return
	}

	var lastErr error
	delay := writeRetryBase
	for attempt := range writeAttempts {
		if attempt > 0 {
			time.Sleep(delay)
			delay *= 2
		}
		if lastErr = atomicWriteFile(path, data, snapshotPerm); lastErr == nil {
			return
		}
	}

	s.logger.Error("snapshot write failed", "session_id", snapshot.ID, "path", path, "error", lastErr)
	s.publish(event.NewStoreWriteFailedEvent(snapshot.ID, path, lastErr.Error()))
}

// startEntry registers a writer goroutine for a manager. Caller holds the
// write lock.
func (s *Store) startEntry(manager *debate.Manager) *entry {
	w := &writer{
		store:   s,
		manager: manager,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		w.loop()
	}()
	return &entry{manager: manager, writer: w}
}

func (s *Store) publish(e event.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Store) sessionsDir() string   { return filepath.Join(s.dataDir, "sessions") }
func (s *Store) quarantineDir() string { return filepath.Join(s.dataDir, "quarantine") }
func (s *Store) archiveDir() string    { return filepath.Join(s.dataDir, "archive") }
func (s *Store) logsDir() string       { return filepath.Join(s.dataDir, "logs") }

func (s *Store) sessionPath(id string) string {
	return SessionPath(s.dataDir, id)
}

// SessionPath returns where a session's snapshot lives under dataDir. The
// watch command uses it to follow a debate owned by another process.
func SessionPath(dataDir, id string) string {
	return filepath.Join(dataDir, "sessions", id+".json")
}

// validID rejects ids that could escape the sessions directory.
func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

func summarize(s *debate.Session, active bool) Summary {
	summary := Summary{
		ID:        s.ID,
		Topic:     s.Topic,
		Status:    s.Status,
		Rounds:    s.CurrentRound(),
		MaxRounds: s.Config.MaxRounds,
		Active:    active,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Winner != nil {
		winner := *s.Winner
		summary.Winner = &winner
	}
	return summary
}

// writer serializes snapshot writes for one session. Signals coalesce: a
// burst of mutations while a write is in flight produces one further write
// of the latest snapshot.
type writer struct {
	store   *Store
	manager *debate.Manager
	notify  chan struct{}
	done    chan struct{}
	exited  chan struct{}
	once    sync.Once
}

func (w *writer) loop() {
	defer close(w.exited)
	for {
		select {
		case <-w.notify:
			w.store.persistSnapshot(w.manager.Snapshot())
		case <-w.done:
			// Drain the pending signal so the final mutation lands on disk.
			select {
			case <-w.notify:
				w.store.persistSnapshot(w.manager.Snapshot())
			default:
			}
			return
		}
	}
}

// signal requests a write of the current snapshot. Never blocks.
func (w *writer) signal() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// stop ends the loop after draining any pending write. Safe to call more
// than once.
func (w *writer) stop() {
	w.once.Do(func() { close(w.done) })
	<-w.exited
}
