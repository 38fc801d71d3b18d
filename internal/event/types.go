package event

import "time"

// Event is the interface that all events must implement.
// It provides a common way to identify and timestamp events.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "debate.started", "store.write_failed")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// SessionEvent is implemented by events scoped to a single debate session.
// The store and the live feed use it to route events without type switches.
type SessionEvent interface {
	Event

	// SessionID returns the id of the debate session the event belongs to.
	SessionID() string
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// sessionEvent extends baseEvent with the owning session id.
// Embed this in events that pertain to one debate session.
type sessionEvent struct {
	baseEvent
	sessionID string
}

func (e sessionEvent) SessionID() string { return e.sessionID }

// newSessionEvent creates a sessionEvent with the current time.
func newSessionEvent(eventType, sessionID string) sessionEvent {
	return sessionEvent{
		baseEvent: newBaseEvent(eventType),
		sessionID: sessionID,
	}
}

// -----------------------------------------------------------------------------
// Debate Lifecycle Events
// -----------------------------------------------------------------------------

// DebateCreatedEvent is emitted when a new debate session is registered.
type DebateCreatedEvent struct {
	sessionEvent
	Topic string // Topic under debate
}

// NewDebateCreatedEvent creates a DebateCreatedEvent.
func NewDebateCreatedEvent(sessionID, topic string) DebateCreatedEvent {
	return DebateCreatedEvent{
		sessionEvent: newSessionEvent("debate.created", sessionID),
		Topic:        topic,
	}
}

// DebateStartedEvent is emitted when the debate loop begins running.
type DebateStartedEvent struct {
	sessionEvent
	Topic       string // Topic under debate
	TotalRounds int    // Number of rounds the debate will run
}

// NewDebateStartedEvent creates a DebateStartedEvent.
func NewDebateStartedEvent(sessionID, topic string, totalRounds int) DebateStartedEvent {
	return DebateStartedEvent{
		sessionEvent: newSessionEvent("debate.started", sessionID),
		Topic:        topic,
		TotalRounds:  totalRounds,
	}
}

// DebateCompletedEvent is emitted when judging finishes and the verdict is
// recorded. Winner is "pro" or "con", or empty when the panel tied.
type DebateCompletedEvent struct {
	sessionEvent
	Winner   string  // Winning side, empty on a tie
	ProTotal float64 // Aggregated total score for the pro side
	ConTotal float64 // Aggregated total score for the con side
}

// NewDebateCompletedEvent creates a DebateCompletedEvent.
func NewDebateCompletedEvent(sessionID, winner string, proTotal, conTotal float64) DebateCompletedEvent {
	return DebateCompletedEvent{
		sessionEvent: newSessionEvent("debate.completed", sessionID),
		Winner:       winner,
		ProTotal:     proTotal,
		ConTotal:     conTotal,
	}
}

// DebateFailedEvent is emitted when the debate halts on an error.
type DebateFailedEvent struct {
	sessionEvent
	Reason string // Human-readable failure description
}

// NewDebateFailedEvent creates a DebateFailedEvent.
func NewDebateFailedEvent(sessionID, reason string) DebateFailedEvent {
	return DebateFailedEvent{
		sessionEvent: newSessionEvent("debate.failed", sessionID),
		Reason:       reason,
	}
}

// -----------------------------------------------------------------------------
// Turn Progress Events
// -----------------------------------------------------------------------------

// TurnStartedEvent is emitted when a side begins generating its turn.
type TurnStartedEvent struct {
	sessionEvent
	Side  string // "pro" or "con"
	Round int    // 1-based round number
}

// NewTurnStartedEvent creates a TurnStartedEvent.
func NewTurnStartedEvent(sessionID, side string, round int) TurnStartedEvent {
	return TurnStartedEvent{
		sessionEvent: newSessionEvent("debate.turn_started", sessionID),
		Side:         side,
		Round:        round,
	}
}

// TurnDeltaEvent is emitted for each text fragment streamed while a side
// generates its turn. Deltas are volatile progress; the full text arrives
// with TurnCompletedEvent.
type TurnDeltaEvent struct {
	sessionEvent
	Side  string // "pro" or "con"
	Round int    // 1-based round number
	Delta string // Appended text fragment
}

// NewTurnDeltaEvent creates a TurnDeltaEvent.
func NewTurnDeltaEvent(sessionID, side string, round int, delta string) TurnDeltaEvent {
	return TurnDeltaEvent{
		sessionEvent: newSessionEvent("debate.turn_delta", sessionID),
		Side:         side,
		Round:        round,
		Delta:        delta,
	}
}

// TurnCompletedEvent is emitted when a finished turn is appended to the
// transcript.
type TurnCompletedEvent struct {
	sessionEvent
	Side  string // "pro" or "con"
	Round int    // 1-based round number
	Index int    // 0-based position in the transcript
	Text  string // Full text of the turn
}

// NewTurnCompletedEvent creates a TurnCompletedEvent.
func NewTurnCompletedEvent(sessionID, side string, round, index int, text string) TurnCompletedEvent {
	return TurnCompletedEvent{
		sessionEvent: newSessionEvent("debate.turn_completed", sessionID),
		Side:         side,
		Round:        round,
		Index:        index,
		Text:         text,
	}
}

// RoundCompletedEvent is emitted after both sides have spoken in a round.
type RoundCompletedEvent struct {
	sessionEvent
	Round       int // 1-based round number that just finished
	TotalRounds int // Number of rounds the debate will run
}

// NewRoundCompletedEvent creates a RoundCompletedEvent.
func NewRoundCompletedEvent(sessionID string, round, totalRounds int) RoundCompletedEvent {
	return RoundCompletedEvent{
		sessionEvent: newSessionEvent("debate.round_completed", sessionID),
		Round:        round,
		TotalRounds:  totalRounds,
	}
}

// -----------------------------------------------------------------------------
// Judging Events
// -----------------------------------------------------------------------------

// JudgingStartedEvent is emitted when all rounds are complete and the panel
// begins evaluating the transcript.
type JudgingStartedEvent struct {
	sessionEvent
	JudgeCount int // Size of the judging panel
}

// NewJudgingStartedEvent creates a JudgingStartedEvent.
func NewJudgingStartedEvent(sessionID string, judgeCount int) JudgingStartedEvent {
	return JudgingStartedEvent{
		sessionEvent: newSessionEvent("debate.judging_started", sessionID),
		JudgeCount:   judgeCount,
	}
}

// JudgeStartedEvent is emitted as each panelist starts evaluating.
type JudgeStartedEvent struct {
	sessionEvent
	JudgeIndex int    // 0-based position on the panel
	JudgeCount int    // Size of the judging panel
	JudgeName  string // Display name of the judge
}

// NewJudgeStartedEvent creates a JudgeStartedEvent.
func NewJudgeStartedEvent(sessionID string, judgeIndex, judgeCount int, judgeName string) JudgeStartedEvent {
	return JudgeStartedEvent{
		sessionEvent: newSessionEvent("debate.judge_started", sessionID),
		JudgeIndex:   judgeIndex,
		JudgeCount:   judgeCount,
		JudgeName:    judgeName,
	}
}

// JudgeCompletedEvent is emitted as each panelist's scorecard is recorded.
type JudgeCompletedEvent struct {
	sessionEvent
	JudgeIndex int     // 0-based position on the panel
	JudgeCount int     // Size of the judging panel
	JudgeName  string  // Display name of the judge
	ProTotal   float64 // Composite total this judge gave the pro side
	ConTotal   float64 // Composite total this judge gave the con side
}

// NewJudgeCompletedEvent creates a JudgeCompletedEvent.
func NewJudgeCompletedEvent(sessionID string, judgeIndex, judgeCount int, judgeName string, proTotal, conTotal float64) JudgeCompletedEvent {
	return JudgeCompletedEvent{
		sessionEvent: newSessionEvent("debate.judge_completed", sessionID),
		JudgeIndex:   judgeIndex,
		JudgeCount:   judgeCount,
		JudgeName:    judgeName,
		ProTotal:     proTotal,
		ConTotal:     conTotal,
	}
}

// -----------------------------------------------------------------------------
// Store Events
// -----------------------------------------------------------------------------

// StoreWriteFailedEvent is emitted when a session snapshot write fails after
// exhausting its retries. The session keeps running; the snapshot on disk is
// stale until the next successful write.
type StoreWriteFailedEvent struct {
	sessionEvent
	Path  string // Destination path of the failed write
	Error string // Final error message
}

// NewStoreWriteFailedEvent creates a StoreWriteFailedEvent.
func NewStoreWriteFailedEvent(sessionID, path, errMsg string) StoreWriteFailedEvent {
	return StoreWriteFailedEvent{
		sessionEvent: newSessionEvent("store.write_failed", sessionID),
		Path:         path,
		Error:        errMsg,
	}
}
