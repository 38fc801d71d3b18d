// Package event provides a pub-sub event bus for decoupled inter-component
// communication in Rostrum.
//
// This package enables loose coupling between the debate engine, the store,
// the HTTP API, and the CLI by allowing them to communicate through events
// rather than direct method calls. The debate engine publishes progress as it
// runs without knowing who listens; the store persists snapshots in response
// to mutation events; the live websocket feed forwards every event for a
// session to connected clients.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [SessionEvent]: Events scoped to a single debate session, adding SessionID()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Debate Lifecycle:
//   - [DebateCreatedEvent]: Emitted when a session is created
//   - [DebateStartedEvent]: Emitted when the debate loop begins
//   - [DebateCompletedEvent]: Emitted when judging finishes and a verdict exists
//   - [DebateFailedEvent]: Emitted when the debate halts on an error
//
// Turn Progress:
//   - [TurnStartedEvent]: Emitted when a side begins generating a turn
//   - [TurnDeltaEvent]: Emitted for each streamed text fragment
//   - [TurnCompletedEvent]: Emitted when a turn is appended to the transcript
//   - [RoundCompletedEvent]: Emitted after both sides have spoken
//
// Judging:
//   - [JudgingStartedEvent]: Emitted when the judging phase begins
//   - [JudgeStartedEvent]: Emitted as each panelist starts evaluating
//   - [JudgeCompletedEvent]: Emitted as each panelist's scores are recorded
//
// Store:
//   - [StoreWriteFailedEvent]: Emitted when a snapshot write exhausts its retries
//
// Event payloads are plain values (strings, ints, floats). Consumers that need
// full session state pull a snapshot from the session manager; events only say
// that something happened and where to look.
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Multiple goroutines can publish
// and subscribe concurrently. Handlers are called synchronously and protected
// against panics - a panicking handler will not prevent other handlers from
// being called.
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	// Subscribe to specific event types
//	bus.Subscribe("debate.turn_completed", func(e event.Event) {
//	    turn := e.(event.TurnCompletedEvent)
//	    log.Printf("Turn %d (%s) finished", turn.Index, turn.Side)
//	})
//
//	// Subscribe to all events (useful for persistence and live feeds)
//	bus.SubscribeAll(func(e event.Event) {
//	    if se, ok := e.(event.SessionEvent); ok {
//	        log.Printf("%s: %s", se.SessionID(), se.EventType())
//	    }
//	})
//
//	// Publish events
//	bus.Publish(event.NewDebateStartedEvent("ses-1", "Topic under debate", 3))
//
//	// Unsubscribe when done
//	id := bus.Subscribe("debate.completed", handler)
//	bus.Unsubscribe(id)
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - debate.created, debate.started, debate.completed, debate.failed
//   - debate.turn_started, debate.turn_delta, debate.turn_completed, debate.round_completed
//   - debate.judging_started, debate.judge_started, debate.judge_completed
//   - store.write_failed
package event
