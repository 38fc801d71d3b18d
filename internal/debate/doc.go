// Package debate implements the debate orchestration core: the session
// aggregate, the round-loop state machine, the judging panel, and the
// trimmed-mean scoring that determines a winner.
//
// # Session Lifecycle
//
// A session progresses through five states:
//
//   - pending: Session created but the round loop has not started
//   - in_progress: The two sides are producing turns, pro then con each round
//   - judging: All rounds complete; the panel scores the transcript
//   - completed: Final scores and winner are set
//   - error: An unrecoverable failure halted the session
//
// in_progress is re-entrant: a session restored from a snapshot resumes the
// round loop from the next incomplete round.
//
// # Scoring
//
// Each of the six judges scores both sides on logic, evidence, rebuttal, and
// expression (0-100), combined into a weighted composite. The final score
// per category and for the overall total is a trimmed mean across the panel:
// drop the single highest and single lowest value, average the remaining
// four. Strictly greater overall total wins; equal totals are a tie.
//
// # Usage
//
//	session := debate.NewSession(req)
//	mgr, err := debate.NewManager(session, factory, bus, logger)
//	if err != nil {
//		return err
//	}
//	if err := mgr.Start(ctx); err != nil {
//		return err
//	}
//	// ... poll mgr.Snapshot() / mgr.Progress(), or subscribe on the bus
//
// # Thread Safety
//
// Manager is safe for concurrent use. Snapshot and Progress return deep
// copies, so readers never observe a torn state while the loop is running.
package debate
