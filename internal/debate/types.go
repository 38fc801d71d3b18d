package debate

import "time"

// Side identifies which debater a turn or score belongs to.
type Side string

const (
	// SidePro argues in favor of the motion.
	SidePro Side = "pro"

	// SideCon argues against the motion.
	SideCon Side = "con"
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SidePro {
		return SideCon
	}
	return SidePro
}

// Valid reports whether the side is one of the two known values.
func (s Side) Valid() bool {
	return s == SidePro || s == SideCon
}

// Status represents the lifecycle state of a debate session.
type Status string

const (
	// StatusPending indicates the session exists but the round loop has not started.
	StatusPending Status = "pending"

	// StatusInProgress indicates the round loop is producing turns.
	StatusInProgress Status = "in_progress"

	// StatusJudging indicates all rounds are complete and the panel is scoring.
	StatusJudging Status = "judging"

	// StatusCompleted indicates judging finished and final scores are set.
	StatusCompleted Status = "completed"

	// StatusError indicates an unrecoverable failure halted the session.
	StatusError Status = "error"
)

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusJudging, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

const (
	// MinRounds and MaxRounds bound the configurable round count.
	MinRounds = 1
	MaxRounds = 50

	// PanelSize is the fixed number of judges scoring a debate.
	PanelSize = 6
)

// Turn is one side's utterance. Immutable once appended to a session.
type Turn struct {
	Side      Side      `json:"side"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// RoundOfIndex returns the 1-based round a message index belongs to.
func RoundOfIndex(i int) int {
	return i/2 + 1
}

// SideOfIndex returns the side that speaks at a message index: pro on even
// indexes, con on odd.
func SideOfIndex(i int) Side {
	if i%2 == 0 {
		return SidePro
	}
	return SideCon
}

// Credential identifies one participant's access to the text generation
// backend. A session snapshot contains credentials in clear text, which is
// why snapshots are written with restrictive permissions.
type Credential struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model,omitempty"`
}

// JudgeConfig names one panel member and carries its credential.
type JudgeConfig struct {
	Name       string     `json:"name"`
	Credential Credential `json:"credential"`
}

// Config is the immutable configuration a session was created with.
type Config struct {
	Pro       Credential    `json:"pro"`
	Con       Credential    `json:"con"`
	Judges    []JudgeConfig `json:"judges"`
	MaxRounds int           `json:"max_rounds"`
}
