package debate

import (
	"time"

	"github.com/google/uuid"
)

// Session is the aggregate root of one debate, from creation to a terminal
// state. It is the unit of persistence: everything needed to reconstruct and
// resume the debate lives here, including participant credentials. Field
// order matches the persisted snapshot layout.
type Session struct {
	ID           string        `json:"id"`
	Topic        string        `json:"topic"`
	Background   string        `json:"background,omitempty"`
	Status       Status        `json:"status"`
	Messages     []Turn        `json:"messages"`
	JudgeResults []JudgeResult `json:"judge_results,omitempty"`
	Winner       *Side         `json:"winner"`
	FinalScores  *FinalScores  `json:"final_scores,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Config       Config        `json:"config"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewSession builds a pending session from a creation request. The request
// should be validated first; NewSession does not re-check it.
func NewSession(req NewSessionRequest) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         uuid.NewString(),
		Topic:      req.Topic,
		Background: req.Background,
		Status:     StatusPending,
		Messages:   []Turn{},
		Config: Config{
			Pro:       req.Pro,
			Con:       req.Con,
			Judges:    append([]JudgeConfig(nil), req.Judges...),
			MaxRounds: req.MaxRounds,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CurrentRound returns the number of complete rounds recorded. A session
// interrupted mid-round (pro has spoken, con has not) reports the previous
// round; the resumed loop picks up with the missing half-round.
func (s *Session) CurrentRound() int {
	return len(s.Messages) / 2
}

// Clone returns a deep copy safe to hand to other goroutines.
func (s *Session) Clone() *Session {
	out := *s
	out.Messages = cloneTurns(s.Messages)
	out.Config.Judges = append([]JudgeConfig(nil), s.Config.Judges...)
	if s.JudgeResults != nil {
		out.JudgeResults = make([]JudgeResult, len(s.JudgeResults))
		for i, r := range s.JudgeResults {
			out.JudgeResults[i] = cloneJudgeResult(r)
		}
	}
	if s.Winner != nil {
		winner := *s.Winner
		out.Winner = &winner
	}
	if s.FinalScores != nil {
		scores := *s.FinalScores
		out.FinalScores = &scores
	}
	return &out
}

// cloneTurns copies a turn slice, preserving nil versus empty so snapshots
// round-trip byte-for-byte.
func cloneTurns(in []Turn) []Turn {
	if in == nil {
		return nil
	}
	out := make([]Turn, len(in))
	copy(out, in)
	return out
}

func cloneJudgeResult(r JudgeResult) JudgeResult {
	out := r
	out.Strengths = cloneStrings(r.Strengths)
	out.Weaknesses = cloneStrings(r.Weaknesses)
	out.Suggestions = cloneStrings(r.Suggestions)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
