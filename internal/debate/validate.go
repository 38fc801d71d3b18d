package debate

import (
	"fmt"
	"strings"

	rerrors "github.com/avandyck/rostrum/internal/errors"
)

// NewSessionRequest carries everything needed to create a session. The JSON
// tags match the HTTP create payload.
type NewSessionRequest struct {
	Topic      string        `json:"topic"`
	Background string        `json:"background,omitempty"`
	Pro        Credential    `json:"pro"`
	Con        Credential    `json:"con"`
	Judges     []JudgeConfig `json:"judges"`
	MaxRounds  int           `json:"max_rounds"`
}

// Validate checks the request against the session invariants. All problems
// are reported together as joined validation errors; a nil return means the
// request can be turned into a session.
func (r NewSessionRequest) Validate() error {
	var errs []error

	if strings.TrimSpace(r.Topic) == "" {
		errs = append(errs, rerrors.NewValidationError("topic must not be empty").WithField("topic"))
	}
	if r.Pro.APIKey == "" {
		errs = append(errs, rerrors.NewValidationError("credential must not be empty").WithField("pro.api_key"))
	}
	if r.Con.APIKey == "" {
		errs = append(errs, rerrors.NewValidationError("credential must not be empty").WithField("con.api_key"))
	}

	if len(r.Judges) != PanelSize {
		errs = append(errs, rerrors.NewValidationError(fmt.Sprintf("panel must have exactly %d judges", PanelSize)).
			WithField("judges").WithValue(len(r.Judges)))
	} else {
		for i, judge := range r.Judges {
			if strings.TrimSpace(judge.Name) == "" {
				errs = append(errs, rerrors.NewValidationError("judge must have a display name").
					WithField(fmt.Sprintf("judges[%d].name", i)))
			}
			if judge.Credential.APIKey == "" {
				errs = append(errs, rerrors.NewValidationError("credential must not be empty").
					WithField(fmt.Sprintf("judges[%d].credential.api_key", i)))
			}
		}
	}

	if r.MaxRounds < MinRounds || r.MaxRounds > MaxRounds {
		errs = append(errs, rerrors.NewValidationError(fmt.Sprintf("rounds must be between %d and %d", MinRounds, MaxRounds)).
			WithField("max_rounds").WithValue(r.MaxRounds))
	}

	return rerrors.Join(errs...)
}

// ValidateSnapshot structurally checks a restored session before it is
// trusted: identity and configuration present, status a known state, panel
// size exact, message sides strictly alternating starting with pro. It
// returns the first problem found; the caller records it as the quarantine
// reason.
func ValidateSnapshot(s *Session) error {
	if s == nil {
		return rerrors.New("snapshot is nil")
	}
	if s.ID == "" {
		return rerrors.New("missing id")
	}
	if s.Topic == "" {
		return rerrors.New("missing topic")
	}
	if !s.Status.Valid() {
		return fmt.Errorf("unknown status %q", s.Status)
	}
	if s.Config.Pro.APIKey == "" || s.Config.Con.APIKey == "" {
		return rerrors.New("missing debater credentials")
	}
	if len(s.Config.Judges) != PanelSize {
		return fmt.Errorf("panel has %d judges, want %d", len(s.Config.Judges), PanelSize)
	}
	for i, judge := range s.Config.Judges {
		if judge.Credential.APIKey == "" {
			return fmt.Errorf("judge %d has no credential", i)
		}
	}
	if s.Config.MaxRounds < MinRounds || s.Config.MaxRounds > MaxRounds {
		return fmt.Errorf("max rounds %d out of range [%d, %d]", s.Config.MaxRounds, MinRounds, MaxRounds)
	}
	if len(s.Messages) > 2*s.Config.MaxRounds {
		return fmt.Errorf("%d messages exceed the %d round limit", len(s.Messages), s.Config.MaxRounds)
	}
	for i, turn := range s.Messages {
		if turn.Side != SideOfIndex(i) {
			return fmt.Errorf("message %d has side %q, want %q", i, turn.Side, SideOfIndex(i))
		}
	}
	if s.Status == StatusCompleted && len(s.JudgeResults) != PanelSize {
		return fmt.Errorf("completed session has %d judge results, want %d", len(s.JudgeResults), PanelSize)
	}
	return nil
}
