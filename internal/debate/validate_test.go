package debate

import (
	"strings"
	"testing"

	rerrors "github.com/avandyck/rostrum/internal/errors"
)

func TestNewSessionRequest_Validate_OK(t *testing.T) {
	if err := testRequest(3).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	if err := testRequest(MinRounds).Validate(); err != nil {
		t.Errorf("Validate() with %d rounds = %v, want nil", MinRounds, err)
	}
	if err := testRequest(MaxRounds).Validate(); err != nil {
		t.Errorf("Validate() with %d rounds = %v, want nil", MaxRounds, err)
	}
}

func TestNewSessionRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*NewSessionRequest)
		wantField string
	}{
		{
			name:      "empty topic",
			mutate:    func(r *NewSessionRequest) { r.Topic = "  " },
			wantField: "topic",
		},
		{
			name:      "missing pro key",
			mutate:    func(r *NewSessionRequest) { r.Pro.APIKey = "" },
			wantField: "pro.api_key",
		},
		{
			name:      "missing con key",
			mutate:    func(r *NewSessionRequest) { r.Con.APIKey = "" },
			wantField: "con.api_key",
		},
		{
			name:      "five judges",
			mutate:    func(r *NewSessionRequest) { r.Judges = r.Judges[:5] },
			wantField: "judges",
		},
		{
			name: "seven judges",
			mutate: func(r *NewSessionRequest) {
				r.Judges = append(r.Judges, JudgeConfig{Name: "extra", Credential: Credential{APIKey: "k"}})
			},
			wantField: "judges",
		},
		{
			name:      "unnamed judge",
			mutate:    func(r *NewSessionRequest) { r.Judges[2].Name = "" },
			wantField: "judges[2].name",
		},
		{
			name:      "judge without credential",
			mutate:    func(r *NewSessionRequest) { r.Judges[4].Credential.APIKey = "" },
			wantField: "judges[4].credential.api_key",
		},
		{
			name:      "zero rounds",
			mutate:    func(r *NewSessionRequest) { r.MaxRounds = 0 },
			wantField: "max_rounds",
		},
		{
			name:      "too many rounds",
			mutate:    func(r *NewSessionRequest) { r.MaxRounds = MaxRounds + 1 },
			wantField: "max_rounds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest(3)
			tt.mutate(&req)

			err := req.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !rerrors.IsValidation(err) {
				t.Errorf("IsValidation(%v) = false", err)
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("error %q does not mention field %q", err, tt.wantField)
			}
		})
	}
}

func TestNewSessionRequest_Validate_ReportsAllProblems(t *testing.T) {
	req := testRequest(0)
	req.Topic = ""
	req.Pro.APIKey = ""

	err := req.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, field := range []string{"topic", "pro.api_key", "max_rounds"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not mention field %q", err, field)
		}
	}
}

// completedSession builds a structurally valid completed session for
// snapshot validation tests.
func completedSession(t *testing.T) *Session {
	t.Helper()
	session := NewSession(testRequest(2))
	session.Status = StatusCompleted
	session.Messages = []Turn{
		{Side: SidePro, Text: "pro r1"},
		{Side: SideCon, Text: "con r1"},
		{Side: SidePro, Text: "pro r2"},
		{Side: SideCon, Text: "con r2"},
	}
	session.JudgeResults = make([]JudgeResult, PanelSize)
	for i := range session.JudgeResults {
		session.JudgeResults[i] = JudgeResult{JudgeName: session.Config.Judges[i].Name}
	}
	return session
}

func TestValidateSnapshot_OK(t *testing.T) {
	if err := ValidateSnapshot(completedSession(t)); err != nil {
		t.Errorf("ValidateSnapshot = %v, want nil", err)
	}

	pending := NewSession(testRequest(1))
	if err := ValidateSnapshot(pending); err != nil {
		t.Errorf("ValidateSnapshot on pending session = %v, want nil", err)
	}

	midRound := NewSession(testRequest(2))
	midRound.Status = StatusInProgress
	midRound.Messages = []Turn{{Side: SidePro, Text: "opening"}}
	if err := ValidateSnapshot(midRound); err != nil {
		t.Errorf("ValidateSnapshot on mid-round session = %v, want nil", err)
	}
}

func TestValidateSnapshot(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Session)
		want   string
	}{
		{
			name:   "missing id",
			mutate: func(s *Session) { s.ID = "" },
			want:   "missing id",
		},
		{
			name:   "missing topic",
			mutate: func(s *Session) { s.Topic = "" },
			want:   "missing topic",
		},
		{
			name:   "unknown status",
			mutate: func(s *Session) { s.Status = "paused" },
			want:   "unknown status",
		},
		{
			name:   "missing pro credential",
			mutate: func(s *Session) { s.Config.Pro.APIKey = "" },
			want:   "missing debater credentials",
		},
		{
			name:   "short panel",
			mutate: func(s *Session) { s.Config.Judges = s.Config.Judges[:4] },
			want:   "panel has 4 judges",
		},
		{
			name:   "judge without credential",
			mutate: func(s *Session) { s.Config.Judges[3].Credential.APIKey = "" },
			want:   "judge 3 has no credential",
		},
		{
			name:   "rounds out of range",
			mutate: func(s *Session) { s.Config.MaxRounds = 0 },
			want:   "out of range",
		},
		{
			name: "too many messages",
			mutate: func(s *Session) {
				s.Config.MaxRounds = 1
			},
			want: "exceed",
		},
		{
			name: "broken alternation",
			mutate: func(s *Session) {
				s.Messages[1] = Turn{Side: SidePro, Text: "again"}
			},
			want: "message 1 has side",
		},
		{
			name: "completed without full panel results",
			mutate: func(s *Session) {
				s.JudgeResults = s.JudgeResults[:3]
			},
			want: "3 judge results",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := completedSession(t)
			tt.mutate(session)

			err := ValidateSnapshot(session)
			if err == nil {
				t.Fatal("ValidateSnapshot = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestValidateSnapshot_Nil(t *testing.T) {
	if err := ValidateSnapshot(nil); err == nil {
		t.Error("ValidateSnapshot(nil) = nil, want error")
	}
}
