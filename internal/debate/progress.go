package debate

// Progress is the live view of a running session. It is volatile: never
// persisted, and reset to idle when a session is restored from a snapshot.
type Progress struct {
	Round       int              `json:"round"`
	TotalRounds int              `json:"total_rounds"`
	Pro         SideProgress     `json:"pro"`
	Con         SideProgress     `json:"con"`
	Judging     *JudgingProgress `json:"judging,omitempty"`
}

// SideProgress describes one side's in-flight generation. Thinking is set
// from the moment generation is requested until the first delta arrives.
type SideProgress struct {
	Thinking    bool   `json:"thinking"`
	PartialText string `json:"partial_text"`
}

// JudgingProgress describes the judging phase: which panel member is being
// evaluated and, once at least one has finished, the latest scored judge.
type JudgingProgress struct {
	JudgeIndex int             `json:"judge_index"`
	JudgeCount int             `json:"judge_count"`
	JudgeName  string          `json:"judge_name"`
	Highlight  *JudgeHighlight `json:"highlight,omitempty"`
}

// JudgeHighlight carries the most recently completed judge's name and
// per-side totals.
type JudgeHighlight struct {
	JudgeName string  `json:"judge_name"`
	ProTotal  float64 `json:"pro_total"`
	ConTotal  float64 `json:"con_total"`
}

// Clone returns a deep copy safe to hand outside the lock.
func (p Progress) Clone() Progress {
	out := p
	if p.Judging != nil {
		judging := *p.Judging
		if judging.Highlight != nil {
			highlight := *judging.Highlight
			judging.Highlight = &highlight
		}
		out.Judging = &judging
	}
	return out
}
