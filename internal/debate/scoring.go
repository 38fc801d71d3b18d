package debate

import "slices"

// Category weights for the per-judge composite score. Fixed, not
// configurable.
const (
	weightLogic      = 0.3
	weightEvidence   = 0.3
	weightRebuttal   = 0.2
	weightExpression = 0.2
)

// SideScores holds one side's four category scores and their weighted
// composite. All values are in [0, 100].
type SideScores struct {
	Logic      float64 `json:"logic"`
	Evidence   float64 `json:"evidence"`
	Rebuttal   float64 `json:"rebuttal"`
	Expression float64 `json:"expression"`
	Total      float64 `json:"total"`
}

// Composite returns the weighted total for four category scores:
// 0.3*logic + 0.3*evidence + 0.2*rebuttal + 0.2*expression.
func Composite(logic, evidence, rebuttal, expression float64) float64 {
	return weightLogic*logic + weightEvidence*evidence +
		weightRebuttal*rebuttal + weightExpression*expression
}

// Rationale holds a judge's free-text reasoning per category.
type Rationale struct {
	Logic      string `json:"logic,omitempty"`
	Evidence   string `json:"evidence,omitempty"`
	Rebuttal   string `json:"rebuttal,omitempty"`
	Expression string `json:"expression,omitempty"`
}

// JudgeResult is one judge's complete verdict. Produced exactly once per
// judge; immutable thereafter. Confidence is the fraction of the eight
// category scores that were actually extracted from the judge's text rather
// than defaulted.
type JudgeResult struct {
	JudgeName         string     `json:"judge_name"`
	Pro               SideScores `json:"pro"`
	Con               SideScores `json:"con"`
	Rationale         Rationale  `json:"rationale"`
	Commentary        string     `json:"commentary,omitempty"`
	Strengths         []string   `json:"strengths,omitempty"`
	Weaknesses        []string   `json:"weaknesses,omitempty"`
	Suggestions       []string   `json:"suggestions,omitempty"`
	RecommendedWinner Side       `json:"recommended_winner,omitempty"`
	WinnerReason      string     `json:"winner_reason,omitempty"`
	Confidence        float64    `json:"confidence"`
}

// FinalScores is the trimmed-mean aggregate across the panel.
type FinalScores struct {
	Pro SideScores `json:"pro"`
	Con SideScores `json:"con"`
}

// TrimmedMean sorts the values ascending, drops the single highest and
// single lowest, and averages the rest. Sets too small to trim are averaged
// as-is.
func TrimmedMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	if len(sorted) > 2 {
		sorted = sorted[1 : len(sorted)-1]
	}

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return sum / float64(len(sorted))
}

// Aggregate combines the panel's results into final scores. Each category
// and the overall total are trimmed independently using the judges' own
// values for that metric; the aggregate total is not recomputed from the
// aggregated categories.
func Aggregate(results []JudgeResult) FinalScores {
	trim := func(pick func(JudgeResult) float64) float64 {
		values := make([]float64, len(results))
		for i, r := range results {
			values[i] = pick(r)
		}
		return TrimmedMean(values)
	}

	return FinalScores{
		Pro: SideScores{
			Logic:      trim(func(r JudgeResult) float64 { return r.Pro.Logic }),
			Evidence:   trim(func(r JudgeResult) float64 { return r.Pro.Evidence }),
			Rebuttal:   trim(func(r JudgeResult) float64 { return r.Pro.Rebuttal }),
			Expression: trim(func(r JudgeResult) float64 { return r.Pro.Expression }),
			Total:      trim(func(r JudgeResult) float64 { return r.Pro.Total }),
		},
		Con: SideScores{
			Logic:      trim(func(r JudgeResult) float64 { return r.Con.Logic }),
			Evidence:   trim(func(r JudgeResult) float64 { return r.Con.Evidence }),
			Rebuttal:   trim(func(r JudgeResult) float64 { return r.Con.Rebuttal }),
			Expression: trim(func(r JudgeResult) float64 { return r.Con.Expression }),
			Total:      trim(func(r JudgeResult) float64 { return r.Con.Total }),
		},
	}
}

// DetermineWinner compares the trimmed overall totals. Strictly greater
// wins; equal totals are a tie, reported as nil.
func DetermineWinner(scores FinalScores) *Side {
	switch {
	case scores.Pro.Total > scores.Con.Total:
		winner := SidePro
		return &winner
	case scores.Con.Total > scores.Pro.Total:
		winner := SideCon
		return &winner
	default:
		return nil
	}
}
