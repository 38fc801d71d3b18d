package debate

import "testing"

func TestComposite(t *testing.T) {
	tests := []struct {
		name                                 string
		logic, evidence, rebuttal, expression float64
		want                                 float64
	}{
		{"all hundred", 100, 100, 100, 100, 100},
		{"all default", 75, 75, 75, 75, 75},
		{"weighted", 80, 60, 40, 20, 54},
		{"zero", 0, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Composite(tt.logic, tt.evidence, tt.rebuttal, tt.expression)
			if got != tt.want {
				t.Errorf("Composite(%v, %v, %v, %v) = %v, want %v",
					tt.logic, tt.evidence, tt.rebuttal, tt.expression, got, tt.want)
			}
		})
	}
}

func TestTrimmedMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"reference panel", []float64{40, 60, 70, 80, 90, 100}, 75},
		{"unsorted input", []float64{100, 40, 90, 60, 80, 70}, 75},
		{"identical values", []float64{82, 82, 82, 82, 82, 82}, 82},
		{"three values drops both ends", []float64{0, 50, 100}, 50},
		{"two values plain mean", []float64{40, 60}, 50},
		{"single value", []float64{88}, 88},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimmedMean(tt.values)
			if got != tt.want {
				t.Errorf("TrimmedMean(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestTrimmedMean_DoesNotMutateInput(t *testing.T) {
	values := []float64{100, 40, 90, 60, 80, 70}
	TrimmedMean(values)
	want := []float64{100, 40, 90, 60, 80, 70}
	for i := range values {
		if values[i] != want[i] {
			t.Fatalf("input mutated: %v, want %v", values, want)
		}
	}
}

// flatResult builds a judge result where every pro category is scored pro
// and every con category is scored con.
func flatResult(name string, pro, con float64) JudgeResult {
	return JudgeResult{
		JudgeName: name,
		Pro:       SideScores{Logic: pro, Evidence: pro, Rebuttal: pro, Expression: pro, Total: pro},
		Con:       SideScores{Logic: con, Evidence: con, Rebuttal: con, Expression: con, Total: con},
	}
}

func TestAggregate_ReferencePanel(t *testing.T) {
	values := []float64{40, 60, 70, 80, 90, 100}
	results := make([]JudgeResult, len(values))
	for i, v := range values {
		results[i] = flatResult("judge", v, 50)
	}

	scores := Aggregate(results)
	if scores.Pro.Logic != 75 {
		t.Errorf("Pro.Logic = %v, want 75", scores.Pro.Logic)
	}
	if scores.Pro.Total != 75 {
		t.Errorf("Pro.Total = %v, want 75", scores.Pro.Total)
	}
	if scores.Con.Total != 50 {
		t.Errorf("Con.Total = %v, want 50", scores.Con.Total)
	}
}

// Each metric is trimmed on its own values. A judge whose total survives the
// trim can still have its category extremes dropped, so the aggregated total
// is not the composite of the aggregated categories.
func TestAggregate_MetricsTrimIndependently(t *testing.T) {
	mk := func(name string, l, e, r, x float64) JudgeResult {
		return JudgeResult{
			JudgeName: name,
			Pro:       SideScores{Logic: l, Evidence: e, Rebuttal: r, Expression: x, Total: Composite(l, e, r, x)},
			Con:       SideScores{Logic: 50, Evidence: 50, Rebuttal: 50, Expression: 50, Total: 50},
		}
	}
	results := []JudgeResult{
		mk("a", 0, 100, 50, 50),
		mk("b", 100, 0, 50, 50),
		mk("c", 60, 60, 60, 60),
		mk("d", 70, 70, 70, 70),
		mk("e", 80, 80, 80, 80),
		mk("f", 90, 90, 90, 90),
	}

	scores := Aggregate(results)

	// Logic values {0, 100, 60, 70, 80, 90} trim to mean 75; rebuttal and
	// expression values {50, 50, 60, 70, 80, 90} trim to 65.
	if scores.Pro.Logic != 75 {
		t.Errorf("Pro.Logic = %v, want 75", scores.Pro.Logic)
	}
	if scores.Pro.Evidence != 75 {
		t.Errorf("Pro.Evidence = %v, want 75", scores.Pro.Evidence)
	}
	if scores.Pro.Rebuttal != 65 {
		t.Errorf("Pro.Rebuttal = %v, want 65", scores.Pro.Rebuttal)
	}
	if scores.Pro.Expression != 65 {
		t.Errorf("Pro.Expression = %v, want 65", scores.Pro.Expression)
	}

	// Totals {50, 50, 60, 70, 80, 90} trim to 65 on their own, not to the
	// composite of the trimmed categories (which would be 71).
	if scores.Pro.Total != 65 {
		t.Errorf("Pro.Total = %v, want 65", scores.Pro.Total)
	}
	if composite := Composite(scores.Pro.Logic, scores.Pro.Evidence, scores.Pro.Rebuttal, scores.Pro.Expression); scores.Pro.Total == composite {
		t.Errorf("Pro.Total = %v equals the recomputed composite, want an independently trimmed value", composite)
	}
}

func TestAggregate_Empty(t *testing.T) {
	scores := Aggregate(nil)
	if scores.Pro.Total != 0 || scores.Con.Total != 0 {
		t.Errorf("Aggregate(nil) = %+v, want zero scores", scores)
	}
}

func TestDetermineWinner(t *testing.T) {
	tests := []struct {
		name     string
		pro, con float64
		want     *Side
	}{
		{"pro ahead", 80, 70, sidePtr(SidePro)},
		{"con ahead", 60.5, 61, sidePtr(SideCon)},
		{"exact tie", 75, 75, nil},
		{"zero tie", 0, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := FinalScores{
				Pro: SideScores{Total: tt.pro},
				Con: SideScores{Total: tt.con},
			}
			got := DetermineWinner(scores)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("DetermineWinner = %v, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("DetermineWinner = nil, want %v", *tt.want)
			case tt.want != nil && got != nil && *got != *tt.want:
				t.Errorf("DetermineWinner = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func sidePtr(s Side) *Side { return &s }
