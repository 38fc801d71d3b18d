package debate

import (
	"context"
	"fmt"
	"strings"

	"github.com/avandyck/rostrum/internal/logging"
	"github.com/avandyck/rostrum/internal/provider"
)

const judgeSystemPrompt = "You are an impartial debate judge. Score both sides " +
	"of the finished debate on four categories, each 0-100: logic (soundness of " +
	"reasoning), evidence (quality of support), rebuttal (engagement with the " +
	"opponent's arguments), and expression (clarity and persuasiveness). Follow " +
	"the response format exactly."

// Judge scores a finished debate. Evaluate never fails: transport errors and
// unparseable verdicts degrade to a fully defaulted result, so the panel
// always produces a complete set of results.
type Judge struct {
	name       string
	topic      string
	background string
	client     provider.Client
	logger     *logging.Logger
}

// NewJudge creates a named panel member.
func NewJudge(name, topic, background string, client provider.Client, logger *logging.Logger) *Judge {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Judge{
		name:       name,
		topic:      topic,
		background: background,
		client:     client,
		logger:     logger,
	}
}

// Name returns the judge's display name.
func (j *Judge) Name() string {
	return j.name
}

// Evaluate scores the transcript and returns a complete result. Failures of
// any kind yield a default-scored result with an explanatory commentary
// rather than an error.
func (j *Judge) Evaluate(ctx context.Context, transcript []Turn) JudgeResult {
	req := provider.Request{
		System: judgeSystemPrompt,
		Messages: []provider.Message{{
			Role:    provider.RoleUser,
			Content: j.verdictPrompt(transcript),
		}},
	}

	result, err := j.client.Generate(ctx, req)
	if err != nil {
		j.logger.Warn("judge call failed, scoring with defaults", "error", err)
		return j.defaultResult(fmt.Sprintf(
			"The evaluation call failed (%v); every category is scored at the neutral default of %.0f.", err, DefaultScore))
	}

	card, confidence := ParseScorecard(result.Text)
	if confidence == 0 {
		j.logger.Warn("judge verdict yielded no scores, using defaults")
		return j.defaultResult(fmt.Sprintf(
			"No category scores could be extracted from the verdict; every category is scored at the neutral default of %.0f.", DefaultScore))
	}

	return JudgeResult{
		JudgeName:         j.name,
		Pro:               card.Pro,
		Con:               card.Con,
		Rationale:         card.Rationale,
		Commentary:        card.Commentary,
		Strengths:         card.Strengths,
		Weaknesses:        card.Weaknesses,
		Suggestions:       card.Suggestions,
		RecommendedWinner: card.RecommendedWinner,
		WinnerReason:      card.WinnerReason,
		Confidence:        confidence,
	}
}

// defaultResult returns a verdict with every category at the neutral
// default and a commentary explaining the degradation.
func (j *Judge) defaultResult(reason string) JudgeResult {
	return JudgeResult{
		JudgeName:  j.name,
		Pro:        defaultSideScores(),
		Con:        defaultSideScores(),
		Commentary: reason,
		Confidence: 0,
	}
}

func (j *Judge) verdictPrompt(transcript []Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Motion: %s\n", j.topic)
	if j.background != "" {
		fmt.Fprintf(&b, "Background: %s\n", j.background)
	}
	b.WriteString("\nTranscript:\n\n")
	for i, turn := range transcript {
		fmt.Fprintf(&b, "[Round %d, %s]\n%s\n\n", RoundOfIndex(i), strings.ToUpper(string(turn.Side)), turn.Text)
	}
	b.WriteString(`Respond in exactly this format:

PRO LOGIC: <0-100>
PRO EVIDENCE: <0-100>
PRO REBUTTAL: <0-100>
PRO EXPRESSION: <0-100>
CON LOGIC: <0-100>
CON EVIDENCE: <0-100>
CON REBUTTAL: <0-100>
CON EXPRESSION: <0-100>
LOGIC RATIONALE: <one sentence>
EVIDENCE RATIONALE: <one sentence>
REBUTTAL RATIONALE: <one sentence>
EXPRESSION RATIONALE: <one sentence>
WINNER: <pro, con, or tie>
WINNER REASON: <one sentence>
COMMENTARY: <overall assessment>
STRENGTHS:
- <bullet>
WEAKNESSES:
- <bullet>
SUGGESTIONS:
- <bullet>`)
	return b.String()
}
