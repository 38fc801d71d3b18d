package debate

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultScore is the neutral fallback used when a category score cannot be
// extracted from a judge's verdict.
const DefaultScore = 75.0

// scoreSlots is the number of extractable category scores: 2 sides x 4
// categories.
const scoreSlots = 8

// Verdict text is free-form model output, so extraction tolerates markdown
// decoration, bullets, and "85/100" style suffixes. Fillers exclude digits
// and '<' so a line never donates a number across an unrelated word and an
// echoed "<0-100>" placeholder is not read as a score.
var (
	scoreRe        = regexp.MustCompile(`(?i)\b(pro|proponent|con|opponent)\b[^\n\d<]*?\b(logic|evidence|rebuttal|expression)\b[^\n\d<]*?(-?\d+(?:\.\d+)?)`)
	rationaleRe    = regexp.MustCompile(`(?i)^[\s*#>-]*(logic|evidence|rebuttal|expression)\s+rationale\s*\**\s*[:\-]\s*\**\s*(.+)$`)
	winnerRe       = regexp.MustCompile(`(?i)^[\s*#>-]*(?:recommended\s+)?winner\s*\**\s*[:\-][\s*_]*(pro|proponent|con|opponent|tie|draw|none|neither)\b`)
	winnerReasonRe = regexp.MustCompile(`(?i)^[\s*#>-]*(?:winner\s+)?reason\s*\**\s*[:\-]\s*\**\s*(.+)$`)
	commentaryRe   = regexp.MustCompile(`(?i)^[\s*#>-]*commentary\s*\**\s*[:\-]\s*\**\s*(.+)$`)
	sectionRe      = regexp.MustCompile(`(?i)^[\s*#>-]*(strengths|weaknesses|suggestions)\s*\**\s*:?\s*$`)
	bulletRe       = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.*)$`)
)

// Scorecard is the structured content extracted from one judge's free-form
// verdict text, before it is tagged with the judge's identity.
type Scorecard struct {
	Pro               SideScores
	Con               SideScores
	Rationale         Rationale
	Commentary        string
	Strengths         []string
	Weaknesses        []string
	Suggestions       []string
	RecommendedWinner Side
	WinnerReason      string
}

// defaultSideScores returns a side scored entirely at the neutral default.
func defaultSideScores() SideScores {
	return SideScores{
		Logic:      DefaultScore,
		Evidence:   DefaultScore,
		Rebuttal:   DefaultScore,
		Expression: DefaultScore,
		Total:      Composite(DefaultScore, DefaultScore, DefaultScore, DefaultScore),
	}
}

// ParseScorecard extracts a structured scorecard from free-form verdict
// text. It never fails: a category score that is missing, unparsable, or out
// of [0, 100] falls back to DefaultScore. The returned confidence is the
// fraction of the eight category scores actually extracted, so 0 means a
// fully defaulted card and 1 a fully extracted one. Winner, rationale,
// commentary, and the bullet sections are extracted best-effort and may be
// empty.
func ParseScorecard(text string) (Scorecard, float64) {
	card := Scorecard{
		Pro: defaultSideScores(),
		Con: defaultSideScores(),
	}

	extracted := 0
	seen := make(map[string]bool, scoreSlots)
	for _, m := range scoreRe.FindAllStringSubmatch(text, -1) {
		side := normalizeSide(m[1])
		category := strings.ToLower(m[2])
		key := string(side) + "/" + category
		if seen[key] {
			continue
		}
		value, err := strconv.ParseFloat(m[3], 64)
		if err != nil || value < 0 || value > 100 {
			continue
		}
		seen[key] = true
		extracted++
		card.setScore(side, category, value)
	}
	card.Pro.Total = Composite(card.Pro.Logic, card.Pro.Evidence, card.Pro.Rebuttal, card.Pro.Expression)
	card.Con.Total = Composite(card.Con.Logic, card.Con.Evidence, card.Con.Rebuttal, card.Con.Expression)

	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if m := rationaleRe.FindStringSubmatch(line); m != nil {
			card.setRationale(strings.ToLower(m[1]), strings.TrimSpace(m[2]))
			continue
		}
		if m := winnerRe.FindStringSubmatch(line); m != nil && card.RecommendedWinner == "" {
			card.RecommendedWinner = normalizeWinner(m[1])
			continue
		}
		if m := winnerReasonRe.FindStringSubmatch(line); m != nil && card.WinnerReason == "" {
			card.WinnerReason = strings.TrimSpace(m[1])
			continue
		}
		if m := commentaryRe.FindStringSubmatch(line); m != nil && card.Commentary == "" {
			card.Commentary = strings.TrimSpace(m[1])
			continue
		}
		if m := sectionRe.FindStringSubmatch(line); m != nil {
			items, next := collectBullets(lines, i+1)
			switch strings.ToLower(m[1]) {
			case "strengths":
				card.Strengths = items
			case "weaknesses":
				card.Weaknesses = items
			case "suggestions":
				card.Suggestions = items
			}
			i = next - 1
		}
	}

	return card, float64(extracted) / scoreSlots
}

func (c *Scorecard) setScore(side Side, category string, value float64) {
	scores := &c.Pro
	if side == SideCon {
		scores = &c.Con
	}
	switch category {
	case "logic":
		scores.Logic = value
	case "evidence":
		scores.Evidence = value
	case "rebuttal":
		scores.Rebuttal = value
	case "expression":
		scores.Expression = value
	}
}

func (c *Scorecard) setRationale(category, text string) {
	set := func(dst *string) {
		if *dst == "" {
			*dst = text
		}
	}
	switch category {
	case "logic":
		set(&c.Rationale.Logic)
	case "evidence":
		set(&c.Rationale.Evidence)
	case "rebuttal":
		set(&c.Rationale.Rebuttal)
	case "expression":
		set(&c.Rationale.Expression)
	}
}

// collectBullets gathers consecutive bullet items starting at index start,
// skipping blank lines before the first item. It returns the items and the
// index of the first line it did not consume.
func collectBullets(lines []string, start int) ([]string, int) {
	var items []string
	i := start
	for ; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			if len(items) == 0 {
				continue
			}
			break
		}
		m := bulletRe.FindStringSubmatch(lines[i])
		if m == nil {
			break
		}
		if item := strings.TrimSpace(m[1]); item != "" {
			items = append(items, item)
		}
	}
	return items, i
}

func normalizeSide(raw string) Side {
	switch strings.ToLower(raw) {
	case "pro", "proponent":
		return SidePro
	default:
		return SideCon
	}
}

// normalizeWinner maps a recommended-winner token to a side; tie words yield
// the empty side.
func normalizeWinner(raw string) Side {
	switch strings.ToLower(raw) {
	case "pro", "proponent":
		return SidePro
	case "con", "opponent":
		return SideCon
	default:
		return ""
	}
}
