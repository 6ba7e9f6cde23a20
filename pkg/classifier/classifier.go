// Package classifier estimates how demanding a text request is.
//
// The score is a weighted sum of independent heuristic signals, saturating
// at MaxScore, and maps to a tier through two configurable boundaries:
// score <= low_max -> economy, score <= high_max -> standard, else premium.
package classifier

import (
	"strings"

	"github.com/tierline-ai/tierline/pkg/config"
	"github.com/tierline-ai/tierline/pkg/models"
)

// MaxScore caps the complexity score so arbitrarily long or keyword-dense
// input cannot grow it without bound.
const MaxScore = 10.0

// rule is one independent scoring signal. Rules see the lowercased text and
// its whitespace-split words, and return a bounded sub-score.
type rule func(text string, words []string) float64

// Classifier maps request text to a complexity score and a tier.
// It is stateless after construction and safe for concurrent use.
type Classifier struct {
	cfg   config.ClassifierConfig
	rules []rule
}

// New builds a Classifier from the given thresholds and keyword lists.
func New(cfg config.ClassifierConfig) *Classifier {
	c := &Classifier{cfg: cfg}
	c.rules = []rule{
		c.lengthSignal,
		c.keywordSignal,
		c.questionSignal,
		c.listSignal,
		c.codeSignal,
		c.wordCountSignal,
	}
	return c
}

// Classify returns the complexity score and tier for text. Identical input
// always yields identical output; empty or whitespace-only text scores 0
// and classifies to the economy tier.
func (c *Classifier) Classify(text string) (float64, models.Tier) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return 0, models.TierEconomy
	}

	words := strings.Fields(lower)

	var score float64
	for _, r := range c.rules {
		score += r(lower, words)
	}
	if score < 0 {
		score = 0
	}
	if score > MaxScore {
		score = MaxScore
	}

	return score, c.tierFor(score)
}

func (c *Classifier) tierFor(score float64) models.Tier {
	switch {
	case score <= c.cfg.LowMax:
		return models.TierEconomy
	case score <= c.cfg.HighMax:
		return models.TierStandard
	default:
		return models.TierPremium
	}
}

// lengthSignal scores character length: 0 for short text, 1 for medium,
// 2 for anything longer.
func (c *Classifier) lengthSignal(text string, _ []string) float64 {
	switch n := len(text); {
	case n <= c.cfg.ShortTextMax:
		return 0
	case n <= c.cfg.MediumTextMax:
		return 1
	default:
		return 2
	}
}

// keywordSignal adds 1.5 per analytical keyword match and subtracts 1.0 per
// simple-lookup keyword match.
func (c *Classifier) keywordSignal(text string, _ []string) float64 {
	var score float64
	for _, kw := range c.cfg.ComplexKeywords {
		if strings.Contains(text, kw) {
			score += 1.5
		}
	}
	for _, kw := range c.cfg.SimpleKeywords {
		if strings.Contains(text, kw) {
			score -= 1.0
		}
	}
	return score
}

// questionSignal scores question density: more than two question marks
// suggests a multi-part inquiry.
func (c *Classifier) questionSignal(text string, _ []string) float64 {
	switch n := strings.Count(text, "?"); {
	case n > 2:
		return 1.5
	case n > 0:
		return 0.5
	default:
		return 0
	}
}

// listSignal scores numbered or bulleted multi-part structure.
func (c *Classifier) listSignal(text string, _ []string) float64 {
	items := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
			items++
			continue
		}
		if isNumberedItem(line) {
			items++
		}
	}
	switch {
	case items >= 3:
		return 2
	case items >= 1:
		return 0.5
	default:
		return 0
	}
}

// isNumberedItem reports whether line starts like "1. " or "2) ".
func isNumberedItem(line string) bool {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) {
		return false
	}
	return line[i] == '.' || line[i] == ')'
}

var codeIndicators = []string{"```", "def ", "func ", "class ", "function ", "import ", "select ", "create table"}

// codeSignal scores the presence of code-like content.
func (c *Classifier) codeSignal(text string, _ []string) float64 {
	for _, ind := range codeIndicators {
		if strings.Contains(text, ind) {
			return 1.5
		}
	}
	return 0
}

// wordCountSignal scores overall verbosity.
func (c *Classifier) wordCountSignal(_ string, words []string) float64 {
	switch n := len(words); {
	case n > 200:
		return 1.5
	case n > 50:
		return 0.5
	default:
		return 0
	}
}
