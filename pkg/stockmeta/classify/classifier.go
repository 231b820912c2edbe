package classify

import (
	"strings"

	"github.com/cognicore/stockmeta/pkg/stockmeta/ingest"
	"github.com/cognicore/stockmeta/pkg/stockmeta/taxonomy"
)

// Scoring weights and the arbitration threshold.
const (
	PhraseWeight = 3 // vocabulary term present as a whole phrase
	WordWeight   = 1 // each word of a vocabulary term present on its own

	// OverrideGap is the minimum lead the rule score needs over the model's
	// own category before the rule wins.
	OverrideGap = 5
)

// Reason explains how a final code was chosen.
type Reason string

const (
	ReasonPeopleBias   Reason = "people-bias"
	ReasonGraphicsBias Reason = "graphics-bias"
	ReasonRuleOnly     Reason = "rule-only" // model category unresolved
	ReasonAgreement    Reason = "agreement" // model and rule agree
	ReasonOverride     Reason = "override"  // rule beat the model by OverrideGap
	ReasonModelTrusted Reason = "model"     // model kept despite disagreement
)

// Decision carries the final code plus everything that led to it.
type Decision struct {
	Code       int
	Reason     Reason
	BiasTerm   string // trigger term for bias decisions
	ModelCode  int    // resolved self-reported category, 0 if unresolved
	ModelScore int
	RuleCode   int // highest-scoring code, 0 when every score is 0
	RuleScore  int
	Scores     map[int]int
}

// Classifier assigns taxonomy codes from response tokens and the model's
// self-reported category.
type Classifier struct {
	tax *taxonomy.Taxonomy
}

// New creates a classifier over the given taxonomy.
func New(tax *taxonomy.Taxonomy) *Classifier {
	return &Classifier{tax: tax}
}

// Classify returns the final category code.
func (c *Classifier) Classify(tokens ingest.TokenSet, categoryText string) int {
	return c.Explain(tokens, categoryText).Code
}

// Explain runs the full decision procedure:
//  1. people-bias term present -> People code; else graphics-bias -> Graphics code
//  2. score every category against the tokens
//  3. resolve the model's category text to a code
//  4. arbitrate between the model's code and the best-scoring code
func (c *Classifier) Explain(tokens ingest.TokenSet, categoryText string) Decision {
	if term, ok := firstPresent(tokens, c.tax.People().Terms); ok {
		return Decision{Code: c.tax.People().Code, Reason: ReasonPeopleBias, BiasTerm: term}
	}
	if term, ok := firstPresent(tokens, c.tax.Graphics().Terms); ok {
		return Decision{Code: c.tax.Graphics().Code, Reason: ReasonGraphicsBias, BiasTerm: term}
	}

	scores := c.Score(tokens)
	ruleCode, ruleScore := c.best(scores)
	modelCode := c.tax.Resolve(categoryText)
	modelScore := scores[modelCode]

	d := Decision{
		ModelCode:  modelCode,
		ModelScore: modelScore,
		RuleCode:   ruleCode,
		RuleScore:  ruleScore,
		Scores:     scores,
	}
	d.Code, d.Reason = arbitrate(modelCode, ruleCode, modelScore, ruleScore)
	return d
}

// Score computes a vocabulary score for every category. Each vocabulary
// term found as a whole phrase adds PhraseWeight and each of its words
// found on its own adds WordWeight. All codes start at 0.
func (c *Classifier) Score(tokens ingest.TokenSet) map[int]int {
	scores := make(map[int]int, c.tax.Len())
	for _, cat := range c.tax.Categories() {
		score := 0
		for _, term := range cat.Vocabulary {
			if tokens.Has(term) {
				score += PhraseWeight
			}
			for _, w := range strings.Split(term, " ") {
				if tokens.Has(w) {
					score += WordWeight
				}
			}
		}
		scores[cat.Code] = score
	}
	return scores
}

// best returns the highest-scoring code. Ties go to the lowest code since
// categories iterate in ascending order. A best score of 0 means no signal
// at all and yields taxonomy.Unknown.
func (c *Classifier) best(scores map[int]int) (int, int) {
	bestCode, bestScore := taxonomy.Unknown, 0
	for _, cat := range c.tax.Categories() {
		if s := scores[cat.Code]; s > bestScore {
			bestCode, bestScore = cat.Code, s
		}
	}
	return bestCode, bestScore
}

// Arbitrate picks between the model's code and the rule code.
func Arbitrate(modelCode, ruleCode, modelScore, ruleScore int) int {
	code, _ := arbitrate(modelCode, ruleCode, modelScore, ruleScore)
	return code
}

func arbitrate(modelCode, ruleCode, modelScore, ruleScore int) (int, Reason) {
	switch {
	case modelCode == taxonomy.Unknown:
		return ruleCode, ReasonRuleOnly
	case modelCode == ruleCode:
		return modelCode, ReasonAgreement
	case ruleScore-modelScore >= OverrideGap && ruleCode != taxonomy.Unknown:
		return ruleCode, ReasonOverride
	default:
		return modelCode, ReasonModelTrusted
	}
}

func firstPresent(tokens ingest.TokenSet, terms []string) (string, bool) {
	for _, t := range terms {
		if tokens.Has(t) {
			return t, true
		}
	}
	return "", false
}
