// Package scoring combines semantic and PGN analysis results into a single
// Educational Value Score. All functions are pure and deterministic;
// out-of-range inputs are clamped, never rejected.
package scoring

import (
	"math"
	"strings"

	"github.com/pgnkit/curator/internal/models"
)

// eliteCues mark formal or elite instruction. Any other educational cue
// counts as a standard cue.
var eliteCues = map[string]struct{}{
	"elite_instruction":  {},
	"formal_education":   {},
	"masterclass":        {},
	"grandmaster_course": {},
	"structured_course":  {},
}

// Base weight splits per content type. The adaptive shift in Weights moves
// them further toward semantic for strongly instructional text.
var baseWeights = map[models.ContentType]models.WeightSplit{
	models.ContentEliteInstructional: {Semantic: 0.75, EVS: 0.25},
	models.ContentInstructional:      {Semantic: 0.70, EVS: 0.30},
	models.ContentAnnotatedGame:      {Semantic: 0.40, EVS: 0.60},
	models.ContentPositionStudy:      {Semantic: 0.40, EVS: 0.60},
	models.ContentMixed:              {Semantic: 0.50, EVS: 0.50},
	models.ContentPGNDominant:        {Semantic: 0.30, EVS: 0.70},
	models.ContentSemanticOnly:       {Semantic: 0.90, EVS: 0.10},
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// normalize clamps every field onto its documented range.
func normalize(semantic models.SemanticResult, pgn models.PGNResult) (models.SemanticResult, models.PGNResult) {
	semantic.InstructionalValue = clamp(semantic.InstructionalValue, 0, 1)
	semantic.DomainRelevance = clamp(semantic.DomainRelevance, 0, 1)
	semantic.ConceptDensity = clamp(semantic.ConceptDensity, 0, 1)
	semantic.ExplanationClarity = clamp(semantic.ExplanationClarity, 0, 1)
	semantic.ComprehensiveScore = clamp(semantic.ComprehensiveScore, 0, 1)
	semantic.PublicationYearScore = clamp(semantic.PublicationYearScore, 0, 15)
	pgn.BaseEVS = clamp(pgn.BaseEVS, 0, 100)
	return semantic, pgn
}

// hasEliteCue reports whether any cue from either analyzer is in the elite
// set. Comparison is case-insensitive.
func hasEliteCue(semantic models.SemanticResult, pgn models.PGNResult) bool {
	for _, cue := range append(append([]string{}, semantic.EducationalCues...), pgn.EducationalCues...) {
		if _, ok := eliteCues[strings.ToLower(cue)]; ok {
			return true
		}
	}
	return false
}

func hasAnyCue(semantic models.SemanticResult, pgn models.PGNResult) bool {
	return len(semantic.EducationalCues) > 0 || len(pgn.EducationalCues) > 0
}

// Classify derives the content type from the two analysis results.
func Classify(semantic models.SemanticResult, pgn models.PGNResult) models.ContentType {
	semantic, pgn = normalize(semantic, pgn)

	if pgn.BaseEVS == 0 {
		return models.ContentSemanticOnly
	}

	if semantic.InstructionalValue >= 0.8 {
		if len(semantic.DetectedBooks) > 0 || hasEliteCue(semantic, pgn) {
			return models.ContentEliteInstructional
		}
		return models.ContentInstructional
	}

	switch pgn.GameType {
	case models.GameAnnotated:
		return models.ContentAnnotatedGame
	case models.GamePositionStudy:
		return models.ContentPositionStudy
	}
	if pgn.BaseEVS >= 60 {
		return models.ContentPGNDominant
	}
	return models.ContentMixed
}

// Weights returns the semantic/EVS split for a content type, shifted
// toward semantic when the text is strongly instructional.
func Weights(contentType models.ContentType, instructionalValue float64) models.WeightSplit {
	instructionalValue = clamp(instructionalValue, 0, 1)

	split, ok := baseWeights[contentType]
	if !ok {
		split = baseWeights[models.ContentMixed]
	}

	switch {
	case instructionalValue >= 0.95:
		split.Semantic = math.Min(split.Semantic+0.15, 0.85)
	case instructionalValue >= 0.8:
		split.Semantic = math.Min(split.Semantic+0.10, 0.80)
	}
	split.EVS = 1 - split.Semantic
	return split
}

// SemanticComponent collapses the semantic sub-signals into one [0,1]
// value: 50% instructional value, 30% domain relevance, 20% density.
func SemanticComponent(semantic models.SemanticResult) float64 {
	semantic, _ = normalize(semantic, models.PGNResult{})
	component := 0.50*semantic.InstructionalValue +
		0.30*semantic.DomainRelevance +
		0.20*semantic.ConceptDensity
	return clamp(component, 0, 1)
}

// Boost sums the independent bonus rules, applies diminishing returns
// above 0.30, and hard-caps the result at 0.35.
func Boost(semantic models.SemanticResult, pgn models.PGNResult) float64 {
	semantic, pgn = normalize(semantic, pgn)
	iv := semantic.InstructionalValue

	var raw float64

	// Instructional tiering.
	switch {
	case iv >= 0.95:
		raw += 0.25
	case iv >= 0.8:
		raw += 0.20
	case iv >= 0.6:
		raw += 0.10
	}

	// Quality indicators, 0.05 each.
	if semantic.ExplanationClarity >= 0.7 {
		raw += 0.05
	}
	if semantic.DomainRelevance >= 0.8 {
		raw += 0.05
	}
	if semantic.ComprehensiveScore >= 0.8 {
		raw += 0.05
	}

	if len(semantic.DetectedBooks) > 0 {
		raw += 0.08
	}
	if pgn.FamousGame {
		raw += 0.06
	}

	if hasEliteCue(semantic, pgn) {
		raw += 0.12
	} else if hasAnyCue(semantic, pgn) {
		raw += 0.08
	}

	// Synergy: strong text plus a solid PGN signal.
	if iv >= 0.8 && pgn.BaseEVS >= 60 {
		raw += math.Min((iv-0.8)*0.25, 0.10)
	}

	if semantic.PublicationYearScore >= 12 {
		raw += 0.05
	}

	if raw > 0.30 {
		raw = 0.30 + 0.5*(raw-0.30)
	}
	return math.Min(raw, 0.35)
}

// Tier buckets an EVS score. Boundaries are inclusive-lower.
func Tier(evs float64) models.QualityTier {
	switch {
	case evs >= 85:
		return models.Tier1
	case evs >= 80:
		return models.Tier2
	case evs >= 70:
		return models.Tier3
	default:
		return models.BelowThreshold
	}
}

// Score is the single entry point: classify, weight, integrate, boost,
// apply the floor guarantees and derive the tier.
func Score(semantic models.SemanticResult, pgn models.PGNResult) models.IntegrationResult {
	semantic, pgn = normalize(semantic, pgn)

	contentType := Classify(semantic, pgn)
	weights := Weights(contentType, semantic.InstructionalValue)
	integrated := weights.Semantic*SemanticComponent(semantic) + weights.EVS*(pgn.BaseEVS/100)
	boost := Boost(semantic, pgn)

	finalScore := math.Min(integrated+boost, 1.0)
	finalEVS := finalScore * 100

	// Floor guarantees. A very high instructional value snaps straight to a
	// tier floor regardless of the PGN signal, which makes the result
	// non-monotonic in PGN quality near the 0.8/0.95 boundary. Intentional;
	// do not smooth this out.
	switch {
	case semantic.InstructionalValue >= 0.95:
		finalEVS = math.Max(finalEVS, 85)
	case semantic.InstructionalValue >= 0.8:
		finalEVS = math.Max(finalEVS, 80)
	}
	finalEVS = clamp(finalEVS, 0, 100)
	finalScore = finalEVS / 100

	return models.IntegrationResult{
		ContentType: contentType,
		Weights:     weights,
		Boost:       boost,
		FinalScore:  finalScore,
		FinalEVS:    finalEVS,
		Tier:        Tier(finalEVS),
	}
}
