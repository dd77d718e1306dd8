// Package models defines data structures for the curator pipeline.
package models

// ContentType classifies what kind of chess document a file is, based on
// the combined semantic and PGN signals.
type ContentType string

// Content type constants, ordered roughly from most to least text-driven.
const (
	ContentEliteInstructional ContentType = "elite_instructional"
	ContentInstructional      ContentType = "instructional_content"
	ContentAnnotatedGame      ContentType = "annotated_game"
	ContentPositionStudy      ContentType = "position_study"
	ContentMixed              ContentType = "mixed_content"
	ContentPGNDominant        ContentType = "pgn_dominant"
	ContentSemanticOnly       ContentType = "semantic_only"
)

// GameType is the structural classification reported by the PGN analyzer.
type GameType string

// Game type constants.
const (
	GameAnnotated     GameType = "annotated_game"
	GameComplete      GameType = "complete_game"
	GamePositionStudy GameType = "position_study"
	GameDatabaseDump  GameType = "database_dump"
	GameNone          GameType = "none"
)

// QualityTier buckets an EVS score for reporting and selection.
type QualityTier string

// Tier constants. Boundaries are inclusive-lower: 85, 80, 70.
const (
	Tier1          QualityTier = "TIER_1"
	Tier2          QualityTier = "TIER_2"
	Tier3          QualityTier = "TIER_3"
	BelowThreshold QualityTier = "BELOW_THRESHOLD"
)

// SemanticResult is produced by the out-of-scope text analyzer.
// All unit-interval fields are clamped by the scorer, never rejected.
type SemanticResult struct {
	InstructionalValue   float64  `json:"instructional_value"`
	DomainRelevance      float64  `json:"domain_relevance"`
	ConceptDensity       float64  `json:"concept_density"`
	ExplanationClarity   float64  `json:"explanation_clarity"`
	ComprehensiveScore   float64  `json:"comprehensive_score"`
	PublicationYearScore float64  `json:"publication_year_score"`
	DetectedOpenings     []string `json:"detected_openings,omitempty"`
	DetectedPlayers      []string `json:"detected_players,omitempty"`
	DetectedBooks        []string `json:"detected_books,omitempty"`
	EducationalCues      []string `json:"educational_cues,omitempty"`
}

// PGNResult is produced by the out-of-scope PGN analyzer. BaseEVS is on
// the 0-100 scale; the sub-scores use the analyzer's 20/20/20/15 scales.
type PGNResult struct {
	BaseEVS            float64  `json:"base_evs"`
	Structure          float64  `json:"structure"`
	AnnotationRichness float64  `json:"annotation_richness"`
	Humanness          float64  `json:"humanness"`
	EducationalContext float64  `json:"educational_context"`
	GameType           GameType `json:"game_type"`
	EducationalCues    []string `json:"educational_cues,omitempty"`
	FamousGame         bool     `json:"famous_game"`
}

// WeightSplit is the semantic/EVS weighting used for integration.
// Semantic + EVS always sums to 1.0.
type WeightSplit struct {
	Semantic float64 `json:"semantic"`
	EVS      float64 `json:"evs"`
}

// IntegrationResult is the scorer output for one document.
type IntegrationResult struct {
	ContentType ContentType `json:"content_type"`
	Weights     WeightSplit `json:"weights"`
	Boost       float64     `json:"boost"`       // [0,0.35]
	FinalScore  float64     `json:"final_score"` // [0,1]
	FinalEVS    float64     `json:"final_evs"`   // [0,100]
	Tier        QualityTier `json:"tier"`
}
