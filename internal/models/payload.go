package models

import (
	"encoding/json"
	"fmt"
)

// AnalysisPayloadVersion is the current schema version of the persisted
// analysis payload. Bump only with a migration path for old rows.
const AnalysisPayloadVersion = 1

// AnalysisResult is what an analyzer collaborator returns for one file.
type AnalysisResult struct {
	Semantic SemanticResult `json:"semantic"`
	PGN      PGNResult      `json:"pgn"`
}

// AnalysisPayload is the versioned serialized form stored on a FileRecord.
// The naming step reconstructs its inputs from this instead of re-reading
// the file, so the schema is explicit and checked on decode.
type AnalysisPayload struct {
	SchemaVersion int               `json:"schema_version"`
	Semantic      SemanticResult    `json:"semantic"`
	PGN           PGNResult         `json:"pgn"`
	Integration   IntegrationResult `json:"integration"`
}

// EncodeAnalysisPayload serializes an analysis result and its integration
// outcome with the current schema version.
func EncodeAnalysisPayload(res AnalysisResult, integration IntegrationResult) (string, error) {
	payload := AnalysisPayload{
		SchemaVersion: AnalysisPayloadVersion,
		Semantic:      res.Semantic,
		PGN:           res.PGN,
		Integration:   integration,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode analysis payload: %w", err)
	}
	return string(raw), nil
}

// DecodeAnalysisPayload parses a persisted payload, rejecting unknown
// schema versions rather than guessing at field meanings.
func DecodeAnalysisPayload(raw string) (*AnalysisPayload, error) {
	if raw == "" {
		return nil, fmt.Errorf("decode analysis payload: empty payload")
	}
	var payload AnalysisPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode analysis payload: %w", err)
	}
	if payload.SchemaVersion != AnalysisPayloadVersion {
		return nil, fmt.Errorf("decode analysis payload: unsupported schema version %d", payload.SchemaVersion)
	}
	return &payload, nil
}
