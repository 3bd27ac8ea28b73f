package models

import "time"

// ReportVersion is stamped on every report so stored reports remain
// interpretable across schema changes.
const ReportVersion = "1.0.0"

// AiDetection is the pre-scored verdict from the AI content detector; the
// scoring engine folds it in without recomputing.
type AiDetection struct {
	IsAIGenerated bool   `json:"is_ai_generated"`
	Confidence    int    `json:"confidence"`
	Model         string `json:"model,omitempty"`
	Rationale     string `json:"rationale,omitempty"`
}

// DocumentSignals carries the document-extraction collaborator's output.
type DocumentSignals struct {
	AuthenticityScore    int      `json:"authenticity_score"`
	SuspiciousIndicators []string `json:"suspicious_indicators,omitempty"`
}

// ScoreComponent is one weighted category sub-score. Weights across a
// report's components sum to 1.0.
type ScoreComponent struct {
	Label       string  `json:"label"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

// AggregatedReport is the final output of a verification run. It is created
// once and never mutated; a new run produces a new report.
type AggregatedReport struct {
	ID           string           `json:"id"`
	OverallScore float64          `json:"overall_score"`
	Components   []ScoreComponent `json:"components"`
	Evidence     EvidenceMap      `json:"evidence"`
	Rationale    []string         `json:"rationale"`
	GeneratedAt  time.Time        `json:"generated_at"`
	Version      string           `json:"version"`
}
