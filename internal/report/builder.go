// Package report assembles sub-scores, evidence and rationale into the
// final versioned report object.
package report

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/trusthire/backend/internal/scoring"
	"github.com/trusthire/backend/internal/storage/models"
)

// Options inject the non-deterministic inputs so builds are repeatable
// under test.
type Options struct {
	Now   func() time.Time
	NewID func() string
}

// Build validates the component weights, inverts the weighted
// verification score into risk and stamps generation time and schema
// version. Inputs are copied, never mutated; a report has no lifecycle
// after creation.
func Build(components []models.ScoreComponent, evidence models.EvidenceMap, rationale []string, opts Options) (*models.AggregatedReport, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	weightSum := 0.0
	verification := 0.0
	for _, c := range components {
		weightSum += c.Weight
		verification += c.Weight * c.Score
	}
	if math.Abs(weightSum-1.0) > 1e-6 {
		return nil, fmt.Errorf("%w: got %.6f", scoring.ErrBadWeights, weightSum)
	}

	// Risk is the inverse of verification confidence.
	overall := math.Round((100-verification)*10) / 10
	if overall < 0 {
		overall = 0
	} else if overall > 100 {
		overall = 100
	}

	return &models.AggregatedReport{
		ID:           opts.NewID(),
		OverallScore: overall,
		Components:   copyComponents(components),
		Evidence:     copyEvidence(evidence),
		Rationale:    append([]string(nil), rationale...),
		GeneratedAt:  opts.Now().UTC(),
		Version:      models.ReportVersion,
	}, nil
}

func copyComponents(components []models.ScoreComponent) []models.ScoreComponent {
	return append([]models.ScoreComponent(nil), components...)
}

func copyEvidence(evidence models.EvidenceMap) models.EvidenceMap {
	out := make(models.EvidenceMap, len(evidence))
	for category, items := range evidence {
		out[category] = append([]models.EvidenceItem(nil), items...)
	}
	return out
}
