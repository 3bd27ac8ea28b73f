package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trusthire/backend/internal/storage/models"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(Config{})
	require.NoError(t, err)
	return e
}

func TestNewEngineRejectsBadWeights(t *testing.T) {
	_, err := NewEngine(Config{Weights: map[string]float64{
		string(models.CategoryAIContent): 0.5,
		string(models.CategoryContact):   0.4,
	}})
	require.ErrorIs(t, err, ErrBadWeights)
}

func TestNewEngineToleratesFloatNoise(t *testing.T) {
	_, err := NewEngine(Config{Weights: map[string]float64{
		string(models.CategoryAIContent):  0.35,
		string(models.CategoryContact):    0.25,
		string(models.CategoryBackground): 0.20,
		string(models.CategoryFootprint):  0.10,
		string(models.CategoryDocument):   0.10 + 1e-9,
	}})
	assert.NoError(t, err)
}

func TestScoreEmptyInputIsAllNeutral(t *testing.T) {
	e := newTestEngine(t)

	components, rationale, err := e.Score(Input{
		Claim:    &models.CandidateClaim{FullName: "Jane Doe"},
		Evidence: models.EvidenceMap{},
	})
	require.NoError(t, err)
	require.Len(t, components, 5)

	weightSum := 0.0
	for _, c := range components {
		assert.Equal(t, 50.0, c.Score, "%s should be neutral with no evidence", c.Label)
		weightSum += c.Weight
	}
	assert.InDelta(t, 1.0, weightSum, 1e-6)
	assert.NotEmpty(t, rationale)
}

func TestEmailScorePenalties(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name string
		ev   models.EmailEvidence
		want float64
	}{
		{
			name: "clean deliverable address",
			ev:   models.EmailEvidence{SyntaxValid: true, MXFound: true},
			want: 100,
		},
		{
			name: "no MX records",
			ev:   models.EmailEvidence{SyntaxValid: true},
			want: 60,
		},
		{
			name: "disposable domain",
			ev:   models.EmailEvidence{SyntaxValid: true, MXFound: true, Disposable: true},
			want: 50,
		},
		{
			name: "role account",
			ev:   models.EmailEvidence{SyntaxValid: true, MXFound: true, RoleAccount: true},
			want: 90,
		},
		{
			name: "no MX and disposable stack",
			ev:   models.EmailEvidence{SyntaxValid: true, Disposable: true},
			want: 10,
		},
		{
			name: "invalid syntax floors at zero",
			ev:   models.EmailEvidence{},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &models.EvidenceItem{Email: &tt.ev}
			score, _ := e.emailScore(item)
			assert.Equal(t, tt.want, score)
		})
	}
}

func TestPhoneScore(t *testing.T) {
	e := newTestEngine(t)

	score, _ := e.phoneScore(&models.EvidenceItem{Phone: &models.PhoneEvidence{Valid: true}})
	assert.Equal(t, 100.0, score)

	score, _ = e.phoneScore(&models.EvidenceItem{Phone: &models.PhoneEvidence{Valid: true, TollFree: true}})
	assert.Equal(t, 80.0, score)

	score, _ = e.phoneScore(&models.EvidenceItem{Phone: &models.PhoneEvidence{Valid: false}})
	assert.Equal(t, 0.0, score)

	score, _ = e.phoneScore(nil)
	assert.Equal(t, 50.0, score, "unverifiable phone is neutral")
}

func TestGeoScore(t *testing.T) {
	e := newTestEngine(t)

	item := func(geo models.GeoConsistency) *models.EvidenceItem {
		return &models.EvidenceItem{Phone: &models.PhoneEvidence{Valid: true, Geo: &geo}}
	}

	score, _ := e.geoScore(item(models.GeoConsistency{RegionMatch: true, CountryMatch: true}))
	assert.Equal(t, 100.0, score)

	score, _ = e.geoScore(item(models.GeoConsistency{CountryMatch: true}))
	assert.Equal(t, 60.0, score)

	score, _ = e.geoScore(item(models.GeoConsistency{}))
	assert.Equal(t, 0.0, score)

	score, _ = e.geoScore(item(models.GeoConsistency{TollFreeConflict: true, CountryMatch: true}))
	assert.Equal(t, 0.0, score, "a toll-free conflict overrides country match")

	score, _ = e.geoScore(&models.EvidenceItem{Phone: &models.PhoneEvidence{Valid: true}})
	assert.Equal(t, 50.0, score, "no stated location to compare is neutral")
}

func TestContactComposite(t *testing.T) {
	e := newTestEngine(t)

	evidence := models.EvidenceMap{
		models.CategoryContact: {
			{
				Source: models.SourceEmailCheck,
				Email:  &models.EmailEvidence{SyntaxValid: true, MXFound: true},
			},
			{
				Source: models.SourcePhoneCheck,
				Phone: &models.PhoneEvidence{
					Valid: true,
					Geo:   &models.GeoConsistency{CountryMatch: true, RegionMatch: true},
				},
			},
		},
	}

	res := e.scoreContact(Input{Evidence: evidence})
	assert.Equal(t, 100.0, res.score, "0.4*100 + 0.4*100 + 0.2*100")

	// Degrade the email to a disposable: 0.4*50 + 0.4*100 + 0.2*100 = 80.
	evidence[models.CategoryContact][0].Email.Disposable = true
	res = e.scoreContact(Input{Evidence: evidence})
	assert.Equal(t, 80.0, res.score)
}

func TestScoreAIContent(t *testing.T) {
	e := newTestEngine(t)

	res := e.scoreAIContent(Input{AI: &models.AiDetection{IsAIGenerated: false, Confidence: 90}})
	assert.Equal(t, 90.0, res.score, "human verdict scores at its confidence")

	res = e.scoreAIContent(Input{AI: &models.AiDetection{IsAIGenerated: true, Confidence: 90}})
	assert.Equal(t, 10.0, res.score, "AI verdict inverts the confidence")

	res = e.scoreAIContent(Input{})
	assert.Equal(t, 50.0, res.score)
}

func TestScoreFootprint(t *testing.T) {
	e := newTestEngine(t)

	item := func(total, professional int) models.EvidenceMap {
		return models.EvidenceMap{
			models.CategoryFootprint: {{
				Source: models.SourceSerpAPI,
				Found:  total > 0,
				Search: &models.SearchEvidence{TotalHits: total, ProfessionalHits: professional},
			}},
		}
	}

	res := e.scoreFootprint(Input{Evidence: item(10, 10)})
	assert.Equal(t, 100.0, res.score)

	res = e.scoreFootprint(Input{Evidence: item(10, 5)})
	assert.Equal(t, 65.0, res.score, "30 + 70*0.5")

	res = e.scoreFootprint(Input{Evidence: item(10, 0)})
	assert.Equal(t, 30.0, res.score)

	res = e.scoreFootprint(Input{Evidence: item(0, 0)})
	assert.Equal(t, 25.0, res.score, "no hits at all is a weak negative signal")

	res = e.scoreFootprint(Input{Evidence: models.EvidenceMap{}})
	assert.Equal(t, 50.0, res.score)
}

func TestScoreDocument(t *testing.T) {
	e := newTestEngine(t)

	res := e.scoreDocument(Input{Document: &models.DocumentSignals{AuthenticityScore: 85}})
	assert.Equal(t, 85.0, res.score)

	res = e.scoreDocument(Input{})
	assert.Equal(t, 50.0, res.score)
}

func TestScoreAppendsDeadlineRationale(t *testing.T) {
	e := newTestEngine(t)

	_, rationale, err := e.Score(Input{
		Claim: &models.CandidateClaim{FullName: "Jane Doe"},
		Evidence: models.EvidenceMap{
			models.CategoryBackground: {{
				Source: models.SourceGLEIF,
				Err:    models.ErrReasonDeadline,
			}},
		},
	})
	require.NoError(t, err)

	found := false
	for _, line := range rationale {
		if line == "1 lookups did not complete before the run deadline; affected categories are scored on incomplete evidence with reduced confidence" {
			found = true
		}
	}
	assert.True(t, found, "incomplete runs must say so in the rationale")
}
