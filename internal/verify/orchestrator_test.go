package verify

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trusthire/backend/internal/sources"
	"github.com/trusthire/backend/internal/storage/models"
)

// stubAdapter counts lookups and answers after an optional delay.
type stubAdapter struct {
	source   models.SourceID
	category models.Category
	delay    time.Duration
	calls    int32
	mu       sync.Mutex
	targets  []string
}

func (s *stubAdapter) Source() models.SourceID   { return s.source }
func (s *stubAdapter) Category() models.Category { return s.category }

func (s *stubAdapter) Verify(ctx context.Context, target sources.Target) models.EvidenceItem {
	atomic.AddInt32(&s.calls, 1)
	s.mu.Lock()
	s.targets = append(s.targets, target.Value)
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
		}
	}
	return models.EvidenceItem{
		Source:   s.source,
		Category: s.category,
		Target:   target.Value,
		Found:    true,
	}
}

func testClaim() *models.CandidateClaim {
	return &models.CandidateClaim{
		FullName: "Jane Doe",
		Email:    "jane@example.com",
		Phone:    "+16502530000",
		Location: "Mountain View, CA",
		Positions: []models.PositionClaim{
			{Employer: "Globex", EmployerDomain: "globex.com", Start: "2019-01", End: "2021-06"},
		},
		Educations: []models.EducationClaim{
			{Institution: "Example University"},
		},
		Identifiers: models.Identifiers{GitHub: "janedoe"},
	}
}

func TestRunCollectsAllEvidence(t *testing.T) {
	registry := &stubAdapter{source: models.SourceGLEIF, category: models.CategoryBackground}
	education := &stubAdapter{source: models.SourceOpenAlex, category: models.CategoryBackground}
	developer := &stubAdapter{source: models.SourceGitHub, category: models.CategoryBackground}
	archive := &stubAdapter{source: models.SourceWayback, category: models.CategoryBackground}
	search := &stubAdapter{source: models.SourceSerpAPI, category: models.CategoryFootprint}
	email := &stubAdapter{source: models.SourceEmailCheck, category: models.CategoryContact}
	phone := &stubAdapter{source: models.SourcePhoneCheck, category: models.CategoryContact}

	o := NewOrchestrator(Config{
		Registry:  []sources.Adapter{registry},
		Education: []sources.Adapter{education},
		Developer: developer,
		Archive:   archive,
		Search:    search,
		Email:     email,
		Phone:     phone,
	})

	evidence, err := o.Run(context.Background(), testClaim(), nil)
	require.NoError(t, err)

	assert.Len(t, evidence[models.CategoryBackground], 4)
	assert.Len(t, evidence[models.CategoryContact], 2)
	assert.Len(t, evidence[models.CategoryFootprint], 1)
}

func TestRunRejectsInvalidClaim(t *testing.T) {
	o := NewOrchestrator(Config{})

	_, err := o.Run(context.Background(), &models.CandidateClaim{}, nil)

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "full_name", vErr.Field)
}

func TestRunDeduplicatesIdenticalLookups(t *testing.T) {
	registry := &stubAdapter{source: models.SourceGLEIF, category: models.CategoryBackground}

	o := NewOrchestrator(Config{Registry: []sources.Adapter{registry}})

	claim := &models.CandidateClaim{
		FullName: "Jane Doe",
		Positions: []models.PositionClaim{
			{Employer: "Globex", Title: "Engineer"},
			{Employer: "Globex", Title: "Senior Engineer"},
			{Employer: "Initech"},
		},
	}

	_, err := o.Run(context.Background(), claim, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&registry.calls),
		"two positions at the same employer share one lookup")
	assert.ElementsMatch(t, []string{"Globex", "Initech"}, registry.targets)
}

func TestRunDeadlineProducesDeadlineEvidence(t *testing.T) {
	fast := &stubAdapter{source: models.SourceEmailCheck, category: models.CategoryContact}
	slow := &stubAdapter{source: models.SourceGLEIF, category: models.CategoryBackground, delay: 2 * time.Second}

	o := NewOrchestrator(Config{
		Registry:   []sources.Adapter{slow},
		Email:      fast,
		RunTimeout: 100 * time.Millisecond,
	})

	claim := &models.CandidateClaim{
		FullName:  "Jane Doe",
		Email:     "jane@example.com",
		Positions: []models.PositionClaim{{Employer: "Globex"}},
	}

	started := time.Now()
	evidence, err := o.Run(context.Background(), claim, nil)
	require.NoError(t, err)
	assert.Less(t, time.Since(started), time.Second, "the run returns at its deadline, not the adapter's")

	require.Len(t, evidence[models.CategoryBackground], 1)
	pending := evidence[models.CategoryBackground][0]
	assert.Equal(t, models.ErrReasonDeadline, pending.Err)
	assert.Equal(t, models.SourceGLEIF, pending.Source)
	assert.False(t, pending.Found)

	require.Len(t, evidence[models.CategoryContact], 1)
	assert.Empty(t, evidence[models.CategoryContact][0].Err, "completed lookups keep their results")
}

func TestRunReportsProgress(t *testing.T) {
	email := &stubAdapter{source: models.SourceEmailCheck, category: models.CategoryContact}

	o := NewOrchestrator(Config{Email: email})

	var seen []models.EvidenceItem
	_, err := o.Run(context.Background(), &models.CandidateClaim{
		FullName: "Jane Doe",
		Email:    "jane@example.com",
	}, func(item models.EvidenceItem) {
		seen = append(seen, item)
	})
	require.NoError(t, err)

	require.Len(t, seen, 1)
	assert.Equal(t, models.SourceEmailCheck, seen[0].Source)
}
