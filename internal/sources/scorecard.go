package sources

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/trusthire/backend/internal/apiclient"
	"github.com/trusthire/backend/internal/storage/models"
)

const scorecardBaseURL = "https://api.data.gov/ed/collegescorecard/v1/schools"

// Scorecard verifies US institutions against the College Scorecard
// dataset. It needs an api.data.gov key; without one the adapter is not
// registered at all.
type Scorecard struct {
	api     *apiclient.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	limit   int
	logger  *zap.Logger
}

func NewScorecard(apiKey string, opts Options) *Scorecard {
	opts.fill()
	return &Scorecard{
		api:     opts.Client,
		baseURL: scorecardBaseURL,
		apiKey:  apiKey,
		timeout: opts.Timeout,
		limit:   3,
		logger:  opts.Logger,
	}
}

func (s *Scorecard) Source() models.SourceID   { return models.SourceScorecard }
func (s *Scorecard) Category() models.Category { return models.CategoryBackground }

type scorecardResponse struct {
	Results []struct {
		Name  string `json:"school.name"`
		City  string `json:"school.city"`
		State string `json:"school.state"`
	} `json:"results"`
}

func (s *Scorecard) Verify(ctx context.Context, target Target) models.EvidenceItem {
	item := newItem(models.SourceScorecard, models.CategoryBackground, target.Value)
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("api_key", s.apiKey)
	query.Set("school.name", target.Value)
	query.Set("per_page", strconv.Itoa(s.limit))
	query.Set("fields", "id,school.name,school.city,school.state")

	var resp scorecardResponse
	_, err := s.api.GetJSON(ctx, apiclient.Request{
		Source:   string(models.SourceScorecard),
		Category: "education",
		URL:      s.baseURL,
		Query:    query,
	}, &resp)
	if err != nil {
		finish(&item, started, err)
		return item
	}

	ev := &models.EducationEvidence{}
	for _, school := range resp.Results {
		ev.Institutions = append(ev.Institutions, models.InstitutionRecord{
			Name:  school.Name,
			City:  school.City,
			State: school.State,
		})
		if sim := similarity(target.Value, school.Name); sim > ev.Similarity {
			ev.Similarity = sim
			ev.BestMatch = school.Name
		}
	}
	item.Education = ev
	item.Found = ev.Similarity > 0.8

	s.logger.Info("college scorecard lookup completed",
		zap.String("institution", target.Value),
		zap.Int("results", len(resp.Results)),
		zap.Bool("found", item.Found),
	)
	finish(&item, started, nil)
	return item
}
