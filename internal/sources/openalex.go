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

const openAlexBaseURL = "https://api.openalex.org"

// OpenAlex verifies institution identity against the OpenAlex academic
// registry. Education matches use a tighter 0.8 similarity bar than
// company lookups: institution names are long and distinctive.
type OpenAlex struct {
	api          *apiclient.Client
	baseURL      string
	contactEmail string
	timeout      time.Duration
	limit        int
	logger       *zap.Logger
}

func NewOpenAlex(contactEmail string, opts Options) *OpenAlex {
	opts.fill()
	return &OpenAlex{
		api:          opts.Client,
		baseURL:      openAlexBaseURL,
		contactEmail: contactEmail,
		timeout:      opts.Timeout,
		limit:        3,
		logger:       opts.Logger,
	}
}

func (o *OpenAlex) Source() models.SourceID   { return models.SourceOpenAlex }
func (o *OpenAlex) Category() models.Category { return models.CategoryBackground }

type openAlexResponse struct {
	Results []struct {
		DisplayName string `json:"display_name"`
		CountryCode string `json:"country_code"`
		Type        string `json:"type"`
	} `json:"results"`
}

func (o *OpenAlex) Verify(ctx context.Context, target Target) models.EvidenceItem {
	item := newItem(models.SourceOpenAlex, models.CategoryBackground, target.Value)
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("search", target.Value)
	query.Set("per-page", strconv.Itoa(o.limit))
	if o.contactEmail != "" {
		query.Set("mailto", o.contactEmail)
	}

	var resp openAlexResponse
	_, err := o.api.GetJSON(ctx, apiclient.Request{
		Source:   string(models.SourceOpenAlex),
		Category: "education",
		URL:      o.baseURL + "/institutions",
		Query:    query,
	}, &resp)
	if err != nil {
		finish(&item, started, err)
		return item
	}

	ev := &models.EducationEvidence{}
	for _, inst := range resp.Results {
		ev.Institutions = append(ev.Institutions, models.InstitutionRecord{
			Name:    inst.DisplayName,
			Country: inst.CountryCode,
		})
		if sim := similarity(target.Value, inst.DisplayName); sim > ev.Similarity {
			ev.Similarity = sim
			ev.BestMatch = inst.DisplayName
		}
	}
	item.Education = ev
	item.Found = ev.Similarity > 0.8

	o.logger.Info("openalex lookup completed",
		zap.String("institution", target.Value),
		zap.Int("results", len(resp.Results)),
		zap.Bool("found", item.Found),
	)
	finish(&item, started, nil)
	return item
}
