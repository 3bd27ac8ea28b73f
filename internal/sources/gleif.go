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

const gleifBaseURL = "https://api.gleif.org/api/v1/lei-records"

// GLEIF verifies employer identity against the Global Legal Entity
// Identifier registry.
type GLEIF struct {
	api     *apiclient.Client
	baseURL string
	timeout time.Duration
	limit   int
	logger  *zap.Logger
}

func NewGLEIF(opts Options) *GLEIF {
	opts.fill()
	return &GLEIF{
		api:     opts.Client,
		baseURL: gleifBaseURL,
		timeout: opts.Timeout,
		limit:   3,
		logger:  opts.Logger,
	}
}

func (g *GLEIF) Source() models.SourceID   { return models.SourceGLEIF }
func (g *GLEIF) Category() models.Category { return models.CategoryBackground }

type gleifResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Entity struct {
				LegalName struct {
					Name string `json:"name"`
				} `json:"legalName"`
				LegalAddress struct {
					Country string `json:"country"`
				} `json:"legalAddress"`
			} `json:"entity"`
			Registration struct {
				Status string `json:"status"`
			} `json:"registration"`
		} `json:"attributes"`
	} `json:"data"`
}

func (g *GLEIF) Verify(ctx context.Context, target Target) models.EvidenceItem {
	item := newItem(models.SourceGLEIF, models.CategoryBackground, target.Value)
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	seen := make(map[string]bool)
	var records []models.RegistryRecord

	for _, term := range searchTerms(target.Value) {
		query := url.Values{}
		query.Set("filter[entity.legalName]", term)
		query.Set("page[size]", strconv.Itoa(g.limit))

		var resp gleifResponse
		_, err := g.api.GetJSON(ctx, apiclient.Request{
			Source:   string(models.SourceGLEIF),
			Category: "registry",
			URL:      g.baseURL,
			Query:    query,
		}, &resp)
		if err != nil {
			finish(&item, started, err)
			return item
		}

		for _, rec := range resp.Data {
			if rec.ID == "" || seen[rec.ID] {
				continue
			}
			seen[rec.ID] = true
			records = append(records, models.RegistryRecord{
				ID:      rec.ID,
				Name:    rec.Attributes.Entity.LegalName.Name,
				Status:  rec.Attributes.Registration.Status,
				Country: rec.Attributes.Entity.LegalAddress.Country,
			})
		}
	}

	ev := &models.RegistryEvidence{Records: records}
	for _, rec := range records {
		if sim := similarity(target.Value, rec.Name); sim > ev.Similarity {
			ev.Similarity = sim
			ev.BestMatch = rec.Name
		}
	}
	item.Registry = ev
	item.Found = ev.Similarity >= matchThreshold(target.Value)

	g.logger.Info("gleif lookup completed",
		zap.String("employer", target.Value),
		zap.Int("records", len(records)),
		zap.Bool("found", item.Found),
	)
	finish(&item, started, nil)
	return item
}
