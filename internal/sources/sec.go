package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/trusthire/backend/internal/apiclient"
	"github.com/trusthire/backend/internal/storage/models"
)

const secTickersURL = "https://www.sec.gov/files/company_tickers.json"

// SEC verifies employer identity against the EDGAR public-company ticker
// file. Presence there is a strong existence signal; the file changes
// rarely, so it rides the long "filings" cache TTL.
type SEC struct {
	api          *apiclient.Client
	tickersURL   string
	contactEmail string
	timeout      time.Duration
	logger       *zap.Logger
}

func NewSEC(contactEmail string, opts Options) *SEC {
	opts.fill()
	return &SEC{
		api:          opts.Client,
		tickersURL:   secTickersURL,
		contactEmail: contactEmail,
		timeout:      opts.Timeout,
		logger:       opts.Logger,
	}
}

func (s *SEC) Source() models.SourceID   { return models.SourceSEC }
func (s *SEC) Category() models.Category { return models.CategoryBackground }

type secTicker struct {
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

func (s *SEC) Verify(ctx context.Context, target Target) models.EvidenceItem {
	item := newItem(models.SourceSEC, models.CategoryBackground, target.Value)
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("User-Agent", fmt.Sprintf("trusthire-verifier/1.0 (%s)", s.contactEmail))

	var tickers map[string]secTicker
	_, err := s.api.GetJSON(ctx, apiclient.Request{
		Source:   string(models.SourceSEC),
		Category: "filings",
		URL:      s.tickersURL,
		Header:   header,
	}, &tickers)
	if err != nil {
		finish(&item, started, err)
		return item
	}

	searchName := normalizeName(target.Value)
	if aliases, ok := companyAliases[strings.ToLower(strings.TrimSpace(target.Value))]; ok {
		searchName = normalizeName(aliases[0])
	}

	ev := &models.RegistryEvidence{}
	for _, rec := range tickers {
		sim := wordOverlap(searchName, normalizeName(rec.Title))
		if isMajorCompany(rec.Title) && isMajorCompany(searchName) && sim < 0.8 {
			if shareMajorName(rec.Title, searchName) {
				sim = 0.8
			}
		}
		if sim > ev.Similarity {
			ev.Similarity = sim
			ev.BestMatch = rec.Title
			ev.Records = []models.RegistryRecord{{ID: rec.Ticker, Name: rec.Title}}
		}
	}
	item.Registry = ev
	item.Found = ev.Similarity > 0.2

	s.logger.Info("sec lookup completed",
		zap.String("employer", target.Value),
		zap.String("best_match", ev.BestMatch),
		zap.Float64("similarity", ev.Similarity),
	)
	finish(&item, started, nil)
	return item
}

// wordOverlap scores two normalized names by shared words over total words
// (Jaccard), which tolerates the long legal titles EDGAR uses.
func wordOverlap(a, b string) float64 {
	aw := strings.Fields(a)
	bw := strings.Fields(b)
	if len(aw) == 0 || len(bw) == 0 {
		return 0
	}

	set := make(map[string]bool, len(aw))
	for _, w := range aw {
		set[w] = true
	}
	union := make(map[string]bool, len(aw)+len(bw))
	for _, w := range aw {
		union[w] = true
	}
	shared := 0
	for _, w := range bw {
		if set[w] {
			shared++
		}
		union[w] = true
	}
	return float64(shared) / float64(len(union))
}

func shareMajorName(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	for _, major := range majorCompanies {
		if strings.Contains(la, major) && strings.Contains(lb, major) {
			return true
		}
	}
	return false
}
