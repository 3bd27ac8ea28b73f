package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/trusthire/backend/internal/apiclient"
	"github.com/trusthire/backend/internal/storage/models"
)

const (
	serpAPIBaseURL  = "https://serpapi.com/search.json"
	googleSearchURL = "https://www.google.com/search"
)

// hitCategories maps result hosts to footprint buckets the scorer counts
// as professional presence.
var hitCategories = map[string]string{
	"linkedin.com":       "professional-network",
	"github.com":         "code-hosting",
	"gitlab.com":         "code-hosting",
	"stackoverflow.com":  "code-hosting",
	"scholar.google.com": "academic-index",
	"researchgate.net":   "academic-index",
	"orcid.org":          "academic-index",
}

// Search measures a candidate's digital footprint from search-engine
// results. With a SerpAPI key it queries the API; without one it falls
// back to scraping the result page directly.
type Search struct {
	api        *apiclient.Client
	serpAPIKey string
	baseURL    string
	fallback   string
	timeout    time.Duration
	maxResults int
	logger     *zap.Logger
}

func NewSearch(serpAPIKey string, opts Options) *Search {
	opts.fill()
	return &Search{
		api:        opts.Client,
		serpAPIKey: serpAPIKey,
		baseURL:    serpAPIBaseURL,
		fallback:   googleSearchURL,
		timeout:    opts.Timeout,
		maxResults: 10,
		logger:     opts.Logger,
	}
}

func (s *Search) Source() models.SourceID   { return models.SourceSerpAPI }
func (s *Search) Category() models.Category { return models.CategoryFootprint }

func (s *Search) Verify(ctx context.Context, target Target) models.EvidenceItem {
	item := newItem(models.SourceSerpAPI, models.CategoryFootprint, target.Value)
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	searchQuery := fmt.Sprintf("%q", target.Value)
	if target.Hint != "" {
		searchQuery = fmt.Sprintf("%q %s", target.Value, target.Hint)
	}

	var (
		hits []models.SearchHit
		err  error
	)
	if s.serpAPIKey != "" {
		hits, err = s.searchSerpAPI(ctx, searchQuery)
	} else {
		hits, err = s.scrapeResults(ctx, searchQuery)
	}
	if err != nil {
		finish(&item, started, err)
		return item
	}

	ev := &models.SearchEvidence{TotalHits: len(hits), Hits: hits}
	for i := range hits {
		hits[i].Category = categorizeHit(hits[i].Link)
		if hits[i].Category != "" {
			ev.ProfessionalHits++
		}
	}
	item.Search = ev
	item.Found = ev.TotalHits > 0

	s.logger.Info("footprint search completed",
		zap.String("name", target.Value),
		zap.Int("total_hits", ev.TotalHits),
		zap.Int("professional_hits", ev.ProfessionalHits),
	)
	finish(&item, started, nil)
	return item
}

type serpAPIResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

func (s *Search) searchSerpAPI(ctx context.Context, searchQuery string) ([]models.SearchHit, error) {
	query := url.Values{}
	query.Set("q", searchQuery)
	query.Set("api_key", s.serpAPIKey)
	query.Set("engine", "google")
	query.Set("num", fmt.Sprintf("%d", s.maxResults))

	var resp serpAPIResponse
	_, err := s.api.GetJSON(ctx, apiclient.Request{
		Source:   string(models.SourceSerpAPI),
		Category: "search",
		URL:      s.baseURL,
		Query:    query,
	}, &resp)
	if err != nil {
		return nil, err
	}

	hits := make([]models.SearchHit, 0, len(resp.OrganicResults))
	for _, r := range resp.OrganicResults {
		hits = append(hits, models.SearchHit{Title: r.Title, Link: r.Link, Snippet: r.Snippet})
	}
	return hits, nil
}

func (s *Search) scrapeResults(ctx context.Context, searchQuery string) ([]models.SearchHit, error) {
	query := url.Values{}
	query.Set("q", searchQuery)
	query.Set("num", fmt.Sprintf("%d", s.maxResults))

	header := http.Header{}
	header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, _, err := s.api.Fetch(ctx, apiclient.Request{
		Source:   string(models.SourceSerpAPI),
		Category: "search",
		URL:      s.fallback,
		Query:    query,
		Header:   header,
	})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, &apiclient.AdapterError{
			Kind:   apiclient.ErrKindDecode,
			Source: string(models.SourceSerpAPI),
			Detail: err.Error(),
		}
	}

	var hits []models.SearchHit
	doc.Find("div.g").Each(func(i int, sel *goquery.Selection) {
		if i >= s.maxResults {
			return
		}
		title := sel.Find("h3").Text()
		link, _ := sel.Find("a").Attr("href")
		if title != "" && link != "" {
			hits = append(hits, models.SearchHit{
				Title:   title,
				Link:    link,
				Snippet: sel.Find("div.VwiC3b").Text(),
			})
		}
	})
	return hits, nil
}

func categorizeHit(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	for domain, category := range hitCategories {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return category
		}
	}
	return ""
}
