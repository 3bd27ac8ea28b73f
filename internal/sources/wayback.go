package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/trusthire/backend/internal/apiclient"
	"github.com/trusthire/backend/internal/storage/models"
)

const waybackCDXURL = "https://web.archive.org/cdx/search/cdx"

// Wayback corroborates employment timelines from web-archive captures of
// the employer's domain. The target is the employer domain when the claim
// supplies one, otherwise a best-effort "<name>.com" guess is not
// attempted; the orchestrator simply skips the lookup.
type Wayback struct {
	api     *apiclient.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

func NewWayback(opts Options) *Wayback {
	opts.fill()
	return &Wayback{
		api:     opts.Client,
		baseURL: waybackCDXURL,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
}

func (w *Wayback) Source() models.SourceID   { return models.SourceWayback }
func (w *Wayback) Category() models.Category { return models.CategoryBackground }

func (w *Wayback) Verify(ctx context.Context, target Target) models.EvidenceItem {
	// Hint carries the employer name the captures are attributed to; the
	// value is the domain queried.
	attributeTo := target.Hint
	if attributeTo == "" {
		attributeTo = target.Value
	}
	item := newItem(models.SourceWayback, models.CategoryBackground, attributeTo)
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("url", target.Value)
	query.Set("output", "json")
	query.Set("matchType", "domain")
	query.Set("filter", "statuscode:200")
	query.Set("fl", "timestamp,original,statuscode")
	query.Set("limit", "10")
	query.Set("collapse", "digest")

	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("Accept-Encoding", "gzip")

	resp, _, err := w.api.Fetch(ctx, apiclient.Request{
		Source:   string(models.SourceWayback),
		Category: "archive",
		URL:      w.baseURL,
		Query:    query,
		Header:   header,
	})
	if err != nil {
		finish(&item, started, err)
		return item
	}

	var rows [][]string
	if err := json.Unmarshal(resp.Body, &rows); err != nil {
		finish(&item, started, &apiclient.AdapterError{
			Kind:   apiclient.ErrKindDecode,
			Source: string(models.SourceWayback),
			Detail: err.Error(),
		})
		return item
	}

	// Row zero is the header; CDX occasionally emits trailing empty rows,
	// which count as nothing rather than crashing the run.
	ev := &models.ArchiveEvidence{}
	if len(rows) > 0 {
		for _, row := range rows[1:] {
			if len(row) == 0 || row[0] == "" {
				continue
			}
			if ev.FirstCapture == "" {
				ev.FirstCapture = row[0]
			}
			ev.LastCapture = row[0]
			ev.Captures++
		}
	}
	item.Archive = ev
	item.Found = ev.Captures > 0

	w.logger.Info("wayback lookup completed",
		zap.String("domain", target.Value),
		zap.Int("captures", ev.Captures),
	)
	finish(&item, started, nil)
	return item
}
