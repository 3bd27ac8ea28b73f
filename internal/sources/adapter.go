// Package sources holds one adapter per external verification provider.
// Every adapter normalizes its provider's response into an EvidenceItem,
// funnels network access through the cached API client, and fails on its
// own: a broken provider produces found=false evidence, never an error the
// orchestrator has to recover from.
package sources

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/trusthire/backend/internal/apiclient"
	"github.com/trusthire/backend/internal/metrics"
	"github.com/trusthire/backend/internal/storage/models"
)

// Target is one claim entity handed to an adapter. Hint carries an optional
// disambiguator: the stated location for the phone validator, an extra
// search term for the footprint lookup.
type Target struct {
	Value string
	Hint  string
}

// Adapter checks one target against one provider.
type Adapter interface {
	Source() models.SourceID
	Category() models.Category
	Verify(ctx context.Context, target Target) models.EvidenceItem
}

// Options are shared by every provider adapter.
type Options struct {
	Client  *apiclient.Client
	Timeout time.Duration
	Logger  *zap.Logger
}

func (o *Options) fill() {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// newItem starts an evidence record for one lookup.
func newItem(source models.SourceID, category models.Category, target string) models.EvidenceItem {
	return models.EvidenceItem{
		Source:   source,
		Category: category,
		Target:   target,
	}
}

// finish stamps timing and translates a failure into the item's error
// reason. Timeouts collapse to the "timeout" reason regardless of where in
// the call they surfaced.
func finish(item *models.EvidenceItem, started time.Time, err error) {
	item.FetchedAt = time.Now()
	item.LatencyMS = time.Since(started).Milliseconds()

	outcome := "ok"
	if err != nil {
		item.Found = false
		item.Err = errReason(err)
		outcome = "error"
	}
	metrics.AdapterRequests.WithLabelValues(string(item.Source), outcome).Inc()
	metrics.AdapterLatency.WithLabelValues(string(item.Source)).Observe(float64(item.LatencyMS) / 1000)
}

func errReason(err error) string {
	var advErr *apiclient.AdapterError
	if errors.As(err, &advErr) {
		if advErr.Timeout() {
			return models.ErrReasonTimeout
		}
		return advErr.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.ErrReasonTimeout
	}
	return err.Error()
}
