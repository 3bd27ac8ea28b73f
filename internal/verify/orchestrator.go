// Package verify fans a candidate's claimed facts out to the source
// adapters and collects whatever evidence returns within the run deadline.
package verify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/trusthire/backend/internal/sources"
	"github.com/trusthire/backend/internal/storage/models"
)

// ProgressFunc observes each evidence item as it arrives; used by the
// streaming endpoint.
type ProgressFunc func(item models.EvidenceItem)

// Config wires the orchestrator. Nil adapters and empty slices are
// allowed; their lookups are simply skipped.
type Config struct {
	Registry  []sources.Adapter
	Education []sources.Adapter
	Developer sources.Adapter
	Archive   sources.Adapter
	Search    sources.Adapter
	Email     sources.Adapter
	Phone     sources.Adapter

	RunTimeout time.Duration
	Logger     *zap.Logger
}

// Orchestrator runs one verification fan-out per claim. Independent
// lookups never serialize behind each other, identical lookups are
// deduplicated, and no adapter failure escalates: the only run-level
// failure is a structurally invalid claim.
type Orchestrator struct {
	cfg Config
}

func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 45 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Orchestrator{cfg: cfg}
}

type lookup struct {
	adapter sources.Adapter
	target  sources.Target
}

type lookupResult struct {
	index int
	item  models.EvidenceItem
}

// Run validates the claim, dispatches one goroutine per distinct lookup
// and returns all evidence grouped by category. Lookups still in flight
// when the run deadline elapses are abandoned and recorded as
// deadline-exceeded evidence; the run itself always returns on time.
func (o *Orchestrator) Run(ctx context.Context, claim *models.CandidateClaim, onProgress ProgressFunc) (models.EvidenceMap, error) {
	if err := claim.Validate(); err != nil {
		return nil, err
	}

	lookups := o.plan(claim)
	o.cfg.Logger.Info("verification run starting",
		zap.String("candidate", claim.FullName),
		zap.Int("lookups", len(lookups)),
	)

	ctx, cancel := context.WithTimeout(ctx, o.cfg.RunTimeout)
	defer cancel()

	results := make(chan lookupResult, len(lookups))
	for i, l := range lookups {
		go func(index int, l lookup) {
			results <- lookupResult{index: index, item: l.adapter.Verify(ctx, l.target)}
		}(i, l)
	}

	evidence := make(models.EvidenceMap)
	done := make(map[int]bool, len(lookups))

collect:
	for range lookups {
		select {
		case res := <-results:
			done[res.index] = true
			evidence[res.item.Category] = append(evidence[res.item.Category], res.item)
			if onProgress != nil {
				onProgress(res.item)
			}
		case <-ctx.Done():
			break collect
		}
	}

	if ctx.Err() != nil {
		now := time.Now()
		for i, l := range lookups {
			if done[i] {
				continue
			}
			item := models.EvidenceItem{
				Source:    l.adapter.Source(),
				Category:  l.adapter.Category(),
				Target:    l.target.Value,
				FetchedAt: now,
				Err:       models.ErrReasonDeadline,
			}
			evidence[item.Category] = append(evidence[item.Category], item)
			if onProgress != nil {
				onProgress(item)
			}
		}
		o.cfg.Logger.Warn("run deadline elapsed with lookups pending",
			zap.String("candidate", claim.FullName),
			zap.Int("pending", len(lookups)-len(done)),
		)
	}

	return evidence, nil
}

// plan expands the claim into distinct lookups. Two positions at the same
// employer share one registry lookup; the shared target name attributes
// the evidence to both.
func (o *Orchestrator) plan(claim *models.CandidateClaim) []lookup {
	var lookups []lookup
	seen := make(map[string]bool)

	add := func(adapter sources.Adapter, target sources.Target) {
		if adapter == nil || target.Value == "" {
			return
		}
		key := string(adapter.Source()) + "|" + target.Value
		if seen[key] {
			return
		}
		seen[key] = true
		lookups = append(lookups, lookup{adapter: adapter, target: target})
	}

	for _, pos := range claim.Positions {
		for _, adapter := range o.cfg.Registry {
			add(adapter, sources.Target{Value: pos.Employer})
		}
		if pos.EmployerDomain != "" {
			add(o.cfg.Archive, sources.Target{Value: pos.EmployerDomain, Hint: pos.Employer})
		}
	}

	for _, edu := range claim.Educations {
		for _, adapter := range o.cfg.Education {
			add(adapter, sources.Target{Value: edu.Institution})
		}
	}

	if claim.Identifiers.GitHub != "" {
		add(o.cfg.Developer, sources.Target{Value: claim.Identifiers.GitHub})
	}

	add(o.cfg.Search, sources.Target{Value: claim.FullName, Hint: claim.Location})

	if claim.Email != "" {
		add(o.cfg.Email, sources.Target{Value: claim.Email})
	}
	if claim.Phone != "" {
		add(o.cfg.Phone, sources.Target{Value: claim.Phone, Hint: claim.Location})
	}

	return lookups
}
