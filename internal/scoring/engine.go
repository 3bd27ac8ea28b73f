// Package scoring turns raw evidence into weighted 0-100 category
// sub-scores with a rationale trail. Heuristics live in a declarative
// table so tests can feed synthetic evidence without touching adapters.
package scoring

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/trusthire/backend/internal/storage/models"
)

// ErrBadWeights rejects a weight table that does not sum to 1.0.
var ErrBadWeights = errors.New("category weights must sum to 1.0")

const weightTolerance = 1e-6

// DefaultWeights reflect where fraud signal concentrates: AI-generated
// content dominates, contact and background carry the verifiable facts.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		string(models.CategoryAIContent):  0.35,
		string(models.CategoryContact):    0.25,
		string(models.CategoryBackground): 0.20,
		string(models.CategoryFootprint):  0.10,
		string(models.CategoryDocument):   0.10,
	}
}

// Input is everything one scoring pass sees. AI and Document are
// pre-scored collaborator outputs; the engine folds them in without
// recomputing.
type Input struct {
	Claim    *models.CandidateClaim
	Evidence models.EvidenceMap
	AI       *models.AiDetection
	Document *models.DocumentSignals
}

type categoryResult struct {
	score     float64
	rationale []string
}

type categoryScorer struct {
	category models.Category
	label    string
	score    func(e *Engine, in Input) categoryResult
}

type Config struct {
	Weights map[string]float64
	Neutral float64
	Logger  *zap.Logger
}

type Engine struct {
	weights map[string]float64
	neutral float64
	logger  *zap.Logger
	table   []categoryScorer
}

// NewEngine fails fast on a bad weight table rather than emitting
// reports whose components cannot be compared.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Weights == nil {
		cfg.Weights = DefaultWeights()
	}
	if cfg.Neutral <= 0 {
		cfg.Neutral = 50
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	sum := 0.0
	for _, w := range cfg.Weights {
		sum += w
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return nil, fmt.Errorf("%w: got %.6f", ErrBadWeights, sum)
	}

	e := &Engine{
		weights: cfg.Weights,
		neutral: cfg.Neutral,
		logger:  cfg.Logger,
	}
	e.table = []categoryScorer{
		{models.CategoryAIContent, "AI Content", (*Engine).scoreAIContent},
		{models.CategoryContact, "Contact", (*Engine).scoreContact},
		{models.CategoryBackground, "Background", (*Engine).scoreBackground},
		{models.CategoryFootprint, "Digital Footprint", (*Engine).scoreFootprint},
		{models.CategoryDocument, "Document Authenticity", (*Engine).scoreDocument},
	}
	return e, nil
}

// Score produces one component per category plus the run-level rationale.
// Component scores are verification confidence (higher is better); the
// report builder inverts the weighted sum into risk.
func (e *Engine) Score(in Input) ([]models.ScoreComponent, []string, error) {
	components := make([]models.ScoreComponent, 0, len(e.table))
	var rationale []string

	for _, scorer := range e.table {
		res := scorer.score(e, in)
		components = append(components, models.ScoreComponent{
			Label:       scorer.label,
			Score:       round1(res.score),
			Description: res.rationale[0],
			Weight:      e.weights[string(scorer.category)],
		})
		rationale = append(rationale, res.rationale...)
	}

	if pending := countDeadlined(in.Evidence); pending > 0 {
		rationale = append(rationale, fmt.Sprintf(
			"%d lookups did not complete before the run deadline; affected categories are scored on incomplete evidence with reduced confidence", pending))
	}

	e.logger.Info("scoring completed", zap.Int("components", len(components)))
	return components, rationale, nil
}

// Neutral is the mid-range score used when a category has nothing to go
// on. Absence of evidence is neither confirmation nor fraud.
func (e *Engine) Neutral() float64 { return e.neutral }

func (e *Engine) neutralResult(label string) categoryResult {
	return categoryResult{
		score:     e.neutral,
		rationale: []string{label + ": unverifiable, no evidence available; neutral score applied"},
	}
}

func (e *Engine) scoreAIContent(in Input) categoryResult {
	if in.AI == nil {
		return e.neutralResult("AI content")
	}
	// The detector reports confidence in its own verdict; verification
	// confidence is high when the verdict is "human written".
	score := float64(in.AI.Confidence)
	verdict := "human-written"
	if in.AI.IsAIGenerated {
		score = float64(100 - in.AI.Confidence)
		verdict = "AI-generated"
	}
	return categoryResult{
		score: score,
		rationale: []string{fmt.Sprintf("AI content: detector verdict %s at %d%% confidence",
			verdict, in.AI.Confidence)},
	}
}

func (e *Engine) scoreContact(in Input) categoryResult {
	email := findEvidence(in.Evidence, models.CategoryContact, models.SourceEmailCheck)
	phone := findEvidence(in.Evidence, models.CategoryContact, models.SourcePhoneCheck)
	if email == nil && phone == nil {
		return e.neutralResult("Contact")
	}

	emailScore, emailWhy := e.emailScore(email)
	phoneScore, phoneWhy := e.phoneScore(phone)
	geoScore, geoWhy := e.geoScore(phone)

	composite := 0.4*emailScore + 0.4*phoneScore + 0.2*geoScore
	summary := fmt.Sprintf("Contact: composite %.0f (email %.0f, phone %.0f, geo %.0f)",
		composite, emailScore, phoneScore, geoScore)
	return categoryResult{
		score:     composite,
		rationale: []string{summary, emailWhy, phoneWhy, geoWhy},
	}
}

// emailScore starts at 100 and subtracts documented penalties; an invalid
// address floors at zero outright.
func (e *Engine) emailScore(item *models.EvidenceItem) (float64, string) {
	if item == nil || item.Failed() || item.Email == nil {
		return e.neutral, "Email: unverifiable; neutral score applied"
	}
	ev := item.Email
	if !ev.SyntaxValid {
		return 0, fmt.Sprintf("Email %s: invalid syntax", ev.Input)
	}

	score := 100.0
	why := fmt.Sprintf("Email domain %s:", ev.Domain)
	if !ev.MXFound {
		score -= 40
		why += " no mail-exchange records (-40);"
	}
	if ev.Disposable {
		score -= 50
		why += " disposable domain (-50);"
	}
	if ev.RoleAccount {
		score -= 10
		why += " role account pattern (-10);"
	}
	if score < 0 {
		score = 0
	}
	if score == 100 {
		why += " deliverable, no penalties"
	}
	return score, why
}

func (e *Engine) phoneScore(item *models.EvidenceItem) (float64, string) {
	if item == nil || item.Failed() || item.Phone == nil {
		return e.neutral, "Phone: unverifiable; neutral score applied"
	}
	ev := item.Phone
	if !ev.Valid {
		return 0, fmt.Sprintf("Phone %s: invalid for region", ev.Input)
	}

	score := 100.0
	why := fmt.Sprintf("Phone %s: valid", ev.E164)
	if ev.TollFree {
		score -= 20
		why += ", toll-free (-20)"
	}
	return score, why
}

func (e *Engine) geoScore(item *models.EvidenceItem) (float64, string) {
	if item == nil || item.Failed() || item.Phone == nil || item.Phone.Geo == nil {
		return e.neutral, "Geo consistency: no stated location to compare; neutral score applied"
	}
	geo := item.Phone.Geo
	switch {
	case geo.TollFreeConflict:
		return 0, fmt.Sprintf("Geo: toll-free number conflicts with stated local presence in %q", geo.StatedLocation)
	case geo.RegionMatch:
		return 100, fmt.Sprintf("Geo: phone region matches stated location %q", geo.StatedLocation)
	case geo.CountryMatch:
		return 60, fmt.Sprintf("Geo: phone country matches stated location %q but region differs", geo.StatedLocation)
	default:
		return 0, fmt.Sprintf("Geo: phone region does not match stated location %q", geo.StatedLocation)
	}
}

func (e *Engine) scoreFootprint(in Input) categoryResult {
	item := findEvidence(in.Evidence, models.CategoryFootprint, models.SourceSerpAPI)
	if item == nil || item.Failed() || item.Search == nil {
		return e.neutralResult("Digital footprint")
	}

	ev := item.Search
	if ev.TotalHits == 0 {
		// Absence of footprint is weak evidence, not conclusive.
		return categoryResult{
			score:     25,
			rationale: []string{"Digital footprint: no search hits found; weak negative signal"},
		}
	}

	proportion := float64(ev.ProfessionalHits) / float64(ev.TotalHits)
	score := 30 + 70*proportion
	return categoryResult{
		score: score,
		rationale: []string{fmt.Sprintf(
			"Digital footprint: %d of %d search hits are professional profiles (%.0f%% consistency)",
			ev.ProfessionalHits, ev.TotalHits, proportion*100)},
	}
}

func (e *Engine) scoreDocument(in Input) categoryResult {
	if in.Document == nil {
		return e.neutralResult("Document authenticity")
	}
	why := fmt.Sprintf("Document authenticity: pre-scored %d", in.Document.AuthenticityScore)
	if n := len(in.Document.SuspiciousIndicators); n > 0 {
		why += fmt.Sprintf(" with %d suspicious indicators", n)
	}
	return categoryResult{
		score:     float64(in.Document.AuthenticityScore),
		rationale: []string{why},
	}
}

// findEvidence returns the first usable item for source within category.
func findEvidence(evidence models.EvidenceMap, category models.Category, source models.SourceID) *models.EvidenceItem {
	for i := range evidence[category] {
		if evidence[category][i].Source == source {
			return &evidence[category][i]
		}
	}
	return nil
}

func countDeadlined(evidence models.EvidenceMap) int {
	n := 0
	for _, items := range evidence {
		for _, item := range items {
			if item.Err == models.ErrReasonDeadline {
				n++
			}
		}
	}
	return n
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
