package scoring

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/trusthire/backend/internal/storage/models"
)

const (
	companyWeight   = 0.40
	educationWeight = 0.20
	timelineWeight  = 0.25
	developerWeight = 0.15

	// Developer evidence is additive and capped, then rescaled to 0-100
	// before weighting.
	devProfilePoints = 30
	devRepos5Points  = 20
	devRepos10Points = 10
	devMaxPoints     = 60

	// A claimed employment window is plausible when archive captures fall
	// within this margin of its bounds.
	timelineSlack = 6 * 30 * 24 * time.Hour
)

func (e *Engine) scoreBackground(in Input) categoryResult {
	if in.Claim == nil {
		return e.neutralResult("Background")
	}

	employers := distinctEmployers(in.Claim)
	institutions := distinctInstitutions(in.Claim)
	hasDev := in.Claim.Identifiers.GitHub != ""

	if len(employers) == 0 && len(institutions) == 0 && !hasDev {
		return e.neutralResult("Background")
	}
	if allFailed(in.Evidence[models.CategoryBackground]) {
		return e.neutralResult("Background")
	}

	company, companyWhy := e.entityCoverage("Company identity", employers, in.Evidence, registrySources)
	education, educationWhy := e.entityCoverage("Education", institutions, in.Evidence, educationSources)
	timeline, timelineWhy := e.timelineScore(in.Claim, in.Evidence)
	developer, developerWhy := e.developerScore(in.Evidence, hasDev)

	composite := companyWeight*company + educationWeight*education +
		timelineWeight*timeline + developerWeight*developer

	summary := fmt.Sprintf("Background: composite %.0f (company %.0f, education %.0f, timeline %.0f, developer %.0f)",
		composite, company, education, timeline, developer)
	return categoryResult{
		score:     composite,
		rationale: []string{summary, companyWhy, educationWhy, timelineWhy, developerWhy},
	}
}

var registrySources = map[models.SourceID]bool{
	models.SourceGLEIF: true,
	models.SourceSEC:   true,
}

var educationSources = map[models.SourceID]bool{
	models.SourceOpenAlex:  true,
	models.SourceScorecard: true,
}

// entityCoverage scores the fraction of claimed entities corroborated by
// at least one matching record, scaled to 0-100.
func (e *Engine) entityCoverage(label string, entities []string, evidence models.EvidenceMap, from map[models.SourceID]bool) (float64, string) {
	if len(entities) == 0 {
		return e.neutral, label + ": nothing claimed; neutral score applied"
	}

	var matched []string
	checked := false
	for _, entity := range entities {
		for _, item := range evidence[models.CategoryBackground] {
			if !from[item.Source] || item.Target != entity {
				continue
			}
			if !item.Failed() {
				checked = true
			}
			if item.Found {
				matched = append(matched, fmt.Sprintf("%q via %s", entity, item.Source))
				break
			}
		}
	}
	if !checked {
		return e.neutral, label + ": unverifiable, no registry responded; neutral score applied"
	}

	score := 100 * float64(len(matched)) / float64(len(entities))
	if len(matched) == 0 {
		return score, fmt.Sprintf("%s: none of %d claimed entities matched a registry record", label, len(entities))
	}
	return score, fmt.Sprintf("%s: %d of %d claimed entities matched (%s)",
		label, len(matched), len(entities), strings.Join(matched, ", "))
}

// timelineScore is the fraction of claimed employment windows judged
// plausible against archive captures. A window with no archive evidence
// at all counts as plausible: absence of disconfirming evidence is not
// disconfirmation.
func (e *Engine) timelineScore(claim *models.CandidateClaim, evidence models.EvidenceMap) (float64, string) {
	if len(claim.Positions) == 0 {
		return e.neutral, "Timeline: no employment windows claimed; neutral score applied"
	}

	plausible := 0
	var conflicts []string
	for _, pos := range claim.Positions {
		archive := archiveFor(evidence, pos.Employer)
		if windowPlausible(pos, archive) {
			plausible++
		} else {
			conflicts = append(conflicts, fmt.Sprintf(
				"%q window %s..%s outside captures %s..%s",
				pos.Employer, pos.Start, pos.End,
				archive.FirstCapture, archive.LastCapture))
		}
	}

	score := 100 * float64(plausible) / float64(len(claim.Positions))
	why := fmt.Sprintf("Timeline: %d of %d employment windows plausible against archive captures",
		plausible, len(claim.Positions))
	if len(conflicts) > 0 {
		why += " (" + strings.Join(conflicts, "; ") + ")"
	}
	return score, why
}

func archiveFor(evidence models.EvidenceMap, employer string) *models.ArchiveEvidence {
	for _, item := range evidence[models.CategoryBackground] {
		if item.Source == models.SourceWayback && item.Target == employer && !item.Failed() {
			return item.Archive
		}
	}
	return nil
}

func windowPlausible(pos models.PositionClaim, archive *models.ArchiveEvidence) bool {
	if archive == nil || archive.Captures == 0 {
		return true
	}
	first, okFirst := parseCaptureTime(archive.FirstCapture)
	last, okLast := parseCaptureTime(archive.LastCapture)
	if !okFirst || !okLast {
		return true
	}

	start, hasStart := parseYearMonth(pos.Start)
	end, hasEnd := parseYearMonth(pos.End)
	if hasStart && start.After(last.Add(timelineSlack)) {
		return false
	}
	if hasEnd && end.Before(first.Add(-timelineSlack)) {
		return false
	}
	return true
}

func (e *Engine) developerScore(evidence models.EvidenceMap, hasHandle bool) (float64, string) {
	if !hasHandle {
		return e.neutral, "Developer: no handle claimed; neutral score applied"
	}
	item := findEvidence(evidence, models.CategoryBackground, models.SourceGitHub)
	if item == nil || item.Failed() || item.Developer == nil {
		return e.neutral, "Developer: unverifiable; neutral score applied"
	}

	ev := item.Developer
	points := 0
	if ev.ProfileFound {
		points += devProfilePoints
	}
	if ev.PublicRepos >= 5 {
		points += devRepos5Points
	}
	if ev.PublicRepos >= 10 {
		points += devRepos10Points
	}
	if points > devMaxPoints {
		points = devMaxPoints
	}

	score := 100 * float64(points) / float64(devMaxPoints)
	if !ev.ProfileFound {
		return score, fmt.Sprintf("Developer: profile %q not found", item.Target)
	}
	return score, fmt.Sprintf("Developer: profile %q with %d public repositories and %d followers (%d/%d points)",
		item.Target, ev.PublicRepos, ev.Followers, points, devMaxPoints)
}

func distinctEmployers(claim *models.CandidateClaim) []string {
	seen := make(map[string]bool)
	var out []string
	for _, pos := range claim.Positions {
		if pos.Employer != "" && !seen[pos.Employer] {
			seen[pos.Employer] = true
			out = append(out, pos.Employer)
		}
	}
	return out
}

func distinctInstitutions(claim *models.CandidateClaim) []string {
	seen := make(map[string]bool)
	var out []string
	for _, edu := range claim.Educations {
		if edu.Institution != "" && !seen[edu.Institution] {
			seen[edu.Institution] = true
			out = append(out, edu.Institution)
		}
	}
	return out
}

func allFailed(items []models.EvidenceItem) bool {
	if len(items) == 0 {
		return true
	}
	for _, item := range items {
		if !item.Failed() {
			return false
		}
	}
	return true
}

// parseYearMonth accepts "2019", "2019-03" and "present"; the zero result
// with false means no usable bound.
func parseYearMonth(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "present" || s == "current" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01", s); err == nil {
		return t, true
	}
	if year, err := strconv.Atoi(s); err == nil && year > 1900 && year < 2200 {
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// parseCaptureTime reads a CDX timestamp (yyyyMMddhhmmss, possibly
// truncated).
func parseCaptureTime(s string) (time.Time, bool) {
	if len(s) < 4 {
		return time.Time{}, false
	}
	if len(s) > 14 {
		s = s[:14]
	}
	// Pad truncated timestamps out to full precision: Jan 1, midnight.
	const pad = "0101000000"
	if len(s) < 14 && len(s)-4 <= len(pad) {
		s += pad[len(s)-4:]
	}
	t, err := time.Parse("20060102150405", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
