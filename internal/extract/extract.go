// Package extract derives claim hints from raw resume text, for callers
// that post a resume body instead of a structured claim. It is a
// best-effort convenience at the API boundary; the orchestrator itself
// only ever sees structured claims.
package extract

import (
	"regexp"
	"strings"

	prose "github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/trusthire/backend/internal/storage/models"
)

var (
	emailPattern    = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern    = regexp.MustCompile(`\+?[0-9][0-9\s().-]{7,18}[0-9]`)
	githubPattern   = regexp.MustCompile(`github\.com/([A-Za-z0-9-]+)`)
	linkedinPattern = regexp.MustCompile(`linkedin\.com/in/[A-Za-z0-9-]+`)

	institutionWords = []string{"university", "college", "institute", "polytechnic", "school of"}
	employerSuffixes = []string{
		"inc", "llc", "ltd", "corp", "corporation", "technologies",
		"labs", "systems", "software", "solutions", "group",
	}
)

type Extractor struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// ClaimFromText assembles a CandidateClaim from whatever the text gives
// up: NER for the candidate name and location, line heuristics for
// employers and institutions, regex for contact details and handles.
func (e *Extractor) ClaimFromText(text string) *models.CandidateClaim {
	claim := &models.CandidateClaim{}

	doc, err := prose.NewDocument(text)
	if err != nil {
		e.logger.Warn("NER pass failed, falling back to patterns", zap.Error(err))
	} else {
		for _, ent := range doc.Entities() {
			switch ent.Label {
			case "PERSON":
				if claim.FullName == "" && len(strings.Fields(ent.Text)) >= 2 {
					claim.FullName = strings.TrimSpace(ent.Text)
				}
			case "GPE":
				if claim.Location == "" {
					claim.Location = strings.TrimSpace(ent.Text)
				}
			}
		}
	}

	if claim.FullName == "" {
		claim.FullName = firstNameLikeLine(text)
	}
	if m := emailPattern.FindString(text); m != "" {
		claim.Email = strings.ToLower(m)
	}
	if m := phonePattern.FindString(text); m != "" {
		claim.Phone = strings.TrimSpace(m)
	}
	if m := githubPattern.FindStringSubmatch(text); len(m) == 2 {
		claim.Identifiers.GitHub = m[1]
	}
	if m := linkedinPattern.FindString(text); m != "" {
		claim.Identifiers.LinkedIn = "https://" + m
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if inst := institutionFromLine(line); inst != "" {
			claim.Educations = appendEducation(claim.Educations, inst)
		} else if emp := employerFromLine(line); emp != "" {
			claim.Positions = appendPosition(claim.Positions, emp)
		}
	}

	e.logger.Info("claim hints extracted",
		zap.String("name", claim.FullName),
		zap.Int("positions", len(claim.Positions)),
		zap.Int("educations", len(claim.Educations)),
	)
	return claim
}

// firstNameLikeLine takes the first short line of only capitalized words,
// the conventional resume header.
func firstNameLikeLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		ok := true
		for _, w := range words {
			if w[0] < 'A' || w[0] > 'Z' || strings.ContainsAny(w, "@0123456789") {
				ok = false
				break
			}
		}
		if ok {
			return line
		}
	}
	return ""
}

func institutionFromLine(line string) string {
	low := strings.ToLower(line)
	for _, word := range institutionWords {
		if idx := strings.Index(low, word); idx >= 0 {
			return trimClause(line, idx+len(word))
		}
	}
	return ""
}

// employerFromLine looks for an "at Company" clause or a capitalized name
// carrying a corporate suffix.
func employerFromLine(line string) string {
	if idx := strings.Index(line, " at "); idx >= 0 {
		rest := line[idx+len(" at "):]
		for _, sep := range []string{"|", " - ", ",", ";", "–", "("} {
			if cut := strings.Index(rest, sep); cut >= 0 {
				rest = rest[:cut]
			}
		}
		candidate := strings.TrimSpace(rest)
		if candidate != "" && candidate[0] >= 'A' && candidate[0] <= 'Z' {
			return candidate
		}
	}

	low := strings.ToLower(line)
	for _, suffix := range employerSuffixes {
		if strings.HasSuffix(low, " "+suffix) || strings.HasSuffix(low, " "+suffix+".") {
			if len(strings.Fields(line)) <= 6 {
				return strings.TrimRight(line, ".")
			}
		}
	}
	return ""
}

// trimClause cuts the clause containing position end out of line,
// stopping at common separators.
func trimClause(line string, end int) string {
	start := 0
	for _, sep := range []string{"|", " - ", ",", ";", "–"} {
		if idx := strings.LastIndex(line[:end], sep); idx >= 0 && idx+len(sep) > start {
			start = idx + len(sep)
		}
	}
	rest := line[start:]
	for _, sep := range []string{"|", " - ", ",", ";", "–"} {
		if idx := strings.Index(rest, sep); idx >= 0 {
			rest = rest[:idx]
		}
	}
	return strings.TrimSpace(rest)
}

func appendPosition(positions []models.PositionClaim, employer string) []models.PositionClaim {
	for _, p := range positions {
		if strings.EqualFold(p.Employer, employer) {
			return positions
		}
	}
	return append(positions, models.PositionClaim{Employer: employer})
}

func appendEducation(educations []models.EducationClaim, institution string) []models.EducationClaim {
	for _, e := range educations {
		if strings.EqualFold(e.Institution, institution) {
			return educations
		}
	}
	return append(educations, models.EducationClaim{Institution: institution})
}
