package models

import (
	"fmt"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidationError marks a structurally invalid claim. It is the only error
// that fails a verification run outright; everything downstream degrades to
// partial evidence instead.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid claim: %s %s", e.Field, e.Reason)
}

// PositionClaim is one asserted employment.
type PositionClaim struct {
	Employer       string `json:"employer_name"`
	EmployerDomain string `json:"employer_domain,omitempty"`
	Title          string `json:"title,omitempty"`
	Start          string `json:"start,omitempty"`
	End            string `json:"end,omitempty"`
}

// EducationClaim is one asserted degree.
type EducationClaim struct {
	Institution string `json:"institution_name"`
	Degree      string `json:"degree,omitempty"`
}

// Identifiers are optional public handles supplied with the claim.
type Identifiers struct {
	GitHub   string `json:"github_username,omitempty"`
	LinkedIn string `json:"linkedin_url,omitempty"`
	Website  string `json:"website,omitempty"`
}

// CandidateClaim is the immutable input to a verification run: the facts a
// candidate asserts about themselves.
type CandidateClaim struct {
	FullName    string           `json:"full_name"`
	Email       string           `json:"email,omitempty"`
	Phone       string           `json:"phone,omitempty"`
	Location    string           `json:"stated_location,omitempty"`
	Positions   []PositionClaim  `json:"positions,omitempty"`
	Educations  []EducationClaim `json:"educations,omitempty"`
	Identifiers Identifiers      `json:"identifiers,omitempty"`
}

// Validate checks structural integrity only. A claim with nothing verifiable
// is still valid; it simply scores neutral.
func (c *CandidateClaim) Validate() error {
	if strings.TrimSpace(c.FullName) == "" {
		return &ValidationError{Field: "full_name", Reason: "is required"}
	}
	if c.Email != "" && !emailPattern.MatchString(c.Email) {
		return &ValidationError{Field: "email", Reason: "is malformed"}
	}
	for i, p := range c.Positions {
		if strings.TrimSpace(p.Employer) == "" {
			return &ValidationError{
				Field:  fmt.Sprintf("positions[%d].employer_name", i),
				Reason: "is required",
			}
		}
	}
	for i, e := range c.Educations {
		if strings.TrimSpace(e.Institution) == "" {
			return &ValidationError{
				Field:  fmt.Sprintf("educations[%d].institution_name", i),
				Reason: "is required",
			}
		}
	}
	return nil
}
