package models

import "time"

// SourceID identifies one external verification provider.
type SourceID string

const (
	SourceGLEIF      SourceID = "gleif"
	SourceSEC        SourceID = "sec_edgar"
	SourceOpenAlex   SourceID = "openalex"
	SourceScorecard  SourceID = "college_scorecard"
	SourceWayback    SourceID = "wayback"
	SourceGitHub     SourceID = "github"
	SourceSerpAPI    SourceID = "serpapi"
	SourceEmailCheck SourceID = "email_check"
	SourcePhoneCheck SourceID = "phone_check"
)

// Category groups evidence for scoring.
type Category string

const (
	CategoryContact      Category = "contact"
	CategoryBackground   Category = "background"
	CategoryFootprint    Category = "digital_footprint"
	CategoryDocument     Category = "document_authenticity"
	CategoryAIContent    Category = "ai_content"
)

// Adapter error reasons recorded on EvidenceItem.Err.
const (
	ErrReasonTimeout  = "timeout"
	ErrReasonDeadline = "deadline_exceeded"
)

// RegistryRecord is one normalized company-registry hit.
type RegistryRecord struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Status  string `json:"status,omitempty"`
	Country string `json:"country,omitempty"`
}

// RegistryEvidence is the normalized output of a company-identity lookup.
type RegistryEvidence struct {
	Records    []RegistryRecord `json:"records,omitempty"`
	BestMatch  string           `json:"best_match,omitempty"`
	Similarity float64          `json:"similarity"`
}

// InstitutionRecord is one normalized academic-registry hit.
type InstitutionRecord struct {
	Name    string `json:"name"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// EducationEvidence is the normalized output of an institution lookup.
type EducationEvidence struct {
	Institutions []InstitutionRecord `json:"institutions,omitempty"`
	BestMatch    string              `json:"best_match,omitempty"`
	Similarity   float64             `json:"similarity"`
}

// DeveloperEvidence is additive: each field contributes signal on its own.
type DeveloperEvidence struct {
	ProfileFound bool      `json:"profile_found"`
	PublicRepos  int       `json:"public_repos"`
	Followers    int       `json:"followers"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// ArchiveEvidence summarizes web-archive captures for a domain.
type ArchiveEvidence struct {
	Captures     int    `json:"captures"`
	FirstCapture string `json:"first_capture,omitempty"`
	LastCapture  string `json:"last_capture,omitempty"`
}

// SearchHit is one categorized organic search result.
type SearchHit struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet,omitempty"`
	Category string `json:"category,omitempty"`
}

// SearchEvidence summarizes a digital-footprint search.
type SearchEvidence struct {
	TotalHits        int         `json:"total_hits"`
	ProfessionalHits int         `json:"professional_hits"`
	Hits             []SearchHit `json:"hits,omitempty"`
}

// EmailEvidence is the normalized output of the email validator.
type EmailEvidence struct {
	Input       string `json:"input"`
	Normalized  string `json:"normalized,omitempty"`
	SyntaxValid bool   `json:"syntax_valid"`
	Domain      string `json:"domain,omitempty"`
	MXFound     bool   `json:"mx_records_found"`
	Disposable  bool   `json:"is_disposable"`
	RoleAccount bool   `json:"is_role"`
}

// GeoConsistency compares the phone's region against the stated location.
type GeoConsistency struct {
	StatedLocation   string `json:"stated_location"`
	CountryMatch     bool   `json:"country_match"`
	RegionMatch      bool   `json:"region_match"`
	TollFreeConflict bool   `json:"toll_free_conflict"`
}

// PhoneEvidence is the normalized output of the phone validator.
type PhoneEvidence struct {
	Input       string          `json:"input"`
	E164        string          `json:"e164,omitempty"`
	Valid       bool            `json:"valid"`
	CountryCode string          `json:"country_code,omitempty"`
	RegionHint  string          `json:"region_hint,omitempty"`
	TollFree    bool            `json:"toll_free"`
	Carrier     string          `json:"carrier,omitempty"`
	Geo         *GeoConsistency `json:"geo_consistency,omitempty"`
}

// EvidenceItem is the result of checking one claim target against one
// source. Exactly one payload pointer is set on success; none on failure.
// Adapters create items, the orchestrator owns them for the run, and the
// scoring engine reads them.
type EvidenceItem struct {
	Source    SourceID  `json:"source"`
	Category  Category  `json:"category"`
	Target    string    `json:"target"`
	Found     bool      `json:"found"`
	FetchedAt time.Time `json:"fetched_at"`
	LatencyMS int64     `json:"latency_ms"`
	Err       string    `json:"error,omitempty"`

	Registry  *RegistryEvidence  `json:"registry,omitempty"`
	Education *EducationEvidence `json:"education,omitempty"`
	Developer *DeveloperEvidence `json:"developer,omitempty"`
	Archive   *ArchiveEvidence   `json:"archive,omitempty"`
	Search    *SearchEvidence    `json:"search,omitempty"`
	Email     *EmailEvidence     `json:"email,omitempty"`
	Phone     *PhoneEvidence     `json:"phone,omitempty"`
}

// Failed reports whether the adapter call errored rather than completing
// with a negative result.
func (e *EvidenceItem) Failed() bool {
	return e.Err != ""
}

// EvidenceMap groups a run's evidence by scoring category.
type EvidenceMap map[Category][]EvidenceItem
