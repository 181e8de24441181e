// Package store persists leads and scrape progress in Postgres.
//
// The progress table is the sole source of truth for resumability: the
// pipeline never infers phase completion from lead row counts, because a
// half-finished city can hold partial leads without being done.
package store

import (
	"context"
	"strings"
	"time"
)

// Sentinel marks a field that was attempted but not found. It is distinct
// from absence: a lead row always carries all columns.
const Sentinel = "N/A"

// Phase identifies one of the two pipeline stages.
type Phase string

const (
	PhaseListing    Phase = "phase1" // map listing scrape
	PhaseEnrichment Phase = "phase2" // website enrichment
)

// Status is the progress state of a (city, phase) unit of work. There is no
// failed terminal state; failure is implicit in a record staying in_progress.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Lead is one extracted business record for a city.
// (city, name) is globally unique.
type Lead struct {
	ID        int64     `json:"id"`
	City      string    `json:"city"`
	Name      string    `json:"name"`
	Rating    string    `json:"rating"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Website   string    `json:"website"`
	Timings   string    `json:"timings"`
	LogoURL   string    `json:"logo_url"`
	Services  string    `json:"services"`
	Pricing   string    `json:"pricing"`
	ScrapedAt time.Time `json:"scraped_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the lower-cased duplicate-suppression key for the lead.
func (l Lead) Key() LeadKey {
	return NewLeadKey(l.City, l.Name)
}

// LeadKey is a lower-cased (city, name) pair.
type LeadKey struct {
	City string
	Name string
}

// NewLeadKey builds a normalized key from raw city and business name.
func NewLeadKey(city, name string) LeadKey {
	return LeadKey{City: strings.ToLower(city), Name: strings.ToLower(name)}
}

// Enrichment holds the phase-2 fields for a lead.
type Enrichment struct {
	LogoURL  string
	Services string
	Pricing  string
}

// Empty reports whether every enrichment field is still the sentinel.
// Empty enrichments are never written so re-runs stay idempotent.
func (e Enrichment) Empty() bool {
	return e.LogoURL == Sentinel && e.Services == Sentinel && e.Pricing == Sentinel
}

// Candidate is a lead eligible for phase-2 enrichment.
type Candidate struct {
	Name    string
	Website string
}

// ProgressRecord is one row of the resumption ledger, keyed by (city, phase).
type ProgressRecord struct {
	City        string     `json:"city"`
	Phase       Phase      `json:"phase"`
	Status      Status     `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Stats aggregates lead counts for the API.
type Stats struct {
	TotalLeads  int `json:"total_leads"`
	Cities      int `json:"cities"`
	WithWebsite int `json:"with_website"`
	Enriched    int `json:"enriched"`
}

// LeadStore is the persistence contract for lead rows.
type LeadStore interface {
	// Insert writes a new lead. It returns false when the (city, name) key
	// already exists; a duplicate is success-equivalent, not an error.
	Insert(ctx context.Context, lead Lead) (bool, error)

	// UpdateEnrichment writes phase-2 fields for an existing lead. All-sentinel
	// enrichments are skipped and listing fields are never touched.
	UpdateEnrichment(ctx context.Context, city, name string, e Enrichment) (bool, error)

	// EnrichmentCandidates returns leads in the city with a real http(s)
	// website whose enrichment fields are all still sentinel.
	EnrichmentCandidates(ctx context.Context, city string) ([]Candidate, error)

	// ExistingKeys returns the full set of lower-cased (city, name) keys.
	ExistingKeys(ctx context.Context) (map[LeadKey]struct{}, error)

	// CountForCity returns the number of leads already stored for the city.
	CountForCity(ctx context.Context, city string) (int, error)

	// List returns all leads, newest first.
	List(ctx context.Context) ([]Lead, error)

	// Stats returns aggregate counts.
	Stats(ctx context.Context) (*Stats, error)
}

// ProgressStore is the persistence contract for the resumption ledger.
type ProgressStore interface {
	MarkStarted(ctx context.Context, city string, phase Phase) error
	MarkCompleted(ctx context.Context, city string, phase Phase) error
	IsCompleted(ctx context.Context, city string, phase Phase) (bool, error)
	Snapshot(ctx context.Context) ([]ProgressRecord, error)
}
