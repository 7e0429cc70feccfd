package model

import "time"

// SourceType identifies which acquisition method produced a candidate.
type SourceType string

const (
	SourceMockAPI        SourceType = "mock_api"
	SourceSearchScrape   SourceType = "search_scrape"
	SourceManualGoogle   SourceType = "manual_google"
	SourceManualLinkedIn SourceType = "manual_linkedin"
)

// Query describes one collection target. Immutable for the duration of a run.
type Query struct {
	Category         string `json:"category"`
	Location         string `json:"location"`
	FallbackLocation string `json:"fallback_location,omitempty"`
}

// Person is a single team member attached to a business.
type Person struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// RawCandidate is one partially-filled record as returned by a source adapter.
// Every field may be empty; the cleaning engine decides what is usable.
type RawCandidate struct {
	Source      SourceType `json:"source"`
	Name        string     `json:"name,omitempty"`
	Location    string     `json:"location,omitempty"`
	TeamMembers []Person   `json:"team_members,omitempty"`
	Emails      []string   `json:"emails,omitempty"`
	Phones      []string   `json:"phones,omitempty"`
}

// BusinessRecord is the canonical output entity. Name is never empty, emails
// are lower-cased and deduplicated, phones are digits-only and deduplicated.
type BusinessRecord struct {
	Name        string   `json:"name"`
	Location    string   `json:"location,omitempty"`
	TeamMembers []Person `json:"team_members,omitempty"`
	Emails      []string `json:"emails,omitempty"`
	Phones      []string `json:"phones,omitempty"`
	SourceCount int      `json:"source_count"`
}

// ContactFieldCount returns the total number of contact-value fields on the
// record, used as the secondary ranking criterion.
func (r BusinessRecord) ContactFieldCount() int {
	return len(r.Emails) + len(r.Phones) + len(r.TeamMembers)
}

// BlockedSignal carries a blocked-page capture to diagnostics. It is never
// part of the business dataset.
type BlockedSignal struct {
	Query     Query      `json:"query"`
	Source    SourceType `json:"source"`
	RawHTML   string     `json:"-"`
	Timestamp time.Time  `json:"timestamp"`
}
