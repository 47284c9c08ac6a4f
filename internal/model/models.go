// Package model defines shared data structures for the harvester service.
package model

import "time"

// Record constants stamped on every persisted job.
const (
	JobStatusScraped = "scraped"
	DefaultEditPin   = "end"
)

// Posting is an opaque locator produced by enumeration and consumed by
// detail fetching. Bulk-feed adapters carry the whole raw item in Meta.
type Posting struct {
	URL  string
	Meta map[string]any
}

// RawJob is what an adapter extracted from one posting. Empty fields are
// filled in by the normalizer.
type RawJob struct {
	JobID          int64 // 0 when the site exposes no numeric identifier
	Position       string
	Description    string
	Qualifications string
	Experience     string
	Pattern        string
	Salary         string
	Niche          string
	Country        string
	Address        string
	SourceURL      string

	// ParseLocation asks the normalizer to resolve the country from Address.
	ParseLocation bool
}

// JobRecord mirrors the jobs table row. JobID alone is the primary key.
type JobRecord struct {
	JobID          int64  `json:"jobid"`
	CompanyID      int64  `json:"companyid"`
	Position       string `json:"jobposition"`
	Description    string `json:"jobdescription"`
	Qualifications string `json:"jobqualifications"`
	Experience     string `json:"jobexperience"`
	Pattern        string `json:"jobpattern"`
	Salary         string `json:"jobsalary"`
	Niche          string `json:"jobniche"`
	Country        string `json:"jobcountry"`
	Address        string `json:"jobaddress"`
	Status         string `json:"jobstatus"`
	SourceURL      string `json:"scrapedsource"`
	EditPin        string `json:"editpin"`
	Scraper        string `json:"jobscraper"`
}

// RunProgress mirrors the scraper_status table row, one per platform name.
type RunProgress struct {
	ID          int64     `json:"id"`
	Platform    string    `json:"platform"`
	Total       int       `json:"total"`
	Current     int       `json:"current"`
	Successful  int       `json:"successful"`
	Failed      int       `json:"failed"`
	Status      RunStatus `json:"status"`
	LastUpdated string    `json:"last_updated"`
	ProcessID   int       `json:"process_id"`
}

// Stoppable reports whether a supervisor may offer the stop action.
func (p RunProgress) Stoppable() bool {
	return p.Status == StatusRunning && p.ProcessID > 0
}

// Completion returns current/total in [0, 1]; 0 while the total is unknown.
func (p RunProgress) Completion() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Current) / float64(p.Total)
}

// Timestamp formats t the way last_updated is stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// RunConfig is the bundle a supervisor passes when starting a run.
type RunConfig struct {
	Save      bool   `json:"save" yaml:"save"`
	CompanyID int64  `json:"company_id" yaml:"company_id"`
	SourceURL string `json:"url" yaml:"url"`
	Name      string `json:"name" yaml:"name"`
	Test      bool   `json:"test" yaml:"test"`
	Adapter   string `json:"adapter" yaml:"adapter"`

	// ExperienceFallback selects the label used when no experience can be
	// derived: "general" or "no_experience".
	ExperienceFallback string `json:"experience_fallback,omitempty" yaml:"experience_fallback"`
}
