package normalize

import (
	"strings"
	"time"

	"jobmate/harvester-service/internal/model"
)

// DefaultScraper is the attribution stamped on records when none is configured.
const DefaultScraper = "harvester"

// Normalizer turns a RawJob into a complete JobRecord. Fields the adapter
// supplied are kept; only empty ones are derived.
type Normalizer struct {
	Scraper  string
	Fallback ExperienceFallback
	Resolver LocationResolver
	Clock    func() time.Time
}

// New returns a Normalizer with the built-in country resolver and wall clock.
func New(scraper string, fallback ExperienceFallback) *Normalizer {
	if scraper == "" {
		scraper = DefaultScraper
	}
	if fallback == "" {
		fallback = FallbackNoExperience
	}
	return &Normalizer{
		Scraper:  scraper,
		Fallback: fallback,
		Resolver: NewSuffixResolver(nil),
		Clock:    time.Now,
	}
}

// Normalize never fails; every input field may be empty.
func (n *Normalizer) Normalize(raw *model.RawJob, companyID int64) model.JobRecord {
	if raw == nil {
		raw = &model.RawJob{}
	}
	clean := func(s string) string { return strings.TrimSpace(Text(s)) }

	rec := model.JobRecord{
		JobID:          raw.JobID,
		CompanyID:      companyID,
		Position:       clean(raw.Position),
		Description:    clean(raw.Description),
		Qualifications: clean(raw.Qualifications),
		Experience:     clean(raw.Experience),
		Pattern:        clean(raw.Pattern),
		Salary:         Salary(clean(raw.Salary)),
		Niche:          clean(raw.Niche),
		Country:        clean(raw.Country),
		Address:        clean(raw.Address),
		Status:         model.JobStatusScraped,
		SourceURL:      strings.TrimSpace(raw.SourceURL),
		EditPin:        model.DefaultEditPin,
		Scraper:        n.Scraper,
	}

	if rec.JobID == 0 {
		rec.JobID = n.now().Unix()
	}
	if rec.Qualifications == "" {
		rec.Qualifications = Qualification(rec.Description)
	}
	if rec.Experience == "" {
		rec.Experience = Experience(rec.Description, n.Fallback)
	}
	rec.Pattern = Pattern(rec.Pattern, rec.Description)
	if rec.Niche == "" {
		rec.Niche = Niche(rec.Position)
	}
	if raw.ParseLocation && rec.Country == "" && n.Resolver != nil {
		if country, ok := n.Resolver.ResolveCountry(rec.Address); ok {
			rec.Country = country
		}
	}
	rec.Country, rec.Address = Location(rec.Country, rec.Address)
	if rec.Scraper == "" {
		rec.Scraper = DefaultScraper
	}
	return rec
}

func (n *Normalizer) now() time.Time {
	if n.Clock == nil {
		return time.Now()
	}
	return n.Clock()
}
