package normalize

import "strings"

const (
	PatternFullTime   = "full-time"
	PatternPartTime   = "part-time"
	PatternContract   = "contract"
	PatternTemporary  = "temporary"
	PatternInternship = "internship"
	PatternSeasonal   = "seasonal"
	PatternVolunteer  = "volunteer"

	SameAsAddress     = "Same As Address"
	SameAsCountry     = "Same As Country"
	Worldwide         = "Worldwide"
	DefaultNiche      = "Job"
	SalaryUndisclosed = "Not Disclosed"
)

type patternVariants struct {
	label    string
	variants []string
}

// patternTable canonicalizes an explicit work-pattern value.
var patternTable = []patternVariants{
	{PatternFullTime, []string{"full-time", "full time", "fulltime", "permanent", "regular"}},
	{PatternPartTime, []string{"part-time", "part time", "parttime"}},
	{PatternContract, []string{"contract", "contractor", "fixed term", "fixed-term", "freelance"}},
	{PatternTemporary, []string{"temporary", "temp"}},
	{PatternInternship, []string{"internship", "intern", "trainee"}},
	{PatternSeasonal, []string{"seasonal"}},
	{PatternVolunteer, []string{"volunteer"}},
}

// descriptionPatterns is the narrower table used when scanning prose, where
// words like "contract" or "regular" rarely describe the position itself.
var descriptionPatterns = []patternVariants{
	{PatternFullTime, []string{"full-time", "full time"}},
	{PatternPartTime, []string{"part-time", "part time"}},
	{PatternInternship, []string{"internship"}},
	{PatternSeasonal, []string{"seasonal"}},
}

func matchPattern(text string, table []patternVariants) string {
	for _, p := range table {
		for _, v := range p.variants {
			if containsWord(text, v) {
				return p.label
			}
		}
	}
	return ""
}

// Pattern resolves the work pattern. An explicit value is canonicalized and
// falls back to full-time when unrecognized. With no explicit value the
// description is scanned and the result stays empty when nothing matches.
func Pattern(value, description string) string {
	if v := strings.TrimSpace(value); v != "" {
		text := strings.ReplaceAll(fold(v), "_", " ")
		if p := matchPattern(text, patternTable); p != "" {
			return p
		}
		return PatternFullTime
	}
	return matchPattern(fold(description), descriptionPatterns)
}

// Location fills whichever of country and address is missing.
func Location(country, address string) (string, string) {
	country = strings.TrimSpace(country)
	address = strings.TrimSpace(address)
	switch {
	case country == "" && address == "":
		return Worldwide, SameAsCountry
	case country == "":
		return SameAsAddress, address
	case address == "":
		return country, SameAsCountry
	default:
		return country, address
	}
}

// Niche is the text after the first comma of a title, or DefaultNiche.
func Niche(title string) string {
	_, after, found := strings.Cut(title, ",")
	if !found {
		return DefaultNiche
	}
	if after = strings.TrimSpace(after); after == "" {
		return DefaultNiche
	}
	return after
}

// Salary strips a leading "Salary:" label; empty becomes SalaryUndisclosed.
func Salary(s string) string {
	s = strings.TrimSpace(s)
	const prefix = "salary:"
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		s = strings.TrimSpace(s[len(prefix):])
	}
	if s == "" {
		return SalaryUndisclosed
	}
	return s
}
