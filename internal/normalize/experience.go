package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ExperienceFallback is the label used when a description carries neither a
// year count nor an entry-level keyword. Each source picks one.
type ExperienceFallback string

const (
	FallbackGeneral      ExperienceFallback = "General"
	FallbackNoExperience ExperienceFallback = "No Experience"
)

// ParseExperienceFallback maps the configuration spelling to a fallback.
// Empty selects FallbackNoExperience.
func ParseExperienceFallback(s string) (ExperienceFallback, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "no_experience", "no experience":
		return FallbackNoExperience, nil
	case "general":
		return FallbackGeneral, nil
	default:
		return "", fmt.Errorf("unknown experience fallback %q", s)
	}
}

const maxExperienceYears = 40

var (
	wordNumberRe = regexp.MustCompile(`\b(one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen|twenty)\b`)
	orMoreRe     = regexp.MustCompile(`\b(\d{1,2})\s*\+?\s*(?:or more|or greater|plus)\s+years?\b`)
	yearsRe      = regexp.MustCompile(`\b(\d{1,2})(?:\s*(?:-|to)\s*(\d{1,2}))?\s*\+?\s*(?:years?|yrs?)\b`)

	wordNumbers = map[string]string{
		"one": "1", "two": "2", "three": "3", "four": "4", "five": "5",
		"six": "6", "seven": "7", "eight": "8", "nine": "9", "ten": "10",
		"eleven": "11", "twelve": "12", "thirteen": "13", "fourteen": "14",
		"fifteen": "15", "sixteen": "16", "seventeen": "17", "eighteen": "18",
		"nineteen": "19", "twenty": "20",
	}

	entryLevelKeywords = []string{"entry level", "entry-level", "fresh graduate", "graduate", "no experience"}
)

// Experience extracts the required years of experience from a description.
// The highest plausible year count wins; otherwise entry-level keywords map to
// "No Experience" and anything else to fallback.
func Experience(description string, fallback ExperienceFallback) string {
	text := fold(description)
	text = wordNumberRe.ReplaceAllStringFunc(text, func(w string) string {
		return wordNumbers[w]
	})

	best := 0
	consider := func(s string) {
		if s == "" {
			return
		}
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n >= maxExperienceYears {
			return
		}
		if n > best {
			best = n
		}
	}
	for _, m := range orMoreRe.FindAllStringSubmatch(text, -1) {
		consider(m[1])
	}
	for _, m := range yearsRe.FindAllStringSubmatch(text, -1) {
		consider(m[1])
		consider(m[2])
	}

	switch {
	case best >= 20:
		return "> 20 years"
	case best == 1:
		return "1 year"
	case best > 1:
		return fmt.Sprintf("%d years", best)
	}

	for _, kw := range entryLevelKeywords {
		if containsWord(text, kw) {
			return string(FallbackNoExperience)
		}
	}
	if fallback == "" {
		fallback = FallbackNoExperience
	}
	return string(fallback)
}
