package normalize

import "strings"

// LocationResolver infers a country from a free-form address.
type LocationResolver interface {
	ResolveCountry(address string) (string, bool)
}

// SuffixResolver matches the trailing component of an address against known
// country names and aliases.
type SuffixResolver struct {
	// alias (folded) -> canonical country name
	names map[string]string
	// longest alias first so "south korea" is tried before "korea"
	order []string
}

var defaultCountries = map[string][]string{
	"United States":        {"united states", "united states of america", "usa", "us", "u.s.", "u.s.a."},
	"United Kingdom":       {"united kingdom", "uk", "u.k.", "great britain", "england", "scotland", "wales"},
	"Canada":               {"canada"},
	"Mexico":               {"mexico"},
	"Brazil":               {"brazil", "brasil"},
	"Argentina":            {"argentina"},
	"Chile":                {"chile"},
	"Colombia":             {"colombia"},
	"Peru":                 {"peru"},
	"Ireland":              {"ireland"},
	"France":               {"france"},
	"Germany":              {"germany", "deutschland"},
	"Netherlands":          {"netherlands", "the netherlands", "holland"},
	"Belgium":              {"belgium"},
	"Luxembourg":           {"luxembourg"},
	"Switzerland":          {"switzerland"},
	"Austria":              {"austria"},
	"Spain":                {"spain", "españa"},
	"Portugal":             {"portugal"},
	"Italy":                {"italy"},
	"Poland":               {"poland"},
	"Czech Republic":       {"czech republic", "czechia"},
	"Hungary":              {"hungary"},
	"Romania":              {"romania"},
	"Bulgaria":             {"bulgaria"},
	"Greece":               {"greece"},
	"Sweden":               {"sweden"},
	"Norway":               {"norway"},
	"Denmark":              {"denmark"},
	"Finland":              {"finland"},
	"Estonia":              {"estonia"},
	"Ukraine":              {"ukraine"},
	"Turkey":               {"turkey", "türkiye"},
	"Israel":               {"israel"},
	"United Arab Emirates": {"united arab emirates", "uae"},
	"Saudi Arabia":         {"saudi arabia"},
	"Qatar":                {"qatar"},
	"Egypt":                {"egypt"},
	"Morocco":              {"morocco"},
	"Nigeria":              {"nigeria"},
	"Ghana":                {"ghana"},
	"Kenya":                {"kenya"},
	"South Africa":         {"south africa"},
	"India":                {"india"},
	"Pakistan":             {"pakistan"},
	"Bangladesh":           {"bangladesh"},
	"Sri Lanka":            {"sri lanka"},
	"China":                {"china"},
	"Hong Kong":            {"hong kong"},
	"Taiwan":               {"taiwan"},
	"Japan":                {"japan"},
	"South Korea":          {"south korea", "korea"},
	"Singapore":            {"singapore"},
	"Malaysia":             {"malaysia"},
	"Indonesia":            {"indonesia"},
	"Philippines":          {"philippines"},
	"Vietnam":              {"vietnam", "viet nam"},
	"Thailand":             {"thailand"},
	"Australia":            {"australia"},
	"New Zealand":          {"new zealand"},
}

// NewSuffixResolver builds a resolver over the built-in country table plus
// any extra alias -> country pairs.
func NewSuffixResolver(extra map[string]string) *SuffixResolver {
	r := &SuffixResolver{names: make(map[string]string)}
	for country, aliases := range defaultCountries {
		r.add(fold(country), country)
		for _, a := range aliases {
			r.add(a, country)
		}
	}
	for alias, country := range extra {
		r.add(fold(alias), country)
	}
	return r
}

func (r *SuffixResolver) add(alias, country string) {
	alias = strings.TrimRight(alias, " .,;")
	if alias == "" {
		return
	}
	if _, ok := r.names[alias]; !ok {
		r.order = append(r.order, alias)
	}
	r.names[alias] = country
	// insertion sort by descending length keeps order deterministic
	for i := len(r.order) - 1; i > 0; i-- {
		a, b := r.order[i-1], r.order[i]
		if len(a) > len(b) || (len(a) == len(b) && a < b) {
			break
		}
		r.order[i-1], r.order[i] = b, a
	}
}

// ResolveCountry returns the country named at the end of address, if any.
func (r *SuffixResolver) ResolveCountry(address string) (string, bool) {
	text := strings.TrimRight(fold(address), " .,;")
	if text == "" {
		return "", false
	}
	for _, alias := range r.order {
		if !strings.HasSuffix(text, alias) {
			continue
		}
		if wordBoundaryBefore(text, len(text)-len(alias)) {
			return r.names[alias], true
		}
	}
	return "", false
}
