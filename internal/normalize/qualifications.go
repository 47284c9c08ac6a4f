package normalize

import "strings"

// DefaultQualification is used when nothing in the description matches.
const DefaultQualification = "General"

// Canonical qualification labels, highest first. The first label found in a
// description wins.
const (
	QualDoctorate  = "Doctorate (PhD)"
	QualMaster     = "Master's Degree (MSc)"
	QualMBA        = "MBA"
	QualBachelor   = "Bachelor's Degree (BSc)"
	QualHND        = "Higher National Diploma (HND)"
	QualOND        = "Ordinary National Diploma (OND)"
	QualAssociate  = "Associate Degree"
	QualHighSchool = "High School (SSCE)"
)

var qualificationLabels = []string{
	QualDoctorate,
	QualMaster,
	QualMBA,
	QualBachelor,
	QualHND,
	QualOND,
	QualAssociate,
	QualHighSchool,
}

// qualificationKeywords catches common spellings the labels do not cover.
var qualificationKeywords = []struct {
	keyword string
	label   string
}{
	{"high school", QualHighSchool},
	{"secondary school", QualHighSchool},
	{"ged", QualHighSchool},
	{"associate's degree", QualAssociate},
	{"associates degree", QualAssociate},
	{"associate of science", QualAssociate},
	{"masters degree", QualMaster},
	{"master's", QualMaster},
	{"bachelor", QualBachelor},
	{"bachelors", QualBachelor},
	{"b.sc", QualBachelor},
	{"b.s.", QualBachelor},
	{"b.a.", QualBachelor},
	{"undergraduate degree", QualBachelor},
	{"university degree", QualBachelor},
	{"college degree", QualBachelor},
}

// labelForms returns the lower-cased forms a label is matched by: the full
// label, its main keyword without the parenthetical, and the parenthetical.
func labelForms(label string) []string {
	l := fold(label)
	forms := []string{l}
	open := strings.Index(l, "(")
	if open < 0 {
		return forms
	}
	if main := strings.TrimSpace(l[:open]); main != "" {
		forms = append(forms, main)
	}
	if close := strings.Index(l[open:], ")"); close > 1 {
		if alias := strings.TrimSpace(l[open+1 : open+close]); alias != "" {
			forms = append(forms, alias)
		}
	}
	return forms
}

// Qualification derives the canonical qualification tier from free text.
func Qualification(description string) string {
	text := fold(description)
	if strings.TrimSpace(text) == "" {
		return DefaultQualification
	}
	for _, label := range qualificationLabels {
		for _, form := range labelForms(label) {
			if containsWord(text, form) {
				return label
			}
		}
	}
	for _, m := range qualificationKeywords {
		if containsWord(text, m.keyword) {
			return m.label
		}
	}
	return DefaultQualification
}
