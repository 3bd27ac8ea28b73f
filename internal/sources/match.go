package sources

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Aliases for well-known brands whose registry filings are under a parent
// or former name. Lookup terms are expanded with these before querying.
var companyAliases = map[string][]string{
	"amazon web services": {"amazon.com", "amazon"},
	"aws":                 {"amazon.com", "amazon"},
	"microsoft azure":     {"microsoft", "microsoft corporation"},
	"google cloud":        {"google", "alphabet"},
	"meta":                {"facebook", "meta platforms"},
	"facebook":            {"meta platforms", "meta"},
}

var majorCompanies = []string{
	"amazon", "microsoft", "google", "apple", "meta", "facebook",
	"tesla", "netflix", "uber", "airbnb", "spotify", "salesforce",
	"oracle", "ibm", "intel", "linkedin",
}

var legalSuffixes = []string{
	"inc", "incorporated", "llc", "ltd", "limited", "corp",
	"corporation", "co", "plc", "gmbh", "sa", "ag",
}

// normalizeName lowercases, strips punctuation and trailing legal suffixes
// so "Acme Corp." and "ACME corp" compare equal.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		case r == '.', r == ',', r == '-', r == '&', r == '\'':
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	for len(words) > 1 {
		last := words[len(words)-1]
		trimmed := false
		for _, suffix := range legalSuffixes {
			if last == suffix {
				words = words[:len(words)-1]
				trimmed = true
				break
			}
		}
		if !trimmed {
			break
		}
	}
	return strings.Join(words, " ")
}

// similarity compares two names on a 0..1 scale: edit distance over the
// normalized forms, with containment treated as a near-match.
func similarity(a, b string) float64 {
	na, nb := normalizeName(a), normalizeName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	longest := len(na)
	if len(nb) > longest {
		longest = len(nb)
	}
	sim := 1 - float64(levenshtein.ComputeDistance(na, nb))/float64(longest)

	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		if sim < 0.85 {
			sim = 0.85
		}
	}
	return sim
}

// searchTerms returns the name plus any brand aliases, normalized input first.
func searchTerms(name string) []string {
	terms := []string{name}
	if aliases, ok := companyAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		terms = append(terms, aliases...)
	}
	return terms
}

func isMajorCompany(name string) bool {
	low := strings.ToLower(name)
	for _, major := range majorCompanies {
		if strings.Contains(low, major) {
			return true
		}
	}
	return false
}

// matchThreshold is looser for household names whose registered legal
// entities rarely match the colloquial brand exactly.
func matchThreshold(name string) float64 {
	if isMajorCompany(name) {
		return 0.6
	}
	return 0.75
}
