package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Corp.", "acme"},
		{"ACME corp", "acme"},
		{"Acme, Inc.", "acme"},
		{"Globex Corporation Ltd", "globex"},
		{"Meta Platforms", "meta platforms"},
		{"O'Brien & Sons LLC", "o brien sons"},
		{"Inc", "inc"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeName(tt.in), "normalizeName(%q)", tt.in)
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("Acme Corp", "ACME, Inc."))
	assert.Equal(t, 0.0, similarity("", "Acme"))

	// Containment floors the score even when edit distance is large.
	assert.GreaterOrEqual(t, similarity("Amazon", "Amazon Web Services"), 0.85)

	assert.Less(t, similarity("Acme Widgets", "Globex Industrial"), 0.5)
}

func TestSearchTermsExpandsAliases(t *testing.T) {
	terms := searchTerms("AWS")
	assert.Equal(t, []string{"AWS", "amazon.com", "amazon"}, terms)

	terms = searchTerms("Initech")
	assert.Equal(t, []string{"Initech"}, terms)
}

func TestMatchThreshold(t *testing.T) {
	assert.Equal(t, 0.6, matchThreshold("Google Cloud"))
	assert.Equal(t, 0.75, matchThreshold("Initech"))
}
