package ai

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerdictAIGenerated(t *testing.T) {
	c := NewClient(Config{Model: "test-model"})

	verdict, err := c.parseVerdict(`{"ai_likelihood": 0.8, "rationale": "generic phrasing throughout"}`)
	require.NoError(t, err)

	assert.True(t, verdict.IsAIGenerated)
	assert.Equal(t, 80, verdict.Confidence)
	assert.Equal(t, "test-model", verdict.Model)
	assert.Equal(t, "generic phrasing throughout", verdict.Rationale)
}

func TestParseVerdictHumanWritten(t *testing.T) {
	c := NewClient(Config{})

	verdict, err := c.parseVerdict(`{"ai_likelihood": 0.2, "rationale": "specific, concrete detail"}`)
	require.NoError(t, err)

	assert.False(t, verdict.IsAIGenerated)
	assert.Equal(t, 80, verdict.Confidence, "low likelihood means high confidence in human authorship")
}

func TestParseVerdictUnwrapsProse(t *testing.T) {
	c := NewClient(Config{})

	verdict, err := c.parseVerdict("Here is my analysis:\n```json\n{\"ai_likelihood\": 0.6, \"rationale\": \"buzzword density\"}\n```")
	require.NoError(t, err)
	assert.True(t, verdict.IsAIGenerated)
	assert.Equal(t, 60, verdict.Confidence)
}

func TestParseVerdictRejectsGarbage(t *testing.T) {
	c := NewClient(Config{})

	_, err := c.parseVerdict("I cannot determine this.")
	assert.Error(t, err)

	_, err = c.parseVerdict(`{"ai_likelihood": 3.5}`)
	assert.Error(t, err, "likelihood outside 0..1 is rejected")
}

func TestFallbackIsNeutral(t *testing.T) {
	c := NewClient(Config{})

	verdict := c.fallback()
	assert.False(t, verdict.IsAIGenerated)
	assert.Equal(t, 50, verdict.Confidence)
	assert.NotEmpty(t, verdict.Rationale)
}

func TestTruncateRunesKeepsValidUTF8(t *testing.T) {
	text := strings.Repeat("a", 5) + "é" // é is two bytes; byte 6 splits it

	out := truncateRunes(text, 6)
	assert.Equal(t, "aaaaa", out)
	assert.True(t, utf8.ValidString(out))

	assert.Equal(t, text, truncateRunes(text, 7), "text within the limit passes through")
	assert.Equal(t, "", truncateRunes("é", 1))
}

func TestCountAIPhrases(t *testing.T) {
	text := "Results-driven professional with a proven track record in fast-paced environments."
	assert.Equal(t, 3, countAIPhrases(text))
	assert.Equal(t, 0, countAIPhrases("I fixed the billing race in Q3 by ordering the ledger writes."))
}
