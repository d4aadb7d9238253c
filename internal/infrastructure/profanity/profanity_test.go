package profanity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFilter(t *testing.T) *Filter {
	t.Helper()

	filter, err := NewFilter()
	require.NoError(t, err)
	return filter
}

func TestContainsProfanity(t *testing.T) {
	filter := newTestFilter(t)

	assert.True(t, filter.ContainsProfanity("well damn"))
	assert.True(t, filter.ContainsProfanity("DAMN"))
	assert.True(t, filter.ContainsProfanity("daamn that was close"))

	assert.False(t, filter.ContainsProfanity("a perfectly clean sentence"))
	assert.False(t, filter.ContainsProfanity(""))
}

func TestLeetspeakNormalization(t *testing.T) {
	filter := newTestFilter(t)

	assert.True(t, filter.ContainsProfanity("d@mn"))
	assert.True(t, filter.ContainsProfanity("cr4p"))
}

func TestSeparatorObfuscation(t *testing.T) {
	filter := newTestFilter(t)

	assert.True(t, filter.ContainsProfanity("d.a.m.n"))
	assert.True(t, filter.ContainsProfanity("d-a-m-n"))
	assert.True(t, filter.ContainsProfanity("c r a p"))
}

func TestNoFalsePositiveOnSubstrings(t *testing.T) {
	filter := newTestFilter(t)

	// Banned words embedded in larger ordinary words must not trigger.
	assert.False(t, filter.ContainsProfanity("the shellfish was excellent"))
	assert.False(t, filter.ContainsProfanity("craptastic")) // no word boundary after
}
