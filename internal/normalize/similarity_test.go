package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreIdentical(t *testing.T) {
	t.Parallel()

	s := NewSimilarity()
	assert.Equal(t, 100, s.Score("applied materials", "applied materials"))
}

func TestScoreEmpty(t *testing.T) {
	t.Parallel()

	s := NewSimilarity()
	assert.Equal(t, 0, s.Score("", "apple"))
	assert.Equal(t, 0, s.Score("apple", ""))
}

func TestScoreBounds(t *testing.T) {
	t.Parallel()

	s := NewSimilarity()
	pairs := [][2]string{
		{"apple", "microsoft"},
		{"a", "zzzzzzzzzz"},
		{"applied materials", "applied material"},
		{"western digital", "digital western"},
	}
	for _, p := range pairs {
		got := s.Score(p[0], p[1])
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, 100)
	}
}

func TestScoreTokenReorder(t *testing.T) {
	t.Parallel()

	// Token-set overlap should dominate when words are merely reordered.
	s := NewSimilarity()
	assert.Equal(t, 100, s.Score("digital western", "western digital"))
}

func TestScoreNearMiss(t *testing.T) {
	t.Parallel()

	s := NewSimilarity()

	// Single-character typo in a long name stays well above the resolver
	// threshold of 85.
	assert.GreaterOrEqual(t, s.Score("applied materials", "applied materiels"), 85)

	// Unrelated names stay well below it.
	assert.Less(t, s.Score("applied materials", "oracle"), 50)
}
