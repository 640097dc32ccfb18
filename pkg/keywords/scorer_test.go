package keywords

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopKeywordsEmptyInput(t *testing.T) {
	t.Parallel()
	s := NewScorer(DefaultStopWords(), 2000)

	assert.Empty(t, s.TopKeywords("", 10))
	assert.Empty(t, s.TopKeywords("   \n\t  ", 10))
}

func TestTopKeywordsAllStopWords(t *testing.T) {
	t.Parallel()
	s := NewScorer(DefaultStopWords(), 2000)

	assert.Empty(t, s.TopKeywords("dan yang di ke dari untuk", 10))
}

func TestTopKeywordsRanking(t *testing.T) {
	t.Parallel()
	s := NewScorer(DefaultStopWords(), 2000)

	text := "kucing kucing kucing anjing anjing burung"
	ranked := s.TopKeywords(text, 10)
	require.Len(t, ranked, 3)

	assert.Equal(t, "kucing", ranked[0].Word)
	assert.Equal(t, "anjing", ranked[1].Word)
	assert.Equal(t, "burung", ranked[2].Word)

	// L2-normalised counts: 3, 2, 1 over sqrt(14).
	norm := math.Sqrt(14)
	assert.InDelta(t, 3/norm, ranked[0].Score, 0.0001)
	assert.InDelta(t, 2/norm, ranked[1].Score, 0.0001)
	assert.InDelta(t, 1/norm, ranked[2].Score, 0.0001)
}

func TestTopKeywordsFewerTermsThanTopK(t *testing.T) {
	t.Parallel()
	s := NewScorer(DefaultStopWords(), 2000)

	ranked := s.TopKeywords("biologi biologi kimia", 10)
	assert.Len(t, ranked, 2)
}

func TestTopKeywordsHonorsTopK(t *testing.T) {
	t.Parallel()
	s := NewScorer(DefaultStopWords(), 2000)

	words := []string{"satu", "lima", "enam", "tujuh", "delapan", "sembilan", "sepuluh", "sebelas", "duabelas", "tigabelas", "empatbelas", "limabelas"}
	text := strings.Join(words, " ")
	ranked := s.TopKeywords(text, 10)
	assert.Len(t, ranked, 10)
}

func TestTopKeywordsScoresSortedAndRounded(t *testing.T) {
	t.Parallel()
	s := NewScorer(DefaultStopWords(), 2000)

	text := "aljabar aljabar aljabar geometri geometri kalkulus statistika statistika statistika statistika"
	ranked := s.TopKeywords(text, 10)
	require.NotEmpty(t, ranked)

	for i, kw := range ranked {
		assert.LessOrEqual(t, kw.Score, 1.0)
		assert.Greater(t, kw.Score, 0.0)
		// Rounded to 4 decimal places.
		scaled := kw.Score * 10000
		assert.InDelta(t, math.Round(scaled), scaled, 1e-6)
		if i > 0 {
			assert.GreaterOrEqual(t, ranked[i-1].Score, kw.Score)
		}
	}
}

func TestDefaultStopWords(t *testing.T) {
	t.Parallel()

	words := DefaultStopWords()
	assert.NotEmpty(t, words)
	assert.Contains(t, words, "dan")
	assert.Contains(t, words, "yang")
	assert.NotContains(t, words, "")
}
