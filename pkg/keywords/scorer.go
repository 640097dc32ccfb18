package keywords

import (
	"math"
	"sort"
	"strings"

	"github.com/elibbooks/elib/pkg/models"
	"github.com/james-bowman/nlp"
)

// Scorer ranks the terms of a single document by term frequency. With a
// corpus of one document the usual TF-IDF weighting degenerates to plain
// term frequency, so the scorer counts terms with a stop-word-filtered
// vectoriser and L2-normalises the counts, which keeps every score in (0,1].
type Scorer struct {
	stopWords     []string
	maxVocabulary int
}

// NewScorer creates a scorer with the given stop-word list and vocabulary
// cap. A cap <= 0 means no cap.
func NewScorer(stopWords []string, maxVocabulary int) *Scorer {
	return &Scorer{
		stopWords:     stopWords,
		maxVocabulary: maxVocabulary,
	}
}

// TopKeywords returns up to topk (term, score) pairs sorted by score
// descending, scores rounded to 4 decimal places. Order among equal scores
// is unspecified. Empty or whitespace-only input yields an empty list, as
// does any internal scoring failure; this call never fails the caller.
func (s *Scorer) TopKeywords(text string, topk int) []models.Keyword {
	if topk <= 0 || strings.TrimSpace(text) == "" {
		return []models.Keyword{}
	}

	vectoriser := nlp.NewCountVectoriser(s.stopWords...)
	counts, err := vectoriser.FitTransform(text)
	if err != nil || len(vectoriser.Vocabulary) == 0 {
		return []models.Keyword{}
	}

	type termCount struct {
		term  string
		count float64
	}
	terms := make([]termCount, 0, len(vectoriser.Vocabulary))
	for term, index := range vectoriser.Vocabulary {
		count := counts.At(index, 0)
		if count > 0 {
			terms = append(terms, termCount{term, count})
		}
	}
	if len(terms) == 0 {
		return []models.Keyword{}
	}

	sort.Slice(terms, func(i, j int) bool { return terms[i].count > terms[j].count })

	// Cap the vocabulary considered for scoring, mirroring a max_features
	// limit: only the most frequent terms participate.
	if s.maxVocabulary > 0 && len(terms) > s.maxVocabulary {
		terms = terms[:s.maxVocabulary]
	}

	var norm float64
	for _, tc := range terms {
		norm += tc.count * tc.count
	}
	norm = math.Sqrt(norm)

	if len(terms) > topk {
		terms = terms[:topk]
	}

	ranked := make([]models.Keyword, 0, len(terms))
	for _, tc := range terms {
		ranked = append(ranked, models.Keyword{
			Word:  tc.term,
			Score: math.Round(tc.count/norm*10000) / 10000,
		})
	}
	return ranked
}
