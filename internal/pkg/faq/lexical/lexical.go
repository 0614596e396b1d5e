// Package lexical implements the term-frequency scoring used to rank index
// chunks against a question. Scoring is purely lexical: a smoothed IDF table is
// built once per index snapshot and per-chunk scores are raw TF times IDF, with
// a capped bonus for title hits.
package lexical

import (
	"math"
	"strings"
	"unicode"

	"github.com/kinko-io/faq-service/internal/model"
	"github.com/kinko-io/faq-service/internal/pkg/faq/textutil"
)

const (
	// maxQueryTokens bounds worst-case scoring cost on pathological input.
	maxQueryTokens = 24

	// titleHitBonus and titleBonusCap control the multiplicative boost for
	// distinct query tokens appearing in a chunk title.
	titleHitBonus = 0.05
	titleBonusCap = 0.3

	// minSimilarityTokenLen filters short stopword-like tokens out of the
	// FAQ direct-match similarity.
	minSimilarityTokenLen = 4
)

// Tokenize lowercases, strips diacritics and splits on anything that is not a
// letter or digit. Empty tokens are discarded. The same tokenizer is applied
// to queries, chunk bodies and chunk titles.
func Tokenize(s string) []string {
	s = textutil.StripDiacritics(strings.ToLower(s))
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// QueryTokens tokenizes a question, capped at maxQueryTokens.
func QueryTokens(question string) []string {
	tokens := Tokenize(question)
	if len(tokens) > maxQueryTokens {
		tokens = tokens[:maxQueryTokens]
	}
	return tokens
}

// Scorer holds the IDF table for one index snapshot. It is immutable after
// construction and safe for concurrent use.
type Scorer struct {
	idf map[string]float64
}

// NewScorer builds the document-frequency table over the chunk bodies.
// IDF is smoothed: idf(t) = ln((1+N)/(1+df(t))) + 1 with N = max(1, len(chunks)),
// so adding a chunk can never decrease any token's df.
func NewScorer(chunks []model.IndexChunk) *Scorer {
	df := make(map[string]int)
	for _, ch := range chunks {
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(ch.Text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	n := float64(len(chunks))
	if n < 1 {
		n = 1
	}
	idf := make(map[string]float64, len(df))
	for tok, count := range df {
		idf[tok] = math.Log((1+n)/(1+float64(count))) + 1
	}
	return &Scorer{idf: idf}
}

// IDF returns the smoothed inverse document frequency for a token. A token
// absent from the table occurs in no chunk, so its weight never contributes
// to a score.
func (s *Scorer) IDF(token string) float64 {
	if v, ok := s.idf[token]; ok {
		return v
	}
	return 0
}

// Score computes the relevance of one chunk for the given query tokens.
// Raw term frequency is intentionally not normalized by chunk length: longer
// chunks that repeat matching tokens rank higher. Chunks with empty text
// always score zero.
func (s *Scorer) Score(queryTokens []string, chunk model.IndexChunk) float64 {
	if strings.TrimSpace(chunk.Text) == "" || len(queryTokens) == 0 {
		return 0
	}

	tf := make(map[string]int)
	for _, tok := range Tokenize(chunk.Text) {
		tf[tok]++
	}

	var score float64
	for _, qt := range queryTokens {
		if count := tf[qt]; count > 0 {
			score += float64(count) * s.IDF(qt)
		}
	}
	if score <= 0 {
		return 0
	}

	if chunk.Title != "" {
		score *= 1 + titleBonus(queryTokens, chunk.Title)
	}
	return score
}

// titleBonus counts distinct query tokens present in the tokenized title and
// converts them into a multiplier capped at titleBonusCap.
func titleBonus(queryTokens []string, title string) float64 {
	titleSet := make(map[string]struct{})
	for _, tok := range Tokenize(title) {
		titleSet[tok] = struct{}{}
	}
	seen := make(map[string]struct{})
	hits := 0
	for _, qt := range queryTokens {
		if _, dup := seen[qt]; dup {
			continue
		}
		seen[qt] = struct{}{}
		if _, ok := titleSet[qt]; ok {
			hits++
		}
	}
	return math.Min(titleBonusCap, float64(hits)*titleHitBonus)
}

// Similarity is the token-set overlap used by the FAQ direct-match branch:
// intersection over union of diacritic-stripped tokens longer than three
// characters. Returns a value in [0, 1].
func Similarity(a, b string) float64 {
	setA := similaritySet(a)
	setB := similaritySet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	inter := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func similaritySet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(s) {
		if len(tok) >= minSimilarityTokenLen {
			set[tok] = struct{}{}
		}
	}
	return set
}
