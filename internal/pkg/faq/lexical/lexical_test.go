package lexical

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinko-io/faq-service/internal/model"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "lowercases and splits on punctuation",
			input: "Quelle est la PROCHAINE compétition?",
			want:  []string{"quelle", "est", "la", "prochaine", "competition"},
		},
		{
			name:  "strips diacritics",
			input: "événement à Québec",
			want:  []string{"evenement", "a", "quebec"},
		},
		{
			name:  "keeps digits",
			input: "WKC 2026!",
			want:  []string{"wkc", "2026"},
		},
		{
			name:  "empty input",
			input: "  \t\n ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryTokens_Cap(t *testing.T) {
	question := strings.Repeat("mot ", 100)
	tokens := QueryTokens(question)
	assert.Len(t, tokens, maxQueryTokens)
}

func TestScorer_Score_NonNegative(t *testing.T) {
	chunks := []model.IndexChunk{
		{ID: "1", Text: "gants de karaté homologués WKC"},
		{ID: "2", Text: "horaires du dojo et tarifs"},
		{ID: "3", Text: ""},
	}
	scorer := NewScorer(chunks)

	query := QueryTokens("casque de taekwondo")
	for _, ch := range chunks {
		assert.GreaterOrEqual(t, scorer.Score(query, ch), 0.0)
	}
}

func TestScorer_Score_ZeroWhenNoOverlap(t *testing.T) {
	chunks := []model.IndexChunk{{ID: "1", Text: "gants de karaté"}}
	scorer := NewScorer(chunks)

	score := scorer.Score(QueryTokens("piscine olympique"), chunks[0])
	assert.Zero(t, score)
}

func TestScorer_Score_EmptyTextAlwaysZero(t *testing.T) {
	chunk := model.IndexChunk{ID: "1", Title: "karaté", Text: "   "}
	scorer := NewScorer([]model.IndexChunk{chunk})

	assert.Zero(t, scorer.Score(QueryTokens("karaté"), chunk))
}

func TestScorer_Score_RawTermFrequency(t *testing.T) {
	chunks := []model.IndexChunk{
		{ID: "1", Text: "karate"},
		{ID: "2", Text: "karate karate karate"},
	}
	scorer := NewScorer(chunks)
	query := QueryTokens("karate")

	// No length normalization: repeated matches score strictly higher.
	assert.Greater(t, scorer.Score(query, chunks[1]), scorer.Score(query, chunks[0]))
}

func TestScorer_TitleBonus(t *testing.T) {
	withTitle := model.IndexChunk{ID: "1", Title: "compétition WKC", Text: "règlement compétition"}
	withoutTitle := model.IndexChunk{ID: "2", Text: "règlement compétition"}
	scorer := NewScorer([]model.IndexChunk{withTitle, withoutTitle})
	query := QueryTokens("compétition WKC")

	base := scorer.Score(query, withoutTitle)
	boosted := scorer.Score(query, withTitle)
	require.Greater(t, base, 0.0)
	// Two distinct title hits: 1 + 2*0.05.
	assert.InDelta(t, base*1.10, boosted, 1e-9)
}

func TestScorer_TitleBonusCapped(t *testing.T) {
	title := "un deux trois quatre cinq six sept huit neuf dix"
	chunk := model.IndexChunk{ID: "1", Title: title, Text: title}
	plain := model.IndexChunk{ID: "2", Text: title}
	scorer := NewScorer([]model.IndexChunk{chunk, plain})
	query := QueryTokens(title)

	base := scorer.Score(query, plain)
	boosted := scorer.Score(query, chunk)
	require.Greater(t, base, 0.0)
	// Ten hits would give 50%; the cap holds it at 30%.
	assert.InDelta(t, base*1.30, boosted, 1e-9)
}

func TestScorer_DuplicateChunkKeepsIDFMonotonic(t *testing.T) {
	chunks := []model.IndexChunk{
		{ID: "1", Text: "gants de karaté homologués"},
		{ID: "2", Text: "horaires du dojo"},
	}
	before := NewScorer(chunks)

	// Duplicating a chunk raises its tokens' document frequency along with
	// the corpus size, so IDF never increases for the duplicated tokens.
	// (Tokens of other chunks may rise: only N grows for them.)
	withDup := append(append([]model.IndexChunk{}, chunks...), chunks[0])
	after := NewScorer(withDup)

	for _, tok := range Tokenize(chunks[0].Text) {
		assert.LessOrEqual(t, after.IDF(tok), before.IDF(tok), "token %q", tok)
	}

	// The chunk that won before the duplicate landed keeps winning after.
	query := QueryTokens("gants de karaté")
	require.Greater(t, before.Score(query, chunks[0]), before.Score(query, chunks[1]))
	assert.Greater(t, after.Score(query, withDup[0]), after.Score(query, withDup[1]))
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want func(t *testing.T, got float64)
	}{
		{
			name: "identical texts",
			a:    "Quels gants pour la compétition?",
			b:    "Quels gants pour la compétition?",
			want: func(t *testing.T, got float64) { assert.InDelta(t, 1.0, got, 1e-9) },
		},
		{
			name: "disjoint texts",
			a:    "horaires du dojo",
			b:    "politique de retour",
			want: func(t *testing.T, got float64) { assert.Zero(t, got) },
		},
		{
			name: "short tokens ignored",
			a:    "le la un de",
			b:    "le la un de",
			want: func(t *testing.T, got float64) { assert.Zero(t, got) },
		},
		{
			name: "diacritics do not matter",
			a:    "compétition équipement",
			b:    "competition equipement",
			want: func(t *testing.T, got float64) { assert.InDelta(t, 1.0, got, 1e-9) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want(t, Similarity(tt.a, tt.b))
		})
	}
}
