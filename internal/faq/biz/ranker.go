package biz

import (
	"fmt"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/kinko-io/faq-service/internal/model"
	"github.com/kinko-io/faq-service/internal/pkg/faq/lexical"
)

// RankerConfig configures top-K selection.
type RankerConfig struct {
	// TopK is the number of chunks returned per query.
	TopK int
	// Workers sizes the scoring goroutine pool.
	Workers int
}

// DefaultRankerConfig returns the default configuration.
func DefaultRankerConfig() *RankerConfig {
	return &RankerConfig{
		TopK:    6,
		Workers: 4,
	}
}

// Ranker selects the best-scoring chunks for a query. Scoring is fanned out
// over a shared goroutine pool because chunks score independently.
type Ranker struct {
	config *RankerConfig
	pool   *ants.Pool
}

// NewRanker creates a ranker with its scoring pool.
func NewRanker(config *RankerConfig) (*Ranker, error) {
	if config == nil {
		config = DefaultRankerConfig()
	}
	if config.TopK <= 0 {
		config.TopK = 6
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}

	pool, err := ants.NewPool(config.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create ranker pool: %w", err)
	}
	return &Ranker{config: config, pool: pool}, nil
}

// Close releases the scoring pool.
func (r *Ranker) Close() {
	r.pool.Release()
}

// TopK scores every chunk against the query tokens and returns up to k
// results ordered by descending score. Ties keep the original index order.
// Chunks scoring zero or below are never returned; an empty result is valid.
func (r *Ranker) TopK(queryTokens []string, chunks []model.IndexChunk, scorer *lexical.Scorer, k int) []model.ScoredChunk {
	if k <= 0 {
		k = r.config.TopK
	}
	if len(queryTokens) == 0 || len(chunks) == 0 {
		return nil
	}

	scores := make([]float64, len(chunks))

	var wg sync.WaitGroup
	for i := range chunks {
		i := i
		wg.Add(1)
		task := func() {
			defer wg.Done()
			scores[i] = scorer.Score(queryTokens, chunks[i])
		}
		if err := r.pool.Submit(task); err != nil {
			// Pool saturated or released; score inline.
			task()
		}
	}
	wg.Wait()

	ranked := make([]model.ScoredChunk, 0, len(chunks))
	for i, chunk := range chunks {
		if scores[i] <= 0 {
			continue
		}
		ranked = append(ranked, model.ScoredChunk{Chunk: chunk, Score: scores[i]})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
