package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kinko-io/faq-service/internal/model"
	"github.com/kinko-io/faq-service/internal/pkg/faq/lexical"
)

// IndexSource loads the document index chunks from a backing store.
type IndexSource interface {
	// Load returns every chunk of the document index.
	Load(ctx context.Context) ([]model.IndexChunk, error)
}

// EventSource lists calendar events from a backing store.
type EventSource interface {
	// ListUpcoming returns events starting at or after now, ordered by
	// start time ascending.
	ListUpcoming(ctx context.Context, now time.Time) ([]model.EventItem, error)
}

// FAQSource lists the curated FAQ catalog from a backing store.
type FAQSource interface {
	// List returns every FAQ item.
	List(ctx context.Context) ([]model.FAQItem, error)
}

// Index holds the loaded document index together with its lexical scorer.
// Loading is lazy and memoized; Reset drops the cached state so the next
// Snapshot call reloads from the source.
type Index struct {
	source IndexSource

	mu     sync.Mutex
	chunks []model.IndexChunk
	scorer *lexical.Scorer
	loaded bool
}

// NewIndex wraps an IndexSource with memoized loading.
func NewIndex(source IndexSource) *Index {
	return &Index{source: source}
}

// Snapshot returns the current chunks and the scorer built over them,
// loading from the source on first use or after a Reset.
func (x *Index) Snapshot(ctx context.Context) ([]model.IndexChunk, *lexical.Scorer, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.loaded {
		chunks, err := x.source.Load(ctx)
		if err != nil {
			return nil, nil, err
		}
		x.chunks = chunks
		x.scorer = lexical.NewScorer(chunks)
		x.loaded = true
	}
	return x.chunks, x.scorer, nil
}

// Reset drops the memoized index so the next Snapshot reloads it.
func (x *Index) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.chunks = nil
	x.scorer = nil
	x.loaded = false
}

// Loaded reports whether the index currently holds memoized chunks.
func (x *Index) Loaded() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.loaded
}

// filterUpcoming keeps events starting at or after now and sorts them by
// start time ascending. Ordering among equal start times is preserved.
func filterUpcoming(events []model.EventItem, now time.Time) []model.EventItem {
	upcoming := make([]model.EventItem, 0, len(events))
	for _, ev := range events {
		if ev.Start.Before(now) {
			continue
		}
		upcoming = append(upcoming, ev)
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].Start.Before(upcoming[j].Start)
	})
	return upcoming
}
