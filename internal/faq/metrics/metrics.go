// Package metrics collects business metrics for the FAQ service.
package metrics

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// FAQMetrics holds the service counters. All counters are updated with
// atomic operations so request handlers never contend on a lock.
type FAQMetrics struct {
	questionsTotal  uint64 // answered questions, all modes
	questionsErrors uint64 // requests ending in a typed error
	cacheHits       uint64
	cacheMisses     uint64

	faqMatches     uint64 // direct curated-FAQ answers
	eventOverrides uint64 // answers driven by the event calendar

	rankingTotal    uint64
	rankingDuration float64 // seconds

	llmCallsTotal    uint64
	llmCallsErrors   uint64
	llmFallbacks     uint64 // answers that needed a non-first model
	llmCallsDuration float64 // seconds

	startTime  time.Time
	durationMu sync.Mutex
}

var (
	global *FAQMetrics
	once   sync.Once
)

// Get returns the process-wide metrics instance.
func Get() *FAQMetrics {
	once.Do(func() {
		global = &FAQMetrics{startTime: time.Now()}
	})
	return global
}

// RecordQuestion records one answered (or failed) question.
func (m *FAQMetrics) RecordQuestion(cacheHit bool, err error) {
	atomic.AddUint64(&m.questionsTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.questionsErrors, 1)
		return
	}
	if cacheHit {
		atomic.AddUint64(&m.cacheHits, 1)
	} else {
		atomic.AddUint64(&m.cacheMisses, 1)
	}
}

// RecordFAQMatch records a direct FAQ answer.
func (m *FAQMetrics) RecordFAQMatch() {
	atomic.AddUint64(&m.faqMatches, 1)
}

// RecordEventOverride records an event-calendar answer.
func (m *FAQMetrics) RecordEventOverride() {
	atomic.AddUint64(&m.eventOverrides, 1)
}

// RecordRanking records one ranking pass.
func (m *FAQMetrics) RecordRanking(duration time.Duration) {
	atomic.AddUint64(&m.rankingTotal, 1)
	m.durationMu.Lock()
	m.rankingDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// RecordLLMCall records one completion round trip, fallback meaning the
// answer did not come from the first candidate model.
func (m *FAQMetrics) RecordLLMCall(duration time.Duration, fallback bool, err error) {
	atomic.AddUint64(&m.llmCallsTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.llmCallsErrors, 1)
		return
	}
	if fallback {
		atomic.AddUint64(&m.llmFallbacks, 1)
	}
	m.durationMu.Lock()
	m.llmCallsDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// Export renders the counters in Prometheus text format.
func (m *FAQMetrics) Export(namespace, subsystem string) string {
	prefix := namespace
	if subsystem != "" {
		prefix = prefix + "_" + subsystem
	}

	m.durationMu.Lock()
	rankingDuration := m.rankingDuration
	llmDuration := m.llmCallsDuration
	m.durationMu.Unlock()

	var sb strings.Builder
	counter := func(name, help string, value uint64) {
		fmt.Fprintf(&sb, "# HELP %s_%s %s\n", prefix, name, help)
		fmt.Fprintf(&sb, "# TYPE %s_%s counter\n", prefix, name)
		fmt.Fprintf(&sb, "%s_%s %d\n\n", prefix, name, value)
	}
	gauge := func(name, help string, value float64) {
		fmt.Fprintf(&sb, "# HELP %s_%s %s\n", prefix, name, help)
		fmt.Fprintf(&sb, "# TYPE %s_%s gauge\n", prefix, name)
		fmt.Fprintf(&sb, "%s_%s %.4f\n\n", prefix, name, value)
	}

	counter("questions_total", "Total questions handled.", atomic.LoadUint64(&m.questionsTotal))
	counter("questions_errors_total", "Questions ending in an error.", atomic.LoadUint64(&m.questionsErrors))
	counter("cache_hits_total", "Answer cache hits.", atomic.LoadUint64(&m.cacheHits))
	counter("cache_misses_total", "Answer cache misses.", atomic.LoadUint64(&m.cacheMisses))
	counter("faq_matches_total", "Direct curated-FAQ answers.", atomic.LoadUint64(&m.faqMatches))
	counter("event_overrides_total", "Answers driven by the event calendar.", atomic.LoadUint64(&m.eventOverrides))
	counter("ranking_total", "Ranking passes.", atomic.LoadUint64(&m.rankingTotal))
	gauge("ranking_duration_seconds_total", "Total ranking duration.", rankingDuration)
	counter("llm_calls_total", "Completion calls.", atomic.LoadUint64(&m.llmCallsTotal))
	counter("llm_calls_errors_total", "Failed completion calls.", atomic.LoadUint64(&m.llmCallsErrors))
	counter("llm_fallbacks_total", "Answers produced by a fallback model.", atomic.LoadUint64(&m.llmFallbacks))
	gauge("llm_calls_duration_seconds_total", "Total completion duration.", llmDuration)
	gauge("uptime_seconds", "Service uptime in seconds.", time.Since(m.startTime).Seconds())

	return sb.String()
}

// Stats returns the counters as a map for the stats endpoint.
func (m *FAQMetrics) Stats() map[string]any {
	m.durationMu.Lock()
	rankingDuration := m.rankingDuration
	llmDuration := m.llmCallsDuration
	m.durationMu.Unlock()

	hits := atomic.LoadUint64(&m.cacheHits)
	misses := atomic.LoadUint64(&m.cacheMisses)
	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses)
	}

	llmTotal := atomic.LoadUint64(&m.llmCallsTotal)
	avgLLM := 0.0
	if llmTotal > 0 {
		avgLLM = llmDuration / float64(llmTotal)
	}

	return map[string]any{
		"questions": map[string]any{
			"total":          atomic.LoadUint64(&m.questionsTotal),
			"errors":         atomic.LoadUint64(&m.questionsErrors),
			"cache_hits":     hits,
			"cache_misses":   misses,
			"cache_hit_rate": hitRate,
		},
		"modes": map[string]any{
			"faq_matches":     atomic.LoadUint64(&m.faqMatches),
			"event_overrides": atomic.LoadUint64(&m.eventOverrides),
		},
		"ranking": map[string]any{
			"total":               atomic.LoadUint64(&m.rankingTotal),
			"total_duration_secs": rankingDuration,
		},
		"llm": map[string]any{
			"calls_total":         llmTotal,
			"errors":              atomic.LoadUint64(&m.llmCallsErrors),
			"fallbacks":           atomic.LoadUint64(&m.llmFallbacks),
			"total_duration_secs": llmDuration,
			"avg_duration_secs":   avgLLM,
		},
		"uptime_seconds": time.Since(m.startTime).Seconds(),
	}
}

// Reset zeroes every counter. Test hook.
func (m *FAQMetrics) Reset() {
	atomic.StoreUint64(&m.questionsTotal, 0)
	atomic.StoreUint64(&m.questionsErrors, 0)
	atomic.StoreUint64(&m.cacheHits, 0)
	atomic.StoreUint64(&m.cacheMisses, 0)
	atomic.StoreUint64(&m.faqMatches, 0)
	atomic.StoreUint64(&m.eventOverrides, 0)
	atomic.StoreUint64(&m.rankingTotal, 0)
	atomic.StoreUint64(&m.llmCallsTotal, 0)
	atomic.StoreUint64(&m.llmCallsErrors, 0)
	atomic.StoreUint64(&m.llmFallbacks, 0)

	m.durationMu.Lock()
	m.rankingDuration = 0
	m.llmCallsDuration = 0
	m.startTime = time.Now()
	m.durationMu.Unlock()
}
