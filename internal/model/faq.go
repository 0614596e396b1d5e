// Package model provides data models for the FAQ answering service.
package model

import (
	"time"
)

// Answer modes. Event answers come from live structured data, FAQ answers
// from a direct storefront FAQ match, RAG answers from lexical retrieval
// plus a chat completion.
const (
	ModeEvent = "event"
	ModeFAQ   = "faq"
	ModeRAG   = "rag"
)

// Confidence levels for an answer.
const (
	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

// IndexChunk is one retrievable unit of knowledge in the document index.
type IndexChunk struct {
	ID     string `json:"id"`
	URL    string `json:"url,omitempty"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text"`
	Source string `json:"source,omitempty"` // human-readable source label
}

// ScoredChunk pairs a chunk with its lexical relevance score for one query.
// Produced transiently per request, never persisted.
type ScoredChunk struct {
	Chunk IndexChunk `json:"chunk"`
	Score float64    `json:"score"`
}

// EventItem is a scheduled occurrence (competition, tournament, seminar).
// Only items with a valid Start at or after query time are surfaced.
type EventItem struct {
	Title     string     `json:"title"`
	Start     time.Time  `json:"start"`
	End       *time.Time `json:"end,omitempty"`
	Location  string     `json:"location,omitempty"`
	URL       string     `json:"url,omitempty"`
	Organizer string     `json:"organizer,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
}

// FAQItem is a storefront FAQ metaobject entry used by the direct-match branch.
type FAQItem struct {
	Handle   string `json:"handle"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Source is one citation attached to an answer.
type Source struct {
	ID    int     `json:"id"`
	URL   string  `json:"url"`
	Label string  `json:"label"`
	Score float64 `json:"score,omitempty"`
}

// AnswerResult is the outcome of one question, constructed fresh per request.
type AnswerResult struct {
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	Confidence string   `json:"confidence"`
	Mode       string   `json:"mode"`
}
