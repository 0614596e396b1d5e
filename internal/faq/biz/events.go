package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kinko-io/faq-service/internal/faq/store"
	"github.com/kinko-io/faq-service/internal/model"
	"github.com/kinko-io/faq-service/internal/pkg/faq/lexical"
)

// overrideScore dominates any realistic lexical score so the event chunk is
// always ranked first and survives any truncation.
const overrideScore = 1000

// temporal cues and event nouns are matched on tokenized text, so the
// diacritics are already stripped ("compétition" arrives as "competition").
var (
	temporalCues = map[string]struct{}{
		"prochain": {}, "prochaine": {}, "prochains": {}, "prochaines": {},
		"bientot": {}, "quand": {}, "date": {}, "dates": {},
		"next": {}, "when": {}, "upcoming": {}, "soon": {},
	}

	eventNouns = map[string]struct{}{
		"competition": {}, "competitions": {},
		"tournoi": {}, "tournois": {},
		"championnat": {}, "championnats": {},
		"evenement": {}, "evenements": {},
		"tournament": {}, "tournaments": {},
		"event": {}, "events": {},
		"championship": {}, "championships": {},
	}
)

// ResolverConfig configures the event resolver.
type ResolverConfig struct {
	// Organizers is the recognized organizer vocabulary, lower-case.
	Organizers []string
}

// DefaultResolverConfig returns the default configuration, tuned to the
// federations and platforms this storefront deals with.
func DefaultResolverConfig() *ResolverConfig {
	return &ResolverConfig{
		Organizers: []string{"wkc", "wako", "naska", "uventex", "fitofan"},
	}
}

// EventResolver detects "next competition" style questions and resolves them
// against the live event calendar.
type EventResolver struct {
	source store.EventSource
	config *ResolverConfig
}

// NewEventResolver creates an event resolver. source may be nil, in which
// case resolution always yields nothing.
func NewEventResolver(source store.EventSource, config *ResolverConfig) *EventResolver {
	if config == nil {
		config = DefaultResolverConfig()
	}
	return &EventResolver{source: source, config: config}
}

// HasEventIntent reports whether the question asks about the next occurrence
// of a scheduled event: it must carry both a temporal cue and an event noun,
// in any order. The heuristic is recall-oriented; a false positive simply
// falls through to lexical retrieval when no event matches.
func (r *EventResolver) HasEventIntent(question string) bool {
	var temporal, noun bool
	for _, token := range lexical.Tokenize(question) {
		if _, ok := temporalCues[token]; ok {
			temporal = true
		}
		if _, ok := eventNouns[token]; ok {
			noun = true
		}
		if temporal && noun {
			return true
		}
	}
	return false
}

// ExtractOrganizer returns the first recognized organizer token of the
// question, or "" when none matches.
func (r *EventResolver) ExtractOrganizer(question string) string {
	for _, token := range lexical.Tokenize(question) {
		for _, org := range r.config.Organizers {
			if token == org {
				return org
			}
		}
	}
	return ""
}

// Resolve returns the earliest upcoming event matching the question, or
// (nil, "") when the question has no event intent or no event qualifies.
// Event source failures degrade to no override; they never fail the request.
func (r *EventResolver) Resolve(ctx context.Context, question string, now time.Time) (*model.EventItem, string) {
	if r.source == nil || !r.HasEventIntent(question) {
		return nil, ""
	}

	organizer := r.ExtractOrganizer(question)

	events, err := r.source.ListUpcoming(ctx, now)
	if err != nil {
		logger.Warnw("Event source unavailable, continuing without override", "error", err.Error())
		return nil, organizer
	}

	// Organizer restriction applies before picking the earliest event, so a
	// closer event from another federation never wins.
	for i := range events {
		if organizer != "" && !matchesOrganizer(&events[i], organizer) {
			continue
		}
		return &events[i], organizer
	}
	return nil, organizer
}

func matchesOrganizer(event *model.EventItem, organizer string) bool {
	if strings.Contains(strings.ToLower(event.Organizer), organizer) {
		return true
	}
	for _, tag := range event.Tags {
		if strings.Contains(strings.ToLower(tag), organizer) {
			return true
		}
	}
	return false
}

// OverrideChunk wraps an event as a synthetic chunk carrying a score that
// dominates every lexical match.
func (r *EventResolver) OverrideChunk(event *model.EventItem) model.ScoredChunk {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Prochaine compétition : %s\n", event.Title)
	fmt.Fprintf(&sb, "Date : %s\n", formatEventDate(event.Start))
	if event.End != nil {
		fmt.Fprintf(&sb, "Fin : %s\n", formatEventDate(*event.End))
	}
	if event.Location != "" {
		fmt.Fprintf(&sb, "Lieu : %s\n", event.Location)
	}
	if event.Organizer != "" {
		fmt.Fprintf(&sb, "Organisateur : %s\n", event.Organizer)
	}
	if event.URL != "" {
		fmt.Fprintf(&sb, "Lien : %s\n", event.URL)
	}

	return model.ScoredChunk{
		Chunk: model.IndexChunk{
			ID:     "event-override",
			URL:    event.URL,
			Title:  event.Title,
			Text:   sb.String(),
			Source: "Calendrier des compétitions",
		},
		Score: overrideScore,
	}
}

func formatEventDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 {
		return t.Format("02/01/2006")
	}
	return t.Format("02/01/2006 15:04")
}
