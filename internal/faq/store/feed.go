package store

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/kinko-io/faq-service/internal/model"
)

// FeedEventSource lists calendar events from an RSS or Atom feed, for
// federations that publish their tournament calendar as a feed instead of
// store metaobjects.
type FeedEventSource struct {
	url       string
	organizer string
	parser    *gofeed.Parser
}

// NewFeedEventSource creates a feed-backed event source. organizer is
// attached to every event because feeds rarely carry one per item.
func NewFeedEventSource(url, organizer string, timeout time.Duration) *FeedEventSource {
	parser := gofeed.NewParser()
	if timeout > 0 {
		parser.Client = &http.Client{Timeout: timeout}
	}
	return &FeedEventSource{
		url:       url,
		organizer: organizer,
		parser:    parser,
	}
}

// ListUpcoming fetches the feed and returns items dated at or after now.
// The item publication date stands in for the event start, which is how the
// federation calendars we consume behave.
func (s *FeedEventSource) ListUpcoming(ctx context.Context, now time.Time) ([]model.EventItem, error) {
	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event feed %s: %w", s.url, err)
	}

	events := make([]model.EventItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		var start time.Time
		switch {
		case item.PublishedParsed != nil:
			start = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			start = *item.UpdatedParsed
		default:
			continue
		}

		events = append(events, model.EventItem{
			Title:     item.Title,
			Start:     start,
			URL:       item.Link,
			Organizer: s.organizer,
			Tags:      item.Categories,
		})
	}
	return filterUpcoming(events, now), nil
}
