package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kart-io/logger"

	"github.com/kinko-io/faq-service/internal/model"
	"github.com/kinko-io/faq-service/pkg/utils/json"
)

// snapshotIndexFile mirrors the on-disk layout written by the ingestion
// pipeline: a header plus a flat entry list.
type snapshotIndexFile struct {
	Count   int                  `json:"count"`
	Entries []snapshotIndexEntry `json:"entries"`
}

type snapshotIndexEntry struct {
	ID     int64  `json:"id"`
	Source string `json:"source"`
	Title  string `json:"title"`
	Text   string `json:"text"`
	URL    string `json:"url"`
}

// SnapshotIndexSource loads the document index from a local JSON snapshot.
type SnapshotIndexSource struct {
	path string
}

// NewSnapshotIndexSource creates an index source reading the given file.
func NewSnapshotIndexSource(path string) *SnapshotIndexSource {
	return &SnapshotIndexSource{path: path}
}

// Load reads and decodes the snapshot file.
func (s *SnapshotIndexSource) Load(ctx context.Context) ([]model.IndexChunk, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index snapshot %s: %w", s.path, err)
	}

	var file snapshotIndexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode index snapshot %s: %w", s.path, err)
	}

	chunks := make([]model.IndexChunk, 0, len(file.Entries))
	for _, entry := range file.Entries {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		chunks = append(chunks, model.IndexChunk{
			ID:     strconv.FormatInt(entry.ID, 10),
			URL:    entry.URL,
			Title:  entry.Title,
			Text:   text,
			Source: entry.Source,
		})
	}

	logger.Infof("Loaded %d index chunks from %s", len(chunks), s.path)
	return chunks, nil
}

// snapshotEvent mirrors one entry of the events snapshot. The exporter is
// tolerant about metaobject field names, so the aliases are kept here too.
type snapshotEvent struct {
	Title     string `json:"title"`
	Name      string `json:"name"`
	Start     string `json:"start"`
	Date      string `json:"date"`
	When      string `json:"when"`
	End       string `json:"end"`
	Location  string `json:"location"`
	City      string `json:"city"`
	URL       string `json:"url"`
	Organizer string `json:"organizer"`
	Host      string `json:"host"`
	Tags      any    `json:"tags"`
}

// SnapshotEventSource lists events from a local JSON snapshot.
type SnapshotEventSource struct {
	path string
}

// NewSnapshotEventSource creates an event source reading the given file.
func NewSnapshotEventSource(path string) *SnapshotEventSource {
	return &SnapshotEventSource{path: path}
}

// ListUpcoming reads the snapshot and returns events starting at or after
// now. Entries without a parseable start date are dropped.
func (s *SnapshotEventSource) ListUpcoming(ctx context.Context, now time.Time) ([]model.EventItem, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read events snapshot %s: %w", s.path, err)
	}

	var raw []snapshotEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode events snapshot %s: %w", s.path, err)
	}

	events := make([]model.EventItem, 0, len(raw))
	for _, entry := range raw {
		start, ok := parseEventTime(firstNonEmpty(entry.Start, entry.Date, entry.When))
		if !ok {
			logger.Warnw("Skipping event without parseable start date", "title", entry.Title)
			continue
		}

		item := model.EventItem{
			Title:     firstNonEmpty(entry.Title, entry.Name),
			Start:     start,
			Location:  firstNonEmpty(entry.Location, entry.City),
			URL:       entry.URL,
			Organizer: firstNonEmpty(entry.Organizer, entry.Host),
			Tags:      parseTags(entry.Tags),
		}
		if end, ok := parseEventTime(entry.End); ok {
			item.End = &end
		}
		events = append(events, item)
	}

	return filterUpcoming(events, now), nil
}

// eventTimeLayouts are tried in order when parsing start and end dates.
// Exports mix full RFC 3339 timestamps with date-only values.
var eventTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseEventTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// parseTags accepts either a JSON array of strings or a single delimited
// string, matching what the export formats produce.
func parseTags(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					tags = append(tags, s)
				}
			}
		}
		return tags
	case string:
		return splitTags(v)
	default:
		return nil
	}
}

func splitTags(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';'
	})
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// WatchSnapshots resets the index whenever one of the given snapshot files
// changes on disk. It watches the parent directories because most tools
// replace snapshot files instead of writing them in place. The watcher stops
// when ctx is canceled.
func WatchSnapshots(ctx context.Context, index *Index, paths ...string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create snapshot watcher: %w", err)
	}

	watched := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to resolve snapshot path %s: %w", p, err)
		}
		watched[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	go func() {
		defer func() { _ = watcher.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				abs, err := filepath.Abs(event.Name)
				if err != nil {
					continue
				}
				if _, ok := watched[abs]; !ok {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				logger.Infow("Snapshot changed, resetting index", "path", abs, "op", event.Op.String())
				index.Reset()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnw("Snapshot watcher error", "error", err)
			}
		}
	}()

	return nil
}
