package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Calendrier WAKO</title>
    <item>
      <title>Championnat WAKO Europe</title>
      <link>https://wako.example/europe</link>
      <pubDate>Mon, 10 Mar 2031 09:00:00 GMT</pubDate>
      <category>kickboxing</category>
    </item>
    <item>
      <title>Ancien tournoi</title>
      <link>https://wako.example/old</link>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    </item>
    <item>
      <title>Sans date</title>
      <link>https://wako.example/undated</link>
    </item>
  </channel>
</rss>`

func TestFeedEventSource_ListUpcoming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testRSS))
	}))
	t.Cleanup(srv.Close)

	source := NewFeedEventSource(srv.URL, "WAKO", 5*time.Second)
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	events, err := source.ListUpcoming(context.Background(), now)
	require.NoError(t, err)

	require.Len(t, events, 1, "past and undated items are dropped")
	assert.Equal(t, "Championnat WAKO Europe", events[0].Title)
	assert.Equal(t, "https://wako.example/europe", events[0].URL)
	assert.Equal(t, "WAKO", events[0].Organizer)
	assert.Equal(t, []string{"kickboxing"}, events[0].Tags)
}

func TestFeedEventSource_FetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := NewFeedEventSource(srv.URL, "WAKO", 5*time.Second).ListUpcoming(context.Background(), time.Now())
	assert.Error(t, err)
}
