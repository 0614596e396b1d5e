package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinko-io/faq-service/pkg/utils/json"
)

// newTestShopifyClient points the client at a local httptest listener, since
// the real endpoint is always HTTPS.
func newTestShopifyClient(t *testing.T, handler http.HandlerFunc) *ShopifyClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultShopifyConfig()
	cfg.Domain = strings.TrimPrefix(srv.URL, "http://")
	cfg.StorefrontToken = "test-token"
	cfg.CalendarURL = "/pages/calendrier"
	cfg.MaxRetries = 0

	client, err := NewShopifyClient(cfg)
	require.NoError(t, err)
	client.endpointOverride = srv.URL + "/api/2024-07/graphql.json"
	return client
}

func TestShopifyClient_List_FAQ(t *testing.T) {
	richText := `{"children":[{"children":[{"value":"Oui, "},{"value":"dès 6 ans."}]},{"children":[{"value":"Voir le dojo."}]}]}`

	client := newTestShopifyClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("X-Shopify-Storefront-Access-Token"))

		var req graphqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "faq_item", req.Variables["type"])

		resp := map[string]any{
			"data": map[string]any{
				"metaobjects": map[string]any{
					"nodes": []any{
						map[string]any{
							"handle": "age-minimum",
							"fields": []any{
								map[string]any{"key": "question", "value": "À quel âge peut-on commencer ?"},
								map[string]any{"key": "answer", "value": richText},
							},
						},
						map[string]any{
							"handle": "orphan",
							"fields": []any{},
						},
					},
					"pageInfo": map[string]any{"hasNextPage": false, "endCursor": ""},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	items, err := client.List(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 1, "nodes without a question are dropped")
	assert.Equal(t, "age-minimum", items[0].Handle)
	assert.Equal(t, "À quel âge peut-on commencer ?", items[0].Question)
	assert.Equal(t, "Oui, dès 6 ans.\n\nVoir le dojo.", items[0].Answer)
}

func TestShopifyClient_ListUpcoming_AliasesAndPagination(t *testing.T) {
	pages := []string{
		`{"data":{"metaobjects":{"nodes":[
			{"handle":"open-wkc","fields":[
				{"key":"name","value":"Open WKC"},
				{"key":"date","value":"2031-04-12"},
				{"key":"city","value":"Nice"},
				{"key":"host","value":"WKC"},
				{"key":"tags","value":"[\"kumite\",\"kata\"]"}
			]}
		],"pageInfo":{"hasNextPage":true,"endCursor":"c1"}}}}`,
		`{"data":{"metaobjects":{"nodes":[
			{"handle":"coupe-naska","fields":[
				{"key":"title","value":"Coupe NASKA"},
				{"key":"start","value":"2031-02-01T10:00:00Z"},
				{"key":"end","value":"2031-02-02T18:00:00Z"},
				{"key":"organizer","value":"NASKA"},
				{"key":"tags","value":"juniors, seniors"}
			]},
			{"handle":"sans-date","fields":[{"key":"title","value":"Stage"}]}
		],"pageInfo":{"hasNextPage":false,"endCursor":""}}}}`,
	}

	var calls int
	client := newTestShopifyClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if calls == 0 {
			assert.Nil(t, req.Variables["cursor"])
		} else {
			assert.Equal(t, "c1", req.Variables["cursor"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(pages[calls]))
		calls++
	})

	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	events, err := client.ListUpcoming(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "follows pagination cursor")

	require.Len(t, events, 2)
	assert.Equal(t, "Coupe NASKA", events[0].Title)
	assert.Equal(t, "NASKA", events[0].Organizer)
	require.NotNil(t, events[0].End)
	assert.Equal(t, []string{"juniors", "seniors"}, events[0].Tags)

	assert.Equal(t, "Open WKC", events[1].Title)
	assert.Equal(t, "Nice", events[1].Location)
	assert.Equal(t, "WKC", events[1].Organizer)
	assert.Equal(t, "/pages/calendrier", events[1].URL, "calendar fallback link")
	assert.Equal(t, []string{"kumite", "kata"}, events[1].Tags)
}

func TestShopifyClient_GraphQLErrors(t *testing.T) {
	client := newTestShopifyClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors":[{"message":"type not found"}]}`))
	})

	_, err := client.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type not found")
}

func TestShopifyConfig_Validate(t *testing.T) {
	cfg := DefaultShopifyConfig()
	assert.Error(t, cfg.Validate())

	cfg.Domain = "shop.example.com"
	assert.Error(t, cfg.Validate())

	cfg.StorefrontToken = "t"
	assert.NoError(t, cfg.Validate())
}

func TestRichTextToPlain_PassThrough(t *testing.T) {
	assert.Equal(t, "déjà du texte", richTextToPlain("déjà du texte"))
	assert.Equal(t, "", richTextToPlain(""))
}
