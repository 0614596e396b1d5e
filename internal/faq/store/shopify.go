package store

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kinko-io/faq-service/internal/model"
	"github.com/kinko-io/faq-service/pkg/utils/httpclient"
	"github.com/kinko-io/faq-service/pkg/utils/json"
)

// ShopifyConfig holds Shopify Storefront API configuration.
type ShopifyConfig struct {
	// Domain is the storefront domain, e.g. "shop.example.com".
	Domain string `json:"domain" mapstructure:"domain"`

	// StorefrontToken is the Storefront API access token.
	StorefrontToken string `json:"storefront_token" mapstructure:"storefront_token"`

	// APIVersion selects the Storefront API version.
	APIVersion string `json:"api_version" mapstructure:"api_version"`

	// EventTypes are the metaobject types queried for calendar events.
	EventTypes []string `json:"event_types" mapstructure:"event_types"`

	// CalendarURL is the fallback link for events without their own URL.
	CalendarURL string `json:"calendar_url" mapstructure:"calendar_url"`

	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries is the transport-level retry budget per request.
	MaxRetries int `json:"max_retries" mapstructure:"max_retries"`
}

// DefaultShopifyConfig returns the default configuration.
func DefaultShopifyConfig() *ShopifyConfig {
	return &ShopifyConfig{
		APIVersion: "2024-07",
		EventTypes: []string{"event"},
		Timeout:    15 * time.Second,
		MaxRetries: 2,
	}
}

// Validate checks the required fields.
func (c *ShopifyConfig) Validate() error {
	if c.Domain == "" {
		return fmt.Errorf("shopify: domain is required")
	}
	if c.StorefrontToken == "" {
		return fmt.Errorf("shopify: storefront_token is required")
	}
	return nil
}

// ShopifyClient reads FAQ items and calendar events from Shopify metaobjects
// through the Storefront GraphQL API. It implements FAQSource and EventSource.
type ShopifyClient struct {
	config *ShopifyConfig
	client *httpclient.Client

	// endpointOverride replaces the computed HTTPS endpoint in tests.
	endpointOverride string
}

// NewShopifyClient creates a Storefront API client.
func NewShopifyClient(cfg *ShopifyConfig) (*ShopifyClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ShopifyClient{
		config: cfg,
		client: httpclient.NewClient(cfg.Timeout, cfg.MaxRetries),
	}, nil
}

const metaobjectsQuery = `
query Metaobjects($type: String!, $cursor: String) {
  metaobjects(type: $type, first: 200, after: $cursor) {
    nodes {
      type
      handle
      updatedAt
      fields { key value }
    }
    pageInfo { hasNextPage endCursor }
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type metaobjectNode struct {
	Type      string `json:"type"`
	Handle    string `json:"handle"`
	UpdatedAt string `json:"updatedAt"`
	Fields    []struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"fields"`
}

func (n metaobjectNode) field(key string) string {
	for _, f := range n.Fields {
		if f.Key == key {
			return strings.TrimSpace(f.Value)
		}
	}
	return ""
}

type metaobjectsResponse struct {
	Data struct {
		Metaobjects struct {
			Nodes    []metaobjectNode `json:"nodes"`
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
		} `json:"metaobjects"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (s *ShopifyClient) endpoint() string {
	if s.endpointOverride != "" {
		return s.endpointOverride
	}
	return fmt.Sprintf("https://%s/api/%s/graphql.json", s.config.Domain, s.config.APIVersion)
}

func (s *ShopifyClient) listMetaobjects(ctx context.Context, metaobjectType string) ([]metaobjectNode, error) {
	var nodes []metaobjectNode
	var cursor string

	for {
		variables := map[string]any{"type": metaobjectType}
		if cursor != "" {
			variables["cursor"] = cursor
		}

		body, err := json.Marshal(graphqlRequest{Query: metaobjectsQuery, Variables: variables})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(), bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Shopify-Storefront-Access-Token", s.config.StorefrontToken)

		var resp metaobjectsResponse
		if err := s.client.DoJSON(req, &resp); err != nil {
			return nil, fmt.Errorf("storefront query for %s failed: %w", metaobjectType, err)
		}
		if len(resp.Errors) > 0 {
			return nil, fmt.Errorf("storefront query for %s failed: %s", metaobjectType, resp.Errors[0].Message)
		}

		nodes = append(nodes, resp.Data.Metaobjects.Nodes...)
		if !resp.Data.Metaobjects.PageInfo.HasNextPage {
			return nodes, nil
		}
		cursor = resp.Data.Metaobjects.PageInfo.EndCursor
	}
}

// List returns the faq_item metaobjects as FAQ items.
func (s *ShopifyClient) List(ctx context.Context) ([]model.FAQItem, error) {
	nodes, err := s.listMetaobjects(ctx, "faq_item")
	if err != nil {
		return nil, err
	}

	items := make([]model.FAQItem, 0, len(nodes))
	for _, node := range nodes {
		question := node.field("question")
		if question == "" {
			continue
		}
		items = append(items, model.FAQItem{
			Handle:   node.Handle,
			Question: question,
			Answer:   richTextToPlain(node.field("answer")),
		})
	}
	return items, nil
}

// ListUpcoming returns the configured event metaobjects starting at or after
// now. Metaobject schemas vary between stores, so common field aliases are
// accepted for each attribute.
func (s *ShopifyClient) ListUpcoming(ctx context.Context, now time.Time) ([]model.EventItem, error) {
	var events []model.EventItem
	for _, metaobjectType := range s.config.EventTypes {
		nodes, err := s.listMetaobjects(ctx, metaobjectType)
		if err != nil {
			return nil, err
		}
		for _, node := range nodes {
			event, ok := s.nodeToEvent(node)
			if !ok {
				continue
			}
			events = append(events, event)
		}
	}
	return filterUpcoming(events, now), nil
}

func (s *ShopifyClient) nodeToEvent(node metaobjectNode) (model.EventItem, bool) {
	start, ok := parseEventTime(firstNonEmpty(node.field("start"), node.field("date"), node.field("when")))
	if !ok {
		logger.Warnw("Skipping event metaobject without parseable start date", "handle", node.Handle)
		return model.EventItem{}, false
	}

	item := model.EventItem{
		Title:     firstNonEmpty(node.field("title"), node.field("name"), node.Handle),
		Start:     start,
		Location:  firstNonEmpty(node.field("location"), node.field("city")),
		URL:       firstNonEmpty(node.field("url"), s.config.CalendarURL),
		Organizer: firstNonEmpty(node.field("organizer"), node.field("host")),
		Tags:      metaobjectTags(node.field("tags")),
	}
	if end, ok := parseEventTime(node.field("end")); ok {
		item.End = &end
	}
	return item, true
}

// metaobjectTags handles tags stored either as a JSON array or as a
// comma/semicolon delimited string.
func metaobjectTags(value string) []string {
	if value == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(value), &list); err == nil {
		tags := make([]string, 0, len(list))
		for _, t := range list {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		return tags
	}
	return splitTags(value)
}

// richTextToPlain flattens Shopify rich-text field JSON into plain text,
// joining paragraphs with blank lines. Non-JSON values pass through as-is.
func richTextToPlain(value string) string {
	if value == "" {
		return ""
	}

	var doc struct {
		Children []struct {
			Children []struct {
				Value string `json:"value"`
			} `json:"children"`
		} `json:"children"`
	}
	if err := json.Unmarshal([]byte(value), &doc); err != nil || len(doc.Children) == 0 {
		return value
	}

	paragraphs := make([]string, 0, len(doc.Children))
	for _, p := range doc.Children {
		var sb strings.Builder
		for _, t := range p.Children {
			sb.WriteString(t.Value)
		}
		paragraphs = append(paragraphs, sb.String())
	}
	return strings.Join(paragraphs, "\n\n")
}
