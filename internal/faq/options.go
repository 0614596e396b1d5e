// Package faq provides the FAQ answering service application.
package faq

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	logopts "github.com/kinko-io/faq-service/pkg/options/logger"
)

// Options contains all FAQ service options.
type Options struct {
	// Server contains HTTP server configuration.
	Server *ServerOptions `json:"server" mapstructure:"server"`

	// Log contains logger configuration.
	Log *logopts.Options `json:"log" mapstructure:"log"`

	// Chat contains chat-completion provider configuration.
	Chat *ChatProviderOptions `json:"chat" mapstructure:"chat"`

	// FAQ contains answering-pipeline configuration.
	FAQ *PipelineOptions `json:"faq" mapstructure:"faq"`

	// Data contains knowledge-source configuration.
	Data *DataOptions `json:"data" mapstructure:"data"`

	// Cache contains answer cache configuration.
	Cache *CacheOptions `json:"cache" mapstructure:"cache"`
}

// ServerOptions contains HTTP server configuration.
type ServerOptions struct {
	// Addr is the listen address.
	Addr string `json:"addr" mapstructure:"addr"`

	// Mode is the gin mode (debug, release, test).
	Mode string `json:"mode" mapstructure:"mode"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// ChatProviderOptions configures the chat-completion provider.
type ChatProviderOptions struct {
	// Provider is the provider name (openrouter, ollama).
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL is the API base address.
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey is the API key (OpenRouter requires one).
	APIKey string `json:"api-key" mapstructure:"api-key"`

	// SiteURL is sent for app attribution (OpenRouter).
	SiteURL string `json:"site-url" mapstructure:"site-url"`

	// AppName is sent for app attribution (OpenRouter).
	AppName string `json:"app-name" mapstructure:"app-name"`

	// Temperature controls generation randomness.
	Temperature float64 `json:"temperature" mapstructure:"temperature"`

	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries is the transport-level retry budget per request.
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`
}

// ToConfigMap converts the options to a configuration map for the provider
// factory.
func (o *ChatProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":    o.BaseURL,
		"api_key":     o.APIKey,
		"site_url":    o.SiteURL,
		"app_name":    o.AppName,
		"temperature": o.Temperature,
		"timeout":     o.Timeout,
		"max_retries": o.MaxRetries,
	}
}

// PipelineOptions contains answering-pipeline configuration.
type PipelineOptions struct {
	// TopK is the number of chunks retrieved per question.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// Workers sizes the scoring goroutine pool.
	Workers int `json:"workers" mapstructure:"workers"`

	// ConfidenceThreshold is the minimum top-chunk score for a high
	// confidence answer.
	ConfidenceThreshold float64 `json:"confidence-threshold" mapstructure:"confidence-threshold"`

	// MatchThreshold is the minimum similarity for a direct FAQ hit.
	MatchThreshold float64 `json:"match-threshold" mapstructure:"match-threshold"`

	// DefaultLang is the answer language when the request has no hint.
	DefaultLang string `json:"default-lang" mapstructure:"default-lang"`

	// MaxBodyChars caps each chunk body embedded in the prompt.
	MaxBodyChars int `json:"max-body-chars" mapstructure:"max-body-chars"`

	// MaxSources caps the citation list of an answer.
	MaxSources int `json:"max-sources" mapstructure:"max-sources"`

	// Models is the ordered completion model fallback list.
	Models []string `json:"models" mapstructure:"models"`

	// DefaultModel is the last-resort completion model.
	DefaultModel string `json:"default-model" mapstructure:"default-model"`

	// Organizers is the recognized event organizer vocabulary.
	Organizers []string `json:"organizers" mapstructure:"organizers"`
}

// DataOptions contains knowledge-source configuration.
type DataOptions struct {
	// IndexPath is the document index snapshot file.
	IndexPath string `json:"index-path" mapstructure:"index-path"`

	// EventsPath is the event calendar snapshot file.
	EventsPath string `json:"events-path" mapstructure:"events-path"`

	// Watch reloads the index when a snapshot file changes on disk.
	Watch bool `json:"watch" mapstructure:"watch"`

	// Shopify reads FAQ items and events live from the Storefront API
	// when a domain and token are configured.
	Shopify *ShopifyOptions `json:"shopify" mapstructure:"shopify"`

	// Feed reads events from an RSS/Atom feed when a URL is configured.
	Feed *FeedOptions `json:"feed" mapstructure:"feed"`
}

// ShopifyOptions contains Shopify Storefront API configuration.
type ShopifyOptions struct {
	// Domain is the storefront domain, e.g. "shop.example.com".
	Domain string `json:"domain" mapstructure:"domain"`

	// StorefrontToken is the Storefront API access token.
	StorefrontToken string `json:"storefront-token" mapstructure:"storefront-token"`

	// APIVersion selects the Storefront API version.
	APIVersion string `json:"api-version" mapstructure:"api-version"`

	// EventTypes are the metaobject types queried for calendar events.
	EventTypes []string `json:"event-types" mapstructure:"event-types"`

	// CalendarURL is the fallback link for events without their own URL.
	CalendarURL string `json:"calendar-url" mapstructure:"calendar-url"`

	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries is the transport-level retry budget per request.
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`
}

// Enabled reports whether the Storefront API source is configured.
func (o *ShopifyOptions) Enabled() bool {
	return o.Domain != "" && o.StorefrontToken != ""
}

// FeedOptions contains event feed configuration.
type FeedOptions struct {
	// URL is the RSS/Atom feed address.
	URL string `json:"url" mapstructure:"url"`

	// Organizer is attributed to every event of the feed.
	Organizer string `json:"organizer" mapstructure:"organizer"`

	// Timeout is the fetch timeout.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// CacheOptions contains answer cache configuration.
type CacheOptions struct {
	// Enabled toggles the answer cache.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// TTL is the cache entry lifetime.
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	// KeyPrefix namespaces the cache keys.
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`

	// Redis contains Redis connection configuration.
	Redis *RedisOptions `json:"redis" mapstructure:"redis"`
}

// RedisOptions contains Redis connection configuration.
type RedisOptions struct {
	// Host is the Redis host address.
	Host string `json:"host" mapstructure:"host"`

	// Port is the Redis port.
	Port int `json:"port" mapstructure:"port"`

	// Password is the Redis password.
	Password string `json:"password" mapstructure:"password"`

	// Database is the Redis database number.
	Database int `json:"database" mapstructure:"database"`

	// MaxRetries is the maximum number of command retries.
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// PoolSize is the connection pool size.
	PoolSize int `json:"pool-size" mapstructure:"pool-size"`

	// MinIdleConns is the minimum number of idle connections.
	MinIdleConns int `json:"min-idle-conns" mapstructure:"min-idle-conns"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Server: &ServerOptions{
			Addr:            ":8083",
			Mode:            "release",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: logopts.NewOptions(),
		Chat: &ChatProviderOptions{
			Provider:    "openrouter",
			BaseURL:     "https://openrouter.ai/api/v1",
			Temperature: 0.2,
			Timeout:     60 * time.Second,
			MaxRetries:  2,
		},
		FAQ: &PipelineOptions{
			TopK:                6,
			Workers:             4,
			ConfidenceThreshold: 0.72,
			MatchThreshold:      0.78,
			DefaultLang:         "fr-CA",
			MaxBodyChars:        3800,
			MaxSources:          3,
			Models:              []string{"meta-llama/llama-3.1-8b-instruct:free"},
			DefaultModel:        "meta-llama/llama-3.1-8b-instruct:free",
			Organizers:          []string{"wkc", "wako", "naska", "uventex", "fitofan"},
		},
		Data: &DataOptions{
			IndexPath:  "data/index.json",
			EventsPath: "data/events.json",
			Watch:      true,
			Shopify: &ShopifyOptions{
				APIVersion: "2024-07",
				EventTypes: []string{"event"},
				Timeout:    15 * time.Second,
				MaxRetries: 2,
			},
			Feed: &FeedOptions{
				Timeout: 15 * time.Second,
			},
		},
		Cache: &CacheOptions{
			Enabled:   false,
			TTL:       1 * time.Hour,
			KeyPrefix: "faq:answer:",
			Redis: &RedisOptions{
				Host:         "localhost",
				Port:         6379,
				MaxRetries:   3,
				PoolSize:     10,
				MinIdleConns: 5,
			},
		},
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Server.Addr, "server.addr", o.Server.Addr, "HTTP listen address")
	fs.StringVar(&o.Server.Mode, "server.mode", o.Server.Mode, "Server mode (debug, release, test)")
	fs.DurationVar(&o.Server.ShutdownTimeout, "server.shutdown-timeout", o.Server.ShutdownTimeout, "Graceful shutdown timeout")

	o.Log.AddFlags(fs)
	o.addChatFlags(fs)
	o.addFAQFlags(fs)
	o.addDataFlags(fs)
	o.addCacheFlags(fs)
}

func (o *Options) addChatFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Chat.Provider, "chat.provider", o.Chat.Provider, "Chat provider (openrouter, ollama)")
	fs.StringVar(&o.Chat.BaseURL, "chat.base-url", o.Chat.BaseURL, "Chat API base URL")
	fs.StringVar(&o.Chat.APIKey, "chat.api-key", o.Chat.APIKey, "Chat API key")
	fs.StringVar(&o.Chat.SiteURL, "chat.site-url", o.Chat.SiteURL, "Attribution site URL")
	fs.StringVar(&o.Chat.AppName, "chat.app-name", o.Chat.AppName, "Attribution app name")
	fs.Float64Var(&o.Chat.Temperature, "chat.temperature", o.Chat.Temperature, "Completion temperature")
	fs.DurationVar(&o.Chat.Timeout, "chat.timeout", o.Chat.Timeout, "Chat request timeout")
	fs.IntVar(&o.Chat.MaxRetries, "chat.max-retries", o.Chat.MaxRetries, "Chat max retries")
}

func (o *Options) addFAQFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.FAQ.TopK, "faq.top-k", o.FAQ.TopK, "Number of chunks retrieved per question")
	fs.IntVar(&o.FAQ.Workers, "faq.workers", o.FAQ.Workers, "Scoring worker pool size")
	fs.Float64Var(&o.FAQ.ConfidenceThreshold, "faq.confidence-threshold", o.FAQ.ConfidenceThreshold, "Minimum top score for a high-confidence answer")
	fs.Float64Var(&o.FAQ.MatchThreshold, "faq.match-threshold", o.FAQ.MatchThreshold, "Minimum similarity for a direct FAQ hit")
	fs.StringVar(&o.FAQ.DefaultLang, "faq.default-lang", o.FAQ.DefaultLang, "Default answer language")
	fs.IntVar(&o.FAQ.MaxBodyChars, "faq.max-body-chars", o.FAQ.MaxBodyChars, "Per-chunk prompt body cap")
	fs.IntVar(&o.FAQ.MaxSources, "faq.max-sources", o.FAQ.MaxSources, "Citation list cap")
	fs.StringSliceVar(&o.FAQ.Models, "faq.models", o.FAQ.Models, "Ordered completion model fallback list")
	fs.StringVar(&o.FAQ.DefaultModel, "faq.default-model", o.FAQ.DefaultModel, "Last-resort completion model")
	fs.StringSliceVar(&o.FAQ.Organizers, "faq.organizers", o.FAQ.Organizers, "Recognized event organizers")
}

func (o *Options) addDataFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Data.IndexPath, "data.index-path", o.Data.IndexPath, "Document index snapshot file")
	fs.StringVar(&o.Data.EventsPath, "data.events-path", o.Data.EventsPath, "Event calendar snapshot file")
	fs.BoolVar(&o.Data.Watch, "data.watch", o.Data.Watch, "Reload the index on snapshot file changes")
	fs.StringVar(&o.Data.Shopify.Domain, "data.shopify.domain", o.Data.Shopify.Domain, "Shopify storefront domain")
	fs.StringVar(&o.Data.Shopify.StorefrontToken, "data.shopify.storefront-token", o.Data.Shopify.StorefrontToken, "Shopify Storefront API token")
	fs.StringVar(&o.Data.Shopify.APIVersion, "data.shopify.api-version", o.Data.Shopify.APIVersion, "Shopify Storefront API version")
	fs.StringSliceVar(&o.Data.Shopify.EventTypes, "data.shopify.event-types", o.Data.Shopify.EventTypes, "Shopify event metaobject types")
	fs.StringVar(&o.Data.Shopify.CalendarURL, "data.shopify.calendar-url", o.Data.Shopify.CalendarURL, "Fallback calendar URL for events")
	fs.DurationVar(&o.Data.Shopify.Timeout, "data.shopify.timeout", o.Data.Shopify.Timeout, "Shopify request timeout")
	fs.IntVar(&o.Data.Shopify.MaxRetries, "data.shopify.max-retries", o.Data.Shopify.MaxRetries, "Shopify max retries")
	fs.StringVar(&o.Data.Feed.URL, "data.feed.url", o.Data.Feed.URL, "Event feed URL (RSS/Atom)")
	fs.StringVar(&o.Data.Feed.Organizer, "data.feed.organizer", o.Data.Feed.Organizer, "Organizer attributed to feed events")
	fs.DurationVar(&o.Data.Feed.Timeout, "data.feed.timeout", o.Data.Feed.Timeout, "Event feed fetch timeout")
}

func (o *Options) addCacheFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Cache.Enabled, "cache.enabled", o.Cache.Enabled, "Enable the answer cache")
	fs.DurationVar(&o.Cache.TTL, "cache.ttl", o.Cache.TTL, "Cache TTL duration")
	fs.StringVar(&o.Cache.KeyPrefix, "cache.key-prefix", o.Cache.KeyPrefix, "Cache key prefix")
	fs.StringVar(&o.Cache.Redis.Host, "cache.redis.host", o.Cache.Redis.Host, "Redis host")
	fs.IntVar(&o.Cache.Redis.Port, "cache.redis.port", o.Cache.Redis.Port, "Redis port")
	fs.StringVar(&o.Cache.Redis.Password, "cache.redis.password", o.Cache.Redis.Password, "Redis password")
	fs.IntVar(&o.Cache.Redis.Database, "cache.redis.database", o.Cache.Redis.Database, "Redis database number")
	fs.IntVar(&o.Cache.Redis.MaxRetries, "cache.redis.max-retries", o.Cache.Redis.MaxRetries, "Redis max retries")
	fs.IntVar(&o.Cache.Redis.PoolSize, "cache.redis.pool-size", o.Cache.Redis.PoolSize, "Redis connection pool size")
	fs.IntVar(&o.Cache.Redis.MinIdleConns, "cache.redis.min-idle-conns", o.Cache.Redis.MinIdleConns, "Redis minimum idle connections")
}

// Complete completes the options with derived defaults.
func (o *Options) Complete() error {
	if len(o.FAQ.Models) == 0 && o.FAQ.DefaultModel != "" {
		o.FAQ.Models = []string{o.FAQ.DefaultModel}
	}
	return nil
}

// Validate validates the options.
func (o *Options) Validate() error {
	if err := o.Log.Validate(); err != nil {
		return err
	}
	if o.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if o.Chat.Provider == "" {
		return fmt.Errorf("chat.provider is required")
	}
	if o.Chat.BaseURL == "" {
		return fmt.Errorf("chat.base-url is required")
	}
	if o.FAQ.TopK <= 0 {
		return fmt.Errorf("faq.top-k must be positive")
	}
	if o.FAQ.Workers <= 0 {
		return fmt.Errorf("faq.workers must be positive")
	}
	if o.FAQ.ConfidenceThreshold <= 0 {
		return fmt.Errorf("faq.confidence-threshold must be positive")
	}
	if o.FAQ.MatchThreshold <= 0 || o.FAQ.MatchThreshold > 1 {
		return fmt.Errorf("faq.match-threshold must be in (0, 1]")
	}
	if len(o.FAQ.Models) == 0 && o.FAQ.DefaultModel == "" {
		return fmt.Errorf("faq.models or faq.default-model is required")
	}
	if o.Data.IndexPath == "" {
		return fmt.Errorf("data.index-path is required")
	}
	if o.Data.Shopify.Enabled() {
		if o.Data.Shopify.APIVersion == "" {
			return fmt.Errorf("data.shopify.api-version is required")
		}
	}
	return nil
}
