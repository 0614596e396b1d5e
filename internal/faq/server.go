package faq

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kinko-io/faq-service/internal/faq/biz"
	"github.com/kinko-io/faq-service/internal/faq/handler"
	"github.com/kinko-io/faq-service/internal/faq/router"
	"github.com/kinko-io/faq-service/internal/faq/store"
	"github.com/kinko-io/faq-service/pkg/llm"

	// Register chat providers.
	_ "github.com/kinko-io/faq-service/pkg/llm/ollama"
	_ "github.com/kinko-io/faq-service/pkg/llm/openrouter"
)

// Server is the assembled FAQ service.
type Server struct {
	opts       *Options
	engine     *gin.Engine
	index      *store.Index
	service    *biz.FAQService
	watchPaths []string
	redisClose func()
}

// NewServer wires the knowledge sources, pipeline, and HTTP layer together.
func NewServer(opts *Options) (*Server, error) {
	gin.SetMode(opts.Server.Mode)

	// Knowledge sources. The document index always comes from the snapshot
	// file; events and FAQ items prefer the live Storefront API when it is
	// configured.
	indexSource := store.NewSnapshotIndexSource(opts.Data.IndexPath)
	index := store.NewIndex(indexSource)

	watchPaths := []string{opts.Data.IndexPath}

	var (
		events store.EventSource
		faqs   store.FAQSource
	)
	switch {
	case opts.Data.Shopify.Enabled():
		shopify, err := store.NewShopifyClient(&store.ShopifyConfig{
			Domain:          opts.Data.Shopify.Domain,
			StorefrontToken: opts.Data.Shopify.StorefrontToken,
			APIVersion:      opts.Data.Shopify.APIVersion,
			EventTypes:      opts.Data.Shopify.EventTypes,
			CalendarURL:     opts.Data.Shopify.CalendarURL,
			Timeout:         opts.Data.Shopify.Timeout,
			MaxRetries:      opts.Data.Shopify.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize shopify client: %w", err)
		}
		events = shopify
		faqs = shopify
		logger.Infow("Event and FAQ sources initialized", "source", "shopify", "domain", opts.Data.Shopify.Domain)
	case opts.Data.Feed.URL != "":
		events = store.NewFeedEventSource(opts.Data.Feed.URL, opts.Data.Feed.Organizer, opts.Data.Feed.Timeout)
		logger.Infow("Event source initialized", "source", "feed", "url", opts.Data.Feed.URL)
	case opts.Data.EventsPath != "":
		events = store.NewSnapshotEventSource(opts.Data.EventsPath)
		watchPaths = append(watchPaths, opts.Data.EventsPath)
		logger.Infow("Event source initialized", "source", "snapshot", "path", opts.Data.EventsPath)
	}

	// Completion backend.
	provider, err := llm.NewProvider(opts.Chat.Provider, opts.Chat.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	logger.Infow("Chat provider initialized", "provider", provider.Name())

	generatorConfig := &biz.GeneratorConfig{
		Models:       opts.FAQ.Models,
		DefaultModel: opts.FAQ.DefaultModel,
	}
	if err := generatorConfig.Validate(); err != nil {
		return nil, err
	}
	generator := biz.NewGenerator(provider, generatorConfig)

	// Answer cache.
	var (
		redisClient *goredis.Client
		redisClose  func()
	)
	if opts.Cache.Enabled {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         fmt.Sprintf("%s:%d", opts.Cache.Redis.Host, opts.Cache.Redis.Port),
			Password:     opts.Cache.Redis.Password,
			DB:           opts.Cache.Redis.Database,
			MaxRetries:   opts.Cache.Redis.MaxRetries,
			PoolSize:     opts.Cache.Redis.PoolSize,
			MinIdleConns: opts.Cache.Redis.MinIdleConns,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			// An unreachable Redis disables the cache instead of failing
			// startup; answers are just not cached.
			logger.Warnw("Redis unreachable, answer cache disabled", "addr", redisClient.Options().Addr, "error", err)
			_ = redisClient.Close()
			redisClient = nil
		} else {
			redisClose = func() { _ = redisClient.Close() }
			logger.Infow("Answer cache initialized", "addr", redisClient.Options().Addr, "ttl", opts.Cache.TTL)
		}
	}
	cacheConfig := &biz.AnswerCacheConfig{
		Enabled:   opts.Cache.Enabled && redisClient != nil,
		TTL:       opts.Cache.TTL,
		KeyPrefix: opts.Cache.KeyPrefix,
	}
	cache := biz.NewAnswerCache(redisClient, cacheConfig)

	// Pipeline.
	serviceConfig := &biz.ServiceConfig{
		Ranker: &biz.RankerConfig{
			TopK:    opts.FAQ.TopK,
			Workers: opts.FAQ.Workers,
		},
		Resolver: &biz.ResolverConfig{
			Organizers: opts.FAQ.Organizers,
		},
		FAQ: &biz.FAQMatcherConfig{
			Threshold: opts.FAQ.MatchThreshold,
		},
		Prompt: &biz.PromptConfig{
			DefaultLang:  opts.FAQ.DefaultLang,
			MaxBodyChars: opts.FAQ.MaxBodyChars,
			MaxSources:   opts.FAQ.MaxSources,
		},
		Generator:           generatorConfig,
		Cache:               cacheConfig,
		ConfidenceThreshold: opts.FAQ.ConfidenceThreshold,
	}

	service, err := biz.NewFAQService(index, events, faqs, generator, cache, serviceConfig)
	if err != nil {
		if redisClose != nil {
			redisClose()
		}
		return nil, fmt.Errorf("failed to initialize FAQ service: %w", err)
	}
	logger.Info("FAQ service initialized")

	engine := router.New(handler.NewFAQHandler(service))

	if !opts.Data.Watch {
		watchPaths = nil
	}

	return &Server{
		opts:       opts,
		engine:     engine,
		index:      index,
		service:    service,
		watchPaths: watchPaths,
		redisClose: redisClose,
	}, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run() error {
	defer s.service.Close()
	if s.redisClose != nil {
		defer s.redisClose()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(s.watchPaths) > 0 {
		go func() {
			if err := store.WatchSnapshots(ctx, s.index, s.watchPaths...); err != nil {
				logger.Warnw("Snapshot watcher stopped", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:    s.opts.Server.Addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
