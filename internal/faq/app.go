package faq

import (
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kinko-io/faq-service/pkg/infra/app"
)

const (
	appName        = "kinko-faq"
	appDescription = `Kinko FAQ Service

The question-answering backend for the storefront help widget.

This server provides:
  - Lexical retrieval over the published knowledge snapshot
  - Direct answers from the curated storefront FAQ
  - Live "next competition" answers from the event calendar
  - Grounded answer generation with an ordered model fallback chain`
)

// NewApp creates a new application instance.
func NewApp() *app.App {
	opts := NewOptions()

	return app.NewApp(
		app.WithName(appName),
		app.WithDescription(appDescription),
		app.WithOptions(opts),
		app.WithRunFunc(func() error {
			return Run(opts)
		}),
	)
}

// Run runs the FAQ service with the given options.
func Run(opts *Options) error {
	opts.Log.AddInitialField("service.name", appName)
	opts.Log.AddInitialField("service.version", app.GetVersion())
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Infow("Starting FAQ service", "version", app.GetVersion())

	server, err := NewServer(opts)
	if err != nil {
		return err
	}
	return server.Run()
}
