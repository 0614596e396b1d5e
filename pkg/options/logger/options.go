// Package logger provides logger configuration options for the FAQ service.
package logger

import (
	"github.com/kart-io/logger"
	"github.com/kart-io/logger/core"
	"github.com/kart-io/logger/option"
	"github.com/spf13/pflag"
)

// Options wraps the logger option.LogOption.
type Options struct {
	*option.LogOption
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		LogOption: option.DefaultLogOption(),
	}
}

// AddFlags adds flags for logger options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Engine, "log.engine", o.Engine, "Logging engine (zap|slog)")
	fs.StringVar(&o.Level, "log.level", o.Level, "Log level (DEBUG|INFO|WARN|ERROR|FATAL)")
	fs.StringVar(&o.Format, "log.format", o.Format, "Log format (json|console)")
	fs.StringSliceVar(&o.OutputPaths, "log.output-paths", o.OutputPaths, "Output paths for logs")
	fs.BoolVar(&o.Development, "log.development", o.Development, "Enable development mode")
	fs.BoolVar(&o.DisableCaller, "log.disable-caller", o.DisableCaller, "Disable caller detection")
	fs.BoolVar(&o.DisableStacktrace, "log.disable-stacktrace", o.DisableStacktrace, "Disable stacktrace capture")
}

// Validate validates the logger options.
func (o *Options) Validate() error {
	return o.LogOption.Validate()
}

// Complete completes the logger options with defaults.
func (o *Options) Complete() error {
	return nil
}

// CreateLogger creates a new logger instance based on the options.
func (o *Options) CreateLogger() (core.Logger, error) {
	return logger.New(o.LogOption)
}

// Init initializes the global logger with the options.
func (o *Options) Init() error {
	log, err := o.CreateLogger()
	if err != nil {
		return err
	}
	logger.SetGlobal(log)
	return nil
}
