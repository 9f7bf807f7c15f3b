// Package logging builds the process logger and turns eventbus events into
// structured log lines.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	eventbus "github.com/hanpama/restgraph/internal/eventbus"
	events "github.com/hanpama/restgraph/internal/events"
	ir "github.com/hanpama/restgraph/internal/ir"
	reqid "github.com/hanpama/restgraph/internal/reqid"
)

// Config selects the level and output format of the logger.
type Config struct {
	// Level is one of trace, debug, info, warn, error. Unknown values mean info.
	Level string
	// Format is "json" or "console".
	Format string
	// Output defaults to stderr.
	Output io.Writer
}

// New creates a logger writing to cfg.Output.
func New(cfg Config) zerolog.Logger {
	var w io.Writer = os.Stderr
	if cfg.Output != nil {
		w = cfg.Output
	}
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level := parseLevel(cfg.Level)
	if level < zerolog.GlobalLevel() {
		zerolog.SetGlobalLevel(level)
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(level)
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Diagnostics logs composition diagnostics as warnings.
func Diagnostics(logger zerolog.Logger, diags []ir.Diagnostic) {
	for _, d := range diags {
		logger.Warn().Strs("trace", d.Trace).Msg(d.Message)
	}
}

func withRequest(ctx context.Context, e *zerolog.Event) *zerolog.Event {
	if id, ok := reqid.FromContext(ctx); ok {
		e = e.Str("request_id", id)
	}
	return e
}

// Subscribe logs server, GraphQL, upstream and gateway events.
func Subscribe(logger zerolog.Logger) (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			withRequest(ctx, logger.Info()).
				Str("method", e.Request.Method).
				Str("path", e.Request.URL.Path).
				Int("status", e.Status).
				Dur("duration", e.Duration).
				Msg("http request")
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
			ev := logger.Debug()
			if len(e.Errors) > 0 {
				ev = logger.Warn().Errs("errors", e.Errors)
			}
			withRequest(ctx, ev).
				Str("operation", e.Name).
				Str("type", e.Type).
				Dur("duration", e.Duration).
				Msg("graphql operation")
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.UpstreamFinish) {
			ev := logger.Debug()
			if e.Err != nil {
				ev = logger.Warn().Err(e.Err)
			}
			withRequest(ctx, ev).
				Str("method", e.Method).
				Str("url", e.URL).
				Int("status", e.Status).
				Dur("duration", e.Duration).
				Msg("upstream request")
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.CacheHit) {
			withRequest(ctx, logger.Trace()).Str("key", e.Key).Msg("upstream cache hit")
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.Coalesced) {
			withRequest(ctx, logger.Trace()).Str("key", e.Key).Msg("upstream request coalesced")
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.Diagnostic) {
			logger.Warn().Strs("trace", e.Trace).Msg(e.Message)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.Reload) {
			if e.Err != nil {
				logger.Error().Err(e.Err).Str("path", e.Path).Msg("reload rejected, keeping previous configuration")
				return
			}
			logger.Info().Str("path", e.Path).Msg("configuration reloaded")
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
