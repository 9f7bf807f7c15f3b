package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	config "github.com/hanpama/restgraph/internal/config"
	eventbus "github.com/hanpama/restgraph/internal/eventbus"
	gateway "github.com/hanpama/restgraph/internal/gateway"
	introspection "github.com/hanpama/restgraph/internal/introspection"
	logging "github.com/hanpama/restgraph/internal/logging"
	metrics "github.com/hanpama/restgraph/internal/metrics"
	otel "github.com/hanpama/restgraph/internal/otel"
	schema "github.com/hanpama/restgraph/internal/schema"
	server "github.com/hanpama/restgraph/internal/server"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// newConf returns settings read from the command's flags and RESTGRAPH_*
// environment variables, e.g. RESTGRAPH_LOG_LEVEL for --log-level.
func newConf(cmd *cobra.Command) *viper.Viper {
	conf := viper.New()
	conf.SetEnvPrefix("RESTGRAPH")
	conf.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	conf.AutomaticEnv()
	_ = conf.BindPFlags(cmd.Flags())
	_ = conf.BindPFlags(cmd.InheritedFlags())
	return conf
}

func newLogger(cmd *cobra.Command, conf *viper.Viper) zerolog.Logger {
	return logging.New(logging.Config{
		Level:  conf.GetString("log-level"),
		Format: conf.GetString("log-format"),
		Output: cmd.ErrOrStderr(),
	})
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "restgraph",
		Short:        "GraphQL gateway composing HTTP/JSON APIs",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("log-level", "info", "log level: trace, debug, info, warn, error")
	root.PersistentFlags().String("log-format", "json", "log format: json or console")

	root.AddCommand(newServeCommand())
	root.AddCommand(newCheckCommand())
	root.AddCommand(newPrintCommand())
	root.AddCommand(newIntrospectCommand())
	return root
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <config>",
		Short: "Run the GraphQL gateway",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().String("addr", ":8080", "HTTP listen address")
	cmd.Flags().String("otlp-endpoint", "", "OTLP/gRPC collector endpoint; tracing is off when empty")
	cmd.Flags().String("otel-service", "restgraph", "OpenTelemetry service name")
	cmd.Flags().Bool("watch", false, "reload the configuration when the file changes")
	cmd.Flags().Bool("pretty", false, "pretty-print JSON responses")
	cmd.Flags().Duration("timeout", 10*time.Second, "per-request timeout")
	cmd.Flags().Bool("graphiql", true, "serve GraphiQL to browsers on GET /graphql")
	cmd.Flags().StringSlice("cors-origin", nil, "allowed CORS origin; repeatable, * allows any")
	cmd.Flags().Int("concurrency", 16, "maximum upstream requests in flight per batch")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		conf := newConf(cmd)
		logger := newLogger(cmd, conf)
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, logger, conf, args[0])
	}
	return cmd
}

func serve(ctx context.Context, logger zerolog.Logger, conf *viper.Viper, path string) error {
	eventbus.Use(eventbus.New())
	defer logging.Subscribe(logger)()
	m := metrics.New()
	defer m.Subscribe()()

	shutdown, err := otel.Setup(conf.GetString("otlp-endpoint"), conf.GetString("otel-service"))
	if err != nil {
		return errors.Wrap(err, "otel setup")
	}
	defer func() { _ = shutdown(context.Background()) }()

	sopts := []server.Option{
		server.WithTimeout(conf.GetDuration("timeout")),
		server.WithGraphiQL(conf.GetBool("graphiql")),
	}
	if conf.GetBool("pretty") {
		sopts = append(sopts, server.WithPretty())
	}
	if origins := conf.GetStringSlice("cors-origin"); len(origins) > 0 {
		sopts = append(sopts, server.WithCORS(origins...))
	}
	gopts := []gateway.Option{
		gateway.WithServerOptions(sopts...),
		gateway.WithConcurrency(conf.GetInt("concurrency")),
	}

	g, err := gateway.Load(path, gopts...)
	if err != nil {
		return err
	}
	mux := gateway.NewMux(g)
	mux.Handle("/metrics", m.Handler())

	if conf.GetBool("watch") {
		go func() {
			if err := mux.Watch(ctx, path, gopts...); err != nil {
				logger.Error().Err(err).Str("path", path).Msg("watch stopped")
			}
		}()
	}

	addr := conf.GetString("addr")
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info().Str("addr", addr).Str("config", path).Int("diagnostics", len(g.Diagnostics)).Msg("GraphQL server listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), conf.GetDuration("timeout"))
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	return mux.Current().Close()
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <config>",
		Short: "Validate a configuration and report diagnostics",
		Long: `Validate a configuration and report diagnostics.

Diagnostics are logged as warnings; the fields they describe are still served
and fail with the same message. Fatal composition and compile errors make the
command exit non-zero.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := newConf(cmd)
			cfg, err := config.LoadFile(args[0])
			if err != nil {
				return err
			}
			c, err := gateway.Compose(cfg)
			if err != nil {
				return err
			}
			logging.Diagnostics(newLogger(cmd, conf), c.Diagnostics)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d types, %d diagnostics\n", args[0], len(c.Document.Definitions), len(c.Diagnostics))
			return nil
		},
	}
}

func newPrintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "print <config>",
		Short: "Print the served schema as SDL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(args[0])
			if err != nil {
				return err
			}
			c, err := gateway.Compose(cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), schema.Render(c.Schema))
			return err
		},
	}
}

func newIntrospectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "introspect <config>",
		Short: "Print the introspection projection as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(args[0])
			if err != nil {
				return err
			}
			c, err := gateway.Compose(cfg)
			if err != nil {
				return err
			}
			out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(introspection.Project(c.Document), "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}
