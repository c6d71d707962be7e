package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hanpama/membergraph/internal/config"
	"github.com/hanpama/membergraph/internal/entity"
	"github.com/hanpama/membergraph/internal/eventbus"
	"github.com/hanpama/membergraph/internal/gateway"
	"github.com/hanpama/membergraph/internal/metrics"
	"github.com/hanpama/membergraph/internal/otel"
	"github.com/hanpama/membergraph/internal/schema"
	"github.com/hanpama/membergraph/internal/server"
	"github.com/hanpama/membergraph/internal/store/sqlstore"
)

const rootUsage = `membergraph: GraphQL API over users, profiles, posts and subscriptions

USAGE:
  membergraph <command> [flags]

COMMANDS:
  serve            Run the HTTP GraphQL server
  migrate          Create tables and seed member types
  print-schema     Print the GraphQL SDL
  help             Show help for any command
`

const storeFlags = `  -config <file>                      YAML configuration file
  -store.driver <name>                sqlite, postgres or mysql (default: sqlite)
  -store.dsn <dsn>                    Database DSN (default: shared in-memory sqlite)
  -store.slow-query <duration>        Warn on statements slower than this (default: 200ms)
  -log.level <level>                  debug, info, warn or error (default: info)
  -log.format <format>                text or json (default: text)
`

const serveUsage = `serve FLAGS:
` + storeFlags + `  -store.migrate <bool>               Migrate on startup (default: true)
  -server.addr <addr>                 HTTP listen address (default: :8080)
  -server.pretty                      Pretty-print JSON responses
  -server.timeout <duration>          Per-request timeout, e.g. 10s (default: 10s)
  -server.max-body-bytes <n>          Request body limit (default: 1048576)
  -server.cors <origin>               Allowed CORS origin. Repeatable
  -graphql.max-depth <n>              Maximum operation depth (default: 5)
  -graphql.max-batch <n>              Maximum keys per loader call (default: unlimited)
  -metrics.enabled <bool>             Serve /metrics (default: true)
  -otel.endpoint <addr>               OTLP collector endpoint
  -otel.service <name>                OpenTelemetry service name (default: membergraph)
Flags override the configuration file, which overrides the defaults.
`

const migrateUsage = `migrate FLAGS:
` + storeFlags

const printSchemaUsage = `print-schema FLAGS:
  -out <file>      Write SDL to file (default: stdout)
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("membergraph", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	if err := global.Parse(args); err != nil {
		fmt.Fprint(stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs, stderr)
	case "migrate":
		return cmdMigrate(cmdArgs, stdout, stderr)
	case "print-schema":
		return cmdPrintSchema(cmdArgs, stdout, stderr)
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Fprint(stdout, serveUsage)
	case "migrate":
		fmt.Fprint(stdout, migrateUsage)
	case "print-schema":
		fmt.Fprint(stdout, printSchemaUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

// loadConfig applies defaults, then the -config file, then the flags.
func loadConfig(name string, args []string) (config.Config, error) {
	var path string
	probeCfg := config.Default()
	probe := flag.NewFlagSet(name, flag.ContinueOnError)
	probe.SetOutput(io.Discard)
	probeCfg.Bind(probe)
	probe.StringVar(&path, "config", "", "YAML configuration file")
	if err := probe.Parse(args); err != nil {
		return config.Config{}, err
	}
	if probe.NArg() > 0 {
		return config.Config{}, fmt.Errorf("unexpected arguments %v", probe.Args())
	}

	cfg := config.Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return config.Config{}, err
		}
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg.Bind(fs)
	fs.String("config", "", "YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}
	return cfg, cfg.Validate()
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sqlstore.Store, error) {
	st, err := sqlstore.Open(ctx, cfg.Store.Driver, cfg.Store.DSN,
		sqlstore.WithLogger(logger),
		sqlstore.WithSlowThreshold(cfg.Store.SlowQuery))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

func cmdMigrate(args []string, stdout, stderr io.Writer) error {
	cfg, err := loadConfig("migrate", args)
	if err != nil {
		fmt.Fprint(stderr, migrateUsage)
		return err
	}
	logger := cfg.Logger(stderr)
	ctx := context.Background()
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintf(stdout, "migrated %s database\n", st.Driver())
	return nil
}

func cmdPrintSchema(args []string, stdout, stderr io.Writer) error {
	outFile := ""
	fs := flag.NewFlagSet("print-schema", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&outFile, "out", outFile, "Write SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, printSchemaUsage)
		return err
	}
	graph, err := entity.New()
	if err != nil {
		return err
	}
	sdl := schema.Render(graph.Schema)
	if outFile == "" {
		fmt.Fprint(stdout, sdl)
		return nil
	}
	return os.WriteFile(outFile, []byte(sdl), 0o644)
}

func cmdServe(args []string, stderr io.Writer) error {
	cfg, err := loadConfig("serve", args)
	if err != nil {
		fmt.Fprint(stderr, serveUsage)
		return err
	}
	logger := cfg.Logger(stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := eventbus.New()
	eventbus.Use(bus)
	shutdown, err := otel.Setup(bus, cfg.Otel.Endpoint, cfg.Otel.Service)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		m := metrics.New()
		defer m.Register(bus)()
		metricsHandler = m.Handler()
	}

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	if cfg.Store.Migrate {
		if err := st.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	graph, err := entity.New()
	if err != nil {
		return err
	}
	gw := gateway.New(graph, st,
		gateway.WithMaxDepth(cfg.GraphQL.MaxDepth),
		gateway.WithMaxBatch(cfg.GraphQL.MaxBatch),
		gateway.WithLogger(logger))

	sopts := []server.Option{server.WithLogger(logger), server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes)}
	if cfg.Server.Pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if cfg.Server.Timeout > 0 {
		sopts = append(sopts, server.WithTimeout(cfg.Server.Timeout))
	}
	if len(cfg.Server.CORS) > 0 {
		sopts = append(sopts, server.WithCORS(cfg.Server.CORS...))
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: server.NewMux(server.Routes{
			GraphQL: server.New(gw, sopts...),
			SDL:     schema.Render(graph.Schema),
			Metrics: metricsHandler,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("GraphQL server listening",
			slog.String("addr", cfg.Server.Addr),
			slog.String("store", st.Driver()),
			slog.Int("max_depth", gw.MaxDepth()))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
