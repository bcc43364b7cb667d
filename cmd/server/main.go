package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/franc-net/portal/config"
	"github.com/franc-net/portal/events"
	"github.com/franc-net/portal/infrahub"
	"github.com/franc-net/portal/logging"
	"github.com/franc-net/portal/metrics"
	"github.com/franc-net/portal/options"
	"github.com/franc-net/portal/server"
	"github.com/franc-net/portal/services"
)

type Args struct {
	ConfigPath string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	args := parseArgs()

	if args.ConfigPath == "" {
		return fmt.Errorf("config flag (-c or --config) is required")
	}

	cfg, err := config.LoadConfig(args.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Output:    cfg.Logging.Output,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	// Metrics run in push mode against a remote write endpoint when a push
	// URL is configured, otherwise they are exposed for scraping.
	var registry metrics.Registry
	var metricsHandler http.Handler
	if cfg.Monitoring.PushURL != "" {
		registry = metrics.NewPushRegistry(metrics.PushConfig{
			URL:    cfg.Monitoring.PushURL,
			Prefix: cfg.Monitoring.MetricsPrefix,
			Job:    cfg.Monitoring.JobName,
		})
	} else {
		scrape, err := metrics.NewScrapeRegistry()
		if err != nil {
			return fmt.Errorf("failed to create metrics registry: %w", err)
		}
		registry = scrape
		metricsHandler = scrape.Handler()
	}

	portal, err := metrics.NewPortal(registry, cfg.Monitoring.MetricsPrefix)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	backend, err := infrahub.NewClient(
		infrahub.WithAddress(cfg.Infrahub.Address),
		infrahub.WithHTTPClient(&http.Client{Timeout: cfg.Infrahub.Timeout}),
		infrahub.WithLogger(logger.Component("infrahub")),
	)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	publisher := events.NewPublisher(events.Config{
		Enabled:          cfg.Kafka.Enabled,
		BootstrapServers: cfg.Kafka.BootstrapServers,
		TopicPrefix:      cfg.Kafka.TopicPrefix,
	}, events.WithPublisherLogger(logger.Logger))
	defer publisher.Close()

	catalog, err := options.New(backend,
		options.WithLogger(logger.Logger),
		options.WithMetrics(portal),
		options.WithSchedule(cfg.Options.RefreshSchedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create option catalog: %w", err)
	}

	svc := services.New(backend, publisher,
		services.WithLogger(logger.Logger),
		services.WithMetrics(portal),
		services.WithBranchPrefix(cfg.Infrahub.BranchPrefix),
		services.WithSimulation(cfg.Simulator.Enabled, cfg.Simulator.Instant),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	// The catalog is best effort at startup: the forms fall back to manual
	// entry for any kind that failed to load, and the refresh loop retries
	// on schedule.
	if err := catalog.Start(ctx); err != nil {
		logger.Warn("initial option catalog refresh failed", "error", err)
	}

	srv := server.New(cfg.Server, svc, catalog,
		server.WithLogger(logger.Logger),
		server.WithMetricsHandler(metricsHandler),
	)

	return srv.Run(ctx)
}

func parseArgs() Args {
	configPath := flag.String("config", "", "Path to config file")
	configPathShort := flag.String("c", "", "Path to config file (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nFranc Portal - Network Infrastructure Request API\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --config /etc/portal/config.yaml\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -c config.yaml\n", os.Args[0])
	}

	flag.Parse()

	path := *configPath
	if path == "" && *configPathShort != "" {
		path = *configPathShort
	}

	return Args{
		ConfigPath: path,
	}
}
