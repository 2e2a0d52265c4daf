// Package main implements the flowpipe node daemon. A node hosts the
// in-process pipeline engine, exposes its mailbox over NATS so remote
// stages can deliver into local sinks, and serves Prometheus metrics.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/c360/flowpipe/config"
	"github.com/c360/flowpipe/engine"
	"github.com/c360/flowpipe/exec"
	"github.com/c360/flowpipe/fitting"
	"github.com/c360/flowpipe/metric"
	"github.com/c360/flowpipe/natsclient"
	"github.com/c360/flowpipe/pipestore"
	"github.com/c360/flowpipe/registry"
	"github.com/c360/flowpipe/sink"
	"github.com/c360/flowpipe/transport"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "flowpipe"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, format := cfg.Log.Level, cfg.Log.Format
	if cliCfg.LogLevel != "" {
		level = cliCfg.LogLevel
	}
	if cliCfg.LogFormat != "" {
		format = cliCfg.LogFormat
	}
	logger := setupLogger(level, format)
	slog.SetDefault(logger)

	if cliCfg.Validate {
		slog.Info("Configuration is valid", "config_path", cliCfg.ConfigPath)
		return nil
	}

	slog.Info("Starting flowpipe node",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return runNode(cfg, cliCfg.ShutdownTimeout, logger)
}

func runNode(cfg *config.Config, shutdownTimeout time.Duration, logger *slog.Logger) error {
	ctx := context.Background()
	nodeID := uuid.NewString()

	metricsRegistry := metric.NewMetricsRegistry()

	natsClient, err := buildNATSClient(cfg, nodeID, metricsRegistry)
	if err != nil {
		return fmt.Errorf("create NATS client: %w", err)
	}

	slog.Info("Connecting to NATS", "url", cfg.NATS.URL)
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer func() { _ = natsClient.Close(ctx) }()

	connCtx, cancel := context.WithTimeout(ctx, cfg.NATS.ConnectTimeout)
	defer cancel()
	if err := natsClient.WaitForConnection(connCtx); err != nil {
		return fmt.Errorf("NATS connection timeout: %w", err)
	}

	// Local receiving context plus its NATS-facing listener
	mailbox := sink.NewMailbox(
		sink.WithQueueSize(cfg.Sink.QueueSize),
		sink.WithLogger(logger))
	defer mailbox.Close()

	listener, err := transport.NewListener(
		natsClient, mailbox, transport.SinkSubject(nodeID),
		transport.WithListenerLogger(logger))
	if err != nil {
		return fmt.Errorf("create sink listener: %w", err)
	}
	if err := listener.Start(ctx); err != nil {
		return fmt.Errorf("start sink listener: %w", err)
	}

	// Engine, orchestrator, and the behavior registry
	eng := engine.New(engine.Config{
		WorkersPerStage: cfg.Engine.WorkersPerStage,
		QueueSize:       cfg.Engine.QueueSize,
		DrainTimeout:    cfg.Engine.DrainTimeout,
	}, engine.WithLogger(logger), engine.WithMetrics(metricsRegistry))

	orch, err := exec.New(mailbox, eng,
		exec.WithLogger(logger),
		exec.WithMetrics(metricsRegistry))
	if err != nil {
		return fmt.Errorf("create orchestrator: %w", err)
	}

	behaviors := registry.NewRegistry()
	if err := engine.RegisterBuiltins(behaviors); err != nil {
		return fmt.Errorf("register behaviors: %w", err)
	}
	slog.Info("behaviors registered", "behaviors", behaviors.ListBehaviors())

	store, err := pipestore.NewStore(natsClient)
	if err != nil {
		return fmt.Errorf("create pipeline store: %w", err)
	}
	if err := startStoredPipelines(ctx, store, behaviors, orch); err != nil {
		return fmt.Errorf("start stored pipelines: %w", err)
	}

	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, metricsRegistry)
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		slog.Info("Metrics server started", "address", metricsServer.Address())
	}

	slog.Info("flowpipe node ready", "node_id", nodeID)

	// Wait for shutdown signal
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()
	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := eng.Shutdown(shutdownCtx); err != nil {
		slog.Warn("engine shutdown incomplete", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			slog.Warn("metrics server stop failed", "error", err)
		}
	}

	slog.Info("flowpipe node stopped")
	return nil
}

func buildNATSClient(
	cfg *config.Config, nodeID string, registry *metric.MetricsRegistry,
) (*natsclient.Client, error) {
	opts := []natsclient.ClientOption{
		natsclient.WithName(fmt.Sprintf("%s-%s", cfg.Platform.Name, nodeID[:8])),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithReconnectWait(cfg.NATS.ReconnectWait),
		natsclient.WithTimeout(cfg.NATS.ConnectTimeout),
		natsclient.WithDrainTimeout(cfg.NATS.DrainTimeout),
		natsclient.WithMetrics(registry),
	}
	if cfg.NATS.Token != "" {
		opts = append(opts, natsclient.WithToken(cfg.NATS.Token))
	}
	return natsclient.NewClient(cfg.NATS.URL, opts...)
}

// startStoredPipelines materializes every stored definition whose
// behaviors resolve locally. Definitions referencing behaviors deployed
// elsewhere are skipped, not failed.
func startStoredPipelines(
	ctx context.Context,
	store *pipestore.Store,
	behaviors *registry.Registry,
	orch *exec.Orchestrator,
) error {
	defs, err := store.List(ctx)
	if err != nil {
		return err
	}

	for _, def := range defs {
		specs, err := def.Specs(behaviors)
		if err != nil {
			slog.Warn("skipping stored pipeline",
				"pipeline", def.Name, "error", err)
			continue
		}
		head, snk, err := orch.Exec(ctx, specs, def.Options())
		if err != nil {
			return fmt.Errorf("exec pipeline %q: %w", def.Name, err)
		}
		slog.Info("stored pipeline started",
			"pipeline", def.Name,
			"head", head.String(),
			"token", snk.Token)
		go drainPipeline(ctx, def.Name, snk)
	}
	return nil
}

// drainPipeline consumes a stored pipeline's sink until end-of-input so
// completed runs do not accumulate dead queues in the node's mailbox.
// Output from unattended pipelines surfaces through the node log.
func drainPipeline(ctx context.Context, name string, snk fitting.Fitting) {
	for {
		out, err := sink.Collect(ctx, snk)
		if err != nil {
			slog.Warn("pipeline drain failed", "pipeline", name, "error", err)
			return
		}
		for _, l := range out.Logs {
			slog.Info("pipeline log", "pipeline", name, "stage", l.From, "text", l.Text)
		}
		for _, r := range out.Results {
			slog.Info("pipeline result", "pipeline", name, "stage", r.From, "value", r.Value)
		}
		if out.Terminator == sink.TermEOI {
			slog.Info("pipeline completed", "pipeline", name)
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}
