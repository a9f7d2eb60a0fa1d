// Package main implements the entry point for the deep-causality streaming
// inference service. It reads newline-delimited vital updates from stdin,
// runs them through the guarded risk pipeline, and writes inference results
// to stdout and alerts to stderr, optionally mirroring both to NATS.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/KeSeaman/deep-causality/config"
	dcerrors "github.com/KeSeaman/deep-causality/errors"
	"github.com/KeSeaman/deep-causality/input/jsonl"
	"github.com/KeSeaman/deep-causality/metric"
	"github.com/KeSeaman/deep-causality/output/natspub"
	"github.com/KeSeaman/deep-causality/processor"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "deep-causality"
)

// stopTimeout bounds how long shutdown waits for the consumer to drain.
const stopTimeout = 10 * time.Second

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
		slog.Error("Application failed",
			"error", err,
			"error_class", dcerrors.Classify(err).String())
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to JSON configuration file (defaults applied when empty)")
	natsURL := flag.String("nats-url", "", "NATS server URL for mirroring output (disabled when empty)")
	metricsAddr := flag.String("metrics-addr", ":9090", "Listen address for /metrics and /healthz (disabled when empty)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "json", "Log format: json, text")
	flag.Parse()

	logger := setupLogger(*logLevel, *logFormat)
	slog.SetDefault(logger)

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			return err
		}
	}

	logger.Info("Starting streaming inference service",
		"sepsis_alert_threshold", cfg.SepsisAlertThreshold,
		"alert_cooldown_seconds", cfg.AlertCooldownSeconds,
		"guardrails_enabled", cfg.EnableGuardrails,
		"feature_weights", len(cfg.FeatureWeights))

	registry := metric.NewMetricsRegistry()
	if *metricsAddr != "" {
		startMetricsServer(*metricsAddr, registry, logger)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var publisher *natspub.Publisher
	if *natsURL != "" {
		var err error
		publisher, err = natspub.Connect(*natsURL, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()
	}

	proc := processor.New(cfg, logger, registry)
	if err := proc.Initialize(); err != nil {
		return err
	}
	if err := proc.Start(ctx); err != nil {
		return err
	}

	var writerWG sync.WaitGroup
	writerWG.Add(1)
	go func() {
		defer writerWG.Done()
		writeResults(proc, publisher, logger)
	}()

	reader := jsonl.NewReader(proc, logger, registry)
	readErr := reader.Run(ctx, os.Stdin)
	if errors.Is(readErr, context.Canceled) {
		// Signal-driven shutdown is not a failure
		logger.Info("Input stream interrupted, shutting down")
		readErr = nil
	} else if readErr != nil {
		logger.Error("Input stream terminated", "error", readErr)
	}

	if err := proc.Stop(stopTimeout); err != nil {
		logger.Error("Processor stop failed", "error", err)
	}
	writerWG.Wait()

	return readErr
}

// writeResults drains the processor output until it is closed, multiplexing
// the two record kinds: inference results to stdout, alerts to stderr.
func writeResults(proc *processor.ChannelProcessor, publisher *natspub.Publisher, logger *slog.Logger) {
	stdout := json.NewEncoder(os.Stdout)
	stderr := json.NewEncoder(os.Stderr)

	for result := range proc.Results() {
		if result.Inference != nil {
			if err := stdout.Encode(result.Inference); err != nil {
				logger.Error("Failed to write inference result", "error", err)
			}
			if publisher != nil {
				if err := publisher.PublishInference(result.Inference); err != nil {
					logPublishError(logger, "Failed to publish inference result", err)
				}
			}
		}

		for _, alert := range result.Alerts {
			if err := stderr.Encode(alert); err != nil {
				logger.Error("Failed to write alert", "error", err)
			}
			if publisher != nil {
				if err := publisher.PublishAlert(alert); err != nil {
					logPublishError(logger, "Failed to publish alert", err)
				}
			}
		}
	}
}

// logPublishError downgrades transient broker errors to warnings; the
// stdout/stderr copy of the record already went out.
func logPublishError(logger *slog.Logger, msg string, err error) {
	if dcerrors.IsTransient(err) {
		logger.Warn(msg, "error", err)
		return
	}
	logger.Error(msg, "error", err)
}

// startMetricsServer exposes Prometheus metrics and a liveness endpoint.
func startMetricsServer(addr string, registry *metric.MetricsRegistry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Metrics server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server failed", "error", err)
		}
	}()
}
