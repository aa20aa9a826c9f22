package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/openherd/cow/adminweb"
	"github.com/openherd/cow/config"
	"github.com/openherd/cow/httpapi"
	"github.com/openherd/cow/httpapi/middleware"
	"github.com/openherd/cow/node"
	"github.com/openherd/cow/observability/logging"
	telemetry "github.com/openherd/cow/observability/otel"
	"github.com/openherd/cow/peer"
	"github.com/openherd/cow/store"
	"github.com/openherd/cow/syncengine"
)

const configPath = "./openherd.toml"

func main() {
	if len(os.Args) < 2 {
		serve()
		return
	}

	switch os.Args[1] {
	case "enroll-admin":
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(1)
		}
		enrollAdmin(os.Args[2])
	case "denroll-admin":
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(1)
		}
		denrollAdmin(os.Args[2])
	case "serve":
		serve()
	default:
		printUsage()
		serve()
	}
}

func printUsage() {
	os.Stderr.WriteString("usage: openherd [enroll-admin <password> | denroll-admin <password> | serve]\n")
}

func enrollAdmin(password string) {
	logger := logging.Setup("openherd", "")
	st, closeStore := openStateOrExit(logger)
	defer closeStore()
	if err := st.EnrollAdmin(password); err != nil {
		logger.Error("failed to enroll admin password", logging.MaskField("password", password), "error", err)
		os.Exit(1)
	}
	logger.Info("enrolled admin password", logging.MaskField("password", password))
}

func denrollAdmin(password string) {
	logger := logging.Setup("openherd", "")
	st, closeStore := openStateOrExit(logger)
	defer closeStore()
	if err := st.DenrollAdmin(password); err != nil {
		logger.Error("failed to denroll admin password", logging.MaskField("password", password), "error", err)
		os.Exit(1)
	}
	logger.Info("denrolled admin password", logging.MaskField("password", password))
}

func openStateOrExit(logger *slog.Logger) (*node.State, func()) {
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	durable, err := store.Open(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open durable store", "error", err)
		os.Exit(1)
	}
	st, err := node.New(durable, node.Config{
		LabelsPath:           cfg.LabelsPath,
		PeerFailureThreshold: cfg.PeerFailureThreshold,
	}, logger)
	if err != nil {
		logger.Error("failed to construct node state", "error", err)
		durable.Close()
		os.Exit(1)
	}
	return st, func() { durable.Close() }
}

func serve() {
	env := strings.TrimSpace(os.Getenv("OPENHERD_ENV"))
	logger := logging.Setup("openherd", env)

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	otlpEndpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	otlpHeaders := telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	insecure := true
	if v := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			insecure = parsed
		}
	}
	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "openherd",
		Environment: env,
		Endpoint:    otlpEndpoint,
		Insecure:    insecure,
		Headers:     otlpHeaders,
		Metrics:     otlpEndpoint != "",
		Traces:      otlpEndpoint != "",
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if shutdownTelemetry != nil {
			_ = shutdownTelemetry(context.Background())
		}
	}()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}
	if dir := filepath.Dir(cfg.LabelsPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create labels directory", "error", err)
			os.Exit(1)
		}
	}

	durable, err := store.Open(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open durable store", "error", err)
		os.Exit(1)
	}
	defer durable.Close()

	state, err := node.New(durable, node.Config{
		LabelsPath:           cfg.LabelsPath,
		PeerFailureThreshold: cfg.PeerFailureThreshold,
	}, logger)
	if err != nil {
		logger.Error("failed to construct node state", "error", err)
		os.Exit(1)
	}

	if err := store.Rehydrate(durable, state.Index(), logger); err != nil {
		logger.Error("failed to rehydrate index from durable store", "error", err)
		os.Exit(1)
	}
	logger.Info("rehydrated index", "posts", state.Index().Len())

	sync := syncengine.NewWithTimeout(state.SyncCallbacks(), logger, cfg.SyncClientTimeout)

	monitor := peer.NewMonitor(cfg.PeerMonitorInterval, state.MonitorCallbacks(), logger)
	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	go monitor.Run(monitorCtx)

	obs := middleware.NewObservability(middleware.ObservabilityConfig{
		ServiceName:   "openherd",
		MetricsPrefix: "openherd",
		LogRequests:   true,
		Enabled:       true,
	}, nil)

	handler := httpapi.New(httpapi.Config{
		State:         state,
		SyncEngine:    sync,
		Logger:        logger,
		Observability: obs,
		AdminAssets:   adminweb.FS(),
		CORS: middleware.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "X-Admin-Password"},
		},
	})

	server := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		logger.Error("failed to listen", "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("listening", "address", listener.Addr().String())
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
