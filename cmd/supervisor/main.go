package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/metafirst/supervisor/internal/app"
	"github.com/metafirst/supervisor/internal/config"
	"github.com/metafirst/supervisor/internal/domain/ingest"
	"github.com/metafirst/supervisor/internal/mcp"
	"github.com/metafirst/supervisor/internal/metrics"
	"github.com/metafirst/supervisor/internal/sqlite"
	"github.com/metafirst/supervisor/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const version = "0.1.0"

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file (default $SUPERVISOR_CONFIG_PATH)")
	transportMode := pflag.String("transport", "", "transport mode: http or stdio")
	logLevel := pflag.String("log-level", "", "log level: debug, info, warn or error")
	dbPath := pflag.String("db", "", "SQLite database path")
	newKeyFor := pflag.String("create-api-key", "", "create an API key for this user ID, print it and exit")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *transportMode != "" {
		cfg.Transport.Mode = *transportMode
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *dbPath != "" {
		cfg.DB.Path = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == config.TransportStdio {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	if *newKeyFor != "" {
		token, err := createAPIKey(context.Background(), sqlite.NewAPIKeyRepository(db), *newKeyFor)
		if err != nil {
			logger.Error("failed to create api key", "user_id", *newKeyFor, "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	recorder := metrics.New()
	services := app.New(db, app.Options{
		Logger:       logger,
		Metrics:      recorder,
		SweepWorkers: cfg.Sweep.Workers,
	})

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      services.MCPServices(),
		Resolver:      services.APIKeys,
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		LocalActor:    cfg.Auth.LocalActor,
		Version:       version,
		Logger:        logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	sweeper := ingest.NewSweeper(services.Ingests, cfg.Sweep.Interval, logger.With("component", "sweeper"))
	g.Go(func() error { return sweeper.Run(ctx) })

	// Branch based on transport mode
	if cfg.Transport.Mode == config.TransportStdio {
		g.Go(func() error {
			defer cancel()
			return runStdioMode(ctx, logger, mcpServer)
		})
	} else {
		g.Go(func() error {
			return runHTTPMode(ctx, logger, cfg, services, mcpServer)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("shut down")
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, cfg config.Config, services *app.App, mcpServer *sdkmcp.Server) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	auth := transport.LocalActorMiddleware(cfg.Auth.LocalActor)
	if cfg.Auth.Enabled {
		auth = transport.AuthMiddleware(services.APIKeys)
	}

	router := transport.NewServer(transport.Options{
		RPC:     mcp.NewHandler(services.MCPServices()),
		Ingests: services.Ingests,
		Auth:    auth,
		MCP:     mcpHandler,
		Metrics: services.Metrics.Handler(),
		Logger:  logger.With("component", "http"),
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", httpServer.Addr, "auth", cfg.Auth.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return waitForShutdown(ctx, logger, httpServer, errCh)
}

func waitForShutdown(ctx context.Context, logger *slog.Logger, server *http.Server, errCh <-chan error) error {
	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// apiKeyStore is the part of the API key repository key creation needs.
type apiKeyStore interface {
	Create(ctx context.Context, token, userID, description string) error
}

func createAPIKey(ctx context.Context, store apiKeyStore, userID string) (string, error) {
	token := "sup_" + uuid.NewString()
	if err := store.Create(ctx, token, userID, "created from command line"); err != nil {
		return "", err
	}
	return token, nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const (
	maxLogSizeBytes  = 6 * 1024 * 1024
	keepLogSizeBytes = 5 * 1024 * 1024
)

// logFileWriter appends to a file and trims it to its newest
// keepLogSizeBytes once it grows past maxLogSizeBytes.
type logFileWriter struct {
	file *os.File
	mu   sync.Mutex
	max  int64
	keep int64
}

func newLogFileWriter(path string) (*logFileWriter, *os.File, error) {
	if err := ensureDBDir(path); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	writer := &logFileWriter{file: file, max: maxLogSizeBytes, keep: keepLogSizeBytes}
	if err := writer.truncateIfNeeded(); err != nil {
		file.Close()
		return nil, nil, err
	}
	return writer, file, nil
}

func (w *logFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	if err := w.truncateIfNeeded(); err != nil {
		return n, err
	}
	return n, nil
}

func (w *logFileWriter) truncateIfNeeded() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= w.max {
		return nil
	}

	buf := make([]byte, w.keep)
	if _, err := w.file.ReadAt(buf, size-w.keep); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err = w.file.Write(buf)
	return err
}
