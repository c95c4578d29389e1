package main

import (
	"context"
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

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/docket/internal/clock"
	"github.com/rpggio/docket/internal/config"
	"github.com/rpggio/docket/internal/domain/item"
	"github.com/rpggio/docket/internal/domain/sweep"
	"github.com/rpggio/docket/internal/domain/undo"
	"github.com/rpggio/docket/internal/mcp"
	"github.com/rpggio/docket/internal/protocol"
	"github.com/rpggio/docket/internal/router"
	"github.com/rpggio/docket/internal/sqlite"
	"github.com/rpggio/docket/internal/surface"
	"github.com/rpggio/docket/internal/transport"
	"github.com/rpggio/docket/internal/viewmodel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if logPath := os.Getenv("DOCKET_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
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

	clk := clock.System()
	store := item.NewStore(sqlite.NewMementoRepository(db), clk, logger)
	catalog := viewmodel.DefaultCatalog()
	host := surface.NewHost(protocol.Channels(), logger)

	rt := router.New(router.Config{
		Store:      store,
		Snapshots:  undo.NewManager(logger),
		Builder:    viewmodel.NewBuilder(store, catalog, clk),
		Poster:     host,
		Confirmer:  &autoConfirmer{logger: logger},
		Notifier:   &logNotifier{logger: logger},
		Partitions: staticPartitions(cfg.Tasks.Partitions),
		Clock:      clk,
		Catalog:    catalog,
		Settings: router.Settings{
			ConfirmDestructive: cfg.Tasks.ConfirmDestructive,
			AutoDelete: sweep.Policy{
				Enabled: cfg.Tasks.AutoDelete.Enabled,
				Delay:   time.Duration(cfg.Tasks.AutoDelete.DelayMs) * time.Millisecond,
				Fade:    time.Duration(cfg.Tasks.AutoDelete.FadeMs) * time.Millisecond,
			},
		},
		Logger: logger,
	})

	pumpCtx, stopPump := context.WithCancel(context.Background())
	go rt.Run(pumpCtx, host.Inbound())

	mcpServer := mcp.NewServer(mcp.Config{
		Ops:    rt,
		Logger: logger,
	})

	if cfg.Transport.Mode == "stdio" {
		runStdioMode(logger, mcpServer)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		runHTTPMode(logger, rt, host, mcpServer, addr)
	}

	stopPump()
	host.Close()
	rt.Close()
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) {
	logger.Info("starting stdio transport")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	// Run blocks until stdin closes or the context is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil {
		logger.Error("stdio server error", "error", err)
	}
}

func runHTTPMode(logger *slog.Logger, rt *router.Router, host *surface.Host, mcpServer *sdkmcp.Server, addr string) {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	mux := transport.NewServer(rt, host, logger)
	mux.Handle("/mcp", mcpHandler)
	mux.Handle("/mcp/*", mcpHandler)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
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

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
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

type logFileWriter struct {
	path string
	file *os.File
	mu   sync.Mutex
}

func newLogFileWriter(path string) (*logFileWriter, *os.File, error) {
	if err := ensureLogDir(path); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	writer := &logFileWriter{path: path, file: file}
	if err := writer.truncateIfNeeded(); err != nil {
		return nil, nil, err
	}
	return writer, file, nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
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
	if size <= maxLogSizeBytes {
		return nil
	}

	buf := make([]byte, keepLogSizeBytes)
	if _, err := w.file.Seek(size-keepLogSizeBytes, io.SeekStart); err != nil {
		return err
	}
	n, err := w.file.Read(buf)
	if err != nil && err != io.EOF {
		return err
	}
	buf = buf[:n]

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.file.Write(buf); err != nil {
		return err
	}
	_, err = w.file.Seek(0, io.SeekEnd)
	return err
}

// autoConfirmer approves destructive prompts. A headless server has no
// user to ask, and stalling agent tools on an unanswerable question would
// make clear_scope unusable.
type autoConfirmer struct {
	logger *slog.Logger
}

func (c *autoConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	c.logger.Info("auto-approving confirmation", "prompt", prompt)
	return true, nil
}

// logNotifier writes notices to the log. Undo offers are recorded and left
// unaccepted; the snapshot expires on its own.
type logNotifier struct {
	logger *slog.Logger
}

func (n *logNotifier) Info(_ context.Context, message string) {
	n.logger.Info("notice", "message", message)
}

func (n *logNotifier) OfferUndo(_ context.Context, message, action string) (bool, error) {
	n.logger.Info("notice", "message", message, "action", action)
	return false, nil
}

// staticPartitions resolves the active partition to the first configured
// entry.
type staticPartitions []string

func (p staticPartitions) ActivePartition(context.Context) (string, error) {
	if len(p) == 0 {
		return "", nil
	}
	return p[0], nil
}
