package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/eventscope/internal/config"
	"github.com/user/eventscope/internal/delivery"
	"github.com/user/eventscope/internal/engine"
	"github.com/user/eventscope/internal/feed"
	"github.com/user/eventscope/internal/httpapi"
	"github.com/user/eventscope/internal/intake"
	"github.com/user/eventscope/internal/metrics"
	"github.com/user/eventscope/internal/normalize"
	"github.com/user/eventscope/internal/stream"
	"github.com/user/eventscope/internal/telegram"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the eventscope daemon",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, pidFileName)
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func buildSources(cfg *config.Config) []feed.Source {
	var sources []feed.Source
	if cfg.Feed.URL != "" {
		sources = append(sources, feed.NewWebSocketSource(cfg.Feed.URL, cfg.Feed.Subscribe))
	}
	if cfg.Feed.RedisAddr != "" {
		sources = append(sources, feed.NewRedisSource(cfg.Feed.RedisAddr, cfg.Feed.RedisPassword, cfg.Feed.RedisDB, cfg.Feed.RedisChannel))
	}
	return sources
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	table, err := loadGeo(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := metrics.New()
	hub := stream.NewHub(cfg.HTTP.MaxSubscribers)
	defer hub.Close()

	// Alert delivery
	deliveryReg := delivery.NewRegistry()

	eng, err := engine.New(engine.Options{
		Retention:        cfg.Retention(),
		AutoplayInterval: cfg.AutoplayInterval(),
		CleanupInterval:  cfg.CleanupInterval(),
		FadeDuration:     cfg.FadeDuration(),
		Rules: normalize.Rules{
			AllowedTypes:  cfg.Events.AllowedTypes,
			AllowedTopics: cfg.Events.AllowedTopics,
			IgnoredTypes:  cfg.Events.IgnoredTypes,
		},
		Filters:   normalize.FiltersFromMap(cfg.Events.Filters),
		Geo:       table,
		Metrics:   rec,
		Publisher: hub,
		Alert:     deliveryReg.Broadcaster(cfg.Alerts.Targets),
	})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer eng.Stop()

	// Telegram adapter
	if cfg.Telegram.Token != "" {
		adapter, err := telegram.New(cfg.Telegram.Token, eng.Stats)
		if err != nil {
			return fmt.Errorf("create telegram adapter: %w", err)
		}
		go adapter.Start(ctx)
		deliveryReg.Register("telegram:", adapter.Deliver)
		slog.Info("telegram adapter started")
	} else {
		slog.Warn("telegram adapter disabled (no token)")
	}

	queue := intake.NewQueue(cfg.IntakeCapacity, eng.Ingest)
	queue.Start(ctx)
	defer queue.Stop()

	var feeds sync.WaitGroup
	sources := buildSources(cfg)
	for _, src := range sources {
		feeds.Add(1)
		go func(src feed.Source) {
			defer feeds.Done()
			if err := src.Run(ctx, queue, eng); err != nil {
				slog.Error("feed stopped", "source", src.Name(), "error", err)
			}
		}(src)
	}
	if len(sources) == 0 {
		slog.Warn("no feed configured; accepting events on POST /api/events only")
	}
	defer feeds.Wait()

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.NewServer(eng, queue, rec.Handler(), hub),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("http server started", "listen", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		hub.Close()
		httpServer.Shutdown(shutdownCtx)
	}()

	slog.Info("eventscope started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"retention", cfg.Retention(),
		"locations", table.Len(),
		"feeds", len(sources),
		"pid_file", pidPath,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigChan
		if sig == syscall.SIGHUP {
			slog.Info("received SIGHUP, restarting")
			execPath, err := os.Executable()
			if err != nil {
				slog.Error("failed to get executable path", "error", err)
				continue
			}
			os.Remove(pidPath)
			if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
				slog.Error("failed to re-exec", "error", err)
				if _, writeErr := writePIDFile(cfg.DataDir); writeErr != nil {
					slog.Error("failed to re-write PID file", "error", writeErr)
				}
				continue
			}
		}
		slog.Info("shutting down", "signal", sig)
		cancel()
		return nil
	}
}
