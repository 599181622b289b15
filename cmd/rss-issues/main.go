package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-issues/app/api"
	"github.com/lysyi3m/rss-issues/app/cfg"
	"github.com/lysyi3m/rss-issues/app/database"
	"github.com/lysyi3m/rss-issues/app/feed"
	"github.com/lysyi3m/rss-issues/app/issues"
	"github.com/lysyi3m/rss-issues/app/tasks"
	"github.com/lysyi3m/rss-issues/app/tracker"
)

func main() {
	appCfg, err := cfg.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	setupLogger(appCfg.Debug)

	os.Exit(run(appCfg))
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(appCfg *cfg.Cfg) int {
	slog.Info("Starting RSS Issues",
		"version", appCfg.Version,
		"noop", appCfg.DryRun,
		"sources", appCfg.SourcesFile,
		"repository", appCfg.Repository)

	loadSources := func() ([]*feed.Source, error) {
		return feed.LoadSources(appCfg.SourcesFile)
	}

	sources, err := loadSources()
	if err != nil {
		slog.Error("Failed to load sources", "error", err)
		return 1
	}
	slog.Info("Sources loaded", "count", len(sources))

	httpClient := &http.Client{}

	fetcher := feed.NewFetcher(appCfg, httpClient, feed.NewParser(), feed.NewFilterer(), feed.NewContentExtractor())
	aggregator := feed.NewAggregator(fetcher)

	client, err := tracker.NewClient(appCfg, httpClient)
	if err != nil {
		slog.Error("Failed to create GitHub client", "error", err)
		return 1
	}

	selector := issues.NewSelector(appCfg, client)
	materializer := issues.NewMaterializer(appCfg, selector, client)

	var runRepo database.RunRepository
	if appCfg.DBPath != "" {
		db, err := database.Open(appCfg.DBPath)
		if err != nil {
			slog.Error("Failed to open run history", "path", appCfg.DBPath, "error", err)
			return 1
		}
		defer db.Close()

		runRepo = database.NewRunRepository(db)
		slog.Info("Run history enabled", "path", appCfg.DBPath)
	}

	newTask := func() tasks.TaskInterface {
		return tasks.NewSyncIssuesTask(loadSources, aggregator, materializer, runRepo)
	}

	if !appCfg.IsDaemon() {
		return runOnce(tasks.NewSyncIssuesTask(loadSources, aggregator, materializer, runRepo))
	}

	return serve(appCfg, runRepo, newTask)
}

// runOnce executes a single cycle and prints its report.
func runOnce(task *tasks.SyncIssuesTask) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	task.Start()
	if err := task.Execute(ctx); err != nil {
		slog.Error("Run failed", "error", err)
		return 1
	}

	results := task.Results()
	if len(results) > 0 {
		fmt.Println(strings.Join(results, "\n"))
	}
	fmt.Printf("count=%d\n", len(results))

	return 0
}

func serve(appCfg *cfg.Cfg, runRepo database.RunRepository, newTask tasks.TaskFactory) int {
	slog.Info("Starting scheduler", "interval", appCfg.GetInterval().String())
	scheduler := tasks.NewScheduler(appCfg, newTask)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(appCfg, runRepo, scheduler, newTask)
	router := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
		exitCode = 1
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return exitCode
}
