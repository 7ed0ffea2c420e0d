package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freefinder/app/api"
	"freefinder/app/cfg"
	"freefinder/app/classifier"
	"freefinder/app/craigslist"
	"freefinder/app/database"
	"freefinder/app/fetcher"
	"freefinder/app/notify"
	"freefinder/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogging(appCfg.Debug)

	keywords, err := loadKeywords(appCfg)
	if err != nil {
		log.Fatal("Failed to load keywords: ", err)
	}

	detailDelay, err := fetcher.NewDelayRange(
		secondsToDuration(appCfg.DetailDelayMin),
		secondsToDuration(appCfg.DetailDelayMax))
	if err != nil {
		log.Fatal("Invalid detail delay range: ", err)
	}

	client := fetcher.NewClient(time.Duration(appCfg.Timeout)*time.Second, appCfg.UserAgent)
	robots := fetcher.NewRobotsChecker(client.HTTPClient(), client.UserAgent())
	cls := classifier.NewClassifier(keywords, maxAge(appCfg))
	fanout := notify.NewFanout(buildChannels(appCfg)...)

	opts := tasks.CrawlOptions{
		Region: appCfg.Region,
		Query: craigslist.SearchQuery{
			Sort:           appCfg.Sort,
			Postal:         appCfg.Postal,
			SearchDistance: appCfg.SearchDistance,
		},
		MaxItems:    appCfg.MaxItems,
		MaxAge:      maxAge(appCfg),
		DetailDelay: detailDelay,
		StopAtStale: !appCfg.AllowOutOfOrder,
		DryRun:      appCfg.DryRun,
	}

	if appCfg.DryRun && !appCfg.Serve {
		// Dry runs never touch the store, so no database is opened.
		task := tasks.NewCrawlTask(client, robots, cls, nil, fanout, opts)
		runOnce(task)
		return
	}

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	slog.Debug("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	repo := database.NewListingRepository(db)

	newCrawl := func() tasks.TaskInterface {
		return tasks.NewCrawlTask(client, robots, cls, repo, fanout, opts)
	}

	if appCfg.Serve {
		runServer(appCfg, repo, newCrawl)
		return
	}

	runOnce(newCrawl())
}

// runOnce executes a single crawl and exits non-zero on failure. A crawl
// with zero newly-stored listings is not a failure.
func runOnce(task tasks.TaskInterface) {
	task.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := task.Execute(ctx); err != nil {
		log.Fatal("Crawl failed: ", err)
	}
}

// runServer starts the background crawl scheduler and the HTTP API, then
// blocks until shutdown.
func runServer(appCfg *cfg.Cfg, repo *database.ListingRepository, newCrawl tasks.TaskFactory) {
	slog.Info("Starting FreeFinder server", "version", appCfg.Version, "region", appCfg.Region)

	scheduler := tasks.NewScheduler(newCrawl,
		time.Duration(appCfg.CrawlInterval)*time.Second, appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(repo, scheduler, newCrawl, appCfg.Region, appCfg.Version)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

func loadKeywords(appCfg *cfg.Cfg) (classifier.Keywords, error) {
	if appCfg.KeywordsFile == "" {
		return classifier.DefaultKeywords(), nil
	}
	return classifier.LoadKeywords(appCfg.KeywordsFile)
}

// buildChannels assembles the configured notification channels. Channel
// settings were already validated as all-or-nothing by cfg.Load.
func buildChannels(appCfg *cfg.Cfg) []notify.Channel {
	var channels []notify.Channel

	if appCfg.SlackEnabled() {
		channels = append(channels, notify.NewSlackChannel(appCfg.SlackWebhookURL))
	}
	if appCfg.NtfyEnabled() {
		channels = append(channels, notify.NewNtfyChannel(notify.NtfyConfig{
			Server:   appCfg.NtfyServer,
			Topic:    appCfg.NtfyTopic,
			Token:    appCfg.NtfyToken,
			Username: appCfg.NtfyUsername,
			Password: appCfg.NtfyPassword,
			Title:    appCfg.NtfyTitle,
			Priority: appCfg.NtfyPriority,
		}))
	}
	if appCfg.SMSEnabled() {
		channels = append(channels, notify.NewSMSChannel(notify.SMSConfig{
			AccountSID: appCfg.SMSAccountSID,
			AuthToken:  appCfg.SMSAuthToken,
			From:       appCfg.SMSFrom,
			To:         appCfg.SMSTo,
		}))
	}
	if appCfg.EmailEnabled() {
		channels = append(channels, notify.NewEmailChannel(notify.EmailConfig{
			Host:     appCfg.SMTPHost,
			Port:     appCfg.SMTPPort,
			Username: appCfg.SMTPUsername,
			Password: appCfg.SMTPPassword,
			From:     appCfg.EmailFrom,
			To:       appCfg.EmailTo,
			UseSSL:   appCfg.EmailUseSSL,
		}))
	}

	return channels
}

func maxAge(appCfg *cfg.Cfg) time.Duration {
	return time.Duration(appCfg.MaxAgeDays) * 24 * time.Hour
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
