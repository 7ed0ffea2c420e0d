package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"freefinder/app/classifier"
	"freefinder/app/craigslist"
	"freefinder/app/database"
	"freefinder/app/fetcher"
	"freefinder/app/listing"
	"freefinder/app/notify"
)

// CrawlPolicy gates a crawl before any page request is issued.
type CrawlPolicy interface {
	IsAllowed(ctx context.Context, url string) (bool, error)
}

// CrawlOptions bundle the per-crawl knobs.
type CrawlOptions struct {
	Region      string
	Query       craigslist.SearchQuery
	MaxItems    int
	MaxAge      time.Duration
	DetailDelay *fetcher.DelayRange
	StopAtStale bool
	DryRun      bool
}

// CrawlTask performs one acquisition-and-triage cycle for a region:
// search page fetch, per-listing detail resolution through the staleness
// gate, keyword classification, idempotent storage and notification
// fan-out. Notification errors never affect the task's outcome.
type CrawlTask struct {
	Task
	client     craigslist.Fetcher
	policy     CrawlPolicy
	classifier *classifier.Classifier
	repo       database.ListingStore
	fanout     *notify.Fanout
	opts       CrawlOptions
	now        func() time.Time
}

func NewCrawlTask(client craigslist.Fetcher, policy CrawlPolicy, cls *classifier.Classifier,
	repo database.ListingStore, fanout *notify.Fanout, opts CrawlOptions) *CrawlTask {
	if opts.MaxAge <= 0 {
		opts.MaxAge = craigslist.DefaultMaxAge
	}
	return &CrawlTask{
		Task:       NewTask(TaskTypeCrawl, opts.Region),
		client:     client,
		policy:     policy,
		classifier: cls,
		repo:       repo,
		fanout:     fanout,
		opts:       opts,
		now:        time.Now,
	}
}

func (t *CrawlTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	searchURL := craigslist.BuildSearchURL(t.opts.Region, t.opts.Query)

	allowed, err := t.policy.IsAllowed(ctx, searchURL)
	if err != nil {
		return fmt.Errorf("failed to check crawl policy: %w", err)
	}
	if !allowed {
		return fmt.Errorf("robots.txt disallows fetching %s", searchURL)
	}

	// No delay on the search fetch; politeness pauses apply to the
	// detail pages that follow.
	html, err := t.client.Get(ctx, searchURL, nil)
	if err != nil {
		return fmt.Errorf("failed to fetch search page: %w", err)
	}

	stubs, err := craigslist.ParseSearchResults(html, t.opts.Region)
	if err != nil {
		return fmt.Errorf("failed to parse search page: %w", err)
	}

	resolver := craigslist.NewDetailResolver(t.client, t.opts.DetailDelay)
	pipeline := craigslist.NewPipeline(resolver, craigslist.PipelineOptions{
		MaxItems:    t.opts.MaxItems,
		MaxAge:      t.opts.MaxAge,
		StopAtStale: t.opts.StopAtStale,
	})

	items, staleMarker := pipeline.Run(ctx, stubs)

	if staleMarker != nil {
		reference := "unknown"
		if staleMarker.ReferenceTime != nil {
			reference = staleMarker.ReferenceTime.Format(time.RFC3339)
		}
		slog.Info("Encountered listing older than the age threshold",
			"title", staleMarker.Title,
			"url", staleMarker.URL,
			"last_activity", reference,
			"stopped", t.opts.StopAtStale)
	}

	now := t.now().UTC()
	kept, dropped := t.classifier.Run(items, now)

	for _, outcome := range dropped {
		slog.Debug("Listing dropped",
			"reason", t.classifier.Reason(outcome, now),
			"title", outcome.Listing.Title,
			"url", outcome.Listing.URL)
	}

	if t.opts.DryRun {
		t.reportDryRun(kept, dropped, now)
		return nil
	}

	purged, err := t.repo.PurgeStale(ctx, t.opts.MaxAge)
	if err != nil {
		return fmt.Errorf("failed to purge stale listings: %w", err)
	}

	upserted, err := t.repo.UpsertListings(ctx, kept)
	if err != nil {
		return fmt.Errorf("failed to store listings: %w", err)
	}

	if upserted > 0 && t.fanout != nil && t.fanout.ChannelCount() > 0 {
		t.fanout.Send(ctx, notify.Summary{
			Region:   t.opts.Region,
			NewCount: upserted,
			Listings: kept,
		})
	}

	slog.Info("Task completed",
		"type", "Crawl",
		"region", t.opts.Region,
		"duration", t.GetDuration(),
		"stubs", len(stubs),
		"resolved", len(items),
		"kept", len(kept),
		"dropped", len(dropped),
		"purged", purged,
		"upserted", upserted)

	return nil
}

// reportDryRun prints every decision so behaviour can be verified without
// touching the store or any channel.
func (t *CrawlTask) reportDryRun(kept []listing.Listing, dropped []classifier.Outcome, now time.Time) {
	for _, item := range kept {
		fmt.Printf("[DRY RUN] %s -> %s\n", item.Title, item.URL)
	}
	if len(dropped) > 0 {
		fmt.Printf("[DRY RUN] Dropped %d items (see reasons below).\n", len(dropped))
		for _, outcome := range dropped {
			fmt.Printf("[DROP] %s -> %s (%s)\n",
				t.classifier.Reason(outcome, now), outcome.Listing.Title, outcome.Listing.URL)
		}
	}
}
