package database

import (
	"context"
	"time"

	"freefinder/app/listing"
)

// ListingStore is the persistence contract consumed by the crawl task and
// the HTTP handlers.
type ListingStore interface {
	// UpsertListings inserts or fully replaces every listing, keyed by
	// id, as a single atomic unit. Returns the number of rows written.
	UpsertListings(ctx context.Context, items []listing.Listing) (int, error)

	// PurgeStale deletes listings whose stored reference time is null or
	// older than now-maxAge. Returns the number of rows deleted.
	PurgeStale(ctx context.Context, maxAge time.Duration) (int, error)

	GetRecentListings(ctx context.Context, limit int) ([]StoredListing, error)
	GetListing(ctx context.Context, id string) (*StoredListing, error)
	GetListingStats(ctx context.Context) (total, dated, undated int, err error)
}
