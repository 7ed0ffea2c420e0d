package craigslist

import (
	"context"
	"time"

	"freefinder/app/listing"
)

const (
	DefaultMaxItems = 120
	DefaultMaxAge   = 7 * 24 * time.Hour
)

// TimestampResolver resolves a listing URL to its posted/updated times.
type TimestampResolver interface {
	Resolve(ctx context.Context, url string) (postedAt, updatedAt *time.Time)
}

// PipelineOptions control the triage of search-result stubs.
type PipelineOptions struct {
	// MaxItems caps how many listings a single crawl emits. Zero means
	// DefaultMaxItems.
	MaxItems int
	// MaxAge is the freshness threshold. Zero means DefaultMaxAge.
	MaxAge time.Duration
	// StopAtStale halts enumeration at the first stale listing. This
	// trusts the site's sorted-by-date ordering: anything below a stale
	// listing is assumed at least as old. Disable when that ordering
	// cannot be trusted.
	StopAtStale bool
}

// Pipeline turns an ordered sequence of stubs into fully-resolved
// listings by fetching each detail page, computing its reference time and
// applying the staleness gate.
type Pipeline struct {
	resolver    TimestampResolver
	maxItems    int
	maxAge      time.Duration
	stopAtStale bool
	now         func() time.Time
}

func NewPipeline(resolver TimestampResolver, opts PipelineOptions) *Pipeline {
	maxItems := opts.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	return &Pipeline{
		resolver:    resolver,
		maxItems:    maxItems,
		maxAge:      maxAge,
		stopAtStale: opts.StopAtStale,
		now:         time.Now,
	}
}

// Run enumerates stubs in page order, one blocking detail fetch per stub.
// It returns the emitted listings plus at most one stale marker: the
// first stub whose reference time fell below the cutoff or was missing.
// A listing without any timestamp is always treated as stale, because an
// absent date cannot be trusted as recent.
func (p *Pipeline) Run(ctx context.Context, stubs []listing.Stub) ([]listing.Listing, *listing.StaleMarker) {
	cutoff := p.now().UTC().Add(-p.maxAge)

	var items []listing.Listing
	var marker *listing.StaleMarker

	for _, stub := range stubs {
		postedAt, updatedAt := p.resolver.Resolve(ctx, stub.URL)
		referenceTime := laterOf(postedAt, updatedAt)

		if referenceTime == nil || referenceTime.Before(cutoff) {
			if marker == nil {
				marker = &listing.StaleMarker{
					Title:         stub.Title,
					URL:           stub.URL,
					ReferenceTime: referenceTime,
				}
			}
			if p.stopAtStale {
				break
			}
			continue
		}

		items = append(items, listing.Listing{
			ID:            stub.ID,
			Title:         stub.Title,
			URL:           stub.URL,
			Source:        SourceName,
			Location:      stub.Location,
			ReferenceTime: referenceTime,
			Price:         stub.Price,
		})

		if len(items) >= p.maxItems {
			break
		}
	}

	return items, marker
}

// laterOf picks the most recent of the two optional timestamps, in UTC.
func laterOf(postedAt, updatedAt *time.Time) *time.Time {
	var reference *time.Time
	if postedAt != nil {
		utc := postedAt.UTC()
		reference = &utc
	}
	if updatedAt != nil {
		utc := updatedAt.UTC()
		if reference == nil || utc.After(*reference) {
			reference = &utc
		}
	}
	return reference
}
