package listing

import (
	"time"
)

// Listing is a single free item listing, fully resolved and ready for
// storage and notification. ID is the stable natural key
// "source:region:siteId" derived from the detail URL, so re-crawling the
// same listing updates the stored row instead of duplicating it.
type Listing struct {
	ID            string
	Title         string
	URL           string
	Source        string
	Description   string
	Location      string
	ReferenceTime *time.Time // later of posted/updated, UTC
	Price         *float64
}

// Stub is a candidate listing parsed from the search-results page, before
// the detail page has been fetched. Consumed immediately by the triage
// pipeline, never persisted.
type Stub struct {
	ID       string
	Title    string
	URL      string
	Location string
	Price    *float64
}

// StaleMarker records the first listing in page order whose reference time
// fell below the freshness threshold (or was missing). At most one is
// produced per crawl, for diagnostic reporting only.
type StaleMarker struct {
	Title         string
	URL           string
	ReferenceTime *time.Time
}
