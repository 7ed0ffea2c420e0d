package notify

import (
	"context"
	"fmt"
	"strings"

	"freefinder/app/listing"
)

// Summary is the read-only view of one crawl's newly-stored listings that
// every channel receives.
type Summary struct {
	Region   string
	NewCount int
	Listings []listing.Listing
}

// Headline is the one-line form used by short channels (chat, SMS).
func (s Summary) Headline() string {
	return fmt.Sprintf("FreeFinder: %d new free items in %s.", s.NewCount, s.Region)
}

// BodyLines is the long-form breakdown for channels that support longer
// bodies (email, push).
func (s Summary) BodyLines() []string {
	lines := []string{s.Headline()}
	for _, item := range s.Listings {
		lines = append(lines, fmt.Sprintf("- %s (%s)", item.Title, item.URL))
	}
	return lines
}

// Body renders the breakdown as plain text.
func (s Summary) Body() string {
	return strings.Join(s.BodyLines(), "\n")
}

// Channel is a single notification capability. Send is a one-shot,
// best-effort delivery; implementations own their wire format.
type Channel interface {
	Name() string
	Send(ctx context.Context, summary Summary) error
}
