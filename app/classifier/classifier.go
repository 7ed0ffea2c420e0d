package classifier

import (
	"fmt"
	"strings"
	"time"

	"freefinder/app/listing"
)

// Outcome captures the keyword evaluation for a single listing. It is
// derived state, used only to decide keep/drop and to explain drops.
type Outcome struct {
	Listing  listing.Listing
	Matched  []string
	Excluded []string
}

// Classifier partitions listings into kept and dropped. It is a pure
// function over its inputs: all keyword tables are supplied at
// construction, never read from globals.
type Classifier struct {
	includes []string
	excludes []string
	maxAge   time.Duration
}

func NewClassifier(keywords Keywords, maxAge time.Duration) *Classifier {
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	return &Classifier{
		includes: lowerAll(keywords.Includes),
		excludes: lowerAll(keywords.Excludes),
		maxAge:   maxAge,
	}
}

// Run filters listings by freshness and keyword content, returning the
// kept listings and an outcome per dropped one.
func (c *Classifier) Run(items []listing.Listing, now time.Time) ([]listing.Listing, []Outcome) {
	var kept []listing.Listing
	var dropped []Outcome

	for _, item := range items {
		// Evaluate keyword matches once so the result can be reused when
		// explaining drops.
		outcome := c.Evaluate(item)
		if !c.IsRecent(item, now) {
			dropped = append(dropped, outcome)
			continue
		}
		if len(outcome.Excluded) > 0 || len(outcome.Matched) == 0 {
			dropped = append(dropped, outcome)
			continue
		}
		kept = append(kept, item)
	}

	return kept, dropped
}

// Evaluate returns the matched and excluded keywords for a listing.
// Matching is case-insensitive substring containment: "bed" matches
// inside "bedroom". That false-positive risk is accepted.
func (c *Classifier) Evaluate(item listing.Listing) Outcome {
	text := strings.ToLower(item.Title + " " + item.Description)
	return Outcome{
		Listing:  item,
		Matched:  findMatches(text, c.includes),
		Excluded: findMatches(text, c.excludes),
	}
}

// IsRecent reports whether the listing's reference time is within the age
// limit. A listing without a reference time is never recent.
func (c *Classifier) IsRecent(item listing.Listing, now time.Time) bool {
	if item.ReferenceTime == nil {
		return false
	}
	return !item.ReferenceTime.UTC().Before(now.UTC().Add(-c.maxAge))
}

// Reason returns the single deterministic human-readable explanation for
// a drop, in priority order: staleness, then exclusions, then the absence
// of any positive match.
func (c *Classifier) Reason(outcome Outcome, now time.Time) string {
	if !c.IsRecent(outcome.Listing, now) {
		if outcome.Listing.ReferenceTime == nil {
			return "missing posted date"
		}
		return fmt.Sprintf("posted %s (older than %d days)",
			outcome.Listing.ReferenceTime.UTC().Format(time.RFC3339),
			int(c.maxAge.Hours()/24))
	}
	if len(outcome.Excluded) > 0 {
		return "excluded keywords: " + strings.Join(outcome.Excluded, ", ")
	}
	if len(outcome.Matched) == 0 {
		return "no matching keywords"
	}
	return "kept"
}

func findMatches(text string, keywords []string) []string {
	var matches []string
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			matches = append(matches, keyword)
		}
	}
	return matches
}

func lowerAll(values []string) []string {
	lowered := make([]string, len(values))
	for i, v := range values {
		lowered[i] = strings.ToLower(v)
	}
	return lowered
}
