package craigslist

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"freefinder/app/fetcher"
)

// Craigslist renders detail-page timestamps with and without seconds.
var detailTimeLayouts = []string{
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04-0700",
}

// Fetcher is the transport the adapter consumes. Failure is a transport
// error, never a parsed-HTML fallback.
type Fetcher interface {
	Get(ctx context.Context, url string, delay *fetcher.DelayRange) (string, error)
}

// DetailResolver fetches a listing's detail page and extracts its
// "posted" and "updated" timestamps. Only the detail page reveals them.
type DetailResolver struct {
	client Fetcher
	delay  *fetcher.DelayRange
}

func NewDetailResolver(client Fetcher, delay *fetcher.DelayRange) *DetailResolver {
	return &DetailResolver{client: client, delay: delay}
}

// Resolve returns (postedAt, updatedAt), each independently optional and
// normalized to UTC. A failed detail fetch degrades the listing to
// "undated" instead of aborting the crawl.
func (r *DetailResolver) Resolve(ctx context.Context, url string) (*time.Time, *time.Time) {
	html, err := r.client.Get(ctx, url, r.delay)
	if err != nil {
		slog.Debug("Detail page fetch failed, treating listing as undated", "url", url, "error", err)
		return nil, nil
	}
	return parseDetailTimestamps(html)
}

// parseDetailTimestamps reads both the "posted" and "updated" <time> tags
// so a recently-edited listing counts as fresh activity.
func parseDetailTimestamps(html string) (*time.Time, *time.Time) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil
	}

	var postedAt, updatedAt *time.Time

	doc.Find("p.postinginfo").Each(func(_ int, sel *goquery.Selection) {
		timeTag := sel.Find("time").First()
		if timeTag.Length() == 0 {
			return
		}

		raw, ok := timeTag.Attr("datetime")
		if !ok || raw == "" {
			raw = strings.TrimSpace(timeTag.Text())
		}

		value := parseDetailTime(raw)
		if value == nil {
			return
		}

		text := strings.ToLower(strings.TrimSpace(sel.Text()))
		switch {
		case strings.Contains(text, "updated"):
			updatedAt = value
		case strings.Contains(text, "posted") && postedAt == nil:
			postedAt = value
		}
	})

	if postedAt == nil {
		if fallback := doc.Find("time.date[datetime]").First(); fallback.Length() > 0 {
			raw, _ := fallback.Attr("datetime")
			postedAt = parseDetailTime(raw)
		}
	}

	return postedAt, updatedAt
}

func parseDetailTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}

	for _, layout := range detailTimeLayouts {
		if value, err := time.Parse(layout, raw); err == nil {
			utc := value.UTC()
			return &utc
		}
	}

	// Tolerate layout drift on the site.
	if value, err := dateparse.ParseAny(raw); err == nil {
		utc := value.UTC()
		return &utc
	}

	return nil
}
