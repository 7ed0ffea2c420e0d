package craigslist

import (
	"context"
	"fmt"
	"testing"
	"time"

	"freefinder/app/fetcher"
)

const detailPageHTML = `
<html><body>
<p class="postinginfo">posted: <time datetime="2024-03-01T10:30:00-0600">2024-03-01 10:30</time></p>
<p class="postinginfo">updated: <time datetime="2024-03-03T08:15:00-0600">2024-03-03 08:15</time></p>
</body></html>`

func TestParseDetailTimestamps(t *testing.T) {
	postedAt, updatedAt := parseDetailTimestamps(detailPageHTML)

	if postedAt == nil {
		t.Fatal("Expected posted timestamp")
	}
	if updatedAt == nil {
		t.Fatal("Expected updated timestamp")
	}

	expectedPosted := time.Date(2024, 3, 1, 16, 30, 0, 0, time.UTC)
	if !postedAt.Equal(expectedPosted) {
		t.Errorf("Expected posted %v, got %v", expectedPosted, postedAt)
	}
	if postedAt.Location() != time.UTC {
		t.Errorf("Posted timestamp not normalized to UTC: %v", postedAt.Location())
	}

	expectedUpdated := time.Date(2024, 3, 3, 14, 15, 0, 0, time.UTC)
	if !updatedAt.Equal(expectedUpdated) {
		t.Errorf("Expected updated %v, got %v", expectedUpdated, updatedAt)
	}
}

func TestParseDetailTimestamps_WithoutSeconds(t *testing.T) {
	html := `<p class="postinginfo">posted: <time datetime="2024-03-01T10:30-0600">2024-03-01</time></p>`

	postedAt, updatedAt := parseDetailTimestamps(html)
	if postedAt == nil {
		t.Fatal("Expected posted timestamp for minute-precision encoding")
	}
	if updatedAt != nil {
		t.Errorf("Expected no updated timestamp, got %v", updatedAt)
	}

	expected := time.Date(2024, 3, 1, 16, 30, 0, 0, time.UTC)
	if !postedAt.Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, postedAt)
	}
}

func TestParseDetailTimestamps_FallbackSelector(t *testing.T) {
	html := `<time class="date" datetime="2024-03-02T12:00:00-0600">March 2</time>`

	postedAt, _ := parseDetailTimestamps(html)
	if postedAt == nil {
		t.Fatal("Expected fallback timestamp")
	}
}

func TestParseDetailTimestamps_Neither(t *testing.T) {
	postedAt, updatedAt := parseDetailTimestamps("<html><body><p>no times here</p></body></html>")
	if postedAt != nil || updatedAt != nil {
		t.Errorf("Expected both timestamps absent, got posted=%v updated=%v", postedAt, updatedAt)
	}
}

type fakeFetcher struct {
	pages  map[string]string
	err    error
	visits []string
}

func (f *fakeFetcher) Get(ctx context.Context, url string, delay *fetcher.DelayRange) (string, error) {
	f.visits = append(f.visits, url)
	if f.err != nil {
		return "", f.err
	}
	page, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("no page for %s", url)
	}
	return page, nil
}

func TestDetailResolver_FetchFailureDegradesToUndated(t *testing.T) {
	client := &fakeFetcher{err: fmt.Errorf("connection refused")}
	resolver := NewDetailResolver(client, nil)

	postedAt, updatedAt := resolver.Resolve(context.Background(), "https://example.org/123.html")
	if postedAt != nil || updatedAt != nil {
		t.Errorf("Expected undated listing on fetch failure, got posted=%v updated=%v", postedAt, updatedAt)
	}
}

func TestDetailResolver_Resolve(t *testing.T) {
	url := "https://sanantonio.craigslist.org/zip/d/x/7123456789.html"
	client := &fakeFetcher{pages: map[string]string{url: detailPageHTML}}
	resolver := NewDetailResolver(client, nil)

	postedAt, updatedAt := resolver.Resolve(context.Background(), url)
	if postedAt == nil || updatedAt == nil {
		t.Fatalf("Expected both timestamps, got posted=%v updated=%v", postedAt, updatedAt)
	}
	if len(client.visits) != 1 {
		t.Errorf("Expected 1 fetch, got %d", len(client.visits))
	}
}
