package craigslist

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"freefinder/app/listing"
)

// SourceName tags every listing produced by this adapter.
const SourceName = "craigslist"

const searchPath = "/search/zip"

var idPattern = regexp.MustCompile(`/(\d+)\.html`)

// SearchQuery holds the optional query parameters for the free-stuff
// search page. SearchDistance is only meaningful together with Postal;
// that pairing is validated at configuration time.
type SearchQuery struct {
	Sort           string
	Postal         string
	SearchDistance int
}

// BuildSearchURL returns the search-results URL for a region.
func BuildSearchURL(region string, query SearchQuery) string {
	base := fmt.Sprintf("https://%s.craigslist.org%s", region, searchPath)

	params := url.Values{}
	if query.Sort != "" {
		params.Set("sort", query.Sort)
	}
	if query.Postal != "" {
		params.Set("postal", query.Postal)
	}
	if query.SearchDistance > 0 {
		params.Set("search_distance", strconv.Itoa(query.SearchDistance))
	}

	if len(params) == 0 {
		return base
	}
	return base + "?" + params.Encode()
}

// ParseSearchResults extracts listing stubs from search-results HTML, in
// page order. Result elements without a followable link or an extractable
// numeric identifier are expected noise and are silently skipped.
func ParseSearchResults(html string, region string) ([]listing.Stub, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse search page: %w", err)
	}

	base := fmt.Sprintf("https://%s.craigslist.org", region)

	var stubs []listing.Stub
	doc.Find("ol.cl-static-search-results li.cl-static-search-result").Each(func(_ int, sel *goquery.Selection) {
		link := sel.Find("a").First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}

		listingURL := resolveURL(base, href)

		id, ok := extractID(listingURL, region)
		if !ok {
			return
		}

		title := strings.TrimSpace(link.Find("div.title").First().Text())
		if title == "" {
			title = strings.TrimSpace(link.Text())
		}

		location := strings.TrimSpace(link.Find("div.location").First().Text())

		stubs = append(stubs, listing.Stub{
			ID:       id,
			Title:    title,
			URL:      listingURL,
			Location: location,
			Price:    parsePrice(link.Find("div.price").First().Text()),
		})
	})

	return stubs, nil
}

// extractID derives the site- and region-scoped natural key from a
// listing URL.
func extractID(listingURL, region string) (string, bool) {
	match := idPattern.FindStringSubmatch(listingURL)
	if match == nil {
		return "", false
	}
	return fmt.Sprintf("%s:%s:%s", SourceName, region, match[1]), true
}

func resolveURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

var nonPriceChars = regexp.MustCompile(`[^\d.]`)

// parsePrice normalizes price text by stripping everything but digits and
// dots. Absent or unparsable prices yield nil rather than an error.
func parsePrice(text string) *float64 {
	digits := nonPriceChars.ReplaceAllString(text, "")
	if digits == "" {
		return nil
	}
	price, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return nil
	}
	return &price
}
