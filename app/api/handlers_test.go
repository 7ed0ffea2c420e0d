package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"freefinder/app/database"
	"freefinder/app/listing"
	"freefinder/app/tasks"
)

type fakeStore struct {
	listings []database.StoredListing
	statsErr error
}

func (s *fakeStore) UpsertListings(_ context.Context, items []listing.Listing) (int, error) {
	return len(items), nil
}

func (s *fakeStore) PurgeStale(_ context.Context, _ time.Duration) (int, error) {
	return 0, nil
}

func (s *fakeStore) GetRecentListings(_ context.Context, limit int) ([]database.StoredListing, error) {
	if limit < len(s.listings) {
		return s.listings[:limit], nil
	}
	return s.listings, nil
}

func (s *fakeStore) GetListing(_ context.Context, id string) (*database.StoredListing, error) {
	for _, item := range s.listings {
		if item.ID == id {
			return &item, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetListingStats(_ context.Context) (int, int, int, error) {
	if s.statsErr != nil {
		return 0, 0, 0, s.statsErr
	}
	dated := 0
	for _, item := range s.listings {
		if item.ReferenceTime != nil {
			dated++
		}
	}
	return len(s.listings), dated, len(s.listings) - dated, nil
}

type fakeScheduler struct {
	enqueued []tasks.TaskInterface
	err      error
}

func (s *fakeScheduler) Start() {}
func (s *fakeScheduler) Stop()  {}

func (s *fakeScheduler) EnqueueTask(task tasks.TaskInterface) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, task)
	return nil
}

type fakeTask struct {
	tasks.Task
}

func (t *fakeTask) Execute(_ context.Context) error { return nil }

func storedListing(id, title string, ref *time.Time) database.StoredListing {
	return database.StoredListing{
		Listing: listing.Listing{
			ID:            id,
			Title:         title,
			URL:           "https://example.org/" + id + ".html",
			Source:        "craigslist",
			ReferenceTime: ref,
		},
		CreatedAt: time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC),
	}
}

func newTestServer(store *fakeStore, scheduler *fakeScheduler, apiAccessKey string) *gin.Engine {
	factory := func() tasks.TaskInterface {
		return &fakeTask{Task: tasks.NewTask(tasks.TaskTypeCrawl, "sanantonio")}
	}
	handler := NewHandler(store, scheduler, factory, "sanantonio", "test")
	return NewServer(handler, apiAccessKey)
}

func doRequest(t *testing.T, server *gin.Engine, method, path string, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	var body map[string]interface{}
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("Failed to decode response body: %v", err)
		}
	}
	return w, body
}

func TestGetHealth(t *testing.T) {
	ref := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{listings: []database.StoredListing{storedListing("a", "Free couch", &ref)}}
	server := newTestServer(store, &fakeScheduler{}, "")

	w, body := doRequest(t, server, http.MethodGet, "/health", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if body["region"] != "sanantonio" {
		t.Errorf("Expected region sanantonio, got %v", body["region"])
	}
	if body["listings"] != float64(1) {
		t.Errorf("Expected 1 listing in health payload, got %v", body["listings"])
	}
}

func TestGetStats(t *testing.T) {
	ref := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{listings: []database.StoredListing{
		storedListing("a", "Free couch", &ref),
		storedListing("b", "Free plants", nil),
	}}
	server := newTestServer(store, &fakeScheduler{}, "")

	w, body := doRequest(t, server, http.MethodGet, "/stats", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if body["total"] != float64(2) || body["dated"] != float64(1) || body["undated"] != float64(1) {
		t.Errorf("Unexpected stats payload %v", body)
	}
}

func TestGetStats_DatabaseError(t *testing.T) {
	store := &fakeStore{statsErr: errors.New("db closed")}
	server := newTestServer(store, &fakeScheduler{}, "")

	w, _ := doRequest(t, server, http.MethodGet, "/stats", nil)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
}

func TestGetListings(t *testing.T) {
	ref := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{listings: []database.StoredListing{
		storedListing("a", "Free couch", &ref),
		storedListing("b", "Free plants", nil),
	}}
	server := newTestServer(store, &fakeScheduler{}, "")

	w, body := doRequest(t, server, http.MethodGet, "/listings", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if body["total"] != float64(2) {
		t.Errorf("Expected 2 listings, got %v", body["total"])
	}
}

func TestGetListings_LimitParameter(t *testing.T) {
	ref := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{listings: []database.StoredListing{
		storedListing("a", "Free couch", &ref),
		storedListing("b", "Free plants", &ref),
	}}
	server := newTestServer(store, &fakeScheduler{}, "")

	w, body := doRequest(t, server, http.MethodGet, "/listings?limit=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if body["total"] != float64(1) {
		t.Errorf("Expected 1 listing with limit=1, got %v", body["total"])
	}

	w, _ = doRequest(t, server, http.MethodGet, "/listings?limit=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid limit, got %d", w.Code)
	}
}

func TestGetListing(t *testing.T) {
	ref := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{listings: []database.StoredListing{
		storedListing("craigslist:sanantonio:100", "Free couch", &ref),
	}}
	server := newTestServer(store, &fakeScheduler{}, "")

	w, body := doRequest(t, server, http.MethodGet, "/listings/craigslist:sanantonio:100", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if body["title"] != "Free couch" {
		t.Errorf("Expected title 'Free couch', got %v", body["title"])
	}
	if body["reference_time"] != ref.Format(time.RFC3339) {
		t.Errorf("Expected reference_time %s, got %v", ref.Format(time.RFC3339), body["reference_time"])
	}

	w, _ = doRequest(t, server, http.MethodGet, "/listings/absent", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing listing, got %d", w.Code)
	}
}

func TestTriggerCrawl_RequiresAuth(t *testing.T) {
	scheduler := &fakeScheduler{}
	server := newTestServer(&fakeStore{}, scheduler, "secret")

	w, _ := doRequest(t, server, http.MethodPost, "/api/crawl", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got %d", w.Code)
	}

	w, _ = doRequest(t, server, http.MethodPost, "/api/crawl", map[string]string{"X-API-Key": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong key, got %d", w.Code)
	}
	if len(scheduler.enqueued) != 0 {
		t.Error("No task may be enqueued without valid authentication")
	}
}

func TestTriggerCrawl(t *testing.T) {
	scheduler := &fakeScheduler{}
	server := newTestServer(&fakeStore{}, scheduler, "secret")

	w, body := doRequest(t, server, http.MethodPost, "/api/crawl", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", w.Code)
	}
	if body["status"] != "enqueued" {
		t.Errorf("Expected enqueued status, got %v", body["status"])
	}
	if len(scheduler.enqueued) != 1 {
		t.Errorf("Expected 1 enqueued task, got %d", len(scheduler.enqueued))
	}
}

func TestTriggerCrawl_BearerToken(t *testing.T) {
	scheduler := &fakeScheduler{}
	server := newTestServer(&fakeStore{}, scheduler, "secret")

	w, _ := doRequest(t, server, http.MethodPost, "/api/crawl", map[string]string{"Authorization": "Bearer secret"})
	if w.Code != http.StatusAccepted {
		t.Errorf("Expected 202 with bearer token, got %d", w.Code)
	}
}

func TestTriggerCrawl_QueueFull(t *testing.T) {
	scheduler := &fakeScheduler{err: errors.New("task queue is full")}
	server := newTestServer(&fakeStore{}, scheduler, "secret")

	w, _ := doRequest(t, server, http.MethodPost, "/api/crawl", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 when the queue is full, got %d", w.Code)
	}
}

func TestCrawlDisabledWithoutKey(t *testing.T) {
	server := newTestServer(&fakeStore{}, &fakeScheduler{}, "")

	w, _ := doRequest(t, server, http.MethodPost, "/api/crawl", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 when API endpoints are disabled, got %d", w.Code)
	}
}
