package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"freefinder/app/database"
	"freefinder/app/tasks"
)

const defaultListingLimit = 100

func NewHandler(repo database.ListingStore, scheduler tasks.TaskSchedulerInterface,
	newCrawl tasks.TaskFactory, region, version string) *Handler {
	return &Handler{
		repo:      repo,
		scheduler: scheduler,
		newCrawl:  newCrawl,
		region:    region,
		version:   version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"region":    h.region,
	}

	if total, _, _, err := h.repo.GetListingStats(c.Request.Context()); err == nil {
		health["listings"] = total
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	total, dated, undated, err := h.repo.GetListingStats(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":   total,
		"dated":   dated,
		"undated": undated,
		"region":  h.region,
	})
}

func (h *Handler) GetListings(c *gin.Context) {
	limit := defaultListingLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
			return
		}
		limit = parsed
	}

	items, err := h.repo.GetRecentListings(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_listings", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	listings := make([]gin.H, 0, len(items))
	for _, item := range items {
		listings = append(listings, listingJSON(item))
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"total":    len(listings),
	})
}

func (h *Handler) GetListing(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing listing id"})
		return
	}

	item, err := h.repo.GetListing(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "get_listing", "id", id, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}

	c.JSON(http.StatusOK, listingJSON(*item))
}

// APITriggerCrawl enqueues an out-of-schedule crawl.
func (h *Handler) APITriggerCrawl(c *gin.Context) {
	task := h.newCrawl()
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue crawl", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to enqueue crawl"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "enqueued",
		"task_id": task.GetID(),
		"region":  task.GetRegion(),
	})
}

func listingJSON(item database.StoredListing) gin.H {
	out := gin.H{
		"id":         item.ID,
		"title":      item.Title,
		"url":        item.URL,
		"source":     item.Source,
		"created_at": item.CreatedAt.Format(time.RFC3339),
	}
	if item.Description != "" {
		out["description"] = item.Description
	}
	if item.Location != "" {
		out["location"] = item.Location
	}
	if item.ReferenceTime != nil {
		out["reference_time"] = item.ReferenceTime.Format(time.RFC3339)
	}
	if item.Price != nil {
		out["price"] = *item.Price
	}
	return out
}
