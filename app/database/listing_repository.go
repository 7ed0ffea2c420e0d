package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"freefinder/app/listing"
)

// StoredListing is a listing row as persisted, including the creation
// timestamp the database assigns.
type StoredListing struct {
	listing.Listing
	CreatedAt time.Time
}

// ListingRepository handles database operations for listings.
type ListingRepository struct {
	db *DB
}

var _ ListingStore = (*ListingRepository)(nil)

func NewListingRepository(db *DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// UpsertListings writes all listings in one transaction: insert-or-replace
// keyed by id, replacing every column so the stored row always reflects
// the most recent crawl. Either all rows are visible afterward or none.
func (r *ListingRepository) UpsertListings(ctx context.Context, items []listing.Listing) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO listings (id, title, url, source, description, location, reference_time, price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			source = excluded.source,
			description = excluded.description,
			location = excluded.location,
			reference_time = excluded.reference_time,
			price = excluded.price
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		_, err := stmt.ExecContext(ctx,
			item.ID, item.Title, item.URL, item.Source,
			nullString(item.Description), nullString(item.Location),
			formatTime(item.ReferenceTime), nullFloat(item.Price))
		if err != nil {
			return 0, fmt.Errorf("failed to upsert listing %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit upsert: %w", err)
	}

	return len(items), nil
}

// PurgeStale removes rows whose reference time is missing or older than
// the threshold. Listings become irrelevant once stale regardless of how
// they entered storage.
func (r *ListingRepository) PurgeStale(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge).Format(time.RFC3339)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM listings WHERE reference_time IS NULL OR reference_time < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge stale listings: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged listings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit purge: %w", err)
	}

	return int(deleted), nil
}

// GetRecentListings returns stored listings, most recent activity first.
func (r *ListingRepository) GetRecentListings(ctx context.Context, limit int) ([]StoredListing, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, url, source, description, location, reference_time, price, created_at
		FROM listings
		ORDER BY COALESCE(reference_time, created_at) DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent listings: %w", err)
	}
	defer rows.Close()

	var items []StoredListing
	for rows.Next() {
		item, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listing rows: %w", err)
	}

	return items, nil
}

// GetListing returns a single listing by id, or nil when absent.
func (r *ListingRepository) GetListing(ctx context.Context, id string) (*StoredListing, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, url, source, description, location, reference_time, price, created_at
		FROM listings
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	item, err := scanListing(rows)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetListingStats returns row counts: total, with a reference time, and
// without one.
func (r *ListingRepository) GetListingStats(ctx context.Context) (total, dated, undated int, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN reference_time IS NOT NULL THEN 1 ELSE 0 END), 0) AS dated,
			COALESCE(SUM(CASE WHEN reference_time IS NULL THEN 1 ELSE 0 END), 0) AS undated
		FROM listings
	`).Scan(&total, &dated, &undated)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get listing stats: %w", err)
	}
	return total, dated, undated, nil
}

func scanListing(rows *sql.Rows) (StoredListing, error) {
	var item StoredListing
	var description, location, referenceTime sql.NullString
	var price sql.NullFloat64
	var createdAt string

	err := rows.Scan(&item.ID, &item.Title, &item.URL, &item.Source,
		&description, &location, &referenceTime, &price, &createdAt)
	if err != nil {
		return StoredListing{}, fmt.Errorf("failed to scan listing row: %w", err)
	}

	if description.Valid {
		item.Description = description.String
	}
	if location.Valid {
		item.Location = location.String
	}
	if referenceTime.Valid {
		if t, err := time.Parse(time.RFC3339, referenceTime.String); err == nil {
			utc := t.UTC()
			item.ReferenceTime = &utc
		}
	}
	if price.Valid {
		p := price.Float64
		item.Price = &p
	}
	if t, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
		item.CreatedAt = t.UTC()
	}

	return item, nil
}

func formatTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
