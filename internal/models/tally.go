package models

import "time"

// Tally is a per-year candy count. Each tally belongs to exactly one
// catalog item; at most one tally exists per (catalog item, year) pair.
//
// CatalogID is a pointer because legacy rows may briefly lack a catalog
// reference until the backfill migration links them by name.
type Tally struct {
	ID        int64     `json:"id"`
	CatalogID *int64    `json:"catalog_id"`
	CandyName string    `json:"candy_name"`
	Count     int       `json:"count"`
	Year      int       `json:"year"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
