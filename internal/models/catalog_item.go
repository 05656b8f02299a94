package models

import "time"

// CatalogItem is one entry in the candy catalog, the canonical identity
// for a candy type. Items are never physically deleted; deactivation hides
// them from the "available to add" selection while historical tallies keep
// referencing them.
type CatalogItem struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
