package database

import (
	"database/sql"
	"fmt"
)

// Seed inserts a starter candy catalog for development. It is a no-op
// when the catalog already has entries.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM candy_catalog").Scan(&count); err != nil {
		return fmt.Errorf("count catalog: %w", err)
	}
	if count > 0 {
		return nil
	}

	starters := []struct {
		name        string
		description string
	}{
		{"Snickers", "Chocolate bar with peanuts and caramel"},
		{"KitKat", "Crispy wafer fingers"},
		{"Skittles", "Fruit-flavored chewy drops"},
		{"Reese's Cups", "Peanut butter in chocolate"},
		{"Sour Patch Kids", "Sour then sweet gummies"},
	}

	for _, s := range starters {
		_, err := db.Exec(
			"INSERT INTO candy_catalog (name, description) VALUES ($1, $2)",
			s.name, s.description,
		)
		if err != nil {
			return fmt.Errorf("seed candy %q: %w", s.name, err)
		}
	}
	return nil
}
