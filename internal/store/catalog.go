package store

import (
	"database/sql"
	"fmt"
	"strings"

	"candycounter/internal/models"
)

// CatalogStore manages the candy catalog in the database.
type CatalogStore struct {
	db *sql.DB
}

// NewCatalogStore returns a new CatalogStore.
func NewCatalogStore(db *sql.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

const catalogColumns = `id, name, COALESCE(description, '') AS description, is_active, created_at, updated_at`

// scanCatalogItem scans a row into a CatalogItem struct.
func scanCatalogItem(scanner interface{ Scan(...any) error }) (*models.CatalogItem, error) {
	var c models.CatalogItem
	err := scanner.Scan(
		&c.ID, &c.Name, &c.Description,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns active catalog items ordered by name. With includeInactive
// it returns every item, active or not, in the same order.
func (s *CatalogStore) List(includeInactive bool) ([]models.CatalogItem, error) {
	query := `SELECT ` + catalogColumns + ` FROM candy_catalog WHERE is_active ORDER BY name`
	if includeInactive {
		query = `SELECT ` + catalogColumns + ` FROM candy_catalog ORDER BY name`
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list catalog items: %w", err)
	}
	defer rows.Close()

	var items []models.CatalogItem
	for rows.Next() {
		c, err := scanCatalogItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog item: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// FindByID retrieves a catalog item by ID. Returns ErrNotFound if absent.
func (s *CatalogStore) FindByID(id int64) (*models.CatalogItem, error) {
	row := s.db.QueryRow(`SELECT `+catalogColumns+` FROM candy_catalog WHERE id = $1`, id)
	c, err := scanCatalogItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find catalog item by id: %w", err)
	}
	return c, nil
}

// FindByName retrieves a catalog item by exact name. Returns ErrNotFound
// if absent.
func (s *CatalogStore) FindByName(name string) (*models.CatalogItem, error) {
	row := s.db.QueryRow(`SELECT `+catalogColumns+` FROM candy_catalog WHERE name = $1`, name)
	c, err := scanCatalogItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find catalog item by name: %w", err)
	}
	return c, nil
}

// Create inserts a new catalog item and returns it. The name and
// description are trimmed before storage. Returns ErrDuplicateName when
// any item, active or inactive, already uses the name.
func (s *CatalogStore) Create(name, description string) (*models.CatalogItem, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)

	if _, err := s.FindByName(name); err == nil {
		return nil, ErrDuplicateName
	} else if err != ErrNotFound {
		return nil, err
	}

	row := s.db.QueryRow(`
		INSERT INTO candy_catalog (name, description, is_active)
		VALUES ($1, NULLIF($2, ''), TRUE)
		RETURNING `+catalogColumns,
		name, description,
	)
	c, err := scanCatalogItem(row)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateName
	}
	if err != nil {
		return nil, fmt.Errorf("create catalog item: %w", err)
	}
	return c, nil
}

// Update renames a catalog item and replaces its description. Returns
// ErrNotFound if the id is absent and ErrDuplicateName when the trimmed
// name collides with a different item. Renaming an item to its own
// current name is a no-op rename and succeeds.
func (s *CatalogStore) Update(id int64, name, description string) (*models.CatalogItem, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)

	existing, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}

	if name != existing.Name {
		other, err := s.FindByName(name)
		if err == nil && other.ID != id {
			return nil, ErrDuplicateName
		}
		if err != nil && err != ErrNotFound {
			return nil, err
		}
	}

	row := s.db.QueryRow(`
		UPDATE candy_catalog
		SET name = $1, description = NULLIF($2, '')
		WHERE id = $3
		RETURNING `+catalogColumns,
		name, description, id,
	)
	c, err := scanCatalogItem(row)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateName
	}
	if err != nil {
		return nil, fmt.Errorf("update catalog item: %w", err)
	}
	return c, nil
}

// Deactivate soft-deletes a catalog item. Returns false when the id does
// not exist; absence is not an error here, matching Activate.
func (s *CatalogStore) Deactivate(id int64) (bool, error) {
	return s.setActive(id, false)
}

// Activate restores a previously deactivated catalog item.
func (s *CatalogStore) Activate(id int64) (bool, error) {
	return s.setActive(id, true)
}

func (s *CatalogStore) setActive(id int64, active bool) (bool, error) {
	res, err := s.db.Exec(`UPDATE candy_catalog SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return false, fmt.Errorf("set catalog item active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set catalog item active: %w", err)
	}
	return n > 0, nil
}
