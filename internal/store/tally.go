package store

import (
	"database/sql"
	"fmt"
	"time"

	"candycounter/internal/models"
)

// TallyStore manages per-year candy counts. Reads always resolve the
// display name through the catalog join; the stored candy_name column is
// only a denormalized cache refreshed on every write that touches the
// catalog reference.
type TallyStore struct {
	db *sql.DB
}

// NewTallyStore returns a new TallyStore.
func NewTallyStore(db *sql.DB) *TallyStore {
	return &TallyStore{db: db}
}

// tallySelect is the joined projection used by every read. COALESCE keeps
// legacy rows readable while their catalog_id is still null.
const tallySelect = `
	SELECT cc.id, cc.catalog_id,
	       COALESCE(cat.name, cc.candy_name) AS candy_name,
	       cc.count, cc.year, cc.created_at, cc.updated_at
	FROM candy_counts cc
	LEFT JOIN candy_catalog cat ON cc.catalog_id = cat.id`

// CurrentYear returns the current calendar year, the default collection
// season for every operation that takes an optional year.
func CurrentYear() int {
	return time.Now().Year()
}

// resolveYear applies the current-year default for optional year parameters.
func resolveYear(year *int) int {
	if year == nil {
		return CurrentYear()
	}
	return *year
}

// scanTally scans a joined row into a Tally struct.
func scanTally(scanner interface{ Scan(...any) error }) (*models.Tally, error) {
	var t models.Tally
	err := scanner.Scan(
		&t.ID, &t.CatalogID, &t.CandyName,
		&t.Count, &t.Year, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns tallies for the given year ordered by resolved name.
// With a nil year it returns every year, newest season first, names
// ascending within a year.
func (s *TallyStore) List(year *int) ([]models.Tally, error) {
	var rows *sql.Rows
	var err error
	if year != nil {
		rows, err = s.db.Query(tallySelect+`
			WHERE cc.year = $1
			ORDER BY candy_name`, *year)
	} else {
		rows, err = s.db.Query(tallySelect + `
			ORDER BY cc.year DESC, candy_name`)
	}
	if err != nil {
		return nil, fmt.Errorf("list tallies: %w", err)
	}
	defer rows.Close()

	var items []models.Tally
	for rows.Next() {
		t, err := scanTally(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tally: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// AvailableYears returns the distinct years that have tally rows,
// descending. An empty result is not an error; the handler layer adds the
// current year for display.
func (s *TallyStore) AvailableYears() ([]int, error) {
	rows, err := s.db.Query(`SELECT DISTINCT year FROM candy_counts ORDER BY year DESC`)
	if err != nil {
		return nil, fmt.Errorf("list available years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("scan year: %w", err)
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// FindByID retrieves a tally by ID. Returns ErrNotFound if absent.
func (s *TallyStore) FindByID(id int64) (*models.Tally, error) {
	row := s.db.QueryRow(tallySelect+` WHERE cc.id = $1`, id)
	t, err := scanTally(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find tally by id: %w", err)
	}
	return t, nil
}

// FindByCatalogAndYear retrieves the tally for a catalog item in the given
// year (current year when nil). Returns ErrNotFound if absent.
func (s *TallyStore) FindByCatalogAndYear(catalogID int64, year *int) (*models.Tally, error) {
	row := s.db.QueryRow(tallySelect+`
		WHERE cc.catalog_id = $1 AND cc.year = $2`, catalogID, resolveYear(year))
	t, err := scanTally(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find tally by catalog and year: %w", err)
	}
	return t, nil
}

// Increment adds amount to the tally for (catalogID, year), creating the
// row with count = amount on first use. The returned tally is re-read from
// storage so the caller always sees persisted state.
func (s *TallyStore) Increment(catalogID int64, amount int, year *int) (*models.Tally, error) {
	y := resolveYear(year)

	existing, err := s.FindByCatalogAndYear(catalogID, &y)
	if err != nil && err != ErrNotFound {
		return nil, err
	}

	if existing != nil {
		_, err := s.db.Exec(`
			UPDATE candy_counts SET count = count + $1
			WHERE catalog_id = $2 AND year = $3`, amount, catalogID, y)
		if err != nil {
			return nil, fmt.Errorf("increment tally: %w", err)
		}
		return s.FindByID(existing.ID)
	}

	return s.create(catalogID, amount, y)
}

// Decrement subtracts amount from the tally for (catalogID, year),
// flooring the count at zero. Returns ErrNotFound when no tally exists;
// decrement never creates.
func (s *TallyStore) Decrement(catalogID int64, amount int, year *int) (*models.Tally, error) {
	y := resolveYear(year)

	existing, err := s.FindByCatalogAndYear(catalogID, &y)
	if err != nil {
		return nil, err
	}

	newCount := existing.Count - amount
	if newCount < 0 {
		newCount = 0
	}

	_, err = s.db.Exec(`
		UPDATE candy_counts SET count = $1
		WHERE catalog_id = $2 AND year = $3`, newCount, catalogID, y)
	if err != nil {
		return nil, fmt.Errorf("decrement tally: %w", err)
	}
	return s.FindByID(existing.ID)
}

// SetCount sets the tally for (catalogID, year) to an absolute count,
// creating the row if absent. Negative counts are rejected by the caller
// validation layer before reaching the store.
func (s *TallyStore) SetCount(catalogID int64, count int, year *int) (*models.Tally, error) {
	y := resolveYear(year)

	existing, err := s.FindByCatalogAndYear(catalogID, &y)
	if err != nil && err != ErrNotFound {
		return nil, err
	}

	if existing != nil {
		_, err := s.db.Exec(`
			UPDATE candy_counts SET count = $1
			WHERE catalog_id = $2 AND year = $3`, count, catalogID, y)
		if err != nil {
			return nil, fmt.Errorf("set tally count: %w", err)
		}
		return s.FindByID(existing.ID)
	}

	return s.create(catalogID, count, y)
}

// create inserts a new tally row, denormalizing candy_name from the
// catalog at creation time. A missing catalog name never fails the lookup;
// the cache column is simply left empty.
func (s *TallyStore) create(catalogID int64, count, year int) (*models.Tally, error) {
	var name string
	err := s.db.QueryRow(`SELECT name FROM candy_catalog WHERE id = $1`, catalogID).Scan(&name)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("resolve catalog name: %w", err)
	}

	var id int64
	err = s.db.QueryRow(`
		INSERT INTO candy_counts (catalog_id, candy_name, count, year)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, catalogID, name, count, year).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create tally: %w", err)
	}
	return s.FindByID(id)
}

// Update re-points a tally to a different catalog item and/or changes its
// count. Returns ErrNotFound if the tally is absent, and ErrConflict when
// another tally already occupies (catalogID, same year); a re-point must
// never silently merge data.
func (s *TallyStore) Update(id, catalogID int64, count int) (*models.Tally, error) {
	existing, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}

	if existing.CatalogID == nil || *existing.CatalogID != catalogID {
		var occupied int64
		err := s.db.QueryRow(`
			SELECT id FROM candy_counts
			WHERE catalog_id = $1 AND year = $2 AND id != $3`,
			catalogID, existing.Year, id).Scan(&occupied)
		if err == nil {
			return nil, ErrConflict
		}
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("check tally conflict: %w", err)
		}
	}

	var name string
	err = s.db.QueryRow(`SELECT name FROM candy_catalog WHERE id = $1`, catalogID).Scan(&name)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("resolve catalog name: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE candy_counts SET catalog_id = $1, candy_name = $2, count = $3
		WHERE id = $4`, catalogID, name, count, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update tally: %w", err)
	}
	return s.FindByID(id)
}

// DeleteByID removes a tally row. Returns true if a row was removed.
func (s *TallyStore) DeleteByID(id int64) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM candy_counts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete tally: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete tally: %w", err)
	}
	return n > 0, nil
}

// ResetAll zeroes the counts for the given year, or for every year when
// nil. Rows are kept so the candy types remain on the board.
func (s *TallyStore) ResetAll(year *int) error {
	var err error
	if year != nil {
		_, err = s.db.Exec(`UPDATE candy_counts SET count = 0 WHERE year = $1`, *year)
	} else {
		_, err = s.db.Exec(`UPDATE candy_counts SET count = 0`)
	}
	if err != nil {
		return fmt.Errorf("reset tallies: %w", err)
	}
	return nil
}
