package store

import (
	"database/sql"
	"fmt"
)

// Merge consolidates two catalog items: every tally of the source moves to
// the target, counts are summed where both sides already have a tally for
// the same year, and the source item is deactivated. The whole sequence
// runs in a single transaction: a partial merge would either double or
// lose candy counts, so any failure rolls the committed state back intact.
func (s *CatalogStore) Merge(sourceID, targetID int64) error {
	if sourceID == targetID {
		return ErrSameItem
	}

	if _, err := s.FindByID(sourceID); err != nil {
		return err
	}
	target, err := s.FindByID(targetID)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin merge: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT id, year, count FROM candy_counts
		WHERE catalog_id = $1`, sourceID)
	if err != nil {
		return fmt.Errorf("list source tallies: %w", err)
	}

	type srcTally struct {
		id    int64
		year  int
		count int
	}
	var source []srcTally
	for rows.Next() {
		var t srcTally
		if err := rows.Scan(&t.id, &t.year, &t.count); err != nil {
			rows.Close()
			return fmt.Errorf("scan source tally: %w", err)
		}
		source = append(source, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list source tallies: %w", err)
	}

	for _, t := range source {
		var targetRowID int64
		err := tx.QueryRow(`
			SELECT id FROM candy_counts
			WHERE catalog_id = $1 AND year = $2`, targetID, t.year).Scan(&targetRowID)

		switch {
		case err == nil:
			// Target already counts this year: fold the source count in,
			// then drop the now-redundant source row.
			if _, err := tx.Exec(`
				UPDATE candy_counts SET count = count + $1
				WHERE id = $2`, t.count, targetRowID); err != nil {
				return fmt.Errorf("fold counts for year %d: %w", t.year, err)
			}
			if _, err := tx.Exec(`DELETE FROM candy_counts WHERE id = $1`, t.id); err != nil {
				return fmt.Errorf("delete merged tally for year %d: %w", t.year, err)
			}
		case err == sql.ErrNoRows:
			// Target has no tally for this year: the row survives, now
			// owned by the target, with its name cache refreshed.
			if _, err := tx.Exec(`
				UPDATE candy_counts SET catalog_id = $1, candy_name = $2
				WHERE id = $3`, targetID, target.Name, t.id); err != nil {
				return fmt.Errorf("re-point tally for year %d: %w", t.year, err)
			}
		default:
			return fmt.Errorf("check target tally for year %d: %w", t.year, err)
		}
	}

	if _, err := tx.Exec(`
		UPDATE candy_catalog SET is_active = FALSE
		WHERE id = $1`, sourceID); err != nil {
		return fmt.Errorf("deactivate source item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit merge: %w", err)
	}
	return nil
}
