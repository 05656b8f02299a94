package store

import (
	"errors"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestTallyStoreIncrementAccumulates(t *testing.T) {
	db := testDB(t)
	catalog := NewCatalogStore(db)
	tallies := NewTallyStore(db)

	item := createItem(t, catalog, db, testName("test-inc"))
	year := 2024

	first, err := tallies.Increment(item.ID, 3, &year)
	if err != nil {
		t.Fatalf("first Increment: %v", err)
	}
	if first.Count != 3 {
		t.Errorf("count after first increment: got %d, want 3", first.Count)
	}
	if first.CandyName != item.Name {
		t.Errorf("denormalized name: got %q, want %q", first.CandyName, item.Name)
	}

	second, err := tallies.Increment(item.ID, 4, &year)
	if err != nil {
		t.Fatalf("second Increment: %v", err)
	}
	if second.Count != 7 {
		t.Errorf("count after second increment: got %d, want 7", second.Count)
	}
	if second.ID != first.ID {
		t.Error("increment must update the existing row, not create a second one")
	}

	// A different year gets an independent tally.
	otherYear := 2023
	other, err := tallies.Increment(item.ID, 5, &otherYear)
	if err != nil {
		t.Fatalf("Increment other year: %v", err)
	}
	if other.ID == first.ID {
		t.Error("different year should create a separate row")
	}
	if other.Count != 5 {
		t.Errorf("other year count: got %d, want 5", other.Count)
	}

	// Still exactly one row per (catalog item, year).
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM candy_counts WHERE catalog_id = $1 AND year = $2`,
		item.ID, year).Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if n != 1 {
		t.Errorf("rows for (item, year): got %d, want 1", n)
	}
}

func TestTallyStoreDecrementFloorsAtZero(t *testing.T) {
	db := testDB(t)
	catalog := NewCatalogStore(db)
	tallies := NewTallyStore(db)

	item := createItem(t, catalog, db, testName("test-dec"))
	year := 2024

	if _, err := tallies.Increment(item.ID, 3, &year); err != nil {
		t.Fatalf("Increment: %v", err)
	}

	got, err := tallies.Decrement(item.ID, 10, &year)
	if err != nil {
		t.Fatalf("Decrement: %v", err)
	}
	if got.Count != 0 {
		t.Errorf("count after over-decrement: got %d, want 0", got.Count)
	}
}

func TestTallyStoreDecrementMissing(t *testing.T) {
	db := testDB(t)
	catalog := NewCatalogStore(db)
	tallies := NewTallyStore(db)

	item := createItem(t, catalog, db, testName("test-dec-missing"))
	year := 2024

	// Decrement never creates.
	if _, err := tallies.Decrement(item.ID, 1, &year); !errors.Is(err, ErrNotFound) {
		t.Errorf("Decrement without tally: got %v, want ErrNotFound", err)
	}
}

func TestTallyStoreSetCount(t *testing.T) {
	db := testDB(t)
	catalog := NewCatalogStore(db)
	tallies := NewTallyStore(db)

	item := createItem(t, catalog, db, testName("test-set"))
	year := 2024

	created, err := tallies.SetCount(item.ID, 12, &year)
	if err != nil {
		t.Fatalf("SetCount create: %v", err)
	}
	if created.Count != 12 {
		t.Errorf("count: got %d, want 12", created.Count)
	}
	if created.CandyName != item.Name {
		t.Errorf("denormalized name: got %q, want %q", created.CandyName, item.Name)
	}

	updated, err := tallies.SetCount(item.ID, 4, &year)
	if err != nil {
		t.Fatalf("SetCount update: %v", err)
	}
	if updated.Count != 4 {
		t.Errorf("count after set: got %d, want 4", updated.Count)
	}
	if updated.ID != created.ID {
		t.Error("SetCount must update in place")
	}
}

func TestTallyStoreUpdateRePoint(t *testing.T) {
	db := testDB(t)
	catalog := NewCatalogStore(db)
	tallies := NewTallyStore(db)

	a := createItem(t, catalog, db, testName("test-repoint-a"))
	b := createItem(t, catalog, db, testName("test-repoint-b"))
	year := 2024

	tallyA, err := tallies.Increment(a.ID, 5, &year)
	if err != nil {
		t.Fatalf("Increment a: %v", err)
	}

	// Re-point to an unoccupied item: name cache follows.
	moved, err := tallies.Update(tallyA.ID, b.ID, 9)
	if err != nil {
		t.Fatalf("Update re-point: %v", err)
	}
	if moved.CatalogID == nil || *moved.CatalogID != b.ID {
		t.Errorf("catalog id: got %v, want %d", moved.CatalogID, b.ID)
	}
	if moved.CandyName != b.Name {
		t.Errorf("name after re-point: got %q, want %q", moved.CandyName, b.Name)
	}
	if moved.Count != 9 {
		t.Errorf("count: got %d, want 9", moved.Count)
	}

	// Re-pointing onto an occupied (item, year) must not silently merge.
	tallyAgain, err := tallies.Increment(a.ID, 1, &year)
	if err != nil {
		t.Fatalf("Increment a again: %v", err)
	}
	if _, err := tallies.Update(tallyAgain.ID, b.ID, 1); !errors.Is(err, ErrConflict) {
		t.Errorf("conflicting re-point: got %v, want ErrConflict", err)
	}

	if _, err := tallies.Update(-1, b.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing tally: got %v, want ErrNotFound", err)
	}
}

func TestTallyStoreDeleteAndReset(t *testing.T) {
	db := testDB(t)
	catalog := NewCatalogStore(db)
	tallies := NewTallyStore(db)

	item := createItem(t, catalog, db, testName("test-delete"))
	year := 2024

	tally, err := tallies.Increment(item.ID, 8, &year)
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}

	ok, err := tallies.DeleteByID(tally.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteByID: ok=%v err=%v", ok, err)
	}
	ok, err = tallies.DeleteByID(tally.ID)
	if err != nil {
		t.Fatalf("second DeleteByID: %v", err)
	}
	if ok {
		t.Error("deleting an absent row should report false")
	}

	// ResetAll zeroes counts but keeps the rows.
	kept, err := tallies.Increment(item.ID, 6, &year)
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if err := tallies.ResetAll(&year); err != nil {
		t.Fatalf("ResetAll: %v", err)
	}
	after, err := tallies.FindByID(kept.ID)
	if err != nil {
		t.Fatalf("FindByID after reset: %v", err)
	}
	if after.Count != 0 {
		t.Errorf("count after reset: got %d, want 0", after.Count)
	}
}

func TestTallyStoreAvailableYears(t *testing.T) {
	db := testDB(t)
	catalog := NewCatalogStore(db)
	tallies := NewTallyStore(db)

	item := createItem(t, catalog, db, testName("test-years"))
	for _, y := range []int{2022, 2024, 2023} {
		year := y
		if _, err := tallies.Increment(item.ID, 1, &year); err != nil {
			t.Fatalf("Increment %d: %v", y, err)
		}
	}

	years, err := tallies.AvailableYears()
	if err != nil {
		t.Fatalf("AvailableYears: %v", err)
	}
	for i := 1; i < len(years); i++ {
		if years[i] >= years[i-1] {
			t.Fatalf("years not strictly descending: %v", years)
		}
	}
	want := map[int]bool{2022: true, 2023: true, 2024: true}
	for _, y := range years {
		delete(want, y)
	}
	if len(want) != 0 {
		t.Errorf("missing years in result: %v", want)
	}
}

func TestTallyStoreListOrdering(t *testing.T) {
	db := testDB(t)
	catalog := NewCatalogStore(db)
	tallies := NewTallyStore(db)

	// Use a far-future year so other tests' rows cannot interleave.
	year := 2998

	zebra := createItem(t, catalog, db, "zzz-"+testName("list"))
	apple := createItem(t, catalog, db, "aaa-"+testName("list"))
	for _, item := range []int64{zebra.ID, apple.ID} {
		if _, err := tallies.Increment(item, 1, &year); err != nil {
			t.Fatalf("Increment: %v", err)
		}
	}

	list, err := tallies.List(&year)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list size: got %d, want 2", len(list))
	}
	if list[0].CandyName >= list[1].CandyName {
		t.Errorf("list not ordered by name: %q before %q", list[0].CandyName, list[1].CandyName)
	}
}
