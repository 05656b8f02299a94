package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"

	"candycounter/internal/cache"
	"candycounter/internal/stats"
	"candycounter/internal/store"
)

// API serves the JSON endpoints backing the dashboard table and charts.
type API struct {
	tallies *store.TallyStore
	catalog *store.CatalogStore
	cache   *cache.DashboardCache
}

// NewAPI creates a new API handler group.
func NewAPI(tallies *store.TallyStore, catalog *store.CatalogStore, dashCache *cache.DashboardCache) *API {
	return &API{tallies: tallies, catalog: catalog, cache: dashCache}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("encode response failed", "error", err)
		}
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps store sentinel errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrDuplicateName):
		writeError(w, http.StatusConflict, "a candy with that name already exists")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "a tally for that candy and year already exists")
	case errors.Is(err, store.ErrSameItem):
		writeError(w, http.StatusBadRequest, "cannot merge a candy into itself")
	default:
		slog.Error("store operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func yearParam(r *http.Request) *int {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 {
		return nil
	}
	return &year
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// ListTallies returns one year's tallies with the insight summary. An
// absent year parameter scopes the listing to the current season, so the
// reported year always matches the rows summarized under it.
func (a *API) ListTallies(w http.ResponseWriter, r *http.Request) {
	year := store.CurrentYear()
	if y := yearParam(r); y != nil {
		year = *y
	}

	tallies, err := a.tallies.List(&year)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"year":    year,
		"tallies": tallies,
		"summary": stats.Summarize(tallies),
	})
}

type addTallyRequest struct {
	CatalogID int64 `json:"catalog_id"`
	Quantity  int   `json:"quantity"`
	Year      *int  `json:"year"`
}

// AddTally increments a candy's tally, creating the row when missing.
func (a *API) AddTally(w http.ResponseWriter, r *http.Request) {
	var req addTallyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if msg := validateQuantity(req.Quantity); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	if _, err := a.catalog.FindByID(req.CatalogID); err != nil {
		writeStoreError(w, err)
		return
	}

	tally, err := a.tallies.Increment(req.CatalogID, req.Quantity, req.Year)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	a.cache.InvalidateAll(r.Context())
	writeJSON(w, http.StatusCreated, tally)
}

type updateTallyRequest struct {
	CatalogID int64 `json:"catalog_id"`
	Count     int   `json:"count"`
}

// UpdateTally re-points a tally at a different candy and/or sets its count.
func (a *API) UpdateTally(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req updateTallyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateCount(req.Count); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	if req.CatalogID < 1 {
		writeError(w, http.StatusBadRequest, "invalid catalog_id")
		return
	}

	tally, err := a.tallies.Update(id, req.CatalogID, req.Count)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	a.cache.InvalidateAll(r.Context())
	writeJSON(w, http.StatusOK, tally)
}

// DeleteTally removes a tally row.
func (a *API) DeleteTally(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	deleted, err := a.tallies.DeleteByID(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	a.cache.InvalidateAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// ResetTallies zeroes all counts for one year.
func (a *API) ResetTallies(w http.ResponseWriter, r *http.Request) {
	if err := a.tallies.ResetAll(yearParam(r)); err != nil {
		writeStoreError(w, err)
		return
	}

	a.cache.InvalidateAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// CompareYears returns the year-over-year movement for the dashboard.
func (a *API) CompareYears(w http.ResponseWriter, r *http.Request) {
	year := store.CurrentYear()
	if y := yearParam(r); y != nil {
		year = *y
	}
	previous := year - 1

	current, err := a.tallies.List(&year)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	prior, err := a.tallies.List(&previous)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"year":       year,
		"previous":   previous,
		"comparison": stats.Compare(stats.Summarize(current), stats.Summarize(prior)),
	})
}

// ListYears returns every year that has at least one tally. The current
// calendar year is always included, even before its first tally, so
// callers can offer the running season unconditionally.
func (a *API) ListYears(w http.ResponseWriter, r *http.Request) {
	years, err := a.tallies.AvailableYears()
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if current := store.CurrentYear(); !slices.Contains(years, current) {
		years = append(years, current)
		slices.SortFunc(years, func(a, b int) int { return b - a })
	}

	writeJSON(w, http.StatusOK, map[string]any{"years": years})
}

// ListCatalog returns catalog entries, optionally including retired ones.
func (a *API) ListCatalog(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	items, err := a.catalog.List(includeInactive)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type catalogRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateCatalogItem adds a new candy to the catalog.
func (a *API) CreateCatalogItem(w http.ResponseWriter, r *http.Request) {
	var req catalogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateCandyName(req.Name); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	if msg := validateDescription(req.Description); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	item, err := a.catalog.Create(req.Name, req.Description)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	a.cache.InvalidateAll(r.Context())
	writeJSON(w, http.StatusCreated, item)
}

// UpdateCatalogItem renames or re-describes a candy.
func (a *API) UpdateCatalogItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req catalogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateCandyName(req.Name); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	if msg := validateDescription(req.Description); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	item, err := a.catalog.Update(id, req.Name, req.Description)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	a.cache.InvalidateAll(r.Context())
	writeJSON(w, http.StatusOK, item)
}

// SetCatalogActive toggles a candy's retired state.
func (a *API) SetCatalogActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}

		var changed bool
		var err error
		if active {
			changed, err = a.catalog.Activate(id)
		} else {
			changed, err = a.catalog.Deactivate(id)
		}
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if !changed {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		a.cache.InvalidateAll(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}
}

type mergeRequest struct {
	SourceID int64 `json:"source_id"`
	TargetID int64 `json:"target_id"`
}

// MergeCatalogItems folds the source candy into the target.
func (a *API) MergeCatalogItems(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateMergePair(req.SourceID, req.TargetID); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	if err := a.catalog.Merge(req.SourceID, req.TargetID); err != nil {
		writeStoreError(w, err)
		return
	}

	a.cache.InvalidateAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
