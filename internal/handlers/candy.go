// Package handlers contains the HTTP handlers for the candy counter.
// Handlers are grouped by concern (candy tallies, catalog, JSON API) and
// receive their dependencies through the handler struct.
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"

	"candycounter/internal/cache"
	"candycounter/internal/models"
	"candycounter/internal/render"
	"candycounter/internal/stats"
	"candycounter/internal/store"
)

// Candy groups the dashboard and tally mutation handlers.
type Candy struct {
	renderer *render.Renderer
	tallies  *store.TallyStore
	catalog  *store.CatalogStore
	cache    *cache.DashboardCache
}

// NewCandy creates a new Candy handler group.
func NewCandy(renderer *render.Renderer, tallies *store.TallyStore, catalog *store.CatalogStore, dashCache *cache.DashboardCache) *Candy {
	return &Candy{
		renderer: renderer,
		tallies:  tallies,
		catalog:  catalog,
		cache:    dashCache,
	}
}

// Dashboard renders the year-scoped candy dashboard. Plain GETs are
// served from the Valkey page cache when possible.
func (c *Candy) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	year := yearOrCurrent(r.URL.Query().Get("year"))

	if cached, ok := c.cache.Get(ctx, cache.YearKey(year)); ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(cached)
		return
	}

	data, err := c.dashboardData(year)
	if err != nil {
		slog.Error("build dashboard failed", "year", year, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := c.renderer.Render(&buf, "dashboard", data); err != nil {
		slog.Error("render dashboard failed", "year", year, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	c.cache.Set(ctx, cache.YearKey(year), buf.Bytes())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// dashboardData assembles everything the dashboard template needs for
// one year: tallies, insight figures, the previous-year comparison, and
// the year selector options.
func (c *Candy) dashboardData(year int) (*render.PageData, error) {
	tallies, err := c.tallies.List(&year)
	if err != nil {
		return nil, fmt.Errorf("list tallies: %w", err)
	}

	previous := year - 1
	previousTallies, err := c.tallies.List(&previous)
	if err != nil {
		return nil, fmt.Errorf("list previous tallies: %w", err)
	}

	years, err := c.tallies.AvailableYears()
	if err != nil {
		return nil, fmt.Errorf("list years: %w", err)
	}
	// The selector always offers the current and recent seasons plus
	// the year being viewed, even before any of them has a tally.
	for _, y := range append(stats.PastYears(store.CurrentYear(), 2), year) {
		if !slices.Contains(years, y) {
			years = append(years, y)
		}
	}
	slices.SortFunc(years, func(a, b int) int { return b - a })

	items, err := c.catalog.List(false)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	summary := stats.Summarize(tallies)
	return &render.PageData{
		Title:   fmt.Sprintf("Candy %d", year),
		Section: "dashboard",
		Year:    year,
		Data: map[string]any{
			"Tallies":      tallies,
			"Summary":      summary,
			"Comparison":   stats.Compare(summary, stats.Summarize(previousTallies)),
			"PreviousYear": previous,
			"Years":        years,
			"CatalogItems": items,
		},
	}, nil
}

// Add handles the dashboard add form: increments the selected candy's
// tally for the chosen year, creating the row on first sighting.
func (c *Candy) Add(w http.ResponseWriter, r *http.Request) {
	year := yearOrCurrent(r.FormValue("year"))

	catalogID, err := strconv.ParseInt(r.FormValue("catalog_id"), 10, 64)
	if err != nil || catalogID < 1 {
		http.Error(w, "Invalid catalog ID", http.StatusBadRequest)
		return
	}

	quantity := 1
	if raw := r.FormValue("quantity"); raw != "" {
		quantity, err = strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid quantity", http.StatusBadRequest)
			return
		}
	}
	if msg := validateQuantity(quantity); msg != "" {
		c.dashboardError(w, r, year, msg, http.StatusUnprocessableEntity)
		return
	}

	if _, err := c.catalog.FindByID(catalogID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Candy not found", http.StatusNotFound)
			return
		}
		slog.Error("find catalog item failed", "id", catalogID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if _, err := c.tallies.Increment(catalogID, quantity, &year); err != nil {
		slog.Error("increment tally failed", "catalog_id", catalogID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	c.invalidate(r)
	c.redirectDashboard(w, r, year)
}

// Increment adds one piece to an existing tally row.
func (c *Candy) Increment(w http.ResponseWriter, r *http.Request) {
	c.adjust(w, r, +1)
}

// Decrement removes one piece from an existing tally row, flooring at zero.
func (c *Candy) Decrement(w http.ResponseWriter, r *http.Request) {
	c.adjust(w, r, -1)
}

func (c *Candy) adjust(w http.ResponseWriter, r *http.Request, delta int) {
	tally, ok := c.tallyFromURL(w, r)
	if !ok {
		return
	}
	if tally.CatalogID == nil {
		// Pre-catalog rows that the backfill could not link.
		http.Error(w, "Tally is not linked to a catalog candy", http.StatusConflict)
		return
	}

	var err error
	if delta > 0 {
		_, err = c.tallies.Increment(*tally.CatalogID, delta, &tally.Year)
	} else {
		_, err = c.tallies.Decrement(*tally.CatalogID, -delta, &tally.Year)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Tally not found", http.StatusNotFound)
			return
		}
		slog.Error("adjust tally failed", "id", tally.ID, "delta", delta, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	c.invalidate(r)
	c.redirectDashboard(w, r, tally.Year)
}

// Delete removes a tally row entirely.
func (c *Candy) Delete(w http.ResponseWriter, r *http.Request) {
	tally, ok := c.tallyFromURL(w, r)
	if !ok {
		return
	}

	deleted, err := c.tallies.DeleteByID(tally.ID)
	if err != nil {
		slog.Error("delete tally failed", "id", tally.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "Tally not found", http.StatusNotFound)
		return
	}

	c.invalidate(r)
	c.redirectDashboard(w, r, tally.Year)
}

// Reset zeroes every count for one year.
func (c *Candy) Reset(w http.ResponseWriter, r *http.Request) {
	year := yearOrCurrent(r.FormValue("year"))

	if err := c.tallies.ResetAll(&year); err != nil {
		slog.Error("reset tallies failed", "year", year, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	c.invalidate(r)
	c.redirectDashboard(w, r, year)
}

// tallyFromURL resolves the {id} URL parameter to a tally row, writing
// the error response itself when it cannot.
func (c *Candy) tallyFromURL(w http.ResponseWriter, r *http.Request) (tally *models.Tally, ok bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return nil, false
	}

	tally, err = c.tallies.FindByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Tally not found", http.StatusNotFound)
			return nil, false
		}
		slog.Error("find tally failed", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	return tally, true
}

// dashboardError re-renders the dashboard with a validation banner.
func (c *Candy) dashboardError(w http.ResponseWriter, r *http.Request, year int, msg string, status int) {
	data, err := c.dashboardData(year)
	if err != nil {
		slog.Error("build dashboard failed", "year", year, "error", err)
		http.Error(w, msg, status)
		return
	}
	data.Error = msg
	c.renderer.PageStatus(w, r, "dashboard", data, status)
}

func (c *Candy) invalidate(r *http.Request) {
	c.cache.InvalidateAll(r.Context())
}

func (c *Candy) redirectDashboard(w http.ResponseWriter, r *http.Request, year int) {
	http.Redirect(w, r, "/?year="+url.QueryEscape(strconv.Itoa(year)), http.StatusSeeOther)
}

// yearOrCurrent parses an optional year string, falling back to the
// current calendar year when absent or malformed.
func yearOrCurrent(raw string) int {
	if raw == "" {
		return store.CurrentYear()
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 {
		return store.CurrentYear()
	}
	return year
}
