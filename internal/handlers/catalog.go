package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"candycounter/internal/cache"
	"candycounter/internal/models"
	"candycounter/internal/render"
	"candycounter/internal/store"
)

// Catalog groups the candy catalog management handlers.
type Catalog struct {
	renderer *render.Renderer
	catalog  *store.CatalogStore
	cache    *cache.DashboardCache
}

// NewCatalog creates a new Catalog handler group.
func NewCatalog(renderer *render.Renderer, catalog *store.CatalogStore, dashCache *cache.DashboardCache) *Catalog {
	return &Catalog{renderer: renderer, catalog: catalog, cache: dashCache}
}

// Page renders the catalog management page with retired entries included.
func (h *Catalog) Page(w http.ResponseWriter, r *http.Request) {
	data, ok := h.pageData(w)
	if !ok {
		return
	}
	h.renderer.Page(w, r, "catalog", data)
}

// renderPage re-renders the catalog page with a validation or conflict
// banner and the matching status code.
func (h *Catalog) renderPage(w http.ResponseWriter, r *http.Request, errMsg string, status int) {
	data, ok := h.pageData(w)
	if !ok {
		return
	}
	data.Error = errMsg
	h.renderer.PageStatus(w, r, "catalog", data, status)
}

// pageData loads the catalog listing, writing the error response itself
// when it cannot.
func (h *Catalog) pageData(w http.ResponseWriter) (*render.PageData, bool) {
	items, err := h.catalog.List(true)
	if err != nil {
		slog.Error("list catalog failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}

	var active []models.CatalogItem
	for _, it := range items {
		if it.IsActive {
			active = append(active, it)
		}
	}

	return &render.PageData{
		Title:   "Catalog",
		Section: "catalog",
		Year:    store.CurrentYear(),
		Data: map[string]any{
			"Items":       items,
			"ActiveItems": active,
		},
	}, true
}

// Create handles the new candy form submission.
func (h *Catalog) Create(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	description := r.FormValue("description")

	if msg := validateCandyName(name); msg != "" {
		h.renderPage(w, r, msg, http.StatusUnprocessableEntity)
		return
	}
	if msg := validateDescription(description); msg != "" {
		h.renderPage(w, r, msg, http.StatusUnprocessableEntity)
		return
	}

	if _, err := h.catalog.Create(name, description); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			h.renderPage(w, r, "A candy with that name already exists.", http.StatusConflict)
			return
		}
		slog.Error("create catalog item failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.cache.InvalidateAll(r.Context())
	http.Redirect(w, r, "/catalog", http.StatusSeeOther)
}

// Update handles renaming or re-describing a catalog entry.
func (h *Catalog) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idFromURL(w, r)
	if !ok {
		return
	}

	name := r.FormValue("name")
	description := r.FormValue("description")

	if msg := validateCandyName(name); msg != "" {
		h.renderPage(w, r, msg, http.StatusUnprocessableEntity)
		return
	}
	if msg := validateDescription(description); msg != "" {
		h.renderPage(w, r, msg, http.StatusUnprocessableEntity)
		return
	}

	if _, err := h.catalog.Update(id, name, description); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			http.Error(w, "Candy not found", http.StatusNotFound)
		case errors.Is(err, store.ErrDuplicateName):
			h.renderPage(w, r, "A candy with that name already exists.", http.StatusConflict)
		default:
			slog.Error("update catalog item failed", "id", id, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	h.cache.InvalidateAll(r.Context())
	http.Redirect(w, r, "/catalog", http.StatusSeeOther)
}

// Deactivate retires a candy from the catalog without touching its history.
func (h *Catalog) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

// Activate restores a retired candy.
func (h *Catalog) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Catalog) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, ok := h.idFromURL(w, r)
	if !ok {
		return
	}

	var changed bool
	var err error
	if active {
		changed, err = h.catalog.Activate(id)
	} else {
		changed, err = h.catalog.Deactivate(id)
	}
	if err != nil {
		slog.Error("set catalog active failed", "id", id, "active", active, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !changed {
		http.Error(w, "Candy not found", http.StatusNotFound)
		return
	}

	h.cache.InvalidateAll(r.Context())
	http.Redirect(w, r, "/catalog", http.StatusSeeOther)
}

// Merge folds one candy's tallies into another and retires the source.
func (h *Catalog) Merge(w http.ResponseWriter, r *http.Request) {
	sourceID, err1 := strconv.ParseInt(r.FormValue("source_id"), 10, 64)
	targetID, err2 := strconv.ParseInt(r.FormValue("target_id"), 10, 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	if msg := validateMergePair(sourceID, targetID); msg != "" {
		h.renderPage(w, r, msg, http.StatusUnprocessableEntity)
		return
	}

	if err := h.catalog.Merge(sourceID, targetID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			http.Error(w, "Candy not found", http.StatusNotFound)
		case errors.Is(err, store.ErrSameItem):
			h.renderPage(w, r, "Cannot merge a candy into itself.", http.StatusUnprocessableEntity)
		default:
			slog.Error("merge catalog items failed", "source", sourceID, "target", targetID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	h.cache.InvalidateAll(r.Context())
	http.Redirect(w, r, "/catalog", http.StatusSeeOther)
}

func (h *Catalog) idFromURL(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
