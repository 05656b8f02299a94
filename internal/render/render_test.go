package render

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"candycounter/internal/models"
	"candycounter/internal/stats"
)

func dashboardData() *PageData {
	tallies := []models.Tally{
		{ID: 1, CandyName: "Snickers", Count: 5, Year: 2026},
		{ID: 2, CandyName: "Twix", Count: 3, Year: 2026},
	}
	return &PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Year:    2026,
		Data: map[string]any{
			"Tallies":      tallies,
			"Summary":      stats.Summarize(tallies),
			"Comparison":   stats.Comparison{},
			"PreviousYear": 2025,
			"Years":        []int{2026, 2025},
			"CatalogItems": []models.CatalogItem{{ID: 1, Name: "Snickers", IsActive: true}},
		},
	}
}

func TestNewParsesAllTemplates(t *testing.T) {
	rn, err := New()
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	for _, name := range []string{"dashboard", "catalog"} {
		if _, ok := rn.templates[name]; !ok {
			t.Errorf("template %q not parsed", name)
		}
	}
	if _, ok := rn.templates["base"]; ok {
		t.Error("base layout should not be registered as a page")
	}
}

func TestRenderDashboard(t *testing.T) {
	rn, err := New()
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	var buf bytes.Buffer
	if err := rn.Render(&buf, "dashboard", dashboardData()); err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}

	html := buf.String()
	for _, want := range []string{"Candy for 2026", "Snickers", "Twix", "Total pieces"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered dashboard missing %q", want)
		}
	}
}

func TestRenderCatalog(t *testing.T) {
	rn, err := New()
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	data := &PageData{
		Title:   "Catalog",
		Section: "catalog",
		Year:    2026,
		Data: map[string]any{
			"Items": []models.CatalogItem{
				{ID: 1, Name: "Snickers", IsActive: true},
				{ID: 2, Name: "Mars", IsActive: false},
			},
			"ActiveItems": []models.CatalogItem{{ID: 1, Name: "Snickers", IsActive: true}},
		},
	}

	var buf bytes.Buffer
	if err := rn.Render(&buf, "catalog", data); err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}

	html := buf.String()
	if !strings.Contains(html, "retired") {
		t.Error("inactive item should be marked retired")
	}
	if !strings.Contains(html, "Merge duplicates") {
		t.Error("merge form missing")
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	rn, err := New()
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	if err := rn.Render(&bytes.Buffer{}, "nope", &PageData{}); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestPageFullAndPartial(t *testing.T) {
	rn, err := New()
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	t.Run("full page includes layout", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		rn.Page(rr, req, "dashboard", dashboardData())

		if rr.Code != http.StatusOK {
			t.Fatalf("status: got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "<!DOCTYPE html>") {
			t.Error("full page should include the base layout")
		}
	})

	t.Run("htmx request renders content only", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("HX-Request", "true")
		rr := httptest.NewRecorder()
		rn.Page(rr, req, "dashboard", dashboardData())

		body := rr.Body.String()
		if strings.Contains(body, "<!DOCTYPE html>") {
			t.Error("partial should not include the base layout")
		}
		if !strings.Contains(body, "Candy for 2026") {
			t.Error("partial should include the content block")
		}
	})

	t.Run("explicit status code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		data := dashboardData()
		data.Error = "Quantity must be at least 1."
		rn.PageStatus(rr, req, "dashboard", data, http.StatusUnprocessableEntity)

		if rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("status: got %d, want 422", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "Quantity must be at least 1.") {
			t.Error("error banner missing")
		}
	})
}
