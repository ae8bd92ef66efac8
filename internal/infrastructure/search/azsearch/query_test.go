package azsearch

import (
	"testing"

	"github.com/emreakar/regsearch/internal/core/ports"
)

func TestBuildSearchTextKeywordsReplaceQueryText(t *testing.T) {
	got := buildSearchText("emission limits for vehicles", []string{"emission", "vehicle"})
	want := `"emission"^4 OR "vehicle"^4`
	if got != want {
		t.Fatalf("buildSearchText() = %q, want %q", got, want)
	}
}

func TestBuildSearchTextSkipsBlankKeywords(t *testing.T) {
	got := buildSearchText("question", []string{"", "  ", "real"})
	want := `"real"^4`
	if got != want {
		t.Fatalf("buildSearchText() = %q, want %q", got, want)
	}
}

func TestBuildSearchTextFallsBackToQueryWithoutKeywords(t *testing.T) {
	got := buildSearchText("emission limits for vehicles", []string{"", "  "})
	if got != "emission limits for vehicles" {
		t.Fatalf("buildSearchText() = %q, want the raw query", got)
	}
}

func TestBuildSearchTextEmptyFallsBackToMatchAll(t *testing.T) {
	if got := buildSearchText("", nil); got != "*" {
		t.Fatalf("buildSearchText() = %q, want *", got)
	}
}

func TestBuildFilterDateRange(t *testing.T) {
	got := buildFilter(ports.SearchFilter{
		BeginDate: "2023-01-01T00:00:00-00:00",
		EndDate:   "2023-12-31T00:00:00-00:00",
	})
	want := "date ge 2023-01-01T00:00:00-00:00 and date le 2023-12-31T00:00:00-00:00"
	if got != want {
		t.Fatalf("buildFilter() = %q, want %q", got, want)
	}
}

func TestBuildFilterTitleRestriction(t *testing.T) {
	got := buildFilter(ports.SearchFilter{
		BeginDate: "2023-01-01T00:00:00-00:00",
		Titles:    []string{"Reg A", "O'Brien's Law"},
	})
	want := "date ge 2023-01-01T00:00:00-00:00 and (title eq 'Reg A' or title eq 'O''Brien''s Law')"
	if got != want {
		t.Fatalf("buildFilter() = %q, want %q", got, want)
	}
}

func TestBuildFilterSingleTitleUnparenthesized(t *testing.T) {
	got := buildFilter(ports.SearchFilter{Titles: []string{"Reg A"}})
	if got != "title eq 'Reg A'" {
		t.Fatalf("buildFilter() = %q", got)
	}
}

func TestBuildFilterEmpty(t *testing.T) {
	if got := buildFilter(ports.SearchFilter{}); got != "" {
		t.Fatalf("expected empty filter, got %q", got)
	}
}
