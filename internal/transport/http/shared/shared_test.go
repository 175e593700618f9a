package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidatorCollectsSortedIssues(t *testing.T) {
	v := NewValidator()
	v.Required("month", " ", "is required")
	if _, ok := v.Int("year", "20x4"); ok {
		t.Fatalf("expected integer failure")
	}
	if n, ok := v.Int("count", " 12 "); !ok || n != 12 {
		t.Fatalf("unexpected int parse: %d %v", n, ok)
	}
	v.Required("archive_file", "", "file is required")

	issues := v.Issues()
	if len(issues) != 3 || issues[0].Field != "archive_file" || issues[2].Field != "year" {
		t.Fatalf("unexpected issues: %+v", issues)
	}

	rec := httptest.NewRecorder()
	if !v.Reject(rec, "req") || rec.Code != http.StatusBadRequest {
		t.Fatalf("expected rejection with 400, got %d", rec.Code)
	}
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=500&offset=-3", nil)
	p := ParsePagination(req, 20, 100)
	if p.Limit != 100 || p.Offset != 0 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=5&offset=10", nil)
	p = ParsePagination(req, 20, 100)
	if p.Limit != 5 || p.Offset != 10 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
}
