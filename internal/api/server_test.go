package api_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ykarpov/chorebank/internal/api"
	"github.com/ykarpov/chorebank/internal/auth"
	"github.com/ykarpov/chorebank/internal/service"
	"github.com/ykarpov/chorebank/internal/storage/sqlite"
	"github.com/ykarpov/chorebank/internal/tokens"
)

func newTestHandler(t *testing.T) (http.Handler, *service.GroupService) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	groups := service.NewGroupService(store,
		auth.NewInviteManager("test-key", time.Hour),
		tokens.NewMemoryStore(time.Minute),
		logger,
	)
	return api.NewServer(store, groups, logger).Handler(), groups
}

func TestHealthz(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want ok", rec.Body.String())
	}
}

func TestListGroups(t *testing.T) {
	handler, groups := newTestHandler(t)

	if _, err := groups.CreateGroup(context.Background(), 1, "Anna", "flat", "secret123", "понедельник", 7); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/groups", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("groups = %d, want 1", len(out))
	}
	if out[0]["name"] != "flat" || out[0]["start_day"] != "понедельник" || out[0]["group_balance"] != "0" {
		t.Errorf("unexpected group summary: %v", out[0])
	}
}

func TestGroupResults(t *testing.T) {
	handler, groups := newTestHandler(t)

	group, err := groups.CreateGroup(context.Background(), 1, "Anna", "flat", "secret123", "понедельник", 7)
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/groups/"+group.ID+"/results", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var report service.Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if report.GroupID != group.ID || len(report.Members) != 1 {
		t.Errorf("unexpected report: %+v", report)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/groups/missing/results", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing group status = %d, want 404", rec.Code)
	}
}
