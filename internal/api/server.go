// Package api serves the read-only ops endpoints: health, metrics, and
// on-demand group reports.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ykarpov/chorebank/internal/service"
	"github.com/ykarpov/chorebank/internal/storage"
)

// Server exposes the ops HTTP surface. It never mutates state.
type Server struct {
	store  storage.Store
	groups *service.GroupService
	logger *slog.Logger
}

// NewServer creates the ops server.
func NewServer(store storage.Store, groups *service.GroupService, logger *slog.Logger) *Server {
	return &Server{store: store, groups: groups, logger: logger}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/v1/groups", s.listGroups)
	r.Get("/v1/groups/{groupID}/results", s.groupResults)

	return r
}

type groupSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	StartDay       string `json:"start_day"`
	SprintDuration int    `json:"sprint_duration"`
	GroupBalance   string `json:"group_balance"`
	LastSettledOn  string `json:"last_settled_on,omitempty"`
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.ListGroups(r.Context())
	if err != nil {
		s.logger.Error("list groups failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	out := make([]groupSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupSummary{
			ID:             g.ID,
			Name:           g.Name,
			StartDay:       g.StartDay,
			SprintDuration: g.SprintDuration,
			GroupBalance:   g.GroupBalance.String(),
			LastSettledOn:  g.LastSettledOn,
		})
	}
	writeJSON(w, out)
}

func (s *Server) groupResults(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	report, err := s.groups.CurrentReport(r.Context(), groupID, time.Now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "group not found", http.StatusNotFound)
			return
		}
		s.logger.Error("group report failed", "group_id", groupID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, report)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// requestLogger logs all incoming requests.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
