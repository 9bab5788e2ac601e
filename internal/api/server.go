// Package api provides REST API handlers for querying the normalized
// chart tables.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fidde/chart_normalizer/internal/storage"
	"github.com/fidde/chart_normalizer/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ReloadFunc re-runs the normalization pipeline and replaces the stored
// decomposition. Wired up by the composition root.
type ReloadFunc func(ctx context.Context) error

// Server is the REST API server.
type Server struct {
	store  storage.Storage
	reload ReloadFunc
	router *chi.Mux
	server *http.Server
}

// PaginationParams contains pagination parameters from query string.
type PaginationParams struct {
	Limit  int
	Offset int
}

// PaginatedResponse wraps a paginated response with metadata.
type PaginatedResponse struct {
	Data    interface{} `json:"data"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	HasMore bool        `json:"has_more"`
}

// parsePaginationParams extracts pagination parameters from request.
// Defaults: limit=100, offset=0, max_limit=1000
func parsePaginationParams(r *http.Request) PaginationParams {
	const (
		defaultLimit = 100
		maxLimit     = 1000
	)

	limit := defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
			if limit > maxLimit {
				limit = maxLimit
			}
		}
	}

	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	return PaginationParams{
		Limit:  limit,
		Offset: offset,
	}
}

// paginateSlice applies pagination to a slice.
func paginateSlice[T any](items []T, params PaginationParams) PaginatedResponse {
	total := len(items)
	start := params.Offset
	end := start + params.Limit

	// Bounds check
	if start >= total {
		return PaginatedResponse{
			Data:    []T{},
			Total:   total,
			Limit:   params.Limit,
			Offset:  params.Offset,
			HasMore: false,
		}
	}

	if end > total {
		end = total
	}

	return PaginatedResponse{
		Data:    items[start:end],
		Total:   total,
		Limit:   params.Limit,
		Offset:  params.Offset,
		HasMore: end < total,
	}
}

// NewServer creates a new API server. reload may be nil, in which case the
// admin reload endpoint responds 501.
func NewServer(addr string, store storage.Storage, reload ReloadFunc) *Server {
	s := &Server{
		store:  store,
		reload: reload,
		router: chi.NewRouter(),
	}

	// Middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Health endpoint
		r.Get("/health", s.HandleHealth)

		// Song (entity table) endpoints
		r.Get("/songs", s.listSongs)
		r.Get("/songs/{id}", s.getSong)
		r.Get("/songs/{id}/entries", s.listSongEntries)

		// Chart entry (observation table) endpoints
		r.Get("/entries", s.listEntriesByWeek)

		// Decomposition stats
		r.Get("/stats", s.getStats)

		// Admin endpoints
		r.Post("/admin/reload", s.reloadDataset)
		r.Post("/admin/clear", s.clearAllData)
	})
	s.router.Get("/health", s.HandleHealth)

	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	return s
}

// Start starts the API server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// listSongs returns the entity table, optionally filtered by exact artist.
// Supports pagination via ?limit=N&offset=M query parameters.
func (s *Server) listSongs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	artist := r.URL.Query().Get("artist")
	params := parsePaginationParams(r)

	songs, err := s.store.ListSongs(ctx, artist)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, paginateSlice(songs, params))
}

// getSong returns a specific song by surrogate key.
func (s *Server) getSong(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid song id")
		return
	}

	song, err := s.store.GetSong(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "song not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, song)
}

// listSongEntries returns a song's chart trajectory ordered by week.
func (s *Server) listSongEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid song id")
		return
	}

	entries, err := s.store.ListEntriesBySong(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "song not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"data":  entries,
		"total": len(entries),
	})
}

// listEntriesByWeek returns one chart week ordered by rank. The week query
// parameter is required.
// Supports pagination via ?limit=N&offset=M query parameters.
func (s *Server) listEntriesByWeek(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	weekStr := r.URL.Query().Get("week")
	if weekStr == "" {
		s.respondError(w, http.StatusBadRequest, "week query parameter is required")
		return
	}
	week, err := strconv.Atoi(weekStr)
	if err != nil || week < 1 {
		s.respondError(w, http.StatusBadRequest, "invalid week")
		return
	}
	params := parsePaginationParams(r)

	entries, err := s.store.ListEntriesByWeek(ctx, week)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, paginateSlice(entries, params))
}

// getStats returns table cardinalities and the normalization stage trail.
func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := s.store.Stats(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, stats)
}

// reloadDataset re-runs the normalization pipeline from the source file.
// POST /api/v1/admin/reload
func (s *Server) reloadDataset(w http.ResponseWriter, r *http.Request) {
	if s.reload == nil {
		s.respondError(w, http.StatusNotImplemented, "reload is not configured")
		return
	}

	if err := s.reload(r.Context()); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{
		"message": "Dataset reloaded successfully",
	})
}

// clearAllData clears all data from the storage.
// POST /api/v1/admin/clear
func (s *Server) clearAllData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.store.Clear(ctx); err != nil {
		s.respondError(w, http.StatusInternalServerError, "Failed to clear data")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{
		"message": "All data cleared successfully",
	})
}

// respondJSON writes a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}
