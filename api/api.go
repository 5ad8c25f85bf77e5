// Package api exposes the pipeline's outputs to the presentation
// collaborator: read the collection, observe the pending count, and trigger
// the two documented actions (refresh now, commit pending). It never mutates
// pipeline state directly.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pevans/newswire"
	"github.com/pevans/newswire/reconcile"
)

// maxLimit caps the items returned per request regardless of the query.
const maxLimit = 1000

// Server is the HTTP surface over the reconciliation engine.
type Server struct {
	engine *reconcile.Engine
	batch  int
	logger *slog.Logger
}

// New creates a server. batch is the default page size when the caller
// passes no explicit limit.
func New(engine *reconcile.Engine, batch int, logger *slog.Logger) *Server {
	return &Server{
		engine: engine,
		batch:  batch,
		logger: logger,
	}
}

// ListItemsResponse is the payload of GET /api/v1/items.
type ListItemsResponse struct {
	Items []newswire.Item `json:"items"`
	Total int             `json:"total"`
	Limit int             `json:"limit"`
}

// PendingResponse is the payload of GET /api/v1/pending. Count only: staged
// content stays private until commit.
type PendingResponse struct {
	Count int `json:"count"`
}

// CommitResponse is the payload of POST /api/v1/commit.
type CommitResponse struct {
	Committed []newswire.Item `json:"committed"`
	Count     int             `json:"count"`
}

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Router returns the configured mux.
func (s *Server) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/items", s.handleListItems)
	mux.HandleFunc("GET /api/v1/pending", s.handlePending)
	mux.HandleFunc("POST /api/v1/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/v1/commit", s.handleCommit)
	return mux
}

// handleListItems returns the current collection, newest first, bounded by
// the limit parameter or the configured batch size.
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	limit := s.batch
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid_parameter", "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	items := s.engine.Store().Items()
	total := len(items)
	if len(items) > limit {
		items = items[:limit]
	}

	s.writeJSON(w, http.StatusOK, ListItemsResponse{
		Items: items,
		Total: total,
		Limit: limit,
	})
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, PendingResponse{
		Count: s.engine.Store().PendingCount(),
	})
}

// handleRefresh triggers a background refresh cycle and returns immediately.
// The engine serializes cycles internally, so repeated requests queue rather
// than overlap.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	go s.engine.Refresh(context.Background(), false)
	w.WriteHeader(http.StatusAccepted)
}

// handleCommit merges the pending set and reports the newly visible items.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	fresh := s.engine.Commit()
	if fresh == nil {
		fresh = []newswire.Item{}
	}
	s.writeJSON(w, http.StatusOK, CommitResponse{
		Committed: fresh,
		Count:     len(fresh),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}
