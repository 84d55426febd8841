package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tilecraft/tilecraft/internal/source"
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		SourcesLoaded: len(s.engine.SourceIDs()),
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleSourceTypes handles GET /v1/source-types.
func (s *Server) handleSourceTypes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, SourceTypesResponse{Types: s.engine.TypeNames()})
}

// handleListSources handles GET /v1/sources.
func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	ids := s.engine.SourceIDs()
	resp := ListSourcesResponse{Sources: make([]SourceSummary, 0, len(ids))}
	for _, id := range ids {
		src := s.engine.Source(id)
		if src == nil {
			continue // removed between list and lookup
		}
		resp.Sources = append(resp.Sources, summarize(src, false))
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleGetSource handles GET /v1/sources/{id}. The response includes the
// serialized options the source was created from.
func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	src := s.engine.Source(id)
	if src == nil {
		s.writeError(w, http.StatusNotFound, "source not found")
		return
	}
	respondJSON(w, http.StatusOK, summarize(src, true))
}

// handlePutSource handles PUT /v1/sources/{id}: create or replace a source
// from a JSON options object.
func (s *Server) handlePutSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var opts source.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	replaced := s.engine.Source(id) != nil

	src, err := s.engine.AddSource(id, opts)
	if err != nil {
		if errors.Is(err, source.ErrUnknownSourceType) {
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := http.StatusCreated
	if replaced {
		status = http.StatusOK
	}
	respondJSON(w, status, summarize(src, true))
}

// handleDeleteSource handles DELETE /v1/sources/{id}.
func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.engine.RemoveSource(id); err != nil {
		s.writeError(w, http.StatusNotFound, "source not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func summarize(src source.Source, withOptions bool) SourceSummary {
	sum := SourceSummary{
		ID:      src.ID(),
		Type:    src.Type(),
		State:   src.State().String(),
		MinZoom: src.MinZoom(),
		MaxZoom: src.MaxZoom(),
	}
	if withOptions {
		sum.Options = src.Serialize()
	}
	return sum
}

func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
