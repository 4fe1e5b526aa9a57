package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/leapstack-labs/leishu/internal/search"
	"github.com/leapstack-labs/leishu/pkg/core"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSearch serves the canonical conditions/filters request.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req search.Request
	if !s.decode(w, r, &req) {
		return
	}
	s.runSearch(w, r, req)
}

// handleBasicSearch serves the single-box search form.
func (s *Server) handleBasicSearch(w http.ResponseWriter, r *http.Request) {
	var req search.BasicRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.runSearch(w, r, req.Request())
}

// handleAdvancedSearch serves the multi-row search form.
func (s *Server) handleAdvancedSearch(w http.ResponseWriter, r *http.Request) {
	var req search.AdvancedRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.runSearch(w, r, req.Request())
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, req search.Request) {
	resp, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVariantSearch(w http.ResponseWriter, r *http.Request) {
	var req search.VariantRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.search.Variants(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req search.CompareRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.search.Compare(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// decode reads a JSON body into v and writes the error response itself
// when that fails.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// fail maps a service error to a response. Store failures are logged by
// the service and reported without internal detail.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrInvalidRequest) {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.log.Error("request failed", "path", r.URL.Path, "error", err)
	jsonError(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
