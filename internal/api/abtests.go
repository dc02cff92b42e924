package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foxzi/mailpanel/internal/abtest"
	"github.com/foxzi/mailpanel/internal/report"
)

// SimulateRequest is the request body for POST /api/abtests/simulate
type SimulateRequest struct {
	SentA int `json:"sentA"`
	SentB int `json:"sentB"`
}

// handleABTestsList handles GET /api/abtests
func (s *Server) handleABTestsList(w http.ResponseWriter, r *http.Request) {
	tests, err := s.deps.ABTests.Repository().List(r.Context())
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, tests)
}

// handleABTestsCreate handles POST /api/abtests
func (s *Server) handleABTestsCreate(w http.ResponseWriter, r *http.Request) {
	var req abtest.Request
	if !s.decode(w, r, &req) {
		return
	}

	t, err := s.deps.ABTests.Create(r.Context(), req)
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusCreated, t)
}

// handleABTestsSimulate handles POST /api/abtests/simulate
func (s *Server) handleABTestsSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.sendJSON(w, http.StatusOK, s.deps.ABTests.Simulate(req.SentA, req.SentB))
}

// handleABTestsGet handles GET /api/abtests/{id}
func (s *Server) handleABTestsGet(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.ABTests.Repository().GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	if t == nil {
		s.sendAPIError(w, r, abtest.ErrNotFound)
		return
	}
	s.sendJSON(w, http.StatusOK, t)
}

// handleABTestsDelete handles DELETE /api/abtests/{id}
func (s *Server) handleABTestsDelete(w http.ResponseWriter, r *http.Request) {
	removed, err := s.deps.ABTests.Repository().Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	if !removed {
		s.sendAPIError(w, r, abtest.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleABTestsRerun handles POST /api/abtests/{id}/rerun
func (s *Server) handleABTestsRerun(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.ABTests.Rerun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, t)
}

// handleABTestsReport handles GET /api/abtests/{id}/report.pdf
func (s *Server) handleABTestsReport(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.ABTests.Repository().GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	if t == nil {
		s.sendAPIError(w, r, abtest.ErrNotFound)
		return
	}

	doc, err := report.BuildABTestReport(*t)
	if err != nil {
		s.logger.Error("failed to build A/B test report", "id", t.ID, "error", err)
		s.sendError(w, http.StatusInternalServerError, CodeReport, "Failed to build report")
		return
	}
	s.sendPDF(w, doc)
}
