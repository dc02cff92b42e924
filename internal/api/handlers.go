package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/foxzi/mailpanel/internal/abtest"
	"github.com/foxzi/mailpanel/internal/campaign"
	"github.com/foxzi/mailpanel/internal/contacts"
	"github.com/foxzi/mailpanel/internal/session"
	"github.com/foxzi/mailpanel/internal/strapi"
	"github.com/foxzi/mailpanel/internal/validation"
)

// maxBodyBytes limits JSON request bodies
const maxBodyBytes = 1 << 20

// Error codes
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeUpstream     = "UPSTREAM_ERROR"
	CodeReport       = "REPORT_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
)

// ErrorResponse is the error response
type ErrorResponse struct {
	Error  string                  `json:"error"`
	Code   string                  `json:"code"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

// HealthResponse is the response for GET /health
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Uptime     string `json:"uptime"`
	ContentAPI string `json:"content_api,omitempty"`
}

// LoginRequest is the request body for POST /api/auth/login
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	Remember   bool   `json:"remember"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: s.deps.Version,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
	}
	if s.deps.Upstream != nil {
		resp.ContentAPI = s.deps.Upstream.BreakerState()
	}
	s.sendJSON(w, http.StatusOK, resp)
}

// handleLogin handles POST /api/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !s.decode(w, r, &req) {
		return
	}

	sess, err := s.deps.Sessions.Login(r.Context(), req.Identifier, req.Password, req.Remember)
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, sess)
}

// handleLogout handles POST /api/auth/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Sessions.Logout(r.Context()); err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSession handles GET /api/auth/session
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, currentSession(r))
}

// decode reads a JSON body into v, answering 400 on failure
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.sendError(w, http.StatusBadRequest, CodeValidation, "Invalid request body")
		return false
	}
	return true
}

// int64Param parses a numeric URL parameter, answering 400 on failure
func (s *Server) int64Param(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		s.sendError(w, http.StatusBadRequest, CodeValidation, name+" must be a positive integer")
		return 0, false
	}
	return v, true
}

// queryInt returns a positive integer query parameter or def
func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// sendJSON sends a JSON response
func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// sendError sends an error response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	s.sendJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// sendAPIError maps a service error to its HTTP status
func (s *Server) sendAPIError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	var apiErr *strapi.APIError

	switch {
	case errors.As(err, &verr):
		s.sendJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Message, Code: CodeValidation, Fields: verr.Fields})
	case errors.Is(err, session.ErrNoSession):
		s.sendError(w, http.StatusUnauthorized, CodeUnauthorized, "Not logged in")
	case errors.Is(err, session.ErrInvalidCredentials):
		s.sendError(w, http.StatusUnauthorized, CodeUnauthorized, "Invalid identifier or password")
	case errors.Is(err, campaign.ErrNotFound),
		errors.Is(err, abtest.ErrNotFound),
		errors.Is(err, contacts.ErrGroupNotFound):
		s.sendError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized:
		s.sendError(w, http.StatusUnauthorized, CodeUnauthorized, "Session rejected by content API")
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden:
		s.sendError(w, http.StatusForbidden, CodeForbidden, "Forbidden")
	case errors.As(err, &apiErr), errors.Is(err, strapi.ErrUnavailable):
		s.logger.Warn("content API request failed", "path", r.URL.Path, "error", err)
		s.sendError(w, http.StatusBadGateway, CodeUpstream, "Content API request failed")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.logger.Debug("request aborted", "path", r.URL.Path, "error", err)
		s.sendError(w, http.StatusGatewayTimeout, CodeUpstream, "Request aborted")
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		s.sendError(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
	}
}
