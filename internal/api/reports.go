package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/foxzi/mailpanel/internal/report"
	"github.com/foxzi/mailpanel/internal/strapi"
)

// handleReportSummary handles GET /api/reports/summary
func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	rep, err := s.deps.Reports.GetUserCampaigns(r.Context(), currentSession(r).User.ID)
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, rep)
}

// handleReportSummaryPDF handles GET /api/reports/summary.pdf
func (s *Server) handleReportSummaryPDF(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	rep, err := s.deps.Reports.GetUserCampaigns(r.Context(), sess.User.ID)
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}

	doc, err := report.BuildUserReport(rep, sess.User)
	if err != nil {
		s.logger.Error("failed to build user report", "user_id", sess.User.ID, "error", err)
		s.sendError(w, http.StatusInternalServerError, CodeReport, "Failed to build report")
		return
	}
	s.sendPDF(w, doc)
}

// handleAdminFleet handles GET /api/admin/fleet. Only sessions with an admin
// role get through; for them the configured API token, when present, replaces
// the user token for these reads.
func (s *Server) handleAdminFleet(w http.ResponseWriter, r *http.Request) {
	user := currentSession(r).User
	if !s.config.ContentAPI.IsAdminRole(user.Role) {
		s.logger.Warn("fleet view denied", "user_id", user.ID, "role", user.Role)
		s.sendError(w, http.StatusForbidden, CodeForbidden, "Admin role required")
		return
	}

	ctx := r.Context()
	if token := s.config.ContentAPI.APIToken; token != "" {
		ctx = strapi.ContextWithToken(ctx, token)
	}

	view, err := s.deps.Admin.LoadFleetView(ctx)
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, view)
}

// sendPDF sends a rendered document as an attachment
func (s *Server) sendPDF(w http.ResponseWriter, doc *report.Document) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Bytes())))
	w.WriteHeader(http.StatusOK)
	if _, err := doc.WriteTo(w); err != nil {
		s.logger.Warn("failed to write PDF response", "name", doc.Name, "error", err)
	}
}
