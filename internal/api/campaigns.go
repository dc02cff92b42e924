package api

import (
	"net/http"

	"github.com/foxzi/mailpanel/internal/models"
)

// handleCampaignsList handles GET /api/campaigns?page=&pageSize=
func (s *Server) handleCampaignsList(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	page, err := s.deps.Campaigns.ListWithFallback(r.Context(), sess.User.ID,
		queryInt(r, "page", 1), queryInt(r, "pageSize", 0))
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, page)
}

// handleCampaignsGet handles GET /api/campaigns/{id}
func (s *Server) handleCampaignsGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.int64Param(w, r, "id")
	if !ok {
		return
	}

	c, err := s.deps.Campaigns.GetCampaign(r.Context(), id)
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, c)
}

// handleCampaignsCreate handles POST /api/campaigns
func (s *Server) handleCampaignsCreate(w http.ResponseWriter, r *http.Request) {
	var in models.CampaignInput
	if !s.decode(w, r, &in) {
		return
	}
	in.OwnerID = currentSession(r).User.ID

	c, err := s.deps.Campaigns.CreateCampaign(r.Context(), in)
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusCreated, c)
}

// handleCampaignsUpdate handles PUT /api/campaigns/{id}
func (s *Server) handleCampaignsUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.int64Param(w, r, "id")
	if !ok {
		return
	}
	var in models.CampaignInput
	if !s.decode(w, r, &in) {
		return
	}
	in.OwnerID = currentSession(r).User.ID

	c, err := s.deps.Campaigns.UpdateCampaign(r.Context(), id, in)
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, c)
}

// handleCampaignsDelete handles DELETE /api/campaigns/{id}
func (s *Server) handleCampaignsDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.int64Param(w, r, "id")
	if !ok {
		return
	}

	if err := s.deps.Campaigns.DeleteCampaign(r.Context(), id); err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
