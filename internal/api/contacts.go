package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/foxzi/mailpanel/internal/models"
)

// maxImportBytes limits CSV uploads
const maxImportBytes = 10 << 20

// GroupRequest is the request body for group create and rename
type GroupRequest struct {
	Name string `json:"name"`
}

// handleContactsList handles GET /api/contacts
func (s *Server) handleContactsList(w http.ResponseWriter, r *http.Request) {
	var (
		list []models.Contact
		err  error
	)
	if group := r.URL.Query().Get("group"); group != "" {
		list, err = s.deps.Contacts.ContactsByGroup(r.Context(), group)
	} else {
		list, err = s.deps.Contacts.ListContacts(r.Context())
	}
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, list)
}

// handleContactsCreate handles POST /api/contacts
func (s *Server) handleContactsCreate(w http.ResponseWriter, r *http.Request) {
	var in models.ContactInput
	if !s.decode(w, r, &in) {
		return
	}

	c, err := s.deps.Contacts.AddContact(r.Context(), in)
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusCreated, c)
}

// handleContactsUpdate handles PUT /api/contacts/{id}
func (s *Server) handleContactsUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.int64Param(w, r, "id")
	if !ok {
		return
	}
	var patch models.ContactPatch
	if !s.decode(w, r, &patch) {
		return
	}

	updated, err := s.deps.Contacts.UpdateContact(r.Context(), id, patch)
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	if !updated {
		s.sendError(w, http.StatusNotFound, CodeNotFound, "Contact not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleContactsDelete handles DELETE /api/contacts/{id}
func (s *Server) handleContactsDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.int64Param(w, r, "id")
	if !ok {
		return
	}

	if _, err := s.deps.Contacts.RemoveContact(r.Context(), id); err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleContactsImport handles POST /api/contacts/import?group=
func (s *Server) handleContactsImport(w http.ResponseWriter, r *http.Request) {
	group := strings.TrimSpace(r.URL.Query().Get("group"))
	if group == "" {
		s.sendError(w, http.StatusBadRequest, CodeValidation, "group is required")
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	result, err := s.deps.Contacts.ImportCSV(r.Context(), body, group)
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	if err := s.deps.Contacts.AddGroup(r.Context(), group); err != nil {
		s.sendAPIError(w, r, err)
		return
	}

	s.logger.Info("contacts imported", "group", group, "imported", result.Imported, "skipped", result.Skipped)
	s.sendJSON(w, http.StatusOK, result)
}

// handleGroupsList handles GET /api/groups
func (s *Server) handleGroupsList(w http.ResponseWriter, r *http.Request) {
	groups, err := s.deps.Contacts.ListGroups(r.Context())
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}

	type groupSummary struct {
		Name     string `json:"name"`
		Contacts int    `json:"contacts"`
	}
	out := make([]groupSummary, 0, len(groups))
	for _, g := range groups {
		n, err := s.deps.Contacts.CountInGroup(r.Context(), g)
		if err != nil {
			s.sendAPIError(w, r, err)
			return
		}
		out = append(out, groupSummary{Name: g, Contacts: n})
	}
	s.sendJSON(w, http.StatusOK, out)
}

// handleGroupsCreate handles POST /api/groups
func (s *Server) handleGroupsCreate(w http.ResponseWriter, r *http.Request) {
	var req GroupRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.deps.Contacts.AddGroup(r.Context(), req.Name); err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusCreated, req)
}

// handleGroupsRename handles PUT /api/groups/{name}
func (s *Server) handleGroupsRename(w http.ResponseWriter, r *http.Request) {
	var req GroupRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.deps.Contacts.RenameGroup(r.Context(), chi.URLParam(r, "name"), req.Name); err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGroupsDelete handles DELETE /api/groups/{name}
func (s *Server) handleGroupsDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Contacts.RemoveGroup(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGroupEmails handles GET /api/groups/{name}/emails
func (s *Server) handleGroupEmails(w http.ResponseWriter, r *http.Request) {
	emails, err := s.deps.Contacts.EmailsByGroup(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.sendAPIError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, emails)
}
