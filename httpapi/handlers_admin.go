package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openherd/cow/karma"
	"github.com/openherd/cow/moderation"
)

// requireAdminHeader enforces the X-Admin-Password header against the
// admin password list for mutation endpoints (spec.md §4.7: "header
// X-Admin-Password (for mutations)").
func (s *Server) requireAdminHeader(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.state.IsAdmin(r.Header.Get("X-Admin-Password")) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

type adminReportsRequest struct {
	Password string `json:"password"`
}

func (s *Server) postAdminReports(w http.ResponseWriter, r *http.Request) {
	var req adminReportsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !s.state.IsAdmin(req.Password) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, s.state.ListReports())
}

func (s *Server) postAdminAccept(w http.ResponseWriter, r *http.Request) {
	var action moderation.Action
	if !decodeJSON(w, r, &action) {
		return
	}
	if err := s.state.AcceptReport(action.ReportID, action.Label); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeOK(w)
}

func (s *Server) deleteAdminReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.state.DeleteReport(id)
	writeOK(w)
}

type karmaGenerateRequest struct {
	Count    int           `json:"count"`
	Issuer   string        `json:"issuer"`
	VoteType string        `json:"vote_type,omitempty"`
	Expires  string        `json:"expires"`
	Region   *karma.Region `json:"region,omitempty"`
}

func (s *Server) postAdminKarmaCodes(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeKarmaGenerate(w, r)
	if !ok {
		return
	}
	codes, err := s.state.GenerateKarmaCodes(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, codes)
}

func (s *Server) postAdminKarmaCodesText(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeKarmaGenerate(w, r)
	if !ok {
		return
	}
	codes, err := s.state.GenerateKarmaCodes(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, req.Issuer)
	for _, c := range codes {
		fmt.Fprintln(w, c.Code)
	}
}

func (s *Server) decodeKarmaGenerate(w http.ResponseWriter, r *http.Request) (karma.GenerateRequest, bool) {
	var raw karmaGenerateRequest
	if !decodeJSON(w, r, &raw) {
		return karma.GenerateRequest{}, false
	}
	expires, err := parseTime(raw.Expires)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expires timestamp")
		return karma.GenerateRequest{}, false
	}
	return karma.GenerateRequest{
		Count:    raw.Count,
		Issuer:   raw.Issuer,
		VoteType: raw.VoteType,
		Expires:  expires,
		Region:   raw.Region,
	}, true
}

type moderationLabelRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) postAdminModerationLabels(w http.ResponseWriter, r *http.Request) {
	var req moderationLabelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name must not be empty")
		return
	}
	if err := s.state.AddLabel(req.Name, req.Description); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeOK(w)
}

func (s *Server) deleteAdminModerationLabel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "label")
	if err := s.state.DeleteLabel(name); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeOK(w)
}
