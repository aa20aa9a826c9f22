package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openherd/cow/envelope"
	"github.com/openherd/cow/karma"
	"github.com/openherd/cow/moderation"
)

func (s *Server) getOutbox(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Outbox())
}

func (s *Server) postInbox(w http.ResponseWriter, r *http.Request) {
	var envs []envelope.Envelope
	if !decodeJSON(w, r, &envs) {
		return
	}

	imported := 0
	accepted := make([]envelope.Envelope, 0, len(envs))
	anyRejected := false
	for _, env := range envs {
		if _, verr := envelope.Validate(env); verr != nil {
			anyRejected = true
			s.logger.Debug("rejected inbound envelope", "id", env.ID, "error", verr.Error())
			continue
		}
		accepted = append(accepted, env)
		imported++
	}
	s.state.AcceptEnvelopes(accepted)

	if imported == 0 && anyRejected {
		writeError(w, http.StatusBadRequest, "no envelopes passed validation")
		return
	}
	writeOK(w)
}

func (s *Server) getPeers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.PeerBases())
}

type syncRequest struct {
	Address string `json:"address"`
}

func (s *Server) postSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result := s.syncEngine.Sync(r.Context(), req.Address)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) patchKarmaVote(direction karma.Direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		var env envelope.Envelope
		if !decodeJSON(w, r, &env) {
			return
		}
		verr, err := s.state.VoteKarma(code, direction, env)
		if verr != nil {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		switch err {
		case nil:
			writeOK(w)
		case karma.ErrNotFound:
			writeError(w, http.StatusNotFound, err.Error())
		case karma.ErrExpired:
			writeError(w, http.StatusGone, err.Error())
		case karma.ErrAlreadySpent:
			writeError(w, http.StatusConflict, err.Error())
		case karma.ErrDirectionLocked:
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
	}
}

func (s *Server) deleteKarmaCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := s.state.RevokeKarma(code); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeOK(w)
}

func (s *Server) getKarmaMetadata(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	meta, ok := s.state.KarmaMetadata(code)
	if !ok {
		writeError(w, http.StatusNotFound, karma.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) postKarmaLookup(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if !decodeJSON(w, r, &ids) {
		return
	}
	writeJSON(w, http.StatusOK, s.state.KarmaScores(ids))
}

func (s *Server) postModerationLookup(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if !decodeJSON(w, r, &ids) {
		return
	}
	out := make([]*string, len(ids))
	for i, id := range ids {
		if label, ok := s.state.LabelFor(id); ok {
			l := label
			out[i] = &l
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getModerationLabels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Labels())
}

func (s *Server) postModerationReport(w http.ResponseWriter, r *http.Request) {
	var reports []moderation.SubmittedReport
	if !decodeJSON(w, r, &reports) {
		return
	}
	s.state.SubmitReports(reports, clientIP(r))
	writeOK(w)
}
