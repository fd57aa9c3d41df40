package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"matrimony-match-engine/internal/models"
)

func (s *Server) createProposal(w http.ResponseWriter, r *http.Request) {
	var in models.ProposalCreate
	if !decodeJSON(w, r, &in) {
		return
	}

	proposal, err := s.deps.Proposals.Create(r.Context(), UserIDFromContext(r.Context()), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, proposal)
}

func (s *Server) listProposals(w http.ResponseWriter, r *http.Request) {
	filter, err := models.ParseProposalFilter(r.URL.Query().Get("type"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	proposals, err := s.deps.Proposals.List(r.Context(), UserIDFromContext(r.Context()), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, proposals)
}

func (s *Server) respondProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	action := models.ProposalAction(mux.Vars(r)["action"])

	proposal, err := s.deps.Proposals.Respond(r.Context(), UserIDFromContext(r.Context()), id, action)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, proposal)
}
