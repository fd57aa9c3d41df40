package api

import (
	"net/http"
	"strconv"

	"matrimony-match-engine/internal/services/matcher"
)

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	req := matcher.RankRequest{UserID: UserIDFromContext(r.Context())}
	q := r.URL.Query()

	var err error
	if v := q.Get("page"); v != "" {
		if req.Page, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "page must be an integer")
			return
		}
	}
	if v := q.Get("page_size"); v != "" {
		if req.PageSize, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "page_size must be an integer")
			return
		}
	}
	if v := q.Get("breakdown"); v != "" {
		if req.Breakdown, err = strconv.ParseBool(v); err != nil {
			writeError(w, http.StatusBadRequest, "breakdown must be a boolean")
			return
		}
	}

	result, err := s.deps.Matcher.Rank(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, result)
}

func (s *Server) scoreMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	scored, err := s.deps.Matcher.ScoreCandidate(r.Context(), UserIDFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, scored)
}
