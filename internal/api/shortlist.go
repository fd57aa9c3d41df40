package api

import (
	"errors"
	"net/http"

	"matrimony-match-engine/internal/models"
)

var errCannotShortlistSelf = errors.New("cannot shortlist your own profile")

// toggleShortlist saves or un-saves a profile and reports the new state.
func (s *Server) toggleShortlist(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if id == userID {
		writeServiceError(w, r, errCannotShortlistSelf)
		return
	}

	profile, err := s.deps.Profiles.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if profile == nil || !profile.IsActive {
		writeServiceError(w, r, models.ErrProfileNotFound)
		return
	}

	saved, err := s.deps.Shortlist.Toggle(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]interface{}{
		"profile_id": id,
		"saved":      saved,
	})
}

// listShortlist returns saved profiles scored against the caller's preferences.
func (s *Server) listShortlist(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	profiles, err := s.deps.Shortlist.ListProfiles(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	scored, err := s.deps.Matcher.ScoreProfiles(r.Context(), userID, profiles)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, scored)
}
