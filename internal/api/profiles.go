package api

import (
	"net/http"
	"time"

	"matrimony-match-engine/internal/models"
	"matrimony-match-engine/internal/utils"
)

func (s *Server) getMyProfile(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	profile, err := s.deps.Profiles.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if profile == nil {
		writeServiceError(w, r, models.ErrProfileNotFound)
		return
	}

	writeData(w, http.StatusOK, profile.WithDerivedAge(time.Now()))
}

func (s *Server) putMyProfile(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var in models.ProfileInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := utils.ValidateStruct(&in); err != nil {
		writeServiceError(w, r, err)
		return
	}

	profile, err := in.ToProfile(userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := s.deps.Profiles.Upsert(r.Context(), profile); err != nil {
		writeServiceError(w, r, err)
		return
	}
	// The viewer's gender decides the candidate pool
	s.deps.Matcher.InvalidateUser(r.Context(), userID)

	writeData(w, http.StatusOK, profile.WithDerivedAge(time.Now()))
}

// getProfile shows another member's public profile. Inactive profiles are
// hidden from everyone but their owner.
func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	profile, err := s.deps.Profiles.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	switch {
	case profile == nil, !profile.IsActive && id != userID:
		writeServiceError(w, r, models.ErrProfileNotFound)
	case id == userID:
		writeData(w, http.StatusOK, profile.WithDerivedAge(time.Now()))
	default:
		writeData(w, http.StatusOK, profile.Public().WithDerivedAge(time.Now()))
	}
}
