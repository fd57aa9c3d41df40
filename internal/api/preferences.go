package api

import (
	"net/http"

	"matrimony-match-engine/internal/models"
)

func (s *Server) getPreferences(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	prefs, err := s.deps.Preferences.GetByUserID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if prefs == nil {
		writeServiceError(w, r, models.ErrPreferencesNotFound)
		return
	}

	writeData(w, http.StatusOK, prefs)
}

// putPreferences replaces the caller's whole record.
func (s *Server) putPreferences(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var prefs models.UserPreferences
	if !decodeJSON(w, r, &prefs) {
		return
	}
	prefs.UserID = userID

	if err := models.ValidatePreferences(&prefs); err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := s.deps.Preferences.Upsert(r.Context(), &prefs); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.deps.Matcher.InvalidateUser(r.Context(), userID)

	writeData(w, http.StatusOK, prefs)
}

// deletePreferences drops the caller's record; browsing falls back to
// unscored, name-ordered results.
func (s *Server) deletePreferences(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	if err := s.deps.Preferences.Delete(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.deps.Matcher.InvalidateUser(r.Context(), userID)

	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Preferences deleted"})
}
