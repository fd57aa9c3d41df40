package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"matrimony-match-engine/internal/models"
	"matrimony-match-engine/internal/utils"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details []string    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		utils.GetLogger().Warn("Failed to encode response", utils.Error(err))
	}
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: false, Error: message})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrEmptyUserID):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrPreferencesNotFound),
		errors.Is(err, models.ErrProfileNotFound),
		errors.Is(err, models.ErrProposalNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotProposalParty):
		return http.StatusForbidden
	case errors.Is(err, models.ErrAlreadyProposed),
		errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, models.ErrInactiveProfile):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrCannotProposeSelf),
		errors.Is(err, models.ErrInvalidFilter),
		errors.Is(err, models.ErrInvalidDateOfBirth),
		errors.Is(err, models.ErrInvalidGender),
		errors.Is(err, errCannotShortlistSelf):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders err. Unexpected errors are logged and hidden.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *utils.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Validation failed",
			Details: verr.Fields,
		})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		utils.GetLogger().Error("Request failed",
			utils.String("method", r.Method),
			utils.String("path", r.URL.Path),
			utils.Error(err))
		writeError(w, status, "Internal server error")
		return
	}

	writeError(w, status, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}
