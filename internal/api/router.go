// Package api exposes the match engine over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"matrimony-match-engine/internal/handlers"
	"matrimony-match-engine/internal/models"
	"matrimony-match-engine/internal/services/importer"
	"matrimony-match-engine/internal/services/matcher"
)

// PreferenceStore reads, replaces and deletes preference records.
type PreferenceStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.UserPreferences, error)
	Upsert(ctx context.Context, p *models.UserPreferences) error
	Delete(ctx context.Context, userID string) error
}

// ProfileStore reads and replaces profiles.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	Upsert(ctx context.Context, p *models.Profile) error
}

// Matcher ranks and scores candidates for a viewer.
type Matcher interface {
	Rank(ctx context.Context, req matcher.RankRequest) (*matcher.RankResult, error)
	ScoreCandidate(ctx context.Context, userID, candidateID string) (*models.ScoredCandidate, error)
	ScoreProfiles(ctx context.Context, userID string, profiles []*models.Profile) ([]models.ScoredCandidate, error)
	InvalidateUser(ctx context.Context, userID string)
}

// Proposals runs the proposal lifecycle.
type Proposals interface {
	Create(ctx context.Context, senderID string, in models.ProposalCreate) (*models.Proposal, error)
	Respond(ctx context.Context, actorID, proposalID string, action models.ProposalAction) (*models.Proposal, error)
	List(ctx context.Context, userID string, filter models.ProposalFilter) ([]*models.Proposal, error)
}

// Shortlist stores saved profiles.
type Shortlist interface {
	Toggle(ctx context.Context, userID, profileID string) (bool, error)
	ListProfiles(ctx context.Context, userID string) ([]*models.Profile, error)
}

// Importer imports profile CSV files posted to the API.
type Importer interface {
	ImportUpload(ctx context.Context, filename string, data []byte) (*importer.Result, error)
}

// Dependencies wires the server. Importer and Presigner may be nil when the
// import bucket is not configured.
type Dependencies struct {
	Preferences PreferenceStore
	Profiles    ProfileStore
	Matcher     Matcher
	Proposals   Proposals
	Shortlist   Shortlist
	Importer    Importer
	Presigner   handlers.Presigner
	Health      *handlers.HealthHandler
}

// Server holds the HTTP handlers.
type Server struct {
	deps Dependencies
}

// NewRouter builds the HTTP routes.
func NewRouter(deps Dependencies) *mux.Router {
	s := &Server{deps: deps}

	r := mux.NewRouter()
	r.Use(logRequests)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(RequireUser)

	api.HandleFunc("/preferences", s.getPreferences).Methods(http.MethodGet)
	api.HandleFunc("/preferences", s.putPreferences).Methods(http.MethodPut)
	api.HandleFunc("/preferences", s.deletePreferences).Methods(http.MethodDelete)

	api.HandleFunc("/profiles/me", s.getMyProfile).Methods(http.MethodGet)
	api.HandleFunc("/profiles/me", s.putMyProfile).Methods(http.MethodPut)
	api.HandleFunc("/profiles/{id}", s.getProfile).Methods(http.MethodGet)

	api.HandleFunc("/matches", s.listMatches).Methods(http.MethodGet)
	api.HandleFunc("/matches/{id}/score", s.scoreMatch).Methods(http.MethodGet)

	api.HandleFunc("/proposals", s.createProposal).Methods(http.MethodPost)
	api.HandleFunc("/proposals", s.listProposals).Methods(http.MethodGet)
	api.HandleFunc("/proposals/{id}/{action:accept|decline|withdraw}", s.respondProposal).Methods(http.MethodPost)

	api.HandleFunc("/shortlist", s.listShortlist).Methods(http.MethodGet)
	api.HandleFunc("/shortlist/{id}", s.toggleShortlist).Methods(http.MethodPost)

	api.HandleFunc("/imports/upload-url", s.uploadURL).Methods(http.MethodGet)
	api.HandleFunc("/imports", s.importProfiles).Methods(http.MethodPost)

	return r
}

// pathID returns the {id} path variable when it is a UUID.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID")
		return "", false
	}
	return id.String(), true
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health == nil {
		writeJSON(w, http.StatusOK, Response{Success: true, Message: "Matrimony match engine is running"})
		return
	}

	status := s.deps.Health.Check(r.Context())
	writeJSON(w, status.StatusCode(), Response{
		Success: status.Status == "healthy",
		Message: "Matrimony match engine is running",
		Data:    status,
	})
}
