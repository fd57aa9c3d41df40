// Package proposal manages expressions of interest between profiles.
package proposal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"matrimony-match-engine/internal/models"
	"matrimony-match-engine/internal/utils"
)

var transitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "matrimony_proposals_total",
		Help: "Proposals created or moved, by resulting status",
	},
	[]string{"status"},
)

// Event identifies a notification sent about a proposal.
type Event string

const (
	EventReceived Event = "received"
	EventAccepted Event = "accepted"
)

// Store persists proposals.
type Store interface {
	Create(ctx context.Context, p *models.Proposal) error
	GetByID(ctx context.Context, id string) (*models.Proposal, error)
	UpdateStatus(ctx context.Context, id string, from, to models.ProposalStatus) (*models.Proposal, error)
	ListForUser(ctx context.Context, userID string, filter models.ProposalFilter) ([]*models.Proposal, error)
}

// ProfileLookup resolves profiles. A missing profile is (nil, nil).
type ProfileLookup interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
}

// Notifier tells a party about a proposal event. The receiver is notified of
// EventReceived and the sender of EventAccepted.
type Notifier interface {
	NotifyProposal(ctx context.Context, event Event, p *models.Proposal, sender, receiver *models.Profile) error
}

// Service implements the proposal lifecycle.
type Service struct {
	store    Store
	profiles ProfileLookup
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates a proposal service. notifier may be nil.
func NewService(store Store, profiles ProfileLookup, notifier Notifier) *Service {
	return &Service{
		store:    store,
		profiles: profiles,
		notifier: notifier,
		logger:   utils.GetLogger().Named("proposal"),
	}
}

// Create sends a pending proposal from senderID.
func (s *Service) Create(ctx context.Context, senderID string, in models.ProposalCreate) (*models.Proposal, error) {
	if senderID == "" {
		return nil, models.ErrEmptyUserID
	}
	if err := utils.ValidateStruct(&in); err != nil {
		return nil, err
	}
	if in.ReceiverID == senderID {
		return nil, models.ErrCannotProposeSelf
	}

	sender, err := s.activeProfile(ctx, senderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.activeProfile(ctx, in.ReceiverID)
	if err != nil {
		return nil, err
	}

	p := &models.Proposal{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: in.ReceiverID,
		Message:    in.Message,
		Status:     models.ProposalStatusPending,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}

	transitions.WithLabelValues(string(p.Status)).Inc()
	s.logger.Info("Proposal sent",
		utils.String("proposalID", p.ID),
		utils.String("senderID", senderID),
		utils.String("receiverID", in.ReceiverID))

	s.notify(ctx, EventReceived, p, sender, receiver)
	return p, nil
}

// Respond applies action on behalf of actorID. Users who are not a party to
// the proposal get models.ErrProposalNotFound.
func (s *Service) Respond(ctx context.Context, actorID, proposalID string, action models.ProposalAction) (*models.Proposal, error) {
	if actorID == "" {
		return nil, models.ErrEmptyUserID
	}

	p, err := s.store.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if p == nil || (actorID != p.SenderID && actorID != p.ReceiverID) {
		return nil, models.ErrProposalNotFound
	}

	next, err := p.NextStatus(actorID, action)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateStatus(ctx, p.ID, p.Status, next)
	if err != nil {
		return nil, err
	}

	transitions.WithLabelValues(string(next)).Inc()
	s.logger.Info("Proposal updated",
		utils.String("proposalID", p.ID),
		utils.String("actorID", actorID),
		utils.String("status", string(next)))

	if next == models.ProposalStatusAccepted {
		sender, serr := s.profiles.GetByID(ctx, updated.SenderID)
		receiver, rerr := s.profiles.GetByID(ctx, updated.ReceiverID)
		if serr != nil || rerr != nil || sender == nil || receiver == nil {
			s.logger.Warn("Skipping acceptance notification, party lookup failed",
				utils.String("proposalID", p.ID))
		} else {
			s.notify(ctx, EventAccepted, updated, sender, receiver)
		}
	}

	return updated, nil
}

// List returns the user's proposals for the given side.
func (s *Service) List(ctx context.Context, userID string, filter models.ProposalFilter) ([]*models.Proposal, error) {
	if userID == "" {
		return nil, models.ErrEmptyUserID
	}
	return s.store.ListForUser(ctx, userID, filter)
}

func (s *Service) activeProfile(ctx context.Context, id string) (*models.Profile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if p == nil {
		return nil, models.ErrProfileNotFound
	}
	if !p.IsActive {
		return nil, models.ErrInactiveProfile
	}
	return p, nil
}

func (s *Service) notify(ctx context.Context, event Event, p *models.Proposal, sender, receiver *models.Profile) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyProposal(ctx, event, p, sender, receiver); err != nil {
		s.logger.Warn("Failed to send proposal notification",
			utils.String("proposalID", p.ID),
			utils.String("event", string(event)),
			utils.Error(err))
	}
}
