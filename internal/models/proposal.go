package models

import (
	"time"
)

// ProposalStatus represents the state of a proposal between two profiles.
type ProposalStatus string

const (
	ProposalStatusPending   ProposalStatus = "pending"
	ProposalStatusAccepted  ProposalStatus = "accepted"
	ProposalStatusDeclined  ProposalStatus = "declined"
	ProposalStatusWithdrawn ProposalStatus = "withdrawn"
)

// IsValid checks if the status is known.
func (s ProposalStatus) IsValid() bool {
	switch s {
	case ProposalStatusPending, ProposalStatusAccepted, ProposalStatusDeclined, ProposalStatusWithdrawn:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s ProposalStatus) IsTerminal() bool {
	return s != ProposalStatusPending
}

// ProposalAction is a user request to move a proposal.
type ProposalAction string

const (
	ProposalActionAccept   ProposalAction = "accept"
	ProposalActionDecline  ProposalAction = "decline"
	ProposalActionWithdraw ProposalAction = "withdraw"
)

// Proposal is an expression of interest sent from one profile to another.
type Proposal struct {
	ID          string         `json:"id"`
	SenderID    string         `json:"sender_id"`
	ReceiverID  string         `json:"receiver_id"`
	Message     string         `json:"message,omitempty"`
	Status      ProposalStatus `json:"status"`
	RespondedAt *time.Time     `json:"responded_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ProposalCreate is the payload for sending a proposal.
type ProposalCreate struct {
	ReceiverID string `json:"receiver_id" validate:"required,uuid"`
	Message    string `json:"message" validate:"max=500"`
}

// NextStatus resolves the status an action leads to when performed by actorID.
// Only the receiver may accept or decline, only the sender may withdraw, and
// only pending proposals move.
func (p *Proposal) NextStatus(actorID string, action ProposalAction) (ProposalStatus, error) {
	var next ProposalStatus
	switch action {
	case ProposalActionAccept, ProposalActionDecline:
		if actorID != p.ReceiverID {
			return "", ErrNotProposalParty
		}
		next = ProposalStatusAccepted
		if action == ProposalActionDecline {
			next = ProposalStatusDeclined
		}
	case ProposalActionWithdraw:
		if actorID != p.SenderID {
			return "", ErrNotProposalParty
		}
		next = ProposalStatusWithdrawn
	default:
		return "", ErrInvalidTransition
	}

	if p.Status.IsTerminal() {
		return "", ErrInvalidTransition
	}
	return next, nil
}

// ProposalFilter selects which side of the proposals to list.
type ProposalFilter string

const (
	ProposalFilterSent     ProposalFilter = "sent"
	ProposalFilterReceived ProposalFilter = "received"
	ProposalFilterAll      ProposalFilter = "all"
)

// ParseProposalFilter maps a query value to a filter; "" means all.
func ParseProposalFilter(s string) (ProposalFilter, error) {
	switch f := ProposalFilter(s); f {
	case "":
		return ProposalFilterAll, nil
	case ProposalFilterSent, ProposalFilterReceived, ProposalFilterAll:
		return f, nil
	default:
		return "", ErrInvalidFilter
	}
}

// ShortlistEntry marks a profile saved by a user.
type ShortlistEntry struct {
	UserID    string    `json:"user_id"`
	ProfileID string    `json:"profile_id"`
	CreatedAt time.Time `json:"created_at"`
}
