package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"matrimony-match-engine/internal/models"
)

const proposalColumns = `id::text, sender_id::text, receiver_id::text, message, status, responded_at, created_at, updated_at`

const uniqueViolation = "23505"

// ProposalRepository handles proposal database operations.
type ProposalRepository struct {
	db *DB
}

// NewProposalRepository creates a new proposal repository.
func NewProposalRepository(db *DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

// Create inserts a pending proposal. A second pending proposal for the same
// pair fails with models.ErrAlreadyProposed.
func (r *ProposalRepository) Create(ctx context.Context, p *models.Proposal) error {
	query := `
		INSERT INTO proposals (id, sender_id, receiver_id, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.ID,
		p.SenderID,
		p.ReceiverID,
		p.Message,
		string(p.Status),
		time.Now().UTC(),
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return models.ErrAlreadyProposed
	}
	if err != nil {
		return fmt.Errorf("failed to create proposal: %w", err)
	}
	return nil
}

// GetByID retrieves a proposal. A missing proposal returns (nil, nil).
func (r *ProposalRepository) GetByID(ctx context.Context, id string) (*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id::text = $1`

	p, err := scanProposal(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	return p, nil
}

// UpdateStatus moves a proposal from one status to another. It fails with
// models.ErrInvalidTransition when the stored status is no longer from.
func (r *ProposalRepository) UpdateStatus(ctx context.Context, id string, from, to models.ProposalStatus) (*models.Proposal, error) {
	query := `
		UPDATE proposals
		SET status = $3, responded_at = $4, updated_at = $4
		WHERE id::text = $1 AND status = $2
		RETURNING ` + proposalColumns

	p, err := scanProposal(r.db.QueryRowContext(ctx, query, id, string(from), string(to), time.Now().UTC()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update proposal: %w", err)
	}
	return p, nil
}

// ListForUser returns the user's proposals, newest first.
func (r *ProposalRepository) ListForUser(ctx context.Context, userID string, filter models.ProposalFilter) ([]*models.Proposal, error) {
	var where string
	switch filter {
	case models.ProposalFilterSent:
		where = "sender_id::text = $1"
	case models.ProposalFilterReceived:
		where = "receiver_id::text = $1"
	default:
		where = "(sender_id::text = $1 OR receiver_id::text = $1)"
	}

	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE ` + where + ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query proposals: %w", err)
	}
	defer rows.Close()

	proposals := []*models.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate proposals: %w", err)
	}
	return proposals, nil
}

func scanProposal(row pgx.Row) (*models.Proposal, error) {
	var p models.Proposal
	var status string

	err := row.Scan(
		&p.ID,
		&p.SenderID,
		&p.ReceiverID,
		&p.Message,
		&status,
		&p.RespondedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Status = models.ProposalStatus(status)
	return &p, nil
}
