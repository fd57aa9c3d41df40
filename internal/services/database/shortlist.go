package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"matrimony-match-engine/internal/models"
)

// ShortlistRepository stores profiles saved by users.
type ShortlistRepository struct {
	db *DB
}

// NewShortlistRepository creates a new shortlist repository.
func NewShortlistRepository(db *DB) *ShortlistRepository {
	return &ShortlistRepository{db: db}
}

// Toggle saves the profile if it is not on the user's shortlist and removes
// it otherwise. It reports whether the profile is saved afterwards.
func (r *ShortlistRepository) Toggle(ctx context.Context, userID, profileID string) (bool, error) {
	var saved bool

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"DELETE FROM shortlist WHERE user_id::text = $1 AND profile_id::text = $2", userID, profileID)
		if err != nil {
			return fmt.Errorf("failed to remove from shortlist: %w", err)
		}
		if tag.RowsAffected() > 0 {
			saved = false
			return nil
		}

		_, err = tx.Exec(ctx,
			"INSERT INTO shortlist (user_id, profile_id, created_at) VALUES ($1, $2, $3)",
			userID, profileID, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to add to shortlist: %w", err)
		}
		saved = true
		return nil
	})

	return saved, err
}

// ListEntries returns the user's shortlist, newest first.
func (r *ShortlistRepository) ListEntries(ctx context.Context, userID string) ([]models.ShortlistEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id::text, profile_id::text, created_at
		FROM shortlist
		WHERE user_id::text = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shortlist: %w", err)
	}
	defer rows.Close()

	entries := []models.ShortlistEntry{}
	for rows.Next() {
		var e models.ShortlistEntry
		if err := rows.Scan(&e.UserID, &e.ProfileID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shortlist entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListProfiles returns the active profiles on the user's shortlist.
func (r *ShortlistRepository) ListProfiles(ctx context.Context, userID string) ([]*models.Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id::text, p.email, p.first_name, p.last_name, p.gender, p.date_of_birth, p.height,
			p.district, p.religion, p.caste, p.education, p.bio, p.is_active, p.created_at, p.updated_at
		FROM shortlist s
		JOIN profiles p ON p.id = s.profile_id
		WHERE s.user_id::text = $1 AND p.is_active = true
		ORDER BY s.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shortlisted profiles: %w", err)
	}
	return collectProfiles(rows)
}
