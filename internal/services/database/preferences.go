package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"matrimony-match-engine/internal/models"
)

// PreferenceRepository stores one preferences row per user.
type PreferenceRepository struct {
	db *DB
}

// NewPreferenceRepository creates a new preference repository.
func NewPreferenceRepository(db *DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Upsert replaces the whole preference record of p.UserID.
func (r *PreferenceRepository) Upsert(ctx context.Context, p *models.UserPreferences) error {
	if p.UserID == "" {
		return models.ErrEmptyUserID
	}

	districts := p.Locations.Districts
	if districts == nil {
		districts = []string{}
	}

	query := `
		INSERT INTO user_preferences (
			user_id,
			age_min, age_max, age_weight, age_enabled,
			height_min, height_max, height_weight, height_enabled,
			location_districts, location_weight, location_enabled,
			religion_value, religion_weight, religion_enabled,
			caste_value, caste_weight, caste_enabled,
			education_value, education_weight, education_enabled,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $22)
		ON CONFLICT (user_id) DO UPDATE SET
			age_min = EXCLUDED.age_min,
			age_max = EXCLUDED.age_max,
			age_weight = EXCLUDED.age_weight,
			age_enabled = EXCLUDED.age_enabled,
			height_min = EXCLUDED.height_min,
			height_max = EXCLUDED.height_max,
			height_weight = EXCLUDED.height_weight,
			height_enabled = EXCLUDED.height_enabled,
			location_districts = EXCLUDED.location_districts,
			location_weight = EXCLUDED.location_weight,
			location_enabled = EXCLUDED.location_enabled,
			religion_value = EXCLUDED.religion_value,
			religion_weight = EXCLUDED.religion_weight,
			religion_enabled = EXCLUDED.religion_enabled,
			caste_value = EXCLUDED.caste_value,
			caste_weight = EXCLUDED.caste_weight,
			caste_enabled = EXCLUDED.caste_enabled,
			education_value = EXCLUDED.education_value,
			education_weight = EXCLUDED.education_weight,
			education_enabled = EXCLUDED.education_enabled,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.UserID,
		p.AgeRange.Min, p.AgeRange.Max, p.AgeRange.Weight, p.AgeRange.Enabled,
		p.HeightRange.Min, p.HeightRange.Max, p.HeightRange.Weight, p.HeightRange.Enabled,
		districts, p.Locations.Weight, p.Locations.Enabled,
		p.Religion.Value, p.Religion.Weight, p.Religion.Enabled,
		p.Caste.Value, p.Caste.Weight, p.Caste.Enabled,
		p.Education.Value, p.Education.Weight, p.Education.Enabled,
		time.Now().UTC(),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert preferences: %w", err)
	}

	return nil
}

// GetByUserID retrieves a user's preferences. A missing record returns (nil, nil).
func (r *PreferenceRepository) GetByUserID(ctx context.Context, userID string) (*models.UserPreferences, error) {
	query := `
		SELECT user_id::text,
			age_min, age_max, age_weight, age_enabled,
			height_min, height_max, height_weight, height_enabled,
			location_districts, location_weight, location_enabled,
			religion_value, religion_weight, religion_enabled,
			caste_value, caste_weight, caste_enabled,
			education_value, education_weight, education_enabled,
			created_at, updated_at
		FROM user_preferences
		WHERE user_id::text = $1`

	var p models.UserPreferences
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.AgeRange.Min, &p.AgeRange.Max, &p.AgeRange.Weight, &p.AgeRange.Enabled,
		&p.HeightRange.Min, &p.HeightRange.Max, &p.HeightRange.Weight, &p.HeightRange.Enabled,
		&p.Locations.Districts, &p.Locations.Weight, &p.Locations.Enabled,
		&p.Religion.Value, &p.Religion.Weight, &p.Religion.Enabled,
		&p.Caste.Value, &p.Caste.Weight, &p.Caste.Enabled,
		&p.Education.Value, &p.Education.Weight, &p.Education.Enabled,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	return &p, nil
}

// Delete removes a user's preferences. Deleting a missing record returns
// models.ErrPreferencesNotFound.
func (r *PreferenceRepository) Delete(ctx context.Context, userID string) error {
	n, err := r.db.ExecContext(ctx, "DELETE FROM user_preferences WHERE user_id::text = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to delete preferences: %w", err)
	}
	if n == 0 {
		return models.ErrPreferencesNotFound
	}
	return nil
}
