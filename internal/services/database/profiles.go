package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"matrimony-match-engine/internal/models"
)

const profileColumns = `id::text, email, first_name, last_name, gender, date_of_birth, height,
	district, religion, caste, education, bio, is_active, created_at, updated_at`

// ProfileRepository handles profile database operations.
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Upsert inserts or replaces a profile keyed by ID.
func (r *ProfileRepository) Upsert(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (id, email, first_name, last_name, gender, date_of_birth, height,
			district, religion, caste, education, bio, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			gender = EXCLUDED.gender,
			date_of_birth = EXCLUDED.date_of_birth,
			height = EXCLUDED.height,
			district = EXCLUDED.district,
			religion = EXCLUDED.religion,
			caste = EXCLUDED.caste,
			education = EXCLUDED.education,
			bio = EXCLUDED.bio,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.ID,
		p.Email,
		p.FirstName,
		p.LastName,
		string(p.Gender),
		p.DateOfBirth,
		p.Height,
		p.District,
		p.Religion,
		p.Caste,
		p.Education,
		p.Bio,
		p.IsActive,
		time.Now().UTC(),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

// BulkUpsert imports profiles keyed by email in one transaction. A failing
// row is rolled back to its savepoint and reported without aborting the batch.
func (r *ProfileRepository) BulkUpsert(ctx context.Context, profiles []*models.Profile, batchID string) (*models.BulkInsertResult, error) {
	result := &models.BulkInsertResult{Errors: []string{}}

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		now := time.Now().UTC()

		for _, p := range profiles {
			sp, err := tx.Begin(ctx)
			if err != nil {
				return fmt.Errorf("failed to open savepoint: %w", err)
			}

			_, err = sp.Exec(ctx, `
				INSERT INTO profiles (id, email, first_name, last_name, gender, date_of_birth, height,
					district, religion, caste, education, is_active, import_batch, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, true, $12, $13, $13)
				ON CONFLICT (email) DO UPDATE SET
					first_name = EXCLUDED.first_name,
					last_name = EXCLUDED.last_name,
					gender = EXCLUDED.gender,
					date_of_birth = EXCLUDED.date_of_birth,
					height = EXCLUDED.height,
					district = EXCLUDED.district,
					religion = EXCLUDED.religion,
					caste = EXCLUDED.caste,
					education = EXCLUDED.education,
					import_batch = EXCLUDED.import_batch,
					updated_at = EXCLUDED.updated_at`,
				p.ID,
				p.Email,
				p.FirstName,
				p.LastName,
				string(p.Gender),
				p.DateOfBirth,
				p.Height,
				p.District,
				p.Religion,
				p.Caste,
				p.Education,
				batchID,
				now,
			)

			if err != nil {
				_ = sp.Rollback(ctx)
				result.FailedCount++
				result.Errors = append(result.Errors, fmt.Sprintf("profile %s: %v", p.Email, err))
				continue
			}
			if err := sp.Commit(ctx); err != nil {
				return fmt.Errorf("failed to release savepoint: %w", err)
			}
			result.InsertedCount++
		}
		return nil
	})

	if err != nil {
		return result, fmt.Errorf("bulk upsert failed: %w", err)
	}

	return result, nil
}

// GetByID retrieves a profile by ID. A missing profile returns (nil, nil).
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id::text = $1`

	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// ListCandidates returns the active pool a viewer may browse.
func (r *ProfileRepository) ListCandidates(ctx context.Context, filter models.CandidateFilter) ([]*models.Profile, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}

	query := `SELECT ` + profileColumns + `
		FROM profiles
		WHERE is_active = true
			AND ($1 = '' OR id::text <> $1)
			AND ($2 = '' OR gender = $2)
		ORDER BY LOWER(last_name || first_name), id
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, filter.ExcludeID, string(filter.Gender), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	return collectProfiles(rows)
}

// Deactivate hides a profile from browsing.
func (r *ProfileRepository) Deactivate(ctx context.Context, id string) error {
	n, err := r.db.ExecContext(ctx,
		"UPDATE profiles SET is_active = false, updated_at = NOW() WHERE id::text = $1", id)
	if err != nil {
		return fmt.Errorf("failed to deactivate profile: %w", err)
	}
	if n == 0 {
		return models.ErrProfileNotFound
	}
	return nil
}

// CountActive returns the number of active profiles.
func (r *ProfileRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM profiles WHERE is_active = true").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return count, nil
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	var gender string

	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.FirstName,
		&p.LastName,
		&gender,
		&p.DateOfBirth,
		&p.Height,
		&p.District,
		&p.Religion,
		&p.Caste,
		&p.Education,
		&p.Bio,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Gender = models.Gender(gender)
	return &p, nil
}

func collectProfiles(rows pgx.Rows) ([]*models.Profile, error) {
	defer rows.Close()

	profiles := []*models.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return profiles, nil
}
