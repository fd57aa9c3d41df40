package matcher

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"matrimony-match-engine/internal/config"
	"matrimony-match-engine/internal/models"
	"matrimony-match-engine/internal/utils"
)

// PreferenceStore loads preference records. A missing record is (nil, nil).
type PreferenceStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.UserPreferences, error)
}

// CandidateStore loads profiles. A missing profile is (nil, nil).
type CandidateStore interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	ListCandidates(ctx context.Context, filter models.CandidateFilter) ([]*models.Profile, error)
}

// RankCache memoizes full ranked lists per user and preference fingerprint.
type RankCache interface {
	GetRanked(ctx context.Context, userID string, prefs *models.UserPreferences) ([]models.ScoredCandidate, bool, error)
	SetRanked(ctx context.Context, userID string, prefs *models.UserPreferences, ranked []models.ScoredCandidate) error
	InvalidateUser(ctx context.Context, userID string) error
}

// MatcherService ranks candidate pools for browsing.
type MatcherService struct {
	prefs           PreferenceStore
	candidates      CandidateStore
	cache           RankCache
	scorer          *Scorer
	defaultPageSize int
	maxPageSize     int
	poolLimit       int
	logger          *zap.Logger
}

// RankRequest describes one page of a user's ranked matches.
type RankRequest struct {
	UserID    string
	Page      int
	PageSize  int
	Breakdown bool
}

// RankResult is one page of ranked candidates.
type RankResult struct {
	Candidates []models.ScoredCandidate `json:"candidates"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"page_size"`
	Total      int                      `json:"total"`
	TotalPages int                      `json:"total_pages"`
	Cached     bool                     `json:"cached"`

	// PoolTruncated is set when the candidate pool hit CANDIDATE_POOL_LIMIT,
	// so profiles past the limit in name order were never scored.
	PoolTruncated bool `json:"pool_truncated"`
}

// NewMatcherService creates a new matcher service. cache may be nil.
func NewMatcherService(cfg *config.Config, prefs PreferenceStore, candidates CandidateStore, cache RankCache) *MatcherService {
	opts := DefaultOptions()
	opts.BufferWidth = cfg.ScoreBufferWidth
	opts.BufferCredit = cfg.ScoreBufferCredit

	return &MatcherService{
		prefs:           prefs,
		candidates:      candidates,
		cache:           cache,
		scorer:          NewScorer(opts),
		defaultPageSize: cfg.DefaultPageSize,
		maxPageSize:     cfg.MaxPageSize,
		poolLimit:       cfg.CandidatePoolLimit,
		logger:          utils.GetLogger().Named("matcher"),
	}
}

// Scorer exposes the configured scorer.
func (m *MatcherService) Scorer() *Scorer {
	return m.scorer
}

// preferencesFor returns the stored preferences, or an all-disabled record
// when the user has not saved any yet.
func (m *MatcherService) preferencesFor(ctx context.Context, userID string) (*models.UserPreferences, error) {
	prefs, err := m.prefs.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	if prefs == nil {
		defaults := models.DefaultPreferences(userID)
		return &defaults, nil
	}
	return prefs, nil
}

// Rank scores the viewer's candidate pool, sorts it and returns the requested page.
func (m *MatcherService) Rank(ctx context.Context, req RankRequest) (*RankResult, error) {
	if req.UserID == "" {
		return nil, models.ErrEmptyUserID
	}
	start := time.Now()

	prefs, err := m.preferencesFor(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	ranked, cached := m.lookupCache(ctx, req.UserID, prefs)
	if !cached {
		ranked, err = m.rankPool(ctx, req.UserID, prefs)
		if err != nil {
			return nil, err
		}
		if m.cache != nil {
			if err := m.cache.SetRanked(ctx, req.UserID, prefs, ranked); err != nil {
				m.logger.Warn("Failed to cache ranked list", zap.String("user_id", req.UserID), zap.Error(err))
			}
		}
	}

	result := m.paginate(ranked, req)
	result.Cached = cached
	result.PoolTruncated = m.poolLimit > 0 && len(ranked) >= m.poolLimit

	source := "computed"
	if cached {
		source = "cache"
	}
	recordRank(source, time.Since(start))

	m.logger.Info("Ranked candidates",
		zap.String("user_id", req.UserID),
		zap.Int("total", result.Total),
		zap.Int("page", result.Page),
		zap.Bool("cached", cached),
		zap.Bool("pool_truncated", result.PoolTruncated),
		zap.Duration("elapsed", time.Since(start)),
	)

	return result, nil
}

func (m *MatcherService) lookupCache(ctx context.Context, userID string, prefs *models.UserPreferences) ([]models.ScoredCandidate, bool) {
	if m.cache == nil {
		return nil, false
	}
	ranked, ok, err := m.cache.GetRanked(ctx, userID, prefs)
	if err != nil {
		m.logger.Warn("Rank cache lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil, false
	}
	recordCacheLookup(ok)
	return ranked, ok
}

// rankPool fetches the pool, scores it with breakdowns and sorts it.
func (m *MatcherService) rankPool(ctx context.Context, userID string, prefs *models.UserPreferences) ([]models.ScoredCandidate, error) {
	viewer, err := m.candidates.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load viewer profile: %w", err)
	}

	filter := models.CandidateFilter{ExcludeID: userID, Limit: m.poolLimit}
	if viewer != nil {
		filter.Gender = viewer.Gender.Opposite()
	}

	pool, err := m.candidates.ListCandidates(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	m.logger.Debug("Loaded candidate pool",
		zap.String("user_id", userID),
		zap.Int("pool_size", len(pool)),
		zap.String("gender", string(filter.Gender)),
	)
	if m.poolLimit > 0 && len(pool) >= m.poolLimit {
		m.logger.Warn("Candidate pool truncated",
			zap.String("user_id", userID),
			zap.Int("limit", m.poolLimit),
		)
	}

	scored := m.scorer.ScoreAll(prefs, pool, true)
	scores := make([]int, len(scored))
	for i := range scored {
		scores[i] = scored[i].MatchScore
	}
	recordScores(scores)

	return SortByScore(scored), nil
}

func (m *MatcherService) normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = m.defaultPageSize
	}
	if size > m.maxPageSize {
		size = m.maxPageSize
	}
	return page, size
}

// paginate copies one page out of the ranked list so cached data is never shared.
func (m *MatcherService) paginate(ranked []models.ScoredCandidate, req RankRequest) *RankResult {
	page, size := m.normalizePage(req.Page, req.PageSize)
	total := len(ranked)

	result := &RankResult{
		Candidates: []models.ScoredCandidate{},
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: (total + size - 1) / size,
	}

	from := (page - 1) * size
	if from >= total {
		return result
	}
	to := from + size
	if to > total {
		to = total
	}

	now := time.Now()
	for _, c := range ranked[from:to] {
		c.Profile = c.Profile.Public().WithDerivedAge(now)
		if !req.Breakdown {
			c.Breakdown = nil
		}
		result.Candidates = append(result.Candidates, c)
	}
	return result
}

// ScoreCandidate scores one candidate for the viewer with a full breakdown.
func (m *MatcherService) ScoreCandidate(ctx context.Context, userID, candidateID string) (*models.ScoredCandidate, error) {
	prefs, err := m.preferencesFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidate, err := m.candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate: %w", err)
	}
	if candidate == nil || !candidate.IsActive {
		return nil, models.ErrProfileNotFound
	}

	ev := m.scorer.Evaluate(prefs, candidate)
	return &models.ScoredCandidate{
		Profile:    candidate.Public().WithDerivedAge(time.Now()),
		MatchScore: ev.Score,
		Breakdown:  ev.Breakdown,
	}, nil
}

// ScoreProfiles scores an arbitrary set of profiles for the viewer and sorts them.
func (m *MatcherService) ScoreProfiles(ctx context.Context, userID string, profiles []*models.Profile) ([]models.ScoredCandidate, error) {
	prefs, err := m.preferencesFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ranked := SortByScore(m.scorer.ScoreAll(prefs, profiles, false))
	for i := range ranked {
		ranked[i].Profile = ranked[i].Profile.Public().WithDerivedAge(now)
	}
	return ranked, nil
}

// InvalidateUser drops memoized rankings after the user's preferences change.
func (m *MatcherService) InvalidateUser(ctx context.Context, userID string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.InvalidateUser(ctx, userID); err != nil {
		m.logger.Warn("Failed to invalidate rank cache", zap.String("user_id", userID), zap.Error(err))
	}
}
