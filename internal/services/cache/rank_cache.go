// Package cache memoizes ranked match lists in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"matrimony-match-engine/internal/models"
	"matrimony-match-engine/internal/utils"
)

const keyPrefix = "rank"

// RankCache stores a user's full ranked list under a key derived from the
// preferences it was computed with, so edited preferences never hit a stale list.
type RankCache struct {
	rdb    *goredis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRankCache connects to the Redis instance at url (redis://host:port/db).
func NewRankCache(url string, ttl time.Duration) (*RankCache, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second

	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewWithClient(rdb, ttl), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *goredis.Client, ttl time.Duration) *RankCache {
	return &RankCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: utils.GetLogger().Named("rank_cache"),
	}
}

// GetRanked returns the cached list, or ok=false on a miss.
func (c *RankCache) GetRanked(ctx context.Context, userID string, prefs *models.UserPreferences) ([]models.ScoredCandidate, bool, error) {
	key, err := Key(userID, prefs)
	if err != nil {
		return nil, false, err
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read ranked list: %w", err)
	}

	var ranked []models.ScoredCandidate
	if err := json.Unmarshal(raw, &ranked); err != nil {
		c.logger.Warn("Dropping undecodable cache entry", utils.String("key", key), utils.Error(err))
		_ = c.rdb.Del(ctx, key).Err()
		return nil, false, nil
	}
	return ranked, true, nil
}

// SetRanked stores the list for the configured TTL.
func (c *RankCache) SetRanked(ctx context.Context, userID string, prefs *models.UserPreferences, ranked []models.ScoredCandidate) error {
	key, err := Key(userID, prefs)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(ranked)
	if err != nil {
		return fmt.Errorf("failed to encode ranked list: %w", err)
	}

	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write ranked list: %w", err)
	}
	return nil
}

// InvalidateUser drops every cached list of the user.
func (c *RankCache) InvalidateUser(ctx context.Context, userID string) error {
	iter := c.rdb.Scan(ctx, 0, UserPattern(userID), 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	c.logger.Debug("Invalidated ranked lists", utils.String("user_id", userID), utils.Int("keys", len(keys)))
	return nil
}

// Ping checks Redis connectivity.
func (c *RankCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the client.
func (c *RankCache) Close() error {
	return c.rdb.Close()
}

// Key builds the cache key of a user's list under the given preferences.
func Key(userID string, prefs *models.UserPreferences) (string, error) {
	fp, err := Fingerprint(prefs)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%s", keyPrefix, userID, fp), nil
}

// UserPattern matches every key of a user.
func UserPattern(userID string) string {
	return fmt.Sprintf("%s:%s:*", keyPrefix, userID)
}

// Fingerprint hashes the scoring-relevant part of the preferences. Owner and
// timestamps are left out.
func Fingerprint(prefs *models.UserPreferences) (string, error) {
	if prefs == nil {
		return "none", nil
	}

	scoring := *prefs
	scoring.UserID = ""
	scoring.CreatedAt = time.Time{}
	scoring.UpdatedAt = time.Time{}

	raw, err := json.Marshal(scoring)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint preferences: %w", err)
	}

	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8]), nil
}
