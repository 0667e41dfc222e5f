package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"landseek/config"
	"landseek/models"
)

const (
	resultTTL = 5 * time.Minute
	scoreTTL  = time.Hour
)

// RedisStore provides the short-lived result cache and the keyword score
// board backing recommendations.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// CacheKey derives a deterministic key from the filter. The filter is
// re-marshalled through a map so key order never depends on struct layout.
func CacheKey(filter *models.SearchFilter) (string, error) {
	raw, err := json.Marshal(filter)
	if err != nil {
		return "", fmt.Errorf("marshal filter: %w", err)
	}

	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return "", fmt.Errorf("remarshal filter: %w", err)
	}
	canonical, err := json.Marshal(asMap)
	if err != nil {
		return "", fmt.Errorf("canonicalize filter: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return fmt.Sprintf("search:%s:results", hex.EncodeToString(sum[:])[:16]), nil
}

// CachedResult is what one search leaves behind in Redis.
type CachedResult struct {
	Filter       *models.SearchFilter `json:"keywords"`
	Listings     []models.Listing     `json:"properties"`
	ListingCount int                  `json:"property_count"`
	Timestamp    time.Time            `json:"timestamp"`
}

func (s *RedisStore) StoreResults(ctx context.Context, filter *models.SearchFilter, listings []models.Listing) (string, error) {
	key, err := CacheKey(filter)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(CachedResult{
		Filter:       filter,
		Listings:     listings,
		ListingCount: len(listings),
		Timestamp:    time.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}

	if err := s.client.Set(ctx, key, data, resultTTL).Err(); err != nil {
		return "", fmt.Errorf("store results: %w", err)
	}
	return key, nil
}

// GetResults returns the cached result for the filter, or nil when the key
// has expired or never existed.
func (s *RedisStore) GetResults(ctx context.Context, filter *models.SearchFilter) (*CachedResult, error) {
	key, err := CacheKey(filter)
	if err != nil {
		return nil, err
	}
	return s.GetResultsByKey(ctx, key)
}

func (s *RedisStore) GetResultsByKey(ctx context.Context, key string) (*CachedResult, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get results: %w", err)
	}

	var result CachedResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode cached results: %w", err)
	}
	return &result, nil
}

// ResultTTL reports how long a cached result key has left to live.
// Returns zero when the key does not exist.
func (s *RedisStore) ResultTTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("result ttl: %w", err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// Keyword score categories.
const (
	CategoryAddress     = "address"
	CategoryTransaction = "transaction_type"
	CategoryBuilding    = "building_type"
	CategoryArea        = "area"
)

func scoreKey(userID, category string) string {
	if userID == "" {
		return "global:keywords:" + category
	}
	return fmt.Sprintf("user:%s:keywords:%s", userID, category)
}

// BumpKeywordScores adds one point per extracted keyword, for the user and
// globally. An empty userID is skipped on the user side.
func (s *RedisStore) BumpKeywordScores(ctx context.Context, userID string, filter *models.SearchFilter) error {
	bump := func(category, member string) error {
		keys := []string{scoreKey("", category)}
		if userID != "" {
			keys = append(keys, scoreKey(userID, category))
		}
		for _, key := range keys {
			if err := s.client.ZIncrBy(ctx, key, 1, member).Err(); err != nil {
				return fmt.Errorf("bump %s: %w", key, err)
			}
			if err := s.client.Expire(ctx, key, scoreTTL).Err(); err != nil {
				return fmt.Errorf("expire %s: %w", key, err)
			}
		}
		return nil
	}

	if err := bump(CategoryAddress, filter.Address); err != nil {
		return err
	}
	for _, t := range filter.TransactionTypes {
		if err := bump(CategoryTransaction, t); err != nil {
			return err
		}
	}
	for _, b := range filter.BuildingTypes {
		if err := bump(CategoryBuilding, b); err != nil {
			return err
		}
	}
	if filter.AreaBucket != "" {
		if err := bump(CategoryArea, filter.AreaBucket); err != nil {
			return err
		}
	}
	return nil
}

// KeywordScore is one entry of a score board, highest scores first.
type KeywordScore struct {
	Keyword string
	Score   float64
}

func (s *RedisStore) TopKeywords(ctx context.Context, userID, category string, limit int) ([]KeywordScore, error) {
	entries, err := s.client.ZRevRangeWithScores(ctx, scoreKey(userID, category), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("top keywords: %w", err)
	}

	scores := make([]KeywordScore, 0, len(entries))
	for _, entry := range entries {
		member, ok := entry.Member.(string)
		if !ok {
			continue
		}
		scores = append(scores, KeywordScore{Keyword: member, Score: entry.Score})
	}
	return scores, nil
}

func (s *RedisStore) StoreRecommendations(ctx context.Context, userID string, listings []models.Listing) error {
	key := "global:recommendations"
	if userID != "" {
		key = fmt.Sprintf("user:%s:recommendations", userID)
	}

	data, err := json.Marshal(listings)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	return s.client.Set(ctx, key, data, scoreTTL).Err()
}

func (s *RedisStore) GetRecommendations(ctx context.Context, userID string, limit int) ([]models.Listing, error) {
	key := "global:recommendations"
	if userID != "" {
		key = fmt.Sprintf("user:%s:recommendations", userID)
	}

	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recommendations: %w", err)
	}

	var listings []models.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}
	if limit > 0 && len(listings) > limit {
		listings = listings[:limit]
	}
	return listings, nil
}
