package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"landseek/keywords"
	"landseek/models"
	"landseek/storage"
)

// ListingCrawler runs one crawl for a validated filter.
type ListingCrawler interface {
	Crawl(ctx context.Context, filter *models.SearchFilter) ([]models.Listing, error)
}

// SearchService ties the pipeline together: extract keywords, check the
// cache, crawl, then persist the results everywhere they belong.
type SearchService struct {
	extractor keywords.Extractor
	crawler   ListingCrawler
	cache     *storage.RedisStore
	pg        *storage.PostgresStore
	local     *storage.SQLiteStore
}

func NewSearchService(extractor keywords.Extractor, crawler ListingCrawler,
	cache *storage.RedisStore, pg *storage.PostgresStore, local *storage.SQLiteStore) *SearchService {
	return &SearchService{
		extractor: extractor,
		crawler:   crawler,
		cache:     cache,
		pg:        pg,
		local:     local,
	}
}

// SearchResult is the outcome of one search, cached or crawled.
type SearchResult struct {
	RequestID uuid.UUID            `json:"request_id"`
	RedisKey  string               `json:"redis_key,omitempty"`
	Filter    *models.SearchFilter `json:"filter"`
	Listings  []models.Listing     `json:"listings"`
	CacheHit  bool                 `json:"cache_hit"`
}

// Search handles one natural-language query end to end. Crawl-side failures
// degrade to an empty result; only an invalid filter is an error.
func (s *SearchService) Search(ctx context.Context, userID, query string) (*SearchResult, error) {
	filter, err := s.extractor.Extract(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("extract filter: %w", err)
	}

	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("marshal filter: %w", err)
	}

	s.recordHistory(userID, query, filterJSON)
	s.bumpScores(ctx, userID, filter)

	result := &SearchResult{
		RequestID: uuid.New(),
		Filter:    filter,
	}

	if cached := s.lookupCache(ctx, filter); cached != nil {
		result.Listings = cached.Listings
		result.CacheHit = true
		key, _ := storage.CacheKey(filter)
		result.RedisKey = key
		s.persistRequest(ctx, result, userID, query, filterJSON)
		return result, nil
	}

	run := s.startRun(filter.Address)

	listings, err := s.crawler.Crawl(ctx, filter)
	if err != nil {
		s.finishRun(run, models.RunStatusFailed, 0)
		return nil, err
	}
	result.Listings = listings

	if s.cache != nil {
		key, err := s.cache.StoreResults(ctx, filter, listings)
		if err != nil {
			log.Printf("Warning: failed to cache results: %v", err)
		} else {
			result.RedisKey = key
		}
	}

	s.persistRequest(ctx, result, userID, query, filterJSON)
	s.refreshRecommendations(ctx, userID, listings)
	s.finishRun(run, models.RunStatusCompleted, len(listings))

	return result, nil
}

// Refresh re-runs a previously extracted filter, bypassing keyword
// extraction. The scheduler uses this to keep cached results warm.
func (s *SearchService) Refresh(ctx context.Context, filterJSON []byte) error {
	var filter models.SearchFilter
	if err := json.Unmarshal(filterJSON, &filter); err != nil {
		return fmt.Errorf("decode stored filter: %w", err)
	}

	listings, err := s.crawler.Crawl(ctx, &filter)
	if err != nil {
		return err
	}

	if s.cache != nil {
		if _, err := s.cache.StoreResults(ctx, &filter, listings); err != nil {
			return fmt.Errorf("cache refreshed results: %w", err)
		}
	}
	return nil
}

func (s *SearchService) lookupCache(ctx context.Context, filter *models.SearchFilter) *storage.CachedResult {
	if s.cache == nil {
		return nil
	}
	cached, err := s.cache.GetResults(ctx, filter)
	if err != nil {
		log.Printf("Warning: cache lookup failed: %v", err)
		return nil
	}
	return cached
}

func (s *SearchService) recordHistory(userID, query string, filterJSON []byte) {
	if s.local == nil {
		return
	}
	_, err := s.local.RecordSearch(&models.SearchHistoryEntry{
		UserID:     userID,
		Query:      query,
		FilterJSON: string(filterJSON),
		CreatedAt:  time.Now(),
	})
	if err != nil {
		log.Printf("Warning: failed to record search history: %v", err)
	}
}

func (s *SearchService) bumpScores(ctx context.Context, userID string, filter *models.SearchFilter) {
	if s.cache == nil {
		return
	}
	if err := s.cache.BumpKeywordScores(ctx, userID, filter); err != nil {
		log.Printf("Warning: failed to bump keyword scores: %v", err)
	}
}

func (s *SearchService) persistRequest(ctx context.Context, result *SearchResult, userID, query string, filterJSON []byte) {
	if s.pg == nil {
		return
	}

	req := &models.SearchRequest{
		ID:         result.RequestID,
		UserID:     userID,
		Query:      query,
		FilterJSON: filterJSON,
		CacheHit:   result.CacheHit,
	}
	if err := s.pg.CreateSearchRequest(ctx, req); err != nil {
		log.Printf("Warning: failed to persist search request: %v", err)
		return
	}

	if !result.CacheHit {
		if err := s.pg.InsertListings(ctx, result.RequestID, result.Listings); err != nil {
			log.Printf("Warning: failed to persist listings: %v", err)
		}
	}
}

func (s *SearchService) refreshRecommendations(ctx context.Context, userID string, listings []models.Listing) {
	if s.cache == nil || len(listings) == 0 {
		return
	}

	top := listings
	if len(top) > 10 {
		top = top[:10]
	}
	if err := s.cache.StoreRecommendations(ctx, userID, top); err != nil {
		log.Printf("Warning: failed to store user recommendations: %v", err)
	}
	if err := s.cache.StoreRecommendations(ctx, "", top); err != nil {
		log.Printf("Warning: failed to store global recommendations: %v", err)
	}
}

func (s *SearchService) startRun(address string) *models.CrawlRun {
	run := &models.CrawlRun{
		Address:   address,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	if s.local == nil {
		return run
	}

	id, err := s.local.CreateRun(run)
	if err != nil {
		log.Printf("Warning: failed to create crawl run: %v", err)
		return run
	}
	run.ID = id
	return run
}

func (s *SearchService) finishRun(run *models.CrawlRun, status models.RunStatus, found int) {
	if s.local == nil || run.ID == 0 {
		return
	}

	now := time.Now()
	run.FinishedAt = &now
	run.Status = status
	run.ListingsFound = found
	if err := s.local.UpdateRun(run); err != nil {
		log.Printf("Warning: failed to update crawl run: %v", err)
	}
}
