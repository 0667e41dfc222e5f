package services

import (
	"context"
	"log"

	"landseek/models"
	"landseek/storage"
)

// RecommendService serves the recommendation board built from keyword
// scores and the most recent successful searches.
type RecommendService struct {
	cache *storage.RedisStore
}

func NewRecommendService(cache *storage.RedisStore) *RecommendService {
	return &RecommendService{cache: cache}
}

// Recommend returns listings for the user, falling back to the global board
// when the user has no personal history yet. Results are flagged so callers
// can tell them apart from fresh search output.
func (s *RecommendService) Recommend(ctx context.Context, userID string, limit int) ([]models.Listing, error) {
	if s.cache == nil {
		return nil, nil
	}

	listings, err := s.cache.GetRecommendations(ctx, userID, limit)
	if err != nil {
		log.Printf("Warning: user recommendation lookup failed: %v", err)
	}
	if len(listings) == 0 && userID != "" {
		listings, err = s.cache.GetRecommendations(ctx, "", limit)
		if err != nil {
			return nil, err
		}
	}

	for i := range listings {
		listings[i].IsRecommendation = true
	}
	return listings, nil
}

// TopKeywords merges the user's keyword scores per category, used to label
// the recommendation board.
func (s *RecommendService) TopKeywords(ctx context.Context, userID string, limit int) (map[string][]storage.KeywordScore, error) {
	if s.cache == nil {
		return nil, nil
	}

	categories := []string{
		storage.CategoryAddress,
		storage.CategoryTransaction,
		storage.CategoryBuilding,
		storage.CategoryArea,
	}

	scores := make(map[string][]storage.KeywordScore, len(categories))
	for _, category := range categories {
		top, err := s.cache.TopKeywords(ctx, userID, category, limit)
		if err != nil {
			return nil, err
		}
		if len(top) == 0 && userID != "" {
			top, err = s.cache.TopKeywords(ctx, "", category, limit)
			if err != nil {
				return nil, err
			}
		}
		scores[category] = top
	}
	return scores, nil
}
