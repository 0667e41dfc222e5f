package models

import (
	"time"

	"github.com/google/uuid"
)

// SearchRequest is one user search as persisted in Postgres. FilterJSON is
// the canonical serialized filter the crawl ran with.
type SearchRequest struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"user_id,omitempty"`
	Query      string    `json:"query"`
	FilterJSON []byte    `json:"filter_json"`
	CacheHit   bool      `json:"cache_hit"`
	CreatedAt  time.Time `json:"created_at"`
}

// EnrichmentTarget identifies a stored listing whose detail page a worker
// should visit.
type EnrichmentTarget struct {
	ID        int64
	ArticleNo string
	DetailURL string
}
