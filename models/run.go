package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// CrawlRun records one end-to-end search crawl for operational bookkeeping.
type CrawlRun struct {
	ID            int64      `json:"id" db:"id"`
	Address       string     `json:"address" db:"address"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	FinishedAt    *time.Time `json:"finished_at" db:"finished_at"`
	Status        RunStatus  `json:"status" db:"status"`
	ListingsFound int        `json:"listings_found" db:"listings_found"`
	CacheHit      bool       `json:"cache_hit" db:"cache_hit"`
	ErrorsCount   int        `json:"errors_count" db:"errors_count"`
}

// SearchHistoryEntry is one saved natural-language search.
type SearchHistoryEntry struct {
	ID         int64     `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Query      string    `json:"query" db:"query"`
	FilterJSON string    `json:"filter_json" db:"filter_json"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
