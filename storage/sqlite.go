package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"landseek/models"
)

// SQLiteStore keeps local operational state: crawl runs, crawl logs and the
// search history the scheduler replays.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY,
		address TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		listings_found INTEGER,
		cache_hit BOOLEAN DEFAULT FALSE,
		errors_count INTEGER
	);

	CREATE TABLE IF NOT EXISTS crawl_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT
	);

	CREATE TABLE IF NOT EXISTS search_history (
		id INTEGER PRIMARY KEY,
		user_id TEXT,
		query TEXT,
		filter_json TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_logs_run ON crawl_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON crawl_runs(status, started_at);
	CREATE INDEX IF NOT EXISTS idx_history_user ON search_history(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_history_created ON search_history(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateRun(run *models.CrawlRun) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO crawl_runs (address, started_at, status, listings_found, cache_hit, errors_count)
		VALUES (?, ?, ?, 0, FALSE, 0)`,
		run.Address, run.StartedAt, run.Status)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(run *models.CrawlRun) error {
	_, err := s.db.Exec(`
		UPDATE crawl_runs SET finished_at = ?, status = ?, listings_found = ?,
			cache_hit = ?, errors_count = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.ListingsFound, run.CacheHit, run.ErrorsCount, run.ID)
	return err
}

func (s *SQLiteStore) GetRun(id int64) (*models.CrawlRun, error) {
	row := s.db.QueryRow(`
		SELECT id, address, started_at, finished_at, status, listings_found, cache_hit, errors_count
		FROM crawl_runs WHERE id = ?`, id)

	var run models.CrawlRun
	var finished sql.NullTime
	err := row.Scan(&run.ID, &run.Address, &run.StartedAt, &finished, &run.Status,
		&run.ListingsFound, &run.CacheHit, &run.ErrorsCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return &run, nil
}

func (s *SQLiteStore) Log(runID *int64, level models.LogLevel, message string) error {
	_, err := s.db.Exec(`
		INSERT INTO crawl_logs (run_id, timestamp, level, message)
		VALUES (?, ?, ?, ?)`,
		runID, time.Now(), level, message)
	return err
}

func (s *SQLiteStore) GetLogsForRun(runID int64) ([]models.CrawlLog, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, timestamp, level, message
		FROM crawl_logs WHERE run_id = ? ORDER BY timestamp`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.CrawlLog
	for rows.Next() {
		var entry models.CrawlLog
		if err := rows.Scan(&entry.ID, &entry.RunID, &entry.Timestamp, &entry.Level, &entry.Message); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func (s *SQLiteStore) RecordSearch(entry *models.SearchHistoryEntry) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO search_history (user_id, query, filter_json, created_at)
		VALUES (?, ?, ?, ?)`,
		entry.UserID, entry.Query, entry.FilterJSON, entry.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// RecentSearches returns the latest distinct queries, newest first. The
// scheduler replays these to keep cached results warm.
func (s *SQLiteStore) RecentSearches(limit int) ([]models.SearchHistoryEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, query, filter_json, MAX(created_at) as created_at
		FROM search_history
		GROUP BY query
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.SearchHistoryEntry
	for rows.Next() {
		var entry models.SearchHistoryEntry
		var userID sql.NullString
		if err := rows.Scan(&entry.ID, &userID, &entry.Query, &entry.FilterJSON, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.UserID = userID.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) SearchesForUser(userID string, limit int) ([]models.SearchHistoryEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, query, filter_json, created_at
		FROM search_history WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.SearchHistoryEntry
	for rows.Next() {
		var entry models.SearchHistoryEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Query, &entry.FilterJSON, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
