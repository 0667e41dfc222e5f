package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"landseek/models"
)

// PostgresStore is the durable home for search requests and the listings
// each crawl produced for them.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS search_requests (
		id UUID PRIMARY KEY,
		user_id TEXT,
		query TEXT NOT NULL,
		filter_json JSONB NOT NULL,
		cache_hit BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS listings (
		id BIGSERIAL PRIMARY KEY,
		request_id UUID NOT NULL REFERENCES search_requests(id),
		article_no TEXT NOT NULL,
		address TEXT,
		owner_type TEXT,
		transaction_type TEXT,
		price BIGINT,
		building_type TEXT,
		area_pyeong DOUBLE PRECISION,
		floor_info TEXT,
		direction TEXT,
		tags TEXT[],
		updated_date TEXT,
		detail_url TEXT,
		image_urls TEXT[],
		description TEXT,
		is_active BOOLEAN DEFAULT TRUE,
		enriched_at TIMESTAMPTZ,
		checked_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (request_id, article_no)
	);

	CREATE INDEX IF NOT EXISTS idx_requests_created ON search_requests(created_at);
	CREATE INDEX IF NOT EXISTS idx_listings_article ON listings(article_no);
	CREATE INDEX IF NOT EXISTS idx_listings_active ON listings(is_active, checked_at);
	CREATE INDEX IF NOT EXISTS idx_listings_enrichment ON listings(enriched_at) WHERE enriched_at IS NULL;
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PostgresStore) CreateSearchRequest(ctx context.Context, req *models.SearchRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO search_requests (id, user_id, query, filter_json, cache_hit, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		req.ID, req.UserID, req.Query, req.FilterJSON, req.CacheHit, req.CreatedAt)
	return err
}

// InsertListings stores the crawl results for one request in a single batch.
// Re-crawls of the same request overwrite their previous rows.
func (s *PostgresStore) InsertListings(ctx context.Context, requestID uuid.UUID, listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, l := range listings {
		batch.Queue(`
			INSERT INTO listings (
				request_id, article_no, address, owner_type, transaction_type, price,
				building_type, area_pyeong, floor_info, direction, tags, updated_date, detail_url
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (request_id, article_no) DO UPDATE SET
				price = EXCLUDED.price,
				tags = EXCLUDED.tags,
				updated_date = EXCLUDED.updated_date,
				detail_url = EXCLUDED.detail_url,
				is_active = TRUE`,
			requestID, l.ArticleNo, l.Address, l.OwnerType, l.TransactionType, l.Price,
			l.BuildingType, l.AreaPyeong, l.FloorInfo, l.Direction, l.Tags, l.UpdatedDate, l.DetailURL)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range listings {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert listing: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) ListingsForRequest(ctx context.Context, requestID uuid.UUID) ([]models.Listing, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT article_no, address, owner_type, transaction_type, price, building_type,
			area_pyeong, floor_info, direction, tags, updated_date, detail_url,
			COALESCE(image_urls, '{}'), COALESCE(description, '')
		FROM listings WHERE request_id = $1 AND is_active = TRUE
		ORDER BY id`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(&l.ArticleNo, &l.Address, &l.OwnerType, &l.TransactionType,
			&l.Price, &l.BuildingType, &l.AreaPyeong, &l.FloorInfo, &l.Direction,
			&l.Tags, &l.UpdatedDate, &l.DetailURL, &l.ImageURLs, &l.Description); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// PendingEnrichment returns listings with a detail URL that have not yet
// been visited by the enrichment worker.
func (s *PostgresStore) PendingEnrichment(ctx context.Context, limit int) ([]models.EnrichmentTarget, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, article_no, detail_url
		FROM listings
		WHERE enriched_at IS NULL AND detail_url <> '' AND is_active = TRUE
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []models.EnrichmentTarget
	for rows.Next() {
		var t models.EnrichmentTarget
		if err := rows.Scan(&t.ID, &t.ArticleNo, &t.DetailURL); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

func (s *PostgresStore) SaveEnrichment(ctx context.Context, listingID int64, description string, imageURLs []string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE listings SET description = $2, image_urls = $3, enriched_at = NOW()
		WHERE id = $1`,
		listingID, description, imageURLs)
	return err
}

// MarkEnrichmentAttempt stamps enriched_at without data so a broken detail
// page is not retried forever.
func (s *PostgresStore) MarkEnrichmentAttempt(ctx context.Context, listingID int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE listings SET enriched_at = NOW() WHERE id = $1`, listingID)
	return err
}

// StaleListings returns active listings not checked since the cutoff, for
// the healthcheck worker to probe.
func (s *PostgresStore) StaleListings(ctx context.Context, cutoff time.Time, limit int) ([]models.EnrichmentTarget, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, article_no, detail_url
		FROM listings
		WHERE is_active = TRUE AND detail_url <> ''
			AND (checked_at IS NULL OR checked_at < $1)
		ORDER BY checked_at NULLS FIRST
		LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []models.EnrichmentTarget
	for rows.Next() {
		var t models.EnrichmentTarget
		if err := rows.Scan(&t.ID, &t.ArticleNo, &t.DetailURL); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

func (s *PostgresStore) MarkListingChecked(ctx context.Context, listingID int64, active bool) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE listings SET checked_at = NOW(), is_active = $2 WHERE id = $1`,
		listingID, active)
	return err
}

func (s *PostgresStore) GetSearchRequest(ctx context.Context, id uuid.UUID) (*models.SearchRequest, error) {
	var req models.SearchRequest
	err := s.pool.QueryRow(ctx, `
		SELECT id, COALESCE(user_id, ''), query, filter_json, cache_hit, created_at
		FROM search_requests WHERE id = $1`, id).Scan(
		&req.ID, &req.UserID, &req.Query, &req.FilterJSON, &req.CacheHit, &req.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}
