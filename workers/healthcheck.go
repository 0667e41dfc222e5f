package workers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"landseek/models"
	"landseek/storage"
)

// HealthcheckWorker probes aging listings and deactivates the ones whose
// detail pages no longer resolve.
type HealthcheckWorker struct {
	store      *storage.PostgresStore
	httpClient *http.Client
	userAgent  string
	triggerCh  chan struct{}
	logFunc    LogFunc
}

// NewHealthcheckWorker wants a client that does not follow redirects; a
// redirect's target is part of the liveness signal.
func NewHealthcheckWorker(store *storage.PostgresStore, client *http.Client, userAgent string) *HealthcheckWorker {
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	return &HealthcheckWorker{
		store:      store,
		httpClient: client,
		userAgent:  userAgent,
		triggerCh:  make(chan struct{}, 1),
		logFunc:    NoOpLogger,
	}
}

func (w *HealthcheckWorker) SetLogger(fn LogFunc) {
	w.logFunc = fn
}

// Trigger causes the worker to run immediately.
func (w *HealthcheckWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// CheckResult contains the outcome of probing one listing.
type CheckResult struct {
	IsLive     bool
	StatusCode int
	Error      error
}

// Check sends a lightweight HEAD request to the detail URL.
func (w *HealthcheckWorker) Check(ctx context.Context, detailURL string) CheckResult {
	req, err := http.NewRequestWithContext(ctx, "HEAD", detailURL, nil)
	if err != nil {
		return CheckResult{Error: err}
	}
	req.Header.Set("User-Agent", w.userAgent)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return CheckResult{Error: err}
	}
	resp.Body.Close()

	result := CheckResult{StatusCode: resp.StatusCode}

	switch resp.StatusCode {
	case 200:
		result.IsLive = true
	case 404, 410:
		result.IsLive = false
	case 301, 302:
		result.IsLive = !isDelistRedirect(resp.Header.Get("Location"))
	default:
		// Other codes prove nothing; keep the listing active
		result.IsLive = true
	}

	return result
}

// isDelistRedirect reports whether a redirect target indicates the article
// was taken down. Dead articles bounce back to the search or map entry.
func isDelistRedirect(location string) bool {
	delistPatterns := []string{
		"/search",
		"/map",
		"notfound",
		"error",
	}

	lower := strings.ToLower(location)
	for _, pattern := range delistPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// Run starts the healthcheck loop.
func (w *HealthcheckWorker) Run(ctx context.Context, staleDuration time.Duration, batchSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Healthcheck worker stopping")
			return
		case <-ticker.C:
			w.processBatch(ctx, staleDuration, batchSize)
		case <-w.triggerCh:
			log.Println("Healthcheck worker triggered manually")
			w.processBatch(ctx, staleDuration, batchSize)
		}
	}
}

func (w *HealthcheckWorker) processBatch(ctx context.Context, staleDuration time.Duration, batchSize int) {
	cutoff := time.Now().Add(-staleDuration)
	targets, err := w.store.StaleListings(ctx, cutoff, batchSize)
	if err != nil {
		log.Printf("Healthcheck: query error: %v", err)
		return
	}
	if len(targets) == 0 {
		return
	}

	log.Printf("Healthcheck: checking %d stale listings", len(targets))

	var checked, delisted int
	for _, target := range targets {
		if ctx.Err() != nil {
			return
		}

		result := w.Check(ctx, target.DetailURL)
		checked++

		if result.Error != nil {
			log.Printf("Healthcheck: error checking %s: %v", target.ArticleNo, result.Error)
			continue
		}

		if !result.IsLive {
			log.Printf("Healthcheck: listing gone (status %d): %s", result.StatusCode, target.ArticleNo)
			delisted++
		}
		if err := w.store.MarkListingChecked(ctx, target.ID, result.IsLive); err != nil {
			log.Printf("Healthcheck: failed to mark %s: %v", target.ArticleNo, err)
		}

		// Rate limit between requests
		time.Sleep(500 * time.Millisecond)
	}

	if delisted > 0 {
		w.logFunc(models.LogLevelInfo, "healthcheck deactivated listings")
		log.Printf("Healthcheck: checked %d, deactivated %d", checked, delisted)
	}
}
