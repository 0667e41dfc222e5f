package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"landseek/config"
	"landseek/services"
	"landseek/storage"
)

// Triggerable allows workers to be triggered manually.
type Triggerable interface {
	Trigger()
}

// Scheduler periodically replays recent searches so their cached results
// stay warm past the cache TTL.
type Scheduler struct {
	cfg    *config.Config
	search *services.SearchService
	store  *storage.SQLiteStore
	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}

	healthcheckWorker Triggerable
}

// refreshLimit caps how many distinct recent searches one cycle re-runs.
// Each replay costs a full browser session.
const refreshLimit = 5

func New(cfg *config.Config, search *services.SearchService, store *storage.SQLiteStore) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		search: search,
		store:  store,
		cron:   cron.New(),
		stopCh: make(chan struct{}),
	}
}

// SetWorkers registers background workers for manual triggering.
func (s *Scheduler) SetWorkers(healthcheck Triggerable) {
	s.healthcheckWorker = healthcheck
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Scheduler.Cron != "" {
		log.Printf("Starting scheduler with cron: %s", s.cfg.Scheduler.Cron)
		_, err := s.cron.AddFunc(s.cfg.Scheduler.Cron, func() {
			s.refreshRecent(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Scheduler.Interval > 0 {
		log.Printf("Starting scheduler with interval: %s", s.cfg.Scheduler.Interval)
		s.ticker = time.NewTicker(s.cfg.Scheduler.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.refreshRecent(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		log.Println("No schedule configured, cached results expire naturally")
	}

	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}

// TriggerNow replays recent searches immediately.
func (s *Scheduler) TriggerNow(ctx context.Context) {
	s.refreshRecent(ctx)
	if s.healthcheckWorker != nil {
		s.healthcheckWorker.Trigger()
	}
}

func (s *Scheduler) refreshRecent(ctx context.Context) {
	if s.store == nil || s.search == nil {
		return
	}

	entries, err := s.store.RecentSearches(refreshLimit)
	if err != nil {
		log.Printf("Scheduler: failed to load recent searches: %v", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	log.Printf("Scheduler: refreshing %d recent searches", len(entries))

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if err := s.search.Refresh(ctx, []byte(entry.FilterJSON)); err != nil {
			log.Printf("Scheduler: refresh failed for %q: %v", entry.Query, err)
		}
	}
}
