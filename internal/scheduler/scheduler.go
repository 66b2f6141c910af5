package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"MarketMovers/internal/catalog"
)

// Syncer refreshes the product catalog.
type Syncer interface {
	Run(ctx context.Context) (inserted, updated int, err error)
}

// Scheduler runs the catalog sync on a cron schedule.
type Scheduler struct {
	Cron   *cron.Cron
	Syncer Syncer
	Store  catalog.Store
	Ctx    context.Context

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a new Scheduler. Cron specs include a seconds field.
func NewScheduler(ctx context.Context, syncer Syncer, store catalog.Store) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Syncer: syncer,
		Store:  store,
		Ctx:    ctx,
	}
}

// RegisterAll registers the catalog sync task.
func (s *Scheduler) RegisterAll(syncCron string) error {
	if _, err := s.Cron.AddFunc(syncCron, s.syncTask); err != nil {
		return fmt.Errorf("register catalog sync: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running sync to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunSyncNow executes the catalog sync immediately.
func (s *Scheduler) RunSyncNow() {
	s.syncTask()
}

// SyncIfEmpty runs the sync when the catalog holds no products yet.
func (s *Scheduler) SyncIfEmpty() {
	n, err := s.Store.Count(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] count catalog: %v", err)
		return
	}
	if n == 0 {
		log.Println("[INFO] catalog is empty, syncing now")
		s.syncTask()
	}
}

// syncTask skips overlapping runs.
func (s *Scheduler) syncTask() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Println("[WARN] catalog sync already running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	log.Println("[INFO] running catalog sync")
	if _, _, err := s.Syncer.Run(s.Ctx); err != nil {
		log.Printf("[ERROR] catalog sync: %v", err)
	}
}
