package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"aura-protocol-go/internal/config"
	"aura-protocol-go/internal/metrics"
	"aura-protocol-go/internal/store"
)

// ChainReader is the subset of the explorer client the refresh job reads.
type ChainReader interface {
	Endpoint() string
	GetLatestHeight(ctx context.Context) (int64, error)
	PoolLiquidity(ctx context.Context, poolID int) (decimal.Decimal, error)
}

// Status describes the scheduler for the API.
type Status struct {
	Running   bool      `json:"running"`
	NextRun   time.Time `json:"next_run"`
	LastRun   time.Time `json:"last_run"`
	LastError string    `json:"last_error,omitempty"`
}

// Scheduler periodically refreshes chain state: the latest block height and
// the liquidity of each lending pool.
type Scheduler struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	config    *config.SchedulerConfig
	chain     ChainReader
	store     *store.Store
	metrics   *metrics.Metrics
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	lastRun   time.Time
	lastErr   error
	mu        sync.RWMutex
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg *config.SchedulerConfig, chain ChainReader, st *store.Store, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		config:  cfg,
		chain:   chain,
		store:   st,
		metrics: m,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	schedule := fmt.Sprintf("0 */%d * * * *", s.config.IntervalMinutes)
	entryID, err := s.cron.AddFunc(schedule, s.refreshChain)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	// A fresh context each start; Stop cancels the previous one.
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Scheduler started with interval: %d minutes", s.config.IntervalMinutes)
	return nil
}

// Stop stops the scheduler and waits for a running refresh to return.
// The lock is released while waiting: a refresh records its result under it.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.cancel()
	ctx := s.cron.Stop()
	s.cron.Remove(s.entryID)
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}

	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// refreshChain is the cron job.
func (s *Scheduler) refreshChain() {
	s.mu.RLock()
	if !s.isRunning {
		s.mu.RUnlock()
		logrus.Info("Scheduler not running, skipping refresh cycle")
		return
	}
	ctx := s.ctx
	s.mu.RUnlock()

	if err := s.refresh(ctx); err != nil {
		logrus.Errorf("Chain refresh failed: %v", err)
	}
}

// RunOnce refreshes chain state immediately.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	logrus.Info("Running chain refresh once")
	return s.refresh(ctx)
}

func (s *Scheduler) refresh(ctx context.Context) error {
	s.wg.Add(1)
	defer s.wg.Done()

	startTime := time.Now()
	log := logrus.WithField("component", "scheduler")

	var errs []error
	height, err := s.chain.GetLatestHeight(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("latest height: %w", err))
		s.store.SetNetworkConnected(false, s.chain.Endpoint())
	} else {
		s.store.SetNetworkConnected(true, s.chain.Endpoint())
		s.store.SetLatestHeight(height)
		s.metrics.LatestBlockHeight.Set(float64(height))
	}

	for _, pool := range s.store.Pools() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		liquidity, err := s.chain.PoolLiquidity(ctx, pool.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("pool %d liquidity: %w", pool.ID, err))
			continue
		}
		// An unset mapping reads as zero; keep the known figure.
		if liquidity.IsZero() {
			continue
		}
		s.store.SetPoolLiquidity(pool.ID, liquidity)
		s.metrics.PoolLiquidity.WithLabelValues(strconv.Itoa(pool.ID)).Set(liquidity.InexactFloat64())
	}

	err = errors.Join(errs...)
	result := "success"
	if err != nil {
		result = "error"
	}
	s.metrics.ChainRefreshes.WithLabelValues(result).Inc()

	s.mu.Lock()
	s.lastRun = startTime
	s.lastErr = err
	s.mu.Unlock()

	log.WithFields(logrus.Fields{
		"height":   height,
		"duration": time.Since(startTime).String(),
		"result":   result,
	}).Info("Chain refresh cycle completed")
	return err
}

// GetNextRun returns the time of the next scheduled run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// GetLastRun returns the time of the last run, scheduled or manual
func (s *Scheduler) GetLastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

// Status returns a snapshot of the scheduler state.
func (s *Scheduler) Status() Status {
	st := Status{
		Running: s.IsRunning(),
		NextRun: s.GetNextRun(),
		LastRun: s.GetLastRun(),
	}
	s.mu.RLock()
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	s.mu.RUnlock()
	return st
}

// Wait waits for in-flight refreshes to finish
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
