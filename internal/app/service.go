// Package service provides the core business service that implements
// the dependencies required by the HTTP API: job and CV lifecycle,
// extraction triggering, and match score orchestration.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/cvranker/internal/adapters/ai"
	"github.com/okian/cvranker/internal/adapters/repository"
	"github.com/okian/cvranker/internal/domain/scoring"
	"github.com/okian/cvranker/pkg/logger"
	"github.com/okian/cvranker/pkg/metrics"
)

// Service implements the API dependencies for the matching system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	extractor ai.Extractor
	scorer    ai.Scorer
	weights   scoring.Weights

	// Configuration
	workerCount       int
	claimTTL          time.Duration
	scoringTimeout    time.Duration
	extractionTimeout time.Duration

	// Per-job batch guard: at most one scoring batch per job at a time.
	inflightMu sync.Mutex
	inflight   map[string]struct{}

	// Background batches by id.
	batchMu sync.RWMutex
	batches map[string]*Batch

	// State
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithExtractor sets the extraction backend.
func WithExtractor(extractor ai.Extractor) Option {
	return func(s *Service) {
		if extractor != nil {
			s.extractor = extractor
		}
	}
}

// WithScorer sets the scoring backend.
func WithScorer(scorer ai.Scorer) Option {
	return func(s *Service) {
		if scorer != nil {
			s.scorer = scorer
		}
	}
}

// WithWeights sets the dimension weights for the global score.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithWorkerCount bounds per-batch scoring concurrency.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithClaimTTL sets the lease duration for per-CV scoring claims.
func WithClaimTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.claimTTL = ttl
		}
	}
}

// WithScoringTimeout bounds one external scoring call.
func WithScoringTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.scoringTimeout = d
		}
	}
}

// WithExtractionTimeout bounds one external extraction call.
func WithExtractionTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.extractionTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:       runtime.NumCPU() * 2,
		claimTTL:          2 * time.Minute,
		scoringTimeout:    90 * time.Second,
		extractionTimeout: 60 * time.Second,
		weights:           scoring.DefaultWeights(),
		inflight:          make(map[string]struct{}),
		batches:           make(map[string]*Batch),
		stopCh:            make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting matching service...")

	if s.store == nil {
		s.store = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory store")
	}

	s.started = true
	metrics.UpdateWorkerCount(s.workerCount)
	s.logger.Info(ctx, "matching service started",
		logger.Int("workers", s.workerCount),
		logger.Duration("claimTTL", s.claimTTL),
	)

	return nil
}

// Stop gracefully shuts down the service, waiting for background batches.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	s.logger.Info(context.Background(), "stopping matching service...")

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	s.wg.Wait()
	s.logger.Info(context.Background(), "matching service stopped")
}

// tryAcquireJob takes the per-job batch guard. Returns false when a batch
// is already in flight for the job.
func (s *Service) tryAcquireJob(jobID string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, busy := s.inflight[jobID]; busy {
		return false
	}
	s.inflight[jobID] = struct{}{}
	metrics.UpdateBatchesActive(len(s.inflight))
	return true
}

func (s *Service) releaseJob(jobID string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflight, jobID)
	metrics.UpdateBatchesActive(len(s.inflight))
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"claimTTLSec": int(s.claimTTL / time.Second),
	}

	if s.started {
		totalJobs := s.store.CountJobs(ctx)
		totalCVs, scoredCVs := s.store.CountCVs(ctx)

		s.inflightMu.Lock()
		activeBatches := len(s.inflight)
		s.inflightMu.Unlock()

		stats["totalJobs"] = totalJobs
		stats["totalCVs"] = totalCVs
		stats["scoredCVs"] = scoredCVs
		stats["activeBatches"] = activeBatches

		metrics.UpdateTotalJobs(totalJobs)
		metrics.UpdateTotalCVs(totalCVs)
		metrics.UpdateTotalScoredCVs(scoredCVs)
	}

	return stats
}

func newID() string {
	return uuid.NewString()
}
