package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/cvranker/internal/domain/model"
	"github.com/okian/cvranker/internal/domain/scoring"
	"github.com/okian/cvranker/pkg/logger"
	"github.com/okian/cvranker/pkg/metrics"
)

// CVOutcome reports the scoring result of one CV inside a batch.
type CVOutcome struct {
	CVID  string   `json:"cv_id"`
	Name  string   `json:"name,omitempty"`
	Score *float64 `json:"score,omitempty"`
	Error string   `json:"error,omitempty"`
}

const noCVsMessage = "no CVs to score"

// BatchResult summarizes one scoring batch. A CV failure never aborts the
// batch; it is reported here and the CV stays eligible for the next run.
type BatchResult struct {
	JobID     string      `json:"job_id"`
	Processed []CVOutcome `json:"processed"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Message   string      `json:"message,omitempty"`
}

// BatchState enumerates the lifecycle of a background batch.
type BatchState string

// Batch states.
const (
	BatchRunning   BatchState = "running"
	BatchCompleted BatchState = "completed"
	BatchFailed    BatchState = "failed"
)

// Batch tracks a background scoring run.
type Batch struct {
	ID         string       `json:"id"`
	JobID      string       `json:"job_id"`
	State      BatchState   `json:"state"`
	Result     *BatchResult `json:"result,omitempty"`
	Error      string       `json:"error,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at,omitzero"`
}

// GenerateScores scores every unscored CV of a job and waits for the batch
// to finish. At most one batch runs per job; a second caller gets
// ErrBatchInFlight. CVs already scored are never re-scored.
func (s *Service) GenerateScores(ctx context.Context, jobID string) (BatchResult, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return BatchResult{}, err
	}

	if !s.tryAcquireJob(jobID) {
		metrics.RecordBatchConflict()
		return BatchResult{}, fmt.Errorf("%w: %s", ErrBatchInFlight, jobID)
	}
	defer s.releaseJob(jobID)

	return s.runBatch(ctx, job)
}

// StartBatch launches a scoring batch in the background and returns its id.
// The batch outlives the caller's request context.
func (s *Service) StartBatch(ctx context.Context, jobID string) (string, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return "", err
	}

	if !s.tryAcquireJob(jobID) {
		metrics.RecordBatchConflict()
		return "", fmt.Errorf("%w: %s", ErrBatchInFlight, jobID)
	}

	batch := &Batch{
		ID:        newID(),
		JobID:     jobID,
		State:     BatchRunning,
		StartedAt: time.Now().UTC(),
	}
	s.batchMu.Lock()
	s.batches[batch.ID] = batch
	s.batchMu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.releaseJob(jobID)

		result, err := s.runBatch(context.Background(), job)

		s.batchMu.Lock()
		defer s.batchMu.Unlock()
		batch.FinishedAt = time.Now().UTC()
		if err != nil {
			batch.State = BatchFailed
			batch.Error = err.Error()
			return
		}
		batch.State = BatchCompleted
		batch.Result = &result
	}()

	return batch.ID, nil
}

// BatchStatus returns the state of a background batch.
func (s *Service) BatchStatus(_ context.Context, batchID string) (Batch, error) {
	s.batchMu.RLock()
	defer s.batchMu.RUnlock()

	batch, ok := s.batches[batchID]
	if !ok {
		return Batch{}, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}
	return *batch, nil
}

// runBatch claims and scores the unscored CVs of a job with bounded
// concurrency. Each CV succeeds or fails independently.
func (s *Service) runBatch(ctx context.Context, job model.Job) (BatchResult, error) {
	metrics.RecordBatchStarted()
	result := BatchResult{JobID: job.ID}

	candidates, err := s.store.UnscoredCVs(ctx, job.ID)
	if err != nil {
		return BatchResult{}, err
	}
	if len(candidates) == 0 {
		result.Message = noCVsMessage
		metrics.RecordBatchCompleted()
		s.logger.Info(ctx, "scoring batch had nothing to do",
			logger.String("jobID", job.ID),
		)
		return result, nil
	}

	batchOwner := newID()
	outcomes := make([]CVOutcome, 0, len(candidates))
	var outcomeMu sync.Mutex

	sem := make(chan struct{}, s.workerCount)
	var wg sync.WaitGroup

	for _, cv := range candidates {
		claimed, err := s.store.ClaimCV(ctx, cv.ID, batchOwner, s.claimTTL)
		if err != nil || !claimed {
			// Held by a concurrent batch or already scored meanwhile.
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(cv model.CV) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := s.scoreCV(ctx, job, cv, batchOwner)

			outcomeMu.Lock()
			outcomes = append(outcomes, outcome)
			outcomeMu.Unlock()
		}(cv)
	}

	wg.Wait()

	// Report in the job's CV order, not goroutine completion order.
	byID := make(map[string]CVOutcome, len(outcomes))
	for _, o := range outcomes {
		byID[o.CVID] = o
	}
	for _, cv := range candidates {
		o, ok := byID[cv.ID]
		if !ok {
			continue
		}
		result.Processed = append(result.Processed, o)
		if o.Error == "" {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	metrics.RecordBatchCompleted()
	s.logger.Info(ctx, "scoring batch finished",
		logger.String("jobID", job.ID),
		logger.Int("succeeded", result.Succeeded),
		logger.Int("failed", result.Failed),
	)

	return result, nil
}

// scoreCV scores one claimed CV. On any failure the claim is released and
// nothing is stored, so the CV remains eligible for the next batch.
func (s *Service) scoreCV(ctx context.Context, job model.Job, cv model.CV, owner string) CVOutcome {
	outcome := CVOutcome{CVID: cv.ID}
	if cv.Profile != nil {
		outcome.Name = cv.Profile.Name
	}

	fail := func(err error) CVOutcome {
		s.store.ReleaseClaim(ctx, cv.ID, owner)
		metrics.RecordCVFailed()
		metrics.RecordErrorByComponent("scoring", "cv")
		s.logger.Warn(ctx, "cv scoring failed",
			logger.String("cvID", cv.ID),
			logger.String("jobID", job.ID),
			logger.Error(err),
		)
		outcome.Error = err.Error()
		return outcome
	}

	scoreCtx, cancel := context.WithTimeout(ctx, s.scoringTimeout)
	defer cancel()

	start := time.Now()
	subs, err := s.scorer.ScoreMatch(scoreCtx, job.Requirements, cv.Profile)
	metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return fail(err)
	}

	score, err := scoring.Combine(subs, s.weights)
	if err != nil {
		return fail(err)
	}

	if err := s.store.WriteScore(ctx, cv.ID, score); err != nil {
		return fail(err)
	}

	metrics.RecordCVScored()
	v := score.Value
	outcome.Score = &v
	return outcome
}
