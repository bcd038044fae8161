package service

import (
	"context"
	"strings"
	"time"

	"github.com/okian/cvranker/internal/domain/model"
	"github.com/okian/cvranker/pkg/logger"
	"github.com/okian/cvranker/pkg/metrics"
)

// CreateJob stores a new job and runs requirements extraction inline.
// An extraction failure does not fail the creation; the job is stored
// with a failed extraction state and can be re-extracted later.
func (s *Service) CreateJob(ctx context.Context, name, description string) (model.Job, error) {
	now := time.Now().UTC()
	job := model.Job{
		ID:          newID(),
		Name:        name,
		Description: description,
		Status:      model.JobOpen,
		Extraction:  model.ExtractionState{Status: model.ExtractionNotStarted},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.PutJob(ctx, job); err != nil {
		return model.Job{}, err
	}

	s.logger.Debug(ctx, "job created",
		logger.String("jobID", job.ID),
		logger.String("name", job.Name),
	)

	return s.ExtractRequirements(ctx, job.ID)
}

// GetJob returns a job by id.
func (s *Service) GetJob(ctx context.Context, id string) (model.Job, error) {
	return s.store.GetJob(ctx, id)
}

// ListJobs returns all jobs in insertion order.
func (s *Service) ListJobs(ctx context.Context) ([]model.Job, error) {
	return s.store.ListJobs(ctx)
}

// JobUpdate carries the mutable job fields; nil means keep the current value.
type JobUpdate struct {
	Name        *string
	Description *string
	Status      *model.JobStatus
}

// UpdateJob applies a partial update. When the description changes the
// requirements are re-extracted so scores computed afterwards match the
// current posting.
func (s *Service) UpdateJob(ctx context.Context, id string, upd JobUpdate) (model.Job, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return model.Job{}, err
	}

	reExtract := false
	if upd.Name != nil {
		job.Name = *upd.Name
	}
	if upd.Description != nil && *upd.Description != job.Description {
		job.Description = *upd.Description
		reExtract = true
	}
	if upd.Status != nil {
		job.Status = *upd.Status
	}
	job.UpdatedAt = time.Now().UTC()

	if err := s.store.PutJob(ctx, job); err != nil {
		return model.Job{}, err
	}

	if reExtract {
		return s.ExtractRequirements(ctx, id)
	}
	return job, nil
}

// DeleteJob removes a job. Its CVs are left in place and simply stop
// matching any job in aggregates.
func (s *Service) DeleteJob(ctx context.Context, id string) error {
	return s.store.DeleteJob(ctx, id)
}

// ExtractRequirements runs requirements extraction for a job and records
// the outcome. The latest attempt wins; a failed re-run keeps the prior
// successful payload while reporting the failure.
func (s *Service) ExtractRequirements(ctx context.Context, jobID string) (model.Job, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return model.Job{}, err
	}

	if strings.TrimSpace(job.Description) == "" {
		state := model.ExtractionState{
			Status: model.ExtractionFailed,
			Error:  "job has no description",
			At:     time.Now().UTC(),
		}
		metrics.RecordExtractionFailed()
		return s.store.SetJobExtraction(ctx, jobID, nil, state)
	}

	extractCtx, cancel := context.WithTimeout(ctx, s.extractionTimeout)
	defer cancel()

	start := time.Now()
	req, err := s.extractor.ExtractJob(extractCtx, job.Description)
	metrics.RecordExtractionLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		s.logger.Warn(ctx, "job extraction failed",
			logger.String("jobID", jobID),
			logger.Error(err),
		)
		metrics.RecordExtractionFailed()
		metrics.RecordErrorByComponent("extraction", "job")
		state := model.ExtractionState{
			Status: model.ExtractionFailed,
			Error:  err.Error(),
			At:     time.Now().UTC(),
		}
		return s.store.SetJobExtraction(ctx, jobID, nil, state)
	}

	metrics.RecordExtractionSucceeded()
	state := model.ExtractionState{
		Status: model.ExtractionSucceeded,
		At:     time.Now().UTC(),
	}
	return s.store.SetJobExtraction(ctx, jobID, req, state)
}
