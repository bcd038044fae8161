package service

import (
	"context"
	"time"

	"github.com/okian/cvranker/internal/domain/model"
	"github.com/okian/cvranker/pkg/logger"
	"github.com/okian/cvranker/pkg/metrics"
)

// UploadCV stores a CV bound to a job and extracts the candidate profile
// inline. An extraction failure does not fail the upload; the CV is kept
// with the failure recorded and stays eligible for a later re-extraction.
func (s *Service) UploadCV(ctx context.Context, jobID, filename, text string) (model.CV, error) {
	if _, err := s.store.GetJob(ctx, jobID); err != nil {
		return model.CV{}, err
	}

	now := time.Now().UTC()
	cv := model.CV{
		ID:        newID(),
		JobID:     jobID,
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
	}

	extractCtx, cancel := context.WithTimeout(ctx, s.extractionTimeout)
	defer cancel()

	start := time.Now()
	profile, err := s.extractor.ExtractCV(extractCtx, text)
	metrics.RecordExtractionLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		s.logger.Warn(ctx, "cv extraction failed",
			logger.String("cvID", cv.ID),
			logger.String("jobID", jobID),
			logger.Error(err),
		)
		metrics.RecordExtractionFailed()
		metrics.RecordErrorByComponent("extraction", "cv")
		cv.ProfileError = err.Error()
	} else {
		metrics.RecordExtractionSucceeded()
		cv.Profile = profile
	}

	if err := s.store.PutCV(ctx, cv); err != nil {
		return model.CV{}, err
	}

	s.logger.Debug(ctx, "cv uploaded",
		logger.String("cvID", cv.ID),
		logger.String("jobID", jobID),
		logger.Bool("extracted", cv.Profile != nil),
	)

	return cv, nil
}

// GetCV returns a CV by id.
func (s *Service) GetCV(ctx context.Context, id string) (model.CV, error) {
	return s.store.GetCV(ctx, id)
}

// ListCVs returns all CVs in insertion order.
func (s *Service) ListCVs(ctx context.Context) ([]model.CV, error) {
	return s.store.ListCVs(ctx)
}

// CVsByJob returns the CVs bound to a job, in insertion order.
func (s *Service) CVsByJob(ctx context.Context, jobID string) ([]model.CV, error) {
	if _, err := s.store.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return s.store.ListCVsByJob(ctx, jobID)
}

// DeleteCV removes a CV.
func (s *Service) DeleteCV(ctx context.Context, id string) error {
	return s.store.DeleteCV(ctx, id)
}

// DissociateCV detaches a CV from its job without deleting it.
func (s *Service) DissociateCV(ctx context.Context, id string) (model.CV, error) {
	return s.store.DissociateCV(ctx, id)
}
