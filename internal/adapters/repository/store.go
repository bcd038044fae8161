// Package repository defines the job/CV store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/okian/cvranker/internal/domain/model"
)

// Snapshot is a consistent, deep-copied view of the store contents taken
// under one lock acquisition. Jobs and CVs keep their stable insertion
// order so consumers can break ties deterministically.
type Snapshot struct {
	Jobs []model.Job
	CVs  []model.CV
}

// Store provides read/write access to jobs and CVs.
//
// Writes are atomic per record: a CV can never be observed with a score but
// no subscores, and an extraction failure can never destroy a previously
// successful requirements payload.
type Store interface {
	// PutJob inserts a new job or replaces an existing one by ID.
	PutJob(ctx context.Context, job model.Job) error
	// GetJob returns a job by ID. Returns ErrJobNotFound if unknown.
	GetJob(ctx context.Context, id string) (model.Job, error)
	// ListJobs returns all jobs in stable insertion order.
	ListJobs(ctx context.Context) ([]model.Job, error)
	// DeleteJob removes a job. CVs referencing it keep their stale job id
	// and simply stop matching any job in aggregates.
	DeleteJob(ctx context.Context, id string) error
	// SetJobExtraction records the latest extraction attempt. On success the
	// payload replaces the previous one and any error is cleared. On failure
	// the status and error are recorded but the prior successful payload is
	// retained unchanged. Returns the updated job.
	SetJobExtraction(ctx context.Context, id string, req *model.JobRequirements, state model.ExtractionState) (model.Job, error)

	// PutCV inserts a new CV or replaces an existing one by ID.
	PutCV(ctx context.Context, cv model.CV) error
	// GetCV returns a CV by ID. Returns ErrCVNotFound if unknown.
	GetCV(ctx context.Context, id string) (model.CV, error)
	// ListCVs returns all CVs in stable insertion order.
	ListCVs(ctx context.Context) ([]model.CV, error)
	// ListCVsByJob returns the CVs bound to a job, in stable insertion order.
	ListCVsByJob(ctx context.Context, jobID string) ([]model.CV, error)
	// DeleteCV removes a CV.
	DeleteCV(ctx context.Context, id string) error
	// DissociateCV detaches a CV from its job. Returns the updated CV.
	DissociateCV(ctx context.Context, id string) (model.CV, error)

	// UnscoredCVs returns the CVs of a job with no score, in stable order.
	// Claimed-but-unexpired CVs are included; claiming is a separate step.
	UnscoredCVs(ctx context.Context, jobID string) ([]model.CV, error)
	// ClaimCV takes a time-bounded exclusive claim on an unscored CV.
	// The claim succeeds only when the CV is unscored and either unclaimed
	// or holding an expired claim; this is the compare-and-set that keeps a
	// CV from being scored twice. Returns false when the claim is refused.
	ClaimCV(ctx context.Context, cvID, owner string, ttl time.Duration) (bool, error)
	// ReleaseClaim drops a claim if it is still held by owner. Used after a
	// failed scoring attempt so the CV is immediately claimable again.
	ReleaseClaim(ctx context.Context, cvID, owner string)
	// WriteScore atomically writes the score and subscores of a CV as one
	// unit and clears any claim. Returns ErrAlreadyScored if a score is
	// present and ErrInvalidScore when the value breaks the range invariant.
	WriteScore(ctx context.Context, cvID string, score model.Score) error

	// Snapshot returns a consistent view of the whole store.
	Snapshot(ctx context.Context) Snapshot

	// CountJobs returns the number of jobs.
	CountJobs(ctx context.Context) int
	// CountCVs returns the total and scored CV counts.
	CountCVs(ctx context.Context) (total, scored int)
}
