// Package ai declares the contracts for the external extraction and scoring
// services. Implementations live in the gemini and remote subpackages.
package ai

import (
	"context"

	"github.com/okian/cvranker/internal/domain/model"
)

// Extractor turns free text into structured fields.
type Extractor interface {
	// ExtractJob extracts structured requirements from a job description.
	ExtractJob(ctx context.Context, description string) (*model.JobRequirements, error)

	// ExtractCV extracts a candidate profile from raw CV text.
	ExtractCV(ctx context.Context, text string) (*model.CandidateProfile, error)
}

// Scorer computes per-dimension match subscores between a job's requirements
// and a candidate's profile. Each returned value must lie in [0,1]; anything
// else is a provider failure for that CV.
type Scorer interface {
	ScoreMatch(ctx context.Context, job *model.JobRequirements, cv *model.CandidateProfile) (model.Subscores, error)
}
