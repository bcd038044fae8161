// Package model defines the job and CV records shared across the service.
package model

import (
	"encoding/json"
	"math"
	"time"
)

// JobStatus enumerates the lifecycle states of a job posting.
type JobStatus string

// Job statuses.
const (
	JobOpen   JobStatus = "open"
	JobClosed JobStatus = "closed"
)

// ExtractionStatus enumerates the visible state of the latest extraction attempt.
type ExtractionStatus string

// Extraction statuses. The latest attempt always wins; a failed re-run keeps
// the previously successful payload but reports failed.
const (
	ExtractionNotStarted ExtractionStatus = "not_started"
	ExtractionSucceeded  ExtractionStatus = "succeeded"
	ExtractionFailed     ExtractionStatus = "failed"
)

// JobRequirements holds the structured requirements extracted from a job description.
type JobRequirements struct {
	Education        []string `json:"education"`
	Experiences      []string `json:"experiences"`
	Responsibilities []string `json:"responsibilities"`
	TechSkills       []string `json:"tech_skills"`
	SoftSkills       []string `json:"soft_skills"`
}

// ExtractionState reports the outcome of the latest extraction attempt.
type ExtractionState struct {
	Status ExtractionStatus `json:"status"`
	Error  string           `json:"error,omitempty"`
	At     time.Time        `json:"at,omitzero"`
}

// Job is a job posting with optional extracted requirements.
type Job struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Status       JobStatus        `json:"status"`
	Requirements *JobRequirements `json:"extracted"`
	Extraction   ExtractionState  `json:"extraction"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// CandidateProfile holds the structured fields extracted from a CV at upload time.
type CandidateProfile struct {
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Summary          string   `json:"summary,omitempty"`
	Education        []string `json:"education"`
	Experiences      []string `json:"experiences"`
	Responsibilities []string `json:"responsibilities"`
	TechSkills       []string `json:"tech_skills"`
	SoftSkills       []string `json:"soft_skills"`
	Certificates     []string `json:"certificates,omitempty"`
}

// CV is an uploaded candidate CV bound to at most one job.
type CV struct {
	ID       string `json:"id"`
	JobID    string `json:"job_id,omitempty"` // empty when dissociated
	Filename string `json:"filename"`

	// Profile is populated synchronously at upload; ProfileError carries the
	// extraction failure instead when the upload-time extraction failed.
	Profile      *CandidateProfile `json:"extracted"`
	ProfileError string            `json:"extraction_error,omitempty"`

	Score Score `json:"score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScoreKind tags the scoring state of a CV.
type ScoreKind int

// Score kinds. A failed scoring attempt is never persisted: the CV simply
// stays Unscored and is eligible for the next batch.
const (
	Unscored ScoreKind = iota
	Scored
)

// Subscore is one dimension of a match score.
type Subscore struct {
	Score         float64 `json:"score"`
	Justification string  `json:"justification"`
}

// Subscores breaks a global score down by match dimension.
type Subscores struct {
	Education  Subscore `json:"education"`
	Experience Subscore `json:"experience"`
	TechSkills Subscore `json:"tech_skills"`
	SoftSkills Subscore `json:"soft_skills"`
}

// Score is the tagged scoring state of a CV: either absent or a value with
// its subscores, written as one unit. There is no ambiguous middle ground;
// "not yet computed" always encodes as JSON null, never as zero or an empty
// object.
type Score struct {
	Kind      ScoreKind
	Value     float64
	Subscores Subscores
}

// NewScore builds a Scored state.
func NewScore(value float64, subs Subscores) Score {
	return Score{Kind: Scored, Value: value, Subscores: subs}
}

// IsScored reports whether the score carries a usable value. Malformed
// values (NaN, outside [0,1]) are treated as absent rather than raising.
func (s Score) IsScored() bool {
	return s.Kind == Scored && validUnit(s.Value)
}

// Valid reports whether a Scored state satisfies the range invariants on the
// global value and every subscore.
func (s Score) Valid() bool {
	if s.Kind != Scored {
		return true
	}
	return validUnit(s.Value) &&
		validUnit(s.Subscores.Education.Score) &&
		validUnit(s.Subscores.Experience.Score) &&
		validUnit(s.Subscores.TechSkills.Score) &&
		validUnit(s.Subscores.SoftSkills.Score)
}

func validUnit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// scoredJSON is the wire shape of a present score.
type scoredJSON struct {
	Value     float64   `json:"value"`
	Subscores Subscores `json:"subscores"`
}

// MarshalJSON encodes an unscored state as null so consumers can tell
// "not yet computed" from "computed as zero".
func (s Score) MarshalJSON() ([]byte, error) {
	if s.Kind != Scored {
		return []byte("null"), nil
	}
	return json.Marshal(scoredJSON{Value: s.Value, Subscores: s.Subscores})
}

// UnmarshalJSON accepts null (unscored) or the scored object shape.
func (s *Score) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Score{}
		return nil
	}
	var v scoredJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Score{Kind: Scored, Value: v.Value, Subscores: v.Subscores}
	return nil
}
