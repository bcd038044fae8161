// Package scoring combines per-dimension match subscores into a global score
// and enforces the range policy on values coming back from scoring providers.
package scoring

import (
	"fmt"
	"math"

	"github.com/okian/cvranker/internal/domain/model"
)

// Default dimension weights for the global score.
const (
	defaultEducationWeight  = 0.15
	defaultExperienceWeight = 0.25
	defaultTechWeight       = 0.50
	defaultSoftWeight       = 0.10

	roundingFactor = 100 // global score is kept at two decimals
)

// Weights assigns a relative weight to each match dimension.
type Weights struct {
	Education  float64
	Experience float64
	TechSkills float64
	SoftSkills float64
}

// DefaultWeights returns the standard dimension weighting.
func DefaultWeights() Weights {
	return Weights{
		Education:  defaultEducationWeight,
		Experience: defaultExperienceWeight,
		TechSkills: defaultTechWeight,
		SoftSkills: defaultSoftWeight,
	}
}

// WeightsFromMap builds Weights from a configuration map, falling back to the
// defaults for missing or non-positive entries.
func WeightsFromMap(m map[string]float64) Weights {
	w := DefaultWeights()
	if v, ok := m["education"]; ok && v > 0 {
		w.Education = v
	}
	if v, ok := m["experience"]; ok && v > 0 {
		w.Experience = v
	}
	if v, ok := m["tech_skills"]; ok && v > 0 {
		w.TechSkills = v
	}
	if v, ok := m["soft_skills"]; ok && v > 0 {
		w.SoftSkills = v
	}
	return w
}

// ValidateUnit checks that a provider-supplied score is a real number in [0,1].
// Anything else is a provider failure for that CV, never stored.
func ValidateUnit(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: not a number", ErrInvalidScore)
	}
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: %v outside [0,1]", ErrInvalidScore, v)
	}
	return nil
}

// ValidateSubscores checks every dimension value.
func ValidateSubscores(subs model.Subscores) error {
	for _, d := range []struct {
		name string
		v    float64
	}{
		{"education", subs.Education.Score},
		{"experience", subs.Experience.Score},
		{"tech_skills", subs.TechSkills.Score},
		{"soft_skills", subs.SoftSkills.Score},
	} {
		if err := ValidateUnit(d.v); err != nil {
			return fmt.Errorf("subscore %s: %w", d.name, err)
		}
	}
	return nil
}

// Combine validates the subscores and folds them into the weighted global
// score, rounded to two decimals. The result always lies in [0,1] when the
// weights sum to at most one.
func Combine(subs model.Subscores, w Weights) (model.Score, error) {
	if err := ValidateSubscores(subs); err != nil {
		return model.Score{}, err
	}

	global := w.Education*subs.Education.Score +
		w.Experience*subs.Experience.Score +
		w.TechSkills*subs.TechSkills.Score +
		w.SoftSkills*subs.SoftSkills.Score
	global = math.Round(global*roundingFactor) / roundingFactor

	if err := ValidateUnit(global); err != nil {
		return model.Score{}, err
	}
	return model.NewScore(global, subs), nil
}
