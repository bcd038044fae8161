// Package analytics computes dashboard aggregates over a single consistent
// snapshot of the store, so every figure in one response describes the same
// moment.
package analytics

import (
	"context"
	"math"
	"sort"

	"github.com/okian/cvranker/internal/adapters/repository"
	"github.com/okian/cvranker/internal/domain/model"
)

// snapshotter is the read-side slice of the store the aggregator needs.
type snapshotter interface {
	Snapshot(ctx context.Context) repository.Snapshot
}

// Aggregator computes dashboard statistics.
type Aggregator struct {
	store snapshotter
}

// New creates an Aggregator over the given store.
func New(store snapshotter) *Aggregator {
	return &Aggregator{store: store}
}

// JobCVCount is the number of CVs attached to one job.
type JobCVCount struct {
	JobID   string `json:"job_id"`
	JobName string `json:"job_name"`
	Count   int    `json:"cvs_count"`
}

// BestCV names the highest scoring CV of a job.
type BestCV struct {
	JobID   string      `json:"job_id"`
	JobName string      `json:"job_name"`
	Best    BestCVEntry `json:"best_cv"`
}

// BestCVEntry is the winning CV with its per-dimension breakdown.
type BestCVEntry struct {
	CVID      string          `json:"cv_id"`
	Name      string          `json:"name"`
	Score     float64         `json:"score"`
	Subscores model.Subscores `json:"subscores"`
}

// JobAverage is the mean score of a job's scored CVs. Average is null when
// the job has no scored CVs, which is distinct from an average of zero.
type JobAverage struct {
	Job           model.Job `json:"job"`
	Average       *float64  `json:"average_score"`
	CVCountScored int       `json:"cv_count_scored"`
}

// RadarEntry is one candidate's per-dimension breakdown for a radar chart.
type RadarEntry struct {
	CVID       string  `json:"cv_id"`
	CVName     string  `json:"cv_name"`
	Score      float64 `json:"score"`
	Education  float64 `json:"education"`
	Experience float64 `json:"experience"`
	TechSkills float64 `json:"tech_skills"`
	SoftSkills float64 `json:"soft_skills"`
}

// maxRadarEntries caps the radar chart to the strongest candidates.
const maxRadarEntries = 5

// CountJobs returns the total number of jobs.
func (a *Aggregator) CountJobs(ctx context.Context) int {
	return len(a.store.Snapshot(ctx).Jobs)
}

// CVsPerJob counts CVs per job. Jobs with no CVs are omitted.
func (a *Aggregator) CVsPerJob(ctx context.Context) []JobCVCount {
	snap := a.store.Snapshot(ctx)
	counts := countByJob(snap.CVs)

	out := make([]JobCVCount, 0, len(snap.Jobs))
	for _, job := range snap.Jobs {
		if n := counts[job.ID]; n > 0 {
			out = append(out, JobCVCount{JobID: job.ID, JobName: job.Name, Count: n})
		}
	}
	return out
}

// BestCVPerJob returns the highest scoring CV of each job. Jobs with no
// scored CVs are omitted. Ties keep the earlier uploaded CV.
func (a *Aggregator) BestCVPerJob(ctx context.Context) []BestCV {
	snap := a.store.Snapshot(ctx)
	cvsByJob := groupByJob(snap.CVs)

	out := make([]BestCV, 0, len(snap.Jobs))
	for _, job := range snap.Jobs {
		var best *model.CV
		for i := range cvsByJob[job.ID] {
			cv := &cvsByJob[job.ID][i]
			if !cv.Score.IsScored() {
				continue
			}
			// Strict greater keeps the first seen on ties.
			if best == nil || cv.Score.Value > best.Score.Value {
				best = cv
			}
		}
		if best == nil {
			continue
		}
		out = append(out, BestCV{
			JobID:   job.ID,
			JobName: job.Name,
			Best: BestCVEntry{
				CVID:      best.ID,
				Name:      cvName(*best),
				Score:     best.Score.Value,
				Subscores: best.Score.Subscores,
			},
		})
	}
	return out
}

// JobAverageScore returns the mean score of every job's scored CVs. Unlike
// the other aggregates, jobs without scored CVs are included with a null
// average so the dashboard can show them as pending.
func (a *Aggregator) JobAverageScore(ctx context.Context) []JobAverage {
	snap := a.store.Snapshot(ctx)
	cvsByJob := groupByJob(snap.CVs)

	out := make([]JobAverage, 0, len(snap.Jobs))
	for _, job := range snap.Jobs {
		var sum float64
		var n int
		for _, cv := range cvsByJob[job.ID] {
			if !cv.Score.IsScored() {
				continue
			}
			sum += cv.Score.Value
			n++
		}

		entry := JobAverage{Job: job, CVCountScored: n}
		if n > 0 {
			avg := math.Round(sum/float64(n)*100) / 100
			entry.Average = &avg
		}
		out = append(out, entry)
	}
	return out
}

// CandidateFitRadar returns the per-dimension breakdown of a job's strongest
// scored candidates, ordered best first. Returns ErrJobNotFound for an
// unknown job.
func (a *Aggregator) CandidateFitRadar(ctx context.Context, jobID string) ([]RadarEntry, error) {
	snap := a.store.Snapshot(ctx)

	found := false
	for _, job := range snap.Jobs {
		if job.ID == jobID {
			found = true
			break
		}
	}
	if !found {
		return nil, repository.ErrJobNotFound
	}

	entries := make([]RadarEntry, 0)
	for _, cv := range snap.CVs {
		if cv.JobID != jobID || !cv.Score.IsScored() {
			continue
		}
		subs := cv.Score.Subscores
		entries = append(entries, RadarEntry{
			CVID:       cv.ID,
			CVName:     cvName(cv),
			Score:      cv.Score.Value,
			Education:  subs.Education.Score,
			Experience: subs.Experience.Score,
			TechSkills: subs.TechSkills.Score,
			SoftSkills: subs.SoftSkills.Score,
		})
	}

	// Stable keeps upload order between equal scores.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	if len(entries) > maxRadarEntries {
		entries = entries[:maxRadarEntries]
	}
	return entries, nil
}

func countByJob(cvs []model.CV) map[string]int {
	counts := make(map[string]int, len(cvs))
	for _, cv := range cvs {
		if cv.JobID != "" {
			counts[cv.JobID]++
		}
	}
	return counts
}

func groupByJob(cvs []model.CV) map[string][]model.CV {
	grouped := make(map[string][]model.CV)
	for _, cv := range cvs {
		if cv.JobID != "" {
			grouped[cv.JobID] = append(grouped[cv.JobID], cv)
		}
	}
	return grouped
}

func cvName(cv model.CV) string {
	if cv.Profile != nil && cv.Profile.Name != "" {
		return cv.Profile.Name
	}
	return cv.Filename
}
