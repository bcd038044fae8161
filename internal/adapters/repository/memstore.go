package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/cvranker/internal/domain/model"
	"github.com/okian/cvranker/pkg/metrics"
)

// claim is a time-bounded exclusive lease on an unscored CV.
type claim struct {
	owner     string
	expiresAt time.Time
}

// MemStore implements Store with in-memory maps guarded by one RWMutex.
// Insertion order is tracked separately so listings and snapshots iterate
// deterministically, never in map order.
type MemStore struct {
	mu sync.RWMutex

	jobs     map[string]*model.Job
	jobOrder []string

	cvs     map[string]*model.CV
	cvOrder []string

	claims map[string]claim

	now func() time.Time
}

// NewMemStore creates an empty in-memory store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		jobs:   make(map[string]*model.Job),
		cvs:    make(map[string]*model.CV),
		claims: make(map[string]claim),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PutJob inserts or replaces a job.
func (s *MemStore) PutJob(_ context.Context, job model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; !exists {
		s.jobOrder = append(s.jobOrder, job.ID)
	}
	j := copyJob(job)
	s.jobs[job.ID] = &j
	metrics.UpdateTotalJobs(len(s.jobs))
	return nil
}

// GetJob returns a job by ID.
func (s *MemStore) GetJob(_ context.Context, id string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return model.Job{}, ErrJobNotFound
	}
	return copyJob(*j), nil
}

// ListJobs returns all jobs in insertion order.
func (s *MemStore) ListJobs(_ context.Context) ([]model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Job, 0, len(s.jobOrder))
	for _, id := range s.jobOrder {
		out = append(out, copyJob(*s.jobs[id]))
	}
	return out, nil
}

// DeleteJob removes a job. Bound CVs keep their stale job id.
func (s *MemStore) DeleteJob(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return ErrJobNotFound
	}
	delete(s.jobs, id)
	s.jobOrder = removeID(s.jobOrder, id)
	metrics.UpdateTotalJobs(len(s.jobs))
	return nil
}

// SetJobExtraction records the latest extraction attempt.
func (s *MemStore) SetJobExtraction(_ context.Context, id string, req *model.JobRequirements, state model.ExtractionState) (model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return model.Job{}, ErrJobNotFound
	}

	// Latest attempt wins for status; a failed attempt must not destroy a
	// previously successful payload.
	j.Extraction = state
	if state.Status == model.ExtractionSucceeded {
		j.Requirements = copyRequirements(req)
		j.Extraction.Error = ""
	}
	j.UpdatedAt = s.now()
	return copyJob(*j), nil
}

// PutCV inserts or replaces a CV.
func (s *MemStore) PutCV(_ context.Context, cv model.CV) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cvs[cv.ID]; !exists {
		s.cvOrder = append(s.cvOrder, cv.ID)
	}
	c := copyCV(cv)
	s.cvs[cv.ID] = &c
	s.updateCVMetrics()
	return nil
}

// GetCV returns a CV by ID.
func (s *MemStore) GetCV(_ context.Context, id string) (model.CV, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cvs[id]
	if !ok {
		return model.CV{}, ErrCVNotFound
	}
	return copyCV(*c), nil
}

// ListCVs returns all CVs in insertion order.
func (s *MemStore) ListCVs(_ context.Context) ([]model.CV, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.CV, 0, len(s.cvOrder))
	for _, id := range s.cvOrder {
		out = append(out, copyCV(*s.cvs[id]))
	}
	return out, nil
}

// ListCVsByJob returns the CVs bound to one job, in insertion order.
func (s *MemStore) ListCVsByJob(_ context.Context, jobID string) ([]model.CV, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.CV
	for _, id := range s.cvOrder {
		if c := s.cvs[id]; c.JobID == jobID {
			out = append(out, copyCV(*c))
		}
	}
	return out, nil
}

// DeleteCV removes a CV and any claim on it.
func (s *MemStore) DeleteCV(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cvs[id]; !ok {
		return ErrCVNotFound
	}
	delete(s.cvs, id)
	delete(s.claims, id)
	s.cvOrder = removeID(s.cvOrder, id)
	s.updateCVMetrics()
	return nil
}

// DissociateCV detaches a CV from its job.
func (s *MemStore) DissociateCV(_ context.Context, id string) (model.CV, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cvs[id]
	if !ok {
		return model.CV{}, ErrCVNotFound
	}
	c.JobID = ""
	c.UpdatedAt = s.now()
	return copyCV(*c), nil
}

// UnscoredCVs returns the score-absent CVs of a job in insertion order.
func (s *MemStore) UnscoredCVs(_ context.Context, jobID string) ([]model.CV, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.CV
	for _, id := range s.cvOrder {
		c := s.cvs[id]
		if c.JobID == jobID && c.Score.Kind == model.Unscored {
			out = append(out, copyCV(*c))
		}
	}
	return out, nil
}

// ClaimCV takes a lease on an unscored CV via compare-and-set.
func (s *MemStore) ClaimCV(_ context.Context, cvID, owner string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cvs[cvID]
	if !ok {
		return false, ErrCVNotFound
	}
	if c.Score.Kind == model.Scored {
		return false, nil
	}

	now := s.now()
	if cl, held := s.claims[cvID]; held {
		if now.Before(cl.expiresAt) {
			// Live claim held by someone; refuse even for the same owner so a
			// duplicated claim attempt cannot double-score.
			return false, nil
		}
		metrics.RecordClaimExpired()
	}

	s.claims[cvID] = claim{owner: owner, expiresAt: now.Add(ttl)}
	metrics.RecordClaimAcquired()
	return true, nil
}

// ReleaseClaim drops a claim still held by owner.
func (s *MemStore) ReleaseClaim(_ context.Context, cvID, owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cl, held := s.claims[cvID]; held && cl.owner == owner {
		delete(s.claims, cvID)
	}
}

// WriteScore atomically writes score and subscores as one unit.
func (s *MemStore) WriteScore(_ context.Context, cvID string, score model.Score) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cvs[cvID]
	if !ok {
		return ErrCVNotFound
	}
	if c.Score.Kind == model.Scored {
		return ErrAlreadyScored
	}
	if score.Kind != model.Scored || !score.Valid() {
		return ErrInvalidScore
	}

	c.Score = score
	c.UpdatedAt = s.now()
	delete(s.claims, cvID)
	s.updateCVMetrics()
	return nil
}

// Snapshot deep-copies the store contents under one lock acquisition.
func (s *MemStore) Snapshot(_ context.Context) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Jobs: make([]model.Job, 0, len(s.jobOrder)),
		CVs:  make([]model.CV, 0, len(s.cvOrder)),
	}
	for _, id := range s.jobOrder {
		snap.Jobs = append(snap.Jobs, copyJob(*s.jobs[id]))
	}
	for _, id := range s.cvOrder {
		snap.CVs = append(snap.CVs, copyCV(*s.cvs[id]))
	}
	return snap
}

// CountJobs returns the number of jobs.
func (s *MemStore) CountJobs(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// CountCVs returns total and scored CV counts.
func (s *MemStore) CountCVs(_ context.Context) (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := 0
	for _, c := range s.cvs {
		if c.Score.IsScored() {
			scored++
		}
	}
	return len(s.cvs), scored
}

// updateCVMetrics refreshes store gauges; callers must hold the write lock.
func (s *MemStore) updateCVMetrics() {
	scored := 0
	for _, c := range s.cvs {
		if c.Score.IsScored() {
			scored++
		}
	}
	metrics.UpdateTotalCVs(len(s.cvs))
	metrics.UpdateTotalScoredCVs(scored)
}

func removeID(order []string, id string) []string {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

func copyJob(j model.Job) model.Job {
	j.Requirements = copyRequirements(j.Requirements)
	return j
}

func copyRequirements(r *model.JobRequirements) *model.JobRequirements {
	if r == nil {
		return nil
	}
	cp := model.JobRequirements{
		Education:        append([]string(nil), r.Education...),
		Experiences:      append([]string(nil), r.Experiences...),
		Responsibilities: append([]string(nil), r.Responsibilities...),
		TechSkills:       append([]string(nil), r.TechSkills...),
		SoftSkills:       append([]string(nil), r.SoftSkills...),
	}
	return &cp
}

func copyCV(c model.CV) model.CV {
	if c.Profile != nil {
		p := model.CandidateProfile{
			Name:             c.Profile.Name,
			Email:            c.Profile.Email,
			Summary:          c.Profile.Summary,
			Education:        append([]string(nil), c.Profile.Education...),
			Experiences:      append([]string(nil), c.Profile.Experiences...),
			Responsibilities: append([]string(nil), c.Profile.Responsibilities...),
			TechSkills:       append([]string(nil), c.Profile.TechSkills...),
			SoftSkills:       append([]string(nil), c.Profile.SoftSkills...),
			Certificates:     append([]string(nil), c.Profile.Certificates...),
		}
		c.Profile = &p
	}
	return c
}
