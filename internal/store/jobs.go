package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/hiretree/internal/status"
	"github.com/jonathan/hiretree/internal/types"
)

// UntitledJob is the title given to a clip with neither a title nor a URL.
const UntitledJob = "Untitled"

// ClipInput is a job posting submitted by the clipper or by manual entry.
type ClipInput struct {
	URL     string
	RawText string
	Details types.JobDetails
}

// ClipResult identifies the job a clip resolved to.
type ClipResult struct {
	ID        int64
	Duplicate bool
}

// JobStore holds clipped jobs in insertion order. Non-empty URLs are unique.
type JobStore struct {
	mu        sync.Mutex
	jobs      []types.Job
	index     map[int64]int
	byURL     map[string]int64
	nextID    int64
	persister JobPersister
	now       func() time.Time
}

// NewJobStore creates an empty store. persister may be nil.
func NewJobStore(persister JobPersister) *JobStore {
	return &JobStore{
		index:     make(map[int64]int),
		byURL:     make(map[string]int64),
		nextID:    1,
		persister: persister,
		now:       time.Now,
	}
}

// Restore seeds the store with previously persisted jobs. Ids keep counting
// after the highest restored id.
func (s *JobStore) Restore(jobs []types.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range jobs {
		if _, exists := s.index[j.ID]; exists {
			continue
		}
		s.index[j.ID] = len(s.jobs)
		s.jobs = append(s.jobs, j.Clone())
		if j.URL != "" {
			s.byURL[j.URL] = j.ID
		}
		if j.ID >= s.nextID {
			s.nextID = j.ID + 1
		}
	}
}

// Clip creates a job, or returns the id of the job already clipped from the same URL.
func (s *JobStore) Clip(ctx context.Context, in ClipInput) (ClipResult, error) {
	url := strings.TrimSpace(in.URL)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byURL[url]; ok && url != "" {
		return ClipResult{ID: id, Duplicate: true}, nil
	}

	d := in.Details
	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = url
	}
	if title == "" {
		title = UntitledJob
	}

	job := types.Job{
		ID:          s.nextID,
		URL:         url,
		RawText:     in.RawText,
		Title:       title,
		Company:     d.Company,
		Location:    d.Location,
		Stack:       d.Stack,
		Salary:      d.Salary,
		Mode:        d.Mode,
		Seniority:   d.Seniority,
		Contract:    d.Contract,
		Description: d.Description,
		Status:      status.Initial,
		ClippedAt:   s.now().UTC(),
	}.Clone()

	if err := s.persist(ctx, job); err != nil {
		return ClipResult{}, err
	}

	s.nextID++
	s.index[job.ID] = len(s.jobs)
	s.jobs = append(s.jobs, job)
	if url != "" {
		s.byURL[url] = job.ID
	}
	return ClipResult{ID: job.ID}, nil
}

// LookupURL returns the id of the job clipped from url.
func (s *JobStore) LookupURL(url string) (int64, bool) {
	url = strings.TrimSpace(url)
	if url == "" {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byURL[url]
	return id, ok
}

// List returns copies of all jobs in insertion order.
func (s *JobStore) List() []types.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Job, len(s.jobs))
	for i, j := range s.jobs {
		out[i] = j.Clone()
	}
	return out
}

// Len returns the number of jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Get returns a copy of the job with the given id.
func (s *JobStore) Get(id int64) (types.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return types.Job{}, fmt.Errorf("%w: %d", ErrJobNotFound, id)
	}
	return s.jobs[i].Clone(), nil
}

// SetStatus applies st to the job and maintains archived_at. Any enumerated
// status is accepted; transition policy belongs to the caller.
func (s *JobStore) SetStatus(ctx context.Context, id int64, st status.Status) (types.Job, error) {
	if !st.Valid() {
		return types.Job{}, fmt.Errorf("%w: %q", status.ErrInvalid, string(st))
	}

	return s.update(ctx, id, func(j *types.Job) {
		prev := j.Status
		j.Status = st
		switch {
		case st.IsActive():
			j.ArchivedAt = nil
		case !prev.IsArchived() || j.ArchivedAt == nil:
			t := s.now().UTC()
			j.ArchivedAt = &t
		}
	})
}

// SetMatch records an externally computed match result on the job.
func (s *JobStore) SetMatch(ctx context.Context, id int64, score *int, matched, missing []string) (types.Job, error) {
	if score != nil && (*score < 0 || *score > 100) {
		return types.Job{}, fmt.Errorf("%w: match score %d out of range 0-100", ErrValidation, *score)
	}
	return s.update(ctx, id, func(j *types.Job) {
		j.MatchScore = score
		j.Matched = matched
		j.Missing = missing
	})
}

func (s *JobStore) update(ctx context.Context, id int64, mutate func(*types.Job)) (types.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return types.Job{}, fmt.Errorf("%w: %d", ErrJobNotFound, id)
	}

	next := s.jobs[i].Clone()
	mutate(&next)
	next = next.Clone()

	if err := s.persist(ctx, next); err != nil {
		return types.Job{}, err
	}
	s.jobs[i] = next
	return next.Clone(), nil
}

func (s *JobStore) persist(ctx context.Context, job types.Job) error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.SaveJob(ctx, job); err != nil {
		return fmt.Errorf("failed to persist job %d: %w", job.ID, err)
	}
	return nil
}
