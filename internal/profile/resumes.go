package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jonathan/hiretree/internal/types"
)

// ResumeList is the local view of the user's resumes. Failed remote changes
// are followed by a full refetch.
type ResumeList struct {
	remote ResumeRemote
	logger *slog.Logger

	mu      sync.Mutex
	resumes []types.Resume
	stale   bool
	closed  bool
}

// NewResumeList creates an empty list. Call Load to fill it.
func NewResumeList(remote ResumeRemote, logger *slog.Logger) *ResumeList {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResumeList{remote: remote, logger: logger.With("component", "resume_list")}
}

// Load replaces the list with the server's resumes.
func (l *ResumeList) Load(ctx context.Context) error {
	resumes, err := l.remote.ListResumes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load resumes: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.resumes = cloneResumes(resumes)
	l.stale = false
	return nil
}

// Resumes returns a copy of the list.
func (l *ResumeList) Resumes() []types.Resume {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneResumes(l.resumes)
}

// Active returns the resume flagged active. It reports false when no resume
// carries the flag, even if the list is not empty.
func (l *ResumeList) Active() (types.Resume, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range l.resumes {
		if r.IsActive {
			return r.Clone(), true
		}
	}
	return types.Resume{}, false
}

// Stale reports whether the last refetch after a failure did not succeed.
func (l *ResumeList) Stale() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stale
}

// SetActive makes id the only active resume.
func (l *ResumeList) SetActive(ctx context.Context, id string) error {
	active := true
	return l.mutate(ctx, id, func(rs []types.Resume, i int) []types.Resume {
		for k := range rs {
			rs[k].IsActive = k == i
		}
		return rs
	}, l.update(id, types.ResumePatch{IsActive: &active}))
}

// Rename trims name and renames the resume. Empty or unchanged names are
// rejected without a request.
func (l *ResumeList) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}

	l.mu.Lock()
	i := l.indexOf(id)
	if i >= 0 && l.resumes[i].Name == name {
		l.mu.Unlock()
		return fmt.Errorf("%w: name unchanged", ErrValidation)
	}
	l.mu.Unlock()

	return l.mutate(ctx, id, func(rs []types.Resume, i int) []types.Resume {
		rs[i].Name = name
		return rs
	}, l.update(id, types.ResumePatch{Name: &name}))
}

// Delete removes a resume. Removing the active one promotes the first remaining resume.
func (l *ResumeList) Delete(ctx context.Context, id string) error {
	return l.mutate(ctx, id, func(rs []types.Resume, i int) []types.Resume {
		wasActive := rs[i].IsActive
		rs = append(rs[:i], rs[i+1:]...)
		if wasActive && len(rs) > 0 {
			rs[0].IsActive = true
		}
		return rs
	}, func(ctx context.Context) error {
		return l.remote.DeleteResume(ctx, id)
	})
}

// Add inserts a resume the server has just created. An active resume demotes the others.
func (l *ResumeList) Add(r types.Resume) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r = r.Clone()
	if r.IsActive {
		for k := range l.resumes {
			l.resumes[k].IsActive = false
		}
	}
	l.resumes = append(l.resumes, r)
}

// Close detaches the list. Responses settling afterwards are discarded.
func (l *ResumeList) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

func (l *ResumeList) update(id string, patch types.ResumePatch) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := l.remote.UpdateResume(ctx, id, patch)
		return err
	}
}

// mutate applies change locally, then sends the request and refetches on failure.
func (l *ResumeList) mutate(ctx context.Context, id string, change func([]types.Resume, int) []types.Resume, send func(context.Context) error) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	i := l.indexOf(id)
	if i < 0 {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrResumeNotFound, id)
	}
	l.resumes = change(cloneResumes(l.resumes), i)
	l.mu.Unlock()

	err := send(ctx)
	if err == nil {
		return nil
	}

	l.logger.Warn("resume change failed, refetching", "resume_id", id, "error", err)
	fetched, ferr := l.remote.ListResumes(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return err
	}
	if ferr != nil {
		l.stale = true
		l.logger.Warn("refetch after failed resume change failed", "error", ferr)
		return err
	}
	l.resumes = cloneResumes(fetched)
	l.stale = false
	return err
}

func (l *ResumeList) indexOf(id string) int {
	for i, r := range l.resumes {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func cloneResumes(in []types.Resume) []types.Resume {
	out := make([]types.Resume, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
