package store

import (
	"context"

	"github.com/jonathan/hiretree/internal/types"
)

// JobPersister receives every job mutation before it becomes visible.
// A failing persister leaves the in-memory state untouched.
type JobPersister interface {
	SaveJob(ctx context.Context, job types.Job) error
}

// ResumePersister receives the resumes changed and the ids removed by a single
// store operation. Implementations must apply both in one transaction so the
// single-active invariant also holds on disk.
type ResumePersister interface {
	SyncResumes(ctx context.Context, changed []types.Resume, deleted []string) error
}
