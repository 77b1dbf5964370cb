// Package kanban implements the job board: optimistic status moves from drag
// and drop or the context menu, reconciled against the job API.
package kanban

import (
	"time"

	"github.com/jonathan/hiretree/internal/status"
	"github.com/jonathan/hiretree/internal/types"
)

// Move is a request to put a job into a status. Seq orders moves issued by one
// board and At is when the move was issued.
type Move struct {
	JobID int64
	To    status.Status
	Seq   uint64
	At    time.Time
}

// Result is the settled outcome of a move's remote update. On success Job holds
// the server's canonical job. On failure Err is set and Jobs holds the refetched
// collection, or nil when the refetch failed too.
type Result struct {
	Job  *types.Job
	Jobs []types.Job
	Err  error
}

// Reconcile returns the board state after move. A nil result applies the move
// optimistically, stamping archived_at the way the job store does. A successful result overwrites the moved job with the
// server's answer. A failed result replaces the whole state with the refetched
// jobs, or keeps the current state when there is nothing to replace it with.
// The input slice is never modified.
func Reconcile(jobs []types.Job, move Move, result *Result) []types.Job {
	switch {
	case result == nil:
		return replaceJob(jobs, move.JobID, func(j *types.Job) {
			prev := j.Status
			j.Status = move.To
			switch {
			case move.To.IsActive():
				j.ArchivedAt = nil
			case !prev.IsArchived() || j.ArchivedAt == nil:
				at := move.At.UTC()
				j.ArchivedAt = &at
			}
		})
	case result.Err != nil:
		if result.Jobs == nil {
			return cloneJobs(jobs)
		}
		return cloneJobs(result.Jobs)
	case result.Job != nil:
		canonical := result.Job.Clone()
		return replaceJob(jobs, move.JobID, func(j *types.Job) { *j = canonical })
	default:
		return cloneJobs(jobs)
	}
}

func replaceJob(jobs []types.Job, id int64, mutate func(*types.Job)) []types.Job {
	out := cloneJobs(jobs)
	for i := range out {
		if out[i].ID == id {
			mutate(&out[i])
			break
		}
	}
	return out
}

func cloneJobs(jobs []types.Job) []types.Job {
	out := make([]types.Job, len(jobs))
	for i, j := range jobs {
		out[i] = j.Clone()
	}
	return out
}
