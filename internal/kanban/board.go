package kanban

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonathan/hiretree/internal/status"
	"github.com/jonathan/hiretree/internal/types"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrDragInProgress is returned when a drag starts while another is active.
	ErrDragInProgress = errors.New("a drag is already in progress")
	// ErrJobNotFound is returned for a job id the board does not hold.
	ErrJobNotFound = errors.New("job not on board")
	// ErrClosed is returned by a board after Close.
	ErrClosed = errors.New("board closed")
)

// Remote is the job API a board reconciles against.
type Remote interface {
	ListJobs(ctx context.Context) ([]types.Job, error)
	UpdateJobStatus(ctx context.Context, id int64, st status.Status) (types.Job, error)
}

// Column is one board column with its jobs in collection order.
type Column struct {
	Status status.Status
	Jobs   []types.Job
}

type confirmation struct {
	job types.Job
	gen uint64
}

type fetchResult struct {
	jobs []types.Job
	gen  uint64
}

// Board holds the local view of the job collection. All methods are safe for
// concurrent use; remote calls are made without holding the lock.
type Board struct {
	remote Remote
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	jobs      []types.Job
	nextSeq   uint64
	latest    map[int64]uint64 // newest move per job
	inflight  map[int64]Move
	confirmed map[int64]confirmation
	gen       uint64 // bumped when a refetch starts
	applied   uint64 // gen of the newest refetch applied
	drag      *types.Job
	stale     bool
	closed    bool

	refetches singleflight.Group
}

// New creates an empty board. Call Load to fill it.
func New(remote Remote, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{
		remote:    remote,
		logger:    logger.With("component", "kanban"),
		now:       time.Now,
		latest:    make(map[int64]uint64),
		inflight:  make(map[int64]Move),
		confirmed: make(map[int64]confirmation),
	}
}

// Load replaces the board with the server's job collection.
func (b *Board) Load(ctx context.Context) error {
	jobs, err := b.remote.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load jobs: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.jobs = cloneJobs(jobs)
	b.stale = false
	return nil
}

// Jobs returns a copy of every job on the board.
func (b *Board) Jobs() []types.Job {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneJobs(b.jobs)
}

// Job returns one job from the local view.
func (b *Board) Job(id int64) (types.Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(id)
	if i < 0 {
		return types.Job{}, fmt.Errorf("%w: %d", ErrJobNotFound, id)
	}
	return b.jobs[i].Clone(), nil
}

// Columns groups the active jobs by board column.
func (b *Board) Columns() []Column {
	b.mu.Lock()
	defer b.mu.Unlock()

	cols := status.Columns()
	out := make([]Column, len(cols))
	for i, st := range cols {
		out[i] = Column{Status: st, Jobs: b.filter(func(j types.Job) bool { return j.Status == st })}
	}
	return out
}

// Archived returns the jobs in an archived status.
func (b *Board) Archived() []types.Job {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filter(func(j types.Job) bool { return j.Status.IsArchived() })
}

// Menu returns the context menu targets for a job.
func (b *Board) Menu(id int64) (status.Menu, error) {
	j, err := b.Job(id)
	if err != nil {
		return status.Menu{}, err
	}
	return status.MenuTargets(j.Status), nil
}

// Stale reports whether the last failed move could not be followed by a
// successful refetch, so the view may disagree with the server.
func (b *Board) Stale() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stale
}

// BeginDrag marks a job as being dragged and returns its snapshot for the preview.
func (b *Board) BeginDrag(id int64) (types.Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return types.Job{}, ErrClosed
	}
	if b.drag != nil {
		return types.Job{}, ErrDragInProgress
	}
	i := b.indexOf(id)
	if i < 0 {
		return types.Job{}, fmt.Errorf("%w: %d", ErrJobNotFound, id)
	}
	snap := b.jobs[i].Clone()
	b.drag = &snap
	return snap.Clone(), nil
}

// Dragging returns the job being dragged, if any.
func (b *Board) Dragging() (types.Job, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drag == nil {
		return types.Job{}, false
	}
	return b.drag.Clone(), true
}

// CancelDrag ends the active drag without moving anything.
func (b *Board) CancelDrag() {
	b.mu.Lock()
	b.drag = nil
	b.mu.Unlock()
}

// Drop ends the active drag on the column identified by target. Drops outside
// a column, with no active drag, or onto the job's own column do nothing.
func (b *Board) Drop(ctx context.Context, target string) error {
	b.mu.Lock()
	drag := b.drag
	b.drag = nil
	b.mu.Unlock()

	if drag == nil {
		return nil
	}
	to, ok := resolveColumn(target)
	if !ok {
		b.logger.Debug("drop outside any column", "job_id", drag.ID, "target", target)
		return nil
	}
	err := b.Move(ctx, drag.ID, to)
	if errors.Is(err, status.ErrSameStatus) {
		return nil
	}
	return err
}

// Move puts a job into a new status. The change is visible immediately and then
// confirmed by the server. When the server rejects it the whole collection is
// refetched and the server error is returned. Moving a job to its current
// status returns status.ErrSameStatus without contacting the server.
func (b *Board) Move(ctx context.Context, id int64, to status.Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", status.ErrInvalid, string(to))
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	i := b.indexOf(id)
	if i < 0 {
		b.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrJobNotFound, id)
	}
	if err := status.Transition(b.jobs[i].Status, to); err != nil {
		b.mu.Unlock()
		return err
	}
	b.nextSeq++
	mv := Move{JobID: id, To: to, Seq: b.nextSeq, At: b.now()}
	b.latest[id] = mv.Seq
	b.inflight[id] = mv
	b.jobs = Reconcile(b.jobs, mv, nil)
	b.mu.Unlock()

	b.logger.Debug("move issued", "job_id", id, "to", to, "seq", mv.Seq)
	canonical, err := b.remote.UpdateJobStatus(ctx, id, to)

	b.mu.Lock()
	if b.inflight[id].Seq == mv.Seq {
		delete(b.inflight, id)
	}
	if b.closed {
		b.mu.Unlock()
		return err
	}
	if err == nil {
		if b.latest[id] == mv.Seq {
			b.jobs = Reconcile(b.jobs, mv, &Result{Job: &canonical})
			b.confirmed[id] = confirmation{job: canonical.Clone(), gen: b.gen}
		} else {
			b.logger.Debug("dropping stale move response", "job_id", id, "seq", mv.Seq, "latest", b.latest[id])
		}
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	b.logger.Warn("move failed, refetching jobs", "job_id", id, "to", to, "error", err)
	b.refetch(ctx, mv, err)
	return err
}

// Close detaches the board. Responses settling afterwards are discarded.
func (b *Board) Close() {
	b.mu.Lock()
	b.closed = true
	b.drag = nil
	b.mu.Unlock()
}

// refetch reloads the collection after a failed move. Overlapping refetches
// share one request.
func (b *Board) refetch(ctx context.Context, mv Move, moveErr error) {
	v, err, shared := b.refetches.Do("jobs", func() (any, error) {
		b.mu.Lock()
		b.gen++
		gen := b.gen
		b.mu.Unlock()

		jobs, err := b.remote.ListJobs(ctx)
		return fetchResult{jobs: jobs, gen: gen}, err
	})

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if err != nil {
		b.stale = true
		b.logger.Warn("refetch after failed move failed", "job_id", mv.JobID, "error", err)
		return
	}

	fr := v.(fetchResult)
	if fr.gen < b.applied {
		return
	}
	b.applied = fr.gen
	b.jobs = Reconcile(b.jobs, mv, &Result{Err: moveErr, Jobs: fr.jobs})
	b.overlay(fr.gen)
	b.stale = false
	b.logger.Debug("board replaced from server", "jobs", len(b.jobs), "shared", shared)
}

// overlay re-applies what the fetched snapshot may predate: confirmations
// received after the fetch started and moves still in flight.
func (b *Board) overlay(gen uint64) {
	for id, c := range b.confirmed {
		if c.gen < gen {
			delete(b.confirmed, id)
			continue
		}
		b.jobs = Reconcile(b.jobs, Move{JobID: id}, &Result{Job: &c.job})
	}
	for _, mv := range b.inflight {
		b.jobs = Reconcile(b.jobs, mv, nil)
	}
}

func (b *Board) indexOf(id int64) int {
	for i, j := range b.jobs {
		if j.ID == id {
			return i
		}
	}
	return -1
}

func (b *Board) filter(keep func(types.Job) bool) []types.Job {
	var out []types.Job
	for _, j := range b.jobs {
		if keep(j) {
			out = append(out, j.Clone())
		}
	}
	return out
}

func resolveColumn(target string) (status.Status, bool) {
	st, err := status.Parse(target)
	if err != nil || !st.IsActive() {
		return "", false
	}
	return st, true
}
