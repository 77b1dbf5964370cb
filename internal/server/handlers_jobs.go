package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/jonathan/hiretree/internal/ingestion"
	"github.com/jonathan/hiretree/internal/status"
	"github.com/jonathan/hiretree/internal/store"
	"github.com/jonathan/hiretree/internal/types"
	"golang.org/x/sync/errgroup"
)

// scoreWorkers bounds concurrent scorer calls during a rescore.
const scoreWorkers = 4

// handleClip creates a job from a clipped posting. A URL that was already
// clipped returns the existing id with 200.
func (s *Server) handleClip(w http.ResponseWriter, r *http.Request) {
	var req types.ClipRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	if id, ok := s.jobs.LookupURL(req.URL); ok {
		jsonResponse(w, http.StatusOK, types.ClipResponse{Received: true, ID: id, Duplicate: true})
		return
	}

	details, err := s.jobParser.ParseJob(r.Context(), req.URL, req.RawText)
	if err != nil {
		s.logger.WarnContext(r.Context(), "job parsing failed, using fallback", "url", req.URL, "error", err)
		details = ingestion.FallbackDetails(req.URL)
	}

	res, err := s.jobs.Clip(r.Context(), store.ClipInput{URL: req.URL, RawText: req.RawText, Details: details})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.Duplicate {
		jsonResponse(w, http.StatusOK, types.ClipResponse{Received: true, ID: res.ID, Duplicate: true})
		return
	}

	if resume, ok := s.resumes.Active(); ok {
		if job, err := s.jobs.Get(res.ID); err == nil {
			s.scoreJob(r.Context(), job, resume)
		}
	}
	jsonResponse(w, http.StatusCreated, types.ClipResponse{Received: true, ID: res.ID})
}

func (s *Server) handleListJobs(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, s.jobs.List())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	job, err := s.jobs.Get(id)
	if errors.Is(err, store.ErrJobNotFound) {
		errorResponse(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, job)
}

// handleUpdateJob sets the pipeline status. Setting the current status again
// is accepted and leaves the job unchanged apart from persistence.
func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	var patch types.JobPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if patch.Status == nil {
		errorResponse(w, http.StatusBadRequest, "status is required")
		return
	}
	st, err := status.Parse(*patch.Status)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid status: "+*patch.Status)
		return
	}

	job, err := s.jobs.SetStatus(r.Context(), id, st)
	if errors.Is(err, store.ErrJobNotFound) {
		errorResponse(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.DebugContext(r.Context(), "job status updated", "job_id", id, "status", st)
	jsonResponse(w, http.StatusOK, job)
}

func jobID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		errorResponse(w, http.StatusBadRequest, "invalid job id: "+r.PathValue("id"))
		return 0, false
	}
	return id, true
}

// scoreJob records the match of one job against resume. Scoring failures
// leave the previous score in place.
func (s *Server) scoreJob(ctx context.Context, job types.Job, resume types.Resume) {
	res, err := s.scorer.ScoreJob(ctx, job, resume)
	if err != nil {
		s.logger.WarnContext(ctx, "match scoring failed", "job_id", job.ID, "error", err)
		return
	}
	if _, err := s.jobs.SetMatch(ctx, job.ID, res.Score, res.Matched, res.Missing); err != nil {
		s.logger.WarnContext(ctx, "failed to store match", "job_id", job.ID, "error", err)
	}
}

// rescoreAll recomputes every job against the active resume, or clears the
// scores when no resume is active.
func (s *Server) rescoreAll(ctx context.Context) {
	jobs := s.jobs.List()
	resume, ok := s.resumes.Active()
	if !ok {
		for _, job := range jobs {
			if job.MatchScore == nil && len(job.Matched) == 0 && len(job.Missing) == 0 {
				continue
			}
			if _, err := s.jobs.SetMatch(ctx, job.ID, nil, []string{}, []string{}); err != nil {
				s.logger.WarnContext(ctx, "failed to clear match", "job_id", job.ID, "error", err)
			}
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(scoreWorkers)
	for _, job := range jobs {
		g.Go(func() error {
			s.scoreJob(ctx, job, resume)
			return nil
		})
	}
	_ = g.Wait()
}
