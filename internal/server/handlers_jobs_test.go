package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jonathan/hiretree/internal/ingestion"
	"github.com/jonathan/hiretree/internal/status"
	"github.com/jonathan/hiretree/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJobParser struct {
	details types.JobDetails
	err     error
}

func (p stubJobParser) ParseJob(context.Context, string, string) (types.JobDetails, error) {
	return p.details, p.err
}

type failingScorer struct{}

func (failingScorer) ScoreJob(context.Context, types.Job, types.Resume) (ingestion.MatchResult, error) {
	return ingestion.MatchResult{}, errors.New("scorer offline")
}

func withJobParser(p ingestion.JobParser) func(*Deps) {
	return func(d *Deps) { d.JobParser = p }
}

func TestClip(t *testing.T) {
	env := newTestEnv(t)
	before := time.Now().UTC()

	w := env.do(t, http.MethodPost, "/api/clip", types.ClipRequest{
		URL:     "https://boards.greenhouse.io/acme/jobs/1",
		RawText: "Senior Go Engineer\nAcme · Remote\nWe build with Go and Kubernetes.",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decode[types.ClipResponse](t, w)
	assert.True(t, res.Received)
	assert.False(t, res.Duplicate)
	assert.EqualValues(t, 1, res.ID)
	assert.NotContains(t, w.Body.String(), "duplicate")

	job, err := env.jobs.Get(res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Senior Go Engineer", job.Title)
	assert.Equal(t, "Acme", job.Company)
	assert.Equal(t, status.Saved, job.Status)
	assert.False(t, job.ClippedAt.Before(before))
	assert.Nil(t, job.MatchScore, "no active resume, no score")
}

func TestClip_DuplicateURL(t *testing.T) {
	env := newTestEnv(t)
	body := types.ClipRequest{URL: "https://jobs.lever.co/acme/42"}

	first := decode[types.ClipResponse](t, env.do(t, http.MethodPost, "/api/clip", body))

	w := env.do(t, http.MethodPost, "/api/clip", body)
	assert.Equal(t, http.StatusOK, w.Code)
	dup := decode[types.ClipResponse](t, w)
	assert.True(t, dup.Duplicate)
	assert.Equal(t, first.ID, dup.ID)
	assert.Equal(t, 1, env.jobs.Len())
}

func TestClip_EmptyBodiesAreNotDeduplicated(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/api/clip", types.ClipRequest{})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	jobs := env.jobs.List()
	require.Len(t, jobs, 2)
	assert.Equal(t, "Untitled", jobs[0].Title)
}

func TestClip_ParserFailureFallsBack(t *testing.T) {
	env := newTestEnv(t, withJobParser(stubJobParser{err: errors.New("boom")}))

	w := env.do(t, http.MethodPost, "/api/clip", types.ClipRequest{URL: "https://acme.example/careers/7", RawText: "x"})
	require.Equal(t, http.StatusCreated, w.Code)

	job, err := env.jobs.Get(decode[types.ClipResponse](t, w).ID)
	require.NoError(t, err)
	assert.Equal(t, "https://acme.example/careers/7", job.Title)
	assert.Equal(t, []string{}, job.Stack)
	assert.Contains(t, env.logs.String(), "job parsing failed")
}

func TestClip_InvalidURL(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/clip", types.ClipRequest{URL: "not a url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation error: URL - url")
	assert.Zero(t, env.jobs.Len())
}

func TestClip_ScoresAgainstActiveResume(t *testing.T) {
	env := newTestEnv(t, withJobParser(stubJobParser{details: types.JobDetails{
		Title: "Platform Engineer",
		Stack: []string{"Go", "Kubernetes"},
	}}))
	env.createResume(t, "Main", types.Skill{Name: "Go", AIConfidence: 5, Recency: types.RecencyCurrent})

	w := env.do(t, http.MethodPost, "/api/clip", types.ClipRequest{URL: "https://acme.example/jobs/1"})
	require.Equal(t, http.StatusCreated, w.Code)

	job := decode[types.Job](t, env.do(t, http.MethodGet, "/api/jobs/1", nil))
	require.NotNil(t, job.MatchScore)
	assert.Equal(t, 50, *job.MatchScore)
	assert.Equal(t, []string{"Go"}, job.Matched)
	assert.Equal(t, []string{"Kubernetes"}, job.Missing)
}

func TestClip_ScorerFailureStillCreates(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.Scorer = failingScorer{} })
	env.createResume(t, "Main", types.Skill{Name: "Go"})

	w := env.do(t, http.MethodPost, "/api/clip", types.ClipRequest{RawText: "Go developer"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, env.logs.String(), "match scoring failed")
}

func TestListAndGetJobs(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	for i := 1; i <= 3; i++ {
		env.do(t, http.MethodPost, "/api/clip", types.ClipRequest{URL: fmt.Sprintf("https://acme.example/jobs/%d", i)})
	}
	jobs := decode[[]types.Job](t, env.do(t, http.MethodGet, "/api/jobs", nil))
	require.Len(t, jobs, 3)
	assert.EqualValues(t, []int64{1, 2, 3}, []int64{jobs[0].ID, jobs[1].ID, jobs[2].ID})

	w = env.do(t, http.MethodGet, "/api/jobs/2", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://acme.example/jobs/2", decode[types.Job](t, w).URL)

	w = env.do(t, http.MethodGet, "/api/jobs/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Job not found","detail":"Job not found"}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/jobs/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateJobStatus(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/clip", types.ClipRequest{URL: "https://acme.example/jobs/1"})

	patch := func(st string) types.JobPatch { return types.JobPatch{Status: &st} }

	t.Run("move between columns", func(t *testing.T) {
		w := env.do(t, http.MethodPatch, "/api/jobs/1", patch("interview"))
		require.Equal(t, http.StatusOK, w.Code)
		job := decode[types.Job](t, w)
		assert.Equal(t, status.Interview, job.Status)
		assert.Nil(t, job.ArchivedAt)
	})

	t.Run("archive and restore", func(t *testing.T) {
		job := decode[types.Job](t, env.do(t, http.MethodPatch, "/api/jobs/1", patch("rejected")))
		assert.Equal(t, status.Rejected, job.Status)
		require.NotNil(t, job.ArchivedAt)

		job = decode[types.Job](t, env.do(t, http.MethodPatch, "/api/jobs/1", patch("applied")))
		assert.Equal(t, status.Applied, job.Status)
		assert.Nil(t, job.ArchivedAt)
	})

	t.Run("invalid status", func(t *testing.T) {
		w := env.do(t, http.MethodPatch, "/api/jobs/1", patch("ghosted"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid status: ghosted")
	})

	t.Run("missing status", func(t *testing.T) {
		w := env.do(t, http.MethodPatch, "/api/jobs/1", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown job", func(t *testing.T) {
		w := env.do(t, http.MethodPatch, "/api/jobs/9", patch("offer"))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Job not found")
	})
}
