package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hiretree/internal/kanban"
	"github.com/jonathan/hiretree/internal/status"
	"github.com/jonathan/hiretree/internal/types"
)

const posting = "Senior Go Engineer\nAcme · Remote\nWe build APIs in Go and PostgreSQL."

func TestBoard_Empty(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "board")
	require.NoError(t, err)
	assert.Contains(t, out, "Pipeline: saved 0 · applied 0 · need_prep 0 · interview 0 · offer 0")
	assert.Contains(t, out, "SAVED (0)")
	assert.NotContains(t, out, "ARCHIVED")
}

func TestBoard_ShowsClippedJobs(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "clip", "--url", "https://jobs.example.com/1", "--text", posting)
	require.NoError(t, err)

	out, err := env.run(t, "board")
	require.NoError(t, err)
	assert.Contains(t, out, "SAVED (1)")
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "Senior Go Engineer")
	assert.Contains(t, out, "[—]", "no active resume means no score")
}

func TestBoard_ScoredAgainstActiveResume(t *testing.T) {
	env := newCLIEnv(t)
	env.createResume(t, "Backend", true, types.Skill{Name: "Go", Years: 5, Recency: types.RecencyCurrent, AIConfidence: 4})

	_, err := env.run(t, "clip", "--url", "https://jobs.example.com/1", "--text", posting)
	require.NoError(t, err)

	out, err := env.run(t, "board")
	require.NoError(t, err)
	assert.Contains(t, out, "%]")
	assert.NotContains(t, out, "[—]")
}

func TestMove(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "clip", "--url", "https://jobs.example.com/1", "--text", posting)
	require.NoError(t, err)

	out, err := env.run(t, "move", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Move to: applied, need_prep, interview, offer")
	assert.Contains(t, out, "Archive as: rejected, closed, accepted")
	assert.NotContains(t, out, "Restore to")

	out, err = env.run(t, "move", "1", "applied")
	require.NoError(t, err)
	assert.Equal(t, "Job #1 is now applied\n", out)

	job, err := env.api.GetJob(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, status.Applied, job.Status)

	_, err = env.run(t, "move", "1", "applied")
	assert.ErrorIs(t, err, status.ErrSameStatus)
}

func TestMove_Errors(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "clip", "--text", posting)
	require.NoError(t, err)

	tests := []struct {
		name    string
		args    []string
		wantErr error
		msg     string
	}{
		{name: "unknown status", args: []string{"move", "1", "ghosted"}, wantErr: status.ErrInvalid},
		{name: "unknown job", args: []string{"move", "99", "applied"}, wantErr: kanban.ErrJobNotFound},
		{name: "bad id", args: []string{"move", "abc", "applied"}, msg: "invalid job id"},
		{name: "too many args", args: []string{"move", "1", "applied", "extra"}, msg: "accepts between 1 and 2 arg(s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, tt.args...)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestBoard_Archived(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "clip", "--url", "https://jobs.example.com/1", "--text", posting)
	require.NoError(t, err)
	_, err = env.run(t, "move", "1", "rejected")
	require.NoError(t, err)

	out, err := env.run(t, "board")
	require.NoError(t, err)
	assert.NotContains(t, out, "#1")

	out, err = env.run(t, "board", "--archived")
	require.NoError(t, err)
	assert.Contains(t, out, "ARCHIVED (1)")
	assert.Contains(t, out, "rejected")

	out, err = env.run(t, "move", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Restore to: saved, applied, need_prep, interview, offer")
	assert.Contains(t, out, "Archive as: closed, accepted")
}

func TestBoard_Summary(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "board", "--summary")
	require.NoError(t, err)
	assert.Contains(t, out, "NO JOBS CLIPPED YET")

	_, err = env.run(t, "clip", "--text", posting)
	require.NoError(t, err)
	out, err = env.run(t, "board", "--summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Total jobs: 1")
	assert.NotContains(t, out, "SAVED (")
}

func TestShow(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "clip", "--url", "https://jobs.example.com/1", "--text", posting)
	require.NoError(t, err)

	out, err := env.run(t, "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "JOB #1")
	assert.Contains(t, out, "Senior Go Engineer")
	assert.Contains(t, out, "https://jobs.example.com/1")
	assert.Contains(t, out, "(unscored)")

	_, err = env.run(t, "show", "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job #42 not found")
}
