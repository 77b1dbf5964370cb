// Package types provides the data model shared by the stores, the HTTP API and its clients.
package types

import (
	"time"

	"github.com/jonathan/hiretree/internal/status"
)

// Job is a clipped job posting tracked through the pipeline.
type Job struct {
	ID          int64         `json:"id"`
	URL         string        `json:"url"`
	RawText     string        `json:"raw_text"`
	Title       string        `json:"title"`
	Company     string        `json:"company"`
	Location    string        `json:"location"`
	Stack       []string      `json:"stack"`
	Salary      string        `json:"salary"`
	Mode        string        `json:"mode"`
	Seniority   string        `json:"seniority"`
	Contract    string        `json:"contract"`
	Description string        `json:"description"`
	Status      status.Status `json:"status"`
	ClippedAt   time.Time     `json:"clippedAt"`
	ArchivedAt  *time.Time    `json:"archived_at,omitempty"`
	MatchScore  *int          `json:"match_score"`
	Matched     []string      `json:"matched"`
	Missing     []string      `json:"missing"`
}

// Clone returns a deep copy so callers never share slices with a store.
func (j Job) Clone() Job {
	out := j
	out.Stack = cloneStrings(j.Stack)
	out.Matched = cloneStrings(j.Matched)
	out.Missing = cloneStrings(j.Missing)
	if j.ArchivedAt != nil {
		t := *j.ArchivedAt
		out.ArchivedAt = &t
	}
	if j.MatchScore != nil {
		v := *j.MatchScore
		out.MatchScore = &v
	}
	return out
}

// JobDetails is the descriptive metadata extracted from a clip.
type JobDetails struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Salary      string   `json:"salary"`
	Mode        string   `json:"mode"`
	Seniority   string   `json:"seniority"`
	Contract    string   `json:"contract"`
	Stack       []string `json:"stack"`
	Description string   `json:"description"`
}

// ClipRequest is the body of POST /api/clip.
type ClipRequest struct {
	URL     string `json:"url" validate:"omitempty,url"`
	RawText string `json:"raw_text"`
}

// ClipResponse is returned by POST /api/clip.
type ClipResponse struct {
	Received  bool  `json:"received"`
	ID        int64 `json:"id"`
	Duplicate bool  `json:"duplicate,omitempty"`
}

// JobPatch is the body of PATCH /api/jobs/{id}.
type JobPatch struct {
	Status *string `json:"status"`
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
