package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jonathan/hiretree/internal/types"
)

// Profile returns the active resume in its legacy profile shape.
func (c *Client) Profile(ctx context.Context) (types.Profile, error) {
	var out types.Profile
	err := c.doJSON(ctx, http.MethodGet, "/api/cv", nil, &out)
	return out, err
}

// UploadCV uploads a resume document and returns the resulting profile.
func (c *Client) UploadCV(ctx context.Context, filename string, content []byte) (types.Profile, error) {
	var out types.Profile
	err := c.upload(ctx, "/api/cv", nil, filename, content, &out)
	return out, err
}

// ManualProfile builds the active profile from work history.
func (c *Client) ManualProfile(ctx context.Context, entries []types.WorkEntry) (types.Profile, error) {
	var out types.Profile
	err := c.doJSON(ctx, http.MethodPost, "/api/profile/manual", types.WorkHistoryRequest{Entries: entries}, &out)
	return out, err
}

// RefineProfile refines the active profile's skills with work history.
func (c *Client) RefineProfile(ctx context.Context, entries []types.WorkEntry) (types.Profile, error) {
	var out types.Profile
	err := c.doJSON(ctx, http.MethodPost, "/api/profile/refine", types.WorkHistoryRequest{Entries: entries}, &out)
	return out, err
}

// PatchProfileSkill patches a skill of the active resume.
func (c *Client) PatchProfileSkill(ctx context.Context, name string, patch types.SkillPatch) (types.Skill, error) {
	var out types.Skill
	err := c.doJSON(ctx, http.MethodPatch, "/api/cv/skills/"+url.PathEscape(name), patch, &out)
	return out, err
}

// ListResumes returns every resume.
func (c *Client) ListResumes(ctx context.Context) ([]types.Resume, error) {
	var out []types.Resume
	if err := c.doJSON(ctx, http.MethodGet, "/api/resumes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateResume creates a resume from skills or work history.
func (c *Client) CreateResume(ctx context.Context, req types.CreateResumeRequest) (types.Resume, error) {
	var out types.Resume
	err := c.doJSON(ctx, http.MethodPost, "/api/resumes", req, &out)
	return out, err
}

// UploadResume creates a resume from a document.
func (c *Client) UploadResume(ctx context.Context, name, filename string, content []byte, active bool) (types.Resume, error) {
	fields := map[string]string{"is_active": strconv.FormatBool(active)}
	if name != "" {
		fields["name"] = name
	}
	var out types.Resume
	err := c.upload(ctx, "/api/resumes", fields, filename, content, &out)
	return out, err
}

// UpdateResume renames or activates a resume.
func (c *Client) UpdateResume(ctx context.Context, id string, patch types.ResumePatch) (types.Resume, error) {
	var out types.Resume
	err := c.doJSON(ctx, http.MethodPatch, resumePath(id), patch, &out)
	return out, err
}

// DeleteResume deletes a resume.
func (c *Client) DeleteResume(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, resumePath(id), nil, nil)
}

// PatchResumeSkill patches one skill of a resume.
func (c *Client) PatchResumeSkill(ctx context.Context, resumeID, name string, patch types.SkillPatch) (types.Skill, error) {
	var out types.Skill
	err := c.doJSON(ctx, http.MethodPatch, resumePath(resumeID)+"/skills/"+url.PathEscape(name), patch, &out)
	return out, err
}

func resumePath(id string) string {
	return "/api/resumes/" + url.PathEscape(id)
}
