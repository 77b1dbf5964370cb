// Package profile reconciles local edits to resumes and their skills with the
// resume API: changes apply immediately and are rolled back or refetched when
// the server rejects them.
package profile

import (
	"context"
	"errors"

	"github.com/jonathan/hiretree/internal/types"
)

var (
	// ErrValidation is returned for edits rejected before any request is made.
	ErrValidation = errors.New("validation failed")
	// ErrSkillNotFound is returned for a skill the editor does not hold.
	ErrSkillNotFound = errors.New("skill not found")
	// ErrResumeNotFound is returned for a resume the list does not hold.
	ErrResumeNotFound = errors.New("resume not found")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("editor closed")
)

// SkillRemote patches skills on the server.
type SkillRemote interface {
	PatchResumeSkill(ctx context.Context, resumeID, name string, patch types.SkillPatch) (types.Skill, error)
}

// ResumeRemote manages resumes on the server.
type ResumeRemote interface {
	ListResumes(ctx context.Context) ([]types.Resume, error)
	UpdateResume(ctx context.Context, id string, patch types.ResumePatch) (types.Resume, error)
	DeleteResume(ctx context.Context, id string) error
}
