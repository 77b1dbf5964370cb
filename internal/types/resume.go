package types

import (
	"bytes"
	"encoding/json"
	"time"
)

// ResumeSource records how a resume was created.
type ResumeSource string

// Resume sources.
const (
	SourceManual   ResumeSource = "manual"
	SourceDocument ResumeSource = "from-document"
)

// Recency tiers reported by the document parser.
const (
	RecencyCurrent = "current"
	RecencyRecent  = "1-2 years ago"
	RecencyOld     = "3+ years ago"
)

// DefaultAIConfidence is assumed when the parser supplies no confidence.
const DefaultAIConfidence = 3

// Skill is one technology or tool on a resume. Name is the stable key.
type Skill struct {
	Name         string `json:"name"`
	Years        int    `json:"years"`
	LastUsedYear *int   `json:"last_used_year"`
	Recency      string `json:"recency"`
	AIConfidence int    `json:"ai_confidence"`
	UserRating   *int   `json:"user_rating"`
	Note         string `json:"note"`
}

// Clone returns a copy that shares no pointers with s.
func (s Skill) Clone() Skill {
	out := s
	if s.LastUsedYear != nil {
		v := *s.LastUsedYear
		out.LastUsedYear = &v
	}
	if s.UserRating != nil {
		v := *s.UserRating
		out.UserRating = &v
	}
	return out
}

// Resume is a named skill profile. At most one resume is active.
type Resume struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Source          ResumeSource `json:"source"`
	IsActive        bool         `json:"is_active"`
	Skills          []Skill      `json:"skills"`
	Summary         string       `json:"summary"`
	CurrentRole     string       `json:"current_role"`
	YearsExperience int          `json:"years_experience"`
	Refined         bool         `json:"refined"`
	Hash            string       `json:"hash,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// Clone returns a deep copy of r.
func (r Resume) Clone() Resume {
	out := r
	out.Skills = make([]Skill, len(r.Skills))
	for i, s := range r.Skills {
		out.Skills[i] = s.Clone()
	}
	return out
}

// Profile is the legacy single-resume view returned by the /api/cv endpoints.
type Profile struct {
	Resume
	Cached bool `json:"cached"`
}

// ParsedProfile is what a document parser extracts from a resume.
type ParsedProfile struct {
	Skills          []Skill `json:"skills"`
	YearsExperience int     `json:"years_experience"`
	CurrentRole     string  `json:"current_role"`
	Summary         string  `json:"summary"`
}

// WorkEntry is one row of a manually entered work history.
type WorkEntry struct {
	Company      string `json:"company"`
	Role         string `json:"role"`
	Period       string `json:"period"`
	Description  string `json:"description"`
	Technologies string `json:"technologies"`
}

// WorkHistoryRequest is the body of POST /api/profile/manual and /api/profile/refine.
type WorkHistoryRequest struct {
	Entries []WorkEntry `json:"entries" validate:"required,min=1"`
}

// CreateResumeRequest is the JSON body of POST /api/resumes.
type CreateResumeRequest struct {
	Name     string      `json:"name"`
	Entries  []WorkEntry `json:"entries"`
	Skills   []Skill     `json:"skills"`
	IsActive bool        `json:"is_active"`
}

// ResumePatch is the body of PATCH /api/resumes/{id}.
type ResumePatch struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

// SkillPatch updates only the fields that are present.
type SkillPatch struct {
	UserRating OptionalInt `json:"user_rating"`
	Note       *string     `json:"note"`
}

// Empty reports whether the patch carries no field at all.
func (p SkillPatch) Empty() bool {
	return !p.UserRating.Set && p.Note == nil
}

// OptionalInt distinguishes an absent JSON field from an explicit null.
type OptionalInt struct {
	Set   bool
	Value *int
}

// Int returns a present, non-null OptionalInt.
func Int(v int) OptionalInt {
	return OptionalInt{Set: true, Value: &v}
}

// Null returns a present OptionalInt holding null.
func Null() OptionalInt {
	return OptionalInt{Set: true}
}

// UnmarshalJSON is only invoked when the field is present.
func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// MarshalJSON writes null when no value is held.
func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// MarshalJSON omits absent fields so the server applies only what was set.
func (p SkillPatch) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	if p.UserRating.Set {
		body["user_rating"] = p.UserRating
	}
	if p.Note != nil {
		body["note"] = *p.Note
	}
	return json.Marshal(body)
}
