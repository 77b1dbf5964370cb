package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/hiretree/internal/types"
)

// Rating bounds shared by ai_confidence and user_rating.
const (
	MinRating = 1
	MaxRating = 5
)

// NewResume describes a resume to create.
type NewResume struct {
	Name            string
	Source          types.ResumeSource
	Skills          []types.Skill
	Summary         string
	CurrentRole     string
	YearsExperience int
	Hash            string
	// Activate makes the new resume active even when others exist.
	Activate bool
}

// ResumeStore holds named resumes. Whenever at least one resume exists exactly
// one of them is active.
type ResumeStore struct {
	mu        sync.Mutex
	resumes   []types.Resume
	persister ResumePersister
	now       func() time.Time
	newID     func() string
}

// NewResumeStore creates an empty store. persister may be nil.
func NewResumeStore(persister ResumePersister) *ResumeStore {
	return &ResumeStore{
		persister: persister,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// Restore seeds the store with persisted resumes and repairs the active flag
// if the snapshot violates the single-active invariant.
func (s *ResumeStore) Restore(resumes []types.Resume) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resumes = make([]types.Resume, 0, len(resumes))
	active := -1
	for i, r := range resumes {
		r = r.Clone()
		if r.IsActive {
			if active >= 0 {
				r.IsActive = false
			} else {
				active = i
			}
		}
		s.resumes = append(s.resumes, r)
	}
	if active < 0 && len(s.resumes) > 0 {
		s.resumes[0].IsActive = true
	}
}

// Create adds a resume. The first resume becomes active automatically.
func (s *ResumeStore) Create(ctx context.Context, in NewResume) (types.Resume, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return types.Resume{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	skills, err := normalizeSkills(in.Skills)
	if err != nil {
		return types.Resume{}, err
	}
	source := in.Source
	if source == "" {
		source = types.SourceManual
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := types.Resume{
		ID:              s.newID(),
		Name:            name,
		Source:          source,
		IsActive:        len(s.resumes) == 0 || in.Activate,
		Skills:          skills,
		Summary:         in.Summary,
		CurrentRole:     in.CurrentRole,
		YearsExperience: in.YearsExperience,
		Hash:            in.Hash,
		CreatedAt:       s.now().UTC(),
	}

	next := s.snapshot()
	if r.IsActive {
		for i := range next {
			next[i].IsActive = false
		}
	}
	next = append(next, r)

	if err := s.commit(ctx, next, nil); err != nil {
		return types.Resume{}, err
	}
	return r.Clone(), nil
}

// SetActive makes id the only active resume.
func (s *ResumeStore) SetActive(ctx context.Context, id string) (types.Resume, error) {
	active := true
	return s.Update(ctx, id, types.ResumePatch{IsActive: &active})
}

// Rename changes the display name. Empty or unchanged names are rejected.
func (s *ResumeStore) Rename(ctx context.Context, id, name string) (types.Resume, error) {
	return s.Update(ctx, id, types.ResumePatch{Name: &name})
}

// Update applies a rename and/or an activation in one commit, so either both
// take effect or neither does. A resume cannot be deactivated directly.
func (s *ResumeStore) Update(ctx context.Context, id string, patch types.ResumePatch) (types.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return types.Resume{}, fmt.Errorf("%w: %s", ErrResumeNotFound, id)
	}
	if patch.Name == nil && patch.IsActive == nil {
		return types.Resume{}, fmt.Errorf("%w: no fields to update", ErrValidation)
	}

	next := s.snapshot()
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return types.Resume{}, fmt.Errorf("%w: name is required", ErrValidation)
		}
		if name == s.resumes[i].Name {
			return types.Resume{}, fmt.Errorf("%w: name unchanged", ErrValidation)
		}
		next[i].Name = name
	}
	if patch.IsActive != nil {
		if !*patch.IsActive {
			return types.Resume{}, fmt.Errorf("%w: activate another resume instead", ErrValidation)
		}
		for k := range next {
			next[k].IsActive = k == i
		}
	}

	if err := s.commit(ctx, next, nil); err != nil {
		return types.Resume{}, err
	}
	return next[i].Clone(), nil
}

// Delete removes a resume. Deleting the active one promotes the first remaining resume.
func (s *ResumeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrResumeNotFound, id)
	}
	wasActive := s.resumes[i].IsActive

	cur := s.snapshot()
	next := append(cur[:i:i], cur[i+1:]...)
	if wasActive && len(next) > 0 {
		next[0].IsActive = true
	}
	return s.commit(ctx, next, []string{id})
}

// PatchSkill applies the fields present in patch to one skill of a resume.
func (s *ResumeStore) PatchSkill(ctx context.Context, resumeID, skillName string, patch types.SkillPatch) (types.Skill, error) {
	if err := validatePatch(patch); err != nil {
		return types.Skill{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(resumeID)
	if i < 0 {
		return types.Skill{}, fmt.Errorf("%w: %s", ErrResumeNotFound, resumeID)
	}
	return s.patchSkillAt(ctx, i, skillName, patch)
}

// PatchActiveSkill patches a skill on the active resume.
func (s *ResumeStore) PatchActiveSkill(ctx context.Context, skillName string, patch types.SkillPatch) (types.Skill, error) {
	if err := validatePatch(patch); err != nil {
		return types.Skill{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.activeIndex()
	if i < 0 {
		return types.Skill{}, ErrNoActiveResume
	}
	return s.patchSkillAt(ctx, i, skillName, patch)
}

func (s *ResumeStore) patchSkillAt(ctx context.Context, i int, skillName string, patch types.SkillPatch) (types.Skill, error) {
	k := findSkill(s.resumes[i].Skills, skillName)
	if k < 0 {
		return types.Skill{}, fmt.Errorf("%w: %s", ErrSkillNotFound, skillName)
	}

	next := s.snapshot()
	sk := &next[i].Skills[k]
	if patch.UserRating.Set {
		sk.UserRating = patch.UserRating.Value
	}
	if patch.Note != nil {
		sk.Note = *patch.Note
	}
	if err := s.commit(ctx, next, nil); err != nil {
		return types.Skill{}, err
	}
	return sk.Clone(), nil
}

// Refine replaces the skills of a resume with a refined list, keeping user
// ratings and notes of skills that survive. A resume can be refined once.
func (s *ResumeStore) Refine(ctx context.Context, id string, refined []types.Skill) (types.Resume, error) {
	skills, err := normalizeSkills(refined)
	if err != nil {
		return types.Resume{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return types.Resume{}, fmt.Errorf("%w: %s", ErrResumeNotFound, id)
	}
	if s.resumes[i].Refined {
		return types.Resume{}, ErrAlreadyRefined
	}

	next := s.snapshot()
	r := &next[i]
	r.Skills = mergeRatings(skills, r.Skills)
	r.Refined = true
	if err := s.commit(ctx, next, nil); err != nil {
		return types.Resume{}, err
	}
	return r.Clone(), nil
}

// Active returns the active resume.
func (s *ResumeStore) Active() (types.Resume, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.activeIndex()
	if i < 0 {
		return types.Resume{}, false
	}
	return s.resumes[i].Clone(), true
}

// Get returns the resume with the given id.
func (s *ResumeStore) Get(id string) (types.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return types.Resume{}, fmt.Errorf("%w: %s", ErrResumeNotFound, id)
	}
	return s.resumes[i].Clone(), nil
}

// List returns copies of all resumes in creation order.
func (s *ResumeStore) List() []types.Resume {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// FindByHash returns the resume created from a document with the given fingerprint.
func (s *ResumeStore) FindByHash(hash string) (types.Resume, bool) {
	if hash == "" {
		return types.Resume{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.resumes {
		if r.Hash == hash {
			return r.Clone(), true
		}
	}
	return types.Resume{}, false
}

func (s *ResumeStore) indexOf(id string) int {
	for i, r := range s.resumes {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *ResumeStore) activeIndex() int {
	for i, r := range s.resumes {
		if r.IsActive {
			return i
		}
	}
	return -1
}

func (s *ResumeStore) snapshot() []types.Resume {
	out := make([]types.Resume, len(s.resumes))
	for i, r := range s.resumes {
		out[i] = r.Clone()
	}
	return out
}

// commit persists the difference between the current and next state, then
// swaps next in. Callers hold s.mu.
func (s *ResumeStore) commit(ctx context.Context, next []types.Resume, deleted []string) error {
	if s.persister != nil {
		changed := diffResumes(s.resumes, next)
		if err := s.persister.SyncResumes(ctx, changed, deleted); err != nil {
			return fmt.Errorf("failed to persist resumes: %w", err)
		}
	}
	s.resumes = next
	return nil
}

// diffResumes returns the resumes in next that are new or differ from prev.
func diffResumes(prev, next []types.Resume) []types.Resume {
	old := make(map[string]types.Resume, len(prev))
	for _, r := range prev {
		old[r.ID] = r
	}
	var changed []types.Resume
	for _, r := range next {
		if o, ok := old[r.ID]; ok && resumeEqual(o, r) {
			continue
		}
		changed = append(changed, r.Clone())
	}
	return changed
}

func resumeEqual(a, b types.Resume) bool {
	if a.Name != b.Name || a.IsActive != b.IsActive || a.Refined != b.Refined ||
		a.Summary != b.Summary || a.CurrentRole != b.CurrentRole ||
		a.YearsExperience != b.YearsExperience || len(a.Skills) != len(b.Skills) {
		return false
	}
	for i := range a.Skills {
		if !skillEqual(a.Skills[i], b.Skills[i]) {
			return false
		}
	}
	return true
}

func skillEqual(a, b types.Skill) bool {
	return a.Name == b.Name && a.Years == b.Years && a.Recency == b.Recency &&
		a.AIConfidence == b.AIConfidence && a.Note == b.Note &&
		intPtrEqual(a.UserRating, b.UserRating) && intPtrEqual(a.LastUsedYear, b.LastUsedYear)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func validatePatch(p types.SkillPatch) error {
	if p.UserRating.Set && p.UserRating.Value != nil {
		if v := *p.UserRating.Value; v < MinRating || v > MaxRating {
			return fmt.Errorf("%w: rating must be between %d and %d", ErrValidation, MinRating, MaxRating)
		}
	}
	return nil
}

// normalizeSkills drops unnamed skills, removes case-insensitive duplicates
// (first occurrence wins) and fills in defaults.
func normalizeSkills(in []types.Skill) ([]types.Skill, error) {
	out := make([]types.Skill, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, sk := range in {
		sk = sk.Clone()
		sk.Name = strings.TrimSpace(sk.Name)
		key := strings.ToLower(sk.Name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		if sk.AIConfidence == 0 {
			sk.AIConfidence = types.DefaultAIConfidence
		}
		if sk.AIConfidence < MinRating || sk.AIConfidence > MaxRating {
			return nil, fmt.Errorf("%w: ai_confidence for %s must be between %d and %d", ErrValidation, sk.Name, MinRating, MaxRating)
		}
		if sk.UserRating != nil && (*sk.UserRating < MinRating || *sk.UserRating > MaxRating) {
			return nil, fmt.Errorf("%w: user_rating for %s must be between %d and %d", ErrValidation, sk.Name, MinRating, MaxRating)
		}
		out = append(out, sk)
	}
	return out, nil
}

// mergeRatings carries user ratings and notes over to refined skills with the same name.
func mergeRatings(refined, previous []types.Skill) []types.Skill {
	for i := range refined {
		k := findSkill(previous, refined[i].Name)
		if k < 0 {
			continue
		}
		if refined[i].UserRating == nil && previous[k].UserRating != nil {
			v := *previous[k].UserRating
			refined[i].UserRating = &v
		}
		if refined[i].Note == "" {
			refined[i].Note = previous[k].Note
		}
	}
	return refined
}

func findSkill(skills []types.Skill, name string) int {
	name = strings.TrimSpace(name)
	for i, sk := range skills {
		if strings.EqualFold(sk.Name, name) {
			return i
		}
	}
	return -1
}
