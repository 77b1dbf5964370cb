package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jonathan/hiretree/internal/types"
)

// SkillEditor edits the ratings and notes of one resume's skills.
type SkillEditor struct {
	remote   SkillRemote
	resumeID string
	logger   *slog.Logger

	mu     sync.Mutex
	skills []types.Skill
	track  map[string]*skillTrack
	next   uint64
	closed bool
}

// skillTrack follows the in-flight patches of one skill.
type skillTrack struct {
	confirmed types.Skill // last value the server is known to hold
	ratingSeq uint64      // newest patch that set the rating
	noteSeq   uint64      // newest patch that set the note
	inflight  int
}

// NewSkillEditor creates an editor over a copy of resume's skills.
func NewSkillEditor(remote SkillRemote, resume types.Resume, logger *slog.Logger) *SkillEditor {
	if logger == nil {
		logger = slog.Default()
	}
	r := resume.Clone()
	e := &SkillEditor{
		remote:   remote,
		resumeID: r.ID,
		logger:   logger.With("component", "skill_editor", "resume_id", r.ID),
		skills:   r.Skills,
		track:    make(map[string]*skillTrack, len(r.Skills)),
	}
	for _, sk := range r.Skills {
		e.track[skillKey(sk.Name)] = &skillTrack{confirmed: sk.Clone()}
	}
	return e
}

// Skills returns a copy of the local skill list.
func (e *SkillEditor) Skills() []types.Skill {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]types.Skill, len(e.skills))
	for i, s := range e.skills {
		out[i] = s.Clone()
	}
	return out
}

// Skill returns one skill by case-insensitive name.
func (e *SkillEditor) Skill(name string) (types.Skill, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(name)
	if i < 0 {
		return types.Skill{}, fmt.Errorf("%w: %s", ErrSkillNotFound, name)
	}
	return e.skills[i].Clone(), nil
}

// Rate sets the user rating of a skill. Rating a skill with its current
// rating clears it so the skill falls back to its AI confidence.
func (e *SkillEditor) Rate(ctx context.Context, name string, stars int) error {
	if stars < 1 || stars > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}

	e.mu.Lock()
	i := e.indexOf(name)
	if i < 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSkillNotFound, name)
	}
	patch := types.SkillPatch{UserRating: types.Int(stars)}
	if cur := e.skills[i].UserRating; cur != nil && *cur == stars {
		patch.UserRating = types.Null()
	}
	e.mu.Unlock()

	return e.apply(ctx, name, patch)
}

// SetNote replaces the note of a skill. An unchanged note sends nothing.
func (e *SkillEditor) SetNote(ctx context.Context, name, note string) error {
	e.mu.Lock()
	i := e.indexOf(name)
	if i < 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSkillNotFound, name)
	}
	if e.skills[i].Note == note {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	return e.apply(ctx, name, types.SkillPatch{Note: &note})
}

// Close detaches the editor. Responses settling afterwards are discarded.
func (e *SkillEditor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}

// apply patches one skill optimistically. When a patch settles, every field
// it was the newest writer of takes the server's answer, or on failure the
// last value the server confirmed. Once nothing is in flight for the skill
// the local copy equals the confirmed one.
func (e *SkillEditor) apply(ctx context.Context, name string, patch types.SkillPatch) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	i := e.indexOf(name)
	if i < 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSkillNotFound, name)
	}
	skillName := e.skills[i].Name
	tr := e.trackFor(e.skills[i])
	applyPatch(&e.skills[i], patch)
	e.next++
	seq := e.next
	if patch.UserRating.Set {
		tr.ratingSeq = seq
	}
	if patch.Note != nil {
		tr.noteSeq = seq
	}
	tr.inflight++
	e.mu.Unlock()

	saved, err := e.remote.PatchResumeSkill(ctx, e.resumeID, skillName, patch)

	e.mu.Lock()
	defer e.mu.Unlock()
	tr.inflight--
	if err == nil {
		tr.confirmed = saved.Clone()
	}
	if e.closed {
		return err
	}
	i = e.indexOf(name)
	if i < 0 {
		return err
	}

	sk := &e.skills[i]
	if tr.inflight == 0 {
		*sk = tr.confirmed.Clone()
	} else {
		if tr.ratingSeq == seq {
			sk.UserRating = cloneInt(tr.confirmed.UserRating)
		}
		if tr.noteSeq == seq {
			sk.Note = tr.confirmed.Note
		}
	}
	if err != nil {
		e.logger.Warn("skill patch failed, reverting", "skill", skillName, "error", err)
	}
	return err
}

func (e *SkillEditor) trackFor(sk types.Skill) *skillTrack {
	key := skillKey(sk.Name)
	tr, ok := e.track[key]
	if !ok {
		tr = &skillTrack{confirmed: sk.Clone()}
		e.track[key] = tr
	}
	return tr
}

func (e *SkillEditor) indexOf(name string) int {
	key := skillKey(name)
	for i, s := range e.skills {
		if skillKey(s.Name) == key {
			return i
		}
	}
	return -1
}

func applyPatch(s *types.Skill, p types.SkillPatch) {
	if p.UserRating.Set {
		s.UserRating = cloneInt(p.UserRating.Value)
	}
	if p.Note != nil {
		s.Note = *p.Note
	}
}

func skillKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
