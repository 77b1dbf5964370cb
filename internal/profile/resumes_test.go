package profile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jonathan/hiretree/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResumeRemote struct {
	mu      sync.Mutex
	resumes []types.Resume
	updates int
	deletes int
	lists   int
	failOps bool
	failGet bool
}

func (f *fakeResumeRemote) ListResumes(context.Context) ([]types.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.failGet {
		return nil, errors.New("offline")
	}
	return cloneResumes(f.resumes), nil
}

func (f *fakeResumeRemote) UpdateResume(_ context.Context, id string, patch types.ResumePatch) (types.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.failOps {
		return types.Resume{}, errPatch
	}
	for i := range f.resumes {
		if f.resumes[i].ID != id {
			continue
		}
		if patch.Name != nil {
			f.resumes[i].Name = *patch.Name
		}
		if patch.IsActive != nil && *patch.IsActive {
			for k := range f.resumes {
				f.resumes[k].IsActive = k == i
			}
		}
		return f.resumes[i].Clone(), nil
	}
	return types.Resume{}, errors.New("Resume not found")
}

func (f *fakeResumeRemote) DeleteResume(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.failOps {
		return errPatch
	}
	for i := range f.resumes {
		if f.resumes[i].ID == id {
			f.resumes = append(f.resumes[:i], f.resumes[i+1:]...)
			return nil
		}
	}
	return errors.New("Resume not found")
}

func threeResumes() []types.Resume {
	return []types.Resume{
		{ID: "a", Name: "Backend", IsActive: true},
		{ID: "b", Name: "Platform"},
		{ID: "c", Name: "Data"},
	}
}

func loadedList(t *testing.T, remote *fakeResumeRemote) *ResumeList {
	t.Helper()
	l := NewResumeList(remote, nil)
	require.NoError(t, l.Load(context.Background()))
	remote.lists = 0
	return l
}

func activeIDs(rs []types.Resume) []string {
	var ids []string
	for _, r := range rs {
		if r.IsActive {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func TestResumeList_SetActive(t *testing.T) {
	remote := &fakeResumeRemote{resumes: threeResumes()}
	l := loadedList(t, remote)

	require.NoError(t, l.SetActive(context.Background(), "c"))
	assert.Equal(t, []string{"c"}, activeIDs(l.Resumes()))
	assert.Equal(t, 1, remote.updates)
	assert.Equal(t, 0, remote.lists)
}

func TestResumeList_FailureRefetches(t *testing.T) {
	remote := &fakeResumeRemote{resumes: threeResumes(), failOps: true}
	l := loadedList(t, remote)

	err := l.SetActive(context.Background(), "b")
	assert.ErrorIs(t, err, errPatch)
	assert.Equal(t, 1, remote.lists)
	assert.Equal(t, []string{"a"}, activeIDs(l.Resumes()))

	err = l.Delete(context.Background(), "a")
	assert.ErrorIs(t, err, errPatch)
	assert.Len(t, l.Resumes(), 3)
	assert.False(t, l.Stale())
}

func TestResumeList_RefetchFailureMarksStale(t *testing.T) {
	remote := &fakeResumeRemote{resumes: threeResumes()}
	l := loadedList(t, remote)
	remote.failOps = true
	remote.failGet = true

	require.Error(t, l.Rename(context.Background(), "b", "Infra"))
	assert.True(t, l.Stale())
	assert.Equal(t, "Infra", l.Resumes()[1].Name)
}

func TestResumeList_RenameValidation(t *testing.T) {
	remote := &fakeResumeRemote{resumes: threeResumes()}
	l := loadedList(t, remote)
	ctx := context.Background()

	assert.ErrorIs(t, l.Rename(ctx, "a", "   "), ErrValidation)
	assert.ErrorIs(t, l.Rename(ctx, "a", " Backend "), ErrValidation)
	assert.Equal(t, 0, remote.updates)

	require.NoError(t, l.Rename(ctx, "a", "  Go Backend  "))
	assert.Equal(t, "Go Backend", l.Resumes()[0].Name)
	assert.Equal(t, "Go Backend", remote.resumes[0].Name)

	assert.ErrorIs(t, l.Rename(ctx, "zzz", "x"), ErrResumeNotFound)
}

func TestResumeList_DeleteActivePromotesFirst(t *testing.T) {
	remote := &fakeResumeRemote{resumes: threeResumes()}
	l := loadedList(t, remote)

	require.NoError(t, l.Delete(context.Background(), "a"))
	rs := l.Resumes()
	require.Len(t, rs, 2)
	assert.Equal(t, []string{"b"}, activeIDs(rs))

	active, ok := l.Active()
	require.True(t, ok)
	assert.Equal(t, "b", active.ID)
}

func TestResumeList_Add(t *testing.T) {
	remote := &fakeResumeRemote{resumes: threeResumes()}
	l := loadedList(t, remote)

	l.Add(types.Resume{ID: "d", Name: "New"})
	assert.Equal(t, []string{"a"}, activeIDs(l.Resumes()))

	l.Add(types.Resume{ID: "e", Name: "Uploaded", IsActive: true})
	assert.Equal(t, []string{"e"}, activeIDs(l.Resumes()))
	assert.Len(t, l.Resumes(), 5)
}

func TestResumeList_ActiveRequiresFlag(t *testing.T) {
	remote := &fakeResumeRemote{resumes: []types.Resume{{ID: "x"}, {ID: "y"}}}
	l := loadedList(t, remote)

	_, ok := l.Active()
	assert.False(t, ok, "no resume is flagged active")

	remote = &fakeResumeRemote{resumes: []types.Resume{{ID: "x"}, {ID: "y", IsActive: true}}}
	l = loadedList(t, remote)
	active, ok := l.Active()
	require.True(t, ok)
	assert.Equal(t, "y", active.ID)

	empty := NewResumeList(&fakeResumeRemote{}, nil)
	_, ok = empty.Active()
	assert.False(t, ok)
}

func TestResumeList_Close(t *testing.T) {
	remote := &fakeResumeRemote{resumes: threeResumes()}
	l := loadedList(t, remote)
	l.Close()

	assert.ErrorIs(t, l.SetActive(context.Background(), "b"), ErrClosed)
	assert.ErrorIs(t, l.Load(context.Background()), ErrClosed)
}
