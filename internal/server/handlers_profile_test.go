package server

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jonathan/hiretree/internal/ingestion"
	"github.com/jonathan/hiretree/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDocuments struct {
	mu      sync.Mutex
	profile types.ParsedProfile
	err     error
	calls   int
}

func (d *stubDocuments) ParseDocument(context.Context, string, []byte) (types.ParsedProfile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return d.profile, d.err
}

func withDocuments(p ingestion.DocumentParser) func(*Deps) {
	return func(d *Deps) { d.Documents = p }
}

func (e *testEnv) upload(t *testing.T, path, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

var sampleEntries = []types.WorkEntry{
	{Company: "Acme", Role: "Backend Engineer", Period: "2022 - present", Technologies: "Go, PostgreSQL"},
	{Company: "Initech", Role: "Developer", Period: "2018 - 2022", Technologies: "Python; Go"},
}

func TestGetProfile_NoneActive(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/cv", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"detail":"No profile found"`)
}

func TestUploadCV(t *testing.T) {
	docs := &stubDocuments{profile: types.ParsedProfile{
		Skills:          []types.Skill{{Name: "Go", Years: 4, AIConfidence: 5, Recency: types.RecencyCurrent}},
		CurrentRole:     "Backend Engineer",
		YearsExperience: 6,
		Summary:         "Backend engineer",
	}}
	env := newTestEnv(t, withDocuments(docs))

	w := env.upload(t, "/api/cv", "jane_doe.pdf", []byte("%PDF-1.7 jane"), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[types.Profile](t, w)
	assert.False(t, p.Cached)
	assert.Equal(t, "jane_doe", p.Name)
	assert.Equal(t, types.SourceDocument, p.Source)
	assert.True(t, p.IsActive)
	assert.Equal(t, "Backend Engineer", p.CurrentRole)
	require.Len(t, p.Skills, 1)
	assert.Equal(t, ingestion.Fingerprint([]byte("%PDF-1.7 jane")), p.Hash)

	got := decode[types.Profile](t, env.do(t, http.MethodGet, "/api/cv", nil))
	assert.Equal(t, p.ID, got.ID)

	t.Run("same document is served from cache", func(t *testing.T) {
		w := env.upload(t, "/api/cv", "renamed.PDF", []byte("%PDF-1.7 jane"), nil)
		require.Equal(t, http.StatusCreated, w.Code)
		cached := decode[types.Profile](t, w)
		assert.True(t, cached.Cached)
		assert.Equal(t, p.ID, cached.ID)
		assert.Equal(t, 1, docs.calls)
		assert.Len(t, env.resumes.List(), 1)
	})
}

func TestUploadCV_Rejects(t *testing.T) {
	env := newTestEnv(t)

	w := env.upload(t, "/api/cv", "notes.txt", []byte("hello"), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Only PDF and DOCX files are supported")

	w = env.upload(t, "/api/cv", "", nil, map[string]string{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/cv", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, env.resumes.List())
}

func TestUploadCV_ParserFailureStoresEmptyProfile(t *testing.T) {
	env := newTestEnv(t, withDocuments(&stubDocuments{err: errors.New("parser down")}))

	w := env.upload(t, "/api/cv", "cv.docx", []byte("PK docx"), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	p := decode[types.Profile](t, w)
	assert.Empty(t, p.Skills)
	assert.NotNil(t, p.Skills)
	assert.True(t, p.IsActive)
	assert.Contains(t, env.logs.String(), "document parsing failed")
}

func TestManualProfile(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/profile/manual", types.WorkHistoryRequest{Entries: sampleEntries})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[types.Profile](t, w)
	assert.Equal(t, types.SourceManual, p.Source)
	assert.True(t, p.IsActive)
	assert.Equal(t, "Backend Engineer", p.CurrentRole)

	names := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"Go", "PostgreSQL", "Python"}, names)

	w = env.do(t, http.MethodPost, "/api/profile/manual", types.WorkHistoryRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No work history entries provided")
}

func TestRefineProfile(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/profile/refine", types.WorkHistoryRequest{Entries: sampleEntries})
	assert.Equal(t, http.StatusNotFound, w.Code)

	rating := 2
	r := env.createResume(t, "Uploaded", types.Skill{Name: "Go", AIConfidence: 4, UserRating: &rating, Note: "mostly services"})

	w = env.do(t, http.MethodPost, "/api/profile/refine", types.WorkHistoryRequest{Entries: sampleEntries})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p := decode[types.Profile](t, w)
	assert.Equal(t, r.ID, p.ID)
	assert.True(t, p.Refined)

	var goSkill *types.Skill
	for i := range p.Skills {
		if p.Skills[i].Name == "Go" {
			goSkill = &p.Skills[i]
		}
	}
	require.NotNil(t, goSkill)
	require.NotNil(t, goSkill.UserRating)
	assert.Equal(t, 2, *goSkill.UserRating)
	assert.Equal(t, "mostly services", goSkill.Note)
	assert.Equal(t, types.RecencyCurrent, goSkill.Recency)

	w = env.do(t, http.MethodPost, "/api/profile/refine", types.WorkHistoryRequest{Entries: sampleEntries})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already refined")
}

func TestPatchProfileSkill(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPatch, "/api/cv/skills/Go", map[string]any{"user_rating": 4})
	assert.Equal(t, http.StatusNotFound, w.Code, "no active resume")

	env.createResume(t, "Main", types.Skill{Name: "Go", AIConfidence: 3}, types.Skill{Name: "Rust", AIConfidence: 2})

	w = env.do(t, http.MethodPatch, "/api/cv/skills/Go", map[string]any{"user_rating": 5, "note": "daily"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sk := decode[types.Skill](t, w)
	require.NotNil(t, sk.UserRating)
	assert.Equal(t, 5, *sk.UserRating)
	assert.Equal(t, "daily", sk.Note)

	w = env.do(t, http.MethodPatch, "/api/cv/skills/Go", map[string]any{"user_rating": nil})
	require.Equal(t, http.StatusOK, w.Code)
	sk = decode[types.Skill](t, w)
	assert.Nil(t, sk.UserRating)
	assert.Equal(t, "daily", sk.Note, "absent fields are untouched")

	active, _ := env.resumes.Active()
	assert.Equal(t, 2, active.Skills[1].AIConfidence, "other skills untouched")
	assert.Nil(t, active.Skills[1].UserRating)

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"rating too high", "/api/cv/skills/Go", map[string]any{"user_rating": 6}, http.StatusBadRequest},
		{"rating too low", "/api/cv/skills/Go", map[string]any{"user_rating": 0}, http.StatusBadRequest},
		{"empty patch", "/api/cv/skills/Go", map[string]any{}, http.StatusBadRequest},
		{"unknown skill", "/api/cv/skills/Haskell", map[string]any{"note": "x"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, env.do(t, http.MethodPatch, tt.path, tt.body).Code)
		})
	}
}

func TestRatingChangeRescoresJobs(t *testing.T) {
	env := newTestEnv(t, withJobParser(stubJobParser{details: types.JobDetails{Stack: []string{"Go"}}}))
	env.createResume(t, "Main", types.Skill{Name: "Go", AIConfidence: 5, Recency: types.RecencyCurrent})
	env.do(t, http.MethodPost, "/api/clip", types.ClipRequest{URL: "https://acme.example/jobs/1"})

	job, _ := env.jobs.Get(1)
	require.NotNil(t, job.MatchScore)
	assert.Equal(t, 100, *job.MatchScore)

	env.do(t, http.MethodPatch, "/api/cv/skills/Go", map[string]any{"user_rating": 1})
	job, _ = env.jobs.Get(1)
	require.NotNil(t, job.MatchScore)
	assert.Equal(t, 20, *job.MatchScore)
}
