package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/jonathan/hiretree/internal/ingestion"
	"github.com/jonathan/hiretree/internal/store"
	"github.com/jonathan/hiretree/internal/types"
)

// manualResumeName names profiles built from typed-in work history.
const manualResumeName = "Work history"

func (s *Server) handleGetProfile(w http.ResponseWriter, _ *http.Request) {
	active, ok := s.resumes.Active()
	if !ok {
		errorResponse(w, http.StatusNotFound, "No profile found")
		return
	}
	jsonResponse(w, http.StatusOK, types.Profile{Resume: active})
}

// handleUploadCV parses an uploaded resume document into a new active
// resume. Re-uploading a known document reactivates the resume built from it.
func (s *Server) handleUploadCV(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r, true)
	if !ok {
		return
	}

	if cached, found := s.resumes.FindByHash(up.hash); found {
		if !cached.IsActive {
			var err error
			if cached, err = s.resumes.SetActive(r.Context(), cached.ID); err != nil {
				s.writeError(w, r, err)
				return
			}
			s.rescoreAll(r.Context())
		}
		jsonResponse(w, http.StatusCreated, types.Profile{Resume: cached, Cached: true})
		return
	}

	resume, err := s.resumes.Create(r.Context(), s.documentResume(r, up, up.name, true))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.rescoreAll(r.Context())
	jsonResponse(w, http.StatusCreated, types.Profile{Resume: resume})
}

// handleManualProfile builds a new active resume from work-history entries.
func (s *Server) handleManualProfile(w http.ResponseWriter, r *http.Request) {
	var req types.WorkHistoryRequest
	if !s.decodeWorkHistory(w, r, &req) {
		return
	}

	p := ingestion.ProfileFromEntries(req.Entries, s.now())
	resume, err := s.resumes.Create(r.Context(), store.NewResume{
		Name:            manualResumeName,
		Source:          types.SourceManual,
		Skills:          p.Skills,
		Summary:         p.Summary,
		CurrentRole:     p.CurrentRole,
		YearsExperience: p.YearsExperience,
		Activate:        true,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.rescoreAll(r.Context())
	jsonResponse(w, http.StatusCreated, types.Profile{Resume: resume})
}

// handleRefineProfile merges work-history details into the active resume.
func (s *Server) handleRefineProfile(w http.ResponseWriter, r *http.Request) {
	var req types.WorkHistoryRequest
	if !s.decodeWorkHistory(w, r, &req) {
		return
	}

	active, ok := s.resumes.Active()
	if !ok {
		errorResponse(w, http.StatusNotFound, "No profile found")
		return
	}
	if active.Refined {
		errorResponse(w, http.StatusBadRequest, "Profile already refined")
		return
	}

	refined := ingestion.RefineSkills(active.Skills, req.Entries, s.now())
	resume, err := s.resumes.Refine(r.Context(), active.ID, refined)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.rescoreAll(r.Context())
	jsonResponse(w, http.StatusOK, types.Profile{Resume: resume})
}

func (s *Server) handlePatchProfileSkill(w http.ResponseWriter, r *http.Request) {
	patch, ok := s.decodeSkillPatch(w, r)
	if !ok {
		return
	}
	skill, err := s.resumes.PatchActiveSkill(r.Context(), r.PathValue("name"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if patch.UserRating.Set {
		s.rescoreAll(r.Context())
	}
	jsonResponse(w, http.StatusOK, skill)
}

func (s *Server) decodeWorkHistory(w http.ResponseWriter, r *http.Request, req *types.WorkHistoryRequest) bool {
	if err := decodeJSON(w, r, req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return false
	}
	if err := s.validate.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, "No work history entries provided")
		return false
	}
	return true
}

func (s *Server) decodeSkillPatch(w http.ResponseWriter, r *http.Request) (types.SkillPatch, bool) {
	var patch types.SkillPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return patch, false
	}
	if patch.Empty() {
		errorResponse(w, http.StatusBadRequest, "No fields to update")
		return patch, false
	}
	return patch, true
}

type upload struct {
	filename string
	name     string // display name from the form, else the file's base name
	content  []byte
	hash     string
	activate bool
}

// readUpload reads the multipart "file" field. When required is false a form
// without a file yields ok with empty content.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, required bool) (upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return upload{}, false
	}

	up := upload{
		name:     strings.TrimSpace(r.FormValue("name")),
		activate: r.FormValue("is_active") == "true",
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) && !required {
		return up, true
	}
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "file is required")
		return upload{}, false
	}
	defer file.Close()

	if err := ingestion.ValidateDocumentName(header.Filename); err != nil {
		errorResponse(w, http.StatusUnprocessableEntity, "Only PDF and DOCX files are supported")
		return upload{}, false
	}
	if up.content, err = io.ReadAll(file); err != nil {
		errorResponse(w, http.StatusBadRequest, fmt.Sprintf("failed to read upload: %v", err))
		return upload{}, false
	}

	up.filename = header.Filename
	up.hash = ingestion.Fingerprint(up.content)
	if up.name == "" {
		base := filepath.Base(header.Filename)
		up.name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return up, true
}

// documentResume parses an uploaded document. A parser failure still creates
// the resume, with an empty profile the user can fill in.
func (s *Server) documentResume(r *http.Request, up upload, name string, activate bool) store.NewResume {
	parsed, err := s.documents.ParseDocument(r.Context(), up.filename, up.content)
	if err != nil {
		s.logger.WarnContext(r.Context(), "document parsing failed, storing empty profile",
			"filename", up.filename, "error", err)
		parsed = types.ParsedProfile{}
	}
	return store.NewResume{
		Name:            name,
		Source:          types.SourceDocument,
		Skills:          parsed.Skills,
		Summary:         parsed.Summary,
		CurrentRole:     parsed.CurrentRole,
		YearsExperience: parsed.YearsExperience,
		Hash:            up.hash,
		Activate:        activate,
	}
}
