package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jonathan/hiretree/internal/ingestion"
	"github.com/jonathan/hiretree/internal/store"
	"github.com/jonathan/hiretree/internal/types"
)

func (s *Server) handleListResumes(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, s.resumes.List())
}

// handleCreateResume accepts either a JSON body (skills and/or work-history
// entries) or a multipart upload with fields name, is_active and file.
func (s *Server) handleCreateResume(w http.ResponseWriter, r *http.Request) {
	var in store.NewResume
	if isMultipart(r) {
		up, ok := s.readUpload(w, r, false)
		if !ok {
			return
		}
		if up.content == nil {
			in = store.NewResume{Name: up.name, Source: types.SourceManual, Activate: up.activate}
		} else {
			in = s.documentResume(r, up, up.name, up.activate)
		}
	} else {
		var req types.CreateResumeRequest
		if err := decodeJSON(w, r, &req); err != nil {
			errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		in = store.NewResume{Name: req.Name, Source: types.SourceManual, Skills: req.Skills, Activate: req.IsActive}
		if len(req.Entries) > 0 {
			p := ingestion.ProfileFromEntries(req.Entries, s.now())
			in.Skills = append(in.Skills, p.Skills...)
			in.Summary = p.Summary
			in.CurrentRole = p.CurrentRole
			in.YearsExperience = p.YearsExperience
		}
	}

	if strings.TrimSpace(in.Name) == "" {
		errorResponse(w, http.StatusBadRequest, "Resume name is required")
		return
	}
	resume, err := s.resumes.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if resume.IsActive {
		s.rescoreAll(r.Context())
	}
	jsonResponse(w, http.StatusCreated, resume)
}

// handleUpdateResume renames and/or activates a resume. Deactivation is
// implicit: activate another resume instead.
func (s *Server) handleUpdateResume(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var patch types.ResumePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if patch.Name == nil && patch.IsActive == nil {
		errorResponse(w, http.StatusBadRequest, "No fields to update")
		return
	}
	if patch.IsActive != nil && !*patch.IsActive {
		errorResponse(w, http.StatusBadRequest, "Activate another resume instead of deactivating this one")
		return
	}

	before, err := s.resumes.Get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resume, err := s.resumes.Update(r.Context(), id, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !before.IsActive && resume.IsActive {
		s.rescoreAll(r.Context())
	}
	jsonResponse(w, http.StatusOK, resume)
}

func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	resume, err := s.resumes.Get(id)
	if err == nil {
		err = s.resumes.Delete(r.Context(), id)
	}
	if errors.Is(err, store.ErrResumeNotFound) {
		errorResponse(w, http.StatusNotFound, "Resume not found")
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if resume.IsActive {
		s.rescoreAll(r.Context())
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePatchResumeSkill(w http.ResponseWriter, r *http.Request) {
	patch, ok := s.decodeSkillPatch(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	skill, err := s.resumes.PatchSkill(r.Context(), id, r.PathValue("name"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if active, ok := s.resumes.Active(); ok && active.ID == id && patch.UserRating.Set {
		s.rescoreAll(r.Context())
	}
	jsonResponse(w, http.StatusOK, skill)
}
