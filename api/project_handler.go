package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/theneural/backend/database"
	"github.com/theneural/backend/errs"
	"github.com/theneural/backend/services"
)

type projectHandler struct {
	responder Responder
	logger    zerolog.Logger
	projects  *services.ProjectService
	maxUpload int64
}

func newProjectHandler(projects *services.ProjectService, maxUpload int64) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder: NewResponder(logger),
		logger:    logger,
		projects:  projects,
		maxUpload: maxUpload,
	}
}

func (h projectHandler) projectID(r *http.Request) (uuid.UUID, error) {
	idStr := chi.URLParam(r, "projectID")
	if idStr == "" {
		return uuid.Nil, errs.NewBadRequestError("missing projectID")
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, errs.NewBadRequestError("invalid projectID")
	}
	return id, nil
}

// listProjects returns one page of projects, optionally filtered and
// searched, newest first.
func (h projectHandler) listProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		filter := database.ProjectFilter{
			Status:    query.Get("status"),
			Type:      query.Get("type"),
			CreatedBy: query.Get("createdBy"),
			Search:    query.Get("search"),
		}
		if limit, err := strconv.Atoi(query.Get("limit")); err == nil {
			filter.Limit = limit
		}
		if offset, err := strconv.Atoi(query.Get("offset")); err == nil {
			filter.Offset = offset
		}

		projects, total, err := h.projects.List(r.Context(), filter)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if filter.Limit <= 0 || filter.Limit > 100 {
			filter.Limit = 50
		}
		h.responder.WriteList(w, projects, Pagination{
			Limit:  filter.Limit,
			Offset: filter.Offset,
			Total:  total,
		})
	}
}

func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.projectID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projects.Get(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteData(w, http.StatusOK, project)
	}
}

func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Error().Err(err).Msg("failed to decode create project request")
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		in := req.toInput()
		// guest requests default to being owned by their session
		if in.CreatedBy == "" {
			if sessionID, err := ctxGetSessionID(r.Context()); err == nil {
				in.CreatedBy = sessionID
			}
		}

		project, err := h.projects.Create(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteData(w, http.StatusCreated, project)
	}
}

func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.projectID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req updateProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Error().Err(err).Msg("failed to decode update project request")
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		project, err := h.projects.Update(r.Context(), id, req.toInput())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteData(w, http.StatusOK, project)
	}
}

func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.projectID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.projects.Delete(r.Context(), id); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteMessage(w, "project deleted successfully")
	}
}

func (h projectHandler) bulkDeleteProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkDeleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}
		if len(req.IDs) == 0 {
			h.responder.WriteError(w, errs.NewBadRequestError("ids must not be empty"))
			return
		}

		ids := make([]uuid.UUID, 0, len(req.IDs))
		for _, idStr := range req.IDs {
			id, err := uuid.Parse(idStr)
			if err != nil {
				h.responder.WriteError(w, errs.NewBadRequestError("invalid project id: "+idStr))
				return
			}
			ids = append(ids, id)
		}

		deleted := h.projects.BulkDelete(r.Context(), ids)
		h.responder.WriteData(w, http.StatusOK, map[string]int{"deleted": deleted})
	}
}

func (h projectHandler) getProjectStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.projectID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projects.Get(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteData(w, http.StatusOK, projectStatusResponse{
			ID:        project.ID.String(),
			Status:    project.Status,
			Dataset:   project.Dataset,
			Datasets:  project.Datasets,
			Model:     project.Model,
			UpdatedAt: project.UpdatedAt,
		})
	}
}

// uploadDataset accepts a multipart form with a "file" part plus optional
// "records" and "description" fields.
func (h projectHandler) uploadDataset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.projectID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		// a little slack over the payload cap for the multipart framing
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			h.responder.WriteError(w, errs.NewPayloadTooLarge(h.maxUpload))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("no file provided"))
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			h.responder.WriteError(w, errs.NewPayloadTooLarge(h.maxUpload))
			return
		}

		upload := services.DatasetUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     content,
			Description: r.FormValue("description"),
		}
		if recordsStr := r.FormValue("records"); recordsStr != "" {
			records, err := strconv.Atoi(recordsStr)
			if err != nil || records < 0 {
				h.responder.WriteError(w, errs.NewBadRequestError("records must be a non-negative integer"))
				return
			}
			upload.Records = &records
		}

		result, err := h.projects.UploadDataset(r.Context(), id, upload)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteData(w, http.StatusOK, result)
	}
}

func (h projectHandler) startTraining() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.projectID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req trainingConfigRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
				return
			}
		}

		result, err := h.projects.StartTraining(r.Context(), id, req.toModel())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteData(w, http.StatusOK, result)
	}
}

func (h projectHandler) resetProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.projectID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projects.Reset(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteData(w, http.StatusOK, project)
	}
}

func (h projectHandler) beginEvaluation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.projectID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projects.BeginEvaluation(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteData(w, http.StatusOK, project)
	}
}

func (h projectHandler) predict() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.projectID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		prediction, err := h.projects.Predict(r.Context(), id, req.Text)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteData(w, http.StatusOK, prediction)
	}
}
