package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/theneural/backend/errs"
	"github.com/theneural/backend/services"
)

type trainingDataHandler struct {
	responder Responder
	logger    zerolog.Logger
	projects  *services.ProjectService
}

func newTrainingDataHandler(projects *services.ProjectService) trainingDataHandler {
	logger := log.With().Str("handlerName", "trainingDataHandler").Logger()

	return trainingDataHandler{
		responder: NewResponder(logger),
		logger:    logger,
		projects:  projects,
	}
}

func (h trainingDataHandler) projectID(r *http.Request) (uuid.UUID, error) {
	idStr := chi.URLParam(r, "projectID")
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, errs.NewBadRequestError("invalid projectID")
	}
	return id, nil
}

// label names arrive URL-encoded in the path so students can use spaces.
func (h trainingDataHandler) label(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "label")
	label, err := url.PathUnescape(raw)
	if err != nil || label == "" {
		return "", errs.NewBadRequestError("invalid label")
	}
	return label, nil
}

func (h trainingDataHandler) listLabels() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.projectID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		snapshot, err := h.projects.ListTrainingData(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteData(w, http.StatusOK, snapshot)
	}
}

func (h trainingDataHandler) addLabel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.projectID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req addLabelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		project, err := h.projects.AddLabel(r.Context(), id, req.Label)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteData(w, http.StatusCreated, project.TrainingData)
	}
}

func (h trainingDataHandler) removeLabel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.projectID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		label, err := h.label(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projects.RemoveLabel(r.Context(), id, label)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteData(w, http.StatusOK, project.TrainingData)
	}
}

func (h trainingDataHandler) addExample() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.projectID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		label, err := h.label(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req addExampleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		project, err := h.projects.AddExample(r.Context(), id, label, req.Text)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteData(w, http.StatusCreated, project.TrainingData)
	}
}

func (h trainingDataHandler) removeExample() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.projectID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		label, err := h.label(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid example index"))
			return
		}

		project, err := h.projects.RemoveExample(r.Context(), id, label, index)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteData(w, http.StatusOK, project.TrainingData)
	}
}
