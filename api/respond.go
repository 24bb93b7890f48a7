package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/theneural/backend/errs"
)

// Every response shares one envelope: {success:true, data:...} on success,
// {success:false, error:..., details:[...]} on failure.
type envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      string      `json:"error,omitempty"`
	Details    []string    `json:"details,omitempty"`
}

type Pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

type Responder struct {
	logger zerolog.Logger
}

func NewResponder(logger zerolog.Logger) Responder {
	return Responder{logger}
}

func (r Responder) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		r.logger.Error().Err(err).Msg("error writing response")
	}
}

func (r Responder) WriteData(w http.ResponseWriter, status int, data any) {
	r.writeJSON(w, status, envelope{Success: true, Data: data})
}

func (r Responder) WriteList(w http.ResponseWriter, data any, pagination Pagination) {
	r.writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Pagination: &pagination})
}

func (r Responder) WriteMessage(w http.ResponseWriter, message string) {
	r.writeJSON(w, http.StatusOK, envelope{Success: true, Message: message})
}

func (r Responder) WriteError(w http.ResponseWriter, err error) {
	var apiErr *errs.ApiErr
	if !errors.As(err, &apiErr) {
		r.logger.Error().Err(err).Msg("unexpected error")
		r.writeJSON(w, http.StatusInternalServerError, envelope{
			Success: false,
			Error:   "internal server error",
		})
		return
	}

	if apiErr.Cause != nil {
		r.logger.Error().Str("cause", apiErr.GetFullError()).Msg(apiErr.Error())
	}
	r.writeJSON(w, apiErr.StatusCode, envelope{
		Success: false,
		Error:   apiErr.Error(),
		Details: apiErr.Details,
	})
}
