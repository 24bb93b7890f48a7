package api

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/theneural/backend/errs"
	"github.com/theneural/backend/models"
	"github.com/theneural/backend/services"
)

type sessionHandler struct {
	responder Responder
	logger    zerolog.Logger
	sessions  *services.SessionService
}

func newSessionHandler(sessions *services.SessionService) sessionHandler {
	logger := log.With().Str("handlerName", "sessionHandler").Logger()

	return sessionHandler{
		responder: NewResponder(logger),
		logger:    logger,
		sessions:  sessions,
	}
}

type sessionResponse struct {
	Session *models.Session `json:"session"`
	Token   string          `json:"token,omitempty"`
}

func (h sessionHandler) createSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		session, token, err := h.sessions.Create(r.Context(), ip, r.UserAgent())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteData(w, http.StatusCreated, sessionResponse{Session: session, Token: token})
	}
}

func (h sessionHandler) getSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		if id == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("missing sessionID"))
			return
		}

		session, err := h.sessions.Get(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteData(w, http.StatusOK, sessionResponse{Session: session})
	}
}

func (h sessionHandler) deleteSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		if id == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("missing sessionID"))
			return
		}

		if err := h.sessions.Delete(r.Context(), id); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteMessage(w, "session ended")
	}
}
