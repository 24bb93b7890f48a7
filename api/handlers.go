package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/theneural/backend/services"
)

// initializeHandlers creates and returns all handlers organized in a
// routeHandlers struct
func initializeHandlers(projects *services.ProjectService, sessions *services.SessionService, maxUpload int64) *routeHandlers {
	return &routeHandlers{
		projectHandler:      newProjectHandler(projects, maxUpload),
		trainingDataHandler: newTrainingDataHandler(projects),
		sessionHandler:      newSessionHandler(sessions),
	}
}

func healthHandler(startupTime time.Time) http.HandlerFunc {
	responder := NewResponder(log.With().Str("handlerName", "healthHandler").Logger())
	return func(w http.ResponseWriter, r *http.Request) {
		responder.WriteData(w, http.StatusOK, map[string]any{
			"status": "ok",
			"uptime": time.Since(startupTime).Round(time.Second).String(),
		})
	}
}
