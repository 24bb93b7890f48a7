package api

import (
	"time"

	"github.com/go-chi/chi/v5"
)

// setupRoutes wires every endpoint under /api plus the health check.
func setupRoutes(r chi.Router, handlers *routeHandlers, auth authMiddleware, startupTime time.Time) {
	r.Get("/health", healthHandler(startupTime))

	r.Route("/api", func(r chi.Router) {
		r.Use(requestLogger)
		r.Use(auth.withSession)

		// Session endpoints
		r.Post("/sessions", handlers.sessionHandler.createSession())
		r.Get("/sessions/{sessionID}", handlers.sessionHandler.getSession())
		r.Delete("/sessions/{sessionID}", handlers.sessionHandler.deleteSession())

		// Project endpoints
		r.Get("/projects", handlers.projectHandler.listProjects())
		r.Post("/projects", handlers.projectHandler.createProject())
		r.Post("/projects/delete", handlers.projectHandler.bulkDeleteProjects())

		r.Route("/projects/{projectID}", func(r chi.Router) {
			r.Get("/", handlers.projectHandler.getProject())
			r.Put("/", handlers.projectHandler.updateProject())
			r.Delete("/", handlers.projectHandler.deleteProject())
			r.Get("/status", handlers.projectHandler.getProjectStatus())
			r.Post("/dataset", handlers.projectHandler.uploadDataset())
			r.Post("/train", handlers.projectHandler.startTraining())
			r.Post("/reset", handlers.projectHandler.resetProject())
			r.Post("/evaluate", handlers.projectHandler.beginEvaluation())
			r.Post("/predict", handlers.projectHandler.predict())

			// Training-data endpoints
			r.Get("/labels", handlers.trainingDataHandler.listLabels())
			r.Post("/labels", handlers.trainingDataHandler.addLabel())
			r.Delete("/labels/{label}", handlers.trainingDataHandler.removeLabel())
			r.Post("/labels/{label}/examples", handlers.trainingDataHandler.addExample())
			r.Delete("/labels/{label}/examples/{index}", handlers.trainingDataHandler.removeExample())
		})
	})
}
