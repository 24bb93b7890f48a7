package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/theneural/backend/errs"
)

func modelKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("models/%s/%s", id, filename)
}

// Predict loads the project's model artifact and classifies text with it.
func (s *ProjectService) Predict(ctx context.Context, id uuid.UUID, text string) (*Prediction, error) {
	if text == "" {
		return nil, errs.NewValidationError("text must not be empty")
	}

	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.Model == nil {
		return nil, errs.NewConflict("project has no trained model yet")
	}

	rc, err := s.blobs.Get(ctx, modelKey(id, project.Model.Filename))
	if err != nil {
		return nil, errs.NewInternalError("failed to load model artifact", err)
	}
	defer rc.Close()

	var artifact TrainedArtifact
	if err := json.NewDecoder(rc).Decode(&artifact); err != nil {
		return nil, errs.NewInternalError("failed to decode model artifact", err)
	}

	prediction := artifact.Predict(text)
	return &prediction, nil
}
