package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/theneural/backend/models"
)

// Training-data mutations run under the same per-id lock as every other
// project mutation, so label edits never race an upload or a train request.

func (s *ProjectService) AddLabel(ctx context.Context, id uuid.UUID, label string) (*models.Project, error) {
	return s.mutateTrainingData(ctx, id, func(data *models.TrainingData) error {
		return data.AddLabel(label, s.limits.MaxLabels)
	})
}

func (s *ProjectService) RemoveLabel(ctx context.Context, id uuid.UUID, label string) (*models.Project, error) {
	return s.mutateTrainingData(ctx, id, func(data *models.TrainingData) error {
		return data.RemoveLabel(label)
	})
}

func (s *ProjectService) AddExample(ctx context.Context, id uuid.UUID, label, text string) (*models.Project, error) {
	return s.mutateTrainingData(ctx, id, func(data *models.TrainingData) error {
		return data.AddExample(label, text, s.limits.MaxExamplesPerLabel)
	})
}

func (s *ProjectService) RemoveExample(ctx context.Context, id uuid.UUID, label string, index int) (*models.Project, error) {
	return s.mutateTrainingData(ctx, id, func(data *models.TrainingData) error {
		return data.RemoveExample(label, index)
	})
}

// ListTrainingData returns a snapshot; mutating it cannot touch the store.
func (s *ProjectService) ListTrainingData(ctx context.Context, id uuid.UUID) (map[string][]string, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.TrainingData == nil {
		return map[string][]string{}, nil
	}
	return project.TrainingData.Snapshot(), nil
}

func (s *ProjectService) mutateTrainingData(ctx context.Context, id uuid.UUID, mutate func(*models.TrainingData) error) (*models.Project, error) {
	s.locks.lock(id)
	defer s.locks.unlock(id)

	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.TrainingData == nil {
		project.TrainingData = models.NewTrainingData()
	}
	if err := mutate(project.TrainingData); err != nil {
		return nil, err
	}
	project.Touch(s.now().UTC())
	if err := s.persist(project); err != nil {
		return nil, err
	}
	return project, nil
}
