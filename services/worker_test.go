package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theneural/backend/events"
	"github.com/theneural/backend/models"
	"golang.org/x/sync/semaphore"
)

func newTestWorker(projects *ProjectService) *TrainingWorker {
	return &TrainingWorker{
		projects: projects,
		sem:      semaphore.NewWeighted(maxConcurrentJobs),
		logger:   log.With().Str("serviceName", "trainingWorker").Logger(),
	}
}

func seedTrainableProject(t *testing.T, svc *ProjectService) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProjectInput{Name: "numbers"})
	require.NoError(t, err)

	for label, examples := range map[string][]string{
		"even": {
			"two is an even number",
			"four is an even number",
			"six is an even number",
			"eight is an even number",
			"ten is an even number",
		},
		"odd": {
			"one is an odd number",
			"three is an odd number",
			"five is an odd number",
			"seven is an odd number",
			"nine is an odd number",
		},
	} {
		_, err := svc.AddLabel(ctx, created.ID, label)
		require.NoError(t, err)
		for _, example := range examples {
			_, err := svc.AddExample(ctx, created.ID, label, example)
			require.NoError(t, err)
		}
	}
	return created.ID
}

func TestTrainingWorker_Process(t *testing.T) {
	svc, _, blobs, _ := newTestService(DefaultLimits)
	ctx := context.Background()
	id := seedTrainableProject(t, svc)

	result, err := svc.StartTraining(ctx, id, nil)
	require.NoError(t, err)

	worker := newTestWorker(svc)
	worker.process(ctx, events.TrainingRequested{
		JobID:     result.JobID,
		ProjectID: id.String(),
		Action:    events.ActionStartTraining,
	})

	project, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTrained, project.Status)
	assert.Empty(t, project.CurrentJobID)
	require.NotNil(t, project.Model)
	assert.Equal(t, "nearest-centroid", project.Model.ModelType)
	require.NotNil(t, project.Model.Accuracy)
	assert.Greater(t, *project.Model.Accuracy, 0.0)

	key := modelKey(id, fmt.Sprintf("model-%s.json", result.JobID))
	assert.Contains(t, blobs.keys(), key)

	// the trained model answers predictions end to end
	prediction, err := svc.Predict(ctx, id, "six is an even number")
	require.NoError(t, err)
	assert.Equal(t, "even", prediction.Label)
}

func TestTrainingWorker_Process_SupersededJobIsSkipped(t *testing.T) {
	svc, _, _, _ := newTestService(DefaultLimits)
	ctx := context.Background()
	id := seedTrainableProject(t, svc)

	result, err := svc.StartTraining(ctx, id, nil)
	require.NoError(t, err)

	worker := newTestWorker(svc)
	worker.process(ctx, events.TrainingRequested{
		JobID:     "job-from-before-the-reset",
		ProjectID: id.String(),
		Action:    events.ActionStartTraining,
	})

	project, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTraining, project.Status, "a stale job must not touch the project")
	assert.Equal(t, result.JobID, project.CurrentJobID)
}

func TestTrainingWorker_Process_FailureRevertsToDraft(t *testing.T) {
	svc, _, _, _ := newTestService(DefaultLimits)
	ctx := context.Background()

	// trainable per the API minimum, but below what the trainer needs
	created, err := svc.Create(ctx, CreateProjectInput{Name: "thin"})
	require.NoError(t, err)
	_, err = svc.AddLabel(ctx, created.ID, "only")
	require.NoError(t, err)
	_, err = svc.AddExample(ctx, created.ID, "only", "single example")
	require.NoError(t, err)

	result, err := svc.StartTraining(ctx, created.ID, nil)
	require.NoError(t, err)

	worker := newTestWorker(svc)
	worker.process(ctx, events.TrainingRequested{
		JobID:     result.JobID,
		ProjectID: created.ID.String(),
		Action:    events.ActionStartTraining,
	})

	project, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, project.Status)
	assert.Empty(t, project.CurrentJobID)
	assert.Nil(t, project.Model)
}
