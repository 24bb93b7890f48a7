package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/theneural/backend/events"
	"golang.org/x/sync/semaphore"
)

const maxConcurrentJobs = 3

// TrainingWorker consumes training requests from the event bus and runs the
// stub trainer. Messages are always acked once picked up: a failed run
// reverts the project to draft instead of being redelivered forever.
type TrainingWorker struct {
	projects *ProjectService
	sub      *pubsub.Subscription
	sem      *semaphore.Weighted
	logger   zerolog.Logger
}

func NewTrainingWorker(client *pubsub.Client, subscriptionID string, projects *ProjectService) *TrainingWorker {
	return &TrainingWorker{
		projects: projects,
		sub:      client.Subscription(subscriptionID),
		sem:      semaphore.NewWeighted(maxConcurrentJobs),
		logger:   log.With().Str("serviceName", "trainingWorker").Logger(),
	}
}

// Run blocks receiving messages until ctx is cancelled.
func (w *TrainingWorker) Run(ctx context.Context) error {
	w.logger.Info().Str("subscription", w.sub.ID()).Msg("training worker started")
	return w.sub.Receive(ctx, w.handle)
}

func (w *TrainingWorker) handle(ctx context.Context, msg *pubsub.Message) {
	var request events.TrainingRequested
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		w.logger.Warn().Err(err).Msg("discarding unparseable training message")
		msg.Ack()
		return
	}
	if request.Action != events.ActionStartTraining || request.JobID == "" {
		w.logger.Warn().Str("action", request.Action).Msg("discarding unexpected training message")
		msg.Ack()
		return
	}

	// leave the message for redelivery when all job slots are busy
	if !w.sem.TryAcquire(1) {
		msg.Nack()
		return
	}
	defer w.sem.Release(1)

	msg.Ack()
	w.process(ctx, request)
}

func (w *TrainingWorker) process(ctx context.Context, request events.TrainingRequested) {
	logger := w.logger.With().Str("jobID", request.JobID).Str("projectID", request.ProjectID).Logger()
	logger.Info().Msg("training job started")

	projectID, err := uuid.Parse(request.ProjectID)
	if err != nil {
		logger.Error().Err(err).Msg("training message carries an invalid project id")
		return
	}

	project, err := w.projects.Get(ctx, projectID)
	if err != nil {
		logger.Error().Err(err).Msg("training job skipped, project lookup failed")
		return
	}
	// a reset or newer train request supersedes this job
	if project.CurrentJobID != request.JobID {
		logger.Info().Str("currentJobID", project.CurrentJobID).Msg("training job superseded, skipping")
		return
	}

	artifact, accuracy, err := TrainModel(project.TrainingData, project.Config)
	if err != nil {
		w.fail(ctx, projectID, err.Error(), logger)
		return
	}

	payload, err := json.Marshal(artifact)
	if err != nil {
		w.fail(ctx, projectID, "failed to serialize model artifact", logger)
		return
	}

	filename := fmt.Sprintf("model-%s.json", request.JobID)
	path, err := w.projects.blobs.Put(ctx, modelKey(projectID, filename), "application/json", bytes.NewReader(payload))
	if err != nil {
		w.fail(ctx, projectID, "failed to store model artifact", logger)
		return
	}

	ref := newModelRef(filename, path, artifact, accuracy)
	if err := w.projects.CompleteTraining(ctx, projectID, ref); err != nil {
		logger.Error().Err(err).Msg("failed to record training completion")
		return
	}
	logger.Info().Float64("accuracy", accuracy).Str("path", path).Msg("training job completed")
}

func (w *TrainingWorker) fail(ctx context.Context, projectID uuid.UUID, reason string, logger zerolog.Logger) {
	if err := w.projects.FailTraining(ctx, projectID, reason); err != nil {
		logger.Error().Err(err).Str("reason", reason).Msg("failed to record training failure")
		return
	}
	logger.Warn().Str("reason", reason).Msg("training job failed")
}
