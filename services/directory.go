package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/theneural/backend/blob"
	"github.com/theneural/backend/database"
	"github.com/theneural/backend/errs"
	"github.com/theneural/backend/events"
	"github.com/theneural/backend/models"
	"golang.org/x/sync/errgroup"
)

// ProjectStore is the durable home of project records. *database.ProjectRepo
// satisfies it; tests use an in-memory fake.
type ProjectStore interface {
	FindAll(filter database.ProjectFilter) ([]*models.Project, int64, error)
	FindByID(id uuid.UUID) (*models.Project, error)
	Add(project *models.Project) error
	Update(project *models.Project) error
	Delete(id uuid.UUID) (bool, error)
}

// Limits are the hard ceilings enforced by the directory service.
type Limits struct {
	MaxLabels           int
	MaxExamplesPerLabel int
	MaxUploadBytes      int64
}

var DefaultLimits = Limits{
	MaxLabels:           10,
	MaxExamplesPerLabel: 50,
	MaxUploadBytes:      100 * 1024 * 1024,
}

var DefaultTrainingConfig = models.TrainingConfig{
	Epochs:          100,
	BatchSize:       32,
	LearningRate:    0.001,
	ValidationSplit: 0.2,
}

// uploads are restricted to a closed set of dataset formats.
var allowedUploadTypes = []string{
	"text/csv",
	"application/json",
	"text/plain",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

const projectTTL = 7 * 24 * time.Hour

// ProjectService owns the authoritative id -> record mapping and mediates
// every mutation. Mutations on the same id are serialized through a per-id
// lock; cross-project reads need no shared locking.
type ProjectService struct {
	store    ProjectStore
	blobs    blob.Store
	bus      events.Publisher
	limits   Limits
	defaults models.TrainingConfig
	locks    *projectLocks
	logger   zerolog.Logger
	now      func() time.Time
}

func NewProjectService(store ProjectStore, blobs blob.Store, bus events.Publisher, limits Limits, defaults models.TrainingConfig) *ProjectService {
	return &ProjectService{
		store:    store,
		blobs:    blobs,
		bus:      bus,
		limits:   limits,
		defaults: defaults,
		locks:    newProjectLocks(),
		logger:   log.With().Str("serviceName", "projectService").Logger(),
		now:      time.Now,
	}
}

type CreateProjectInput struct {
	Name        string
	Description string
	Type        models.ProjectType
	CreatedBy   string
	Tags        []string
	Notes       string
	Config      *models.TrainingConfig
}

type UpdateProjectInput struct {
	Name        *string
	Description *string
	Type        *models.ProjectType
	Tags        *[]string
	Notes       *string
	Config      *models.TrainingConfig
}

type DatasetUpload struct {
	Filename    string
	ContentType string
	Content     []byte
	Records     *int
	Description string
}

type UploadResult struct {
	Path    string            `json:"path"`
	Dataset models.DatasetRef `json:"dataset"`
}

type TrainingResult struct {
	JobID   string               `json:"jobId"`
	Status  models.ProjectStatus `json:"status"`
	Message string               `json:"message"`
}

func (in CreateProjectInput) validate() []string {
	var violations []string
	if len(in.Name) < 1 || len(in.Name) > 100 {
		violations = append(violations, "name must be between 1 and 100 characters")
	}
	if len(in.Description) > 500 {
		violations = append(violations, "description must be at most 500 characters")
	}
	if len(in.Notes) > 1000 {
		violations = append(violations, "notes must be at most 1000 characters")
	}
	if in.Type != "" && !in.Type.Valid() {
		violations = append(violations, fmt.Sprintf("type %q is not one of text-recognition, classification, regression, custom", in.Type))
	}
	if in.Config != nil {
		violations = append(violations, in.Config.Validate()...)
	}
	return violations
}

// Create validates fields, assigns a fresh id and returns the stored record.
func (s *ProjectService) Create(ctx context.Context, in CreateProjectInput) (*models.Project, error) {
	if violations := in.validate(); len(violations) > 0 {
		return nil, errs.NewValidationError(violations...)
	}

	projectType := in.Type
	if projectType == "" {
		projectType = models.TypeTextRecognition
	}
	config := s.defaults
	if in.Config != nil {
		config = in.Config.Merge(s.defaults)
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	now := s.now().UTC()
	project := &models.Project{
		ID:           uuid.New(),
		Name:         in.Name,
		Description:  in.Description,
		Type:         projectType,
		Status:       models.StatusDraft,
		CreatedBy:    in.CreatedBy,
		Notes:        in.Notes,
		Tags:         tags,
		Config:       config,
		Datasets:     []models.DatasetRef{},
		TrainingData: models.NewTrainingData(),
		Version:      1,
		ExpiresAt:    now.Add(projectTTL),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Add(project); err != nil {
		return nil, errs.NewInternalError("failed to create project", err)
	}
	s.logger.Info().Str("projectID", project.ID.String()).Str("name", project.Name).Msg("project created")
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := s.store.FindByID(id)
	if err != nil {
		return nil, errs.NewInternalError("failed to fetch project", err)
	}
	if project == nil {
		return nil, errs.NewNotFound("project")
	}
	return project, nil
}

// List returns one page of records, newest first, with the total count of
// matches for pagination.
func (s *ProjectService) List(ctx context.Context, filter database.ProjectFilter) ([]*models.Project, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	projects, total, err := s.store.FindAll(filter)
	if err != nil {
		return nil, 0, errs.NewInternalError("failed to list projects", err)
	}
	return projects, total, nil
}

// Update merges the supplied fields onto the record; unset fields are
// preserved. A stale concurrent writer surfaces as a conflict.
func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, in UpdateProjectInput) (*models.Project, error) {
	var violations []string
	if in.Name != nil && (len(*in.Name) < 1 || len(*in.Name) > 100) {
		violations = append(violations, "name must be between 1 and 100 characters")
	}
	if in.Description != nil && len(*in.Description) > 500 {
		violations = append(violations, "description must be at most 500 characters")
	}
	if in.Notes != nil && len(*in.Notes) > 1000 {
		violations = append(violations, "notes must be at most 1000 characters")
	}
	if in.Type != nil && !in.Type.Valid() {
		violations = append(violations, fmt.Sprintf("type %q is not one of text-recognition, classification, regression, custom", *in.Type))
	}
	if in.Config != nil {
		violations = append(violations, in.Config.Validate()...)
	}
	if len(violations) > 0 {
		return nil, errs.NewValidationError(violations...)
	}

	s.locks.lock(id)
	defer s.locks.unlock(id)

	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		project.Name = *in.Name
	}
	if in.Description != nil {
		project.Description = *in.Description
	}
	if in.Type != nil {
		project.Type = *in.Type
	}
	if in.Tags != nil {
		project.Tags = *in.Tags
	}
	if in.Notes != nil {
		project.Notes = *in.Notes
	}
	if in.Config != nil {
		project.Config = in.Config.Merge(project.Config)
	}
	project.Touch(s.now().UTC())

	if err := s.persist(project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes the record and cascades deletion of its dataset and model
// blobs. Deleting an absent id fails with NotFound rather than succeeding
// silently.
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	s.locks.lock(id)
	defer s.locks.unlock(id)

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.blobs.DeletePrefix(gctx, fmt.Sprintf("datasets/%s/", id))
	})
	g.Go(func() error {
		return s.blobs.DeletePrefix(gctx, fmt.Sprintf("models/%s/", id))
	})
	if err := g.Wait(); err != nil {
		return errs.NewInternalError("failed to delete project blobs", err)
	}

	existed, err := s.store.Delete(id)
	if err != nil {
		return errs.NewInternalError("failed to delete project", err)
	}
	if !existed {
		return errs.NewNotFound("project")
	}
	s.logger.Info().Str("projectID", id.String()).Msg("project deleted")
	return nil
}

// BulkDelete removes each id it can and reports how many records went away.
func (s *ProjectService) BulkDelete(ctx context.Context, ids []uuid.UUID) int {
	deleted := 0
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("projectID", id.String()).Msg("bulk delete skipped project")
			continue
		}
		deleted++
	}
	return deleted
}

// UploadDataset stores the blob under a versioned key, appends the reference
// to the history and points the primary dataset at it. The blob store is
// consulted before the record changes, so a storage failure leaves the
// record untouched.
func (s *ProjectService) UploadDataset(ctx context.Context, id uuid.UUID, upload DatasetUpload) (*UploadResult, error) {
	mediaType, _, err := mime.ParseMediaType(upload.ContentType)
	if err != nil {
		mediaType = upload.ContentType
	}
	if !uploadTypeAllowed(mediaType) {
		return nil, errs.NewUnsupportedMediaType(mediaType, allowedUploadTypes)
	}
	if int64(len(upload.Content)) > s.limits.MaxUploadBytes {
		return nil, errs.NewPayloadTooLarge(s.limits.MaxUploadBytes)
	}

	s.locks.lock(id)
	defer s.locks.unlock(id)

	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	version := len(project.Datasets) + 1
	key := fmt.Sprintf("datasets/%s/v%d/%s", id, version, upload.Filename)
	path, err := s.blobs.Put(ctx, key, mediaType, bytes.NewReader(upload.Content))
	if err != nil {
		return nil, errs.NewInternalError("failed to store dataset", err)
	}

	records := 0
	if upload.Records != nil {
		records = *upload.Records
	} else {
		records = CountRecords(upload.Filename, mediaType, upload.Content)
	}

	now := s.now().UTC()
	ref := models.DatasetRef{
		Filename:    upload.Filename,
		Size:        int64(len(upload.Content)),
		Records:     records,
		Version:     version,
		Path:        path,
		Description: upload.Description,
		UploadedAt:  &now,
	}
	project.Datasets = append(project.Datasets, ref)
	project.Dataset = &ref
	project.Touch(now)

	if err := s.persist(project); err != nil {
		return nil, err
	}
	s.logger.Info().Str("projectID", id.String()).Str("path", path).Int("records", records).Msg("dataset uploaded")
	return &UploadResult{Path: path, Dataset: ref}, nil
}

// StartTraining validates the config, moves the project to training and
// notifies the event bus. It returns once the transition is persisted; the
// notification outcome is never blocked on.
func (s *ProjectService) StartTraining(ctx context.Context, id uuid.UUID, cfg *models.TrainingConfig) (*TrainingResult, error) {
	if cfg != nil {
		if violations := cfg.Validate(); len(violations) > 0 {
			return nil, errs.NewValidationError(violations...)
		}
	}

	s.locks.lock(id)
	defer s.locks.unlock(id)

	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.Status == models.StatusDraft && !project.TrainingData.HasTrainableExample() {
		return nil, errs.NewInsufficientData("training requires at least one label with at least one example")
	}
	if err := project.TransitionTo(models.StatusTraining); err != nil {
		return nil, err
	}

	if cfg != nil {
		project.Config = cfg.Merge(project.Config)
	}
	jobID := uuid.NewString()
	project.CurrentJobID = jobID
	now := s.now().UTC()
	project.Touch(now)

	if err := s.persist(project); err != nil {
		return nil, err
	}

	message, err := json.Marshal(events.TrainingRequested{
		JobID:       jobID,
		ProjectID:   id.String(),
		Action:      events.ActionStartTraining,
		RequestedAt: now,
	})
	if err == nil {
		err = s.bus.Publish(ctx, message)
	}
	if err != nil {
		// at-least-once is the bus's promise, not ours; the transition is
		// already durable so the caller still gets a success.
		s.logger.Error().Err(err).Str("projectID", id.String()).Msg("failed to publish training request")
	}

	return &TrainingResult{JobID: jobID, Status: project.Status, Message: "training requested"}, nil
}

// CompleteTraining is invoked by the worker when a job produced a model.
func (s *ProjectService) CompleteTraining(ctx context.Context, id uuid.UUID, model models.ModelRef) error {
	s.locks.lock(id)
	defer s.locks.unlock(id)

	project, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := project.TransitionTo(models.StatusTrained); err != nil {
		return err
	}
	project.Model = &model
	project.CurrentJobID = ""
	project.Touch(s.now().UTC())
	return s.persist(project)
}

// FailTraining reverts a failed run to draft so the record is never left
// stuck in training past the failure report.
func (s *ProjectService) FailTraining(ctx context.Context, id uuid.UUID, reason string) error {
	s.locks.lock(id)
	defer s.locks.unlock(id)

	project, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := project.TransitionTo(models.StatusDraft); err != nil {
		return err
	}
	project.CurrentJobID = ""
	project.Touch(s.now().UTC())
	s.logger.Warn().Str("projectID", id.String()).Str("reason", reason).Msg("training failed, project reverted to draft")
	return s.persist(project)
}

// Reset returns the project to draft from any state.
func (s *ProjectService) Reset(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.transition(ctx, id, models.StatusDraft)
}

// BeginEvaluation flips a trained project into testing.
func (s *ProjectService) BeginEvaluation(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.transition(ctx, id, models.StatusTesting)
}

func (s *ProjectService) transition(ctx context.Context, id uuid.UUID, next models.ProjectStatus) (*models.Project, error) {
	s.locks.lock(id)
	defer s.locks.unlock(id)

	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := project.TransitionTo(next); err != nil {
		return nil, err
	}
	if next == models.StatusDraft {
		project.CurrentJobID = ""
	}
	project.Touch(s.now().UTC())
	if err := s.persist(project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) persist(project *models.Project) error {
	err := s.store.Update(project)
	if err == nil {
		return nil
	}
	if errs.IsConflict(err) {
		return err
	}
	return errs.NewInternalError("failed to persist project", err)
}

func uploadTypeAllowed(mediaType string) bool {
	for _, allowed := range allowedUploadTypes {
		if mediaType == allowed {
			return true
		}
	}
	return false
}
