package api

import (
	"time"

	"github.com/theneural/backend/models"
	"github.com/theneural/backend/services"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	projectHandler      projectHandler
	trainingDataHandler trainingDataHandler
	sessionHandler      sessionHandler
}

// One typed request struct per endpoint; malformed bodies fail at decode
// time, range checks happen in the service layer.

type trainingConfigRequest struct {
	Epochs          *int     `json:"epochs"`
	BatchSize       *int     `json:"batchSize"`
	LearningRate    *float64 `json:"learningRate"`
	ValidationSplit *float64 `json:"validationSplit"`
}

func (r *trainingConfigRequest) toModel() *models.TrainingConfig {
	if r == nil {
		return nil
	}
	cfg := &models.TrainingConfig{}
	if r.Epochs != nil {
		cfg.Epochs = *r.Epochs
	}
	if r.BatchSize != nil {
		cfg.BatchSize = *r.BatchSize
	}
	if r.LearningRate != nil {
		cfg.LearningRate = *r.LearningRate
	}
	if r.ValidationSplit != nil {
		cfg.ValidationSplit = *r.ValidationSplit
	}
	return cfg
}

type createProjectRequest struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Type        string                 `json:"type"`
	CreatedBy   string                 `json:"createdBy"`
	Tags        []string               `json:"tags"`
	Notes       string                 `json:"notes"`
	Config      *trainingConfigRequest `json:"config"`
}

func (r createProjectRequest) toInput() services.CreateProjectInput {
	return services.CreateProjectInput{
		Name:        r.Name,
		Description: r.Description,
		Type:        models.ProjectType(r.Type),
		CreatedBy:   r.CreatedBy,
		Tags:        r.Tags,
		Notes:       r.Notes,
		Config:      r.Config.toModel(),
	}
}

type updateProjectRequest struct {
	Name        *string                `json:"name"`
	Description *string                `json:"description"`
	Type        *string                `json:"type"`
	Tags        *[]string              `json:"tags"`
	Notes       *string                `json:"notes"`
	Config      *trainingConfigRequest `json:"config"`
}

func (r updateProjectRequest) toInput() services.UpdateProjectInput {
	in := services.UpdateProjectInput{
		Name:        r.Name,
		Description: r.Description,
		Tags:        r.Tags,
		Notes:       r.Notes,
		Config:      r.Config.toModel(),
	}
	if r.Type != nil {
		asType := models.ProjectType(*r.Type)
		in.Type = &asType
	}
	return in
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

type addLabelRequest struct {
	Label string `json:"label"`
}

type addExampleRequest struct {
	Text string `json:"text"`
}

type predictRequest struct {
	Text string `json:"text"`
}

// projectStatusResponse is the thin status view of a project.
type projectStatusResponse struct {
	ID        string               `json:"id"`
	Status    models.ProjectStatus `json:"status"`
	Dataset   *models.DatasetRef   `json:"dataset"`
	Datasets  []models.DatasetRef  `json:"datasets"`
	Model     *models.ModelRef     `json:"model"`
	UpdatedAt time.Time            `json:"updatedAt"`
}
