package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ProjectType string

const (
	TypeTextRecognition ProjectType = "text-recognition"
	TypeClassification  ProjectType = "classification"
	TypeRegression      ProjectType = "regression"
	TypeCustom          ProjectType = "custom"
)

func (t ProjectType) Valid() bool {
	switch t {
	case TypeTextRecognition, TypeClassification, TypeRegression, TypeCustom:
		return true
	}
	return false
}

// DatasetRef points at a dataset blob in object storage. The blob itself is
// never held on the record.
type DatasetRef struct {
	Filename    string     `json:"filename"`
	Size        int64      `json:"size"`
	Records     int        `json:"records"`
	Version     int        `json:"version"`
	Path        string     `json:"path"`
	Description string     `json:"description,omitempty"`
	UploadedAt  *time.Time `json:"uploadedAt,omitempty"`
}

// ModelRef points at a trained model artifact in object storage.
type ModelRef struct {
	Filename  string     `json:"filename"`
	Path      string     `json:"path"`
	ModelType string     `json:"modelType"`
	Accuracy  *float64   `json:"accuracy,omitempty"`
	Labels    []string   `json:"labels,omitempty"`
	TrainedAt *time.Time `json:"trainedAt,omitempty"`
}

// TrainingConfig is the hyperparameter set for a training run. The zero
// value of a field means "unset"; defaults are applied by the directory
// service, not here.
type TrainingConfig struct {
	Epochs          int     `json:"epochs,omitempty"`
	BatchSize       int     `json:"batchSize,omitempty"`
	LearningRate    float64 `json:"learningRate,omitempty"`
	ValidationSplit float64 `json:"validationSplit,omitempty"`
}

// Validate returns one message per out-of-range field. Unset fields pass.
func (c TrainingConfig) Validate() []string {
	var violations []string
	if c.Epochs != 0 && (c.Epochs < 1 || c.Epochs > 10000) {
		violations = append(violations, fmt.Sprintf("epochs must be between 1 and 10000, got %d", c.Epochs))
	}
	if c.BatchSize != 0 && (c.BatchSize < 1 || c.BatchSize > 10000) {
		violations = append(violations, fmt.Sprintf("batchSize must be between 1 and 10000, got %d", c.BatchSize))
	}
	if c.LearningRate != 0 && (c.LearningRate <= 0 || c.LearningRate > 1) {
		violations = append(violations, fmt.Sprintf("learningRate must be in (0, 1], got %g", c.LearningRate))
	}
	if c.ValidationSplit != 0 && (c.ValidationSplit <= 0 || c.ValidationSplit > 1) {
		violations = append(violations, fmt.Sprintf("validationSplit must be in (0, 1], got %g", c.ValidationSplit))
	}
	return violations
}

// Merge returns c with every unset field taken from fallback.
func (c TrainingConfig) Merge(fallback TrainingConfig) TrainingConfig {
	merged := c
	if merged.Epochs == 0 {
		merged.Epochs = fallback.Epochs
	}
	if merged.BatchSize == 0 {
		merged.BatchSize = fallback.BatchSize
	}
	if merged.LearningRate == 0 {
		merged.LearningRate = fallback.LearningRate
	}
	if merged.ValidationSplit == 0 {
		merged.ValidationSplit = fallback.ValidationSplit
	}
	return merged
}

// Project is the aggregate entity for one ML teaching exercise.
type Project struct {
	ID          uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string      `json:"name" gorm:"type:text;not null"`
	Description string      `json:"description" gorm:"type:text"`
	Type        ProjectType `json:"type" gorm:"type:text;not null"`
	Status      ProjectStatus `json:"status" gorm:"type:text;not null"`
	CreatedBy   string      `json:"createdBy" gorm:"type:text"`
	Notes       string      `json:"notes" gorm:"type:text"`

	Tags datatypes.JSONSlice[string] `json:"tags" gorm:"type:jsonb"`

	Config TrainingConfig `json:"config" gorm:"serializer:json;type:jsonb"`

	// Dataset is the most recently uploaded dataset; Datasets is the
	// append-only upload history.
	Dataset  *DatasetRef                     `json:"dataset" gorm:"serializer:json;type:jsonb"`
	Datasets datatypes.JSONSlice[DatasetRef] `json:"datasets" gorm:"type:jsonb"`

	Model *ModelRef `json:"model" gorm:"serializer:json;type:jsonb"`

	TrainingData *TrainingData `json:"trainingData" gorm:"serializer:json;type:jsonb"`

	CurrentJobID string `json:"currentJobId,omitempty" gorm:"type:text"`

	// Version guards read-modify-write cycles; a stale writer is rejected
	// with a conflict instead of silently losing its update.
	Version int `json:"-" gorm:"not null;default:1"`

	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Touch refreshes updatedAt; every mutation goes through here.
func (p *Project) Touch(now time.Time) {
	p.UpdatedAt = now
}
