package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrainingConfig_Validate(t *testing.T) {
	assert.Empty(t, TrainingConfig{}.Validate(), "the zero config means all defaults")
	assert.Empty(t, TrainingConfig{Epochs: 100, BatchSize: 32, LearningRate: 0.001, ValidationSplit: 0.2}.Validate())

	cases := []struct {
		name string
		cfg  TrainingConfig
	}{
		{"epochs too large", TrainingConfig{Epochs: 10001}},
		{"negative epochs", TrainingConfig{Epochs: -1}},
		{"batch size too large", TrainingConfig{BatchSize: 20000}},
		{"learning rate above one", TrainingConfig{LearningRate: 1.5}},
		{"negative learning rate", TrainingConfig{LearningRate: -0.1}},
		{"validation split above one", TrainingConfig{ValidationSplit: 1.2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotEmpty(t, tc.cfg.Validate())
		})
	}

	violations := TrainingConfig{Epochs: -1, BatchSize: -1}.Validate()
	assert.Len(t, violations, 2, "every out-of-range field reports its own message")
}

func TestTrainingConfig_Merge(t *testing.T) {
	fallback := TrainingConfig{Epochs: 100, BatchSize: 32, LearningRate: 0.001, ValidationSplit: 0.2}

	merged := TrainingConfig{Epochs: 5}.Merge(fallback)
	assert.Equal(t, 5, merged.Epochs)
	assert.Equal(t, 32, merged.BatchSize)
	assert.Equal(t, 0.001, merged.LearningRate)
	assert.Equal(t, 0.2, merged.ValidationSplit)

	assert.Equal(t, fallback, TrainingConfig{}.Merge(fallback))

	full := TrainingConfig{Epochs: 1, BatchSize: 2, LearningRate: 0.5, ValidationSplit: 0.5}
	assert.Equal(t, full, full.Merge(fallback))
}

func TestProjectType_Valid(t *testing.T) {
	assert.True(t, TypeTextRecognition.Valid())
	assert.True(t, TypeClassification.Valid())
	assert.True(t, TypeRegression.Valid())
	assert.True(t, TypeCustom.Valid())
	assert.False(t, ProjectType("image-recognition").Valid())
	assert.False(t, ProjectType("").Valid())
}

func TestProject_Touch(t *testing.T) {
	project := &Project{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	project.Touch(now)
	assert.Equal(t, now, project.UpdatedAt)
}
