package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theneural/backend/errs"
)

func TestProjectStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from    ProjectStatus
		to      ProjectStatus
		allowed bool
	}{
		{StatusDraft, StatusTraining, true},
		{StatusTraining, StatusTrained, true},
		{StatusTrained, StatusTesting, true},

		// a reset to draft is legal from anywhere
		{StatusDraft, StatusDraft, true},
		{StatusTraining, StatusDraft, true},
		{StatusTrained, StatusDraft, true},
		{StatusTesting, StatusDraft, true},

		// skipping states is not
		{StatusDraft, StatusTrained, false},
		{StatusDraft, StatusTesting, false},
		{StatusTraining, StatusTesting, false},
		{StatusTrained, StatusTraining, false},
		{StatusTesting, StatusTraining, false},
		{StatusTesting, StatusTrained, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestProject_TransitionTo(t *testing.T) {
	project := &Project{Status: StatusDraft}

	require.NoError(t, project.TransitionTo(StatusTraining))
	assert.Equal(t, StatusTraining, project.Status)

	err := project.TransitionTo(StatusTesting)
	require.Error(t, err)
	assert.True(t, errs.IsInvalidTransition(err))
	assert.Equal(t, StatusTraining, project.Status, "a rejected transition must not move the project")
}

func TestProject_TransitionTo_UnknownStatus(t *testing.T) {
	project := &Project{Status: StatusDraft}

	err := project.TransitionTo(ProjectStatus("exploded"))
	require.Error(t, err)
	assert.True(t, errs.IsInvalidTransition(err))
	assert.Equal(t, StatusDraft, project.Status)
}
