package models

import "github.com/theneural/backend/errs"

type ProjectStatus string

const (
	StatusDraft    ProjectStatus = "draft"
	StatusTraining ProjectStatus = "training"
	StatusTrained  ProjectStatus = "trained"
	StatusTesting  ProjectStatus = "testing"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusTraining, StatusTrained, StatusTesting:
		return true
	}
	return false
}

// forward edges of the status machine; a reset to draft is legal from any
// state and handled separately in CanTransitionTo.
var statusEdges = map[ProjectStatus]ProjectStatus{
	StatusDraft:    StatusTraining,
	StatusTraining: StatusTrained,
	StatusTrained:  StatusTesting,
}

func (s ProjectStatus) CanTransitionTo(next ProjectStatus) bool {
	if next == StatusDraft {
		return true
	}
	return statusEdges[s] == next
}

// TransitionTo moves the project to next or leaves it unchanged. Timestamps
// are the caller's concern; this only enforces the edge set.
func (p *Project) TransitionTo(next ProjectStatus) error {
	if !next.Valid() {
		return errs.NewInvalidTransition(string(p.Status), string(next))
	}
	if !p.Status.CanTransitionTo(next) {
		return errs.NewInvalidTransition(string(p.Status), string(next))
	}
	p.Status = next
	return nil
}
