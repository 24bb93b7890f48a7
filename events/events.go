package events

import (
	"context"
	"time"
)

// TrainingRequested is the message published when a project enters the
// training state. Delivery is at-least-once; the worker tolerates replays.
type TrainingRequested struct {
	JobID       string    `json:"jobId"`
	ProjectID   string    `json:"projectId"`
	Action      string    `json:"action"`
	RequestedAt time.Time `json:"requestedAt"`
}

const ActionStartTraining = "start_training"

// Publisher is the event-bus collaborator. Publish is fire-and-forget from
// the caller's perspective; the outcome is never blocked on.
type Publisher interface {
	Publish(ctx context.Context, data []byte) error
}
