package models

import "github.com/theneural/backend/errs"

// LabelBucket is one named bucket of training examples. Examples keep their
// insertion order and duplicates are allowed; this is a teaching tool, not a
// dedup store.
type LabelBucket struct {
	Label    string   `json:"label"`
	Examples []string `json:"examples"`
}

// TrainingData holds the label -> examples mapping for one project. It is
// owned exclusively by its parent project and persisted alongside it.
type TrainingData struct {
	Labels []LabelBucket `json:"labels"`
}

func NewTrainingData() *TrainingData {
	return &TrainingData{Labels: []LabelBucket{}}
}

func (t *TrainingData) find(label string) int {
	for i := range t.Labels {
		if t.Labels[i].Label == label {
			return i
		}
	}
	return -1
}

// AddLabel creates an empty bucket. Matching is case-sensitive and exact.
func (t *TrainingData) AddLabel(label string, maxLabels int) error {
	if label == "" {
		return errs.NewBadRequestError("label must not be empty")
	}
	if t.find(label) >= 0 {
		return errs.NewDuplicateLabel(label)
	}
	if len(t.Labels) >= maxLabels {
		return errs.NewLimitExceeded("project already has the maximum number of labels")
	}
	t.Labels = append(t.Labels, LabelBucket{Label: label, Examples: []string{}})
	return nil
}

// RemoveLabel deletes the bucket and all its examples.
func (t *TrainingData) RemoveLabel(label string) error {
	i := t.find(label)
	if i < 0 {
		return errs.NewNotFound("label " + label)
	}
	t.Labels = append(t.Labels[:i], t.Labels[i+1:]...)
	return nil
}

// AddExample appends text verbatim; no trimming beyond the non-empty check.
func (t *TrainingData) AddExample(label, text string, maxExamples int) error {
	if text == "" {
		return errs.NewBadRequestError("example text must not be empty")
	}
	i := t.find(label)
	if i < 0 {
		return errs.NewNotFound("label " + label)
	}
	if len(t.Labels[i].Examples) >= maxExamples {
		return errs.NewLimitExceeded("label is at its example cap")
	}
	t.Labels[i].Examples = append(t.Labels[i].Examples, text)
	return nil
}

// RemoveExample removes by position, not value, since duplicates are allowed.
func (t *TrainingData) RemoveExample(label string, index int) error {
	i := t.find(label)
	if i < 0 {
		return errs.NewNotFound("label " + label)
	}
	examples := t.Labels[i].Examples
	if index < 0 || index >= len(examples) {
		return errs.NewIndexOutOfRange(label, index, len(examples))
	}
	t.Labels[i].Examples = append(examples[:index], examples[index+1:]...)
	return nil
}

// Snapshot returns a copy safe to hand to callers; mutating it does not
// touch the store.
func (t *TrainingData) Snapshot() map[string][]string {
	snapshot := make(map[string][]string, len(t.Labels))
	for _, bucket := range t.Labels {
		examples := make([]string, len(bucket.Examples))
		copy(examples, bucket.Examples)
		snapshot[bucket.Label] = examples
	}
	return snapshot
}

func (t *TrainingData) LabelCount() int {
	return len(t.Labels)
}

func (t *TrainingData) ExampleCount() int {
	total := 0
	for _, bucket := range t.Labels {
		total += len(bucket.Examples)
	}
	return total
}

// HasTrainableExample reports whether at least one label holds at least one
// example, the minimum to request training.
func (t *TrainingData) HasTrainableExample() bool {
	if t == nil {
		return false
	}
	for _, bucket := range t.Labels {
		if len(bucket.Examples) > 0 {
			return true
		}
	}
	return false
}
