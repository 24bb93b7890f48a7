package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/theneural/backend/models"
)

// The playground trains a deliberately tiny model: bag-of-words vectors with
// one centroid per label, scored by cosine similarity. Good enough to show
// students the train/evaluate/predict loop without a real ML runtime.

const (
	minTotalExamples    = 10
	minExamplesPerLabel = 3
)

// TrainedArtifact is the serializable model produced by a training run.
type TrainedArtifact struct {
	ModelType string                        `json:"modelType"`
	Labels    []string                      `json:"labels"`
	Centroids map[string]map[string]float64 `json:"centroids"`
	TrainedAt time.Time                     `json:"trainedAt"`
}

type Prediction struct {
	Label        string        `json:"label"`
	Confidence   float64       `json:"confidence"`
	Alternatives []Alternative `json:"alternatives"`
}

type Alternative struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ValidateDataset checks the minimums a run needs. The error text is shown
// to students, so it names the offending label.
func ValidateDataset(data *models.TrainingData) error {
	if data == nil || data.ExampleCount() < minTotalExamples {
		return fmt.Errorf("need at least %d examples total", minTotalExamples)
	}
	for _, bucket := range data.Labels {
		if len(bucket.Examples) < minExamplesPerLabel {
			return fmt.Errorf("label %q needs at least %d examples (has %d)", bucket.Label, minExamplesPerLabel, len(bucket.Examples))
		}
	}
	return nil
}

// TrainModel builds centroids from a per-label training split and reports
// accuracy on the held-out remainder. The split is deterministic: the last
// examples of each label are held out.
func TrainModel(data *models.TrainingData, cfg models.TrainingConfig) (*TrainedArtifact, float64, error) {
	if err := ValidateDataset(data); err != nil {
		return nil, 0, err
	}

	split := cfg.ValidationSplit
	if split <= 0 || split >= 1 {
		split = 0.2
	}

	centroids := make(map[string]map[string]float64, len(data.Labels))
	labels := make([]string, 0, len(data.Labels))
	type holdout struct {
		text  string
		label string
	}
	var validation []holdout

	for _, bucket := range data.Labels {
		labels = append(labels, bucket.Label)
		held := int(math.Ceil(float64(len(bucket.Examples)) * split))
		if held >= len(bucket.Examples) {
			held = len(bucket.Examples) - 1
		}
		boundary := len(bucket.Examples) - held

		centroid := map[string]float64{}
		for _, text := range bucket.Examples[:boundary] {
			for token, weight := range vectorize(text) {
				centroid[token] += weight
			}
		}
		normalize(centroid)
		centroids[bucket.Label] = centroid

		for _, text := range bucket.Examples[boundary:] {
			validation = append(validation, holdout{text: text, label: bucket.Label})
		}
	}
	sort.Strings(labels)

	artifact := &TrainedArtifact{
		ModelType: "nearest-centroid",
		Labels:    labels,
		Centroids: centroids,
		TrainedAt: time.Now().UTC(),
	}

	accuracy := 100.0
	if len(validation) > 0 {
		correct := 0
		for _, sample := range validation {
			prediction := artifact.Predict(sample.text)
			if prediction.Label == sample.label {
				correct++
			}
		}
		accuracy = math.Round(float64(correct)/float64(len(validation))*10000) / 100
	}

	return artifact, accuracy, nil
}

// Predict scores text against every centroid and returns the winner plus up
// to two alternatives.
func (a *TrainedArtifact) Predict(text string) Prediction {
	vector := vectorize(text)
	normalize(vector)

	type scored struct {
		label string
		sim   float64
	}
	scores := make([]scored, 0, len(a.Centroids))
	total := 0.0
	for label, centroid := range a.Centroids {
		sim := dot(vector, centroid)
		scores = append(scores, scored{label: label, sim: sim})
		total += sim
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].sim != scores[j].sim {
			return scores[i].sim > scores[j].sim
		}
		return scores[i].label < scores[j].label
	})

	confidence := func(sim float64) float64 {
		if total == 0 {
			return math.Round(10000/float64(len(scores))) / 100
		}
		return math.Round(sim/total*10000) / 100
	}

	prediction := Prediction{
		Label:        scores[0].label,
		Confidence:   confidence(scores[0].sim),
		Alternatives: []Alternative{},
	}
	for _, s := range scores[1:] {
		if len(prediction.Alternatives) == 2 {
			break
		}
		prediction.Alternatives = append(prediction.Alternatives, Alternative{Label: s.label, Confidence: confidence(s.sim)})
	}
	return prediction
}

func newModelRef(filename, path string, artifact *TrainedArtifact, accuracy float64) models.ModelRef {
	trainedAt := artifact.TrainedAt
	return models.ModelRef{
		Filename:  filename,
		Path:      path,
		ModelType: artifact.ModelType,
		Accuracy:  &accuracy,
		Labels:    artifact.Labels,
		TrainedAt: &trainedAt,
	}
}

func vectorize(text string) map[string]float64 {
	vector := map[string]float64{}
	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,!?;:\"'()[]")
		if token == "" {
			continue
		}
		vector[token]++
	}
	return vector
}

func normalize(vector map[string]float64) {
	var norm float64
	for _, weight := range vector {
		norm += weight * weight
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for token := range vector {
		vector[token] /= norm
	}
}

func dot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	sum := 0.0
	for token, weight := range a {
		sum += weight * b[token]
	}
	return sum
}
