package faces

import (
	"image"
	"sort"
)

// DetectParams tunes the face locator sensitivity
type DetectParams struct {
	ScaleFactor  float64 // how much the search window grows between scales
	MinNeighbors int     // overlapping candidates required before a region is reported
	MinSize      int     // smallest face side in pixels, 0 for no limit
}

// Locator finds candidate face regions in a grayscale image. Order of the result is unspecified.
// An error means the backend failed, not that the image has no face.
type Locator interface {
	Locate(img *image.Gray, params DetectParams) ([]image.Rectangle, error)
}

// Classifier scores a normalised face. Lower confidence means a closer match.
// Implementations must be safe for concurrent use once trained.
type Classifier interface {
	Predict(face *image.Gray) (label int, confidence float64, err error)
}

// Trainer fits a Classifier on normalised faces and their labels
type Trainer interface {
	Train(faces []*image.Gray, labels []int) (Classifier, error)
}

type Detection struct {
	ID     string `json:"id"`
	Left   int    `json:"left"`
	Top    int    `json:"top"`
	Right  int    `json:"right"`
	Bottom int    `json:"bottom"`
}

type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type IdentitySummary struct {
	Label    int
	Identity string
	Samples  int
}

// Model is the trained classifier with its label -> identity map. It is built once by Train
// and never modified afterwards, so every connection reads it without locking.
type Model struct {
	classifier Classifier
	labels     map[int]string
	samples    map[int]int
}

func NewModel(classifier Classifier, labels map[int]string, samples map[int]int) *Model {
	m := &Model{
		classifier: classifier,
		labels:     make(map[int]string, len(labels)),
		samples:    make(map[int]int, len(samples)),
	}
	for k, v := range labels {
		m.labels[k] = v
	}
	for k, v := range samples {
		m.samples[k] = v
	}
	return m
}

func (m *Model) Predict(face *image.Gray) (int, float64, error) {
	return m.classifier.Predict(face)
}

func (m *Model) Identity(label int) (string, bool) {
	id, ok := m.labels[label]
	return id, ok
}

// Identities returns the number of labels known to the model
func (m *Model) Identities() int {
	return len(m.labels)
}

// Summary lists labels in ascending order with the number of training samples each got
func (m *Model) Summary() []IdentitySummary {
	result := make([]IdentitySummary, 0, len(m.labels))
	for label, identity := range m.labels {
		result = append(result, IdentitySummary{
			Label:    label,
			Identity: identity,
			Samples:  m.samples[label],
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Label < result[j].Label
	})
	return result
}
