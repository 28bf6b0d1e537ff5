// Package dlib locates and classifies faces with dlib's HOG detector and ResNet descriptors (go-face).
// Classification is a nearest neighbour search over the reference descriptors.
package dlib

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"sync"

	"attendance/faces"

	"github.com/Kagami/go-face"
	"go.uber.org/zap"
)

var errNoFace = errors.New("dlib: no face in image")

// Recognizer is both the locator and the trainer of the dlib backend.
// The underlying dlib recognizer is not safe for concurrent use, so every call goes through mutex.
type Recognizer struct {
	mutex     sync.Mutex
	rec       *face.Recognizer
	tolerance float64
	log       *zap.Logger
}

// New loads the dlib models from modelsDir. A descriptor distance equal to tolerance
// is reported as a confidence of 100.
func New(modelsDir string, tolerance float64, log *zap.Logger) (*Recognizer, error) {
	if tolerance <= 0 {
		return nil, fmt.Errorf("dlib tolerance must be positive, got %v", tolerance)
	}
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("loading dlib models from %s: %w", modelsDir, err)
	}
	return &Recognizer{rec: rec, tolerance: tolerance, log: log}, nil
}

func (r *Recognizer) Close() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.rec.Close()
}

// Locate ignores params, dlib's HOG detector has no equivalent knobs
func (r *Recognizer) Locate(img *image.Gray, _ faces.DetectParams) ([]image.Rectangle, error) {
	data, err := encodeJPEG(img)
	if err != nil {
		return nil, err
	}
	r.mutex.Lock()
	found, err := r.rec.Recognize(data)
	r.mutex.Unlock()
	if err != nil {
		return nil, fmt.Errorf("dlib: recognize: %w", err)
	}
	result := make([]image.Rectangle, 0, len(found))
	for _, f := range found {
		result = append(result, f.Rectangle)
	}
	return result, nil
}

// descriptor fails with errNoFace when dlib finds nothing to describe
func (r *Recognizer) descriptor(img *image.Gray) ([]float32, error) {
	data, err := encodeJPEG(img)
	if err != nil {
		return nil, err
	}
	r.mutex.Lock()
	f, err := r.rec.RecognizeSingle(data)
	r.mutex.Unlock()
	if err != nil {
		return nil, fmt.Errorf("dlib: recognize single: %w", err)
	}
	if f == nil {
		return nil, errNoFace
	}
	return f.Descriptor[:], nil
}

// Train indexes one descriptor per sample. Samples dlib cannot describe are dropped.
func (r *Recognizer) Train(samples []*image.Gray, labels []int) (faces.Classifier, error) {
	if len(samples) != len(labels) {
		return nil, errors.New("dlib: samples and labels must be of equal length")
	}
	index := faces.NewDescriptorIndex(r.tolerance)
	for i, s := range samples {
		vec, err := r.descriptor(s)
		if err != nil {
			r.log.Debug("dropping training sample", zap.Int("sample", i), zap.Int("label", labels[i]), zap.Error(err))
			continue
		}
		index.Add(labels[i], vec)
	}
	if index.Len() == 0 {
		return nil, errors.New("dlib: no descriptor could be computed for the training samples")
	}
	if dropped := len(samples) - index.Len(); dropped > 0 {
		r.log.Warn("some training samples have no dlib descriptor", zap.Int("dropped", dropped), zap.Int("kept", index.Len()))
	}
	return &descriptorClassifier{recognizer: r, index: index}, nil
}

type descriptorClassifier struct {
	recognizer *Recognizer
	index      *faces.DescriptorIndex
}

// Predict reports a face dlib cannot describe as no match rather than as an error
func (c *descriptorClassifier) Predict(img *image.Gray) (int, float64, error) {
	vec, err := c.recognizer.descriptor(img)
	if errors.Is(err, errNoFace) {
		return -1, math.Inf(1), nil
	}
	if err != nil {
		return -1, math.Inf(1), err
	}
	label, confidence := c.index.Nearest(vec)
	return label, confidence, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	buf := bytes.Buffer{}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("dlib: encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
