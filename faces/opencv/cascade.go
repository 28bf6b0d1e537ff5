// Package opencv implements face location with a Haar cascade and identity classification
// with an LBPH recogniser, both through gocv.
package opencv

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"attendance/faces"

	"gocv.io/x/gocv"
)

var cascadeSearchPaths = []string{
	"/usr/local/share/opencv4/haarcascades",
	"/usr/share/opencv4/haarcascades",
	"/opt/homebrew/share/opencv4/haarcascades",
}

// CascadeLocator wraps a Haar cascade. detectMultiScale reuses internal buffers, so calls are serialised.
type CascadeLocator struct {
	mutex      sync.Mutex
	classifier gocv.CascadeClassifier
}

// NewCascadeLocator loads file as given, or by its base name from the usual OpenCV install locations
func NewCascadeLocator(file string) (*CascadeLocator, error) {
	classifier := gocv.NewCascadeClassifier()
	for _, path := range cascadeCandidates(file) {
		if classifier.Load(path) {
			return &CascadeLocator{classifier: classifier}, nil
		}
	}
	classifier.Close()
	return nil, fmt.Errorf("failed to load face cascade classifier %s", file)
}

func cascadeCandidates(file string) []string {
	candidates := []string{file}
	if _, err := os.Stat(file); err == nil {
		return candidates
	}
	for _, dir := range cascadeSearchPaths {
		candidates = append(candidates, filepath.Join(dir, filepath.Base(file)))
	}
	return candidates
}

func (l *CascadeLocator) Locate(img *image.Gray, params faces.DetectParams) ([]image.Rectangle, error) {
	mat, err := gocv.ImageGrayToMatGray(img)
	if err != nil {
		return nil, fmt.Errorf("opencv: converting frame: %w", err)
	}
	defer mat.Close()

	minSize := image.Point{}
	if params.MinSize > 0 {
		minSize = image.Pt(params.MinSize, params.MinSize)
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.classifier.DetectMultiScaleWithParams(mat, params.ScaleFactor, params.MinNeighbors, 0, minSize, image.Point{}), nil
}

func (l *CascadeLocator) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.classifier.Close()
}
