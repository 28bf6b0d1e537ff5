package opencv

import (
	"errors"
	"fmt"
	"image"
	"math"

	"attendance/faces"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"
)

// LBPHTrainer fits an OpenCV LBPH face recogniser. Its prediction distance is the confidence:
// 0 for an identical histogram, typically below 100 for the same person.
type LBPHTrainer struct{}

func (LBPHTrainer) Train(samples []*image.Gray, labels []int) (faces.Classifier, error) {
	if len(samples) == 0 || len(samples) != len(labels) {
		return nil, errors.New("lbph: samples and labels must be non-empty and of equal length")
	}
	mats := make([]gocv.Mat, 0, len(samples))
	defer func() {
		for _, m := range mats {
			m.Close()
		}
	}()
	for _, s := range samples {
		m, err := gocv.ImageGrayToMatGray(s)
		if err != nil {
			return nil, fmt.Errorf("opencv: converting sample: %w", err)
		}
		mats = append(mats, m)
	}
	recognizer := contrib.NewLBPHFaceRecognizer()
	recognizer.Train(mats, labels)
	return &LBPHClassifier{recognizer: recognizer}, nil
}

// LBPHClassifier only calls the const predict path of the trained recogniser,
// which is safe to share between connections.
type LBPHClassifier struct {
	recognizer *contrib.LBPHFaceRecognizer
}

func (c *LBPHClassifier) Predict(face *image.Gray) (int, float64, error) {
	m, err := gocv.ImageGrayToMatGray(face)
	if err != nil {
		return -1, math.Inf(1), fmt.Errorf("opencv: converting face: %w", err)
	}
	defer m.Close()
	resp := c.recognizer.PredictExtendedResponse(m)
	return int(resp.Label), float64(resp.Confidence), nil
}
