package cmd

import (
	"fmt"
	"io"
	"strings"

	"attendance/config"
	"attendance/faces"
	"attendance/faces/dlib"
	"attendance/faces/opencv"
	"attendance/storage"
)

type backend struct {
	locator faces.Locator
	trainer faces.Trainer
	close   func()
}

func newBackend() (*backend, error) {
	switch strings.ToLower(config.FACE_BACKEND) {
	case "opencv", "":
		locator, err := opencv.NewCascadeLocator(config.CASCADE_FILE)
		if err != nil {
			return nil, err
		}
		return &backend{
			locator: locator,
			trainer: opencv.LBPHTrainer{},
			close:   func() { locator.Close() },
		}, nil
	case "dlib":
		rec, err := dlib.New(config.DLIB_MODELS_DIR, config.DLIB_TOLERANCE, log)
		if err != nil {
			return nil, err
		}
		return &backend{locator: rec, trainer: rec, close: rec.Close}, nil
	}
	return nil, fmt.Errorf("unknown face backend %q", config.FACE_BACKEND)
}

func referenceBucket() *storage.Bucket {
	if config.REFERENCE_S3_BUCKET != "" {
		return &storage.Bucket{
			StorageType: storage.StorageTypeS3,
			Name:        config.REFERENCE_S3_BUCKET,
			Path:        config.REFERENCE_S3_PREFIX,
			Region:      config.REFERENCE_S3_REGION,
			Endpoint:    config.REFERENCE_S3_ENDPOINT,
			AuthDetails: config.REFERENCE_S3_AUTH,
		}
	}
	return &storage.Bucket{
		StorageType: storage.StorageTypeFile,
		Path:        config.REFERENCE_DIR,
	}
}

func trainConfig() faces.TrainConfig {
	return faces.TrainConfig{
		FaceSize:  config.FACE_SIZE,
		MaxPixels: config.MAX_FRAME_PIXELS,
		Detect: faces.DetectParams{
			ScaleFactor:  config.TRAIN_SCALE_FACTOR,
			MinNeighbors: config.MIN_NEIGHBORS,
		},
	}
}

func pipelineConfig() faces.PipelineConfig {
	return faces.PipelineConfig{
		Scale:     config.FRAME_SCALE,
		FaceSize:  config.FACE_SIZE,
		Threshold: config.CONFIDENCE_THRESHOLD,
		MaxPixels: config.MAX_FRAME_PIXELS,
		Detect: faces.DetectParams{
			ScaleFactor:  config.LIVE_SCALE_FACTOR,
			MinNeighbors: config.MIN_NEIGHBORS,
		},
	}
}

// trainModel opens the reference store and trains the model, onImage may be nil
func trainModel(b *backend, onImage func(identity, name string, found int)) (*faces.Model, error) {
	store, err := storage.New(referenceBucket())
	if err != nil {
		return nil, err
	}
	cfg := trainConfig()
	cfg.OnImage = onImage
	return faces.Train(store, b.locator, b.trainer, cfg, log)
}

func printSummary(w io.Writer, model *faces.Model) {
	for _, s := range model.Summary() {
		fmt.Fprintf(w, "%4d  %-40s %d faces\n", s.Label, s.Identity, s.Samples)
	}
}
