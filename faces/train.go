package faces

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"attendance/storage"

	"go.uber.org/zap"
)

// ErrNoTrainingSamples means not a single face was found in the reference images.
// There is no model to serve with, so the process must not start.
var ErrNoTrainingSamples = errors.New("no usable face found in the reference images")

// ReferenceStore is the read side of storage.ReferenceAPI that training needs
type ReferenceStore interface {
	Identities() ([]string, error)
	Images(dir string) ([]string, error)
	Load(dir, name string, writer io.Writer) (int64, error)
}

type TrainConfig struct {
	FaceSize  int
	MaxPixels int // reference images above it are skipped, see Decode
	Detect    DetectParams
	// OnImage, if set, is called once per reference image after it has been handled
	OnImage func(identity, name string, found int)
}

// Train builds the model from the reference store. Each identity directory gets the next label in
// enumeration order, and every face found in its images becomes a training sample.
func Train(store ReferenceStore, locator Locator, trainer Trainer, cfg TrainConfig, log *zap.Logger) (*Model, error) {
	dirs, err := store.Identities()
	if err != nil {
		return nil, fmt.Errorf("listing reference identities: %w", err)
	}
	labels := make(map[int]string, len(dirs))
	samples := make(map[int]int, len(dirs))
	var (
		faces      []*image.Gray
		faceLabels []int
	)
	for label, dir := range dirs {
		identity := storage.IdentityFromDir(dir)
		labels[label] = identity

		names, err := store.Images(dir)
		if err != nil {
			log.Warn("cannot list reference images", zap.String("identity", identity), zap.Error(err))
			continue
		}
		for _, name := range names {
			found := 0
			img, err := loadGray(store, dir, name, cfg.MaxPixels)
			if err != nil {
				log.Debug("skipping unreadable reference image", zap.String("identity", identity), zap.String("image", name), zap.Error(err))
			} else if regions, err := locator.Locate(img, cfg.Detect); err != nil {
				log.Warn("face locator failed on reference image", zap.String("identity", identity), zap.String("image", name), zap.Error(err))
			} else {
				for _, r := range regions {
					face := NormalizeFace(img, r, cfg.FaceSize)
					if face == nil {
						continue
					}
					faces = append(faces, face)
					faceLabels = append(faceLabels, label)
					found++
				}
			}
			samples[label] += found
			if cfg.OnImage != nil {
				cfg.OnImage(identity, name, found)
			}
		}
		log.Debug("reference identity loaded",
			zap.Int("label", label),
			zap.String("identity", identity),
			zap.Int("images", len(names)),
			zap.Int("faces", samples[label]))
	}
	if len(faces) == 0 {
		return nil, ErrNoTrainingSamples
	}
	classifier, err := trainer.Train(faces, faceLabels)
	if err != nil {
		return nil, fmt.Errorf("training classifier: %w", err)
	}
	log.Info("model trained", zap.Int("identities", len(labels)), zap.Int("samples", len(faces)))
	return NewModel(classifier, labels, samples), nil
}

func loadGray(store ReferenceStore, dir, name string, maxPixels int) (*image.Gray, error) {
	buf := bytes.Buffer{}
	if _, err := store.Load(dir, name, &buf); err != nil {
		return nil, err
	}
	img, err := Decode(buf.Bytes(), maxPixels)
	if err != nil {
		return nil, err
	}
	return ToGray(img), nil
}
