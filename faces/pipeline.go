package faces

import (
	"image"

	"go.uber.org/zap"
)

type PipelineConfig struct {
	Scale     float64 // live frames are downscaled by this factor before detection
	FaceSize  int
	Threshold float64 // predictions at or above it are discarded
	MaxPixels int     // frames declaring more pixels are refused, see Decode
	Detect    DetectParams
}

// Result of one frame. Coordinates and size are those of the downscaled frame.
type Result struct {
	Detections []Detection
	// Identities holds each accepted identity once, in the order first seen
	Identities []string
	ImageSize  ImageSize
}

// Pipeline runs a live frame through locate -> classify -> threshold. It holds no mutable state.
type Pipeline struct {
	model   *Model
	locator Locator
	cfg     PipelineConfig
	log     *zap.Logger
}

func NewPipeline(model *Model, locator Locator, cfg PipelineConfig, log *zap.Logger) *Pipeline {
	return &Pipeline{
		model:   model,
		locator: locator,
		cfg:     cfg,
		log:     log,
	}
}

func (p *Pipeline) Model() *Model {
	return p.model
}

// Process decodes an encoded frame and recognises the faces in it
func (p *Pipeline) Process(frame []byte) (Result, error) {
	img, err := Decode(frame, p.cfg.MaxPixels)
	if err != nil {
		return Result{}, err
	}
	return p.ProcessImage(img), nil
}

// ProcessImage never fails: backend errors are logged and the affected faces left out of the result
func (p *Pipeline) ProcessImage(img image.Image) Result {
	gray := ToGray(Downscale(img, p.cfg.Scale))
	bounds := gray.Bounds()
	result := Result{
		Detections: []Detection{},
		Identities: []string{},
		ImageSize: ImageSize{
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
		},
	}
	regions, err := p.locator.Locate(gray, p.cfg.Detect)
	if err != nil {
		p.log.Warn("face locator failed", zap.Error(err))
		return result
	}
	seen := map[string]bool{}
	for _, r := range regions {
		r = r.Intersect(bounds)
		face := NormalizeFace(gray, r, p.cfg.FaceSize)
		if face == nil {
			continue
		}
		label, confidence, err := p.model.Predict(face)
		if err != nil {
			p.log.Warn("face classifier failed", zap.Stringer("region", r), zap.Error(err))
			continue
		}
		// Written this way so that NaN is rejected as well
		if !(confidence < p.cfg.Threshold) {
			continue
		}
		id, ok := p.model.Identity(label)
		if !ok {
			continue
		}
		result.Detections = append(result.Detections, Detection{
			ID:     id,
			Left:   r.Min.X,
			Top:    r.Min.Y,
			Right:  r.Max.X,
			Bottom: r.Max.Y,
		})
		if !seen[id] {
			seen[id] = true
			result.Identities = append(result.Identities, id)
		}
	}
	return result
}
