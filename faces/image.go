package faces

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrUndecodableFrame = errors.New("image data cannot be decoded")

// DefaultMaxPixels is the usual decompression bomb limit of image libraries (about 179 Mpx)
const DefaultMaxPixels = 178956970

// Decode accepts any registered format (JPEG, PNG, GIF, BMP, TIFF, WebP).
// Images declaring more than maxPixels pixels (DefaultMaxPixels if maxPixels <= 0) are refused
// from their header, before any pixel buffer is allocated.
func Decode(data []byte, maxPixels int) (image.Image, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Join(ErrUndecodableFrame, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUndecodableFrame, cfg.Width, cfg.Height, maxPixels)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Join(ErrUndecodableFrame, err)
	}
	return img, nil
}

// Downscale resizes both axes by factor, rounding to the nearest pixel (at least 1)
func Downscale(img image.Image, factor float64) image.Image {
	if factor == 1 {
		return img
	}
	b := img.Bounds()
	w := int(math.Max(1, math.Round(float64(b.Dx())*factor)))
	h := int(math.Max(1, math.Round(float64(b.Dy())*factor)))
	return resize.Resize(uint(w), uint(h), img, resize.Bilinear)
}

// ToGray returns img as a single channel image anchored at (0, 0)
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// NormalizeFace crops r out of img and scales it to size x size. Nil if r does not overlap img.
func NormalizeFace(img *image.Gray, r image.Rectangle, size int) *image.Gray {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return nil
	}
	crop := ToGray(img.SubImage(r))
	return ToGray(resize.Resize(uint(size), uint(size), crop, resize.Bilinear))
}
