package faces

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"
)

// fixedLocator reports the same regions (or err) for every image and remembers what it was asked
type fixedLocator struct {
	mutex  sync.Mutex
	rects  []image.Rectangle
	err    error
	sizes  []image.Point
	params []DetectParams
}

func (l *fixedLocator) Locate(img *image.Gray, params DetectParams) ([]image.Rectangle, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.sizes = append(l.sizes, img.Bounds().Size())
	l.params = append(l.params, params)
	if l.err != nil {
		return nil, l.err
	}
	return l.rects, nil
}

type prediction struct {
	label      int
	confidence float64
	err        error
}

// scriptedClassifier answers predictions in call order, cycling over the script
type scriptedClassifier struct {
	mutex  sync.Mutex
	script []prediction
	calls  int
}

func (c *scriptedClassifier) Predict(face *image.Gray) (int, float64, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	p := c.script[c.calls%len(c.script)]
	c.calls++
	return p.label, p.confidence, p.err
}

type recordingTrainer struct {
	faces  []*image.Gray
	labels []int
	err    error
}

func (t *recordingTrainer) Train(faces []*image.Gray, labels []int) (Classifier, error) {
	t.faces = faces
	t.labels = labels
	if t.err != nil {
		return nil, t.err
	}
	return &scriptedClassifier{script: []prediction{{0, 0, nil}}}, nil
}

// memoryStore is a ReferenceStore kept in memory, directories in the given order
type memoryStore struct {
	dirs   []string
	images map[string]map[string][]byte
}

func (s *memoryStore) Identities() ([]string, error) {
	return s.dirs, nil
}

func (s *memoryStore) Images(dir string) (result []string, err error) {
	files, ok := s.images[dir]
	if !ok {
		return nil, fmt.Errorf("no such directory %s", dir)
	}
	for name := range files {
		result = append(result, name)
	}
	return result, nil
}

func (s *memoryStore) Load(dir, name string, writer io.Writer) (int64, error) {
	n, err := writer.Write(s.images[dir][name])
	return int64(n), err
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	buf := bytes.Buffer{}
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
