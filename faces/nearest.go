package faces

import (
	"math"
	"sync"

	"github.com/coder/hnsw"
)

// DescriptorIndex maps face descriptors to labels and answers nearest neighbour queries.
// Confidence is the euclidean distance to the nearest sample scaled so that tolerance reads as 100.
type DescriptorIndex struct {
	mutex     sync.Mutex
	graph     *hnsw.Graph[int]
	labels    map[int]int
	tolerance float64
}

func NewDescriptorIndex(tolerance float64) *DescriptorIndex {
	g := hnsw.NewGraph[int]()
	g.Distance = hnsw.EuclideanDistance
	return &DescriptorIndex{
		graph:     g,
		labels:    map[int]int{},
		tolerance: tolerance,
	}
}

// Add indexes one descriptor of label
func (x *DescriptorIndex) Add(label int, descriptor []float32) {
	x.mutex.Lock()
	defer x.mutex.Unlock()
	key := len(x.labels)
	vec := make(hnsw.Vector, len(descriptor))
	copy(vec, descriptor)
	x.graph.Add(hnsw.MakeNode(key, vec))
	x.labels[key] = label
}

func (x *DescriptorIndex) Len() int {
	x.mutex.Lock()
	defer x.mutex.Unlock()
	return x.graph.Len()
}

// Nearest returns the label of the closest descriptor, or -1 and +Inf on an empty index
func (x *DescriptorIndex) Nearest(descriptor []float32) (int, float64) {
	x.mutex.Lock()
	defer x.mutex.Unlock()
	if x.graph.Len() == 0 {
		return -1, math.Inf(1)
	}
	nearest := x.graph.Search(descriptor, 1)
	if len(nearest) == 0 {
		return -1, math.Inf(1)
	}
	distance := float64(x.graph.Distance(descriptor, nearest[0].Value))
	return x.labels[nearest[0].Key], distance / x.tolerance * 100
}
