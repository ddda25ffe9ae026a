package index

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Memory is a brute-force in-memory index scoring entries by cosine
// similarity. Magnitudes are precomputed at insert time.
type Memory struct {
	entries    []Entry
	magnitudes []float64
}

// NewMemory creates an empty in-memory index.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Add(_ context.Context, entries []Entry) error {
	for _, e := range entries {
		if len(m.entries) > 0 && len(e.Vector) != len(m.entries[0].Vector) {
			return fmt.Errorf("memory index: vector dim %d != %d", len(e.Vector), len(m.entries[0].Vector))
		}
		m.entries = append(m.entries, e)
		m.magnitudes = append(m.magnitudes, magnitude(e.Vector))
	}
	return nil
}

// Query returns up to k entries ordered by descending cosine similarity
// to vector. Ties keep insertion order.
func (m *Memory) Query(_ context.Context, vector []float32, k int) ([]Entry, error) {
	if k <= 0 || len(m.entries) == 0 {
		return nil, nil
	}
	qm := magnitude(vector)
	if qm == 0 {
		return nil, nil
	}
	scores := make([]float64, len(m.entries))
	order := make([]int, len(m.entries))
	for i := range m.entries {
		order[i] = i
		if m.magnitudes[i] == 0 {
			scores[i] = math.Inf(-1)
			continue
		}
		s := dot(vector, m.entries[i].Vector) / (qm * m.magnitudes[i])
		if math.IsNaN(s) {
			s = math.Inf(-1)
		}
		scores[i] = s
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	if k > len(order) {
		k = len(order)
	}
	out := make([]Entry, 0, k)
	for _, i := range order[:k] {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *Memory) Close(context.Context) error {
	m.entries, m.magnitudes = nil, nil
	return nil
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func magnitude(v []float32) float64 { return math.Sqrt(dot(v, v)) }
