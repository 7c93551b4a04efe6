package domain

import (
	"math/rand/v2"
	"sync"
)

// DriftSelector picks which participant absorbs the next unit of rounding drift.
// Pick receives the participant count and returns an index in [0, n).
type DriftSelector interface {
	Pick(n int) int
}

// RandomSelector picks uniformly at random.
type RandomSelector struct{}

// NewRandomSelector creates a RandomSelector.
func NewRandomSelector() *RandomSelector {
	return &RandomSelector{}
}

// Pick returns a uniformly distributed index.
func (RandomSelector) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return rand.IntN(n)
}

// SequenceSelector replays a fixed list of indices, wrapping around at the end.
// An empty sequence always picks the first participant.
type SequenceSelector struct {
	mu      sync.Mutex
	indices []int
	pos     int
}

// NewSequenceSelector creates a SequenceSelector over indices.
func NewSequenceSelector(indices ...int) *SequenceSelector {
	return &SequenceSelector{indices: append([]int(nil), indices...)}
}

// Pick returns the next index in the sequence, reduced modulo n.
func (s *SequenceSelector) Pick(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.indices) == 0 || n <= 0 {
		return 0
	}

	i := s.indices[s.pos%len(s.indices)]
	s.pos++

	return normalizeIndex(i, n)
}
