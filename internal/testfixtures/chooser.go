package testfixtures

import "sync"

// SequenceChooser replays a fixed sequence of selection indexes, making
// random celebrant assignment deterministic in tests. Once the sequence is
// exhausted it keeps returning zero.
type SequenceChooser struct {
	mu       sync.Mutex
	sequence []int
	next     int
}

// NewSequenceChooser constructs a chooser replaying the given indexes.
func NewSequenceChooser(sequence ...int) *SequenceChooser {
	return &SequenceChooser{sequence: append([]int(nil), sequence...)}
}

// Choose returns the next index in the sequence, clamped to [0, n).
func (c *SequenceChooser) Choose(n int) int {
	if n <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.next >= len(c.sequence) {
		return 0
	}
	idx := c.sequence[c.next]
	c.next++
	if idx < 0 || idx >= n {
		return idx % n
	}
	return idx
}

// Func exposes Choose as a scheduling chooser function.
func (c *SequenceChooser) Func() func(n int) int {
	if c == nil {
		return func(int) int { return 0 }
	}
	return c.Choose
}
