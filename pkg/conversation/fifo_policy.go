package conversation

import (
	"context"
)

// FIFOPolicy evicts the oldest turns after the preamble. It never calls out
// and never fails, which is why the buffer also uses it as the fallback when
// another policy misbehaves.
type FIFOPolicy struct{}

// NewFIFOPolicy creates a first-in-first-out policy.
func NewFIFOPolicy() *FIFOPolicy {
	return &FIFOPolicy{}
}

// Name returns the policy name
func (p *FIFOPolicy) Name() string {
	return "FIFO"
}

// SelectIndicesToEvict returns positions 1..count, clamped to the turns that
// exist after the preamble.
func (p *FIFOPolicy) SelectIndicesToEvict(_ context.Context, turns []string, count int) ([]int, error) {
	return oldestRemovable(len(turns), count), nil
}

// oldestRemovable returns the positions of the count oldest turns in a
// transcript of total turns, skipping the preamble at position 0. Asking for
// more than exist removes every removable turn.
func oldestRemovable(total, count int) []int {
	removable := total - 1
	if count > removable {
		count = removable
	}
	if count <= 0 {
		return nil
	}

	indices := make([]int, count)
	for i := range indices {
		indices[i] = i + 1
	}
	return indices
}
