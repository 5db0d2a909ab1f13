package conversation

import (
	"context"
)

// Policy decides which turns to forget when the transcript is full.
// Each policy implements one approach to choosing the least useful context.
type Policy interface {
	// Name returns the policy's identifier for logging and debugging.
	Name() string

	// SelectIndicesToEvict receives every turn of the transcript rendered as
	// "{label}: {text}" (oldest first, the preamble at position 0) and the
	// number of turns the buffer wants removed. It returns 0-based positions
	// into turns.
	//
	// The result is advisory: the buffer ignores positions that are out of
	// range or point at the preamble, and falls back to oldest-first eviction
	// when the result is larger than count or has nothing usable. Returning
	// ErrPolicyDeferred requests the fallback explicitly. Any other error is
	// propagated to the caller of AddHumanMessage.
	SelectIndicesToEvict(ctx context.Context, turns []string, count int) ([]int, error)
}
