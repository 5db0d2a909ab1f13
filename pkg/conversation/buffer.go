// Package conversation keeps the bounded transcript of a dialogue and decides
// which turns to forget when it is full.
//
// The Buffer owns an ordered list of turns that always starts with the
// persona preamble. Appending a human turn to a full buffer first evicts
// turns, either oldest-first or as chosen by a pluggable Policy. Policies are
// not trusted blindly: a selection that is larger than requested, or that
// names nothing usable, is replaced by oldest-first eviction.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/harpiechoise/SuperChargedChatBot/pkg/i18n"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/logging"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/types"
)

var debugLog = logging.MustComponent("conversation")

const (
	DefaultCapacity      = 10    // DefaultCapacity is the transcript size used by the original chatbot.
	DefaultDiscardBeams  = 1     // DefaultDiscardBeams is how many turns one eviction pass removes.
	DefaultAssistantName = "Bot" // DefaultAssistantName names the persona when none is configured.
)

// EvictionEvent describes one eviction pass.
type EvictionEvent struct {
	Policy    string       // policy consulted, "" when none is configured
	Requested int          // turns asked for
	Selected  []int        // positions returned by the policy, nil when not consulted
	Removed   []types.Turn // turns actually removed, oldest first
	Fallback  bool         // oldest-first eviction was applied instead of the selection
	Reason    string       // why the fallback fired
}

// Buffer is a fixed-capacity transcript. It is not safe for concurrent use:
// a dialogue session drives it strictly sequentially.
type Buffer struct {
	capacity      int
	discardBeams  int
	assistantName string
	policy        Policy
	labels        types.Labels
	preamble      types.Turn
	turns         []types.Turn
	onEvict       func(EvictionEvent)
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithPolicy sets the eviction policy. A nil policy means oldest-first.
func WithPolicy(policy Policy) Option {
	return func(b *Buffer) {
		b.policy = policy
	}
}

// WithDiscardBeams sets how many turns each eviction pass asks to remove.
func WithDiscardBeams(n int) Option {
	return func(b *Buffer) {
		b.discardBeams = n
	}
}

// WithAssistantName sets the persona name used in the preamble and the
// assistant label.
func WithAssistantName(name string) Option {
	return func(b *Buffer) {
		b.assistantName = name
	}
}

// WithEvictionHook registers a callback invoked after every eviction pass.
func WithEvictionHook(hook func(EvictionEvent)) Option {
	return func(b *Buffer) {
		b.onEvict = hook
	}
}

// NewBuffer creates a buffer holding at most capacity turns, preamble
// included. The preamble and role labels come from catalog.
//
// Returns an error wrapping ErrConfiguration when capacity leaves no room
// for a turn besides the preamble, or when the discard count is not between
// 1 and capacity-1.
func NewBuffer(catalog *i18n.Catalog, capacity int, opts ...Option) (*Buffer, error) {
	b := &Buffer{
		capacity:      capacity,
		discardBeams:  DefaultDiscardBeams,
		assistantName: DefaultAssistantName,
	}
	for _, opt := range opts {
		opt(b)
	}

	if catalog == nil {
		return nil, &ConfigError{Field: "catalog", Reason: "is required"}
	}
	if err := catalog.Require(i18n.KeyPersonaPrompt, i18n.KeySystemLabel, i18n.KeyHumanLabel, i18n.KeyAssistantLabel); err != nil {
		return nil, &ConfigError{Field: "catalog", Reason: err.Error()}
	}
	if capacity < 2 {
		return nil, &ConfigError{Field: "capacity", Reason: fmt.Sprintf("must be at least 2 (preamble plus one turn), got %d", capacity)}
	}
	if b.discardBeams < 1 {
		return nil, &ConfigError{Field: "discard_beams", Reason: fmt.Sprintf("must be at least 1, got %d", b.discardBeams)}
	}
	if b.discardBeams > capacity-1 {
		return nil, &ConfigError{Field: "discard_beams", Reason: fmt.Sprintf("asks for %d turns but capacity %d holds at most %d removable turns", b.discardBeams, capacity, capacity-1)}
	}

	vars := map[string]string{"name": b.assistantName}
	b.labels = types.Labels{
		System:    catalog.Format(i18n.KeySystemLabel, vars),
		Human:     catalog.Format(i18n.KeyHumanLabel, vars),
		Assistant: catalog.Format(i18n.KeyAssistantLabel, vars),
	}
	b.preamble = types.NewSystemTurn(catalog.Format(i18n.KeyPersonaPrompt, vars))
	b.turns = []types.Turn{b.preamble}

	return b, nil
}

// AddHumanMessage appends a user turn, evicting first when the buffer is
// full. If the policy fails the error is returned and the transcript is left
// unchanged.
func (b *Buffer) AddHumanMessage(ctx context.Context, text string) error {
	if len(b.turns) >= b.capacity {
		if err := b.evict(ctx); err != nil {
			return err
		}
	}
	b.turns = append(b.turns, types.NewHumanTurn(text))
	return nil
}

// AddAssistantMessage appends a reply. Replies are never held back; if the
// append overflows the capacity the oldest turns are trimmed without
// consulting the policy, and the trim is reported as a fallback eviction.
func (b *Buffer) AddAssistantMessage(text string) {
	b.turns = append(b.turns, types.NewAssistantTurn(text))

	if over := len(b.turns) - b.capacity; over > 0 {
		removed := b.removeOldest(over)
		debugLog.Debugf("assistant reply overflowed capacity %d, trimmed %d oldest turns", b.capacity, len(removed))
		b.emit(EvictionEvent{
			Requested: over,
			Removed:   removed,
			Fallback:  true,
			Reason:    "assistant reply overflow",
		})
	}
}

// RenderPrompt joins every turn as "{label}: {text}", one per line.
func (b *Buffer) RenderPrompt() string {
	return strings.Join(b.renderedTurns(), "\n")
}

// Reset drops every turn except the preamble.
func (b *Buffer) Reset() {
	b.turns = []types.Turn{b.preamble}
}

// Turns returns a copy of the transcript.
func (b *Buffer) Turns() []types.Turn {
	return slices.Clone(b.turns)
}

// Len returns the number of turns, preamble included.
func (b *Buffer) Len() int {
	return len(b.turns)
}

// Capacity returns the maximum number of turns.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// DiscardBeams returns how many turns an eviction pass asks to remove.
func (b *Buffer) DiscardBeams() int {
	return b.discardBeams
}

// Labels returns the role labels used for rendering.
func (b *Buffer) Labels() types.Labels {
	return b.labels
}

// Preamble returns the system turn the transcript starts with.
func (b *Buffer) Preamble() types.Turn {
	return b.preamble
}

// PolicyName returns the configured policy name, or "FIFO" when none is set.
func (b *Buffer) PolicyName() string {
	if b.policy == nil {
		return "FIFO"
	}
	return b.policy.Name()
}

// evict runs one eviction pass of discardBeams turns.
func (b *Buffer) evict(ctx context.Context) error {
	excess := b.discardBeams
	event := EvictionEvent{Requested: excess}

	if b.policy == nil {
		event.Removed = b.removeOldest(excess)
		b.emit(event)
		return nil
	}
	event.Policy = b.policy.Name()

	selected, err := b.policy.SelectIndicesToEvict(ctx, b.renderedTurns(), excess)
	if err != nil {
		if !errors.Is(err, ErrPolicyDeferred) {
			debugLog.Errorf("policy %s failed: %v", event.Policy, err)
			return fmt.Errorf("eviction policy %s failed: %w", event.Policy, err)
		}
		b.fallback(&event, "policy deferred")
		return nil
	}

	selected = dedupe(selected)
	event.Selected = selected

	// A selection larger than requested would discard more context than
	// configured; none of it is applied.
	if len(selected) > excess {
		b.fallback(&event, fmt.Sprintf("policy returned %d positions for %d requested", len(selected), excess))
		return nil
	}

	usable := make([]int, 0, len(selected))
	for _, i := range selected {
		if i >= 1 && i < len(b.turns) {
			usable = append(usable, i)
		}
	}
	if len(usable) == 0 {
		b.fallback(&event, fmt.Sprintf("no usable positions in %v", selected))
		return nil
	}

	event.Removed = b.removeAt(usable)
	debugLog.Debugf("policy %s removed positions %v", event.Policy, usable)
	b.emit(event)
	return nil
}

func (b *Buffer) fallback(event *EvictionEvent, reason string) {
	debugLog.Warnf("eviction fallback to oldest-first: %s", reason)
	event.Fallback = true
	event.Reason = reason
	event.Removed = b.removeOldest(event.Requested)
	b.emit(*event)
}

// removeOldest removes up to count turns after the preamble.
func (b *Buffer) removeOldest(count int) []types.Turn {
	return b.removeAt(oldestRemovable(len(b.turns), count))
}

// removeAt removes the turns at the given in-range positions. Positions are
// deleted from the highest down so earlier deletions do not shift later ones.
func (b *Buffer) removeAt(positions []int) []types.Turn {
	if len(positions) == 0 {
		return nil
	}
	sorted := slices.Clone(positions)
	slices.Sort(sorted)

	removed := make([]types.Turn, len(sorted))
	for i, pos := range sorted {
		removed[i] = b.turns[pos]
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		b.turns = slices.Delete(b.turns, sorted[i], sorted[i]+1)
	}
	return removed
}

func (b *Buffer) renderedTurns() []string {
	lines := make([]string, len(b.turns))
	for i, t := range b.turns {
		lines[i] = b.labels.Render(t)
	}
	return lines
}

func (b *Buffer) emit(event EvictionEvent) {
	if b.onEvict != nil {
		b.onEvict(event)
	}
}

func dedupe(indices []int) []int {
	if len(indices) < 2 {
		return indices
	}
	seen := make(map[int]bool, len(indices))
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	return out
}
