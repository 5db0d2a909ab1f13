// Package chat drives one dialogue: it feeds user messages through the
// conversation buffer, asks the generation service for a reply and records
// the cleaned reply.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harpiechoise/SuperChargedChatBot/pkg/conversation"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/i18n"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/llm"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/llm/tokenizer"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/logging"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/types"
)

var debugLog = logging.MustComponent("chat")

// Command is a control word typed instead of a message.
type Command int

const (
	CommandNone  Command = iota // CommandNone means the input is a message.
	CommandExit                 // CommandExit ends the session.
	CommandReset                // CommandReset clears the transcript.
)

// Manager owns a dialogue session. Calls are serialized: a second Submit waits
// for the first to finish.
type Manager struct {
	id        string
	provider  llm.Provider
	buffer    *conversation.Buffer
	catalog   *i18n.Catalog
	timeout   time.Duration
	tokenizer *tokenizer.Tokenizer

	mu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithRequestTimeout bounds each reply request. Zero means no bound beyond
// the caller's context.
func WithRequestTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.timeout = d
	}
}

// WithTokenizer sets the tokenizer used to log prompt sizes.
func WithTokenizer(tok *tokenizer.Tokenizer) Option {
	return func(m *Manager) {
		m.tokenizer = tok
	}
}

// NewManager creates a session that talks to provider and keeps its history
// in buffer.
func NewManager(provider llm.Provider, buffer *conversation.Buffer, catalog *i18n.Catalog, opts ...Option) (*Manager, error) {
	if provider == nil {
		return nil, errors.New("chat: provider is required")
	}
	if buffer == nil {
		return nil, errors.New("chat: buffer is required")
	}
	if catalog == nil {
		return nil, errors.New("chat: catalog is required")
	}

	m := &Manager{
		id:       uuid.NewString(),
		provider: provider,
		buffer:   buffer,
		catalog:  catalog,
	}
	for _, opt := range opts {
		opt(m)
	}

	debugLog.Infof("session %s started: model=%s capacity=%d policy=%s",
		m.id, provider.GetModel(), buffer.Capacity(), buffer.PolicyName())
	return m, nil
}

// ID returns the session identifier.
func (m *Manager) ID() string {
	return m.id
}

// Submit records text as a user turn, requests a reply for the whole
// transcript and records the cleaned reply.
//
// Errors from the eviction policy or the generation service are returned
// unchanged. When the reply request fails the user turn stays in the
// transcript and no assistant turn is added.
func (m *Manager) Submit(ctx context.Context, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.buffer.AddHumanMessage(ctx, text); err != nil {
		debugLog.Errorf("session %s: failed to add message: %v", m.id, err)
		return "", err
	}

	prompt := m.buffer.RenderPrompt()
	debugLog.Debugf("session %s: prompt has %d turns, ~%d tokens",
		m.id, m.buffer.Len(), m.tokenizer.CountTurnsTokens(m.buffer.Turns()))

	raw, err := m.send(ctx, prompt)
	if err != nil {
		debugLog.Errorf("session %s: reply request failed: %v", m.id, err)
		return "", err
	}

	reply := CleanResponse(raw, m.buffer.Labels().Assistant)
	m.buffer.AddAssistantMessage(reply)
	return reply, nil
}

// Query sends text as-is and returns the raw reply. The transcript is not
// touched.
func (m *Manager) Query(ctx context.Context, text string) (string, error) {
	return m.send(ctx, text)
}

// Reset drops every turn except the preamble.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buffer.Reset()
	debugLog.Infof("session %s: transcript reset", m.id)
}

// Transcript returns a copy of the current turns.
func (m *Manager) Transcript() []types.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.buffer.Turns()
}

// ParseCommand reports whether input is one of the catalog's control words.
func (m *Manager) ParseCommand(input string) Command {
	word := strings.TrimSpace(input)
	if word == "" {
		return CommandNone
	}

	switch word {
	case m.catalog.Get(i18n.KeyExitCommand):
		return CommandExit
	case m.catalog.Get(i18n.KeyResetCommand):
		return CommandReset
	default:
		return CommandNone
	}
}

func (m *Manager) send(ctx context.Context, prompt string) (string, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := m.provider.Send(ctx, prompt)
	debugLog.Debugf("session %s: %s replied in %s", m.id, m.provider.GetModel(), time.Since(start).Round(time.Millisecond))
	return reply, err
}
