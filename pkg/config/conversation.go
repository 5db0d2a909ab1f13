package config

import (
	"fmt"
	"time"

	"github.com/harpiechoise/SuperChargedChatBot/pkg/conversation"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/i18n"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/llm"
)

// Eviction policy names accepted in conversation.policy.
const (
	PolicyFIFO     = "fifo"
	PolicyZeroShot = "zero_shot"
)

// ConversationConfig sizes the transcript and picks the eviction policy
type ConversationConfig struct {
	Capacity              int           `yaml:"capacity"`
	DiscardBeams          int           `yaml:"discard_beams"`
	Policy                string        `yaml:"policy"`
	ClassificationBackoff time.Duration `yaml:"classification_backoff"`
	AssistantName         string        `yaml:"assistant_name"`
}

// Validate checks the transcript settings.
func (c *ConversationConfig) Validate() error {
	if c.Capacity < 2 {
		return fmt.Errorf("conversation.capacity must be at least 2, got %d", c.Capacity)
	}
	if c.DiscardBeams < 1 || c.DiscardBeams > c.Capacity-1 {
		return fmt.Errorf("conversation.discard_beams must be between 1 and %d, got %d", c.Capacity-1, c.DiscardBeams)
	}
	if c.Policy != PolicyFIFO && c.Policy != PolicyZeroShot {
		return fmt.Errorf("invalid conversation.policy: %s (must be '%s' or '%s')", c.Policy, PolicyFIFO, PolicyZeroShot)
	}
	if c.ClassificationBackoff < 0 {
		return fmt.Errorf("conversation.classification_backoff cannot be negative")
	}
	if c.AssistantName == "" {
		return fmt.Errorf("conversation.assistant_name cannot be empty")
	}
	return nil
}

// BuildPolicy creates the configured eviction policy. The zero-shot policy
// classifies through provider.
func BuildPolicy(c ConversationConfig, provider llm.Provider, catalog *i18n.Catalog) (conversation.Policy, error) {
	switch c.Policy {
	case PolicyFIFO:
		return conversation.NewFIFOPolicy(), nil
	case PolicyZeroShot:
		return conversation.NewZeroShotPolicy(provider, catalog, conversation.WithBackoff(c.ClassificationBackoff))
	default:
		return nil, fmt.Errorf("unknown eviction policy %q", c.Policy)
	}
}

// BuildBuffer creates the transcript buffer with the configured policy.
func BuildBuffer(c ConversationConfig, provider llm.Provider, catalog *i18n.Catalog, opts ...conversation.Option) (*conversation.Buffer, error) {
	policy, err := BuildPolicy(c, provider, catalog)
	if err != nil {
		return nil, err
	}

	all := append([]conversation.Option{
		conversation.WithPolicy(policy),
		conversation.WithDiscardBeams(c.DiscardBeams),
		conversation.WithAssistantName(c.AssistantName),
	}, opts...)
	return conversation.NewBuffer(catalog, c.Capacity, all...)
}
