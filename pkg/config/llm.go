package config

import (
	"fmt"
	"os"
	"time"

	"github.com/harpiechoise/SuperChargedChatBot/pkg/llm"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/llm/anthropic"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/llm/openai"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/logging"
)

var debugLog = logging.MustComponent("config")

// Supported generation backends.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// LegacyAPIKeyEnv is read when no provider specific key is set.
const LegacyAPIKeyEnv = "CHATAPI"

// LLMConfig selects and configures the generation backend
type LLMConfig struct {
	Provider  string        `yaml:"provider"`
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int64         `yaml:"max_tokens"` // anthropic only
}

func (c *LLMConfig) applyEnv() {
	var keyEnv string
	switch c.Provider {
	case ProviderAnthropic:
		keyEnv = "ANTHROPIC_API_KEY"
	default:
		keyEnv = "OPENAI_API_KEY"
		setString(&c.BaseURL, os.Getenv("OPENAI_BASE_URL"))
	}

	if key := os.Getenv(keyEnv); key != "" {
		c.APIKey = key
	} else if c.APIKey == "" {
		c.APIKey = os.Getenv(LegacyAPIKeyEnv)
	}
}

// Validate checks the backend settings.
func (c *LLMConfig) Validate() error {
	if c.Provider != ProviderOpenAI && c.Provider != ProviderAnthropic {
		return fmt.Errorf("invalid llm.provider: %s (must be '%s' or '%s')", c.Provider, ProviderOpenAI, ProviderAnthropic)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("llm.timeout cannot be negative")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("llm.max_tokens cannot be negative")
	}
	return nil
}

// BuildProvider creates the configured generation gateway.
func BuildProvider(c LLMConfig) (llm.Provider, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("API key is required. Set %s, the provider's API key variable, or llm.api_key in the config file", LegacyAPIKeyEnv)
	}

	switch c.Provider {
	case ProviderOpenAI:
		opts := []openai.ProviderOption{openai.WithTimeout(c.Timeout)}
		if c.Model != "" {
			opts = append(opts, openai.WithModel(c.Model))
		}
		if c.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(c.BaseURL))
		}
		provider, err := openai.NewProvider(c.APIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM provider: %w", err)
		}
		return provider, nil

	case ProviderAnthropic:
		opts := []anthropic.ProviderOption{anthropic.WithTimeout(c.Timeout)}
		if c.Model != "" {
			opts = append(opts, anthropic.WithModel(c.Model))
		}
		if c.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(c.BaseURL))
		}
		if c.MaxTokens > 0 {
			opts = append(opts, anthropic.WithMaxTokens(c.MaxTokens))
		}
		provider, err := anthropic.NewProvider(c.APIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM provider: %w", err)
		}
		return provider, nil

	default:
		return nil, fmt.Errorf("unknown llm provider %q", c.Provider)
	}
}
