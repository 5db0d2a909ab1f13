// Package config loads the chatbot settings and builds the components they
// describe.
//
// Settings come from, in order of precedence: command line overrides,
// environment variables, the YAML config file and finally DefaultConfig.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harpiechoise/SuperChargedChatBot/pkg/conversation"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/logging"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/modules"
)

// Config represents the full chatbot configuration
type Config struct {
	LLM          LLMConfig          `yaml:"llm"`
	Conversation ConversationConfig `yaml:"conversation"`
	I18n         I18nConfig         `yaml:"i18n"`
	Modules      ModulesConfig      `yaml:"modules"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ModulesConfig locates optional task modules
type ModulesConfig struct {
	Dir          string        `yaml:"dir"`           // empty disables module routing
	Pattern      string        `yaml:"pattern"`       // glob over module directory names
	RouteBackoff time.Duration `yaml:"route_backoff"` // pause after each routing call
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Level is the minimum level written: debug, info, warn or error
	Level string `yaml:"level"`
}

// Overrides carries command line values. Zero values leave the loaded
// setting untouched.
type Overrides struct {
	Provider      string
	Model         string
	Language      string
	CatalogPath   string
	Capacity      int
	DiscardBeams  int
	Policy        string
	AssistantName string
	ModulesDir    string
	LogLevel      string
}

// DefaultPath returns ~/.superchargedchatbot/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".superchargedchatbot", "config.yaml"), nil
}

// DefaultConfig returns the settings the original chatbot used
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  ProviderOpenAI,
			Timeout:   60 * time.Second,
			MaxTokens: 1024,
		},
		Conversation: ConversationConfig{
			Capacity:              conversation.DefaultCapacity,
			DiscardBeams:          conversation.DefaultDiscardBeams,
			Policy:                PolicyFIFO,
			ClassificationBackoff: conversation.DefaultClassificationBackoff,
			AssistantName:         conversation.DefaultAssistantName,
		},
		Modules: ModulesConfig{
			Pattern:      "*",
			RouteBackoff: modules.DefaultRouteBackoff,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over DefaultConfig and applies the
// environment. An empty path means DefaultPath; a missing file is not an
// error. The result is not validated; call Validate after applying
// overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		debugLog.Debugf("no config file at %s, using defaults", path)
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides file settings with environment variables.
func (c *Config) ApplyEnv() {
	c.LLM.applyEnv()
}

// Apply overrides settings with non-zero command line values.
func (c *Config) Apply(o Overrides) {
	setString(&c.LLM.Provider, o.Provider)
	setString(&c.LLM.Model, o.Model)
	setString(&c.I18n.Language, o.Language)
	setString(&c.I18n.CatalogPath, o.CatalogPath)
	setString(&c.Conversation.Policy, o.Policy)
	setString(&c.Conversation.AssistantName, o.AssistantName)
	setString(&c.Modules.Dir, o.ModulesDir)
	setString(&c.Logging.Level, o.LogLevel)
	if o.Capacity != 0 {
		c.Conversation.Capacity = o.Capacity
	}
	if o.DiscardBeams != 0 {
		c.Conversation.DiscardBeams = o.DiscardBeams
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Conversation.Validate(); err != nil {
		return err
	}
	if c.Modules.RouteBackoff < 0 {
		return fmt.Errorf("modules.route_backoff cannot be negative")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging level: %w", err)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
