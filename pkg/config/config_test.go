package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harpiechoise/SuperChargedChatBot/pkg/conversation"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/i18n"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/llm"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/llm/anthropic"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/llm/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable the config reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "OPENAI_BASE_URL", "ANTHROPIC_API_KEY", LegacyAPIKeyEnv} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, 10, cfg.Conversation.Capacity)
	assert.Equal(t, 1, cfg.Conversation.DiscardBeams)
	assert.Equal(t, PolicyFIFO, cfg.Conversation.Policy)
	assert.Equal(t, time.Second, cfg.Conversation.ClassificationBackoff)
	assert.Equal(t, "Bot", cfg.Conversation.AssistantName)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
llm:
  provider: anthropic
  model: claude-test
  api_key: file-key
  timeout: 30s
conversation:
  capacity: 6
  discard_beams: 2
  policy: zero_shot
  classification_backoff: 250ms
  assistant_name: Flancisco
i18n:
  language: en
modules:
  dir: /tmp/modules
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "claude-test", cfg.LLM.Model)
	assert.Equal(t, "file-key", cfg.LLM.APIKey)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, int64(1024), cfg.LLM.MaxTokens)
	assert.Equal(t, 6, cfg.Conversation.Capacity)
	assert.Equal(t, 2, cfg.Conversation.DiscardBeams)
	assert.Equal(t, PolicyZeroShot, cfg.Conversation.Policy)
	assert.Equal(t, 250*time.Millisecond, cfg.Conversation.ClassificationBackoff)
	assert.Equal(t, "Flancisco", cfg.Conversation.AssistantName)
	assert.Equal(t, "en", cfg.I18n.Language)
	assert.Equal(t, "/tmp/modules", cfg.Modules.Dir)
	assert.Equal(t, "*", cfg.Modules.Pattern)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "llm: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_EnvironmentPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantKey string
		wantURL string
	}{
		{
			name:    "env beats file",
			file:    "llm:\n  api_key: file-key\n",
			env:     map[string]string{"OPENAI_API_KEY": "env-key"},
			wantKey: "env-key",
		},
		{
			name:    "file beats legacy variable",
			file:    "llm:\n  api_key: file-key\n",
			env:     map[string]string{LegacyAPIKeyEnv: "legacy-key"},
			wantKey: "file-key",
		},
		{
			name:    "legacy variable fills empty key",
			file:    "",
			env:     map[string]string{LegacyAPIKeyEnv: "legacy-key"},
			wantKey: "legacy-key",
		},
		{
			name:    "anthropic key",
			file:    "llm:\n  provider: anthropic\n",
			env:     map[string]string{"ANTHROPIC_API_KEY": "a-key", "OPENAI_API_KEY": "o-key"},
			wantKey: "a-key",
		},
		{
			name:    "openai base url",
			file:    "",
			env:     map[string]string{"OPENAI_BASE_URL": "http://localhost:8080/v1"},
			wantURL: "http://localhost:8080/v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load(writeConfig(t, tt.file))
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, cfg.LLM.APIKey)
			assert.Equal(t, tt.wantURL, cfg.LLM.BaseURL)
		})
	}
}

func TestApply(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Apply(Overrides{
		Model:         "gpt-test",
		Capacity:      4,
		Policy:        PolicyZeroShot,
		AssistantName: "Flancisco",
		Language:      "en",
		LogLevel:      "warn",
	})

	assert.Equal(t, "gpt-test", cfg.LLM.Model)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, 4, cfg.Conversation.Capacity)
	assert.Equal(t, 1, cfg.Conversation.DiscardBeams)
	assert.Equal(t, PolicyZeroShot, cfg.Conversation.Policy)
	assert.Equal(t, "Flancisco", cfg.Conversation.AssistantName)
	assert.Equal(t, "en", cfg.I18n.Language)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.LLM.Provider = "youchat" }},
		{"negative timeout", func(c *Config) { c.LLM.Timeout = -time.Second }},
		{"negative max tokens", func(c *Config) { c.LLM.MaxTokens = -1 }},
		{"capacity too small", func(c *Config) { c.Conversation.Capacity = 1 }},
		{"zero discard", func(c *Config) { c.Conversation.DiscardBeams = 0 }},
		{"discard too large", func(c *Config) { c.Conversation.Capacity = 3; c.Conversation.DiscardBeams = 3 }},
		{"unknown policy", func(c *Config) { c.Conversation.Policy = "lru" }},
		{"negative backoff", func(c *Config) { c.Conversation.ClassificationBackoff = -1 }},
		{"empty name", func(c *Config) { c.Conversation.AssistantName = "" }},
		{"negative route backoff", func(c *Config) { c.Modules.RouteBackoff = -1 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestBuildProvider(t *testing.T) {
	_, err := BuildProvider(LLMConfig{Provider: ProviderOpenAI})
	assert.Error(t, err)

	p, err := BuildProvider(LLMConfig{Provider: ProviderOpenAI, APIKey: "k", Model: "gpt-test", BaseURL: "http://local/v1"})
	require.NoError(t, err)
	oa, ok := p.(*openai.Provider)
	require.True(t, ok)
	assert.Equal(t, "gpt-test", oa.GetModel())
	assert.Equal(t, "http://local/v1", oa.GetBaseURL())

	p, err = BuildProvider(LLMConfig{Provider: ProviderAnthropic, APIKey: "k", MaxTokens: 64})
	require.NoError(t, err)
	_, ok = p.(*anthropic.Provider)
	assert.True(t, ok)
	assert.Equal(t, anthropic.DefaultModel, p.GetModel())

	_, err = BuildProvider(LLMConfig{Provider: "other", APIKey: "k"})
	assert.Error(t, err)
}

func TestBuildBuffer(t *testing.T) {
	catalog, err := i18n.Default("en")
	require.NoError(t, err)
	provider := llm.ProviderFunc(func(context.Context, string) (string, error) { return "2", nil })

	c := DefaultConfig().Conversation
	c.Capacity = 4
	c.AssistantName = "Flancisco"

	buffer, err := BuildBuffer(c, provider, catalog)
	require.NoError(t, err)
	assert.Equal(t, "FIFO", buffer.PolicyName())
	assert.Equal(t, "Flancisco", buffer.Labels().Assistant)

	c.Policy = PolicyZeroShot
	buffer, err = BuildBuffer(c, provider, catalog)
	require.NoError(t, err)
	assert.Equal(t, "ZeroShotRelevance", buffer.PolicyName())

	c.Capacity = 1
	_, err = BuildBuffer(c, provider, catalog)
	assert.ErrorIs(t, err, conversation.ErrConfiguration)

	c.Capacity = 4
	c.Policy = "lru"
	_, err = BuildBuffer(c, provider, catalog)
	assert.Error(t, err)
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog(I18nConfig{Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, "en", c.Language())

	path := filepath.Join(t.TempDir(), "strings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("it:\n  human_label: Umano\n"), 0600))
	c, err = LoadCatalog(I18nConfig{CatalogPath: path, Language: "it_IT"})
	require.NoError(t, err)
	assert.Equal(t, "Umano", c.Get(i18n.KeyHumanLabel))
}

func TestBuildRouter(t *testing.T) {
	catalog, err := i18n.Default("en")
	require.NoError(t, err)
	provider := llm.ProviderFunc(func(context.Context, string) (string, error) { return "1", nil })

	router, err := BuildRouter(ModulesConfig{}, provider, catalog)
	require.NoError(t, err)
	assert.Nil(t, router)

	dir := t.TempDir()
	router, err = BuildRouter(ModulesConfig{Dir: dir, Pattern: "*"}, provider, catalog)
	require.NoError(t, err)
	assert.Nil(t, router)

	moduleDir := filepath.Join(dir, "python")
	require.NoError(t, os.MkdirAll(moduleDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(moduleDir, "module.yaml"),
		[]byte("name: Python\ndescription_prompt: Writes Python\nsteps:\n  - stage: task\n    name: write\n    prompt: Write it.\n"), 0644))

	router, err = BuildRouter(ModulesConfig{Dir: dir, Pattern: "*"}, provider, catalog)
	require.NoError(t, err)
	require.NotNil(t, router)

	m, err := router.Route(context.Background(), "sort a list")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Python", m.Name())
}
