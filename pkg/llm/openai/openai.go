// Package openai provides an OpenAI-compatible generation gateway.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o-mini"),
//	    openai.WithTimeout(30*time.Second),
//	)
//	if err != nil {
//	    panic(err)
//	}
//
//	reply, err := provider.Send(context.Background(), "Human: hello")
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/harpiechoise/SuperChargedChatBot/pkg/llm"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/logging"
	"github.com/openai/openai-go"
)

const (
	// DefaultBaseURL is the default OpenAI API base URL
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is used when no model option is given
	DefaultModel = "gpt-4o-mini"

	providerName = "openai"
)

var debugLog = logging.MustComponent("openai")

// Provider implements llm.Provider for OpenAI-compatible chat completion APIs.
type Provider struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	timeout    time.Duration
}

// ProviderOption is a function that configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the model to use for completions.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		p.model = model
	}
}

// WithBaseURL sets a custom base URL for OpenAI-compatible APIs.
// This enables using Azure OpenAI, local models, or other compatible services.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithTimeout bounds each Send call. Zero disables the bound.
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(p *Provider) {
		p.timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// NewProvider creates a new OpenAI provider with the given API key.
//
// If apiKey is empty, it will attempt to read from the OPENAI_API_KEY environment variable.
// If baseURL is not provided via WithBaseURL option, it will check OPENAI_BASE_URL environment variable.
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (provide via parameter or OPENAI_API_KEY environment variable)")
	}

	p := &Provider{
		model:      DefaultModel,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.baseURL == DefaultBaseURL {
		if envBaseURL := os.Getenv("OPENAI_BASE_URL"); envBaseURL != "" {
			p.baseURL = envBaseURL
		}
	}

	return p, nil
}

// Send posts the prompt as a single user message and returns the content of
// the first choice.
func (p *Provider) Send(ctx context.Context, prompt string) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	body, err := p.buildRequestBody(prompt)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", llm.NewTransportError(providerName, 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llm.NewTransportError(providerName, resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", llm.NewTransportError(providerName, resp.StatusCode, errors.New(string(bytes.TrimSpace(raw))))
	}

	var completion openai.ChatCompletion
	if err := json.Unmarshal(raw, &completion); err != nil {
		// Some gateways answer 200 with a bare text body.
		return llm.CheckUnavailable(providerName, string(raw))
	}
	if len(completion.Choices) == 0 {
		return "", llm.NewTransportError(providerName, resp.StatusCode, errors.New("response contained no choices"))
	}

	debugLog.Debugf("completion from %s in %s", p.model, time.Since(start))
	return llm.CheckUnavailable(providerName, completion.Choices[0].Message.Content)
}

// buildRequestBody marshals a non-streaming chat completion request.
func (p *Provider) buildRequestBody(prompt string) ([]byte, error) {
	reqBody := map[string]interface{}{
		"model":    p.model,
		"messages": []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		"stream":   false,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return bodyBytes, nil
}

// GetModel returns the model name being used.
func (p *Provider) GetModel() string {
	return p.model
}

// GetBaseURL returns the base URL being used.
func (p *Provider) GetBaseURL() string {
	return p.baseURL
}
