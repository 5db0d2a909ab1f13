// Package anthropic provides a generation gateway backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/harpiechoise/SuperChargedChatBot/pkg/llm"
	"github.com/harpiechoise/SuperChargedChatBot/pkg/logging"
)

const (
	// DefaultModel is used when no model option is given
	DefaultModel = "claude-3-5-haiku-latest"

	// DefaultMaxTokens caps the length of one reply
	DefaultMaxTokens = 1024

	providerName = "anthropic"
)

var debugLog = logging.MustComponent("anthropic")

// Provider implements llm.Provider on top of the Anthropic SDK.
type Provider struct {
	client     *anthropic.Client
	model      string
	baseURL    string
	maxTokens  int64
	timeout    time.Duration
	httpClient *http.Client
}

// ProviderOption is a function that configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the model to use.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		p.model = model
	}
}

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int64) ProviderOption {
	return func(p *Provider) {
		p.maxTokens = n
	}
}

// WithTimeout bounds each Send call. Zero disables the bound.
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(p *Provider) {
		p.timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// NewProvider creates a provider. An empty apiKey is read from
// ANTHROPIC_API_KEY.
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (provide via parameter or ANTHROPIC_API_KEY environment variable)")
	}

	p := &Provider{
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(p)
	}

	// Providers do not retry; the caller decides what a failure means.
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if p.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(p.baseURL))
	}
	if p.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(p.httpClient))
	}

	client := anthropic.NewClient(clientOpts...)
	p.client = &client
	return p, nil
}

// Send submits the prompt as a single user message and returns the
// concatenated text blocks of the reply.
func (p *Provider) Send(ctx context.Context, prompt string) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	start := time.Now()
	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", llm.NewTransportError(providerName, apiErr.StatusCode, err)
		}
		return "", llm.NewTransportError(providerName, 0, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	debugLog.Debugf("message from %s in %s (in=%d out=%d tokens)",
		p.model, time.Since(start), resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return llm.CheckUnavailable(providerName, text.String())
}

// GetModel returns the model name being used.
func (p *Provider) GetModel() string {
	return p.model
}
