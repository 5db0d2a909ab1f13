// Package llm provides the generation gateway abstraction used by the chatbot.
//
// A gateway accepts one formatted prompt and returns the raw generated text.
// Ordinary dialogue replies and eviction classification calls go through the
// same Send method; there is no separate classifier backend.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o-mini"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reply, err := provider.Send(ctx, "Human: hello")
//	if errors.Is(err, llm.ErrTransport) {
//	    // service unreachable or unavailable
//	}
package llm

import (
	"context"
)

// Provider defines the interface for text generation backends.
type Provider interface {
	// Send submits the prompt and returns the generated text.
	//
	// Any failure to obtain a reply (network error, non-2xx status, timeout,
	// explicit unavailability message) is returned as an error that matches
	// ErrTransport via errors.Is. Implementations do not retry.
	Send(ctx context.Context, prompt string) (string, error)

	// GetModel returns the model name being used.
	GetModel() string
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(ctx context.Context, prompt string) (string, error)

// Send calls f.
func (f ProviderFunc) Send(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// GetModel returns a fixed placeholder name.
func (f ProviderFunc) GetModel() string {
	return "func"
}
