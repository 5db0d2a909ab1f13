package modules

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harpiechoise/SuperChargedChatBot/pkg/llm"
)

// ErrEmptyOutput is returned by a prompt handler whose reply is blank.
var ErrEmptyOutput = errors.New("step produced no output")

// PromptHandler returns a handler that asks provider the question followed
// by the step input and returns the trimmed reply.
func PromptHandler(provider llm.Provider, question string) Handler {
	return func(ctx context.Context, input string) (string, error) {
		prompt := question
		if input != "" {
			prompt = question + "\n\n" + input
		}

		reply, err := provider.Send(ctx, prompt)
		if err != nil {
			return "", err
		}
		reply = strings.TrimSpace(reply)
		if reply == "" {
			return "", ErrEmptyOutput
		}
		return reply, nil
	}
}

// Build turns a descriptor file into a module whose steps are prompt
// handlers sending through provider.
func Build(meta *Metadata, provider llm.Provider) (*Module, error) {
	if provider == nil {
		return nil, errors.New("modules: provider is required")
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	m := NewModule(*meta)
	for _, s := range meta.Steps {
		err := m.Register(Descriptor{
			Stage:    s.Stage,
			Name:     s.Name,
			Priority: s.Priority,
			Prompt:   s.Prompt,
			Fallback: s.Fallback,
			Handler:  PromptHandler(provider, s.Prompt),
		})
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", meta.Name, err)
		}
	}
	return m, nil
}
