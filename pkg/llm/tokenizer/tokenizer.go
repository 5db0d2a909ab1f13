// Package tokenizer counts prompt tokens so the chat manager can report how
// large each rendered transcript is.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/harpiechoise/SuperChargedChatBot/pkg/types"
)

// DefaultEncoding is the BPE encoding used when none is given.
const DefaultEncoding = "cl100k_base"

// turnOverhead approximates the separator and label tokens of one rendered turn.
const turnOverhead = 4

// Tokenizer counts tokens with a tiktoken encoding.
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
}

// New creates a tokenizer for DefaultEncoding.
func New() (*Tokenizer, error) {
	return NewWithEncoding(DefaultEncoding)
}

// NewWithEncoding creates a tokenizer for the named encoding.
func NewWithEncoding(name string) (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %s: %w", name, err)
	}
	return &Tokenizer{encoding: enc}, nil
}

// CountTokens returns the number of tokens in text. A nil tokenizer
// estimates instead.
func (t *Tokenizer) CountTokens(text string) int {
	if t == nil || t.encoding == nil {
		return Estimate(text)
	}
	return len(t.encoding.Encode(text, nil, nil))
}

// CountTurnsTokens returns the tokens of every turn plus a fixed per-turn
// overhead.
func (t *Tokenizer) CountTurnsTokens(turns []types.Turn) int {
	total := 0
	for _, turn := range turns {
		total += t.CountTokens(turn.Text) + turnOverhead
	}
	return total
}

// Estimate approximates the token count at four bytes per token.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
