// Package tokenizer provides client-side token counting for budgeting
// prompts before they are sent to a provider.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/entrhq/replay/pkg/llm"
)

// encodingName is the tokenizer encoding used by GPT-4 class models.
const encodingName = "cl100k_base"

// messageOverhead approximates the per-message framing tokens the chat
// format adds around the content itself.
const messageOverhead = 4

// Tokenizer counts tokens using the tiktoken encoding.
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
}

// New creates a tokenizer. It can fail when the encoding data is not
// available; callers typically fall back to skipping token budgets.
func New() (*Tokenizer, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", encodingName, err)
	}
	return &Tokenizer{encoding: encoding}, nil
}

// CountTokens returns the token count of one string.
func (t *Tokenizer) CountTokens(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// CountMessagesTokens returns the approximate token count of a full
// message list, including per-message framing.
func (t *Tokenizer) CountMessagesTokens(messages []*llm.Message) int {
	total := 0
	for _, msg := range messages {
		total += messageOverhead
		total += t.CountTokens(string(msg.Role))
		total += t.CountTokens(msg.Content)
	}
	return total
}
