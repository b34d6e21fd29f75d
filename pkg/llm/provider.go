// Package llm provides abstractions for LLM provider integration.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reply, err := provider.Complete(context.Background(), []*llm.Message{
//	    llm.NewSystemMessage("You repair browser automation functions."),
//	    llm.NewUserMessage("The click on #submit timed out."),
//	})
package llm

import "context"

// MessageRole identifies the author of a message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a single conversation turn.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) *Message {
	return &Message{Role: RoleAssistant, Content: content}
}

// StreamChunk is one increment of a streamed completion.
type StreamChunk struct {
	// Role is set on the first chunk of a response.
	Role string

	// Content is the text delta for this chunk.
	Content string

	// Finished marks the final chunk of a response.
	Finished bool

	// Error is set when streaming fails mid-response.
	Error error
}

// IsError reports whether the chunk carries a stream error.
func (c *StreamChunk) IsError() bool {
	return c.Error != nil
}

// Provider defines the interface for LLM integrations.
//
// Providers handle API communication and return plain chunks and messages;
// prompt construction and response parsing stay with callers. This keeps
// providers reusable outside the refinement loop and testable with canned
// responses.
type Provider interface {
	// StreamCompletion sends messages to the LLM and streams back response
	// chunks. The channel is closed when streaming completes or fails;
	// stream-time errors arrive as chunks with Error set. An error return
	// means streaming could not be initiated at all.
	StreamCompletion(ctx context.Context, messages []*Message) (<-chan *StreamChunk, error)

	// Complete sends messages to the LLM and returns the full response.
	// It is a convenience wrapper around StreamCompletion that accumulates
	// all chunks into one message.
	Complete(ctx context.Context, messages []*Message) (*Message, error)

	// GetModel returns the model name being used.
	GetModel() string

	// GetBaseURL returns the base URL being used for API requests.
	GetBaseURL() string
}
