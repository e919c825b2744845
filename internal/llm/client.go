package llm

import "context"

// Client is the interface the conversation loop depends on. The
// production implementation is OpenAIClient; tests supply scripted
// fakes.
type Client interface {
	// Chat sends a chat-completion request and returns the response.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}
