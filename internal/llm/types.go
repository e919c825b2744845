// Package llm provides the chat-completion model client.
package llm

// Role values for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents one chat turn sent to or received from the model.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // For tool-result turns
	ToolName   string     `json:"tool_name,omitempty"`    // Informational, tool-result turns only
}

// ToolCall is a tool invocation requested by the model. Arguments stays
// the raw JSON string from the wire: the loop dedupes on it, and only
// the executor parses it.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDef describes one callable tool for the model. Parameters is a
// JSON-schema object.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ChatRequest is one model call.
type ChatRequest struct {
	Messages []Message
	Tools    []ToolDef

	// DisableTools forces a plain-text answer (tool_choice "none")
	// while keeping the tool schema visible. Used for forced
	// finalization when the round budget runs out.
	DisableTools bool
}

// ChatResponse is the model's reply.
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall

	Model        string
	InputTokens  int
	OutputTokens int
}
