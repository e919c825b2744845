// Package coach drives the chat orchestration loop: it turns one user
// message into zero or more backend mutations through a bounded
// model/tool conversation, persists the full transcript per user, and
// returns a display-safe history to the client.
package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/forgefit/coach/internal/llm"
	"github.com/forgefit/coach/internal/prompts"
	"github.com/forgefit/coach/internal/store"
)

// ChatMessage is one conversational turn, both persisted and returned to
// the client.
type ChatMessage = llm.Message

// StateStore persists one transcript per user. Load returns nil when no
// conversation exists yet; Save replaces the transcript wholesale.
type StateStore interface {
	LoadChatState(ctx context.Context, userID string) (json.RawMessage, error)
	SaveChatState(ctx context.Context, userID string, transcript json.RawMessage) error
}

// ContextSource reads the user snapshot the system prompt is built from.
type ContextSource interface {
	GetUserContext(ctx context.Context, userID string) (*store.UserContext, error)
}

// Executor is the tool surface the loop drives: the schema supplied to
// the model and the dispatch that runs requested calls. Execute never
// fails; failures come back serialized inside the result string.
type Executor interface {
	List() []llm.ToolDef
	Execute(ctx context.Context, name, argsJSON string) string
}

// Loop is the orchestration state machine.
type Loop struct {
	logger    *slog.Logger
	client    llm.Client
	executor  Executor
	states    StateStore
	contexts  ContextSource
	maxRounds int
}

// New creates a loop. maxRounds bounds the model/tool rounds per request;
// values below 1 fall back to 5.
func New(logger *slog.Logger, client llm.Client, executor Executor, states StateStore, contexts ContextSource, maxRounds int) *Loop {
	if maxRounds < 1 {
		maxRounds = 5
	}
	return &Loop{
		logger:    logger,
		client:    client,
		executor:  executor,
		states:    states,
		contexts:  contexts,
		maxRounds: maxRounds,
	}
}

// Run processes one chat turn. incoming is the client's display history
// ending in the newest user message; the return value is that history
// with exactly one new assistant message appended. When incoming holds no
// user message the input is returned unchanged and no model call is made.
//
// Model/transport failures are fatal for the request and propagate to the
// caller. Tool failures never do; they are fed back to the model as error
// results. A failure to persist the transcript is logged but does not
// cost the user their answer.
func (l *Loop) Run(ctx context.Context, userID string, incoming []ChatMessage) ([]ChatMessage, error) {
	userTurn, ok := lastUserMessage(incoming)
	if !ok {
		return incoming, nil
	}

	reqID := newRequestID()
	logger := l.logger.With("request_id", reqID, "user_id", userID)
	logger.Info("chat turn started", "incoming_messages", len(incoming))

	transcript := l.loadTranscript(ctx, logger, userID)
	transcript = append(transcript, userTurn)

	tools := l.executor.List()
	finalContent := ""

	for round := 1; round <= l.maxRounds; round++ {
		resp, err := l.client.Chat(ctx, llm.ChatRequest{Messages: transcript, Tools: tools})
		if err != nil {
			logger.Error("model call failed", "round", round, "error", err)
			return nil, fmt.Errorf("model call: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			finalContent = resp.Content
			logger.Info("final answer", "round", round)
			break
		}

		calls := dedupeCalls(logger, resp.ToolCalls)
		logger.Info("executing tools", "round", round,
			"requested", len(resp.ToolCalls), "after_dedup", len(calls))

		transcript = append(transcript, ChatMessage{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: calls,
		})

		// Sequential on purpose: later calls in a round may depend on
		// earlier ones' writes being visible.
		for _, call := range calls {
			result := l.executor.Execute(ctx, call.Name, call.Arguments)
			transcript = append(transcript, ChatMessage{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
	}

	// Round budget exhausted without a natural answer: compel one.
	if finalContent == "" {
		logger.Info("round budget exhausted, forcing plain response")
		resp, err := l.client.Chat(ctx, llm.ChatRequest{
			Messages:     transcript,
			Tools:        tools,
			DisableTools: true,
		})
		if err != nil {
			logger.Error("forced finalization failed", "error", err)
		} else {
			finalContent = resp.Content
		}
	}

	if strings.TrimSpace(finalContent) == "" {
		logger.Warn("blank final answer, substituting fallback")
		finalContent = prompts.FallbackResponse
	}

	final := ChatMessage{Role: llm.RoleAssistant, Content: finalContent}
	transcript = append(transcript, final)

	if encoded, err := json.Marshal(transcript); err != nil {
		logger.Error("encode transcript", "error", err)
	} else if err := l.states.SaveChatState(ctx, userID, encoded); err != nil {
		logger.Error("persist transcript", "error", err)
	}

	return append(displayOnly(incoming), final), nil
}

// loadTranscript returns the user's persisted transcript, seeding a fresh
// one with a newly built system prompt when none exists. The system
// prompt is NOT rebuilt for existing conversations; profile edits do not
// retroactively change an in-flight conversation.
func (l *Loop) loadTranscript(ctx context.Context, logger *slog.Logger, userID string) []ChatMessage {
	raw, err := l.states.LoadChatState(ctx, userID)
	if err != nil {
		logger.Error("load chat state, reseeding", "error", err)
		raw = nil
	}

	if raw != nil {
		var transcript []ChatMessage
		if err := json.Unmarshal(raw, &transcript); err != nil {
			logger.Error("decode chat state, reseeding", "error", err)
		} else if len(transcript) > 0 {
			return transcript
		}
	}

	uc, err := l.contexts.GetUserContext(ctx, userID)
	if err != nil {
		logger.Warn("user context unavailable", "error", err)
	}
	return []ChatMessage{{Role: llm.RoleSystem, Content: prompts.SystemPrompt(uc)}}
}

// lastUserMessage returns the newest user-role turn in the client's
// history.
func lastUserMessage(messages []ChatMessage) (ChatMessage, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			return messages[i], true
		}
	}
	return ChatMessage{}, false
}

// singleCallTools are mutating tools limited to one call per round even
// when argument payloads differ. Models sometimes emit several
// near-identical mutations at once; only the first is executed.
var singleCallTools = map[string]bool{
	"create_template":         true,
	"update_template":         true,
	"create_planned_workout":  true,
	"update_planned_workout":  true,
	"delete_planned_workout":  true,
	"update_profile_insights": true,
}

// dedupeCalls drops tool calls whose (name, raw argument string) pair
// already appeared earlier in the same round, and repeat calls to
// mutating tools regardless of arguments. Duplicates are a model
// artifact; executing them would double side effects.
func dedupeCalls(logger *slog.Logger, calls []llm.ToolCall) []llm.ToolCall {
	seen := make(map[string]bool, len(calls))
	mutated := make(map[string]bool)
	out := make([]llm.ToolCall, 0, len(calls))
	for _, call := range calls {
		key := call.Name + "\x00" + call.Arguments
		if seen[key] {
			logger.Info("dropping duplicate tool call", "tool", call.Name)
			continue
		}
		if singleCallTools[call.Name] && mutated[call.Name] {
			logger.Info("dropping repeat mutating call", "tool", call.Name)
			continue
		}
		seen[key] = true
		mutated[call.Name] = true
		out = append(out, call)
	}
	return out
}

// displayOnly filters a history down to the turns the client renders.
func displayOnly(messages []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == llm.RoleUser || m.Role == llm.RoleAssistant {
			out = append(out, m)
		}
	}
	return out
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "unknown"
	}
	return id.String()
}
