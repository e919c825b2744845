package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/forgefit/coach/internal/llm"
	"github.com/forgefit/coach/internal/prompts"
	"github.com/forgefit/coach/internal/store"
)

// scriptedClient replays a fixed sequence of model responses and records
// every request it receives.
type scriptedClient struct {
	responses []*llm.ChatResponse
	err       error

	requests []llm.ChatRequest
}

func (c *scriptedClient) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	if len(c.responses) == 0 {
		return &llm.ChatResponse{Content: "out of script"}, nil
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

// fakeStates is an in-memory StateStore with injectable failures.
type fakeStates struct {
	saved   map[string]json.RawMessage
	loadErr error
	saveErr error
}

func newFakeStates() *fakeStates {
	return &fakeStates{saved: make(map[string]json.RawMessage)}
}

func (f *fakeStates) LoadChatState(ctx context.Context, userID string) (json.RawMessage, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.saved[userID], nil
}

func (f *fakeStates) SaveChatState(ctx context.Context, userID string, transcript json.RawMessage) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[userID] = transcript
	return nil
}

type fakeContexts struct{}

func (fakeContexts) GetUserContext(ctx context.Context, userID string) (*store.UserContext, error) {
	return nil, errors.New("no context")
}

// recordingExecutor records executed calls and answers each with a canned
// result.
type recordingExecutor struct {
	calls []string
}

func (e *recordingExecutor) List() []llm.ToolDef {
	return []llm.ToolDef{{Name: "get_exercises", Parameters: map[string]any{"type": "object"}}}
}

func (e *recordingExecutor) Execute(ctx context.Context, name, argsJSON string) string {
	e.calls = append(e.calls, name+" "+argsJSON)
	return fmt.Sprintf(`{"ok":true,"call":%d}`, len(e.calls))
}

func newTestLoop(client llm.Client, exec Executor, states StateStore) *Loop {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(logger, client, exec, states, fakeContexts{}, 5)
}

func userMsg(content string) ChatMessage {
	return ChatMessage{Role: llm.RoleUser, Content: content}
}

func toolCall(id, name, args string) llm.ToolCall {
	return llm.ToolCall{ID: id, Name: name, Arguments: args}
}

func TestRun_NoUserMessage(t *testing.T) {
	client := &scriptedClient{}
	loop := newTestLoop(client, &recordingExecutor{}, newFakeStates())

	incoming := []ChatMessage{{Role: llm.RoleAssistant, Content: "hello!"}}
	out, err := loop.Run(context.Background(), "alice", incoming)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Content != "hello!" {
		t.Errorf("output changed: %+v", out)
	}
	if len(client.requests) != 0 {
		t.Errorf("model was called %d times, want 0", len(client.requests))
	}
}

func TestRun_PlainAnswer(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{
		{Content: "Rest at least 48 hours between heavy sessions."},
	}}
	states := newFakeStates()
	loop := newTestLoop(client, &recordingExecutor{}, states)

	out, err := loop.Run(context.Background(), "alice", []ChatMessage{userMsg("how long should I rest?")})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d messages, want 2 (user + one assistant)", len(out))
	}
	last := out[len(out)-1]
	if last.Role != llm.RoleAssistant || last.Content != "Rest at least 48 hours between heavy sessions." {
		t.Errorf("final message: %+v", last)
	}

	// The persisted transcript starts with a system prompt.
	var transcript []ChatMessage
	if err := json.Unmarshal(states.saved["alice"], &transcript); err != nil {
		t.Fatal(err)
	}
	if len(transcript) != 3 || transcript[0].Role != llm.RoleSystem {
		t.Errorf("persisted transcript: %d messages, first role %s", len(transcript), transcript[0].Role)
	}
}

func TestRun_ToolRoundTrip(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{
		{
			Content:   "Let me check your exercises.",
			ToolCalls: []llm.ToolCall{toolCall("c1", "get_exercises", `{"body_part":"legs"}`)},
		},
		{Content: "Here is your leg day plan."},
	}}
	exec := &recordingExecutor{}
	states := newFakeStates()
	loop := newTestLoop(client, exec, states)

	out, err := loop.Run(context.Background(), "alice", []ChatMessage{userMsg("plan a leg day")})
	if err != nil {
		t.Fatal(err)
	}

	if len(exec.calls) != 1 || exec.calls[0] != `get_exercises {"body_part":"legs"}` {
		t.Errorf("executed calls: %v", exec.calls)
	}

	// Display history: user turn plus exactly one new assistant turn. The
	// intermediate tool traffic never reaches the client.
	if len(out) != 2 {
		t.Fatalf("got %d display messages, want 2", len(out))
	}
	if out[1].Content != "Here is your leg day plan." {
		t.Errorf("final content: %q", out[1].Content)
	}

	// The second model call carries the assistant tool-call turn and the
	// tool result.
	if len(client.requests) != 2 {
		t.Fatalf("model called %d times, want 2", len(client.requests))
	}
	msgs := client.requests[1].Messages
	assistantTurn := msgs[len(msgs)-2]
	toolTurn := msgs[len(msgs)-1]
	if len(assistantTurn.ToolCalls) != 1 || assistantTurn.ToolCalls[0].ID != "c1" {
		t.Errorf("assistant turn: %+v", assistantTurn)
	}
	if toolTurn.Role != llm.RoleTool || toolTurn.ToolCallID != "c1" || toolTurn.ToolName != "get_exercises" {
		t.Errorf("tool turn: %+v", toolTurn)
	}

	// Full transcript, tool turns included, is persisted.
	var transcript []ChatMessage
	if err := json.Unmarshal(states.saved["alice"], &transcript); err != nil {
		t.Fatal(err)
	}
	// system, user, assistant+calls, tool, assistant
	if len(transcript) != 5 {
		t.Errorf("persisted %d messages, want 5", len(transcript))
	}
}

func TestRun_DuplicateCallsExecuteOnce(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{
			toolCall("c1", "get_exercises", `{"body_part":"legs"}`),
			toolCall("c2", "get_exercises", `{"body_part":"legs"}`),
			toolCall("c3", "get_exercises", `{"body_part":"back"}`),
		}},
		{Content: "done"},
	}}
	exec := &recordingExecutor{}
	loop := newTestLoop(client, exec, newFakeStates())

	if _, err := loop.Run(context.Background(), "alice", []ChatMessage{userMsg("plan")}); err != nil {
		t.Fatal(err)
	}
	if len(exec.calls) != 2 {
		t.Fatalf("executed %d calls, want 2 (exact duplicate dropped): %v", len(exec.calls), exec.calls)
	}
}

func TestRun_MutatingToolOncePerRound(t *testing.T) {
	// Repeat mutations in one round are dropped even when arguments
	// differ; read tools with distinct arguments all run.
	client := &scriptedClient{responses: []*llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{
			toolCall("c1", "create_planned_workout", `{"date":"2026-03-02","name":"Leg Day"}`),
			toolCall("c2", "create_planned_workout", `{"date":"2026-03-03","name":"Leg Day"}`),
			toolCall("c3", "get_exercises", `{"body_part":"legs"}`),
			toolCall("c4", "get_exercises", `{"body_part":"back"}`),
		}},
		{Content: "done"},
	}}
	exec := &recordingExecutor{}
	loop := newTestLoop(client, exec, newFakeStates())

	if _, err := loop.Run(context.Background(), "alice", []ChatMessage{userMsg("plan")}); err != nil {
		t.Fatal(err)
	}
	want := []string{
		`create_planned_workout {"date":"2026-03-02","name":"Leg Day"}`,
		`get_exercises {"body_part":"legs"}`,
		`get_exercises {"body_part":"back"}`,
	}
	if len(exec.calls) != len(want) {
		t.Fatalf("executed %d calls, want %d: %v", len(exec.calls), len(want), exec.calls)
	}
	for i, call := range exec.calls {
		if call != want[i] {
			t.Errorf("call %d = %q, want %q", i, call, want[i])
		}
	}
}

func TestRun_RoundBudgetForcesFinalization(t *testing.T) {
	// Every round requests tools; the loop must eventually force a
	// tool-free call.
	var responses []*llm.ChatResponse
	for i := 0; i < 5; i++ {
		responses = append(responses, &llm.ChatResponse{
			ToolCalls: []llm.ToolCall{toolCall(fmt.Sprintf("c%d", i), "get_exercises", fmt.Sprintf(`{"round":%d}`, i))},
		})
	}
	responses = append(responses, &llm.ChatResponse{Content: "Final summary after many lookups."})

	client := &scriptedClient{responses: responses}
	exec := &recordingExecutor{}
	loop := newTestLoop(client, exec, newFakeStates())

	out, err := loop.Run(context.Background(), "alice", []ChatMessage{userMsg("plan")})
	if err != nil {
		t.Fatal(err)
	}

	if len(client.requests) != 6 {
		t.Fatalf("model called %d times, want 6 (5 rounds + forced)", len(client.requests))
	}
	forced := client.requests[5]
	if !forced.DisableTools {
		t.Error("final call does not disable tools")
	}
	for i := 0; i < 5; i++ {
		if client.requests[i].DisableTools {
			t.Errorf("round %d disabled tools", i+1)
		}
	}
	if out[len(out)-1].Content != "Final summary after many lookups." {
		t.Errorf("final content: %q", out[len(out)-1].Content)
	}
}

func TestRun_BlankAnswerFallback(t *testing.T) {
	tests := []struct {
		name      string
		responses []*llm.ChatResponse
	}{
		{
			name:      "blank natural answer",
			responses: []*llm.ChatResponse{{Content: "   "}},
		},
		{
			name: "blank forced answer",
			responses: func() []*llm.ChatResponse {
				var rs []*llm.ChatResponse
				for i := 0; i < 5; i++ {
					rs = append(rs, &llm.ChatResponse{
						ToolCalls: []llm.ToolCall{toolCall(fmt.Sprintf("c%d", i), "get_exercises", fmt.Sprintf(`{"n":%d}`, i))},
					})
				}
				return append(rs, &llm.ChatResponse{Content: ""})
			}(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scriptedClient{responses: tt.responses}
			loop := newTestLoop(client, &recordingExecutor{}, newFakeStates())

			out, err := loop.Run(context.Background(), "alice", []ChatMessage{userMsg("hi")})
			if err != nil {
				t.Fatal(err)
			}
			if got := out[len(out)-1].Content; got != prompts.FallbackResponse {
				t.Errorf("final content = %q, want the fallback", got)
			}
		})
	}
}

func TestRun_ModelErrorIsFatal(t *testing.T) {
	client := &scriptedClient{err: errors.New("connection refused")}
	loop := newTestLoop(client, &recordingExecutor{}, newFakeStates())

	_, err := loop.Run(context.Background(), "alice", []ChatMessage{userMsg("hi")})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, client.err) {
		t.Errorf("error does not wrap the model failure: %v", err)
	}
}

func TestRun_PersistFailureIsNotFatal(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{{Content: "all good"}}}
	states := newFakeStates()
	states.saveErr = errors.New("disk full")
	loop := newTestLoop(client, &recordingExecutor{}, states)

	out, err := loop.Run(context.Background(), "alice", []ChatMessage{userMsg("hi")})
	if err != nil {
		t.Fatalf("persist failure became fatal: %v", err)
	}
	if out[len(out)-1].Content != "all good" {
		t.Errorf("final content: %q", out[len(out)-1].Content)
	}
}

func TestRun_ContinuesExistingConversation(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{
		{Content: "first answer"},
		{Content: "second answer"},
	}}
	states := newFakeStates()
	loop := newTestLoop(client, &recordingExecutor{}, states)
	ctx := context.Background()

	if _, err := loop.Run(ctx, "alice", []ChatMessage{userMsg("first question")}); err != nil {
		t.Fatal(err)
	}
	if _, err := loop.Run(ctx, "alice", []ChatMessage{userMsg("second question")}); err != nil {
		t.Fatal(err)
	}

	// The second call's transcript includes the whole first exchange.
	msgs := client.requests[1].Messages
	if len(msgs) != 4 {
		t.Fatalf("second call sent %d messages, want 4 (system, q1, a1, q2)", len(msgs))
	}
	if msgs[1].Content != "first question" || msgs[2].Content != "first answer" {
		t.Errorf("history not carried: %+v", msgs[1:3])
	}
	if msgs[3].Content != "second question" {
		t.Errorf("new turn missing: %+v", msgs[3])
	}
}

func TestRun_CorruptStateReseeds(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{{Content: "fresh start"}}}
	states := newFakeStates()
	states.saved["alice"] = json.RawMessage(`{not json`)
	loop := newTestLoop(client, &recordingExecutor{}, states)

	_, err := loop.Run(context.Background(), "alice", []ChatMessage{userMsg("hi")})
	if err != nil {
		t.Fatal(err)
	}
	if first := client.requests[0].Messages[0]; first.Role != llm.RoleSystem {
		t.Errorf("reseeded transcript starts with %s, want system", first.Role)
	}
}
