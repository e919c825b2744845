// Package tools defines the catalog of operations the model may call and
// executes them against the store.
//
// Execution never fails past the package boundary: every internal error is
// serialized into an {"error": "..."} JSON result so the model can read it
// and adapt. Operations with natural duplicate risk treat "already in the
// desired state" as success, so model retries cannot cascade into duplicate
// side effects.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/forgefit/coach/internal/llm"
	"github.com/forgefit/coach/internal/store"
)

// Tool is one callable operation.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     func(ctx context.Context, args json.RawMessage) (any, error)
}

// Registry holds the fixed, ordered tool catalog.
type Registry struct {
	store  *store.Store
	logger *slog.Logger

	tools map[string]*Tool
	order []string
}

// NewRegistry builds the registry with every built-in tool registered.
func NewRegistry(st *store.Store, logger *slog.Logger) *Registry {
	r := &Registry{
		store:  st,
		logger: logger,
		tools:  make(map[string]*Tool),
	}
	r.registerBuiltins()
	return r
}

// Register adds a tool. Registration order is preserved in List and Names.
func (r *Registry) Register(t *Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Get retrieves a tool by name, or nil.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Names returns all tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// List returns the tool schema supplied to every model call, in
// registration order.
func (r *Registry) List() []llm.ToolDef {
	defs := make([]llm.ToolDef, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, llm.ToolDef{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return defs
}

// Execute runs a tool and returns its result as a JSON string. It never
// returns an error: unknown tools, malformed arguments, and handler
// failures all become {"error": "..."} results. Malformed argument JSON
// degrades to empty arguments rather than aborting the call.
func (r *Registry) Execute(ctx context.Context, name, argsJSON string) string {
	tool := r.tools[name]
	if tool == nil {
		return errorResult(fmt.Sprintf("unknown tool: %s", name))
	}

	args := json.RawMessage(argsJSON)
	if len(args) == 0 || !json.Valid(args) {
		if len(args) > 0 {
			r.logger.Warn("malformed tool arguments, using empty object",
				"tool", name)
		}
		args = json.RawMessage("{}")
	}

	result, err := tool.Handler(ctx, args)
	if err != nil {
		r.logger.Warn("tool returned error", "tool", name, "error", err)
		return errorResult(err.Error())
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		r.logger.Error("tool result not serializable", "tool", name, "error", err)
		return errorResult(fmt.Sprintf("serialize result: %v", err))
	}
	return string(encoded)
}

func errorResult(msg string) string {
	encoded, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return `{"error":"internal error"}`
	}
	return string(encoded)
}

// decodeArgs unmarshals the raw argument JSON into a typed argument
// struct. Unknown fields are tolerated; type mismatches surface as tool
// errors through the handler's error return.
func decodeArgs(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func (r *Registry) registerBuiltins() {
	r.registerProfileTools()
	r.registerExerciseTools()
	r.registerTemplateTools()
	r.registerScheduleTools()
	r.registerHistoryTools()
}
