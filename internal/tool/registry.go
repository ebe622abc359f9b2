// Package tool holds the Tool Registry (C2) and the five built-in tool
// handlers (C3): search_chunks, get_excerpt, list_files, graph_neighbors,
// get_repo_summary. Adapted from the teacher's internal/tool/tool.go
// registry shape, narrowed from ~25 general-purpose coding tools to the
// five read-only repository tools this agent needs, and grounded on
// santhosh-tekuri/jsonschema/v5 for argument validation (see
// pkg/pluginsdk/validation.go in the haasonsaas-nexus example).
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/repowiki/agent/internal/repoindex"
)

// ToolContext is the shared, stateless context every handler receives
// (spec.md §3 "Ownership": "handlers are stateless and receive a shared
// ToolContext{repoRoot, index}").
type ToolContext struct {
	RepoRoot string
	Index    *repoindex.Index
}

// ToolResult is the structured outcome of executing a tool (spec.md §3).
// OutputSummary is the sole representation sent back to the LLM.
type ToolResult struct {
	Success       bool
	Data          interface{}
	OutputSummary string
	Error         string
}

// Handler executes one tool invocation against validated arguments.
type Handler func(ctx context.Context, tc *ToolContext, args map[string]interface{}) (*ToolResult, error)

// ToolDef is a Tool Descriptor (spec.md §3): immutable after registration.
type ToolDef struct {
	Name           string
	Description    string
	ArgumentSchema map[string]interface{}
	Execute        Handler

	compiled *jsonschema.Schema
}

// ToolSchema is the provider-neutral shape toolSchemas() exposes
// (spec.md §4.2).
type ToolSchema struct {
	Name           string
	Description    string
	ArgumentSchema map[string]interface{}
}

// Registry holds an ordered name→descriptor mapping (spec.md §4.2).
type Registry struct {
	mu    sync.RWMutex
	order []string
	defs  map[string]*ToolDef
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*ToolDef)}
}

// Register compiles def's argument schema and adds it to the registry.
// Schema compilation failure is a programmer error in a built-in tool's
// definition, so it is returned rather than silently ignored.
func (r *Registry) Register(def *ToolDef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if def.ArgumentSchema != nil {
		schemaJSON, err := json.Marshal(def.ArgumentSchema)
		if err != nil {
			return fmt.Errorf("marshal schema for %s: %w", def.Name, err)
		}
		compiled, err := jsonschema.CompileString(def.Name+".schema.json", string(schemaJSON))
		if err != nil {
			return fmt.Errorf("compile schema for %s: %w", def.Name, err)
		}
		def.compiled = compiled
	}

	if _, exists := r.defs[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.defs[def.Name] = def
	return nil
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[name]
	return ok
}

// Names returns registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) get(name string) (*ToolDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// ToolSchemas returns descriptors in a shape suitable for the provider's
// function-calling format (spec.md §4.2).
func (r *Registry) ToolSchemas() []ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		def := r.defs[name]
		out = append(out, ToolSchema{Name: def.Name, Description: def.Description, ArgumentSchema: def.ArgumentSchema})
	}
	return out
}

// ExecuteCall deserializes JSON arguments, validates them against the
// tool's argument schema, and invokes the handler. Unknown tools, invalid
// arguments, and handler panics are all converted to success=false results
// rather than raised as errors (spec.md §4.2, §7 "Propagation policy").
func (r *Registry) ExecuteCall(ctx context.Context, tc *ToolContext, name, argumentsSerialized string) *ToolResult {
	def, ok := r.get(name)
	if !ok {
		return &ToolResult{
			Success:       false,
			Error:         "unknown tool",
			OutputSummary: unknownToolSummary(name, r.Names()),
		}
	}

	args, err := decodeArguments(argumentsSerialized)
	if err != nil {
		return &ToolResult{
			Success:       false,
			Error:         err.Error(),
			OutputSummary: fmt.Sprintf("Validation failed: %s", err.Error()),
		}
	}

	if def.compiled != nil {
		if err := def.compiled.Validate(args); err != nil {
			msg := joinValidationErrors(err)
			return &ToolResult{Success: false, Error: msg, OutputSummary: fmt.Sprintf("Validation failed: %s", msg)}
		}
	}

	return r.invoke(ctx, def, tc, args)
}

func (r *Registry) invoke(ctx context.Context, def *ToolDef, tc *ToolContext, args map[string]interface{}) (result *ToolResult) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("tool", def.Name).Interface("panic", rec).Msg("tool handler panicked")
			result = &ToolResult{Success: false, Error: fmt.Sprintf("panic: %v", rec), OutputSummary: fmt.Sprintf("Tool %s failed unexpectedly", def.Name)}
		}
	}()

	res, err := def.Execute(ctx, tc, args)
	if err != nil {
		return &ToolResult{Success: false, Error: err.Error(), OutputSummary: fmt.Sprintf("Tool %s failed: %s", def.Name, err.Error())}
	}
	return res
}

func decodeArguments(argumentsSerialized string) (map[string]interface{}, error) {
	if strings.TrimSpace(argumentsSerialized) == "" {
		return map[string]interface{}{}, nil
	}
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(argumentsSerialized), &args); err != nil {
		return nil, fmt.Errorf("invalid JSON arguments: %w", err)
	}
	return args, nil
}

func joinValidationErrors(err error) string {
	if ve, ok := err.(*jsonschema.ValidationError); ok {
		var msgs []string
		collectValidationMessages(ve, &msgs)
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return err.Error()
}

func collectValidationMessages(ve *jsonschema.ValidationError, out *[]string) {
	if ve == nil {
		return
	}
	if ve.Message != "" {
		*out = append(*out, ve.Message)
	}
	for _, cause := range ve.Causes {
		collectValidationMessages(cause, out)
	}
}

func unknownToolSummary(name string, known []string) string {
	return fmt.Sprintf("Unknown tool %q. Available tools: %s", name, strings.Join(known, ", "))
}
