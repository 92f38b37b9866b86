// Package tools holds the named deterministic tools available to the stage
// agents and the dynamic planner.
//
// Tools are registered once at startup, the registry is then sealed and only
// read. Every tool owns its result envelope: success with data, or failure
// with an error message. A panicking tool is reported as a failure envelope.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ppiankov/claimflow/internal/model"
)

// Name identifies a registered tool
type Name string

// Built-in tool names
const (
	DocumentParser     Name = "documentParser"
	DataConverter      Name = "dataConverter"
	SchemaValidator    Name = "schemaValidator"
	DocumentClassifier Name = "documentClassifier"
	RulesEngine        Name = "rulesEngine"
	RiskCalculator     Name = "riskCalculator"
	QualityChecker     Name = "qualityChecker"
)

// Property describes one input key
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Enum        []any  `json:"enum,omitempty"`
}

// InputSchema declares the input shape of a tool
type InputSchema struct {
	Required   []string            `json:"required"`
	Properties map[string]Property `json:"properties"`
}

// Descriptor describes a tool to callers and to the planner prompt
type Descriptor struct {
	Name        Name        `json:"name"`
	Description string      `json:"description"`
	Input       InputSchema `json:"inputSchema"`
}

// Handler executes a tool against a loosely typed input
type Handler func(ctx context.Context, input map[string]any) model.ToolResult

type entry struct {
	desc    Descriptor
	handler Handler
}

// Registry maps tool names to handlers
type Registry struct {
	mu     sync.RWMutex
	tools  map[Name]entry
	sealed bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{tools: make(map[Name]entry)}
}

// Register adds a tool. Names are unique.
func (r *Registry) Register(desc Descriptor, handler Handler) error {
	if desc.Name == "" {
		return ErrToolNameEmpty
	}
	if handler == nil {
		return fmt.Errorf("%w: %s", ErrToolHandlerNil, desc.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("%w: %s", ErrRegistrySealed, desc.Name)
	}
	if _, exists := r.tools[desc.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, desc.Name)
	}
	r.tools[desc.Name] = entry{desc: desc, handler: handler}
	return nil
}

// MustRegister registers a tool and panics on error
func (r *Registry) MustRegister(desc Descriptor, handler Handler) {
	if err := r.Register(desc, handler); err != nil {
		panic(err)
	}
}

// Seal rejects any further registration
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Has reports whether a tool is registered
func (r *Registry) Has(name Name) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Lookup resolves a raw tool name chosen at runtime
func (r *Registry) Lookup(raw string) (Name, bool) {
	name := Name(raw)
	return name, r.Has(name)
}

// Descriptors returns every descriptor sorted by name
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.tools))
	for _, e := range r.tools {
		out = append(out, e.desc)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Names returns every registered name sorted
func (r *Registry) Names() []Name {
	descs := r.Descriptors()
	names := make([]Name, len(descs))
	for i, d := range descs {
		names[i] = d.Name
	}
	return names
}

// Invoke runs a tool and returns its envelope untouched.
// Returns ErrToolNotFound if the tool doesn't exist.
func (r *Registry) Invoke(ctx context.Context, name Name, input map[string]any) (result model.ToolResult, err error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return model.ToolResult{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	defer func() {
		if p := recover(); p != nil {
			result = Failure(fmt.Errorf("tool %s panicked: %v", name, p))
		}
	}()

	if input == nil {
		input = map[string]any{}
	}
	return e.handler(ctx, input), nil
}

// Success wraps tool output in a success envelope
func Success(data any) model.ToolResult {
	return model.ToolResult{Success: true, Data: data}
}

// Failure wraps an error in a failure envelope
func Failure(err error) model.ToolResult {
	return model.ToolResult{Success: false, Error: err.Error()}
}
