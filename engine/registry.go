package engine

import (
	"github.com/agentos-dev/agentos-go/core"
	"github.com/agentos-dev/agentos-go/llm"
)

// ToolRegistry holds the tools available to the agent, preserving
// registration order for the specs sent to the model.
type ToolRegistry struct {
	tools map[string]core.Tool
	order []string
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]core.Tool)}
}

// Register adds a tool. Re-registering a name replaces the tool but keeps
// its original position.
func (r *ToolRegistry) Register(t core.Tool) {
	name := t.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// RegisterAll adds a batch of tools.
func (r *ToolRegistry) RegisterAll(tools []core.Tool) {
	for _, t := range tools {
		r.Register(t)
	}
}

// Get looks up a tool by name.
func (r *ToolRegistry) Get(name string) (core.Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Specs returns the tool specifications in registration order.
func (r *ToolRegistry) Specs() []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		specs = append(specs, llm.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return specs
}

// Len returns the number of registered tools.
func (r *ToolRegistry) Len() int {
	return len(r.order)
}
