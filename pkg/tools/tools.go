// Package tools implements the NeuronOS tool registry (C5): a
// name-keyed, capability-gated map from tool name to (schema,
// executor), with derived GBNF grammar fragments and prompt
// descriptions for constraining and documenting the model's tool
// calls.
package tools

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/neuronos/neuronos/pkg/neuronerr"
)

// Capability is a bitset of permissions granted to an agent, per
// spec.md §3: "a bitset of granted permissions (filesystem, shell,
// network, …)".
type Capability uint32

const (
	CapShell Capability = 1 << iota
	CapFilesystem
	CapNetwork
)

// Has reports whether all bits in want are present in c.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

// Result is the outcome of executing a tool, per spec.md §3's
// ToolResult: "success flag; optional output text; optional error
// text. Owned by the caller after return."
type Result struct {
	Success bool
	Output  string
	Error   string
}

// Executor runs a tool given its raw JSON argument string.
type Executor func(argsJSON string) Result

// Descriptor is one registered tool, per spec.md §3's ToolDescriptor.
type Descriptor struct {
	Name         string
	Description  string
	Schema       map[string]any
	Executor     Executor
	RequiredCaps Capability
}

// DefaultCapacity is the registry's default fixed capacity; spec.md
// §4.4 requires the implementation to choose one and names "≥64" as
// the floor.
const DefaultCapacity = 64

// Registry is an ordered name->Descriptor map: registration order is
// preserved for deterministic grammar output (spec.md §9), while
// lookup by name is amortized constant time, replacing the "fixed
// capacity array with linear scan" C idiom the source used (see
// spec.md §9 and DESIGN.md).
type Registry struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	byName   map[string]*Descriptor
}

// NewRegistry constructs an empty Registry with the given capacity.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{
		capacity: capacity,
		byName:   make(map[string]*Descriptor, capacity),
	}
}

// Register adds desc to the registry. Fails on duplicate name, a nil
// executor, or capacity overflow, per spec.md §4.4.
func (r *Registry) Register(desc Descriptor) error {
	if desc.Name == "" {
		return neuronerr.New(neuronerr.KindInvalidArgument, "tool name must not be empty")
	}
	if desc.Executor == nil {
		return neuronerr.New(neuronerr.KindInvalidArgument, "tool executor must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[desc.Name]; exists {
		return neuronerr.New(neuronerr.KindInvalidArgument, "duplicate tool name: "+desc.Name)
	}
	if len(r.order) >= r.capacity {
		return neuronerr.New(neuronerr.KindResourceExhausted, "tool registry at capacity")
	}

	d := desc
	r.byName[desc.Name] = &d
	r.order = append(r.order, desc.Name)
	return nil
}

// Execute performs a linear-by-name lookup (amortized constant via
// the map) and dispatches to the tool's executor, gated by granted
// capabilities. Per spec.md §4.4/§4.7: unknown tool returns
// {success=false, error="Tool not found"}; denied capability returns
// "permission denied" without invoking the executor.
func (r *Registry) Execute(name, argsJSON string, granted Capability) Result {
	r.mu.RLock()
	d, ok := r.byName[name]
	r.mu.RUnlock()

	if !ok {
		return Result{Success: false, Error: "Tool not found"}
	}
	if !granted.Has(d.RequiredCaps) {
		return Result{Success: false, Error: "permission denied"}
	}
	return d.Executor(argsJSON)
}

// Lookup returns the descriptor for name, if registered.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return *d, true
}

// Names returns registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// GrammarFragment produces the GBNF `tool-name` rule constraining the
// model's tool-call JSON, per spec.md §4.4:
// `tool-name ::= "\"t1\"" | "\"t2\"" | …`, in registration order.
func (r *Registry) GrammarFragment() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.order) == 0 {
		return `tool-name ::= ""`
	}
	out := "tool-name ::= "
	for i, name := range r.order {
		if i > 0 {
			out += " | "
		}
		out += `"\"` + name + `\""`
	}
	return out
}

// PromptDescription renders every registered tool as
// `- name: description Args schema: {...}`, injected into the system
// prompt per spec.md §4.4.
func (r *Registry) PromptDescription() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := ""
	for _, name := range r.order {
		d := r.byName[name]
		schemaJSON, _ := json.Marshal(d.Schema)
		out += "- " + d.Name + ": " + d.Description + " Args schema: " + string(schemaJSON) + "\n"
	}
	return out
}

// CapabilityNames renders a capability mask as a sorted, human
// readable list, for diagnostics and log lines.
func CapabilityNames(c Capability) []string {
	all := []struct {
		bit  Capability
		name string
	}{
		{CapShell, "shell"},
		{CapFilesystem, "filesystem"},
		{CapNetwork, "network"},
	}
	var out []string
	for _, a := range all {
		if c.Has(a.bit) {
			out = append(out, a.name)
		}
	}
	sort.Strings(out)
	return out
}
