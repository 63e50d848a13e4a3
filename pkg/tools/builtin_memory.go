package tools

import (
	"fmt"

	"github.com/neuronos/neuronos/pkg/memory"
)

// MemorySearchArgs is memory_search's structured argument shape.
type MemorySearchArgs struct {
	Query string `json:"query"`
	Tier  string `json:"tier,omitempty"` // "recall" (default) or "archival"
	Limit int    `json:"limit,omitempty"`
}

// NewMemorySearchTool builds the `memory_search` built-in, per
// SPEC_FULL.md SUPPLEMENTED FEATURES #6: a tool-callable front door
// onto the Recall and Archival tiers, so the agent can reach back into
// its own history instead of only ever seeing what Core memory and
// recent turns already surfaced in the prompt.
func NewMemorySearchTool(store *memory.Store) Descriptor {
	return Descriptor{
		Name:        "memory_search",
		Description: "Search Recall or Archival memory for relevant past turns or notes.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string"},
				"tier":  map[string]any{"type": "string", "enum": []string{"recall", "archival"}},
				"limit": map[string]any{"type": "integer"},
			},
			"required": []string{"query"},
		},
		Executor: func(argsJSON string) Result {
			args, err := ParseArgs[MemorySearchArgs](argsJSON)
			if err != nil {
				return Result{Success: false, Error: err.Error()}
			}
			limit := args.Limit
			if limit <= 0 {
				limit = 5
			}

			var entries []memory.Entry
			var searchErr error
			if args.Tier == "archival" {
				entries, searchErr = store.SearchArchival(args.Query, limit)
			} else {
				entries, searchErr = store.SearchRecall(args.Query, limit)
			}
			if searchErr != nil {
				return Result{Success: false, Error: searchErr.Error()}
			}
			if len(entries) == 0 {
				return Result{Success: true, Output: "no matching memory entries"}
			}

			out := ""
			for i, e := range entries {
				out += fmt.Sprintf("%d. [%s] %s\n", i+1, e.ID, e.Text)
			}
			return Result{Success: true, Output: out}
		},
	}
}

// MemoryStoreArgs is memory_store's structured argument shape.
type MemoryStoreArgs struct {
	Text string `json:"text"`
	Tier string `json:"tier,omitempty"` // "recall" (default) or "archival"
}

// NewMemoryStoreTool builds the `memory_store` built-in: lets the
// agent deliberately persist a note beyond the current conversation's
// retention window, independent of whatever compaction later decides
// to summarize.
func NewMemoryStoreTool(store *memory.Store) Descriptor {
	return Descriptor{
		Name:        "memory_store",
		Description: "Persist a note to Recall or Archival memory for later retrieval.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
				"tier": map[string]any{"type": "string", "enum": []string{"recall", "archival"}},
			},
			"required": []string{"text"},
		},
		Executor: func(argsJSON string) Result {
			args, err := ParseArgs[MemoryStoreArgs](argsJSON)
			if err != nil {
				return Result{Success: false, Error: err.Error()}
			}

			entry := memory.Entry{Text: args.Text}
			var stored memory.Entry
			var storeErr error
			if args.Tier == "archival" {
				stored, storeErr = store.AppendArchival(entry)
			} else {
				stored, storeErr = store.AppendRecall(entry)
			}
			if storeErr != nil {
				return Result{Success: false, Error: storeErr.Error()}
			}
			return Result{Success: true, Output: "stored as " + stored.ID}
		},
	}
}

// MemoryCoreUpdateArgs is memory_core_update's structured argument shape.
type MemoryCoreUpdateArgs struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewMemoryCoreUpdateTool builds the `memory_core_update` built-in,
// letting the agent edit its own Core memory blocks (the ones
// reflected verbatim at the head of every prompt, per spec.md §4.5)
// instead of Core only ever being seeded by the operator.
func NewMemoryCoreUpdateTool(store *memory.Store) Descriptor {
	return Descriptor{
		Name:        "memory_core_update",
		Description: "Set or overwrite a named Core memory block, always visible in the prompt.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":  map[string]any{"type": "string"},
				"value": map[string]any{"type": "string"},
			},
			"required": []string{"name", "value"},
		},
		Executor: func(argsJSON string) Result {
			args, err := ParseArgs[MemoryCoreUpdateArgs](argsJSON)
			if err != nil {
				return Result{Success: false, Error: err.Error()}
			}
			if err := store.SetCore(args.Name, []byte(args.Value)); err != nil {
				return Result{Success: false, Error: err.Error()}
			}
			return Result{Success: true, Output: "updated core block " + args.Name}
		},
	}
}
