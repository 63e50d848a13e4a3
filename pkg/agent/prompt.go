package agent

import (
	"strings"

	"github.com/neuronos/neuronos/pkg/contextacct"
	"github.com/neuronos/neuronos/pkg/memory"
	"github.com/neuronos/neuronos/pkg/tools"
)

// systemPreamble instructs the model to emit one of the two permitted
// JSON decision shapes, per spec.md §4.7 step 1.
const systemPreamble = `You are an autonomous agent that solves tasks by calling tools one at a time.
At every turn, respond with exactly one JSON object, and nothing else:
  {"action": "tool", "tool": NAME, "args": {...}, "thought": STR} to call a tool, or
  {"action": "final", "answer": STR, "thought": STR} once you have the answer.`

// composePrompt builds the full prompt: system preamble, tool
// descriptions and grammar-eligible names, Core memory blocks
// reflected verbatim, then the recent conversation turns, per
// spec.md §4.7 step 1.
func composePrompt(registry *tools.Registry, mem *memory.Store, turns []contextacct.Turn) (string, error) {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\nAvailable tools:\n")
	b.WriteString(registry.PromptDescription())

	if mem != nil {
		names, err := mem.ListCore()
		if err != nil {
			return "", err
		}
		if len(names) > 0 {
			b.WriteString("\nCore memory:\n")
			for _, name := range names {
				val, ok, err := mem.GetCore(name)
				if err != nil {
					return "", err
				}
				if ok {
					b.WriteString("- " + name + ": " + string(val) + "\n")
				}
			}
		}
	}

	b.WriteString("\nConversation:\n")
	for _, t := range turns {
		b.WriteString(string(t.Role) + ": " + t.Text + "\n")
	}
	return b.String(), nil
}
