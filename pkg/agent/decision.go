package agent

import (
	"encoding/json"

	"github.com/neuronos/neuronos/pkg/neuronerr"
)

// Decision is the model's per-step output, per spec.md §4.7:
// `{"action": "tool", "tool": NAME, "args": {...}, "thought": STR}` or
// `{"action": "final", "answer": STR, "thought": STR}`.
type Decision struct {
	Action  string          `json:"action"`
	Tool    string          `json:"tool,omitempty"`
	Args    json.RawMessage `json:"args,omitempty"`
	Thought string          `json:"thought,omitempty"`
	Answer  string          `json:"answer,omitempty"`
}

const (
	ActionTool  = "tool"
	ActionFinal = "final"
)

// parseDecision decodes the model's raw text into a Decision,
// rejecting anything that isn't one of the two permitted shapes.
// Malformed output is a ParseError per spec.md §7, handled by the
// controller's one-retry policy.
func parseDecision(raw string) (Decision, error) {
	var d Decision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return Decision{}, neuronerr.Wrap(neuronerr.KindParseError, "decoding agent decision", err)
	}
	switch d.Action {
	case ActionTool:
		if d.Tool == "" {
			return Decision{}, neuronerr.New(neuronerr.KindParseError, "tool action missing tool name")
		}
	case ActionFinal:
		// Answer may legitimately be empty; nothing further to check.
	default:
		return Decision{}, neuronerr.New(neuronerr.KindParseError, "unknown action: "+d.Action)
	}
	return d, nil
}

// retryReminder is appended to the prompt after a malformed decision,
// per spec.md §4.7 step 4: "retry once with a stricter reminder
// appended".
const retryReminder = "\n\nYour previous output was not valid JSON matching the required shape. " +
	"Respond with ONLY a single JSON object: either " +
	`{"action":"tool","tool":NAME,"args":{...},"thought":STR}` + " or " +
	`{"action":"final","answer":STR,"thought":STR}` + ". No other text."
