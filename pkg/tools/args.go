package tools

import (
	"encoding/json"
	"strings"

	"github.com/neuronos/neuronos/pkg/neuronerr"
)

// ParseArgs is the single shared JSON argument parser every tool
// consumes, per spec.md §4.4's explicit requirement: "the core MUST
// expose a single shared JSON parser and all tools consume it (the
// legacy regex-per-tool parsing is a source bug, see §9)". Tools
// decode into their own typed argument struct via this one call site
// instead of hand-rolling string scanning.
func ParseArgs[T any](argsJSON string) (T, error) {
	var out T
	if strings.TrimSpace(argsJSON) == "" {
		return out, neuronerr.New(neuronerr.KindInvalidArgument, "empty tool arguments")
	}
	dec := json.NewDecoder(strings.NewReader(argsJSON))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, neuronerr.Wrap(neuronerr.KindParseError, "decoding tool arguments", err)
	}
	return out, nil
}
