package tools

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// ShellArgs is the structured argument shape for the shell tool.
// Per SPEC_FULL.md SUPPLEMENTED FEATURES #4 (resolving spec.md §9's
// shell-escaping open question), command and args are separate JSON
// fields passed straight to exec.CommandContext with no shell string
// interpolation at all — there is no shell metacharacter to escape
// because no shell ever parses a command line.
type ShellArgs struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// DefaultToolTimeout is the per-tool execution timeout, per spec.md
// §5: "per-tool execution timeout (default 30 s)".
const DefaultToolTimeout = 30 * time.Second

// NewShellTool builds the `shell` built-in, which requires CapShell
// per spec.md §4.4.
func NewShellTool(timeout time.Duration) Descriptor {
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	return Descriptor{
		Name:        "shell",
		Description: "Run a command with arguments, no shell interpretation.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{"type": "string"},
				"args":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []string{"command"},
		},
		RequiredCaps: CapShell,
		Executor: func(argsJSON string) Result {
			args, err := ParseArgs[ShellArgs](argsJSON)
			if err != nil {
				return Result{Success: false, Error: err.Error()}
			}
			if args.Command == "" {
				return Result{Success: false, Error: "command must not be empty"}
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			cmd := exec.CommandContext(ctx, args.Command, args.Args...)
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			if err := cmd.Run(); err != nil {
				if ctx.Err() == context.DeadlineExceeded {
					return Result{Success: false, Error: "timeout"}
				}
				msg := err.Error()
				if stderr.Len() > 0 {
					msg = stderr.String()
				}
				return Result{Success: false, Error: msg}
			}
			return Result{Success: true, Output: stdout.String()}
		},
	}
}
