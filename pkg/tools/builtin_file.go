package tools

import "os"

// MaxReadFileBytes is the read_file size cap, per spec.md §4.4:
// "read_file (≤32 KiB; requires FILESYSTEM cap)".
const MaxReadFileBytes = 32 * 1024

// ReadFileArgs is read_file's structured argument shape.
type ReadFileArgs struct {
	Path string `json:"path"`
}

// NewReadFileTool builds the `read_file` built-in.
func NewReadFileTool() Descriptor {
	return Descriptor{
		Name:        "read_file",
		Description: "Read a file's contents, up to 32 KiB.",
		Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"path": map[string]any{"type": "string"}},
			"required":   []string{"path"},
		},
		RequiredCaps: CapFilesystem,
		Executor: func(argsJSON string) Result {
			args, err := ParseArgs[ReadFileArgs](argsJSON)
			if err != nil {
				return Result{Success: false, Error: err.Error()}
			}

			f, err := os.Open(args.Path)
			if err != nil {
				return Result{Success: false, Error: err.Error()}
			}
			defer f.Close()

			buf := make([]byte, MaxReadFileBytes)
			n, err := f.Read(buf)
			if err != nil && n == 0 {
				return Result{Success: false, Error: err.Error()}
			}
			return Result{Success: true, Output: string(buf[:n])}
		},
	}
}

// WriteFileArgs is write_file's structured argument shape.
type WriteFileArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// NewWriteFileTool builds the `write_file` built-in.
func NewWriteFileTool() Descriptor {
	return Descriptor{
		Name:        "write_file",
		Description: "Write content to a file, creating or truncating it.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":    map[string]any{"type": "string"},
				"content": map[string]any{"type": "string"},
			},
			"required": []string{"path", "content"},
		},
		RequiredCaps: CapFilesystem,
		Executor: func(argsJSON string) Result {
			args, err := ParseArgs[WriteFileArgs](argsJSON)
			if err != nil {
				return Result{Success: false, Error: err.Error()}
			}
			if err := os.WriteFile(args.Path, []byte(args.Content), 0o644); err != nil {
				return Result{Success: false, Error: err.Error()}
			}
			return Result{Success: true, Output: "wrote " + args.Path}
		},
	}
}
