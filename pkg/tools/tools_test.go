package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopExecutor(argsJSON string) Result {
	return Result{Success: true, Output: "ok"}
}

func TestRegisterDuplicateNameFails(t *testing.T) {
	r := NewRegistry(4)
	require.NoError(t, r.Register(Descriptor{Name: "shell", Executor: noopExecutor}))
	err := r.Register(Descriptor{Name: "shell", Executor: noopExecutor})
	require.Error(t, err)
	assert.Equal(t, []string{"shell"}, r.Names())
}

func TestRegisterNilExecutorFails(t *testing.T) {
	r := NewRegistry(4)
	err := r.Register(Descriptor{Name: "x"})
	require.Error(t, err)
}

func TestRegisterCapacityOverflow(t *testing.T) {
	r := NewRegistry(1)
	require.NoError(t, r.Register(Descriptor{Name: "a", Executor: noopExecutor}))
	err := r.Register(Descriptor{Name: "b", Executor: noopExecutor})
	require.Error(t, err)
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry(4)
	res := r.Execute("missing", "{}", 0)
	assert.False(t, res.Success)
	assert.Equal(t, "Tool not found", res.Error)
}

func TestExecuteCapabilityGating(t *testing.T) {
	r := NewRegistry(4)
	require.NoError(t, r.Register(Descriptor{Name: "shell", Executor: noopExecutor, RequiredCaps: CapShell}))

	denied := r.Execute("shell", "{}", 0)
	assert.False(t, denied.Success)
	assert.Equal(t, "permission denied", denied.Error)

	allowed := r.Execute("shell", "{}", CapShell)
	assert.True(t, allowed.Success)
}

func TestGrammarFragmentOrderMatchesRegistration(t *testing.T) {
	r := NewRegistry(4)
	require.NoError(t, r.Register(Descriptor{Name: "shell", Executor: noopExecutor}))
	require.NoError(t, r.Register(Descriptor{Name: "read_file", Executor: noopExecutor}))

	frag := r.GrammarFragment()
	assert.Equal(t, `tool-name ::= "\"shell\"" | "\"read_file\""`, frag)
}

func TestPromptDescriptionListsAllTools(t *testing.T) {
	r := NewRegistry(4)
	require.NoError(t, r.Register(Descriptor{
		Name: "calculate", Description: "evaluate math", Executor: noopExecutor,
		Schema: map[string]any{"type": "object"},
	}))
	desc := r.PromptDescription()
	assert.Contains(t, desc, "- calculate: evaluate math")
}

func TestCalculateTool(t *testing.T) {
	d := NewCalculateTool()
	res := d.Executor(`{"expression":"2+2"}`)
	require.True(t, res.Success)
	assert.Equal(t, "4", res.Output)

	res2 := d.Executor(`{"expression":"(2+3)*4"}`)
	require.True(t, res2.Success)
	assert.Equal(t, "20", res2.Output)

	res3 := d.Executor(`{"expression":"1/0"}`)
	assert.False(t, res3.Success)
}

func TestShellToolRunsWithoutShellInterpolation(t *testing.T) {
	d := NewShellTool(0)
	res := d.Executor(`{"command":"echo","args":["hello"]}`)
	require.True(t, res.Success)
	assert.Contains(t, res.Output, "hello")
}

func TestReadFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/f.txt"

	w := NewWriteFileTool()
	res := w.Executor(`{"path":"` + path + `","content":"hi"}`)
	require.True(t, res.Success)

	rd := NewReadFileTool()
	res2 := rd.Executor(`{"path":"` + path + `"}`)
	require.True(t, res2.Success)
	assert.Equal(t, "hi", res2.Output)
}

func TestParseArgsRejectsEmptyAndUnknownFields(t *testing.T) {
	_, err := ParseArgs[ShellArgs]("")
	require.Error(t, err)

	_, err = ParseArgs[ShellArgs](`{"command":"ls","bogus":1}`)
	require.Error(t, err)
}
