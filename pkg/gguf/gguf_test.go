package gguf

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint64(len(s)))
	buf.WriteString(s)
}

func writeKVString(buf *bytes.Buffer, key, val string) {
	writeString(buf, key)
	binary.Write(buf, binary.LittleEndian, uint32(vtString))
	writeString(buf, val)
}

func buildMinimalGGUF(t *testing.T, arch, name string, padding int) string {
	t.Helper()
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(magic))
	binary.Write(&buf, binary.LittleEndian, uint32(3))
	binary.Write(&buf, binary.LittleEndian, uint64(0)) // tensor count
	binary.Write(&buf, binary.LittleEndian, uint64(2)) // kv count
	writeKVString(&buf, "general.architecture", arch)
	writeKVString(&buf, "general.name", name)
	buf.Write(make([]byte, padding))

	dir := t.TempDir()
	path := filepath.Join(dir, "falcon3-7b-instruct-1.58bit-i2_s.gguf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestReadMetadataBasicFields(t *testing.T) {
	path := buildMinimalGGUF(t, "llama", "Falcon3 7B Instruct", 1024)

	m, err := ReadMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, "llama", m.Architecture)
	assert.Equal(t, "Falcon3 7B Instruct", m.DisplayName)
	assert.Equal(t, "I2_S", m.QuantizationTag)
	assert.Greater(t, m.EstimatedParams, int64(0))
	assert.Greater(t, m.FileSizeMB, 0.0)
}

func TestReadMetadataRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.gguf")
	require.NoError(t, os.WriteFile(path, []byte("NOPE1234"), 0o644))

	_, err := ReadMetadata(path)
	require.Error(t, err)
}

func TestDisplayNameFallsBackToFilenameWithoutExt(t *testing.T) {
	assert.Equal(t, "model", displayName("/a/b/model.gguf"))
}

func TestInferQuantTagFromFilename(t *testing.T) {
	tag := inferQuantTag(map[string]any{}, "/models/tinyllama-Q4_K_M.gguf")
	assert.Equal(t, "Q4_K_M", tag)
}
