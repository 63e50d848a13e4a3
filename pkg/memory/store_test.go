package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCoreSetGetDelete(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SetCore("persona", []byte("helpful assistant")))
	val, ok, err := s.GetCore("persona")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "helpful assistant", string(val))

	require.NoError(t, s.DeleteCore("persona"))
	_, ok, err = s.GetCore("persona")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCoreRejectsOversizedBlock(t *testing.T) {
	s := openTestStore(t)
	big := make([]byte, DefaultCoreMaxBlockKB*1024+1)
	err := s.SetCore("too-big", big)
	require.Error(t, err)
}

func TestCoreRejectsBeyondBlockLimit(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < DefaultCoreMaxBlocks; i++ {
		name := string(rune('a' + i))
		require.NoError(t, s.SetCore(name, []byte("v")))
	}
	err := s.SetCore("overflow", []byte("v"))
	require.Error(t, err)
}

func TestCoreOverwriteDoesNotCountAgainstLimit(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < DefaultCoreMaxBlocks; i++ {
		name := string(rune('a' + i))
		require.NoError(t, s.SetCore(name, []byte("v")))
	}
	require.NoError(t, s.SetCore("a", []byte("v2")))
	val, ok, err := s.GetCore("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", string(val))
}

func TestRecallAppendAndSearch(t *testing.T) {
	s := openTestStore(t)

	_, err := s.AppendRecall(Entry{Text: "the user prefers dark mode in the editor"})
	require.NoError(t, err)
	_, err = s.AppendRecall(Entry{Text: "the weather today is sunny and warm"})
	require.NoError(t, err)

	results, err := s.SearchRecall("dark mode editor", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Text, "dark mode")
}

func TestRecallDelete(t *testing.T) {
	s := openTestStore(t)
	entry, err := s.AppendRecall(Entry{Text: "ephemeral note about scratch work"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteRecall(entry.ID))
	_, ok, err := s.GetRecall(entry.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	results, err := s.SearchRecall("scratch", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRecallCapEvictsOldestEntriesAndInsertsSummary(t *testing.T) {
	s, err := Open(Options{InMemory: true, RecallCapBytes: 300})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	first, err := s.AppendRecall(Entry{Text: "the oldest entry that should be truncated first"})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err := s.AppendRecall(Entry{Text: "a later, unrelated recall entry padding out the tier"})
		require.NoError(t, err)
	}

	_, ok, err := s.GetRecall(first.ID)
	require.NoError(t, err)
	assert.False(t, ok, "oldest entry should have been evicted once the cap was exceeded")

	results, err := s.SearchRecall("truncated", 5)
	require.NoError(t, err)
	found := false
	for _, r := range results {
		if r.Metadata["kind"] == recallGCSummaryKind {
			found = true
		}
	}
	assert.True(t, found, "expected a gc_summary entry in place of the evicted entries")
	assert.LessOrEqual(t, s.recallBytes, int64(600), "recall total should stay close to the configured cap after eviction")
}

func TestArchivalAppendAndSearch(t *testing.T) {
	s := openTestStore(t)
	_, err := s.AppendArchival(Entry{Text: "long term fact: the project started in March"})
	require.NoError(t, err)

	results, err := s.SearchArchival("project started march", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
}

func TestArchivalEncryptedRoundTrip(t *testing.T) {
	enc, err := NewEncryptor([]byte("passphrase"), []byte("salt"))
	require.NoError(t, err)

	s, err := Open(Options{InMemory: true, Encryptor: enc})
	require.NoError(t, err)
	defer s.Close()

	entry, err := s.AppendArchival(Entry{Text: "secret long term memory"})
	require.NoError(t, err)

	got, ok, err := s.GetArchival(entry.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "secret long term memory", got.Text)

	results, err := s.SearchArchival("secret", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
}

func TestIndexesRebuildOnReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Options{DataDir: dir})
	require.NoError(t, err)
	_, err = s.AppendRecall(Entry{Text: "persisted recall entry about quarterly goals"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(Options{DataDir: dir})
	require.NoError(t, err)
	defer s2.Close()

	results, err := s2.SearchRecall("quarterly goals", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
}
