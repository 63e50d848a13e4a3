package memory

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/neuronos/neuronos/pkg/neuronerr"
)

// AppendArchival writes a new Archival entry (long-term, rarely
// revisited memory, per spec.md §4.5) and indexes it for search. If the
// Store was opened with an Encryptor, the entry body is encrypted
// before it touches disk.
func (s *Store) AppendArchival(entry Entry) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = nextEntryID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	val, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, neuronerr.Wrap(neuronerr.KindEngineError, "marshal archival entry", err)
	}

	if s.opt.Encryptor != nil {
		val, err = s.opt.Encryptor.Encrypt(val)
		if err != nil {
			return Entry{}, err
		}
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(archivalKey(entry.ID), val)
	})
	if err != nil {
		return Entry{}, neuronerr.Wrap(neuronerr.KindIOError, "append archival entry", err)
	}

	s.archive.Index(entry.ID, entry.Text, entry.CreatedAt)
	return entry, nil
}

// SearchArchival runs a BM25 search over Archival entries.
func (s *Store) SearchArchival(query string, limit int) ([]Entry, error) {
	return s.searchTier(s.archive, archivalKey, query, limit)
}

// GetArchival fetches one Archival entry by ID.
func (s *Store) GetArchival(id string) (Entry, bool, error) {
	return s.getEntry(archivalKey(id), true)
}
