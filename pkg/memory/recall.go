package memory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/neuronos/neuronos/pkg/neuronerr"
)

// recallGCSummaryKind tags the placeholder entry AppendRecall inserts
// in place of the oldest entries it truncates once RecallCapBytes is
// exceeded, per spec.md §4.5's "summaries from §4.8 are inserted in
// their place" — excluded from its own eviction pass so GC doesn't
// immediately cannibalize the summary it just wrote.
const recallGCSummaryKind = "gc_summary"

// recallGCSummaryMaxChars bounds the digest text folded into a GC
// summary entry, mirroring the truncation idiom ObservationCap uses in
// pkg/agent for tool observations.
const recallGCSummaryMaxChars = 512

// AppendRecall writes a new Recall entry (a recently-compacted
// conversation summary or turn) and indexes it for search. Write goes
// to Badger before the call returns, per spec.md §4.5's write-through
// durability requirement.
func (s *Store) AppendRecall(entry Entry) (Entry, error) {
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
		return Entry{}, neuronerr.Wrap(neuronerr.KindEngineError, "marshal recall entry", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recallKey(entry.ID), val)
	})
	if err != nil {
		return Entry{}, neuronerr.Wrap(neuronerr.KindIOError, "append recall entry", err)
	}

	s.recall.Index(entry.ID, entry.Text, entry.CreatedAt)
	s.recallBytes += int64(len(val))

	// Garbage collection is best-effort housekeeping: a failure here
	// must not turn an already-durable append into a reported error.
	_ = s.enforceRecallCap()

	return entry, nil
}

// enforceRecallCap truncates the oldest Recall entries once the tier's
// total size exceeds opt.RecallCapBytes, per spec.md §4.5, replacing
// them with a single digest entry so the gist of what was truncated
// remains searchable.
func (s *Store) enforceRecallCap() error {
	if s.opt.RecallCapBytes <= 0 || s.recallBytes <= s.opt.RecallCapBytes {
		return nil
	}

	type victim struct {
		key   []byte
		entry Entry
		size  int64
	}
	var victims []victim
	remaining := s.recallBytes

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte{prefixRecall}
		for it.Seek(prefix); it.ValidForPrefix(prefix) && remaining > s.opt.RecallCapBytes; it.Next() {
			item := it.Item()
			size := int64(item.ValueSize())
			var entry Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				continue
			}
			if entry.Metadata["kind"] == recallGCSummaryKind {
				continue
			}
			victims = append(victims, victim{key: item.KeyCopy(nil), entry: entry, size: size})
			remaining -= size
		}
		return nil
	})
	if err != nil {
		return neuronerr.Wrap(neuronerr.KindIOError, "scan recall entries for eviction", err)
	}
	if len(victims) == 0 {
		return nil
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, v := range victims {
			if err := txn.Delete(v.key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return neuronerr.Wrap(neuronerr.KindIOError, "evict recall entries", err)
	}

	texts := make([]string, 0, len(victims))
	for _, v := range victims {
		s.recall.Remove(v.entry.ID)
		s.recallBytes -= v.size
		texts = append(texts, v.entry.Text)
	}
	return s.appendRecallGCSummary(texts)
}

// appendRecallGCSummary writes the digest entry enforceRecallCap
// inserts in place of the entries it truncated.
func (s *Store) appendRecallGCSummary(texts []string) error {
	digest := strings.Join(texts, " | ")
	if len(digest) > recallGCSummaryMaxChars {
		digest = digest[:recallGCSummaryMaxChars] + "..."
	}
	entry := Entry{
		ID:        nextEntryID(),
		Text:      fmt.Sprintf("[recall gc] truncated %d entries: %s", len(texts), digest),
		CreatedAt: time.Now(),
		Metadata:  map[string]string{"kind": recallGCSummaryKind},
	}
	val, err := json.Marshal(entry)
	if err != nil {
		return neuronerr.Wrap(neuronerr.KindEngineError, "marshal recall gc summary", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recallKey(entry.ID), val)
	}); err != nil {
		return neuronerr.Wrap(neuronerr.KindIOError, "append recall gc summary", err)
	}
	s.recall.Index(entry.ID, entry.Text, entry.CreatedAt)
	s.recallBytes += int64(len(val))
	return nil
}

// SearchRecall runs a BM25 search over Recall entries.
func (s *Store) SearchRecall(query string, limit int) ([]Entry, error) {
	return s.searchTier(s.recall, recallKey, query, limit)
}

// GetRecall fetches one Recall entry by ID.
func (s *Store) GetRecall(id string) (Entry, bool, error) {
	return s.getEntry(recallKey(id), false)
}

// DeleteRecall removes a Recall entry from storage and the index. No
// code in the module calls it outside tests.
func (s *Store) DeleteRecall(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recall.Remove(id)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recallKey(id))
	})
}

func (s *Store) searchTier(index *ftsIndex, keyFn func(string) []byte, query string, limit int) ([]Entry, error) {
	results := index.Search(query, limit)
	entries := make([]Entry, 0, len(results))
	for _, r := range results {
		key := keyFn(r.ID)
		entry, ok, err := s.getEntry(key, key[0] == prefixArchival)
		if err != nil {
			return nil, err
		}
		if ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (s *Store) getEntry(key []byte, encrypted bool) (Entry, bool, error) {
	var entry Entry
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if encrypted && s.opt.Encryptor != nil {
				plain, derr := s.opt.Encryptor.Decrypt(val)
				if derr != nil {
					return derr
				}
				val = plain
			}
			if uerr := json.Unmarshal(val, &entry); uerr != nil {
				return uerr
			}
			found = true
			return nil
		})
	})
	if err != nil {
		return Entry{}, false, neuronerr.Wrap(neuronerr.KindIOError, "get entry", err)
	}
	return entry, found, nil
}
