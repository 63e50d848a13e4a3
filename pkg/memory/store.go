// Package memory implements the three-tier agent memory (Core, Recall,
// Archival) required by spec.md §4.5. Per that section, the core treats
// the store as "three logical tables sharing one file" — this package
// realizes that as a single embedded BadgerDB database with single-byte
// key prefixes separating the tiers, the same organizing idiom
// pkg/storage/badger.go uses for its node/edge/index tables.
package memory

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/neuronos/neuronos/pkg/neuronerr"
)

var entryIDCounter uint64

// nextEntryID mints a unique memory entry ID from the current time and
// an atomic counter, the same scheme pkg/heimdall/scheduler.go uses for
// chat completion IDs.
func nextEntryID() string {
	n := atomic.AddUint64(&entryIDCounter, 1)
	return fmt.Sprintf("mem-%d-%d", time.Now().UnixNano(), n)
}

// Key prefixes for the three logical tables sharing one Badger file.
const (
	prefixCore     = byte(0x01) // core:blockName -> Block
	prefixRecall   = byte(0x02) // recall:entryID -> Entry
	prefixArchival = byte(0x03) // archival:entryID -> Entry
)

// Defaults per spec.md §4.5.
const (
	DefaultCoreMaxBlocks  = 8
	DefaultCoreMaxBlockKB = 2
)

// recallRecencyHalfLife is the exponential decay half-life Recall's
// search index applies on top of BM25 relevance, per spec.md §4.5's
// characterization of Recall as short-term conversational memory:
// a three-day-old turn with the same relevance score as a fresh one
// should rank behind it.
const recallRecencyHalfLife = 72 * time.Hour

// Options configures a Store.
type Options struct {
	// DataDir is the directory backing the embedded database. Required
	// unless InMemory is set.
	DataDir string

	// InMemory runs Badger in memory-only mode, for tests.
	InMemory bool

	// CoreMaxBlocks bounds the number of named Core blocks. Zero uses
	// DefaultCoreMaxBlocks.
	CoreMaxBlocks int

	// CoreMaxBlockBytes bounds the size of a single Core block's value.
	// Zero uses DefaultCoreMaxBlockKB*1024.
	CoreMaxBlockBytes int

	// Encryptor, if set, encrypts Archival entry bodies at rest. See
	// encrypt.go.
	Encryptor *Encryptor

	// RecallCapBytes bounds Recall's total stored size, per spec.md
	// §4.5's "when total size exceeds a cap, oldest entries are
	// truncated". Zero (the NEURONOS_RECALL_CAP_BYTES default) means
	// unbounded.
	RecallCapBytes int64
}

// Entry is one Recall or Archival record.
type Entry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Store is the three-tier memory store: Core (bounded key-value blocks),
// Recall (recent conversational entries), and Archival (long-term
// entries), backed by one Badger database with an in-process BM25 index
// over Recall and Archival.
type Store struct {
	db  *badger.DB
	opt Options

	mu          sync.Mutex
	recall      *ftsIndex
	archive     *ftsIndex
	recallBytes int64
}

// Open opens or creates a Store at opt.DataDir (or in memory).
func Open(opt Options) (*Store, error) {
	if opt.CoreMaxBlocks <= 0 {
		opt.CoreMaxBlocks = DefaultCoreMaxBlocks
	}
	if opt.CoreMaxBlockBytes <= 0 {
		opt.CoreMaxBlockBytes = DefaultCoreMaxBlockKB * 1024
	}

	badgerOpts := badger.DefaultOptions(opt.DataDir)
	if opt.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	badgerOpts = badgerOpts.WithLogger(nil)
	// Conversation history compresses well; ZSTD trades a little CPU
	// for materially smaller Recall/Archival value logs.
	badgerOpts = badgerOpts.WithCompression(options.ZSTD)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, neuronerr.Wrap(neuronerr.KindIOError, "open memory store", err)
	}

	s := &Store{
		db:      db,
		opt:     opt,
		recall:  newFTSIndex(recallRecencyHalfLife),
		archive: newFTSIndex(0),
	}
	if err := s.rebuildIndexes(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebuildIndexes replays Recall and Archival entries from Badger into
// the in-memory BM25 indexes at startup, since the index itself is not
// persisted — only the records it's built from are.
func (s *Store) rebuildIndexes() error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for _, p := range []struct {
			prefix byte
			index  *ftsIndex
			decode func([]byte) (Entry, error)
		}{
			{prefixRecall, s.recall, s.decodeEntry},
			{prefixArchival, s.archive, s.decodeArchivalEntry},
		} {
			prefix := []byte{p.prefix}
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				item := it.Item()
				var entry Entry
				err := item.Value(func(val []byte) error {
					e, err := p.decode(val)
					if err != nil {
						return err
					}
					entry = e
					return nil
				})
				if err != nil {
					continue
				}
				p.index.Index(entry.ID, entry.Text, entry.CreatedAt)
				if p.prefix == prefixRecall {
					s.recallBytes += int64(it.Item().ValueSize())
				}
			}
		}
		return nil
	})
}

func (s *Store) decodeEntry(val []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(val, &e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *Store) decodeArchivalEntry(val []byte) (Entry, error) {
	if s.opt.Encryptor != nil {
		plain, err := s.opt.Encryptor.Decrypt(val)
		if err != nil {
			return Entry{}, err
		}
		val = plain
	}
	return s.decodeEntry(val)
}

func coreKey(name string) []byte {
	return append([]byte{prefixCore}, []byte(name)...)
}

func recallKey(id string) []byte {
	return append([]byte{prefixRecall}, []byte(id)...)
}

func archivalKey(id string) []byte {
	return append([]byte{prefixArchival}, []byte(id)...)
}

// SetCore writes a named Core block, enforcing the block-count and
// per-block-size limits from spec.md §4.5.
func (s *Store) SetCore(name string, value []byte) error {
	if len(value) > s.opt.CoreMaxBlockBytes {
		return neuronerr.New(neuronerr.KindInvalidArgument,
			fmt.Sprintf("core block %q exceeds %d byte limit", name, s.opt.CoreMaxBlockBytes))
	}

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(coreKey(name))
		isNew := err == badger.ErrKeyNotFound
		if isNew {
			count, cerr := s.countCore(txn)
			if cerr != nil {
				return cerr
			}
			if count >= s.opt.CoreMaxBlocks {
				return neuronerr.New(neuronerr.KindInvalidArgument,
					fmt.Sprintf("core memory full (%d blocks)", s.opt.CoreMaxBlocks))
			}
		}
		return txn.Set(coreKey(name), value)
	})
}

func (s *Store) countCore(txn *badger.Txn) (int, error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	prefix := []byte{prefixCore}
	count := 0
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		count++
	}
	return count, nil
}

// GetCore reads a named Core block.
func (s *Store) GetCore(name string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(coreKey(name))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, false, neuronerr.Wrap(neuronerr.KindIOError, "get core block", err)
	}
	return out, out != nil, nil
}

// DeleteCore removes a named Core block.
func (s *Store) DeleteCore(name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(coreKey(name))
	})
}

// ListCore returns all Core block names.
func (s *Store) ListCore() ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte{prefixCore}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			names = append(names, string(key[1:]))
		}
		return nil
	})
	return names, err
}
