package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/neuronos/neuronos/pkg/gguf"
	"github.com/neuronos/neuronos/pkg/neuronerr"
)

// Cache memoizes gguf.ReadMetadata results across scans, keyed by a
// hash of the file's path, size, and modification time, so repeated
// `scan` invocations over an unchanged models directory skip
// re-parsing every file. Grounded on pkg/storage/badger.go's use of
// badger/v4 as the embedded store, and on the teacher's transitive
// dependency on github.com/cespare/xxhash/v2 (pulled in via
// badger/ristretto) for stable hashing — here given a direct call
// site instead of remaining purely transitive.
type Cache struct {
	db *badger.DB
}

// OpenCache opens (creating if absent) a Badger database at dir for
// use as the registry's metadata cache.
func OpenCache(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, neuronerr.Wrap(neuronerr.KindIOError, "opening registry cache", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func cacheKey(path string, size int64, modUnix int64) []byte {
	h := xxhash.Sum64String(fmt.Sprintf("%s:%d:%d", path, size, modUnix))
	return []byte(fmt.Sprintf("gguf-meta:%016x", h))
}

// ReadMetadataCached returns gguf.ReadMetadata(path), consulting c
// first and populating it on a miss. Falls back to an uncached read
// if c is nil.
func ReadMetadataCached(c *Cache, path string) (*gguf.Metadata, error) {
	if c == nil {
		return gguf.ReadMetadata(path)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, neuronerr.Wrap(neuronerr.KindNotFound, "stat model file", err)
	}
	key := cacheKey(path, stat.Size(), stat.ModTime().Unix())

	var cached gguf.Metadata
	hit := false
	err = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &cached); err != nil {
				return err
			}
			hit = true
			return nil
		})
	})
	if err != nil {
		return nil, neuronerr.Wrap(neuronerr.KindIOError, "reading registry cache", err)
	}
	if hit {
		return &cached, nil
	}

	meta, err := gguf.ReadMetadata(path)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(meta)
	if err == nil {
		_ = c.db.Update(func(txn *badger.Txn) error {
			return txn.Set(key, data)
		})
	}
	return meta, nil
}
