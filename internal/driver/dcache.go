package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/multierr"

	"aggsynth/internal/diag"
	"aggsynth/internal/source"
	"aggsynth/internal/synth"
)

// diskCacheSchemaVersion is bumped whenever DiskPayload or the encoded
// member-set shape changes.
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores synthesized member sets keyed by the digest of every
// input document. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CacheKey addresses one cached run.
type CacheKey [sha256.Size]byte

// DiskPayload is one cached synthesis run. Type IDs inside the member sets
// are stable because binding the same documents in the same order registers
// the same types.
type DiskPayload struct {
	Schema      uint16
	FilePaths   []string
	FileHashes  [][sha256.Size]byte
	Sets        []*synth.MemberSet
	Diagnostics []diag.Diagnostic
}

// OpenDiskCache opens the cache under dir, or under the user cache
// directory when dir is empty.
func OpenDiskCache(app, dir string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, app)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key CacheKey) string {
	return filepath.Join(c.dir, "sets", hex.EncodeToString(key[:])+".mp")
}

// cacheKey digests the schema version, then the length-prefixed path and
// content hash of every input file in load order. Reordering inputs changes
// type IDs, so it changes the key.
func cacheKey(fs *source.FileSet) CacheKey {
	h := sha256.New()
	var buf [8]byte
	binary.BigEndian.PutUint16(buf[:2], diskCacheSchemaVersion)
	_, _ = h.Write(buf[:2])
	for i := range fs.Len() {
		f := fs.Get(source.FileID(i)) //nolint:gosec // bounded by Len
		if f == nil {
			continue
		}
		binary.BigEndian.PutUint64(buf[:], uint64(len(f.Path)))
		_, _ = h.Write(buf[:])
		_, _ = h.Write([]byte(f.Path))
		_, _ = h.Write(f.Hash[:])
	}
	var key CacheKey
	h.Sum(key[:0])
	return key
}

// Put writes payload atomically.
func (c *DiskCache) Put(key CacheKey, payload *DiskPayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = multierr.Append(err, rmErr)
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		return multierr.Append(err, f.Close())
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the payload stored under key. A payload written by another
// schema version is reported as a miss.
func (c *DiskCache) Get(key CacheKey, out *DiskPayload) (hit bool, err error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decode cache entry: %w", err)
	}
	return out.Schema == diskCacheSchemaVersion, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}
