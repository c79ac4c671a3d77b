// Package cache implements an on-disk, content-addressed cache of
// per-function pipeline outcomes. cmd/siko writes an entry for every
// function it runs; a cached entry does not cause any pipeline stage to be
// skipped on a later invocation, every function is run again.
//
// A msgpack-encoded DiskPayload is written atomically (temp file + rename)
// under $XDG_CACHE_HOME/<app>/funcs/<hex digest>.mp, keyed by a content
// hash of the function's pre-pipeline body. The payload records whether
// the last run over the fixture file holding that body produced any error
// diagnostics. Caching the full transformed Body is left for a future
// schema bump.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"siko/internal/hir"
)

// Digest is a SHA-256 content hash, used both as the cache's lookup key and
// as the value stored in a DiskPayload for staleness checks.
type Digest [32]byte

// diskCacheSchemaVersion is bumped whenever DiskPayload's shape changes, so
// a stale on-disk entry from a previous schema is rejected rather than
// misread.
const diskCacheSchemaVersion uint16 = 1

// DiskPayload is the cached outcome of running the pipeline over one
// function, keyed by the digest of its pre-pipeline body.
type DiskPayload struct {
	Schema uint16
	// FuncKey is the qname.QualifiedName.Key() of the cached function, kept
	// alongside the digest purely for diagnostics (a digest collision
	// across two different functions would otherwise be silent).
	FuncKey string
	// BodyDigest is the digest the payload was stored under, duplicated
	// inside the payload so Get can double check the file wasn't served
	// from the wrong path after a hash-directory reshuffle.
	BodyDigest Digest
	// HadError records whether the run that produced this entry reported
	// any error diagnostic for the whole fixture file the function came
	// from; every function of that file is stored with the same value.
	HadError bool
	// DiagnosticCount is the number of diagnostics (of any severity) that
	// run produced for the whole fixture file. It is recorded only; nothing
	// in cmd/siko reads it back.
	DiagnosticCount int
}

// DiskCache stores DiskPayload entries under a base directory, safe for
// concurrent use from cmd/siko's cross-program errgroup fan-out.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Open initializes a DiskCache at dir, creating it if necessary. If dir is
// empty, it resolves to $XDG_CACHE_HOME/<app> (falling back to
// ~/.cache/<app>).
func Open(app, dir string) (*DiskCache, error) {
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

func (c *DiskCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "funcs", hex.EncodeToString(key[:])+".mp")
}

// Put serializes and atomically writes payload under key.
func (c *DiskCache) Put(key Digest, payload *DiskPayload) error {
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
	tmpName := f.Name()
	defer os.Remove(tmpName) //nolint:errcheck // best-effort cleanup once renamed

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, p)
}

// Get reads and deserializes the payload stored under key, returning
// ok=false (no error) if nothing is cached yet.
func (c *DiskCache) Get(key Digest) (payload DiskPayload, ok bool, err error) {
	if c == nil {
		return DiskPayload{}, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return DiskPayload{}, false, nil
		}
		return DiskPayload{}, false, err
	}
	defer f.Close() //nolint:errcheck

	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(&payload); err != nil {
		return DiskPayload{}, false, err
	}
	if payload.Schema != diskCacheSchemaVersion || payload.BodyDigest != key {
		return DiskPayload{}, false, nil
	}
	return payload, true, nil
}

// FuncDigest computes a deterministic content digest of fn's pre-pipeline
// body: its qualified name and every block's instructions in allocation
// order. Two functions with byte-identical source structure (including
// source spans, since a span change should invalidate the cache) hash
// equal; any edit to the body changes the digest.
func FuncDigest(fn *hir.Function) Digest {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n", fn.Name.Key())
	fmt.Fprintf(h, "kind=%d inline=%v group=%s\n", fn.Kind, fn.Inline, fn.Group)
	for _, param := range fn.Params {
		fmt.Fprintf(h, "param %+v\n", param)
	}
	fmt.Fprintf(h, "result=%d\n", fn.Result)
	if fn.Body == nil {
		return Digest(sha256.Sum256(nil))
	}
	for _, blk := range fn.Body.Blocks() {
		fmt.Fprintf(h, "block %s\n", blk.ID)
		for _, instr := range blk.Instrs {
			fmt.Fprintf(h, "  %s %+v\n", instr.Kind, instr)
		}
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
