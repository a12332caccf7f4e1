package duckdb

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/inodb/vibe-liftover/internal/chain"
)

// ChainCache manages gob-serialized chain sets on disk, one per source file:
//
//	{dir}/{base}-{hash}.gob       (serialized chains)
//	{dir}/{base}-{hash}.gob.meta  (source file fingerprint)
//
// hash is the xxh3 hash of the source's absolute path, so files sharing a
// base name in different directories get separate entries.
type ChainCache struct {
	dir string // cache directory (e.g. ~/.vibe-liftover/cache)
}

// NewChainCache creates a chain cache for the given directory.
func NewChainCache(dir string) *ChainCache {
	return &ChainCache{dir: dir}
}

func absPath(source string) string {
	if abs, err := filepath.Abs(source); err == nil {
		return abs
	}
	return source
}

func (cc *ChainCache) gobPath(source string) string {
	abs := absPath(source)
	name := fmt.Sprintf("%s-%016x.gob", filepath.Base(abs), xxh3.HashString(abs))
	return filepath.Join(cc.dir, name)
}

func (cc *ChainCache) metaPath(source string) string {
	return cc.gobPath(source) + ".meta"
}

// Valid checks whether the cached chains match the current source file.
func (cc *ChainCache) Valid(src FileFingerprint) bool {
	meta, err := cc.readMeta(src.Path)
	if err != nil {
		return false
	}

	checks := []struct{ key, val string }{
		{"path", absPath(src.Path)},
		{"size", strconv.FormatInt(src.Size, 10)},
		{"modtime", src.ModTime.UTC().Format(time.RFC3339Nano)},
	}
	for _, c := range checks {
		if meta[c.key] != c.val {
			return false
		}
	}

	if _, err := os.Stat(cc.gobPath(src.Path)); err != nil {
		return false
	}
	return true
}

// Load reads the cached chains for source.
func (cc *ChainCache) Load(source string) ([]*chain.Chain, error) {
	f, err := os.Open(cc.gobPath(source))
	if err != nil {
		return nil, fmt.Errorf("open chain cache: %w", err)
	}
	defer f.Close()

	var chains []*chain.Chain
	if err := gob.NewDecoder(f).Decode(&chains); err != nil {
		return nil, fmt.Errorf("decode chain cache: %w", err)
	}
	return chains, nil
}

// Write serializes chains parsed from src to disk. The gob and meta files
// are written to temporary files and renamed into place, and the old meta
// file is removed first, so a partial write never validates.
func (cc *ChainCache) Write(chains []*chain.Chain, src FileFingerprint) error {
	if err := os.MkdirAll(cc.dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	if err := os.Remove(cc.metaPath(src.Path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove chain cache meta: %w", err)
	}

	err := cc.writeAtomic(cc.gobPath(src.Path), func(w io.Writer) error {
		return gob.NewEncoder(w).Encode(chains)
	})
	if err != nil {
		return fmt.Errorf("write chain cache: %w", err)
	}

	return cc.writeAtomic(cc.metaPath(src.Path), func(w io.Writer) error {
		_, err := io.WriteString(w, cc.formatMeta(src))
		return err
	})
}

// writeAtomic writes a temporary file in the cache directory with fn and
// renames it to path.
func (cc *ChainCache) writeAtomic(path string, fn func(io.Writer) error) error {
	f, err := os.CreateTemp(cc.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if err := fn(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Clear removes the cached files for source.
func (cc *ChainCache) Clear(source string) {
	os.Remove(cc.gobPath(source))
	os.Remove(cc.metaPath(source))
}

func (cc *ChainCache) formatMeta(src FileFingerprint) string {
	lines := []string{
		"path=" + absPath(src.Path),
		"size=" + strconv.FormatInt(src.Size, 10),
		"modtime=" + src.ModTime.UTC().Format(time.RFC3339Nano),
		"created_at=" + time.Now().UTC().Format(time.RFC3339),
		"",
	}
	return strings.Join(lines, "\n")
}

func (cc *ChainCache) readMeta(source string) (map[string]string, error) {
	data, err := os.ReadFile(cc.metaPath(source))
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}
