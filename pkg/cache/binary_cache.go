// Copyright 2025 Philipp Hossner
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"zerohop/pkg/core/errs"
)

// BinaryMetadata is the per-entry metadata recorded alongside a cached
// binary (metadata/<hash>.json on disk). A change in any field invalidates
// future hits via the binary_cache_key the caller derives it from.
type BinaryMetadata struct {
	CompilationID    string        `json:"compilation_id"`
	TargetTriple     string        `json:"target_triple"`
	Checksum         string        `json:"checksum"`
	Size             int64         `json:"size"`
	CreatedAt        time.Time     `json:"created_at"`
	CompilationTime  time.Duration `json:"compilation_time"`
	ToolchainVersion string        `json:"toolchain_version"`
}

// indexEntry is one row of index.json.
type indexEntry struct {
	Target          string         `json:"target"`
	Path            string         `json:"path"`
	Size            int64          `json:"size"`
	CreatedAt       time.Time      `json:"created_at"`
	LastAccess      time.Time      `json:"last_access"`
	CompilationTime time.Duration  `json:"compilation_time"`
	Metadata        BinaryMetadata `json:"metadata"`
}

type fileIndex struct {
	Entries map[string]*indexEntry `json:"entries"`
}

// BinaryCache is the on-disk content-addressed binary cache. Lookup is
// O(1) by hash; eviction is LRU by
// last_access once the aggregate size exceeds MaxSizeBytes, evicting down
// to 50% of that limit.
type BinaryCache struct {
	mu           sync.RWMutex
	dir          string
	maxSizeBytes int64
	index        fileIndex
}

// DefaultMaxCacheSizeMB bounds the cache at 1 GB before eviction.
const DefaultMaxCacheSizeMB = 1024

// Open loads (or initializes) a binary cache rooted at dir. Entries whose
// binary file is missing are skipped during load and treated as misses.
func Open(dir string, maxCacheSizeMB int) (*BinaryCache, error) {
	if maxCacheSizeMB <= 0 {
		maxCacheSizeMB = DefaultMaxCacheSizeMB
	}
	for _, sub := range []string{"binaries", "metadata", "templates"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, &errs.CacheError{Kind: errs.CacheErrorIOFailed, Message: "failed to create cache directory", Cause: err}
		}
	}

	bc := &BinaryCache{
		dir:          dir,
		maxSizeBytes: int64(maxCacheSizeMB) * 1024 * 1024,
		index:        fileIndex{Entries: map[string]*indexEntry{}},
	}

	indexPath := filepath.Join(dir, "index.json")
	data, err := os.ReadFile(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return bc, nil
		}
		return nil, &errs.CacheError{Kind: errs.CacheErrorIOFailed, Message: "failed to read cache index", Cause: err}
	}

	var loaded fileIndex
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, &errs.CacheError{Kind: errs.CacheErrorSerializationFailed, Message: "failed to parse cache index", Cause: err}
	}
	if loaded.Entries == nil {
		loaded.Entries = map[string]*indexEntry{}
	}

	for hash, entry := range loaded.Entries {
		if _, err := os.Stat(filepath.Join(dir, "binaries", hash+".bin")); err != nil {
			continue // binary file missing: treat as a miss, don't carry forward
		}
		bc.index.Entries[hash] = entry
	}

	return bc, nil
}

// Get returns the cached binary bytes and metadata for hash, refreshing
// its last-access time on hit.
func (c *BinaryCache) Get(hash string) ([]byte, BinaryMetadata, bool, error) {
	c.mu.Lock()
	entry, ok := c.index.Entries[hash]
	if !ok {
		c.mu.Unlock()
		return nil, BinaryMetadata{}, false, nil
	}
	entry.LastAccess = time.Now()
	meta := entry.Metadata
	binPath := filepath.Join(c.dir, "binaries", hash+".bin")
	c.mu.Unlock()

	data, err := os.ReadFile(binPath)
	if err != nil {
		if os.IsNotExist(err) {
			c.mu.Lock()
			delete(c.index.Entries, hash)
			c.mu.Unlock()
			return nil, BinaryMetadata{}, false, nil
		}
		return nil, BinaryMetadata{}, false, &errs.CacheError{Kind: errs.CacheErrorIOFailed, Message: "failed to read cached binary", Cause: err}
	}

	_ = c.persistIndex()
	return data, meta, true, nil
}

// Put stores bytes under hash along with its metadata, then evicts LRU
// entries if the aggregate size now exceeds MaxSizeBytes.
func (c *BinaryCache) Put(hash string, data []byte, meta BinaryMetadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	binPath := filepath.Join(c.dir, "binaries", hash+".bin")
	if err := os.WriteFile(binPath, data, 0o755); err != nil {
		return &errs.CacheError{Kind: errs.CacheErrorIOFailed, Message: "failed to write cached binary", Cause: err}
	}

	metaPath := filepath.Join(c.dir, "metadata", hash+".json")
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return &errs.CacheError{Kind: errs.CacheErrorSerializationFailed, Message: "failed to marshal cache metadata", Cause: err}
	}
	if err := os.WriteFile(metaPath, metaBytes, 0o644); err != nil {
		return &errs.CacheError{Kind: errs.CacheErrorIOFailed, Message: "failed to write cache metadata", Cause: err}
	}

	now := time.Now()
	c.index.Entries[hash] = &indexEntry{
		Target:          meta.TargetTriple,
		Path:            binPath,
		Size:            int64(len(data)),
		CreatedAt:       now,
		LastAccess:      now,
		CompilationTime: meta.CompilationTime,
		Metadata:        meta,
	}

	c.evictLocked()
	return c.persistIndexLocked()
}

// Size reports the current aggregate size of all cached binaries.
func (c *BinaryCache) Size() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total int64
	for _, e := range c.index.Entries {
		total += e.Size
	}
	return total
}

// evictLocked removes least-recently-accessed entries until the aggregate
// size is at or below 50% of MaxSizeBytes. Caller must hold c.mu.
func (c *BinaryCache) evictLocked() {
	var total int64
	for _, e := range c.index.Entries {
		total += e.Size
	}
	if total <= c.maxSizeBytes {
		return
	}

	type ranked struct {
		hash string
		e    *indexEntry
	}
	all := make([]ranked, 0, len(c.index.Entries))
	for hash, e := range c.index.Entries {
		all = append(all, ranked{hash, e})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].e.LastAccess.Before(all[j].e.LastAccess) })

	target := c.maxSizeBytes / 2
	for _, r := range all {
		if total <= target {
			break
		}
		delete(c.index.Entries, r.hash)
		total -= r.e.Size
		_ = os.Remove(filepath.Join(c.dir, "binaries", r.hash+".bin"))
		_ = os.Remove(filepath.Join(c.dir, "metadata", r.hash+".json"))
	}
}

func (c *BinaryCache) persistIndex() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persistIndexLocked()
}

// persistIndexLocked writes index.json. Caller must hold c.mu.
func (c *BinaryCache) persistIndexLocked() error {
	data, err := json.MarshalIndent(c.index, "", "  ")
	if err != nil {
		return &errs.CacheError{Kind: errs.CacheErrorSerializationFailed, Message: "failed to marshal cache index", Cause: err}
	}
	if err := os.WriteFile(filepath.Join(c.dir, "index.json"), data, 0o644); err != nil {
		return &errs.CacheError{Kind: errs.CacheErrorIOFailed, Message: "failed to write cache index", Cause: err}
	}
	return nil
}

// TemplateDir returns the on-disk path for a materialized template tree
// for the given template hash (templates/<template-hash>/). Only
// populated when the caller chooses to persist sources for inspection.
func (c *BinaryCache) TemplateDir(templateHash string) string {
	return filepath.Join(c.dir, "templates", templateHash)
}

// Key combines a template cache_key and target triple into the binary
// cache's lookup key: template cache_key, target triple, and
// optimization level joined so a change in any of them misses.
func Key(templateCacheKey, targetTriple, optimizationLevel string) string {
	return fmt.Sprintf("%s-%s-%s", templateCacheKey, targetTriple, optimizationLevel)
}
