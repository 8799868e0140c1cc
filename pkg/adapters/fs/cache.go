package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/postlint/internal/fsutil"
	"github.com/aretw0/postlint/pkg/core"
)

// cacheVersion is bumped whenever the parsed representation changes so stale
// indexes are discarded instead of served.
const cacheVersion = 3

// indexEntry holds a parsed post keyed by its relative path.
// Only posts that parsed cleanly are cached.
type indexEntry struct {
	Size         int64            `json:"size"`
	LastModified time.Time        `json:"lastModified"`
	Hash         string           `json:"hash"`
	Format       core.Format      `json:"format"`
	Meta         core.Metadata    `json:"meta,omitempty"`
	FrontMatter  core.FrontMatter `json:"frontMatter"`
	Body         string           `json:"body"`
	Links        []core.Link      `json:"links,omitempty"`
}

// index represents the persistent cache state.
type index struct {
	Version int                    `json:"version"`
	Entries map[string]*indexEntry `json:"entries"` // Key is relative path (e.g. "_posts/2021-01-01-foo.md")
	dirty   bool
	mu      sync.RWMutex
}

// cache manages the loading, updating, and saving of the index.
type cache struct {
	Path  string // Path to .postlint/index.json
	index *index
}

// newCache initializes a cache at the given path.
func newCache(sitePath, systemDir string) *cache {
	return &cache{
		Path: filepath.Join(sitePath, systemDir, "index.json"),
		index: &index{
			Version: cacheVersion,
			Entries: make(map[string]*indexEntry),
		},
	}
}

// Load reads the cache from disk. If not found, invalid or from an older
// version, it starts empty without error.
func (c *cache) Load() error {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	data, err := os.ReadFile(c.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	var loaded struct {
		Version int                    `json:"version"`
		Entries map[string]*indexEntry `json:"entries"`
	}
	if err := json.Unmarshal(data, &loaded); err != nil || loaded.Version != cacheVersion || loaded.Entries == nil {
		// Self-heal: a corrupt or outdated cache is just a cold cache.
		c.index.Entries = make(map[string]*indexEntry)
		c.index.dirty = true
		return nil
	}

	c.index.Entries = loaded.Entries
	c.index.dirty = false
	return nil
}

// Save persists the cache to disk if it's dirty.
func (c *cache) Save() error {
	c.index.mu.RLock()
	if !c.index.dirty {
		c.index.mu.RUnlock()
		return nil
	}
	data, err := json.MarshalIndent(c.index, "", "  ")
	c.index.mu.RUnlock()

	if err != nil {
		return err
	}

	if err := fsutil.WriteFileAtomic(c.Path, data, 0644); err != nil {
		return err
	}

	c.index.mu.Lock()
	c.index.dirty = false
	c.index.mu.Unlock()

	return nil
}

// Get retrieves an entry if it exists and is fresh.
func (c *cache) Get(relPath string, mtime time.Time, size int64) (*indexEntry, bool) {
	c.index.mu.RLock()
	defer c.index.mu.RUnlock()

	entry, ok := c.index.Entries[relPath]
	if !ok {
		return nil, false
	}
	if !entry.LastModified.Equal(mtime) || entry.Size != size {
		return nil, false
	}
	return entry, true
}

// Set updates an entry in the cache.
func (c *cache) Set(relPath string, entry *indexEntry) {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	c.index.Entries[relPath] = entry
	c.index.dirty = true
}

// Prune removes entries that are not in the 'keep' set.
func (c *cache) Prune(keep map[string]bool) {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	for path := range c.index.Entries {
		if !keep[path] {
			delete(c.index.Entries, path)
			c.index.dirty = true
		}
	}
}

// Delete removes a single entry from the cache.
func (c *cache) Delete(relPath string) {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	if _, ok := c.index.Entries[relPath]; ok {
		delete(c.index.Entries, relPath)
		c.index.dirty = true
	}
}

// Len returns the number of entries in the cache.
func (c *cache) Len() int {
	c.index.mu.RLock()
	defer c.index.mu.RUnlock()
	return len(c.index.Entries)
}

func entryFromPost(p core.Post, size int64) *indexEntry {
	return &indexEntry{
		Size:         size,
		LastModified: p.ModTime,
		Hash:         p.Hash,
		Format:       p.Format,
		Meta:         p.Meta,
		FrontMatter:  p.FrontMatter,
		Body:         p.Body,
		Links:        p.Links,
	}
}

func (e *indexEntry) post(id, relPath string) core.Post {
	meta := e.Meta
	if meta == nil {
		meta = make(core.Metadata)
	}
	return core.Post{
		ID:          id,
		Path:        relPath,
		Format:      e.Format,
		Meta:        meta,
		FrontMatter: e.FrontMatter,
		Body:        e.Body,
		Links:       e.Links,
		Hash:        e.Hash,
		ModTime:     e.LastModified,
	}
}
