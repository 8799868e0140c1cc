// Package ledger records which posts have been published and the content
// hash they were published with. Published posts are immutable: a later
// change to the file shows up as a hash mismatch.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/postlint/internal/fsutil"
	"github.com/aretw0/postlint/pkg/core"
)

// FileName is the ledger file inside the system directory.
const FileName = "published.json"

// Entry is the published state of one post.
type Entry struct {
	Hash        string    `json:"hash"`
	PublishedAt time.Time `json:"published_at"`
}

// Ledger maps post IDs to their published entry.
type Ledger struct {
	path string

	mu      sync.RWMutex
	entries map[string]Entry
	dirty   bool
}

// PathFor returns the ledger location for a site root and system directory.
func PathFor(sitePath, systemDir string) string {
	return filepath.Join(sitePath, systemDir, FileName)
}

// Open loads the ledger at path. A missing file yields an empty ledger.
// Unlike the parse cache, a corrupt ledger is an error: it is the only
// record of what was published.
func Open(path string) (*Ledger, error) {
	l := &Ledger{path: path, entries: make(map[string]Entry)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	if err := json.Unmarshal(data, &l.entries); err != nil {
		return nil, fmt.Errorf("corrupt ledger %s: %w", path, err)
	}
	if l.entries == nil {
		l.entries = make(map[string]Entry)
	}
	return l, nil
}

// Path returns the file backing the ledger.
func (l *Ledger) Path() string {
	return l.path
}

// Len returns the number of published posts.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Lookup returns the entry for a post ID.
func (l *Ledger) Lookup(id string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[id]
	return e, ok
}

// Changed reports whether a published post's content differs from the
// recorded hash. Unpublished posts are never changed.
func (l *Ledger) Changed(p core.Post) bool {
	e, ok := l.Lookup(p.ID)
	return ok && e.Hash != p.Hash
}

// Record publishes every parseable post that has no entry yet and returns
// the IDs it added, sorted. Existing entries are never overwritten.
func (l *Ledger) Record(posts []core.Post, now time.Time) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var added []string
	for _, p := range posts {
		if !p.Valid() || p.Hash == "" {
			continue
		}
		if _, ok := l.entries[p.ID]; ok {
			continue
		}
		l.entries[p.ID] = Entry{Hash: p.Hash, PublishedAt: now.UTC()}
		added = append(added, p.ID)
		l.dirty = true
	}
	sort.Strings(added)
	return added
}

// Save writes the ledger if it changed.
func (l *Ledger) Save() error {
	l.mu.RLock()
	if !l.dirty {
		l.mu.RUnlock()
		return nil
	}
	data, err := json.MarshalIndent(l.entries, "", "  ")
	l.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := fsutil.WriteFileAtomic(l.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}

	l.mu.Lock()
	l.dirty = false
	l.mu.Unlock()
	return nil
}
