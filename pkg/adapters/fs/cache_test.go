package fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/postlint/pkg/core"
)

func TestCache_Load(t *testing.T) {
	t.Run("Starts Empty if File Missing", func(t *testing.T) {
		tmpDir := t.TempDir()
		c := newCache(tmpDir, ".cache")

		if err := c.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		if c.Len() != 0 {
			t.Errorf("Expected empty entries, got %d", c.Len())
		}
	})

	t.Run("Loads Valid JSON", func(t *testing.T) {
		tmpDir := t.TempDir()
		cacheDir := filepath.Join(tmpDir, ".cache")
		os.MkdirAll(cacheDir, 0755)

		jsonContent := `{
			"version": 2,
			"entries": {
				"_posts/note1.md": {
					"size": 10,
					"hash": "abc",
					"format": "yaml",
					"frontMatter": {"title": "Title 1"}
				}
			}
		}`
		os.WriteFile(filepath.Join(cacheDir, "index.json"), []byte(jsonContent), 0644)

		c := newCache(tmpDir, ".cache")
		if err := c.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		entry, ok := c.index.Entries["_posts/note1.md"]
		if !ok {
			t.Fatal("Expected entry _posts/note1.md not found")
		}
		if entry.FrontMatter.Title != "Title 1" {
			t.Errorf("Expected title 'Title 1', got '%s'", entry.FrontMatter.Title)
		}
	})

	t.Run("Resets on Corrupted JSON", func(t *testing.T) {
		tmpDir := t.TempDir()
		cacheDir := filepath.Join(tmpDir, ".cache")
		os.MkdirAll(cacheDir, 0755)

		os.WriteFile(filepath.Join(cacheDir, "index.json"), []byte("{ invalid json"), 0644)

		c := newCache(tmpDir, ".cache")
		if err := c.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if c.Len() != 0 {
			t.Errorf("Expected empty entries after corruption, got %d", c.Len())
		}
	})

	t.Run("Resets on Old Version", func(t *testing.T) {
		tmpDir := t.TempDir()
		cacheDir := filepath.Join(tmpDir, ".cache")
		os.MkdirAll(cacheDir, 0755)

		old := `{"version": 1, "entries": {"a.md": {"id": "a"}}}`
		os.WriteFile(filepath.Join(cacheDir, "index.json"), []byte(old), 0644)

		c := newCache(tmpDir, ".cache")
		if err := c.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if c.Len() != 0 {
			t.Errorf("Expected old-version cache to be discarded, got %d entries", c.Len())
		}
	})
}

func TestCache_Save(t *testing.T) {
	t.Run("Does Not Save if Not Dirty", func(t *testing.T) {
		tmpDir := t.TempDir()
		c := newCache(tmpDir, ".cache")

		if err := c.Save(); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if _, err := os.Stat(c.Path); !os.IsNotExist(err) {
			t.Error("Cache file should not be written when clean")
		}
	})

	t.Run("Round Trips Entries", func(t *testing.T) {
		tmpDir := t.TempDir()
		mtime := time.Date(2021, 3, 4, 10, 0, 0, 123, time.UTC)

		c := newCache(tmpDir, ".cache")
		c.Set("_posts/a.md", entryFromPost(core.Post{
			Hash:        "h",
			Format:      core.FormatYAML,
			ModTime:     mtime,
			FrontMatter: core.FrontMatter{Title: "A", Tags: []string{"go"}},
			Body:        "body",
			Links:       []core.Link{{Dest: "/x", Kind: core.LinkMarkdown, Line: 3}},
		}, 42))

		if err := c.Save(); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		reloaded := newCache(tmpDir, ".cache")
		if err := reloaded.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		entry, hit := reloaded.Get("_posts/a.md", mtime, 42)
		if !hit {
			t.Fatal("Expected cache hit after reload")
		}
		p := entry.post("_posts/a", "_posts/a.md")
		if p.FrontMatter.Title != "A" || p.Body != "body" || len(p.Links) != 1 {
			t.Errorf("Unexpected post from cache: %+v", p)
		}
	})
}

func TestCache_Freshness(t *testing.T) {
	c := newCache(t.TempDir(), ".cache")
	mtime := time.Now()
	c.Set("a.md", &indexEntry{LastModified: mtime, Size: 5})

	if _, hit := c.Get("a.md", mtime, 5); !hit {
		t.Error("Expected hit for same mtime and size")
	}
	if _, hit := c.Get("a.md", mtime.Add(time.Second), 5); hit {
		t.Error("Expected miss for newer mtime")
	}
	if _, hit := c.Get("a.md", mtime, 6); hit {
		t.Error("Expected miss for different size")
	}

	c.Prune(map[string]bool{"b.md": true})
	if c.Len() != 0 {
		t.Errorf("Expected prune to drop a.md, got %d entries", c.Len())
	}
}
