package fs

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/postlint/pkg/core"
)

// DefaultSystemDir is the hidden directory holding the cache and ledger.
const DefaultSystemDir = ".postlint"

// DefaultInclude matches Markdown files anywhere under the site root.
var DefaultInclude = []string{"**/*.md", "**/*.markdown"}

// skippedDirs are never descended into: VCS metadata and generated output.
var skippedDirs = map[string]bool{
	".git":         true,
	"_site":        true,
	"node_modules": true,
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path        string
	Include     []string // doublestar patterns relative to Path
	Exclude     []string
	SystemDir   string // e.g. ".postlint"
	Concurrency int    // parallel parsers; 0 means GOMAXPROCS
	NoCache     bool
	ReadOnly    bool // never write the cache back
	Logger      *slog.Logger

	// ErrorHandler receives runtime watcher errors. Optional.
	ErrorHandler func(error)
}

// Repository implements core.Repository over a directory of Markdown posts.
type Repository struct {
	Path   string
	cache  *cache
	config Config

	mu            sync.RWMutex
	watcherActive bool
	lastList      *time.Time
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if len(config.Include) == 0 {
		config.Include = DefaultInclude
	}
	if config.Concurrency <= 0 {
		config.Concurrency = runtime.GOMAXPROCS(0)
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Repository{
		Path:   config.Path,
		config: config,
		cache:  newCache(config.Path, config.SystemDir),
	}
}

// Initialize verifies the site directory exists and validates the glob patterns.
func (r *Repository) Initialize(ctx context.Context) error {
	info, err := os.Stat(r.Path)
	if os.IsNotExist(err) {
		return fmt.Errorf("site path does not exist: %s", r.Path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat site path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("site path is not a directory: %s", r.Path)
	}

	for _, p := range append(append([]string{}, r.config.Include...), r.config.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return nil
}

// Matches reports whether a slash-separated relative path is selected by the
// include patterns and not rejected by the exclude patterns.
func (r *Repository) Matches(relPath string) bool {
	included := false
	for _, p := range r.config.Include {
		if ok, _ := doublestar.Match(p, relPath); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, p := range r.config.Exclude {
		if ok, _ := doublestar.Match(p, relPath); ok {
			return false
		}
	}
	return true
}

func (r *Repository) skipDir(name string) bool {
	return skippedDirs[name] || name == r.config.SystemDir
}

type candidate struct {
	fullPath string
	relPath  string
	info     fs.FileInfo
}

// List scans the directory for all posts.
//
// Strategy:
//  1. Load the cache (unless disabled).
//  2. Walk the directory tree, skipping VCS, output and system dirs.
//  3. Parse matching files in parallel; fresh cache entries skip parsing.
//  4. Prune and save the cache.
func (r *Repository) List(ctx context.Context) ([]core.Post, error) {
	useCache := !r.config.NoCache
	if useCache {
		if err := r.cache.Load(); err != nil {
			r.config.Logger.Warn("cache load failed, starting cold", "error", err)
		}
	}

	var candidates []candidate
	err := filepath.WalkDir(r.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != r.Path && r.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(r.Path, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)
		if !r.Matches(relPath) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		candidates = append(candidates, candidate{fullPath: path, relPath: relPath, info: info})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", r.Path, err)
	}

	posts := make([]core.Post, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := r.load(c, useCache)
			if err != nil {
				return err
			}
			posts[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })

	if useCache {
		seen := make(map[string]bool, len(candidates))
		for _, c := range candidates {
			seen[c.relPath] = true
		}
		r.cache.Prune(seen)
		if !r.config.ReadOnly {
			if err := r.cache.Save(); err != nil {
				r.config.Logger.Warn("cache save failed", "path", r.cache.Path, "error", err)
			}
		}
	}

	now := time.Now()
	r.mu.Lock()
	r.lastList = &now
	r.mu.Unlock()

	r.config.Logger.Debug("listed posts", "count", len(posts), "path", r.Path)
	return posts, nil
}

// load returns the post for a candidate file, from the cache when fresh.
func (r *Repository) load(c candidate, useCache bool) (core.Post, error) {
	id := idFromPath(c.relPath)
	if useCache {
		if entry, hit := r.cache.Get(c.relPath, c.info.ModTime(), c.info.Size()); hit {
			return entry.post(id, c.relPath), nil
		}
	}

	data, err := os.ReadFile(c.fullPath)
	if err != nil {
		return core.Post{}, fmt.Errorf("failed to read %s: %w", c.relPath, err)
	}

	p := ParsePost(data)
	p.ID = id
	p.Path = c.relPath
	p.ModTime = c.info.ModTime()

	if !p.Valid() {
		r.config.Logger.Debug("post failed to parse", "path", c.relPath, "error", p.ParseErr)
		if useCache {
			r.cache.Delete(c.relPath)
		}
		return p, nil
	}
	if useCache {
		r.cache.Set(c.relPath, entryFromPost(p, c.info.Size()))
	}
	return p, nil
}

// Get retrieves a single post by ID (relative path without extension).
// An ID carrying an extension is used as-is.
func (r *Repository) Get(ctx context.Context, id string) (core.Post, error) {
	if id == "" {
		return core.Post{}, core.ErrEmptyID
	}
	id = strings.TrimPrefix(filepath.ToSlash(id), "./")

	var candidates []string
	switch filepath.Ext(id) {
	case ".md", ".markdown":
		candidates = []string{id}
	default:
		candidates = []string{id + ".md", id + ".markdown"}
	}

	for _, relPath := range candidates {
		fullPath := filepath.Join(r.Path, filepath.FromSlash(relPath))
		info, err := os.Stat(fullPath)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return core.Post{}, err
		}
		if info.IsDir() {
			continue
		}
		return r.load(candidate{fullPath: fullPath, relPath: relPath, info: info}, false)
	}
	return core.Post{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
}

// idFromPath strips the Markdown extension from a relative path.
func idFromPath(relPath string) string {
	ext := filepath.Ext(relPath)
	if ext == ".md" || ext == ".markdown" {
		return relPath[:len(relPath)-len(ext)]
	}
	return relPath
}

// resolveID maps an absolute path inside the site to a post ID.
func (r *Repository) resolveID(fullPath string) (string, string, error) {
	relPath, err := filepath.Rel(r.Path, fullPath)
	if err != nil {
		return "", "", err
	}
	relPath = filepath.ToSlash(relPath)
	if strings.HasPrefix(relPath, "../") {
		return "", "", fmt.Errorf("path %s is outside the site", fullPath)
	}
	return idFromPath(relPath), relPath, nil
}
