package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Service handles the business logic for linting posts.
type Service struct {
	mu     sync.RWMutex
	repo   Repository
	rules  []Rule
	logger *slog.Logger

	lastReport *Report
}

// NewService creates a new Service running the given rules.
func NewService(repo Repository, rules ...Rule) *Service {
	return &Service{
		repo:   repo,
		rules:  rules,
		logger: slog.New(slog.DiscardHandler),
	}
}

// SetLogger replaces the service logger. A nil logger is ignored.
func (s *Service) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	s.mu.Lock()
	s.logger = logger
	s.mu.Unlock()
}

// Rules returns the names of the configured rules in execution order.
func (s *Service) Rules() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.rules))
	for _, r := range s.rules {
		names = append(names, r.Name())
	}
	return names
}

// Lint loads every post and runs each rule over the full set.
func (s *Service) Lint(ctx context.Context) (Report, error) {
	posts, err := s.repo.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list posts: %w", err)
	}
	return s.LintPosts(ctx, posts)
}

// LintPosts runs each rule over an already loaded set of posts.
func (s *Service) LintPosts(ctx context.Context, posts []Post) (Report, error) {
	s.mu.RLock()
	rules := s.rules
	logger := s.logger
	s.mu.RUnlock()

	report := Report{Posts: len(posts)}
	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		findings := rule.Check(ctx, posts)
		logger.Debug("rule finished", "rule", rule.Name(), "findings", len(findings))
		report.Findings = append(report.Findings, findings...)
	}
	report.Sort()

	s.mu.Lock()
	s.lastReport = &report
	s.mu.Unlock()

	return report, nil
}

// Posts retrieves all posts.
func (s *Service) Posts(ctx context.Context) ([]Post, error) {
	return s.repo.List(ctx)
}

// Post retrieves a single post.
func (s *Service) Post(ctx context.Context, id string) (Post, error) {
	if id == "" {
		return Post{}, ErrEmptyID
	}
	return s.repo.Get(ctx, id)
}

// Index groups post IDs by tag and by category.
type Index struct {
	Tags       map[string][]string `json:"tags"`
	Categories map[string][]string `json:"categories"`
}

// Labels returns the sorted keys of a grouping.
func Labels(group map[string][]string) []string {
	keys := make([]string, 0, len(group))
	for k := range group {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Index builds the tag and category index over all parseable posts.
// Shared labels are the only relationship between posts.
func (s *Service) Index(ctx context.Context) (Index, error) {
	posts, err := s.repo.List(ctx)
	if err != nil {
		return Index{}, fmt.Errorf("failed to list posts: %w", err)
	}
	return BuildIndex(posts), nil
}

// BuildIndex groups the given posts by tag and by category.
func BuildIndex(posts []Post) Index {
	idx := Index{
		Tags:       make(map[string][]string),
		Categories: make(map[string][]string),
	}
	for _, p := range posts {
		if !p.Valid() {
			continue
		}
		for _, t := range p.FrontMatter.Tags {
			idx.Tags[t] = append(idx.Tags[t], p.ID)
		}
		for _, c := range p.FrontMatter.Categories {
			idx.Categories[c] = append(idx.Categories[c], p.ID)
		}
	}
	for _, ids := range idx.Tags {
		sort.Strings(ids)
	}
	for _, ids := range idx.Categories {
		sort.Strings(ids)
	}
	return idx
}

// Watch observes changes in the repository if supported.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	w, ok := s.repo.(Watchable)
	if !ok {
		return nil, ErrWatchUnsupported
	}
	return w.Watch(ctx, pattern)
}
