package postlint

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/postlint/internal/platform"
	"github.com/aretw0/postlint/pkg/core"
	"github.com/aretw0/postlint/pkg/typed"
)

// --- Types ---

// PostModel is a post with its front matter decoded into T.
type PostModel[T any] = typed.PostModel[T]

// TypedService is a public alias for the typed service.
type TypedService[T any] = typed.Service[T]

// --- Configuration ---

// Option defines a functional option for configuring postlint.
type Option = platform.Option

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository injects a custom post source.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithInclude replaces the glob patterns that select post files.
func WithInclude(patterns ...string) Option {
	return platform.WithInclude(patterns...)
}

// WithExclude adds glob patterns for files that are never linted.
func WithExclude(patterns ...string) Option {
	return platform.WithExclude(patterns...)
}

// WithSystemDir sets the directory holding the cache and the publish ledger.
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithConcurrency bounds how many files are parsed at once.
func WithConcurrency(n int) Option {
	return platform.WithConcurrency(n)
}

// WithReadOnly keeps postlint from writing under the site root.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithNoCache disables the parse cache.
func WithNoCache(disabled bool) Option {
	return platform.WithNoCache(disabled)
}

// WithConfig loads settings from the given file.
func WithConfig(path string) Option {
	return platform.WithConfig(path)
}

// WithoutConfigFile ignores any .postlint.yaml at the site root.
func WithoutConfigFile() Option {
	return platform.WithoutConfigFile()
}

// WithRules replaces the configured rule set.
func WithRules(rules ...core.Rule) Option {
	return platform.WithRules(rules...)
}

// WithWatcherErrorHandler registers a callback for runtime watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New creates a postlint service for the site at path.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// NewTypedService wraps an existing service to decode front matter into T.
func NewTypedService[T any](svc *core.Service) *typed.Service[T] {
	return typed.NewService[T](svc)
}

// OpenTypedService simplifies creating a TypedService from a path.
func OpenTypedService[T any](path string, opts ...Option) (*typed.Service[T], error) {
	svc, err := New(path, opts...)
	if err != nil {
		return nil, err
	}
	return typed.NewService[T](svc), nil
}

// --- Operations ---

// Lint checks every post of the site at path.
func Lint(ctx context.Context, path string, opts ...Option) (core.Report, error) {
	return platform.Lint(ctx, path, opts...)
}

// Publish records the hash of every post without errors in the publish ledger.
func Publish(ctx context.Context, path string, opts ...Option) ([]string, error) {
	return platform.Publish(ctx, path, time.Now(), opts...)
}

// WatchLint re-lints the site whenever files matching pattern change.
func WatchLint(ctx context.Context, path, pattern string, fn func(core.Report, error), opts ...Option) error {
	return platform.WatchLint(ctx, path, pattern, fn, opts...)
}

// --- Utils ---

// FindRoot looks upwards for a site root (.postlint.yaml, _config.yml or .git).
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
