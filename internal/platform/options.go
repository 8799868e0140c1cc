package platform

import (
	"log/slog"

	"github.com/aretw0/postlint/pkg/core"
)

// options holds the internal configuration for a postlint service.
type options struct {
	repository   core.Repository
	logger       *slog.Logger
	include      []string
	exclude      []string
	systemDir    string
	concurrency  int
	readOnly     bool
	noCache      bool
	configPath   string
	noConfig     bool
	rules        []core.Rule
	errorHandler func(error)
}

// Option defines a functional option for configuring postlint.
type Option func(*options)

func defaultOptions() *options {
	return &options{}
}

func resolve(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger for the service and its adapters.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository injects a custom post source instead of the filesystem adapter.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithInclude replaces the glob patterns that select post files.
func WithInclude(patterns ...string) Option {
	return func(o *options) {
		o.include = patterns
	}
}

// WithExclude adds glob patterns for files that are never linted.
func WithExclude(patterns ...string) Option {
	return func(o *options) {
		o.exclude = append(o.exclude, patterns...)
	}
}

// WithSystemDir sets the directory holding the cache and the publish ledger.
// Defaults to ".postlint".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithConcurrency bounds how many files are parsed at once.
// Zero means one worker per CPU.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithReadOnly keeps postlint from writing anything under the site root.
// The parse cache is still consulted but never saved.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithNoCache disables the parse cache entirely.
func WithNoCache(disabled bool) Option {
	return func(o *options) {
		o.noCache = disabled
	}
}

// WithConfig loads settings from the given file instead of looking for
// .postlint.yaml at the site root.
func WithConfig(path string) Option {
	return func(o *options) {
		o.configPath = path
	}
}

// WithoutConfigFile ignores any .postlint.yaml found at the site root.
func WithoutConfigFile() Option {
	return func(o *options) {
		o.noConfig = true
	}
}

// WithRules replaces the configured rule set.
func WithRules(rules ...core.Rule) Option {
	return func(o *options) {
		o.rules = rules
	}
}

// WithWatcherErrorHandler registers a callback for runtime watcher failures
// (e.g. permission denied on a new directory) that are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}
