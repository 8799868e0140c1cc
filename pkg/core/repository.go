package core

import "context"

// Repository defines the contract for loading posts.
// Adhering to this interface allows the core to be independent of the
// underlying storage (a local directory, an archive, a remote bucket).
type Repository interface {
	// List returns every post, including those that failed to parse.
	List(ctx context.Context) ([]Post, error)

	// Get retrieves a post by its ID.
	Get(ctx context.Context, id string) (Post, error)

	// Initialize ensures the underlying storage is ready to be read.
	Initialize(ctx context.Context) error
}

// Watchable defines an interface for repositories that can report changes.
type Watchable interface {
	// Watch emits an Event for every change to a post matching pattern.
	// The channel is closed when ctx is cancelled.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Rule inspects posts and reports findings.
// Rules see the whole set so they can enforce cross-post constraints.
type Rule interface {
	Name() string
	Check(ctx context.Context, posts []Post) []Finding
}
