// Package typed decodes post front matter into caller-defined structs, for
// sites whose posts carry keys beyond the standard ones.
package typed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/postlint/pkg/core"
)

// PostModel is a post with its front matter decoded into T.
type PostModel[T any] struct {
	ID   string
	Path string
	Body string
	Data T
}

// Service wraps a core.Service to provide typed access to front matter.
type Service[T any] struct {
	svc *core.Service
}

// NewService creates a new typed service wrapper.
func NewService[T any](svc *core.Service) *Service[T] {
	return &Service[T]{svc: svc}
}

// Get retrieves one post. Posts whose front matter did not parse are an error.
func (s *Service[T]) Get(ctx context.Context, id string) (*PostModel[T], error) {
	p, err := s.svc.Post(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Valid() {
		return nil, fmt.Errorf("post %s: %w", p.ID, p.ParseErr)
	}
	return fromCore[T](p)
}

// List retrieves every post that parsed cleanly. Unparseable posts are
// skipped; lint the site to see them.
func (s *Service[T]) List(ctx context.Context) ([]*PostModel[T], error) {
	posts, err := s.svc.Posts(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*PostModel[T], 0, len(posts))
	for _, p := range posts {
		if !p.Valid() {
			continue
		}
		model, err := fromCore[T](p)
		if err != nil {
			return nil, err
		}
		result = append(result, model)
	}
	return result, nil
}

// Watch observes changes in the repository.
func (s *Service[T]) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	return s.svc.Watch(ctx, pattern)
}

func fromCore[T any](p core.Post) (*PostModel[T], error) {
	dataBytes, err := json.Marshal(p.Meta)
	if err != nil {
		return nil, fmt.Errorf("metadata marshal failed for %s: %w", p.ID, err)
	}

	var data T
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		return nil, fmt.Errorf("unmarshal to target type failed for %s: %w", p.ID, err)
	}

	return &PostModel[T]{
		ID:   p.ID,
		Path: p.Path,
		Body: p.Body,
		Data: data,
	}, nil
}
