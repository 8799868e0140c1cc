// Package lifecycle exposes post change events as a lifecycle.Source.
package lifecycle

import (
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/postlint/pkg/core"
)

// Change is the lifecycle event emitted for a changed post.
type Change struct {
	Post string
	Type core.EventType
}

func (c Change) String() string {
	switch c.Type {
	case core.EventCreate:
		return fmt.Sprintf("post %s created", c.Post)
	case core.EventDelete:
		return fmt.Sprintf("post %s removed", c.Post)
	default:
		return fmt.Sprintf("post %s modified", c.Post)
	}
}

type postSource struct {
	events <-chan core.Event
	types  []core.EventType
	out    chan lifecycle.Event
}

// NewSource wraps a watch channel. Only events of the given types are
// forwarded; with no types every change is. The returned source closes its
// Events channel when the watch channel closes or the Start context ends.
func NewSource(events <-chan core.Event, types ...core.EventType) lifecycle.Source {
	return &postSource{
		events: events,
		types:  types,
		out:    make(chan lifecycle.Event),
	}
}

func (s *postSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *postSource) wants(e core.Event) bool {
	if e.ID == "" {
		return false
	}
	return len(s.types) == 0 || slices.Contains(s.types, e.Type)
}

func (s *postSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if !s.wants(e) {
					continue
				}
				select {
				case s.out <- Change{Post: e.ID, Type: e.Type}:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
