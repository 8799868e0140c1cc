package platform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/lifecycle"

	lcsource "github.com/aretw0/postlint/pkg/adapters/lifecycle"
	"github.com/aretw0/postlint/pkg/core"
)

// Lint checks every post of the site at path.
func Lint(ctx context.Context, path string, opts ...Option) (core.Report, error) {
	svc, err := New(path, opts...)
	if err != nil {
		return core.Report{}, err
	}
	return svc.Lint(ctx)
}

// Publish records the current hash of every post without error findings in
// the site's ledger and returns the IDs that were newly recorded. Posts that
// are already published keep their original entry.
func Publish(ctx context.Context, path string, now time.Time, opts ...Option) ([]string, error) {
	o := resolve(opts)
	if o.readOnly {
		return nil, fmt.Errorf("cannot publish: %w", core.ErrReadOnly)
	}
	s, err := build(path, o)
	if err != nil {
		return nil, err
	}
	if s.ledger == nil {
		return nil, errors.New("publishing requires the filesystem adapter")
	}

	posts, err := s.service.Posts(ctx)
	if err != nil {
		return nil, err
	}
	report, err := s.service.LintPosts(ctx, posts)
	if err != nil {
		return nil, err
	}

	blocked := make(map[string]bool)
	for _, f := range report.Findings {
		if f.Severity >= core.SeverityError {
			blocked[f.PostID] = true
		}
	}
	clean := make([]core.Post, 0, len(posts))
	for _, p := range posts {
		if !blocked[p.ID] {
			clean = append(clean, p)
		}
	}

	added := s.ledger.Record(clean, now)
	if err := s.ledger.Save(); err != nil {
		return nil, err
	}
	if o.logger != nil {
		o.logger.Info("published posts recorded", "added", len(added), "skipped", len(blocked), "ledger", s.ledger.Path())
	}
	return added, nil
}

// WatchLint lints the site once and again after every batch of changes to
// files matching pattern, handing each result to fn. It blocks until ctx is
// cancelled.
func WatchLint(ctx context.Context, path, pattern string, fn func(core.Report, error), opts ...Option) error {
	o := resolve(opts)
	s, err := build(path, o)
	if err != nil {
		return err
	}
	svc := s.service

	watch, err := svc.Watch(ctx, pattern)
	if err != nil {
		return err
	}
	src := lcsource.NewSource(watch)
	if err := src.Start(ctx); err != nil {
		return err
	}
	events := src.Events()

	fn(svc.Lint(ctx))
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if o.logger != nil {
				if c, ok := e.(lcsource.Change); ok {
					o.logger.Debug("change detected, relinting", "post", c.Post, "type", c.Type)
				} else {
					o.logger.Debug("change detected, relinting", "event", e.String())
				}
			}
			drain(events)
			if ctx.Err() != nil {
				return nil
			}
			fn(svc.Lint(ctx))
		}
	}
}

// drain discards events already queued so a burst triggers one relint.
func drain(events <-chan lifecycle.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
