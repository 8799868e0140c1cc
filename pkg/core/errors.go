package core

import "errors"

// Common errors.
var (
	ErrNotFound                = errors.New("post not found")
	ErrEmptyID                 = errors.New("post ID cannot be empty")
	ErrNoFrontMatter           = errors.New("no front matter block")
	ErrUnterminatedFrontMatter = errors.New("front matter started but no closing delimiter found")
	ErrWatchUnsupported        = errors.New("repository does not support watching")
	ErrReadOnly                = errors.New("repository is in read-only mode")
)
