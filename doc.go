// Package postlint checks a static blog's Markdown posts before they are
// published.
//
// A site is a directory of Markdown files with front matter (YAML between
// `---` lines, TOML between `+++` or JSON). Every post is parsed, its links
// are extracted from the body, and a set of rules reports what would break
// or degrade the generated site: missing titles, invalid dates, empty link
// targets, duplicate posts and the like.
//
// Architecture:
//
// The core package holds the domain (posts, findings, the lint service) and
// knows nothing about files. The fs adapter reads posts from disk with a
// parse cache and a debounced watcher. Rules, the publish ledger and the
// report renderers live in their own packages and meet in this one.
//
// Usage:
//
//	report, err := postlint.Lint(ctx, "./blog",
//		postlint.WithExclude("_drafts/**"),
//		postlint.WithLogger(logger),
//	)
//	if report.HasErrors() {
//		// fail the build
//	}
//
// Published posts are immutable: Publish records a hash of every clean post
// and later runs warn when one of them changes.
package postlint
