// Package core holds the domain model of postlint: posts, findings and the
// contracts that storage adapters and rules implement.
package core

import (
	"time"
)

// Metadata represents the raw key-value pairs decoded from a post's front matter.
type Metadata map[string]any

// Recognized front matter keys understood by the site generator.
const (
	KeyLayout     = "layout"
	KeyTitle      = "title"
	KeyDate       = "date"
	KeyCategories = "categories"
	KeyTags       = "tags"
	KeyAuthor     = "author"
	KeyExcerpt    = "excerpt"
)

// RecognizedKeys lists the front matter keys the generator consumes.
var RecognizedKeys = []string{
	KeyLayout,
	KeyTitle,
	KeyDate,
	KeyCategories,
	KeyTags,
	KeyAuthor,
	KeyExcerpt,
}

// Format identifies the front matter syntax a post was written in.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
	FormatNone Format = "none"
)

// FrontMatter is the typed view over a post's Metadata.
// Date is kept as written; rules decide whether it is a valid timestamp.
type FrontMatter struct {
	Layout     string         `json:"layout,omitempty"`
	Title      string         `json:"title,omitempty"`
	Date       string         `json:"date,omitempty"`
	Categories []string       `json:"categories,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	Author     string         `json:"author,omitempty"`
	Excerpt    string         `json:"excerpt,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`

	// Lines maps a key to its 1-based line in the source file.
	Lines map[string]int `json:"lines,omitempty"`
}

// Line returns the source line of key, or 0 when unknown.
func (f FrontMatter) Line(key string) int {
	if f.Lines == nil {
		return 0
	}
	return f.Lines[key]
}

// LinkKind tells where in the body a link was found.
type LinkKind string

const (
	LinkMarkdown LinkKind = "markdown"
	LinkImage    LinkKind = "image"
	LinkAuto     LinkKind = "autolink"
	LinkHTML     LinkKind = "html"
)

// Link is a hyperlink or image reference embedded in a post body.
type Link struct {
	Dest string   `json:"dest"`
	Text string   `json:"text,omitempty"`
	Kind LinkKind `json:"kind"`
	Line int      `json:"line,omitempty"`
}

// Post is the central entity of the domain.
// It represents a single Markdown article identified by its path relative to the site root.
type Post struct {
	ID          string      `json:"id"`
	Path        string      `json:"path"`
	Format      Format      `json:"format"`
	Meta        Metadata    `json:"meta,omitempty"`
	FrontMatter FrontMatter `json:"front_matter"`
	Body        string      `json:"-"`
	Links       []Link      `json:"links,omitempty"`
	Hash        string      `json:"hash"`
	ModTime     time.Time   `json:"mod_time"`

	// ParseErr is set when the file could not be parsed. The post is still
	// listed so the failure can be reported as a finding.
	ParseErr error `json:"-"`
}

// Valid reports whether the post parsed cleanly.
func (p Post) Valid() bool {
	return p.ParseErr == nil
}

// EventType represents the type of change observed in the site directory.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a post file.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return string(e.Type) + " " + e.ID
}
