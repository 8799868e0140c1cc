// Package rules implements the content checks run over a set of posts.
//
// Each rule has a stable name that is used in configuration (to disable it or
// override its severity) and in reports.
package rules

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/postlint/pkg/core"
	"github.com/aretw0/postlint/pkg/ledger"
)

// Rule names.
const (
	NameFrontMatter  = "frontmatter"
	NameRequired     = "required"
	NameDate         = "date"
	NameFilenameDate = "filename-date"
	NameLinks        = "links"
	NameDuplicates   = "duplicates"
	NameKeys         = "keys"
	NameTaxonomy     = "taxonomy"
	NameExcerpt      = "excerpt"
	NameSchema       = "schema"
	NameImmutable    = "immutable"
)

// DefaultRequired are the fields every post must carry.
var DefaultRequired = []string{core.KeyTitle, core.KeyDate, core.KeyAuthor}

// DefaultExcerptMax is the longest excerpt, in runes, before an info finding.
const DefaultExcerptMax = 300

// Config selects and tunes the rule set.
type Config struct {
	Required   []string
	ExtraKeys  []string
	Disable    []string
	Severity   map[string]core.Severity
	ExcerptMax int

	// Schema is an optional JSON Schema file the front matter must satisfy.
	Schema string

	// Ledger enables the immutable rule when set.
	Ledger *ledger.Ledger
}

// Names lists every rule name in execution order.
func Names() []string {
	return []string{
		NameFrontMatter,
		NameRequired,
		NameDate,
		NameFilenameDate,
		NameLinks,
		NameDuplicates,
		NameKeys,
		NameTaxonomy,
		NameExcerpt,
		NameSchema,
		NameImmutable,
	}
}

// Default builds the enabled rule set for cfg.
// The schema rule is only present when cfg.Schema is set and the immutable
// rule only when cfg.Ledger is set.
func Default(cfg Config) ([]core.Rule, error) {
	disabled := make(map[string]bool, len(cfg.Disable))
	known := make(map[string]bool)
	for _, n := range Names() {
		known[n] = true
	}
	for _, n := range cfg.Disable {
		if !known[n] {
			return nil, fmt.Errorf("cannot disable unknown rule %q", n)
		}
		disabled[n] = true
	}
	for n := range cfg.Severity {
		if !known[n] {
			return nil, fmt.Errorf("cannot override severity of unknown rule %q", n)
		}
	}

	required := cfg.Required
	if len(required) == 0 {
		required = DefaultRequired
	}
	excerptMax := cfg.ExcerptMax
	if excerptMax <= 0 {
		excerptMax = DefaultExcerptMax
	}

	var all []core.Rule
	all = append(all,
		FrontMatter{},
		Required{Fields: required},
		Date{},
		FilenameDate{},
		Links{},
		Duplicates{},
		Keys{Extra: cfg.ExtraKeys},
		Taxonomy{},
		Excerpt{Max: excerptMax},
	)
	if cfg.Schema != "" {
		schema, err := NewSchemaFromFile(cfg.Schema)
		if err != nil {
			return nil, err
		}
		all = append(all, schema)
	}
	if cfg.Ledger != nil {
		all = append(all, Immutable{Ledger: cfg.Ledger})
	}

	var enabled []core.Rule
	for _, r := range all {
		if disabled[r.Name()] {
			continue
		}
		if sev, ok := cfg.Severity[r.Name()]; ok {
			r = WithSeverity(r, sev)
		}
		enabled = append(enabled, r)
	}
	return enabled, nil
}

// ByName returns the rule called name from rs.
func ByName(rs []core.Rule, name string) (core.Rule, bool) {
	for _, r := range rs {
		if r.Name() == name {
			return r, true
		}
	}
	return nil, false
}

type severityOverride struct {
	core.Rule
	severity core.Severity
}

// WithSeverity wraps r so every finding it reports carries sev.
func WithSeverity(r core.Rule, sev core.Severity) core.Rule {
	return severityOverride{Rule: r, severity: sev}
}

func (o severityOverride) Check(ctx context.Context, posts []core.Post) []core.Finding {
	findings := o.Rule.Check(ctx, posts)
	for i := range findings {
		findings[i].Severity = o.severity
	}
	return findings
}

// parsed yields only the posts whose front matter decoded cleanly.
// Rules other than frontmatter skip broken posts to avoid duplicate noise.
func parsed(posts []core.Post) []core.Post {
	out := make([]core.Post, 0, len(posts))
	for _, p := range posts {
		if p.Valid() {
			out = append(out, p)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
