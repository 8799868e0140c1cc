package rules

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-slug"

	"github.com/aretw0/postlint/pkg/core"
)

// Taxonomy checks the shape of tags and categories, and flags labels that
// are spelled differently across posts but land on the same slug.
type Taxonomy struct{}

func (Taxonomy) Name() string { return NameTaxonomy }

func (Taxonomy) Check(_ context.Context, posts []core.Post) []core.Finding {
	var out []core.Finding
	valid := parsed(posts)
	for _, p := range valid {
		for _, key := range []string{core.KeyCategories, core.KeyTags} {
			out = append(out, labelShape(p, key)...)
		}
	}
	for _, key := range []string{core.KeyCategories, core.KeyTags} {
		out = append(out, spellingVariants(valid, key)...)
	}
	return out
}

func labelShape(p core.Post, key string) []core.Finding {
	raw, ok := p.Meta[key]
	if !ok || raw == nil {
		return nil
	}
	line := p.FrontMatter.Line(key)
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return []core.Finding{core.NewFinding(p, NameTaxonomy, core.SeverityWarning, line, "%s is empty", key)}
		}
		return nil
	case []any:
		var out []core.Finding
		for i, item := range v {
			s, isString := item.(string)
			switch {
			case !isString:
				out = append(out, core.NewFinding(p, NameTaxonomy, core.SeverityWarning, line,
					"%s[%d] is a %T, want a string", key, i, item))
			case strings.TrimSpace(s) == "":
				out = append(out, core.NewFinding(p, NameTaxonomy, core.SeverityWarning, line,
					"%s[%d] is empty", key, i))
			}
		}
		return out
	case []string:
		return nil
	default:
		return []core.Finding{core.NewFinding(p, NameTaxonomy, core.SeverityWarning, line,
			"%s must be a string or a list of strings, not a %T", key, raw)}
	}
}

// spellingVariants reports every use of a label whose slug is shared with a
// more common spelling. Ties go to the lexically smallest spelling.
func spellingVariants(posts []core.Post, key string) []core.Finding {
	counts := make(map[string]map[string]int) // slug -> spelling -> uses
	for _, p := range posts {
		for _, label := range labelsOf(p, key) {
			s := slugOf(label)
			if s == "" {
				continue
			}
			if counts[s] == nil {
				counts[s] = make(map[string]int)
			}
			counts[s][label]++
		}
	}

	canonical := make(map[string]string)
	for s, spellings := range counts {
		if len(spellings) < 2 {
			continue
		}
		best := ""
		for _, spelling := range sortedKeys(spellings) {
			if best == "" || spellings[spelling] > spellings[best] {
				best = spelling
			}
		}
		canonical[s] = best
	}
	if len(canonical) == 0 {
		return nil
	}

	var out []core.Finding
	for _, p := range posts {
		for _, label := range labelsOf(p, key) {
			want, ok := canonical[slugOf(label)]
			if !ok || want == label {
				continue
			}
			out = append(out, core.NewFinding(p, NameTaxonomy, core.SeverityWarning, p.FrontMatter.Line(key),
				"%s label %q is spelled %q elsewhere", key, label, want))
		}
	}
	return out
}

func labelsOf(p core.Post, key string) []string {
	if key == core.KeyTags {
		return p.FrontMatter.Tags
	}
	return p.FrontMatter.Categories
}

// slugOf normalizes a label, or returns "" when it has no usable slug.
func slugOf(label string) string {
	s, err := slug.Normalize(label)
	if err != nil {
		return ""
	}
	return s
}

// Excerpt reports missing or overlong excerpts at info level.
type Excerpt struct {
	Max int
}

func (Excerpt) Name() string { return NameExcerpt }

func (e Excerpt) Check(_ context.Context, posts []core.Post) []core.Finding {
	var out []core.Finding
	for _, p := range parsed(posts) {
		excerpt := strings.TrimSpace(p.FrontMatter.Excerpt)
		if excerpt == "" {
			out = append(out, core.NewFinding(p, NameExcerpt, core.SeverityInfo, 0,
				"no excerpt; the generator will derive one from the body"))
			continue
		}
		if n := utf8.RuneCountInString(excerpt); e.Max > 0 && n > e.Max {
			out = append(out, core.NewFinding(p, NameExcerpt, core.SeverityInfo, p.FrontMatter.Line(core.KeyExcerpt),
				"excerpt is %d characters, longer than %d", n, e.Max))
		}
	}
	return out
}
