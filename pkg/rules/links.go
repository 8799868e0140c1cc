package rules

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/aretw0/postlint/pkg/core"
)

// Links checks the links and images embedded in post bodies.
// An empty destination is an error; a malformed absolute http(s) URL is a warning.
// Bodies are checked even when the front matter failed to parse.
type Links struct{}

func (Links) Name() string { return NameLinks }

func (Links) Check(_ context.Context, posts []core.Post) []core.Finding {
	var out []core.Finding
	for _, p := range posts {
		for _, l := range p.Links {
			dest := strings.TrimSpace(l.Dest)
			if dest == "" {
				out = append(out, core.NewFinding(p, NameLinks, core.SeverityError, l.Line,
					"%s %s has an empty URL", l.Kind, describe(l)))
				continue
			}
			if !isWebURL(dest) {
				continue
			}
			if err := validation.Validate(dest, is.URL); err != nil {
				out = append(out, core.NewFinding(p, NameLinks, core.SeverityWarning, l.Line,
					"%s URL %q is malformed", l.Kind, dest))
			}
		}
	}
	return out
}

func isWebURL(dest string) bool {
	lower := strings.ToLower(dest)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func describe(l core.Link) string {
	if l.Text == "" {
		return "link"
	}
	return "link " + `"` + l.Text + `"`
}
