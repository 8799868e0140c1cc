package rules

import (
	"context"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/aretw0/postlint/pkg/core"
)

// dateLayouts are the forms static-site generators document for `date`.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02 15:04:05 MST",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDate parses a front matter date. Documented layouts are tried first;
// anything else goes through dateparse, which rejects ambiguous input.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return dateparse.ParseStrict(s)
}

// Date checks that a present date is a valid timestamp.
// Missing dates are the required rule's concern.
type Date struct{}

func (Date) Name() string { return NameDate }

func (Date) Check(_ context.Context, posts []core.Post) []core.Finding {
	var out []core.Finding
	for _, p := range parsed(posts) {
		raw := p.FrontMatter.Date
		if raw == "" {
			// Absent or blank dates belong to the required rule.
			switch v := p.Meta[core.KeyDate].(type) {
			case nil, string:
			default:
				out = append(out, core.NewFinding(p, NameDate, core.SeverityError, p.FrontMatter.Line(core.KeyDate),
					"date must be a timestamp, not a %T", v))
			}
			continue
		}
		if _, err := ParseDate(raw); err != nil {
			out = append(out, core.NewFinding(p, NameDate, core.SeverityError, p.FrontMatter.Line(core.KeyDate),
				"date %q is not a valid timestamp", raw))
		}
	}
	return out
}

var filenameDate = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-`)

// FilenameDate checks that a `YYYY-MM-DD-` filename prefix is a real day and
// agrees with the front matter date.
type FilenameDate struct{}

func (FilenameDate) Name() string { return NameFilenameDate }

func (FilenameDate) Check(_ context.Context, posts []core.Post) []core.Finding {
	var out []core.Finding
	for _, p := range parsed(posts) {
		m := filenameDate.FindStringSubmatch(path.Base(p.Path))
		if m == nil {
			continue
		}
		day, err := time.Parse("2006-01-02", m[1])
		if err != nil {
			out = append(out, core.NewFinding(p, NameFilenameDate, core.SeverityWarning, 0,
				"filename date %s is not a valid day", m[1]))
			continue
		}
		if p.FrontMatter.Date == "" {
			continue
		}
		t, err := ParseDate(p.FrontMatter.Date)
		if err != nil {
			continue
		}
		if got := t.Format("2006-01-02"); got != day.Format("2006-01-02") {
			out = append(out, core.NewFinding(p, NameFilenameDate, core.SeverityWarning, p.FrontMatter.Line(core.KeyDate),
				"front matter date %s does not match filename date %s", got, m[1]))
		}
	}
	return out
}

// Duplicates reports posts sharing an identical title and date.
type Duplicates struct{}

func (Duplicates) Name() string { return NameDuplicates }

func (Duplicates) Check(_ context.Context, posts []core.Post) []core.Finding {
	groups := make(map[string][]core.Post)
	for _, p := range parsed(posts) {
		title := strings.TrimSpace(p.FrontMatter.Title)
		if title == "" || p.FrontMatter.Date == "" {
			continue
		}
		key := title + "\x00" + normalizeDate(p.FrontMatter.Date)
		groups[key] = append(groups[key], p)
	}

	var out []core.Finding
	for _, key := range sortedKeys(groups) {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		for _, p := range group {
			var others []string
			for _, o := range group {
				if o.ID != p.ID {
					others = append(others, o.Path)
				}
			}
			out = append(out, core.NewFinding(p, NameDuplicates, core.SeverityError, p.FrontMatter.Line(core.KeyTitle),
				"title %q and date %s are also used by %s", p.FrontMatter.Title, p.FrontMatter.Date, strings.Join(others, ", ")))
		}
	}
	return out
}

// normalizeDate makes equivalent spellings of the same instant compare equal.
func normalizeDate(raw string) string {
	if t, err := ParseDate(raw); err == nil {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return strings.TrimSpace(raw)
}
