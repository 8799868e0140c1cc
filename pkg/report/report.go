// Package report renders lint results, post listings and the taxonomy index
// for terminals and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goliatone/go-slug"
	"github.com/mattn/go-runewidth"

	"github.com/aretw0/postlint/pkg/core"
)

// Options tune the text renderer.
type Options struct {
	// MinSeverity hides findings below this level. The summary still counts them.
	MinSeverity core.Severity
}

// Text writes findings grouped by file as aligned columns, followed by a
// one-line summary.
func Text(w io.Writer, r core.Report, opts Options) error {
	var shown []core.Finding
	for _, f := range r.Findings {
		if f.Severity >= opts.MinSeverity {
			shown = append(shown, f)
		}
	}

	rows := make([][]string, len(shown))
	for i, f := range shown {
		line := "-"
		if f.Line > 0 {
			line = strconv.Itoa(f.Line)
		}
		rows[i] = []string{line, f.Severity.String(), f.Rule, f.Message}
	}
	widths := columnWidths(rows, 3)

	bw := &errWriter{w: w}
	current := ""
	for i, f := range shown {
		if f.Path != current {
			if current != "" {
				bw.printf("\n")
			}
			current = f.Path
			bw.printf("%s\n", f.Path)
		}
		bw.printf("  %s\n", formatRow(rows[i], widths))
	}
	if len(shown) > 0 {
		bw.printf("\n")
	}
	bw.printf("%s\n", Summary(r))
	return bw.err
}

// Summary renders the counts line, e.g. "3 posts, 1 errors, 0 warnings, 2 info".
func Summary(r core.Report) string {
	c := r.Counts()
	return fmt.Sprintf("%d posts, %d errors, %d warnings, %d info",
		r.Posts, c[core.SeverityError], c[core.SeverityWarning], c[core.SeverityInfo])
}

type jsonReport struct {
	Posts    int            `json:"posts"`
	Summary  map[string]int `json:"summary"`
	Findings []core.Finding `json:"findings"`
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, r core.Report) error {
	c := r.Counts()
	out := jsonReport{
		Posts: r.Posts,
		Summary: map[string]int{
			core.SeverityError.String():   c[core.SeverityError],
			core.SeverityWarning.String(): c[core.SeverityWarning],
			core.SeverityInfo.String():    c[core.SeverityInfo],
		},
		Findings: r.Findings,
	}
	if out.Findings == nil {
		out.Findings = []core.Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Index writes the tag and category listing.
func Index(w io.Writer, idx core.Index) error {
	bw := &errWriter{w: w}
	section := func(title string, group map[string][]string) {
		bw.printf("%s\n", title)
		labels := core.Labels(group)
		if len(labels) == 0 {
			bw.printf("  (none)\n")
			return
		}
		rows := make([][]string, len(labels))
		for i, l := range labels {
			rows[i] = []string{l, fmt.Sprintf("(%d)", len(group[l])), strings.Join(group[l], ", ")}
		}
		widths := columnWidths(rows, 2)
		for _, row := range rows {
			bw.printf("  %s\n", formatRow(row, widths))
		}
	}
	section("Categories", idx.Categories)
	bw.printf("\n")
	section("Tags", idx.Tags)
	return bw.err
}

// maxTitleWidth bounds the title column in post listings.
const maxTitleWidth = 48

// Posts writes one line per post: ID, date, title, slug and parse status.
func Posts(w io.Writer, posts []core.Post) error {
	rows := make([][]string, 0, len(posts)+1)
	rows = append(rows, []string{"ID", "DATE", "TITLE", "SLUG", "STATUS"})
	for _, p := range posts {
		status := "ok"
		if !p.Valid() {
			status = "unparsed"
		}
		rows = append(rows, []string{
			p.ID,
			orDash(p.FrontMatter.Date),
			orDash(runewidth.Truncate(p.FrontMatter.Title, maxTitleWidth, "…")),
			orDash(Slug(p)),
			status,
		})
	}
	widths := columnWidths(rows, 4)

	bw := &errWriter{w: w}
	for _, row := range rows {
		bw.printf("%s\n", formatRow(row, widths))
	}
	return bw.err
}

// Slug returns the URL slug the generator derives from a post's title.
func Slug(p core.Post) string {
	if p.FrontMatter.Title == "" {
		return ""
	}
	s, err := slug.Normalize(p.FrontMatter.Title)
	if err != nil {
		return ""
	}
	return s
}

// Post writes one post's metadata and links.
func Post(w io.Writer, p core.Post, findings []core.Finding) error {
	bw := &errWriter{w: w}
	bw.printf("%s (%s, %s)\n", p.ID, p.Path, p.Format)
	if !p.Valid() {
		bw.printf("  parse error: %v\n", p.ParseErr)
	}

	fields := [][]string{
		{core.KeyLayout, p.FrontMatter.Layout},
		{core.KeyTitle, p.FrontMatter.Title},
		{core.KeyDate, p.FrontMatter.Date},
		{core.KeyAuthor, p.FrontMatter.Author},
		{core.KeyCategories, strings.Join(p.FrontMatter.Categories, ", ")},
		{core.KeyTags, strings.Join(p.FrontMatter.Tags, ", ")},
		{core.KeyExcerpt, p.FrontMatter.Excerpt},
		{"slug", Slug(p)},
	}
	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		if f[1] != "" {
			rows = append(rows, []string{f[0] + ":", f[1]})
		}
	}
	widths := columnWidths(rows, 1)
	for _, row := range rows {
		bw.printf("  %s\n", formatRow(row, widths))
	}

	if len(p.Links) > 0 {
		bw.printf("\nLinks\n")
		linkRows := make([][]string, len(p.Links))
		for i, l := range p.Links {
			linkRows[i] = []string{strconv.Itoa(l.Line), string(l.Kind), orDash(l.Dest)}
		}
		lw := columnWidths(linkRows, 2)
		for _, row := range linkRows {
			bw.printf("  %s\n", formatRow(row, lw))
		}
	}

	if len(findings) > 0 {
		bw.printf("\nFindings\n")
		for _, f := range findings {
			bw.printf("  %s\n", f)
		}
	}
	return bw.err
}

// columnWidths returns the display width of the first n columns.
// The remaining columns are not padded.
func columnWidths(rows [][]string, n int) []int {
	widths := make([]int, n)
	for _, row := range rows {
		for i := 0; i < n && i < len(row); i++ {
			if w := runewidth.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func formatRow(row []string, widths []int) string {
	cells := make([]string, len(row))
	for i, cell := range row {
		if i < len(widths) && i < len(row)-1 {
			cell = runewidth.FillRight(cell, widths[i])
		}
		cells[i] = cell
	}
	return strings.Join(cells, "  ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// errWriter keeps the first write error so renderers can print freely.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
