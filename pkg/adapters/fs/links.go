package fs

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/aretw0/postlint/pkg/core"
)

// markdown is stateless once built and safe to share.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ExtractLinks walks the Markdown AST of body and returns every link, image
// and autolink, plus anchors and images found inside raw HTML.
// Code spans and fenced code are not inspected.
// lineOffset is added to line numbers so they refer to the whole file.
func ExtractLinks(body []byte, lineOffset int) []core.Link {
	doc := markdown.Parser().Parse(text.NewReader(body))

	var links []core.Link
	add := func(l core.Link) {
		l.Line += lineOffset
		links = append(links, l)
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Link:
			add(core.Link{
				Dest: string(node.Destination),
				Text: nodeText(node, body),
				Kind: core.LinkMarkdown,
				Line: lineOf(node, body),
			})
		case *ast.Image:
			add(core.Link{
				Dest: string(node.Destination),
				Text: nodeText(node, body),
				Kind: core.LinkImage,
				Line: lineOf(node, body),
			})
		case *ast.AutoLink:
			add(core.Link{
				Dest: string(node.URL(body)),
				Text: string(node.Label(body)),
				Kind: core.LinkAuto,
				Line: lineOf(node, body),
			})
		case *ast.RawHTML:
			var buf bytes.Buffer
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				buf.Write(seg.Value(body))
			}
			line := 0
			if node.Segments.Len() > 0 {
				line = lineAt(body, node.Segments.At(0).Start)
			}
			for _, l := range htmlLinks(buf.String(), line) {
				add(l)
			}
		case *ast.HTMLBlock:
			var buf bytes.Buffer
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(body))
			}
			if node.HasClosure() {
				buf.Write(node.ClosureLine.Value(body))
			}
			line := 0
			if lines.Len() > 0 {
				line = lineAt(body, lines.At(0).Start)
			}
			for _, l := range htmlLinks(buf.String(), line) {
				add(l)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return links
}

// htmlLinks finds a[href] and img[src] in an HTML fragment.
// Elements without the attribute are not links and are skipped.
func htmlLinks(fragment string, line int) []core.Link {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}

	var links []core.Link
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		links = append(links, core.Link{
			Dest: strings.TrimSpace(href),
			Text: strings.TrimSpace(s.Text()),
			Kind: core.LinkHTML,
			Line: line,
		})
	})
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok {
			return
		}
		alt, _ := s.Attr("alt")
		links = append(links, core.Link{
			Dest: strings.TrimSpace(src),
			Text: alt,
			Kind: core.LinkHTML,
			Line: line,
		})
	})
	return links
}

func nodeText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
			continue
		}
		buf.WriteString(nodeText(c, source))
	}
	return buf.String()
}

// lineOf returns the 1-based line of an inline node: its first text segment
// if it has one, otherwise the nearest block ancestor carrying source lines.
func lineOf(n ast.Node, source []byte) int {
	if t := firstText(n); t != nil {
		return lineAt(source, t.Segment.Start)
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == ast.TypeBlock && p.Lines().Len() > 0 {
			return lineAt(source, p.Lines().At(0).Start)
		}
	}
	return 0
}

func firstText(n ast.Node) *ast.Text {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			return t
		}
		if t := firstText(c); t != nil {
			return t
		}
	}
	return nil
}

func lineAt(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return bytes.Count(source[:offset], []byte("\n")) + 1
}
