package fs

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/postlint/pkg/core"
)

const samplePost = `---
layout: post
title: "API Testing with REST Assured"
date: 2021-03-04 10:00:00 +0100
categories: [testing, api]
tags:
  - rest-assured
  - java
author: Jane Doe
excerpt: Building requests fluently.
---
Intro paragraph with a [link](https://example.com/docs).

` + "```yaml\nurl: [not](a-link)\n```\n"

func TestParsePost_YAML(t *testing.T) {
	p := ParsePost([]byte(samplePost))
	require.NoError(t, p.ParseErr)

	assert.Equal(t, core.FormatYAML, p.Format)
	want := core.FrontMatter{
		Layout:     "post",
		Title:      "API Testing with REST Assured",
		Date:       "2021-03-04 10:00:00 +0100",
		Categories: []string{"testing", "api"},
		Tags:       []string{"rest-assured", "java"},
		Author:     "Jane Doe",
		Excerpt:    "Building requests fluently.",
		Lines: map[string]int{
			"layout": 2, "title": 3, "date": 4, "categories": 5,
			"tags": 6, "author": 9, "excerpt": 10,
		},
	}
	if diff := cmp.Diff(want, p.FrontMatter); diff != "" {
		t.Errorf("front matter mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, p.Links, 1, "links inside fenced code must be ignored")
	assert.Equal(t, "https://example.com/docs", p.Links[0].Dest)
	assert.Equal(t, "link", p.Links[0].Text)
	assert.Equal(t, 12, p.Links[0].Line)
	assert.True(t, strings.HasPrefix(p.Body, "Intro paragraph"))
	assert.Len(t, p.Hash, 64)
}

func TestParsePost_TimestampKeptAsWritten(t *testing.T) {
	p := ParsePost([]byte("---\ntitle: x\ndate: 2020-01-02\n---\nbody\n"))
	require.NoError(t, p.ParseErr)
	assert.Equal(t, "2020-01-02", p.FrontMatter.Date)
	assert.Equal(t, "2020-01-02", p.Meta["date"])
}

func TestParsePost_MetaIsJSONStable(t *testing.T) {
	p := ParsePost([]byte("---\ntitle: 2021\ntags: [2021-01-01, go, 7]\nratings: {1: good}\nevents:\n  - at: 2020-05-06 10:00:00\nscore: .nan\n---\n"))
	require.NoError(t, p.ParseErr)

	want := core.Metadata{
		"title":   float64(2021),
		"tags":    []any{"2021-01-01", "go", float64(7)},
		"ratings": map[string]any{"1": "good"},
		"events":  []any{map[string]any{"at": "2020-05-06 10:00:00"}},
		"score":   "NaN",
	}
	if diff := cmp.Diff(want, p.Meta); diff != "" {
		t.Errorf("meta mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "2021", p.FrontMatter.Title)
	assert.Equal(t, []string{"2021-01-01", "go", "7"}, p.FrontMatter.Tags)

	_, err := json.Marshal(p.Meta)
	assert.NoError(t, err)
}

func TestParsePost_CRLF(t *testing.T) {
	p := ParsePost([]byte("---\r\ntitle: Windows\r\nauthor: Bob\r\n---\r\nbody [x](/y)\r\n"))
	require.NoError(t, p.ParseErr)
	assert.Equal(t, "Windows", p.FrontMatter.Title)
	assert.Equal(t, "Bob", p.FrontMatter.Author)
	require.Len(t, p.Links, 1)
	assert.Equal(t, "/y", p.Links[0].Dest)
	assert.Equal(t, 5, p.Links[0].Line)
}

func TestParsePost_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		errText string
		format  core.Format
	}{
		{
			name:    "No Front Matter",
			input:   "# Just a heading\n",
			wantErr: core.ErrNoFrontMatter,
			format:  core.FormatNone,
		},
		{
			name:    "Unterminated",
			input:   "---\ntitle: x\nbody without closing\n",
			wantErr: core.ErrUnterminatedFrontMatter,
			format:  core.FormatYAML,
		},
		{
			name:    "Invalid YAML",
			input:   "---\ntitle: [unclosed\n---\n",
			errText: "malformed front matter",
			format:  core.FormatYAML,
		},
		{
			name:    "Not A Mapping",
			input:   "---\n- a\n- b\n---\n",
			errText: "expected key/value mapping",
			format:  core.FormatYAML,
		},
		{
			name:    "Duplicate Key",
			input:   "---\ntitle: a\ntitle: b\n---\n",
			errText: `key "title" already defined at line 1`,
			format:  core.FormatYAML,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePost([]byte(tt.input))
			require.Error(t, p.ParseErr)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(p.ParseErr, tt.wantErr), "got %v", p.ParseErr)
			}
			if tt.errText != "" {
				assert.Contains(t, p.ParseErr.Error(), tt.errText)
			}
			assert.Equal(t, tt.format, p.Format)
			assert.NotNil(t, p.Meta)
		})
	}
}

func TestParsePost_EmptyFrontMatter(t *testing.T) {
	p := ParsePost([]byte("---\n---\nbody\n"))
	require.NoError(t, p.ParseErr)
	assert.Empty(t, p.Meta)
	assert.Equal(t, "body\n", p.Body)
}

func TestParsePost_TOML(t *testing.T) {
	input := "+++\ntitle = \"Pipelines\"\nauthor = \"Ann\"\ndate = 2022-05-06T07:08:09Z\ntags = [\"ci\", \"cd\"]\n+++\nSee [docs](https://ci.example.com).\n"
	p := ParsePost([]byte(input))
	require.NoError(t, p.ParseErr)

	assert.Equal(t, core.FormatTOML, p.Format)
	assert.Equal(t, "Pipelines", p.FrontMatter.Title)
	assert.Equal(t, "Ann", p.FrontMatter.Author)
	assert.Equal(t, "2022-05-06T07:08:09Z", p.FrontMatter.Date)
	assert.Equal(t, []string{"ci", "cd"}, p.FrontMatter.Tags)
	assert.Equal(t, "2022-05-06T07:08:09Z", p.Meta["date"])
	require.Len(t, p.Links, 1)
	assert.Equal(t, "https://ci.example.com", p.Links[0].Dest)
}

func TestParsePost_JSON(t *testing.T) {
	input := ";;;\n{\"title\": \"Selenium Grid\", \"author\": \"Sam\"}\n;;;\nBody\n"
	p := ParsePost([]byte(input))
	require.NoError(t, p.ParseErr)
	assert.Equal(t, core.FormatJSON, p.Format)
	assert.Equal(t, "Selenium Grid", p.FrontMatter.Title)
}

func TestFrontMatterOf(t *testing.T) {
	fm := frontMatterOf(core.Metadata{
		"title":      "T",
		"tags":       "go testing  ci",
		"categories": []any{"a", 42, ""},
		"permalink":  "/x/",
		"author":     []any{"not", "scalar"},
	})
	assert.Equal(t, []string{"go", "testing", "ci"}, fm.Tags)
	assert.Equal(t, []string{"a", "42"}, fm.Categories)
	assert.Equal(t, "", fm.Author)
	assert.Equal(t, map[string]any{"permalink": "/x/"}, fm.Extra)
}
