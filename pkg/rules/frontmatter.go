package rules

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/aretw0/postlint/pkg/core"
)

// FrontMatter reports posts whose metadata block is missing or malformed.
type FrontMatter struct{}

func (FrontMatter) Name() string { return NameFrontMatter }

func (FrontMatter) Check(_ context.Context, posts []core.Post) []core.Finding {
	var out []core.Finding
	for _, p := range posts {
		if p.Valid() {
			continue
		}
		msg := p.ParseErr.Error()
		switch {
		case errors.Is(p.ParseErr, core.ErrNoFrontMatter):
			msg = "post has no front matter block"
		case errors.Is(p.ParseErr, core.ErrUnterminatedFrontMatter):
			msg = "front matter has no closing delimiter"
		}
		out = append(out, core.NewFinding(p, NameFrontMatter, core.SeverityError, 1, "%s", msg))
	}
	return out
}

// Required checks that the configured fields are present and non-blank.
type Required struct {
	Fields []string
}

func (Required) Name() string { return NameRequired }

func (r Required) Check(_ context.Context, posts []core.Post) []core.Finding {
	keys := make([]*validation.KeyRules, 0, len(r.Fields))
	for _, f := range r.Fields {
		keys = append(keys, validation.Key(f, validation.Required))
	}
	rule := validation.Map(keys...).AllowExtraKeys()

	var out []core.Finding
	for _, p := range parsed(posts) {
		err := validation.Validate(requiredView(p), rule)
		if err == nil {
			continue
		}

		var errs validation.Errors
		if !errors.As(err, &errs) {
			out = append(out, core.NewFinding(p, NameRequired, core.SeverityError, 1, "%v", err))
			continue
		}
		for _, key := range sortedKeys(errs) {
			line := p.FrontMatter.Line(key)
			if line == 0 {
				line = 1
			}
			msg := fmt.Sprintf("required field %q %v", key, errs[key])
			if isKeyMissing(errs[key]) {
				msg = fmt.Sprintf("required field %q is missing", key)
			}
			out = append(out, core.NewFinding(p, NameRequired, core.SeverityError, line, "%s", msg))
		}
	}
	return out
}

func isKeyMissing(err error) bool {
	var verr validation.Error
	return errors.As(err, &verr) && verr.Code() == validation.ErrKeyMissing.Code()
}

// requiredView exposes the typed fields so blank-but-present values
// (whitespace, empty lists) count as missing.
func requiredView(p core.Post) map[string]any {
	view := make(map[string]any, len(p.Meta))
	for k, v := range p.Meta {
		view[k] = v
	}
	fm := p.FrontMatter
	set := func(key string, v any) {
		if _, ok := p.Meta[key]; ok {
			view[key] = v
		}
	}
	set(core.KeyLayout, strings.TrimSpace(fm.Layout))
	set(core.KeyTitle, strings.TrimSpace(fm.Title))
	set(core.KeyDate, strings.TrimSpace(fm.Date))
	set(core.KeyAuthor, strings.TrimSpace(fm.Author))
	set(core.KeyExcerpt, strings.TrimSpace(fm.Excerpt))
	set(core.KeyTags, fm.Tags)
	set(core.KeyCategories, fm.Categories)
	return view
}

// Keys warns about front matter keys the site generator does not consume.
type Keys struct {
	Extra []string
}

func (Keys) Name() string { return NameKeys }

func (k Keys) Check(_ context.Context, posts []core.Post) []core.Finding {
	allowed := make(map[string]bool)
	for _, key := range core.RecognizedKeys {
		allowed[key] = true
	}
	for _, key := range k.Extra {
		allowed[key] = true
	}

	var out []core.Finding
	for _, p := range parsed(posts) {
		for _, key := range sortedKeys(p.Meta) {
			if allowed[key] {
				continue
			}
			hint := ""
			if lower := strings.ToLower(key); lower != key && allowed[lower] {
				hint = " (did you mean " + lower + "?)"
			}
			out = append(out, core.NewFinding(p, NameKeys, core.SeverityWarning, p.FrontMatter.Line(key),
				"unrecognized front matter key %q%s", key, hint))
		}
	}
	return out
}
