package rules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/aretw0/postlint/pkg/core"
)

// Schema validates every post's front matter against a JSON Schema.
type Schema struct {
	source string
	schema *jsonschema.Schema
}

// NewSchemaFromFile compiles the JSON Schema stored at path.
func NewSchemaFromFile(path string) (*Schema, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema path: %w", err)
	}
	compiled, err := jsonschema.Compile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", path, err)
	}
	return &Schema{source: path, schema: compiled}, nil
}

// NewSchema compiles an inline JSON Schema document.
func NewSchema(doc string) (*Schema, error) {
	compiled, err := jsonschema.CompileString("front-matter.schema.json", doc)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Schema{source: "inline", schema: compiled}, nil
}

func (*Schema) Name() string { return NameSchema }

func (s *Schema) Check(ctx context.Context, posts []core.Post) []core.Finding {
	var out []core.Finding
	for _, p := range parsed(posts) {
		if ctx.Err() != nil {
			return out
		}
		doc, err := jsonDocument(p.Meta)
		if err != nil {
			out = append(out, core.NewFinding(p, NameSchema, core.SeverityError, 1,
				"front matter cannot be represented as JSON: %v", err))
			continue
		}
		err = s.schema.Validate(doc)
		if err == nil {
			continue
		}
		var verr *jsonschema.ValidationError
		if !errors.As(err, &verr) {
			out = append(out, core.NewFinding(p, NameSchema, core.SeverityError, 1, "%v", err))
			continue
		}
		for _, leaf := range leaves(verr) {
			loc := strings.TrimPrefix(leaf.InstanceLocation, "#")
			out = append(out, core.NewFinding(p, NameSchema, core.SeverityError, lineOfPointer(p, loc),
				"%s: %s", displayPointer(loc), strings.TrimSpace(leaf.Message)))
		}
	}
	return out
}

// jsonDocument converts decoded front matter into the generic shape the
// validator expects (maps, slices, float64, string, bool, nil).
func jsonDocument(meta core.Metadata) (any, error) {
	if meta == nil {
		meta = core.Metadata{}
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func leaves(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	var out []*jsonschema.ValidationError
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if len(node.Causes) == 0 {
			out = append(out, node)
			return
		}
		for _, c := range node.Causes {
			walk(c)
		}
	}
	walk(err)
	return out
}

// lineOfPointer maps the top-level key of a JSON pointer to its source line.
func lineOfPointer(p core.Post, pointer string) int {
	key := strings.TrimPrefix(pointer, "/")
	if i := strings.Index(key, "/"); i >= 0 {
		key = key[:i]
	}
	key = strings.NewReplacer("~1", "/", "~0", "~").Replace(key)
	if line := p.FrontMatter.Line(key); line > 0 {
		return line
	}
	return 1
}

func displayPointer(pointer string) string {
	if pointer == "" || pointer == "/" {
		return "front matter"
	}
	return strings.TrimPrefix(pointer, "/")
}
