package fs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/postlint/pkg/core"
)

// ParsePost decodes a raw post file into a core.Post.
// Content problems (missing or malformed front matter) are recorded in
// Post.ParseErr instead of being returned, so that the caller can still list
// the file and report it.
func ParsePost(data []byte) core.Post {
	sum := sha256.Sum256(data)
	p := core.Post{
		Hash:   hex.EncodeToString(sum[:]),
		Format: core.FormatNone,
		Meta:   make(core.Metadata),
	}

	var (
		body       []byte
		bodyOffset int
		lines      map[string]int
		err        error
	)

	switch {
	case hasDelimiter(data, "---"):
		p.Format = core.FormatYAML
		p.Meta, lines, body, bodyOffset, err = parseYAML(data)
	case hasDelimiter(data, "+++"):
		p.Format = core.FormatTOML
		p.Meta, body, bodyOffset, err = parseForeign(data)
	case hasDelimiter(data, ";;;") || bytes.HasPrefix(data, []byte("{")):
		p.Format = core.FormatJSON
		p.Meta, body, bodyOffset, err = parseForeign(data)
	default:
		body = data
		err = core.ErrNoFrontMatter
	}

	if err != nil {
		p.ParseErr = err
		if p.Meta == nil {
			p.Meta = make(core.Metadata)
		}
		if body == nil {
			body = data
		}
	}

	p.Body = string(body)
	p.FrontMatter = frontMatterOf(p.Meta)
	p.FrontMatter.Lines = lines
	p.Links = ExtractLinks(body, bodyOffset)
	return p
}

func hasDelimiter(data []byte, delim string) bool {
	return bytes.HasPrefix(data, []byte(delim+"\n")) || bytes.HasPrefix(data, []byte(delim+"\r\n"))
}

// parseYAML splits a `---` delimited block off data and decodes it.
// The returned offset is the number of lines preceding the body.
func parseYAML(data []byte) (core.Metadata, map[string]int, []byte, int, error) {
	lines := bytes.SplitAfter(data, []byte("\n"))

	closing := -1
	for i := 1; i < len(lines); i++ {
		trimmed := strings.TrimRight(string(lines[i]), "\r\n")
		if trimmed == "---" || trimmed == "..." {
			closing = i
			break
		}
	}
	if closing == -1 {
		return nil, nil, nil, 0, core.ErrUnterminatedFrontMatter
	}

	block := bytes.Join(lines[1:closing], nil)
	body := bytes.Join(lines[closing+1:], nil)
	bodyOffset := closing + 1

	meta, keyLines, err := decodeYAMLBlock(block)
	if err != nil {
		return nil, nil, body, bodyOffset, err
	}

	// Front matter starts on the second line of the file.
	for k, l := range keyLines {
		keyLines[k] = l + 1
	}
	return meta, keyLines, body, bodyOffset, nil
}

func decodeYAMLBlock(block []byte) (core.Metadata, map[string]int, error) {
	meta := make(core.Metadata)
	keyLines := make(map[string]int)

	var root yaml.Node
	if err := yaml.Unmarshal(block, &root); err != nil {
		return nil, nil, fmt.Errorf("malformed front matter: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return meta, keyLines, nil
	}

	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("malformed front matter: line %d: expected key/value mapping", mapping.Line)
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i]
		if prev, dup := keyLines[key.Value]; dup {
			return nil, nil, fmt.Errorf("malformed front matter: line %d: key %q already defined at line %d", key.Line, key.Value, prev)
		}
		keyLines[key.Value] = key.Line

		value := mapping.Content[i+1]
		keepTimestampsAsWritten(value)
		var v any
		if err := value.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("malformed front matter: line %d: %w", value.Line, err)
		}
		meta[key.Value] = jsonValue(v)
	}
	return meta, keyLines, nil
}

// keepTimestampsAsWritten retags implicit timestamps, at any depth, so they
// decode to their source text instead of a time.Time.
func keepTimestampsAsWritten(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!timestamp" {
		n.Tag = "!!str"
	}
	for _, c := range n.Content {
		keepTimestampsAsWritten(c)
	}
}

// jsonValue converts a decoded value to the shape it has after a JSON round
// trip, so a freshly parsed post and one served from the cache carry
// identical metadata.
func jsonValue(v any) any {
	switch val := v.(type) {
	case nil, string, bool:
		return val
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Sprint(val)
		}
		return val
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = jsonValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = jsonValue(item)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32:
		return jsonValue(rv.Float())
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = jsonValue(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = jsonValue(iter.Value().Interface())
		}
		return out
	}
	return fmt.Sprint(v)
}

// parseForeign handles TOML (+++) and JSON (;;; or {}) front matter.
func parseForeign(data []byte) (core.Metadata, []byte, int, error) {
	meta := make(map[string]any)
	body, err := frontmatter.MustParse(bytes.NewReader(data), &meta)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("malformed front matter: %w", err)
	}
	offset := bytes.Count(data, []byte("\n")) - bytes.Count(body, []byte("\n"))
	if offset < 0 {
		offset = 0
	}
	for k, v := range meta {
		meta[k] = jsonValue(v)
	}
	return core.Metadata(meta), body, offset, nil
}

// frontMatterOf builds the typed view over raw metadata.
func frontMatterOf(meta core.Metadata) core.FrontMatter {
	fm := core.FrontMatter{
		Layout:     scalarString(meta[core.KeyLayout]),
		Title:      scalarString(meta[core.KeyTitle]),
		Date:       scalarString(meta[core.KeyDate]),
		Categories: labelList(meta[core.KeyCategories]),
		Tags:       labelList(meta[core.KeyTags]),
		Author:     scalarString(meta[core.KeyAuthor]),
		Excerpt:    scalarString(meta[core.KeyExcerpt]),
	}

	recognized := make(map[string]bool, len(core.RecognizedKeys))
	for _, k := range core.RecognizedKeys {
		recognized[k] = true
	}
	for k, v := range meta {
		if recognized[k] {
			continue
		}
		if fm.Extra == nil {
			fm.Extra = make(map[string]any)
		}
		fm.Extra[k] = v
	}
	return fm
}

// scalarString renders a scalar value as written. Collections yield "".
func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format(time.RFC3339)
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// labelList accepts a list of labels or a whitespace separated string,
// the two forms site generators accept for tags and categories.
func labelList(v any) []string {
	switch val := v.(type) {
	case string:
		return strings.Fields(val)
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return append([]string(nil), val...)
	}
	return nil
}

// SortedKeys returns the metadata keys in lexical order.
func SortedKeys(meta core.Metadata) []string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
