package platform

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/postlint/pkg/core"
	"github.com/aretw0/postlint/pkg/rules"
)

// ConfigFileNames are looked up, in order, at the site root.
var ConfigFileNames = []string{".postlint.yaml", ".postlint.yml"}

// FileConfig is the on-disk configuration.
type FileConfig struct {
	Include     []string          `yaml:"include"`
	Exclude     []string          `yaml:"exclude"`
	SystemDir   string            `yaml:"system_dir"`
	Concurrency int               `yaml:"concurrency"`
	Required    []string          `yaml:"required"`
	ExtraKeys   []string          `yaml:"extra_keys"`
	Disable     []string          `yaml:"disable"`
	Severity    map[string]string `yaml:"severity"`
	Schema      string            `yaml:"schema"`
	ExcerptMax  int               `yaml:"excerpt_max"`

	// dir is where the file lives; relative paths resolve against it.
	dir string
}

// LoadConfig reads a configuration file. Unknown keys are an error so that
// typos do not silently disable settings.
func LoadConfig(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return FileConfig{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// FindConfig returns the config file at root, or "" when there is none.
func FindConfig(root string) string {
	for _, name := range ConfigFileNames {
		if hasFile(root, name) {
			return filepath.Join(root, name)
		}
	}
	return ""
}

// RulesConfig converts the file settings into a rule configuration.
func (c FileConfig) RulesConfig() (rules.Config, error) {
	rc := rules.Config{
		Required:   c.Required,
		ExtraKeys:  c.ExtraKeys,
		Disable:    c.Disable,
		ExcerptMax: c.ExcerptMax,
	}
	if len(c.Severity) > 0 {
		rc.Severity = make(map[string]core.Severity, len(c.Severity))
		for name, level := range c.Severity {
			sev, err := core.ParseSeverity(level)
			if err != nil {
				return rules.Config{}, fmt.Errorf("severity for rule %q: %w", name, err)
			}
			rc.Severity[name] = sev
		}
	}
	if c.Schema != "" {
		rc.Schema = c.Schema
		if !filepath.IsAbs(rc.Schema) && c.dir != "" {
			rc.Schema = filepath.Join(c.dir, rc.Schema)
		}
	}
	return rc, nil
}
