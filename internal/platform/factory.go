package platform

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aretw0/postlint/pkg/adapters/fs"
	"github.com/aretw0/postlint/pkg/core"
	"github.com/aretw0/postlint/pkg/ledger"
	"github.com/aretw0/postlint/pkg/rules"
)

// site is a fully wired service plus the pieces some operations need directly.
type site struct {
	root      string
	systemDir string
	service   *core.Service
	ledger    *ledger.Ledger
}

// New creates a postlint service for the site at path.
//
//	svc, err := postlint.New("./blog", postlint.WithExclude("_drafts/**"))
func New(path string, opts ...Option) (*core.Service, error) {
	s, err := build(path, resolve(opts))
	if err != nil {
		return nil, err
	}
	return s.service, nil
}

func build(path string, o *options) (*site, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve site path: %w", err)
	}

	cfg, err := loadFileConfig(root, o)
	if err != nil {
		return nil, err
	}

	s := &site{root: root, systemDir: firstNonEmpty(o.systemDir, cfg.SystemDir, fs.DefaultSystemDir)}

	repo := o.repository
	if repo == nil {
		include := o.include
		if len(include) == 0 {
			include = cfg.Include
		}
		concurrency := o.concurrency
		if concurrency == 0 {
			concurrency = cfg.Concurrency
		}
		repo = fs.NewRepository(fs.Config{
			Path:         root,
			Include:      include,
			Exclude:      append(append([]string(nil), cfg.Exclude...), o.exclude...),
			SystemDir:    s.systemDir,
			Concurrency:  concurrency,
			NoCache:      o.noCache,
			ReadOnly:     o.readOnly,
			Logger:       o.logger,
			ErrorHandler: o.errorHandler,
		})

		s.ledger, err = ledger.Open(ledger.PathFor(root, s.systemDir))
		if err != nil {
			return nil, err
		}
	}

	if err := repo.Initialize(context.Background()); err != nil {
		return nil, err
	}

	ruleSet := o.rules
	if ruleSet == nil {
		rc, err := cfg.RulesConfig()
		if err != nil {
			return nil, err
		}
		rc.Ledger = s.ledger
		ruleSet, err = rules.Default(rc)
		if err != nil {
			return nil, err
		}
	}

	s.service = core.NewService(repo, ruleSet...)
	s.service.SetLogger(o.logger)
	if o.logger != nil {
		o.logger.Debug("service ready", "root", root, "rules", s.service.Rules())
	}
	return s, nil
}

func loadFileConfig(root string, o *options) (FileConfig, error) {
	path := o.configPath
	if path == "" && !o.noConfig {
		path = FindConfig(root)
	}
	if path == "" {
		return FileConfig{}, nil
	}
	if o.logger != nil {
		o.logger.Debug("loading config", "path", path)
	}
	return LoadConfig(path)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
