package rules

import (
	"context"

	"github.com/aretw0/postlint/pkg/core"
	"github.com/aretw0/postlint/pkg/ledger"
)

// Immutable warns when a published post no longer matches its recorded hash.
type Immutable struct {
	Ledger *ledger.Ledger
}

func (Immutable) Name() string { return NameImmutable }

func (r Immutable) Check(_ context.Context, posts []core.Post) []core.Finding {
	if r.Ledger == nil {
		return nil
	}
	var out []core.Finding
	for _, p := range posts {
		if !r.Ledger.Changed(p) {
			continue
		}
		entry, _ := r.Ledger.Lookup(p.ID)
		out = append(out, core.NewFinding(p, NameImmutable, core.SeverityWarning, 0,
			"post was published on %s and has changed since", entry.PublishedAt.Format("2006-01-02")))
	}
	return out
}
