package platform

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/postlint/pkg/adapters/fs"
	"github.com/aretw0/postlint/pkg/core"
	"github.com/aretw0/postlint/pkg/ledger"
	"github.com/aretw0/postlint/pkg/rules"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

const goodPost = "---\ntitle: Hello\ndate: 2021-01-01\nauthor: Ann\nexcerpt: Hi.\n---\nBody\n"

func newSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "_posts/2021-01-01-hello.md", goodPost)
	writeFile(t, root, "_posts/2021-01-02-untitled.md", "---\ndate: 2021-01-02\nauthor: Ann\nexcerpt: Hi.\n---\nBody\n")
	return root
}

func ruleCounts(r core.Report) map[string]int {
	out := map[string]int{}
	for _, f := range r.Findings {
		out[f.PostID+" "+f.Rule]++
	}
	return out
}

func TestLint(t *testing.T) {
	root := newSite(t)

	report, err := Lint(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Posts)
	assert.Equal(t, map[string]int{"_posts/2021-01-02-untitled required": 1}, ruleCounts(report))
	assert.True(t, report.HasErrors())
}

func TestLint_CachedRunMatchesCold(t *testing.T) {
	root := newSite(t)
	writeFile(t, root, "_posts/2021-01-03-mixed.md",
		"---\ntitle: Mixed\ndate: 2021-01-03\nauthor: Ann\nexcerpt: Hi.\ntags: [2021-01-01, go, 7]\nratings: {1: good}\n---\nBody\n")

	cold, err := Lint(context.Background(), root)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(root, fs.DefaultSystemDir, "index.json"))

	warm, err := Lint(context.Background(), root)
	require.NoError(t, err)

	if diff := cmp.Diff(cold, warm); diff != "" {
		t.Errorf("cached lint differs from cold lint (-cold +warm):\n%s", diff)
	}
	counts := ruleCounts(warm)
	assert.Equal(t, 1, counts["_posts/2021-01-03-mixed taxonomy"], "only the numeric tag is reported")
	assert.Equal(t, 1, counts["_posts/2021-01-03-mixed keys"])
}

func TestLint_ConfigFile(t *testing.T) {
	root := newSite(t)
	writeFile(t, root, ".postlint.yaml", "required: [date]\nseverity:\n  keys: error\n")
	writeFile(t, root, "_posts/2021-01-03-extra.md", "---\ndate: 2021-01-03\nexcerpt: Hi.\nmood: happy\n---\n")

	report, err := Lint(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"_posts/2021-01-03-extra keys": 1}, ruleCounts(report))
	assert.Equal(t, core.SeverityError, report.Findings[0].Severity)

	t.Run("Explicit Config Wins", func(t *testing.T) {
		other := filepath.Join(t.TempDir(), "strict.yaml")
		require.NoError(t, os.WriteFile(other, []byte("required: [title, date, author, layout]\n"), 0644))
		report, err := Lint(context.Background(), root, WithConfig(other))
		require.NoError(t, err)
		counts := ruleCounts(report)
		assert.Equal(t, 1, counts["_posts/2021-01-01-hello required"])
		assert.Equal(t, 2, counts["_posts/2021-01-02-untitled required"])
	})

	t.Run("Config Ignored", func(t *testing.T) {
		report, err := Lint(context.Background(), root, WithoutConfigFile())
		require.NoError(t, err)
		assert.Equal(t, core.SeverityWarning, findRule(t, report, "_posts/2021-01-03-extra", rules.NameKeys).Severity)
	})
}

func findRule(t *testing.T, r core.Report, id, rule string) core.Finding {
	t.Helper()
	for _, f := range r.Findings {
		if f.PostID == id && f.Rule == rule {
			return f
		}
	}
	t.Fatalf("no %s finding for %s", rule, id)
	return core.Finding{}
}

func TestNew_Options(t *testing.T) {
	root := newSite(t)
	writeFile(t, root, "_drafts/wip.md", "no front matter\n")

	t.Run("Exclude", func(t *testing.T) {
		svc, err := New(root, WithExclude("_drafts/**"))
		require.NoError(t, err)
		posts, err := svc.Posts(context.Background())
		require.NoError(t, err)
		assert.Len(t, posts, 2)
	})

	t.Run("Include", func(t *testing.T) {
		svc, err := New(root, WithInclude("_drafts/*.md"))
		require.NoError(t, err)
		posts, err := svc.Posts(context.Background())
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "_drafts/wip", posts[0].ID)
	})

	t.Run("Rules", func(t *testing.T) {
		svc, err := New(root, WithRules(rules.FrontMatter{}))
		require.NoError(t, err)
		assert.Equal(t, []string{rules.NameFrontMatter}, svc.Rules())
	})

	t.Run("ReadOnly And SystemDir", func(t *testing.T) {
		svc, err := New(root, WithReadOnly(true), WithSystemDir(".cache"))
		require.NoError(t, err)
		_, err = svc.Lint(context.Background())
		require.NoError(t, err)
		assert.NoDirExists(t, filepath.Join(root, ".cache"))
	})

	t.Run("Missing Root", func(t *testing.T) {
		_, err := New(filepath.Join(root, "nope"))
		assert.Error(t, err)
	})

	t.Run("Invalid Config", func(t *testing.T) {
		writeFile(t, root, "bad.yaml", "disable: [nope]\n")
		_, err := New(root, WithConfig(filepath.Join(root, "bad.yaml")))
		assert.ErrorContains(t, err, `unknown rule "nope"`)
	})
}

func TestPublish(t *testing.T) {
	root := newSite(t)
	ctx := context.Background()
	day := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)

	added, err := Publish(ctx, root, day)
	require.NoError(t, err)
	assert.Equal(t, []string{"_posts/2021-01-01-hello"}, added, "posts with errors are not published")

	l, err := ledger.Open(ledger.PathFor(root, fs.DefaultSystemDir))
	require.NoError(t, err)
	assert.Equal(t, 1, l.Len())

	again, err := Publish(ctx, root, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, again)

	// Editing a published post is reported by the immutable rule.
	writeFile(t, root, "_posts/2021-01-01-hello.md", goodPost+"Edited.\n")
	report, err := Lint(ctx, root)
	require.NoError(t, err)
	f := findRule(t, report, "_posts/2021-01-01-hello", rules.NameImmutable)
	assert.Equal(t, core.SeverityWarning, f.Severity)
}

func TestPublish_ReadOnly(t *testing.T) {
	_, err := Publish(context.Background(), newSite(t), time.Now(), WithReadOnly(true))
	assert.ErrorIs(t, err, core.ErrReadOnly)
}

func TestWatchLint(t *testing.T) {
	root := newSite(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var reports []core.Report
	done := make(chan error, 1)
	go func() {
		done <- WatchLint(ctx, root, "_posts/**", func(r core.Report, err error) {
			assert.NoError(t, err)
			mu.Lock()
			reports = append(reports, r)
			mu.Unlock()
		}, WithNoCache(true))
	}()

	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(reports)
	}
	require.Eventually(t, func() bool { return count() == 1 }, 3*time.Second, 10*time.Millisecond)

	// Give the watcher a moment to register directories before writing.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, root, "_posts/2021-01-05-new.md", goodPost)

	require.Eventually(t, func() bool { return count() >= 2 }, 5*time.Second, 20*time.Millisecond)
	mu.Lock()
	last := reports[len(reports)-1]
	mu.Unlock()
	assert.Equal(t, 3, last.Posts)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("WatchLint did not return after cancel")
	}
}
