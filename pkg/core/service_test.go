package core_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aretw0/postlint/pkg/core"
)

// MockRepository implements core.Repository in memory.
// It deliberately does NOT implement core.Watchable to test fallback/errors.
type MockRepository struct {
	posts map[string]core.Post
}

func NewMockRepository(posts ...core.Post) *MockRepository {
	m := &MockRepository{posts: make(map[string]core.Post)}
	for _, p := range posts {
		m.posts[p.ID] = p
	}
	return m
}

func (m *MockRepository) List(ctx context.Context) ([]core.Post, error) {
	var posts []core.Post
	for _, p := range m.posts {
		posts = append(posts, p)
	}
	// Sort for deterministic tests
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].ID < posts[j].ID
	})
	return posts, nil
}

func (m *MockRepository) Get(ctx context.Context, id string) (core.Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return core.Post{}, core.ErrNotFound
	}
	return p, nil
}

func (m *MockRepository) Initialize(ctx context.Context) error { return nil }

type stubRule struct {
	name     string
	findings func(posts []core.Post) []core.Finding
}

func (r stubRule) Name() string { return r.name }

func (r stubRule) Check(ctx context.Context, posts []core.Post) []core.Finding {
	return r.findings(posts)
}

func post(id, title string, tags ...string) core.Post {
	return core.Post{
		ID:   id,
		Path: id + ".md",
		FrontMatter: core.FrontMatter{
			Title: title,
			Tags:  tags,
		},
	}
}

func TestService_Lint(t *testing.T) {
	repo := NewMockRepository(post("b", "B"), post("a", ""))
	emptyTitle := stubRule{
		name: "title",
		findings: func(posts []core.Post) []core.Finding {
			var out []core.Finding
			for _, p := range posts {
				if p.FrontMatter.Title == "" {
					out = append(out, core.NewFinding(p, "title", core.SeverityError, 2, "missing title"))
				}
			}
			return out
		},
	}
	always := stubRule{
		name: "always",
		findings: func(posts []core.Post) []core.Finding {
			return []core.Finding{core.NewFinding(posts[1], "always", core.SeverityInfo, 0, "hello")}
		},
	}

	svc := core.NewService(repo, emptyTitle, always)
	report, err := svc.Lint(context.TODO())
	if err != nil {
		t.Fatalf("Lint failed: %v", err)
	}

	want := []core.Finding{
		{PostID: "a", Path: "a.md", Rule: "title", Severity: core.SeverityError, Line: 2, Message: "missing title"},
		{PostID: "b", Path: "b.md", Rule: "always", Severity: core.SeverityInfo, Message: "hello"},
	}
	if diff := cmp.Diff(want, report.Findings); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
	if report.Posts != 2 {
		t.Errorf("expected 2 posts, got %d", report.Posts)
	}
	if !report.HasErrors() {
		t.Error("expected report to have errors")
	}

	state := svc.State().(core.ServiceState)
	if state.LastFindings != 2 || state.LastPosts != 2 {
		t.Errorf("unexpected state: %+v", state)
	}
}

func TestService_Lint_Cancelled(t *testing.T) {
	svc := core.NewService(NewMockRepository(post("a", "A")), stubRule{
		name:     "noop",
		findings: func([]core.Post) []core.Finding { return nil },
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Lint(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestService_Post(t *testing.T) {
	svc := core.NewService(NewMockRepository(post("a", "A")))
	ctx := context.TODO()

	if _, err := svc.Post(ctx, ""); !errors.Is(err, core.ErrEmptyID) {
		t.Errorf("expected ErrEmptyID, got %v", err)
	}
	if _, err := svc.Post(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	p, err := svc.Post(ctx, "a")
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if p.FrontMatter.Title != "A" {
		t.Errorf("expected title 'A', got '%s'", p.FrontMatter.Title)
	}
}

func TestService_Index(t *testing.T) {
	broken := post("broken", "X", "go")
	broken.ParseErr = core.ErrNoFrontMatter

	a := post("a", "A", "go", "ci")
	a.FrontMatter.Categories = []string{"testing"}
	b := post("b", "B", "go")

	svc := core.NewService(NewMockRepository(a, b, broken))
	idx, err := svc.Index(context.TODO())
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	want := core.Index{
		Tags:       map[string][]string{"go": {"a", "b"}, "ci": {"a"}},
		Categories: map[string][]string{"testing": {"a"}},
	}
	if diff := cmp.Diff(want, idx); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
	if got := core.Labels(idx.Tags); !cmp.Equal(got, []string{"ci", "go"}) {
		t.Errorf("unexpected labels: %v", got)
	}
}

func TestService_Watch_Unsupported(t *testing.T) {
	svc := core.NewService(NewMockRepository())
	_, err := svc.Watch(context.TODO(), "**/*.md")
	if !errors.Is(err, core.ErrWatchUnsupported) {
		t.Errorf("expected ErrWatchUnsupported, got %v", err)
	}
}

func TestReport_Counts(t *testing.T) {
	r := core.Report{Findings: []core.Finding{
		{Severity: core.SeverityWarning},
		{Severity: core.SeverityWarning},
		{Severity: core.SeverityInfo},
	}}
	counts := r.Counts()
	if counts[core.SeverityWarning] != 2 || counts[core.SeverityInfo] != 1 || counts[core.SeverityError] != 0 {
		t.Errorf("unexpected counts: %v", counts)
	}
	if r.HasErrors() {
		t.Error("expected no errors")
	}
	if !r.AtLeast(core.SeverityWarning) {
		t.Error("expected warnings to meet threshold")
	}
	worst, ok := r.Worst()
	if !ok || worst != core.SeverityWarning {
		t.Errorf("expected worst=warning, got %v (%v)", worst, ok)
	}
	if _, ok := (core.Report{}).Worst(); ok {
		t.Error("expected no worst severity for empty report")
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    core.Severity
		wantErr bool
	}{
		{"error", core.SeverityError, false},
		{"WARN", core.SeverityWarning, false},
		{" info ", core.SeverityInfo, false},
		{"fatal", core.SeverityInfo, true},
	}
	for _, tt := range tests {
		got, err := core.ParseSeverity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSeverity(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
