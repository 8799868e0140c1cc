package core

import (
	"fmt"
	"sort"
	"strings"
)

// Severity ranks a finding. Higher is worse.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// ParseSeverity maps a name ("error", "warning", "warn", "info") to a Severity.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "info":
		return SeverityInfo, nil
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Finding is a single content problem detected by a rule.
type Finding struct {
	PostID   string   `json:"post_id"`
	Path     string   `json:"path"`
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Line     int      `json:"line,omitempty"`
	Message  string   `json:"message"`
}

func (f Finding) String() string {
	loc := f.Path
	if f.Line > 0 {
		loc = fmt.Sprintf("%s:%d", f.Path, f.Line)
	}
	return fmt.Sprintf("%s: %s [%s] %s", loc, f.Severity, f.Rule, f.Message)
}

// NewFinding builds a finding anchored at post p.
func NewFinding(p Post, rule string, sev Severity, line int, format string, args ...any) Finding {
	return Finding{
		PostID:   p.ID,
		Path:     p.Path,
		Rule:     rule,
		Severity: sev,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Report is the outcome of linting a set of posts.
type Report struct {
	Posts    int       `json:"posts"`
	Findings []Finding `json:"findings"`
}

// Sort orders findings by path, line, rule, then message.
func (r *Report) Sort() {
	sort.SliceStable(r.Findings, func(i, j int) bool {
		a, b := r.Findings[i], r.Findings[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Message < b.Message
	})
}

// Counts returns the number of findings per severity.
func (r Report) Counts() map[Severity]int {
	counts := map[Severity]int{
		SeverityError:   0,
		SeverityWarning: 0,
		SeverityInfo:    0,
	}
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}

// HasErrors reports whether any finding is an error.
func (r Report) HasErrors() bool {
	return r.AtLeast(SeverityError)
}

// AtLeast reports whether any finding is at or above sev.
func (r Report) AtLeast(sev Severity) bool {
	for _, f := range r.Findings {
		if f.Severity >= sev {
			return true
		}
	}
	return false
}

// Worst returns the highest severity present and false if there are no findings.
func (r Report) Worst() (Severity, bool) {
	if len(r.Findings) == 0 {
		return SeverityInfo, false
	}
	worst := SeverityInfo
	for _, f := range r.Findings {
		if f.Severity > worst {
			worst = f.Severity
		}
	}
	return worst, true
}

// ForPost returns the findings that belong to the given post ID.
func (r Report) ForPost(id string) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.PostID == id {
			out = append(out, f)
		}
	}
	return out
}
