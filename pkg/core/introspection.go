package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	RepositoryType string   `json:"repository_type"`
	Rules          []string `json:"rules"`
	LastPosts      int      `json:"last_posts"`
	LastFindings   int      `json:"last_findings"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	rules := s.Rules()

	s.mu.RLock()
	defer s.mu.RUnlock()

	repoType := "unknown"
	if s.repo != nil {
		repoType = "repository"
		if comp, ok := s.repo.(introspection.Component); ok {
			repoType = comp.ComponentType()
		}
	}

	state := ServiceState{
		RepositoryType: repoType,
		Rules:          rules,
	}
	if s.lastReport != nil {
		state.LastPosts = s.lastReport.Posts
		state.LastFindings = len(s.lastReport.Findings)
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
