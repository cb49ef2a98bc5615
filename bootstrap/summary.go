package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/asrkit/logger"
)

// SummaryItem is one line of the startup summary.
type SummaryItem struct {
	Name    string
	Details string
}

// RouteInfo is a registered HTTP route.
type RouteInfo struct {
	Method  string
	Path    string
	Handler string
}

// Summary collects what an app wired up so it can be logged once started.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	items           []SummaryItem
	routes          []RouteInfo
}

// NewSummary creates an empty summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Track records a wired component.
func (s *Summary) Track(name, details string) {
	s.items = append(s.items, SummaryItem{Name: name, Details: details})
}

// TrackRoute records an HTTP route.
func (s *Summary) TrackRoute(method, path, handler string) {
	s.routes = append(s.routes, RouteInfo{Method: method, Path: path, Handler: handler})
}

// Items returns the tracked components.
func (s *Summary) Items() []SummaryItem { return s.items }

// Routes returns the tracked routes.
func (s *Summary) Routes() []RouteInfo { return s.routes }

// Lines renders the summary as plain text lines.
func (s *Summary) Lines() []string {
	version := s.version
	if version == "" {
		version = "dev"
	}
	lines := []string{fmt.Sprintf("%s %s started in %.2fs", s.serviceName, version, s.startupDuration.Seconds())}
	for i, item := range s.items {
		lines = append(lines, fmt.Sprintf("  %s %s: %s", branch(i, len(s.items)), item.Name, item.Details))
	}
	if len(s.routes) > 0 {
		lines = append(lines, fmt.Sprintf("  routes (%d)", len(s.routes)))
		for i, r := range s.routes {
			lines = append(lines, fmt.Sprintf("    %s %-6s %s -> %s", branch(i, len(s.routes)), r.Method, r.Path, r.Handler))
		}
	}
	return lines
}

// Display logs the summary at info level.
func (s *Summary) Display(log *logger.Logger) {
	log.Info(strings.Join(s.Lines(), "\n"))
}

func branch(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}
