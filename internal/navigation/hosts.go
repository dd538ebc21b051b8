package navigation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// MaxHostPatterns bounds the number of in-app host patterns.
const MaxHostPatterns = 1000

// Host pattern errors.
var (
	ErrTooManyHostPatterns = errors.New("navigation: too many host patterns")
	ErrDuplicateHost       = errors.New("navigation: duplicate host pattern")
	ErrInvalidHostPattern  = errors.New("navigation: invalid host pattern")
)

// HostPatterns matches URL hosts against patterns. Links to matching hosts
// stay in the window instead of opening in the browser.
//
// Pattern formats:
//   - "docs.example.com" matches that host only
//   - "*.example.com" matches any subdomain but not example.com itself
//   - ".example.com" matches example.com and every subdomain
//   - "preview-*.example.com" globs within one label
type HostPatterns struct {
	mu       sync.RWMutex
	patterns []hostPattern
}

type hostPattern struct {
	original  string
	labels    []string
	subdomain bool // *.example.com
	suffix    bool // .example.com
	glob      bool
}

// NewHostPatterns compiles patterns. Empty entries are skipped.
func NewHostPatterns(patterns []string) (*HostPatterns, error) {
	h := &HostPatterns{}
	for _, p := range patterns {
		if err := h.Add(p); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Add compiles and appends one pattern.
func (h *HostPatterns) Add(p string) error {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return nil
	}
	if p == "*" || strings.Contains(p, "/") || strings.Contains(p, ":") {
		return fmt.Errorf("%w: %q", ErrInvalidHostPattern, p)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, existing := range h.patterns {
		if existing.original == p {
			return fmt.Errorf("%w: %q", ErrDuplicateHost, p)
		}
	}
	if len(h.patterns) >= MaxHostPatterns {
		return ErrTooManyHostPatterns
	}

	pat := hostPattern{original: p}
	switch {
	case strings.HasPrefix(p, "*."):
		pat.subdomain = true
		p = p[2:]
	case strings.HasPrefix(p, "."):
		pat.suffix = true
		p = p[1:]
	}
	if p == "" {
		return fmt.Errorf("%w: %q", ErrInvalidHostPattern, pat.original)
	}

	pat.labels = strings.Split(p, ".")
	for _, label := range pat.labels {
		if label == "" {
			return fmt.Errorf("%w: %q", ErrInvalidHostPattern, pat.original)
		}
		if strings.Contains(label, "*") {
			pat.glob = true
		}
	}

	h.patterns = append(h.patterns, pat)
	return nil
}

// Len returns the number of patterns.
func (h *HostPatterns) Len() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.patterns)
}

// Patterns returns the patterns in the order they were added.
func (h *HostPatterns) Patterns() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]string, len(h.patterns))
	for i, p := range h.patterns {
		result[i] = p.original
	}
	return result
}

// MatchURL reports whether the host of rawURL matches a pattern.
func (h *HostPatterns) MatchURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return h.Match(u.Hostname())
}

// Match reports whether host matches a pattern. A port is ignored.
func (h *HostPatterns) Match(host string) bool {
	if h == nil {
		return false
	}

	host = strings.ToLower(strings.TrimSpace(host))
	if i := strings.LastIndex(host, ":"); i != -1 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return false
	}
	labels := strings.Split(host, ".")

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, pat := range h.patterns {
		if pat.match(labels) {
			return true
		}
	}
	return false
}

func (p hostPattern) match(labels []string) bool {
	switch {
	case p.subdomain:
		if len(labels) <= len(p.labels) {
			return false
		}
	case p.suffix:
		if len(labels) < len(p.labels) {
			return false
		}
	default:
		if len(labels) != len(p.labels) {
			return false
		}
	}

	offset := len(labels) - len(p.labels)
	for i, want := range p.labels {
		got := labels[offset+i]
		if p.glob {
			if !matchGlob(want, got) {
				return false
			}
		} else if want != got {
			return false
		}
	}
	return true
}

// matchGlob matches one host label against a pattern where * stands for any
// run of characters.
func matchGlob(pattern, value string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == value
	}

	segments := strings.Split(pattern, "*")
	first, last := segments[0], segments[len(segments)-1]
	if !strings.HasPrefix(value, first) {
		return false
	}
	pos := len(first)

	for _, seg := range segments[1 : len(segments)-1] {
		if seg == "" {
			continue
		}
		idx := strings.Index(value[pos:], seg)
		if idx == -1 {
			return false
		}
		pos += idx + len(seg)
	}

	return len(value)-pos >= len(last) && strings.HasSuffix(value, last)
}
