// Package journal keeps the most recent shell events in memory for the
// diagnostics server.
package journal

import (
	"time"
)

// Entry is one recorded event.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Source    Source    `json:"source"`
	Type      string    `json:"type"`
	Outcome   string    `json:"outcome,omitempty"`
	URL       string    `json:"url,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Source names the component that produced an entry.
type Source string

const (
	SourceBridge   Source = "bridge"
	SourceSurface  Source = "surface"
	SourceWindow   Source = "window"
	SourceFrontend Source = "frontend"
)

// Summary returns a one-line description of the entry.
func (e *Entry) Summary() string {
	s := string(e.Source) + " " + e.Type
	if e.Outcome != "" {
		s += " " + e.Outcome
	}
	if e.URL != "" {
		s += " " + e.URL
	}
	return s
}
