// Package navigation decides what happens when the embedded page tries to
// leave the current document or open a new window.
package navigation

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/rennerdo30/taqyon/internal/logging"
)

// ViewSourcePrefix marks new-window requests that ask for a page's source.
const ViewSourcePrefix = "view-source:"

// WindowType is the kind of window a page asked for.
type WindowType string

// Window types reported by the page script.
const (
	WindowTab           WindowType = "tab"
	WindowBackgroundTab WindowType = "backgroundtab"
	WindowBrowser       WindowType = "window"
	WindowDialog        WindowType = "dialog"
)

// Request describes a navigation or new-window attempt.
type Request struct {
	URL       string     `json:"url"`
	TopLevel  bool       `json:"topLevel"`
	UserClick bool       `json:"userClick"`
	Window    WindowType `json:"window,omitempty"`
}

// Action is the outcome of a decision.
type Action int

const (
	// Allow lets the web view handle the request itself.
	Allow Action = iota
	// Intercept cancels the in-app navigation; the URL went to the OS handler.
	Intercept
	// ViewSource asks the surface to show the source of URL.
	ViewSource
	// Refuse drops the request.
	Refuse
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case Intercept:
		return "intercept"
	case ViewSource:
		return "view-source"
	case Refuse:
		return "refuse"
	default:
		return "unknown"
	}
}

// Decision is returned by a Decider.
type Decision struct {
	Action Action
	URL    string
}

// Decider is injected into the render surface.
type Decider interface {
	DecideNavigation(req Request) Decision
	DecideNewWindow(req Request) Decision
}

// Opener hands a URL to the operating system's default handler.
type Opener interface {
	Open(rawURL string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(rawURL string) error

// Open calls f(rawURL).
func (f OpenerFunc) Open(rawURL string) error { return f(rawURL) }

// ShouldIntercept reports whether a navigation must leave the app: only
// top-level user link clicks to web URLs are sent to the system browser.
func ShouldIntercept(rawURL string, isTopLevelFrame, isUserLinkClick bool) bool {
	if !isTopLevelFrame || !isUserLinkClick {
		return false
	}
	return isWebURL(rawURL)
}

func isWebURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// Policy is the shell's Decider.
type Policy struct {
	opener   Opener
	internal map[string]struct{}
	inApp    *HostPatterns
	log      *slog.Logger
}

// NewPolicy creates a Policy that opens intercepted URLs with opener.
//
// internalOrigins names the app's own origin, which is the dev server the
// frontend is loaded from. Link clicks to exactly that scheme, host and port
// stay in the window; every other top-level http(s) click is intercepted.
// Paths of internalOrigins are ignored.
func NewPolicy(opener Opener, internalOrigins ...string) *Policy {
	p := &Policy{
		opener:   opener,
		internal: make(map[string]struct{}, len(internalOrigins)),
		log:      logging.WithComponent("navigation"),
	}
	for _, origin := range internalOrigins {
		if o := originOf(origin); o != "" {
			p.internal[o] = struct{}{}
		}
	}
	return p
}

// SetInAppHosts makes web links to hosts matching hosts stay in the window.
// Nil clears the list.
func (p *Policy) SetInAppHosts(hosts *HostPatterns) {
	p.inApp = hosts
}

// DecideNavigation applies ShouldIntercept and, on intercept, opens the URL
// externally. Links to the app's own origin and to in-app hosts are allowed.
func (p *Policy) DecideNavigation(req Request) Decision {
	if p.isInternal(req.URL) {
		return Decision{Action: Allow, URL: req.URL}
	}
	if !ShouldIntercept(req.URL, req.TopLevel, req.UserClick) {
		return Decision{Action: Allow, URL: req.URL}
	}

	p.log.Info("intercepted link click, opening externally", "url", req.URL)
	p.open(req.URL)
	return Decision{Action: Intercept, URL: req.URL}
}

// DecideNewWindow handles window.open and target=_blank requests. Tabs and
// browser windows for web URLs open externally, view-source requests go to
// the source viewer and everything else is refused.
func (p *Policy) DecideNewWindow(req Request) Decision {
	if strings.HasPrefix(req.URL, ViewSourcePrefix) {
		return Decision{Action: ViewSource, URL: strings.TrimPrefix(req.URL, ViewSourcePrefix)}
	}

	switch req.Window {
	case WindowTab, WindowBackgroundTab, WindowBrowser:
		if isWebURL(req.URL) {
			p.log.Info("new window requested, opening externally", "url", req.URL, "type", req.Window)
			p.open(req.URL)
			return Decision{Action: Intercept, URL: req.URL}
		}
	}

	p.log.Info("not creating a window", "url", req.URL, "type", req.Window)
	return Decision{Action: Refuse, URL: req.URL}
}

func (p *Policy) open(rawURL string) {
	if p.opener == nil {
		return
	}
	if err := p.opener.Open(rawURL); err != nil {
		p.log.Error("failed to open url externally", "url", rawURL, "error", err)
	}
}

func (p *Policy) isInternal(rawURL string) bool {
	if p.inApp.Len() > 0 && isWebURL(rawURL) && p.inApp.MatchURL(rawURL) {
		return true
	}
	if len(p.internal) == 0 {
		return false
	}
	_, ok := p.internal[originOf(rawURL)]
	return ok
}

func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}
