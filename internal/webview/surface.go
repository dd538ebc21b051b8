// Package webview connects the Wails web view to the shell's navigation and
// context menu policies.
//
// A script injected into every HTML document reports link clicks, new
// window requests, context menus and resource failures as Wails events. The
// Surface answers them: it asks the navigation Decider what to do, builds
// context menus and runs the chosen menu actions.
package webview

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/rennerdo30/taqyon/internal/contextmenu"
	"github.com/rennerdo30/taqyon/internal/logging"
	"github.com/rennerdo30/taqyon/internal/navigation"
)

// Events exchanged with the page script.
const (
	EventNavigate    = "surface:navigate"
	EventNewWindow   = "surface:newwindow"
	EventContextMenu = "surface:contextmenu"
	EventMenuAction  = "surface:menuaction"
	EventLoadFailed  = "surface:loadfailed"
	EventShowMenu    = "surface:showmenu"
)

// Event types passed to the Observer.
const (
	TypeNavigation  = "navigation"
	TypeNewWindow   = "newwindow"
	TypeContextMenu = "contextmenu"
	TypeMenuAction  = "menuaction"
	TypeLoadFailed  = "loadfailed"
	TypeReload      = "reload"
)

// Event describes something the surface handled.
type Event struct {
	Type    string
	Outcome string
	URL     string
	Detail  string
}

// Observer receives every Event. It is called synchronously.
type Observer func(Event)

// Options configures a Surface.
type Options struct {
	Runtime Runtime
	Decider navigation.Decider
	Opener  navigation.Opener
	// DevServer is the proxied dev server, if any. Allowed navigations to it
	// are rewritten to the shell's own origin.
	DevServer *url.URL
	// Inspect enables the Inspect Element entry.
	Inspect  bool
	Observer Observer
}

// Surface handles the page script's requests.
type Surface struct {
	rt        Runtime
	decider   navigation.Decider
	opener    navigation.Opener
	devServer *url.URL
	inspect   bool
	observer  Observer
	log       *slog.Logger

	mu      sync.Mutex
	menuID  string
	entries []contextmenu.Entry
	offs    []func()
}

// NewSurface creates a Surface. Call Start once the runtime is bound.
func NewSurface(opts Options) *Surface {
	return &Surface{
		rt:        opts.Runtime,
		decider:   opts.Decider,
		opener:    opts.Opener,
		devServer: opts.DevServer,
		inspect:   opts.Inspect,
		observer:  opts.Observer,
		log:       logging.WithComponent("webview"),
	}
}

// ScriptConfig returns the page script settings matching this surface.
func (s *Surface) ScriptConfig() ScriptConfig {
	return ScriptConfig{Inspect: s.inspect}
}

// Start subscribes to the page script's events.
func (s *Surface) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.offs = append(s.offs,
		s.rt.EventsOn(EventNavigate, s.eventHandler(EventNavigate, func(data json.RawMessage) error {
			var req navigation.Request
			if err := json.Unmarshal(data, &req); err != nil {
				return err
			}
			s.HandleNavigation(req)
			return nil
		})),
		s.rt.EventsOn(EventNewWindow, s.eventHandler(EventNewWindow, func(data json.RawMessage) error {
			var req navigation.Request
			if err := json.Unmarshal(data, &req); err != nil {
				return err
			}
			s.HandleNewWindow(req)
			return nil
		})),
		s.rt.EventsOn(EventContextMenu, s.eventHandler(EventContextMenu, func(data json.RawMessage) error {
			var req MenuRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return err
			}
			s.HandleContextMenu(req)
			return nil
		})),
		s.rt.EventsOn(EventMenuAction, s.eventHandler(EventMenuAction, func(data json.RawMessage) error {
			var sel MenuSelection
			if err := json.Unmarshal(data, &sel); err != nil {
				return err
			}
			return s.HandleMenuAction(sel)
		})),
		s.rt.EventsOn(EventLoadFailed, s.eventHandler(EventLoadFailed, func(data json.RawMessage) error {
			var f loadFailure
			if err := json.Unmarshal(data, &f); err != nil {
				return err
			}
			s.LoadFailed(f.URL, f.Error)
			return nil
		})),
	)
	s.log.Debug("render surface started")
}

// Stop unsubscribes from the page script's events.
func (s *Surface) Stop() {
	s.mu.Lock()
	offs := s.offs
	s.offs = nil
	s.mu.Unlock()

	for _, off := range offs {
		off()
	}
}

func (s *Surface) eventHandler(name string, handle func(json.RawMessage) error) func(...interface{}) {
	return func(data ...interface{}) {
		if len(data) == 0 || data[0] == nil {
			s.log.Warn("event without payload", "event", name)
			return
		}
		raw, err := json.Marshal(data[0])
		if err != nil {
			s.log.Warn("invalid event payload", "event", name, "error", err)
			return
		}
		if err := handle(raw); err != nil {
			s.log.Warn("could not handle event", "event", name, "error", err)
		}
	}
}

// HandleNavigation asks the Decider about a navigation the page script
// held back and carries out allowed ones.
func (s *Surface) HandleNavigation(req navigation.Request) navigation.Decision {
	d := s.decider.DecideNavigation(req)
	s.notify(Event{Type: TypeNavigation, Outcome: d.Action.String(), URL: req.URL})

	if d.Action == navigation.Allow {
		s.rt.ExecJS("window.location.assign(" + jsString(s.rebase(d.URL)) + ")")
	}
	return d
}

// HandleNewWindow asks the Decider about a new window request.
func (s *Surface) HandleNewWindow(req navigation.Request) navigation.Decision {
	d := s.decider.DecideNewWindow(req)
	s.notify(Event{Type: TypeNewWindow, Outcome: d.Action.String(), URL: req.URL, Detail: string(req.Window)})

	if d.Action == navigation.ViewSource {
		s.showSource(d.URL)
	}
	return d
}

// MenuRequest is sent by the page script on right click.
type MenuRequest struct {
	Caps contextmenu.Caps `json:"caps"`
	X    int              `json:"x"`
	Y    int              `json:"y"`
}

// Menu is sent back to the page script for rendering.
type Menu struct {
	ID      string              `json:"id"`
	X       int                 `json:"x"`
	Y       int                 `json:"y"`
	Entries []contextmenu.Entry `json:"entries"`
}

// MenuSelection is sent by the page script when an entry is chosen.
type MenuSelection struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
}

// HandleContextMenu builds and shows the menu for req. It returns false when
// the menu would be empty; nothing is shown then.
func (s *Surface) HandleContextMenu(req MenuRequest) bool {
	caps := req.Caps
	caps.CanInspect = s.inspect

	entries := contextmenu.Build(caps)
	if len(entries) == 0 {
		s.mu.Lock()
		s.menuID, s.entries = "", nil
		s.mu.Unlock()

		s.notify(Event{Type: TypeContextMenu, Outcome: "default"})
		return false
	}

	menu := Menu{ID: uuid.NewString(), X: req.X, Y: req.Y, Entries: entries}

	s.mu.Lock()
	s.menuID, s.entries = menu.ID, entries
	s.mu.Unlock()

	s.notify(Event{Type: TypeContextMenu, Outcome: "shown", Detail: fmt.Sprintf("%d entries", len(entries))})
	s.rt.EventsEmit(EventShowMenu, menu)
	return true
}

// HandleMenuAction runs the entry chosen from the current menu. Each menu
// can be used once.
func (s *Surface) HandleMenuAction(sel MenuSelection) error {
	s.mu.Lock()
	if sel.ID == "" || sel.ID != s.menuID {
		s.mu.Unlock()
		return fmt.Errorf("unknown menu %q", sel.ID)
	}
	entries := s.entries
	s.menuID, s.entries = "", nil
	s.mu.Unlock()

	if sel.Index < 0 || sel.Index >= len(entries) {
		return fmt.Errorf("menu entry %d out of range", sel.Index)
	}
	entry := entries[sel.Index]
	if entry.IsSeparator() || !entry.Enabled {
		return fmt.Errorf("menu entry %d is not selectable", sel.Index)
	}

	s.notify(Event{Type: TypeMenuAction, Outcome: string(entry.Action), Detail: entry.Arg})
	return s.run(entry)
}

func (s *Surface) run(entry contextmenu.Entry) error {
	switch entry.Action {
	case contextmenu.ActionBack:
		s.rt.ExecJS("window.history.back()")
	case contextmenu.ActionForward:
		s.rt.ExecJS("window.history.forward()")
	case contextmenu.ActionReload:
		s.rt.Reload()
	case contextmenu.ActionOpenExternal:
		if s.opener == nil {
			return fmt.Errorf("no opener for %s", entry.Arg)
		}
		s.log.Info("opening link externally", "url", entry.Arg)
		return s.opener.Open(entry.Arg)
	case contextmenu.ActionCopy:
		return s.rt.ClipboardSetText(entry.Arg)
	case contextmenu.ActionViewSource:
		s.showSource("")
	case contextmenu.ActionInspect:
		s.rt.ExecJS("window.__taqyon && window.__taqyon.inspect()")
	default:
		return fmt.Errorf("unknown menu action %q", entry.Action)
	}
	return nil
}

type loadFailure struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// LoadFailed records a page or resource that could not be loaded. The
// surface keeps running; there is no retry.
func (s *Surface) LoadFailed(target, reason string) {
	s.log.Error("page load failed", "url", target, "error", reason)
	s.notify(Event{Type: TypeLoadFailed, URL: target, Detail: reason})
}

// ReloadFrontend reloads the page after the local frontend changed.
func (s *Surface) ReloadFrontend(changed string) {
	s.log.Info("frontend changed, reloading", "path", changed)
	s.notify(Event{Type: TypeReload, Detail: changed})
	s.rt.Reload()
}

func (s *Surface) showSource(target string) {
	if target == "" {
		s.rt.ExecJS("window.__taqyon && window.__taqyon.viewSource()")
		return
	}
	s.rt.ExecJS("window.__taqyon && window.__taqyon.viewSource(" + jsString(s.rebase(target)) + ")")
}

// rebase maps dev server URLs onto the shell's own origin, where the asset
// server proxies them.
func (s *Surface) rebase(target string) string {
	if s.devServer == nil {
		return target
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != s.devServer.Scheme || u.Host != s.devServer.Host {
		return target
	}
	rel := &url.URL{Path: u.Path, RawPath: u.RawPath, RawQuery: u.RawQuery, Fragment: u.Fragment}
	if rel.Path == "" {
		rel.Path = "/"
	}
	return rel.String()
}

func (s *Surface) notify(e Event) {
	if s.observer != nil {
		s.observer(e)
	}
}

func jsString(v string) string {
	data, _ := json.Marshal(v)
	return string(data)
}
