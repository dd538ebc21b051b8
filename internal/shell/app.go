// Package shell hosts the web frontend in the application window and owns
// the window lifecycle: the menu bar, the tray icon and close-to-tray.
package shell

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rennerdo30/taqyon/internal/bridge"
	"github.com/rennerdo30/taqyon/internal/config"
	"github.com/rennerdo30/taqyon/internal/diagnostics"
	"github.com/rennerdo30/taqyon/internal/frontend"
	"github.com/rennerdo30/taqyon/internal/journal"
	"github.com/rennerdo30/taqyon/internal/logging"
	"github.com/rennerdo30/taqyon/internal/metrics"
	"github.com/rennerdo30/taqyon/internal/navigation"
	"github.com/rennerdo30/taqyon/internal/tray"
	"github.com/rennerdo30/taqyon/internal/util"
	"github.com/rennerdo30/taqyon/internal/version"
	"github.com/rennerdo30/taqyon/internal/webview"
)

// HiddenTooltipSuffix is appended to the tray tooltip while the window is
// hidden.
const HiddenTooltipSuffix = " (hidden)"

// Window events recorded in the journal and metrics.
const (
	WindowDomReady = "domready"
	WindowShown    = "shown"
	WindowHidden   = "hidden"
	WindowClosed   = "closed"
	WindowQuit     = "quit"
)

// Window is the native window as the shell drives it.
type Window interface {
	webview.Runtime
	Bind(ctx context.Context)
	Show()
	Hide()
	Quit()
	MessageDialog(title, message string) error
}

// Options configures an App.
type Options struct {
	Config      config.ShellConfig
	FrontendURL *url.URL
	Backend     *bridge.Backend

	// Window defaults to a WailsRuntime.
	Window Window
	// Opener defaults to the OS URL handler.
	Opener navigation.Opener
	// TrayAdapter defaults to the platform system tray.
	TrayAdapter tray.SystrayAdapter
}

// App is the shell window.
type App struct {
	cfg         config.ShellConfig
	frontendURL *url.URL
	backend     *bridge.Backend
	channel     *bridge.Channel
	window      Window
	surface     *webview.Surface
	tray        *tray.Tray
	journal     *journal.Journal
	metrics     *metrics.Metrics
	collector   *metrics.Collector
	diagnostics *diagnostics.Server
	log         *slog.Logger

	closeToTray bool
	quitting    atomic.Bool
	visible     atomic.Bool
	startTime   time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New builds the shell for the resolved frontend URL.
func New(opts Options) (*App, error) {
	if opts.FrontendURL == nil {
		return nil, fmt.Errorf("%w: no frontend url", frontend.ErrConfiguration)
	}
	if opts.Backend == nil {
		opts.Backend = bridge.NewBackend()
	}
	if opts.Window == nil {
		opts.Window = webview.NewWailsRuntime()
	}
	if opts.Opener == nil {
		opts.Opener = navigation.OpenerFunc(util.OpenURL)
	}

	cfg := opts.Config
	a := &App{
		cfg:         cfg,
		frontendURL: opts.FrontendURL,
		backend:     opts.Backend,
		window:      opts.Window,
		journal:     journal.New(cfg.Diagnostics.JournalSize),
		metrics:     metrics.New(),
		log:         logging.WithComponent("shell"),
		closeToTray: cfg.Tray.Enabled && cfg.Tray.CloseToTray,
		startTime:   time.Now(),
	}
	a.collector = metrics.NewCollector(a.metrics)
	a.visible.Store(true)

	if cfg.Diagnostics.Enabled {
		srv, err := diagnostics.New(diagnostics.Config{
			Listen:  cfg.Diagnostics.Listen,
			Metrics: a.metrics,
			Journal: a.journal,
			State:   func() interface{} { return a.State() },
		})
		if err != nil {
			return nil, err
		}
		a.diagnostics = srv
	}

	var devServer *url.URL
	var internal []string
	if !frontend.IsLocal(opts.FrontendURL) {
		devServer = opts.FrontendURL
		internal = append(internal, opts.FrontendURL.String())
	}
	policy := navigation.NewPolicy(opts.Opener, internal...)
	if len(cfg.Navigation.InAppHosts) > 0 {
		hosts, err := navigation.NewHostPatterns(cfg.Navigation.InAppHosts)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", frontend.ErrConfiguration, err)
		}
		policy.SetInAppHosts(hosts)
	}
	a.surface = webview.NewSurface(webview.Options{
		Runtime:   a.window,
		Decider:   policy,
		Opener:    opts.Opener,
		DevServer: devServer,
		Inspect:   cfg.DevTools,
		Observer:  a.observeSurface,
	})

	if cfg.Tray.Enabled {
		trayCfg := tray.Config{
			Tooltip: cfg.Tray.Tooltip,
			OnShow:  a.Show,
			OnQuit:  a.Quit,
		}
		if opts.TrayAdapter != nil {
			a.tray = tray.NewWithAdapter(trayCfg, opts.TrayAdapter)
		} else {
			a.tray = tray.New(trayCfg)
		}
	}

	a.channel = bridge.NewChannel(a.backend, a.window)
	a.observeBridge()

	return a, nil
}

// Channel returns the object bound into the page.
func (a *App) Channel() *bridge.Channel {
	return a.channel
}

// Surface returns the render surface.
func (a *App) Surface() *webview.Surface {
	return a.surface
}

// Journal returns the event journal.
func (a *App) Journal() *journal.Journal {
	return a.journal
}

// Metrics returns the shell metrics.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Diagnostics returns the diagnostics server, or nil when disabled.
func (a *App) Diagnostics() *diagnostics.Server {
	return a.diagnostics
}

// Startup is called once the window exists.
func (a *App) Startup(ctx context.Context) {
	a.window.Bind(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()

	a.surface.Start()
	a.collector.Start()

	if a.tray != nil {
		a.tray.Start()
	}

	if a.cfg.Frontend.Watch {
		a.startWatcher(runCtx)
	}

	if a.diagnostics != nil {
		if err := a.diagnostics.Start(runCtx); err != nil {
			a.log.Warn("diagnostics server not started", "error", err)
		}
	}

	a.log.Info("shell started",
		"frontend", a.frontendURL.String(),
		"tray", a.tray != nil,
		"close_to_tray", a.closeToTray,
	)
}

func (a *App) startWatcher(ctx context.Context) {
	if !frontend.IsLocal(a.frontendURL) {
		a.log.Info("watch ignored for a dev server frontend", "url", a.frontendURL.String())
		return
	}

	w := frontend.NewWatcher(frontend.LocalDir(a.frontendURL), a.cfg.Frontend.WatchDebounce.Duration(), a.surface.ReloadFrontend)
	go func() {
		if err := w.Run(ctx); err != nil {
			a.log.Warn("frontend watcher stopped", "error", err)
		}
	}()
}

// DomReady is called when the page finished loading.
func (a *App) DomReady(ctx context.Context) {
	a.windowEvent(WindowDomReady)
}

// BeforeClose decides what closing the window does. With close-to-tray the
// window is hidden and true cancels the close.
func (a *App) BeforeClose(ctx context.Context) bool {
	if a.quitting.Load() || !a.closeToTray {
		a.windowEvent(WindowClosed)
		return false
	}

	a.window.Hide()
	a.visible.Store(false)
	a.setTrayTooltip(a.cfg.Tray.Tooltip + HiddenTooltipSuffix)
	a.windowEvent(WindowHidden)
	return true
}

// Shutdown releases everything Startup acquired.
func (a *App) Shutdown(ctx context.Context) {
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	a.surface.Stop()
	if a.tray != nil {
		a.tray.Stop()
	}
	a.collector.Stop()

	if a.diagnostics != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := a.diagnostics.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("diagnostics shutdown", "error", err)
		}
	}

	a.log.Info("shell stopped", "uptime", time.Since(a.startTime).Round(time.Second).String())
}

// Show restores and focuses the window.
func (a *App) Show() {
	a.window.Show()
	a.visible.Store(true)
	a.setTrayTooltip(a.cfg.Tray.Tooltip)
	a.windowEvent(WindowShown)
}

func (a *App) setTrayTooltip(tooltip string) {
	if a.tray != nil {
		a.tray.SetTooltip(tooltip)
	}
}

// Quit terminates the application.
func (a *App) Quit() {
	a.quitting.Store(true)
	a.windowEvent(WindowQuit)
	a.window.Quit()
}

// About shows the About dialog.
func (a *App) About() {
	if err := a.window.MessageDialog("About "+a.cfg.Window.Title, version.About()); err != nil {
		a.log.Warn("about dialog failed", "error", err)
	}
}

// State is the shell state reported by the diagnostics server.
type State struct {
	Message     string `json:"message"`
	Count       int64  `json:"count"`
	Frontend    string `json:"frontend"`
	Visible     bool   `json:"visible"`
	Quitting    bool   `json:"quitting"`
	Tray        bool   `json:"tray"`
	CloseToTray bool   `json:"close_to_tray"`
	Uptime      string `json:"uptime"`
}

// State returns a snapshot of the shell state.
func (a *App) State() State {
	snap := a.backend.Snapshot()
	return State{
		Message:     snap.Message,
		Count:       snap.Count,
		Frontend:    a.frontendURL.String(),
		Visible:     a.visible.Load(),
		Quitting:    a.quitting.Load(),
		Tray:        a.tray != nil,
		CloseToTray: a.closeToTray,
		Uptime:      time.Since(a.startTime).Round(time.Second).String(),
	}
}

func (a *App) observeSurface(e webview.Event) {
	a.collector.RecordSurfaceEvent(e)
	a.record(journal.Entry{
		Source:  journal.SourceSurface,
		Type:    e.Type,
		Outcome: e.Outcome,
		URL:     e.URL,
		Detail:  e.Detail,
	})
}

func (a *App) observeBridge() {
	a.backend.OnMessageChanged(func(message string) {
		a.collector.RecordBridgeNotification(bridge.EventMessageChanged)
		a.record(journal.Entry{Source: journal.SourceBridge, Type: bridge.EventMessageChanged, Detail: message})
	})
	a.backend.OnCountChanged(func(count int64) {
		a.collector.RecordBridgeNotification(bridge.EventCountChanged)
		a.collector.RecordCount(count)
		a.record(journal.Entry{Source: journal.SourceBridge, Type: bridge.EventCountChanged, Detail: strconv.FormatInt(count, 10)})
	})
	a.backend.OnSendToFrontend(func(reply string) {
		a.collector.RecordBridgeNotification(bridge.EventSendToFrontend)
		a.record(journal.Entry{Source: journal.SourceBridge, Type: bridge.EventSendToFrontend, Detail: reply})
	})
}

func (a *App) windowEvent(event string) {
	a.log.Debug("window event", "event", event)
	a.collector.RecordWindowEvent(event)
	a.record(journal.Entry{Source: journal.SourceWindow, Type: event})
}

func (a *App) record(entry journal.Entry) {
	if a.diagnostics != nil {
		a.diagnostics.Publish(entry)
		return
	}
	a.journal.Record(entry)
}
