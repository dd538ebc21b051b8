package shell

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wailsapp/wails/v2/pkg/menu"

	"github.com/rennerdo30/taqyon/internal/bridge"
	"github.com/rennerdo30/taqyon/internal/config"
	"github.com/rennerdo30/taqyon/internal/frontend"
	"github.com/rennerdo30/taqyon/internal/journal"
	"github.com/rennerdo30/taqyon/internal/navigation"
	"github.com/rennerdo30/taqyon/internal/tray"
	"github.com/rennerdo30/taqyon/internal/util"
	"github.com/rennerdo30/taqyon/internal/version"
	"github.com/rennerdo30/taqyon/internal/webview"
)

type opened struct {
	mu   sync.Mutex
	urls []string
}

func (o *opened) Open(rawURL string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, rawURL)
	return nil
}

func (o *opened) list() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.urls...)
}

type harness struct {
	app    *App
	window *mockWindow
	tray   *mockTray
	opener *opened
}

func localFrontend(t *testing.T) *url.URL {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, frontend.EntryFile), []byte("<html></html>"), 0644))
	return frontend.FileURL(filepath.Join(dir, frontend.EntryFile))
}

func newHarness(t *testing.T, mutate func(*config.ShellConfig), frontendURL *url.URL) *harness {
	t.Helper()
	cfg := config.DefaultShellConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	if frontendURL == nil {
		frontendURL = localFrontend(t)
	}

	h := &harness{
		window: newMockWindow(),
		tray:   newMockTray(),
		opener: &opened{},
	}
	app, err := New(Options{
		Config:      cfg,
		FrontendURL: frontendURL,
		Window:      h.window,
		Opener:      h.opener,
		TrayAdapter: h.tray,
	})
	require.NoError(t, err)
	h.app = app
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	h.app.Startup(context.Background())
	t.Cleanup(func() { h.app.Shutdown(context.Background()) })
}

func journalTypes(j *journal.Journal, source journal.Source) []string {
	var types []string
	for _, e := range j.GetAll() {
		if e.Source == source {
			types = append(types, e.Type)
		}
	}
	return types
}

func TestNew_RequiresFrontendURL(t *testing.T) {
	_, err := New(Options{Config: config.DefaultShellConfig()})
	require.Error(t, err)
	assert.ErrorIs(t, err, frontend.ErrConfiguration)
}

func TestNew_RejectsPublicDiagnostics(t *testing.T) {
	cfg := config.DefaultShellConfig()
	cfg.Diagnostics.Enabled = true
	cfg.Diagnostics.Listen = "0.0.0.0:9477"

	_, err := New(Options{Config: cfg, FrontendURL: localFrontend(t), Window: newMockWindow(), TrayAdapter: newMockTray()})
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrInvalidConfig)
}

func TestApp_StartupBindsWindowAndSurface(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.start(t)

	assert.True(t, h.window.bound)
	require.True(t, h.window.fire(webview.EventNavigate, map[string]interface{}{
		"url": "https://example.com/docs", "topLevel": true, "userClick": true,
	}))

	assert.Equal(t, []string{"https://example.com/docs"}, h.opener.list())
	assert.Contains(t, journalTypes(h.app.Journal(), journal.SourceSurface), webview.TypeNavigation)
	assert.Equal(t, float64(1), testutil.ToFloat64(
		h.app.Metrics().NavigationDecisions.WithLabelValues(webview.TypeNavigation, navigation.Intercept.String())))
}

func TestApp_InAppHostsStayInWindow(t *testing.T) {
	h := newHarness(t, func(c *config.ShellConfig) {
		c.Navigation.InAppHosts = []string{".docs.example.com"}
	}, nil)
	h.start(t)

	require.True(t, h.window.fire(webview.EventNavigate, map[string]interface{}{
		"url": "https://docs.example.com/guide", "topLevel": true, "userClick": true,
	}))

	assert.Empty(t, h.opener.list())
	assert.Equal(t, float64(1), testutil.ToFloat64(
		h.app.Metrics().NavigationDecisions.WithLabelValues(webview.TypeNavigation, navigation.Allow.String())))
}

func TestNew_RejectsInvalidInAppHosts(t *testing.T) {
	cfg := config.DefaultShellConfig()
	cfg.Navigation.InAppHosts = []string{"*"}

	_, err := New(Options{Config: cfg, FrontendURL: localFrontend(t), Window: newMockWindow(), TrayAdapter: newMockTray()})
	require.Error(t, err)
	assert.ErrorIs(t, err, frontend.ErrConfiguration)
	assert.ErrorIs(t, err, navigation.ErrInvalidHostPattern)
}

func TestApp_ShutdownUnsubscribesSurface(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.app.Startup(context.Background())
	h.app.Shutdown(context.Background())

	assert.False(t, h.window.fire(webview.EventNavigate, map[string]interface{}{"url": "https://example.com"}))
	assert.True(t, h.tray.ended)
}

func TestApp_CloseToTray(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.start(t)

	assert.True(t, h.app.BeforeClose(context.Background()), "close is cancelled")
	_, hidden, _ := h.window.counts()
	assert.Equal(t, 1, hidden)
	assert.False(t, h.app.State().Visible)

	h.app.Quit()
	assert.False(t, h.app.BeforeClose(context.Background()), "close proceeds after quit")
	_, hidden, quit := h.window.counts()
	assert.Equal(t, 1, hidden)
	assert.Equal(t, 1, quit)

	assert.Equal(t,
		[]string{WindowHidden, WindowQuit, WindowClosed},
		journalTypes(h.app.Journal(), journal.SourceWindow))
}

func TestApp_CloseTerminatesWithoutTray(t *testing.T) {
	h := newHarness(t, func(c *config.ShellConfig) { c.Tray.Enabled = false }, nil)
	h.start(t)

	assert.False(t, h.app.BeforeClose(context.Background()))
	_, hidden, _ := h.window.counts()
	assert.Zero(t, hidden)
	assert.False(t, h.tray.started)
	assert.False(t, h.app.State().Tray)
}

func TestApp_CloseTerminatesWhenCloseToTrayOff(t *testing.T) {
	h := newHarness(t, func(c *config.ShellConfig) { c.Tray.CloseToTray = false }, nil)
	h.start(t)

	assert.False(t, h.app.BeforeClose(context.Background()))
	assert.True(t, h.tray.started)
}

func TestApp_TrayShowAndQuit(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.start(t)
	require.True(t, h.tray.started)
	assert.Equal(t, version.AppName, h.tray.currentTooltip())

	h.app.BeforeClose(context.Background())
	assert.Equal(t, version.AppName+HiddenTooltipSuffix, h.tray.currentTooltip())

	h.tray.tap()
	shown, _, _ := h.window.counts()
	assert.Equal(t, 1, shown)
	assert.True(t, h.app.State().Visible)
	assert.Equal(t, version.AppName, h.tray.currentTooltip())

	h.tray.click(tray.LabelShow)
	require.Eventually(t, func() bool {
		shown, _, _ := h.window.counts()
		return shown == 2
	}, time.Second, 5*time.Millisecond)

	h.tray.click(tray.LabelQuit)
	require.Eventually(t, func() bool {
		_, _, quit := h.window.counts()
		return quit == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, h.app.State().Quitting)
}

func TestApp_BridgeNotifications(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.start(t)

	ch := h.app.Channel()
	ch.SetCount(3)
	ch.SetCount(3)
	ch.IncrementCount()
	ch.SetMessage("hi")
	ch.SendToBackend("ping")

	assert.Equal(t, []interface{}{int64(3), int64(4)}, h.window.events(bridge.EventCountChanged))
	assert.Equal(t, []interface{}{"hi"}, h.window.events(bridge.EventMessageChanged))
	assert.Equal(t, []interface{}{bridge.ReplyPrefix + "ping"}, h.window.events(bridge.EventSendToFrontend))

	m := h.app.Metrics()
	assert.Equal(t, float64(4), testutil.ToFloat64(m.BridgeCount))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.BridgeNotifications.WithLabelValues(bridge.EventCountChanged)))

	assert.Equal(t, []string{
		bridge.EventCountChanged,
		bridge.EventCountChanged,
		bridge.EventMessageChanged,
		bridge.EventSendToFrontend,
	}, journalTypes(h.app.Journal(), journal.SourceBridge))

	state := h.app.State()
	assert.Equal(t, "hi", state.Message)
	assert.Equal(t, int64(4), state.Count)
}

func TestApp_About(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.app.About()

	require.Len(t, h.window.dialogs, 1)
	assert.Equal(t, "About "+version.AppName, h.window.dialogs[0].title)
	assert.Equal(t, version.About(), h.window.dialogs[0].message)
}

func TestApp_WatchReloadsOnChange(t *testing.T) {
	u := localFrontend(t)
	h := newHarness(t, func(c *config.ShellConfig) {
		c.Frontend.Watch = true
		c.Frontend.WatchDebounce = config.Duration(20 * time.Millisecond)
	}, u)
	h.start(t)

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(frontend.LocalDir(u), "app.js"), []byte("1"), 0644))

	require.Eventually(t, func() bool {
		h.window.mu.Lock()
		defer h.window.mu.Unlock()
		return h.window.reloads >= 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, journalTypes(h.app.Journal(), journal.SourceSurface), webview.TypeReload)
}

func TestApp_DiagnosticsReceivesEvents(t *testing.T) {
	h := newHarness(t, func(c *config.ShellConfig) {
		c.Diagnostics.Enabled = true
		c.Diagnostics.Listen = "127.0.0.1:19478"
	}, nil)
	require.NotNil(t, h.app.Diagnostics())

	h.app.Channel().SetMessage("diag")
	entries := h.app.Diagnostics().Journal().GetLast(1)
	require.Len(t, entries, 1)
	assert.Equal(t, "diag", entries[0].Detail)
}

func TestMenu(t *testing.T) {
	h := newHarness(t, nil, nil)

	labels := func(m *menu.Menu) []string {
		var out []string
		for _, item := range m.Items {
			out = append(out, item.Label)
		}
		return out
	}

	linux := h.app.buildMenu("linux")
	require.Len(t, linux.Items, 3)
	assert.Equal(t, MenuFile, linux.Items[0].Label)
	assert.Equal(t, menu.Role(menu.EditMenuRole), linux.Items[1].Role)
	assert.Equal(t, MenuHelp, linux.Items[2].Label)

	darwin := h.app.buildMenu("darwin")
	require.Len(t, darwin.Items, 4, labels(darwin))
	assert.Equal(t, version.AppName, darwin.Items[0].Label)
	assert.Equal(t, menu.Role(menu.EditMenuRole), darwin.Items[1].Role)
	assert.Equal(t, menu.Role(menu.WindowMenuRole), darwin.Items[2].Role)
	assert.Equal(t, MenuHelp, darwin.Items[3].Label)

	help := linux.Items[2].SubMenu
	require.Len(t, help.Items, 1)
	assert.Equal(t, MenuAbout, help.Items[0].Label)
	help.Items[0].Click(&menu.CallbackData{MenuItem: help.Items[0]})
	require.Len(t, h.window.dialogs, 1)

	file := linux.Items[0].SubMenu
	file.Items[0].Click(&menu.CallbackData{MenuItem: file.Items[0]})
	_, _, quit := h.window.counts()
	assert.Equal(t, 1, quit)
}

func TestWailsOptions(t *testing.T) {
	h := newHarness(t, func(c *config.ShellConfig) { c.DevTools = true }, nil)

	opts, err := h.app.WailsOptions()
	require.NoError(t, err)

	assert.Equal(t, version.AppName, opts.Title)
	assert.Equal(t, 1200, opts.Width)
	assert.Equal(t, 800, opts.Height)
	require.NotNil(t, opts.AssetServer)
	assert.NotNil(t, opts.AssetServer.Assets)
	assert.NotNil(t, opts.AssetServer.Middleware)
	assert.Equal(t, []interface{}{h.app.Channel()}, opts.Bind)
	assert.True(t, opts.Debug.OpenInspectorOnStartup)
	require.NotNil(t, opts.Linux)
	assert.NotEmpty(t, opts.Linux.Icon)
	assert.NotNil(t, opts.OnBeforeClose)
}

func TestWailsOptions_DevServer(t *testing.T) {
	dev, err := url.Parse("http://localhost:3000")
	require.NoError(t, err)
	h := newHarness(t, nil, dev)

	opts, err := h.app.WailsOptions()
	require.NoError(t, err)
	assert.Nil(t, opts.AssetServer.Assets)
	assert.NotNil(t, opts.AssetServer.Handler)

	// Links to the dev server stay inside the window.
	h.start(t)
	h.window.fire(webview.EventNavigate, map[string]interface{}{
		"url": "http://localhost:3000/about", "topLevel": true, "userClick": true,
	})
	assert.Empty(t, h.opener.list())
}
