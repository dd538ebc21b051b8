package shell

import (
	"context"
	"sync"

	"github.com/rennerdo30/taqyon/internal/tray"
)

type dialog struct {
	title   string
	message string
}

type mockWindow struct {
	mu        sync.Mutex
	bound     bool
	shown     int
	hidden    int
	quit      int
	reloads   int
	dialogs   []dialog
	emitted   map[string][]interface{}
	scripts   []string
	listeners map[string]func(...interface{})
}

func newMockWindow() *mockWindow {
	return &mockWindow{
		emitted:   make(map[string][]interface{}),
		listeners: make(map[string]func(...interface{})),
	}
}

func (m *mockWindow) Bind(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bound = true
}

func (m *mockWindow) Show() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shown++
}

func (m *mockWindow) Hide() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hidden++
}

func (m *mockWindow) Quit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quit++
}

func (m *mockWindow) MessageDialog(title, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialogs = append(m.dialogs, dialog{title: title, message: message})
	return nil
}

func (m *mockWindow) EventsOn(name string, callback func(data ...interface{})) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners[name] = callback
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, name)
	}
}

func (m *mockWindow) EventsEmit(name string, data ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitted[name] = append(m.emitted[name], data...)
}

func (m *mockWindow) ExecJS(js string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts = append(m.scripts, js)
}

func (m *mockWindow) Reload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reloads++
}

func (m *mockWindow) ClipboardSetText(text string) error {
	return nil
}

func (m *mockWindow) fire(name string, payload interface{}) bool {
	m.mu.Lock()
	cb, ok := m.listeners[name]
	m.mu.Unlock()
	if ok {
		cb(payload)
	}
	return ok
}

func (m *mockWindow) counts() (shown, hidden, quit int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shown, m.hidden, m.quit
}

func (m *mockWindow) events(name string) []interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]interface{}(nil), m.emitted[name]...)
}

var _ Window = (*mockWindow)(nil)

type mockMenuItem struct {
	title   string
	clicked chan struct{}
}

func (m *mockMenuItem) SetTitle(title string)     { m.title = title }
func (m *mockMenuItem) SetTooltip(tooltip string) {}
func (m *mockMenuItem) Enable()                   {}
func (m *mockMenuItem) Disable()                  {}
func (m *mockMenuItem) Show()                     {}
func (m *mockMenuItem) Hide()                     {}
func (m *mockMenuItem) Clicked() <-chan struct{}  { return m.clicked }

type mockTray struct {
	mu      sync.Mutex
	items   map[string]*mockMenuItem
	tapped  func()
	tooltip string
	started bool
	ended   bool
}

func newMockTray() *mockTray {
	return &mockTray{items: make(map[string]*mockMenuItem)}
}

func (m *mockTray) RunWithExternalLoop(onReady func(), onExit func()) (start, end func()) {
	start = func() {
		m.mu.Lock()
		m.started = true
		m.mu.Unlock()
		onReady()
	}
	end = func() {
		m.mu.Lock()
		m.ended = true
		m.mu.Unlock()
		onExit()
	}
	return start, end
}

func (m *mockTray) SetIcon(iconBytes []byte) {}
func (m *mockTray) SetTitle(title string)    {}

func (m *mockTray) SetTooltip(tooltip string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tooltip = tooltip
}

func (m *mockTray) currentTooltip() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tooltip
}

func (m *mockTray) SetOnTapped(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tapped = fn
}

func (m *mockTray) AddMenuItem(title string, tooltip string) tray.MenuItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := &mockMenuItem{title: title, clicked: make(chan struct{}, 1)}
	m.items[title] = item
	return item
}

func (m *mockTray) AddSeparator() {}

func (m *mockTray) click(title string) {
	m.mu.Lock()
	item := m.items[title]
	m.mu.Unlock()
	item.clicked <- struct{}{}
}

func (m *mockTray) tap() {
	m.mu.Lock()
	fn := m.tapped
	m.mu.Unlock()
	fn()
}

var _ tray.SystrayAdapter = (*mockTray)(nil)
