package webview

import (
	"sync"

	"github.com/rennerdo30/taqyon/internal/navigation"
)

type emittedEvent struct {
	name string
	data []interface{}
}

// mockRuntime records everything the surface asks of the web view.
type mockRuntime struct {
	mu        sync.Mutex
	handlers  map[string]func(...interface{})
	emitted   []emittedEvent
	scripts   []string
	reloads   int
	clipboard []string
	clipErr   error
	offCalls  int
}

func newMockRuntime() *mockRuntime {
	return &mockRuntime{handlers: make(map[string]func(...interface{}))}
}

func (m *mockRuntime) EventsOn(name string, callback func(data ...interface{})) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[name] = callback
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers, name)
		m.offCalls++
	}
}

func (m *mockRuntime) EventsEmit(name string, data ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitted = append(m.emitted, emittedEvent{name: name, data: data})
}

func (m *mockRuntime) ExecJS(js string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts = append(m.scripts, js)
}

func (m *mockRuntime) Reload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reloads++
}

func (m *mockRuntime) ClipboardSetText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clipboard = append(m.clipboard, text)
	return m.clipErr
}

// fire delivers a payload the way the Wails runtime does: decoded JSON.
func (m *mockRuntime) fire(name string, payload interface{}) bool {
	m.mu.Lock()
	h, ok := m.handlers[name]
	m.mu.Unlock()
	if ok {
		h(payload)
	}
	return ok
}

type recordingOpener struct {
	mu     sync.Mutex
	opened []string
}

func (o *recordingOpener) Open(rawURL string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, rawURL)
	return nil
}

var _ navigation.Opener = (*recordingOpener)(nil)
var _ Runtime = (*mockRuntime)(nil)
var _ Runtime = (*WailsRuntime)(nil)
