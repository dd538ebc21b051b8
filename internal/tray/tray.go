// Package tray provides the shell's system tray icon.
package tray

import (
	"sync"

	"github.com/rennerdo30/taqyon/internal/logging"
)

// Menu labels.
const (
	LabelShow = "Show"
	LabelQuit = "Quit"
)

// MenuItem represents a menu item interface for abstraction.
type MenuItem interface {
	SetTitle(title string)
	SetTooltip(tooltip string)
	Enable()
	Disable()
	Show()
	Hide()
	Clicked() <-chan struct{}
}

// SystrayAdapter provides an interface for systray operations.
// This allows mocking the systray package for testing.
type SystrayAdapter interface {
	RunWithExternalLoop(onReady func(), onExit func()) (start, end func())
	SetIcon(iconBytes []byte)
	SetTitle(title string)
	SetTooltip(tooltip string)
	SetOnTapped(fn func())
	AddMenuItem(title string, tooltip string) MenuItem
	AddSeparator()
}

// Config holds tray configuration.
type Config struct {
	// Title is shown next to the icon where the platform supports it.
	Title   string
	Tooltip string
	// Icon is PNG data; AppIcon() when empty.
	Icon   []byte
	OnShow func()
	OnQuit func()
}

// Tray shows the application icon with a Show/Quit menu. Clicking the icon
// does the same as Show.
type Tray struct {
	cfg     Config
	adapter SystrayAdapter

	mu      sync.Mutex
	started bool
	end     func()
	done    chan struct{}
	stop    sync.Once
}

// New creates a new system tray.
func New(cfg Config) *Tray {
	return NewWithAdapter(cfg, defaultAdapter)
}

// NewWithAdapter creates a new system tray with a custom adapter (for testing).
func NewWithAdapter(cfg Config, adapter SystrayAdapter) *Tray {
	if len(cfg.Icon) == 0 {
		cfg.Icon = AppIcon()
	}
	return &Tray{
		cfg:     cfg,
		adapter: adapter,
		done:    make(chan struct{}),
	}
}

// Start shows the icon. The tray runs alongside the window's event loop, so
// Start does not block.
func (t *Tray) Start() {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return
	}
	t.started = true
	start, end := t.adapter.RunWithExternalLoop(t.onReady, t.onExit)
	t.end = end
	t.mu.Unlock()

	start()
}

// Stop removes the icon. It is safe to call more than once.
func (t *Tray) Stop() {
	t.stop.Do(func() {
		close(t.done)

		t.mu.Lock()
		end := t.end
		t.mu.Unlock()

		if end != nil {
			end()
		}
	})
}

// SetTooltip updates the tray tooltip.
func (t *Tray) SetTooltip(tooltip string) {
	t.adapter.SetTooltip(tooltip)
}

func (t *Tray) onReady() {
	t.adapter.SetIcon(t.cfg.Icon)
	if t.cfg.Title != "" {
		t.adapter.SetTitle(t.cfg.Title)
	}
	t.adapter.SetTooltip(t.cfg.Tooltip)
	t.adapter.SetOnTapped(t.show)

	mShow := t.adapter.AddMenuItem(LabelShow, "Show the main window")
	t.adapter.AddSeparator()
	mQuit := t.adapter.AddMenuItem(LabelQuit, "Quit the application")

	// Handle menu clicks
	go func() {
		for {
			select {
			case <-mShow.Clicked():
				t.show()

			case <-mQuit.Clicked():
				logging.WithComponent("tray").Info("quit requested from tray")
				if t.cfg.OnQuit != nil {
					t.cfg.OnQuit()
				}
				return

			case <-t.done:
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	logging.WithComponent("tray").Debug("tray exited")
}

func (t *Tray) show() {
	if t.cfg.OnShow != nil {
		t.cfg.OnShow()
	}
}
