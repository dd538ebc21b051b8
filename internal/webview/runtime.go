package webview

import (
	"context"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/rennerdo30/taqyon/internal/util"
)

// Runtime is the part of the web view the surface drives.
type Runtime interface {
	EventsOn(name string, callback func(data ...interface{})) func()
	EventsEmit(name string, data ...interface{})
	ExecJS(js string)
	Reload()
	ClipboardSetText(text string) error
}

// WailsRuntime forwards to the Wails runtime once the application context
// is known. Calls made before Bind are dropped.
type WailsRuntime struct {
	mu  sync.RWMutex
	ctx context.Context
}

// NewWailsRuntime returns an unbound runtime.
func NewWailsRuntime() *WailsRuntime {
	return &WailsRuntime{}
}

// Bind stores the context Wails passes to OnStartup.
func (r *WailsRuntime) Bind(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctx = ctx
}

// Bound reports whether Bind was called.
func (r *WailsRuntime) Bound() bool {
	_, ok := r.context()
	return ok
}

func (r *WailsRuntime) context() (context.Context, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ctx, r.ctx != nil
}

func (r *WailsRuntime) EventsOn(name string, callback func(data ...interface{})) func() {
	ctx, ok := r.context()
	if !ok {
		return func() {}
	}
	return runtime.EventsOn(ctx, name, callback)
}

func (r *WailsRuntime) EventsEmit(name string, data ...interface{}) {
	if ctx, ok := r.context(); ok {
		runtime.EventsEmit(ctx, name, data...)
	}
}

func (r *WailsRuntime) ExecJS(js string) {
	if ctx, ok := r.context(); ok {
		runtime.WindowExecJS(ctx, js)
	}
}

func (r *WailsRuntime) Reload() {
	if ctx, ok := r.context(); ok {
		runtime.WindowReload(ctx)
	}
}

func (r *WailsRuntime) ClipboardSetText(text string) error {
	ctx, ok := r.context()
	if !ok {
		return util.ErrNotStarted
	}
	return runtime.ClipboardSetText(ctx, text)
}

// Show restores and focuses the window.
func (r *WailsRuntime) Show() {
	if ctx, ok := r.context(); ok {
		runtime.WindowUnminimise(ctx)
		runtime.WindowShow(ctx)
	}
}

// Hide hides the window.
func (r *WailsRuntime) Hide() {
	if ctx, ok := r.context(); ok {
		runtime.WindowHide(ctx)
	}
}

// Quit ends the Wails event loop.
func (r *WailsRuntime) Quit() {
	if ctx, ok := r.context(); ok {
		runtime.Quit(ctx)
	}
}

// MessageDialog shows an informational dialog.
func (r *WailsRuntime) MessageDialog(title, message string) error {
	ctx, ok := r.context()
	if !ok {
		return util.ErrNotStarted
	}
	_, err := runtime.MessageDialog(ctx, runtime.MessageDialogOptions{
		Type:    runtime.InfoDialog,
		Title:   title,
		Message: message,
	})
	return err
}
