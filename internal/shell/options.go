package shell

import (
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/linux"

	"github.com/rennerdo30/taqyon/internal/frontend"
	"github.com/rennerdo30/taqyon/internal/logging"
	"github.com/rennerdo30/taqyon/internal/tray"
	"github.com/rennerdo30/taqyon/internal/webview"
)

// WailsOptions returns the application options for the window.
func (a *App) WailsOptions() (*options.App, error) {
	assets, err := frontend.AssetOptions(
		a.frontendURL,
		webview.InjectMiddleware(a.surface.ScriptConfig()),
		a.loadFailed,
	)
	if err != nil {
		return nil, err
	}

	return &options.App{
		Title:         a.cfg.Window.Title,
		Width:         a.cfg.Window.Width,
		Height:        a.cfg.Window.Height,
		MinWidth:      a.cfg.Window.MinWidth,
		MinHeight:     a.cfg.Window.MinHeight,
		AssetServer:   assets,
		Menu:          a.Menu(),
		Logger:        logging.NewWailsLogger(),
		LogLevel:      logging.WailsLevel(a.cfg.Logging.Level),
		OnStartup:     a.Startup,
		OnDomReady:    a.DomReady,
		OnBeforeClose: a.BeforeClose,
		OnShutdown:    a.Shutdown,
		Bind: []interface{}{
			a.channel,
		},
		Linux: &linux.Options{
			Icon:        tray.AppIcon(),
			ProgramName: a.cfg.Window.Title,
		},
		Debug: options.Debug{
			OpenInspectorOnStartup: a.cfg.DevTools,
		},
	}, nil
}

// Run opens the window and blocks until the application exits.
func (a *App) Run() error {
	opts, err := a.WailsOptions()
	if err != nil {
		return err
	}
	return wails.Run(opts)
}

func (a *App) loadFailed(target string, err error) {
	a.surface.LoadFailed(target, err.Error())
}
