package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rennerdo30/taqyon/internal/logging"
	"github.com/rennerdo30/taqyon/internal/navigation"
	"github.com/rennerdo30/taqyon/internal/util"
	"github.com/rennerdo30/taqyon/internal/version"
)

// ShellConfig is the configuration of the desktop shell.
type ShellConfig struct {
	Window      WindowConfig      `yaml:"window" json:"window"`
	Frontend    FrontendConfig    `yaml:"frontend" json:"frontend"`
	Tray        TrayConfig        `yaml:"tray" json:"tray"`
	Navigation  NavigationConfig  `yaml:"navigation" json:"navigation"`
	DevTools    bool              `yaml:"devtools" json:"devtools"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics" json:"diagnostics"`
	Logging     logging.Config    `yaml:"logging" json:"logging"`
}

// WindowConfig contains main window settings.
type WindowConfig struct {
	Title        string `yaml:"title" json:"title"`
	Organization string `yaml:"organization" json:"organization"`
	Width        int    `yaml:"width" json:"width"`
	Height       int    `yaml:"height" json:"height"`
	MinWidth     int    `yaml:"min_width" json:"min_width"`
	MinHeight    int    `yaml:"min_height" json:"min_height"`
}

// FrontendConfig selects the web frontend. Command line flags win.
type FrontendConfig struct {
	DevServer     string   `yaml:"dev_server,omitempty" json:"dev_server,omitempty"`
	Path          string   `yaml:"path,omitempty" json:"path,omitempty"`
	Watch         bool     `yaml:"watch" json:"watch"`
	WatchDebounce Duration `yaml:"watch_debounce" json:"watch_debounce"`
}

// TrayConfig contains system tray settings.
type TrayConfig struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	CloseToTray bool   `yaml:"close_to_tray" json:"close_to_tray"`
	Tooltip     string `yaml:"tooltip" json:"tooltip"`
}

// NavigationConfig controls where link clicks go.
type NavigationConfig struct {
	// InAppHosts lists host patterns whose links load in the window
	// instead of the system browser.
	InAppHosts []string `yaml:"in_app_hosts,omitempty" json:"in_app_hosts,omitempty"`
}

// DiagnosticsConfig configures the local diagnostics server.
type DiagnosticsConfig struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	Listen      string `yaml:"listen" json:"listen"`
	JournalSize int    `yaml:"journal_size" json:"journal_size"`
}

// Duration is a time.Duration that can be unmarshaled from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DefaultShellConfig returns the configuration used when no file is given.
func DefaultShellConfig() ShellConfig {
	return ShellConfig{
		Window: WindowConfig{
			Title:        version.AppName,
			Organization: version.Organization,
			Width:        1200,
			Height:       800,
			MinWidth:     400,
			MinHeight:    300,
		},
		Frontend: FrontendConfig{
			WatchDebounce: Duration(300 * time.Millisecond),
		},
		Tray: TrayConfig{
			Enabled:     true,
			CloseToTray: true,
			Tooltip:     version.AppName,
		},
		Diagnostics: DiagnosticsConfig{
			Listen:      "127.0.0.1:9477",
			JournalSize: 500,
		},
		Logging: logging.DefaultConfig(),
	}
}

// LoadShellConfig reads path over the defaults and validates the result.
// Keys missing from the file keep their default values.
func LoadShellConfig(path string) (*ShellConfig, error) {
	cfg := DefaultShellConfig()
	if err := LoadAndValidate(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem in the configuration.
func (c *ShellConfig) Validate() error {
	errs := util.NewMultiError()

	if strings.TrimSpace(c.Window.Title) == "" {
		errs.Add(fmt.Errorf("%w: window title is required", util.ErrInvalidConfig))
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs.Add(fmt.Errorf("%w: window size must be positive, got %dx%d",
			util.ErrInvalidConfig, c.Window.Width, c.Window.Height))
	}
	if c.Window.MinWidth < 0 || c.Window.MinHeight < 0 {
		errs.Add(fmt.Errorf("%w: minimum window size must not be negative", util.ErrInvalidConfig))
	}
	if c.Window.MinWidth > c.Window.Width || c.Window.MinHeight > c.Window.Height {
		errs.Add(fmt.Errorf("%w: minimum window size exceeds window size", util.ErrInvalidConfig))
	}

	if c.Frontend.DevServer != "" {
		u, err := url.Parse(c.Frontend.DevServer)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs.Add(fmt.Errorf("%w: frontend dev_server %q is not an absolute url",
				util.ErrInvalidConfig, c.Frontend.DevServer))
		}
	}
	if c.Frontend.WatchDebounce < 0 {
		errs.Add(fmt.Errorf("%w: frontend watch_debounce must not be negative", util.ErrInvalidConfig))
	}

	if _, err := navigation.NewHostPatterns(c.Navigation.InAppHosts); err != nil {
		errs.Add(fmt.Errorf("%w: navigation in_app_hosts: %v", util.ErrInvalidConfig, err))
	}

	if c.Diagnostics.Enabled {
		if _, port, err := util.SplitHostPort(c.Diagnostics.Listen); err != nil || port == 0 {
			errs.Add(fmt.Errorf("%w: diagnostics listen %q needs host and port", util.ErrInvalidConfig, c.Diagnostics.Listen))
		} else if !util.IsLoopbackAddress(c.Diagnostics.Listen) {
			errs.Add(fmt.Errorf("%w: diagnostics must listen on a loopback address, got %q",
				util.ErrInvalidConfig, c.Diagnostics.Listen))
		}
	}
	if c.Diagnostics.JournalSize < 0 {
		errs.Add(fmt.Errorf("%w: diagnostics journal_size must not be negative", util.ErrInvalidConfig))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		errs.Add(fmt.Errorf("%w: unknown logging level %q", util.ErrInvalidConfig, c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs.Add(fmt.Errorf("%w: unknown logging format %q", util.ErrInvalidConfig, c.Logging.Format))
	}

	return errs.Err()
}
