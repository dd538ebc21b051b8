// Package main provides the Taqyon desktop shell entry point.
package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/rennerdo30/taqyon/internal/cli"
	"github.com/rennerdo30/taqyon/internal/config"
	"github.com/rennerdo30/taqyon/internal/frontend"
	"github.com/rennerdo30/taqyon/internal/logging"
	"github.com/rennerdo30/taqyon/internal/shell"
	"github.com/rennerdo30/taqyon/internal/util"
	"github.com/rennerdo30/taqyon/internal/version"
)

const (
	defaultDevServer  = "http://localhost:3000"
	defaultConfigFile = "taqyon.yaml"
)

// appOptions holds the parsed command line. It is not modified after parsing.
type appOptions struct {
	Verbose           bool
	LogFilePath       string
	DevServerURL      string
	FrontendPath      string
	ConfigPath        string
	DiagnosticsListen string
	Watch             bool
	NoTray            bool
}

type runFunc func(cmd *cobra.Command, opts *appOptions) error

func newRootCmd() *cobra.Command {
	return newRootCmdWith(run)
}

func newRootCmdWith(runE runFunc) *cobra.Command {
	opts := &appOptions{}

	root := &cobra.Command{
		Use:           "taqyon",
		Short:         version.Description,
		Long:          `Taqyon hosts a web frontend in a native window, bridged to a Go backend.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runE(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVar(&opts.Verbose, "verbose", false, "Enable verbose output")
	flags.StringVarP(&opts.LogFilePath, "log", "l", "", "Write logs to <file>")
	flags.StringVarP(&opts.DevServerURL, "dev-server", "d", defaultDevServer, "Load the frontend from a dev server <url>")
	flags.StringVarP(&opts.FrontendPath, "frontend-path", "f", "", "Load the frontend from <path>")
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "Shell config file")
	flags.StringVar(&opts.DiagnosticsListen, "diagnostics", "", "Serve diagnostics on a loopback <addr>")
	flags.BoolVar(&opts.Watch, "watch", false, "Reload the window when the local frontend changes")
	flags.BoolVar(&opts.NoTray, "no-tray", false, "Disable the system tray icon")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "resolve",
		Short: "Print the frontend URL the window would load",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd.Flags(), opts)
			if err != nil {
				return err
			}
			u, err := resolveFrontend(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u.String())
			return nil
		},
	})

	root.AddCommand(newConfigCommand(opts))
	root.AddCommand(cli.NewCommands())

	return root
}

func newConfigCommand(opts *appOptions) *cobra.Command {
	var force bool

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the shell config file",
	}

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write a sample config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.ConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = defaultConfigFile
			}

			if _, err := os.Stat(path); err == nil {
				if !force {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
				backup, err := config.Backup(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backed up %s to %s\n", path, backup)
			}

			if err := config.WriteFile(path, []byte(config.DefaultShellConfigTemplate)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd.Flags(), opts)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	configCmd.AddCommand(initCmd, showCmd)
	return configCmd
}

// buildConfig loads the config file, if any, and applies the flags that were
// set explicitly.
func buildConfig(flags *pflag.FlagSet, opts *appOptions) (config.ShellConfig, error) {
	cfg := config.DefaultShellConfig()
	if opts.ConfigPath != "" {
		loaded, err := config.LoadShellConfig(opts.ConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("%w: load config: %w", frontend.ErrConfiguration, err)
		}
		cfg = *loaded
	}

	if opts.Verbose {
		cfg.Logging.Level = "debug"
	}
	if opts.LogFilePath != "" {
		cfg.Logging.Output = opts.LogFilePath
		cfg.Logging.Tee = opts.Verbose
	}
	// The dev server default applies only when the flag is given.
	if flags.Changed("dev-server") {
		cfg.Frontend.DevServer = opts.DevServerURL
	}
	if flags.Changed("frontend-path") {
		cfg.Frontend.Path = opts.FrontendPath
	}
	if opts.Watch {
		cfg.Frontend.Watch = true
	}
	if opts.NoTray {
		cfg.Tray.Enabled = false
	}
	if opts.DiagnosticsListen != "" {
		cfg.Diagnostics.Enabled = true
		cfg.Diagnostics.Listen = opts.DiagnosticsListen
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %w", frontend.ErrConfiguration, err)
	}
	return cfg, nil
}

func resolveFrontend(cfg config.ShellConfig) (*url.URL, error) {
	req := frontend.Request{
		DevServerURL: cfg.Frontend.DevServer,
		FrontendPath: cfg.Frontend.Path,
	}
	if exe, err := os.Executable(); err == nil {
		req.AppDir = filepath.Dir(exe)
	}
	if cwd, err := os.Getwd(); err == nil {
		req.Cwd = cwd
	}
	return frontend.Resolve(req)
}

func setupLogging(cfg logging.Config) {
	err := logging.Setup(cfg)
	if err == nil {
		if cfg.Output != "" && cfg.Output != "stderr" && cfg.Output != "stdout" {
			logging.Info("Logging to file", "path", cfg.Output)
		}
		return
	}

	if !errors.Is(err, logging.ErrLogFileOpen) {
		logging.Warn("logging setup failed", "error", err)
		return
	}

	logging.Warn("Could not open log file for writing", "path", cfg.Output, "error", err)
	cfg.Output = "stderr"
	cfg.Tee = false
	if err := logging.Setup(cfg); err != nil {
		logging.Warn("logging setup failed", "error", err)
	}
}

func run(cmd *cobra.Command, opts *appOptions) error {
	cfg, err := buildConfig(cmd.Flags(), opts)
	if err != nil {
		return err
	}

	setupLogging(cfg.Logging)
	defer logging.Close()

	if opts.Verbose {
		logging.Info("Verbose mode enabled")
	}

	u, err := resolveFrontend(cfg)
	if err != nil {
		if util.IsNotFound(err) {
			logging.Error("frontend not found", "error", err)
		} else {
			logging.Error("invalid frontend", "error", err)
		}
		return err
	}
	logging.Info("Loading frontend", "url", u.String())

	app, err := shell.New(shell.Options{
		Config:      cfg,
		FrontendURL: u,
	})
	if err != nil {
		return fmt.Errorf("create shell: %w", err)
	}

	if err := app.Run(); err != nil {
		return fmt.Errorf("run shell: %w", err)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
