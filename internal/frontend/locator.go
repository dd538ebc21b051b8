// Package frontend locates the web frontend the shell loads and serves it to
// the web view.
package frontend

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rennerdo30/taqyon/internal/logging"
	"github.com/rennerdo30/taqyon/internal/util"
)

// EntryFile is the file the shell loads from a local frontend directory.
const EntryFile = "index.html"

// Failure reasons reported by NotFoundError.
const (
	ReasonNoDirectory  = "no frontend directory"
	ReasonMissingIndex = "missing index.html"
	ReasonBadDevServer = "invalid dev server url"
)

// ErrConfiguration marks fatal startup configuration problems.
var ErrConfiguration = errors.New("configuration error")

// NotFoundError reports why no frontend could be resolved.
type NotFoundError struct {
	Reason string
	// Path is the index.html path or dev server value that was rejected.
	Path string
	// Searched lists the probed directories when no explicit path was given.
	Searched []string
}

func (e *NotFoundError) Error() string {
	switch {
	case e.Path != "":
		return fmt.Sprintf("frontend not found: %s: %s", e.Reason, e.Path)
	case len(e.Searched) > 0:
		return fmt.Sprintf("frontend not found: %s (searched %s)", e.Reason, strings.Join(e.Searched, ", "))
	default:
		return "frontend not found: " + e.Reason
	}
}

// Unwrap lets errors.Is match ErrConfiguration and, unless the dev server
// value was malformed, util.ErrNotFound.
func (e *NotFoundError) Unwrap() []error {
	if e.Reason == ReasonBadDevServer {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, util.ErrNotFound}
}

// Request carries the inputs of a resolution. Empty strings mean "not given".
type Request struct {
	DevServerURL string
	FrontendPath string
	AppDir       string
	Cwd          string
}

// StatFunc matches os.Stat.
type StatFunc func(name string) (os.FileInfo, error)

// Locator resolves the frontend URL.
type Locator struct {
	stat StatFunc
}

// NewLocator returns a Locator backed by the real filesystem.
func NewLocator() *Locator {
	return &Locator{stat: os.Stat}
}

// NewLocatorWithStat returns a Locator that probes through stat (for testing).
func NewLocatorWithStat(stat StatFunc) *Locator {
	return &Locator{stat: stat}
}

// Resolve resolves with the real filesystem.
func Resolve(req Request) (*url.URL, error) {
	return NewLocator().Resolve(req)
}

// Candidates returns the probe order used when no frontend path is given.
// The order supports installed layouts first, then development checkouts.
func Candidates(appDir, cwd string) []string {
	return []string{
		filepath.Join(appDir, "..", "frontend", "dist"),
		filepath.Join(appDir, "frontend", "dist"),
		filepath.Join(cwd, "frontend", "dist"),
		filepath.Join(cwd, "..", "frontend", "dist"),
		filepath.Join(cwd, "..", "..", "frontend", "dist"),
		filepath.Join(cwd, "..", "..", "..", "frontend", "dist"),
	}
}

// Resolve returns the dev server URL when one is given, otherwise a file URL
// of index.html inside the explicit or first discovered frontend directory.
func (l *Locator) Resolve(req Request) (*url.URL, error) {
	log := logging.WithComponent("frontend")

	if req.DevServerURL != "" {
		u, err := url.Parse(req.DevServerURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, &NotFoundError{Reason: ReasonBadDevServer, Path: req.DevServerURL}
		}
		log.Info("loading frontend from dev server", "url", req.DevServerURL)
		return u, nil
	}

	dir := req.FrontendPath
	if dir != "" {
		log.Info("using provided frontend path", "path", dir)
	} else {
		candidates := Candidates(req.AppDir, req.Cwd)
		for _, candidate := range candidates {
			if l.isDir(candidate) {
				dir = candidate
				log.Info("found frontend", "path", dir)
				break
			}
		}
		if dir == "" {
			log.Error("could not find frontend directory in any of the expected locations")
			log.Info("specify the frontend path with --frontend-path")
			return nil, &NotFoundError{Reason: ReasonNoDirectory, Searched: candidates}
		}
	}

	indexPath := filepath.Join(dir, EntryFile)
	if !l.exists(indexPath) {
		log.Error("index.html not found", "path", indexPath)
		log.Info("make sure the frontend has been built", "hint", "npm run frontend:build")
		return nil, &NotFoundError{Reason: ReasonMissingIndex, Path: indexPath}
	}

	abs, err := filepath.Abs(indexPath)
	if err != nil {
		abs = indexPath
	}
	log.Info("loading frontend from file", "path", abs)
	return FileURL(abs), nil
}

func (l *Locator) isDir(path string) bool {
	info, err := l.stat(path)
	return err == nil && info.IsDir()
}

func (l *Locator) exists(path string) bool {
	_, err := l.stat(path)
	return err == nil
}

// FileURL converts an absolute filesystem path into a file:// URL.
func FileURL(path string) *url.URL {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		// Windows drive paths become file:///C:/...
		p = "/" + p
	}
	return &url.URL{Scheme: "file", Path: p}
}

// IsLocal reports whether u points at a local entry file.
func IsLocal(u *url.URL) bool {
	return u != nil && u.Scheme == "file"
}

// LocalDir returns the directory holding the entry file of a file URL.
func LocalDir(u *url.URL) string {
	p := u.Path
	if len(p) > 2 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.Dir(filepath.FromSlash(p))
}
