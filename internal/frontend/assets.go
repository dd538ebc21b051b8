package frontend

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/rennerdo30/taqyon/internal/logging"
)

// LoadFailureFunc is told about page loads the shell could not serve.
type LoadFailureFunc func(target string, err error)

// AssetOptions builds the web view's asset server configuration for the
// resolved frontend URL. Local entry files are served from their directory;
// remote URLs are reached through a reverse proxy so the page keeps the
// runtime bindings of the shell's own origin.
func AssetOptions(u *url.URL, middleware assetserver.Middleware, onFailure LoadFailureFunc) (*assetserver.Options, error) {
	if u == nil {
		return nil, &NotFoundError{Reason: ReasonNoDirectory}
	}

	switch u.Scheme {
	case "file":
		dir := LocalDir(u)
		return &assetserver.Options{
			Assets:     os.DirFS(dir),
			Middleware: middleware,
		}, nil
	case "http", "https":
		return &assetserver.Options{
			Handler:    NewDevServerProxy(u, onFailure),
			Middleware: middleware,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported frontend scheme %q", ErrConfiguration, u.Scheme)
	}
}

// NewDevServerProxy returns a reverse proxy to a frontend dev server.
// Proxy failures are page load errors: logged, answered with 502, never retried.
func NewDevServerProxy(target *url.URL, onFailure LoadFailureFunc) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(target)

	director := proxy.Director
	proxy.Director = func(r *http.Request) {
		director(r)
		// Dev servers such as Vite reject requests for foreign hosts.
		r.Host = target.Host
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logging.WithComponent("frontend").Error("page load failed",
			"url", target.String()+r.URL.Path,
			"error", err,
		)
		if onFailure != nil {
			onFailure(r.URL.Path, err)
		}
		http.Error(w, "frontend dev server unavailable", http.StatusBadGateway)
	}

	return proxy
}
