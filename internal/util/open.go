package util

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// OpenURL hands a URL to the operating system's default handler.
func OpenURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("open url %q: %w", rawURL, ErrUnsupportedURL)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", u.String())
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", u.String())
	default:
		cmd = exec.Command("xdg-open", u.String())
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open url: %w", err)
	}
	// Reap the helper process; its exit status carries no information.
	go func() { _ = cmd.Wait() }()
	return nil
}
