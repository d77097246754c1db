package visualization

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// browserCommand returns the command that opens target on goos.
func browserCommand(goos, target string) (*exec.Cmd, error) {
	switch goos {
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", target), nil
	case "darwin":
		return exec.Command("open", target), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// OpenBrowser opens an http(s) dashboard URL in the user's default browser.
// It does not wait for the browser to exit.
func OpenBrowser(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open non-http url %q", rawURL)
	}

	cmd, err := browserCommand(runtime.GOOS, u.String())
	if err != nil {
		return err
	}
	return cmd.Start()
}
