//go:build darwin

package probe

import (
	"context"
	"os/exec"

	"github.com/prompthist/prompthist/internal/apperr"
)

// knownBrowsers are the browsers the tab probe can script. Browsers without
// an AppleScript tab interface are skipped.
var knownBrowsers = []string{"Safari", "Google Chrome"}

const safariTabsScript = `
tell application "Safari"
	set tabList to {}
	repeat with w in windows
		repeat with t in tabs of w
			set end of tabList to (name of t) & "|" & (URL of t)
		end repeat
	end repeat
	return tabList
end tell
`

const chromeTabsScript = `
tell application "Google Chrome"
	set tabList to {}
	repeat with w in windows
		repeat with t in tabs of w
			set end of tabList to (title of t) & "|" & (URL of t)
		end repeat
	end repeat
	return tabList
end tell
`

const foregroundProcessesScript = `
tell application "System Events"
	set appList to {}
	repeat with p in application processes
		if background only of p is false then
			set end of appList to (name of p) & "|" & (unix id of p)
		end if
	end repeat
	return appList
end tell
`

// Read returns the current clipboard text, or an error when the clipboard
// facility is unreachable. An unreadable (non-text) clipboard is an empty
// string, not an error.
func (c *Clipboard) Read(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "pbpaste")
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return "", nil
		}
		return "", apperr.Wrap(apperr.KindProbe, err, "reading clipboard")
	}
	return string(out), nil
}

// Tabs returns (title, url) pairs across all known browsers. A browser that
// is not running or refuses scripting contributes nothing; only a failure to
// launch osascript itself is an error.
func (b *Browser) Tabs(ctx context.Context) ([]Tab, error) {
	var tabs []Tab
	for _, browser := range knownBrowsers {
		script := safariTabsScript
		if browser == "Google Chrome" {
			script = chromeTabsScript
		}
		out, err := b.run(ctx, "osascript", "-e", script)
		if err != nil {
			if _, ok := err.(*exec.ExitError); ok {
				continue
			}
			return nil, apperr.Wrap(apperr.KindProbe, err, "enumerating %s tabs", browser)
		}
		parsed := parseTabs(string(out))
		for i := range parsed {
			parsed[i].Browser = browser
		}
		tabs = append(tabs, parsed...)
	}
	return tabs, nil
}

// Poll returns (name, pid) pairs for foreground processes.
func (p *Processes) Poll(ctx context.Context) ([]Process, error) {
	out, err := p.run(ctx, "osascript", "-e", foregroundProcessesScript)
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindProbe, err, "enumerating processes")
	}
	return parseProcesses(string(out)), nil
}
