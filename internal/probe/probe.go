// Package probe samples external OS signal sources: the clipboard, browser
// tabs, and running processes. Each probe wraps a call to an OS facility and
// fails independently; unsupported platforms return empty result sets so the
// monitor loop stays uniform.
package probe

import (
	"context"
	"os/exec"
)

// Runner executes an external command and returns its stdout. Injected so
// tests can stub the OS scripting facilities.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Tab is one browser tab observation. Browser is the process the tab was
// enumerated from.
type Tab struct {
	Browser string
	Title   string
	URL     string
}

// Process is one foreground-process observation.
type Process struct {
	Name string
	PID  int
}

// Clipboard reads the current clipboard text.
type Clipboard struct {
	run Runner
}

func NewClipboard() *Clipboard {
	return &Clipboard{run: execRunner}
}

// NewClipboardWithRunner is for tests.
func NewClipboardWithRunner(run Runner) *Clipboard {
	return &Clipboard{run: run}
}

// Browser enumerates tabs of known browsers via OS scripting.
type Browser struct {
	run Runner
}

func NewBrowser() *Browser {
	return &Browser{run: execRunner}
}

// NewBrowserWithRunner is for tests.
func NewBrowserWithRunner(run Runner) *Browser {
	return &Browser{run: run}
}

// Processes enumerates foreground, non-background processes.
type Processes struct {
	run Runner
}

func NewProcesses() *Processes {
	return &Processes{run: execRunner}
}

// NewProcessesWithRunner is for tests.
func NewProcessesWithRunner(run Runner) *Processes {
	return &Processes{run: run}
}
