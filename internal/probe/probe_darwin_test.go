//go:build darwin

package probe

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func TestClipboardRead(t *testing.T) {
	c := NewClipboardWithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if name != "pbpaste" {
			t.Errorf("command = %q, want pbpaste", name)
		}
		return []byte("copied text"), nil
	})

	got, err := c.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "copied text" {
		t.Errorf("Read = %q", got)
	}
}

func TestClipboardRead_NonTextContent(t *testing.T) {
	// pbpaste exits nonzero when the clipboard holds no text. That is an
	// empty read, not an error.
	c := NewClipboardWithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, &exec.ExitError{}
	})

	got, err := c.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "" {
		t.Errorf("Read = %q, want empty", got)
	}
}

func TestClipboardRead_Unreachable(t *testing.T) {
	c := NewClipboardWithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("executable not found")
	})

	if _, err := c.Read(context.Background()); err == nil {
		t.Error("expected error when the clipboard facility is unreachable")
	}
}

func TestBrowserTabs(t *testing.T) {
	b := NewBrowserWithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		script := args[len(args)-1]
		if strings.Contains(script, "Safari") {
			return []byte("New chat|https://claude.ai/chat/1\n"), nil
		}
		return []byte("ChatGPT|https://chatgpt.com/\n"), nil
	})

	tabs, err := b.Tabs(context.Background())
	if err != nil {
		t.Fatalf("Tabs: %v", err)
	}
	if len(tabs) != 2 {
		t.Fatalf("got %d tabs, want 2: %v", len(tabs), tabs)
	}
	if tabs[0].Browser != "Safari" || tabs[1].Browser != "Google Chrome" {
		t.Errorf("browser attribution wrong: %+v", tabs)
	}
}

func TestBrowserTabs_BrowserNotRunning(t *testing.T) {
	// A browser that refuses scripting contributes nothing; the others still
	// report.
	b := NewBrowserWithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		script := args[len(args)-1]
		if strings.Contains(script, "Safari") {
			return nil, &exec.ExitError{}
		}
		return []byte("ChatGPT|https://chatgpt.com/\n"), nil
	})

	tabs, err := b.Tabs(context.Background())
	if err != nil {
		t.Fatalf("Tabs: %v", err)
	}
	if len(tabs) != 1 || tabs[0].Browser != "Google Chrome" {
		t.Errorf("tabs = %+v, want the Chrome tab only", tabs)
	}
}

func TestProcessesPoll(t *testing.T) {
	p := NewProcessesWithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("Cursor|321\nFinder|100\n"), nil
	})

	procs, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(procs) != 2 {
		t.Fatalf("got %d processes, want 2", len(procs))
	}
	if procs[0].Name != "Cursor" || procs[0].PID != 321 {
		t.Errorf("procs[0] = %+v", procs[0])
	}
}

func TestProcessesPoll_ScriptingDenied(t *testing.T) {
	p := NewProcessesWithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, &exec.ExitError{}
	})

	procs, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if procs != nil {
		t.Errorf("procs = %v, want nil when scripting is denied", procs)
	}
}
