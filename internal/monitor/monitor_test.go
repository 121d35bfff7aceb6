package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prompthist/prompthist/internal/probe"
	"github.com/prompthist/prompthist/internal/storage"
)

type fakeClipboard struct {
	content string
	err     error
}

func (f *fakeClipboard) Read(context.Context) (string, error) { return f.content, f.err }

type fakeBrowser struct {
	tabs []probe.Tab
	err  error
}

func (f *fakeBrowser) Tabs(context.Context) ([]probe.Tab, error) { return f.tabs, f.err }

type fakeProcesses struct {
	procs []probe.Process
	err   error
}

func (f *fakeProcesses) Poll(context.Context) ([]probe.Process, error) { return f.procs, f.err }

type fakeStore struct {
	saved []storage.PromptEntry
	err   error
}

func (f *fakeStore) SavePrompt(p storage.PromptEntry) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, p)
	return nil
}

type fakeCipher struct {
	fail bool
}

func (f *fakeCipher) Encrypt(plaintext string) (string, error) {
	if f.fail {
		return "", errors.New("cipher unavailable")
	}
	return "enc:" + plaintext, nil
}

const promptText = "Can you explain how goroutines differ from OS threads?"

func newTestMonitor(cfg Config, deps Deps) *Monitor {
	if deps.Clipboard == nil {
		deps.Clipboard = &fakeClipboard{}
	}
	if deps.Browser == nil {
		deps.Browser = &fakeBrowser{}
	}
	if deps.Processes == nil {
		deps.Processes = &fakeProcesses{}
	}
	if deps.Store == nil {
		deps.Store = &fakeStore{}
	}
	m := New(cfg, deps)
	m.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return m
}

func TestStartStop(t *testing.T) {
	m := newTestMonitor(DefaultConfig(), Deps{})

	if m.IsRunning() {
		t.Fatal("new monitor reports running")
	}
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !m.IsRunning() {
		t.Fatal("monitor not running after Start")
	}

	// Starting again is a no-op.
	if err := m.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if m.IsRunning() {
		t.Fatal("monitor still running after Stop")
	}

	// Stopping again is a no-op.
	if err := m.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestPollClipboard_CapturesPrompt(t *testing.T) {
	store := &fakeStore{}
	m := newTestMonitor(DefaultConfig(), Deps{
		Store:     store,
		Clipboard: &fakeClipboard{content: promptText},
	})

	m.pollClipboard(context.Background())

	if len(store.saved) != 1 {
		t.Fatalf("saved %d entries, want 1", len(store.saved))
	}
	got := store.saved[0]
	if got.Content != promptText {
		t.Errorf("content = %q, want %q", got.Content, promptText)
	}
	if got.Application != "clipboard" {
		t.Errorf("application = %q, want clipboard", got.Application)
	}
	if got.ID == "" {
		t.Error("entry has no ID")
	}
	if got.IsEncrypted {
		t.Error("entry encrypted without a cipher")
	}
}

func TestPollClipboard_SkipsNonPrompt(t *testing.T) {
	store := &fakeStore{}
	m := newTestMonitor(DefaultConfig(), Deps{
		Store:     store,
		Clipboard: &fakeClipboard{content: "1234567890 1234567890 1234567890"},
	})

	m.pollClipboard(context.Background())

	if len(store.saved) != 0 {
		t.Errorf("non-prompt content saved: %v", store.saved)
	}
}

func TestPollClipboard_BelowThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CaptureThreshold = 200
	store := &fakeStore{}
	m := newTestMonitor(cfg, Deps{
		Store:     store,
		Clipboard: &fakeClipboard{content: promptText},
	})

	m.pollClipboard(context.Background())

	if len(store.saved) != 0 {
		t.Errorf("content below threshold saved: %v", store.saved)
	}
}

func TestPollClipboard_SuppressesDuplicates(t *testing.T) {
	store := &fakeStore{}
	m := newTestMonitor(DefaultConfig(), Deps{
		Store:     store,
		Clipboard: &fakeClipboard{content: promptText},
	})

	m.pollClipboard(context.Background())
	m.pollClipboard(context.Background())
	m.pollClipboard(context.Background())

	if len(store.saved) != 1 {
		t.Errorf("saved %d entries, want 1 after dedup", len(store.saved))
	}
}

func TestPollClipboard_AutoSaveOff(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoSave = false
	store := &fakeStore{}
	m := newTestMonitor(cfg, Deps{
		Store:     store,
		Clipboard: &fakeClipboard{content: promptText},
	})

	m.pollClipboard(context.Background())

	if len(store.saved) != 0 {
		t.Errorf("entry saved with auto-save off: %v", store.saved)
	}
}

func TestPollClipboard_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	store := &fakeStore{}
	m := newTestMonitor(cfg, Deps{
		Store:     store,
		Clipboard: &fakeClipboard{content: promptText},
	})

	m.pollClipboard(context.Background())

	if len(store.saved) != 0 {
		t.Errorf("entry saved while disabled: %v", store.saved)
	}
}

func TestPollClipboard_Encrypts(t *testing.T) {
	store := &fakeStore{}
	m := newTestMonitor(DefaultConfig(), Deps{
		Store:     store,
		Cipher:    &fakeCipher{},
		Clipboard: &fakeClipboard{content: promptText},
	})

	m.pollClipboard(context.Background())

	if len(store.saved) != 1 {
		t.Fatalf("saved %d entries, want 1", len(store.saved))
	}
	got := store.saved[0]
	if !got.IsEncrypted {
		t.Error("entry not marked encrypted")
	}
	if got.Content != "enc:"+promptText {
		t.Errorf("content = %q, want ciphertext", got.Content)
	}
}

func TestPollClipboard_DropsOnEncryptFailure(t *testing.T) {
	store := &fakeStore{}
	m := newTestMonitor(DefaultConfig(), Deps{
		Store:     store,
		Cipher:    &fakeCipher{fail: true},
		Clipboard: &fakeClipboard{content: promptText},
	})

	m.pollClipboard(context.Background())

	// No plaintext fallback: a failed encryption drops the entry.
	if len(store.saved) != 0 {
		t.Errorf("entry saved despite encrypt failure: %v", store.saved)
	}
}

func TestPollClipboard_ReadError(t *testing.T) {
	store := &fakeStore{}
	m := newTestMonitor(DefaultConfig(), Deps{
		Store:     store,
		Clipboard: &fakeClipboard{err: errors.New("no clipboard")},
	})

	m.pollClipboard(context.Background())

	if len(store.saved) != 0 {
		t.Errorf("entry saved despite read error: %v", store.saved)
	}
}

func TestPollBrowserTabs_DetectsMonitoredApps(t *testing.T) {
	m := newTestMonitor(DefaultConfig(), Deps{
		Browser: &fakeBrowser{tabs: []probe.Tab{
			{Browser: "Safari", Title: "New chat", URL: "https://claude.ai/chat/abc"},
			{Browser: "Safari", Title: "Docs", URL: "https://pkg.go.dev/fmt"},
			{Browser: "Google Chrome", Title: "ChatGPT", URL: "https://chatgpt.com/"},
		}},
	})

	m.pollBrowserTabs(context.Background())

	apps := m.DetectedApplications()
	if len(apps) != 2 {
		t.Fatalf("detected %d apps, want 2: %v", len(apps), apps)
	}
	names := map[string]bool{}
	for _, a := range apps {
		names[a.Name] = true
		if !a.IsActive {
			t.Errorf("%s not marked active", a.Name)
		}
	}
	if !names["Claude"] || !names["ChatGPT"] {
		t.Errorf("detected = %v, want Claude and ChatGPT", names)
	}
}

func TestPollBrowserTabs_SkipsUnmonitored(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MonitoredApplications = []string{"Claude"}
	m := newTestMonitor(cfg, Deps{
		Browser: &fakeBrowser{tabs: []probe.Tab{
			{Browser: "Safari", Title: "ChatGPT", URL: "https://chatgpt.com/"},
		}},
	})

	m.pollBrowserTabs(context.Background())

	if apps := m.DetectedApplications(); len(apps) != 0 {
		t.Errorf("unmonitored app detected: %v", apps)
	}
}

func TestPollBrowserTabs_DedupesByTitle(t *testing.T) {
	tabs := []probe.Tab{
		{Browser: "Safari", Title: "Chat one", URL: "https://claude.ai/chat/1"},
		{Browser: "Safari", Title: "Chat one", URL: "https://claude.ai/chat/1"},
		{Browser: "Safari", Title: "Chat two", URL: "https://claude.ai/chat/2"},
	}
	m := newTestMonitor(DefaultConfig(), Deps{Browser: &fakeBrowser{tabs: tabs}})

	m.pollBrowserTabs(context.Background())
	m.pollBrowserTabs(context.Background())

	// Same app, distinct window titles: two entries, stable across repolls.
	if apps := m.DetectedApplications(); len(apps) != 2 {
		t.Errorf("detected %d entries, want 2: %v", len(apps), apps)
	}
}

func TestPollProcesses_DetectsByName(t *testing.T) {
	m := newTestMonitor(DefaultConfig(), Deps{
		Processes: &fakeProcesses{procs: []probe.Process{
			{Name: "Cursor", PID: 321},
			{Name: "Finder", PID: 100},
		}},
	})

	m.pollProcesses(context.Background())
	m.pollProcesses(context.Background())

	apps := m.DetectedApplications()
	if len(apps) != 1 {
		t.Fatalf("detected %d apps, want 1: %v", len(apps), apps)
	}
	if apps[0].Name != "Cursor" {
		t.Errorf("detected %q, want Cursor", apps[0].Name)
	}
}

func TestDetectedApplications_ReturnsCopy(t *testing.T) {
	m := newTestMonitor(DefaultConfig(), Deps{
		Processes: &fakeProcesses{procs: []probe.Process{{Name: "Ollama", PID: 9}}},
	})
	m.pollProcesses(context.Background())

	apps := m.DetectedApplications()
	apps[0].Name = "mutated"

	if got := m.DetectedApplications(); got[0].Name != "Ollama" {
		t.Error("caller mutation leaked into monitor state")
	}
}

func TestSaveError_DoesNotPanic(t *testing.T) {
	m := newTestMonitor(DefaultConfig(), Deps{
		Store:     &fakeStore{err: errors.New("disk full")},
		Clipboard: &fakeClipboard{content: promptText},
	})

	m.pollClipboard(context.Background())
}
