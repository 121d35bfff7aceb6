// Package monitor orchestrates the capture pipeline: three independently
// scheduled polling loops feed clipboard content through the classifier,
// the capture threshold, and the dedup cache before it reaches the store.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/prompthist/prompthist/internal/classify"
	"github.com/prompthist/prompthist/internal/dedup"
	"github.com/prompthist/prompthist/internal/probe"
	"github.com/prompthist/prompthist/internal/storage"
)

// Polling cadences. Each loop ticks on its own schedule so a slow probe
// stalls only itself.
const (
	clipboardInterval = 1 * time.Second
	browserInterval   = 2 * time.Second
	processInterval   = 3 * time.Second

	// clipboardErrorLogInterval rate-limits clipboard failure logging so a
	// transiently unavailable clipboard doesn't flood the log at 1 Hz.
	clipboardErrorLogInterval = 60 * time.Second
)

// Config is the monitoring configuration. It is snapshotted when a session
// starts; edits are not observed until the monitor is restarted.
type Config struct {
	Enabled               bool     `json:"enabled"`
	MonitoredApplications []string `json:"monitored_applications"`
	CaptureThreshold      int      `json:"capture_threshold"`
	AutoSave              bool     `json:"auto_save"`
	EncryptionEnabled     bool     `json:"encryption_enabled"`
}

// DefaultConfig returns the stock monitoring configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:               true,
		MonitoredApplications: []string{"ChatGPT", "Claude", "Cursor", "Grok", "Perplexity", "Ollama"},
		CaptureThreshold:      10,
		AutoSave:              true,
		EncryptionEnabled:     true,
	}
}

// DetectedApplication is an AI application observed via a browser tab or a
// running process. Held only in memory for the lifetime of the monitor.
type DetectedApplication struct {
	Name         string    `json:"name"`
	ProcessName  string    `json:"process_name"`
	WindowTitle  string    `json:"window_title"`
	IsActive     bool      `json:"is_active"`
	LastActivity time.Time `json:"last_activity"`
}

// PromptStore is the persistence capability the monitor writes captures to.
type PromptStore interface {
	SavePrompt(storage.PromptEntry) error
}

// ContentCipher encrypts content before it is persisted. Optional.
type ContentCipher interface {
	Encrypt(plaintext string) (string, error)
}

// ClipboardReader, TabLister and ProcessLister mirror the probe package so
// tests can substitute fakes.
type ClipboardReader interface {
	Read(ctx context.Context) (string, error)
}

type TabLister interface {
	Tabs(ctx context.Context) ([]probe.Tab, error)
}

type ProcessLister interface {
	Poll(ctx context.Context) ([]probe.Process, error)
}

// Deps bundles the monitor's collaborators. Nil probe fields default to the
// platform implementations; a nil Cipher disables encryption at rest.
type Deps struct {
	Store     PromptStore
	Cipher    ContentCipher
	Clipboard ClipboardReader
	Browser   TabLister
	Processes ProcessLister
	Logger    *slog.Logger
}

// Monitor owns the run state, the dedup cache, and the detected-application
// list. All shared state is guarded by mu; the lock is never held across a
// probe call or a store write.
type Monitor struct {
	cfg       Config
	monitored map[string]bool
	store     PromptStore
	cipher    ContentCipher
	clipboard ClipboardReader
	browser   TabLister
	processes ProcessLister
	logger    *slog.Logger
	cache     *dedup.Cache
	now       func() time.Time

	mu               sync.Mutex
	running          bool
	cancel           context.CancelFunc
	detected         []DetectedApplication
	lastClipboardErr time.Time
}

// New creates a stopped Monitor with the given config snapshot.
func New(cfg Config, deps Deps) *Monitor {
	if deps.Clipboard == nil {
		deps.Clipboard = probe.NewClipboard()
	}
	if deps.Browser == nil {
		deps.Browser = probe.NewBrowser()
	}
	if deps.Processes == nil {
		deps.Processes = probe.NewProcesses()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	monitored := make(map[string]bool, len(cfg.MonitoredApplications))
	for _, app := range cfg.MonitoredApplications {
		monitored[app] = true
	}

	return &Monitor{
		cfg:       cfg,
		monitored: monitored,
		store:     deps.Store,
		cipher:    deps.Cipher,
		clipboard: deps.Clipboard,
		browser:   deps.Browser,
		processes: deps.Processes,
		logger:    deps.Logger,
		cache:     dedup.NewCache(),
		now:       time.Now,
	}
}

// Start transitions Stopped→Running and spawns the three polling loops.
// Idempotent: starting a running monitor is a no-op that reports success.
func (m *Monitor) Start() error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		m.logger.Info("monitoring already running, skipping start")
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.running = true
	m.cancel = cancel
	m.mu.Unlock()

	m.logger.Info("starting monitoring",
		"enabled", m.cfg.Enabled,
		"auto_save", m.cfg.AutoSave,
		"threshold", m.cfg.CaptureThreshold,
		"applications", m.cfg.MonitoredApplications,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { m.loop(ctx, clipboardInterval, m.pollClipboard); return nil })
	g.Go(func() error { m.loop(ctx, browserInterval, m.pollBrowserTabs); return nil })
	g.Go(func() error { m.loop(ctx, processInterval, m.pollProcesses); return nil })
	go g.Wait()

	return nil
}

// Stop flips the run flag; each loop observes it at the top of its next
// iteration. An in-flight probe call or store write is allowed to complete,
// so shutdown latency is bounded by the slowest probe.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return nil
	}
	m.running = false
	m.cancel()
	m.cancel = nil
	m.logger.Info("monitoring stopped")
	return nil
}

// IsRunning reports the monitor's run state.
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// DetectedApplications returns a copy of the detected-application list.
// Detections accumulate for the lifetime of the monitor; stale entries are
// not evicted.
func (m *Monitor) DetectedApplications() []DetectedApplication {
	m.mu.Lock()
	defer m.mu.Unlock()
	apps := make([]DetectedApplication, len(m.detected))
	copy(apps, m.detected)
	return apps
}

// loop runs tick on every interval until the context is cancelled. Ticks run
// synchronously, so cancellation takes effect between iterations and never
// interrupts a call already in flight. Tick errors never escape.
func (m *Monitor) loop(ctx context.Context, interval time.Duration, tick func(context.Context)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			// Probes get a fresh context: stopping the monitor must not
			// kill an external call that is already underway.
			tick(context.Background())
		}
	}
}

// pollClipboard is the capture path: classifier → threshold → dedup →
// optional encryption → store.
func (m *Monitor) pollClipboard(ctx context.Context) {
	if !m.cfg.Enabled {
		return
	}

	content, err := m.clipboard.Read(ctx)
	if err != nil {
		m.logClipboardError(err)
		return
	}
	if content == "" || !classify.LooksLikePrompt(content) {
		return
	}
	if len(content) < m.cfg.CaptureThreshold {
		m.logger.Debug("prompt below capture threshold", "length", len(content), "threshold", m.cfg.CaptureThreshold)
		return
	}

	now := m.now()
	if !m.cache.ShouldCapture(content, now) {
		m.logger.Debug("duplicate prompt suppressed", "length", len(content))
		return
	}
	if !m.cfg.AutoSave {
		m.logger.Debug("auto-save disabled, prompt not persisted")
		return
	}

	entry := storage.PromptEntry{
		ID:          uuid.New().String(),
		Content:     content,
		Application: "clipboard",
		Timestamp:   now,
		Tags:        []string{},
	}

	if m.cfg.EncryptionEnabled && m.cipher != nil {
		ciphertext, err := m.cipher.Encrypt(content)
		if err != nil {
			// Never fall back to writing plaintext when encryption was asked for.
			m.logger.Warn("encrypting captured prompt failed, entry dropped", "error", err)
			return
		}
		entry.Content = ciphertext
		entry.IsEncrypted = true
	}

	if err := m.store.SavePrompt(entry); err != nil {
		m.logger.Warn("saving captured prompt failed", "id", entry.ID, "error", err)
		return
	}
	m.logger.Info("captured prompt", "id", entry.ID, "length", len(content), "application", entry.Application)
}

func (m *Monitor) logClipboardError(err error) {
	m.mu.Lock()
	now := m.now()
	shouldLog := m.lastClipboardErr.IsZero() || now.Sub(m.lastClipboardErr) > clipboardErrorLogInterval
	if shouldLog {
		m.lastClipboardErr = now
	}
	m.mu.Unlock()

	if shouldLog {
		m.logger.Warn("reading clipboard failed", "error", err)
	}
}

func (m *Monitor) pollBrowserTabs(ctx context.Context) {
	if !m.cfg.Enabled {
		return
	}

	tabs, err := m.browser.Tabs(ctx)
	if err != nil {
		m.logger.Warn("enumerating browser tabs failed", "error", err)
		return
	}

	for _, tab := range tabs {
		name, ok := classify.IdentifyApp(tab.URL)
		if !ok || !m.monitored[name] {
			continue
		}
		m.addDetected(DetectedApplication{
			Name:         name,
			ProcessName:  tab.Browser,
			WindowTitle:  tab.Title,
			IsActive:     true,
			LastActivity: m.now(),
		}, true)
	}
}

func (m *Monitor) pollProcesses(ctx context.Context) {
	if !m.cfg.Enabled {
		return
	}

	procs, err := m.processes.Poll(ctx)
	if err != nil {
		m.logger.Warn("enumerating processes failed", "error", err)
		return
	}

	for _, proc := range procs {
		if !m.monitored[proc.Name] {
			continue
		}
		m.addDetected(DetectedApplication{
			Name:         proc.Name,
			ProcessName:  proc.Name,
			IsActive:     true,
			LastActivity: m.now(),
		}, false)
	}
}

// addDetected merges an observation into the detected-application list.
// Browser-sourced entries are unique by (name, window title); process-sourced
// entries by name alone.
func (m *Monitor) addDetected(app DetectedApplication, byTitle bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.detected {
		if existing.Name != app.Name {
			continue
		}
		if !byTitle || existing.WindowTitle == app.WindowTitle {
			return
		}
	}
	m.detected = append(m.detected, app)
	m.logger.Info("detected application", "name", app.Name, "process", app.ProcessName)
}
