// Package config loads service configuration from the platform-native
// backend and environment variables.
package config

import (
	"strings"
)

type Config struct {
	Server  ServerConfig
	Monitor MonitorConfig
	Ollama  OllamaConfig
	Storage StorageConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type MonitorConfig struct {
	Enabled               bool
	MonitoredApplications []string
	CaptureThreshold      int
	AutoSave              bool
	EncryptionEnabled     bool
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Monitor: MonitorConfig{
			Enabled:               true,
			MonitoredApplications: []string{"ChatGPT", "Claude", "Cursor", "Grok", "Perplexity", "Ollama"},
			CaptureThreshold:      10,
			AutoSave:              true,
			EncryptionEnabled:     true,
		},
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
			Model:   "llama3.2",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, then applies
// environment overrides.
//
// On macOS the backend is UserDefaults (domain: com.prompthist.app).
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/prompthist/config.json.
//
// Environment variables (PROMPTHIST_*) override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}

// splitApps parses the comma-separated monitored-application list, dropping
// empty entries.
func splitApps(s string) []string {
	var apps []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			apps = append(apps, part)
		}
	}
	return apps
}
