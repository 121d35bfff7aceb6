package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/prompthist/prompthist/internal/api"
	"github.com/prompthist/prompthist/internal/config"
	"github.com/prompthist/prompthist/internal/crypto"
	"github.com/prompthist/prompthist/internal/keyring"
	"github.com/prompthist/prompthist/internal/monitor"
	"github.com/prompthist/prompthist/internal/ollama"
	"github.com/prompthist/prompthist/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the prompthist server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running prompthist server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show prompthist system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "prompthist.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "prompthist version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	secrets := keyring.Open()

	// Ensure API token exists in the platform secret store.
	apiToken, err := api.EnsureAPIToken(secrets)
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("prompthist is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("prompthist is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open storage.
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	// Set up the crypto engine; the key is created on first use.
	engine, err := crypto.NewEngine(secrets)
	if err != nil {
		return fmt.Errorf("initializing crypto engine: %w", err)
	}

	// Local model is optional; the server runs without it.
	ollamaClient := ollama.New(cfg.Ollama.BaseURL)
	var generator api.Generator
	if ollamaClient.IsRunning(ctx) {
		generator = ollamaClient
		slog.Info("ollama available", "base_url", cfg.Ollama.BaseURL, "model", cfg.Ollama.Model)
	} else {
		slog.Warn("ollama not reachable, /ask disabled", "base_url", cfg.Ollama.BaseURL)
	}

	// Build the monitor and start it when enabled.
	var cipher monitor.ContentCipher
	if cfg.Monitor.EncryptionEnabled {
		cipher = engine
	}
	mon := monitor.New(monitor.Config{
		Enabled:               cfg.Monitor.Enabled,
		MonitoredApplications: cfg.Monitor.MonitoredApplications,
		CaptureThreshold:      cfg.Monitor.CaptureThreshold,
		AutoSave:              cfg.Monitor.AutoSave,
		EncryptionEnabled:     cfg.Monitor.EncryptionEnabled,
	}, monitor.Deps{
		Store:  store,
		Cipher: cipher,
	})
	if cfg.Monitor.Enabled {
		if err := mon.Start(); err != nil {
			return fmt.Errorf("starting monitor: %w", err)
		}
		defer mon.Stop()
	}

	handler := api.NewHandler(api.AppDeps{
		Store:       store,
		Cipher:      engine,
		Monitor:     mon,
		Generator:   generator,
		OllamaModel: cfg.Ollama.Model,
		Token:       apiToken,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Build and start the MCP server (stdio transport in a goroutine).
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Store:  store,
		Cipher: engine,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "prompthist listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("prompthist is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop prompthist (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to prompthist (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	// Check server health.
	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	serverUp := false
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			serverUp = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	// Check Ollama.
	ollamaResp, err := client.Get(cfg.Ollama.BaseURL + "/api/version")
	if err != nil {
		printStatus("Ollama", "not running")
	} else {
		ollamaResp.Body.Close()
		printStatus("Ollama", "running at %s", cfg.Ollama.BaseURL)
	}
	printStatus("Model", "%s", cfg.Ollama.Model)

	// Show prompt count and monitoring state if the server is running.
	if serverUp {
		if apiClt, err := newAPIClient(); err == nil {
			ctx := context.Background()

			if statsResp, err := apiClt.get(ctx, "/prompts/stats"); err == nil {
				var stats struct {
					TotalPrompts int64 `json:"total_prompts"`
					StarredCount int64 `json:"starred_count"`
				}
				if decodeJSON(statsResp, &stats) == nil {
					printStatus("Prompts", "%d (%d starred)", stats.TotalPrompts, stats.StarredCount)
				}
			}

			if monResp, err := apiClt.get(ctx, "/monitoring/status"); err == nil {
				var mon struct {
					Running bool `json:"running"`
				}
				if decodeJSON(monResp, &mon) == nil {
					if mon.Running {
						printStatus("Monitoring", "running")
					} else {
						printStatus("Monitoring", "stopped")
					}
				}
			}
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
