// Package api exposes the local HTTP surface: prompt CRUD, full-text search,
// statistics, monitoring control, and a small question-answering endpoint
// backed by a local Ollama model.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prompthist/prompthist/internal/monitor"
	"github.com/prompthist/prompthist/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Cipher encrypts and decrypts prompt content.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Generator abstracts the local model call behind POST /ask.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// AppDeps holds the handler dependencies.
type AppDeps struct {
	Store       *storage.Store
	Cipher      Cipher // optional; if nil, encrypted entries are returned as stored
	Monitor     *monitor.Monitor
	Generator   Generator // optional; if nil, POST /ask returns 503
	OllamaModel string
	Token       string
}

// NewHandler returns the full API router. Everything except /health requires
// the bearer token.
func NewHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/prompts", handleSavePrompt(deps))
		r.Get("/prompts", handleListPrompts(deps))
		r.Get("/prompts/search", handleSearchPrompts(deps))
		r.Get("/prompts/stats", handleStats(deps))
		r.Get("/prompts/{id}", handleGetPrompt(deps))
		r.Patch("/prompts/{id}", handleUpdatePrompt(deps))
		r.Delete("/prompts/{id}", handleDeletePrompt(deps))
		r.Post("/prompts/{id}/usage", handleIncrementUsage(deps))

		r.Post("/monitoring/start", handleMonitoringStart(deps))
		r.Post("/monitoring/stop", handleMonitoringStop(deps))
		r.Get("/monitoring/status", handleMonitoringStatus(deps))
		r.Get("/monitoring/applications", handleMonitoringApplications(deps))

		r.Post("/ask", handleAsk(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type savePromptRequest struct {
	Content     string   `json:"content"`
	Application string   `json:"application"`
	Tags        []string `json:"tags"`
	Starred     bool     `json:"starred"`
	Encrypt     bool     `json:"encrypt"`
}

func handleSavePrompt(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req savePromptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if req.Content == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "content is required")
			return
		}
		if req.Application == "" {
			req.Application = "manual"
		}
		if req.Tags == nil {
			req.Tags = []string{}
		}

		entry := storage.PromptEntry{
			ID:          uuid.New().String(),
			Content:     req.Content,
			Application: req.Application,
			Timestamp:   time.Now().UTC(),
			Starred:     req.Starred,
			Tags:        req.Tags,
		}

		if req.Encrypt {
			if deps.Cipher == nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "encryption is not configured")
				return
			}
			ciphertext, err := deps.Cipher.Encrypt(req.Content)
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to encrypt content: %v", err)
				return
			}
			entry.Content = ciphertext
			entry.IsEncrypted = true
		}

		if err := deps.Store.SavePrompt(entry); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save prompt: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": entry.ID, "status": "saved"})
	}
}

func handleListPrompts(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := storage.PromptFilter{
			Application: q.Get("application"),
			SearchText:  q.Get("search"),
		}
		if s := q.Get("starred"); s != "" {
			if b, err := strconv.ParseBool(s); err == nil {
				filter.Starred = &b
			}
		}
		if s := q.Get("start_date"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid start_date: %v", err)
				return
			}
			filter.StartDate = &t
		}
		if s := q.Get("end_date"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid end_date: %v", err)
				return
			}
			filter.EndDate = &t
		}

		limit := parseIntParam(r, "limit", 50, 500)
		offset := parseIntParam(r, "offset", 0, 0)

		prompts, err := deps.Store.GetPrompts(filter, limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list prompts: %v", err)
			return
		}

		if prompts == nil {
			prompts = []storage.PromptEntry{}
		}
		for i := range prompts {
			decryptEntry(deps.Cipher, &prompts[i])
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(prompts)
	}
}

func handleGetPrompt(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		entry, err := deps.Store.GetPromptByID(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "prompt not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get prompt: %v", err)
			return
		}

		decryptEntry(deps.Cipher, &entry)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entry)
	}
}

type updatePromptRequest struct {
	Content *string   `json:"content"`
	Starred *bool     `json:"starred"`
	Tags    *[]string `json:"tags"`
}

func handleUpdatePrompt(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req updatePromptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		update := storage.PromptUpdate{
			Content: req.Content,
			Starred: req.Starred,
			Tags:    req.Tags,
		}

		err := deps.Store.UpdatePrompt(id, update)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "prompt not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to update prompt: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "updated"})
	}
}

func handleDeletePrompt(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Store.DeletePrompt(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "prompt not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete prompt: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

func handleSearchPrompts(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "q is required")
			return
		}

		limit := parseIntParam(r, "limit", 50, 500)

		prompts, err := deps.Store.SearchPrompts(query, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "search failed: %v", err)
			return
		}

		if prompts == nil {
			prompts = []storage.PromptEntry{}
		}
		for i := range prompts {
			decryptEntry(deps.Cipher, &prompts[i])
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(prompts)
	}
}

func handleStats(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := deps.Store.Stats()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to compute stats: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	}
}

func handleIncrementUsage(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Store.IncrementUsage(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "prompt not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to increment usage: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "incremented"})
	}
}

func handleMonitoringStart(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Monitor.Start(); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to start monitoring: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "started"})
	}
}

func handleMonitoringStop(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Monitor.Stop(); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to stop monitoring: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "stopped"})
	}
}

func handleMonitoringStatus(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"running": deps.Monitor.IsRunning()})
	}
}

func handleMonitoringApplications(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apps := deps.Monitor.DetectedApplications()
		if apps == nil {
			apps = []monitor.DetectedApplication{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(apps)
	}
}

type askRequest struct {
	Question string `json:"question"`
	Model    string `json:"model"`
}

func handleAsk(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Generator == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "local model is not configured")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Question == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "question is required")
			return
		}

		model := req.Model
		if model == "" {
			model = deps.OllamaModel
		}

		answer, err := deps.Generator.Generate(r.Context(), model, req.Question)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "generation failed: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"answer": answer, "model": model})
	}
}

// decryptEntry replaces ciphertext with plaintext when a cipher is available.
// A failed decrypt leaves the entry as stored; is_encrypted stays true so the
// caller can tell.
func decryptEntry(c Cipher, entry *storage.PromptEntry) {
	if c == nil || !entry.IsEncrypted {
		return
	}
	plaintext, err := c.Decrypt(entry.Content)
	if err != nil {
		return
	}
	entry.Content = plaintext
	entry.IsEncrypted = false
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
