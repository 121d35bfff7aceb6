package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prompthist/prompthist/internal/config"
	"github.com/prompthist/prompthist/internal/crypto"
	"github.com/prompthist/prompthist/internal/keyring"
)

type promptView struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Application string   `json:"application"`
	Timestamp   string   `json:"timestamp"`
	Starred     bool     `json:"starred"`
	Tags        []string `json:"tags"`
	UsageCount  int64    `json:"usage_count"`
	IsEncrypted bool     `json:"is_encrypted"`
}

func printPromptLine(p promptView) {
	content := p.Content
	if len(content) > 80 {
		content = content[:80] + "..."
	}
	star := " "
	if p.Starred {
		star = colorize(colorYellow, "★")
	}
	fmt.Printf("%s %s  %s  %-10s  %s\n",
		star,
		colorize(colorCyan, p.ID[:8]),
		p.Timestamp,
		p.Application,
		content,
	)
}

// --- save ---

var saveCmd = &cobra.Command{
	Use:   "save [content]",
	Short: "Save a prompt into the history",
	Long: `Save a prompt into the history.

Examples:
  prompthist save "Write a haiku about Go" --application ChatGPT --tags poetry
  prompthist save --file ./prompt.txt --starred
  prompthist save "secret prompt" --encrypt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		application, _ := cmd.Flags().GetString("application")
		tagsStr, _ := cmd.Flags().GetString("tags")
		starred, _ := cmd.Flags().GetBool("starred")
		encrypt, _ := cmd.Flags().GetBool("encrypt")

		var content string
		switch {
		case len(args) > 0:
			content = strings.Join(args, " ")
		case file != "":
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			content = string(data)
		default:
			return fmt.Errorf("content argument or --file is required")
		}

		var tags []string
		if tagsStr != "" {
			tags = strings.Split(tagsStr, ",")
			for i := range tags {
				tags[i] = strings.TrimSpace(tags[i])
			}
		}

		req := map[string]any{
			"content": content,
			"starred": starred,
			"encrypt": encrypt,
		}
		if application != "" {
			req["application"] = application
		}
		if tags != nil {
			req["tags"] = tags
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/prompts", req)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Saved prompt %s", result["id"])
		return nil
	},
}

func init() {
	saveCmd.Flags().String("file", "", "file path to read the prompt from")
	saveCmd.Flags().String("application", "", "application the prompt belongs to")
	saveCmd.Flags().String("tags", "", "comma-separated tags")
	saveCmd.Flags().Bool("starred", false, "star the prompt")
	saveCmd.Flags().Bool("encrypt", false, "encrypt the prompt at rest")
}

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored prompts",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, _ := cmd.Flags().GetString("application")
		starredOnly, _ := cmd.Flags().GetBool("starred")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		q := url.Values{}
		q.Set("limit", fmt.Sprintf("%d", limit))
		if application != "" {
			q.Set("application", application)
		}
		if starredOnly {
			q.Set("starred", "true")
		}

		resp, err := client.get(cmd.Context(), "/prompts?"+q.Encode())
		if err != nil {
			return err
		}

		var prompts []promptView
		if err := decodeJSON(resp, &prompts); err != nil {
			return err
		}

		if len(prompts) == 0 {
			fmt.Println("No prompts found.")
			return nil
		}
		for _, p := range prompts {
			printPromptLine(p)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().String("application", "", "filter by application")
	listCmd.Flags().Bool("starred", false, "show only starred prompts")
	listCmd.Flags().Int("limit", 20, "maximum number of prompts to list")
}

// --- show ---

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single prompt as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/prompts/"+args[0])
		if err != nil {
			return err
		}

		var prompt any
		if err := decodeJSON(resp, &prompt); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(prompt)
	},
}

// --- search ---

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search the prompt history",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/prompts/search?q=%s&limit=%d", url.QueryEscape(query), limit)
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var prompts []promptView
		if err := decodeJSON(resp, &prompts); err != nil {
			return err
		}

		if len(prompts) == 0 {
			fmt.Println("No results found.")
			return nil
		}
		for _, p := range prompts {
			printPromptLine(p)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("limit", 20, "maximum number of results")
}

// --- update ---

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a prompt's content, star, or tags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{}
		if cmd.Flags().Changed("content") {
			content, _ := cmd.Flags().GetString("content")
			body["content"] = content
		}
		if cmd.Flags().Changed("starred") {
			starred, _ := cmd.Flags().GetBool("starred")
			body["starred"] = starred
		}
		if cmd.Flags().Changed("tags") {
			tagsStr, _ := cmd.Flags().GetString("tags")
			tags := []string{}
			if tagsStr != "" {
				for _, t := range strings.Split(tagsStr, ",") {
					tags = append(tags, strings.TrimSpace(t))
				}
			}
			body["tags"] = tags
		}
		if len(body) == 0 {
			return fmt.Errorf("nothing to update: pass --content, --starred, or --tags")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.patch(cmd.Context(), "/prompts/"+args[0], body)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Updated prompt %s", args[0])
		return nil
	},
}

func init() {
	updateCmd.Flags().String("content", "", "replacement content")
	updateCmd.Flags().Bool("starred", false, "star (true) or unstar (false) the prompt")
	updateCmd.Flags().String("tags", "", "comma-separated replacement tags")
}

// --- delete ---

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/prompts/"+args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted prompt %s", args[0])
		return nil
	},
}

// --- stats ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show prompt history statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/prompts/stats")
		if err != nil {
			return err
		}

		var stats struct {
			TotalPrompts int64            `json:"total_prompts"`
			Applications map[string]int64 `json:"applications"`
			StarredCount int64            `json:"starred_count"`
		}
		if err := decodeJSON(resp, &stats); err != nil {
			return err
		}

		printStatus("Total prompts", "%d", stats.TotalPrompts)
		printStatus("Starred", "%d", stats.StarredCount)
		for app, count := range stats.Applications {
			printStatus(app, "%d", count)
		}
		return nil
	},
}

// --- monitor ---

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Control the capture monitor",
}

var monitorStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start monitoring",
	RunE: func(cmd *cobra.Command, args []string) error {
		return monitorAction(cmd.Context(), "/monitoring/start", "Monitoring started")
	},
}

var monitorStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop monitoring",
	RunE: func(cmd *cobra.Command, args []string) error {
		return monitorAction(cmd.Context(), "/monitoring/stop", "Monitoring stopped")
	},
}

var monitorStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show monitoring state",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/monitoring/status")
		if err != nil {
			return err
		}

		var status struct {
			Running bool `json:"running"`
		}
		if err := decodeJSON(resp, &status); err != nil {
			return err
		}

		if status.Running {
			printStatus("Monitoring", "running")
		} else {
			printStatus("Monitoring", "stopped")
		}
		return nil
	},
}

var monitorAppsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List detected AI applications",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/monitoring/applications")
		if err != nil {
			return err
		}

		var apps []struct {
			Name         string `json:"name"`
			ProcessName  string `json:"process_name"`
			WindowTitle  string `json:"window_title"`
			LastActivity string `json:"last_activity"`
		}
		if err := decodeJSON(resp, &apps); err != nil {
			return err
		}

		if len(apps) == 0 {
			fmt.Println("No applications detected.")
			return nil
		}
		for _, a := range apps {
			title := a.WindowTitle
			if len(title) > 60 {
				title = title[:60] + "..."
			}
			fmt.Printf("%s  %-14s  %s\n", colorize(colorBold, a.Name), a.ProcessName, title)
		}
		return nil
	},
}

func monitorAction(ctx context.Context, path, success string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	resp, err := client.post(ctx, path, nil)
	if err != nil {
		return err
	}

	var result map[string]string
	if err := decodeJSON(resp, &result); err != nil {
		return err
	}

	printSuccess("%s", success)
	return nil
}

func init() {
	monitorCmd.AddCommand(monitorStartCmd)
	monitorCmd.AddCommand(monitorStopCmd)
	monitorCmd.AddCommand(monitorStatusCmd)
	monitorCmd.AddCommand(monitorAppsCmd)
}

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the local model a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		model, _ := cmd.Flags().GetString("model")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]any{"question": question}
		if model != "" {
			body["model"] = model
		}

		resp, err := client.post(cmd.Context(), "/ask", body)
		if err != nil {
			return err
		}

		var result struct {
			Answer string `json:"answer"`
			Model  string `json:"model"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result.Answer)
		return nil
	},
}

func init() {
	askCmd.Flags().String("model", "", "override the configured model")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// --- key ---

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the encryption key",
}

var keyDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the encryption key from the secret store",
	Long: `Delete the encryption key from the secret store.

Prompts already encrypted with this key become permanently unreadable.
A fresh key is generated the next time the server starts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This makes all encrypted prompts unreadable. Use --confirm to proceed.")
			return nil
		}

		engine, err := crypto.NewEngine(keyring.Open())
		if err != nil {
			return err
		}
		if err := engine.SecureDeleteKey(); err != nil {
			return err
		}

		printSuccess("Encryption key deleted")
		return nil
	},
}

func init() {
	keyDeleteCmd.Flags().Bool("confirm", false, "confirm key deletion")
	keyCmd.AddCommand(keyDeleteCmd)
}
