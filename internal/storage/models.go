package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested prompt does not exist.
var ErrNotFound = errors.New("not found")

// PromptEntry is a captured prompt. ID is assigned once at creation and
// never reused; Timestamp is the capture instant and never mutates.
type PromptEntry struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	Application string    `json:"application"`
	Timestamp   time.Time `json:"timestamp"`
	Starred     bool      `json:"starred"`
	Tags        []string  `json:"tags"`
	UsageCount  int       `json:"usage_count"`
	IsEncrypted bool      `json:"is_encrypted"`
}

// PromptFilter is a conjunction of optional predicates for GetPrompts.
// Zero values (empty string, nil pointer) mean "no constraint".
type PromptFilter struct {
	Application string     `json:"application,omitempty"`
	Starred     *bool      `json:"starred,omitempty"`
	SearchText  string     `json:"search_text,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// PromptUpdate holds the partial-update fields for UpdatePrompt. Nil fields
// are left untouched; a non-nil empty Tags slice clears the tags.
type PromptUpdate struct {
	Content *string   `json:"content,omitempty"`
	Starred *bool     `json:"starred,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

// PromptStats aggregates usage statistics over the whole store.
type PromptStats struct {
	TotalPrompts    int64            `json:"total_prompts"`
	Applications    map[string]int64 `json:"applications"`
	StarredCount    int64            `json:"starred_count"`
	MostUsedPrompts []PromptEntry    `json:"most_used_prompts"`
	RecentActivity  []PromptEntry    `json:"recent_activity"`
}
