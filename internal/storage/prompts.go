package storage

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/prompthist/prompthist/internal/apperr"
)

// promptColumns is the select list shared by every prompt read path.
const promptColumns = "id, content, application, timestamp, starred, tags, usage_count, is_encrypted"

// SavePrompt inserts a new prompt. Insert-only: a duplicate ID is an error,
// existing rows are never overwritten.
func (s *Store) SavePrompt(p PromptEntry) error {
	tagsJSON, err := json.Marshal(p.Tags)
	if err != nil {
		return apperr.Wrap(apperr.KindStorage, err, "marshalling tags")
	}

	_, err = s.db.Exec(`
		INSERT INTO prompts (id, content, application, timestamp, starred, tags, usage_count, is_encrypted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Content, p.Application, p.Timestamp.UTC().Format(time.RFC3339),
		boolToInt(p.Starred), string(tagsJSON), p.UsageCount, boolToInt(p.IsEncrypted),
	)
	return apperr.Wrap(apperr.KindStorage, err, "saving prompt %s", p.ID)
}

// GetPrompts returns prompts matching the filter, newest first. All filter
// predicates are optional and combine as a conjunction. limit <= 0 means no
// limit; offset applies after ordering.
func (s *Store) GetPrompts(filter PromptFilter, limit, offset int) ([]PromptEntry, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + promptColumns + " FROM prompts WHERE 1=1")
	var args []any

	if filter.Application != "" {
		sb.WriteString(" AND application = ?")
		args = append(args, filter.Application)
	}
	if filter.Starred != nil {
		if *filter.Starred {
			sb.WriteString(" AND starred IN (1, '1', 'true')")
		} else {
			sb.WriteString(" AND starred NOT IN (1, '1', 'true')")
		}
	}
	if filter.SearchText != "" {
		sb.WriteString(" AND rowid IN (SELECT rowid FROM prompts_fts WHERE prompts_fts MATCH ?)")
		args = append(args, filter.SearchText)
	}
	if filter.StartDate != nil {
		sb.WriteString(" AND timestamp >= ?")
		args = append(args, filter.StartDate.UTC().Format(time.RFC3339))
	}
	if filter.EndDate != nil {
		sb.WriteString(" AND timestamp <= ?")
		args = append(args, filter.EndDate.UTC().Format(time.RFC3339))
	}

	sb.WriteString(" ORDER BY timestamp DESC")
	if limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, limit)
		if offset > 0 {
			sb.WriteString(" OFFSET ?")
			args = append(args, offset)
		}
	}

	rows, err := s.db.Query(sb.String(), args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, err, "querying prompts")
	}
	defer rows.Close()

	return scanPrompts(rows)
}

// GetPromptByID returns the prompt with the given ID, or ErrNotFound.
func (s *Store) GetPromptByID(id string) (PromptEntry, error) {
	row := s.db.QueryRow("SELECT "+promptColumns+" FROM prompts WHERE id = ?", id)
	p, err := scanPrompt(row.Scan)
	if err == sql.ErrNoRows {
		return PromptEntry{}, ErrNotFound
	}
	if err != nil {
		return PromptEntry{}, apperr.Wrap(apperr.KindStorage, err, "getting prompt %s", id)
	}
	return p, nil
}

// UpdatePrompt applies a partial update: only non-nil fields change, and
// updated_at is refreshed whenever any field is set. Providing no fields is
// a silent no-op. The FTS triggers re-index the row as part of the UPDATE.
func (s *Store) UpdatePrompt(id string, u PromptUpdate) error {
	var sets []string
	var args []any

	if u.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *u.Content)
	}
	if u.Starred != nil {
		sets = append(sets, "starred = ?")
		args = append(args, boolToInt(*u.Starred))
	}
	if u.Tags != nil {
		tagsJSON, err := json.Marshal(*u.Tags)
		if err != nil {
			return apperr.Wrap(apperr.KindStorage, err, "marshalling tags")
		}
		sets = append(sets, "tags = ?")
		args = append(args, string(tagsJSON))
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	res, err := s.db.Exec("UPDATE prompts SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return apperr.Wrap(apperr.KindStorage, err, "updating prompt %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Wrap(apperr.KindStorage, err, "updating prompt %s", id)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePrompt removes the prompt; the FTS delete trigger removes its index
// entry in the same statement.
func (s *Store) DeletePrompt(id string) error {
	res, err := s.db.Exec("DELETE FROM prompts WHERE id = ?", id)
	if err != nil {
		return apperr.Wrap(apperr.KindStorage, err, "deleting prompt %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Wrap(apperr.KindStorage, err, "deleting prompt %s", id)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchPrompts runs a full-text query against the companion index, ranked
// by FTS5 relevance rather than recency. limit <= 0 defaults to 50.
func (s *Store) SearchPrompts(query string, limit int) ([]PromptEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT p.id, p.content, p.application, p.timestamp, p.starred, p.tags, p.usage_count, p.is_encrypted
		FROM prompts p
		JOIN prompts_fts fts ON p.rowid = fts.rowid
		WHERE prompts_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, err, "searching prompts")
	}
	defer rows.Close()

	return scanPrompts(rows)
}

// Stats returns aggregate statistics: totals, per-application counts, the
// ten most used prompts, and the ten most recent.
func (s *Store) Stats() (PromptStats, error) {
	var stats PromptStats

	if err := s.db.QueryRow("SELECT COUNT(*) FROM prompts").Scan(&stats.TotalPrompts); err != nil {
		return stats, apperr.Wrap(apperr.KindStorage, err, "counting prompts")
	}

	// Tolerate legacy textual boolean encodings when counting.
	if err := s.db.QueryRow("SELECT COUNT(*) FROM prompts WHERE starred IN (1, '1', 'true')").Scan(&stats.StarredCount); err != nil {
		return stats, apperr.Wrap(apperr.KindStorage, err, "counting starred prompts")
	}

	rows, err := s.db.Query("SELECT application, COUNT(*) FROM prompts GROUP BY application")
	if err != nil {
		return stats, apperr.Wrap(apperr.KindStorage, err, "counting per application")
	}
	defer rows.Close()

	stats.Applications = make(map[string]int64)
	for rows.Next() {
		var app string
		var count int64
		if err := rows.Scan(&app, &count); err != nil {
			return stats, apperr.Wrap(apperr.KindStorage, err, "scanning application count")
		}
		stats.Applications[app] = count
	}
	if err := rows.Err(); err != nil {
		return stats, apperr.Wrap(apperr.KindStorage, err, "iterating application counts")
	}

	mostUsed, err := s.queryPrompts("SELECT " + promptColumns + " FROM prompts ORDER BY usage_count DESC LIMIT 10")
	if err != nil {
		return stats, err
	}
	stats.MostUsedPrompts = mostUsed

	recent, err := s.queryPrompts("SELECT " + promptColumns + " FROM prompts ORDER BY timestamp DESC LIMIT 10")
	if err != nil {
		return stats, err
	}
	stats.RecentActivity = recent

	return stats, nil
}

// IncrementUsage bumps usage_count by one and refreshes updated_at in a
// single statement.
func (s *Store) IncrementUsage(id string) error {
	res, err := s.db.Exec(
		"UPDATE prompts SET usage_count = usage_count + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	if err != nil {
		return apperr.Wrap(apperr.KindStorage, err, "incrementing usage for %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Wrap(apperr.KindStorage, err, "incrementing usage for %s", id)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) queryPrompts(query string, args ...any) ([]PromptEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, err, "querying prompts")
	}
	defer rows.Close()
	return scanPrompts(rows)
}

func scanPrompts(rows *sql.Rows) ([]PromptEntry, error) {
	var prompts []PromptEntry
	for rows.Next() {
		p, err := scanPrompt(rows.Scan)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindStorage, err, "scanning prompt row")
		}
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, err, "iterating prompt rows")
	}
	return prompts, nil
}

func scanPrompt(scan func(...any) error) (PromptEntry, error) {
	var p PromptEntry
	var timestamp, tagsJSON string
	var starred, encrypted any

	if err := scan(&p.ID, &p.Content, &p.Application, &timestamp, &starred, &tagsJSON, &p.UsageCount, &encrypted); err != nil {
		return PromptEntry{}, err
	}

	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return PromptEntry{}, apperr.Wrap(apperr.KindStorage, err, "parsing timestamp for %s", p.ID)
	}
	p.Timestamp = t

	if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
		// Malformed tags degrade to an empty list rather than losing the row.
		p.Tags = nil
	}

	p.Starred = columnBool(starred)
	p.IsEncrypted = columnBool(encrypted)
	return p, nil
}

// columnBool decodes a boolean column tolerating both the integer encoding
// this code writes and textual "1"/"true" values written by older versions.
func columnBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case string:
		return x == "1" || strings.EqualFold(x, "true")
	case []byte:
		s := string(x)
		return s == "1" || strings.EqualFold(s, "true")
	default:
		return false
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
