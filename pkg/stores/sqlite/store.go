/*
Package sqlite persists memories in a SQLite database.  One table holds
the memories themselves (tags and embeddings encoded as JSON), a second
keeps a per-owner running total that capture and delete maintain.
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/theapemachine/recall/pkg/errors"
	"github.com/theapemachine/recall/pkg/memory"
)

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	id               TEXT PRIMARY KEY,
	owner_id         TEXT NOT NULL,
	url              TEXT NOT NULL,
	title            TEXT NOT NULL,
	domain           TEXT NOT NULL,
	favicon          TEXT NOT NULL DEFAULT '',
	page_type        TEXT NOT NULL DEFAULT '',
	selected_text    TEXT NOT NULL DEFAULT '',
	summary          TEXT NOT NULL,
	intent           TEXT NOT NULL,
	tags             TEXT NOT NULL DEFAULT '[]',
	importance       INTEGER NOT NULL DEFAULT 3,
	embedding        TEXT,
	revisit_count    INTEGER NOT NULL DEFAULT 0,
	last_accessed_at DATETIME,
	user_notes       TEXT NOT NULL DEFAULT '',
	captured_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_memories_owner ON memories(owner_id);
CREATE INDEX IF NOT EXISTS idx_memories_owner_captured ON memories(owner_id, captured_at DESC);

CREATE TABLE IF NOT EXISTS owner_stats (
	owner_id       TEXT PRIMARY KEY,
	total_memories INTEGER NOT NULL DEFAULT 0
);
`

const memoryColumns = `id, owner_id, url, title, domain, favicon, page_type, selected_text,
	summary, intent, tags, importance, embedding, revisit_count, last_accessed_at, user_notes, captured_at`

// Store implements memory persistence backed by a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Pass ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return NewStore(db)
}

// NewStore wraps an already-opened database and applies the schema.
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Create persists a new memory and bumps the owner's total.  A missing ID
// is generated; CapturedAt defaults to now.
func (s *Store) Create(ctx context.Context, m *memory.Memory) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CapturedAt.IsZero() {
		m.CapturedAt = time.Now().UTC()
	}
	m.Importance = memory.ClampImportance(m.Importance)

	tags, err := json.Marshal(m.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	embedding, err := encodeEmbedding(m.Embedding)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO memories (`+memoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.OwnerID, m.URL, m.Title, m.Domain, m.Favicon, m.PageType, m.SelectedText,
		m.Summary, string(m.Intent), string(tags), m.Importance, embedding,
		m.RevisitCount, m.LastAccessedAt, m.UserNotes, m.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO owner_stats (owner_id, total_memories) VALUES (?, 1)
		ON CONFLICT(owner_id) DO UPDATE SET total_memories = total_memories + 1`,
		m.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("bump owner total: %w", err)
	}

	return tx.Commit()
}

// Get fetches one memory, scoped to its owner.
func (s *Store) Get(ctx context.Context, id, ownerID string) (memory.Memory, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+memoryColumns+` FROM memories WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)

	return scanMemory(row)
}

// Touch records an access: revisit count up by one, last accessed now.
func (s *Store) Touch(ctx context.Context, id, ownerID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE memories
		SET revisit_count = revisit_count + 1, last_accessed_at = ?
		WHERE id = ? AND owner_id = ?`,
		time.Now().UTC(), id, ownerID,
	)
	if err != nil {
		return err
	}

	return requireRowChanged(res)
}

// UpdateParams carries the user-editable fields; nil means "leave as is".
type UpdateParams struct {
	UserNotes  *string  `json:"userNotes"`
	Importance *int     `json:"importance"`
	Tags       []string `json:"tags"`
}

// Update applies user edits to a memory.
func (s *Store) Update(ctx context.Context, id, ownerID string, params UpdateParams) error {
	current, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return err
	}

	if params.UserNotes != nil {
		current.UserNotes = *params.UserNotes
	}
	if params.Importance != nil {
		current.Importance = memory.ClampImportance(*params.Importance)
	}
	if params.Tags != nil {
		current.Tags = params.Tags
	}

	tags, err := json.Marshal(current.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE memories SET user_notes = ?, importance = ?, tags = ?
		WHERE id = ? AND owner_id = ?`,
		current.UserNotes, current.Importance, string(tags), id, ownerID,
	)
	if err != nil {
		return err
	}

	return requireRowChanged(res)
}

// Delete removes a memory and decrements the owner's total.
func (s *Store) Delete(ctx context.Context, id, ownerID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM memories WHERE id = ? AND owner_id = ?`, id, ownerID,
	)
	if err != nil {
		return err
	}

	if err := requireRowChanged(res); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE owner_stats SET total_memories = MAX(total_memories - 1, 0)
		WHERE owner_id = ?`,
		ownerID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ListQuery filters and paginates a plain listing.
type ListQuery struct {
	Tag    string
	Intent string
	Page   int
	Limit  int
}

// List returns one page of the owner's memories, newest first, plus the
// total count for the applied filter.
func (s *Store) List(ctx context.Context, ownerID string, query ListQuery) ([]memory.Memory, int, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 {
		query.Limit = 20
	}

	where := "owner_id = ?"
	args := []any{ownerID}

	if query.Intent != "" {
		where += " AND intent = ?"
		args = append(args, query.Intent)
	}
	if query.Tag != "" {
		where += " AND EXISTS (SELECT 1 FROM json_each(memories.tags) WHERE json_each.value = ?)"
		args = append(args, query.Tag)
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM memories WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+memoryColumns+` FROM memories WHERE `+where+`
		ORDER BY captured_at DESC LIMIT ? OFFSET ?`,
		append(args, query.Limit, (query.Page-1)*query.Limit)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	memories, err := collectMemories(rows)
	if err != nil {
		return nil, 0, err
	}

	return memories, total, nil
}

// ListEmbedded returns every memory of the owner that has an embedding,
// the candidate set for semantic search.
func (s *Store) ListEmbedded(ctx context.Context, ownerID string) ([]memory.Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+memoryColumns+` FROM memories
		WHERE owner_id = ? AND embedding IS NOT NULL
		ORDER BY captured_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMemories(rows)
}

// TagCount pairs a tag with how many of the owner's memories carry it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// IntentCount pairs an intent with its number of memories.
type IntentCount struct {
	Intent string `json:"intent"`
	Count  int    `json:"count"`
}

// Stats aggregates an owner's collection.
type Stats struct {
	Total         int           `json:"total"`
	AvgImportance float64       `json:"avgImportance"`
	TotalRevisits int           `json:"totalRevisits"`
	TopTags       []TagCount    `json:"topTags"`
	Intents       []IntentCount `json:"intentDistribution"`
}

// Stats computes the owner's aggregate overview, top-10 tags and intent
// distribution.
func (s *Store) Stats(ctx context.Context, ownerID string) (Stats, error) {
	var stats Stats

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(AVG(importance), 0), COALESCE(SUM(revisit_count), 0)
		FROM memories WHERE owner_id = ?`,
		ownerID,
	).Scan(&stats.Total, &stats.AvgImportance, &stats.TotalRevisits)
	if err != nil {
		return Stats{}, err
	}

	tagRows, err := s.db.QueryContext(ctx, `
		SELECT json_each.value, COUNT(*) AS n
		FROM memories, json_each(memories.tags)
		WHERE owner_id = ?
		GROUP BY json_each.value
		ORDER BY n DESC, json_each.value ASC
		LIMIT 10`,
		ownerID,
	)
	if err != nil {
		return Stats{}, err
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var tc TagCount
		if err := tagRows.Scan(&tc.Tag, &tc.Count); err != nil {
			return Stats{}, err
		}
		stats.TopTags = append(stats.TopTags, tc)
	}
	if err := tagRows.Err(); err != nil {
		return Stats{}, err
	}

	intentRows, err := s.db.QueryContext(ctx, `
		SELECT intent, COUNT(*) AS n FROM memories
		WHERE owner_id = ?
		GROUP BY intent
		ORDER BY n DESC`,
		ownerID,
	)
	if err != nil {
		return Stats{}, err
	}
	defer intentRows.Close()

	for intentRows.Next() {
		var ic IntentCount
		if err := intentRows.Scan(&ic.Intent, &ic.Count); err != nil {
			return Stats{}, err
		}
		stats.Intents = append(stats.Intents, ic)
	}

	return stats, intentRows.Err()
}

// OwnerTotal reads the maintained per-owner memory counter.
func (s *Store) OwnerTotal(ctx context.Context, ownerID string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE((SELECT total_memories FROM owner_stats WHERE owner_id = ?), 0)`,
		ownerID,
	).Scan(&total)
	return total, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (memory.Memory, error) {
	var (
		m            memory.Memory
		intent       string
		tags         string
		embedding    sql.NullString
		lastAccessed sql.NullTime
	)

	err := row.Scan(
		&m.ID, &m.OwnerID, &m.URL, &m.Title, &m.Domain, &m.Favicon, &m.PageType, &m.SelectedText,
		&m.Summary, &intent, &tags, &m.Importance, &embedding,
		&m.RevisitCount, &lastAccessed, &m.UserNotes, &m.CapturedAt,
	)
	if err == sql.ErrNoRows {
		return memory.Memory{}, errors.ErrNotFound
	}
	if err != nil {
		return memory.Memory{}, err
	}

	m.Intent, _ = memory.ParseIntent(intent)

	if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
		return memory.Memory{}, fmt.Errorf("decode tags: %w", err)
	}

	if embedding.Valid {
		if err := json.Unmarshal([]byte(embedding.String), &m.Embedding); err != nil {
			return memory.Memory{}, fmt.Errorf("decode embedding: %w", err)
		}
	}

	if lastAccessed.Valid {
		t := lastAccessed.Time
		m.LastAccessedAt = &t
	}

	return m, nil
}

func collectMemories(rows *sql.Rows) ([]memory.Memory, error) {
	memories := []memory.Memory{}

	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}

	return memories, rows.Err()
}

func encodeEmbedding(embedding []float32) (any, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	encoded, err := json.Marshal(embedding)
	if err != nil {
		return nil, err
	}

	return string(encoded), nil
}

func requireRowChanged(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.ErrNotFound
	}
	return nil
}
