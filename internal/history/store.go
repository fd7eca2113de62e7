// Package history persists conversations and their messages in SQL backends
// (SQLite or Postgres). The store powers the /v1/conversations API and the
// conversation-history plugin.
package history

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	// Register Postgres SQL driver.
	_ "github.com/lib/pq"
	// Register SQLite SQL driver.
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("conversation not found")

// Message is one stored chat turn. Provider, Model, token counts, and the
// degraded flag describe how an assistant turn was produced; all are zero for
// user turns.
type Message struct {
	ID               int64     `json:"id"`
	Role             string    `json:"role"`
	Content          string    `json:"content"`
	Provider         string    `json:"provider,omitempty"`
	Model            string    `json:"model,omitempty"`
	PromptTokens     int       `json:"prompt_tokens,omitempty"`
	CompletionTokens int       `json:"completion_tokens,omitempty"`
	Degraded         bool      `json:"degraded,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Conversation is the summary row for one conversation.
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// Store is the persistence interface for conversation history.
type Store interface {
	// Append adds messages to a conversation, creating it on first write.
	// A generated ID is returned when convID is empty.
	Append(ctx context.Context, convID string, msgs []Message) (string, error)
	List(ctx context.Context) ([]Conversation, error)
	Get(ctx context.Context, convID string) (*Conversation, []Message, error)
	Delete(ctx context.Context, convID string) error
	Close() error
}

type sqlDialect string

const (
	dialectSQLite   sqlDialect = "sqlite"
	dialectPostgres sqlDialect = "postgres"
)

// SQLStore is the SQL-backed Store implementation.
type SQLStore struct {
	db      *sql.DB
	dialect sqlDialect
}

// NewSQLite creates a SQLite-backed history store.
// dsn can be a file path (e.g. /var/lib/gawin/history.db) or SQLite DSN.
func NewSQLite(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "gawin-history.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history store: %w", err)
	}
	store := &SQLStore{db: db, dialect: dialectSQLite}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgres creates a Postgres-backed history store.
func NewPostgres(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres history store: %w", err)
	}
	store := &SQLStore{db: db, dialect: dialectPostgres}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLStore) init() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("ping %s history store: %w", s.dialect, err)
	}

	var ddl string
	switch s.dialect {
	case dialectPostgres:
		ddl = `
CREATE TABLE IF NOT EXISTS conversations (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS conversation_messages (
	id BIGSERIAL PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	provider TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	prompt_tokens INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	degraded BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversation_messages_conv ON conversation_messages(conversation_id);`
	default:
		ddl = `
CREATE TABLE IF NOT EXISTS conversations (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS conversation_messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	provider TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	prompt_tokens INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	degraded BOOLEAN NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversation_messages_conv ON conversation_messages(conversation_id);`
	}

	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("initialize %s history schema: %w", s.dialect, err)
	}
	return nil
}

// Append implements Store.
func (s *SQLStore) Append(ctx context.Context, convID string, msgs []Message) (string, error) {
	if len(msgs) == 0 {
		return convID, nil
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin append: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if convID == "" {
		convID, err = generateConversationID()
		if err != nil {
			return "", err
		}
	}

	var exists int
	q := s.bind(`SELECT COUNT(1) FROM conversations WHERE id = ?`)
	if err := tx.QueryRowContext(ctx, q, convID).Scan(&exists); err != nil {
		return "", fmt.Errorf("check conversation: %w", err)
	}
	if exists == 0 {
		q = s.bind(`INSERT INTO conversations(id, title, created_at, updated_at) VALUES(?, ?, ?, ?)`)
		if _, err := tx.ExecContext(ctx, q, convID, titleFor(msgs), now, now); err != nil {
			return "", fmt.Errorf("create conversation: %w", err)
		}
	} else {
		q = s.bind(`UPDATE conversations SET updated_at = ? WHERE id = ?`)
		if _, err := tx.ExecContext(ctx, q, now, convID); err != nil {
			return "", fmt.Errorf("touch conversation: %w", err)
		}
	}

	q = s.bind(`
INSERT INTO conversation_messages(conversation_id, role, content, provider, model, prompt_tokens, completion_tokens, degraded, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, m := range msgs {
		if _, err := tx.ExecContext(ctx, q, convID, m.Role, m.Content, m.Provider, m.Model, m.PromptTokens, m.CompletionTokens, m.Degraded, now); err != nil {
			return "", fmt.Errorf("append message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit append: %w", err)
	}
	return convID, nil
}

// List implements Store. Conversations are returned newest-first.
func (s *SQLStore) List(ctx context.Context) ([]Conversation, error) {
	q := `
SELECT c.id, c.title, c.created_at, c.updated_at, COUNT(m.id)
FROM conversations c
LEFT JOIN conversation_messages m ON m.conversation_id = c.id
GROUP BY c.id, c.title, c.created_at, c.updated_at
ORDER BY c.updated_at DESC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	convs := make([]Conversation, 0)
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt, &c.MessageCount); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// Get implements Store. Messages are returned in insertion order.
func (s *SQLStore) Get(ctx context.Context, convID string) (*Conversation, []Message, error) {
	q := s.bind(`SELECT id, title, created_at, updated_at FROM conversations WHERE id = ?`)
	var c Conversation
	err := s.db.QueryRowContext(ctx, q, convID).Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get conversation: %w", err)
	}

	q = s.bind(`
SELECT id, role, content, provider, model, prompt_tokens, completion_tokens, degraded, created_at
FROM conversation_messages
WHERE conversation_id = ?
ORDER BY id ASC`)
	rows, err := s.db.QueryContext(ctx, q, convID)
	if err != nil {
		return nil, nil, fmt.Errorf("get conversation messages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	msgs := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.Provider, &m.Model, &m.PromptTokens, &m.CompletionTokens, &m.Degraded, &m.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	c.MessageCount = len(msgs)
	return &c, msgs, rows.Err()
}

// Delete implements Store.
func (s *SQLStore) Delete(ctx context.Context, convID string) error {
	// SQLite needs the child rows removed explicitly unless foreign keys
	// are enabled on the connection.
	q := s.bind(`DELETE FROM conversation_messages WHERE conversation_id = ?`)
	if _, err := s.db.ExecContext(ctx, q, convID); err != nil {
		return fmt.Errorf("delete conversation messages: %w", err)
	}
	q = s.bind(`DELETE FROM conversations WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, convID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) bind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var (
		b      strings.Builder
		argNum = 1
	)
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			b.WriteString(fmt.Sprintf("$%d", argNum))
			argNum++
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// titleFor derives a conversation title from the first user turn.
func titleFor(msgs []Message) string {
	for _, m := range msgs {
		if m.Role != "user" {
			continue
		}
		title := strings.TrimSpace(m.Content)
		if len(title) > 64 {
			title = title[:64]
		}
		if title != "" {
			return title
		}
	}
	return "New conversation"
}

func generateConversationID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating conversation id: %w", err)
	}
	return "conv-" + hex.EncodeToString(b), nil
}
