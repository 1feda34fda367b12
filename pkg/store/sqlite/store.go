// Package sqlite persists conversations in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/go-go-golems/pleader/pkg/conversation"
)

const schema = `
PRAGMA foreign_keys = ON;
CREATE TABLE IF NOT EXISTS chats (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chats_updated ON chats(updated_at);

CREATE TABLE IF NOT EXISTS messages (
	chat_id TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	sender TEXT NOT NULL CHECK (sender IN ('user', 'assistant')),
	content TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	PRIMARY KEY (chat_id, seq)
);
`

type Store struct {
	db *sql.DB
}

// Open creates the database file and its directory when needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "create database directory")
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create schema")
	}

	log.Debug().Str("path", path).Msg("opened conversation store")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateChat(ctx context.Context, chat *conversation.Conversation) error {
	return s.CreateChatWithMessages(ctx, chat)
}

// CreateChatWithMessages inserts the chat and its first messages in one
// transaction, a failed message insert leaves no chat behind.
func (s *Store) CreateChatWithMessages(ctx context.Context, chat *conversation.Conversation, msgs ...conversation.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO chats (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		chat.ID, chat.Title, chat.CreatedAt.UnixNano(), chat.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return errors.Wrapf(err, "insert chat %s", chat.ID)
	}

	if err := insertMessages(ctx, tx, chat.ID, 0, msgs); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "commit")
}

// AppendMessages adds messages after the existing ones and bumps updated_at.
func (s *Store) AppendMessages(ctx context.Context, chatID string, updatedAt time.Time, msgs ...conversation.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `UPDATE chats SET updated_at = ? WHERE id = ?`, updatedAt.UnixNano(), chatID)
	if err != nil {
		return errors.Wrapf(err, "touch chat %s", chatID)
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "get rows affected")
	} else if n == 0 {
		return errors.Wrapf(conversation.ErrNotFound, "chat %s", chatID)
	}

	var next int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), -1) + 1 FROM messages WHERE chat_id = ?`, chatID,
	).Scan(&next); err != nil {
		return errors.Wrapf(err, "next sequence for chat %s", chatID)
	}

	if err := insertMessages(ctx, tx, chatID, next, msgs); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "commit")
}

func insertMessages(ctx context.Context, tx *sql.Tx, chatID string, first int64, msgs []conversation.Message) error {
	for i, m := range msgs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO messages (chat_id, seq, sender, content, timestamp) VALUES (?, ?, ?, ?, ?)`,
			chatID, first+int64(i), string(m.Sender), m.Content, m.Timestamp.UnixNano(),
		)
		if err != nil {
			return errors.Wrapf(err, "insert message into chat %s", chatID)
		}
	}
	return nil
}

func (s *Store) GetChat(ctx context.Context, id string) (*conversation.Conversation, error) {
	var chat conversation.Conversation
	var createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM chats WHERE id = ?`, id,
	).Scan(&chat.ID, &chat.Title, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(conversation.ErrNotFound, "chat %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "scan chat %s", id)
	}
	chat.CreatedAt = fromNanos(createdAt)
	chat.UpdatedAt = fromNanos(updatedAt)

	rows, err := s.db.QueryContext(ctx,
		`SELECT sender, content, timestamp FROM messages WHERE chat_id = ? ORDER BY seq`, id,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "query messages of chat %s", id)
	}
	defer func() {
		_ = rows.Close()
	}()

	chat.Messages = []conversation.Message{}
	for rows.Next() {
		var m conversation.Message
		var sender string
		var ts int64
		if err := rows.Scan(&sender, &m.Content, &ts); err != nil {
			return nil, errors.Wrap(err, "scan message")
		}
		m.Sender = conversation.Sender(sender)
		m.Timestamp = fromNanos(ts)
		chat.Messages = append(chat.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate messages")
	}

	return &chat, nil
}

// ListChats returns the most recently updated chats first.
func (s *Store) ListChats(ctx context.Context, limit int) ([]conversation.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, updated_at FROM chats ORDER BY updated_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query chats")
	}
	defer func() {
		_ = rows.Close()
	}()

	ret := []conversation.Summary{}
	for rows.Next() {
		var item conversation.Summary
		var updatedAt int64
		if err := rows.Scan(&item.ID, &item.Title, &updatedAt); err != nil {
			return nil, errors.Wrap(err, "scan chat summary")
		}
		item.UpdatedAt = fromNanos(updatedAt)
		ret = append(ret, item)
	}
	return ret, errors.Wrap(rows.Err(), "iterate chats")
}

func (s *Store) DeleteChat(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "delete chat %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "get rows affected")
	}
	if n == 0 {
		return errors.Wrapf(conversation.ErrNotFound, "chat %s", id)
	}
	return nil
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
