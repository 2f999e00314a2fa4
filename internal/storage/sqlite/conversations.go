package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/pkg/log"
)

type ConversationRepo struct {
	db  *sql.DB
	now func() time.Time
}

type Option func(*ConversationRepo)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *ConversationRepo) {
		r.now = now
	}
}

func NewConversationRepo(db *sql.DB, opts ...Option) *ConversationRepo {
	r := &ConversationRepo{db: db, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ core.MemoryStore = (*ConversationRepo)(nil)

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", core.ErrPersistence, op, err)
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: conversation id is required", core.ErrValidation)
	}
	return nil
}

// LoadWindow returns the stored window in ordinal order. Unknown ids yield an empty window.
func (r *ConversationRepo) LoadWindow(ctx context.Context, conversationID string) ([]core.Message, error) {
	if err := validateID(conversationID); err != nil {
		return nil, err
	}
	return loadWindow(ctx, r.db, conversationID)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadWindow(ctx context.Context, q queryer, conversationID string) ([]core.Message, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT payload FROM conversation_messages WHERE conversation_id = ? ORDER BY ordinal ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query window: %w", err)
	}
	defer rows.Close()

	messages := make([]core.Message, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		var msg core.Message
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read window: %w", err)
	}

	return messages, nil
}

type storedRow struct {
	payload   string
	createdAt int64
}

// RewriteWindow atomically replaces the whole window. Messages get ordinals 0..N-1.
// Rows whose content is unchanged keep their creation time.
func (r *ConversationRepo) RewriteWindow(ctx context.Context, conversationID string, messages []core.Message) error {
	if err := validateID(conversationID); err != nil {
		return err
	}

	payloads := make([]string, len(messages))
	for i, msg := range messages {
		if !msg.Role.Valid() {
			return fmt.Errorf("%w: message %d has unknown role %q", core.ErrValidation, i, msg.Role)
		}
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to encode message %d: %w", i, err)
		}
		payloads[i] = string(data)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistenceErr("begin rewrite", err)
	}
	defer tx.Rollback()

	previous, err := r.storedRows(ctx, tx, conversationID)
	if err != nil {
		return persistenceErr("read previous window", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM conversation_messages WHERE conversation_id = ?`, conversationID); err != nil {
		return persistenceErr("clear window", err)
	}

	if len(payloads) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO conversation_messages (conversation_id, ordinal, role, payload, created_at, last_modified_at)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return persistenceErr("prepare insert", err)
		}
		defer stmt.Close()

		now := r.now().UnixNano()
		for i, payload := range payloads {
			createdAt := now
			if old, ok := previous[i]; ok && old.payload == payload {
				createdAt = old.createdAt
			}
			if _, err := stmt.ExecContext(ctx, conversationID, i, string(messages[i].Role), payload, createdAt, now); err != nil {
				return persistenceErr(fmt.Sprintf("insert message %d", i), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return persistenceErr("commit rewrite", err)
	}

	log.FromCtx(ctx).Debug().
		Str("conversation_id", conversationID).
		Int("messages", len(messages)).
		Msg("window rewritten")
	return nil
}

func (r *ConversationRepo) storedRows(ctx context.Context, tx *sql.Tx, conversationID string) (map[int]storedRow, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT ordinal, payload, created_at FROM conversation_messages WHERE conversation_id = ?`,
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]storedRow)
	for rows.Next() {
		var (
			ordinal int
			row     storedRow
		)
		if err := rows.Scan(&ordinal, &row.payload, &row.createdAt); err != nil {
			return nil, err
		}
		out[ordinal] = row
	}
	return out, rows.Err()
}

// DeleteConversation removes the window and its display name together.
func (r *ConversationRepo) DeleteConversation(ctx context.Context, conversationID string) error {
	if err := validateID(conversationID); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistenceErr("begin delete", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM conversation_messages WHERE conversation_id = ?`, conversationID); err != nil {
		return persistenceErr("delete messages", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conversation_names WHERE conversation_id = ?`, conversationID); err != nil {
		return persistenceErr("delete display name", err)
	}

	if err := tx.Commit(); err != nil {
		return persistenceErr("commit delete", err)
	}

	log.FromCtx(ctx).Debug().Str("conversation_id", conversationID).Msg("conversation deleted")
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
