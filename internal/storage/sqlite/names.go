package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-sqlite3"
	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/pkg/log"
)

const maxDisplayNameRunes = 200

// NormalizeDisplayName trims and caps a name. The second value is false for blank input.
func NormalizeDisplayName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	if utf8.RuneCountInString(name) > maxDisplayNameRunes {
		name = strings.TrimSpace(string([]rune(name)[:maxDisplayNameRunes]))
	}
	return name, true
}

func nameKey(name string) string {
	return strings.ToLower(name)
}

// SetDisplayName assigns a name unique across conversations, ignoring case.
func (r *ConversationRepo) SetDisplayName(ctx context.Context, conversationID, name string) error {
	if err := validateID(conversationID); err != nil {
		return err
	}
	name, ok := NormalizeDisplayName(name)
	if !ok {
		return fmt.Errorf("%w: display name must not be blank", core.ErrValidation)
	}
	key := nameKey(name)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistenceErr("begin rename", err)
	}
	defer tx.Rollback()

	var owner string
	err = tx.QueryRowContext(ctx,
		`SELECT conversation_id FROM conversation_names WHERE name_key = ? AND conversation_id <> ?`,
		key, conversationID,
	).Scan(&owner)
	switch {
	case err == nil:
		return fmt.Errorf("%w: display name %q is used by conversation %s", core.ErrConflict, name, owner)
	case !isNoRows(err):
		return persistenceErr("check display name", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversation_names (conversation_id, display_name, name_key, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET
			display_name = excluded.display_name,
			name_key = excluded.name_key,
			updated_at = excluded.updated_at`,
		conversationID, name, key, r.now().UnixNano(),
	)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: display name %q is taken", core.ErrConflict, name)
		}
		return persistenceErr("store display name", err)
	}

	if err := tx.Commit(); err != nil {
		return persistenceErr("commit rename", err)
	}

	log.FromCtx(ctx).Debug().
		Str("conversation_id", conversationID).
		Str("display_name", name).
		Msg("display name set")
	return nil
}

// DisplayName returns "" when the conversation has no name.
func (r *ConversationRepo) DisplayName(ctx context.Context, conversationID string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx,
		`SELECT display_name FROM conversation_names WHERE conversation_id = ?`, conversationID,
	).Scan(&name)
	if isNoRows(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query display name: %w", err)
	}
	return name, nil
}
