package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/tuskmem/internal/core"
)

const (
	defaultSummaryLimit = 50

	summarySelect = `
		SELECT m.conversation_id,
		       COALESCE(n.display_name, ''),
		       MAX(MAX(m.created_at, m.last_modified_at)) AS last_activity,
		       COUNT(*) AS message_count
		FROM conversation_messages m
		LEFT JOIN conversation_names n ON n.conversation_id = m.conversation_id`

	summaryOrder = ` GROUP BY m.conversation_id ORDER BY last_activity DESC, m.conversation_id ASC`
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListSummaries pages through conversations, most recently active first.
// nameFilter matches display names or ids as a case-insensitive substring.
func (r *ConversationRepo) ListSummaries(ctx context.Context, nameFilter string, limit, offset int) ([]core.ConversationSummary, error) {
	if limit <= 0 {
		limit = defaultSummaryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return listSummaries(ctx, r.db, strings.TrimSpace(nameFilter), limit, offset)
}

func listSummaries(ctx context.Context, q queryer, nameFilter string, limit, offset int) ([]core.ConversationSummary, error) {
	query := summarySelect
	var args []any
	if nameFilter != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(nameFilter)) + "%"
		query += ` WHERE n.name_key LIKE ? ESCAPE '\' OR fold(m.conversation_id) LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern)
	}
	query += summaryOrder + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	summaries := make([]core.ConversationSummary, 0)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read summaries: %w", err)
	}
	return summaries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (core.ConversationSummary, error) {
	var (
		s        core.ConversationSummary
		activity int64
	)
	if err := row.Scan(&s.ConversationID, &s.DisplayName, &activity, &s.MessageCount); err != nil {
		return core.ConversationSummary{}, fmt.Errorf("failed to scan summary: %w", err)
	}
	s.LastActivity = time.Unix(0, activity).UTC()
	return s, nil
}

// Summary reports a single conversation. found is false when it has no messages.
func (r *ConversationRepo) Summary(ctx context.Context, conversationID string) (core.ConversationSummary, bool, error) {
	if err := validateID(conversationID); err != nil {
		return core.ConversationSummary{}, false, err
	}

	row := r.db.QueryRowContext(ctx, summarySelect+` WHERE m.conversation_id = ?`+summaryOrder, conversationID)
	s, err := scanSummary(row)
	if err != nil {
		if isNoRows(err) {
			return core.ConversationSummary{}, false, nil
		}
		return core.ConversationSummary{}, false, err
	}
	return s, true, nil
}

// MostRecentConversation reads the latest summary and its window from one snapshot.
func (r *ConversationRepo) MostRecentConversation(ctx context.Context) (core.Conversation, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Conversation{}, false, fmt.Errorf("failed to begin read: %w", err)
	}
	defer tx.Rollback()

	summaries, err := listSummaries(ctx, tx, "", 1, 0)
	if err != nil {
		return core.Conversation{}, false, err
	}
	if len(summaries) == 0 {
		return core.Conversation{}, false, nil
	}

	messages, err := loadWindow(ctx, tx, summaries[0].ConversationID)
	if err != nil {
		return core.Conversation{}, false, err
	}

	return core.Conversation{Summary: summaries[0], Messages: messages}, true, nil
}

// ConversationIDs lists every stored conversation, most recently active first.
func (r *ConversationRepo) ConversationIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT conversation_id
		FROM conversation_messages
		GROUP BY conversation_id
		ORDER BY MAX(MAX(created_at, last_modified_at)) DESC, conversation_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan conversation id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
