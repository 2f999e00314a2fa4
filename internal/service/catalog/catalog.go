package catalog

import (
	"context"
	"fmt"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/pkg/log"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Catalog is the browsing surface over stored conversations.
type Catalog struct {
	store  core.MemoryStore
	locker core.Locker
}

func NewCatalog(store core.MemoryStore, locker core.Locker) *Catalog {
	return &Catalog{store: store, locker: locker}
}

// List returns summaries ordered by last activity, newest first. The filter
// matches display names and ids, ignoring case.
func (c *Catalog) List(ctx context.Context, filter string, limit, offset int) ([]core.ConversationSummary, error) {
	if limit < 0 || limit > MaxPageSize {
		return nil, fmt.Errorf("%w: limit must be between 0 and %d", core.ErrValidation, MaxPageSize)
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", core.ErrValidation)
	}
	if limit == 0 {
		limit = DefaultPageSize
	}

	summaries, err := c.store.ListSummaries(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return summaries, nil
}

// Get returns one conversation prepared for display, or core.ErrNotFound.
func (c *Catalog) Get(ctx context.Context, conversationID string) (core.Conversation, error) {
	summary, found, err := c.store.Summary(ctx, conversationID)
	if err != nil {
		return core.Conversation{}, fmt.Errorf("failed to load summary: %w", err)
	}
	if !found {
		return core.Conversation{}, fmt.Errorf("%w: conversation %s", core.ErrNotFound, conversationID)
	}

	window, err := c.store.LoadWindow(ctx, conversationID)
	if err != nil {
		return core.Conversation{}, fmt.Errorf("failed to load window: %w", err)
	}

	return core.Conversation{Summary: summary, Messages: BrowsingView(window)}, nil
}

// MostRecent returns the conversation with the latest activity. The second
// value is false when nothing is stored.
func (c *Catalog) MostRecent(ctx context.Context) (core.Conversation, bool, error) {
	conv, found, err := c.store.MostRecentConversation(ctx)
	if err != nil {
		return core.Conversation{}, false, fmt.Errorf("failed to load most recent conversation: %w", err)
	}
	if !found {
		return core.Conversation{}, false, nil
	}
	conv.Messages = BrowsingView(conv.Messages)
	return conv, true, nil
}

// Delete removes a conversation and its name. Unknown ids are not an error.
func (c *Catalog) Delete(ctx context.Context, conversationID string) error {
	unlock, err := c.locker.Lock(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("failed to lock conversation %s: %w", conversationID, err)
	}
	defer unlock()

	if err := c.store.DeleteConversation(ctx, conversationID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	log.FromCtx(ctx).Info().Str("conversation_id", conversationID).Msg("conversation deleted")
	return nil
}

func (c *Catalog) Rename(ctx context.Context, conversationID, name string) error {
	if err := c.store.SetDisplayName(ctx, conversationID, name); err != nil {
		return fmt.Errorf("failed to rename conversation: %w", err)
	}
	return nil
}

func (c *Catalog) IDs(ctx context.Context) ([]string, error) {
	ids, err := c.store.ConversationIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation ids: %w", err)
	}
	return ids, nil
}
