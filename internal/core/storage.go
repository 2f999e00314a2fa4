package core

import (
	"context"
	"time"
)

type VectorQuery struct {
	Vector     []float32
	MaxResults int
	MinScore   float64
	Filter     Filter
}

// Document is a unit of ingestion into a vector store.
type Document struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  Metadata
}

// VectorStore returns matches ordered by similarity, highest first. Scores are in [0, 1].
type VectorStore interface {
	Search(ctx context.Context, q VectorQuery) ([]SearchMatch, error)
	Add(ctx context.Context, docs []Document) error
}

type ConversationSummary struct {
	ConversationID string    `json:"id"`
	DisplayName    string    `json:"displayName,omitempty"`
	LastActivity   time.Time `json:"lastActivity"`
	MessageCount   int       `json:"messageCount"`
}

type Conversation struct {
	Summary  ConversationSummary `json:"summary"`
	Messages []Message           `json:"messages"`
}

type MemoryStore interface {
	LoadWindow(ctx context.Context, conversationID string) ([]Message, error)
	RewriteWindow(ctx context.Context, conversationID string, messages []Message) error
	DeleteConversation(ctx context.Context, conversationID string) error
	SetDisplayName(ctx context.Context, conversationID, name string) error
	ListSummaries(ctx context.Context, nameFilter string, limit, offset int) ([]ConversationSummary, error)
	Summary(ctx context.Context, conversationID string) (ConversationSummary, bool, error)
	MostRecentConversation(ctx context.Context) (Conversation, bool, error)
	ConversationIDs(ctx context.Context) ([]string, error)
}
