package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/pkg/log"
)

const DefaultTable = "documents"

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,62}$`)

// Store is a core.VectorStore over a Postgres table with a pgvector column.
// Scores are cosine similarity mapped to [0, 1]: (2 - cosine distance) / 2.
type Store struct {
	db    *sql.DB
	table string
}

func NewStore(db *sql.DB, table string) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: invalid table name %q", core.ErrValidation, table)
	}
	return &Store{db: db, table: table}, nil
}

var _ core.VectorStore = (*Store)(nil)

// EnsureSchema creates the extension and table when missing.
func (s *Store) EnsureSchema(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive", core.ErrValidation)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  embedding_id UUID PRIMARY KEY,
  embedding vector(%d),
  text TEXT,
  metadata JSONB
)`, s.table, dimension)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create %s table: %w", s.table, err)
	}
	return nil
}

func (s *Store) searchQuery(f core.Filter) string {
	var b strings.Builder
	fmt.Fprintf(&b, `SELECT embedding_id, text, metadata, (2 - (embedding <=> $1)) / 2 AS score
FROM %s
WHERE (2 - (embedding <=> $1)) / 2 >= $2`, s.table)
	switch f.Kind {
	case core.FilterContainsSubstring:
		b.WriteString(`
  AND strpos(metadata->>$4, $5) > 0`)
	case core.FilterEquals:
		b.WriteString(`
  AND metadata->>$4 = $5`)
	}
	b.WriteString(`
ORDER BY embedding <=> $1
LIMIT $3`)
	return b.String()
}

func (s *Store) Search(ctx context.Context, q core.VectorQuery) ([]core.SearchMatch, error) {
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("%w: query vector must not be empty", core.ErrValidation)
	}
	if err := q.Filter.Validate(); err != nil {
		return nil, err
	}
	if q.MaxResults <= 0 {
		return []core.SearchMatch{}, nil
	}

	args := []any{pgvector.NewVector(q.Vector), q.MinScore, q.MaxResults}
	if !q.Filter.IsNone() {
		args = append(args, q.Filter.Field, q.Filter.Value)
	}

	rows, err := s.db.QueryContext(ctx, s.searchQuery(q.Filter), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}
	defer rows.Close()

	matches := make([]core.SearchMatch, 0, q.MaxResults)
	for rows.Next() {
		var (
			m        core.SearchMatch
			text     sql.NullString
			metaJSON []byte
		)
		if err := rows.Scan(&m.SourceID, &text, &metaJSON, &m.Score); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		m.Text = text.String
		m.Metadata = core.Metadata{}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &m.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata of %s: %w", m.SourceID, err)
			}
		}
		delete(m.Metadata, core.EmbeddingKey)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read matches: %w", err)
	}

	log.FromCtx(ctx).Debug().
		Int("matches", len(matches)).
		Str("filter", q.Filter.String()).
		Msg("pgvector search")
	return matches, nil
}

// Add upserts documents in one transaction. Empty ids get a random UUID.
func (s *Store) Add(ctx context.Context, docs []core.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ingest: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (embedding_id, embedding, text, metadata)
VALUES ($1, $2, $3, $4)
ON CONFLICT (embedding_id) DO UPDATE SET
  embedding = EXCLUDED.embedding,
  text = EXCLUDED.text,
  metadata = EXCLUDED.metadata`, s.table))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, doc := range docs {
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("%w: document %d has no embedding", core.ErrValidation, i)
		}
		id := doc.ID
		if id == "" {
			id = uuid.NewString()
		} else if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("%w: document id %q is not a uuid", core.ErrValidation, id)
		}
		meta, err := json.Marshal(doc.Metadata.Without(core.EmbeddingKey))
		if err != nil {
			return fmt.Errorf("failed to encode metadata of %s: %w", id, err)
		}
		if _, err := stmt.ExecContext(ctx, id, pgvector.NewVector(doc.Embedding), doc.Text, meta); err != nil {
			return fmt.Errorf("failed to insert document %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ingest: %w", err)
	}
	return nil
}
