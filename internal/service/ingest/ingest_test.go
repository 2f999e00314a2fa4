package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/internal/providers/embedding"
	"github.com/sandevgo/tuskmem/internal/storage/chromem"
	"github.com/sandevgo/tuskmem/pkg/textsplit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIngester(t *testing.T) (*Ingester, *chromem.Store, core.Embedder) {
	t.Helper()
	store, err := chromem.New("", "docs")
	require.NoError(t, err)
	embedder := embedding.NewHash(64)
	return NewIngester(embedder, store, textsplit.Config{MaxTokens: 40, OverlapTokens: 0}), store, embedder
}

func TestIngest_SearchableWithExtensionFilter(t *testing.T) {
	ctx := context.Background()
	ing, store, embedder := newTestIngester(t)

	goText := "Migrations run through goose on startup."
	n, err := ing.Ingest(ctx, Source{Path: "docs/storage/db.go", Text: goText})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = ing.Ingest(ctx, Source{Path: "README.md", Text: "Project overview and setup notes."})
	require.NoError(t, err)

	vec, err := embedder.Embed(ctx, goText)
	require.NoError(t, err)

	matches, err := store.Search(ctx, core.VectorQuery{Vector: vec, MaxResults: 5, Filter: core.ExtensionFilter("go")})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, ChunkID("docs/storage/db.go", 0), matches[0].SourceID)
	assert.Equal(t, "db", matches[0].Metadata.String("title"))
	assert.Equal(t, "docs/storage/db.go", matches[0].Metadata.String("repo_path"))
	assert.InDelta(t, 1.0, matches[0].Score, 1e-3)
}

func TestIngest_ChunksLongText(t *testing.T) {
	ing, _, _ := newTestIngester(t)

	text := strings.Repeat("The window keeps the newest messages in order. ", 30)
	n, err := ing.Ingest(context.Background(), Source{Path: "notes.txt", Text: text})
	require.NoError(t, err)
	assert.Greater(t, n, 1)
}

func TestIngest_Validation(t *testing.T) {
	ing, _, _ := newTestIngester(t)

	_, err := ing.Ingest(context.Background(), Source{Text: "no path"})
	assert.True(t, errors.Is(err, core.ErrValidation))

	n, err := ing.Ingest(context.Background(), Source{Path: "empty.md", Text: "   "})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSourceMetadata_KeepsCallerValues(t *testing.T) {
	md := sourceMetadata(Source{
		Path:     "src/Main.JAVA",
		Metadata: core.Metadata{"title": "Entry point", "topics": []string{"startup"}},
	})

	assert.Equal(t, "Entry point", md["title"])
	assert.Equal(t, ",java,", md[core.ExtensionsField])
	assert.Equal(t, []string{"startup"}, md["topics"])
}

func TestChunkID_Stable(t *testing.T) {
	assert.Equal(t, ChunkID("a.md", 2), ChunkID("a.md", 2))
	assert.NotEqual(t, ChunkID("a.md", 2), ChunkID("a.md", 3))
}
