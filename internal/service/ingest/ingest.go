package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/pkg/log"
	"github.com/sandevgo/tuskmem/pkg/textsplit"
)

// Source is one document to index. Path identifies it across re-ingestion.
type Source struct {
	Path     string
	Text     string
	Metadata core.Metadata
}

// Ingester splits documents into chunks, embeds them and writes them to a vector store.
type Ingester struct {
	embedder core.Embedder
	store    core.VectorStore
	split    textsplit.Config
}

func NewIngester(embedder core.Embedder, store core.VectorStore, split textsplit.Config) *Ingester {
	return &Ingester{embedder: embedder, store: store, split: split}
}

// Ingest returns the number of chunks written. Chunk ids derive from the path
// and chunk index, so ingesting the same path again overwrites its chunks.
func (i *Ingester) Ingest(ctx context.Context, src Source) (int, error) {
	if strings.TrimSpace(src.Path) == "" {
		return 0, fmt.Errorf("%w: source path is required", core.ErrValidation)
	}

	chunks := textsplit.Split(src.Text, i.split)
	if len(chunks) == 0 {
		return 0, nil
	}

	base := sourceMetadata(src)
	docs := make([]core.Document, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := i.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %d of %s: %w", chunk.Index, src.Path, err)
		}

		md := base.Clone()
		md["chunk"] = chunk.Index
		docs = append(docs, core.Document{
			ID:        ChunkID(src.Path, chunk.Index),
			Text:      chunk.Text,
			Embedding: vec,
			Metadata:  md,
		})
	}

	if err := i.store.Add(ctx, docs); err != nil {
		return 0, fmt.Errorf("failed to store chunks of %s: %w", src.Path, err)
	}

	log.FromCtx(ctx).Debug().Str("path", src.Path).Int("chunks", len(docs)).Msg("document ingested")
	return len(docs), nil
}

func ChunkID(path string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", path, index))).String()
}

// sourceMetadata fills the fields used by filtering and reranking unless the
// caller already set them.
func sourceMetadata(src Source) core.Metadata {
	md := src.Metadata.Clone()

	name := filepath.Base(src.Path)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))

	setDefault(md, "source", src.Path)
	setDefault(md, "repo_path", filepath.ToSlash(src.Path))
	setDefault(md, "title", strings.TrimSuffix(name, filepath.Ext(name)))
	if ext != "" {
		setDefault(md, core.ExtensionsField, ","+ext+",")
	}
	return md
}

func setDefault(md core.Metadata, key string, value any) {
	if _, ok := md[key]; !ok {
		md[key] = value
	}
}
