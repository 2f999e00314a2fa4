package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sandevgo/tuskmem/internal/config"
	"github.com/sandevgo/tuskmem/internal/providers/embedding"
	"github.com/sandevgo/tuskmem/internal/service/ingest"
	"github.com/sandevgo/tuskmem/internal/storage"
	"github.com/sandevgo/tuskmem/pkg/log"
	"github.com/sandevgo/tuskmem/pkg/textsplit"
	"github.com/spf13/cobra"
)

const maxIngestFileSize = 2 << 20

var (
	chunkTokens   int
	overlapTokens int
)

var ingestCmd = &cobra.Command{
	Use:          "ingest PATH...",
	Short:        "Index files or directories into the vector store",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()
		logger := log.FromCtx(ctx)

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}
		appCfg := config.NewAppConfig(ctx)
		ragCfg := config.NewRAGConfig(ctx)
		embCfg := config.NewEmbeddingConfig(ctx)

		provider := storage.NewProvider(appCfg, ragCfg, config.NewPostgresConfig(ctx), config.NewRedisConfig(ctx))
		defer provider.Close()

		vectors, err := provider.Vectors(ctx)
		if err != nil {
			return err
		}
		embedder, closeEmbedder, err := embedding.New(embCfg)
		if err != nil {
			return err
		}
		defer closeEmbedder()

		ing := ingest.NewIngester(embedder, vectors, textsplit.Config{
			MaxTokens:     chunkTokens,
			OverlapTokens: overlapTokens,
		})

		var files, chunks int
		for _, root := range args {
			err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					if path != root && strings.HasPrefix(d.Name(), ".") {
						return filepath.SkipDir
					}
					return nil
				}

				text, ok, err := readText(path)
				if err != nil || !ok {
					return err
				}
				n, err := ing.Ingest(ctx, ingest.Source{Path: path, Text: text})
				if err != nil {
					return err
				}
				files++
				chunks += n
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to ingest %s: %w", root, err)
			}
		}

		logger.Info().Int("files", files).Int("chunks", chunks).Msg("ingestion complete")
		return nil
	},
}

// readText skips large and binary files.
func readText(path string) (string, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false, err
	}
	if info.Size() > maxIngestFileSize {
		return "", false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, err
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return "", false, nil
	}
	return string(data), true, nil
}

func init() {
	def := textsplit.DefaultConfig()
	ingestCmd.Flags().IntVar(&chunkTokens, "chunk-tokens", def.MaxTokens, "maximum tokens per chunk")
	ingestCmd.Flags().IntVar(&overlapTokens, "overlap-tokens", def.OverlapTokens, "tokens shared by consecutive chunks")
	rootCmd.AddCommand(ingestCmd)
}
