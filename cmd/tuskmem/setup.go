package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/tuskmem/internal/config"
	"github.com/sandevgo/tuskmem/internal/metrics"
	"github.com/sandevgo/tuskmem/internal/providers/embedding"
	"github.com/sandevgo/tuskmem/internal/service/catalog"
	"github.com/sandevgo/tuskmem/internal/service/memory"
	"github.com/sandevgo/tuskmem/internal/service/retrieval"
	"github.com/sandevgo/tuskmem/internal/storage"
	"github.com/sandevgo/tuskmem/internal/transport/mcp"
	"github.com/sandevgo/tuskmem/internal/transport/rest"
	"github.com/sandevgo/tuskmem/pkg/log"
	"github.com/sandevgo/tuskmem/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	ragCfg := config.NewRAGConfig(ctx)
	embCfg := config.NewEmbeddingConfig(ctx)

	// 2. Storage
	provider := storage.NewProvider(appCfg, ragCfg, config.NewPostgresConfig(ctx), config.NewRedisConfig(ctx))
	services = append(services, srv.NewCleanup(provider.Close))

	repo, err := provider.Conversations(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open conversation store")
	}
	vectors, err := provider.Vectors(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open vector store")
	}
	locker, err := provider.Locker(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize conversation locks")
	}

	// 3. Embeddings
	embedder, closeEmbedder, err := embedding.New(embCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize embedder")
	}
	services = append(services, srv.NewCleanup(closeEmbedder))

	// 4. Retrieval and memory
	m := metrics.New()
	engine := retrieval.NewEngine(vectors, retrieval.NewReranker(retrieval.DefaultSynonyms()), m)
	injector := retrieval.NewInjector(ragCfg.SnippetLimit, ragCfg.MaxResults)
	retriever := retrieval.NewRetriever(embedder, engine, injector, ragCfg, m)

	mem := memory.NewMemory(repo, locker, appCfg.GetWindowSize(), m)
	cat := catalog.NewCatalog(repo, locker)

	// 5. Transports
	services = append(services, rest.NewServer(ctx, rest.Options{
		Addr:           appCfg.GetHTTPAddr(),
		RequestTimeout: appCfg.GetRequestTimeout(),
		DefaultResults: ragCfg.MaxResults,
	}, retriever, cat, mem, m))

	if t := mcp.TransportType(appCfg.MCPTransport); t != mcp.TransportOff {
		mcpServer, err := mcp.NewServer(t, appCfg.MCPAddr, retriever, ragCfg.MaxResults)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize mcp server")
		}
		services = append(services, mcpServer)
	}

	return services
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
