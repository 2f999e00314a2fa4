package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/internal/metrics"
	"github.com/sandevgo/tuskmem/internal/service/retrieval"
	"github.com/sandevgo/tuskmem/pkg/log"
)

type Retriever interface {
	Search(ctx context.Context, query string, k int, extension string) ([]core.SearchMatch, error)
	Augment(ctx context.Context, msg *core.Message, extension string) retrieval.Result
}

type Catalog interface {
	List(ctx context.Context, filter string, limit, offset int) ([]core.ConversationSummary, error)
	Get(ctx context.Context, conversationID string) (core.Conversation, error)
	MostRecent(ctx context.Context) (core.Conversation, bool, error)
	Delete(ctx context.Context, conversationID string) error
	Rename(ctx context.Context, conversationID, name string) error
	IDs(ctx context.Context) ([]string, error)
}

type Memory interface {
	Load(ctx context.Context, conversationID string) ([]core.Message, error)
	Append(ctx context.Context, conversationID string, msgs ...core.Message) ([]core.Message, error)
	Replace(ctx context.Context, conversationID string, msgs []core.Message) error
}

type Options struct {
	Addr string
	// Per-request deadline applied to every handler.
	RequestTimeout time.Duration
	// Result count used when a search request does not ask for one.
	DefaultResults int
}

// Server is the HTTP API. It implements srv.Service.
type Server struct {
	e         *echo.Echo
	opts      Options
	retriever Retriever
	catalog   Catalog
	memory    Memory
}

func NewServer(ctx context.Context, opts Options, retriever Retriever, catalog Catalog, memory Memory, m *metrics.Metrics) *Server {
	if opts.DefaultResults <= 0 {
		opts.DefaultResults = 4
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	s := &Server{
		e:         e,
		opts:      opts,
		retriever: retriever,
		catalog:   catalog,
		memory:    memory,
	}

	e.Use(middleware.Recover())
	e.Use(baseContext(ctx, opts.RequestTimeout))
	e.Use(requestLogger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	api := e.Group("/api")
	api.POST("/search", s.search)

	store := api.Group("/store")
	store.GET("/most-recent", s.mostRecent)
	store.GET("/messages/:id", s.getMessages)
	store.DELETE("/messages/:id", s.deleteMessages)
	store.GET("/chats", s.listChats)
	store.GET("/ids", s.listIDs)
	store.GET("/memoryIds", s.listIDs)
	store.PUT("/names/:id", s.rename)

	conv := api.Group("/conversations")
	conv.GET("/:id/window", s.getWindow)
	conv.PUT("/:id/window", s.replaceWindow)
	conv.POST("/:id/turns", s.addTurn)

	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("addr", s.opts.Addr).Msg("starting http api")
	if err := s.e.Start(s.opts.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
