/*
Package service exposes the recall API over HTTP: capture, memory CRUD,
semantic search and memory-grounded chat.  Handlers stay thin; every piece
of behavior lives in the packages they delegate to.
*/
package service

import (
	stderrors "errors"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	"github.com/theapemachine/recall/pkg/analyzer"
	"github.com/theapemachine/recall/pkg/auth"
	"github.com/theapemachine/recall/pkg/chat"
	"github.com/theapemachine/recall/pkg/errors"
	"github.com/theapemachine/recall/pkg/provider"
	"github.com/theapemachine/recall/pkg/stores/qdrant"
	"github.com/theapemachine/recall/pkg/stores/sqlite"
)

type Server struct {
	app      *fiber.App
	store    *sqlite.Store
	analyzer *analyzer.Analyzer
	embedder provider.Embedder
	searcher chat.Searcher
	engine   *chat.Engine
	auth     *auth.Service
	mirror   *qdrant.Client
	addr     string
}

type Option func(*Server)

// WithAddr overrides the default listen address.
func WithAddr(addr string) Option {
	return func(srv *Server) {
		srv.addr = addr
	}
}

// WithMirror enables mirroring embeddings into a remote Qdrant collection.
func WithMirror(mirror *qdrant.Client) Option {
	return func(srv *Server) {
		srv.mirror = mirror
	}
}

func NewServer(
	store *sqlite.Store,
	anlzr *analyzer.Analyzer,
	embedder provider.Embedder,
	searcher chat.Searcher,
	engine *chat.Engine,
	authService *auth.Service,
	options ...Option,
) *Server {
	srv := &Server{
		app: fiber.New(fiber.Config{
			AppName:      "Recall",
			ServerHeader: "Recall-Server",
		}),
		store:    store,
		analyzer: anlzr,
		embedder: embedder,
		searcher: searcher,
		engine:   engine,
		auth:     authService,
		addr:     ":3000",
	}

	for _, option := range options {
		option(srv)
	}

	srv.routes()
	return srv
}

func (srv *Server) routes() {
	srv.app.Get("/health", func(ctx fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := srv.app.Group("/api", srv.requireOwner)

	api.Post("/memories", srv.handleCapture)
	api.Get("/memories", srv.handleList)
	api.Get("/memories/stats", srv.handleStats)
	api.Get("/memories/:id", srv.handleGet)
	api.Put("/memories/:id", srv.handleUpdate)
	api.Delete("/memories/:id", srv.handleDelete)

	api.Post("/search/semantic", srv.handleSearch)
	api.Post("/chat", srv.handleChat)
	api.Post("/chat/suggestions", srv.handleSuggestions)
}

// Run blocks serving the API until the listener fails.
func (srv *Server) Run() error {
	log.Info("starting recall server", "addr", srv.addr)
	return srv.app.Listen(srv.addr)
}

func (srv *Server) Shutdown() error {
	return srv.app.Shutdown()
}

// ok writes the success envelope every endpoint shares.
func ok(ctx fiber.Ctx, status int, data any) error {
	return ctx.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// fail translates an error into the failure envelope.  Coded errors carry
// their own HTTP status; anything unrecognized becomes a 500.
func fail(ctx fiber.Ctx, err error) error {
	var apiErr *errors.APIError

	if stderrors.As(err, &apiErr) {
		return ctx.Status(apiErr.Status).JSON(fiber.Map{
			"success": false,
			"message": apiErr.Message,
		})
	}

	log.Error("unhandled error", "path", ctx.Path(), "error", err)

	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "Internal server error",
	})
}
