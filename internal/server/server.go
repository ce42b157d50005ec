package server

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/ChamsBouzaiene/documentor/internal/docstore"
)

// DocumentStore is the slice of the document store the handlers need.
type DocumentStore interface {
	Ingest(ctx context.Context, name, text string) (string, error)
	HasDocument(ctx context.Context, docID string) (bool, error)
	Search(ctx context.Context, docID, query string, k int) ([]docstore.Passage, error)
}

// Answerer generates an answer from a question and retrieved passages.
type Answerer interface {
	Answer(ctx context.Context, question string, passages []string) (string, error)
}

// Server is the HTTP face of the document Q&A service.
type Server struct {
	app      *fiber.App
	store    DocumentStore
	answerer Answerer
	addr     string
}

// Config configures a Server.
type Config struct {
	Addr     string
	Store    DocumentStore
	Answerer Answerer
}

// New builds the fiber app with all routes registered.
func New(cfg Config) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024, // 25MB uploads
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	s := &Server{
		app:      app,
		store:    cfg.Store,
		answerer: cfg.Answerer,
		addr:     cfg.Addr,
	}

	app.Get("/", s.handleWelcome)
	app.Post("/upload/", s.handleUpload)
	app.Post("/query/", s.handleQuery)

	return s
}

// App exposes the fiber app, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run blocks serving HTTP until Shutdown is called.
func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost%s", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
