package server

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ChamsBouzaiene/documentor/internal/docstore"
)

const retrievalK = 3

func (s *Server) handleWelcome(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Welcome to the DocuMentor API. Upload a document, then ask questions about it.",
	})
}

// handleUpload accepts a multipart document, extracts its text, and ingests
// it into the store. The returned file_key scopes later queries.
func (s *Server) handleUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "No file provided.",
		})
	}

	if !docstore.SupportedExtension(file.Filename) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Only PDF, text, and markdown files are allowed.",
		})
	}

	// Spool the upload to disk so the extractors can work from a path.
	tmpPath := filepath.Join(os.TempDir(), uuid.NewString()+filepath.Ext(file.Filename))
	if err := c.SaveFile(file, tmpPath); err != nil {
		log.Printf("❌ Failed to save upload %q: %v", file.Filename, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to store uploaded file.",
		})
	}
	defer os.Remove(tmpPath)

	text, err := docstore.ExtractText(tmpPath)
	if err != nil {
		log.Printf("❌ Failed to extract %q: %v", file.Filename, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": fmt.Sprintf("Failed to extract text: %v", err),
		})
	}

	fileKey, err := s.store.Ingest(c.UserContext(), file.Filename, text)
	if err != nil {
		log.Printf("❌ Failed to ingest %q: %v", file.Filename, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": fmt.Sprintf("Failed to process document: %v", err),
		})
	}

	return c.JSON(fiber.Map{
		"status":   "success",
		"message":  fmt.Sprintf("%q processed and ready for questions.", file.Filename),
		"file_key": fileKey,
	})
}

// handleQuery retrieves passages for the given document and asks the model.
func (s *Server) handleQuery(c *fiber.Ctx) error {
	fileKey := c.FormValue("file_key")
	question := strings.TrimSpace(c.FormValue("question"))

	if fileKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "file_key is required.",
		})
	}
	if question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "question is required.",
		})
	}

	ctx := c.UserContext()

	exists, err := s.store.HasDocument(ctx, fileKey)
	if err != nil {
		log.Printf("❌ Document lookup failed for %s: %v", fileKey, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to look up document.",
		})
	}
	if !exists {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Document not found. Please upload it first.",
		})
	}

	passages, err := s.store.Search(ctx, fileKey, question, retrievalK)
	if err != nil {
		log.Printf("❌ Search failed for %s: %v", fileKey, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to search document.",
		})
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}

	answer, err := s.answerer.Answer(ctx, question, texts)
	if err != nil {
		log.Printf("❌ Answer generation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to generate answer.",
		})
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"answer": answer,
	})
}
