package api

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docanalyzer/logger"
	"docanalyzer/store"
	"docanalyzer/types"
)

// Ingestor accepts a stored file for background processing.
type Ingestor interface {
	Submit(docID uuid.UUID, path string) error
}

type DocumentHandler struct {
	meta      store.DBStorer
	vectors   store.VectorStorer
	ingestor  Ingestor
	uploadDir string
	indexName string
	log       *logger.Logger
}

func NewDocumentHandler(meta store.DBStorer, vectors store.VectorStorer, ingestor Ingestor, uploadDir, indexName string, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		meta:      meta,
		vectors:   vectors,
		ingestor:  ingestor,
		uploadDir: uploadDir,
		indexName: indexName,
		log:       log,
	}
}

// HandleUpload stores the file, creates the tracking record and queues
// the pipeline run. It replies 202 immediately; clients poll the
// status endpoint.
func (h *DocumentHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest()
	}

	docID := uuid.New()
	path := filepath.Join(h.uploadDir, docID.String()+filepath.Ext(fileHeader.Filename))

	if err := c.SaveFile(fileHeader, path); err != nil {
		return fmt.Errorf("failed to save uploaded file: %w", err)
	}

	now := time.Now().UTC()
	doc := types.Document{
		ID:          docID,
		Filename:    fileHeader.Filename,
		StoragePath: path,
		Status:      types.StatusProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.meta.CreateDocument(c.Context(), doc); err != nil {
		return err
	}

	if err := h.ingestor.Submit(docID, path); err != nil {
		return fmt.Errorf("failed to queue document: %w", err)
	}

	h.log.Info("document accepted", "doc_id", docID, "filename", fileHeader.Filename)

	return c.Status(fiber.StatusAccepted).JSON(types.UploadResponse{
		DocID:   docID.String(),
		Message: "Document accepted for processing",
		Status:  types.StatusProcessing,
	})
}

func (h *DocumentHandler) HandleStatus(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	doc, err := h.meta.GetDocument(c.Context(), docID)
	if err != nil {
		return err
	}

	return c.JSON(types.StatusResponse{
		DocID:     doc.ID.String(),
		Status:    doc.Status,
		Filename:  doc.Filename,
		CreatedAt: doc.CreatedAt,
	})
}

func (h *DocumentHandler) HandleList(c *fiber.Ctx) error {
	docs, err := h.meta.ListDocuments(c.Context())
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []types.Document{}
	}

	return c.JSON(types.DocumentListResponse{
		Documents: docs,
		Total:     len(docs),
	})
}

// HandleDelete removes the document record, its parent chunks, its
// index vectors and the stored file. The record goes first so a
// partial failure never leaves an untracked document visible.
func (h *DocumentHandler) HandleDelete(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	doc, err := h.meta.GetDocument(c.Context(), docID)
	if err != nil {
		return err
	}

	if err := h.meta.DeleteDocument(c.Context(), docID); err != nil {
		return err
	}
	if err := h.meta.DeleteParentChunks(c.Context(), docID); err != nil {
		return err
	}
	if err := h.vectors.DeleteByDocument(c.Context(), h.indexName, docID); err != nil {
		return err
	}

	if doc.StoragePath != "" {
		if err := os.Remove(doc.StoragePath); err != nil && !os.IsNotExist(err) {
			h.log.Warn("failed to remove stored file", "doc_id", docID, "path", doc.StoragePath, "error", err)
		}
	}

	h.log.Info("document deleted", "doc_id", docID)

	return c.JSON(fiber.Map{"result": "deleted", "doc_id": docID.String()})
}
