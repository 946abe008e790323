package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docanalyzer/types"
)

// DocSummarizer produces document and ad hoc text summaries.
type DocSummarizer interface {
	SummarizeDocument(ctx context.Context, docID uuid.UUID) (*types.SummarizeResponse, error)
	SummarizeText(ctx context.Context, text string) (*types.SummarizeResponse, error)
}

type SummarizeHandler struct {
	summarizer DocSummarizer
}

func NewSummarizeHandler(summarizer DocSummarizer) *SummarizeHandler {
	return &SummarizeHandler{summarizer: summarizer}
}

func (h *SummarizeHandler) HandleSummarizeDocument(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	resp, err := h.summarizer.SummarizeDocument(c.Context(), docID)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

func (h *SummarizeHandler) HandleSummarizeText(c *fiber.Ctx) error {
	var params types.SummarizeTextParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	resp, err := h.summarizer.SummarizeText(c.Context(), params.Text)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}
