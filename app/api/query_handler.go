package api

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"docanalyzer/types"
)

// Answerer runs the retrieval query path.
type Answerer interface {
	Answer(ctx context.Context, query string, topK int) (*types.QueryResponse, error)
}

type QueryHandler struct {
	retriever Answerer
}

func NewQueryHandler(retriever Answerer) *QueryHandler {
	return &QueryHandler{retriever: retriever}
}

func (h *QueryHandler) HandleQuery(c *fiber.Ctx) error {
	var params types.QueryParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	resp, err := h.retriever.Answer(c.Context(), params.Query, params.TopK)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}
