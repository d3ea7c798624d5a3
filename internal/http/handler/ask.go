package handler

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"warrantyai/internal/answerer"
)

// Answerer serves one grounded question. Implemented by answerer.Service.
type Answerer interface {
	Answer(ctx context.Context, tenantID, question string) (*answerer.AnswerResult, error)
}

type askRequest struct {
	Question string `json:"question"`
}

// Ask answers a question against the tenant's indexed documents.
func Ask(svc Answerer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req askRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if strings.TrimSpace(req.Question) == "" {
			return writeError(c, fiber.StatusBadRequest, "QUESTION_REQUIRED", "question is required")
		}

		res, err := svc.Answer(c.UserContext(), c.Params("tenant"), req.Question)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}
