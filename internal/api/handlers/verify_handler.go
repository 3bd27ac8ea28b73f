package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/trusthire/backend/internal/extract"
	"github.com/trusthire/backend/internal/storage/models"
	"github.com/trusthire/backend/internal/verify"
	"github.com/trusthire/backend/pkg/logger"
)

type VerifyHandler struct {
	service   *verify.Service
	extractor *extract.Extractor
}

func NewVerifyHandler(service *verify.Service, extractor *extract.Extractor) *VerifyHandler {
	return &VerifyHandler{
		service:   service,
		extractor: extractor,
	}
}

// HandleVerify runs one verification for a structured claim.
func (h *VerifyHandler) HandleVerify(c *fiber.Ctx) error {
	var req verify.Request

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse verification request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Claim == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "claim is required",
		})
	}

	rep, err := h.service.Verify(c.Context(), req, nil)
	if err != nil {
		return verifyErrorResponse(c, err)
	}

	return c.JSON(rep)
}

// HandleVerifyText accepts a raw resume body, extracts claim hints from
// it and runs the same pipeline. The extracted claim rides along in the
// response so callers can see what was actually verified.
func (h *VerifyHandler) HandleVerifyText(c *fiber.Ctx) error {
	var req struct {
		ResumeText string                  `json:"resume_text"`
		Document   *models.DocumentSignals `json:"document,omitempty"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse verification request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.ResumeText == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "resume_text is required",
		})
	}

	claim := h.extractor.ClaimFromText(req.ResumeText)
	if claim.FullName == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "could not extract a candidate name from the resume text",
		})
	}

	rep, err := h.service.Verify(c.Context(), verify.Request{
		Claim:      claim,
		ResumeText: req.ResumeText,
		Document:   req.Document,
	}, nil)
	if err != nil {
		return verifyErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"extracted_claim": claim,
		"report":          rep,
	})
}

// verifyErrorResponse maps the two run-level failures onto status codes:
// an invalid claim is the caller's fault, everything else is ours.
func verifyErrorResponse(c *fiber.Ctx, err error) error {
	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Invalid claim",
			"field":  vErr.Field,
			"reason": vErr.Reason,
		})
	}

	logger.Error("Verification run failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to run verification",
	})
}
