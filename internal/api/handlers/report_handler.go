package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/trusthire/backend/internal/storage/sqlite"
	"github.com/trusthire/backend/pkg/logger"
)

type ReportHandler struct {
	store *sqlite.Client
}

func NewReportHandler(store *sqlite.Client) *ReportHandler {
	return &ReportHandler{store: store}
}

func (h *ReportHandler) GetReport(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "report id is required",
		})
	}

	stored, err := h.store.GetReport(id)
	if errors.Is(err, sqlite.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "report not found",
		})
	}
	if err != nil {
		logger.Error("Failed to load report", zap.String("report_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load report",
		})
	}

	return c.JSON(stored)
}

func (h *ReportHandler) ListReports(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)

	reports, err := h.store.ListReports(limit)
	if err != nil {
		logger.Error("Failed to list reports", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list reports",
		})
	}

	return c.JSON(fiber.Map{
		"reports": reports,
		"count":   len(reports),
	})
}
