package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trusthire/backend/internal/cache/memory"
	"github.com/trusthire/backend/pkg/logger"
)

// AdminHandler exposes the operational surface of the cached API client.
type AdminHandler struct {
	cache *memory.Cache
}

func NewAdminHandler(cache *memory.Cache) *AdminHandler {
	return &AdminHandler{cache: cache}
}

func (h *AdminHandler) CacheStats(c *fiber.Ctx) error {
	return c.JSON(h.cache.Stats())
}

func (h *AdminHandler) ClearCache(c *fiber.Ctx) error {
	h.cache.Clear()
	logger.Info("API cache cleared by operator")
	return c.JSON(fiber.Map{
		"status": "cleared",
	})
}
