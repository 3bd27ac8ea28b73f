package validation

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var (
	scriptPattern = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=|onclick=)`)
)

type Config struct {
	MaxBodySize         int
	MaxResumeLength     int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware rejects malformed verification requests before they reach a
// handler: wrong content type, oversized bodies, missing required fields
// and markup smuggled into text fields.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = 1 * 1024 * 1024
	}
	if cfg.MaxResumeLength == 0 {
		cfg.MaxResumeLength = 100_000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == "POST" || c.Method() == "PUT" {
			contentType := c.Get("Content-Type")
			if contentType != "" {
				allowed := false
				for _, allowedType := range cfg.AllowedContentTypes {
					if strings.Contains(contentType, allowedType) {
						allowed = true
						break
					}
				}
				if !allowed {
					return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
						"error": "unsupported content type",
					})
				}
			}

			if len(c.Body()) > cfg.MaxBodySize {
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "request body exceeds maximum size",
				})
			}
		}

		path := c.Path()

		if c.Method() == "POST" && strings.HasSuffix(path, "/verify/text") {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid JSON format",
				})
			}

			text, ok := req["resume_text"].(string)
			if !ok || strings.TrimSpace(text) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "resume_text is required and must be a string",
				})
			}
			if len(text) > cfg.MaxResumeLength {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "resume_text exceeds maximum length",
				})
			}
			if scriptPattern.MatchString(text) {
				cfg.Logger.Warn("markup rejected in resume text", zap.String("ip", c.IP()))
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid resume content",
				})
			}
		} else if c.Method() == "POST" && strings.HasSuffix(path, "/verify") {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid JSON format",
				})
			}

			claim, ok := req["claim"].(map[string]interface{})
			if !ok {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "claim object is required",
				})
			}
			name, ok := claim["full_name"].(string)
			if !ok || strings.TrimSpace(sanitizeString(name)) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "claim.full_name is required and must be a string",
				})
			}
		}

		return c.Next()
	}
}

func sanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")
	return input
}
