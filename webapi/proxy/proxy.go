// Package proxy forwards dashboard calls to the Chapa API with the server's
// secret key, so the key never reaches the browser.
package proxy

import (
	"log/slog"
	"strings"

	"github.com/amirasaad/paydesk/pkg/config"
	"github.com/gofiber/fiber/v2"
	fiberproxy "github.com/gofiber/fiber/v2/middleware/proxy"
)

// ForwardedBy is sent upstream in X-Forwarded-By.
const ForwardedBy = "paydesk-dashboard"

// Routes mounts the proxy under /api/chapa.
func Routes(app *fiber.App, cfg *config.Chapa, logger *slog.Logger) {
	app.All("/api/chapa/*", Handler(cfg, logger))
}

// Handler forwards GET and POST requests to <cfg.BaseURL>/<slug><query>.
// Only Content-Type is kept from the caller; Set-Cookie is stripped from the
// answer.
func Handler(cfg *config.Chapa, logger *slog.Logger) fiber.Handler {
	logger = logger.With("handler", "ChapaProxy")
	base := strings.TrimRight(cfg.BaseURL, "/")
	return func(c *fiber.Ctx) error {
		if cfg.SecretKey == "" {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Server misconfiguration: CHAPA_SECRET_KEY is not set",
			})
		}
		if c.Method() != fiber.MethodGet && c.Method() != fiber.MethodPost {
			return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{"message": "Method Not Allowed"})
		}

		target := base + "/" + strings.TrimLeft(c.Params("*"), "/")
		if q := c.Request().URI().QueryString(); len(q) > 0 {
			target += "?" + string(q)
		}

		req := c.Request()
		contentType := string(req.Header.ContentType())
		var incoming []string
		req.Header.VisitAll(func(k, _ []byte) { incoming = append(incoming, string(k)) })
		for _, k := range incoming {
			req.Header.Del(k)
		}
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+cfg.SecretKey)
		if contentType != "" {
			req.Header.SetContentType(contentType)
		}
		req.Header.Set("X-Forwarded-By", ForwardedBy)

		if err := fiberproxy.DoTimeout(c, target, cfg.Timeout); err != nil {
			logger.Error("Chapa proxy error", "target", target, "error", err)
			c.Response().Reset()
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"message": "An error occurred while proxying to Chapa API.",
			})
		}
		c.Response().Header.Del(fiber.HeaderSetCookie)
		return nil
	}
}
