// Package webapi exposes the dashboard data layer over HTTP.
// It is organized into sub-packages for different domains:
// - auth: sign in and out
// - transaction: history, statistics, wallet balance and payment verification
// - payment: hosted checkout
// - bank: supported banks
// - transfer: bank transfers (administrators)
// - user: user and administrator management
// - proxy: pass-through to the Chapa API
package webapi

import (
	"errors"
	"slices"
	"strings"

	"github.com/amirasaad/paydesk/pkg/app"
	"github.com/amirasaad/paydesk/pkg/domain/user"
	"github.com/amirasaad/paydesk/pkg/middleware"
	authweb "github.com/amirasaad/paydesk/webapi/auth"
	bankweb "github.com/amirasaad/paydesk/webapi/bank"
	"github.com/amirasaad/paydesk/webapi/common"
	paymentweb "github.com/amirasaad/paydesk/webapi/payment"
	"github.com/amirasaad/paydesk/webapi/proxy"
	transactionweb "github.com/amirasaad/paydesk/webapi/transaction"
	transferweb "github.com/amirasaad/paydesk/webapi/transfer"
	userweb "github.com/amirasaad/paydesk/webapi/user"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(m *app.Manager) *fiber.App {
	cfg := m.Deps().Config

	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "", err)
		},
	})

	// Uses X-Forwarded-For header when behind a proxy, then X-Real-IP, then
	// the direct IP.
	fiberApp.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit.MaxRequests,
		Expiration: cfg.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	fiberApp.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	protected := []fiber.Handler{middleware.JwtProtected(cfg.Jwt), middleware.Workspace(m)}
	admin := append(slices.Clone(protected), middleware.RequireRole(user.RoleAdmin, user.RoleSuperAdmin))

	authweb.Routes(fiberApp, m, protected...)
	transactionweb.Routes(fiberApp.Group("/transactions", protected...))
	transactionweb.WalletRoutes(fiberApp.Group("/wallet", protected...))
	paymentweb.Routes(fiberApp.Group("/payments", protected...), cfg.Chapa)
	bankweb.Routes(fiberApp.Group("/banks", protected...))

	adminGroup := fiberApp.Group("/admin", admin...)
	transferweb.Routes(adminGroup)
	userweb.Routes(adminGroup)

	proxy.Routes(fiberApp, cfg.Chapa, m.Deps().Logger)
	return fiberApp
}
