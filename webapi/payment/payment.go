// Package payment starts hosted checkout payments.
package payment

import (
	"github.com/amirasaad/paydesk/pkg/config"
	"github.com/amirasaad/paydesk/pkg/middleware"
	paymentsvc "github.com/amirasaad/paydesk/pkg/service/payment"
	"github.com/amirasaad/paydesk/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes mounts the payment endpoints on the /payments group.
func Routes(r fiber.Router, cfg *config.Chapa) {
	r.Post("/initialize", Initialize(cfg))
}

// Initialize returns a checkout URL for a new payment and records it as
// pending. Callback and return URLs default to the configured ones.
// @Summary Initialize payment
// @Tags payments
// @Accept json
// @Produce json
// @Param request body paymentsvc.Request true "Payment details"
// @Success 201 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Router /payments/initialize [post]
// @Security Bearer
func Initialize(cfg *config.Chapa) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input paymentsvc.Request
		if err := c.BodyParser(&input); err != nil {
			return common.ProblemDetailsJSON(c, "Invalid request body", err, fiber.StatusBadRequest)
		}
		if claims := middleware.Claims(c); claims != nil {
			input.UserID = claims.UserID()
			if input.Email == "" {
				input.Email = claims.Email
			}
		}
		if input.CallbackURL == "" {
			input.CallbackURL = cfg.CallbackURL
		}
		if input.ReturnURL == "" {
			input.ReturnURL = cfg.ReturnURL
		}
		res, err := middleware.WorkspaceFrom(c).Payments.Initialize(c.Context(), input)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Payment initialization failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Payment initialized", res)
	}
}
