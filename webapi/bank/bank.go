// Package bank lists the banks transfers can be sent to.
package bank

import (
	"github.com/amirasaad/paydesk/pkg/middleware"
	"github.com/amirasaad/paydesk/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes mounts the bank endpoints on the /banks group.
func Routes(r fiber.Router) {
	r.Get("/", List())
	r.Get("/:code", Get())
}

// List returns the supported banks.
// @Summary List banks
// @Tags banks
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /banks [get]
// @Security Bearer
func List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		banks, err := middleware.WorkspaceFrom(c).Banks.List(c.Context())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load banks", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Banks", banks)
	}
}

// Get returns one bank by code.
// @Summary Get bank by code
// @Tags banks
// @Produce json
// @Param code path string true "Bank code"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /banks/{code} [get]
// @Security Bearer
func Get() fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, ok, err := middleware.WorkspaceFrom(c).Banks.Find(c.Context(), c.Params("code"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load banks", err)
		}
		if !ok {
			return common.ProblemDetailsJSON(c, "Bank not found", nil, "No bank with code "+c.Params("code"), fiber.StatusNotFound)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Bank found", b)
	}
}
