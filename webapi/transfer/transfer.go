// Package transfer serves bank transfers to administrators.
package transfer

import (
	"github.com/amirasaad/paydesk/pkg/domain/transfer"
	"github.com/amirasaad/paydesk/pkg/middleware"
	"github.com/amirasaad/paydesk/pkg/service/verification"
	"github.com/amirasaad/paydesk/webapi/common"
	txweb "github.com/amirasaad/paydesk/webapi/transaction"
	"github.com/gofiber/fiber/v2"
)

// Routes mounts the transfer endpoints on the /admin group.
func Routes(r fiber.Router) {
	r.Get("/transfers", List())
	r.Post("/transfers", Initiate())
	r.Post("/transfers/verify", Verify())
	r.Get("/transfers/:id", Get())
}

// List returns every transfer, newest first.
// @Summary List transfers
// @Tags transfers
// @Produce json
// @Success 200 {object} common.ListResponse
// @Failure 401 {object} common.ProblemDetails
// @Failure 403 {object} common.ProblemDetails
// @Router /admin/transfers [get]
// @Security Bearer
func List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc := middleware.WorkspaceFrom(c).Transfers
		list, err := svc.List(c.Context())
		st := svc.ListState()
		if err != nil && !st.HasData {
			return common.ProblemDetailsJSON(c, "Failed to load transfers", err)
		}
		return common.ListJSON(c, list, st)
	}
}

// Get returns one transfer.
// @Summary Get transfer by ID
// @Tags transfers
// @Produce json
// @Param id path string true "Transfer ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /admin/transfers/{id} [get]
// @Security Bearer
func Get() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tr, err := middleware.WorkspaceFrom(c).Transfers.Get(c.Context(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Transfer not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transfer found", tr)
	}
}

// Initiate sends money to a bank account.
// @Summary Initiate transfer
// @Tags transfers
// @Accept json
// @Produce json
// @Param request body transfer.Request true "Transfer details"
// @Success 201 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Router /admin/transfers [post]
// @Security Bearer
func Initiate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[transfer.Request](c)
		if input == nil {
			return err
		}
		tr, err := middleware.WorkspaceFrom(c).Transfers.Initiate(c.Context(), *input)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Transfer failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Transfer initiated", tr)
	}
}

// Verify asks the gateway for the status of a transfer reference and moves
// the matching transfer along.
// @Summary Verify transfer
// @Tags transfers
// @Accept json
// @Produce json
// @Param request body verification.Check true "Reference and optional expectations"
// @Success 200 {object} common.Response
// @Failure 422 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Router /admin/transfers/verify [post]
// @Security Bearer
func Verify() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[verification.Check](c)
		if input == nil {
			return err
		}
		res, err := middleware.WorkspaceFrom(c).Verification.VerifyTransfer(c.Context(), *input)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Verification failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, txweb.VerifyMessage(res), res)
	}
}
