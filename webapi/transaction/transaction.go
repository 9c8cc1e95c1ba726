// Package transaction serves the transaction history, the wallet balance
// and payment verification.
package transaction

import (
	"strings"

	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/amirasaad/paydesk/pkg/domain/transaction"
	"github.com/amirasaad/paydesk/pkg/middleware"
	"github.com/amirasaad/paydesk/pkg/service/verification"
	"github.com/amirasaad/paydesk/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const defaultRecent = 5

// Routes mounts the transaction endpoints on r, which is expected to be
// the /transactions group.
func Routes(r fiber.Router) {
	r.Get("/", List())
	r.Get("/recent", Recent())
	r.Get("/stats", Stats())
	r.Post("/verify", Verify())
	r.Get("/:id", Get())
	r.Post("/:id/cancel", Cancel())
}

// WalletRoutes mounts the balance endpoint on the /wallet group.
func WalletRoutes(r fiber.Router) {
	r.Get("/balance", Balance())
}

// List returns a filtered page of the history.
// @Summary List transactions
// @Description Newest first. Filters: userId, status, type, search, minAmount, maxAmount, limit, offset.
// @Tags transactions
// @Produce json
// @Param userId query string false "Owner of the transactions"
// @Param status query string false "Transaction status"
// @Param type query string false "Transaction type"
// @Param search query string false "Matches reference, description and recipient"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} common.ListResponse
// @Failure 401 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Router /transactions [get]
// @Security Bearer
func List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := parseFilter(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid filter", err)
		}
		svc := middleware.WorkspaceFrom(c).Transactions
		page, err := svc.List(c.Context(), f)
		st := svc.ListState(f)
		if err != nil && !st.HasData {
			return common.ProblemDetailsJSON(c, "Failed to load transactions", err)
		}
		return common.ListJSON(c, page, st)
	}
}

func parseFilter(c *fiber.Ctx) (transaction.Filter, error) {
	f := transaction.Filter{
		UserID: strings.TrimSpace(c.Query("userId")),
		Status: transaction.Status(c.Query("status")),
		Type:   transaction.Type(c.Query("type")),
		Search: strings.TrimSpace(c.Query("search")),
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}
	fields := map[string]string{}
	for name, dst := range map[string]**decimal.Decimal{"minAmount": &f.MinAmount, "maxAmount": &f.MaxAmount} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			fields[name] = "must be a number"
			continue
		}
		*dst = &d
	}
	if f.Limit < 0 {
		fields["limit"] = "must be at least 0"
	}
	if f.Offset < 0 {
		fields["offset"] = "must be at least 0"
	}
	if len(fields) > 0 {
		return f, domain.NewValidationError(fields)
	}
	return f, nil
}

// Recent returns the newest transactions.
// @Summary Recent transactions
// @Tags transactions
// @Produce json
// @Param limit query int false "How many, default 5"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /transactions/recent [get]
// @Security Bearer
func Recent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		n := c.QueryInt("limit", defaultRecent)
		if n <= 0 {
			n = defaultRecent
		}
		txs, err := middleware.WorkspaceFrom(c).Transactions.Recent(c.Context(), n)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load transactions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Recent transactions", txs)
	}
}

// Stats summarizes the history.
// @Summary Transaction statistics
// @Tags transactions
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /transactions/stats [get]
// @Security Bearer
func Stats() fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := middleware.WorkspaceFrom(c).Transactions.Stats(c.Context())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to compute statistics", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction statistics", stats)
	}
}

// Get returns one transaction.
// @Summary Get transaction by ID
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /transactions/{id} [get]
// @Security Bearer
func Get() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tx, err := middleware.WorkspaceFrom(c).Transactions.Get(c.Context(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Transaction not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction found", tx)
	}
}

// Cancel cancels a pending or processing transaction.
// @Summary Cancel transaction
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Router /transactions/{id}/cancel [post]
// @Security Bearer
func Cancel() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tx, err := middleware.WorkspaceFrom(c).Transactions.Cancel(c.Context(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Cancel failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction cancelled", tx)
	}
}

// Verify asks the gateway for the status of a payment reference and records
// it on the matching transaction.
// @Summary Verify payment
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body verification.Check true "Reference and optional expectations"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Router /transactions/verify [post]
// @Security Bearer
func Verify() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[verification.Check](c)
		if input == nil {
			return err
		}
		res, err := middleware.WorkspaceFrom(c).Verification.VerifyTransaction(c.Context(), *input)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Verification failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, VerifyMessage(res), res)
	}
}

// VerifyMessage summarizes a verification result.
func VerifyMessage(res verification.Result) string {
	switch {
	case !res.Valid:
		return "Verification rejected: " + res.Reason
	case res.Updated:
		return "Status updated to " + res.Status
	case res.Tracked:
		return "Status unchanged"
	default:
		return "Reference is not tracked locally"
	}
}

// Balance returns the wallet balance of one currency.
// @Summary Wallet balance
// @Tags wallet
// @Produce json
// @Param currency query string false "Currency, default ETB"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /wallet/balance [get]
// @Security Bearer
func Balance() fiber.Handler {
	return func(c *fiber.Ctx) error {
		currency := strings.ToUpper(c.Query("currency", "ETB"))
		w, err := middleware.WorkspaceFrom(c).Transactions.WalletBalance(c.Context(), currency)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to compute balance", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Wallet balance", w)
	}
}
