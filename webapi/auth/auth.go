package auth

import (
	"slices"

	"github.com/amirasaad/paydesk/pkg/app"
	"github.com/amirasaad/paydesk/pkg/middleware"
	authsvc "github.com/amirasaad/paydesk/pkg/service/auth"
	"github.com/amirasaad/paydesk/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes mounts the session endpoints. protected must bind a workspace.
func Routes(r fiber.Router, m *app.Manager, protected ...fiber.Handler) {
	r.Post("/auth/login", Login(m))
	r.Post("/auth/logout", slices.Concat(protected, []fiber.Handler{Logout(m)})...)
	r.Get("/auth/me", slices.Concat(protected, []fiber.Handler{Me()})...)
}

// Login opens a session and returns its token.
// @Summary Sign in
// @Description Authenticate with email and password. The remote API is tried first, then the local directory.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body authsvc.Credentials true "Login credentials"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Failure 403 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Failure 429 {object} common.ProblemDetails
// @Router /auth/login [post]
func Login(m *app.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[authsvc.Credentials](c)
		if input == nil {
			return err
		}
		ws, err := m.Open()
		if err != nil {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		}
		res, err := ws.Auth.Login(c.Context(), *input)
		if err != nil {
			m.Drop(ws.Session.ID())
			return common.ProblemDetailsJSON(c, "Login failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Success login", res)
	}
}

// Logout ends the session of the caller.
// @Summary Sign out
// @Tags auth
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /auth/logout [post]
// @Security Bearer
func Logout(m *app.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws := middleware.WorkspaceFrom(c)
		sid := ws.Session.ID()
		if err := ws.Logout(c.Context()); err != nil {
			return common.ProblemDetailsJSON(c, "Logout failed", err)
		}
		m.Drop(sid)
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Logged out", nil)
	}
}

// Me returns the signed-in identity.
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /auth/me [get]
// @Security Bearer
func Me() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.WorkspaceFrom(c).Auth.Me()
		if !ok {
			return common.ProblemDetailsJSON(c, "Not signed in", nil, fiber.StatusUnauthorized)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "User found", id)
	}
}
