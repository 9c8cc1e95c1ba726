// Package user serves user and administrator management.
package user

import (
	"github.com/amirasaad/paydesk/pkg/domain/user"
	"github.com/amirasaad/paydesk/pkg/middleware"
	"github.com/amirasaad/paydesk/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes mounts the management endpoints on the /admin group. Changing
// administrator accounts needs the super_admin role.
func Routes(r fiber.Router) {
	r.Get("/users", ListUsers())
	r.Post("/users/:id/toggle", SetUserStatus("toggle"))
	r.Post("/users/:id/deactivate", SetUserStatus("deactivate"))
	r.Post("/users/:id/reactivate", SetUserStatus("reactivate"))
	r.Delete("/users/:id", DeleteUser())

	super := middleware.RequireRole(user.RoleSuperAdmin)
	r.Get("/admins", ListAdmins())
	r.Post("/admins", super, CreateAdmin())
	r.Patch("/admins/:id", super, UpdateAdmin())
	r.Post("/admins/:id/deactivate", super, SetAdminStatus("deactivate"))
	r.Post("/admins/:id/reactivate", super, SetAdminStatus("reactivate"))
	r.Delete("/admins/:id", super, DeleteAdmin())
}

// ListUsers returns every regular user.
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {object} common.ListResponse
// @Failure 401 {object} common.ProblemDetails
// @Failure 403 {object} common.ProblemDetails
// @Router /admin/users [get]
// @Security Bearer
func ListUsers() fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc := middleware.WorkspaceFrom(c).Users
		list, err := svc.List(c.Context())
		st := svc.ListState()
		if err != nil && !st.HasData {
			return common.ProblemDetailsJSON(c, "Failed to load users", err)
		}
		return common.ListJSON(c, list, st)
	}
}

// SetUserStatus toggles, deactivates or reactivates a user.
// @Summary Change user status
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /admin/users/{id}/toggle [post]
// @Router /admin/users/{id}/deactivate [post]
// @Router /admin/users/{id}/reactivate [post]
// @Security Bearer
func SetUserStatus(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc := middleware.WorkspaceFrom(c).Users
		apply := svc.ToggleStatus
		switch action {
		case "deactivate":
			apply = svc.Deactivate
		case "reactivate":
			apply = svc.Reactivate
		}
		u, err := apply(c.Context(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Status change failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "User status updated", u)
	}
}

// DeleteUser removes a user.
// @Summary Delete user
// @Tags users
// @Param id path string true "User ID"
// @Success 204
// @Failure 404 {object} common.ProblemDetails
// @Router /admin/users/{id} [delete]
// @Security Bearer
func DeleteUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := middleware.WorkspaceFrom(c).Users.Delete(c.Context(), c.Params("id")); err != nil {
			return common.ProblemDetailsJSON(c, "Delete failed", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListAdmins returns every administrator.
// @Summary List administrators
// @Tags admins
// @Produce json
// @Success 200 {object} common.ListResponse
// @Failure 403 {object} common.ProblemDetails
// @Router /admin/admins [get]
// @Security Bearer
func ListAdmins() fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc := middleware.WorkspaceFrom(c).Admins
		list, err := svc.List(c.Context())
		st := svc.ListState()
		if err != nil && !st.HasData {
			return common.ProblemDetailsJSON(c, "Failed to load administrators", err)
		}
		return common.ListJSON(c, list, st)
	}
}

// CreateAdmin adds an administrator.
// @Summary Create administrator
// @Tags admins
// @Accept json
// @Produce json
// @Param request body user.CreateAdminRequest true "Administrator"
// @Success 201 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Router /admin/admins [post]
// @Security Bearer
func CreateAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[user.CreateAdminRequest](c)
		if input == nil {
			return err
		}
		a, err := middleware.WorkspaceFrom(c).Admins.Create(c.Context(), *input)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Create failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Administrator created", a)
	}
}

// UpdateAdmin changes the name, role or permissions of an administrator.
// @Summary Update administrator
// @Tags admins
// @Accept json
// @Produce json
// @Param id path string true "Administrator ID"
// @Param request body user.UpdateAdminRequest true "Changes"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Router /admin/admins/{id} [patch]
// @Security Bearer
func UpdateAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[user.UpdateAdminRequest](c)
		if input == nil {
			return err
		}
		a, err := middleware.WorkspaceFrom(c).Admins.Update(c.Context(), c.Params("id"), *input)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Update failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Administrator updated", a)
	}
}

// SetAdminStatus deactivates or reactivates an administrator.
// @Summary Change administrator status
// @Tags admins
// @Produce json
// @Param id path string true "Administrator ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /admin/admins/{id}/deactivate [post]
// @Router /admin/admins/{id}/reactivate [post]
// @Security Bearer
func SetAdminStatus(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc := middleware.WorkspaceFrom(c).Admins
		apply := svc.Deactivate
		if action == "reactivate" {
			apply = svc.Reactivate
		}
		a, err := apply(c.Context(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Status change failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Administrator status updated", a)
	}
}

// DeleteAdmin removes an administrator.
// @Summary Delete administrator
// @Tags admins
// @Param id path string true "Administrator ID"
// @Success 204
// @Failure 404 {object} common.ProblemDetails
// @Router /admin/admins/{id} [delete]
// @Security Bearer
func DeleteAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := middleware.WorkspaceFrom(c).Admins.Delete(c.Context(), c.Params("id")); err != nil {
			return common.ProblemDetailsJSON(c, "Delete failed", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
