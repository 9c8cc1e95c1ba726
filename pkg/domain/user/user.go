package user

import (
	"github.com/amirasaad/paydesk/pkg/domain"
)

// Role grants access to parts of the dashboard.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// IsAdmin reports whether the role may use the admin area.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User represents a user in the system.
type User struct {
	domain.Model
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          Role   `json:"role"`
	IsActive      bool   `json:"isActive"`
	IsDeactivated bool   `json:"isDeactivated"`
}

// Active reports whether the account counts as active. A deactivated
// account is never active.
func (u User) Active() bool {
	return u.IsActive && !u.IsDeactivated
}

// Toggle flips IsActive and keeps IsDeactivated its negation.
func (u *User) Toggle() {
	u.IsActive = !u.IsActive
	u.IsDeactivated = !u.IsActive
}

// Deactivate disables the account.
func (u *User) Deactivate() {
	u.IsActive = false
	u.IsDeactivated = true
}

// Reactivate re-enables the account.
func (u *User) Reactivate() {
	u.IsActive = true
	u.IsDeactivated = false
}

// Admin is a user with admin permissions.
type Admin struct {
	User
	Permissions []string `json:"permissions"`
}

// DefaultPermissions returns the permissions seeded for role.
func DefaultPermissions(role Role) []string {
	switch role {
	case RoleSuperAdmin:
		return []string{"all"}
	case RoleAdmin:
		return []string{"read", "write"}
	default:
		return nil
	}
}

// CountActive counts accounts for which Active is true.
func CountActive[T interface{ Active() bool }](items []T) int {
	n := 0
	for _, it := range items {
		if it.Active() {
			n++
		}
	}
	return n
}

// CreateAdminRequest is the input for adding an admin.
type CreateAdminRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,max=100"`
	Role  Role   `json:"role" validate:"required,oneof=admin super_admin"`
}

func (r CreateAdminRequest) Validate() error { return domain.Validate(r) }

// UpdateAdminRequest patches an admin. Nil fields are left unchanged.
type UpdateAdminRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=100"`
	Role        *Role    `json:"role,omitempty" validate:"omitempty,oneof=admin super_admin"`
	Permissions []string `json:"permissions,omitempty"`
}

func (r UpdateAdminRequest) Validate() error { return domain.Validate(r) }

// Apply writes the set fields onto a.
func (r UpdateAdminRequest) Apply(a *Admin) {
	if r.Name != nil {
		a.Name = *r.Name
	}
	if r.Role != nil {
		a.Role = *r.Role
	}
	if r.Permissions != nil {
		a.Permissions = append([]string(nil), r.Permissions...)
	}
}
