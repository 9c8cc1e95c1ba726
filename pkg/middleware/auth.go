// Package middleware guards the HTTP API with session tokens.
package middleware

import (
	"fmt"
	"slices"
	"strings"

	"github.com/amirasaad/paydesk/pkg/app"
	"github.com/amirasaad/paydesk/pkg/config"
	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/amirasaad/paydesk/pkg/domain/user"
	"github.com/amirasaad/paydesk/pkg/session"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenKey     = "user"
	workspaceKey = "workspace"
)

// JwtProtected rejects requests without a valid bearer token signed with
// cfg.Secret. The parsed token is stored for the handlers that follow.
func JwtProtected(cfg *config.Jwt) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.Secret)},
		ContextKey:   tokenKey,
		Claims:       &session.Claims{},
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	status := fiber.StatusUnauthorized
	title := "Invalid or expired JWT"
	if strings.EqualFold(err.Error(), "missing or malformed JWT") {
		status = fiber.StatusBadRequest
		title = "Missing or malformed JWT"
	} else {
		c.Set(fiber.HeaderLocation, "/login")
	}
	return c.Status(status).JSON(fiber.Map{
		"type":     "about:blank",
		"title":    title,
		"status":   status,
		"detail":   err.Error(),
		"instance": c.OriginalURL(),
	}, "application/problem+json")
}

// Claims returns the claims of the token accepted by JwtProtected.
func Claims(c *fiber.Ctx) *session.Claims {
	tok, ok := c.Locals(tokenKey).(*jwt.Token)
	if !ok {
		return nil
	}
	claims, _ := tok.Claims.(*session.Claims)
	return claims
}

// Workspace binds the request to the workspace of its token's session.
// It must run after JwtProtected.
func Workspace(m *app.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok, ok := c.Locals(tokenKey).(*jwt.Token)
		if !ok {
			return domain.NewAuthExpiredError("")
		}
		ws, err := m.Resume(tok.Raw)
		if err != nil {
			return err
		}
		c.Locals(workspaceKey, ws)
		return c.Next()
	}
}

// WorkspaceFrom returns the workspace bound by Workspace.
func WorkspaceFrom(c *fiber.Ctx) *app.Workspace {
	ws, _ := c.Locals(workspaceKey).(*app.Workspace)
	return ws
}

// RequireRole allows only tokens carrying one of roles.
func RequireRole(roles ...user.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := Claims(c)
		if claims == nil {
			return domain.NewAuthExpiredError("")
		}
		if !slices.Contains(roles, user.Role(claims.Role)) {
			return &domain.Error{
				Kind:    domain.ErrForbidden,
				Message: fmt.Sprintf("role %q may not access this resource", claims.Role),
				Status:  fiber.StatusForbidden,
			}
		}
		return c.Next()
	}
}
