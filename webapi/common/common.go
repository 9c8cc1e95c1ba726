// Package common holds the response helpers shared by the HTTP handlers.
package common

import (
	"errors"
	"net/http"
	"time"

	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/amirasaad/paydesk/pkg/query"
	"github.com/gofiber/fiber/v2"
)

// ProblemContentType is the media type of error responses.
const ProblemContentType = "application/problem+json"

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ListResponse is returned by list endpoints. Data is whatever the cache
// holds; Error is set when the last fetch failed and does not replace Data.
type ListResponse struct {
	Data      any       `json:"data"`
	State     string    `json:"state"`
	Stale     bool      `json:"stale"`
	FetchedAt time.Time `json:"fetchedAt,omitzero"`
	Error     string    `json:"error,omitempty"`
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Errors   any    `json:"errors,omitempty"`
}

// ProblemDetailsJSON writes err as application/problem+json. The optional
// details may carry an int status overriding ErrorToStatusCode and a string
// replacing the detail message.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, details ...any) error {
	status := ErrorToStatusCode(err)
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Detail:   domain.Message(err),
		Instance: c.OriginalURL(),
	}
	for _, d := range details {
		switch v := d.(type) {
		case int:
			status = v
		case string:
			pd.Detail = v
		}
	}
	pd.Status = status
	if pd.Title == "" {
		pd.Title = http.StatusText(status)
	}
	if fields := domain.FieldErrors(err); len(fields) > 0 {
		pd.Errors = fields
	}
	if errors.Is(err, domain.ErrAuthExpired) {
		c.Set(fiber.HeaderLocation, "/login")
	}
	return c.Status(status).JSON(pd, ProblemContentType)
}

// SuccessResponseJSON writes a Response envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Status: status, Message: message, Data: data})
}

// ListJSON writes the cached data of a list together with its fetch state.
func ListJSON[T any](c *fiber.Ctx, data T, st query.State[T]) error {
	resp := ListResponse{
		Data:      data,
		State:     st.Status.String(),
		Stale:     st.Stale,
		FetchedAt: st.FetchedAt,
	}
	if st.Err != nil {
		resp.Error = domain.Message(st.Err)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// ErrorToStatusCode maps domain errors to appropriate HTTP status codes.
func ErrorToStatusCode(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, domain.ErrAuthExpired):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrVerificationFailed), errors.Is(err, domain.ErrGateway):
		return fiber.StatusBadGateway
	case errors.Is(err, domain.ErrNetwork):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// BindAndValidate parses the request body and validates its tags.
// On failure it writes the problem response and returns a nil input; the
// returned error is then the result of the write.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ProblemDetailsJSON(c, "Invalid request body", err, fiber.StatusBadRequest)
	}
	if err := domain.Validate(input); err != nil {
		return nil, ProblemDetailsJSON(c, "Validation failed", err)
	}
	return &input, nil
}
