package planner_http

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type subjectKey struct{}

// SubjectMiddleware resolves the experiment subject for the request: the
// X-Subject-ID header when the caller sends one, otherwise a fresh anonymous
// id. Anonymous subjects get no stable bucketing across requests, which is
// the intended behavior for unidentified traffic.
func SubjectMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			subject := c.Request().Header.Get("X-Subject-ID")
			if subject == "" {
				subject = "anon-" + uuid.NewString()
			}
			ctx := context.WithValue(c.Request().Context(), subjectKey{}, subject)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// ContextIdentityProvider reads the subject resolved by SubjectMiddleware.
type ContextIdentityProvider struct{}

// SubjectID implements domain.IdentityProvider.
func (ContextIdentityProvider) SubjectID(ctx context.Context) string {
	if subject, ok := ctx.Value(subjectKey{}).(string); ok {
		return subject
	}
	return "anon-" + uuid.NewString()
}
