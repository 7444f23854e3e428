package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"couplerecipe/internal/auth"
	"couplerecipe/internal/errors"
)

// httpError converts a domain error into the standardized HTTP error shape.
func httpError(err error) *echo.HTTPError {
	he := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
}

// identityFromContext extracts the authenticated identity id placed in the
// context by the JWT middleware.
func identityFromContext(c echo.Context) (uuid.UUID, error) {
	claims, ok := c.Get("user").(*auth.Claims)
	if !ok || claims.IdentityID == uuid.Nil {
		return uuid.Nil, httpError(errors.ErrSessionRequired)
	}
	return claims.IdentityID, nil
}
