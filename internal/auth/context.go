package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "taskforge/internal/errors"
)

// UserIDFromContext extracts the authenticated user ID from the JWT the
// middleware stored on the request context. Every failure path collapses
// to ErrUnauthenticated so callers cannot tell which check tripped.
func UserIDFromContext(c echo.Context) (uuid.UUID, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, apperrors.ErrUnauthenticated
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return uuid.Nil, apperrors.ErrUnauthenticated
	}

	userID, err := claims.UserID()
	if err != nil {
		return uuid.Nil, apperrors.ErrUnauthenticated
	}

	return userID, nil
}
