package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	errorz "github.com/vinceerrol/vuefrontend/internal/errors"
)

// fieldErrors collects per-field validation messages for 422 responses:
// {"message": "...", "errors": {"field": ["msg", ...]}}.
type fieldErrors map[string][]string

func (fe fieldErrors) add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

func validationFailed(c echo.Context, fe fieldErrors) error {
	return c.JSON(http.StatusUnprocessableEntity, map[string]any{
		"message": "Validation failed",
		"errors":  fe,
	})
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"message": msg})
}

// respondError maps service errors to the API's status codes.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, errorz.ErrNoActiveMap):
		return message(c, http.StatusNotFound, "No active map found")
	case errors.Is(err, errorz.ErrMapNotFound),
		errors.Is(err, errorz.ErrBuildingNotFound),
		errors.Is(err, errorz.ErrFacultyNotFound):
		return message(c, http.StatusNotFound, err.Error())
	case errors.Is(err, errorz.ErrImageStoreFailed):
		return validationFailed(c, fieldErrors{"image": {err.Error()}})
	case errors.Is(err, errorz.ErrUnsupportedImageType), errors.Is(err, errorz.ErrImageTooLarge):
		return validationFailed(c, fieldErrors{"image": {err.Error()}})
	case errors.Is(err, errorz.ErrInvalidCredentials),
		errors.Is(err, errorz.ErrUnauthenticated),
		errors.Is(err, errorz.ErrTokenExpired):
		return message(c, http.StatusUnauthorized, "Unauthenticated.")
	default:
		return message(c, http.StatusInternalServerError, "Internal server error")
	}
}
