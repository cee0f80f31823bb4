package common

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lumenfeed/lumenfeed/internal/ingest"
)

// ErrBadRequest returns a 400 Bad Request error.
func ErrBadRequest(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

// ErrNotFound returns a 404 Not Found error.
func ErrNotFound(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusNotFound, msg)
}

// ErrUnauthorized returns a 401 Unauthorized error.
func ErrUnauthorized() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
}

// ErrInternal returns a 500 Internal Server Error.
func ErrInternal(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusInternalServerError, msg)
}

// RespondError writes the `{"error": msg}` failure shape.
func RespondError(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// RespondPipelineError maps a pipeline failure to its HTTP status.
// Internal kinds get a generic message; the cause stays in the logs.
func RespondPipelineError(c echo.Context, err error) error {
	var pe *ingest.Error
	if !errors.As(err, &pe) {
		return RespondError(c, http.StatusInternalServerError, "internal error")
	}
	status := pe.HTTPStatus()
	if status >= http.StatusInternalServerError {
		return RespondError(c, status, "processing failed")
	}
	return RespondError(c, status, pe.Msg)
}
