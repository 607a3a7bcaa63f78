package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/LeslieKogi/sunrise-backend/internal/service"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "api").Logger()

// SetLogger replaces the package logger used for access and error logs.
func SetLogger(l zerolog.Logger) {
	logger = l.With().Str("component", "api").Logger()
}

func errorJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// respondError writes the status code that matches err's kind. Anything that
// is not a service error is logged and reported as a 500 without details.
func respondError(c echo.Context, err error) error {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		logger.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("Unhandled error")
		return errorJSON(c, http.StatusInternalServerError, "internal server error")
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		return errorJSON(c, http.StatusNotFound, svcErr.Message)
	case errors.Is(err, service.ErrUnauthorized):
		return errorJSON(c, http.StatusUnauthorized, svcErr.Message)
	case errors.Is(err, service.ErrConflict):
		return errorJSON(c, http.StatusConflict, svcErr.Message)
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidTransition):
		return errorJSON(c, http.StatusBadRequest, svcErr.Message)
	}
	return errorJSON(c, http.StatusInternalServerError, "internal server error")
}

func invalidPayload(c echo.Context) error {
	return errorJSON(c, http.StatusBadRequest, "Invalid request payload")
}
