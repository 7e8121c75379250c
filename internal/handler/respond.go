package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lodge-operations/internal/engine"
	"github.com/iliyamo/lodge-operations/internal/repository"
)

// engineError maps the engine/repository error taxonomy onto stable
// machine-readable codes and HTTP statuses.  Store errors are never
// leaked verbatim; anything outside the taxonomy becomes a generic
// 500.
func engineError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, engine.ErrValidation):
		return respondErr(c, http.StatusBadRequest, "validation_error", err)
	case errors.Is(err, engine.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return respondErr(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, engine.ErrInvalidTransition):
		return respondErr(c, http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, engine.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_token", "message": "invalid token"})
	case errors.Is(err, engine.ErrConflict), errors.Is(err, repository.ErrConflict):
		return respondErr(c, http.StatusConflict, "conflict", err)
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "internal error"})
	}
}

func respondErr(c echo.Context, status int, code string, err error) error {
	return c.JSON(status, echo.Map{"error": code, "message": err.Error()})
}

// listResponse is the envelope every list endpoint returns so callers
// can paginate without a second count round-trip.
type listResponse struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
}
