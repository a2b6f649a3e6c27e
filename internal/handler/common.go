package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/salonhub/salon-booking-platform/internal/repository"
	"github.com/salonhub/salon-booking-platform/internal/service"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole returns the role claim injected by the JWT middleware.
func getRole(c echo.Context) string {
	if r, ok := c.Get("role").(string); ok {
		return r
	}
	return ""
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// parseDate parses a YYYY-MM-DD query value as a UTC day.
func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}

// writeServiceError maps the service error taxonomy onto HTTP status
// codes.  Anything unrecognized is a 500 with a generic message so
// internals never leak to clients.
func writeServiceError(c echo.Context, err error) error {
	var (
		validation *service.ValidationError
		conflict   *service.ConflictError
		policy     *service.PolicyError
		integrity  *service.IntegrityError
		external   *service.ExternalError
	)
	switch {
	case errors.As(err, &validation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": validation.Msg})
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": conflict.Msg})
	case errors.As(err, &policy):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": policy.Msg})
	case errors.As(err, &integrity):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": integrity.Msg})
	case errors.As(err, &external):
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error":     external.Msg,
			"ambiguous": external.Ambiguous,
		})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
