package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Check is a named readiness probe (database, redis).
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type Handler struct{ checks []Check }

func NewHandler(checks ...Check) *Handler { return &Handler{checks: checks} }

// Health answers 200 with status "ok", or 503 "degraded" naming each failed dependency.
func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	code, status := http.StatusOK, "ok"
	failed := map[string]string{}
	for _, chk := range h.checks {
		if err := chk.Ping(ctx); err != nil {
			failed[chk.Name] = err.Error()
			code, status = http.StatusServiceUnavailable, "degraded"
		}
	}
	body := map[string]any{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	}
	if len(failed) > 0 {
		body["failed"] = failed
	}
	return c.JSON(code, body)
}
