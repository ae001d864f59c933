package http

import (
	"errors"
	"log/slog"
	"net/http"

	"pawn-settlement/internal/domain/errs"

	"github.com/labstack/echo/v4"
)

// statusOf maps the shared error kinds to HTTP codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrInvalidInput), errors.Is(err, errs.ErrAttemptsExhausted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// responder writes error bodies. supportPhone is attached whenever the caller ran out
// of slip attempts, so the client can always show who to call.
type responder struct {
	log          *slog.Logger
	supportPhone string
}

func newResponder(log *slog.Logger, supportPhone string) responder {
	if log == nil {
		log = slog.Default()
	}
	return responder{log: log, supportPhone: supportPhone}
}

func (r responder) fail(c echo.Context, err error) error {
	var ve validationErr
	switch {
	case errors.Is(err, errBadBody):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.As(err, &ve):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(ve.err),
		})
	}

	code := statusOf(err)
	body := ErrorResponse{Error: err.Error()}
	if errors.Is(err, errs.ErrAttemptsExhausted) {
		body.SupportPhone = r.supportPhone
	}
	if code == http.StatusInternalServerError {
		r.log.Error("request failed",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Path()),
			slog.Any("err", err))
		body.Error = "internal error"
	}
	return c.JSON(code, body)
}
