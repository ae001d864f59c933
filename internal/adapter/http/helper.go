package http

import (
	"errors"
	"strings"

	"pawn-settlement/internal/domain/errs"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

var errBadBody = errors.New("invalid body")

type validationErr struct{ err error }

func (v validationErr) Error() string { return "validation failed" }

// bind decodes the JSON body into req and runs the struct validator.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errBadBody
	}
	if err := c.Validate(req); err != nil {
		return validationErr{err: err}
	}
	return nil
}

// optAmount parses an optional decimal string; empty means absent.
func optAmount(field, raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, errs.New(field+" is not a decimal", errs.ErrInvalidInput)
	}
	return &d, nil
}

// pathID reads a 32-hex entity id from the route.
func pathID(c echo.Context, name string) (string, error) {
	v := c.Param(name)
	if !reHex32.MatchString(v) {
		return "", errs.New(name+" must be 32-char lowercase hex", errs.ErrInvalidInput)
	}
	return v, nil
}
