package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"pawn-settlement/internal/domain/errs"
	ucInvestor "pawn-settlement/internal/usecase/investor"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type InvestorHandler struct {
	uc *ucInvestor.Usecase
	responder
}

func NewInvestorHandler(uc *ucInvestor.Usecase, log *slog.Logger) *InvestorHandler {
	return &InvestorHandler{uc: uc, responder: newResponder(log, "")}
}

// Quote: GET /investors/:investor_id/quote?principal=5000&term_days=30
func (h *InvestorHandler) Quote(c echo.Context) error {
	principal, err := decimal.NewFromString(c.QueryParam("principal"))
	if err != nil {
		return h.fail(c, errs.New("principal must be a decimal", errs.ErrInvalidInput))
	}
	var term int
	if raw := c.QueryParam("term_days"); raw != "" {
		if term, err = strconv.Atoi(raw); err != nil {
			return h.fail(c, errs.New("term_days must be an integer", errs.ErrInvalidInput))
		}
	}
	dto, err := h.uc.Quote(c.Request().Context(), ucInvestor.QuoteInput{
		InvestorID: c.Param("investor_id"),
		Principal:  principal,
		TermDays:   term,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
