package http

import (
	"log/slog"
	"net/http"

	"pawn-settlement/internal/adapter/middleware"
	"pawn-settlement/internal/usecase/penalty"

	"github.com/labstack/echo/v4"
)

type PenaltyHandler struct {
	uc *penalty.Usecase
	responder
}

func NewPenaltyHandler(uc *penalty.Usecase, log *slog.Logger, supportPhone string) *PenaltyHandler {
	return &PenaltyHandler{uc: uc, responder: newResponder(log, supportPhone)}
}

type penaltySlipReq struct {
	SlipURL string `json:"slip_url" validate:"required,url"`
}

// CreatePenalty is idempotent per contract and day; a contract that owes nothing
// gets required=false rather than an error.
func (h *PenaltyHandler) CreatePenalty(c echo.Context) error {
	contractID, err := pathID(c, "contract_id")
	if err != nil {
		return h.fail(c, err)
	}
	dto, err := h.uc.CreatePenalty(c.Request().Context(), contractID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *PenaltyHandler) GetPenaltyStatus(c echo.Context) error {
	contractID, err := pathID(c, "contract_id")
	if err != nil {
		return h.fail(c, err)
	}
	dto, err := h.uc.GetPenaltyStatus(c.Request().Context(), contractID, c.QueryParam("line_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// VerifyPenaltySlip answers 200 for every classified slip, including rejections;
// Success in the body tells them apart.
func (h *PenaltyHandler) VerifyPenaltySlip(c echo.Context) error {
	paymentID, err := pathID(c, "penalty_id")
	if err != nil {
		return h.fail(c, err)
	}
	var req penaltySlipReq
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	res, err := h.uc.VerifyPenaltySlip(c.Request().Context(), penalty.VerifyInput{
		PaymentID: paymentID,
		SlipURL:   req.SlipURL,
		PawnerID:  middleware.Actor(c),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
