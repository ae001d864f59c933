package http

import (
	"context"
	"log/slog"
	"net/http"

	"pawn-settlement/internal/adapter/middleware"
	domainAction "pawn-settlement/internal/domain/action"
	"pawn-settlement/internal/usecase/action"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ActionHandler struct {
	uc *action.Usecase
	responder
}

func NewActionHandler(uc *action.Usecase, log *slog.Logger, supportPhone string) *ActionHandler {
	return &ActionHandler{uc: uc, responder: newResponder(log, supportPhone)}
}

type createActionReq struct {
	RequestType string `json:"request_type" validate:"required,oneof=PRINCIPAL_INCREASE PRINCIPAL_REDUCTION INTEREST_PAYMENT REDEMPTION"`
	Amount      string `json:"amount"       validate:"required,positive,dec2"`
}

type respondReq struct {
	Action string `json:"action" validate:"required,oneof=APPROVE REJECT"`
	Reason string `json:"reason" validate:"max=500"`
}

func (h *ActionHandler) CreateActionRequest(c echo.Context) error {
	contractID, err := pathID(c, "contract_id")
	if err != nil {
		return h.fail(c, err)
	}
	var req createActionReq
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	dto, err := h.uc.Create(c.Request().Context(), action.CreateInput{
		ContractID:  contractID,
		RequestType: domainAction.RequestType(req.RequestType),
		Amount:      decimal.RequireFromString(req.Amount),
		Actor:       middleware.Actor(c),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *ActionHandler) GetActionRequest(c echo.Context) error {
	requestID, err := pathID(c, "request_id")
	if err != nil {
		return h.fail(c, err)
	}
	dto, err := h.uc.Get(c.Request().Context(), requestID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ActionHandler) AcceptTerms(c echo.Context) error   { return h.step(c, h.uc.AcceptTerms) }
func (h *ActionHandler) Sign(c echo.Context) error          { return h.step(c, h.uc.Sign) }
func (h *ActionHandler) InvestorOpen(c echo.Context) error  { return h.step(c, h.uc.InvestorOpen) }
func (h *ActionHandler) PawnerConfirm(c echo.Context) error { return h.step(c, h.uc.PawnerConfirm) }

func (h *ActionHandler) step(c echo.Context, fn func(ctx context.Context, requestID, actor string) (*action.RequestDTO, error)) error {
	requestID, err := pathID(c, "request_id")
	if err != nil {
		return h.fail(c, err)
	}
	dto, err := fn(c.Request().Context(), requestID, middleware.Actor(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ActionHandler) UploadSlip(c echo.Context) error {
	return h.slip(c, h.uc.UploadSlip)
}

func (h *ActionHandler) InvestorUploadSlip(c echo.Context) error {
	return h.slip(c, h.uc.InvestorUploadSlip)
}

// slip answers 200 for every classified slip; Success in the body says whether it was accepted.
func (h *ActionHandler) slip(c echo.Context, fn func(ctx context.Context, in action.SlipInput) (*action.SlipResultDTO, error)) error {
	requestID, err := pathID(c, "request_id")
	if err != nil {
		return h.fail(c, err)
	}
	var req slipReq
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	res, err := fn(c.Request().Context(), action.SlipInput{
		RequestID: requestID,
		SlipURL:   req.SlipURL,
		Actor:     middleware.Actor(c),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// RespondToActionRequest is the investor's APPROVE or REJECT; a rejection needs a reason.
func (h *ActionHandler) RespondToActionRequest(c echo.Context) error {
	requestID, err := pathID(c, "request_id")
	if err != nil {
		return h.fail(c, err)
	}
	var req respondReq
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	dto, err := h.uc.Respond(c.Request().Context(), action.RespondInput{
		RequestID: requestID,
		Actor:     middleware.Actor(c),
		Action:    req.Action,
		Reason:    req.Reason,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ActionHandler) Cancel(c echo.Context) error {
	requestID, err := pathID(c, "request_id")
	if err != nil {
		return h.fail(c, err)
	}
	var req reasonReq
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	dto, err := h.uc.Cancel(c.Request().Context(), requestID, middleware.Actor(c), req.Reason)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
