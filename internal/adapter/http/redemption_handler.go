package http

import (
	"context"
	"log/slog"
	"net/http"

	"pawn-settlement/internal/adapter/middleware"
	domainRedemption "pawn-settlement/internal/domain/redemption"
	"pawn-settlement/internal/usecase/redemption"

	"github.com/labstack/echo/v4"
)

type RedemptionHandler struct {
	uc *redemption.Usecase
	responder
}

func NewRedemptionHandler(uc *redemption.Usecase, log *slog.Logger) *RedemptionHandler {
	return &RedemptionHandler{uc: uc, responder: newResponder(log, "")}
}

// Amounts are optional; when present they must equal today's payoff.
type createRedemptionReq struct {
	RequestType     string `json:"request_type"     validate:"omitempty,oneof=REDEMPTION"`
	DeliveryMethod  string `json:"delivery_method"  validate:"required,oneof=SELF_PICKUP SELF_ARRANGE PLATFORM_ARRANGE"`
	PrincipalAmount string `json:"principal_amount" validate:"omitempty,dec2"`
	InterestAmount  string `json:"interest_amount"  validate:"omitempty,dec2"`
	DeliveryFee     string `json:"delivery_fee"     validate:"omitempty,dec2"`
	TotalAmount     string `json:"total_amount"     validate:"omitempty,dec2"`
}

type verifyRedemptionReq struct {
	Action           string `json:"action"            validate:"required,oneof=amount_correct amount_incorrect"`
	AdditionalAmount string `json:"additional_amount" validate:"omitempty,positive,dec2"`
}

type completeRedemptionReq struct {
	ReceiptPhotos []string `json:"receipt_photos" validate:"required,min=1,dive,url"`
}

type slipReq struct {
	SlipURL string `json:"slip_url" validate:"required,url"`
}

type reasonReq struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (h *RedemptionHandler) CreateRedemption(c echo.Context) error {
	contractID, err := pathID(c, "contract_id")
	if err != nil {
		return h.fail(c, err)
	}
	var req createRedemptionReq
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	in := redemption.CreateInput{
		ContractID:     contractID,
		RequestType:    req.RequestType,
		DeliveryMethod: domainRedemption.DeliveryMethod(req.DeliveryMethod),
		PawnerID:       middleware.Actor(c),
	}
	if in.PrincipalAmount, err = optAmount("principal_amount", req.PrincipalAmount); err != nil {
		return h.fail(c, err)
	}
	if in.InterestAmount, err = optAmount("interest_amount", req.InterestAmount); err != nil {
		return h.fail(c, err)
	}
	if in.DeliveryFee, err = optAmount("delivery_fee", req.DeliveryFee); err != nil {
		return h.fail(c, err)
	}
	if in.TotalAmount, err = optAmount("total_amount", req.TotalAmount); err != nil {
		return h.fail(c, err)
	}
	dto, err := h.uc.Create(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *RedemptionHandler) GetRedemption(c echo.Context) error {
	redemptionID, err := pathID(c, "redemption_id")
	if err != nil {
		return h.fail(c, err)
	}
	dto, err := h.uc.Get(c.Request().Context(), redemptionID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *RedemptionHandler) UploadSlip(c echo.Context) error {
	redemptionID, err := pathID(c, "redemption_id")
	if err != nil {
		return h.fail(c, err)
	}
	var req slipReq
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	dto, err := h.uc.UploadSlip(c.Request().Context(), redemptionID, req.SlipURL, middleware.Actor(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *RedemptionHandler) VerifyPayment(c echo.Context) error {
	redemptionID, err := pathID(c, "redemption_id")
	if err != nil {
		return h.fail(c, err)
	}
	var req verifyRedemptionReq
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	additional, err := optAmount("additional_amount", req.AdditionalAmount)
	if err != nil {
		return h.fail(c, err)
	}
	dto, err := h.uc.VerifyPayment(c.Request().Context(), redemption.VerifyInput{
		RedemptionID:     redemptionID,
		Actor:            middleware.Actor(c),
		Action:           req.Action,
		AdditionalAmount: additional,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *RedemptionHandler) MarkPreparing(c echo.Context) error {
	return h.milestone(c, h.uc.MarkPreparing)
}

func (h *RedemptionHandler) MarkInTransit(c echo.Context) error {
	return h.milestone(c, h.uc.MarkInTransit)
}

func (h *RedemptionHandler) milestone(c echo.Context, step func(ctx context.Context, id, actor string) (*redemption.RequestDTO, error)) error {
	redemptionID, err := pathID(c, "redemption_id")
	if err != nil {
		return h.fail(c, err)
	}
	dto, err := step(c.Request().Context(), redemptionID, middleware.Actor(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *RedemptionHandler) UploadReceiptAndComplete(c echo.Context) error {
	redemptionID, err := pathID(c, "redemption_id")
	if err != nil {
		return h.fail(c, err)
	}
	var req completeRedemptionReq
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	dto, err := h.uc.UploadReceiptAndComplete(c.Request().Context(), redemption.CompleteInput{
		RedemptionID:  redemptionID,
		Actor:         middleware.Actor(c),
		ReceiptPhotos: req.ReceiptPhotos,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *RedemptionHandler) Cancel(c echo.Context) error {
	return h.withReason(c, h.uc.Cancel)
}

func (h *RedemptionHandler) Reject(c echo.Context) error {
	return h.withReason(c, h.uc.Reject)
}

func (h *RedemptionHandler) withReason(c echo.Context, step func(ctx context.Context, id, actor, reason string) (*redemption.RequestDTO, error)) error {
	redemptionID, err := pathID(c, "redemption_id")
	if err != nil {
		return h.fail(c, err)
	}
	var req reasonReq
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	dto, err := step(c.Request().Context(), redemptionID, middleware.Actor(c), req.Reason)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
