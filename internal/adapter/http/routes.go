package http

import (
	"github.com/labstack/echo/v4"

	"pawn-settlement/internal/adapter/middleware"
)

type Handlers struct {
	Health      *Handler
	Penalties   *PenaltyHandler
	Redemptions *RedemptionHandler
	Actions     *ActionHandler
	Investors   *InvestorHandler
}

// Register mounts every route. idemp wraps the mutating routes; pass nil to skip it.
func Register(e *echo.Echo, h Handlers, idemp echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Health)

	write := []echo.MiddlewareFunc{middleware.RequireActor()}
	if idemp != nil {
		write = append(write, idemp)
	}
	read := []echo.MiddlewareFunc{middleware.RequireActor()}

	e.POST("/contracts/:contract_id/penalties", h.Penalties.CreatePenalty, write...)
	e.GET("/contracts/:contract_id/penalties/status", h.Penalties.GetPenaltyStatus)
	e.POST("/penalties/:penalty_id/slip", h.Penalties.VerifyPenaltySlip, write...)

	e.POST("/contracts/:contract_id/redemptions", h.Redemptions.CreateRedemption, write...)
	e.GET("/redemptions/:redemption_id", h.Redemptions.GetRedemption, read...)
	e.POST("/redemptions/:redemption_id/slip", h.Redemptions.UploadSlip, write...)
	e.POST("/redemptions/:redemption_id/verify", h.Redemptions.VerifyPayment, write...)
	e.POST("/redemptions/:redemption_id/preparing", h.Redemptions.MarkPreparing, write...)
	e.POST("/redemptions/:redemption_id/in-transit", h.Redemptions.MarkInTransit, write...)
	e.POST("/redemptions/:redemption_id/complete", h.Redemptions.UploadReceiptAndComplete, write...)
	e.POST("/redemptions/:redemption_id/cancel", h.Redemptions.Cancel, write...)
	e.POST("/redemptions/:redemption_id/reject", h.Redemptions.Reject, write...)

	e.POST("/contracts/:contract_id/action-requests", h.Actions.CreateActionRequest, write...)
	e.GET("/action-requests/:request_id", h.Actions.GetActionRequest, read...)
	e.POST("/action-requests/:request_id/accept", h.Actions.AcceptTerms, write...)
	e.POST("/action-requests/:request_id/slip", h.Actions.UploadSlip, write...)
	e.POST("/action-requests/:request_id/sign", h.Actions.Sign, write...)
	e.POST("/action-requests/:request_id/open", h.Actions.InvestorOpen, write...)
	e.POST("/action-requests/:request_id/respond", h.Actions.RespondToActionRequest, write...)
	e.POST("/action-requests/:request_id/investor-slip", h.Actions.InvestorUploadSlip, write...)
	e.POST("/action-requests/:request_id/confirm", h.Actions.PawnerConfirm, write...)
	e.POST("/action-requests/:request_id/cancel", h.Actions.Cancel, write...)

	e.GET("/investors/:investor_id/quote", h.Investors.Quote)
}
