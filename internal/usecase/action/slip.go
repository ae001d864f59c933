package action

import (
	"context"
	"fmt"
	"log/slog"

	domainAction "pawn-settlement/internal/domain/action"
	domainContract "pawn-settlement/internal/domain/contract"
	"pawn-settlement/internal/domain/errs"
	"pawn-settlement/internal/domain/uow"
	"pawn-settlement/internal/slip"

	"github.com/shopspring/decimal"
)

// payer describes one side's slip step. The pawner pays the request total first; on
// approval types the investor later pays the transfer amount.
type payer struct {
	who      role
	upload   domainAction.Trigger
	verified domainAction.Trigger
	rejected domainAction.Trigger
	uploaded domainAction.Status
	final    domainAction.Status
	attempts func(*domainAction.ActionRequest) int
	record   func(r *domainAction.ActionRequest, url string)
	replace  func(r *domainAction.ActionRequest, url string)
	slipURL  func(*domainAction.ActionRequest) string
	expected func(*domainAction.ActionRequest) decimal.Decimal
}

var pawnerPayer = payer{
	who:      rolePawner,
	upload:   domainAction.TriggerUploadSlip,
	verified: domainAction.TriggerSlipVerified,
	rejected: domainAction.TriggerSlipRejected,
	uploaded: domainAction.StatusSlipUploaded,
	final:    domainAction.StatusSlipRejectedFinal,
	attempts: func(r *domainAction.ActionRequest) int { return r.SlipAttempts },
	record: func(r *domainAction.ActionRequest, url string) {
		r.SlipURL = url
		r.SlipAttempts++
	},
	replace:  func(r *domainAction.ActionRequest, url string) { r.SlipURL = url },
	slipURL:  func(r *domainAction.ActionRequest) string { return r.SlipURL },
	expected: func(r *domainAction.ActionRequest) decimal.Decimal { return r.TotalAmount },
}

var investorPayer = payer{
	who:      roleInvestor,
	upload:   domainAction.TriggerInvestorUploadSlip,
	verified: domainAction.TriggerInvestorSlipVerified,
	rejected: domainAction.TriggerInvestorSlipRejected,
	uploaded: domainAction.StatusInvestorSlipUploaded,
	final:    domainAction.StatusInvestorSlipRejectedFinal,
	attempts: func(r *domainAction.ActionRequest) int { return r.InvestorSlipAttempts },
	record: func(r *domainAction.ActionRequest, url string) {
		r.InvestorSlipURL = url
		r.InvestorSlipAttempts++
	},
	replace:  func(r *domainAction.ActionRequest, url string) { r.InvestorSlipURL = url },
	slipURL:  func(r *domainAction.ActionRequest) string { return r.InvestorSlipURL },
	expected: func(r *domainAction.ActionRequest) decimal.Decimal { return r.InvestorTransfer() },
}

// UploadSlip records the pawner's transfer slip and verifies it.
func (u *Usecase) UploadSlip(ctx context.Context, in SlipInput) (*SlipResultDTO, error) {
	return u.uploadSlip(ctx, pawnerPayer, in)
}

// InvestorUploadSlip records the investor's transfer slip and verifies it.
func (u *Usecase) InvestorUploadSlip(ctx context.Context, in SlipInput) (*SlipResultDTO, error) {
	return u.uploadSlip(ctx, investorPayer, in)
}

// uploadSlip runs in three steps so the OCR call never holds a row lock: persist the
// upload, verify, persist the outcome. A request left in the uploaded state by a failed
// verification is verified again on the next call, against the newly submitted slip if it
// differs. Replacing the slip there does not spend an attempt.
func (u *Usecase) uploadSlip(ctx context.Context, p payer, in SlipInput) (*SlipResultDTO, error) {
	if in.SlipURL == "" {
		return nil, errs.New("slip_url is required", errs.ErrInvalidInput)
	}
	head, err := u.actions.GetByRequestID(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}

	var (
		r    *domainAction.ActionRequest
		done bool
	)
	err = u.uow.WithinContractTx(ctx, head.ContractID, func(repos uow.Repos, c *domainContract.Contract) error {
		var err error
		r, err = repos.Actions.GetByRequestID(ctx, in.RequestID)
		if err != nil {
			return err
		}
		if err := authorize(c, in.Actor, p.who); err != nil {
			return err
		}
		switch {
		case domainAction.Settled(r.RequestType, r.Status, p.verified):
			done = true
			return nil
		case r.Status == p.uploaded:
			if p.slipURL(r) == in.SlipURL {
				return nil
			}
			p.replace(r, in.SlipURL)
			if err := repos.Actions.Transition(ctx, r, r.Status); err != nil {
				return err
			}
			return repos.Actions.AppendEvents(ctx, []domainAction.Event{{
				RequestID: r.RequestID,
				FromState: r.Status,
				ToState:   r.Status,
				Trigger:   p.upload,
				Actor:     in.Actor,
			}})
		case r.Status == p.final || p.attempts(r) >= domainAction.MaxSlipAttempts:
			return domainAction.ErrAttemptsExhausted
		}
		steps, err := domainAction.Run(r.RequestType, r.Status, p.upload, p.attempts(r))
		if err != nil {
			return err
		}
		return u.persist(ctx, repos, c, r, steps, in.Actor, func(r *domainAction.ActionRequest) { p.record(r, in.SlipURL) })
	})
	if err != nil {
		return nil, err
	}
	if done {
		return &SlipResultDTO{
			Success:           true,
			Result:            string(slip.Matched),
			Message:           "payment already verified",
			RemainingAttempts: domainAction.MaxSlipAttempts - p.attempts(r),
			Request:           toDTO(r),
		}, nil
	}

	res, err := u.verifier.Verify(context.WithoutCancel(ctx), p.slipURL(r), p.expected(r))
	if err != nil {
		return nil, fmt.Errorf("verify slip for %s: %w", r.RequestID, err)
	}
	u.log.Info("slip verified",
		slog.String("request_id", r.RequestID),
		slog.String("outcome", string(res.Outcome)),
		slog.Int("attempt", p.attempts(r)))

	tr := p.rejected
	if res.Accepted() {
		tr = p.verified
	}
	f, err := u.fire(ctx, r.RequestID, in.Actor, p.who, tr, p.attempts, nil)
	if err != nil {
		return nil, err
	}

	remaining := domainAction.MaxSlipAttempts - p.attempts(f.req)
	out := &SlipResultDTO{
		Success:           res.Accepted(),
		Result:            string(res.Outcome),
		Message:           res.Message,
		DetectedAmount:    res.DetectedAmount,
		Difference:        res.Difference,
		RemainingAttempts: remaining,
		Request:           toDTO(f.req),
	}
	if f.req.Status == p.final {
		out.SupportPhone = u.supportPhone
	}
	if !f.settled {
		ev := u.event(f, in.Actor, remaining)
		ev.Reason = res.Message
		u.notifier.Dispatch(ctx, ev)
	}
	return out, nil
}
