package redemption

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainAction "pawn-settlement/internal/domain/action"
	domainContract "pawn-settlement/internal/domain/contract"
	"pawn-settlement/internal/domain/errs"
	domainRedemption "pawn-settlement/internal/domain/redemption"
	"pawn-settlement/internal/domain/uow"
	"pawn-settlement/internal/finance"
	"pawn-settlement/internal/notify"
	"pawn-settlement/internal/projection"
	actionUsecase "pawn-settlement/internal/usecase/action"
	"pawn-settlement/pkg/id"

	"github.com/shopspring/decimal"
)

type Notifier interface {
	Dispatch(ctx context.Context, ev notify.Event)
}

type Deps struct {
	UoW         uow.UnitOfWork
	Redemptions domainRedemption.Repository
	Notifier    Notifier
	Projector   *projection.Updater
	Log         *slog.Logger
	Now         func() time.Time
	// Fraction of interest kept by the platform when the contract sets none.
	PlatformFeeRate decimal.Decimal
	// Charged only for PLATFORM_ARRANGE delivery.
	PlatformDeliveryFee decimal.Decimal
}

type Usecase struct {
	uow         uow.UnitOfWork
	redemptions domainRedemption.Repository
	notifier    Notifier
	projector   *projection.Updater
	log         *slog.Logger
	now         func() time.Time
	feeRate     decimal.Decimal
	deliveryFee decimal.Decimal
}

func NewUsecase(d Deps) *Usecase {
	u := &Usecase{
		uow:         d.UoW,
		redemptions: d.Redemptions,
		notifier:    d.Notifier,
		projector:   d.Projector,
		log:         d.Log,
		now:         d.Now,
		feeRate:     d.PlatformFeeRate,
		deliveryFee: d.PlatformDeliveryFee,
	}
	if u.now == nil {
		u.now = time.Now
	}
	if u.log == nil {
		u.log = slog.Default()
	}
	if u.projector == nil {
		u.projector = projection.NewUpdater(u.now)
	}
	return u
}

func (u *Usecase) feeFor(m domainRedemption.DeliveryMethod) decimal.Decimal {
	if m == domainRedemption.DeliveryPlatformArrange {
		return u.deliveryFee
	}
	return decimal.Zero
}

func mismatch(field string, want decimal.Decimal, got *decimal.Decimal) error {
	if got == nil || got.Round(2).Equal(want.Round(2)) {
		return nil
	}
	return errs.New(fmt.Sprintf("%s must be %s, got %s", field, want.StringFixed(2), got.StringFixed(2)), errs.ErrInvalidInput)
}

// Create opens a redemption for the pawner. The unique active key on the table refuses a
// second one while the first is still open; an open action request refuses it too.
func (u *Usecase) Create(ctx context.Context, in CreateInput) (*RequestDTO, error) {
	if in.RequestType != "" && in.RequestType != domainRedemption.RequestTypeFull {
		return nil, errs.New(fmt.Sprintf("unknown redemption type %q", in.RequestType), errs.ErrInvalidInput)
	}
	if !in.DeliveryMethod.Valid() {
		return nil, errs.New(fmt.Sprintf("unknown delivery method %q", in.DeliveryMethod), errs.ErrInvalidInput)
	}

	var (
		r *domainRedemption.Request
		c *domainContract.Contract
	)
	err := u.uow.WithinContractTx(ctx, in.ContractID, func(repos uow.Repos, locked *domainContract.Contract) error {
		c = locked
		if !c.IsOpen() {
			return domainContract.ErrNotActive
		}
		if !c.IsPawner(in.PawnerID) {
			return domainContract.ErrNotParty
		}
		if _, err := repos.Actions.GetOpenByContractID(ctx, c.ContractID); err == nil {
			return domainAction.ErrPendingExists
		} else if !errors.Is(err, domainAction.ErrNotFound) {
			return err
		}
		payoff, err := finance.RedemptionPayoff(finance.PayoffTerms{
			PrincipalRemaining: c.PrincipalRemaining(),
			MonthlyRatePercent: c.InterestRate,
			InterestCutoff:     c.InterestCutoff(),
			AsOf:               u.now(),
			DeliveryFee:        u.feeFor(in.DeliveryMethod),
		})
		if err != nil {
			return err
		}
		for _, chk := range []error{
			mismatch("principal_amount", payoff.Principal, in.PrincipalAmount),
			mismatch("interest_amount", payoff.Interest, in.InterestAmount),
			mismatch("delivery_fee", payoff.DeliveryFee, in.DeliveryFee),
			mismatch("total_amount", payoff.Total, in.TotalAmount),
		} {
			if chk != nil {
				return chk
			}
		}

		key := c.ContractID
		r = &domainRedemption.Request{
			RedemptionID:    id.NewID32(),
			ContractID:      c.ContractID,
			RequestType:     domainRedemption.RequestTypeFull,
			PawnerID:        in.PawnerID,
			PrincipalAmount: payoff.Principal,
			InterestAmount:  payoff.Interest,
			DeliveryFee:     payoff.DeliveryFee,
			TotalAmount:     payoff.Total,
			DeliveryMethod:  in.DeliveryMethod,
			Status:          domainRedemption.StatusPending,
			ActiveKey:       &key,
		}
		if !r.Conserved() {
			return errs.New("redemption amounts do not add up", errs.ErrInvariant)
		}
		if err := repos.Redemptions.Create(ctx, r); err != nil {
			return err
		}
		return u.projector.ApplyRedemption(ctx, repos.Contracts, c, r)
	})
	if err != nil {
		return nil, err
	}
	u.log.Info("redemption created",
		slog.String("redemption_id", r.RedemptionID),
		slog.String("contract_id", r.ContractID),
		slog.String("total", r.TotalAmount.StringFixed(2)))
	u.announce(ctx, &fired{req: r, contract: c}, in.PawnerID)
	return toDTO(r), nil
}

func (u *Usecase) Get(ctx context.Context, redemptionID string) (*RequestDTO, error) {
	r, err := u.redemptions.GetByRedemptionID(ctx, redemptionID)
	if err != nil {
		return nil, err
	}
	return toDTO(r), nil
}

type role int

const (
	rolePawner role = iota
	roleDropPoint
)

func authorize(c *domainContract.Contract, actor string, who role) error {
	ok := false
	switch who {
	case rolePawner:
		ok = c.IsPawner(actor)
	case roleDropPoint:
		ok = c.IsDropPoint(actor)
	}
	if !ok {
		return domainContract.ErrNotParty
	}
	return nil
}

type fired struct {
	req      *domainRedemption.Request
	contract *domainContract.Contract
	settled  bool
}

// fire runs one redemption transition under the contract lock. mutate fills the fields
// that go with the new status and may refuse the transition.
func (u *Usecase) fire(ctx context.Context, redemptionID, actor string, who role, tr domainRedemption.Trigger,
	mutate func(r *domainRedemption.Request, c *domainContract.Contract) error) (*fired, error) {

	head, err := u.redemptions.GetByRedemptionID(ctx, redemptionID)
	if err != nil {
		return nil, err
	}
	out := &fired{}
	err = u.uow.WithinContractTx(ctx, head.ContractID, func(repos uow.Repos, c *domainContract.Contract) error {
		r, err := repos.Redemptions.GetByRedemptionID(ctx, redemptionID)
		if err != nil {
			return err
		}
		out.req, out.contract = r, c
		if err := authorize(c, actor, who); err != nil {
			return err
		}
		if domainRedemption.Settled(r.Status, tr) {
			out.settled = true
			return nil
		}
		to, err := domainRedemption.Next(r.DeliveryMethod, r.Status, tr)
		if err != nil {
			return err
		}
		expected := r.Status
		r.Status = to
		if mutate != nil {
			if err := mutate(r, c); err != nil {
				return err
			}
		}
		if err := repos.Redemptions.Transition(ctx, r, expected); err != nil {
			return err
		}
		if to == domainRedemption.StatusCompleted {
			voided, err := actionUsecase.VoidOpen(ctx, repos, c.ContractID, actor, "contract redeemed")
			if err != nil {
				return err
			}
			if voided != nil {
				u.log.Info("open action request voided by redemption",
					slog.String("request_id", voided.RequestID),
					slog.String("redemption_id", r.RedemptionID))
			}
		}
		return u.projector.ApplyRedemption(ctx, repos.Contracts, c, r)
	})
	if err != nil {
		return nil, err
	}
	u.announce(ctx, out, actor)
	return out, nil
}

func (u *Usecase) announce(ctx context.Context, f *fired, actor string) {
	if f.settled {
		return
	}
	r := f.req
	ev := notify.Event{
		Entity:     notify.EntityRedemption,
		EntityID:   r.RedemptionID,
		ContractID: r.ContractID,
		State:      string(r.Status),
		Actor:      actor,
		Parties:    notify.PartiesOf(f.contract),
		Amount:     r.TotalAmount,
	}
	switch {
	case r.Status == domainRedemption.StatusAmountMismatch && r.AdditionalAmountRequired != nil:
		ev.Amount = *r.AdditionalAmountRequired
	case r.Status == domainRedemption.StatusCompleted && r.InvestorNetProfit != nil:
		ev.Amount = *r.InvestorNetProfit
	}
	if r.RejectionReason != nil {
		ev.Reason = *r.RejectionReason
	}
	u.notifier.Dispatch(ctx, ev)
}

func (u *Usecase) UploadSlip(ctx context.Context, redemptionID, slipURL, actor string) (*RequestDTO, error) {
	if slipURL == "" {
		return nil, errs.New("slip_url is required", errs.ErrInvalidInput)
	}
	f, err := u.fire(ctx, redemptionID, actor, rolePawner, domainRedemption.TriggerUploadSlip,
		func(r *domainRedemption.Request, _ *domainContract.Contract) error {
			r.SlipURL = slipURL
			return nil
		})
	if err != nil {
		return nil, err
	}
	return toDTO(f.req), nil
}

// VerifyPayment is the drop point's manual check of the uploaded slip.
func (u *Usecase) VerifyPayment(ctx context.Context, in VerifyInput) (*RequestDTO, error) {
	var (
		tr     domainRedemption.Trigger
		mutate func(r *domainRedemption.Request, _ *domainContract.Contract) error
	)
	switch in.Action {
	case VerifyAmountCorrect:
		tr = domainRedemption.TriggerAmountCorrect
		mutate = func(r *domainRedemption.Request, _ *domainContract.Contract) error {
			r.AdditionalAmountRequired = nil
			return nil
		}
	case VerifyAmountIncorrect:
		if in.AdditionalAmount == nil || !in.AdditionalAmount.IsPositive() {
			return nil, errs.New("additional_amount must be positive when the amount is incorrect", errs.ErrInvalidInput)
		}
		extra := in.AdditionalAmount.Round(2)
		tr = domainRedemption.TriggerAmountWrong
		mutate = func(r *domainRedemption.Request, _ *domainContract.Contract) error {
			r.AdditionalAmountRequired = &extra
			return nil
		}
	default:
		return nil, errs.New(fmt.Sprintf("unknown verify action %q", in.Action), errs.ErrInvalidInput)
	}
	f, err := u.fire(ctx, in.RedemptionID, in.Actor, roleDropPoint, tr, mutate)
	if err != nil {
		return nil, err
	}
	return toDTO(f.req), nil
}

func (u *Usecase) MarkPreparing(ctx context.Context, redemptionID, actor string) (*RequestDTO, error) {
	f, err := u.fire(ctx, redemptionID, actor, roleDropPoint, domainRedemption.TriggerPrepare, nil)
	if err != nil {
		return nil, err
	}
	return toDTO(f.req), nil
}

func (u *Usecase) MarkInTransit(ctx context.Context, redemptionID, actor string) (*RequestDTO, error) {
	f, err := u.fire(ctx, redemptionID, actor, roleDropPoint, domainRedemption.TriggerShip, nil)
	if err != nil {
		return nil, err
	}
	return toDTO(f.req), nil
}

// UploadReceiptAndComplete closes the redemption with proof of hand-over, splits the
// interest between investor and platform and closes the contract.
func (u *Usecase) UploadReceiptAndComplete(ctx context.Context, in CompleteInput) (*RequestDTO, error) {
	if len(in.ReceiptPhotos) == 0 {
		return nil, errs.New("at least one receipt photo is required", errs.ErrInvalidInput)
	}
	photos, err := json.Marshal(in.ReceiptPhotos)
	if err != nil {
		return nil, err
	}
	f, err := u.fire(ctx, in.RedemptionID, in.Actor, roleDropPoint, domainRedemption.TriggerComplete,
		func(r *domainRedemption.Request, c *domainContract.Contract) error {
			rate := u.feeRate
			if c.PlatformFeeRate != nil {
				rate = *c.PlatformFeeRate
			}
			split, err := finance.ProfitSplit(r.InterestAmount, rate)
			if err != nil {
				return err
			}
			if !split.NetProfit.Add(split.PlatformFee).Equal(r.InterestAmount) || !r.Conserved() {
				return errs.New(fmt.Sprintf("redemption %s does not conserve its amounts", r.RedemptionID), errs.ErrInvariant)
			}
			now := u.now()
			r.ReceiptPhotos = string(photos)
			r.InvestorInterestEarned = &split.InterestEarned
			r.PlatformFeeDeducted = &split.PlatformFee
			r.InvestorNetProfit = &split.NetProfit
			r.CompletedAt = &now
			return nil
		})
	if err != nil {
		return nil, err
	}
	if !f.settled {
		u.log.Info("redemption completed",
			slog.String("redemption_id", f.req.RedemptionID),
			slog.String("contract_id", f.req.ContractID),
			slog.String("platform_fee", f.req.PlatformFeeDeducted.StringFixed(2)),
			slog.String("investor_net_profit", f.req.InvestorNetProfit.StringFixed(2)))
	}
	return toDTO(f.req), nil
}

// Cancel is the pawner withdrawing before payment is accepted.
func (u *Usecase) Cancel(ctx context.Context, redemptionID, actor, reason string) (*RequestDTO, error) {
	f, err := u.fire(ctx, redemptionID, actor, rolePawner, domainRedemption.TriggerCancel,
		func(r *domainRedemption.Request, _ *domainContract.Contract) error {
			if reason != "" {
				r.RejectionReason = &reason
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return toDTO(f.req), nil
}

// Reject is the drop point refusing the redemption; the pawner is told why.
func (u *Usecase) Reject(ctx context.Context, redemptionID, actor, reason string) (*RequestDTO, error) {
	if reason == "" {
		return nil, errs.New("a rejection needs a reason", errs.ErrInvalidInput)
	}
	f, err := u.fire(ctx, redemptionID, actor, roleDropPoint, domainRedemption.TriggerReject,
		func(r *domainRedemption.Request, _ *domainContract.Contract) error {
			r.RejectionReason = &reason
			return nil
		})
	if err != nil {
		return nil, err
	}
	return toDTO(f.req), nil
}
