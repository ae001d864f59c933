package penalty

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domainContract "pawn-settlement/internal/domain/contract"
	domainPenalty "pawn-settlement/internal/domain/penalty"
	"pawn-settlement/internal/domain/uow"
	"pawn-settlement/internal/finance"
	"pawn-settlement/internal/notify"
	"pawn-settlement/internal/projection"
	"pawn-settlement/internal/slip"
	"pawn-settlement/pkg/id"

	"github.com/shopspring/decimal"
)

type Notifier interface {
	Dispatch(ctx context.Context, ev notify.Event)
}

type Deps struct {
	UoW          uow.UnitOfWork
	Contracts    domainContract.Repository
	Penalties    domainPenalty.Repository
	Verifier     slip.Verifier
	Notifier     Notifier
	Projector    *projection.Updater
	Log          *slog.Logger
	Now          func() time.Time
	DailyRate    decimal.Decimal
	SupportPhone string
}

type Usecase struct {
	uow          uow.UnitOfWork
	contracts    domainContract.Repository
	penalties    domainPenalty.Repository
	verifier     slip.Verifier
	notifier     Notifier
	projector    *projection.Updater
	log          *slog.Logger
	now          func() time.Time
	dailyRate    decimal.Decimal
	supportPhone string
}

func NewUsecase(d Deps) *Usecase {
	u := &Usecase{
		uow:          d.UoW,
		contracts:    d.Contracts,
		penalties:    d.Penalties,
		verifier:     d.Verifier,
		notifier:     d.Notifier,
		projector:    d.Projector,
		log:          d.Log,
		now:          d.Now,
		dailyRate:    d.DailyRate,
		supportPhone: d.SupportPhone,
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
	if u.dailyRate.IsZero() {
		u.dailyRate = finance.DefaultDailyPenaltyRate
	}
	return u
}

func (u *Usecase) today() time.Time { return finance.Midnight(u.now()) }

type assessment struct {
	daysOverdue int
	unpaidDays  int
	amount      decimal.Decimal
}

// assess counts overdue days from the end date, but only charges days after whatever
// late fees were already settled.
func (u *Usecase) assess(c *domainContract.Contract, today time.Time) (assessment, error) {
	total, err := finance.OverdueDays(c.EndDate, today)
	if err != nil {
		return assessment{}, err
	}
	from := c.EndDate
	if c.PenaltyPaidThrough != nil && c.PenaltyPaidThrough.After(from) {
		from = *c.PenaltyPaidThrough
	}
	unpaid, err := finance.DaysBetween(from, today)
	if err != nil {
		return assessment{}, err
	}
	amount, err := finance.PenaltyAmount(unpaid, u.dailyRate)
	if err != nil {
		return assessment{}, err
	}
	return assessment{daysOverdue: total, unpaidDays: unpaid, amount: amount}, nil
}

func (u *Usecase) unowed(c *domainContract.Contract, a assessment, today time.Time) *StatusDTO {
	return &StatusDTO{
		Required:        false,
		AlreadyPaid:     a.daysOverdue > 0 && c.PenaltyPaidThrough != nil && !c.PenaltyPaidThrough.Before(today),
		PenaltyAmount:   decimal.Zero,
		DaysOverdue:     a.daysOverdue,
		PaidThroughDate: c.PenaltyPaidThrough,
	}
}

// CreatePenalty returns today's late-fee payment for the contract, creating it on the
// first call of the day. Older unpaid rows are cancelled since today's amount covers them.
func (u *Usecase) CreatePenalty(ctx context.Context, contractID string) (*StatusDTO, error) {
	today := u.today()
	var (
		out     *StatusDTO
		created bool
	)
	err := u.uow.WithinContractTx(ctx, contractID, func(repos uow.Repos, c *domainContract.Contract) error {
		existing, err := repos.Penalties.GetActiveForDay(ctx, contractID, today)
		if err == nil {
			out = toDTO(existing)
			return nil
		}
		if !errors.Is(err, domainPenalty.ErrNotFound) {
			return err
		}

		a, err := u.assess(c, today)
		if err != nil {
			return err
		}
		if !c.IsOpen() || a.unpaidDays == 0 {
			out = u.unowed(c, a, today)
			return nil
		}

		stale, err := repos.Penalties.ListPayable(ctx, contractID)
		if err != nil {
			return err
		}
		for i := range stale {
			p := &stale[i]
			if !p.PenaltyDate.Before(today) {
				continue
			}
			expected := p.Status
			p.Status = domainPenalty.StatusCancelled
			if err := repos.Penalties.Update(ctx, p, expected, p.AttemptCount); err != nil {
				return err
			}
		}

		row, ok, err := repos.Penalties.CreateIfAbsent(ctx, &domainPenalty.Payment{
			PaymentID:     id.NewID32(),
			ContractID:    contractID,
			PenaltyDate:   today,
			DaysOverdue:   a.daysOverdue,
			PenaltyAmount: a.amount,
			Status:        domainPenalty.StatusPending,
		})
		if err != nil {
			return err
		}
		created = ok
		out = toDTO(row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created {
		u.log.Info("penalty created",
			slog.String("contract_id", contractID),
			slog.String("payment_id", out.PaymentID),
			slog.Int("days_overdue", out.DaysOverdue),
			slog.String("amount", out.PenaltyAmount.StringFixed(2)))
	}
	return out, nil
}

// GetPenaltyStatus is the read-only form of CreatePenalty for polling. lineID, when
// given, must be the pawner's.
func (u *Usecase) GetPenaltyStatus(ctx context.Context, contractID, lineID string) (*StatusDTO, error) {
	c, err := u.contracts.GetByContractID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if lineID != "" && !c.IsPawner(lineID) {
		return nil, domainContract.ErrNotParty
	}
	today := u.today()
	p, err := u.penalties.GetActiveForDay(ctx, contractID, today)
	if err == nil {
		return toDTO(p), nil
	}
	if !errors.Is(err, domainPenalty.ErrNotFound) {
		return nil, err
	}
	a, err := u.assess(c, today)
	if err != nil {
		return nil, err
	}
	if !c.IsOpen() || a.unpaidDays == 0 {
		return u.unowed(c, a, today), nil
	}
	return &StatusDTO{
		Required:          true,
		PenaltyAmount:     a.amount,
		DaysOverdue:       a.daysOverdue,
		RemainingAttempts: domainPenalty.MaxAttempts,
		PaidThroughDate:   c.PenaltyPaidThrough,
	}, nil
}

// VerifyPenaltySlip checks the slip against the payment's amount and records the
// outcome with a single conditional write. A verifier failure counts as an unreadable slip.
func (u *Usecase) VerifyPenaltySlip(ctx context.Context, in VerifyInput) (*SlipResultDTO, error) {
	p, err := u.penalties.GetByPaymentID(ctx, in.PaymentID)
	if err != nil {
		return nil, err
	}
	c, err := u.contracts.GetByContractID(ctx, p.ContractID)
	if err != nil {
		return nil, err
	}
	if in.PawnerID != "" && !c.IsPawner(in.PawnerID) {
		return nil, domainContract.ErrNotParty
	}
	if done := u.settled(p); done != nil {
		return done, nil
	}
	if err := checkPayable(p); err != nil {
		return nil, err
	}

	res, err := u.verifier.Verify(context.WithoutCancel(ctx), in.SlipURL, p.PenaltyAmount)
	if err != nil {
		u.log.Warn("penalty slip verification failed", slog.String("payment_id", p.PaymentID), slog.Any("err", err))
		res = slip.Result{Outcome: slip.Unreadable, Message: "the slip could not be verified"}
	}

	var settled *SlipResultDTO
	err = u.uow.WithinContractTx(ctx, p.ContractID, func(repos uow.Repos, locked *domainContract.Contract) error {
		cur, err := repos.Penalties.GetByPaymentID(ctx, in.PaymentID)
		if err != nil {
			return err
		}
		if settled = u.settled(cur); settled != nil {
			return nil
		}
		if err := checkPayable(cur); err != nil {
			return err
		}
		expected, attempts := cur.Status, cur.AttemptCount
		cur.AttemptCount++
		cur.SlipURL = in.SlipURL
		cur.DetectedAmount = res.DetectedAmount
		if res.Accepted() {
			cur.Status = domainPenalty.StatusVerified
			through := finance.Midnight(cur.PenaltyDate)
			cur.PaidThroughDate = &through
		} else {
			cur.Status = domainPenalty.RejectionStatus(cur.AttemptCount)
		}
		if err := repos.Penalties.Update(ctx, cur, expected, attempts); err != nil {
			return err
		}
		p, c = cur, locked
		return u.projector.ApplyPenalty(ctx, repos.Contracts, locked, cur)
	})
	if err != nil {
		return nil, err
	}
	if settled != nil {
		return settled, nil
	}

	remaining := domainPenalty.RemainingAttempts(p.AttemptCount)
	out := &SlipResultDTO{
		Success:           res.Accepted(),
		Result:            string(res.Outcome),
		Message:           res.Message,
		DetectedAmount:    res.DetectedAmount,
		Difference:        res.Difference,
		RemainingAttempts: remaining,
		Payment:           toDTO(p),
	}
	if p.Status == domainPenalty.StatusRejectedFinal {
		out.SupportPhone = u.supportPhone
	}
	u.log.Info("penalty slip checked",
		slog.String("payment_id", p.PaymentID),
		slog.String("outcome", string(res.Outcome)),
		slog.String("status", string(p.Status)))

	u.notifier.Dispatch(ctx, notify.Event{
		Entity:            notify.EntityPenalty,
		EntityID:          p.PaymentID,
		ContractID:        p.ContractID,
		State:             string(p.Status),
		Actor:             in.PawnerID,
		Parties:           notify.PartiesOf(c),
		Amount:            p.PenaltyAmount,
		Reason:            res.Message,
		RemainingAttempts: remaining,
		SupportPhone:      u.supportPhone,
	})
	return out, nil
}

// settled acknowledges a payment that was already verified.
func (u *Usecase) settled(p *domainPenalty.Payment) *SlipResultDTO {
	if p.Status != domainPenalty.StatusVerified {
		return nil
	}
	return &SlipResultDTO{
		Success:           true,
		Result:            string(slip.Matched),
		Message:           "late fee already paid",
		DetectedAmount:    p.DetectedAmount,
		RemainingAttempts: domainPenalty.RemainingAttempts(p.AttemptCount),
		Payment:           toDTO(p),
	}
}

func checkPayable(p *domainPenalty.Payment) error {
	if p.Status == domainPenalty.StatusRejectedFinal || p.AttemptCount >= domainPenalty.MaxAttempts {
		return domainPenalty.ErrAttemptsExhausted
	}
	if !domainPenalty.Payable(p.Status) {
		return domainPenalty.ErrNotPayable
	}
	return nil
}

// SweepOverdue creates today's payment for every overdue open contract. One contract
// failing does not stop the rest.
func (u *Usecase) SweepOverdue(ctx context.Context) (SweepReport, error) {
	var rep SweepReport
	overdue, err := u.contracts.ListOverdue(ctx, u.today())
	if err != nil {
		return rep, err
	}
	for _, c := range overdue {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Checked++
		before, err := u.penalties.GetActiveForDay(ctx, c.ContractID, u.today())
		if err == nil && before != nil {
			continue
		}
		dto, err := u.CreatePenalty(ctx, c.ContractID)
		if err != nil {
			rep.Failed++
			u.log.Error("penalty sweep failed", slog.String("contract_id", c.ContractID), slog.Any("err", err))
			continue
		}
		if dto.PaymentID != "" {
			rep.Created++
		}
	}
	u.log.Info("penalty sweep done",
		slog.Int("checked", rep.Checked), slog.Int("created", rep.Created), slog.Int("failed", rep.Failed))
	return rep, nil
}
