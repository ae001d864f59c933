package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainAction "pawn-settlement/internal/domain/action"
	domainContract "pawn-settlement/internal/domain/contract"
	"pawn-settlement/internal/domain/errs"
	domainRedemption "pawn-settlement/internal/domain/redemption"
	"pawn-settlement/internal/domain/uow"
	"pawn-settlement/internal/notify"
	"pawn-settlement/internal/projection"
	"pawn-settlement/internal/slip"

	"github.com/shopspring/decimal"
)

type Notifier interface {
	Dispatch(ctx context.Context, ev notify.Event)
}

type Deps struct {
	UoW          uow.UnitOfWork
	Actions      domainAction.Repository
	Verifier     slip.Verifier
	Notifier     Notifier
	Projector    *projection.Updater
	Log          *slog.Logger
	Now          func() time.Time
	SupportPhone string
}

type Usecase struct {
	uow          uow.UnitOfWork
	actions      domainAction.Repository
	verifier     slip.Verifier
	notifier     Notifier
	projector    *projection.Updater
	log          *slog.Logger
	now          func() time.Time
	supportPhone string
}

func NewUsecase(d Deps) *Usecase {
	u := &Usecase{
		uow:          d.UoW,
		actions:      d.Actions,
		verifier:     d.Verifier,
		notifier:     d.Notifier,
		projector:    d.Projector,
		log:          d.Log,
		now:          d.Now,
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
	return u
}

// Create opens a request against an open contract. Either party may open one; the
// contract holds at most one open request at a time, and none while a redemption is open.
func (u *Usecase) Create(ctx context.Context, in CreateInput) (*RequestDTO, error) {
	payload, err := domainAction.PayloadFor(in.RequestType, in.Amount)
	if err != nil {
		return nil, err
	}

	var r *domainAction.ActionRequest
	err = u.uow.WithinContractTx(ctx, in.ContractID, func(repos uow.Repos, c *domainContract.Contract) error {
		if !c.IsOpen() {
			return domainContract.ErrNotActive
		}
		if !c.IsPawner(in.Actor) && !c.IsInvestor(in.Actor) {
			return domainContract.ErrNotParty
		}
		if _, err := repos.Redemptions.GetOpenByContractID(ctx, c.ContractID); err == nil {
			return domainRedemption.ErrPendingExists
		} else if !errors.Is(err, domainRedemption.ErrNotFound) {
			return err
		}
		interestDue, err := c.InterestDue(u.now())
		if err != nil {
			return err
		}
		if err := checkAmount(c, payload, interestDue); err != nil {
			return err
		}

		r, err = domainAction.New(c.ContractID, payload, interestDue, in.Actor)
		if err != nil {
			return err
		}
		if err := repos.Actions.Create(ctx, r); err != nil {
			return err
		}
		return repos.Actions.AppendEvents(ctx, []domainAction.Event{{
			RequestID: r.RequestID,
			ToState:   r.Status,
			Trigger:   domainAction.TriggerCreate,
			Actor:     in.Actor,
		}})
	})
	if err != nil {
		return nil, err
	}
	u.log.Info("action request created",
		slog.String("request_id", r.RequestID),
		slog.String("contract_id", r.ContractID),
		slog.String("type", string(r.RequestType)),
		slog.String("total", r.TotalAmount.StringFixed(2)))
	return toDTO(r), nil
}

func checkAmount(c *domainContract.Contract, p domainAction.Payload, interestDue decimal.Decimal) error {
	switch p := p.(type) {
	case domainAction.InterestPayment:
		if p.InterestToPay.Round(2).LessThan(interestDue.Round(2)) {
			return errs.New(fmt.Sprintf("interest payment must cover the %s due", interestDue.StringFixed(2)), errs.ErrInvalidInput)
		}
	case domainAction.PrincipalReduction:
		if p.ReductionAmount.GreaterThan(c.PrincipalRemaining()) {
			return errs.New(fmt.Sprintf("reduction %s exceeds remaining principal %s",
				p.ReductionAmount.StringFixed(2), c.PrincipalRemaining().StringFixed(2)), errs.ErrInvalidInput)
		}
	case domainAction.Redemption:
		payoff := c.PrincipalRemaining().Add(interestDue)
		if !p.PayoffAmount.Round(2).Equal(payoff.Round(2)) {
			return errs.New(fmt.Sprintf("redemption amount must be %s", payoff.StringFixed(2)), errs.ErrInvalidInput)
		}
	}
	return nil
}

func (u *Usecase) Get(ctx context.Context, requestID string) (*RequestDTO, error) {
	r, err := u.actions.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	events, err := u.actions.ListEvents(ctx, requestID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(r)
	dto.Events = events
	return dto, nil
}

// who may fire a trigger
type role int

const (
	rolePawner role = iota
	roleInvestor
	roleEitherParty
)

func authorize(c *domainContract.Contract, actor string, who role) error {
	ok := false
	switch who {
	case rolePawner:
		ok = c.IsPawner(actor)
	case roleInvestor:
		ok = c.IsInvestor(actor)
	case roleEitherParty:
		ok = c.IsPawner(actor) || c.IsInvestor(actor)
	}
	if !ok {
		return domainContract.ErrNotParty
	}
	return nil
}

// outcome of one persisted transition
type fired struct {
	req      *domainAction.ActionRequest
	contract *domainContract.Contract
	settled  bool
}

// fire applies tr (plus automatic follow-ups) in one locked transaction. mutate may set
// fields that travel with the status write. A request already where tr leads is
// acknowledged without writing.
func (u *Usecase) fire(ctx context.Context, requestID, actor string, who role, tr domainAction.Trigger,
	attempts func(*domainAction.ActionRequest) int, mutate func(*domainAction.ActionRequest)) (*fired, error) {

	head, err := u.actions.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	out := &fired{}
	err = u.uow.WithinContractTx(ctx, head.ContractID, func(repos uow.Repos, c *domainContract.Contract) error {
		r, err := repos.Actions.GetByRequestID(ctx, requestID)
		if err != nil {
			return err
		}
		out.req, out.contract = r, c
		if err := authorize(c, actor, who); err != nil {
			return err
		}
		if domainAction.Settled(r.RequestType, r.Status, tr) {
			out.settled = true
			return nil
		}
		n := 0
		if attempts != nil {
			n = attempts(r)
		}
		steps, err := domainAction.Run(r.RequestType, r.Status, tr, n)
		if err != nil {
			return err
		}
		return u.persist(ctx, repos, c, r, steps, actor, mutate)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) persist(ctx context.Context, repos uow.Repos, c *domainContract.Contract, r *domainAction.ActionRequest,
	steps []domainAction.Step, actor string, mutate func(*domainAction.ActionRequest)) error {

	expected := r.Status
	r.Status = steps[len(steps)-1].To
	if mutate != nil {
		mutate(r)
	}
	if err := repos.Actions.Transition(ctx, r, expected); err != nil {
		return err
	}
	events := make([]domainAction.Event, 0, len(steps))
	for _, s := range steps {
		events = append(events, domainAction.Event{
			RequestID: r.RequestID,
			FromState: s.From,
			ToState:   s.To,
			Trigger:   s.Trigger,
			Actor:     actor,
		})
	}
	if err := repos.Actions.AppendEvents(ctx, events); err != nil {
		return err
	}
	return u.projector.ApplyAction(ctx, repos.Contracts, c, r)
}

func (u *Usecase) event(f *fired, actor string, remaining int) notify.Event {
	r := f.req
	ev := notify.Event{
		Entity:            notify.EntityActionRequest,
		EntityID:          r.RequestID,
		ContractID:        r.ContractID,
		State:             string(r.Status),
		Actor:             actor,
		Parties:           notify.PartiesOf(f.contract),
		Amount:            r.TotalAmount,
		RemainingAttempts: remaining,
		SupportPhone:      u.supportPhone,
	}
	switch r.Status {
	case domainAction.StatusAwaitingInvestorPayment, domainAction.StatusAwaitingPawnerConfirm,
		domainAction.StatusPendingInvestorApproval:
		ev.Amount = r.InvestorTransfer()
	}
	if r.RejectionReason != nil {
		ev.Reason = *r.RejectionReason
	}
	return ev
}

func (u *Usecase) announce(ctx context.Context, f *fired, actor string) {
	if f.settled {
		return
	}
	u.notifier.Dispatch(ctx, u.event(f, actor, 0))
}

func (u *Usecase) simple(ctx context.Context, requestID, actor string, who role, tr domainAction.Trigger,
	mutate func(*domainAction.ActionRequest)) (*RequestDTO, error) {

	f, err := u.fire(ctx, requestID, actor, who, tr, nil, mutate)
	if err != nil {
		return nil, err
	}
	u.announce(ctx, f, actor)
	return toDTO(f.req), nil
}

func (u *Usecase) AcceptTerms(ctx context.Context, requestID, actor string) (*RequestDTO, error) {
	return u.simple(ctx, requestID, actor, rolePawner, domainAction.TriggerAcceptTerms, nil)
}

func (u *Usecase) Sign(ctx context.Context, requestID, actor string) (*RequestDTO, error) {
	return u.simple(ctx, requestID, actor, rolePawner, domainAction.TriggerSign, nil)
}

// InvestorOpen records that the investor has seen the request.
func (u *Usecase) InvestorOpen(ctx context.Context, requestID, actor string) (*RequestDTO, error) {
	return u.simple(ctx, requestID, actor, roleInvestor, domainAction.TriggerInvestorOpen, nil)
}

// Respond is the investor's decision. A rejection needs a reason, which is relayed to the pawner.
func (u *Usecase) Respond(ctx context.Context, in RespondInput) (*RequestDTO, error) {
	switch in.Action {
	case ResponseApprove:
		return u.simple(ctx, in.RequestID, in.Actor, roleInvestor, domainAction.TriggerInvestorApprove, nil)
	case ResponseReject:
		if in.Reason == "" {
			return nil, errs.New("a rejection needs a reason", errs.ErrInvalidInput)
		}
		reason := in.Reason
		return u.simple(ctx, in.RequestID, in.Actor, roleInvestor, domainAction.TriggerInvestorReject,
			func(r *domainAction.ActionRequest) { r.RejectionReason = &reason })
	}
	return nil, errs.New(fmt.Sprintf("unknown response %q", in.Action), errs.ErrInvalidInput)
}

func (u *Usecase) PawnerConfirm(ctx context.Context, requestID, actor string) (*RequestDTO, error) {
	return u.simple(ctx, requestID, actor, rolePawner, domainAction.TriggerPawnerConfirm, nil)
}

func (u *Usecase) Cancel(ctx context.Context, requestID, actor, reason string) (*RequestDTO, error) {
	var mutate func(*domainAction.ActionRequest)
	if reason != "" {
		mutate = func(r *domainAction.ActionRequest) { r.RejectionReason = &reason }
	}
	return u.simple(ctx, requestID, actor, roleEitherParty, domainAction.TriggerCancel, mutate)
}

// VoidOpen voids the contract's open request, if any, inside the caller's transaction.
// Used when the contract closes by another route.
func VoidOpen(ctx context.Context, repos uow.Repos, contractID, actor, reason string) (*domainAction.ActionRequest, error) {
	r, err := repos.Actions.GetOpenByContractID(ctx, contractID)
	if errors.Is(err, domainAction.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	steps, err := domainAction.Run(r.RequestType, r.Status, domainAction.TriggerVoid, 0)
	if err != nil {
		return nil, err
	}
	expected := r.Status
	r.Status = steps[len(steps)-1].To
	r.RejectionReason = &reason
	if err := repos.Actions.Transition(ctx, r, expected); err != nil {
		return nil, err
	}
	return r, repos.Actions.AppendEvents(ctx, []domainAction.Event{{
		RequestID: r.RequestID, FromState: expected, ToState: r.Status, Trigger: domainAction.TriggerVoid, Actor: actor,
	}})
}
