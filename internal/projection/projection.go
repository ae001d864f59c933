// Package projection is the only writer of the contract aggregate. Each Apply method
// runs inside the transaction that committed the triggering transition, so a failure
// here rolls the transition back with it.
package projection

import (
	"context"
	"fmt"
	"time"

	"pawn-settlement/internal/domain/action"
	"pawn-settlement/internal/domain/contract"
	"pawn-settlement/internal/domain/errs"
	"pawn-settlement/internal/domain/penalty"
	"pawn-settlement/internal/domain/redemption"
	"pawn-settlement/internal/finance"

	"github.com/shopspring/decimal"
)

const (
	DeliveryPreparing = "PREPARING"
	DeliveryInTransit = "IN_TRANSIT"
	DeliveryDelivered = "DELIVERED"
	DeliveryPickedUp  = "PICKED_UP"
)

type Updater struct {
	now func() time.Time
}

func NewUpdater(now func() time.Time) *Updater {
	if now == nil {
		now = time.Now
	}
	return &Updater{now: now}
}

func (u *Updater) today() time.Time { return finance.Midnight(u.now()) }

// ApplyAction projects a completed action request. Other states leave the contract alone.
func (u *Updater) ApplyAction(ctx context.Context, repo contract.Repository, c *contract.Contract, r *action.ActionRequest) error {
	if r.Status != action.StatusCompleted {
		return nil
	}
	if r.ContractID != c.ContractID {
		return errs.New(fmt.Sprintf("request %s does not belong to contract %s", r.RequestID, c.ContractID), errs.ErrInvariant)
	}
	p, err := r.Payload()
	if err != nil {
		return err
	}
	today := u.today()

	switch p := p.(type) {
	case action.InterestPayment:
		c.InterestPaid = c.InterestPaid.Add(p.InterestToPay)
		c.InterestPaidThrough = &today
		c.EndDate = c.EndDate.AddDate(0, 0, c.TermDays)
	case action.PrincipalReduction:
		if p.ReductionAmount.GreaterThan(c.PrincipalRemaining()) {
			return errs.New("reduction exceeds remaining principal", errs.ErrInvariant)
		}
		c.PrincipalPaid = c.PrincipalPaid.Add(p.ReductionAmount)
		c.InterestPaid = c.InterestPaid.Add(r.InterestDue)
		c.InterestPaidThrough = &today
	case action.PrincipalIncrease:
		c.LoanPrincipalAmount = c.LoanPrincipalAmount.Add(p.IncreaseAmount)
		c.InterestPaid = c.InterestPaid.Add(r.InterestDue)
		c.InterestPaidThrough = &today
	case action.Redemption:
		c.InterestPaid = c.InterestPaid.Add(decimal.Max(p.PayoffAmount.Sub(c.PrincipalRemaining()), decimal.Zero))
		c.PrincipalPaid = c.LoanPrincipalAmount
		c.InterestPaidThrough = &today
		c.Status = contract.StatusCompleted
		c.RedemptionStatus = string(redemption.StatusCompleted)
	}
	return u.save(ctx, repo, c)
}

// ApplyPenalty records how far late fees are paid once a payment is verified.
func (u *Updater) ApplyPenalty(ctx context.Context, repo contract.Repository, c *contract.Contract, p *penalty.Payment) error {
	if p.Status != penalty.StatusVerified {
		return nil
	}
	through := finance.Midnight(p.PenaltyDate)
	if p.PaidThroughDate != nil {
		through = finance.Midnight(*p.PaidThroughDate)
	}
	// never move backwards
	if c.PenaltyPaidThrough != nil && !through.After(*c.PenaltyPaidThrough) {
		return nil
	}
	c.PenaltyPaidThrough = &through
	return u.save(ctx, repo, c)
}

// ApplyRedemption mirrors redemption milestones onto the contract and closes it on completion.
func (u *Updater) ApplyRedemption(ctx context.Context, repo contract.Repository, c *contract.Contract, r *redemption.Request) error {
	if r.ContractID != c.ContractID {
		return errs.New(fmt.Sprintf("redemption %s does not belong to contract %s", r.RedemptionID, c.ContractID), errs.ErrInvariant)
	}
	c.RedemptionStatus = string(r.Status)

	switch r.Status {
	case redemption.StatusPreparingItem:
		c.DeliveryStatus = DeliveryPreparing
	case redemption.StatusInTransit:
		c.DeliveryStatus = DeliveryInTransit
	case redemption.StatusCompleted:
		if r.DeliveryMethod == redemption.DeliverySelfPickup {
			c.DeliveryStatus = DeliveryPickedUp
		} else {
			c.DeliveryStatus = DeliveryDelivered
		}
		today := u.today()
		c.PrincipalPaid = c.LoanPrincipalAmount
		c.InterestPaid = c.InterestPaid.Add(r.InterestAmount)
		c.InterestPaidThrough = &today
		c.Status = contract.StatusCompleted
	case redemption.StatusCancelled, redemption.StatusRejected:
		c.DeliveryStatus = ""
	}
	return u.save(ctx, repo, c)
}

func (u *Updater) save(ctx context.Context, repo contract.Repository, c *contract.Contract) error {
	c.AmountPaid = c.PrincipalPaid.Add(c.InterestPaid)
	accrued := decimal.Zero
	if c.IsOpen() {
		var err error
		if accrued, err = c.InterestDue(u.today()); err != nil {
			return err
		}
	}
	c.TotalAmount = c.LoanPrincipalAmount.Add(c.InterestPaid).Add(accrued)
	if err := c.CheckInvariants(); err != nil {
		return err
	}
	return repo.Save(ctx, c)
}
