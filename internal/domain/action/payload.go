package action

import (
	"fmt"

	"pawn-settlement/internal/domain/errs"
	"pawn-settlement/pkg/id"

	"github.com/shopspring/decimal"
)

// Payload is the type-specific part of a request. The set of implementations is closed,
// so a request can only ever carry one of them.
type Payload interface {
	Type() RequestType
	Amount() decimal.Decimal
	apply(r *ActionRequest)
}

type PrincipalIncrease struct{ IncreaseAmount decimal.Decimal }
type PrincipalReduction struct{ ReductionAmount decimal.Decimal }
type InterestPayment struct{ InterestToPay decimal.Decimal }
type Redemption struct{ PayoffAmount decimal.Decimal }

func (PrincipalIncrease) Type() RequestType  { return TypePrincipalIncrease }
func (PrincipalReduction) Type() RequestType { return TypePrincipalReduction }
func (InterestPayment) Type() RequestType    { return TypeInterestPayment }
func (Redemption) Type() RequestType         { return TypeRedemption }

func (p PrincipalIncrease) Amount() decimal.Decimal  { return p.IncreaseAmount }
func (p PrincipalReduction) Amount() decimal.Decimal { return p.ReductionAmount }
func (p InterestPayment) Amount() decimal.Decimal    { return p.InterestToPay }
func (p Redemption) Amount() decimal.Decimal         { return p.PayoffAmount }

func (p PrincipalIncrease) apply(r *ActionRequest) {
	v := p.IncreaseAmount
	r.IncreaseAmount = &v
	r.TotalAmount = r.InterestDue
}

func (p PrincipalReduction) apply(r *ActionRequest) {
	v := p.ReductionAmount
	r.ReductionAmount = &v
	r.TotalAmount = v.Add(r.InterestDue)
}

func (p InterestPayment) apply(r *ActionRequest) {
	v := p.InterestToPay
	r.InterestToPay = &v
	r.TotalAmount = v
}

func (p Redemption) apply(r *ActionRequest) {
	v := p.PayoffAmount
	r.RedemptionAmount = &v
	r.TotalAmount = v
}

// PayloadFor builds the payload for a wire-level type string.
func PayloadFor(t RequestType, amount decimal.Decimal) (Payload, error) {
	switch t {
	case TypePrincipalIncrease:
		return PrincipalIncrease{IncreaseAmount: amount}, nil
	case TypePrincipalReduction:
		return PrincipalReduction{ReductionAmount: amount}, nil
	case TypeInterestPayment:
		return InterestPayment{InterestToPay: amount}, nil
	case TypeRedemption:
		return Redemption{PayoffAmount: amount}, nil
	}
	return nil, errs.New(fmt.Sprintf("unknown request type %q", t), errs.ErrInvalidInput)
}

// New returns a PENDING request for contractID. interestDue is the interest accrued so far,
// which the pawner settles as part of the request.
func New(contractID string, p Payload, interestDue decimal.Decimal, requestedBy string) (*ActionRequest, error) {
	if p == nil {
		return nil, errs.New("missing request payload", errs.ErrInvalidInput)
	}
	if !p.Amount().IsPositive() {
		return nil, errs.New(fmt.Sprintf("%s amount must be positive", p.Type()), errs.ErrInvalidInput)
	}
	if interestDue.IsNegative() {
		return nil, errs.New("negative interest due", errs.ErrInvalidInput)
	}
	r := &ActionRequest{
		RequestID:   id.NewID32(),
		ContractID:  contractID,
		RequestType: p.Type(),
		InterestDue: interestDue,
		Status:      StatusPending,
		RequestedBy: requestedBy,
		ActiveKey:   &contractID,
	}
	p.apply(r)
	return r, nil
}

// Payload reads the typed amount back, failing if the row breaks the one-field rule.
func (r *ActionRequest) Payload() (Payload, error) {
	set := 0
	for _, f := range []*decimal.Decimal{r.IncreaseAmount, r.ReductionAmount, r.InterestToPay, r.RedemptionAmount} {
		if f != nil {
			set++
		}
	}
	if set != 1 {
		return nil, errs.New(fmt.Sprintf("action request %s has %d amount fields set", r.RequestID, set), errs.ErrInvariant)
	}
	var (
		p   Payload
		got *decimal.Decimal
	)
	switch r.RequestType {
	case TypePrincipalIncrease:
		got = r.IncreaseAmount
		if got != nil {
			p = PrincipalIncrease{IncreaseAmount: *got}
		}
	case TypePrincipalReduction:
		got = r.ReductionAmount
		if got != nil {
			p = PrincipalReduction{ReductionAmount: *got}
		}
	case TypeInterestPayment:
		got = r.InterestToPay
		if got != nil {
			p = InterestPayment{InterestToPay: *got}
		}
	case TypeRedemption:
		got = r.RedemptionAmount
		if got != nil {
			p = Redemption{PayoffAmount: *got}
		}
	}
	if p == nil {
		return nil, errs.New(fmt.Sprintf("action request %s amount does not match type %s", r.RequestID, r.RequestType), errs.ErrInvariant)
	}
	return p, nil
}
