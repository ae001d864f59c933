package action

import (
	"fmt"

	"pawn-settlement/internal/domain/errs"
)

// Trigger is something that happened to a request: an actor call, a verification
// result, or an automatic follow-up.
type Trigger string

const (
	TriggerAcceptTerms          Trigger = "ACCEPT_TERMS"
	TriggerUploadSlip           Trigger = "UPLOAD_SLIP"
	TriggerSlipVerified         Trigger = "SLIP_VERIFIED"
	TriggerSlipRejected         Trigger = "SLIP_REJECTED"
	TriggerRequestSignature     Trigger = "REQUEST_SIGNATURE"
	TriggerComplete             Trigger = "COMPLETE"
	TriggerSign                 Trigger = "SIGN"
	TriggerInvestorOpen         Trigger = "INVESTOR_OPEN"
	TriggerInvestorApprove      Trigger = "INVESTOR_APPROVE"
	TriggerInvestorReject       Trigger = "INVESTOR_REJECT"
	TriggerAwaitInvestorPayment Trigger = "AWAIT_INVESTOR_PAYMENT"
	TriggerInvestorUploadSlip   Trigger = "INVESTOR_UPLOAD_SLIP"
	TriggerInvestorSlipVerified Trigger = "INVESTOR_SLIP_VERIFIED"
	TriggerInvestorSlipRejected Trigger = "INVESTOR_SLIP_REJECTED"
	TriggerTransfer             Trigger = "TRANSFER"
	TriggerAwaitPawnerConfirm   Trigger = "AWAIT_PAWNER_CONFIRM"
	TriggerPawnerConfirm        Trigger = "PAWNER_CONFIRM"
	TriggerCancel               Trigger = "CANCEL"
	TriggerVoid                 Trigger = "VOID"

	// TriggerCreate is only written to the audit trail; it is not a transition.
	TriggerCreate Trigger = "CREATE"
)

type branch int

const (
	anyType branch = iota
	investorBranch
	directBranch
)

type rule struct {
	from []Status // nil means any non-terminal state
	to   Status
	// final replaces to once the attempt count reaches MaxSlipAttempts.
	final  Status
	branch branch
	// auto rules fire on their own right after the state before them is reached.
	auto bool
}

var rules = map[Trigger]rule{
	TriggerAcceptTerms: {from: []Status{StatusPending}, to: StatusAwaitingPayment},
	TriggerUploadSlip:  {from: []Status{StatusAwaitingPayment, StatusSlipRejected}, to: StatusSlipUploaded},
	TriggerSlipVerified: {from: []Status{StatusSlipUploaded}, to: StatusSlipVerified},
	TriggerSlipRejected: {from: []Status{StatusSlipUploaded}, to: StatusSlipRejected, final: StatusSlipRejectedFinal},

	TriggerComplete:         {from: []Status{StatusSlipVerified}, to: StatusCompleted, branch: directBranch, auto: true},
	TriggerRequestSignature: {from: []Status{StatusSlipVerified}, to: StatusAwaitingSignature, branch: investorBranch, auto: true},

	TriggerSign:         {from: []Status{StatusAwaitingSignature}, to: StatusPendingInvestorApproval, branch: investorBranch},
	TriggerInvestorOpen: {from: []Status{StatusPendingInvestorApproval}, to: StatusAwaitingInvestorApproval, branch: investorBranch},
	TriggerInvestorApprove: {
		from:   []Status{StatusPendingInvestorApproval, StatusAwaitingInvestorApproval},
		to:     StatusInvestorApproved,
		branch: investorBranch,
	},
	TriggerInvestorReject: {
		from:   []Status{StatusPendingInvestorApproval, StatusAwaitingInvestorApproval},
		to:     StatusInvestorRejected,
		branch: investorBranch,
	},
	TriggerAwaitInvestorPayment: {from: []Status{StatusInvestorApproved}, to: StatusAwaitingInvestorPayment, branch: investorBranch, auto: true},
	TriggerInvestorUploadSlip: {
		from:   []Status{StatusAwaitingInvestorPayment, StatusInvestorSlipRejected},
		to:     StatusInvestorSlipUploaded,
		branch: investorBranch,
	},
	TriggerInvestorSlipVerified: {from: []Status{StatusInvestorSlipUploaded}, to: StatusInvestorSlipVerified, branch: investorBranch},
	TriggerInvestorSlipRejected: {
		from:   []Status{StatusInvestorSlipUploaded},
		to:     StatusInvestorSlipRejected,
		final:  StatusInvestorSlipRejectedFinal,
		branch: investorBranch,
	},
	TriggerTransfer:           {from: []Status{StatusInvestorSlipVerified}, to: StatusInvestorTransferred, branch: investorBranch, auto: true},
	TriggerAwaitPawnerConfirm: {from: []Status{StatusInvestorTransferred}, to: StatusAwaitingPawnerConfirm, branch: investorBranch, auto: true},
	TriggerPawnerConfirm:      {from: []Status{StatusAwaitingPawnerConfirm}, to: StatusCompleted, branch: investorBranch},

	TriggerCancel: {to: StatusCancelled},
	TriggerVoid:   {to: StatusVoided},
}

var terminal = map[Status]bool{
	StatusCompleted:                 true,
	StatusCancelled:                 true,
	StatusVoided:                    true,
	StatusInvestorRejected:          true,
	StatusSlipRejectedFinal:         true,
	StatusInvestorSlipRejectedFinal: true,
}

// IsTerminal reports whether s can never be left.
func IsTerminal(s Status) bool { return terminal[s] }

// RequiresInvestor reports whether capital moves to or through the investor for t,
// which is what puts the investor-approval branch on its path.
func RequiresInvestor(t RequestType) bool {
	return t == TypePrincipalIncrease || t == TypeRedemption
}

// ErrInvalidTransition wraps errs.ErrConflict; the request is in the wrong state for the call.
type ErrInvalidTransition struct {
	From    Status
	Trigger Trigger
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("cannot apply %s to a request in %s", e.Trigger, e.From)
}

func (e *ErrInvalidTransition) Unwrap() error { return errs.ErrConflict }

func (r rule) allows(t RequestType, from Status) bool {
	if IsTerminal(from) {
		return false
	}
	switch r.branch {
	case investorBranch:
		if !RequiresInvestor(t) {
			return false
		}
	case directBranch:
		if RequiresInvestor(t) {
			return false
		}
	}
	if r.from == nil {
		return true
	}
	for _, s := range r.from {
		if s == from {
			return true
		}
	}
	return false
}

// Next is the single place transition legality is decided. attempts is the slip attempt
// count for the paying party, already including the attempt being judged.
func Next(t RequestType, from Status, tr Trigger, attempts int) (Status, error) {
	r, ok := rules[tr]
	if !ok || !r.allows(t, from) {
		return "", &ErrInvalidTransition{From: from, Trigger: tr}
	}
	if r.final != "" && attempts >= MaxSlipAttempts {
		return r.final, nil
	}
	return r.to, nil
}

// Step is one persisted hop.
type Step struct {
	From    Status
	To      Status
	Trigger Trigger
}

// autoFrom returns the automatic trigger that fires on reaching s, if any.
func autoFrom(t RequestType, s Status) (Trigger, bool) {
	for tr, r := range rules {
		if r.auto && r.allows(t, s) {
			return tr, true
		}
	}
	return "", false
}

// Run applies tr and then every automatic follow-up, returning the hops in order.
// The caller persists the last hop's To in one write.
func Run(t RequestType, from Status, tr Trigger, attempts int) ([]Step, error) {
	to, err := Next(t, from, tr, attempts)
	if err != nil {
		return nil, err
	}
	steps := []Step{{From: from, To: to, Trigger: tr}}
	for {
		cur := steps[len(steps)-1].To
		next, ok := autoFrom(t, cur)
		if !ok {
			return steps, nil
		}
		to, err := Next(t, cur, next, attempts)
		if err != nil {
			return nil, err
		}
		steps = append(steps, Step{From: cur, To: to, Trigger: next})
	}
}

// Landing is the status a request ends in after tr and its automatic follow-ups,
// ignoring where it started. Rejections may land in either the retry or final state.
func landing(t RequestType, tr Trigger) []Status {
	r, ok := rules[tr]
	if !ok {
		return nil
	}
	outs := []Status{r.to}
	if r.final != "" {
		outs = append(outs, r.final)
	}
	for i, s := range outs {
		for {
			next, ok := autoFrom(t, s)
			if !ok {
				break
			}
			s = rules[next].to
		}
		outs[i] = s
	}
	return outs
}

// Settled reports whether a request already sits where tr would put it, so a
// repeated delivery of tr can be acknowledged without side effects.
func Settled(t RequestType, current Status, tr Trigger) bool {
	for _, s := range landing(t, tr) {
		if s == current {
			return true
		}
	}
	return false
}
