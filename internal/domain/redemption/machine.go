package redemption

import (
	"fmt"

	"pawn-settlement/internal/domain/errs"
)

type Trigger string

const (
	TriggerUploadSlip    Trigger = "UPLOAD_SLIP"
	TriggerAmountCorrect Trigger = "AMOUNT_CORRECT"
	TriggerAmountWrong   Trigger = "AMOUNT_INCORRECT"
	TriggerPrepare       Trigger = "PREPARE_ITEM"
	TriggerShip          Trigger = "SHIP"
	TriggerComplete      Trigger = "COMPLETE"
	TriggerCancel        Trigger = "CANCEL"
	TriggerReject        Trigger = "REJECT"
)

var transitions = map[Trigger]map[Status]Status{
	TriggerUploadSlip: {
		StatusPending:        StatusSlipUploaded,
		StatusAmountMismatch: StatusSlipUploaded,
	},
	TriggerAmountCorrect: {StatusSlipUploaded: StatusAmountVerified},
	TriggerAmountWrong:   {StatusSlipUploaded: StatusAmountMismatch},
	TriggerPrepare:       {StatusAmountVerified: StatusPreparingItem},
	TriggerShip:          {StatusPreparingItem: StatusInTransit},
	TriggerComplete: {
		StatusPreparingItem: StatusCompleted,
		StatusInTransit:     StatusCompleted,
	},
	TriggerCancel: {
		StatusPending:        StatusCancelled,
		StatusAmountMismatch: StatusCancelled,
	},
	TriggerReject: {
		StatusPending:        StatusRejected,
		StatusSlipUploaded:   StatusRejected,
		StatusAmountMismatch: StatusRejected,
	},
}

func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

type ErrInvalidTransition struct {
	From    Status
	Trigger Trigger
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("cannot apply %s to a redemption in %s", e.Trigger, e.From)
}

func (e *ErrInvalidTransition) Unwrap() error { return errs.ErrConflict }

// Next decides legality for every redemption transition. Items handed over at the drop
// point (SELF_PICKUP) complete from PREPARING_ITEM; shipped ones must pass IN_TRANSIT.
func Next(method DeliveryMethod, from Status, tr Trigger) (Status, error) {
	to, ok := transitions[tr][from]
	if !ok {
		return "", &ErrInvalidTransition{From: from, Trigger: tr}
	}
	if tr == TriggerComplete && from == StatusPreparingItem && method != DeliverySelfPickup {
		return "", &ErrInvalidTransition{From: from, Trigger: tr}
	}
	if tr == TriggerShip && method == DeliverySelfPickup {
		return "", &ErrInvalidTransition{From: from, Trigger: tr}
	}
	return to, nil
}

// Settled reports whether the request already sits where tr leads.
func Settled(current Status, tr Trigger) bool {
	for _, to := range transitions[tr] {
		if to == current {
			return true
		}
	}
	return false
}
