// Package notify turns committed state changes into best-effort messages for the
// pawner, the investor and the drop point.
package notify

import (
	"fmt"
	"strings"

	"pawn-settlement/internal/domain/contract"

	"github.com/shopspring/decimal"
)

type Entity string

const (
	EntityActionRequest Entity = "action_request"
	EntityPenalty       Entity = "penalty"
	EntityRedemption    Entity = "redemption"
)

type Audience string

const (
	Pawner    Audience = "PAWNER"
	Investor  Audience = "INVESTOR"
	DropPoint Audience = "DROP_POINT"
)

// Parties are the addresses of everyone on a contract. Pawner and investor ids are
// their LINE user ids.
type Parties struct {
	PawnerID       string
	InvestorID     string
	DropPointEmail string
}

func PartiesOf(c *contract.Contract) Parties {
	return Parties{PawnerID: c.PawnerID, InvestorID: c.InvestorID, DropPointEmail: c.DropPointEmail}
}

// Event describes a transition that has already been committed.
type Event struct {
	Entity     Entity
	EntityID   string
	ContractID string
	State      string
	Actor      string
	Parties    Parties

	Amount            decimal.Decimal
	Reason            string
	RemainingAttempts int
	SupportPhone      string
}

type Message struct {
	ID       string   `json:"id"`
	Audience Audience `json:"audience"`
	To       string   `json:"to"`
	Subject  string   `json:"subject,omitempty"`
	Text     string   `json:"text"`
	// Entity and state the message reports on, for outbox consumers.
	Entity Entity `json:"entity"`
	State  string `json:"state"`
}

type draft struct {
	to      Audience
	subject string
	text    string
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func actionDrafts(ev Event) []draft {
	ref := ev.EntityID
	switch ev.State {
	case "AWAITING_PAYMENT":
		return []draft{{to: Pawner, text: fmt.Sprintf("Request %s accepted. Please transfer %s and upload the slip.", ref, money(ev.Amount))}}
	case "SLIP_REJECTED":
		return []draft{{to: Pawner, text: fmt.Sprintf("Your slip for %s was not accepted: %s. %d attempt(s) left.", ref, ev.Reason, ev.RemainingAttempts)}}
	case "SLIP_REJECTED_FINAL":
		return []draft{{to: Pawner, text: fmt.Sprintf("Your slip for %s could not be verified and no attempts remain. Please call support at %s.", ref, ev.SupportPhone)}}
	case "AWAITING_SIGNATURE":
		return []draft{{to: Pawner, text: fmt.Sprintf("Payment for %s verified. Please sign the amended contract.", ref)}}
	case "PENDING_INVESTOR_APPROVAL":
		return []draft{{to: Investor, text: fmt.Sprintf("Contract %s has a new request %s for %s awaiting your approval.", ev.ContractID, ref, money(ev.Amount))}}
	case "INVESTOR_REJECTED":
		return []draft{{to: Pawner, text: fmt.Sprintf("The investor declined request %s. Reason: %s", ref, ev.Reason)}}
	case "AWAITING_INVESTOR_PAYMENT":
		return []draft{{to: Investor, text: fmt.Sprintf("Thank you for approving %s. Please transfer %s and upload the slip.", ref, money(ev.Amount))}}
	case "INVESTOR_SLIP_REJECTED":
		return []draft{{to: Investor, text: fmt.Sprintf("Your slip for %s was not accepted: %s. %d attempt(s) left.", ref, ev.Reason, ev.RemainingAttempts)}}
	case "INVESTOR_SLIP_REJECTED_FINAL":
		return []draft{{to: Investor, text: fmt.Sprintf("Your slip for %s could not be verified and no attempts remain. Please call support at %s.", ref, ev.SupportPhone)}}
	case "AWAITING_PAWNER_CONFIRM":
		return []draft{{to: Pawner, text: fmt.Sprintf("The investor transferred %s for %s. Please confirm once you have received it.", money(ev.Amount), ref)}}
	case "COMPLETED":
		return []draft{
			{to: Pawner, text: fmt.Sprintf("Request %s on contract %s is complete.", ref, ev.ContractID)},
			{to: Investor, text: fmt.Sprintf("Request %s on contract %s is complete.", ref, ev.ContractID)},
		}
	case "CANCELLED", "VOIDED":
		return []draft{
			{to: Pawner, text: fmt.Sprintf("Request %s was %s.", ref, strings.ToLower(ev.State))},
			{to: Investor, text: fmt.Sprintf("Request %s was %s.", ref, strings.ToLower(ev.State))},
		}
	}
	return nil
}

func penaltyDrafts(ev Event) []draft {
	switch ev.State {
	case "VERIFIED":
		return []draft{{to: Pawner, text: fmt.Sprintf("Late fee for contract %s received. Thank you.", ev.ContractID)}}
	case "REJECTED":
		return []draft{{to: Pawner, text: fmt.Sprintf("Your late-fee slip was not accepted: %s. %d attempt(s) left.", ev.Reason, ev.RemainingAttempts)}}
	case "REJECTED_FINAL":
		return []draft{{to: Pawner, text: fmt.Sprintf("Your late-fee slip could not be verified and no attempts remain. Please call support at %s.", ev.SupportPhone)}}
	}
	return nil
}

func redemptionDrafts(ev Event) []draft {
	ref := ev.EntityID
	switch ev.State {
	case "PENDING":
		return []draft{
			{to: DropPoint, subject: "Redemption requested", text: fmt.Sprintf("Redemption %s requested for contract %s. Total due %s.", ref, ev.ContractID, money(ev.Amount))},
			{to: Investor, text: fmt.Sprintf("The pawner requested to redeem contract %s.", ev.ContractID)},
		}
	case "SLIP_UPLOADED":
		return []draft{{to: DropPoint, subject: "Redemption slip to verify", text: fmt.Sprintf("Redemption %s has a payment slip waiting for verification.", ref)}}
	case "AMOUNT_VERIFIED":
		return []draft{
			{to: Pawner, text: fmt.Sprintf("Your redemption payment for contract %s is verified. Your item is being prepared.", ev.ContractID)},
			{to: DropPoint, subject: "Prepare item for return", text: fmt.Sprintf("Redemption %s is paid. Please prepare the item.", ref)},
		}
	case "AMOUNT_MISMATCH":
		return []draft{{to: Pawner, text: fmt.Sprintf("Your redemption payment is short by %s. Please transfer the difference and upload a new slip.", money(ev.Amount))}}
	case "IN_TRANSIT":
		return []draft{{to: Pawner, text: fmt.Sprintf("Your item for contract %s is on its way.", ev.ContractID)}}
	case "COMPLETED":
		return []draft{
			{to: Pawner, text: fmt.Sprintf("Contract %s is closed. Thank you for using our service.", ev.ContractID)},
			{to: Investor, text: fmt.Sprintf("Contract %s was redeemed. Your net profit is %s.", ev.ContractID, money(ev.Amount))},
		}
	case "REJECTED":
		return []draft{{to: Pawner, text: fmt.Sprintf("Your redemption request %s was rejected. Reason: %s", ref, ev.Reason)}}
	case "CANCELLED":
		return []draft{
			{to: DropPoint, subject: "Redemption cancelled", text: fmt.Sprintf("Redemption %s was cancelled.", ref)},
			{to: Investor, text: fmt.Sprintf("The redemption of contract %s was cancelled.", ev.ContractID)},
		}
	}
	return nil
}

// Messages maps a committed event to what each party should hear. The actor already has
// the synchronous response, so nothing is addressed back to them.
func Messages(ev Event, newID func() string) []Message {
	var drafts []draft
	switch ev.Entity {
	case EntityActionRequest:
		drafts = actionDrafts(ev)
	case EntityPenalty:
		drafts = penaltyDrafts(ev)
	case EntityRedemption:
		drafts = redemptionDrafts(ev)
	}
	out := make([]Message, 0, len(drafts))
	for _, d := range drafts {
		to := ev.Parties.address(d.to)
		if to == "" || to == ev.Actor {
			continue
		}
		out = append(out, Message{
			ID:       newID(),
			Audience: d.to,
			To:       to,
			Subject:  d.subject,
			Text:     d.text,
			Entity:   ev.Entity,
			State:    ev.State,
		})
	}
	return out
}

func (p Parties) address(a Audience) string {
	switch a {
	case Pawner:
		return p.PawnerID
	case Investor:
		return p.InvestorID
	case DropPoint:
		return p.DropPointEmail
	}
	return ""
}
