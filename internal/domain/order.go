package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ParticipantAllocation is one participant's computed share and payment state.
type ParticipantAllocation struct {
	Name          string
	Amount        decimal.Decimal
	DiscountShare decimal.Decimal
	DeliveryShare decimal.Decimal
	FinalOwed     decimal.Decimal
	Paid          bool
	PaidAt        *time.Time
}

// Order is a persisted split. Participants are embedded and only reachable
// through the Order's methods; Subtotal is fixed at creation.
type Order struct {
	ID            string
	Participants  []ParticipantAllocation
	DeliveryFee   decimal.Decimal
	TotalDiscount decimal.Decimal
	Subtotal      decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOrder builds an unpaid order from an allocation result.
func NewOrder(id string, result *AllocationResult, now time.Time) *Order {
	participants := make([]ParticipantAllocation, len(result.Participants))
	for i, p := range result.Participants {
		p.Paid = false
		p.PaidAt = nil
		participants[i] = p
	}

	return &Order{
		ID:            id,
		Participants:  participants,
		DeliveryFee:   result.DeliveryFee,
		TotalDiscount: result.TotalDiscount,
		Subtotal:      result.Subtotal,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// TotalOwed sums FinalOwed over all participants.
func (o *Order) TotalOwed() decimal.Decimal {
	total := decimal.Zero
	for _, p := range o.Participants {
		total = total.Add(p.FinalOwed)
	}
	return total
}

// TotalPaid sums FinalOwed over paid participants.
func (o *Order) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range o.Participants {
		if p.Paid {
			total = total.Add(p.FinalOwed)
		}
	}
	return total
}

// RemainingAmount is TotalOwed minus TotalPaid.
func (o *Order) RemainingAmount() decimal.Decimal {
	return o.TotalOwed().Sub(o.TotalPaid())
}

// Participant returns a copy of the first participant with the given name.
func (o *Order) Participant(name string) (ParticipantAllocation, bool) {
	for _, p := range o.Participants {
		if p.Name == name {
			return p, true
		}
	}
	return ParticipantAllocation{}, false
}

// SetPaymentStatus marks the first participant named name as paid or unpaid.
// UpdatedAt advances even when no participant matches; the return value
// reports whether one did.
func (o *Order) SetPaymentStatus(name string, isPaid bool, now time.Time) bool {
	found := false
	for i := range o.Participants {
		if o.Participants[i].Name != name {
			continue
		}

		o.Participants[i].Paid = isPaid
		if isPaid {
			paidAt := now
			o.Participants[i].PaidAt = &paidAt
		} else {
			o.Participants[i].PaidAt = nil
		}
		found = true
		break
	}

	o.Touch(now)
	return found
}

// Touch moves UpdatedAt forward to now. It never moves it backwards.
func (o *Order) Touch(now time.Time) {
	if now.After(o.UpdatedAt) {
		o.UpdatedAt = now
	}
}

// PaidCount returns how many participants have paid.
func (o *Order) PaidCount() int {
	n := 0
	for _, p := range o.Participants {
		if p.Paid {
			n++
		}
	}
	return n
}

// IsSettled reports whether every participant has paid.
func (o *Order) IsSettled() bool {
	return len(o.Participants) > 0 && o.PaidCount() == len(o.Participants)
}
