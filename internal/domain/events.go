package domain

import "time"

// Event types
const (
	EventTypeSplitCreated        = "split.created"
	EventTypeSplitPaymentUpdated = "split.payment_updated"
	EventTypeSplitDeleted        = "split.deleted"
	EventTypeHistoryCleared      = "history.cleared"
)

// Aggregate types
const (
	AggregateTypeSplit   = "split"
	AggregateTypeHistory = "history"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// SplitCreatedPayload builds the split.created payload.
func SplitCreatedPayload(o *Order) map[string]any {
	names := make([]string, len(o.Participants))
	for i, p := range o.Participants {
		names[i] = p.Name
	}
	return map[string]any{
		"order_id":       o.ID,
		"participants":   names,
		"subtotal":       o.Subtotal.String(),
		"delivery_fee":   o.DeliveryFee.String(),
		"total_discount": o.TotalDiscount.String(),
		"total_owed":     o.TotalOwed().String(),
	}
}

// PaymentUpdatedPayload builds the split.payment_updated payload.
func PaymentUpdatedPayload(o *Order, participantName string, isPaid, matched bool) map[string]any {
	return map[string]any{
		"order_id":         o.ID,
		"participant_name": participantName,
		"is_paid":          isPaid,
		"matched":          matched,
		"total_paid":       o.TotalPaid().String(),
		"remaining_amount": o.RemainingAmount().String(),
	}
}
