package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gosplit/internal/domain"
	"github.com/iho/gosplit/internal/usecase"
)

// ParticipantResponse is one participant's allocation in API responses.
type ParticipantResponse struct {
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	DiscountShare decimal.Decimal `json:"discount_share"`
	DeliveryShare decimal.Decimal `json:"delivery_share"`
	FinalOwed     decimal.Decimal `json:"final_owed"`
	Paid          bool            `json:"paid"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
}

// ParticipantsFromDomain converts domain allocations to responses.
func ParticipantsFromDomain(allocations []domain.ParticipantAllocation) []ParticipantResponse {
	result := make([]ParticipantResponse, len(allocations))
	for i, p := range allocations {
		result[i] = ParticipantResponse{
			Name:          p.Name,
			Amount:        p.Amount,
			DiscountShare: p.DiscountShare,
			DeliveryShare: p.DeliveryShare,
			FinalOwed:     p.FinalOwed,
			Paid:          p.Paid,
			PaidAt:        p.PaidAt,
		}
	}
	return result
}

// AllocationResponse is a computed split, stored or not.
type AllocationResponse struct {
	Subtotal               decimal.Decimal       `json:"subtotal"`
	DeliveryFee            decimal.Decimal       `json:"delivery_fee"`
	TotalDiscount          decimal.Decimal       `json:"total_discount"`
	TotalBefore            decimal.Decimal       `json:"total_before"`
	TotalAfter             decimal.Decimal       `json:"total_after"`
	TotalToDeliveryService decimal.Decimal       `json:"total_to_delivery_service"`
	Rounding               string                `json:"rounding"`
	Adjustments            int                   `json:"adjustments"`
	Participants           []ParticipantResponse `json:"participants"`
}

// AllocationFromDomain converts an allocation result to a response.
func AllocationFromDomain(r *domain.AllocationResult) *AllocationResponse {
	return &AllocationResponse{
		Subtotal:               r.Subtotal,
		DeliveryFee:            r.DeliveryFee,
		TotalDiscount:          r.TotalDiscount,
		TotalBefore:            r.TotalBefore,
		TotalAfter:             r.TotalAfter,
		TotalToDeliveryService: r.TotalToDeliveryService,
		Rounding:               string(r.Rounding),
		Adjustments:            r.Adjustments,
		Participants:           ParticipantsFromDomain(r.Participants),
	}
}

// SplitResponse represents a stored split in API responses.
type SplitResponse struct {
	ID              string                `json:"id"`
	Participants    []ParticipantResponse `json:"participants"`
	DeliveryFee     decimal.Decimal       `json:"delivery_fee"`
	TotalDiscount   decimal.Decimal       `json:"total_discount"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	TotalOwed       decimal.Decimal       `json:"total_owed"`
	TotalPaid       decimal.Decimal       `json:"total_paid"`
	RemainingAmount decimal.Decimal       `json:"remaining_amount"`
	Settled         bool                  `json:"settled"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	Allocation      *AllocationResponse   `json:"allocation,omitempty"`
}

// SplitFromDomain converts a domain order to a response.
func SplitFromDomain(o *domain.Order) *SplitResponse {
	return &SplitResponse{
		ID:              o.ID,
		Participants:    ParticipantsFromDomain(o.Participants),
		DeliveryFee:     o.DeliveryFee,
		TotalDiscount:   o.TotalDiscount,
		Subtotal:        o.Subtotal,
		TotalOwed:       o.TotalOwed(),
		TotalPaid:       o.TotalPaid(),
		RemainingAmount: o.RemainingAmount(),
		Settled:         o.IsSettled(),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// SplitFromSummary converts a use case summary to a response.
func SplitFromSummary(s *usecase.SplitSummary) *SplitResponse {
	resp := SplitFromDomain(s.Order)
	resp.TotalPaid = s.TotalPaid
	resp.RemainingAmount = s.RemainingAmount
	if s.Result != nil {
		resp.Allocation = AllocationFromDomain(s.Result)
	}
	return resp
}

// HistoryResponse is one page of stored splits.
type HistoryResponse struct {
	Items      []*SplitResponse `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}

// HistoryFromDomain converts a history page to a response.
func HistoryFromDomain(p *domain.HistoryPage) *HistoryResponse {
	items := make([]*SplitResponse, len(p.Orders))
	for i, o := range p.Orders {
		items[i] = SplitFromDomain(o)
	}
	return &HistoryResponse{
		Items:      items,
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
	}
}

// ClearHistoryResponse reports how many splits were deleted.
type ClearHistoryResponse struct {
	Deleted int `json:"deleted"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
