package dto

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gosplit/internal/domain"
	"github.com/iho/gosplit/internal/usecase"
)

// ParticipantRequest is one participant's spend.
type ParticipantRequest struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// SplitRequest represents a request to preview or create a split.
type SplitRequest struct {
	Participants  []ParticipantRequest `json:"participants"`
	DeliveryFee   decimal.Decimal      `json:"delivery_fee"`
	TotalDiscount decimal.Decimal      `json:"total_discount"`
}

// ToUseCaseInput converts to use case input.
func (r *SplitRequest) ToUseCaseInput() usecase.SplitInput {
	participants := make([]domain.ParticipantInput, len(r.Participants))
	for i, p := range r.Participants {
		participants[i] = domain.ParticipantInput{Name: p.Name, Amount: p.Amount}
	}
	return usecase.SplitInput{
		Participants:  participants,
		DeliveryFee:   r.DeliveryFee,
		TotalDiscount: r.TotalDiscount,
	}
}

// UpdatePaymentRequest marks a participant paid or unpaid.
type UpdatePaymentRequest struct {
	ParticipantName string `json:"participant_name"`
	IsPaid          *bool  `json:"is_paid"`
}

// ToUseCaseInput converts to use case input for the split with the given ID.
func (r *UpdatePaymentRequest) ToUseCaseInput(orderID string) (usecase.UpdatePaymentInput, error) {
	if r.IsPaid == nil {
		return usecase.UpdatePaymentInput{}, fmt.Errorf("%w: is_paid is required", domain.ErrInvalidInput)
	}
	return usecase.UpdatePaymentInput{
		OrderID:         orderID,
		ParticipantName: r.ParticipantName,
		IsPaid:          *r.IsPaid,
	}, nil
}

const dateOnly = "2006-01-02"

// ParseHistoryFilter reads history query parameters:
// name, start_date, end_date, sort_by, order, page, limit.
// Dates are RFC 3339 or YYYY-MM-DD; a date-only end_date covers the whole day.
func ParseHistoryFilter(q url.Values) (domain.HistoryFilter, error) {
	var filter domain.HistoryFilter

	filter.Name = strings.TrimSpace(q.Get("name"))

	if v := q.Get("start_date"); v != "" {
		t, _, err := parseDate(v)
		if err != nil {
			return filter, fmt.Errorf("%w: start_date: %v", domain.ErrInvalidInput, err)
		}
		filter.StartDate = &t
	}

	if v := q.Get("end_date"); v != "" {
		t, dayOnly, err := parseDate(v)
		if err != nil {
			return filter, fmt.Errorf("%w: end_date: %v", domain.ErrInvalidInput, err)
		}
		if dayOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		filter.EndDate = &t
	}

	sortBy, err := domain.ParseHistorySortField(q.Get("sort_by"))
	if err != nil {
		return filter, err
	}
	filter.SortBy = sortBy

	switch strings.ToLower(strings.TrimSpace(q.Get("order"))) {
	case "", "desc":
	case "asc":
		filter.Ascending = true
	default:
		return filter, fmt.Errorf("%w: order must be asc or desc", domain.ErrInvalidInput)
	}

	if filter.Page, err = parseInt(q, "page"); err != nil {
		return filter, err
	}
	if filter.Limit, err = parseInt(q, "limit"); err != nil {
		return filter, err
	}

	return filter, nil
}

func parseDate(v string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), false, nil
	}
	t, err := time.Parse(dateOnly, v)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expected RFC 3339 or YYYY-MM-DD, got %q", v)
	}
	return t, true, nil
}

func parseInt(q url.Values, key string) (int, error) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
	}
	return i, nil
}
