package dto

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gosplit/internal/domain"
)

func TestSplitRequest_ToUseCaseInput(t *testing.T) {
	req := &SplitRequest{
		Participants: []ParticipantRequest{
			{Name: "A", Amount: decimal.NewFromInt(30000)},
			{Name: "B", Amount: decimal.NewFromInt(20000)},
		},
		DeliveryFee:   decimal.NewFromInt(10000),
		TotalDiscount: decimal.NewFromInt(5000),
	}

	got := req.ToUseCaseInput()

	if len(got.Participants) != 2 || got.Participants[1].Name != "B" {
		t.Fatalf("unexpected participants: %+v", got.Participants)
	}
	if !got.Participants[0].Amount.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("amount = %s, want 30000", got.Participants[0].Amount)
	}
	if !got.DeliveryFee.Equal(decimal.NewFromInt(10000)) || !got.TotalDiscount.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("unexpected totals: %+v", got)
	}
}

func TestUpdatePaymentRequest_ToUseCaseInput(t *testing.T) {
	paid := true
	req := &UpdatePaymentRequest{ParticipantName: "A", IsPaid: &paid}

	got, err := req.ToUseCaseInput("order-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.OrderID != "order-1" || got.ParticipantName != "A" || !got.IsPaid {
		t.Fatalf("unexpected input: %+v", got)
	}

	_, err = (&UpdatePaymentRequest{ParticipantName: "A"}).ToUseCaseInput("order-1")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput when is_paid is missing, got %v", err)
	}
}

func TestParseHistoryFilter(t *testing.T) {
	q := url.Values{}
	q.Set("name", " ali ")
	q.Set("start_date", "2024-05-01")
	q.Set("end_date", "2024-05-02")
	q.Set("sort_by", "subtotal")
	q.Set("order", "ASC")
	q.Set("page", "3")
	q.Set("limit", "25")

	filter, err := ParseHistoryFilter(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filter.Name != "ali" {
		t.Errorf("name = %q, want ali", filter.Name)
	}
	if filter.SortBy != domain.SortBySubtotal || !filter.Ascending {
		t.Errorf("unexpected sort: %s asc=%v", filter.SortBy, filter.Ascending)
	}
	if filter.Page != 3 || filter.Limit != 25 {
		t.Errorf("unexpected paging: page=%d limit=%d", filter.Page, filter.Limit)
	}

	wantStart := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if filter.StartDate == nil || !filter.StartDate.Equal(wantStart) {
		t.Errorf("start = %v, want %v", filter.StartDate, wantStart)
	}
	wantEnd := time.Date(2024, 5, 2, 23, 59, 59, 999999999, time.UTC)
	if filter.EndDate == nil || !filter.EndDate.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", filter.EndDate, wantEnd)
	}
}

func TestParseHistoryFilter_Defaults(t *testing.T) {
	filter, err := ParseHistoryFilter(url.Values{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.SortBy != domain.SortByCreatedAt || filter.Ascending {
		t.Errorf("expected createdAt desc by default, got %s asc=%v", filter.SortBy, filter.Ascending)
	}
	if filter.StartDate != nil || filter.EndDate != nil {
		t.Errorf("expected no date bounds")
	}
}

func TestParseHistoryFilter_RFC3339(t *testing.T) {
	q := url.Values{}
	q.Set("end_date", "2024-05-02T10:00:00+02:00")

	filter, err := ParseHistoryFilter(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	if !filter.EndDate.Equal(want) {
		t.Fatalf("end = %v, want %v", filter.EndDate, want)
	}
}

func TestParseHistoryFilter_Invalid(t *testing.T) {
	tests := map[string]url.Values{
		"bad start date": {"start_date": {"yesterday"}},
		"bad end date":   {"end_date": {"05/02/2024"}},
		"bad sort":       {"sort_by": {"name"}},
		"bad order":      {"order": {"sideways"}},
		"bad page":       {"page": {"two"}},
		"bad limit":      {"limit": {"1.5"}},
	}

	for name, q := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseHistoryFilter(q); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
