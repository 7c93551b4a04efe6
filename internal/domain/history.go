package domain

import (
	"fmt"
	"strings"
	"time"
)

// HistorySortField is a column history listings can be ordered by.
type HistorySortField string

const (
	SortByCreatedAt HistorySortField = "createdAt"
	SortByUpdatedAt HistorySortField = "updatedAt"
	SortBySubtotal  HistorySortField = "subtotal"
)

// ParseHistorySortField parses a sort_by query value. Empty means createdAt.
func ParseHistorySortField(s string) (HistorySortField, error) {
	switch HistorySortField(strings.TrimSpace(s)) {
	case "", SortByCreatedAt:
		return SortByCreatedAt, nil
	case SortByUpdatedAt:
		return SortByUpdatedAt, nil
	case SortBySubtotal:
		return SortBySubtotal, nil
	default:
		return "", fmt.Errorf("%w: cannot sort by %q", ErrInvalidInput, s)
	}
}

// HistoryFilter narrows and pages a history listing.
type HistoryFilter struct {
	// Name matches any participant name, case-insensitively, as a substring.
	Name      string
	StartDate *time.Time
	EndDate   *time.Time
	SortBy    HistorySortField
	Ascending bool
	Page      int
	Limit     int
}

// Offset returns the number of records skipped before the current page.
func (f HistoryFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// HistoryPage is one page of stored splits.
type HistoryPage struct {
	Orders     []*Order
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// NewHistoryPage computes page counts for a listing.
func NewHistoryPage(orders []*Order, total int64, page, limit int) *HistoryPage {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &HistoryPage{
		Orders:     orders,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
