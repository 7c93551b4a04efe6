package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxParticipantNameLength = 255
	MaxParticipants          = 500
	MaxSplitAmount           = "1000000000000" // 1 trillion
	MaxAmountDecimals        = 2
)

// ValidateParticipantName validates a participant name.
func ValidateParticipantName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: participant name cannot be empty", ErrInvalidInput)
	}

	if len(name) > MaxParticipantNameLength {
		return fmt.Errorf("%w: participant name exceeds %d characters", ErrInvalidInput, MaxParticipantNameLength)
	}

	return nil
}

// ValidateAmount validates a participant spend amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	maxAmount := decimal.RequireFromString(MaxSplitAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrInvalidInput, MaxSplitAmount)
	}

	return ValidateScale(amount)
}

// ValidateScale rejects amounts with more than MaxAmountDecimals fractional
// digits; stored money columns keep exactly that many.
func ValidateScale(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(MaxAmountDecimals)) {
		return fmt.Errorf("%w: amount %s has more than %d decimal places", ErrInvalidInput, amount, MaxAmountDecimals)
	}
	return nil
}

// ValidateParticipants validates a split request's participant list.
func ValidateParticipants(participants []ParticipantInput) error {
	if len(participants) == 0 {
		return fmt.Errorf("%w: at least one participant is required", ErrInvalidInput)
	}

	if len(participants) > MaxParticipants {
		return fmt.Errorf("%w: at most %d participants are allowed", ErrInvalidInput, MaxParticipants)
	}

	for i, p := range participants {
		if err := ValidateParticipantName(p.Name); err != nil {
			return fmt.Errorf("participant %d: %w", i, err)
		}
		if err := ValidateAmount(p.Amount); err != nil {
			return fmt.Errorf("participant %q: %w", p.Name, err)
		}
	}

	return nil
}

// ValidatePagination validates and limits page-based pagination parameters.
func ValidatePagination(page, limit int) (int, int) {
	const MaxPageSize = 100
	const DefaultPageSize = 10

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if page < 1 {
		page = 1
	}

	return page, limit
}
