package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultRoundingUnit is the currency step every owed amount is rounded to.
var DefaultRoundingUnit = decimal.NewFromInt(100)

// RoundingStrategy selects how amounts snap to the rounding unit.
type RoundingStrategy string

const (
	// RoundingNearest rounds half-to-even to the nearest multiple of the unit.
	RoundingNearest RoundingStrategy = "nearest"
	// RoundingUp always rounds towards positive infinity. Legacy preview behavior.
	RoundingUp RoundingStrategy = "up"
)

// ParseRoundingStrategy parses a config value into a RoundingStrategy.
func ParseRoundingStrategy(s string) (RoundingStrategy, error) {
	switch RoundingStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoundingNearest:
		return RoundingNearest, nil
	case RoundingUp:
		return RoundingUp, nil
	default:
		return "", fmt.Errorf("%w: unknown rounding strategy %q", ErrInvalidInput, s)
	}
}

// Apply rounds v to a multiple of unit.
func (s RoundingStrategy) Apply(v, unit decimal.Decimal) decimal.Decimal {
	q := v.Div(unit)
	if s == RoundingUp {
		q = q.Ceil()
	} else {
		q = q.RoundBank(0)
	}
	return q.Mul(unit)
}

// ParticipantInput is one participant's spend in a split request.
type ParticipantInput struct {
	Name   string
	Amount decimal.Decimal
}

// AllocationResult is the output of AllocationEngine.Compute.
type AllocationResult struct {
	Subtotal               decimal.Decimal
	DeliveryFee            decimal.Decimal
	TotalDiscount          decimal.Decimal
	TotalBefore            decimal.Decimal
	TotalAfter             decimal.Decimal
	TotalToDeliveryService decimal.Decimal
	Rounding               RoundingStrategy
	Participants           []ParticipantAllocation
	// Adjustments counts reconciliation iterations.
	Adjustments int
}

// EngineOption configures an AllocationEngine.
type EngineOption func(*AllocationEngine)

// WithRounding sets the rounding strategy.
func WithRounding(s RoundingStrategy) EngineOption {
	return func(e *AllocationEngine) { e.rounding = s }
}

// WithRoundingUnit sets the rounding unit. Non-positive units are ignored.
func WithRoundingUnit(unit decimal.Decimal) EngineOption {
	return func(e *AllocationEngine) {
		if unit.IsPositive() {
			e.unit = unit
		}
	}
}

// WithDriftSelector sets the participant picker used during reconciliation.
func WithDriftSelector(s DriftSelector) EngineOption {
	return func(e *AllocationEngine) {
		if s != nil {
			e.selector = s
		}
	}
}

// AllocationEngine distributes a delivery fee and a discount across participants.
// It holds no mutable state of its own and is safe for concurrent use as long as
// its DriftSelector is.
type AllocationEngine struct {
	rounding RoundingStrategy
	unit     decimal.Decimal
	selector DriftSelector
}

// NewAllocationEngine creates an engine with nearest rounding to 100 and a random drift selector.
func NewAllocationEngine(opts ...EngineOption) *AllocationEngine {
	e := &AllocationEngine{
		rounding: RoundingNearest,
		unit:     DefaultRoundingUnit,
		selector: NewRandomSelector(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rounding returns the configured strategy.
func (e *AllocationEngine) Rounding() RoundingStrategy {
	return e.rounding
}

// Unit returns the configured rounding unit.
func (e *AllocationEngine) Unit() decimal.Decimal {
	return e.unit
}

// Compute splits deliveryFee equally and totalDiscount proportionally to spend,
// rounds every owed amount to the unit and then removes positive drift against
// subtotal + deliveryFee - totalDiscount one unit at a time.
func (e *AllocationEngine) Compute(participants []ParticipantInput, deliveryFee, totalDiscount decimal.Decimal) (*AllocationResult, error) {
	if err := ValidateParticipants(participants); err != nil {
		return nil, err
	}
	if deliveryFee.IsNegative() {
		return nil, fmt.Errorf("%w: delivery fee must not be negative", ErrInvalidInput)
	}
	if totalDiscount.IsNegative() {
		return nil, fmt.Errorf("%w: discount must not be negative", ErrInvalidInput)
	}
	if err := ValidateScale(deliveryFee); err != nil {
		return nil, fmt.Errorf("delivery fee: %w", err)
	}
	if err := ValidateScale(totalDiscount); err != nil {
		return nil, fmt.Errorf("discount: %w", err)
	}

	subtotal := decimal.Zero
	for _, p := range participants {
		subtotal = subtotal.Add(p.Amount)
	}
	if subtotal.IsZero() {
		return nil, fmt.Errorf("%w: subtotal cannot be zero", ErrInvalidInput)
	}

	n := len(participants)
	deliveryShare := deliveryFee.Div(decimal.NewFromInt(int64(n)))

	allocations := make([]ParticipantAllocation, n)
	for i, p := range participants {
		rawDiscount := p.Amount.Mul(totalDiscount).Div(subtotal)
		allocations[i] = ParticipantAllocation{
			Name:          strings.TrimSpace(p.Name),
			Amount:        p.Amount,
			DiscountShare: e.rounding.Apply(rawDiscount, e.unit),
			DeliveryShare: e.rounding.Apply(deliveryShare, e.unit),
			FinalOwed:     e.rounding.Apply(p.Amount.Sub(rawDiscount).Add(deliveryShare), e.unit),
		}
	}

	totalBefore := subtotal.Add(deliveryFee)
	target := totalBefore.Sub(totalDiscount)

	adjustments := 0
	drift := sumOwed(allocations).Sub(target)
	for drift.IsPositive() {
		i := normalizeIndex(e.selector.Pick(n), n)
		delta := decimal.Min(drift, e.unit)

		allocations[i].DiscountShare = allocations[i].DiscountShare.Add(delta)
		allocations[i].FinalOwed = allocations[i].FinalOwed.Sub(delta)
		drift = drift.Sub(delta)
		adjustments++
	}

	return &AllocationResult{
		Subtotal:               subtotal,
		DeliveryFee:            deliveryFee,
		TotalDiscount:          totalDiscount,
		TotalBefore:            totalBefore,
		TotalAfter:             sumOwed(allocations),
		TotalToDeliveryService: target,
		Rounding:               e.rounding,
		Participants:           allocations,
		Adjustments:            adjustments,
	}, nil
}

func sumOwed(allocations []ParticipantAllocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.FinalOwed)
	}
	return total
}

func normalizeIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
