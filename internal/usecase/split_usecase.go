package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gosplit/internal/domain"
	"github.com/iho/gosplit/internal/infrastructure/metrics"
)

// SplitUseCase handles computing, storing and settling splits.
type SplitUseCase struct {
	txManager   TransactionManager
	orderRepo   OrderRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	engine      *domain.AllocationEngine
	clock       domain.Clock
	retrier     Retrier
	cache       Cache
	cacheTTL    time.Duration
	strictMatch bool
	metrics     *metrics.Metrics
}

// SplitOption configures optional SplitUseCase collaborators.
type SplitOption func(*SplitUseCase)

// WithCache enables read-through caching of retrieved splits.
func WithCache(cache Cache, ttl time.Duration) SplitOption {
	return func(uc *SplitUseCase) {
		uc.cache = cache
		if ttl > 0 {
			uc.cacheTTL = ttl
		}
	}
}

// WithRetrier retries payment updates on transient storage errors.
func WithRetrier(r Retrier) SplitOption {
	return func(uc *SplitUseCase) { uc.retrier = r }
}

// WithStrictParticipantMatch makes payment updates for unknown participants
// fail with domain.ErrParticipantNotFound instead of being ignored.
func WithStrictParticipantMatch(strict bool) SplitOption {
	return func(uc *SplitUseCase) { uc.strictMatch = strict }
}

// WithMetrics records split metrics.
func WithMetrics(m *metrics.Metrics) SplitOption {
	return func(uc *SplitUseCase) { uc.metrics = m }
}

// NewSplitUseCase creates a new SplitUseCase.
func NewSplitUseCase(
	txManager TransactionManager,
	orderRepo OrderRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	engine *domain.AllocationEngine,
	clock domain.Clock,
	opts ...SplitOption,
) *SplitUseCase {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if engine == nil {
		engine = domain.NewAllocationEngine()
	}

	uc := &SplitUseCase{
		txManager:  txManager,
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		engine:     engine,
		clock:      clock,
		cacheTTL:   DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// SplitInput represents input for computing a split.
type SplitInput struct {
	Participants  []domain.ParticipantInput
	DeliveryFee   decimal.Decimal
	TotalDiscount decimal.Decimal
}

// UpdatePaymentInput represents input for marking a participant paid or unpaid.
type UpdatePaymentInput struct {
	OrderID         string
	ParticipantName string
	IsPaid          bool
}

// SplitSummary is a stored split with its derived payment totals.
// Result is only set when the split was computed in the same call.
type SplitSummary struct {
	Order           *domain.Order
	Result          *domain.AllocationResult
	TotalPaid       decimal.Decimal
	RemainingAmount decimal.Decimal
}

func newSplitSummary(order *domain.Order, result *domain.AllocationResult) *SplitSummary {
	return &SplitSummary{
		Order:           order,
		Result:          result,
		TotalPaid:       order.TotalPaid(),
		RemainingAmount: order.RemainingAmount(),
	}
}

// PreviewSplit computes a split without storing it.
func (uc *SplitUseCase) PreviewSplit(_ context.Context, input SplitInput) (*domain.AllocationResult, error) {
	result, err := uc.engine.Compute(input.Participants, input.DeliveryFee, input.TotalDiscount)
	if err != nil {
		uc.recordError(err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.SplitsPreviewed.Inc()
		uc.metrics.ReconcileAdjustments.Observe(float64(result.Adjustments))
	}

	return result, nil
}

// ComputeSplit computes a split and stores it as a new order.
func (uc *SplitUseCase) ComputeSplit(ctx context.Context, input SplitInput) (*SplitSummary, error) {
	start := time.Now()

	result, err := uc.engine.Compute(input.Participants, input.DeliveryFee, input.TotalDiscount)
	if err != nil {
		uc.recordError(err)
		return nil, err
	}

	now := uc.clock.Now()
	order := domain.NewOrder(uc.idGen.Generate(), result, now)

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		uc.recordError(err)
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.orderRepo.Create(txCtx, tx, order); err != nil {
		uc.recordError(err)
		return nil, err
	}

	event := newOutboxEvent(uc.idGen, domain.AggregateTypeSplit, order.ID,
		domain.EventTypeSplitCreated, domain.SplitCreatedPayload(order), now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		uc.recordError(err)
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		uc.recordError(err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.SplitsCreated.Inc()
		uc.metrics.SplitDuration.Observe(time.Since(start).Seconds())
		uc.metrics.SplitParticipants.Observe(float64(len(order.Participants)))
		uc.metrics.ReconcileAdjustments.Observe(float64(result.Adjustments))
	}

	return newSplitSummary(order, result), nil
}

// GetSplit retrieves a stored split with its current payment totals.
func (uc *SplitUseCase) GetSplit(ctx context.Context, id string) (*SplitSummary, error) {
	if order, ok := uc.cached(ctx, id); ok {
		return newSplitSummary(order, nil), nil
	}

	order, err := uc.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	uc.store(ctx, order)

	return newSplitSummary(order, nil), nil
}

// UpdatePaymentStatus marks one participant of a stored split as paid or unpaid.
func (uc *SplitUseCase) UpdatePaymentStatus(ctx context.Context, input UpdatePaymentInput) (*SplitSummary, error) {
	var order *domain.Order

	op := func() error {
		var err error
		order, err = uc.updatePaymentStatus(ctx, input)
		return err
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, op)
	} else {
		err = op()
	}
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.PaymentUpdates.WithLabelValues("failed").Inc()
		}
		return nil, err
	}

	uc.invalidate(ctx, order.ID)

	if uc.metrics != nil {
		status := "unpaid"
		if input.IsPaid {
			status = "paid"
		}
		uc.metrics.PaymentUpdates.WithLabelValues(status).Inc()
	}

	return newSplitSummary(order, nil), nil
}

func (uc *SplitUseCase) updatePaymentStatus(ctx context.Context, input UpdatePaymentInput) (*domain.Order, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	order, err := uc.orderRepo.GetByIDForUpdate(txCtx, tx, input.OrderID)
	if err != nil {
		return nil, err
	}

	if uc.strictMatch {
		if _, ok := order.Participant(input.ParticipantName); !ok {
			return nil, domain.ErrParticipantNotFound
		}
	}

	now := uc.clock.Now()
	matched := order.SetPaymentStatus(input.ParticipantName, input.IsPaid, now)

	if err := uc.orderRepo.UpdatePayments(txCtx, tx, order.ID, order.Participants, order.UpdatedAt); err != nil {
		return nil, err
	}

	event := newOutboxEvent(uc.idGen, domain.AggregateTypeSplit, order.ID,
		domain.EventTypeSplitPaymentUpdated,
		domain.PaymentUpdatedPayload(order, input.ParticipantName, input.IsPaid, matched), now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return order, nil
}

func (uc *SplitUseCase) cached(ctx context.Context, id string) (*domain.Order, bool) {
	if uc.cache == nil {
		return nil, false
	}

	data, err := uc.cache.Get(ctx, splitCacheKey(id))
	if err != nil {
		uc.recordCacheLookup("miss")
		return nil, false
	}

	if len(data) == 0 {
		uc.recordCacheLookup("stale")
		return nil, false
	}

	var order domain.Order
	if err := json.Unmarshal(data, &order); err != nil {
		_ = uc.cache.Delete(ctx, splitCacheKey(id))
		uc.recordCacheLookup("corrupt")
		return nil, false
	}

	uc.recordCacheLookup("hit")
	return &order, true
}

func (uc *SplitUseCase) store(ctx context.Context, order *domain.Order) {
	if uc.cache == nil {
		return
	}

	data, err := json.Marshal(order)
	if err != nil {
		return
	}
	// Reads never overwrite an entry; a concurrent write may have marked it stale.
	_, _ = uc.cache.SetNX(ctx, splitCacheKey(order.ID), data, uc.cacheTTL)
}

func (uc *SplitUseCase) invalidate(ctx context.Context, id string) {
	markStale(ctx, uc.cache, id)
}

// markStale replaces a split's cache entry with an empty marker for
// CacheInvalidationTTL so that reads which started before the write cannot
// repopulate it with the old order.
func markStale(ctx context.Context, cache Cache, id string) {
	if cache == nil {
		return
	}
	_ = cache.Set(ctx, splitCacheKey(id), []byte{}, CacheInvalidationTTL)
}

func (uc *SplitUseCase) recordCacheLookup(result string) {
	if uc.metrics != nil {
		uc.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

func (uc *SplitUseCase) recordError(err error) {
	if uc.metrics != nil {
		uc.metrics.SplitErrors.WithLabelValues(errorType(err)).Inc()
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrOrderNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrParticipantNotFound):
		return "participant_not_found"
	default:
		return "internal"
	}
}

func splitCacheKey(id string) string {
	return splitCacheKeyPrefix + id
}

func newOutboxEvent(idGen IDGenerator, aggregateType, aggregateID, eventType string, payload map[string]any, now time.Time) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
		Published:     false,
	}
}
