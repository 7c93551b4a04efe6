package usecase

import (
	"context"
	"fmt"

	"github.com/iho/gosplit/internal/domain"
	"github.com/iho/gosplit/internal/infrastructure/metrics"
)

// HistoryUseCase handles listing and removing stored splits.
type HistoryUseCase struct {
	txManager  TransactionManager
	orderRepo  OrderRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	clock      domain.Clock
	cache      Cache
	metrics    *metrics.Metrics
}

// NewHistoryUseCase creates a new HistoryUseCase. cache and m may be nil.
func NewHistoryUseCase(
	txManager TransactionManager,
	orderRepo OrderRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	clock domain.Clock,
	cache Cache,
	m *metrics.Metrics,
) *HistoryUseCase {
	if clock == nil {
		clock = domain.SystemClock{}
	}

	return &HistoryUseCase{
		txManager:  txManager,
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		clock:      clock,
		cache:      cache,
		metrics:    m,
	}
}

// ListHistory returns one page of stored splits matching filter.
func (uc *HistoryUseCase) ListHistory(ctx context.Context, filter domain.HistoryFilter) (*domain.HistoryPage, error) {
	filter.Page, filter.Limit = domain.ValidatePagination(filter.Page, filter.Limit)
	if filter.SortBy == "" {
		filter.SortBy = domain.SortByCreatedAt
	}

	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, fmt.Errorf("%w: end date is before start date", domain.ErrInvalidInput)
	}

	total, err := uc.orderRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	orders := []*domain.Order{}
	if total > 0 && int64(filter.Offset()) < total {
		orders, err = uc.orderRepo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
	}

	return domain.NewHistoryPage(orders, total, filter.Page, filter.Limit), nil
}

// DeleteSplit removes one stored split.
func (uc *HistoryUseCase) DeleteSplit(ctx context.Context, id string) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.orderRepo.Delete(txCtx, tx, id); err != nil {
		return err
	}

	event := newOutboxEvent(uc.idGen, domain.AggregateTypeSplit, id,
		domain.EventTypeSplitDeleted, map[string]any{"order_id": id}, uc.clock.Now())
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	markStale(ctx, uc.cache, id)

	if uc.metrics != nil {
		uc.metrics.SplitsDeleted.Inc()
	}

	return nil
}

// ClearHistory removes every stored split and returns how many were deleted.
func (uc *HistoryUseCase) ClearHistory(ctx context.Context) (int, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	ids, err := uc.orderRepo.DeleteAll(txCtx, tx)
	if err != nil {
		return 0, err
	}

	now := uc.clock.Now()
	event := newOutboxEvent(uc.idGen, domain.AggregateTypeHistory, "all",
		domain.EventTypeHistoryCleared, map[string]any{"deleted": len(ids)}, now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return 0, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return 0, err
	}

	for _, id := range ids {
		markStale(ctx, uc.cache, id)
	}

	if uc.metrics != nil {
		uc.metrics.HistoryCleared.Inc()
		uc.metrics.SplitsDeleted.Add(float64(len(ids)))
	}

	return len(ids), nil
}
