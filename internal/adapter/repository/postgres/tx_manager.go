package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gosplit/internal/domain"
	"github.com/iho/gosplit/internal/infrastructure/metrics"
	"github.com/iho/gosplit/internal/usecase"
)

type pgxPool interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TxOption configures a TxManager.
type TxOption func(*TxManager)

// WithIsolation sets the isolation level for every transaction.
func WithIsolation(level pgx.TxIsoLevel) TxOption {
	return func(m *TxManager) {
		m.isoLevel = level
	}
}

// WithTxMetrics counts transaction outcomes.
func WithTxMetrics(mt *metrics.Metrics) TxOption {
	return func(m *TxManager) {
		m.metrics = mt
	}
}

// TxManager implements usecase.TransactionManager. Without WithIsolation
// transactions use the server default (READ COMMITTED); payment updates rely
// on row locks rather than serializable isolation.
type TxManager struct {
	pool     pgxPool
	isoLevel pgx.TxIsoLevel
	metrics  *metrics.Metrics
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool, opts ...TxOption) *TxManager {
	return newTxManagerWithPool(pool, opts...)
}

func newTxManagerWithPool(pool pgxPool, opts ...TxOption) *TxManager {
	m := &TxManager{pool: pool}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin starts a new transaction. When ctx carries a deadline the
// transaction's statement_timeout is bounded by it, so a blocked
// SELECT ... FOR UPDATE gives up together with the caller.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: m.isoLevel})
	if err != nil {
		m.record("begin_failed")
		return nil, fmt.Errorf("%w: begin: %w", domain.ErrPersistenceFailure, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		timeout := time.Until(deadline).Milliseconds()
		if timeout < 1 {
			timeout = 1
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", timeout)); err != nil {
			_ = tx.Rollback(ctx)
			m.record("begin_failed")
			return nil, fmt.Errorf("%w: set statement timeout: %w", domain.ErrPersistenceFailure, err)
		}
	}

	return &Tx{tx: tx, manager: m}, nil
}

func (m *TxManager) record(outcome string) {
	if m.metrics != nil {
		m.metrics.DBTransactions.WithLabelValues(outcome).Inc()
	}
}

// Tx wraps a pgx transaction.
type Tx struct {
	tx      pgx.Tx
	manager *TxManager
	done    bool
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	err := t.tx.Commit(ctx)
	t.done = true
	if err != nil {
		t.manager.record("commit_failed")
		return err
	}
	t.manager.record("committed")
	return nil
}

// Rollback rolls back the transaction. Calling it after Commit is a no-op,
// which lets callers defer it unconditionally.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.manager.record("rolled_back")
	return t.tx.Rollback(ctx)
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}
