package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gosplit/internal/domain"
	"github.com/iho/gosplit/internal/usecase"
)

var repoNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

var orderRowColumns = []string{"id", "participants", "delivery_fee", "total_discount", "subtotal", "created_at", "updated_at"}

func testOrder(t *testing.T) *domain.Order {
	t.Helper()

	engine := domain.NewAllocationEngine(domain.WithDriftSelector(domain.NewSequenceSelector(0)))
	result, err := engine.Compute([]domain.ParticipantInput{
		{Name: "A", Amount: decimal.NewFromInt(30000)},
		{Name: "B", Amount: decimal.NewFromInt(20000)},
	}, decimal.NewFromInt(10000), decimal.NewFromInt(5000))
	require.NoError(t, err)

	return domain.NewOrder("order-1", result, repoNow)
}

func beginTx(t *testing.T, pool pgxmock.PgxPoolIface) usecase.Transaction {
	t.Helper()

	pool.ExpectBegin()
	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	require.NoError(t, err)
	return tx
}

func orderRow(t *testing.T, order *domain.Order) *pgxmock.Rows {
	t.Helper()

	participants, err := encodeParticipants(order.Participants)
	require.NoError(t, err)

	return pgxmock.NewRows(orderRowColumns).AddRow(
		order.ID,
		participants,
		decimalToNumeric(order.DeliveryFee),
		decimalToNumeric(order.TotalDiscount),
		decimalToNumeric(order.Subtotal),
		order.CreatedAt,
		order.UpdatedAt,
	)
}

func TestOrderRepositoryCreate(t *testing.T) {
	pool := newMockPool(t)
	repo := newOrderRepository(pool, nil)
	order := testOrder(t)
	tx := beginTx(t, pool)

	pool.ExpectExec("INSERT INTO split_orders").
		WithArgs("order-1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), tx, order))
	assertExpectations(t, pool)
}

func TestOrderRepositoryCreateWrapsDriverError(t *testing.T) {
	pool := newMockPool(t)
	repo := newOrderRepository(pool, nil)
	tx := beginTx(t, pool)

	driverErr := errors.New("duplicate key")
	pool.ExpectExec("INSERT INTO split_orders").WillReturnError(driverErr)

	err := repo.Create(context.Background(), tx, testOrder(t))
	assert.ErrorIs(t, err, domain.ErrPersistenceFailure)
	assert.ErrorIs(t, err, driverErr)
}

func TestOrderRepositoryGetByID(t *testing.T) {
	pool := newMockPool(t)
	repo := newOrderRepository(pool, nil)
	want := testOrder(t)

	pool.ExpectQuery("SELECT .+ FROM split_orders WHERE id = \\$1").
		WithArgs("order-1").
		WillReturnRows(orderRow(t, want))

	got, err := repo.GetByID(context.Background(), "order-1")
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.True(t, got.Subtotal.Equal(want.Subtotal))
	assert.True(t, got.DeliveryFee.Equal(want.DeliveryFee))
	assert.True(t, got.TotalDiscount.Equal(want.TotalDiscount))
	require.Len(t, got.Participants, 2)
	assert.Equal(t, "A", got.Participants[0].Name)
	assert.True(t, got.Participants[0].FinalOwed.Equal(decimal.NewFromInt(32000)))
	assert.True(t, got.TotalOwed().Equal(want.TotalOwed()))
	assertExpectations(t, pool)
}

func TestOrderRepositoryGetByIDNotFound(t *testing.T) {
	pool := newMockPool(t)
	repo := newOrderRepository(pool, nil)

	pool.ExpectQuery("SELECT .+ FROM split_orders").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepositoryGetByIDForUpdate(t *testing.T) {
	pool := newMockPool(t)
	repo := newOrderRepository(pool, nil)
	tx := beginTx(t, pool)

	pool.ExpectQuery("FOR UPDATE").
		WithArgs("order-1").
		WillReturnRows(orderRow(t, testOrder(t)))

	got, err := repo.GetByIDForUpdate(context.Background(), tx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, "order-1", got.ID)
}

func TestOrderRepositoryUpdatePayments(t *testing.T) {
	pool := newMockPool(t)
	repo := newOrderRepository(pool, nil)
	order := testOrder(t)
	tx := beginTx(t, pool)

	paidAt := repoNow.Add(time.Minute)
	order.SetPaymentStatus("A", true, paidAt)

	pool.ExpectExec("UPDATE split_orders SET participants").
		WithArgs("order-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdatePayments(context.Background(), tx, order.ID, order.Participants, order.UpdatedAt))
	assertExpectations(t, pool)
}

func TestOrderRepositoryUpdatePaymentsNotFound(t *testing.T) {
	pool := newMockPool(t)
	repo := newOrderRepository(pool, nil)
	tx := beginTx(t, pool)

	pool.ExpectExec("UPDATE split_orders").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdatePayments(context.Background(), tx, "missing", nil, repoNow)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepositoryListAndCount(t *testing.T) {
	pool := newMockPool(t)
	repo := newOrderRepository(pool, nil)

	start := repoNow.Add(-24 * time.Hour)
	filter := domain.HistoryFilter{
		Name:      "a",
		StartDate: &start,
		SortBy:    domain.SortBySubtotal,
		Ascending: true,
		Page:      2,
		Limit:     5,
	}

	pool.ExpectQuery("SELECT COUNT\\(\\*\\) FROM split_orders WHERE EXISTS .+ILIKE \\$1 AND created_at >= \\$2").
		WithArgs("%a%", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(6)))

	pool.ExpectQuery("ORDER BY subtotal ASC, id ASC LIMIT \\$3 OFFSET \\$4").
		WithArgs("%a%", pgxmock.AnyArg(), 5, 5).
		WillReturnRows(orderRow(t, testOrder(t)))

	total, err := repo.Count(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)

	orders, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assertExpectations(t, pool)
}

func TestOrderRepositoryListDefaultsToNewestFirst(t *testing.T) {
	pool := newMockPool(t)
	repo := newOrderRepository(pool, nil)

	pool.ExpectQuery("FROM split_orders ORDER BY created_at DESC, id DESC LIMIT \\$1 OFFSET \\$2").
		WithArgs(10, 0).
		WillReturnRows(pgxmock.NewRows(orderRowColumns))

	orders, err := repo.List(context.Background(), domain.HistoryFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderRepositoryDelete(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "deleted", affected: 1},
		{name: "missing", affected: 0, wantErr: domain.ErrOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := newMockPool(t)
			repo := newOrderRepository(pool, nil)
			tx := beginTx(t, pool)

			pool.ExpectExec("DELETE FROM split_orders WHERE id = \\$1").
				WithArgs("order-1").
				WillReturnResult(pgxmock.NewResult("DELETE", tt.affected))

			err := repo.Delete(context.Background(), tx, "order-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOrderRepositoryDeleteAll(t *testing.T) {
	pool := newMockPool(t)
	repo := newOrderRepository(pool, nil)
	tx := beginTx(t, pool)

	pool.ExpectQuery("DELETE FROM split_orders RETURNING id").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("a").AddRow("b"))

	ids, err := repo.DeleteAll(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

type foreignTx struct{}

func (foreignTx) Commit(context.Context) error   { return nil }
func (foreignTx) Rollback(context.Context) error { return nil }

func TestOrderRepositoryRejectsForeignTransaction(t *testing.T) {
	repo := newOrderRepository(newMockPool(t), nil)

	err := repo.Delete(context.Background(), foreignTx{}, "order-1")
	assert.ErrorIs(t, err, domain.ErrPersistenceFailure)
}

func TestParticipantsJSONShape(t *testing.T) {
	order := testOrder(t)
	order.SetPaymentStatus("B", true, repoNow)

	data, err := encodeParticipants(order.Participants)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)
	assert.Equal(t, "B", raw[1]["name"])
	assert.Equal(t, true, raw[1]["paid"])
	assert.Contains(t, raw[1], "paidAt")
	assert.NotContains(t, raw[0], "paidAt")

	decoded, err := decodeParticipants(data)
	require.NoError(t, err)
	require.NotNil(t, decoded[1].PaidAt)
	assert.True(t, decoded[1].PaidAt.Equal(repoNow))
	assert.True(t, decoded[0].FinalOwed.Equal(order.Participants[0].FinalOwed))
}
