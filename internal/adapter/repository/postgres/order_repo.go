package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gosplit/internal/domain"
	"github.com/iho/gosplit/internal/infrastructure/metrics"
	"github.com/iho/gosplit/internal/usecase"
)

const orderColumns = `id, participants, delivery_fee, total_discount, subtotal, created_at, updated_at`

var sortColumns = map[domain.HistorySortField]string{
	domain.SortByCreatedAt: "created_at",
	domain.SortByUpdatedAt: "updated_at",
	domain.SortBySubtotal:  "subtotal",
}

// participantRecord is the JSONB shape of one embedded participant.
type participantRecord struct {
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	DiscountShare decimal.Decimal `json:"discountShare"`
	DeliveryShare decimal.Decimal `json:"deliveryShare"`
	FinalOwed     decimal.Decimal `json:"finalOwed"`
	Paid          bool            `json:"paid"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
}

// OrderRepository implements usecase.OrderRepository.
type OrderRepository struct {
	db      dbtx
	metrics *metrics.Metrics
}

// NewOrderRepository creates a new OrderRepository. m may be nil.
func NewOrderRepository(pool *pgxpool.Pool, m *metrics.Metrics) *OrderRepository {
	return newOrderRepository(pool, m)
}

func newOrderRepository(db dbtx, m *metrics.Metrics) *OrderRepository {
	return &OrderRepository{db: db, metrics: m}
}

// Create inserts a new order within a transaction.
func (r *OrderRepository) Create(ctx context.Context, tx usecase.Transaction, order *domain.Order) error {
	conn, err := txConn(tx)
	if err != nil {
		return err
	}

	participants, err := encodeParticipants(order.Participants)
	if err != nil {
		return err
	}

	_, err = conn.Exec(ctx,
		`INSERT INTO split_orders (`+orderColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		order.ID,
		participants,
		decimalToNumeric(order.DeliveryFee),
		decimalToNumeric(order.TotalDiscount),
		decimalToNumeric(order.Subtotal),
		timeToPgTimestamptz(order.CreatedAt),
		timeToPgTimestamptz(order.UpdatedAt),
	)

	return r.observe("insert", err)
}

// GetByID retrieves an order by ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM split_orders WHERE id = $1`, id)

	order, err := scanOrder(row)
	if err != nil {
		return nil, r.observe("select", err)
	}

	r.observe("select", nil)
	return order, nil
}

// GetByIDForUpdate retrieves an order and locks its row until the transaction ends.
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Order, error) {
	conn, err := txConn(tx)
	if err != nil {
		return nil, err
	}

	row := conn.QueryRow(ctx, `SELECT `+orderColumns+` FROM split_orders WHERE id = $1 FOR UPDATE`, id)

	order, err := scanOrder(row)
	if err != nil {
		return nil, r.observe("select_for_update", err)
	}

	r.observe("select_for_update", nil)
	return order, nil
}

// UpdatePayments replaces the embedded participants and advances updated_at.
func (r *OrderRepository) UpdatePayments(ctx context.Context, tx usecase.Transaction, id string, participants []domain.ParticipantAllocation, updatedAt time.Time) error {
	conn, err := txConn(tx)
	if err != nil {
		return err
	}

	data, err := encodeParticipants(participants)
	if err != nil {
		return err
	}

	tag, err := conn.Exec(ctx,
		`UPDATE split_orders SET participants = $2, updated_at = GREATEST(updated_at, $3) WHERE id = $1`,
		id, data, timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return r.observe("update", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}

	return r.observe("update", nil)
}

// List returns one page of orders matching filter.
func (r *OrderRepository) List(ctx context.Context, filter domain.HistoryFilter) ([]*domain.Order, error) {
	where, args := buildHistoryWhere(filter)

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = sortColumns[domain.SortByCreatedAt]
	}
	direction := "DESC"
	if filter.Ascending {
		direction = "ASC"
	}

	args = append(args, filter.Limit, filter.Offset())
	query := fmt.Sprintf(`SELECT %s FROM split_orders%s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d`,
		orderColumns, where, column, direction, direction, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.observe("list", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0, filter.Limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, r.observe("list", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, r.observe("list", err)
	}

	r.observe("list", nil)
	return orders, nil
}

// Count returns how many orders match filter, ignoring paging.
func (r *OrderRepository) Count(ctx context.Context, filter domain.HistoryFilter) (int64, error) {
	where, args := buildHistoryWhere(filter)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM split_orders`+where, args...).Scan(&total); err != nil {
		return 0, r.observe("count", err)
	}

	r.observe("count", nil)
	return total, nil
}

// Delete removes one order.
func (r *OrderRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	conn, err := txConn(tx)
	if err != nil {
		return err
	}

	tag, err := conn.Exec(ctx, `DELETE FROM split_orders WHERE id = $1`, id)
	if err != nil {
		return r.observe("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}

	return r.observe("delete", nil)
}

// DeleteAll removes every order and returns the deleted IDs.
func (r *OrderRepository) DeleteAll(ctx context.Context, tx usecase.Transaction) ([]string, error) {
	conn, err := txConn(tx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, `DELETE FROM split_orders RETURNING id`)
	if err != nil {
		return nil, r.observe("delete_all", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, r.observe("delete_all", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, r.observe("delete_all", err)
	}

	r.observe("delete_all", nil)
	return ids, nil
}

func (r *OrderRepository) observe(op string, err error) error {
	if r.metrics != nil {
		r.metrics.DBQueries.WithLabelValues(op, "split_orders").Inc()
		if err != nil {
			r.metrics.DBErrors.WithLabelValues(op).Inc()
		}
	}
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}

func buildHistoryWhere(filter domain.HistoryFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if name := strings.TrimSpace(filter.Name); name != "" {
		args = append(args, "%"+escapeLike(name)+"%")
		conds = append(conds, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM jsonb_array_elements(participants) p WHERE p->>'name' ILIKE $%d)`, len(args)))
	}
	if filter.StartDate != nil {
		args = append(args, timeToPgTimestamptz(*filter.StartDate))
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, timeToPgTimestamptz(*filter.EndDate))
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order         domain.Order
		participants  []byte
		deliveryFee   pgtype.Numeric
		totalDiscount pgtype.Numeric
		subtotal      pgtype.Numeric
	)

	if err := row.Scan(
		&order.ID,
		&participants,
		&deliveryFee,
		&totalDiscount,
		&subtotal,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return nil, err
	}

	decoded, err := decodeParticipants(participants)
	if err != nil {
		return nil, err
	}

	order.Participants = decoded
	order.DeliveryFee = numericToDecimal(deliveryFee)
	order.TotalDiscount = numericToDecimal(totalDiscount)
	order.Subtotal = numericToDecimal(subtotal)

	return &order, nil
}

func encodeParticipants(participants []domain.ParticipantAllocation) ([]byte, error) {
	records := make([]participantRecord, len(participants))
	for i, p := range participants {
		records[i] = participantRecord{
			Name:          p.Name,
			Amount:        p.Amount,
			DiscountShare: p.DiscountShare,
			DeliveryShare: p.DeliveryShare,
			FinalOwed:     p.FinalOwed,
			Paid:          p.Paid,
			PaidAt:        p.PaidAt,
		}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("%w: encode participants: %w", domain.ErrPersistenceFailure, err)
	}
	return data, nil
}

func decodeParticipants(data []byte) ([]domain.ParticipantAllocation, error) {
	var records []participantRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}

	participants := make([]domain.ParticipantAllocation, len(records))
	for i, rec := range records {
		participants[i] = domain.ParticipantAllocation{
			Name:          rec.Name,
			Amount:        rec.Amount,
			DiscountShare: rec.DiscountShare,
			DeliveryShare: rec.DeliveryShare,
			FinalOwed:     rec.FinalOwed,
			Paid:          rec.Paid,
			PaidAt:        rec.PaidAt,
		}
	}
	return participants, nil
}
