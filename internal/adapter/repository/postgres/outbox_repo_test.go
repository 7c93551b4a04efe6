package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gosplit/internal/domain"
)

func TestOutboxRepositoryCreate(t *testing.T) {
	pool := newMockPool(t)
	repo := newOutboxRepository(pool)
	tx := beginTx(t, pool)

	pool.ExpectExec("INSERT INTO outbox_events").
		WithArgs("evt-1", "order-1", domain.AggregateTypeSplit, domain.EventTypeSplitCreated,
			pgxmock.AnyArg(), pgxmock.AnyArg(), false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), tx, &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   "order-1",
		AggregateType: domain.AggregateTypeSplit,
		EventType:     domain.EventTypeSplitCreated,
		Payload:       map[string]any{"order_id": "order-1"},
		CreatedAt:     repoNow,
	})
	require.NoError(t, err)
	assertExpectations(t, pool)
}

func TestOutboxRepositoryGetUnpublished(t *testing.T) {
	pool := newMockPool(t)
	repo := newOutboxRepository(pool)

	payload, _ := json.Marshal(map[string]any{"order_id": "order-1"})
	rows := pgxmock.NewRows([]string{"id", "aggregate_id", "aggregate_type", "event_type", "payload", "created_at", "published_at", "published"}).
		AddRow("evt-1", "order-1", domain.AggregateTypeSplit, domain.EventTypeSplitCreated, payload, repoNow, pgtype.Timestamptz{}, false)

	pool.ExpectQuery("FROM outbox_events WHERE published = FALSE").
		WithArgs(10).
		WillReturnRows(rows)

	events, err := repo.GetUnpublished(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt-1", events[0].ID)
	assert.Equal(t, "order-1", events[0].Payload["order_id"])
	assert.Nil(t, events[0].PublishedAt)
}

func TestOutboxRepositoryMarkPublished(t *testing.T) {
	pool := newMockPool(t)
	repo := newOutboxRepository(pool)

	pool.ExpectExec("UPDATE outbox_events SET published = TRUE").
		WithArgs("evt-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.MarkPublished(context.Background(), "evt-1", repoNow))
}

func TestOutboxRepositoryDeletePublished(t *testing.T) {
	pool := newMockPool(t)
	repo := newOutboxRepository(pool)

	pool.ExpectExec("DELETE FROM outbox_events WHERE published = TRUE").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	require.NoError(t, repo.DeletePublished(context.Background(), repoNow.Add(-time.Hour)))
}
