package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/thedigitalgifter/gifter/internal/apperrors"
	"github.com/thedigitalgifter/gifter/internal/models"
)

type OrderRepo struct {
	DB DBTX
}

// Insert order keyed by the external payment-session id
// If an order with the session id already exists return it as is: the
// unique index on session_id is the actual idempotency enforcement
const createOrder = `-- name: CreateOrder
WITH insert_order AS (
	INSERT INTO orders (id, session_id, user_id, pack, credits, amount_paid, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT DO NOTHING
	RETURNING *
)
SELECT * FROM insert_order
UNION
SELECT * FROM orders WHERE session_id = $2
`

func (r *OrderRepo) CreateOrder(ctx context.Context, order models.Order) (models.Order, bool, error) {
	orderID := uuid.New()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusCompleted
	}

	rows, _ := r.DB.Query(ctx, createOrder,
		orderID, order.SessionID, order.UserID, order.Pack, order.Credits, order.AmountPaid, order.Status, order.CreatedAt)
	o, err := pgx.CollectOneRow(rows, rowToOrder)

	switch {
	case err == nil:
		return o, o.ID == orderID, nil
	case errors.Is(err, pgx.ErrNoRows):
		// A concurrent insert with the same session id committed after
		// this statement's snapshot: the conflict skipped our insert and
		// the read-back couldn't see the winner yet. A fresh statement can.
		o, err := r.GetOrderBySessionID(ctx, order.SessionID)
		if err != nil {
			return o, false, fmt.Errorf("read back conflicting order: %w", err)
		}
		return o, false, nil
	default:
		return o, false, fmt.Errorf("db error: %w", err)
	}
}

const getOrderBySessionID = `-- name: GetOrderBySessionID
SELECT id, session_id, user_id, pack, credits, amount_paid, status, created_at FROM orders
WHERE session_id = $1
`

func (r *OrderRepo) GetOrderBySessionID(ctx context.Context, sessionID string) (models.Order, error) {
	rows, _ := r.DB.Query(ctx, getOrderBySessionID, sessionID)
	order, err := pgx.CollectOneRow(rows, rowToOrder)

	switch {
	case err == nil:
		return order, nil
	case errors.Is(err, pgx.ErrNoRows):
		return order, apperrors.ErrOrderNotFound
	default:
		return order, fmt.Errorf("db error: %w", err)
	}
}

const listOrders = `-- name: ListOrders
SELECT id, session_id, user_id, pack, credits, amount_paid, status, created_at FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
`

func (r *OrderRepo) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	rows, _ := r.DB.Query(ctx, listOrders, userID)
	orders, err := pgx.CollectRows(rows, rowToOrder)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return orders, nil
}

func rowToOrder(row pgx.CollectableRow) (models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.SessionID, &o.UserID, &o.Pack, &o.Credits, &o.AmountPaid, &o.Status, &o.CreatedAt)
	return o, err
}
