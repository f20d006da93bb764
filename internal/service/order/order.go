package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/thedigitalgifter/gifter/internal/models"
	"github.com/thedigitalgifter/gifter/internal/repository"
)

// OrderService turns completed checkout sessions into orders and
// credit grants, at most once per session id.
type OrderService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *OrderService {
	return &OrderService{storage: storage}
}

type RecordOrderParams struct {
	SessionID  string
	UserID     uuid.UUID
	Pack       string
	Credits    int64
	AmountPaid decimal.Decimal
}

// RecordOrder registers a completed payment and credits the purchased
// amount. Replaying the same session id any number of times yields one
// order row and one credit grant: the unique index on session_id is the
// enforcement, and the order insert and the balance credit share one
// transaction so a crash between them can't leave a half-applied
// purchase. The bool result reports whether this call recorded the
// order (false on duplicate delivery, which is a no-op success).
func (s *OrderService) RecordOrder(ctx context.Context, params RecordOrderParams) (models.Order, bool, error) {
	var order models.Order
	var recorded bool

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		var err error
		order, recorded, err = st.Order().CreateOrder(ctx, models.Order{
			SessionID:  params.SessionID,
			UserID:     params.UserID,
			Pack:       params.Pack,
			Credits:    params.Credits,
			AmountPaid: params.AmountPaid,
			Status:     models.OrderStatusCompleted,
		})
		if err != nil {
			return err
		}

		// Duplicate delivery: the credits were granted with the first one
		if !recorded {
			return nil
		}

		_, err = st.Profile().ApplyCredit(ctx, params.UserID, params.Credits)
		if err != nil {
			return fmt.Errorf("can't credit purchased amount: %w", err)
		}

		return nil
	})
	if err != nil {
		return models.Order{}, false, err
	}

	return order, recorded, nil
}

// ListOrders returns the user purchase history, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.storage.Order().ListOrders(ctx, userID)
}
