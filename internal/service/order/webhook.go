package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/thedigitalgifter/gifter/internal/apperrors"
	"github.com/thedigitalgifter/gifter/internal/logger"
	"github.com/thedigitalgifter/gifter/internal/models"
	"github.com/thedigitalgifter/gifter/internal/repository"
)

// WebhookService applies checkout-completed events from the payment
// provider. Deliveries may repeat; processing is idempotent at two
// levels: the provider event id and the checkout session id. The event
// record, the order row and the credit grant commit in one transaction,
// so a crash mid-way leaves the retry able to run from scratch.
type WebhookService struct {
	storage repository.Storage
	logger  logger.Logger
}

func NewWebhookService(storage repository.Storage, l logger.Logger) *WebhookService {
	return &WebhookService{
		storage: storage,
		logger:  l,
	}
}

// ProcessCheckoutCompleted records the purchase exactly once.
func (s *WebhookService) ProcessCheckoutCompleted(ctx context.Context, eventID string, sessionID string, userRef string, packID string, amountPaid decimal.Decimal) (models.Order, error) {
	var order models.Order

	userID, err := uuid.Parse(userRef)
	if err != nil || userID == uuid.Nil {
		return order, fmt.Errorf("user ref %q: %w", userRef, apperrors.ErrInvalidUserReference)
	}

	pack, ok := models.PackByID(packID)
	if !ok {
		return order, fmt.Errorf("pack %q: %w", packID, apperrors.ErrUnknownPack)
	}

	err = s.storage.InTx(ctx, func(st repository.Storage) error {
		// Event-level dedup: a delivery retried with the same event id is
		// answered from the order table without re-running the grant
		fresh, err := st.WebhookEvent().RecordEvent(ctx, eventID, time.Now())
		if err != nil {
			return err
		}
		if !fresh {
			s.logger.Info("Duplicate webhook event", "event_id", eventID, "session_id", sessionID)
			order, err = st.Order().GetOrderBySessionID(ctx, sessionID)
			return err
		}

		var recorded bool
		order, recorded, err = st.Order().CreateOrder(ctx, models.Order{
			SessionID:  sessionID,
			UserID:     userID,
			Pack:       pack.ID,
			Credits:    pack.Credits,
			AmountPaid: amountPaid,
			Status:     models.OrderStatusCompleted,
		})
		if err != nil {
			return err
		}

		// Different event id, same session: still a replay, no second grant
		if !recorded {
			s.logger.Info("Duplicate checkout session", "event_id", eventID, "session_id", sessionID)
			return nil
		}

		_, err = st.Profile().ApplyCredit(ctx, userID, pack.Credits)
		if err != nil {
			return fmt.Errorf("can't credit purchased amount: %w", err)
		}

		s.logger.Info("Checkout recorded",
			"event_id", eventID, "session_id", sessionID,
			"user_id", userID, "pack", pack.ID, "credits", pack.Credits,
		)
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	return order, nil
}
