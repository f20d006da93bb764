package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/thedigitalgifter/gifter/internal/handlers/render"
	"github.com/thedigitalgifter/gifter/internal/handlers/userctx"
	"github.com/thedigitalgifter/gifter/internal/logger"
	"github.com/thedigitalgifter/gifter/internal/models"
)

func handleListOrders(orderService orderService, l logger.Logger) http.Handler {
	type orderResponse struct {
		ID         uuid.UUID       `json:"id"`
		Pack       string          `json:"pack"`
		Credits    int64           `json:"credits"`
		AmountPaid decimal.Decimal `json:"amount_paid"`
		Status     string          `json:"status"`
		CreatedAt  time.Time       `json:"created_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		orders, err := orderService.ListOrders(r.Context(), userID)

		switch err {
		case nil:
			responses := make([]orderResponse, 0, len(orders))
			for _, o := range orders {
				responses = append(responses, orderResponse{
					ID:         o.ID,
					Pack:       o.Pack,
					Credits:    o.Credits,
					AmountPaid: o.AmountPaid,
					Status:     o.Status,
					CreatedAt:  o.CreatedAt,
				})
			}
			render.JSON(w, responses)
		default:
			l.Error("Failed to list orders", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListPacks() http.Handler {
	type packResponse struct {
		ID      string          `json:"id"`
		Title   string          `json:"title"`
		Credits int64           `json:"credits"`
		Price   decimal.Decimal `json:"price"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		packs := make([]packResponse, 0, len(models.Packs))
		for _, p := range models.Packs {
			packs = append(packs, packResponse{ID: p.ID, Title: p.Title, Credits: p.Credits, Price: p.Price})
		}
		render.JSON(w, packs)
	})
}
