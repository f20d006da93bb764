package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/thedigitalgifter/gifter/internal/handlers/render"
	"github.com/thedigitalgifter/gifter/internal/logger"
)

// Manual top-up, e.g. support refunds or signup bonuses
func handleAdminCredit(creditsService creditsService, l logger.Logger) http.Handler {
	type request struct {
		UserID uuid.UUID `json:"user_id" validate:"required"`
		Amount int64     `json:"amount" validate:"required,min=1"`
		Reason string    `json:"reason" validate:"required,oneof=purchase signup admin"`
	}

	type response struct {
		UserID  uuid.UUID `json:"user_id"`
		Balance int64     `json:"balance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		profile, err := creditsService.CreditBalance(r.Context(), req.UserID, req.Amount, req.Reason)

		switch err {
		case nil:
			render.JSON(w, response{UserID: profile.UserID, Balance: profile.Balance})
		default:
			l.Error("Failed to credit balance", "error", err, "user_id", req.UserID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
