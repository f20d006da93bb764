package handlers

import (
	"errors"
	"net/http"

	"github.com/thedigitalgifter/gifter/internal/apperrors"
	"github.com/thedigitalgifter/gifter/internal/handlers/render"
	"github.com/thedigitalgifter/gifter/internal/handlers/userctx"
	"github.com/thedigitalgifter/gifter/internal/logger"
)

func handleUserBalance(creditsService creditsService, l logger.Logger) http.Handler {
	type response struct {
		Balance int64 `json:"balance"`
		Debited int64 `json:"debited"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		profile, err := creditsService.GetBalance(r.Context(), userID)

		switch {
		case err == nil:
			render.JSON(w, response{Balance: profile.Balance, Debited: profile.Debited})
		case errors.Is(err, apperrors.ErrProfileNotFound):
			// Never credited yet: show an empty balance instead of an error
			render.JSON(w, response{Balance: 0, Debited: 0})
		default:
			l.Error("Failed to get balance", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
