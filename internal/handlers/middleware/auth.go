package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/thedigitalgifter/gifter/internal/handlers/render"
	"github.com/thedigitalgifter/gifter/internal/handlers/userctx"
)

type tokenVerifier interface {
	UserFromRequest(ctx context.Context, r *http.Request) (uuid.UUID, error)
}

func AuthMiddleware(v tokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := v.UserFromRequest(r.Context(), r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := userctx.New(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
