package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/thedigitalgifter/gifter/internal/apperrors"
	"github.com/thedigitalgifter/gifter/internal/handlers/render"
	"github.com/thedigitalgifter/gifter/internal/logger"
)

const signatureHeader = "Gifter-Signature"

// Payload the payment provider delivers on checkout completion.
// Bound and validated explicitly: a malformed or foreign user reference
// is a client error, not a silently swallowed cast failure.
type checkoutEvent struct {
	ID   string `json:"id" validate:"required"`
	Type string `json:"type" validate:"required,eq=checkout.session.completed"`
	Data struct {
		SessionID         string          `json:"session_id" validate:"required"`
		ClientReferenceID string          `json:"client_reference_id" validate:"required,uuid4"`
		Pack              string          `json:"pack" validate:"required,pack"`
		AmountTotal       decimal.Decimal `json:"amount_total"`
	} `json:"data"`
}

func handleCheckoutWebhook(secret string, webhookService webhookService, l logger.Logger) http.Handler {
	type response struct {
		OrderID string `json:"order_id"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
		body, err := io.ReadAll(r.Body)
		if err != nil {
			render.ServiceError(w, "Failed to read request body", http.StatusBadRequest)
			return
		}

		if !verifySignature(secret, r.Header.Get(signatureHeader), body) {
			l.Warn("Webhook signature rejected")
			render.ServiceError(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		var event checkoutEvent
		if err := json.Unmarshal(body, &event); err != nil {
			render.DecodeError(w, err)
			return
		}
		if err := render.Validate(event); err != nil {
			l.Warn("Webhook payload rejected", "error", err)
			render.ServiceError(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		order, err := webhookService.ProcessCheckoutCompleted(
			r.Context(),
			event.ID,
			event.Data.SessionID,
			event.Data.ClientReferenceID,
			event.Data.Pack,
			event.Data.AmountTotal,
		)

		switch {
		case err == nil:
			// Replays land here too with the original order id
			render.JSON(w, response{OrderID: order.ID.String()})
		case errors.Is(err, apperrors.ErrInvalidUserReference):
			render.ServiceError(w, "Unknown user reference", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrUnknownPack):
			render.ServiceError(w, "Unknown credit pack", http.StatusBadRequest)
		default:
			l.Error("Failed to process checkout webhook", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

// Signature header format: "t=<unix>,v1=<hex>", hmac-sha256 over "<t>.<body>"
func verifySignature(secret string, header string, body []byte) bool {
	var timestamp, signature string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signature = value
		}
	}
	if timestamp == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
