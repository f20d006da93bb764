package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/thedigitalgifter/gifter/internal/testutil"
	"github.com/thedigitalgifter/gifter/tests/e2e"
)

const (
	CreditsURL = "/api/v1/admin/credits"
)

func Test_AdminCredits(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	e2e.ServeInTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
		doCredit := func(t *testing.T, token string, data string) (int, string) {
			t.Helper()

			req, err := http.NewRequest(http.MethodPost, srvURL+CreditsURL, bytes.NewReader([]byte(data)))
			require.NoError(t, err, "failed to create request")
			req.Header.Set("Content-Type", "application/json")
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err, "failed to send request")
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "failed to read response body")
			defer resp.Body.Close() // nolint:errcheck

			return resp.StatusCode, string(body)
		}

		t.Run("credit ok", func(t *testing.T) {
			testutil.InTx(tx, t, func(_ pgx.Tx) {
				userID := uuid.New()

				data := fmt.Sprintf(`{"user_id": %q, "amount": 50, "reason": "signup"}`, userID)
				status, body := doCredit(t, e2e.AdminToken, data)

				require.Equalf(t, http.StatusOK, status, "not expected code, body: %s", body)

				var resp struct {
					UserID  uuid.UUID `json:"user_id"`
					Balance int64     `json:"balance"`
				}
				require.NoError(t, json.Unmarshal([]byte(body), &resp))
				require.Equal(t, userID, resp.UserID)
				require.Equal(t, int64(50), resp.Balance)
			})
		})

		t.Run("credit accumulates", func(t *testing.T) {
			testutil.InTx(tx, t, func(_ pgx.Tx) {
				userID := uuid.New()

				data := fmt.Sprintf(`{"user_id": %q, "amount": 50, "reason": "admin"}`, userID)
				status, body := doCredit(t, e2e.AdminToken, data)
				require.Equalf(t, http.StatusOK, status, "not expected code, body: %s", body)

				status, body = doCredit(t, e2e.AdminToken, data)
				require.Equalf(t, http.StatusOK, status, "not expected code, body: %s", body)

				profile, err := s.CreditsService.GetBalance(t.Context(), userID)
				require.NoError(t, err)
				require.Equal(t, int64(100), profile.Balance)
			})
		})

		t.Run("zero amount rejected", func(t *testing.T) {
			testutil.InTx(tx, t, func(_ pgx.Tx) {
				data := fmt.Sprintf(`{"user_id": %q, "amount": 0, "reason": "admin"}`, uuid.New())
				status, _ := doCredit(t, e2e.AdminToken, data)
				require.Equal(t, http.StatusBadRequest, status)
			})
		})

		t.Run("unknown reason rejected", func(t *testing.T) {
			testutil.InTx(tx, t, func(_ pgx.Tx) {
				data := fmt.Sprintf(`{"user_id": %q, "amount": 10, "reason": "because"}`, uuid.New())
				status, _ := doCredit(t, e2e.AdminToken, data)
				require.Equal(t, http.StatusBadRequest, status)
			})
		})

		t.Run("wrong token rejected", func(t *testing.T) {
			testutil.InTx(tx, t, func(_ pgx.Tx) {
				data := fmt.Sprintf(`{"user_id": %q, "amount": 10, "reason": "admin"}`, uuid.New())
				status, _ := doCredit(t, "guessed-token", data)
				require.Equal(t, http.StatusUnauthorized, status)
			})
		})

		t.Run("missing token rejected", func(t *testing.T) {
			testutil.InTx(tx, t, func(_ pgx.Tx) {
				data := fmt.Sprintf(`{"user_id": %q, "amount": 10, "reason": "admin"}`, uuid.New())
				status, _ := doCredit(t, "", data)
				require.Equal(t, http.StatusUnauthorized, status)
			})
		})
	})
}
