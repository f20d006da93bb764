package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAdminTokenMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-secret-token"), bcrypt.MinCost)
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("ok"))
		require.NoError(t, err, "should write response")
	})

	get := func(t *testing.T, srv *httptest.Server, authHeader string) (int, string) {
		t.Helper()

		req, err := http.NewRequest("GET", srv.URL+"/test", nil)
		require.NoError(t, err)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err, "should make request to test server")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "should read response body")
		defer resp.Body.Close() // nolint:errcheck

		return resp.StatusCode, string(body)
	}

	t.Run("valid token passes", func(t *testing.T) {
		srv := httptest.NewServer(AdminTokenMiddleware(string(hash))(handler))
		defer srv.Close()

		status, body := get(t, srv, "Bearer admin-secret-token")
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "ok", body)
	})

	t.Run("wrong token rejected", func(t *testing.T) {
		srv := httptest.NewServer(AdminTokenMiddleware(string(hash))(handler))
		defer srv.Close()

		status, _ := get(t, srv, "Bearer guessed-token")
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		srv := httptest.NewServer(AdminTokenMiddleware(string(hash))(handler))
		defer srv.Close()

		status, _ := get(t, srv, "")
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("empty configured hash rejects everything", func(t *testing.T) {
		srv := httptest.NewServer(AdminTokenMiddleware("")(handler))
		defer srv.Close()

		status, _ := get(t, srv, "Bearer admin-secret-token")
		require.Equal(t, http.StatusUnauthorized, status)
	})
}
