package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(":0", "manager", "secret", log, nil, nil, 20)
}

func do(t *testing.T, s *Server, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if authed {
		req.SetBasicAuth("manager", "secret")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestRequiresBasicAuth(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/payments/pending", "/accounts/", "/stats"} {
		rec := do(t, s, http.MethodGet, path, "", false)
		require.Equal(t, http.StatusUnauthorized, rec.Code, path)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
	}
}

func TestRejectsWrongCredentials(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.SetBasicAuth("manager", "wrong")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestConfirmRejectsInvalidID(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/payments/abc/confirm", "", true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreditRejectsBadPayload(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/accounts/notanid/credit", `{"amount":"100"}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/accounts/777/credit", `{"amount":"abc"}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/accounts/777/credit", `not json`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBroadcastRejectsEmptyMessage(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/broadcast", `{"message":"   "}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/broadcast", `broken`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
