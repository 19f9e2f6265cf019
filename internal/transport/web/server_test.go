package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/internal/service/account"
	"github.com/sandevgo/lifecoach/internal/service/gateway"
	"github.com/sandevgo/lifecoach/internal/service/quota"
	"github.com/sandevgo/lifecoach/internal/storage/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "s3cret"
	testEmail  = "ada@example.com"
)

type fakeChatter struct {
	got  gateway.Request
	resp gateway.Response
	err  error
}

func (f *fakeChatter) Chat(_ context.Context, req gateway.Request) (gateway.Response, error) {
	f.got = req
	return f.resp, f.err
}

func newTestServer(t *testing.T, opts Options) (*Server, *fakeChatter) {
	t.Helper()
	accounts := kv.NewAccounts(kv.NewMemoryStore())
	require.NoError(t, accounts.Insert(context.Background(), core.Account{
		Email:    testEmail,
		Sessions: []core.Session{{ID: 1700000000000, Title: "First", Messages: []core.Message{{Role: core.RoleAssistant, Content: "hi"}}}},
	}))
	chat := &fakeChatter{resp: gateway.Response{Content: "hello", Model: "m1"}}
	return NewServer(opts, chat, account.NewService(accounts, nil)), chat
}

func signToken(t *testing.T, secret string, claims tokenClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestChat_Anonymous(t *testing.T) {
	s, chat := newTestServer(t, Options{JWTSecret: testSecret})

	rec := do(t, s.Handler(), http.MethodPost, "/api/chat",
		`{"message":"hi","identityHints":{"email":"spoof@example.com","fingerprintID":"fp-1"},"sessionId":"42","model":"m1"}`,
		map[string]string{"User-Agent": "test-agent", "CF-Connecting-IP": "203.0.113.9"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", decode(t, rec)["response"])

	assert.Empty(t, chat.got.Signals.AccountID, "hints are ignored when tokens are verified")
	assert.Equal(t, "203.0.113.9", chat.got.Signals.Origin)
	assert.Equal(t, "test-agent", chat.got.Signals.ClientSignature)
	assert.Equal(t, "fp-1", chat.got.Signals.Fingerprint)
	assert.Equal(t, int64(42), chat.got.SessionID)
	assert.Equal(t, "m1", chat.got.Model)
}

func TestChat_BearerToken(t *testing.T) {
	s, chat := newTestServer(t, Options{JWTSecret: testSecret})
	chat.resp.SessionID = 99

	tok := signToken(t, testSecret, tokenClaims{Email: testEmail, Tier: "plus"})
	rec := do(t, s.Handler(), http.MethodPost, "/api/chat", `{"message":"hi"}`,
		map[string]string{"Authorization": "Bearer " + tok})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(99), decode(t, rec)["sessionId"])
	assert.Equal(t, testEmail, chat.got.Signals.AccountID)
	assert.Equal(t, "plus", chat.got.Tier)
}

func TestChat_RejectsBadTokens(t *testing.T) {
	s, _ := newTestServer(t, Options{JWTSecret: testSecret})

	expired := signToken(t, testSecret, tokenClaims{
		Email:            testEmail,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
	})
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, tokenClaims{Email: testEmail}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"wrong secret": "Bearer " + signToken(t, "other", tokenClaims{Email: testEmail}),
		"expired":      "Bearer " + expired,
		"alg none":     "Bearer " + none,
		"no email":     "Bearer " + signToken(t, testSecret, tokenClaims{}),
		"not bearer":   "Basic abc",
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(t, s.Handler(), http.MethodPost, "/api/chat", `{"message":"hi"}`,
				map[string]string{"Authorization": header})
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestChat_TrustedHints(t *testing.T) {
	s, chat := newTestServer(t, Options{})

	rec := do(t, s.Handler(), http.MethodPost, "/api/chat",
		`{"message":"hi","identityHints":{"email":"ada@example.com"}}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, chat.got.Signals.AccountID, "declared emails must not pick the quota identity")
	assert.Equal(t, testEmail, chat.got.AccountEmail)
	assert.Empty(t, chat.got.Tier)
}

type echoDispatcher struct{}

func (echoDispatcher) Complete(_ context.Context, _ core.Conversation, c core.Candidates, _ time.Duration) (core.Completion, error) {
	return core.Completion{Content: "ok", Model: c.Text[0]}, nil
}

type noMemory struct{}

func (noMemory) BuildContext(context.Context, string, int64, int) string { return "" }

type plainPrompt struct{}

func (plainPrompt) Build(string, *core.Account) string { return "coach" }

func TestChat_TrustedHintsShareAnonymousQuota(t *testing.T) {
	store := kv.NewMemoryStore()
	accounts := kv.NewAccounts(store)
	catalog := quota.NewDefaultCatalog()
	gw := gateway.New(catalog, quota.NewLedger(kv.NewLimits(store)), accounts,
		noMemory{}, echoDispatcher{}, plainPrompt{},
		gateway.Options{Candidates: core.Candidates{Text: []string{"m1"}}, AttemptTimeout: time.Second})
	h := NewServer(Options{}, gw, account.NewService(accounts, nil)).Handler()

	headers := map[string]string{"User-Agent": "spam-agent", "CF-Connecting-IP": "198.51.100.7"}
	limit := int(catalog.Lookup("").MessageLimit)

	admitted := 0
	for i := 0; i < limit+5; i++ {
		body := fmt.Sprintf(`{"message":"hi","identityHints":{"email":"x%d@spam.test","fingerprintID":"fp"}}`, i)
		rec := do(t, h, http.MethodPost, "/api/chat", body, headers)
		if rec.Code == http.StatusOK {
			admitted++
			continue
		}
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
	}
	assert.Equal(t, limit, admitted)

	records, err := kv.NewLimits(store).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	for id := range records {
		assert.NotContains(t, id, "account:")
	}
}

func TestChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		check      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name:       "quota exceeded",
			err:        &core.AdmissionError{Reason: "limit", RetryAfter: 61 * time.Minute},
			wantStatus: http.StatusTooManyRequests,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, float64(62), decode(t, rec)["retryAfter"])
				assert.Equal(t, "3720", rec.Header().Get("Retry-After"))
			},
		},
		{
			name:       "blocked",
			err:        &core.AdmissionError{Reason: "blocked", Indefinite: true},
			wantStatus: http.StatusTooManyRequests,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "unlimited", decode(t, rec)["retryAfter"])
			},
		},
		{
			name:       "invalid",
			err:        core.ErrInvalidRequest,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "providers exhausted",
			err:        &core.DispatchError{Attempts: []core.AttemptFailure{{Model: "m1", Err: core.ErrAttemptTimeout}}},
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.NotContains(t, rec.Body.String(), "m1")
			},
		},
		{
			name:       "storage fault",
			err:        core.ErrStorageFault,
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, internalErrorMessage, decode(t, rec)["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, chat := newTestServer(t, Options{})
			chat.err = tt.err

			rec := do(t, s.Handler(), http.MethodPost, "/api/chat", `{"message":"hi"}`, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.check != nil {
				tt.check(t, rec)
			}
		})
	}
}

func TestChat_MalformedBody(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	rec := do(t, s.Handler(), http.MethodPost, "/api/chat", `{"message":`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClientOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.2")

	assert.Equal(t, "10.0.0.1", clientOrigin(req, false))
	assert.Equal(t, "198.51.100.7", clientOrigin(req, true))

	req.Header.Set("CF-Connecting-IP", "203.0.113.1")
	assert.Equal(t, "203.0.113.1", clientOrigin(req, true))
}

func TestAccountRoutes_RequireSignIn(t *testing.T) {
	s, _ := newTestServer(t, Options{JWTSecret: testSecret})
	rec := do(t, s.Handler(), http.MethodPost, "/api/history", `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccountRoutes(t *testing.T) {
	s, _ := newTestServer(t, Options{JWTSecret: testSecret})
	h := s.Handler()
	auth := map[string]string{"Authorization": "Bearer " + signToken(t, testSecret, tokenClaims{Email: testEmail})}

	rec := do(t, h, http.MethodPost, "/api/history", `{}`, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1700000000000,"title":"First"}]`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/get-session", `{"sessionId":"1700000000000"}`, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "First", decode(t, rec)["title"])

	rec = do(t, h, http.MethodPost, "/api/feedback",
		`{"sessionId":1700000000000,"messageContent":"hi","feedback":"like"}`, auth)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/goals", `{"action":"add","title":"Walk"}`, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	goals := decode(t, rec)["goals"].([]any)
	require.Len(t, goals, 1)
	id := int64(goals[0].(map[string]any)["id"].(float64))

	rec = do(t, h, http.MethodPost, "/api/goals", `{"action":"complete","id":`+jsonInt(id)+`}`, auth)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/check-in", ``, auth)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/check-in", ``, auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/badge-status", ``, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["streak"])

	rec = do(t, h, http.MethodPost, "/api/goals", `{"action":"fly"}`, auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/delete-session", `{"sessionId":1700000000000}`, auth)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/get-session", `{"sessionId":1700000000000}`, auth)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAccountRoutes_TrustedHintsFromBody(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	rec := do(t, s.Handler(), http.MethodPost, "/api/get-session",
		`{"email":"ada@example.com","sessionId":1700000000000}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "First", decode(t, rec)["title"])
}

func TestUserCountAndHealth(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/user-count", ``, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["count"])

	rec = do(t, h, http.MethodGet, "/healthz", ``, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware(t *testing.T) {
	s, _ := newTestServer(t, Options{CORSOrigins: []string{"https://coach.example"}})
	h := s.Handler()

	rec := do(t, h, http.MethodOptions, "/api/chat", ``, map[string]string{"Origin": "https://coach.example"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://coach.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, h, http.MethodGet, "/healthz", ``, map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	assert.NoError(t, err)

	incoming := uuid.NewString()
	rec = do(t, h, http.MethodGet, "/healthz", ``, map[string]string{requestIDHeader: incoming})
	assert.Equal(t, incoming, rec.Header().Get(requestIDHeader))
}

func TestRecoverer(t *testing.T) {
	h := recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFlexID(t *testing.T) {
	for in, want := range map[string]int64{`123`: 123, `"456"`: 456, `null`: 0, `""`: 0} {
		var id flexID
		require.NoError(t, json.Unmarshal([]byte(in), &id), in)
		assert.Equal(t, want, int64(id), in)
	}
	var id flexID
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &id))
	assert.Error(t, json.Unmarshal([]byte(`true`), &id))
}

func jsonInt(n int64) string {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(n)
	return strings.TrimSpace(buf.String())
}

func TestLoopbackOnly(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{addr: "127.0.0.1:3000", want: true},
		{addr: "localhost:3000", want: true},
		{addr: "[::1]:3000", want: true},
		{addr: ":3000", want: false},
		{addr: "0.0.0.0:3000", want: false},
		{addr: "192.168.1.10:3000", want: false},
		{addr: "coach.example:3000", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, loopbackOnly(tt.addr))
		})
	}
}
