package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"CoreBridge/internal/domain/models"
	"CoreBridge/internal/eventbus"
	"CoreBridge/internal/security"
	"CoreBridge/pkg/logger"
)

const testSecret = "ingress-test-secret"

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return lgr
}

type fixture struct {
	e       *echo.Echo
	bus     *eventbus.EventBus
	limiter *security.RateLimiter
	auth    *security.AuthManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	lgr := testLogger(t)
	bus := eventbus.New(lgr, eventbus.NoopTransport{})
	limiter := security.NewRateLimiter()
	auth := security.NewAuthManager("auth-secret", lgr)

	h := NewIngressHandler(lgr, bus, nil, limiter, auth, testSecret, "signals", nil)
	e := echo.New()
	h.RegisterRoutes(e)
	return &fixture{e: e, bus: bus, limiter: limiter, auth: auth}
}

func signedRequest(body string, headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/signals", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Signature", security.Sign([]byte(testSecret), []byte(body)))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func validBody() string {
	return `{"signal_id": "sig-1", "symbol": "BTCUSDT", "action": "BUY", "timestamp": "2026-03-01T10:00:00Z"}`
}

func TestSubmitSignalAccepted(t *testing.T) {
	f := newFixture(t)

	var received []models.UnifiedTradingSignal
	f.bus.Subscribe("signals", func(sig models.UnifiedTradingSignal) { received = append(received, sig) })

	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, signedRequest(validBody(), nil))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(received) != 1 || received[0].SignalID != "sig-1" {
		t.Fatalf("signal not republished onto the bus: %+v", received)
	}
	if received[0].Action != models.ActionBuy {
		t.Fatalf("action not preserved: %s", received[0].Action)
	}
}

func TestSubmitSignalCustomTopic(t *testing.T) {
	f := newFixture(t)

	var topicHits int
	f.bus.Subscribe("executed_trades", func(models.UnifiedTradingSignal) { topicHits++ })

	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, signedRequest(validBody(), map[string]string{"X-Topic": "executed_trades"}))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if topicHits != 1 {
		t.Fatalf("signal must land on the caller-specified topic")
	}
}

func TestSubmitSignalMissingSignature(t *testing.T) {
	f := newFixture(t)

	var received int
	f.bus.Subscribe("signals", func(models.UnifiedTradingSignal) { received++ })

	req := httptest.NewRequest(http.MethodPost, "/api/signals", strings.NewReader(validBody()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	var resp struct {
		Status int `json:"status"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %s", rec.Body.String())
	}
	if received != 0 {
		t.Fatalf("unsigned payload must never reach the bus")
	}
}

func TestSubmitSignalTamperedBody(t *testing.T) {
	f := newFixture(t)

	var received int
	f.bus.Subscribe("signals", func(models.UnifiedTradingSignal) { received++ })

	req := signedRequest(validBody(), nil)
	req.Body = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(
		`{"signal_id": "evil", "symbol": "BTCUSDT"}`)).Body
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	var resp struct {
		Status int `json:"status"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != http.StatusUnauthorized {
		t.Fatalf("tampered body must be rejected, got %s", rec.Body.String())
	}
	if received != 0 {
		t.Fatalf("tampered payload must never reach the bus")
	}
}

func TestSubmitSignalRejectedWithoutConfiguredSecret(t *testing.T) {
	lgr := testLogger(t)
	bus := eventbus.New(lgr, eventbus.NoopTransport{})
	h := NewIngressHandler(lgr, bus, nil, security.NewRateLimiter(),
		security.NewAuthManager("auth-secret", lgr), "", "signals", nil)
	e := echo.New()
	h.RegisterRoutes(e)

	var received int
	bus.Subscribe("signals", func(models.UnifiedTradingSignal) { received++ })

	// signing with the empty key must not open the endpoint
	body := validBody()
	req := httptest.NewRequest(http.MethodPost, "/api/signals", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Signature", security.Sign([]byte(""), []byte(body)))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp struct {
		Status int `json:"status"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != http.StatusUnauthorized {
		t.Fatalf("empty-secret handler must reject submissions, got %s", rec.Body.String())
	}
	if received != 0 {
		t.Fatalf("payload must never reach the bus without a configured secret")
	}
}

func TestSubmitSignalUnparseableBody(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, signedRequest(`{"action": "BUY"}`, nil)) // no signal_id/symbol

	var resp struct {
		Status int `json:"status"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %s", rec.Body.String())
	}
}

func TestSubmitSignalRateLimited(t *testing.T) {
	f := newFixture(t)
	f.limiter.Configure("crypto", 1, 0)

	headers := map[string]string{"X-Ecosystem": "crypto"}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, signedRequest(validBody(), headers))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first request must pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.e.ServeHTTP(rec, signedRequest(validBody(), headers))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after bucket exhausted, got %d", rec.Code)
	}
}

func TestHealthReportsBackend(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Status  string `json:"status"`
		Backend string `json:"backend"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse health response: %v", err)
	}
	if resp.Status != "ok" || resp.Backend != "memory" {
		t.Fatalf("unexpected health payload: %+v", resp)
	}
}

func TestAdminRequiresAPIKey(t *testing.T) {
	f := newFixture(t)
	f.auth.AddKey("ops", "topsecret", []string{"admin"})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/status", nil)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	var resp struct {
		Status int `json:"status"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != http.StatusUnauthorized {
		t.Fatalf("missing key must be rejected, got %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/status", nil)
	req.Header.Set("X-API-Key", "topsecret")
	rec = httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid key must pass, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRotateKeyInvalidatesOldValue(t *testing.T) {
	f := newFixture(t)
	f.auth.AddKey("ops", "topsecret", []string{"admin"})

	body := `{"key_id": "ops"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/keys/rotate", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-API-Key", "topsecret")
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("rotate failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data struct {
			APIKey string `json:"api_key"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse rotate response: %v", err)
	}
	if resp.Data.APIKey == "" || resp.Data.APIKey == "topsecret" {
		t.Fatalf("expected fresh plaintext key")
	}

	if f.auth.Verify("topsecret", "admin") {
		t.Fatalf("old key must stop verifying after rotation")
	}
	if !f.auth.Verify(resp.Data.APIKey, "admin") {
		t.Fatalf("new key must verify with the same scopes")
	}

	// rotating an unknown id is a 404
	req = httptest.NewRequest(http.MethodPost, "/api/admin/keys/rotate", strings.NewReader(`{"key_id": "ghost"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-API-Key", resp.Data.APIKey)
	rec = httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	var nf struct {
		Status int `json:"status"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &nf)
	if nf.Status != http.StatusNotFound {
		t.Fatalf("expected not found for unknown key id, got %s", rec.Body.String())
	}
}
