package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"CoreBridge/internal/domain/models"
	"CoreBridge/internal/domain/repository"
	"CoreBridge/internal/eventbus"
	"CoreBridge/internal/health"
	"CoreBridge/internal/security"
	xhttp "CoreBridge/pkg/http"
	xlogger "CoreBridge/pkg/logger"
)

// IngressHandler is the inbound trust boundary: agents submit signals over
// HTTP with an HMAC signature over the exact raw body. Verified payloads are
// republished onto the event bus without waiting for downstream delivery.
type IngressHandler struct {
	logger       *xlogger.Logger
	bus          *eventbus.EventBus
	checker      *health.Checker
	limiter      *security.RateLimiter
	auth         *security.AuthManager
	secret       []byte
	defaultTopic string
	metrics      repository.Metrics
}

func NewIngressHandler(
	lgr *xlogger.Logger,
	bus *eventbus.EventBus,
	checker *health.Checker,
	limiter *security.RateLimiter,
	auth *security.AuthManager,
	secret string,
	defaultTopic string,
	m repository.Metrics,
) *IngressHandler {
	if defaultTopic == "" {
		defaultTopic = "signals"
	}
	if m == nil {
		m = repository.NopMetrics{}
	}
	if secret == "" {
		lgr.Warn("ingress secret not configured, signal submissions will be rejected")
	}
	return &IngressHandler{
		logger:       lgr,
		bus:          bus,
		checker:      checker,
		limiter:      limiter,
		auth:         auth,
		secret:       []byte(secret),
		defaultTopic: defaultTopic,
		metrics:      m,
	}
}

func (h *IngressHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.POST("/signals", h.SubmitSignal)

	admin := g.Group("/admin", h.requireAPIKey)
	admin.GET("/status", h.AdminStatus)
	admin.POST("/keys/rotate", h.RotateKey)
}

// SubmitSignal accepts one signed canonical signal. 401 without a valid
// signature, 400 when the body does not parse, 202 once queued.
func (h *IngressHandler) SubmitSignal(c echo.Context) error {
	callerKey := c.Request().Header.Get("X-Ecosystem")
	if callerKey == "" {
		callerKey = c.RealIP()
	}
	if !h.limiter.Allow(callerKey, 1) {
		h.metrics.RecordRateLimited(callerKey)
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return xhttp.BadRequestResponse(c, "unreadable body")
	}

	// An empty key would verify anything signed with the empty key, so an
	// unconfigured secret closes the endpoint instead of opening it.
	if len(h.secret) == 0 {
		h.metrics.RecordError("ingress_secret_missing")
		return xhttp.UnauthorizedResponse(c, "ingress secret not configured")
	}

	signature := c.Request().Header.Get("X-Signature")
	if signature == "" || !security.VerifySignature(h.secret, body, signature) {
		h.metrics.RecordError("bad_signature")
		return xhttp.UnauthorizedResponse(c, "invalid signature")
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return xhttp.BadRequestResponse(c, "body is not a JSON object")
	}
	sig, err := models.SignalFromMap(payload)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	topic := c.Request().Header.Get("X-Topic")
	if topic == "" {
		topic = h.defaultTopic
	}
	if err := h.bus.Publish(c.Request().Context(), sig, topic); err != nil {
		h.logger.Error("ingress publish failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	return c.JSON(http.StatusAccepted, echo.Map{
		"status":    "accepted",
		"signal_id": sig.SignalID,
		"topic":     topic,
	})
}

// Health reports overall liveness and the effective bus backend.
func (h *IngressHandler) Health(c echo.Context) error {
	status := "ok"
	if h.checker != nil && !h.checker.Healthy() {
		status = "degraded"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  status,
		"backend": h.bus.Backend(),
	})
}

func (h *IngressHandler) requireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Header.Get("X-API-Key")
		if key == "" || !h.auth.Verify(key, "admin") {
			return xhttp.UnauthorizedResponse(c, "invalid api key")
		}
		return next(c)
	}
}

// AdminStatus exposes per-component health for operators.
func (h *IngressHandler) AdminStatus(c echo.Context) error {
	components := map[string]models.ComponentStatus{}
	if h.checker != nil {
		components = h.checker.Status()
	}
	return xhttp.SuccessResponse(c, echo.Map{
		"backend":    h.bus.Backend(),
		"components": components,
	})
}

// RotateKeyRequest asks for a fresh value for an existing key id.
type RotateKeyRequest struct {
	KeyID string `json:"key_id" validate:"required,min=1"`
}

// RotateKey replaces the stored digest for a key id and returns the new
// plaintext exactly once.
func (h *IngressHandler) RotateKey(c echo.Context) error {
	req := &RotateKeyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	newValue, err := h.auth.RotateKey(req.KeyID)
	if err != nil {
		return xhttp.NotFoundResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, echo.Map{
		"key_id":  req.KeyID,
		"api_key": newValue,
	})
}
