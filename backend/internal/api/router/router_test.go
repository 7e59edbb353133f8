package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"plantao/backend/config"
	"plantao/backend/internal/api/handler"
	"plantao/backend/internal/service"
	"plantao/backend/pkg/jwt"
)

func newTestEngine(t *testing.T) (http.Handler, *jwt.Manager) {
	t.Helper()
	cfg := &config.Config{
		Auth: config.AuthConfig{JWTSecret: "router-test-secret-0123456789", Issuer: "plantao", TokenTTL: time.Hour},
	}
	mgr := jwt.NewManager(&cfg.Auth)
	h := handler.NewHandler(cfg, &service.Service{})
	return Setup(cfg, h, mgr, nil, zap.NewNop()), mgr
}

func TestSetup_Health(t *testing.T) {
	engine, _ := newTestEngine(t)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("request id header missing")
	}
}

func TestSetup_ProtectedRoutesNeedToken(t *testing.T) {
	engine, _ := newTestEngine(t)
	for _, path := range []string{"/api/v1/postings", "/api/v1/availability", "/api/v1/calendar/blocks", "/api/v1/applications/me"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s status = %d, want 401", path, w.Code)
		}
	}
}

func TestSetup_RoleGates(t *testing.T) {
	engine, mgr := newTestEngine(t)
	token, err := mgr.GenerateToken("clinic-owner", jwt.RoleClinic)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	// clinics cannot toggle availability
	req := httptest.NewRequest(http.MethodPost, "/api/v1/availability/activate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestSetup_PublicWebhookIsNotBehindJWT(t *testing.T) {
	engine, _ := newTestEngine(t)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/public/webhooks/whatsapp", nil))
	// rejected by the webhook secret check, not by JWTAuth
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if body := w.Body.String(); body == "" || !strings.Contains(body, "webhook") {
		t.Errorf("body = %s", body)
	}
}
