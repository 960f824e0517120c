package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/surf-station/storefront/internal/config"
	handlershared "github.com/surf-station/storefront/internal/http/handlers/shared"
	"github.com/surf-station/storefront/internal/metrics"
	"github.com/surf-station/storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}
	if resp := strings.TrimSpace(generated); resp == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

func newSessionTestEngine(tokens *service.SessionTokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.Use(CartSessionMiddleware(tokens, CartSessionOptions{Header: "X-Cart-Session", Cookie: "cart_session"}, nil))
	r.GET("/cart", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sid": c.GetString(handlershared.SessionIDKey)})
	})
	return r
}

func TestCartSessionMiddlewareIssuesNewSession(t *testing.T) {
	tokens := service.NewSessionTokenService("test-secret", time.Hour)
	r := newSessionTestEngine(tokens)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))

	issued := w.Header().Get("X-Cart-Session")
	if issued == "" {
		t.Fatalf("new session token should be returned in header")
	}
	sid, err := tokens.Parse(issued)
	if err != nil {
		t.Fatalf("issued token should parse: %v", err)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["sid"] != sid {
		t.Fatalf("context session want %s got %s", sid, resp["sid"])
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), "cart_session=") {
		t.Fatalf("session cookie should be set, got %q", w.Header().Get("Set-Cookie"))
	}
}

func TestCartSessionMiddlewareReusesValidToken(t *testing.T) {
	tokens := service.NewSessionTokenService("test-secret", time.Hour)
	r := newSessionTestEngine(tokens)
	sid := service.NewSessionID()
	token, _, err := tokens.Issue(sid)
	if err != nil {
		t.Fatalf("issue token failed: %v", err)
	}

	for _, useCookie := range []bool{false, true} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		if useCookie {
			req.AddCookie(&http.Cookie{Name: "cart_session", Value: token})
		} else {
			req.Header.Set("X-Cart-Session", token)
		}
		r.ServeHTTP(w, req)

		if w.Header().Get("X-Cart-Session") != "" {
			t.Fatalf("valid token should not be reissued (cookie=%v)", useCookie)
		}
		var resp map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response failed: %v", err)
		}
		if resp["sid"] != sid {
			t.Fatalf("session want %s got %s (cookie=%v)", sid, resp["sid"], useCookie)
		}
	}
}

func TestCartSessionMiddlewareReplacesForeignToken(t *testing.T) {
	tokens := service.NewSessionTokenService("test-secret", time.Hour)
	foreign, _, err := service.NewSessionTokenService("other-secret", time.Hour).Issue(service.NewSessionID())
	if err != nil {
		t.Fatalf("issue token failed: %v", err)
	}
	r := newSessionTestEngine(tokens)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("X-Cart-Session", foreign)
	r.ServeHTTP(w, req)

	reissued := w.Header().Get("X-Cart-Session")
	if reissued == "" || reissued == foreign {
		t.Fatalf("foreign token should be replaced with a new session")
	}
}

func TestCORSMiddlewareExposesSessionHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware(config.CORSConfig{AllowedOrigins: []string{"https://shop.example.com"}}, "X-Cart-Session"))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status want 204 got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "X-Cart-Session") {
		t.Fatalf("session header should be allowed: %s", w.Header().Get("Access-Control-Allow-Headers"))
	}
	if !strings.Contains(w.Header().Get("Access-Control-Expose-Headers"), "X-Cart-Session") {
		t.Fatalf("session header should be exposed: %s", w.Header().Get("Access-Control-Expose-Headers"))
	}
}

func TestMetricsMiddlewareRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	r := gin.New()
	r.Use(MetricsMiddleware(metrics.New(reg)))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "route" && label.GetValue() == "/items/:id" {
					if got := m.GetCounter().GetValue(); got != 2 {
						t.Fatalf("route counter want 2 got %v", got)
					}
					return
				}
			}
		}
	}
	t.Fatalf("http_requests_total for /items/:id not found")
}
