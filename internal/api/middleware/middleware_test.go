package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.POST("/echo", ok)
	r.GET("/echo", ok)
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/slow", func(c *gin.Context) { <-c.Request.Context().Done() })
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	r.ServeHTTP(w, req)
	return w
}

func TestBodySizeLimit(t *testing.T) {
	r := newEngine(BodySizeLimit(8))
	if w := do(r, http.MethodPost, "/echo", "small"); w.Code != http.StatusOK {
		t.Errorf("small body status = %d", w.Code)
	}
	w := do(r, http.MethodPost, "/echo", strings.Repeat("x", 64))
	if w.Code != http.StatusRequestEntityTooLarge || !strings.Contains(w.Body.String(), "PAYLOAD_TOO_LARGE") {
		t.Errorf("large body status = %d body %s", w.Code, w.Body)
	}
}

func TestDeduplication(t *testing.T) {
	d := NewDeduplicator(time.Minute)
	defer d.Close()
	r := newEngine(d.Middleware())

	if w := do(r, http.MethodPost, "/echo", `{"a":1}`); w.Code != http.StatusOK {
		t.Fatalf("first status = %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/echo", `{"a":1}`); w.Code != http.StatusTooManyRequests {
		t.Errorf("duplicate status = %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/echo", `{"a":2}`); w.Code != http.StatusOK {
		t.Errorf("different body status = %d", w.Code)
	}
	for i := 0; i < 2; i++ {
		if w := do(r, http.MethodGet, "/echo", ""); w.Code != http.StatusOK {
			t.Errorf("GET must not be deduplicated, status = %d", w.Code)
		}
	}
}

func TestDeduplicatorCleanup(t *testing.T) {
	d := NewDeduplicator(time.Second)
	defer d.Close()
	now := time.Now()
	d.seen("a", now.Add(-time.Minute))
	d.seen("b", now)
	if removed := d.cleanup(now); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if !d.seen("b", now) {
		t.Error("recent fingerprint must survive cleanup")
	}
}

func TestDeduplicatorClose(t *testing.T) {
	d := NewDeduplicator(time.Second)
	d.Close()
	select {
	case <-d.done:
	default:
		t.Fatal("cleanup goroutine still running after Close")
	}
	d.Close()
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Second)
	clock := time.Now()
	rl.lastTime = clock
	rl.now = func() time.Time { return clock }

	if !rl.Allow() || !rl.Allow() {
		t.Fatal("first two requests must pass")
	}
	if rl.Allow() {
		t.Error("third request must be limited")
	}
	clock = clock.Add(500 * time.Millisecond)
	if !rl.Allow() {
		t.Error("a token should refill after half the window")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newEngine(RateLimit(1, time.Minute))
	do(r, http.MethodGet, "/echo", "")
	w := do(r, http.MethodGet, "/echo", "")
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "60" {
		t.Errorf("status = %d retry-after %q", w.Code, w.Header().Get("Retry-After"))
	}
}

func TestRecovery(t *testing.T) {
	r := newEngine(Recovery(), Logger())
	w := do(r, http.MethodGet, "/panic", "")
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "INTERNAL_ERROR") {
		t.Errorf("status = %d body %s", w.Code, w.Body)
	}
}

func TestTimeout(t *testing.T) {
	r := newEngine(Timeout(20 * time.Millisecond))
	w := do(r, http.MethodGet, "/slow", "")
	if w.Code != http.StatusGatewayTimeout || !strings.Contains(w.Body.String(), "GATEWAY_TIMEOUT") {
		t.Errorf("status = %d body %s", w.Code, w.Body)
	}
	if w := do(r, http.MethodGet, "/echo", ""); w.Code != http.StatusOK {
		t.Errorf("fast request status = %d", w.Code)
	}
}
