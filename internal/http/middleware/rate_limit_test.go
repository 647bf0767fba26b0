package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestSessionRateLimitPerSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewSessionRateLimiter(2)
	r := gin.New()
	r.Use(rl.Middleware())
	r.POST("/api/chat", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(session string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		if session != "" {
			req.Header.Set("X-Session-Id", session)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("a"); code != http.StatusOK {
			t.Fatalf("request %d: want 200 got=%d", i, code)
		}
	}
	if code := send("a"); code != http.StatusTooManyRequests {
		t.Fatalf("third request: want 429 got=%d", code)
	}
	if code := send("b"); code != http.StatusOK {
		t.Fatalf("other session: want 200 got=%d", code)
	}
	if code := send(""); code != http.StatusOK {
		t.Fatalf("ip fallback: want 200 got=%d", code)
	}
}

func TestSessionRateLimitCleanup(t *testing.T) {
	rl := NewSessionRateLimiter(1)
	rl.Allow("a")
	rl.cleanup(time.Now().Add(2 * limiterIdleTTL))
	if len(rl.limiters) != 0 {
		t.Fatalf("idle limiter kept")
	}
}
