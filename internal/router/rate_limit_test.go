package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestKeyByIPAndJSONField(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		body string
		want string
	}{
		{name: "token", body: `{"order_id":7,"execution_token":" Tok-ABC "}`, want: "tok-abc|1.2.3.4"},
		{name: "missing token", body: `{"order_id":7}`, want: "1.2.3.4"},
		{name: "non string token", body: `{"execution_token":42}`, want: "1.2.3.4"},
		{name: "malformed", body: `{"execution_token":`, want: "1.2.3.4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodPost, "/fulfillment/commit", strings.NewReader(tc.body))
			c.Request.RemoteAddr = "1.2.3.4:5678"

			if key := KeyByIPAndJSONField("execution_token")(c); key != tc.want {
				t.Fatalf("key want %s got %s", tc.want, key)
			}
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				t.Fatalf("read body after key extraction failed: %v", err)
			}
			if string(body) != tc.body {
				t.Fatalf("request body should be restored, got %s", string(body))
			}
		})
	}
}

func TestKeyByOrderParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/orders/12/confirm", nil)
	c.Request.RemoteAddr = "1.2.3.4:5678"
	c.Params = gin.Params{{Key: "id", Value: "12"}}
	if key := KeyByOrderParam(c); key != "order:12|1.2.3.4" {
		t.Fatalf("key want order:12|1.2.3.4 got %s", key)
	}

	c.Params = nil
	if key := KeyByOrderParam(c); key != "1.2.3.4" {
		t.Fatalf("key without id want ip got %s", key)
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
			t.Fatalf("request %d should pass through, got %d %s", i, w.Code, w.Body.String())
		}
	}
}

func TestFixedWindowDecision(t *testing.T) {
	rule := RateLimitRule{WindowSeconds: 60, MaxRequests: 3}

	cases := []struct {
		name      string
		count     int64
		ttl       int64
		allowed   bool
		remaining int
		retry     int
	}{
		{name: "first request", count: 1, ttl: 60, allowed: true, remaining: 2},
		{name: "last allowed", count: 3, ttl: 10, allowed: true, remaining: 0},
		{name: "over limit", count: 4, ttl: 25, retry: 25},
		{name: "over limit without ttl", count: 9, ttl: -1, retry: 60},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := decide(rule, tc.count, tc.ttl)
			if got.allowed != tc.allowed || got.remaining != tc.remaining || got.retryAfter != tc.retry {
				t.Fatalf("decision want {%v %d %d} got %+v", tc.allowed, tc.remaining, tc.retry, got)
			}
		})
	}
}

func TestRateLimitRuleScopedKey(t *testing.T) {
	if key := (RateLimitRule{}).scopedKey("1.2.3.4"); key != "ratelimit:1.2.3.4" {
		t.Fatalf("unexpected key %s", key)
	}
	if key := (RateLimitRule{Prefix: "padaria:rate:commit"}).scopedKey("tok|1.2.3.4"); key != "padaria:rate:commit:tok|1.2.3.4" {
		t.Fatalf("unexpected key %s", key)
	}
	if (RateLimitRule{WindowSeconds: 60}).enabled() {
		t.Fatalf("rule without max requests should be disabled")
	}
}
