package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestRateLimit_AllowsNormalTraffic(t *testing.T) {
	router := gin.New()
	// Set API key first (rate limiter reads it from context)
	router.Use(func(c *gin.Context) {
		c.Set("api_key", "test-key")
		c.Next()
	})
	router.Use(RateLimit(10, 5)) // 10 req/s, burst of 5
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	// First 5 requests should succeed (within burst)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestRateLimit_RejectsExcessiveTraffic(t *testing.T) {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("api_key", "test-key")
		c.Next()
	})
	router.Use(RateLimit(1, 2)) // 1 req/s, burst of 2
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	// Exhaust the burst
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}

	// Next request should be rate limited
	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
}

func TestRateLimit_PerKeyIsolation(t *testing.T) {
	router := gin.New()
	// Dynamic API key from header
	router.Use(func(c *gin.Context) {
		c.Set("api_key", c.GetHeader("X-API-Key"))
		c.Next()
	})
	router.Use(RateLimit(1, 1)) // Very tight: 1 req/s, burst of 1
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	// Key A uses its burst
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-API-Key", "key-a")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("key-a first request: expected 200, got %d", w.Code)
	}

	// Key A is now rate limited
	req = httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-API-Key", "key-a")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("key-a second request: expected 429, got %d", w.Code)
	}

	// Key B should still work (separate bucket)
	req = httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-API-Key", "key-b")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("key-b first request: expected 200, got %d", w.Code)
	}
}

func TestRateLimit_KeysByClientIPWithoutAPIKey(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(1, 1))
	router.POST("/api/identify", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	send := func(remote string) int {
		req := httptest.NewRequest("POST", "/api/identify", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("10.0.0.1:1234"); code != http.StatusOK {
		t.Errorf("first request from 10.0.0.1: expected 200, got %d", code)
	}
	if code := send("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Errorf("second request from 10.0.0.1: expected 429, got %d", code)
	}
	if code := send("10.0.0.2:1234"); code != http.StatusOK {
		t.Errorf("first request from 10.0.0.2: expected 200, got %d", code)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(0, 0))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestRateLimit_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	router := gin.New()
	if err := router.SetTrustedProxies(nil); err != nil {
		t.Fatal(err)
	}
	router.Use(APIKeyAuth(nil))
	router.Use(RateLimit(1, 1))
	router.POST("/api/identify", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	allowed := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest("POST", "/api/identify", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code == http.StatusOK {
			allowed++
		} else if w.Code != http.StatusTooManyRequests {
			t.Fatalf("request %d: unexpected status %d", i, w.Code)
		}
	}

	if allowed != 1 {
		t.Errorf("expected 1 request allowed with rotating X-Forwarded-For, got %d", allowed)
	}
}

func TestClientBuckets_EvictsIdleClients(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	buckets := newClientBuckets(rate.Limit(2), 5, clock)

	for i := 0; i < 100; i++ {
		buckets.allow(fmt.Sprintf("ip:10.0.0.%d", i))
	}
	if len(buckets.clients) != 100 {
		t.Fatalf("expected 100 buckets, got %d", len(buckets.clients))
	}

	now = now.Add(minIdleTTL)
	if !buckets.allow("ip:192.0.2.1") {
		t.Error("expected a new client to be allowed")
	}
	if len(buckets.clients) != 1 {
		t.Errorf("expected idle buckets evicted, got %d left", len(buckets.clients))
	}
}

func TestClientBuckets_KeepsActiveClients(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	buckets := newClientBuckets(rate.Limit(1), 1, clock)

	if !buckets.allow("ip:10.0.0.1") {
		t.Fatal("expected first request allowed")
	}
	now = now.Add(minIdleTTL - time.Second)
	buckets.allow("ip:10.0.0.1")
	now = now.Add(2 * time.Second)
	buckets.allow("ip:10.0.0.2")

	if _, ok := buckets.clients["ip:10.0.0.1"]; !ok {
		t.Error("expected recently active client to keep its bucket")
	}
}

func TestClientBuckets_SlowRefillExtendsIdleTTL(t *testing.T) {
	// 1000 tokens at 0.5/s take 2000s to refill, longer than the minimum TTL.
	buckets := newClientBuckets(rate.Limit(0.5), 1000, time.Now)
	if buckets.idleTTL != 2000*time.Second {
		t.Errorf("expected idle TTL of 2000s, got %v", buckets.idleTTL)
	}
}
