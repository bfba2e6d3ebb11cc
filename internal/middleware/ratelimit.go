package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// minIdleTTL is how long a client's bucket survives without requests.
// Buckets that take longer than this to refill live until they are full again.
const minIdleTTL = 3 * time.Minute

// RateLimit returns per-client rate limiting middleware using token buckets.
// Clients are keyed by the API key set by APIKeyAuth, or by IP when the endpoint is public.
// The IP comes from c.ClientIP(), so forwarded headers only count when the engine trusts the proxy.
//
// Each client gets a bucket that fills at `rps` tokens/sec up to `burst` tokens.
// Each request consumes one token; an empty bucket means 429.
// A non-positive rps disables limiting.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	buckets := newClientBuckets(rate.Limit(rps), burst, time.Now)

	return func(c *gin.Context) {
		client := "ip:" + c.ClientIP()
		if key, ok := c.Get("api_key"); ok {
			if apiKey, ok := key.(string); ok && apiKey != "" {
				client = "key:" + apiKey
			}
		}

		if !buckets.allow(client) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientBuckets holds one limiter per client and drops the ones left idle.
// An evicted bucket would have been full again, so eviction never loosens the limit.
type clientBuckets struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	now       func() time.Time
	lastSweep time.Time
	clients   map[string]*clientBucket
}

func newClientBuckets(limit rate.Limit, burst int, now func() time.Time) *clientBuckets {
	ttl := minIdleTTL
	if refill := time.Duration(float64(burst) / float64(limit) * float64(time.Second)); refill > ttl {
		ttl = refill
	}
	return &clientBuckets{
		limit:     limit,
		burst:     burst,
		idleTTL:   ttl,
		now:       now,
		lastSweep: now(),
		clients:   make(map[string]*clientBucket),
	}
}

func (b *clientBuckets) allow(client string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if now.Sub(b.lastSweep) >= b.idleTTL {
		b.sweep(now)
	}

	bucket, ok := b.clients[client]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(b.limit, b.burst)}
		b.clients[client] = bucket
	}
	bucket.lastSeen = now
	return bucket.limiter.AllowN(now, 1)
}

func (b *clientBuckets) sweep(now time.Time) {
	for client, bucket := range b.clients {
		if now.Sub(bucket.lastSeen) >= b.idleTTL {
			delete(b.clients, client)
		}
	}
	b.lastSweep = now
}
