package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/articlehub/articlehub/pkg/logger"
	"github.com/articlehub/articlehub/pkg/metrics"
)

// CachingVerifier keeps verified identities in Redis under "<prefix><sha256(token)>".
// An entry lives for at most maxTTL and never past the token's own expiry.
// Failures are not cached. A Redis outage falls through to the wrapped verifier.
//
// Concurrent misses for one token share a single upstream verification. That
// call is detached from every caller's cancellation and bounded by timeout;
// each caller still returns as soon as its own context is done.
type CachingVerifier struct {
	next    Verifier
	client  *redis.Client
	maxTTL  time.Duration
	timeout time.Duration
	prefix  string
	now     func() time.Time
	group   singleflight.Group
}

const defaultVerifyTimeout = 10 * time.Second

func NewCachingVerifier(next Verifier, client *redis.Client, maxTTL time.Duration) *CachingVerifier {
	return &CachingVerifier{
		next:    next,
		client:  client,
		maxTTL:  maxTTL,
		timeout: defaultVerifyTimeout,
		prefix:  "identity:",
		now:     time.Now,
	}
}

func (c *CachingVerifier) key(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *CachingVerifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	key := c.key(raw)
	if id, ok := c.lookup(ctx, key); ok {
		metrics.VerifierCache.WithLabelValues("hit").Inc()
		return id, nil
	}
	metrics.VerifierCache.WithLabelValues("miss").Inc()

	ch := c.group.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		id, err := c.next.Verify(fctx, raw)
		if err != nil {
			return nil, err
		}
		c.store(fctx, key, id)
		return id, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// copy so callers sharing the flight never share a pointer
		id := *res.Val.(*Identity)
		return &id, nil
	}
}

func (c *CachingVerifier) lookup(ctx context.Context, key string) (*Identity, bool) {
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			metrics.VerifierCache.WithLabelValues("error").Inc()
			logger.Warnf("identity cache get failed: %v", err)
		}
		return nil, false
	}
	var id Identity
	if err := json.Unmarshal(b, &id); err != nil {
		_ = c.client.Del(ctx, key).Err()
		return nil, false
	}
	if !id.ExpiresAt.IsZero() && !c.now().Before(id.ExpiresAt) {
		_ = c.client.Del(ctx, key).Err()
		return nil, false
	}
	return &id, true
}

func (c *CachingVerifier) store(ctx context.Context, key string, id *Identity) {
	ttl := c.maxTTL
	if !id.ExpiresAt.IsZero() {
		if remaining := id.ExpiresAt.Sub(c.now()); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl <= 0 {
		return
	}
	b, err := json.Marshal(id)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, b, ttl).Err(); err != nil {
		metrics.VerifierCache.WithLabelValues("error").Inc()
		logger.Warnf("identity cache set failed: %v", err)
	}
}
