package interceptors

import (
	"context"
	"errors"
	"sync"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per principal. Unauthenticated requests
// share a bucket keyed by peer address.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewRateLimiter allows perSecond requests per principal with the given burst.
func NewRateLimiter(perSecond, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

// Allow reports whether a request for key may proceed now.
func (l *RateLimiter) Allow(key string) bool {
	return l.limiter(key).Allow()
}

// Interceptor rejects requests over the limit with CodeUnavailable.
// resource_exhausted is left to the request size limit so upload clients can
// tell the two apart.
func (l *RateLimiter) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			key := "peer:" + req.Peer().Addr
			if id, ok := GetUserIDFromContext(ctx); ok {
				key = "user:" + id
			}
			if !l.Allow(key) {
				return nil, connect.NewError(connect.CodeUnavailable, errors.New("rate limit exceeded"))
			}
			return next(ctx, req)
		}
	}
}
