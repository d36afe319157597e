package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"studiosite/internal/telemetry"
)

const (
	limiterCleanupInterval = time.Minute
	limiterIdleTimeout     = 3 * time.Minute
)

var ErrInvalidIP = errors.New("invalid IP")

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client address.
type IPRateLimiter struct {
	ips          map[string]*client
	mu           sync.Mutex
	rate         rate.Limit
	burst        int
	trustedProxy bool
	metrics      *telemetry.Metrics
}

func NewIPRateLimiter(ctx context.Context, rps, burst int, trustedProxy bool, metrics *telemetry.Metrics) *IPRateLimiter {
	l := &IPRateLimiter{
		ips:          make(map[string]*client),
		rate:         rate.Limit(rps),
		burst:        burst,
		trustedProxy: trustedProxy,
		metrics:      metrics,
	}
	go l.backgroundCleanup(ctx)
	return l
}

func (i *IPRateLimiter) backgroundCleanup(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.cleanup()
		}
	}
}

func (i *IPRateLimiter) cleanup() {
	i.mu.Lock()
	defer i.mu.Unlock()

	for ip, c := range i.ips {
		if time.Since(c.lastSeen) > limiterIdleTimeout {
			delete(i.ips, ip)
		}
	}
}

// bucketKey groups IPv6 clients by their /64, which is what a single
// subscriber is usually handed.
func bucketKey(ip string) (string, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "", ErrInvalidIP
	}
	addr = addr.Unmap()
	if addr.Is6() {
		p, err := addr.Prefix(64)
		if err != nil {
			return "", ErrInvalidIP
		}
		return p.String(), nil
	}
	return addr.String(), nil
}

func (i *IPRateLimiter) getLimiter(ip string) (*rate.Limiter, error) {
	key, err := bucketKey(ip)
	if err != nil {
		return nil, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	c, ok := i.ips[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(i.rate, i.burst)}
		i.ips[key] = c
	}
	c.lastSeen = time.Now()
	return c.limiter, nil
}

// Middleware rejects clients over their budget with 429 and a JSON body the
// form scripts can show.
func (i *IPRateLimiter) Middleware(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, i.trustedProxy)

			limiter, err := i.getLimiter(ip)
			if err != nil {
				LoggerFrom(r.Context(), logger).Warn("request without a usable client address", "remote", r.RemoteAddr)
				writeJSONError(w, http.StatusBadRequest, "Invalid client address")
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(i.burst))
			if !limiter.Allow() {
				// peek at the next token without consuming it
				reservation := limiter.Reserve()
				delay := reservation.Delay()
				reservation.Cancel()

				i.metrics.RateLimitHitsTotal.Add(r.Context(), 1,
					metric.WithAttributes(attribute.String("http.route", routeOf(r))))

				w.Header().Set("Retry-After", strconv.Itoa(max(1, int(delay.Seconds()))))
				w.Header().Set("X-RateLimit-Remaining", "0")
				writeJSONError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
