package middleware

import (
	"cmp"
	"context"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"
)

const (
	visitorValidity        = 24 * time.Hour
	visitorCleanupInterval = 15 * time.Minute
	unknownCountry         = "XX"
)

// VisitorStats counts unique daily visitors per country, taken from the
// CF-IPCountry header set by the CDN. Only page views are counted.
type VisitorStats struct {
	mu           sync.RWMutex
	visitors     map[string]time.Time
	countries    map[string]int
	trustedProxy bool
}

func NewVisitorStats(ctx context.Context, trustedProxy bool) *VisitorStats {
	v := &VisitorStats{
		visitors:     make(map[string]time.Time),
		countries:    make(map[string]int),
		trustedProxy: trustedProxy,
	}
	go v.backgroundCleanup(ctx)
	return v
}

func (v *VisitorStats) backgroundCleanup(ctx context.Context) {
	ticker := time.NewTicker(visitorCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.cleanup()
		}
	}
}

func (v *VisitorStats) cleanup() {
	cutOff := time.Now().UTC().Add(-visitorValidity)

	v.mu.Lock()
	defer v.mu.Unlock()

	for ip, lastSeen := range v.visitors {
		if lastSeen.Before(cutOff) {
			delete(v.visitors, ip)
		}
	}
}

// Record counts ip once per validity window.
func (v *VisitorStats) Record(ip, countryCode string) {
	if ip == "" {
		return
	}
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	if countryCode == "" {
		countryCode = unknownCountry
	}

	now := time.Now().UTC()

	v.mu.Lock()
	defer v.mu.Unlock()

	if last, ok := v.visitors[ip]; !ok || now.Sub(last) > visitorValidity {
		v.countries[countryCode]++
	}
	v.visitors[ip] = now
}

type CountryStat struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// TopCountries returns at most n countries, most visitors first.
func (v *VisitorStats) TopCountries(n int) []CountryStat {
	if n < 1 {
		return []CountryStat{}
	}

	v.mu.RLock()
	out := make([]CountryStat, 0, len(v.countries))
	for code, count := range v.countries {
		out = append(out, CountryStat{Code: code, Count: count})
	}
	v.mu.RUnlock()

	slices.SortFunc(out, func(a, b CountryStat) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})
	return out[:min(n, len(out))]
}

// Middleware records GET requests for pages. API calls and assets are not
// visits.
func (v *VisitorStats) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet && isPageView(r.URL.Path) {
				v.Record(ClientIP(r, v.trustedProxy), r.Header.Get("CF-IPCountry"))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isPageView(path string) bool {
	for _, prefix := range []string{"/api/", "/assets/", "/uploads/", "/static/", "/metrics", "/healthz"} {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}
