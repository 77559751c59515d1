package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit is a middleware factory that throttles requests per client IP
// using a token bucket. Idle client entries are pruned lazily.
func RateLimit(rps float64, burst int, logger *slog.Logger) func(http.Handler) http.Handler {
	var (
		mu        sync.Mutex
		clients   = make(map[string]*clientLimiter)
		lastPrune = time.Now()
	)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		if time.Since(lastPrune) > 3*time.Minute {
			for addr, c := range clients {
				if time.Since(c.lastSeen) > 3*time.Minute {
					delete(clients, addr)
				}
			}
			lastPrune = time.Now()
		}

		c, ok := clients[ip]
		if !ok {
			c = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			clients[ip] = c
		}
		c.lastSeen = time.Now()
		return c.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !limiterFor(ip).Allow() {
				logger.Warn("rate limit exceeded", "remote_addr", r.RemoteAddr)
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
