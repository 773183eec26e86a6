/* Copyright 2025 Userhub Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/userhub/userhub/pkg/clock"
	"github.com/userhub/userhub/pkg/server/log"
	"golang.org/x/time/rate"
)

const (
	// serverRateLimitPerSecond is the max requests per second the server will accept per IP
	serverRateLimitPerSecond = 50
	// serverRateLimitBurst is the burst capacity for rate limiting
	serverRateLimitBurst = 100
	// visitorTTL is how long a visitor is remembered after its last request
	visitorTTL = 3 * time.Minute
	// cleanupInterval is how often idle visitors are swept
	cleanupInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds the rate limiting state for visitors
type RateLimiter struct {
	clock      clock.Clock
	trustProxy bool
	visitors   map[string]*visitor
	mtx        sync.Mutex
}

// NewRateLimiter creates a new rate limiter instance. Idle visitors are only
// evicted while Run is active. With trustProxy set, visitors are keyed by the
// forwarding headers instead of the connection address.
func NewRateLimiter(c clock.Clock, trustProxy bool) *RateLimiter {
	return &RateLimiter{
		clock:      c,
		trustProxy: trustProxy,
		visitors:   make(map[string]*visitor),
	}
}

// getVisitor returns a limiter for a visitor with the given identifier. It
// adds the visitor to the map if not seen before.
func (rl *RateLimiter) getVisitor(identifier string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	now := rl.clock.Now()

	v, exists := rl.visitors[identifier]
	if !exists {
		// Calculate interval from rate: 1 second / requests per second
		interval := time.Second / time.Duration(serverRateLimitPerSecond)
		v = &visitor{
			limiter: rate.NewLimiter(rate.Every(interval), serverRateLimitBurst),
		}
		rl.visitors[identifier] = v
	}

	v.lastSeen = now

	return v.limiter
}

// removeStale deletes visitors that have not been seen within visitorTTL and
// returns how many were removed
func (rl *RateLimiter) removeStale() int {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	now := rl.clock.Now()
	removed := 0

	for identifier, v := range rl.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(rl.visitors, identifier)
			removed++
		}
	}

	return removed
}

func (rl *RateLimiter) count() int {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	return len(rl.visitors)
}

// Run sweeps idle visitors every minute until ctx is cancelled
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.removeStale(); n > 0 {
				log.WithFields(log.Fields{
					"removed": n,
				}).Debug("Removed idle rate limit visitors")
			}
		}
	}
}

// lookupIP returns the request's IP. X-Forwarded-For and X-Real-IP are
// client controlled and only consulted when trustProxy is set.
func lookupIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
			parts := strings.Split(forwardedFor, ",")
			return strings.TrimSpace(parts[0])
		}

		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			return realIP
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}

	return r.RemoteAddr
}

// Limit is a middleware to rate limit the handler
func (rl *RateLimiter) Limit(next http.Handler) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identifier := lookupIP(r, rl.trustProxy)
		limiter := rl.getVisitor(identifier)

		if !limiter.Allow() {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			log.WithFields(log.Fields{
				"ip": identifier,
			}).Warn("Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ApplyLimit rate limits h with the given limiter when rateLimit is set.
// A nil limiter disables rate limiting.
func ApplyLimit(h http.Handler, limiter *RateLimiter, rateLimit bool) http.Handler {
	if rateLimit && limiter != nil {
		return limiter.Limit(h)
	}

	return h
}
