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
	"net/http"
	"time"

	"github.com/userhub/userhub/pkg/server/metrics"
)

// Middleware wraps a single route handler
type Middleware func(h http.HandlerFunc, limiter *RateLimiter, rateLimit bool) http.Handler

// WebMw is the middleware for the routes serving browsers
func WebMw(h http.HandlerFunc, limiter *RateLimiter, rateLimit bool) http.Handler {
	return ApplyLimit(h, limiter, rateLimit)
}

// APIMw is the middleware for the routes under /api
func APIMw(h http.HandlerFunc, limiter *RateLimiter, rateLimit bool) http.Handler {
	return ApplyLimit(noStore(h), limiter, rateLimit)
}

func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// Instrument records Prometheus metrics for the given route. The route label
// is the registered pattern, never the raw path.
func Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		defer func() {
			rv := recover()
			if rv != nil && !rec.wroteHeader {
				// Global answers recovered panics with a 500
				rec.status = http.StatusInternalServerError
			}

			metrics.ObserveRequest(route, r.Method, rec.status, time.Since(start))

			if rv != nil {
				panic(rv)
			}
		}()

		next.ServeHTTP(rec, r)
	})
}
