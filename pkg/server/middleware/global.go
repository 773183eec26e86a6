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
	"fmt"
	"net/http"
	"time"

	"github.com/userhub/userhub/pkg/server/app"
	"github.com/userhub/userhub/pkg/server/context"
	"github.com/userhub/userhub/pkg/server/helpers"
	"github.com/userhub/userhub/pkg/server/log"
)

// Global is the outermost middleware. It assigns a request ID, recovers
// from panics with the HTTP 500 page and writes one access log line per request.
func Global(a *app.App, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID, err := helpers.ResolveRequestID(r.Header.Get(helpers.RequestIDHeader))
		if err != nil {
			log.ErrorWrap(err, "resolving request id")
		}
		if requestID != "" {
			w.Header().Set(helpers.RequestIDHeader, requestID)
			r = r.WithContext(context.WithRequestID(r.Context(), requestID))
		}

		rec := newStatusRecorder(w)

		defer func() {
			if rv := recover(); rv != nil {
				if rv == http.ErrAbortHandler {
					panic(rv)
				}

				log.WithFields(log.Fields{
					"request_id": requestID,
					"method":     r.Method,
					"path":       r.URL.Path,
				}).Error(fmt.Sprintf("recovered from panic: %v", rv))

				if !rec.wroteHeader {
					rec.Header().Set("Content-Type", "text/html")
					rec.WriteHeader(http.StatusInternalServerError)
					rec.Write(a.HTTP500Page)
				}
			}

			log.WithFields(log.Fields{
				"request_id":  requestID,
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_ip":   lookupIP(r, a.TrustProxy),
			}).Info("request")
		}()

		next.ServeHTTP(rec, r)
	})
}
