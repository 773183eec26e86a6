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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/userhub/userhub/pkg/assert"
	"github.com/userhub/userhub/pkg/server/app"
	"github.com/userhub/userhub/pkg/server/context"
	"github.com/userhub/userhub/pkg/server/helpers"
	"github.com/userhub/userhub/pkg/server/log"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
	})

	return &buf
}

func TestGlobal_RequestID(t *testing.T) {
	a := app.NewTest()

	var seen string
	h := Global(&a, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = context.RequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		captureLogs(t)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/test/connection", nil))

		got := w.Header().Get(helpers.RequestIDHeader)
		_, err := uuid.Parse(got)
		assert.Equal(t, err, nil, "request id is not a uuid")
		assert.Equal(t, seen, got, "context id mismatch")
	})

	t.Run("propagated", func(t *testing.T) {
		captureLogs(t)

		supplied := "0f8fad5b-d9cb-469f-a165-70867728950e"
		req := httptest.NewRequest("GET", "/test/connection", nil)
		req.Header.Set(helpers.RequestIDHeader, supplied)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, w.Header().Get(helpers.RequestIDHeader), supplied, "header mismatch")
		assert.Equal(t, seen, supplied, "context id mismatch")
	})
}

func TestGlobal_Recover(t *testing.T) {
	buf := captureLogs(t)
	a := app.NewTest()

	h := Global(&a, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/reset-password", nil))

	assert.Equal(t, w.Code, http.StatusInternalServerError, "status code mismatch")
	assert.Equal(t, w.Header().Get("Content-Type"), "text/html", "content type mismatch")
	assert.Equal(t, w.Body.String(), string(a.HTTP500Page), "body mismatch")
	assert.StringContains(t, buf.String(), "recovered from panic: boom", "panic was not logged")
}

func TestGlobal_AccessLog(t *testing.T) {
	buf := captureLogs(t)
	a := app.NewTest()

	h := Global(&a, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "192.0.2.10:4000"
	h.ServeHTTP(httptest.NewRecorder(), req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatal(errors.Wrap(err, "decoding access log"))
	}

	assert.Equal(t, entry["msg"], "request", "message mismatch")
	assert.Equal(t, entry["path"], "/health", "path mismatch")
	assert.Equal(t, entry["method"], "GET", "method mismatch")
	assert.Equal(t, entry["status"], float64(http.StatusTeapot), "status mismatch")
	assert.Equal(t, entry["remote_ip"], "192.0.2.10", "ip mismatch")
}

func TestAPIMw(t *testing.T) {
	w := httptest.NewRecorder()
	APIMw(okHandler, nil, false).ServeHTTP(w, httptest.NewRequest("GET", "/api/users/test", nil))

	assert.Equal(t, w.Code, http.StatusOK, "status code mismatch")
	assert.Equal(t, w.Header().Get("Cache-Control"), "no-store", "cache control mismatch")
}

func TestWebMw(t *testing.T) {
	w := httptest.NewRecorder()
	WebMw(okHandler, nil, true).ServeHTTP(w, httptest.NewRequest("GET", "/reset-password", nil))

	assert.Equal(t, w.Code, http.StatusOK, "status code mismatch")
	assert.Equal(t, w.Header().Get("Cache-Control"), "", "cache control should not be set")
}

func TestStatusRecorder(t *testing.T) {
	testCases := []struct {
		name     string
		handler  http.HandlerFunc
		expected int
	}{
		{
			name: "implicit ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("ok"))
			},
			expected: http.StatusOK,
		},
		{
			name: "explicit status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			expected: http.StatusNotFound,
		},
		{
			name: "first status wins",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusGone)
				w.WriteHeader(http.StatusOK)
			},
			expected: http.StatusGone,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := newStatusRecorder(httptest.NewRecorder())
			tc.handler(rec, httptest.NewRequest("GET", "/", nil))

			assert.Equal(t, rec.status, tc.expected, "status mismatch")
		})
	}
}
