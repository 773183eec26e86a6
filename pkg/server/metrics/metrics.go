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

// Package metrics exposes Prometheus instruments for the HTTP server
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector served on /metrics
var Registry = prometheus.NewRegistry()

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "userhub_build_info",
			Help: "Build information for the userhub server",
		},
		[]string{"version"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userhub_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "userhub_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route and method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	resetPasswordFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "userhub_reset_password_fallback_total",
			Help: "Number of reset-password requests answered with the fallback page",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		buildInfo,
		httpRequestsTotal,
		httpRequestDuration,
		resetPasswordFallbackTotal,
	)
}

// SetBuildInfo sets the build info metric for the server.
func SetBuildInfo(version string) {
	buildInfo.WithLabelValues(version).Set(1)
}

// ObserveRequest records a completed request.
func ObserveRequest(route, method string, code int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ResetPasswordFallback counts a reset-password page served from the fallback.
func ResetPasswordFallback() { resetPasswordFallbackTotal.Inc() }

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
