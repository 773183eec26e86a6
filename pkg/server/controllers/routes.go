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

package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/userhub/userhub/pkg/server/app"
	mw "github.com/userhub/userhub/pkg/server/middleware"
	"github.com/userhub/userhub/pkg/server/metrics"
)

// Route represents a single route
type Route struct {
	Method    string
	Pattern   string
	Handler   http.HandlerFunc
	RateLimit bool
}

// RouteConfig is the configuration for routes
type RouteConfig struct {
	Controllers *Controllers
	WebRoutes   []Route
	APIRoutes   []Route
	// Limiter rate limits the routes that ask for it. Nil disables rate limiting.
	Limiter *mw.RateLimiter
}

// NewWebRoutes returns a new web routes
func NewWebRoutes(a *app.App, c *Controllers) []Route {
	return []Route{
		{"GET", "/test/connection", c.Diagnostics.Connection, true},
		{"GET", "/reset-password", c.Pages.ResetPassword, true},
		{"GET", "/reset-password.html", c.Pages.ResetPasswordFile, true},
		{"GET", "/robots.txt", c.Static.Robots, false},
		{"GET", "/health", c.Health.Index, false},
	}
}

// NewAPIRoutes returns a new api routes
func NewAPIRoutes(a *app.App, c *Controllers) []Route {
	return []Route{
		{"GET", "/users/test", c.Users.Test, true},
	}
}

func registerRoutes(router *mux.Router, prefix string, wrapper mw.Middleware, limiter *mw.RateLimiter, routes []Route) {
	for _, route := range routes {
		wrappedHandler := wrapper(route.Handler, limiter, route.RateLimit)

		router.
			Handle(route.Pattern, mw.Instrument(prefix+route.Pattern, wrappedHandler)).
			Methods(route.Method)
	}
}

// NewRouter creates and returns a new router
func NewRouter(app *app.App, rc RouteConfig) (http.Handler, error) {
	if err := app.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating the app parameters")
	}

	router := mux.NewRouter().StrictSlash(true)

	webRouter := router.PathPrefix("/").Subrouter()
	apiRouter := router.PathPrefix("/api").Subrouter()
	registerRoutes(webRouter, "", mw.WebMw, rc.Limiter, rc.WebRoutes)
	registerRoutes(apiRouter, "/api", mw.APIMw, rc.Limiter, rc.APIRoutes)

	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	// static
	staticHandler := http.StripPrefix("/static/", http.FileServer(http.FS(app.Assets)))
	router.PathPrefix("/static/").Handler(mw.Instrument("/static/", staticHandler))

	// catch-all
	router.PathPrefix("/").HandlerFunc(rc.Controllers.Static.NotFound)

	return mw.Global(app, router), nil
}
