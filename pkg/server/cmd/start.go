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

package cmd

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/userhub/userhub/pkg/server/app"
	"github.com/userhub/userhub/pkg/server/buildinfo"
	"github.com/userhub/userhub/pkg/server/config"
	"github.com/userhub/userhub/pkg/server/controllers"
	"github.com/userhub/userhub/pkg/server/log"
	"github.com/userhub/userhub/pkg/server/metrics"
	mw "github.com/userhub/userhub/pkg/server/middleware"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func newStartCmd() *cobra.Command {
	var p config.Params
	var rateLimit, trustProxy bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("rateLimit") {
				p.RateLimit = &rateLimit
			}
			if cmd.Flags().Changed("trustProxy") {
				p.TrustProxy = &trustProxy
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runStart(ctx, p)
		},
	}

	f := cmd.Flags()
	f.StringVar(&p.AppEnv, "appEnv", "", "Application environment (env: APP_ENV, default: PRODUCTION)")
	f.StringVar(&p.Port, "port", "", "Server port (env: PORT, default: 3001)")
	f.StringVar(&p.BaseURL, "baseUrl", "", "Full URL to server without trailing slash (env: BASE_URL, default: http://localhost:3001)")
	f.StringVar(&p.LogLevel, "logLevel", "", "Log level: debug, info, warn, or error (env: LOG_LEVEL, default: info)")
	f.StringVar(&p.AssetsDir, "assetsDir", "", "Directory to serve pages from instead of the embedded ones (env: ASSETS_DIR)")
	f.BoolVar(&rateLimit, "rateLimit", true, "Rate limit requests per IP (env: RATE_LIMIT)")
	f.BoolVar(&trustProxy, "trustProxy", false, "Take client IPs from X-Forwarded-For and X-Real-IP. Only for use behind a proxy that overwrites them (env: TRUST_PROXY)")
	f.StringVar(&p.ConfigPath, "config", "", "Path to a YAML configuration file")

	return cmd
}

func runStart(ctx context.Context, p config.Params) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.New(p)
	if err != nil {
		return errors.Wrap(err, "loading configuration")
	}

	log.SetLevel(cfg.LogLevel)

	a, err := initApp(cfg)
	if err != nil {
		return err
	}

	srv, limiter, err := newServer(&a)
	if err != nil {
		return err
	}
	if limiter != nil {
		go limiter.Run(ctx)
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", srv.Addr)
	}

	log.WithFields(log.Fields{
		"version": buildinfo.Version,
		"port":    cfg.Port,
		"env":     cfg.AppEnv,
	}).Info("Userhub server starting")

	return serve(ctx, srv, ln)
}

// newServer wires the controllers and middleware into an http.Server. The
// returned limiter is nil when rate limiting is off.
func newServer(a *app.App) (*http.Server, *mw.RateLimiter, error) {
	var limiter *mw.RateLimiter
	if a.RateLimit {
		limiter = mw.NewRateLimiter(a.Clock, a.TrustProxy)
	}

	ctl := controllers.New(a)
	rc := controllers.RouteConfig{
		WebRoutes:   controllers.NewWebRoutes(a, ctl),
		APIRoutes:   controllers.NewAPIRoutes(a, ctl),
		Controllers: ctl,
		Limiter:     limiter,
	}

	r, err := controllers.NewRouter(a, rc)
	if err != nil {
		return nil, nil, errors.Wrap(err, "initializing router")
	}

	metrics.SetBuildInfo(buildinfo.Version)

	srv := &http.Server{
		Addr:              ":" + a.Port,
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return srv, limiter, nil
}

// serve runs srv on ln until ctx is done, then shuts it down gracefully
func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down server")
	}

	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "server failed")
	}

	return nil
}
