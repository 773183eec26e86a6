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
	"github.com/pkg/errors"
	"github.com/userhub/userhub/pkg/clock"
	"github.com/userhub/userhub/pkg/server/app"
	"github.com/userhub/userhub/pkg/server/assets"
	"github.com/userhub/userhub/pkg/server/config"
	"github.com/userhub/userhub/pkg/server/log"
)

func initApp(cfg config.Config) (app.App, error) {
	assetFS, err := assets.NewFS(cfg.AssetsDir)
	if err != nil {
		return app.App{}, errors.Wrap(err, "opening assets")
	}

	if cfg.AssetsDir != "" {
		log.WithFields(log.Fields{
			"dir": cfg.AssetsDir,
		}).Info("Serving assets from directory")
	}

	return app.App{
		Clock:        clock.New(),
		Assets:       assetFS,
		HTTP500Page:  assets.MustGetHTTP500ErrorPage(),
		NotFoundPage: assets.MustGetNotFoundPage(),
		AppEnv:       cfg.AppEnv,
		BaseURL:      cfg.BaseURL,
		Port:         cfg.Port,
		RateLimit:    cfg.RateLimit && !cfg.IsTest(),
		TrustProxy:   cfg.TrustProxy,
	}, nil
}
