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
	"io/fs"
	"net/http"

	"github.com/userhub/userhub/pkg/server/app"
	"github.com/userhub/userhub/pkg/server/context"
	"github.com/userhub/userhub/pkg/server/log"
	"github.com/userhub/userhub/pkg/server/metrics"
)

const (
	// resetPasswordFile is the asset served by the reset password page
	resetPasswordFile = "reset-password.html"
	// resetPasswordFallbackURL is where the fallback page sends the browser
	resetPasswordFallbackURL = "/reset-password.html"
)

// resetPasswordFallback is served when the reset password asset cannot be read
const resetPasswordFallback = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Reset password</title>
</head>
<body>
  <p>Redirecting to the password reset page...</p>
  <script>window.location.href = '` + resetPasswordFallbackURL + `';</script>
</body>
</html>
`

// NewPages creates a new Pages controller.
func NewPages(app *app.App, static *Static) *Pages {
	return &Pages{
		assets: app.Assets,
		static: static,
	}
}

// Pages serves HTML pages bundled with the server
type Pages struct {
	assets fs.FS
	static *Static
}

// ResetPassword handles GET /reset-password
func (p *Pages) ResetPassword(w http.ResponseWriter, r *http.Request) {
	body, err := fs.ReadFile(p.assets, resetPasswordFile)
	if err != nil {
		log.WithFields(log.Fields{
			"request_id": context.RequestID(r.Context()),
			"file":       resetPasswordFile,
			"error":      err,
		}).Warn("serving reset password fallback page")
		metrics.ResetPasswordFallback()

		body = []byte(resetPasswordFallback)
	}

	respondHTML(w, body)
}

// ResetPasswordFile handles GET /reset-password.html by serving the asset itself
func (p *Pages) ResetPasswordFile(w http.ResponseWriter, r *http.Request) {
	if _, err := fs.Stat(p.assets, resetPasswordFile); err != nil {
		p.static.NotFound(w, r)
		return
	}

	http.ServeFileFS(w, r, p.assets, resetPasswordFile)
}
