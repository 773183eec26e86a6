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

package app

import (
	"io/fs"

	"github.com/pkg/errors"
	"github.com/userhub/userhub/pkg/clock"
)

var (
	// ErrEmptyClock is an error for missing clock in the app configuration
	ErrEmptyClock = errors.New("No clock was provided")
	// ErrEmptyBaseURL is an error for missing BaseURL content in the app configuration
	ErrEmptyBaseURL = errors.New("No BaseURL was provided")
	// ErrEmptyAssets is an error for a missing asset filesystem
	ErrEmptyAssets = errors.New("No asset filesystem was provided")
	// ErrEmptyHTTP500Page is an error for missing HTTP 500 page content
	ErrEmptyHTTP500Page = errors.New("No HTTP 500 error page was set")
	// ErrEmptyNotFoundPage is an error for missing HTTP 404 page content
	ErrEmptyNotFoundPage = errors.New("No HTTP 404 error page was set")
)

// App is an application context
type App struct {
	Clock clock.Clock
	// Assets holds the pages and static files served to browsers
	Assets       fs.FS
	HTTP500Page  []byte
	NotFoundPage []byte
	AppEnv       string
	BaseURL      string
	Port         string
	RateLimit    bool
	// TrustProxy makes client IPs come from the forwarding headers
	TrustProxy   bool
}

// Validate validates the app configuration
func (a *App) Validate() error {
	if a.BaseURL == "" {
		return ErrEmptyBaseURL
	}
	if a.Clock == nil {
		return ErrEmptyClock
	}
	if a.Assets == nil {
		return ErrEmptyAssets
	}
	if a.HTTP500Page == nil {
		return ErrEmptyHTTP500Page
	}
	if a.NotFoundPage == nil {
		return ErrEmptyNotFoundPage
	}

	return nil
}
