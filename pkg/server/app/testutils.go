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
	"github.com/pkg/errors"
	"github.com/userhub/userhub/pkg/clock"
	"github.com/userhub/userhub/pkg/server/assets"
)

// NewTest returns an app for a testing environment
func NewTest() App {
	staticFS, err := assets.GetStaticFS()
	if err != nil {
		panic(errors.Wrap(err, "getting static fs"))
	}

	return App{
		Clock:        clock.NewMock(),
		Assets:       staticFS,
		HTTP500Page:  assets.MustGetHTTP500ErrorPage(),
		NotFoundPage: assets.MustGetNotFoundPage(),
		AppEnv:       "TEST",
		BaseURL:      "http://127.0.0.1",
		Port:         "3000",
		RateLimit:    false,
	}
}
