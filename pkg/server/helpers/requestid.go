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

// Package helpers provides small utilities shared by the HTTP layer
package helpers

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// RequestIDHeader is the header carrying the request ID
const RequestIDHeader = "X-Request-Id"

// GenRequestID generates a new random request ID
func GenRequestID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", errors.Wrap(err, "generating request id")
	}

	return id.String(), nil
}

// ResolveRequestID returns the request ID supplied by the client if it is a
// well-formed UUID, and a freshly generated one otherwise.
func ResolveRequestID(supplied string) (string, error) {
	if supplied != "" {
		if id, err := uuid.Parse(supplied); err == nil {
			return id.String(), nil
		}
	}

	return GenRequestID()
}
