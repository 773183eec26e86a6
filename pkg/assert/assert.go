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

// Package assert provides functions to assert a condition in tests
package assert

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func getErrorMessage(m string, a, b interface{}) string {
	return fmt.Sprintf(`%s.
Actual:
========================
%+v
========================

Expected:
========================
%+v
========================`, m, a, b)
}

// Equal errors a test if the actual does not match the expected
func Equal(t *testing.T, a, b interface{}, message string) {
	t.Helper()

	if a == b {
		return
	}

	t.Error(getErrorMessage(message, a, b))
}

// Equalf fails a test if the actual does not match the expected
func Equalf(t *testing.T, a, b interface{}, message string) {
	t.Helper()

	if a == b {
		return
	}

	t.Fatal(getErrorMessage(message, a, b))
}

// NotEqual fails a test if the actual matches the expected
func NotEqual(t *testing.T, a, b interface{}, message string) {
	t.Helper()

	if a != b {
		return
	}

	t.Error(getErrorMessage(message, a, b))
}

// DeepEqual fails a test if the actual does not deeply equal the expected
func DeepEqual(t *testing.T, a, b interface{}, message string) {
	t.Helper()

	if cmp.Equal(a, b) {
		return
	}

	t.Errorf("%s.\n(-actual +expected):\n%s", message, cmp.Diff(a, b))
}

// StringContains fails a test if the actual string does not contain the given substring
func StringContains(t *testing.T, s, substr, message string) {
	t.Helper()

	if strings.Contains(s, substr) {
		return
	}

	t.Errorf("%s. '%s' does not contain '%s'", message, s, substr)
}

// StatusCodeEquals fails a test if the response status code does not match
// the expected. The body is printed to help debugging.
func StatusCodeEquals(t *testing.T, res *http.Response, expected int, message string) {
	t.Helper()

	if res.StatusCode == expected {
		return
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading body"))
	}

	t.Errorf("status code mismatch. %s: got %v want %v. Message was: '%s'", message, res.StatusCode, expected, string(body))
}
