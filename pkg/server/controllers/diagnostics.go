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
)

// connectionPage is the body served by the connection test endpoint
const connectionPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Connection test</title>
</head>
<body>
  <h1>Connection test: SUCCESS</h1>
  <p>The server is reachable from this network.</p>
  <p>Next, check that the API answers: <a href="/api/users/test">/api/users/test</a></p>
</body>
</html>
`

// NewDiagnostics creates a new Diagnostics controller.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

// Diagnostics serves pages used to troubleshoot connectivity
type Diagnostics struct {
}

// Connection handles GET /test/connection
func (d *Diagnostics) Connection(w http.ResponseWriter, r *http.Request) {
	respondHTML(w, []byte(connectionPage))
}
