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

// NewUsers creates a new Users controller.
func NewUsers() *Users {
	return &Users{}
}

// Users is the controller for the users API
type Users struct {
}

// TestResponse is the body of the users API reachability check
type TestResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Test handles GET /api/users/test
func (u *Users) Test(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, TestResponse{
		Status:  "ok",
		Message: "users API is reachable",
	})
}
