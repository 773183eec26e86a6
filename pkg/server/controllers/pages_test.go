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
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/pkg/errors"
	"github.com/userhub/userhub/pkg/assert"
	"github.com/userhub/userhub/pkg/server/app"
	"github.com/userhub/userhub/pkg/server/metrics"
	"github.com/userhub/userhub/pkg/server/testutils"
)

// unreadableFS fails every open the way a broken bundle would
type unreadableFS struct{}

func (unreadableFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
}

func getResetPassword(t *testing.T, assets fs.FS) (*http.Response, string) {
	a := app.NewTest()
	a.Assets = assets
	server := MustNewServer(t, &a)

	req := testutils.MakeReq(server.URL, "GET", "/reset-password", "")
	res := testutils.HTTPDo(t, req)

	return res, string(testutils.ReadBody(t, res))
}

func fallbackCount(t *testing.T) float64 {
	families, err := metrics.Registry.Gather()
	if err != nil {
		t.Fatal(errors.Wrap(err, "gathering metrics"))
	}

	for _, f := range families {
		if f.GetName() == "userhub_reset_password_fallback_total" {
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}

	return 0
}

func TestResetPassword(t *testing.T) {
	t.Run("resource present", func(t *testing.T) {
		page := "<!DOCTYPE html><h1>Réinitialiser le mot de passe ✓</h1>\n"
		assets := fstest.MapFS{
			"reset-password.html": &fstest.MapFile{Data: []byte(page)},
		}

		res, body := getResetPassword(t, assets)

		assert.StatusCodeEquals(t, res, http.StatusOK, "")
		assert.Equal(t, res.Header.Get("Content-Type"), "text/html", "content type mismatch")
		assert.Equal(t, body, page, "body should be the resource verbatim")
	})

	t.Run("embedded resource", func(t *testing.T) {
		a := app.NewTest()
		expected, err := fs.ReadFile(a.Assets, "reset-password.html")
		if err != nil {
			t.Fatal(errors.Wrap(err, "reading embedded page"))
		}

		res, body := getResetPassword(t, a.Assets)

		assert.StatusCodeEquals(t, res, http.StatusOK, "")
		assert.Equal(t, body, string(expected), "body mismatch")
	})

	t.Run("resource absent", func(t *testing.T) {
		before := fallbackCount(t)

		res, body := getResetPassword(t, fstest.MapFS{})

		assert.StatusCodeEquals(t, res, http.StatusOK, "a missing resource must not surface as an error")
		assert.Equal(t, res.Header.Get("Content-Type"), "text/html", "content type mismatch")
		assert.Equal(t, body, resetPasswordFallback, "body should be the fallback page")
		assert.StringContains(t, body, "<script>", "fallback should redirect with a script")
		assert.StringContains(t, body, "'/reset-password.html'", "fallback should target the static page")
		assert.Equal(t, fallbackCount(t)-before, float64(1), "fallback counter mismatch")
	})

	t.Run("resource unreadable", func(t *testing.T) {
		res, body := getResetPassword(t, unreadableFS{})

		assert.StatusCodeEquals(t, res, http.StatusOK, "")
		assert.Equal(t, body, resetPasswordFallback, "body should be the fallback page")
	})
}

func TestResetPassword_Idempotent(t *testing.T) {
	testCases := []struct {
		name   string
		assets fs.FS
	}{
		{
			name: "present",
			assets: fstest.MapFS{
				"reset-password.html": &fstest.MapFile{Data: []byte("<p>reset</p>")},
			},
		},
		{
			name:   "absent",
			assets: fstest.MapFS{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := app.NewTest()
			a.Assets = tc.assets
			server := MustNewServer(t, &a)

			var bodies []string
			for range 3 {
				res := testutils.HTTPDo(t, testutils.MakeReq(server.URL, "GET", "/reset-password", ""))
				assert.StatusCodeEquals(t, res, http.StatusOK, "")
				bodies = append(bodies, string(testutils.ReadBody(t, res)))
			}

			assert.Equal(t, bodies[1], bodies[0], "second response differs")
			assert.Equal(t, bodies[2], bodies[0], "third response differs")
		})
	}
}

func TestResetPassword_ReadsOnEveryRequest(t *testing.T) {
	dir := t.TempDir()
	a := app.NewTest()
	a.Assets = os.DirFS(dir)
	server := MustNewServer(t, &a)

	res := testutils.HTTPDo(t, testutils.MakeReq(server.URL, "GET", "/reset-password", ""))
	assert.Equal(t, string(testutils.ReadBody(t, res)), resetPasswordFallback, "first response should be the fallback")

	// Deploying the page later is picked up without a restart
	if err := os.WriteFile(filepath.Join(dir, "reset-password.html"), []byte("<p>deployed</p>"), 0644); err != nil {
		t.Fatal(errors.Wrap(err, "writing page"))
	}

	res = testutils.HTTPDo(t, testutils.MakeReq(server.URL, "GET", "/reset-password", ""))
	assert.Equal(t, string(testutils.ReadBody(t, res)), "<p>deployed</p>", "second response should be the page")
}

func TestResetPasswordFile(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		a := app.NewTest()
		a.Assets = fstest.MapFS{
			"reset-password.html": &fstest.MapFile{Data: []byte("<p>static reset</p>")},
		}
		server := MustNewServer(t, &a)

		res := testutils.HTTPDo(t, testutils.MakeReq(server.URL, "GET", "/reset-password.html", ""))

		assert.StatusCodeEquals(t, res, http.StatusOK, "")
		assert.Equal(t, res.Header.Get("Content-Type"), "text/html; charset=utf-8", "content type mismatch")
		assert.Equal(t, string(testutils.ReadBody(t, res)), "<p>static reset</p>", "body mismatch")
	})

	t.Run("absent", func(t *testing.T) {
		a := app.NewTest()
		a.Assets = fstest.MapFS{}
		server := MustNewServer(t, &a)

		req := testutils.MakeReq(server.URL, "GET", "/reset-password.html", "")
		req.Header.Set("Accept", "text/html")
		res := testutils.HTTPDo(t, req)

		assert.StatusCodeEquals(t, res, http.StatusNotFound, "")
		assert.Equal(t, string(testutils.ReadBody(t, res)), string(a.NotFoundPage), "body mismatch")
	})
}
