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

package assets

import (
	"embed"
	"io/fs"
	"os"

	"github.com/pkg/errors"
)

//go:embed static
var staticFiles embed.FS

// GetStaticFS returns a filesystem for static files, with
// all files situated in the root of the filesystem
func GetStaticFS() (fs.FS, error) {
	subFs, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, errors.Wrap(err, "getting sub filesystem")
	}

	return subFs, nil
}

// NewFS returns the filesystem pages are served from. An empty dir selects
// the embedded files; otherwise the directory on disk replaces them entirely.
func NewFS(dir string) (fs.FS, error) {
	if dir == "" {
		return GetStaticFS()
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "inspecting assets directory '%s'", dir)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("'%s' is not a directory", dir)
	}

	return os.DirFS(dir), nil
}

func mustReadFile(name string) []byte {
	ret, err := staticFiles.ReadFile("static/" + name)
	if err != nil {
		panic(errors.Wrapf(err, "reading embedded file '%s'", name))
	}

	return ret
}

// MustGetHTTP500ErrorPage returns the content of HTML file for HTTP 500 error
func MustGetHTTP500ErrorPage() []byte {
	return mustReadFile("500.html")
}

// MustGetNotFoundPage returns the content of HTML file for HTTP 404 error
func MustGetNotFoundPage() []byte {
	return mustReadFile("404.html")
}
