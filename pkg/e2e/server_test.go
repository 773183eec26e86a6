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

package main

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/userhub/userhub/pkg/assert"
)

var testServerBinary string

func TestMain(m *testing.M) {
	tmpDir, err := os.MkdirTemp("", "userhub-e2e")
	if err != nil {
		panic(errors.Wrap(err, "creating temp dir"))
	}

	testServerBinary = filepath.Join(tmpDir, "userhub-test-server")
	buildCmd := exec.Command("go", "build", "-o", testServerBinary, "../server")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		panic(fmt.Sprintf("failed to build server: %v\n%s", err, out))
	}

	code := m.Run()

	os.RemoveAll(tmpDir)
	os.Exit(code)
}

func freePort(t *testing.T) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(errors.Wrap(err, "finding a free port"))
	}
	defer ln.Close()

	return fmt.Sprintf("%d", ln.Addr().(*net.TCPAddr).Port)
}

// startServer runs the server binary and waits until it answers health checks
func startServer(t *testing.T, env ...string) (*exec.Cmd, string) {
	port := freePort(t)

	cmd := exec.Command(testServerBinary, "start", "--port", port, "--logLevel", "error")
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(),
		"BASE_URL=http://localhost:"+port,
		"APP_ENV=PRODUCTION",
		"XDG_CONFIG_HOME="+t.TempDir(),
	)
	cmd.Env = append(cmd.Env, env...)

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}

	t.Cleanup(func() {
		if cmd.ProcessState == nil {
			cmd.Process.Kill()
			cmd.Wait()
		}
	})

	baseURL := "http://127.0.0.1:" + port
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		res, err := http.Get(baseURL + "/health")
		if err == nil {
			res.Body.Close()
			if res.StatusCode == http.StatusOK {
				return cmd, baseURL
			}
		}

		time.Sleep(100 * time.Millisecond)
	}

	t.Fatal("server did not become healthy")
	return nil, ""
}

func get(t *testing.T, url string) (int, string) {
	res, err := http.Get(url)
	if err != nil {
		t.Fatal(errors.Wrapf(err, "requesting %s", url))
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading body"))
	}

	return res.StatusCode, string(body)
}

func TestServerPages(t *testing.T) {
	_, baseURL := startServer(t)

	status, body := get(t, baseURL+"/test/connection")
	assert.Equal(t, status, http.StatusOK, "connection status mismatch")
	assert.StringContains(t, body, "SUCCESS", "connection page mismatch")

	status, body = get(t, baseURL+"/reset-password")
	assert.Equal(t, status, http.StatusOK, "reset password status mismatch")
	assert.StringContains(t, body, "Reset your password", "embedded page should be served")

	status, _ = get(t, baseURL+"/api/users/test")
	assert.Equal(t, status, http.StatusOK, "users test status mismatch")
}

func TestServerAssetsDir(t *testing.T) {
	dir := t.TempDir()

	_, baseURL := startServer(t, "ASSETS_DIR="+dir)

	status, body := get(t, baseURL+"/reset-password")
	assert.Equal(t, status, http.StatusOK, "fallback status mismatch")
	assert.StringContains(t, body, "/reset-password.html", "fallback page mismatch")

	if err := os.WriteFile(filepath.Join(dir, "reset-password.html"), []byte("<p>custom</p>"), 0644); err != nil {
		t.Fatal(errors.Wrap(err, "writing page"))
	}

	status, body = get(t, baseURL+"/reset-password")
	assert.Equal(t, status, http.StatusOK, "page status mismatch")
	assert.Equal(t, body, "<p>custom</p>", "page mismatch")
}

func TestServerGracefulShutdown(t *testing.T) {
	cmd, _ := startServer(t)

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		t.Fatal(errors.Wrap(err, "sending SIGTERM"))
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		assert.Equal(t, err, nil, "server should exit cleanly")
	case <-time.After(15 * time.Second):
		t.Fatal("server did not exit after SIGTERM")
	}
}

func TestServerVersion(t *testing.T) {
	output, err := exec.Command(testServerBinary, "version").CombinedOutput()
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	assert.Equal(t, strings.HasPrefix(string(output), "userhub-server "), true, "version output mismatch")
}

func TestServerInvalidConfig(t *testing.T) {
	cmd := exec.Command(testServerBinary, "start", "--port", "not-a-port")
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), "XDG_CONFIG_HOME="+t.TempDir())

	output, err := cmd.CombinedOutput()

	assert.NotEqual(t, err, nil, "expected a non-zero exit")
	assert.StringContains(t, string(output), "Invalid Port", "error should be printed")
}

func TestServerDefaultConfigFile(t *testing.T) {
	configHome := t.TempDir()
	path := filepath.Join(configHome, "userhub", "server.yml")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(errors.Wrap(err, "creating config dir"))
	}
	if err := os.WriteFile(path, []byte("logLevel: warn\n"), 0644); err != nil {
		t.Fatal(errors.Wrap(err, "writing config file"))
	}

	// Later entries win over the XDG_CONFIG_HOME set by startServer
	_, baseURL := startServer(t, "XDG_CONFIG_HOME="+configHome)

	status, _ := get(t, baseURL+"/health")
	assert.Equal(t, status, http.StatusOK, "health status mismatch")
}
