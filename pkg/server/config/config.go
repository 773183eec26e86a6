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

package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/userhub/userhub/pkg/server/log"
	"gopkg.in/yaml.v2"
)

const (
	// AppEnvProduction represents an app environment for production.
	AppEnvProduction string = "PRODUCTION"
	// AppEnvTest represents an app environment for tests.
	AppEnvTest string = "TEST"
	// DefaultPort is the port the server listens on when none is configured
	DefaultPort = "3001"
	// DefaultBaseURL is the base URL used when none is configured
	DefaultBaseURL = "http://localhost:3001"
	// DotEnvFile is the file environment variables are loaded from, if present
	DotEnvFile = ".env"
	// AppName is the directory name used under the XDG base directories
	AppName = "userhub"
	// DefaultConfigFilename is the config file looked up when no path is given
	DefaultConfigFilename = "server.yml"
)

var (
	// ErrBaseURLInvalid is an error for an incomplete configuration with invalid base url
	ErrBaseURLInvalid = errors.New("Invalid BaseURL")
	// ErrPortInvalid is an error for an incomplete configuration with invalid port
	ErrPortInvalid = errors.New("Invalid Port")
	// ErrLogLevelInvalid is an error for an unknown log level
	ErrLogLevelInvalid = errors.New("Invalid LogLevel")
	// ErrAssetsDirInvalid is an error for an assets directory that cannot be used
	ErrAssetsDirInvalid = errors.New("Invalid AssetsDir")
	// ErrRateLimitInvalid is an error for a rate limit setting that is not a boolean
	ErrRateLimitInvalid = errors.New("Invalid RateLimit")
	// ErrTrustProxyInvalid is an error for a trust proxy setting that is not a boolean
	ErrTrustProxyInvalid = errors.New("Invalid TrustProxy")
)

// fileParams is the shape of the optional YAML configuration file
type fileParams struct {
	AppEnv     string `yaml:"appEnv"`
	Port       string `yaml:"port"`
	BaseURL    string `yaml:"baseUrl"`
	LogLevel   string `yaml:"logLevel"`
	AssetsDir  string `yaml:"assetsDir"`
	RateLimit  *bool  `yaml:"rateLimit"`
	TrustProxy *bool  `yaml:"trustProxy"`
}

// getOrEnv returns value if non-empty, otherwise env var, otherwise the
// value from the config file, otherwise default
func getOrEnv(value, envKey, fileVal, defaultVal string) string {
	if value != "" {
		return value
	}
	if env := os.Getenv(envKey); env != "" {
		return env
	}
	if fileVal != "" {
		return fileVal
	}
	return defaultVal
}

// getBool resolves a boolean setting with the same precedence as getOrEnv.
// An env var that is set but is not a boolean is reported as errInvalid.
func getBool(value *bool, envKey string, fileVal *bool, defaultVal bool, errInvalid error) (bool, error) {
	if value != nil {
		return *value, nil
	}
	if env := os.Getenv(envKey); env != "" {
		b, err := strconv.ParseBool(env)
		if err != nil {
			return false, errors.Wrapf(errInvalid, "%s='%s'", envKey, env)
		}

		return b, nil
	}
	if fileVal != nil {
		return *fileVal, nil
	}
	return defaultVal, nil
}

// Config is an application configuration
type Config struct {
	AppEnv     string
	Port       string
	BaseURL    string
	LogLevel   string
	AssetsDir  string
	RateLimit  bool
	// TrustProxy makes client IPs come from X-Forwarded-For and X-Real-IP.
	// Only enable it behind a proxy that overwrites both headers.
	TrustProxy bool
}

// Params are the configuration parameters for creating a new Config
type Params struct {
	AppEnv     string
	Port       string
	BaseURL    string
	LogLevel   string
	AssetsDir  string
	// RateLimit and TrustProxy are nil when the flag was not given
	RateLimit  *bool
	TrustProxy *bool
	// ConfigPath is a path to a YAML configuration file. When empty,
	// DefaultConfigPath is read if it exists.
	ConfigPath string
}

// LoadDotEnv loads variables from a .env file in the working directory
// without overriding those already set. A missing file is not an error.
func LoadDotEnv() error {
	if _, err := os.Stat(DotEnvFile); os.IsNotExist(err) {
		return nil
	}

	if err := godotenv.Load(DotEnvFile); err != nil {
		return errors.Wrapf(err, "loading %s", DotEnvFile)
	}

	log.WithFields(log.Fields{
		"file": DotEnvFile,
	}).Debug("Loaded environment file")

	return nil
}

// DefaultConfigPath returns the config file read when --config is not given
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, DefaultConfigFilename)
}

func readFile(path string) (fileParams, error) {
	var ret fileParams

	if path == "" {
		path = DefaultConfigPath()
		if _, err := os.Stat(path); err != nil {
			return ret, nil
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return ret, errors.Wrapf(err, "reading config file '%s'", path)
	}
	if err := yaml.Unmarshal(b, &ret); err != nil {
		return ret, errors.Wrapf(err, "parsing config file '%s'", path)
	}

	return ret, nil
}

// New constructs and returns a new validated config.
// Empty string params will fall back to environment variables, the config
// file and defaults, in that order.
func New(p Params) (Config, error) {
	f, err := readFile(p.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	rateLimit, err := getBool(p.RateLimit, "RATE_LIMIT", f.RateLimit, true, ErrRateLimitInvalid)
	if err != nil {
		return Config{}, err
	}
	trustProxy, err := getBool(p.TrustProxy, "TRUST_PROXY", f.TrustProxy, false, ErrTrustProxyInvalid)
	if err != nil {
		return Config{}, err
	}

	c := Config{
		AppEnv:     getOrEnv(p.AppEnv, "APP_ENV", f.AppEnv, AppEnvProduction),
		Port:       getOrEnv(p.Port, "PORT", f.Port, DefaultPort),
		BaseURL:    getOrEnv(p.BaseURL, "BASE_URL", f.BaseURL, DefaultBaseURL),
		LogLevel:   getOrEnv(p.LogLevel, "LOG_LEVEL", f.LogLevel, log.LevelInfo),
		AssetsDir:  getOrEnv(p.AssetsDir, "ASSETS_DIR", f.AssetsDir, ""),
		RateLimit:  rateLimit,
		TrustProxy: trustProxy,
	}

	if err := validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

// IsProd checks if the app environment is configured to be production.
func (c Config) IsProd() bool {
	return c.AppEnv == AppEnvProduction
}

// IsTest checks if the app environment is configured to be test.
func (c Config) IsTest() bool {
	return c.AppEnv == AppEnvTest
}

func validate(c Config) error {
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return errors.Wrapf(ErrBaseURLInvalid, "'%s'", c.BaseURL)
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return errors.Wrapf(ErrPortInvalid, "'%s'", c.Port)
	}
	if !log.IsValidLevel(c.LogLevel) {
		return errors.Wrapf(ErrLogLevelInvalid, "'%s'", c.LogLevel)
	}
	if c.AssetsDir != "" {
		info, err := os.Stat(c.AssetsDir)
		if err != nil || !info.IsDir() {
			return errors.Wrapf(ErrAssetsDirInvalid, "'%s'", c.AssetsDir)
		}
	}

	return nil
}
