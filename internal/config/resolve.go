package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/typo3nix/typo3nix/internal/branding"
)

// Keys understood by Resolve. Each maps to a TYPO3NIX_<KEY> env var.
const (
	KeyUser        = "user"
	KeyPassword    = "password"
	KeyTestMode    = "test_mode"
	KeyRegistryURL = "registry_url"
	KeyDownloadURL = "download_url"
	KeyPerPage     = "per_page"
	KeyManifest    = "manifest"
	KeyLogLevel    = "log_level"
)

const (
	// DefaultPerPage is the catalog page size used outside test mode.
	DefaultPerPage = 50

	// DefaultManifestPath is where the manifest is read from and written to.
	DefaultManifestPath = "extensions.json"
)

// Config is the resolved run configuration. It is built once at startup and
// passed by pointer to everything that needs it.
type Config struct {
	User         string
	Password     string
	TestMode     bool
	RegistryURL  string
	DownloadURL  string
	PerPage      int
	ManifestPath string
	LogLevel     string
}

// ConfigError reports a missing or unusable setting.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s %s", branding.EnvVar(e.Key), e.Reason)
}

// Resolve reads the current viper state into a Config. Load must have been
// called first.
func Resolve() (*Config, error) {
	cfg := &Config{
		User:         viper.GetString(KeyUser),
		Password:     viper.GetString(KeyPassword),
		TestMode:     strings.TrimSpace(viper.GetString(KeyTestMode)) == "1",
		RegistryURL:  strings.TrimRight(viper.GetString(KeyRegistryURL), "/"),
		DownloadURL:  strings.TrimRight(viper.GetString(KeyDownloadURL), "/"),
		ManifestPath: viper.GetString(KeyManifest),
		LogLevel:     viper.GetString(KeyLogLevel),
	}

	if cfg.User == "" {
		return nil, &ConfigError{Key: KeyUser, Reason: "not set"}
	}
	if cfg.Password == "" {
		return nil, &ConfigError{Key: KeyPassword, Reason: "not set"}
	}
	if cfg.RegistryURL == "" {
		return nil, &ConfigError{Key: KeyRegistryURL, Reason: "is empty"}
	}
	if cfg.DownloadURL == "" {
		return nil, &ConfigError{Key: KeyDownloadURL, Reason: "is empty"}
	}
	if cfg.ManifestPath == "" {
		cfg.ManifestPath = DefaultManifestPath
	}

	perPage, err := strconv.Atoi(strings.TrimSpace(viper.GetString(KeyPerPage)))
	if err != nil || perPage <= 0 {
		return nil, &ConfigError{Key: KeyPerPage, Reason: fmt.Sprintf("must be a positive integer, got %q", viper.GetString(KeyPerPage))}
	}
	cfg.PerPage = perPage

	if cfg.TestMode {
		cfg.PerPage = 1
	}

	return cfg, nil
}
