// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
	RegistryURL string `yaml:"registry_url"`
	DownloadURL string `yaml:"download_url"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:     "typo3nix",
			DisplayName: "typo3nix",
			Description: "Generate a hashed TYPO3 extension manifest for Nix",
			HomeDir:     ".typo3nix",
			EnvPrefix:   "TYPO3NIX",
			RegistryURL: "https://extensions.typo3.org/api/v1",
			DownloadURL: "https://extensions.typo3.org",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "typo3nix").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".typo3nix").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "TYPO3NIX").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// RegistryURL returns the default base URL of the extension registry API.
func RegistryURL() string { load(); return defaults.RegistryURL }

// DownloadURL returns the default base URL artifact downloads are served from.
func DownloadURL() string { load(); return defaults.DownloadURL }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("user") → "TYPO3NIX_USER".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
