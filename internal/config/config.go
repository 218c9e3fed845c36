package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/typo3nix/typo3nix/internal/branding"
)

const configFileType = "yaml"

// FileKeys are the keys `config set` may write. Credentials are left out so
// they stay in the environment.
var FileKeys = []string{KeyRegistryURL, KeyDownloadURL, KeyPerPage, KeyManifest, KeyLogLevel}

// Dir is the per-user settings directory, ~/.typo3nix.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath is the settings file inside Dir.
func FilePath() string {
	return filepath.Join(Dir(), "config."+configFileType)
}

// Load wires the global viper instance to the settings file, the
// TYPO3NIX_* environment and the built-in defaults. Variables from a .env
// file in the working directory are added to the environment first without
// overriding ones already set.
func Load() {
	_ = godotenv.Load()

	viper.SetConfigFile(FilePath())
	viper.SetConfigType(configFileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	for key, value := range defaults() {
		viper.SetDefault(key, value)
	}

	// A missing settings file is the normal first-run state.
	_ = viper.ReadInConfig()
}

func defaults() map[string]any {
	return map[string]any{
		KeyRegistryURL: branding.RegistryURL(),
		KeyDownloadURL: branding.DownloadURL(),
		KeyPerPage:     DefaultPerPage,
		KeyManifest:    DefaultManifestPath,
		KeyLogLevel:    "info",
	}
}

// Get returns the effective value of key, or "" when unset.
func Get(key string) string {
	return viper.GetString(key)
}

// Set stores key in the settings file, creating ~/.typo3nix on first use.
func Set(key, value string) error {
	if !slices.Contains(FileKeys, key) {
		return fmt.Errorf("unknown key %q (known keys: %v)", key, FileKeys)
	}

	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	viper.Set(key, value)
	if err := viper.WriteConfigAs(FilePath()); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
