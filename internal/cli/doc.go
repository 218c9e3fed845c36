// Package cli defines the Cobra command tree for the typo3nix CLI. Each file
// in this package registers one top-level command (update, verify, diff,
// etc.) with the root command. Command implementations delegate to internal
// packages for the work and only handle flags, configuration and output.
package cli
