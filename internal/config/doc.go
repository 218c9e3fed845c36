// Package config manages typo3nix settings. Values come from flags, the
// process environment (TYPO3NIX_*), an optional .env file in the working
// directory and the user config file at ~/.typo3nix/config.yaml, in that
// order of precedence. Resolve turns them into one immutable Config.
package config
