package pipeline

import (
	"github.com/typo3nix/typo3nix/internal/manifest"
	"github.com/typo3nix/typo3nix/internal/registry"
)

// Decision is the outcome of the cache check for one catalog entry.
type Decision int

const (
	// Recompute means the artifact must be downloaded and hashed.
	Recompute Decision = iota
	// Reuse means the previous manifest's hash is still valid.
	Reuse
)

func (d Decision) String() string {
	if d == Reuse {
		return "reuse"
	}
	return "recompute"
}

// Decide reports whether old, the previous record for entry's key (nil when
// there is none), still carries a valid hash. Versions are compared as plain
// strings.
func Decide(old *manifest.Record, entry registry.CatalogEntry) Decision {
	if old == nil {
		return Recompute
	}
	if old.Version != entry.CurrentVersion.Number || old.Hash == "" {
		return Recompute
	}
	return Reuse
}
