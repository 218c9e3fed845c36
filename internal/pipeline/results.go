package pipeline

import (
	"sync"

	"github.com/typo3nix/typo3nix/internal/manifest"
)

// results is the manifest under construction, shared by all resolvers.
type results struct {
	mu      sync.Mutex
	records manifest.Manifest
}

func newResults(capacity int) *results {
	return &results{records: make(manifest.Manifest, capacity)}
}

// insert stores rec under key. It returns false, leaving the stored record
// untouched, if key was already present.
func (r *results) insert(key string, rec manifest.Record) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[key]; exists {
		return false
	}
	r.records[key] = rec
	return true
}

// snapshot returns a copy of the records collected so far.
func (r *results) snapshot() manifest.Manifest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(manifest.Manifest, len(r.records))
	for k, v := range r.records {
		out[k] = v
	}
	return out
}
