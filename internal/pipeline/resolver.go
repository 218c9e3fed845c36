package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/typo3nix/typo3nix/internal/manifest"
	"github.com/typo3nix/typo3nix/internal/registry"
)

// Source is the registry surface the pipeline needs. *registry.Client
// satisfies it.
type Source interface {
	FetchPage(ctx context.Context, page, perPage int) (*registry.PageResponse, error)
	DownloadURL(key, version string) string
	Hash(ctx context.Context, artifactURL string) (string, error)
}

// resolver turns catalog entries into manifest records.
type resolver struct {
	src    Source
	prior  manifest.Manifest
	out    *results
	failed *failures
	logger *slog.Logger

	reused atomic.Int64
	hashed atomic.Int64
}

// resolve builds the record for one entry and stores it in the shared
// results. On a failed download the entry is left out, the failure is
// logged and recorded, and an *EntryError is returned.
func (r *resolver) resolve(ctx context.Context, entry registry.CatalogEntry) error {
	key := entry.Key
	version := entry.CurrentVersion.Number
	artifactURL := r.src.DownloadURL(key, version)

	var old *manifest.Record
	if rec, ok := r.prior.Get(key); ok {
		old = &rec
	}

	var hash string
	switch Decide(old, entry) {
	case Reuse:
		hash = old.Hash
		r.reused.Add(1)
	default:
		sum, err := r.src.Hash(ctx, artifactURL)
		if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
			// The run is being aborted for another reason.
			return err
		}
		if err != nil {
			r.logger.Error("Unable to calculate hash", "key", key, "version", version, "error", err)
			entryErr := &EntryError{Key: key, Err: err}
			r.failed.add(entryErr)
			return entryErr
		}
		hash = sum
		r.hashed.Add(1)
		r.logger.Debug("Hashed artifact", "key", key, "version", version, "hash", hash)
	}

	rec := manifest.Record{
		Version:       version,
		Compatibility: append([]int{}, entry.CurrentVersion.TYPO3Versions...),
		Description:   firstLine(entry.CurrentVersion.Description),
		Hash:          hash,
	}
	if !r.out.insert(key, rec) {
		r.logger.Warn("Duplicate extension key in catalog, keeping first record", "key", key)
	}
	return nil
}

// firstLine returns s up to its first line break.
func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSuffix(line, "\r")
}
