package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/typo3nix/typo3nix/internal/config"
	"github.com/typo3nix/typo3nix/internal/integrity"
	"github.com/typo3nix/typo3nix/internal/manifest"
)

// Verification statuses.
const (
	statusOK       = "ok"
	statusMismatch = "mismatch"
	statusError    = "error"
	statusNoHash   = "no hash"
)

type verifyResult struct {
	Key     string
	Version string
	Status  string
	Detail  string
}

// artifactOpener is the part of registry.Client verify needs.
type artifactOpener interface {
	DownloadURL(key, version string) string
	Open(ctx context.Context, artifactURL string) (io.ReadCloser, error)
}

func newVerifyCmd() *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "verify [key...]",
		Short: "Re-download extensions and check their recorded hashes",
		Long: `Download the recorded release of each selected extension and compare its
digest with the hash stored in the manifest. Without arguments every entry
is checked. Entries without a hash are reported and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyFlagOverrides(cmd, map[string]string{"manifest": config.KeyManifest})

			cfg, err := config.Resolve()
			if err != nil {
				return err
			}
			if jobs <= 0 {
				return fmt.Errorf("--jobs must be positive, got %d", jobs)
			}

			m, err := manifest.Load(cfg.ManifestPath)
			if err != nil {
				return err
			}

			keys := args
			if len(keys) == 0 {
				keys = m.Keys()
			}
			for _, key := range keys {
				if _, ok := m.Get(key); !ok {
					return fmt.Errorf("extension %q not found in %s", key, cfg.ManifestPath)
				}
			}

			results := verifyEntries(cmd.Context(), newRegistryClient(cfg), m, keys, jobs)
			return printVerifyResults(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().String("manifest", "", "Manifest file to check (default extensions.json)")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 8, "Number of concurrent downloads")
	return cmd
}

// verifyEntries checks the given keys with at most jobs downloads in flight.
// Results are sorted by key.
func verifyEntries(ctx context.Context, src artifactOpener, m manifest.Manifest, keys []string, jobs int) []verifyResult {
	var (
		mu      sync.Mutex
		results = make([]verifyResult, 0, len(keys))
	)
	var g errgroup.Group
	g.SetLimit(jobs)

	for _, key := range keys {
		rec, _ := m.Get(key)
		g.Go(func() error {
			r := verifyEntry(ctx, src, key, rec)
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Key < results[j].Key })
	return results
}

func verifyEntry(ctx context.Context, src artifactOpener, key string, rec manifest.Record) verifyResult {
	r := verifyResult{Key: key, Version: rec.Version}
	if rec.Hash == "" {
		r.Status = statusNoHash
		return r
	}

	want, err := integrity.Parse(rec.Hash)
	if err != nil {
		r.Status = statusError
		r.Detail = err.Error()
		return r
	}

	body, err := src.Open(ctx, src.DownloadURL(key, rec.Version))
	if err != nil {
		r.Status = statusError
		r.Detail = err.Error()
		return r
	}
	defer func() {
		_ = body.Close()
	}()

	switch err := want.Verify(body); {
	case errors.Is(err, integrity.ErrMismatch):
		r.Status = statusMismatch
		r.Detail = err.Error()
	case err != nil:
		r.Status = statusError
		r.Detail = err.Error()
	default:
		r.Status = statusOK
	}
	return r
}

func printVerifyResults(out io.Writer, results []verifyResult) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KEY\tVERSION\tSTATUS\tDETAIL")

	var bad int
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Key, r.Version, r.Status, r.Detail)
		if r.Status == statusMismatch || r.Status == statusError {
			bad++
		}
	}
	w.Flush()

	if bad > 0 {
		return fmt.Errorf("%d of %d extensions failed verification", bad, len(results))
	}
	printer.Fprintf(out, "\nVerified %d extensions.\n", len(results))
	return nil
}
