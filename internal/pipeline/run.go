package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/typo3nix/typo3nix/internal/manifest"
	"github.com/typo3nix/typo3nix/internal/registry"
)

// Options configures a Run.
type Options struct {
	// ManifestPath is read for cached hashes and rewritten on success.
	ManifestPath string
	// PerPage is the catalog page size.
	PerPage int
	// TestMode stops after scheduling the first page and returns without
	// waiting for resolvers or writing anything.
	TestMode bool
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Result summarizes a Run.
type Result struct {
	Manifest     manifest.Manifest // nil in test mode
	Prior        manifest.Manifest
	Pages        int // total pages reported by the catalog
	PagesFetched int
	Entries      int // resolvers scheduled
	Reused       int
	Hashed       int
	Cancelled    bool
	TestMode     bool
	Written      bool
}

// Run walks the catalog and writes the manifest. Page fetch failures abort
// the run at once and nothing is written. Entry failures are collected; when
// any occurred, Run returns a *FailedEntriesError after all resolvers have
// finished, and nothing is written either.
func Run(ctx context.Context, src Source, stop *StopFlag, opts Options) (*Result, error) {
	if opts.PerPage <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", opts.PerPage)
	}
	if opts.ManifestPath == "" {
		return nil, errors.New("manifest path is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if stop == nil {
		stop = &StopFlag{}
	}

	prior, err := manifest.Load(opts.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("loading previous manifest: %w", err)
	}

	res := &resolver{
		src:    src,
		prior:  prior,
		out:    newResults(len(prior)),
		failed: &failures{},
		logger: logger,
	}
	result := &Result{Prior: prior}

	// Resolvers get their own context so that a fatal page error can abort
	// downloads still in flight. A stop request never cancels it.
	workCtx, cancelWork := context.WithCancel(ctx)
	var g errgroup.Group

	page, pages := 1, 1
	for page <= pages {
		if stop.Requested() {
			logger.Info("Stop requested, not fetching further pages", "page", page, "pages", pages)
			result.Cancelled = true
			break
		}

		logger.Info("At page", "page", page, "pages", pages)
		resp, err := src.FetchPage(ctx, page, opts.PerPage)
		if err != nil {
			cancelWork()
			_ = g.Wait()
			return nil, fmt.Errorf("failed to read catalog page %d: %w", page, err)
		}
		if page == 1 {
			pages = registry.PageCount(resp.Results, opts.PerPage)
			result.Pages = pages
		}
		result.PagesFetched++

		for _, entry := range resp.Extensions {
			g.Go(func() error {
				return res.resolve(workCtx, entry)
			})
			result.Entries++
		}

		if opts.TestMode {
			// Resolvers are left running; the process is expected to exit.
			logger.Debug("Test mode, not waiting for resolvers", "scheduled", result.Entries)
			go func() {
				_ = g.Wait()
				cancelWork()
			}()
			result.TestMode = true
			return result, nil
		}
		page++
	}

	logger.Info("Waiting for remaining hash calculations...", "scheduled", result.Entries)
	waitErr := g.Wait()
	cancelWork()
	result.Reused = int(res.reused.Load())
	result.Hashed = int(res.hashed.Load())
	if waitErr != nil {
		if err := res.failed.err(); err != nil {
			return nil, err
		}
		return nil, waitErr
	}

	result.Manifest = res.out.snapshot()
	if result.PagesFetched == 0 {
		logger.Warn("No catalog page was fetched, keeping the existing manifest", "path", opts.ManifestPath)
		return result, nil
	}

	if err := manifest.Save(opts.ManifestPath, result.Manifest); err != nil {
		return nil, err
	}
	result.Written = true
	logger.Info("Wrote manifest", "path", opts.ManifestPath, "extensions", len(result.Manifest),
		"reused", result.Reused, "hashed", result.Hashed)
	return result, nil
}
