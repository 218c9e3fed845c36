//go:build integration

package integration_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/typo3nix/typo3nix/internal/manifest"
	"github.com/typo3nix/typo3nix/internal/pipeline"
	"github.com/typo3nix/typo3nix/internal/registry"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func seedCatalog() *fakeTER {
	return newFakeTER(
		extension("news", "12.1.0", "Versatile news system\nbased on Extbase", 12, 13),
		extension("bootstrap_package", "15.0.1", "Bootstrap Package", 12, 13),
		extension("powermail", "12.4.0", "Powermail is a well-known form extension", 12),
		extension("solr", "12.0.5", "Apache Solr for TYPO3", 12),
		extension("container", "3.1.1", "Create custom container elements", 11, 12, 13),
		extension("mask", "8.3.2", "Create your own content elements", 12),
		extension("realurl", "2.6.0", "", 8, 9),
	)
}

// TestFullFlowIncrementalUpdate runs the pipeline twice against a live HTTP
// repository and checks that the second run only downloads what changed.
func TestFullFlowIncrementalUpdate(t *testing.T) {
	env := setupTestEnv(t)
	ter := seedCatalog()
	srv := ter.serve(t)
	opts := pipeline.Options{ManifestPath: env.Manifest, PerPage: 3, Logger: quiet}

	// Step 1: first run hashes everything.
	first, err := pipeline.Run(context.Background(), newClient(srv), nil, opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Pages != 3 || first.PagesFetched != 3 {
		t.Errorf("pages = %d/%d, want 3/3", first.PagesFetched, first.Pages)
	}
	if got := ter.zipHits.Load(); got != 7 {
		t.Errorf("downloads after first run = %d, want 7", got)
	}
	assertFileExists(t, env.Manifest)

	result, err := manifest.ValidateFile(env.Manifest)
	if err != nil {
		t.Fatalf("ValidateFile: %v", err)
	}
	if !result.Valid {
		t.Fatalf("written manifest is invalid: %+v", result.Issues)
	}

	m, err := manifest.Load(env.Manifest)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	news, _ := m.Get("news")
	if news.Description != "Versatile news system" {
		t.Errorf("news description = %q, want first line only", news.Description)
	}
	if news.Hash != artifactHash("news", "12.1.0") {
		t.Errorf("news hash = %q, want %q", news.Hash, artifactHash("news", "12.1.0"))
	}

	// Keys come out sorted regardless of catalog order.
	raw := readFile(t, env.Manifest)
	if strings.Index(raw, `"bootstrap_package"`) > strings.Index(raw, `"container"`) {
		t.Errorf("manifest keys are not sorted:\n%s", raw)
	}

	// Step 2: one release and one new extension.
	ter.setVersion("powermail", "13.0.0")
	ter.add(extension("blog", "12.0.0", "Blog for TYPO3", 12))
	before := ter.zipHits.Load()

	second, err := pipeline.Run(context.Background(), newClient(srv), nil, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := ter.zipHits.Load() - before; got != 2 {
		t.Errorf("downloads in second run = %d, want 2", got)
	}
	if second.Reused != 6 || second.Hashed != 2 {
		t.Errorf("reused/hashed = %d/%d, want 6/2", second.Reused, second.Hashed)
	}

	counts := manifest.Summarize(manifest.Diff(second.Prior, second.Manifest))
	if counts[manifest.Added] != 1 || counts[manifest.Upgraded] != 1 || len(counts) != 2 {
		t.Errorf("diff summary = %v, want 1 added and 1 upgraded", counts)
	}
	assertFileContains(t, env.Manifest, artifactHash("powermail", "13.0.0"))

	// Step 3: nothing changed, the file is byte-identical.
	settled := readFile(t, env.Manifest)
	if _, err := pipeline.Run(context.Background(), newClient(srv), nil, opts); err != nil {
		t.Fatalf("third run: %v", err)
	}
	if again := readFile(t, env.Manifest); again != settled {
		t.Errorf("manifest changed on an idempotent run:\n%s", again)
	}
}

// TestFailedDownloadKeepsManifest checks that a single failing artifact
// aborts the run without touching the existing manifest.
func TestFailedDownloadKeepsManifest(t *testing.T) {
	env := setupTestEnv(t)
	ter := seedCatalog()
	srv := ter.serve(t)
	opts := pipeline.Options{ManifestPath: env.Manifest, PerPage: 50, Logger: quiet}

	if _, err := pipeline.Run(context.Background(), newClient(srv), nil, opts); err != nil {
		t.Fatalf("seed run: %v", err)
	}
	original := readFile(t, env.Manifest)

	ter.setVersion("solr", "13.0.0")
	ter.breakArtifact("solr", http.StatusForbidden)

	_, err := pipeline.Run(context.Background(), newClient(srv), nil, opts)
	if err == nil {
		t.Fatal("expected an error for the broken artifact")
	}

	var failed *pipeline.FailedEntriesError
	if !errors.As(err, &failed) {
		t.Fatalf("error %T is not a FailedEntriesError: %v", err, err)
	}
	if len(failed.Entries) != 1 || failed.Entries[0].Key != "solr" {
		t.Errorf("failed entries = %+v, want only solr", failed.Entries)
	}
	var te *registry.TransferError
	if !errors.As(err, &te) || te.StatusCode != http.StatusForbidden {
		t.Errorf("expected a 403 TransferError, got %v", err)
	}

	if got := readFile(t, env.Manifest); got != original {
		t.Error("manifest was rewritten after a failed run")
	}
}

// stopAfterFirstPage requests a stop once the first page has been served.
type stopAfterFirstPage struct {
	*registry.Client
	stop *pipeline.StopFlag
}

func (s stopAfterFirstPage) FetchPage(ctx context.Context, page, perPage int) (*registry.PageResponse, error) {
	resp, err := s.Client.FetchPage(ctx, page, perPage)
	if page == 1 {
		s.stop.Request()
	}
	return resp, err
}

// TestStopWritesPartialManifest simulates Ctrl-C after the first page.
func TestStopWritesPartialManifest(t *testing.T) {
	env := setupTestEnv(t)
	ter := seedCatalog()
	srv := ter.serve(t)

	var stop pipeline.StopFlag
	src := stopAfterFirstPage{Client: newClient(srv), stop: &stop}
	result, err := pipeline.Run(context.Background(), src, &stop, pipeline.Options{
		ManifestPath: env.Manifest, PerPage: 3, Logger: quiet,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Cancelled || result.PagesFetched != 1 {
		t.Errorf("cancelled=%v pagesFetched=%d, want true/1", result.Cancelled, result.PagesFetched)
	}
	if got := ter.pageHits.Load(); got != 1 {
		t.Errorf("page requests = %d, want 1", got)
	}

	m, err := manifest.Load(env.Manifest)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m) != 3 {
		t.Errorf("partial manifest has %d entries, want 3", len(m))
	}
	for _, key := range m.Keys() {
		if rec, _ := m.Get(key); rec.Hash == "" {
			t.Errorf("%s was written without a hash", key)
		}
	}
}

// TestWrongCredentials checks that authentication failures surface on the
// first page.
func TestWrongCredentials(t *testing.T) {
	env := setupTestEnv(t)
	srv := seedCatalog().serve(t)
	client := registry.New(
		registry.WithBaseURL(srv.URL+"/api/v1"),
		registry.WithDownloadURL(srv.URL),
		registry.WithCredentials(testUser, "wrong"),
	)

	_, err := pipeline.Run(context.Background(), client, nil, pipeline.Options{
		ManifestPath: env.Manifest, PerPage: 50, Logger: quiet,
	})
	var te *registry.TransferError
	if !errors.As(err, &te) || te.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected a 401 TransferError, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed to read catalog page 1") {
		t.Errorf("error %q does not name the page", err)
	}
}

// TestPriorManifestOnDisk checks that hand-written manifests are honoured.
func TestPriorManifestOnDisk(t *testing.T) {
	env := setupTestEnv(t)
	ter := newFakeTER(extension("news", "12.1.0", "News", 12))
	srv := ter.serve(t)

	writeFile(t, env.Manifest, `{
  "news": {
    "version": "12.1.0",
    "t3_versions": [12],
    "description": "News",
    "hash": "`+artifactHash("news", "12.1.0")+`"
  }
}
`)

	result, err := pipeline.Run(context.Background(), newClient(srv), nil, pipeline.Options{
		ManifestPath: env.Manifest, PerPage: 50, Logger: quiet,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Reused != 1 || ter.zipHits.Load() != 0 {
		t.Errorf("reused=%d downloads=%d, want 1/0", result.Reused, ter.zipHits.Load())
	}
}
