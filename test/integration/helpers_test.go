//go:build integration

package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/typo3nix/typo3nix/internal/integrity"
	"github.com/typo3nix/typo3nix/internal/registry"
)

const (
	testUser     = "nix-builder"
	testPassword = "hunter2"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir  string // HOME, holds .typo3nix/config.yaml
	WorkDir  string // where extensions.json is written
	Manifest string
}

// setupTestEnv creates isolated temp directories and points HOME at one of
// them so no user config leaks into the run.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		HomeDir: t.TempDir(),
		WorkDir: t.TempDir(),
	}
	env.Manifest = filepath.Join(env.WorkDir, "extensions.json")
	t.Setenv("HOME", env.HomeDir)
	return env
}

// fakeTER is an in-memory extension repository. Its catalog can be edited
// between runs to simulate new releases.
type fakeTER struct {
	mu       sync.Mutex
	catalog  []registry.CatalogEntry
	broken   map[string]int // key -> HTTP status served for its artifact
	pageHits atomic.Int64
	zipHits  atomic.Int64
}

func newFakeTER(entries ...registry.CatalogEntry) *fakeTER {
	return &fakeTER{catalog: entries, broken: map[string]int{}}
}

func (f *fakeTER) setVersion(key, version string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.catalog {
		if f.catalog[i].Key == key {
			f.catalog[i].CurrentVersion.Number = version
		}
	}
}

func (f *fakeTER) add(entry registry.CatalogEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalog = append(f.catalog, entry)
}

func (f *fakeTER) breakArtifact(key string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broken[key] = status
}

// serve starts the repository behind basic auth with the API under /api/v1.
func (f *fakeTER) serve(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/extension", func(w http.ResponseWriter, r *http.Request) {
		f.pageHits.Add(1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

		f.mu.Lock()
		resp := registry.PageResponse{Results: len(f.catalog), Page: page, PerPage: perPage, Extensions: []registry.CatalogEntry{}}
		for i := (page - 1) * perPage; i < page*perPage && i < len(f.catalog); i++ {
			resp.Extensions = append(resp.Extensions, f.catalog[i])
		}
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/extension/download/{key}/{version}/zip", func(w http.ResponseWriter, r *http.Request) {
		f.zipHits.Add(1)
		key := r.PathValue("key")

		f.mu.Lock()
		status := f.broken[key]
		f.mu.Unlock()
		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		w.Write(artifactBody(key, r.PathValue("version")))
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != testUser || pass != testPassword {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func artifactBody(key, version string) []byte {
	return []byte(fmt.Sprintf("PK-fake-archive %s %s", key, version))
}

func artifactHash(key, version string) string {
	return integrity.FromBytes(artifactBody(key, version)).String()
}

// extension builds a catalog entry.
func extension(key, version, description string, typo3 ...int) registry.CatalogEntry {
	return registry.CatalogEntry{
		Key: key,
		CurrentVersion: registry.CurrentVersion{
			Number:        version,
			Description:   description,
			TYPO3Versions: typo3,
		},
	}
}

// newClient returns a registry client for srv.
func newClient(srv *httptest.Server) *registry.Client {
	return registry.New(
		registry.WithHTTPClient(srv.Client()),
		registry.WithBaseURL(srv.URL+"/api/v1"),
		registry.WithDownloadURL(srv.URL),
		registry.WithCredentials(testUser, testPassword),
	)
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// readFile returns the contents of path or fails the test.
func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
