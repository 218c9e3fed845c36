package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/typo3nix/typo3nix/internal/integrity"
	"github.com/typo3nix/typo3nix/internal/registry"
)

// fakeSource is an in-memory catalog that records every call.
type fakeSource struct {
	catalog []registry.CatalogEntry

	// failHash makes Hash fail for the given keys.
	failHash map[string]error
	// failPage makes FetchPage fail for the given page numbers.
	failPage map[int]error
	// onPage runs after a page has been served.
	onPage func(page int)
	// gate, when set, blocks Hash until it is closed.
	gate chan struct{}

	mu        sync.Mutex
	pages     []int
	hashCalls map[string]int
	hashCtx   context.Context
}

func newFakeSource(entries ...registry.CatalogEntry) *fakeSource {
	return &fakeSource{catalog: entries, hashCalls: map[string]int{}}
}

func (f *fakeSource) FetchPage(_ context.Context, page, perPage int) (*registry.PageResponse, error) {
	f.mu.Lock()
	f.pages = append(f.pages, page)
	f.mu.Unlock()

	if err := f.failPage[page]; err != nil {
		return nil, err
	}

	resp := &registry.PageResponse{Results: len(f.catalog), Page: page, PerPage: perPage}
	start := (page - 1) * perPage
	for i := start; i < start+perPage && i < len(f.catalog); i++ {
		resp.Extensions = append(resp.Extensions, f.catalog[i])
	}
	if f.onPage != nil {
		f.onPage(page)
	}
	return resp, nil
}

func (f *fakeSource) DownloadURL(key, version string) string {
	return fmt.Sprintf("https://download.test/%s/%s/zip", key, version)
}

func (f *fakeSource) Hash(ctx context.Context, artifactURL string) (string, error) {
	f.mu.Lock()
	f.hashCalls[artifactURL]++
	f.hashCtx = ctx
	f.mu.Unlock()

	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	for key, err := range f.failHash {
		if strings.HasPrefix(artifactURL, urlPrefix(key)) {
			return "", err
		}
	}
	return artifactHash(artifactURL), nil
}

func urlPrefix(key string) string {
	return "https://download.test/" + key + "/"
}

func (f *fakeSource) hashCallsFor(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for u, n := range f.hashCalls {
		if strings.HasPrefix(u, urlPrefix(key)) {
			total += n
		}
	}
	return total
}

func (f *fakeSource) totalHashCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.hashCalls {
		total += n
	}
	return total
}

func (f *fakeSource) fetchedPages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.pages...)
}

// lastHashContext returns the context of the most recent Hash call.
func (f *fakeSource) lastHashContext() context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hashCtx
}

func artifactHash(artifactURL string) string {
	return integrity.FromBytes([]byte("artifact:" + artifactURL)).String()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
