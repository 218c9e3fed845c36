package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// EntryError is the failure to resolve one catalog entry.
type EntryError struct {
	Key string
	Err error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("unable to calculate hash of %s: %v", e.Key, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// FailedEntriesError collects every entry that failed during a run, sorted by key.
type FailedEntriesError struct {
	Entries []*EntryError
}

func (e *FailedEntriesError) Error() string {
	if len(e.Entries) == 1 {
		return e.Entries[0].Error()
	}
	keys := make([]string, len(e.Entries))
	for i, entry := range e.Entries {
		keys[i] = entry.Key
	}
	return fmt.Sprintf("%d extensions failed: %s (first: %v)", len(e.Entries), strings.Join(keys, ", "), e.Entries[0].Err)
}

// Unwrap exposes each entry failure to errors.Is and errors.As.
func (e *FailedEntriesError) Unwrap() []error {
	errs := make([]error, len(e.Entries))
	for i, entry := range e.Entries {
		errs[i] = entry
	}
	return errs
}

// failures accumulates entry errors from concurrent resolvers.
type failures struct {
	mu      sync.Mutex
	entries []*EntryError
}

func (f *failures) add(err *EntryError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, err)
}

// err returns nil when nothing failed.
func (f *failures) err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.entries) == 0 {
		return nil
	}
	entries := append([]*EntryError(nil), f.entries...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return &FailedEntriesError{Entries: entries}
}
