package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Load reads the manifest at path. A missing file yields an empty manifest
// and no error: a first run simply has nothing to reuse.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	m, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}

// Decode parses a manifest from r.
func Decode(r io.Reader) (Manifest, error) {
	m := Manifest{}
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		// A literal "null" document.
		m = Manifest{}
	}
	return m, nil
}

// Encode writes m as pretty-printed JSON with keys in sorted order. HTML
// characters in descriptions are written verbatim.
func Encode(w io.Writer, m Manifest) error {
	// Copy so a nil compatibility list can be written as [] without
	// touching the caller's records.
	out := make(Manifest, len(m))
	for key, rec := range m {
		if rec.Compatibility == nil {
			rec.Compatibility = []int{}
		}
		out[key] = rec
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return nil
}

// Save replaces the manifest file at path with m. The new content is
// written next to path and renamed over it, so readers never observe a
// half-written manifest. An existing file keeps its permissions.
func Save(path string, m Manifest) error {
	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		return err
	}

	perm := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing manifest %s: %w", path, err)
	}
	return nil
}
