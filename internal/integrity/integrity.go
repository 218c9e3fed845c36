// Package integrity computes and checks self-describing content digests of
// the form "sha256-<base64>", the same encoding used by Subresource
// Integrity and Nix's SRI hashes.
package integrity

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Algorithm is the only digest algorithm produced and accepted.
const Algorithm = "sha256"

// ChunkSize is the read size used when streaming content into the digest.
const ChunkSize = 32 * 1024

// ErrMismatch is returned by Verify when content does not match the digest.
var ErrMismatch = errors.New("integrity mismatch")

// Integrity is a parsed integrity string.
type Integrity struct {
	Algorithm string
	Digest    []byte
}

// String renders the integrity string, e.g. "sha256-47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU=".
func (i Integrity) String() string {
	return i.Algorithm + "-" + base64.StdEncoding.EncodeToString(i.Digest)
}

// Equal reports whether both values carry the same algorithm and digest.
func (i Integrity) Equal(other Integrity) bool {
	return i.Algorithm == other.Algorithm && bytes.Equal(i.Digest, other.Digest)
}

// Parse decodes an integrity string.
func Parse(s string) (Integrity, error) {
	alg, encoded, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Integrity{}, fmt.Errorf("integrity %q: missing algorithm prefix", s)
	}
	if alg != Algorithm {
		return Integrity{}, fmt.Errorf("integrity %q: unsupported algorithm %q", s, alg)
	}
	digest, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Integrity{}, fmt.Errorf("integrity %q: decoding digest: %w", s, err)
	}
	if len(digest) != sha256.Size {
		return Integrity{}, fmt.Errorf("integrity %q: digest is %d bytes, want %d", s, len(digest), sha256.Size)
	}
	return Integrity{Algorithm: alg, Digest: digest}, nil
}

// FromReader streams r into a SHA-256 accumulator one chunk at a time and
// returns the resulting integrity. Only a single chunk is held in memory.
func FromReader(r io.Reader) (Integrity, error) {
	h := sha256.New()
	buf := make([]byte, ChunkSize)
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			// hash.Hash.Write never returns an error.
			h.Write(buf[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return Integrity{}, fmt.Errorf("reading content stream: %w", readErr)
		}
	}
	return Integrity{Algorithm: Algorithm, Digest: h.Sum(nil)}, nil
}

// FromBytes returns the integrity of an in-memory payload.
func FromBytes(data []byte) Integrity {
	sum := sha256.Sum256(data)
	return Integrity{Algorithm: Algorithm, Digest: sum[:]}
}

// Verify streams r and checks it against i.
func (i Integrity) Verify(r io.Reader) error {
	actual, err := FromReader(r)
	if err != nil {
		return err
	}
	if !i.Equal(actual) {
		return fmt.Errorf("%w: expected %s, got %s", ErrMismatch, i, actual)
	}
	return nil
}
