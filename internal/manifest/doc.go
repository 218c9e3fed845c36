// Package manifest reads, writes, validates and compares the extension
// manifest: a key-sorted JSON object mapping each extension key to its
// version, TYPO3 compatibility list, one-line description and integrity hash.
// The file doubles as the hash cache for the next run.
package manifest
