// Package pipeline builds the extension manifest. Run pages through the
// registry catalog one page at a time and resolves every entry on its own
// goroutine: a hash from the previous manifest is reused when the version is
// unchanged, otherwise the artifact is streamed through a SHA-256 digest.
// When all resolvers have finished, the key-sorted manifest is written.
//
// A StopFlag provides cooperative cancellation. Once requested, no further
// pages are fetched, but every resolver already started runs to completion
// and the manifest is still written.
package pipeline
