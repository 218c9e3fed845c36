// Package registry talks to the TYPO3 extension repository (TER) API. It pages
// through the extension catalog, builds artifact download URLs and streams
// artifacts into an integrity digest without buffering them. Every request
// carries the single basic-auth credential pair the Client was built with.
package registry
