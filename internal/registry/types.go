package registry

// CatalogEntry is one published extension as reported by the catalog.
type CatalogEntry struct {
	Key            string         `json:"key"`
	CurrentVersion CurrentVersion `json:"current_version"`
}

// CurrentVersion holds the metadata of an extension's latest release.
type CurrentVersion struct {
	Number        string `json:"number"`
	Description   string `json:"description"`
	TYPO3Versions []int  `json:"typo3_versions"`
}

// PageResponse is one page of the extension listing.
type PageResponse struct {
	Results    int            `json:"results"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
	Extensions []CatalogEntry `json:"extensions"`
}

// PageCount returns how many pages of perPage entries hold total results.
func PageCount(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
