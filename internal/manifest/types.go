package manifest

import "sort"

// Record is the manifest entry of one extension.
type Record struct {
	Version       string `json:"version"`
	Compatibility []int  `json:"t3_versions"`
	Description   string `json:"description"`
	Hash          string `json:"hash"`
}

// Manifest maps extension keys to records. Serialization always emits keys in
// sorted order, whatever order they were inserted in.
type Manifest map[string]Record

// Keys returns the manifest keys in sorted order.
func (m Manifest) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the record stored under key.
func (m Manifest) Get(key string) (Record, bool) {
	rec, ok := m[key]
	return rec, ok
}
