package manifest

import (
	"slices"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ChangeKind classifies how an extension differs between two manifests.
type ChangeKind string

const (
	Added      ChangeKind = "added"
	Removed    ChangeKind = "removed"
	Upgraded   ChangeKind = "upgraded"
	Downgraded ChangeKind = "downgraded"
	// Changed covers version strings that are not semver and records whose
	// version stayed the same while the hash or metadata moved.
	Changed ChangeKind = "changed"
)

// Change describes one differing key.
type Change struct {
	Key        string
	Kind       ChangeKind
	OldVersion string
	NewVersion string
}

// Diff compares two manifests and returns the changes sorted by key.
// Identical records are omitted.
func Diff(old, updated Manifest) []Change {
	keys := make([]string, 0, len(updated))
	for k := range updated {
		keys = append(keys, k)
	}
	for k := range old {
		if _, ok := updated[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var changes []Change
	for _, key := range keys {
		before, hadBefore := old[key]
		after, hasAfter := updated[key]

		switch {
		case !hadBefore:
			changes = append(changes, Change{Key: key, Kind: Added, NewVersion: after.Version})
		case !hasAfter:
			changes = append(changes, Change{Key: key, Kind: Removed, OldVersion: before.Version})
		case before.Version != after.Version:
			changes = append(changes, Change{
				Key:        key,
				Kind:       classifyVersions(before.Version, after.Version),
				OldVersion: before.Version,
				NewVersion: after.Version,
			})
		case !sameRecord(before, after):
			changes = append(changes, Change{Key: key, Kind: Changed, OldVersion: before.Version, NewVersion: after.Version})
		}
	}
	return changes
}

// Summarize counts changes per kind.
func Summarize(changes []Change) map[ChangeKind]int {
	counts := make(map[ChangeKind]int)
	for _, c := range changes {
		counts[c.Kind]++
	}
	return counts
}

func classifyVersions(oldVersion, newVersion string) ChangeKind {
	ov, err := parseSemver(oldVersion)
	if err != nil {
		return Changed
	}
	nv, err := parseSemver(newVersion)
	if err != nil {
		return Changed
	}
	switch ov.Compare(nv) {
	case -1:
		return Upgraded
	case 1:
		return Downgraded
	default:
		// "1.0" vs "1.0.0": equal as semver but different strings.
		return Changed
	}
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(version, "v"))
}

func sameRecord(a, b Record) bool {
	return a.Version == b.Version &&
		a.Description == b.Description &&
		a.Hash == b.Hash &&
		slices.Equal(a.Compatibility, b.Compatibility)
}
