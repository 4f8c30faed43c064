package resolver

import (
	"sort"

	"cfmods/catalog"
)

// VersionSet is the set of acceptable game versions.
type VersionSet map[string]struct{}

// NewVersionSet builds a set; a single version is a singleton set.
func NewVersionSet(versions ...string) VersionSet {
	set := make(VersionSet, len(versions))
	for _, v := range versions {
		set[v] = struct{}{}
	}
	return set
}

func (s VersionSet) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

// Sorted lists the versions for display.
func (s VersionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Rejection explains why a file was skipped.
type Rejection int

const (
	Accepted Rejection = iota
	UntaggedForFabric
	WrongModLoader
	WrongGameVersion
)

func (r Rejection) String() string {
	switch r {
	case Accepted:
		return "ok"
	case UntaggedForFabric:
		return "untagged (forge only)"
	case WrongModLoader:
		return "other modloader"
	case WrongGameVersion:
		return "game version not requested"
	default:
		return "unknown"
	}
}

// Check applies the selection rules to a single file.
func Check(f catalog.FileRecord, loader catalog.ModLoader, versions VersionSet) Rejection {
	if f.ModLoader == catalog.ModLoaderNone && loader == catalog.ModLoaderFabric {
		return UntaggedForFabric
	}
	if (f.ModLoader == catalog.ModLoaderForge && loader == catalog.ModLoaderFabric) ||
		(f.ModLoader == catalog.ModLoaderFabric && loader == catalog.ModLoaderForge) {
		return WrongModLoader
	}
	if !versions.Contains(f.GameVersion) {
		return WrongGameVersion
	}
	return Accepted
}

// SelectFile returns the first file in catalog order that passes Check.
// Files tagged with a loader outside forge/fabric are not excluded by the
// loader rules.
func SelectFile(mod catalog.ModRecord, loader catalog.ModLoader, versions VersionSet) (catalog.FileRecord, bool) {
	for _, f := range mod.Files {
		if Check(f, loader, versions) == Accepted {
			return f, true
		}
	}
	return catalog.FileRecord{}, false
}
