package resolver

import "cfmods/catalog"

// Lookup resolves catalog ids. *catalog.Index satisfies it.
type Lookup interface {
	FindByID(id int) (catalog.ModRecord, bool)
}

// Resolution is the outcome of resolving one file's dependencies.
type Resolution struct {
	Mods       []catalog.ModRecord
	Unresolved []int
}

// ResolveDependencies follows required references only, one level deep.
// Ids missing from the catalog are reported in Unresolved instead of
// failing.
func ResolveDependencies(detail catalog.FileDetail, lookup Lookup) Resolution {
	var res Resolution
	for _, dep := range detail.Dependencies {
		if dep.Type != catalog.DependencyRequired {
			continue
		}
		mod, ok := lookup.FindByID(dep.AddonID)
		if !ok {
			res.Unresolved = append(res.Unresolved, dep.AddonID)
			continue
		}
		res.Mods = append(res.Mods, mod)
	}
	return res
}
