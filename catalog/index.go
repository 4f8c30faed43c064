package catalog

// Index is an in-memory lookup over one Document.
type Index struct {
	bySlug map[string][]int
	byID   map[int]int
	doc    Document
}

// NewIndex builds lookups for doc. Slugs may repeat in the source catalog,
// so FindBySlug returns every match; ids resolve to their first occurrence.
func NewIndex(doc Document) *Index {
	idx := &Index{
		bySlug: make(map[string][]int, len(doc.Mods)),
		byID:   make(map[int]int, len(doc.Mods)),
		doc:    doc,
	}
	for i, m := range doc.Mods {
		idx.bySlug[m.Slug] = append(idx.bySlug[m.Slug], i)
		if _, seen := idx.byID[m.ID]; !seen {
			idx.byID[m.ID] = i
		}
	}
	return idx
}

// FindBySlug returns all mods with the slug, in catalog order.
func (idx *Index) FindBySlug(slug string) []ModRecord {
	positions := idx.bySlug[slug]
	if len(positions) == 0 {
		return nil
	}
	out := make([]ModRecord, 0, len(positions))
	for _, p := range positions {
		out = append(out, idx.doc.Mods[p])
	}
	return out
}

// FindByID returns the first mod with the id.
func (idx *Index) FindByID(id int) (ModRecord, bool) {
	p, ok := idx.byID[id]
	if !ok {
		return ModRecord{}, false
	}
	return idx.doc.Mods[p], true
}

// Len is the number of indexed mods.
func (idx *Index) Len() int {
	return len(idx.doc.Mods)
}
