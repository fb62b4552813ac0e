package domain

import "fmt"

// SourceMap is a per-session bijection from citation index [1..N] to the
// TieredSource admitted at that index. Indices are stable: once assigned an
// index is never renumbered, only extended by appending new entries (see
// spec invariant: "SourceMap never renumbers an existing index").
type SourceMap struct {
	bySource []TieredSource // index 0 holds citation index 1, etc.
}

// NewSourceMap returns an empty map.
func NewSourceMap() *SourceMap {
	return &SourceMap{}
}

// Append assigns the next available index to src and returns it.
func (m *SourceMap) Append(src TieredSource) int {
	m.bySource = append(m.bySource, src)
	return len(m.bySource)
}

// AppendAll assigns consecutive indices to every source in order, returning
// the assigned indices in the same order as srcs.
func (m *SourceMap) AppendAll(srcs []TieredSource) []int {
	out := make([]int, 0, len(srcs))
	for _, s := range srcs {
		out = append(out, m.Append(s))
	}
	return out
}

// Get returns the source at citation index i (1-based) and whether it exists.
func (m *SourceMap) Get(i int) (TieredSource, bool) {
	if i < 1 || i > len(m.bySource) {
		return TieredSource{}, false
	}
	return m.bySource[i-1], true
}

// Len returns the number of admitted sources (== highest valid index).
func (m *SourceMap) Len() int {
	return len(m.bySource)
}

// All returns the sources in index order, 1-based index alongside each.
func (m *SourceMap) All() []IndexedSource {
	out := make([]IndexedSource, 0, len(m.bySource))
	for i, s := range m.bySource {
		out = append(out, IndexedSource{Index: i + 1, Source: s})
	}
	return out
}

// IndexedSource pairs a citation index with its source.
type IndexedSource struct {
	Index  int
	Source TieredSource
}

// ContainsAll reports whether every index in indices is present in the map.
func (m *SourceMap) ContainsAll(indices []int) error {
	for _, i := range indices {
		if _, ok := m.Get(i); !ok {
			return fmt.Errorf("citation index %d not present in source map (have 1..%d)", i, m.Len())
		}
	}
	return nil
}
